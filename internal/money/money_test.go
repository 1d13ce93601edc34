package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCents(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"19.99", 1999},
		{"19.9", 1990},
		{"20", 2000},
		{"0", 0},
		{"0.01", 1},
		{"1234.50", 123450},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCents(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCentsRejectsBadInput(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"abc", ErrInvalidAmount},
		{"", ErrInvalidAmount},
		{"-1.00", ErrNegativeAmount},
		{"19.999", ErrTooPrecise},
		{"99999999999999999999", ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := ParseCents(tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "19.99", FormatCents(1999))
	assert.Equal(t, "0.05", FormatCents(5))
	assert.Equal(t, "40.00", FormatCents(4000))
}

func TestRoundTrip(t *testing.T) {
	for _, cents := range []int64{0, 1, 99, 1999, 4748, 1000000} {
		got, err := ParseCents(FormatCents(cents))
		require.NoError(t, err)
		assert.Equal(t, cents, got)
	}
}
