package ports

import "context"

// StoredResponse contains the response data to replay for a reused key.
// A zero StatusCode marks a reservation held by a request that has not
// finished yet.
type StoredResponse struct {
	StatusCode int
	Body       []byte
	OrderID    string
}

// Pending reports whether the key is reserved but has no response yet.
func (r StoredResponse) Pending() bool {
	return r.StatusCode == 0
}

// IdempotencyStore lets order and checkout creation be retried safely.
// Get returns nil, nil for unknown keys. Reserve claims a free key and reports
// false when another request already holds it. Save replaces a reservation
// with the response, and keeps the first response for a key. Release drops a
// reservation so the key can be retried.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*StoredResponse, error)
	Reserve(ctx context.Context, key string) (bool, error)
	Save(ctx context.Context, key string, response StoredResponse) error
	Release(ctx context.Context, key string) error
}
