package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/dejobratic/skinstore/internal/orders/ports"
)

// Log is an append-only in-process audit trail. When capacity is positive the
// oldest entries are dropped once it is reached.
type Log struct {
	mu       sync.RWMutex
	capacity int
	entries  []ports.AuditEntry
}

func NewLog(capacity int) *Log {
	return &Log{capacity: capacity}
}

func (l *Log) Record(_ context.Context, entry ports.AuditEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	entry.Data = maps.Clone(entry.Data)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry)
	if l.capacity > 0 && len(l.entries) > l.capacity {
		l.entries = slices.Delete(l.entries, 0, len(l.entries)-l.capacity)
	}
	return nil
}

func (l *Log) Entries(_ context.Context, orderID string, limit int64) ([]ports.AuditEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []ports.AuditEntry
	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].OrderID != orderID {
			continue
		}
		out = append(out, l.entries[i])
		if limit > 0 && int64(len(out)) == limit {
			break
		}
	}
	return out, nil
}
