// Package audit selects the order audit trail backend.
package audit

import (
	"context"

	auditmemory "github.com/dejobratic/skinstore/internal/audit/memory"
	auditmongo "github.com/dejobratic/skinstore/internal/audit/mongo"
	"github.com/dejobratic/skinstore/internal/config"
	"github.com/dejobratic/skinstore/internal/orders/ports"
)

// MemoryCapacity bounds the in-process trail used when mongo is not configured.
const MemoryCapacity = 10000

// Trail both records and lists audit entries.
type Trail interface {
	ports.AuditLog
	ports.AuditReader
}

// Open writes to mongo when a URI is configured and keeps a bounded
// in-process trail otherwise. The returned func releases the connection.
func Open(ctx context.Context, cfg config.MongoConfig) (Trail, func(), error) {
	if cfg.URI == "" {
		return auditmemory.NewLog(MemoryCapacity), func() {}, nil
	}

	client, err := auditmongo.Connect(ctx, cfg.URI)
	if err != nil {
		return nil, nil, err
	}

	log := auditmongo.NewLog(client.Database(cfg.Database).Collection(cfg.Collection))
	if err := log.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}
	return log, func() { _ = client.Disconnect(context.Background()) }, nil
}
