package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dejobratic/skinstore/internal/orders/ports"
)

type document struct {
	Action    string    `bson:"action"`
	OrderID   string    `bson:"order_id"`
	SessionID string    `bson:"session_id,omitempty"`
	Data      bson.M    `bson:"data,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

// Log writes audit entries to a mongo collection. Documents are only inserted.
type Log struct {
	collection *mongo.Collection
}

func NewLog(collection *mongo.Collection) *Log {
	return &Log{collection: collection}
}

// Connect opens a client and verifies it with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the lookup index used by Entries.
func (l *Log) EnsureIndexes(ctx context.Context) error {
	_, err := l.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "order_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create audit index: %w", err)
	}
	return nil
}

func (l *Log) Record(ctx context.Context, entry ports.AuditEntry) error {
	doc := document{
		Action:    entry.Action,
		OrderID:   entry.OrderID,
		SessionID: entry.SessionID,
		Data:      bson.M(entry.Data),
		CreatedAt: entry.CreatedAt,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	if _, err := l.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert audit entry %s for order %s: %w", entry.Action, entry.OrderID, err)
	}
	return nil
}

func (l *Log) Entries(ctx context.Context, orderID string, limit int64) ([]ports.AuditEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := l.collection.Find(ctx, bson.M{"order_id": orderID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find audit entries for order %s: %w", orderID, err)
	}
	defer cursor.Close(ctx)

	var docs []document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode audit entries for order %s: %w", orderID, err)
	}

	entries := make([]ports.AuditEntry, 0, len(docs))
	for _, doc := range docs {
		entries = append(entries, ports.AuditEntry{
			Action:    doc.Action,
			OrderID:   doc.OrderID,
			SessionID: doc.SessionID,
			Data:      map[string]any(doc.Data),
			CreatedAt: doc.CreatedAt,
		})
	}
	return entries, nil
}
