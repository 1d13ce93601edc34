package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dejobratic/skinstore/internal/orders/domain"
)

// Catalog is an in-memory product table.
type Catalog struct {
	mu       sync.RWMutex
	nextID   int64
	products map[int64]domain.Product
}

func NewCatalog(seed ...domain.Product) *Catalog {
	c := &Catalog{products: make(map[int64]domain.Product)}
	for _, p := range seed {
		c.products[p.ID] = p
		c.nextID = max(c.nextID, p.ID)
	}
	return c
}

func (c *Catalog) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	product.ID = c.nextID
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}
	c.products[product.ID] = product
	return &product, nil
}

func (c *Catalog) GetProducts(_ context.Context, ids []int64) (map[int64]domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	found := make(map[int64]domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := c.products[id]; ok {
			found[id] = p
		}
	}
	return found, nil
}
