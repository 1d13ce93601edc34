package postgres

import (
	"context"
	"fmt"

	"github.com/dejobratic/skinstore/internal/orders/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Catalog struct {
	pool *pgxpool.Pool
}

func NewCatalog(pool *pgxpool.Pool) *Catalog {
	return &Catalog{pool: pool}
}

func (c *Catalog) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	query := `
		INSERT INTO products (name, price_cents, currency)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := c.pool.QueryRow(ctx, query, product.Name, product.PriceCents, product.Currency).
		Scan(&product.ID, &product.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}

	return &product, nil
}

func (c *Catalog) GetProducts(ctx context.Context, ids []int64) (map[int64]domain.Product, error) {
	query := `
		SELECT id, name, price_cents, currency, created_at
		FROM products
		WHERE id = ANY($1)
	`

	rows, err := c.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make(map[int64]domain.Product, len(ids))
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.PriceCents, &p.Currency, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products[p.ID] = p
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return products, nil
}
