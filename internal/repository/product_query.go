package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"glutenfree/internal/model"
)

// ProductQuery reads products back from Postgres for EAN lookups.
type ProductQuery struct {
	DB *pgxpool.Pool
}

// FindByEAN returns the most recently scraped product with the given EAN, or
// nil when there is none.
func (q *ProductQuery) FindByEAN(ctx context.Context, ean string) (*model.Product, error) {
	var (
		p       model.Product
		details []byte
	)
	err := q.DB.QueryRow(ctx, `
		SELECT url, title, short_description, details, image
		FROM gluten_free_products
		WHERE ean = $1
		ORDER BY scraped_at DESC
		LIMIT 1
	`, ean).Scan(&p.URL, &p.Title, &p.ShortDescription, &details, &p.Image)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(details, &p.Details); err != nil {
		return nil, err
	}
	return &p, nil
}
