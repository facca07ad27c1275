package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"glutenfree/internal/model"
)

const productSchema = `
CREATE TABLE IF NOT EXISTS gluten_free_products (
	id                UUID PRIMARY KEY,
	url               TEXT NOT NULL UNIQUE,
	ean               TEXT,
	title             TEXT,
	short_description TEXT,
	details           JSONB NOT NULL DEFAULT '{}'::jsonb,
	image             TEXT,
	run_id            TEXT,
	scraped_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS gluten_free_products_ean_idx ON gluten_free_products (ean);
`

// ProductRepository mirrors scraped products into Postgres, one row per URL.
type ProductRepository struct {
	DB    *sql.DB
	RunID string
}

func (r *ProductRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, productSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (r *ProductRepository) Save(ctx context.Context, p *model.Product) error {
	details, err := json.Marshal(p.Details)
	if err != nil {
		return err
	}
	ean := sql.NullString{String: p.EAN(), Valid: p.EAN() != ""}

	var exists bool
	err = r.DB.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM gluten_free_products WHERE url = $1)", p.URL,
	).Scan(&exists)
	if err != nil {
		return err
	}

	if exists {
		_, err = r.DB.ExecContext(ctx, `
			UPDATE gluten_free_products
			SET ean = $1, title = $2, short_description = $3, details = $4, image = $5, run_id = $6, scraped_at = now()
			WHERE url = $7
		`, ean, p.Title, p.ShortDescription, string(details), p.Image, r.RunID, p.URL)
	} else {
		_, err = r.DB.ExecContext(ctx, `
			INSERT INTO gluten_free_products
			(id, url, ean, title, short_description, details, image, run_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, uuid.New(), p.URL, ean, p.Title, p.ShortDescription, string(details), p.Image, r.RunID)
	}

	return err
}
