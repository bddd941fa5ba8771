package postgres

import (
	"context"
	"fmt"

	"github.com/iamasit07/cartline/backend/internal/domain"
	"github.com/jackc/pgx/v5"
)

// Catalog is the fixed product set the environment is reset to.
var Catalog = []domain.Product{
	{Name: "Laptop", Description: "High-performance laptop with 16GB RAM", Price: 999.99, ImageURL: "Laptop", Stock: 50},
	{Name: "Smartphone", Description: "Latest model with 128GB storage", Price: 699.99, ImageURL: "Smartphone", Stock: 100},
	{Name: "Headphones", Description: "Noise-cancelling wireless headphones", Price: 199.99, ImageURL: "Headphones", Stock: 100},
	{Name: "Tablet", Description: "10-inch screen with 64GB storage", Price: 349.99, ImageURL: "Tablet", Stock: 30},
	{Name: "Smartwatch", Description: "Fitness tracking and notifications", Price: 249.99, ImageURL: "Watch", Stock: 45},
}

type AdminRepo struct {
	db Pool
}

func NewAdminRepo(db Pool) *AdminRepo {
	return &AdminRepo{db: db}
}

// Reset empties carts and reseeds products with Catalog in one transaction.
func (r *AdminRepo) Reset(ctx context.Context) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	if err := reseed(ctx, tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func reseed(ctx context.Context, tx pgx.Tx) error {
	if _, err := tx.Exec(ctx, `TRUNCATE cart_items, carts, products RESTART IDENTITY CASCADE`); err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	for _, p := range Catalog {
		_, err := tx.Exec(ctx, `
			INSERT INTO products (name, description, price, image_url, stock)
			VALUES ($1, $2, $3, $4, $5)`, p.Name, p.Description, p.Price, p.ImageURL, p.Stock)
		if err != nil {
			return fmt.Errorf("failed to seed product %s: %w", p.Name, err)
		}
	}
	return nil
}
