package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/iamasit07/cartline/backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Pool is the part of *pgxpool.Pool the repositories use.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Tx is a ledger transaction handle.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *pgTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

func unwrapTx(tx Tx) (pgx.Tx, error) {
	t, ok := tx.(*pgTx)
	if !ok {
		return nil, fmt.Errorf("unexpected transaction type %T", tx)
	}
	return t.tx, nil
}

// ProductRepo is the inventory ledger.
type ProductRepo struct {
	db Pool
}

func NewProductRepo(db Pool) *ProductRepo {
	return &ProductRepo{db: db}
}

func (r *ProductRepo) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &pgTx{tx: tx}, nil
}

const productSelectFields = `id, name, description, price::float8, image_url, stock`

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.ImageURL, &p.Stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProductForUpdate reads the product row and locks it until tx ends.
// Concurrent reservations on the same product serialize on this lock.
func (r *ProductRepo) GetProductForUpdate(ctx context.Context, tx Tx, productID int64) (*domain.Product, error) {
	pgxTx, err := unwrapTx(tx)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + productSelectFields + ` FROM products WHERE id = $1 FOR UPDATE`
	p, err := scanProduct(pgxTx.QueryRow(ctx, query, productID))
	if err != nil && !errors.Is(err, domain.ErrProductNotFound) {
		return nil, fmt.Errorf("failed to get product with lock: %w", err)
	}
	return p, err
}

func (r *ProductRepo) UpdateStock(ctx context.Context, tx Tx, productID int64, stock int) error {
	pgxTx, err := unwrapTx(tx)
	if err != nil {
		return err
	}
	tag, err := pgxTx.Exec(ctx, `UPDATE products SET stock = $2 WHERE id = $1`, productID, stock)
	if err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *ProductRepo) GetProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	query := `SELECT ` + productSelectFields + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.db.QueryRow(ctx, query, productID))
	if err != nil && !errors.Is(err, domain.ErrProductNotFound) {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, err
}

func (r *ProductRepo) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productSelectFields+` FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}
