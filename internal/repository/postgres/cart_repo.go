package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/iamasit07/cartline/backend/internal/domain"
	"github.com/jackc/pgx/v5"
)

type CartRepo struct {
	db Pool
}

func NewCartRepo(db Pool) *CartRepo {
	return &CartRepo{db: db}
}

// FindByUser returns the user's first cart with its items, or nil, nil.
func (r *CartRepo) FindByUser(ctx context.Context, userID int64) (*domain.Cart, error) {
	cart := domain.Cart{UserID: userID}
	err := r.db.QueryRow(ctx,
		`SELECT id FROM carts WHERE user_id = $1 ORDER BY id LIMIT 1`, userID).Scan(&cart.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, cart_id, product_id, quantity, price::float8
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY id`, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	cart.Items = make([]domain.CartItem, 0)
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *CartRepo) Create(ctx context.Context, userID int64) (*domain.Cart, error) {
	cart := &domain.Cart{UserID: userID, Items: make([]domain.CartItem, 0)}
	err := r.db.QueryRow(ctx,
		`INSERT INTO carts (user_id, total) VALUES ($1, 0) RETURNING id`, userID).Scan(&cart.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}
	return cart, nil
}

// AddItem inserts the item and sets its id.
func (r *CartRepo) AddItem(ctx context.Context, item *domain.CartItem) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO cart_items (cart_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id`, item.CartID, item.ProductID, item.Quantity, item.Price).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("failed to add cart item: %w", err)
	}
	return nil
}

// UpdateItemQuantity sets the quantity only while the row still holds from.
// Zero affected rows means the item changed or went away underneath us.
func (r *CartRepo) UpdateItemQuantity(ctx context.Context, itemID int64, from, quantity int) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE cart_items SET quantity = $3 WHERE id = $1 AND quantity = $2`, itemID, from, quantity)
	if err != nil {
		return fmt.Errorf("failed to update cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCartItemConflict
	}
	return nil
}

func (r *CartRepo) DeleteItem(ctx context.Context, itemID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCartItemNotFound
	}
	return nil
}

// UpdateTotal records the last computed total. Reads never use it.
func (r *CartRepo) UpdateTotal(ctx context.Context, cartID int64, total float64) error {
	if _, err := r.db.Exec(ctx, `UPDATE carts SET total = $2 WHERE id = $1`, cartID, total); err != nil {
		return fmt.Errorf("failed to update cart total: %w", err)
	}
	return nil
}

// DeleteDuplicateCarts keeps the lowest-id cart of every user and deletes
// the rest. Their items go with them through the cascade.
func (r *CartRepo) DeleteDuplicateCarts(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM carts c
		USING carts keep
		WHERE c.user_id = keep.user_id
		  AND c.id > keep.id`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete duplicate carts: %w", err)
	}
	return tag.RowsAffected(), nil
}
