// Package cart keeps one active cart per user and couples every cart
// mutation with the matching stock reservation or release.
package cart

import (
	"context"

	"github.com/iamasit07/cartline/backend/internal/domain"
	"github.com/iamasit07/cartline/backend/internal/logging"
)

type Repository interface {
	FindByUser(ctx context.Context, userID int64) (*domain.Cart, error)
	Create(ctx context.Context, userID int64) (*domain.Cart, error)
	AddItem(ctx context.Context, item *domain.CartItem) error
	// UpdateItemQuantity writes quantity only if the item still holds from,
	// and reports domain.ErrCartItemConflict otherwise.
	UpdateItemQuantity(ctx context.Context, itemID int64, from, quantity int) error
	DeleteItem(ctx context.Context, itemID int64) error
	UpdateTotal(ctx context.Context, cartID int64, total float64) error
	DeleteDuplicateCarts(ctx context.Context) (int64, error)
}

// Stock is the reservation side of the inventory.
type Stock interface {
	Reserve(ctx context.Context, productID int64, quantity int) (*domain.Product, error)
	Release(ctx context.Context, productID int64, quantity int) error
}

type Manager struct {
	carts Repository
	stock Stock
	log   logging.Logger
}

func NewManager(carts Repository, stock Stock, log logging.Logger) *Manager {
	return &Manager{carts: carts, stock: stock, log: log}
}

// GetOrCreate returns the user's cart, creating an empty one if needed.
// With duplicates present the lowest-id cart is used.
func (m *Manager) GetOrCreate(ctx context.Context, userID int64) (*domain.Cart, error) {
	cart, err := m.carts.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart != nil {
		return cart, nil
	}
	cart, err = m.carts.Create(ctx, userID)
	if err != nil {
		return nil, err
	}
	m.log.Info(ctx, "cart created", "user_id", userID, "cart_id", cart.ID)
	return cart, nil
}

func (m *Manager) GetCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	cart, err := m.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	cart.Total = cart.CalculateTotal()
	return cart, nil
}

// AddItem reserves stock first and only then writes the item. The unit
// price is taken from the product at reservation time.
func (m *Manager) AddItem(ctx context.Context, userID, productID int64, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	cart, err := m.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	product, err := m.stock.Reserve(ctx, productID, quantity)
	if err != nil {
		return nil, err
	}

	item := domain.CartItem{
		CartID:    cart.ID,
		ProductID: productID,
		Quantity:  quantity,
		Price:     product.Price,
	}
	if err := m.carts.AddItem(ctx, &item); err != nil {
		m.compensateRelease(ctx, productID, quantity)
		return nil, err
	}
	cart.Items = append(cart.Items, item)
	return m.finish(ctx, cart), nil
}

// UpdateItem moves stock by the difference between the new and the current
// quantity before rewriting the item. The rewrite is conditional on the
// quantity the difference was computed from; if a concurrent update won,
// the stock move is undone and domain.ErrCartItemConflict is returned.
func (m *Manager) UpdateItem(ctx context.Context, userID, itemID int64, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	cart, err := m.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	idx := cart.FindItem(itemID)
	if idx < 0 {
		return nil, domain.ErrCartItemNotFound
	}
	item := &cart.Items[idx]

	delta := quantity - item.Quantity
	if delta == 0 {
		return m.finish(ctx, cart), nil
	}
	if delta > 0 {
		if _, err := m.stock.Reserve(ctx, item.ProductID, delta); err != nil {
			return nil, err
		}
	} else {
		if err := m.stock.Release(ctx, item.ProductID, -delta); err != nil {
			return nil, err
		}
	}

	if err := m.carts.UpdateItemQuantity(ctx, itemID, item.Quantity, quantity); err != nil {
		if delta > 0 {
			m.compensateRelease(ctx, item.ProductID, delta)
		} else {
			m.compensateReserve(ctx, item.ProductID, -delta)
		}
		return nil, err
	}
	item.Quantity = quantity
	return m.finish(ctx, cart), nil
}

// RemoveItem releases the item's full quantity, then deletes it.
func (m *Manager) RemoveItem(ctx context.Context, userID, itemID int64) (*domain.Cart, error) {
	cart, err := m.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	idx := cart.FindItem(itemID)
	if idx < 0 {
		return nil, domain.ErrCartItemNotFound
	}
	item := cart.Items[idx]

	if err := m.stock.Release(ctx, item.ProductID, item.Quantity); err != nil {
		return nil, err
	}
	if err := m.carts.DeleteItem(ctx, itemID); err != nil {
		m.compensateReserve(ctx, item.ProductID, item.Quantity)
		return nil, err
	}
	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	return m.finish(ctx, cart), nil
}

// CleanupDuplicates keeps the first cart of every user and drops the rest.
func (m *Manager) CleanupDuplicates(ctx context.Context) (int64, error) {
	n, err := m.carts.DeleteDuplicateCarts(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		m.log.Info(ctx, "removed duplicate carts", "count", n)
	}
	return n, nil
}

func (m *Manager) finish(ctx context.Context, cart *domain.Cart) *domain.Cart {
	cart.Total = cart.CalculateTotal()
	if err := m.carts.UpdateTotal(ctx, cart.ID, cart.Total); err != nil {
		m.log.Warn(ctx, "failed to record cart total", "cart_id", cart.ID, "err", err)
	}
	return cart
}

func (m *Manager) compensateRelease(ctx context.Context, productID int64, quantity int) {
	if err := m.stock.Release(ctx, productID, quantity); err != nil {
		m.log.Error(ctx, "failed to release stock after cart write failure",
			"product_id", productID, "quantity", quantity, "err", err)
	}
}

func (m *Manager) compensateReserve(ctx context.Context, productID int64, quantity int) {
	if _, err := m.stock.Reserve(ctx, productID, quantity); err != nil {
		m.log.Error(ctx, "failed to re-reserve stock after cart write failure",
			"product_id", productID, "quantity", quantity, "err", err)
	}
}
