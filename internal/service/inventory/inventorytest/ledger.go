// Package inventorytest provides an in-memory ledger with row-lock
// semantics for tests.
package inventorytest

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/iamasit07/cartline/backend/internal/domain"
	"github.com/iamasit07/cartline/backend/internal/repository/postgres"
)

var errTxClosed = errors.New("tx is closed")

// Ledger mimics the products table. GetProductForUpdate blocks while
// another open transaction holds the same row, like SELECT ... FOR UPDATE.
type Ledger struct {
	mu       sync.Mutex
	products map[int64]domain.Product
	rows     map[int64]*sync.Mutex

	// FailUpdate, when set, is returned by every UpdateStock call.
	FailUpdate error
}

func NewLedger(products ...domain.Product) *Ledger {
	l := &Ledger{
		products: make(map[int64]domain.Product),
		rows:     make(map[int64]*sync.Mutex),
	}
	for _, p := range products {
		l.products[p.ID] = p
		l.rows[p.ID] = &sync.Mutex{}
	}
	return l
}

// Stock returns the committed stock of a product.
func (l *Ledger) Stock(productID int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.products[productID].Stock
}

type tx struct {
	l      *Ledger
	held   []*sync.Mutex
	staged map[int64]int
	closed bool
}

func (t *tx) Commit(context.Context) error {
	if t.closed {
		return errTxClosed
	}
	t.l.mu.Lock()
	for id, stock := range t.staged {
		p := t.l.products[id]
		p.Stock = stock
		t.l.products[id] = p
	}
	t.l.mu.Unlock()
	t.release()
	return nil
}

func (t *tx) Rollback(context.Context) error {
	if t.closed {
		return errTxClosed
	}
	t.release()
	return nil
}

func (t *tx) release() {
	t.closed = true
	for _, m := range t.held {
		m.Unlock()
	}
	t.held = nil
}

func (l *Ledger) BeginTx(context.Context) (postgres.Tx, error) {
	return &tx{l: l, staged: make(map[int64]int)}, nil
}

func (l *Ledger) GetProductForUpdate(_ context.Context, ptx postgres.Tx, productID int64) (*domain.Product, error) {
	t := ptx.(*tx)
	l.mu.Lock()
	row, ok := l.rows[productID]
	l.mu.Unlock()
	if !ok {
		return nil, domain.ErrProductNotFound
	}

	row.Lock()
	t.held = append(t.held, row)

	l.mu.Lock()
	defer l.mu.Unlock()
	p := l.products[productID]
	if stock, ok := t.staged[productID]; ok {
		p.Stock = stock
	}
	return &p, nil
}

func (l *Ledger) UpdateStock(_ context.Context, ptx postgres.Tx, productID int64, stock int) error {
	if l.FailUpdate != nil {
		return l.FailUpdate
	}
	if stock < 0 {
		return errors.New("stock check constraint violated")
	}
	ptx.(*tx).staged[productID] = stock
	return nil
}

func (l *Ledger) GetProduct(_ context.Context, productID int64) (*domain.Product, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.products[productID]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

func (l *Ledger) ListProducts(context.Context) ([]domain.Product, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.Product, 0, len(l.products))
	for _, p := range l.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
