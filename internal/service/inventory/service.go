// Package inventory implements the stock reservation protocol over the
// product ledger, plus the cached read side of stock and view counts.
package inventory

import (
	"context"
	"fmt"

	"github.com/iamasit07/cartline/backend/internal/domain"
	"github.com/iamasit07/cartline/backend/internal/logging"
	"github.com/iamasit07/cartline/backend/internal/repository/postgres"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Ledger is the durable product store. GetProductForUpdate must lock the
// row for the rest of the transaction.
type Ledger interface {
	BeginTx(ctx context.Context) (postgres.Tx, error)
	GetProductForUpdate(ctx context.Context, tx postgres.Tx, productID int64) (*domain.Product, error)
	UpdateStock(ctx context.Context, tx postgres.Tx, productID int64, stock int) error
	GetProduct(ctx context.Context, productID int64) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

type Service struct {
	ledger Ledger
	stock  *StockCache
	tracer trace.Tracer
	log    logging.Logger
}

func NewService(ledger Ledger, stock *StockCache, log logging.Logger) *Service {
	return &Service{
		ledger: ledger,
		stock:  stock,
		tracer: otel.Tracer("inventory"),
		log:    log,
	}
}

// Reserve takes quantity units of stock. It fails with
// *domain.OutOfStockError, without writing, if that would go below zero.
// The returned product carries the new stock level.
func (s *Service) Reserve(ctx context.Context, productID int64, quantity int) (*domain.Product, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	ctx, span := s.tracer.Start(ctx, "inventory.Reserve")
	defer span.End()
	span.SetAttributes(attribute.Int64("product.id", productID), attribute.Int("quantity", quantity))

	p, err := s.adjust(ctx, productID, -quantity)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return p, nil
}

// Release returns quantity units of stock. There is no upper bound.
func (s *Service) Release(ctx context.Context, productID int64, quantity int) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	ctx, span := s.tracer.Start(ctx, "inventory.Release")
	defer span.End()
	span.SetAttributes(attribute.Int64("product.id", productID), attribute.Int("quantity", quantity))

	if _, err := s.adjust(ctx, productID, quantity); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// adjust applies delta to the locked ledger row and commits, then mirrors
// the new level into the cache. The cache write is outside the transaction.
func (s *Service) adjust(ctx context.Context, productID int64, delta int) (*domain.Product, error) {
	tx, err := s.ledger.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	p, err := s.ledger.GetProductForUpdate(ctx, tx, productID)
	if err != nil {
		return nil, err
	}

	newStock := p.Stock + delta
	if newStock < 0 {
		s.log.Info(ctx, "reservation rejected", "product_id", productID, "available", p.Stock, "requested", -delta)
		return nil, &domain.OutOfStockError{
			ProductID:   p.ID,
			ProductName: p.Name,
			Available:   p.Stock,
			Requested:   -delta,
		}
	}

	if err := s.ledger.UpdateStock(ctx, tx, productID, newStock); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit stock change: %w", err)
	}
	committed = true

	p.Stock = newStock
	s.stock.Put(ctx, productID, newStock)
	return p, nil
}

// CurrentStock serves from the cache and falls through to the ledger on a
// miss, repopulating the cache.
func (s *Service) CurrentStock(ctx context.Context, productID int64) (int, error) {
	if stock, ok := s.stock.Get(ctx, productID); ok {
		return stock, nil
	}
	p, err := s.ledger.GetProduct(ctx, productID)
	if err != nil {
		return 0, err
	}
	s.stock.Put(ctx, productID, p.Stock)
	return p.Stock, nil
}

func (s *Service) Products(ctx context.Context) ([]domain.Product, error) {
	return s.ledger.ListProducts(ctx)
}

// Product returns a product and counts the view.
func (s *Service) Product(ctx context.Context, productID int64) (*domain.Product, error) {
	p, err := s.ledger.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	s.stock.IncrViews(ctx, productID)
	return p, nil
}

func (s *Service) StockInfo(ctx context.Context, productID int64) (*domain.StockInfo, error) {
	stock, err := s.CurrentStock(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &domain.StockInfo{
		ProductID: productID,
		Stock:     stock,
		Views:     s.stock.Views(ctx, productID),
	}, nil
}

// WarmCache mirrors every product's stock into the cache.
func (s *Service) WarmCache(ctx context.Context) error {
	products, err := s.ledger.ListProducts(ctx)
	if err != nil {
		return err
	}
	for _, p := range products {
		s.stock.Put(ctx, p.ID, p.Stock)
	}
	s.log.Info(ctx, "stock cache warmed", "products", len(products))
	return nil
}

// ResetCache clears stock entries and view counters, then warms again.
func (s *Service) ResetCache(ctx context.Context) error {
	s.stock.Clear(ctx)
	return s.WarmCache(ctx)
}
