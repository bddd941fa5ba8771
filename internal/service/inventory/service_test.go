package inventory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/iamasit07/cartline/backend/internal/cache"
	"github.com/iamasit07/cartline/backend/internal/domain"
	"github.com/iamasit07/cartline/backend/internal/logging"
	"github.com/iamasit07/cartline/backend/internal/service/inventory/inventorytest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const laptopID int64 = 1

func newTestService(t *testing.T, stock int) (*Service, *inventorytest.Ledger, *cache.LocalStore) {
	t.Helper()
	ledger := inventorytest.NewLedger(
		domain.Product{ID: laptopID, Name: "Laptop", Price: 999.99, Stock: stock},
		domain.Product{ID: 2, Name: "Tablet", Price: 349.99, Stock: 30},
	)
	store := cache.NewLocalStore()
	return NewService(ledger, NewStockCache(store, time.Hour, logging.Discard()), logging.Discard()), ledger, store
}

func TestReserve_DecrementsAndMirrors(t *testing.T) {
	ctx := context.Background()
	s, ledger, store := newTestService(t, 50)

	p, err := s.Reserve(ctx, laptopID, 10)
	require.NoError(t, err)
	assert.Equal(t, 40, p.Stock)
	assert.Equal(t, 40, ledger.Stock(laptopID))

	cached, err := store.Get(ctx, "product:stock:1")
	require.NoError(t, err)
	assert.Equal(t, "40", cached)
}

func TestReserve_OutOfStockLeavesStockUnchanged(t *testing.T) {
	ctx := context.Background()
	s, ledger, _ := newTestService(t, 5)

	for i := 0; i < 2; i++ {
		_, err := s.Reserve(ctx, laptopID, 6)
		require.ErrorIs(t, err, domain.ErrOutOfStock)

		var oos *domain.OutOfStockError
		require.True(t, errors.As(err, &oos))
		assert.Equal(t, "Laptop", oos.ProductName)
		assert.Equal(t, 5, oos.Available)
		assert.Equal(t, 6, oos.Requested)
		assert.Equal(t, 5, ledger.Stock(laptopID))
	}

	_, err := s.Reserve(ctx, laptopID, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, ledger.Stock(laptopID))
}

func TestReserveRelease_Validation(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestService(t, 5)

	_, err := s.Reserve(ctx, laptopID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	assert.ErrorIs(t, s.Release(ctx, laptopID, -1), domain.ErrInvalidQuantity)

	_, err = s.Reserve(ctx, 99, 1)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestRelease_NoUpperBound(t *testing.T) {
	ctx := context.Background()
	s, ledger, _ := newTestService(t, 50)

	require.NoError(t, s.Release(ctx, laptopID, 100))
	assert.Equal(t, 150, ledger.Stock(laptopID))
}

func TestReserve_LedgerFailureDoesNotTouchCache(t *testing.T) {
	ctx := context.Background()
	s, ledger, store := newTestService(t, 50)
	require.NoError(t, s.WarmCache(ctx))

	ledger.FailUpdate = errors.New("disk full")
	_, err := s.Reserve(ctx, laptopID, 1)
	assert.Error(t, err)

	cached, err := store.Get(ctx, "product:stock:1")
	require.NoError(t, err)
	assert.Equal(t, "50", cached)
	assert.Equal(t, 50, ledger.Stock(laptopID))
}

func TestReserve_ConcurrentNeverOversells(t *testing.T) {
	ctx := context.Background()
	s, ledger, _ := newTestService(t, 30)

	var ok, rejected int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Reserve(ctx, laptopID, 1)
			switch {
			case err == nil:
				atomic.AddInt32(&ok, 1)
			case errors.Is(err, domain.ErrOutOfStock):
				atomic.AddInt32(&rejected, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(30), ok)
	assert.Equal(t, int32(20), rejected)
	assert.Equal(t, 0, ledger.Stock(laptopID))
}

func TestReserveRelease_NetStock(t *testing.T) {
	ctx := context.Background()
	s, ledger, _ := newTestService(t, 50)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := s.Reserve(ctx, laptopID, 2)
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Release(ctx, laptopID, 1))
		}()
	}
	wg.Wait()

	assert.Equal(t, 50-40+20, ledger.Stock(laptopID))
}

func TestCurrentStock_ReadThrough(t *testing.T) {
	ctx := context.Background()
	s, _, store := newTestService(t, 50)

	_, err := store.Get(ctx, "product:stock:1")
	require.ErrorIs(t, err, cache.ErrMiss)

	stock, err := s.CurrentStock(ctx, laptopID)
	require.NoError(t, err)
	assert.Equal(t, 50, stock)

	// a cached value wins over the ledger on reads
	require.NoError(t, store.Set(ctx, "product:stock:1", "7", time.Hour))
	stock, err = s.CurrentStock(ctx, laptopID)
	require.NoError(t, err)
	assert.Equal(t, 7, stock)

	_, err = s.CurrentStock(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestProduct_CountsViews(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestService(t, 50)

	for i := 0; i < 3; i++ {
		_, err := s.Product(ctx, laptopID)
		require.NoError(t, err)
	}

	info, err := s.StockInfo(ctx, laptopID)
	require.NoError(t, err)
	assert.Equal(t, domain.StockInfo{ProductID: laptopID, Stock: 50, Views: 3}, *info)
}

func TestResetCache(t *testing.T) {
	ctx := context.Background()
	s, _, store := newTestService(t, 50)

	_, err := s.Product(ctx, laptopID)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "product:stock:1", "3", time.Hour))
	require.NoError(t, store.Set(ctx, "auth:token:x", "1", time.Hour))

	require.NoError(t, s.ResetCache(ctx))

	v, err := store.Get(ctx, "product:stock:1")
	require.NoError(t, err)
	assert.Equal(t, "50", v)
	v, err = store.Get(ctx, "product:stock:2")
	require.NoError(t, err)
	assert.Equal(t, "30", v)

	_, err = store.Get(ctx, "product:views:1")
	assert.ErrorIs(t, err, cache.ErrMiss)
	_, err = store.Get(ctx, "auth:token:x")
	assert.NoError(t, err)
}
