package handler

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rl1809/lot-ledger/internal/adapter/storage"
	"github.com/rl1809/lot-ledger/internal/core/service"
)

type memoryCache struct {
	mu   sync.Mutex
	keys map[string]bool
}

func (c *memoryCache) SetIdempotency(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.keys == nil {
		c.keys = make(map[string]bool)
	}
	if c.keys[key] {
		return false, nil
	}
	c.keys[key] = true
	return true, nil
}

func (c *memoryCache) ReleaseIdempotency(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.keys, key)
	return nil
}

func newTestService(t *testing.T) (*service.InventoryService, *storage.SQLAdapter) {
	t.Helper()

	adapter, err := storage.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { adapter.Close() })
	require.NoError(t, adapter.Migrate(context.Background()))

	svc := service.NewInventoryService(adapter, decimal.NewFromInt(50), 10,
		service.WithCache(&memoryCache{}),
		service.WithLogger(zaptest.NewLogger(t)),
	)
	t.Cleanup(svc.Close)
	return svc, adapter
}

func failLedgerWrites(t *testing.T, adapter *storage.SQLAdapter) {
	t.Helper()
	_, err := adapter.DB().Exec(`
		CREATE TRIGGER fail_history BEFORE INSERT ON history
		BEGIN
			SELECT RAISE(ABORT, 'disk full');
		END`)
	require.NoError(t, err)
}
