package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rl1809/lot-ledger/internal/core/domain"
	"github.com/rl1809/lot-ledger/internal/port"
)

// Mock DatabaseRepository. Within runs one transaction at a time against a
// staged copy and only publishes it when fn succeeds.
type mockDB struct {
	mu         sync.Mutex
	lots       map[domain.LotKey]domain.Lot
	entries    []domain.LedgerEntry
	nextID     int64
	failAppend error
}

func newMockDB() *mockDB {
	return &mockDB{lots: make(map[domain.LotKey]domain.Lot)}
}

func (m *mockDB) Within(ctx context.Context, fn func(ctx context.Context, tx port.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &mockTx{db: m, lots: make(map[domain.LotKey]domain.Lot, len(m.lots)), nextID: m.nextID}
	for k, v := range m.lots {
		tx.lots[k] = v
	}

	if err := fn(ctx, tx); err != nil {
		return err
	}

	m.lots = tx.lots
	m.entries = append(m.entries, tx.entries...)
	m.nextID = tx.nextID
	return nil
}

func (m *mockDB) Lookup(ctx context.Context, itemNumber string) (*domain.Lot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, lot := range m.lots {
		if k.ItemNumber == itemNumber {
			return &lot, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDB) LotsFor(ctx context.Context, itemNumber string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lots := []string{}
	for k := range m.lots {
		if k.ItemNumber == itemNumber {
			lots = append(lots, k.Lot)
		}
	}
	return lots, nil
}

func (m *mockDB) LotInfo(ctx context.Context, key domain.LotKey) (*domain.Lot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lot, ok := m.lots[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &lot, nil
}

func (m *mockDB) ListLots(ctx context.Context) ([]domain.Lot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lots := []domain.Lot{}
	for _, lot := range m.lots {
		lots = append(lots, lot)
	}
	return lots, nil
}

func (m *mockDB) ListEntries(ctx context.Context) ([]domain.LedgerEntry, error) {
	return m.ListEntriesByItem(ctx, "")
}

func (m *mockDB) ListEntriesByItem(ctx context.Context, itemNumber string) ([]domain.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := []domain.LedgerEntry{}
	for i := len(m.entries) - 1; i >= 0; i-- {
		if itemNumber == "" || m.entries[i].ItemNumber == itemNumber {
			entries = append(entries, m.entries[i])
		}
	}
	return entries, nil
}

func (m *mockDB) entriesFor(key domain.LotKey) []domain.LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	var entries []domain.LedgerEntry
	for _, e := range m.entries {
		if e.ItemNumber == key.ItemNumber && e.Lot == key.Lot {
			entries = append(entries, e)
		}
	}
	return entries
}

type mockTx struct {
	db      *mockDB
	lots    map[domain.LotKey]domain.Lot
	entries []domain.LedgerEntry
	nextID  int64
}

func (t *mockTx) LockLot(ctx context.Context, key domain.LotKey) (*domain.Lot, error) {
	lot, ok := t.lots[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, key)
	}
	return &lot, nil
}

func (t *mockTx) EnsureLot(ctx context.Context, key domain.LotKey) (*domain.Lot, error) {
	if _, ok := t.lots[key]; !ok {
		t.lots[key] = domain.Lot{ItemNumber: key.ItemNumber, Lot: key.Lot}
	}
	return t.LockLot(ctx, key)
}

func (t *mockTx) SaveLot(ctx context.Context, lot domain.Lot) error {
	t.lots[lot.Key()] = lot
	return nil
}

func (t *mockTx) AppendEntry(ctx context.Context, entry *domain.LedgerEntry) error {
	if t.db.failAppend != nil {
		return t.db.failAppend
	}
	t.nextID++
	entry.ID = t.nextID
	entry.Timestamp = time.Now().UTC()
	t.entries = append(t.entries, *entry)
	return nil
}

// Mock CacheRepository
type mockCacheRepo struct {
	idempotencySet map[string]bool
	released       []string
	err            error
	mu             sync.Mutex
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{idempotencySet: make(map[string]bool)}
}

func (m *mockCacheRepo) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return false, m.err
	}
	if m.idempotencySet[key] {
		return false, nil
	}
	m.idempotencySet[key] = true
	return true, nil
}

func (m *mockCacheRepo) ReleaseIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.idempotencySet, key)
	m.released = append(m.released, key)
	return nil
}

var errDiskFull = errors.New("disk full")
