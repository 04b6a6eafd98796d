package port

import (
	"context"

	"github.com/rl1809/lot-ledger/internal/core/domain"
)

type DatabaseRepository interface {
	UnitOfWork
	InventoryReader
	LedgerReader
}

type UnitOfWork interface {
	// Within runs fn inside one transaction. A non-nil error from fn rolls back
	// every write made through tx; nil commits them together.
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the write surface available inside a unit of work.
type Tx interface {
	// LockLot returns the lot locked for update, or domain.ErrNotFound.
	LockLot(ctx context.Context, key domain.LotKey) (*domain.Lot, error)

	// EnsureLot locks the lot, first creating an empty one if it does not exist.
	EnsureLot(ctx context.Context, key domain.LotKey) (*domain.Lot, error)

	// SaveLot writes quantity and descriptive fields of a locked lot.
	SaveLot(ctx context.Context, lot domain.Lot) error

	// AppendEntry stores a ledger entry, filling in its ID and Timestamp.
	AppendEntry(ctx context.Context, entry *domain.LedgerEntry) error
}

type InventoryReader interface {
	// Lookup returns any one lot of the item, or domain.ErrNotFound.
	Lookup(ctx context.Context, itemNumber string) (*domain.Lot, error)

	LotsFor(ctx context.Context, itemNumber string) ([]string, error)

	// LotInfo returns the lot, or domain.ErrNotFound.
	LotInfo(ctx context.Context, key domain.LotKey) (*domain.Lot, error)

	// ListLots returns every lot ordered by item number then lot.
	ListLots(ctx context.Context) ([]domain.Lot, error)
}

type LedgerReader interface {
	// ListEntries returns the full ledger, newest first.
	ListEntries(ctx context.Context) ([]domain.LedgerEntry, error)

	// ListEntriesByItem returns the ledger of one item, newest first.
	ListEntriesByItem(ctx context.Context, itemNumber string) ([]domain.LedgerEntry, error)
}
