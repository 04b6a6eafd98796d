package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/lot-ledger/internal/core/domain"
	"github.com/rl1809/lot-ledger/internal/port"
)

var errBoom = errors.New("boom")

// runRepositoryContract exercises behaviour both SQL dialects must share.
// The adapter must start with empty tables.
func runRepositoryContract(t *testing.T, adapter *SQLAdapter) {
	ctx := context.Background()
	key := domain.LotKey{ItemNumber: "A1", Lot: "L1"}

	t.Run("EnsureLotCreatesEmptyLotInsideTransaction", func(t *testing.T) {
		err := adapter.Within(ctx, func(ctx context.Context, tx port.Tx) error {
			lot, err := tx.EnsureLot(ctx, key)
			require.NoError(t, err)
			assert.True(t, lot.Quantity.IsZero())
			assert.Equal(t, "A1", lot.ItemNumber)
			assert.Equal(t, "L1", lot.Lot)
			return errBoom
		})
		require.ErrorIs(t, err, errBoom)

		_, err = adapter.LotInfo(ctx, key)
		assert.ErrorIs(t, err, domain.ErrNotFound, "rolled back lot must not be visible")
	})

	t.Run("CommitPersistsLotAndEntryTogether", func(t *testing.T) {
		var entry domain.LedgerEntry
		err := adapter.Within(ctx, func(ctx context.Context, tx port.Tx) error {
			lot, err := tx.EnsureLot(ctx, key)
			if err != nil {
				return err
			}
			lot.Name = "Gummy base"
			lot.Unit = "kg"
			lot.Supplier = "Acme"
			lot.Expiration = "2027-01-31"
			lot.Quantity = decimal.RequireFromString("12.5")
			if err := tx.SaveLot(ctx, *lot); err != nil {
				return err
			}
			entry = domain.NewLedgerEntry(*lot, lot.Quantity, domain.ActionAdd, "alice")
			return tx.AppendEntry(ctx, &entry)
		})
		require.NoError(t, err)
		assert.NotZero(t, entry.ID)
		assert.False(t, entry.Timestamp.IsZero())

		lot, err := adapter.LotInfo(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "12.5", lot.Quantity.String())
		assert.Equal(t, "kg", lot.Unit)
		assert.Equal(t, "Gummy base", lot.Name)
		assert.Equal(t, "Acme", lot.Supplier)
		assert.Equal(t, "2027-01-31", lot.Expiration)
		assert.Empty(t, lot.MfgDate)

		entries, err := adapter.ListEntriesByItem(ctx, "A1")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, entry.ID, entries[0].ID)
		assert.Equal(t, "12.5", entries[0].Change.String())
		assert.Equal(t, "12.5", entries[0].Remaining.String())
		assert.Equal(t, domain.ActionAdd, entries[0].ActionType)
		assert.Equal(t, "alice", entries[0].Username)
		assert.WithinDuration(t, entry.Timestamp, entries[0].Timestamp, 0)
	})

	t.Run("LockLotMissingIsNotFound", func(t *testing.T) {
		err := adapter.Within(ctx, func(ctx context.Context, tx port.Tx) error {
			_, err := tx.LockLot(ctx, domain.LotKey{ItemNumber: "A1", Lot: "missing"})
			return err
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("ReadersOrderResults", func(t *testing.T) {
		for _, k := range []domain.LotKey{{ItemNumber: "B2", Lot: "L9"}, {ItemNumber: "A1", Lot: "L0"}, {ItemNumber: "B2", Lot: "L3"}} {
			err := adapter.Within(ctx, func(ctx context.Context, tx port.Tx) error {
				lot, err := tx.EnsureLot(ctx, k)
				if err != nil {
					return err
				}
				lot.Quantity = decimal.NewFromInt(1)
				lot.Unit = "pcs"
				if err := tx.SaveLot(ctx, *lot); err != nil {
					return err
				}
				entry := domain.NewLedgerEntry(*lot, lot.Quantity, domain.ActionAdd, "bob")
				return tx.AppendEntry(ctx, &entry)
			})
			require.NoError(t, err)
		}

		lots, err := adapter.LotsFor(ctx, "B2")
		require.NoError(t, err)
		assert.Equal(t, []string{"L3", "L9"}, lots)

		none, err := adapter.LotsFor(ctx, "nothing")
		require.NoError(t, err)
		assert.Empty(t, none)

		all, err := adapter.ListLots(ctx)
		require.NoError(t, err)
		require.Len(t, all, 4)
		assert.Equal(t, domain.LotKey{ItemNumber: "A1", Lot: "L0"}, all[0].Key())
		assert.Equal(t, domain.LotKey{ItemNumber: "B2", Lot: "L9"}, all[3].Key())

		item, err := adapter.Lookup(ctx, "B2")
		require.NoError(t, err)
		assert.Equal(t, "pcs", item.Unit)

		_, err = adapter.Lookup(ctx, "nothing")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		entries, err := adapter.ListEntries(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 4)
		for i := 1; i < len(entries); i++ {
			assert.Greater(t, entries[i-1].ID, entries[i].ID, "ledger must be newest first")
		}
		assert.Equal(t, "B2", entries[0].ItemNumber)
		assert.Equal(t, "L3", entries[0].Lot)
	})

	t.Run("KeysAreCaseSensitive", func(t *testing.T) {
		keys := []domain.LotKey{{ItemNumber: "CS-1", Lot: "Lot-a"}, {ItemNumber: "cs-1", Lot: "LOT-A"}}
		for i, k := range keys {
			err := adapter.Within(ctx, func(ctx context.Context, tx port.Tx) error {
				lot, err := tx.EnsureLot(ctx, k)
				if err != nil {
					return err
				}
				lot.Quantity = decimal.NewFromInt(int64(i + 1))
				return tx.SaveLot(ctx, *lot)
			})
			require.NoError(t, err)
		}

		upper, err := adapter.LotInfo(ctx, keys[0])
		require.NoError(t, err)
		assert.Equal(t, "1", upper.Quantity.String())

		lower, err := adapter.LotInfo(ctx, keys[1])
		require.NoError(t, err)
		assert.Equal(t, "2", lower.Quantity.String())

		lots, err := adapter.LotsFor(ctx, "CS-1")
		require.NoError(t, err)
		assert.Equal(t, []string{"Lot-a"}, lots)

		_, err = adapter.LotInfo(ctx, domain.LotKey{ItemNumber: "CS-1", Lot: "lot-a"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("TimestampsFollowIDOrder", func(t *testing.T) {
		for i := 0; i < 20; i++ {
			err := adapter.Within(ctx, func(ctx context.Context, tx port.Tx) error {
				lot, err := tx.LockLot(ctx, key)
				if err != nil {
					return err
				}
				entry := domain.NewLedgerEntry(*lot, decimal.Zero, domain.ActionAdjust, "carol")
				return tx.AppendEntry(ctx, &entry)
			})
			require.NoError(t, err)
		}

		entries, err := adapter.ListEntries(ctx)
		require.NoError(t, err)
		for i := 1; i < len(entries); i++ {
			assert.True(t, entries[i-1].Timestamp.After(entries[i].Timestamp),
				"entry %d must be stamped after entry %d", entries[i-1].ID, entries[i].ID)
		}
	})
}
