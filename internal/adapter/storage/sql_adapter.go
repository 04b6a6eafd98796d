package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rl1809/lot-ledger/internal/core/domain"
	"github.com/rl1809/lot-ledger/internal/port"
)

const (
	lotColumns   = "item_number, lot, name, quantity, unit, supplier, exp, mfg_date"
	entryColumns = "id, item_number, lot, `change`, remaining, unit, action_type, username, `timestamp`"
)

// SQLAdapter stores lots and ledger entries in one SQL database. The dialect
// supplies the statements that differ between MySQL and SQLite.
type SQLAdapter struct {
	db      *sql.DB
	dialect dialect
	clock   *ledgerClock
}

func newSQLAdapter(db *sql.DB, d dialect) *SQLAdapter {
	return &SQLAdapter{db: db, dialect: d, clock: &ledgerClock{now: time.Now}}
}

var _ port.DatabaseRepository = (*SQLAdapter)(nil)

func (a *SQLAdapter) Driver() string {
	return a.dialect.name
}

func (a *SQLAdapter) DB() *sql.DB {
	return a.db
}

func (a *SQLAdapter) Close() error {
	return a.db.Close()
}

// Migrate creates the inventory and history tables if they do not exist.
func (a *SQLAdapter) Migrate(ctx context.Context) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range a.dialect.schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	return tx.Commit()
}

func (a *SQLAdapter) Within(ctx context.Context, fn func(ctx context.Context, tx port.Tx) error) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, &sqlTx{tx: tx, dialect: a.dialect, clock: a.clock}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (a *SQLAdapter) Lookup(ctx context.Context, itemNumber string) (*domain.Lot, error) {
	row := a.db.QueryRowContext(ctx, `
		SELECT `+lotColumns+`
		FROM inventory WHERE item_number = ?
		ORDER BY lot LIMIT 1`, itemNumber,
	)

	lot, err := scanLot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: item %s", domain.ErrNotFound, itemNumber)
	}
	if err != nil {
		return nil, fmt.Errorf("query item: %w", err)
	}
	return lot, nil
}

func (a *SQLAdapter) LotsFor(ctx context.Context, itemNumber string) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT lot FROM inventory WHERE item_number = ? ORDER BY lot`, itemNumber,
	)
	if err != nil {
		return nil, fmt.Errorf("query lots: %w", err)
	}
	defer rows.Close()

	lots := []string{}
	for rows.Next() {
		var lot string
		if err := rows.Scan(&lot); err != nil {
			return nil, fmt.Errorf("scan lot: %w", err)
		}
		lots = append(lots, lot)
	}
	return lots, rows.Err()
}

func (a *SQLAdapter) LotInfo(ctx context.Context, key domain.LotKey) (*domain.Lot, error) {
	row := a.db.QueryRowContext(ctx, `
		SELECT `+lotColumns+`
		FROM inventory WHERE item_number = ? AND lot = ?`, key.ItemNumber, key.Lot,
	)

	lot, err := scanLot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("query lot: %w", err)
	}
	return lot, nil
}

func (a *SQLAdapter) ListLots(ctx context.Context) ([]domain.Lot, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT `+lotColumns+`
		FROM inventory ORDER BY item_number, lot`,
	)
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}
	defer rows.Close()

	lots := []domain.Lot{}
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lot: %w", err)
		}
		lots = append(lots, *lot)
	}
	return lots, rows.Err()
}

func (a *SQLAdapter) ListEntries(ctx context.Context) ([]domain.LedgerEntry, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM history ORDER BY id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	return scanEntries(rows)
}

func (a *SQLAdapter) ListEntriesByItem(ctx context.Context, itemNumber string) ([]domain.LedgerEntry, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM history WHERE item_number = ? ORDER BY id DESC`, itemNumber,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	return scanEntries(rows)
}

type sqlTx struct {
	tx      *sql.Tx
	dialect dialect
	clock   *ledgerClock
}

func (t *sqlTx) LockLot(ctx context.Context, key domain.LotKey) (*domain.Lot, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT `+lotColumns+`
		FROM inventory WHERE item_number = ? AND lot = ?`+t.dialect.lockSuffix,
		key.ItemNumber, key.Lot,
	)

	lot, err := scanLot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("lock lot: %w", err)
	}
	return lot, nil
}

func (t *sqlTx) EnsureLot(ctx context.Context, key domain.LotKey) (*domain.Lot, error) {
	if _, err := t.tx.ExecContext(ctx, t.dialect.insertEmptyLot, key.ItemNumber, key.Lot); err != nil {
		return nil, fmt.Errorf("ensure lot: %w", err)
	}
	return t.LockLot(ctx, key)
}

func (t *sqlTx) SaveLot(ctx context.Context, lot domain.Lot) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE inventory
		SET name = ?, quantity = ?, unit = ?, supplier = ?, exp = ?, mfg_date = ?
		WHERE item_number = ? AND lot = ?`,
		nullString(lot.Name), lot.Quantity, lot.Unit, nullString(lot.Supplier),
		nullString(lot.Expiration), nullString(lot.MfgDate),
		lot.ItemNumber, lot.Lot,
	)
	if err != nil {
		return fmt.Errorf("update inventory: %w", err)
	}
	return nil
}

func (t *sqlTx) AppendEntry(ctx context.Context, entry *domain.LedgerEntry) error {
	var id int64
	var ts time.Time
	err := t.clock.stamp(func(now time.Time) error {
		result, err := t.tx.ExecContext(ctx, `
			INSERT INTO history (item_number, lot, `+"`change`"+`, remaining, unit, action_type, username, `+"`timestamp`"+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.ItemNumber, entry.Lot, entry.Change, entry.Remaining, entry.Unit,
			string(entry.ActionType), entry.Username, now,
		)
		if err != nil {
			return fmt.Errorf("insert history: %w", err)
		}

		id, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("history id: %w", err)
		}
		ts = now
		return nil
	})
	if err != nil {
		return err
	}

	entry.ID = id
	entry.Timestamp = ts
	return nil
}

// ledgerClock hands out strictly increasing microsecond timestamps. The lock
// is held across the history insert, so within one process a later id never
// carries an earlier timestamp, even if the wall clock steps back.
type ledgerClock struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

func (c *ledgerClock) stamp(insert func(ts time.Time) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ts := c.now().UTC().Truncate(time.Microsecond)
	if !ts.After(c.last) {
		ts = c.last.Add(time.Microsecond)
	}
	if err := insert(ts); err != nil {
		return err
	}
	c.last = ts
	return nil
}
