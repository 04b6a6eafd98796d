package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rl1809/lot-ledger/internal/core/domain"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLot(row rowScanner) (*domain.Lot, error) {
	var (
		lot                          domain.Lot
		name, supplier, exp, mfgDate sql.NullString
	)

	err := row.Scan(&lot.ItemNumber, &lot.Lot, &name, &lot.Quantity, &lot.Unit, &supplier, &exp, &mfgDate)
	if err != nil {
		return nil, err
	}

	lot.Name = name.String
	lot.Supplier = supplier.String
	lot.Expiration = exp.String
	lot.MfgDate = mfgDate.String
	return &lot, nil
}

func scanEntries(rows *sql.Rows) ([]domain.LedgerEntry, error) {
	defer rows.Close()

	entries := []domain.LedgerEntry{}
	for rows.Next() {
		var (
			e      domain.LedgerEntry
			action string
			ts     sqlTime
		)
		err := rows.Scan(&e.ID, &e.ItemNumber, &e.Lot, &e.Change, &e.Remaining, &e.Unit, &action, &e.Username, &ts)
		if err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.ActionType = domain.ActionType(action)
		e.Timestamp = ts.Time
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999",
}

// sqlTime accepts timestamps as the drivers hand them back: MySQL with
// parseTime yields time.Time, SQLite may yield text.
type sqlTime struct {
	time.Time
}

func (t *sqlTime) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("unsupported timestamp type %T", value)
	}
}

func (t *sqlTime) parse(s string) error {
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("parse timestamp %q", s)
}
