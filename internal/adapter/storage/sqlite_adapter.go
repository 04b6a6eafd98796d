package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

var sqliteDialect = dialect{
	name: "sqlite",
	insertEmptyLot: `
		INSERT INTO inventory (item_number, lot, quantity, unit) VALUES (?, ?, 0, '')
		ON CONFLICT (item_number, lot) DO NOTHING`,
	schema: []string{
		`CREATE TABLE IF NOT EXISTS inventory (
			item_number TEXT NOT NULL,
			name TEXT,
			quantity DECIMAL(20,4) NOT NULL DEFAULT 0 CHECK (quantity >= 0),
			unit TEXT NOT NULL DEFAULT '',
			lot TEXT NOT NULL,
			mfg_date TEXT,
			supplier TEXT,
			exp TEXT,
			PRIMARY KEY (item_number, lot)
		)`,
		"CREATE TABLE IF NOT EXISTS history (" + `
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			item_number TEXT NOT NULL,
			lot TEXT NOT NULL,
			` + "`change`" + ` DECIMAL(20,4) NOT NULL,
			remaining DECIMAL(20,4) NOT NULL,
			unit TEXT NOT NULL DEFAULT '',
			action_type TEXT NOT NULL,
			username TEXT NOT NULL DEFAULT '',
			` + "`timestamp`" + ` DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_item ON history (item_number)`,
	},
}

// NewSQLiteAdapter wraps an open SQLite handle. SQLite has no row locks, so
// the pool is pinned to one connection and every transaction runs alone.
func NewSQLiteAdapter(db *sql.DB) *SQLAdapter {
	db.SetMaxOpenConns(1)
	return newSQLAdapter(db, sqliteDialect)
}

func OpenSQLite(ctx context.Context, dsn string) (*SQLAdapter, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	adapter := NewSQLiteAdapter(db)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return adapter, nil
}
