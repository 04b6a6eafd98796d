package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

var mysqlDialect = dialect{
	name:       "mysql",
	lockSuffix: " FOR UPDATE",
	insertEmptyLot: `
		INSERT INTO inventory (item_number, lot, quantity, unit) VALUES (?, ?, 0, '')
		ON DUPLICATE KEY UPDATE item_number = item_number`,
	schema: []string{
		`CREATE TABLE IF NOT EXISTS inventory (
			item_number VARCHAR(64) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL,
			name VARCHAR(255) NULL,
			quantity DECIMAL(20,4) NOT NULL DEFAULT 0,
			unit VARCHAR(32) NOT NULL DEFAULT '',
			lot VARCHAR(64) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL,
			mfg_date VARCHAR(32) NULL,
			supplier VARCHAR(255) NULL,
			exp VARCHAR(32) NULL,
			PRIMARY KEY (item_number, lot),
			CONSTRAINT chk_inventory_quantity CHECK (quantity >= 0)
		)`,
		"CREATE TABLE IF NOT EXISTS history (" + `
			id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
			item_number VARCHAR(64) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL,
			lot VARCHAR(64) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL,
			` + "`change`" + ` DECIMAL(20,4) NOT NULL,
			remaining DECIMAL(20,4) NOT NULL,
			unit VARCHAR(32) NOT NULL DEFAULT '',
			action_type VARCHAR(255) NOT NULL,
			username VARCHAR(255) NOT NULL DEFAULT '',
			` + "`timestamp`" + ` DATETIME(6) NOT NULL,
			INDEX idx_history_item (item_number)
		)`,
	},
}

func NewMySQLAdapter(db *sql.DB) *SQLAdapter {
	return newSQLAdapter(db, mysqlDialect)
}

// OpenMySQL forces parseTime and UTC on the DSN, sizes the pool and pings.
func OpenMySQL(ctx context.Context, dsn string) (*SQLAdapter, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	return NewMySQLAdapter(db), nil
}
