package storage

import (
	"context"
	"fmt"
)

type dialect struct {
	name           string
	lockSuffix     string
	insertEmptyLot string
	schema         []string
}

// Open connects to the named driver ("mysql" or "sqlite") and returns a ready adapter.
func Open(ctx context.Context, driver, dsn string) (*SQLAdapter, error) {
	switch driver {
	case "mysql":
		return OpenMySQL(ctx, dsn)
	case "sqlite":
		return OpenSQLite(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}
