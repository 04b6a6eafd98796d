package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LowStockAlert is raised after a removal leaves a lot below the configured threshold.
type LowStockAlert struct {
	ID          string
	EntryID     int64
	ItemNumber  string
	Lot         string
	Remaining   decimal.Decimal
	Unit        string
	ItemName    string
	Supplier    string
	TriggeredBy string
	RaisedAt    time.Time
}
