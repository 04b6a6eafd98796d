package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ActionType string

const (
	ActionAdd    ActionType = "ADD"
	ActionRemove ActionType = "REMOVE"
	ActionAdjust ActionType = "ADJUST"
)

// AdjustAction returns ADJUST, suffixed with the annotation when one is given.
func AdjustAction(annotation string) ActionType {
	if annotation == "" {
		return ActionAdjust
	}
	return ActionAdjust + ActionType(" ("+annotation+")")
}

// LedgerEntry is one immutable row of movement history. ID and Timestamp are
// assigned by the ledger on append.
type LedgerEntry struct {
	ID         int64
	ItemNumber string
	Lot        string
	Change     decimal.Decimal
	Remaining  decimal.Decimal
	Unit       string
	ActionType ActionType
	Username   string
	Timestamp  time.Time
}

func NewLedgerEntry(lot Lot, change decimal.Decimal, action ActionType, username string) LedgerEntry {
	return LedgerEntry{
		ItemNumber: lot.ItemNumber,
		Lot:        lot.Lot,
		Change:     change,
		Remaining:  lot.Quantity,
		Unit:       lot.Unit,
		ActionType: action,
		Username:   username,
	}
}

// Movement is the outcome of a committed mutation: the lot after the change
// and the ledger entry recording it.
type Movement struct {
	Lot   Lot
	Entry LedgerEntry
}
