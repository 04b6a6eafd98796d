package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// QuantityPlaces is the number of decimal places a quantity may carry. It
// matches the scale of the stored columns.
const QuantityPlaces = 4

// CheckScale rejects quantities that storage would have to round.
func CheckScale(q decimal.Decimal) error {
	if !q.Equal(q.Truncate(QuantityPlaces)) {
		return fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidQuantity, q, QuantityPlaces)
	}
	return nil
}

// Lot is the current state of one (item_number, lot) pair.
type Lot struct {
	ItemNumber string
	Lot        string
	Name       string
	Quantity   decimal.Decimal
	Unit       string
	Supplier   string
	Expiration string
	MfgDate    string
}

type LotKey struct {
	ItemNumber string
	Lot        string
}

func (k LotKey) Validate() error {
	if strings.TrimSpace(k.ItemNumber) == "" || strings.TrimSpace(k.Lot) == "" {
		return fmt.Errorf("%w: item number and lot are required", ErrInvalidInput)
	}
	return nil
}

func (k LotKey) String() string {
	return k.ItemNumber + "/" + k.Lot
}

func (l *Lot) Key() LotKey {
	return LotKey{ItemNumber: l.ItemNumber, Lot: l.Lot}
}

// ApplyAdd increments the quantity and overwrites the descriptive fields.
func (l *Lot) ApplyAdd(cmd AddCommand) (decimal.Decimal, error) {
	if cmd.Quantity.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: add quantity %s is negative", ErrInvalidQuantity, cmd.Quantity)
	}
	if err := CheckScale(cmd.Quantity); err != nil {
		return decimal.Zero, err
	}

	l.Name = cmd.Name
	l.Unit = cmd.Unit
	l.Supplier = cmd.Supplier
	l.Expiration = cmd.Expiration
	l.MfgDate = cmd.MfgDate
	l.Quantity = l.Quantity.Add(cmd.Quantity)

	return cmd.Quantity, nil
}

// ApplyRemove decrements the quantity, refusing to go below zero.
func (l *Lot) ApplyRemove(quantity decimal.Decimal) (decimal.Decimal, error) {
	if !quantity.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: remove quantity must be greater than 0", ErrInvalidQuantity)
	}
	if err := CheckScale(quantity); err != nil {
		return decimal.Zero, err
	}
	if quantity.GreaterThan(l.Quantity) {
		return decimal.Zero, fmt.Errorf("%w: cannot remove %s %s, only %s %s available",
			ErrInsufficientStock, quantity, l.Unit, l.Quantity, l.Unit)
	}

	l.Quantity = l.Quantity.Sub(quantity)
	return quantity.Neg(), nil
}

// ApplyAdjust sets the quantity to an absolute value. An empty unit keeps the current one.
func (l *Lot) ApplyAdjust(quantity decimal.Decimal, unit string) (decimal.Decimal, error) {
	if quantity.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: adjusted quantity %s is negative", ErrInvalidQuantity, quantity)
	}
	if err := CheckScale(quantity); err != nil {
		return decimal.Zero, err
	}

	change := quantity.Sub(l.Quantity)
	l.Quantity = quantity
	if unit != "" {
		l.Unit = unit
	}

	return change, nil
}

// IsLow reports whether the lot sits strictly below threshold.
func (l *Lot) IsLow(threshold decimal.Decimal) bool {
	return l.Quantity.LessThan(threshold)
}
