package domain

import "github.com/shopspring/decimal"

type AddCommand struct {
	RequestID  string
	ItemNumber string
	Lot        string
	Name       string
	Quantity   decimal.Decimal
	Unit       string
	Supplier   string
	Expiration string
	MfgDate    string
	Username   string
}

func (c AddCommand) Key() LotKey { return LotKey{ItemNumber: c.ItemNumber, Lot: c.Lot} }

type RemoveCommand struct {
	RequestID  string
	ItemNumber string
	Lot        string
	Quantity   decimal.Decimal
	Username   string
}

func (c RemoveCommand) Key() LotKey { return LotKey{ItemNumber: c.ItemNumber, Lot: c.Lot} }

type AdjustCommand struct {
	RequestID   string
	ItemNumber  string
	Lot         string
	NewQuantity decimal.Decimal
	NewUnit     string
	Annotation  string
	Username    string
}

func (c AdjustCommand) Key() LotKey { return LotKey{ItemNumber: c.ItemNumber, Lot: c.Lot} }
