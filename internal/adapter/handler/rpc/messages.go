package rpc

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/lot-ledger/internal/core/domain"
)

type AddRequest struct {
	RequestID  string              `json:"request_id,omitempty"`
	ItemNumber string              `json:"item_number"`
	Lot        string              `json:"lot"`
	Name       string              `json:"name,omitempty"`
	Quantity   decimal.NullDecimal `json:"quantity"`
	Unit       string              `json:"unit"`
	Supplier   string              `json:"supplier,omitempty"`
	Expiration string              `json:"expiration,omitempty"`
	MfgDate    string              `json:"mfg_date,omitempty"`
	Username   string              `json:"username"`
}

// Command converts the request, rejecting a missing or null quantity.
func (r *AddRequest) Command() (domain.AddCommand, error) {
	if !r.Quantity.Valid {
		return domain.AddCommand{}, missingQuantity("quantity")
	}
	return domain.AddCommand{
		RequestID:  r.RequestID,
		ItemNumber: r.ItemNumber,
		Lot:        r.Lot,
		Name:       r.Name,
		Quantity:   r.Quantity.Decimal,
		Unit:       r.Unit,
		Supplier:   r.Supplier,
		Expiration: r.Expiration,
		MfgDate:    r.MfgDate,
		Username:   r.Username,
	}, nil
}

type RemoveRequest struct {
	RequestID  string              `json:"request_id,omitempty"`
	ItemNumber string              `json:"item_number"`
	Lot        string              `json:"lot"`
	Quantity   decimal.NullDecimal `json:"quantity"`
	Username   string              `json:"username"`
}

func (r *RemoveRequest) Command() (domain.RemoveCommand, error) {
	if !r.Quantity.Valid {
		return domain.RemoveCommand{}, missingQuantity("quantity")
	}
	return domain.RemoveCommand{
		RequestID:  r.RequestID,
		ItemNumber: r.ItemNumber,
		Lot:        r.Lot,
		Quantity:   r.Quantity.Decimal,
		Username:   r.Username,
	}, nil
}

type AdjustRequest struct {
	RequestID   string              `json:"request_id,omitempty"`
	ItemNumber  string              `json:"item_number"`
	Lot         string              `json:"lot"`
	NewQuantity decimal.NullDecimal `json:"new_quantity"`
	NewUnit     string              `json:"new_unit,omitempty"`
	Annotation  string              `json:"annotation,omitempty"`
	Username    string              `json:"username"`
}

func (r *AdjustRequest) Command() (domain.AdjustCommand, error) {
	if !r.NewQuantity.Valid {
		return domain.AdjustCommand{}, missingQuantity("new_quantity")
	}
	return domain.AdjustCommand{
		RequestID:   r.RequestID,
		ItemNumber:  r.ItemNumber,
		Lot:         r.Lot,
		NewQuantity: r.NewQuantity.Decimal,
		NewUnit:     r.NewUnit,
		Annotation:  r.Annotation,
		Username:    r.Username,
	}, nil
}

func missingQuantity(field string) error {
	return fmt.Errorf("%w: %s is required", domain.ErrInvalidQuantity, field)
}

type ItemRequest struct {
	ItemNumber string `json:"item_number"`
}

type LotRequest struct {
	ItemNumber string `json:"item_number"`
	Lot        string `json:"lot"`
}

type HistoryRequest struct {
	ItemNumber string `json:"item_number,omitempty"`
}

type InventoryRequest struct{}

type LotMessage struct {
	ItemNumber string          `json:"item_number"`
	Lot        string          `json:"lot"`
	Name       string          `json:"name,omitempty"`
	Quantity   decimal.Decimal `json:"quantity"`
	Unit       string          `json:"unit"`
	Supplier   string          `json:"supplier,omitempty"`
	Expiration string          `json:"expiration,omitempty"`
	MfgDate    string          `json:"mfg_date,omitempty"`
}

type EntryMessage struct {
	ID         int64           `json:"id"`
	ItemNumber string          `json:"item_number"`
	Lot        string          `json:"lot"`
	Change     decimal.Decimal `json:"change"`
	Remaining  decimal.Decimal `json:"remaining"`
	Unit       string          `json:"unit"`
	ActionType string          `json:"action_type"`
	Username   string          `json:"username"`
	Timestamp  time.Time       `json:"timestamp"`
}

type MovementResponse struct {
	Lot   LotMessage   `json:"lot"`
	Entry EntryMessage `json:"entry"`
}

type LookupResponse struct {
	Found bool        `json:"found"`
	Lot   *LotMessage `json:"lot,omitempty"`
}

type LotsResponse struct {
	Lots []string `json:"lots"`
}

type LotInfoResponse struct {
	Found    bool            `json:"found"`
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit,omitempty"`
}

type InventoryResponse struct {
	Lots []LotMessage `json:"lots"`
}

type HistoryResponse struct {
	Entries []EntryMessage `json:"entries"`
}

func FromLot(l domain.Lot) LotMessage {
	return LotMessage{
		ItemNumber: l.ItemNumber,
		Lot:        l.Lot,
		Name:       l.Name,
		Quantity:   l.Quantity,
		Unit:       l.Unit,
		Supplier:   l.Supplier,
		Expiration: l.Expiration,
		MfgDate:    l.MfgDate,
	}
}

func FromEntry(e domain.LedgerEntry) EntryMessage {
	return EntryMessage{
		ID:         e.ID,
		ItemNumber: e.ItemNumber,
		Lot:        e.Lot,
		Change:     e.Change,
		Remaining:  e.Remaining,
		Unit:       e.Unit,
		ActionType: string(e.ActionType),
		Username:   e.Username,
		Timestamp:  e.Timestamp,
	}
}

func FromMovement(mv *domain.Movement) *MovementResponse {
	return &MovementResponse{Lot: FromLot(mv.Lot), Entry: FromEntry(mv.Entry)}
}

func FromLots(lots []domain.Lot) []LotMessage {
	out := make([]LotMessage, 0, len(lots))
	for _, l := range lots {
		out = append(out, FromLot(l))
	}
	return out
}

func FromEntries(entries []domain.LedgerEntry) []EntryMessage {
	out := make([]EntryMessage, 0, len(entries))
	for _, e := range entries {
		out = append(out, FromEntry(e))
	}
	return out
}
