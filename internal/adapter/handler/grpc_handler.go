package handler

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rl1809/lot-ledger/internal/adapter/handler/rpc"
	"github.com/rl1809/lot-ledger/internal/core/domain"
	"github.com/rl1809/lot-ledger/internal/core/service"
)

type GRPCHandler struct {
	inventory *service.InventoryService
	logger    *zap.Logger
}

var _ rpc.InventoryServiceServer = (*GRPCHandler)(nil)

func NewGRPCHandler(inventory *service.InventoryService, logger *zap.Logger) *GRPCHandler {
	return &GRPCHandler{inventory: inventory, logger: logger}
}

func (h *GRPCHandler) Add(ctx context.Context, req *rpc.AddRequest) (*rpc.MovementResponse, error) {
	if err := requireUsername(req.Username); err != nil {
		return nil, err
	}
	cmd, err := req.Command()
	if err != nil {
		return nil, h.fail("Add", err)
	}
	mv, err := h.inventory.Add(ctx, cmd)
	if err != nil {
		return nil, h.fail("Add", err)
	}
	return rpc.FromMovement(mv), nil
}

func (h *GRPCHandler) Remove(ctx context.Context, req *rpc.RemoveRequest) (*rpc.MovementResponse, error) {
	if err := requireUsername(req.Username); err != nil {
		return nil, err
	}
	cmd, err := req.Command()
	if err != nil {
		return nil, h.fail("Remove", err)
	}
	mv, err := h.inventory.Remove(ctx, cmd)
	if err != nil {
		return nil, h.fail("Remove", err)
	}
	return rpc.FromMovement(mv), nil
}

func (h *GRPCHandler) Adjust(ctx context.Context, req *rpc.AdjustRequest) (*rpc.MovementResponse, error) {
	if err := requireUsername(req.Username); err != nil {
		return nil, err
	}
	cmd, err := req.Command()
	if err != nil {
		return nil, h.fail("Adjust", err)
	}
	mv, err := h.inventory.Adjust(ctx, cmd)
	if err != nil {
		return nil, h.fail("Adjust", err)
	}
	return rpc.FromMovement(mv), nil
}

func (h *GRPCHandler) Lookup(ctx context.Context, req *rpc.ItemRequest) (*rpc.LookupResponse, error) {
	lot, err := h.inventory.Lookup(ctx, req.ItemNumber)
	if errors.Is(err, domain.ErrNotFound) {
		return &rpc.LookupResponse{Found: false}, nil
	}
	if err != nil {
		return nil, h.fail("Lookup", err)
	}
	msg := rpc.FromLot(*lot)
	return &rpc.LookupResponse{Found: true, Lot: &msg}, nil
}

func (h *GRPCHandler) LotsFor(ctx context.Context, req *rpc.ItemRequest) (*rpc.LotsResponse, error) {
	lots, err := h.inventory.LotsFor(ctx, req.ItemNumber)
	if err != nil {
		return nil, h.fail("LotsFor", err)
	}
	return &rpc.LotsResponse{Lots: lots}, nil
}

func (h *GRPCHandler) LotInfo(ctx context.Context, req *rpc.LotRequest) (*rpc.LotInfoResponse, error) {
	lot, err := h.inventory.LotInfo(ctx, domain.LotKey{ItemNumber: req.ItemNumber, Lot: req.Lot})
	if errors.Is(err, domain.ErrNotFound) {
		return &rpc.LotInfoResponse{Found: false}, nil
	}
	if err != nil {
		return nil, h.fail("LotInfo", err)
	}
	return &rpc.LotInfoResponse{Found: true, Quantity: lot.Quantity, Unit: lot.Unit}, nil
}

func (h *GRPCHandler) Inventory(ctx context.Context, _ *rpc.InventoryRequest) (*rpc.InventoryResponse, error) {
	lots, err := h.inventory.Inventory(ctx)
	if err != nil {
		return nil, h.fail("Inventory", err)
	}
	return &rpc.InventoryResponse{Lots: rpc.FromLots(lots)}, nil
}

func (h *GRPCHandler) History(ctx context.Context, req *rpc.HistoryRequest) (*rpc.HistoryResponse, error) {
	entries, err := h.inventory.History(ctx, strings.TrimSpace(req.ItemNumber))
	if err != nil {
		return nil, h.fail("History", err)
	}
	return &rpc.HistoryResponse{Entries: rpc.FromEntries(entries)}, nil
}

func (h *GRPCHandler) fail(method string, err error) error {
	st := grpcError(err)
	if status.Code(st) == codes.Internal {
		h.logger.Error("rpc failed", zap.String("method", method), zap.Error(err))
	}
	return st
}

func requireUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return status.Error(codes.InvalidArgument, "username is required")
	}
	return nil
}
