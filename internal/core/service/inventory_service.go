package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/lot-ledger/internal/core/domain"
	"github.com/rl1809/lot-ledger/internal/port"
)

var ErrDuplicateRequest = errors.New("duplicate request")

const idempotencyKeyPrefix = "inventory:request:"

// InventoryService applies add, remove and adjust operations to the inventory
// store, pairing each with exactly one ledger entry in the same transaction.
type InventoryService struct {
	db         port.DatabaseRepository
	cache      port.CacheRepository
	threshold  decimal.Decimal
	logger     *zap.Logger
	alertQueue chan domain.LowStockAlert

	mu     sync.RWMutex
	closed bool
}

type Option func(*InventoryService)

// WithCache enables request_id deduplication.
func WithCache(cache port.CacheRepository) Option {
	return func(s *InventoryService) { s.cache = cache }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *InventoryService) { s.logger = logger }
}

func NewInventoryService(db port.DatabaseRepository, threshold decimal.Decimal, queueSize int, opts ...Option) *InventoryService {
	s := &InventoryService{
		db:         db,
		threshold:  threshold,
		logger:     zap.NewNop(),
		alertQueue: make(chan domain.LowStockAlert, queueSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InventoryService) Threshold() decimal.Decimal {
	return s.threshold
}

// Add creates the lot on first use, otherwise increments its quantity and
// overwrites its descriptive fields.
func (s *InventoryService) Add(ctx context.Context, cmd domain.AddCommand) (*domain.Movement, error) {
	key := cmd.Key()
	if err := key.Validate(); err != nil {
		return nil, err
	}

	release, err := s.claim(ctx, cmd.RequestID)
	if err != nil {
		return nil, err
	}

	var mv domain.Movement
	err = s.db.Within(ctx, func(ctx context.Context, tx port.Tx) error {
		lot, err := tx.EnsureLot(ctx, key)
		if err != nil {
			return err
		}
		change, err := lot.ApplyAdd(cmd)
		if err != nil {
			return err
		}
		return record(ctx, tx, lot, change, domain.ActionAdd, cmd.Username, &mv)
	})
	if err != nil {
		release()
		return nil, s.fail("add", key, err)
	}

	s.logger.Info("stock added",
		zap.String("item_number", key.ItemNumber),
		zap.String("lot", key.Lot),
		zap.String("change", mv.Entry.Change.String()),
		zap.String("remaining", mv.Entry.Remaining.String()),
		zap.String("username", cmd.Username),
	)
	return &mv, nil
}

// Remove takes stock out of an existing lot. It never removes more than is on
// hand. A result strictly below the threshold queues one low-stock alert
// after the transaction has committed.
func (s *InventoryService) Remove(ctx context.Context, cmd domain.RemoveCommand) (*domain.Movement, error) {
	key := cmd.Key()
	if err := key.Validate(); err != nil {
		return nil, err
	}

	release, err := s.claim(ctx, cmd.RequestID)
	if err != nil {
		return nil, err
	}

	var mv domain.Movement
	err = s.db.Within(ctx, func(ctx context.Context, tx port.Tx) error {
		lot, err := tx.LockLot(ctx, key)
		if err != nil {
			return err
		}
		change, err := lot.ApplyRemove(cmd.Quantity)
		if err != nil {
			return err
		}
		return record(ctx, tx, lot, change, domain.ActionRemove, cmd.Username, &mv)
	})
	if err != nil {
		release()
		return nil, s.fail("remove", key, err)
	}

	s.logger.Info("stock removed",
		zap.String("item_number", key.ItemNumber),
		zap.String("lot", key.Lot),
		zap.String("change", mv.Entry.Change.String()),
		zap.String("remaining", mv.Entry.Remaining.String()),
		zap.String("username", cmd.Username),
	)

	if mv.Lot.IsLow(s.threshold) {
		s.raise(mv, cmd.Username)
	}
	return &mv, nil
}

// Adjust sets a lot to an absolute quantity after a count.
func (s *InventoryService) Adjust(ctx context.Context, cmd domain.AdjustCommand) (*domain.Movement, error) {
	key := cmd.Key()
	if err := key.Validate(); err != nil {
		return nil, err
	}

	release, err := s.claim(ctx, cmd.RequestID)
	if err != nil {
		return nil, err
	}

	var mv domain.Movement
	err = s.db.Within(ctx, func(ctx context.Context, tx port.Tx) error {
		lot, err := tx.LockLot(ctx, key)
		if err != nil {
			return err
		}
		oldUnit := lot.Unit
		change, err := lot.ApplyAdjust(cmd.NewQuantity, cmd.NewUnit)
		if err != nil {
			return err
		}
		action := domain.AdjustAction(adjustNote(cmd.Annotation, oldUnit, lot.Unit))
		return record(ctx, tx, lot, change, action, cmd.Username, &mv)
	})
	if err != nil {
		release()
		return nil, s.fail("adjust", key, err)
	}

	s.logger.Info("stock adjusted",
		zap.String("item_number", key.ItemNumber),
		zap.String("lot", key.Lot),
		zap.String("change", mv.Entry.Change.String()),
		zap.String("remaining", mv.Entry.Remaining.String()),
		zap.String("action", string(mv.Entry.ActionType)),
		zap.String("username", cmd.Username),
	)
	return &mv, nil
}

func (s *InventoryService) Lookup(ctx context.Context, itemNumber string) (*domain.Lot, error) {
	if strings.TrimSpace(itemNumber) == "" {
		return nil, fmt.Errorf("%w: item number is required", domain.ErrInvalidInput)
	}
	lot, err := s.db.Lookup(ctx, itemNumber)
	if err != nil {
		return nil, s.readFail("lookup", err)
	}
	return lot, nil
}

func (s *InventoryService) LotsFor(ctx context.Context, itemNumber string) ([]string, error) {
	lots, err := s.db.LotsFor(ctx, itemNumber)
	if err != nil {
		return nil, s.readFail("list lots", err)
	}
	return lots, nil
}

func (s *InventoryService) LotInfo(ctx context.Context, key domain.LotKey) (*domain.Lot, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	lot, err := s.db.LotInfo(ctx, key)
	if err != nil {
		return nil, s.readFail("lot info", err)
	}
	return lot, nil
}

// Inventory lists every current lot.
func (s *InventoryService) Inventory(ctx context.Context) ([]domain.Lot, error) {
	lots, err := s.db.ListLots(ctx)
	if err != nil {
		return nil, s.readFail("list inventory", err)
	}
	return lots, nil
}

// History lists the ledger newest first, optionally narrowed to one item.
func (s *InventoryService) History(ctx context.Context, itemNumber string) ([]domain.LedgerEntry, error) {
	var (
		entries []domain.LedgerEntry
		err     error
	)
	if itemNumber == "" {
		entries, err = s.db.ListEntries(ctx)
	} else {
		entries, err = s.db.ListEntriesByItem(ctx, itemNumber)
	}
	if err != nil {
		return nil, s.readFail("list history", err)
	}
	return entries, nil
}

func (s *InventoryService) GetAlertQueue() <-chan domain.LowStockAlert {
	return s.alertQueue
}

// Close stops accepting alerts and closes the queue so dispatch workers drain and exit.
func (s *InventoryService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.alertQueue)
}

func record(ctx context.Context, tx port.Tx, lot *domain.Lot, change decimal.Decimal, action domain.ActionType, username string, mv *domain.Movement) error {
	if err := tx.SaveLot(ctx, *lot); err != nil {
		return err
	}

	entry := domain.NewLedgerEntry(*lot, change, action, username)
	if err := tx.AppendEntry(ctx, &entry); err != nil {
		return err
	}

	*mv = domain.Movement{Lot: *lot, Entry: entry}
	return nil
}

func adjustNote(annotation, oldUnit, newUnit string) string {
	if oldUnit == newUnit {
		return annotation
	}
	unitNote := fmt.Sprintf("unit %s -> %s", oldUnit, newUnit)
	if annotation == "" {
		return unitNote
	}
	return annotation + "; " + unitNote
}

// raise queues the alert without blocking; the removal has already committed.
func (s *InventoryService) raise(mv domain.Movement, username string) {
	alert := domain.LowStockAlert{
		ID:          uuid.NewString(),
		EntryID:     mv.Entry.ID,
		ItemNumber:  mv.Lot.ItemNumber,
		Lot:         mv.Lot.Lot,
		Remaining:   mv.Lot.Quantity,
		Unit:        mv.Lot.Unit,
		ItemName:    mv.Lot.Name,
		Supplier:    mv.Lot.Supplier,
		TriggeredBy: username,
		RaisedAt:    time.Now().UTC(),
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		s.logger.Warn("alert queue closed, dropping low stock alert", zap.String("alert_id", alert.ID))
		return
	}

	select {
	case s.alertQueue <- alert:
	default:
		s.logger.Error("alert queue full, dropping low stock alert",
			zap.String("alert_id", alert.ID),
			zap.String("item_number", alert.ItemNumber),
			zap.String("lot", alert.Lot),
		)
	}
}

func (s *InventoryService) claim(ctx context.Context, requestID string) (func(), error) {
	if requestID == "" || s.cache == nil {
		return func() {}, nil
	}

	key := idempotencyKeyPrefix + requestID
	ok, err := s.cache.SetIdempotency(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("idempotency check failed: %w", err)
	}
	if !ok {
		return nil, ErrDuplicateRequest
	}

	return func() {
		if err := s.cache.ReleaseIdempotency(context.WithoutCancel(ctx), key); err != nil {
			s.logger.Warn("failed to release idempotency key", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

func (s *InventoryService) fail(op string, key domain.LotKey, err error) error {
	if domain.IsRejection(err) {
		s.logger.Info("operation rejected",
			zap.String("op", op),
			zap.String("item_number", key.ItemNumber),
			zap.String("lot", key.Lot),
			zap.Error(err),
		)
		return err
	}

	s.logger.Error("operation failed",
		zap.String("op", op),
		zap.String("item_number", key.ItemNumber),
		zap.String("lot", key.Lot),
		zap.Error(err),
	)
	return fmt.Errorf("%w: %s %s: %w", domain.ErrPersistence, op, key, err)
}

func (s *InventoryService) readFail(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrPersistence, op, err)
}
