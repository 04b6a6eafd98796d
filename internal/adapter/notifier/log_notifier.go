package notifier

import (
	"context"

	"go.uber.org/zap"

	"github.com/rl1809/lot-ledger/internal/core/domain"
)

// LogNotifier writes each alert as a structured warning.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, alert domain.LowStockAlert) error {
	n.logger.Warn("low stock",
		zap.String("alert_id", alert.ID),
		zap.String("item_number", alert.ItemNumber),
		zap.String("item_name", alert.ItemName),
		zap.String("lot", alert.Lot),
		zap.String("remaining", alert.Remaining.String()),
		zap.String("unit", alert.Unit),
		zap.String("supplier", alert.Supplier),
		zap.String("triggered_by", alert.TriggeredBy),
	)
	return nil
}
