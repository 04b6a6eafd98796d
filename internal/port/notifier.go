package port

import (
	"context"

	"github.com/rl1809/lot-ledger/internal/core/domain"
)

type Notifier interface {
	Notify(ctx context.Context, alert domain.LowStockAlert) error
}
