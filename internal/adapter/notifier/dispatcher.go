package notifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/lot-ledger/internal/core/domain"
	"github.com/rl1809/lot-ledger/internal/port"
)

// Dispatcher drains the low-stock alert queue with a pool of workers and hands
// every alert to each notifier. Delivery failures are logged and dropped.
type Dispatcher struct {
	notifiers []port.Notifier
	timeout   time.Duration
	logger    *zap.Logger
	wg        sync.WaitGroup
}

func NewDispatcher(logger *zap.Logger, timeout time.Duration, notifiers ...port.Notifier) *Dispatcher {
	return &Dispatcher{
		notifiers: notifiers,
		timeout:   timeout,
		logger:    logger,
	}
}

// Start launches workers that run until queue is closed.
func (d *Dispatcher) Start(workers int, queue <-chan domain.LowStockAlert) {
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go func(id int) {
			defer d.wg.Done()
			d.workerLoop(id, queue)
		}(i)
	}
	d.logger.Info("started alert workers", zap.Int("workers", workers), zap.Int("notifiers", len(d.notifiers)))
}

// Wait blocks until every worker has exited.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) workerLoop(id int, queue <-chan domain.LowStockAlert) {
	for alert := range queue {
		for _, n := range d.notifiers {
			if err := d.deliver(n, alert); err != nil {
				d.logger.Error("low stock notification failed",
					zap.Int("worker", id),
					zap.String("alert_id", alert.ID),
					zap.String("item_number", alert.ItemNumber),
					zap.String("lot", alert.Lot),
					zap.Error(err),
				)
			}
		}
	}
}

func (d *Dispatcher) deliver(n port.Notifier, alert domain.LowStockAlert) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panic: %v", r)
		}
	}()

	return n.Notify(ctx, alert)
}
