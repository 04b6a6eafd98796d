package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/lot-ledger/internal/adapter/storage"
	"github.com/rl1809/lot-ledger/internal/core/domain"
	"github.com/rl1809/lot-ledger/internal/core/service"
)

const (
	itemNumber    = "stress-item"
	lotID         = "stress-lot"
	initialStock  = 20
	totalRequests = 50
	queueSize     = 100
)

func main() {
	ctx := context.Background()

	driver, dsn := "sqlite", ":memory:"
	if v := os.Getenv("INVENTORY_DB_DSN"); v != "" {
		driver, dsn = "mysql", v
	}

	adapter, err := storage.Open(ctx, driver, dsn)
	if err != nil {
		log.Fatalf("failed to open %s: %v", driver, err)
	}
	defer adapter.Close()

	if err := adapter.Migrate(ctx); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	logger, err := zap.NewDevelopment(zap.IncreaseLevel(zap.WarnLevel))
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	inventoryService := service.NewInventoryService(adapter, decimal.NewFromInt(5), queueSize, service.WithLogger(logger))
	defer inventoryService.Close()

	// Drain the alert queue in background
	var alertCount atomic.Int32
	go func() {
		for range inventoryService.GetAlertQueue() {
			alertCount.Add(1)
		}
	}()

	// Reset the lot to the initial stock
	key := domain.LotKey{ItemNumber: itemNumber, Lot: lotID}
	_, err = inventoryService.LotInfo(ctx, key)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		_, err = inventoryService.Add(ctx, domain.AddCommand{
			ItemNumber: itemNumber,
			Lot:        lotID,
			Name:       "Stress Test Item",
			Quantity:   decimal.NewFromInt(initialStock),
			Unit:       "ea",
			Username:   "stress",
		})
	case err == nil:
		_, err = inventoryService.Adjust(ctx, domain.AdjustCommand{
			ItemNumber:  itemNumber,
			Lot:         lotID,
			NewQuantity: decimal.NewFromInt(initialStock),
			Annotation:  "stress reset",
			Username:    "stress",
		})
	}
	if err != nil {
		log.Fatalf("failed to set stock: %v", err)
	}

	entriesBefore, err := inventoryService.History(ctx, itemNumber)
	if err != nil {
		log.Fatalf("failed to read history: %v", err)
	}

	// Counters
	var successCount atomic.Int32
	var insufficientCount atomic.Int32
	var otherCount atomic.Int32

	// Spawn concurrent removals
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()

			_, err := inventoryService.Remove(ctx, domain.RemoveCommand{
				RequestID:  uuid.NewString(),
				ItemNumber: itemNumber,
				Lot:        lotID,
				Quantity:   decimal.NewFromInt(1),
				Username:   fmt.Sprintf("picker-%d", worker),
			})
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				insufficientCount.Add(1)
			default:
				otherCount.Add(1)
				log.Printf("worker %d: unexpected error: %v", worker, err)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	// Results
	success := successCount.Load()
	insufficient := insufficientCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Driver:           %s\n", adapter.Driver())
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Insufficient:     %d\n", insufficient)
	fmt.Printf("Other Errors:     %d\n", otherCount.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	failed := false

	// Assertions
	if success == initialStock && insufficient == totalRequests-initialStock {
		fmt.Printf("PASS: Exactly %d removals succeeded, %d were refused\n", initialStock, totalRequests-initialStock)
	} else {
		fmt.Printf("FAIL: Expected %d success/%d refused, got %d/%d\n",
			initialStock, totalRequests-initialStock, success, insufficient)
		failed = true
	}

	// Verify final quantity
	after, err := inventoryService.LotInfo(ctx, key)
	if err != nil {
		log.Fatalf("failed to read lot: %v", err)
	}
	fmt.Printf("Final Quantity:   %s\n", after.Quantity)

	if after.Quantity.IsZero() {
		fmt.Println("PASS: Stock depleted to 0")
	} else {
		fmt.Printf("FAIL: Expected stock 0, got %s\n", after.Quantity)
		failed = true
	}

	// Verify every successful removal left exactly one ledger entry
	entriesAfter, err := inventoryService.History(ctx, itemNumber)
	if err != nil {
		log.Fatalf("failed to read history: %v", err)
	}
	written := len(entriesAfter) - len(entriesBefore)

	if written == int(success) {
		fmt.Printf("PASS: %d ledger entries for %d removals\n", written, success)
	} else {
		fmt.Printf("FAIL: Expected %d ledger entries, got %d\n", success, written)
		failed = true
	}

	fmt.Printf("Low stock alerts: %d\n", alertCount.Load())

	if failed {
		os.Exit(1)
	}
}
