package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rl1809/lot-ledger/internal/core/domain"
)

const (
	DefaultAlertChannel = "inventory:low-stock"
	alertKeyPrefix      = "inventory:alert:"
	alertKeyTTL         = 7 * 24 * time.Hour
)

var publishOnceScript = redis.NewScript(`
local key = KEYS[1]
local channel = ARGV[1]
local payload = ARGV[2]
local ttl = tonumber(ARGV[3])

if redis.call('SET', key, 1, 'NX', 'EX', ttl) then
	redis.call('PUBLISH', channel, payload)
	return 1
end

return 0
`)

type AlertMessage struct {
	ID          string    `json:"id"`
	EntryID     int64     `json:"entry_id"`
	ItemNumber  string    `json:"item_number"`
	Lot         string    `json:"lot"`
	Remaining   string    `json:"remaining"`
	Unit        string    `json:"unit"`
	ItemName    string    `json:"item_name"`
	Supplier    string    `json:"supplier"`
	TriggeredBy string    `json:"triggered_by"`
	RaisedAt    time.Time `json:"raised_at"`
}

// RedisNotifier publishes alerts on a pub/sub channel. The guard key is the
// ledger entry id, so one removal is published at most once.
type RedisNotifier struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

func NewRedisNotifier(client *redis.Client, channel string, logger *zap.Logger) *RedisNotifier {
	if channel == "" {
		channel = DefaultAlertChannel
	}
	return &RedisNotifier{client: client, channel: channel, logger: logger}
}

func (n *RedisNotifier) Notify(ctx context.Context, alert domain.LowStockAlert) error {
	payload, err := json.Marshal(AlertMessage{
		ID:          alert.ID,
		EntryID:     alert.EntryID,
		ItemNumber:  alert.ItemNumber,
		Lot:         alert.Lot,
		Remaining:   alert.Remaining.String(),
		Unit:        alert.Unit,
		ItemName:    alert.ItemName,
		Supplier:    alert.Supplier,
		TriggeredBy: alert.TriggeredBy,
		RaisedAt:    alert.RaisedAt,
	})
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}

	key := alertKeyPrefix + strconv.FormatInt(alert.EntryID, 10)
	published, err := publishOnceScript.Run(ctx, n.client, []string{key},
		n.channel, string(payload), int(alertKeyTTL.Seconds()),
	).Int()
	if err != nil {
		return fmt.Errorf("publish alert: %w", err)
	}

	if published == 0 {
		n.logger.Debug("alert already published", zap.Int64("entry_id", alert.EntryID))
	}
	return nil
}
