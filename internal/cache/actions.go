package cache

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Rdb is the shared Redis client used to feed the historian stream. It stays
// nil when REDIS_ADDR is unset, in which case publishing is a no-op.
var Rdb *redis.Client

// InitRedis connects the shared client from REDIS_ADDR. A failed ping leaves
// Rdb nil so the server keeps running without a historian.
func InitRedis(ctx context.Context, log *logrus.Logger) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		log.Info("REDIS_ADDR not set, game event history disabled")
		return
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("redis unreachable, game event history disabled")
		return
	}
	Rdb = client
	log.WithField("addr", addr).Info("redis connected")
}

// GameEventRecord is one historian entry: a single engine event in its wire
// form, ordered by Index within the game's log.
type GameEventRecord struct {
	GameID    uuid.UUID
	Index     int
	EventType string
	Payload   []byte
	Timestamp int64
}

// PublishGameEvent appends rec to the game's Redis stream. Safe to call with
// Rdb nil.
func PublishGameEvent(ctx context.Context, rec GameEventRecord) error {
	if Rdb == nil {
		return nil
	}
	stream := fmt.Sprintf("mahjong:events:%s", rec.GameID)
	return Rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"index":   rec.Index,
			"type":    rec.EventType,
			"payload": string(rec.Payload),
			"ts":      rec.Timestamp,
		},
	}).Err()
}
