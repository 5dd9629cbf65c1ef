// Package cache publishes accepted room actions to a Redis stream for
// out-of-process consumers. The publisher is optional: when Rdb is nil every
// publish call is skipped, and nothing here is ever on a handler's critical
// path.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Rdb is the shared Redis client. It stays nil when no REDIS_ADDR is
// configured; callers must treat nil as "publishing disabled".
var Rdb *redis.Client

// Init connects the shared client and verifies the server is reachable.
func Init(addr string) error {
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s: %w", addr, err)
	}
	Rdb = client
	return nil
}

// RoomActionRecord is one accepted engine action, in acceptance order per
// room.
type RoomActionRecord struct {
	RoomKey     string                 `json:"roomKey"`
	ActionIndex int                    `json:"actionIndex"`
	ActorID     string                 `json:"actorId"`
	ActionType  string                 `json:"actionType"`
	Payload     map[string]interface{} `json:"payload"`
	Timestamp   int64                  `json:"timestamp"`
}

// PublishRoomAction appends the record to the room's action list.
func PublishRoomAction(ctx context.Context, rec RoomActionRecord) error {
	if Rdb == nil {
		return nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal action record: %w", err)
	}
	key := "room:actions:" + rec.RoomKey
	return Rdb.RPush(ctx, key, data).Err()
}
