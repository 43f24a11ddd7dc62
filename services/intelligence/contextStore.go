// File: services/intelligence/contextStore.go
package ai

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	convContextPrefix = "ai:conv:"
	defaultMaxTurns   = 10
)

// Turn is one remembered line of a conversation.
type Turn struct {
	Role string    `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// RedisContextStore keeps a capped, expiring list of turns per conversation.
type RedisContextStore struct {
	client   *redis.Client
	ttl      time.Duration
	maxTurns int64
}

func NewRedisContextStore(client *redis.Client, ttl time.Duration, maxTurns int) *RedisContextStore {
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}
	return &RedisContextStore{client: client, ttl: ttl, maxTurns: int64(maxTurns)}
}

func (s *RedisContextStore) Append(ctx context.Context, conversationID string, turn Turn) error {
	b, err := json.Marshal(turn)
	if err != nil {
		return err
	}
	key := convContextPrefix + conversationID
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, b)
	pipe.LTrim(ctx, key, -s.maxTurns, -1)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Recent returns the remembered turns oldest first.
func (s *RedisContextStore) Recent(ctx context.Context, conversationID string) ([]Turn, error) {
	items, err := s.client.LRange(ctx, convContextPrefix+conversationID, 0, -1).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	turns := make([]Turn, 0, len(items))
	for _, item := range items {
		var t Turn
		if err := json.Unmarshal([]byte(item), &t); err != nil {
			continue
		}
		turns = append(turns, t)
	}
	return turns, nil
}

func (s *RedisContextStore) Clear(ctx context.Context, conversationID string) error {
	return s.client.Del(ctx, convContextPrefix+conversationID).Err()
}
