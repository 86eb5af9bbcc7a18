package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/boswallah/course-assistant/models"
)

// RedisStore keeps each session's transcript in a redis list, newest at the
// head, trimmed to maxMessages and refreshed to the configured TTL on every
// append.
type RedisStore struct {
	client      *redis.Client
	ttl         time.Duration
	maxMessages int
}

func NewRedisStore(client *redis.Client, ttl time.Duration, maxMessages int) *RedisStore {
	if maxMessages <= 0 {
		maxMessages = 50
	}
	return &RedisStore{client: client, ttl: ttl, maxMessages: maxMessages}
}

func historyKey(sessionID string) string {
	return fmt.Sprintf("history:%s:messages", sessionID)
}

func (s *RedisStore) Append(ctx context.Context, sessionID string, msg models.ChatMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	key := historyKey(sessionID)
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, int64(s.maxMessages-1))
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

func (s *RedisStore) Recent(ctx context.Context, sessionID string, n int) ([]models.ChatMessage, error) {
	if n <= 0 || n > s.maxMessages {
		n = s.maxMessages
	}
	raw, err := s.client.LRange(ctx, historyKey(sessionID), 0, int64(n-1)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	// The list stores newest first; callers want chronological order.
	out := make([]models.ChatMessage, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var msg models.ChatMessage
		if err := json.Unmarshal([]byte(raw[i]), &msg); err != nil {
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, historyKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}
