package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	chatStateKeyPattern  = "conversation:state:%d"
	chatStateScanPattern = "conversation:state:*"
	stateScanBatchCount  = 100
)

// RedisStorage persists conversation states in Redis.
type RedisStorage struct {
	client *redis.Client
	log    *slog.Logger
	ttl    time.Duration
}

// NewRedisStorage initializes a Redis-backed Storage implementation. Keys expire after ttl;
// a zero ttl keeps them until consumed.
func NewRedisStorage(client *redis.Client, log *slog.Logger, ttl time.Duration) Storage {
	if log == nil {
		log = slog.Default()
	}

	return &RedisStorage{
		client: client,
		log:    log,
		ttl:    ttl,
	}
}

// GetState returns the stored state or ErrStateNotFound when absent.
func (s *RedisStorage) GetState(ctx context.Context, chatID int64) (*ConversationState, error) {
	data, err := s.client.Get(ctx, redisChatStateKey(chatID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrStateNotFound
		}

		s.log.Error("failed to get state from redis", "chat_id", chatID, "error", err)
		return nil, err
	}

	return s.decode(chatID, data)
}

// SetState saves the provided state.
func (s *RedisStorage) SetState(ctx context.Context, chatID int64, state *ConversationState) error {
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(state)
	if err != nil {
		s.log.Error("failed to encode conversation state", "chat_id", chatID, "error", err)
		return err
	}

	if err := s.client.Set(ctx, redisChatStateKey(chatID), data, s.ttl).Err(); err != nil {
		s.log.Error("failed to save state in redis", "chat_id", chatID, "error", err)
		return err
	}

	return nil
}

// TakeState reads and deletes the state with a single GETDEL.
func (s *RedisStorage) TakeState(ctx context.Context, chatID int64) (*ConversationState, error) {
	data, err := s.client.GetDel(ctx, redisChatStateKey(chatID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrStateNotFound
		}

		s.log.Error("failed to take state from redis", "chat_id", chatID, "error", err)
		return nil, err
	}

	return s.decode(chatID, data)
}

// ClearState removes the stored state for the given chat.
func (s *RedisStorage) ClearState(ctx context.Context, chatID int64) error {
	if err := s.client.Del(ctx, redisChatStateKey(chatID)).Err(); err != nil {
		s.log.Error("failed to clear conversation state", "chat_id", chatID, "error", err)
		return err
	}

	return nil
}

// GetAllStates retrieves every stored state by scanning Redis keys.
func (s *RedisStorage) GetAllStates(ctx context.Context) ([]*ConversationState, error) {
	var (
		cursor uint64
		result []*ConversationState
	)

	for {
		keys, nextCursor, err := s.client.Scan(ctx, cursor, chatStateScanPattern, stateScanBatchCount).Result()
		if err != nil {
			s.log.Error("failed to scan conversation states", "error", err)
			return nil, err
		}

		for _, key := range keys {
			data, err := s.client.Get(ctx, key).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}

				s.log.Error("failed to fetch conversation state", "key", key, "error", err)
				return nil, err
			}

			var st ConversationState
			if err := json.Unmarshal([]byte(data), &st); err != nil {
				s.log.Error("failed to decode conversation state", "key", key, "error", err)
				continue
			}

			copied := st
			result = append(result, &copied)
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return result, nil
}

func (s *RedisStorage) decode(chatID int64, data string) (*ConversationState, error) {
	var st ConversationState
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		s.log.Error("failed to decode conversation state", "chat_id", chatID, "error", err)
		return nil, err
	}

	return &st, nil
}

func redisChatStateKey(chatID int64) string {
	return fmt.Sprintf(chatStateKeyPattern, chatID)
}
