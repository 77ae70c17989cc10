package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type RedisCartStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ CartStore = (*RedisCartStore)(nil)

// NewRedisCartStore keeps each cart in a hash that expires ttl after its last write.
func NewRedisCartStore(client *redis.Client, ttl time.Duration) *RedisCartStore {
	return &RedisCartStore{client: client, ttl: ttl}
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}

func (s *RedisCartStore) Get(ctx context.Context, sessionID string) (Cart, error) {
	raw, err := s.client.HGetAll(ctx, cartKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}

	cart := make(Cart, len(raw))
	for productID, value := range raw {
		qty, err := strconv.ParseInt(value, 10, 64)
		if err != nil || qty <= 0 {
			logrus.WithFields(logrus.Fields{
				"session_id": sessionID,
				"product_id": productID,
				"value":      value,
			}).Warn("Dropping malformed cart line")
			continue
		}
		cart[productID] = qty
	}
	return cart, nil
}

func (s *RedisCartStore) Add(ctx context.Context, sessionID, productID string, qty int64) (Cart, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	key := cartKey(sessionID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, key, productID, qty)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis hincrby failed: %w", err)
	}
	return s.Get(ctx, sessionID)
}

func (s *RedisCartStore) Set(ctx context.Context, sessionID, productID string, qty int64) (Cart, error) {
	if qty <= 0 {
		return s.Remove(ctx, sessionID, productID)
	}

	key := cartKey(sessionID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, productID, qty)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis hset failed: %w", err)
	}
	return s.Get(ctx, sessionID)
}

func (s *RedisCartStore) Remove(ctx context.Context, sessionID, productID string) (Cart, error) {
	if err := s.client.HDel(ctx, cartKey(sessionID), productID).Err(); err != nil {
		return nil, fmt.Errorf("redis hdel failed: %w", err)
	}
	return s.Get(ctx, sessionID)
}

func (s *RedisCartStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, cartKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}
