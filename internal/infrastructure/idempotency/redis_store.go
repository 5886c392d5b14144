// Package idempotency caches PaymentRequestInfo entries so repeated
// activation attempts for the same RPT id can short-circuit the node call.
// The cache is a hint: the node's own idempotency key is the authoritative
// deduplication mechanism, so a lost update between two racing activations is
// tolerated.
package idempotency

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pagopay/transactions-service/internal/config"
	"github.com/pagopay/transactions-service/internal/domain"
)

type RedisStore struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewRedisClient(cfg config.RedisConfig) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func NewRedisStore(client *goredis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

func key(rptID string) string {
	return fmt.Sprintf("payment-request:%s", rptID)
}

// Get returns the cached entry for an RPT id, or nil on a cache miss.
func (s *RedisStore) Get(ctx context.Context, rptID string) (*domain.PaymentRequestInfo, error) {
	data, err := s.client.Get(ctx, key(rptID)).Result()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get payment request info: %w", err)
	}

	var info domain.PaymentRequestInfo
	if err := json.Unmarshal([]byte(data), &info); err != nil {
		return nil, fmt.Errorf("decode payment request info: %w", err)
	}
	return &info, nil
}

func (s *RedisStore) Put(ctx context.Context, rptID string, info *domain.PaymentRequestInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("encode payment request info: %w", err)
	}
	if err := s.client.Set(ctx, key(rptID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store payment request info: %w", err)
	}
	return nil
}
