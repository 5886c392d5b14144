package idempotency

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pagopay/transactions-service/internal/domain"
)

// SessionRegistry links a hosted-gateway wallet order id to the transaction it
// authorizes. The link must exist before the authorization-requested event is
// appended; the outcome callback is resolved through it.
type SessionRegistry struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewSessionRegistry(client *goredis.Client, ttl time.Duration) *SessionRegistry {
	return &SessionRegistry{
		client: client,
		ttl:    ttl,
	}
}

func sessionKey(orderID string) string {
	return fmt.Sprintf("wallet-session:%s", orderID)
}

func (r *SessionRegistry) Link(ctx context.Context, orderID string, txID domain.TransactionID) error {
	if err := r.client.Set(ctx, sessionKey(orderID), string(txID), r.ttl).Err(); err != nil {
		return fmt.Errorf("link wallet session %s: %w", orderID, err)
	}
	return nil
}

// Resolve returns the transaction linked to an order id, or "" when no link
// exists.
func (r *SessionRegistry) Resolve(ctx context.Context, orderID string) (domain.TransactionID, error) {
	id, err := r.client.Get(ctx, sessionKey(orderID)).Result()
	if err == goredis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("resolve wallet session %s: %w", orderID, err)
	}
	return domain.TransactionID(id), nil
}
