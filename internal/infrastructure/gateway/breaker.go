package gateway

import (
	"context"

	"github.com/sony/gobreaker"

	"github.com/pagopay/transactions-service/internal/config"
	"github.com/pagopay/transactions-service/internal/domain"
)

// BreakerClient wraps one gateway family with its own circuit breaker so a
// degraded family only blocks itself. A 4xx rejection is a valid answer and
// never counts as a failure.
type BreakerClient struct {
	inner Client
	cb    *gobreaker.CircuitBreaker
}

func NewBreakerClient(inner Client, cfg config.BreakerConfig) *BreakerClient {
	settings := gobreaker.Settings{
		Name:        "gateway-" + string(inner.ID()),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MinFailures
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			gwErr, ok := IsGatewayError(err)
			return ok && !gwErr.IsRetryable()
		},
	}
	return &BreakerClient{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker(settings),
	}
}

func (b *BreakerClient) ID() domain.GatewayID { return b.inner.ID() }

// Eligible stays side-effect free, so it bypasses the breaker: an open
// breaker must not change which family a transaction is routed to.
func (b *BreakerClient) Eligible(req AuthRequest) bool { return b.inner.Eligible(req) }

func (b *BreakerClient) RequestAuthorization(ctx context.Context, req AuthRequest) (*AuthResponse, error) {
	resp, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.RequestAuthorization(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return resp.(*AuthResponse), nil
}
