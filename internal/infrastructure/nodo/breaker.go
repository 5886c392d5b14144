package nodo

import (
	"context"

	"github.com/sony/gobreaker"

	"github.com/pagopay/transactions-service/internal/config"
)

// BreakerClient wraps a node client with a circuit breaker so that a degraded
// node does not exhaust the worker pool. Business faults pass through without
// counting as failures; only transport-class errors trip the breaker.
type BreakerClient struct {
	inner Client
	cb    *gobreaker.CircuitBreaker
}

func NewBreakerClient(inner Client, cfg config.BreakerConfig) *BreakerClient {
	settings := gobreaker.Settings{
		Name:        "nodo",
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
			// Faults are valid answers from a healthy node.
			_, isFault := IsFaultError(err)
			return isFault
		},
	}
	return &BreakerClient{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker(settings),
	}
}

func (b *BreakerClient) ActivatePaymentNotice(ctx context.Context, req ActivateRequest) (*ActivateResponse, error) {
	return execute(b.cb, func() (*ActivateResponse, error) {
		return b.inner.ActivatePaymentNotice(ctx, req)
	})
}

func (b *BreakerClient) ActivatePaymentNoticeNM3(ctx context.Context, req ActivateNM3Request) (*ActivateResponse, error) {
	return execute(b.cb, func() (*ActivateResponse, error) {
		return b.inner.ActivatePaymentNoticeNM3(ctx, req)
	})
}

func (b *BreakerClient) ClosePayment(ctx context.Context, req ClosePaymentRequest) (*ClosePaymentResponse, error) {
	return execute(b.cb, func() (*ClosePaymentResponse, error) {
		return b.inner.ClosePayment(ctx, req)
	})
}

func execute[T any](cb *gobreaker.CircuitBreaker, op func() (*T, error)) (*T, error) {
	resp, err := cb.Execute(func() (interface{}, error) {
		return op()
	})
	if err != nil {
		return nil, err
	}
	return resp.(*T), nil
}
