package application

import (
	"context"
	"time"

	"github.com/pagopay/transactions-service/internal/domain"
	"github.com/pagopay/transactions-service/internal/infrastructure/persistence/postgres"
	"github.com/pagopay/transactions-service/internal/infrastructure/queue"
)

// EventStore is the port for the append-only event log.
type EventStore interface {
	Append(ctx context.Context, ev domain.Event) error
	ReadOrdered(ctx context.Context, txID domain.TransactionID) ([]domain.Event, error)
	FindByTransactionIDAndType(ctx context.Context, txID domain.TransactionID, eventType domain.EventType) (domain.Event, error)
}

// ViewStore is the port for the read-model projection. Apply is
// fire-and-forget from the handlers' perspective: its failure is logged but
// never undoes an appended event.
type ViewStore interface {
	Apply(ctx context.Context, ev domain.Event) error
	FindByID(ctx context.Context, txID domain.TransactionID) (*postgres.ViewModel, error)
	FindExpiredCandidates(ctx context.Context, cutoff time.Time, limit int) ([]*postgres.ViewModel, error)
}

// PaymentRequestCache is the port for the idempotency cache keyed by RPT id.
// Get returns (nil, nil) on a miss.
type PaymentRequestCache interface {
	Get(ctx context.Context, rptID string) (*domain.PaymentRequestInfo, error)
	Put(ctx context.Context, rptID string, info *domain.PaymentRequestInfo) error
}

// SessionRegistry links hosted-gateway wallet order ids to transactions.
// Resolve returns "" when no link exists.
type SessionRegistry interface {
	Link(ctx context.Context, orderID string, txID domain.TransactionID) error
	Resolve(ctx context.Context, orderID string) (domain.TransactionID, error)
}

// RefundPublisher emits the compensation signal consumed by the refund
// workflow.
type RefundPublisher interface {
	PublishRefundTrigger(ctx context.Context, msg queue.RefundTriggerMessage) error
}

// EventPublisher mirrors appended events onto the events topic for consumers
// that cannot observe the HTTP surface, such as the notification pipeline.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, ev domain.Event, status domain.TransactionStatus) error
}
