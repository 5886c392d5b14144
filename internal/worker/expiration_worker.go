// Package worker runs the background sweeps that move stuck transactions
// forward without user interaction.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/pagopay/transactions-service/internal/application"
	"github.com/pagopay/transactions-service/internal/config"
	"github.com/pagopay/transactions-service/internal/domain"
)

// ExpirationWorker periodically scans the read view for transactions older
// than the configured lifetime and still short of closure, and appends the
// expiry for each. The event stream is re-read per candidate so a transaction
// that progressed between the scan and the append is left alone.
type ExpirationWorker struct {
	events    application.EventStore
	views     application.ViewStore
	publisher application.EventPublisher
	interval  time.Duration
	batchSize int
	lifetime  time.Duration
	logger    *slog.Logger
}

func NewExpirationWorker(
	events application.EventStore,
	views application.ViewStore,
	publisher application.EventPublisher,
	cfg config.WorkerConfig,
	logger *slog.Logger,
) *ExpirationWorker {
	return &ExpirationWorker{
		events:    events,
		views:     views,
		publisher: publisher,
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
		lifetime:  cfg.TransactionLifetime,
		logger:    logger,
	}
}

func (w *ExpirationWorker) Start(ctx context.Context) {
	w.logger.Info("expiration worker started",
		"interval", w.interval,
		"transaction_lifetime", w.lifetime)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	if err := w.ProcessExpirations(ctx); err != nil {
		w.logger.Error("expiration sweep failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("expiration worker stopping")
			return
		case <-ticker.C:
			if err := w.ProcessExpirations(ctx); err != nil {
				w.logger.Error("expiration sweep failed", "error", err)
			}
		}
	}
}

func (w *ExpirationWorker) ProcessExpirations(ctx context.Context) error {
	cutoff := time.Now().Add(-w.lifetime)

	candidates, err := w.views.FindExpiredCandidates(ctx, cutoff, w.batchSize)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return nil
	}

	var expired int
	for _, candidate := range candidates {
		ok, err := w.expireOne(ctx, domain.TransactionID(candidate.TransactionID))
		if err != nil {
			w.logger.Error("failed to expire transaction",
				"transaction_id", candidate.TransactionID,
				"error", err)
			continue
		}
		if ok {
			expired++
		}
	}

	w.logger.Info("expiration sweep finished",
		"candidates", len(candidates),
		"expired", expired)
	return nil
}

// expireOne re-derives the aggregate and appends the expiry only when the
// current state still allows it. Returns false when the transaction moved on
// in the meantime.
func (w *ExpirationWorker) expireOne(ctx context.Context, txID domain.TransactionID) (bool, error) {
	stream, err := w.events.ReadOrdered(ctx, txID)
	if err != nil {
		return false, err
	}
	tx := domain.Reduce(stream)
	if tx == nil || !tx.Status.IsPreClosure() {
		return false, nil
	}

	ev := domain.ExpiredEvent{
		BaseEvent:   domain.NewBaseEvent(txID),
		PriorStatus: tx.Status,
	}
	if err := w.events.Append(ctx, ev); err != nil {
		return false, err
	}
	if err := w.views.Apply(ctx, ev); err != nil {
		w.logger.Error("failed to project expiry into the read view",
			"transaction_id", txID, "error", err)
	}
	// Nothing observes an expiry over HTTP, so downstream consumers learn
	// about it from the events topic.
	if err := w.publisher.PublishTransactionEvent(ctx, ev, domain.StatusExpired); err != nil {
		w.logger.Error("failed to publish expiry event",
			"transaction_id", txID, "error", err)
	}
	return true, nil
}
