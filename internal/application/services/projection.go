package services

import (
	"context"
	"log/slog"

	"github.com/pagopay/transactions-service/internal/application"
	"github.com/pagopay/transactions-service/internal/domain"
)

// project updates the read view for an appended event. The event stream is the
// source of truth, so a projection failure is logged and swallowed; the view
// catches up on the next event for the same transaction.
func project(ctx context.Context, views application.ViewStore, logger *slog.Logger, ev domain.Event) {
	if err := views.Apply(ctx, ev); err != nil {
		logger.Error("failed to project event into the read view",
			"transaction_id", ev.TransactionID(),
			"event_type", ev.EventType(),
			"error", err)
	}
}

// loadTransaction folds the stream for the id and returns both the aggregate
// and the stream it was derived from, so a caller can fold its own appended
// event on top without a second read.
func loadTransaction(ctx context.Context, events application.EventStore, txID domain.TransactionID) (*domain.Transaction, []domain.Event, error) {
	stream, err := events.ReadOrdered(ctx, txID)
	if err != nil {
		return nil, nil, application.NewInternalError(err)
	}
	tx := domain.Reduce(stream)
	if tx == nil {
		return nil, nil, domain.NewTransactionNotFoundError(string(txID))
	}
	return tx, stream, nil
}

func firstRptID(tx *domain.Transaction) string {
	ids := tx.RptIDs()
	if len(ids) == 0 {
		return string(tx.ID)
	}
	return ids[0]
}
