package services

import (
	"context"
	"log/slog"

	"github.com/pagopay/transactions-service/internal/application"
	"github.com/pagopay/transactions-service/internal/domain"
)

// CancellationService handles explicit user cancellations. Cancellation is
// only legal before an authorization outcome exists; afterwards the lifecycle
// must run through closure instead.
type CancellationService struct {
	events application.EventStore
	views  application.ViewStore
	logger *slog.Logger
}

func NewCancellationService(events application.EventStore, views application.ViewStore, logger *slog.Logger) *CancellationService {
	return &CancellationService{events: events, views: views, logger: logger}
}

func (s *CancellationService) Cancel(ctx context.Context, cmd CancelCommand) (*domain.Transaction, error) {
	tx, stream, err := loadTransaction(ctx, s.events, cmd.TransactionID)
	if err != nil {
		return nil, err
	}
	if tx.Status != domain.StatusActivated && tx.Status != domain.StatusAuthorizationRequested {
		return nil, domain.NewAlreadyProcessedError(firstRptID(tx))
	}

	ev := domain.UserCanceledEvent{BaseEvent: domain.NewBaseEvent(tx.ID)}
	if err := s.events.Append(ctx, ev); err != nil {
		s.logger.Error("failed to append cancellation event",
			"transaction_id", tx.ID, "error", err)
		return nil, application.NewInternalError(err)
	}
	project(ctx, s.views, s.logger, ev)

	s.logger.Info("transaction canceled by user", "transaction_id", tx.ID)
	return domain.Reduce(append(stream, ev)), nil
}
