package services

import (
	"context"
	"log/slog"

	"github.com/pagopay/transactions-service/internal/application"
	"github.com/pagopay/transactions-service/internal/domain"
)

// UserReceiptService records the node's user notification outcome for a closed
// transaction, moving it to its terminal notified state.
type UserReceiptService struct {
	events application.EventStore
	views  application.ViewStore
	logger *slog.Logger
}

func NewUserReceiptService(events application.EventStore, views application.ViewStore, logger *slog.Logger) *UserReceiptService {
	return &UserReceiptService{events: events, views: views, logger: logger}
}

func (s *UserReceiptService) AddUserReceipt(ctx context.Context, cmd NotifyCommand) (*domain.Transaction, error) {
	tx, stream, err := loadTransaction(ctx, s.events, cmd.TransactionID)
	if err != nil {
		return nil, err
	}
	if tx.Status != domain.StatusClosed {
		return nil, domain.NewAlreadyProcessedError(firstRptID(tx))
	}
	if cmd.Outcome != domain.OutcomeOK && cmd.Outcome != domain.OutcomeKO {
		return nil, domain.NewInvalidRequestError("receipt outcome must be OK or KO")
	}

	ev := domain.UserReceiptRequestedEvent{
		BaseEvent: domain.NewBaseEvent(tx.ID),
		Outcome:   cmd.Outcome,
	}
	if err := s.events.Append(ctx, ev); err != nil {
		s.logger.Error("failed to append user receipt event",
			"transaction_id", tx.ID, "error", err)
		return nil, application.NewInternalError(err)
	}
	project(ctx, s.views, s.logger, ev)

	s.logger.Info("user receipt recorded",
		"transaction_id", tx.ID, "outcome", cmd.Outcome)
	return domain.Reduce(append(stream, ev)), nil
}
