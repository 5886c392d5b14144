package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/pagopay/transactions-service/internal/application"
	"github.com/pagopay/transactions-service/internal/domain"
	"github.com/pagopay/transactions-service/internal/infrastructure/nodo"
	"github.com/pagopay/transactions-service/internal/infrastructure/queue"
	"github.com/pagopay/transactions-service/internal/metrics"
)

// ClosureService reconciles a completed authorization with the payment node.
// When the node cannot confirm a closure for a successfully authorized
// transaction, the money is held by the gateway with no matching settlement,
// so the service triggers the refund compensation exactly once.
type ClosureService struct {
	events  application.EventStore
	views   application.ViewStore
	nodo    nodo.Client
	refunds application.RefundPublisher
	logger  *slog.Logger
}

func NewClosureService(
	events application.EventStore,
	views application.ViewStore,
	nodoClient nodo.Client,
	refunds application.RefundPublisher,
	logger *slog.Logger,
) *ClosureService {
	return &ClosureService{
		events:  events,
		views:   views,
		nodo:    nodoClient,
		refunds: refunds,
		logger:  logger,
	}
}

func (s *ClosureService) Close(ctx context.Context, cmd CloseCommand) (*domain.Transaction, error) {
	tx, stream, err := loadTransaction(ctx, s.events, cmd.TransactionID)
	if err != nil {
		return nil, err
	}
	if tx.Status != domain.StatusAuthorized && tx.Status != domain.StatusAuthorizationFailed {
		return nil, domain.NewAlreadyProcessedError(firstRptID(tx))
	}

	auth := tx.Authorization
	result := tx.AuthResult

	outcome := nodo.OutcomeKO
	if result.Outcome == domain.OutcomeOK {
		outcome = nodo.OutcomeOK
	}

	start := time.Now()
	resp, callErr := s.nodo.ClosePayment(ctx, nodo.ClosePaymentRequest{
		PaymentTokens:     tx.PaymentTokens(),
		Outcome:           outcome,
		TotalAmount:       tx.TotalAmount() + auth.Fee,
		Fee:               auth.Fee,
		PspID:             auth.PspID,
		BrokerID:          auth.BrokerID,
		ChannelID:         auth.ChannelID,
		PaymentMethod:     auth.PaymentMethod,
		Timestamp:         result.OperationAt,
		AuthorizationCode: result.AuthorizationCode,
		GatewayOutcome:    string(result.Outcome),
	})
	metrics.NodoCallDuration.WithLabelValues("close_payment").Observe(time.Since(start).Seconds())

	newStatus := domain.StatusClosureFailed
	nodeOutcome := nodo.OutcomeKO
	switch {
	case callErr != nil:
		// A refused, faulted or unreachable node all leave the
		// transaction unsettled; the distinction only matters for the
		// operators reading the log.
		s.logger.Error("close payment call failed",
			"transaction_id", tx.ID, "error", callErr)
	case resp.Outcome == nodo.OutcomeOK:
		newStatus = domain.StatusClosed
		nodeOutcome = nodo.OutcomeOK
	default:
		s.logger.Warn("node refused the closure",
			"transaction_id", tx.ID, "node_outcome", resp.Outcome)
	}

	ev := domain.ClosureSentEvent{
		BaseEvent:   domain.NewBaseEvent(tx.ID),
		NodeOutcome: nodeOutcome,
		NewStatus:   newStatus,
	}
	if err := s.events.Append(ctx, ev); err != nil {
		s.logger.Error("failed to append closure event",
			"transaction_id", tx.ID, "error", err)
		return nil, application.NewInternalError(err)
	}
	project(ctx, s.views, s.logger, ev)
	stream = append(stream, ev)

	if newStatus == domain.StatusClosed {
		metrics.ClosuresTotal.WithLabelValues("closed").Inc()
	} else {
		metrics.ClosuresTotal.WithLabelValues("failed").Inc()
	}

	if newStatus == domain.StatusClosureFailed && result.Outcome == domain.OutcomeOK {
		stream = append(stream, s.triggerRefund(ctx, tx, auth, result))
	}

	s.logger.Info("closure recorded",
		"transaction_id", tx.ID,
		"new_status", newStatus,
		"node_outcome", nodeOutcome)

	return domain.Reduce(stream), nil
}

// triggerRefund appends the compensation marker and publishes the refund
// trigger. The append happens while the transaction is still guarded by the
// closure state check, so a concurrent or repeated Close cannot fire the
// compensation a second time.
func (s *ClosureService) triggerRefund(ctx context.Context, tx *domain.Transaction, auth *domain.AuthorizationInfo, result *domain.AuthorizationResult) domain.Event {
	reason := "closure failed after successful authorization"
	ev := domain.RefundRequestedEvent{
		BaseEvent: domain.NewBaseEvent(tx.ID),
		Reason:    reason,
	}
	if err := s.events.Append(ctx, ev); err != nil {
		// The refund marker could not be persisted. Publish anyway:
		// losing the compensation strands the user's money, while a
		// duplicate downstream refund is reconcilable.
		s.logger.Error("failed to append refund request event",
			"transaction_id", tx.ID, "error", err)
	}
	project(ctx, s.views, s.logger, ev)

	msg := queue.RefundTriggerMessage{
		TransactionID:     string(tx.ID),
		PaymentTokens:     tx.PaymentTokens(),
		Gateway:           string(auth.Gateway),
		AuthorizationCode: result.AuthorizationCode,
		RRN:               result.RRN,
		Reason:            reason,
		RequestedAt:       time.Now(),
	}
	if err := s.refunds.PublishRefundTrigger(ctx, msg); err != nil {
		s.logger.Error("failed to publish refund trigger, manual reconciliation required",
			"transaction_id", tx.ID, "error", err)
	} else {
		metrics.RefundTriggersTotal.Inc()
		s.logger.Info("refund compensation triggered", "transaction_id", tx.ID)
	}
	return ev
}
