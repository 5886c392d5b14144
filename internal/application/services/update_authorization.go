package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pagopay/transactions-service/internal/application"
	"github.com/pagopay/transactions-service/internal/domain"
	"github.com/pagopay/transactions-service/internal/infrastructure/gateway"
	"github.com/pagopay/transactions-service/internal/metrics"
)

// UpdateAuthorizationService validates a gateway outcome callback against the
// recorded authorization request and appends the canonical OK/KO result.
// Unknown outcome vocabulary fails closed: nothing is appended.
type UpdateAuthorizationService struct {
	events  application.EventStore
	views   application.ViewStore
	timeout time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

func NewUpdateAuthorizationService(
	events application.EventStore,
	views application.ViewStore,
	authorizationTimeout time.Duration,
	logger *slog.Logger,
) *UpdateAuthorizationService {
	return &UpdateAuthorizationService{
		events:  events,
		views:   views,
		timeout: authorizationTimeout,
		now:     time.Now,
		logger:  logger,
	}
}

func (s *UpdateAuthorizationService) UpdateAuthorization(ctx context.Context, cmd UpdateAuthorizationCommand) (*domain.Transaction, error) {
	tx, stream, err := loadTransaction(ctx, s.events, cmd.TransactionID)
	if err != nil {
		return nil, err
	}
	if tx.Status != domain.StatusAuthorizationRequested {
		return nil, domain.NewAlreadyProcessedError(firstRptID(tx))
	}
	if cmd.Outcome == nil {
		return nil, domain.NewInvalidRequestError("authorization outcome is required")
	}
	auth := tx.Authorization
	if cmd.Outcome.Family() != auth.Gateway {
		return nil, domain.NewInvalidRequestError(fmt.Sprintf(
			"outcome family %s does not match the requested gateway %s",
			cmd.Outcome.Family(), auth.Gateway))
	}

	if redirect, ok := cmd.Outcome.(gateway.RedirectOutcome); ok {
		if err := s.checkRedirectIntegrity(redirect, auth); err != nil {
			return nil, err
		}
	}

	result, err := normalizeOutcome(cmd.Outcome)
	if err != nil {
		return nil, err
	}

	ev := domain.AuthorizationCompletedEvent{
		BaseEvent:         domain.NewBaseEvent(tx.ID),
		Outcome:           result.Outcome,
		ErrorCode:         result.ErrorCode,
		RRN:               result.RRN,
		AuthorizationCode: result.AuthorizationCode,
		OperationAt:       result.OperationAt,
	}
	if err := s.events.Append(ctx, ev); err != nil {
		s.logger.Error("failed to append authorization outcome event",
			"transaction_id", tx.ID, "error", err)
		return nil, application.NewInternalError(err)
	}
	project(ctx, s.views, s.logger, ev)

	metrics.AuthorizationOutcomesTotal.
		WithLabelValues(string(auth.Gateway), string(result.Outcome)).Inc()
	s.logger.Info("authorization outcome recorded",
		"transaction_id", tx.ID,
		"gateway", auth.Gateway,
		"outcome", result.Outcome,
		"error_code", result.ErrorCode)

	return domain.Reduce(append(stream, ev)), nil
}

// checkRedirectIntegrity verifies an out-of-band redirect callback: the PSP
// it claims and the gateway transaction id must match the values recorded at
// request time, and the callback must arrive within the acceptance window.
// The window stamped onto the authorization request wins over the current
// config, so in-flight authorizations are unaffected by config changes.
func (s *UpdateAuthorizationService) checkRedirectIntegrity(outcome gateway.RedirectOutcome, auth *domain.AuthorizationInfo) error {
	if outcome.PspID != auth.PspID {
		return domain.NewInvalidRequestError("redirect outcome psp id does not match the authorization request")
	}
	if outcome.PspTransactionID != auth.RequestID {
		return domain.NewInvalidRequestError("redirect outcome transaction id does not match the authorization request")
	}
	timeout := s.timeout
	if auth.OutcomeTimeout > 0 {
		timeout = auth.OutcomeTimeout
	}
	if s.now().Sub(auth.RequestedAt) > timeout {
		return domain.NewInvalidRequestError("redirect outcome arrived after the authorization timeout")
	}
	return nil
}

// normalizeOutcome maps each family's outcome vocabulary onto the canonical
// OK/KO result. An unrecognized value is rejected rather than guessed at.
func normalizeOutcome(outcome gateway.OutcomeRequest) (*domain.AuthorizationResult, error) {
	switch o := outcome.(type) {
	case gateway.XPayOutcome:
		switch o.Outcome {
		case "OK":
			return &domain.AuthorizationResult{
				Outcome:           domain.OutcomeOK,
				AuthorizationCode: o.AuthorizationCode,
				RRN:               o.RRN,
				OperationAt:       o.OperationAt,
			}, nil
		case "KO", "DENIED":
			return &domain.AuthorizationResult{
				Outcome:     domain.OutcomeKO,
				ErrorCode:   o.Outcome,
				OperationAt: o.OperationAt,
			}, nil
		}
		return nil, domain.NewInvalidRequestError(fmt.Sprintf("unknown xpay outcome %q", o.Outcome))

	case gateway.VPosOutcome:
		switch o.Status {
		case "AUTHORIZED":
			return &domain.AuthorizationResult{
				Outcome:           domain.OutcomeOK,
				AuthorizationCode: o.AuthorizationCode,
				RRN:               o.RRN,
				OperationAt:       o.OperationAt,
			}, nil
		case "DENIED", "FAILED":
			return &domain.AuthorizationResult{
				Outcome:     domain.OutcomeKO,
				ErrorCode:   o.ErrorCode,
				OperationAt: o.OperationAt,
			}, nil
		}
		return nil, domain.NewInvalidRequestError(fmt.Sprintf("unknown vpos status %q", o.Status))

	case gateway.NPGOutcome:
		switch o.OperationResult {
		case "EXECUTED":
			return &domain.AuthorizationResult{
				Outcome:           domain.OutcomeOK,
				AuthorizationCode: o.AuthorizationCode,
				RRN:               o.PaymentEndToEndID,
				OperationAt:       o.OperationAt,
			}, nil
		case "DECLINED", "DENIED_BY_RISK", "FAILED", "CANCELED":
			return &domain.AuthorizationResult{
				Outcome:     domain.OutcomeKO,
				ErrorCode:   o.OperationResult,
				OperationAt: o.OperationAt,
			}, nil
		}
		return nil, domain.NewInvalidRequestError(fmt.Sprintf("unknown npg operation result %q", o.OperationResult))

	case gateway.RedirectOutcome:
		switch o.Outcome {
		case "OK":
			return &domain.AuthorizationResult{
				Outcome:           domain.OutcomeOK,
				AuthorizationCode: o.AuthorizationCode,
				RRN:               o.RRN,
				OperationAt:       o.OperationAt,
			}, nil
		case "KO", "ERROR", "CANCELED", "EXPIRED":
			return &domain.AuthorizationResult{
				Outcome:     domain.OutcomeKO,
				ErrorCode:   redirectErrorCode(o),
				OperationAt: o.OperationAt,
			}, nil
		}
		return nil, domain.NewInvalidRequestError(fmt.Sprintf("unknown redirect outcome %q", o.Outcome))
	}

	return nil, domain.NewInvalidRequestError("unsupported outcome payload")
}

func redirectErrorCode(o gateway.RedirectOutcome) string {
	if o.ErrorCode != "" {
		return o.ErrorCode
	}
	return o.Outcome
}
