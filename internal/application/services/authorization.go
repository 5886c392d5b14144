package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/pagopay/transactions-service/internal/application"
	"github.com/pagopay/transactions-service/internal/config"
	"github.com/pagopay/transactions-service/internal/domain"
	"github.com/pagopay/transactions-service/internal/infrastructure/gateway"
	"github.com/pagopay/transactions-service/internal/metrics"
)

// AuthorizationService dispatches an authorization request to exactly one
// payment gateway, chosen by scanning the configured families in priority
// order and taking the first eligible one.
type AuthorizationService struct {
	events   application.EventStore
	views    application.ViewStore
	sessions application.SessionRegistry
	gateways []gateway.Client
	nodoCfg  config.NodoConfig

	// outcomeTimeout is stamped onto each authorization request so the
	// acceptance window travels with the event.
	outcomeTimeout time.Duration
	logger         *slog.Logger
}

func NewAuthorizationService(
	events application.EventStore,
	views application.ViewStore,
	sessions application.SessionRegistry,
	gateways []gateway.Client,
	nodoCfg config.NodoConfig,
	outcomeTimeout time.Duration,
	logger *slog.Logger,
) *AuthorizationService {
	return &AuthorizationService{
		events:         events,
		views:          views,
		sessions:       sessions,
		gateways:       gateways,
		nodoCfg:        nodoCfg,
		outcomeTimeout: outcomeTimeout,
		logger:         logger,
	}
}

func (s *AuthorizationService) RequestAuthorization(ctx context.Context, cmd AuthorizeCommand) (*AuthorizeResult, error) {
	tx, _, err := loadTransaction(ctx, s.events, cmd.TransactionID)
	if err != nil {
		return nil, err
	}
	if tx.Status != domain.StatusActivated {
		return nil, domain.NewAlreadyProcessedError(firstRptID(tx))
	}
	if cmd.Details == nil {
		return nil, domain.NewInvalidRequestError("authorization details are required")
	}

	req := gateway.AuthRequest{
		TransactionID:   tx.ID,
		Amount:          tx.TotalAmount(),
		Fee:             cmd.Fee,
		Description:     description(tx),
		Language:        cmd.Language,
		PspID:           cmd.PspID,
		PaymentTypeCode: cmd.PaymentTypeCode,
		GatewayHint:     cmd.GatewayHint,
		Details:         cmd.Details,
	}

	gw := s.selectGateway(req)
	if gw == nil {
		return nil, domain.NewNoGatewayMatchedError(cmd.PaymentTypeCode)
	}

	// A hosted-wallet order id must be resolvable back to the transaction
	// before any state changes, otherwise the eventual outcome callback
	// would be unroutable.
	if wallet, ok := cmd.Details.(gateway.WalletDetails); ok {
		if err := s.sessions.Link(ctx, wallet.OrderID, tx.ID); err != nil {
			s.logger.Error("failed to link wallet session",
				"transaction_id", tx.ID,
				"order_id", wallet.OrderID,
				"error", err)
			return nil, application.NewInternalError(err)
		}
	}

	resp, err := gw.RequestAuthorization(ctx, req)
	if err != nil {
		return nil, s.mapGatewayError(gw.ID(), err)
	}

	ev := domain.AuthorizationRequestedEvent{
		BaseEvent:       domain.NewBaseEvent(tx.ID),
		Gateway:         gw.ID(),
		Amount:          tx.TotalAmount(),
		Fee:             cmd.Fee,
		RequestID:       resp.RequestID,
		PspID:           cmd.PspID,
		BrokerID:        s.nodoCfg.BrokerID,
		ChannelID:       s.nodoCfg.ChannelID,
		PaymentMethod:   cmd.PaymentMethod,
		PaymentTypeCode: cmd.PaymentTypeCode,
		OutcomeTimeout:  s.outcomeTimeout,
	}
	if err := s.events.Append(ctx, ev); err != nil {
		s.logger.Error("failed to append authorization request event",
			"transaction_id", tx.ID, "gateway", gw.ID(), "error", err)
		return nil, application.NewInternalError(err)
	}
	project(ctx, s.views, s.logger, ev)

	metrics.AuthorizationRequestsTotal.WithLabelValues(string(gw.ID())).Inc()
	s.logger.Info("authorization requested",
		"transaction_id", tx.ID,
		"gateway", gw.ID(),
		"request_id", resp.RequestID)

	return &AuthorizeResult{
		TransactionID: tx.ID,
		Gateway:       gw.ID(),
		RequestID:     resp.RequestID,
		RedirectURL:   resp.RedirectURL,
	}, nil
}

// selectGateway walks the families in their configured priority order and
// returns the first eligible one. Eligibility checks are side-effect free, so
// losing candidates never see the request.
func (s *AuthorizationService) selectGateway(req gateway.AuthRequest) gateway.Client {
	for _, gw := range s.gateways {
		if gw.Eligible(req) {
			return gw
		}
	}
	return nil
}

func (s *AuthorizationService) mapGatewayError(id domain.GatewayID, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return application.NewGatewayTimeoutError(string(id), err)
	}
	return application.NewBadGatewayError(string(id), err)
}

func description(tx *domain.Transaction) string {
	if len(tx.Notices) == 0 {
		return ""
	}
	return tx.Notices[0].Description
}
