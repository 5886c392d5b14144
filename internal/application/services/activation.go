// Package services implements the transaction lifecycle orchestrators. Each
// service re-derives the aggregate from its event stream before deciding,
// appends at most the events its operation allows, and projects them into the
// read view.
package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pagopay/transactions-service/internal/application"
	"github.com/pagopay/transactions-service/internal/config"
	"github.com/pagopay/transactions-service/internal/domain"
	"github.com/pagopay/transactions-service/internal/infrastructure/nodo"
	"github.com/pagopay/transactions-service/internal/metrics"
)

// ActivationService registers a cart of payment notices with the central
// payment node and starts a new transaction stream.
type ActivationService struct {
	events  application.EventStore
	views   application.ViewStore
	cache   application.PaymentRequestCache
	nodo    nodo.Client
	keyGen  *IdempotencyKeyGenerator
	nodoCfg config.NodoConfig
	logger  *slog.Logger
}

func NewActivationService(
	events application.EventStore,
	views application.ViewStore,
	cache application.PaymentRequestCache,
	nodoClient nodo.Client,
	keyGen *IdempotencyKeyGenerator,
	nodoCfg config.NodoConfig,
	logger *slog.Logger,
) *ActivationService {
	return &ActivationService{
		events:  events,
		views:   views,
		cache:   cache,
		nodo:    nodoClient,
		keyGen:  keyGen,
		nodoCfg: nodoCfg,
		logger:  logger,
	}
}

// Activate runs one activation per notice in the cart, then appends a single
// TRANSACTION_ACTIVATED event carrying every payment token. Notices already
// holding a cached token skip the node call entirely.
func (s *ActivationService) Activate(ctx context.Context, cmd ActivateCommand) (*domain.Transaction, error) {
	if len(cmd.Notices) == 0 {
		return nil, domain.NewInvalidRequestError("activation requires at least one payment notice")
	}

	notices := make([]domain.PaymentNotice, 0, len(cmd.Notices))
	for _, req := range cmd.Notices {
		notice, err := s.activateNotice(ctx, req)
		if err != nil {
			metrics.ActivationsTotal.WithLabelValues("failure").Inc()
			return nil, err
		}
		notices = append(notices, notice)
	}

	txID := domain.TransactionID(uuid.New().String())
	ev := domain.ActivatedEvent{
		BaseEvent: domain.NewBaseEvent(txID),
		Email:     cmd.Email,
		ClientID:  cmd.ClientID,
		Notices:   notices,
	}
	if err := s.events.Append(ctx, ev); err != nil {
		s.logger.Error("failed to append activation event", "transaction_id", txID, "error", err)
		return nil, application.NewInternalError(err)
	}
	project(ctx, s.views, s.logger, ev)

	metrics.ActivationsTotal.WithLabelValues("success").Inc()
	s.logger.Info("transaction activated",
		"transaction_id", txID,
		"notices", len(notices),
		"client_id", cmd.ClientID)

	return domain.Reduce([]domain.Event{ev}), nil
}

func (s *ActivationService) activateNotice(ctx context.Context, req NoticeRequest) (domain.PaymentNotice, error) {
	notice, err := domain.NewPaymentNotice(req.RptID, req.Amount, req.Description, req.Transfers)
	if err != nil {
		return domain.PaymentNotice{}, domain.NewInvalidRequestError(err.Error())
	}

	info, err := s.cache.Get(ctx, req.RptID)
	if err != nil {
		// The cache is a hint, not the source of truth: a miss here at
		// worst costs one extra node call, deduplicated by the key.
		s.logger.Warn("payment request cache lookup failed", "rpt_id", req.RptID, "error", err)
		info = nil
	}
	if info != nil && info.PaymentToken != "" {
		s.logger.Info("reusing cached payment token", "rpt_id", req.RptID)
		notice.PaymentToken = info.PaymentToken
		return notice, nil
	}

	key := s.keyGen.Generate()
	if info != nil && info.IdempotencyKey != "" {
		key = info.IdempotencyKey
	} else {
		// Record the key before calling out so that a retry after a
		// failed or timed-out call presents the same key to the node.
		pending := &domain.PaymentRequestInfo{
			RptID:          req.RptID,
			PaFiscalCode:   paFiscalCode(req.RptID),
			Amount:         req.Amount,
			IdempotencyKey: key,
			CreatedAt:      time.Now(),
		}
		if err := s.cache.Put(ctx, req.RptID, pending); err != nil {
			s.logger.Warn("failed to cache idempotency key", "rpt_id", req.RptID, "error", err)
		}
	}

	resp, usedNM3, err := s.callActivate(ctx, req, key, info)
	if err != nil {
		return domain.PaymentNotice{}, err
	}
	if resp.PaymentToken == "" {
		return domain.PaymentNotice{}, domain.NewInvalidUpstreamResponseError("activation response is missing the payment token")
	}

	updated := &domain.PaymentRequestInfo{
		RptID:          req.RptID,
		PaFiscalCode:   paFiscalCode(req.RptID),
		PaName:         resp.PaName,
		Description:    resp.Description,
		Amount:         req.Amount,
		DueDate:        resp.DueDate,
		IsNM3:          usedNM3,
		PaymentToken:   resp.PaymentToken,
		IdempotencyKey: key,
		CreatedAt:      time.Now(),
	}
	if err := s.cache.Put(ctx, req.RptID, updated); err != nil {
		s.logger.Warn("failed to cache payment request info", "rpt_id", req.RptID, "error", err)
	}

	notice.PaymentToken = resp.PaymentToken
	if len(notice.Transfers) == 0 {
		notice.Transfers = transfersFromResponse(resp.Transfers)
	}
	return notice, nil
}

// callActivate picks the node protocol for the notice. NM3 is used directly
// when the cache marks the request as NM3 or the transfer splits fall under
// the postal-IBAN heuristic; otherwise the generic protocol is tried first
// and retried exactly once on NM3 when the node answers with the
// multi-beneficiary fault.
func (s *ActivationService) callActivate(ctx context.Context, req NoticeRequest, key string, info *domain.PaymentRequestInfo) (*nodo.ActivateResponse, bool, error) {
	allCCP := nodo.AllCCP(transferInfos(req.Transfers), s.nodoCfg.PostalIBANPrefixes)
	useNM3 := allCCP || (info != nil && info.IsNM3)

	if useNM3 {
		resp, err := s.nodo.ActivatePaymentNoticeNM3(ctx, nodo.ActivateNM3Request{
			RptID:          req.RptID,
			Amount:         req.Amount,
			PaFiscalCode:   paFiscalCode(req.RptID),
			IdempotencyKey: key,
			AllCCP:         allCCP,
		})
		if err != nil {
			return nil, true, s.mapNodoError(req.RptID, err)
		}
		return resp, true, nil
	}

	resp, err := s.nodo.ActivatePaymentNotice(ctx, nodo.ActivateRequest{
		RptID:          req.RptID,
		Amount:         req.Amount,
		PaFiscalCode:   paFiscalCode(req.RptID),
		IdempotencyKey: key,
	})
	if nodo.IsFaultCode(err, nodo.FaultMultiBeneficiary) {
		s.logger.Info("retrying activation on the NM3 protocol", "rpt_id", req.RptID)
		resp, err = s.nodo.ActivatePaymentNoticeNM3(ctx, nodo.ActivateNM3Request{
			RptID:          req.RptID,
			Amount:         req.Amount,
			PaFiscalCode:   paFiscalCode(req.RptID),
			IdempotencyKey: key,
			AllCCP:         allCCP,
		})
		if err != nil {
			return nil, true, s.mapNodoError(req.RptID, err)
		}
		return resp, true, nil
	}
	if err != nil {
		return nil, false, s.mapNodoError(req.RptID, err)
	}
	return resp, false, nil
}

func (s *ActivationService) mapNodoError(rptID string, err error) error {
	var fault *nodo.FaultError
	if errors.As(err, &fault) {
		s.logger.Warn("node rejected activation",
			"rpt_id", rptID,
			"fault_code", fault.FaultCode,
			"category", fault.Category())
		return application.NewUpstreamFaultError(fault.FaultCode, string(fault.Category()), err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return application.NewGatewayTimeoutError("nodo", err)
	}
	return application.NewBadGatewayError("nodo", err)
}

// paFiscalCode extracts the creditor institution fiscal code from an RPT id,
// which is the 11-digit fiscal code followed by the notice number.
func paFiscalCode(rptID string) string {
	if len(rptID) <= 11 {
		return rptID
	}
	return rptID[:11]
}

func transferInfos(transfers []domain.Transfer) []nodo.TransferInfo {
	out := make([]nodo.TransferInfo, 0, len(transfers))
	for _, tr := range transfers {
		out = append(out, nodo.TransferInfo{
			PaFiscalCode: tr.PaFiscalCode,
			Amount:       tr.Amount,
			Category:     tr.Category,
			IBAN:         tr.IBAN,
			DigitalStamp: tr.DigitalStamp,
		})
	}
	return out
}

func transfersFromResponse(transfers []nodo.TransferInfo) []domain.Transfer {
	out := make([]domain.Transfer, 0, len(transfers))
	for _, tr := range transfers {
		out = append(out, domain.Transfer{
			PaFiscalCode: tr.PaFiscalCode,
			Amount:       tr.Amount,
			Category:     tr.Category,
			IBAN:         tr.IBAN,
			DigitalStamp: tr.DigitalStamp,
		})
	}
	return out
}
