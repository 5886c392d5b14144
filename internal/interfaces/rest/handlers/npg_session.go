package handlers

import (
	"net/http"

	"github.com/pagopay/transactions-service/internal/application/services"
	"github.com/pagopay/transactions-service/internal/domain"
	"github.com/pagopay/transactions-service/internal/infrastructure/gateway"
	"github.com/pagopay/transactions-service/internal/interfaces/rest"
)

// NPGSessionOutcome handles the hosted-gateway webhook. NPG addresses the
// callback by the order id it negotiated, so the transaction is looked up
// through the wallet session registry before the outcome is validated.
func (h *Handlers) NPGSessionOutcome(w http.ResponseWriter, r *http.Request) {
	body, ok := decode[NPGSessionOutcomeRequest](h, w, r)
	if !ok {
		return
	}

	orderID := r.PathValue("orderId")
	txID, err := h.sessions.Resolve(r.Context(), orderID)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	if txID == "" {
		rest.WriteError(w, domain.NewTransactionNotFoundError(orderID), h.logger)
		return
	}

	cmd := services.UpdateAuthorizationCommand{
		TransactionID: txID,
		Outcome: gateway.NPGOutcome{
			OperationResult:   body.OperationResult,
			OperationID:       body.OperationID,
			AuthorizationCode: body.AuthorizationCode,
			PaymentEndToEndID: body.PaymentEndToEndID,
			OperationAt:       body.OperationAt,
		},
	}

	tx, err := h.updateService.UpdateAuthorization(r.Context(), cmd)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, toTransactionResponse(tx))
}
