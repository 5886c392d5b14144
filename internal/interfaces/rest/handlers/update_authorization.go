package handlers

import (
	"net/http"

	"github.com/pagopay/transactions-service/internal/application/services"
	"github.com/pagopay/transactions-service/internal/domain"
	"github.com/pagopay/transactions-service/internal/infrastructure/gateway"
	"github.com/pagopay/transactions-service/internal/interfaces/rest"
)

func (h *Handlers) UpdateAuthorization(w http.ResponseWriter, r *http.Request) {
	body, ok := decode[UpdateAuthorizationRequest](h, w, r)
	if !ok {
		return
	}

	cmd := services.UpdateAuthorizationCommand{
		TransactionID: pathTransactionID(r),
		Outcome:       toOutcomeRequest(body),
	}

	tx, err := h.updateService.UpdateAuthorization(r.Context(), cmd)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func toOutcomeRequest(body *UpdateAuthorizationRequest) gateway.OutcomeRequest {
	switch domain.GatewayID(body.Gateway) {
	case domain.GatewayXPay:
		return gateway.XPayOutcome{
			Outcome:           body.Outcome,
			AuthorizationCode: body.AuthorizationCode,
			RRN:               body.RRN,
			OperationAt:       body.OperationAt,
		}
	case domain.GatewayVPos:
		return gateway.VPosOutcome{
			Status:            body.Status,
			ErrorCode:         body.ErrorCode,
			AuthorizationCode: body.AuthorizationCode,
			RRN:               body.RRN,
			OperationAt:       body.OperationAt,
		}
	case domain.GatewayNPG:
		return gateway.NPGOutcome{
			OperationResult:   body.OperationResult,
			OperationID:       body.OperationID,
			AuthorizationCode: body.AuthorizationCode,
			PaymentEndToEndID: body.PaymentEndToEndID,
			OperationAt:       body.OperationAt,
		}
	case domain.GatewayRedirect:
		return gateway.RedirectOutcome{
			Outcome:           body.Outcome,
			PspID:             body.PspID,
			PspTransactionID:  body.PspTransactionID,
			ErrorCode:         body.ErrorCode,
			AuthorizationCode: body.AuthorizationCode,
			RRN:               body.RRN,
			OperationAt:       body.OperationAt,
		}
	}
	return nil
}
