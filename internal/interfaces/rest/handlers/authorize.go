package handlers

import (
	"net/http"

	"github.com/pagopay/transactions-service/internal/application/services"
	"github.com/pagopay/transactions-service/internal/domain"
	"github.com/pagopay/transactions-service/internal/infrastructure/gateway"
	"github.com/pagopay/transactions-service/internal/interfaces/rest"
)

func (h *Handlers) RequestAuthorization(w http.ResponseWriter, r *http.Request) {
	body, ok := decode[AuthorizationRequest](h, w, r)
	if !ok {
		return
	}

	details, err := toAuthorizationDetails(body.Details)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	cmd := services.AuthorizeCommand{
		TransactionID:   pathTransactionID(r),
		Fee:             body.Fee,
		PspID:           body.PspID,
		PaymentMethod:   body.PaymentMethod,
		PaymentTypeCode: body.PaymentTypeCode,
		Language:        body.Language,
		GatewayHint:     domain.GatewayID(body.Gateway),
		Details:         details,
	}

	result, err := h.authorizationService.RequestAuthorization(r.Context(), cmd)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, map[string]any{
		"transaction_id": string(result.TransactionID),
		"gateway":        string(result.Gateway),
		"request_id":     result.RequestID,
		"redirect_url":   result.RedirectURL,
	})
}

func toAuthorizationDetails(data *AuthorizationData) (gateway.AuthorizationDetails, error) {
	switch data.Type {
	case "card":
		if data.Pan == "" || data.CVV == "" || data.ExpiryDate == "" {
			return nil, domain.NewInvalidRequestError("card details require pan, cvv and expiry_date")
		}
		return gateway.CardDetails{
			Pan:        data.Pan,
			CVV:        data.CVV,
			ExpiryDate: data.ExpiryDate,
			HolderName: data.HolderName,
		}, nil
	case "wallet":
		if data.OrderID == "" {
			return nil, domain.NewInvalidRequestError("wallet details require order_id")
		}
		return gateway.WalletDetails{OrderID: data.OrderID}, nil
	case "redirect":
		return gateway.RedirectDetails{PspTransactionID: data.PspTransactionID}, nil
	case "apm":
		return gateway.ApmDetails{}, nil
	}
	return nil, domain.NewInvalidRequestError("unknown authorization detail type")
}
