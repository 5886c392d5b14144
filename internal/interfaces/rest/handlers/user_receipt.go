package handlers

import (
	"net/http"

	"github.com/pagopay/transactions-service/internal/application/services"
	"github.com/pagopay/transactions-service/internal/domain"
	"github.com/pagopay/transactions-service/internal/interfaces/rest"
)

func (h *Handlers) AddUserReceipt(w http.ResponseWriter, r *http.Request) {
	body, ok := decode[UserReceiptRequest](h, w, r)
	if !ok {
		return
	}

	cmd := services.NotifyCommand{
		TransactionID: pathTransactionID(r),
		Outcome:       domain.AuthorizationOutcome(body.Outcome),
	}

	tx, err := h.receiptService.AddUserReceipt(r.Context(), cmd)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, toTransactionResponse(tx))
}
