package handlers

import (
	"net/http"

	"github.com/pagopay/transactions-service/internal/application/services"
	"github.com/pagopay/transactions-service/internal/interfaces/rest"
)

func (h *Handlers) CancelTransaction(w http.ResponseWriter, r *http.Request) {
	cmd := services.CancelCommand{TransactionID: pathTransactionID(r)}

	tx, err := h.cancellationService.Cancel(r.Context(), cmd)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusAccepted, toTransactionResponse(tx))
}
