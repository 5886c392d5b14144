package handlers

import (
	"net/http"

	"github.com/pagopay/transactions-service/internal/application/services"
	"github.com/pagopay/transactions-service/internal/interfaces/rest"
)

func (h *Handlers) CloseTransaction(w http.ResponseWriter, r *http.Request) {
	cmd := services.CloseCommand{TransactionID: pathTransactionID(r)}

	tx, err := h.closureService.Close(r.Context(), cmd)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, toTransactionResponse(tx))
}
