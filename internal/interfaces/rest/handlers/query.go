package handlers

import (
	"net/http"

	"github.com/pagopay/transactions-service/internal/interfaces/rest"
)

func (h *Handlers) GetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.queryService.GetTransaction(r.Context(), pathTransactionID(r))
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, toTransactionResponse(tx))
}
