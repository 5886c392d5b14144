package handlers

import (
	"net/http"

	"github.com/pagopay/transactions-service/internal/application/services"
	"github.com/pagopay/transactions-service/internal/interfaces/rest"
)

func (h *Handlers) NewTransaction(w http.ResponseWriter, r *http.Request) {
	body, ok := decode[NewTransactionRequest](h, w, r)
	if !ok {
		return
	}

	cmd := services.ActivateCommand{
		Email:    body.Email,
		ClientID: body.ClientID,
	}
	for _, n := range body.PaymentNotices {
		cmd.Notices = append(cmd.Notices, services.NoticeRequest{
			RptID:       n.RptID,
			Amount:      n.Amount,
			Description: n.Description,
			Transfers:   toTransfers(n.Transfers),
		})
	}

	tx, err := h.activationService.Activate(r.Context(), cmd)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusCreated, toTransactionResponse(tx))
}
