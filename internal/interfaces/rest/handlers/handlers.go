// Package handlers exposes the transaction lifecycle over HTTP.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator"

	"github.com/pagopay/transactions-service/internal/application"
	"github.com/pagopay/transactions-service/internal/application/services"
	"github.com/pagopay/transactions-service/internal/domain"
	"github.com/pagopay/transactions-service/internal/interfaces/rest"
)

type Handlers struct {
	activationService    *services.ActivationService
	authorizationService *services.AuthorizationService
	updateService        *services.UpdateAuthorizationService
	closureService       *services.ClosureService
	cancellationService  *services.CancellationService
	receiptService       *services.UserReceiptService
	queryService         *services.QueryService
	sessions             application.SessionRegistry
	validate             *validator.Validate
	logger               *slog.Logger
}

func NewHandlers(
	activationService *services.ActivationService,
	authorizationService *services.AuthorizationService,
	updateService *services.UpdateAuthorizationService,
	closureService *services.ClosureService,
	cancellationService *services.CancellationService,
	receiptService *services.UserReceiptService,
	queryService *services.QueryService,
	sessions application.SessionRegistry,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		activationService:    activationService,
		authorizationService: authorizationService,
		updateService:        updateService,
		closureService:       closureService,
		cancellationService:  cancellationService,
		receiptService:       receiptService,
		queryService:         queryService,
		sessions:             sessions,
		validate:             validator.New(),
		logger:               logger,
	}
}

// Register wires every lifecycle route onto the mux.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /transactions", h.NewTransaction)
	mux.HandleFunc("GET /transactions/{id}", h.GetTransaction)
	mux.HandleFunc("DELETE /transactions/{id}", h.CancelTransaction)
	mux.HandleFunc("POST /transactions/{id}/authorization-requests", h.RequestAuthorization)
	mux.HandleFunc("PATCH /transactions/{id}/authorization-requests", h.UpdateAuthorization)
	mux.HandleFunc("POST /transactions/{id}/closures", h.CloseTransaction)
	mux.HandleFunc("POST /transactions/{id}/user-receipts", h.AddUserReceipt)
	mux.HandleFunc("PATCH /npg/sessions/{orderId}", h.NPGSessionOutcome)
}

// decode unmarshals and validates a request body. A failure is already
// written to the response; the caller just returns.
func decode[T any](h *Handlers, w http.ResponseWriter, r *http.Request) (*T, bool) {
	var body T
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		rest.WriteError(w, domain.NewInvalidRequestError("malformed request body"), h.logger)
		return nil, false
	}
	if err := h.validate.Struct(&body); err != nil {
		rest.WriteError(w, domain.NewInvalidRequestError(err.Error()), h.logger)
		return nil, false
	}
	return &body, true
}

func pathTransactionID(r *http.Request) domain.TransactionID {
	return domain.TransactionID(r.PathValue("id"))
}
