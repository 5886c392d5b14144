package services

import (
	"github.com/pagopay/transactions-service/internal/domain"
	"github.com/pagopay/transactions-service/internal/infrastructure/gateway"
)

// NoticeRequest is one cart line of an activation command. Transfers, when
// supplied by the verification step at the edge, feed the multi-beneficiary
// detection heuristic.
type NoticeRequest struct {
	RptID       string
	Amount      int64
	Description string
	Transfers   []domain.Transfer
}

type ActivateCommand struct {
	Notices  []NoticeRequest
	Email    string
	ClientID string
}

type AuthorizeCommand struct {
	TransactionID   domain.TransactionID
	Fee             int64
	PspID           string
	PaymentMethod   string
	PaymentTypeCode string
	Language        string
	GatewayHint     domain.GatewayID
	Details         gateway.AuthorizationDetails
}

type UpdateAuthorizationCommand struct {
	TransactionID domain.TransactionID
	Outcome       gateway.OutcomeRequest
}

type CloseCommand struct {
	TransactionID domain.TransactionID
}

type CancelCommand struct {
	TransactionID domain.TransactionID
}

type NotifyCommand struct {
	TransactionID domain.TransactionID
	Outcome       domain.AuthorizationOutcome
}

// AuthorizeResult carries what the caller needs to continue the flow on the
// gateway side.
type AuthorizeResult struct {
	TransactionID domain.TransactionID
	Gateway       domain.GatewayID
	RequestID     string
	RedirectURL   string
}
