// Package gateway holds the clients for the supported payment gateway
// families and the eligibility predicates used to pick exactly one of them
// per authorization request.
package gateway

import (
	"context"

	"github.com/pagopay/transactions-service/internal/domain"
)

// AuthorizationDetails is the gateway-specific part of an authorization
// command: card data, wallet order id, redirect routing info, or a plain APM
// payment type.
type AuthorizationDetails interface {
	DetailType() string
}

type CardDetails struct {
	Pan        string
	CVV        string
	ExpiryDate string
	HolderName string
}

func (CardDetails) DetailType() string { return "card" }

// WalletDetails carries an NPG order id previously negotiated with the hosted
// gateway. Dispatching on these details also requires linking the order id to
// the transaction in the session registry before any event is appended.
type WalletDetails struct {
	OrderID string
}

func (WalletDetails) DetailType() string { return "wallet" }

type RedirectDetails struct {
	PspTransactionID string
}

func (RedirectDetails) DetailType() string { return "redirect" }

type ApmDetails struct{}

func (ApmDetails) DetailType() string { return "apm" }

// AuthRequest is the gateway-neutral authorization request. GatewayHint is set
// when the caller picked a gateway explicitly; otherwise selection is by
// payment type code and detail variant.
type AuthRequest struct {
	TransactionID   domain.TransactionID
	Amount          int64
	Fee             int64
	Description     string
	Language        string
	PspID           string
	PaymentTypeCode string
	GatewayHint     domain.GatewayID
	Details         AuthorizationDetails
}

// AuthResponse is the gateway's acknowledgement: an opaque request id plus
// either a redirect URL or an operation reference for the caller to follow.
type AuthResponse struct {
	RequestID    string
	RedirectURL  string
	OperationRef string
}

// Client is one gateway family. Eligible must be side-effect free: the
// dispatcher checks candidates in priority order and only the first eligible
// one may perform network I/O.
type Client interface {
	ID() domain.GatewayID
	Eligible(req AuthRequest) bool
	RequestAuthorization(ctx context.Context, req AuthRequest) (*AuthResponse, error)
}
