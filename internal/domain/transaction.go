// Package domain encodes the transaction aggregate, its event stream and the
// reducer that folds events into the current state.
package domain

import (
	"errors"
	"time"
)

// TransactionStatus represents the current state of a transaction in its lifecycle
type TransactionStatus string

const (
	StatusActivationRequested    TransactionStatus = "ACTIVATION_REQUESTED"
	StatusActivated              TransactionStatus = "ACTIVATED"
	StatusAuthorizationRequested TransactionStatus = "AUTHORIZATION_REQUESTED"
	StatusAuthorized             TransactionStatus = "AUTHORIZED"
	StatusAuthorizationFailed    TransactionStatus = "AUTHORIZATION_FAILED"
	StatusClosed                 TransactionStatus = "CLOSED"
	StatusClosureFailed          TransactionStatus = "CLOSURE_FAILED"
	StatusNotifiedOK             TransactionStatus = "NOTIFIED_OK"
	StatusNotifiedKO             TransactionStatus = "NOTIFIED_KO"
	StatusCanceled               TransactionStatus = "CANCELED"
	StatusExpired                TransactionStatus = "EXPIRED"
)

// IsTerminal reports whether no further lifecycle event is legal.
func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case StatusNotifiedOK, StatusNotifiedKO, StatusCanceled, StatusExpired:
		return true
	default:
		return false
	}
}

// IsPreClosure reports whether the transaction has not yet been reconciled
// with the payment node. Expiry is only legal from these states.
func (s TransactionStatus) IsPreClosure() bool {
	switch s {
	case StatusActivationRequested, StatusActivated, StatusAuthorizationRequested,
		StatusAuthorized, StatusAuthorizationFailed:
		return true
	default:
		return false
	}
}

type TransactionID string

// Transfer is one split of a payment notice towards a creditor institution.
type Transfer struct {
	PaFiscalCode string
	Amount       int64
	Category     string
	DigitalStamp bool
	IBAN         string
}

// PaymentNotice is one line item of a transaction cart.
type PaymentNotice struct {
	PaymentToken string
	RptID        string
	Amount       int64
	Description  string
	Transfers    []Transfer
}

// AuthorizationInfo is the data recorded when an authorization was requested
// from a payment gateway.
type AuthorizationInfo struct {
	Gateway         GatewayID
	Amount          int64
	Fee             int64
	RequestID       string
	PspID           string
	BrokerID        string
	ChannelID       string
	PaymentMethod   string
	PaymentTypeCode string
	RequestedAt     time.Time
	OutcomeTimeout  time.Duration
}

// AuthorizationResult is the canonical outcome of a gateway authorization.
type AuthorizationResult struct {
	Outcome           AuthorizationOutcome
	ErrorCode         string
	RRN               string
	AuthorizationCode string
	OperationAt       time.Time
}

type AuthorizationOutcome string

const (
	OutcomeOK AuthorizationOutcome = "OK"
	OutcomeKO AuthorizationOutcome = "KO"
)

// ClosureInfo records the result of the close-payment call to the node.
type ClosureInfo struct {
	NodeOutcome string
	SentAt      time.Time
}

// Transaction is the aggregate reconstructed by folding the event stream.
// A nil Transaction means no activation event was seen for the id.
type Transaction struct {
	ID        TransactionID
	Status    TransactionStatus
	Notices   []PaymentNotice
	Email     string
	ClientID  string
	CreatedAt time.Time

	Authorization   *AuthorizationInfo
	AuthResult      *AuthorizationResult
	Closure         *ClosureInfo
	RefundRequested bool
}

// TotalAmount is the sum of the cart's notice amounts, in minor currency units.
func (t *Transaction) TotalAmount() int64 {
	var total int64
	for _, n := range t.Notices {
		total += n.Amount
	}
	return total
}

// PaymentTokens returns the node payment tokens for every notice in the cart.
func (t *Transaction) PaymentTokens() []string {
	tokens := make([]string, 0, len(t.Notices))
	for _, n := range t.Notices {
		tokens = append(tokens, n.PaymentToken)
	}
	return tokens
}

// RptIDs returns the RPT identifier of every notice in the cart.
func (t *Transaction) RptIDs() []string {
	ids := make([]string, 0, len(t.Notices))
	for _, n := range t.Notices {
		ids = append(ids, n.RptID)
	}
	return ids
}

// NewPaymentNotice validates a cart line item. Transfer splits, when present,
// must sum to the notice amount.
func NewPaymentNotice(rptID string, amount int64, description string, transfers []Transfer) (PaymentNotice, error) {
	if rptID == "" {
		return PaymentNotice{}, errors.New("rpt id is required")
	}
	if amount <= 0 {
		return PaymentNotice{}, errors.New("notice amount must be positive")
	}
	if len(transfers) > 0 {
		var sum int64
		for _, tr := range transfers {
			sum += tr.Amount
		}
		if sum != amount {
			return PaymentNotice{}, errors.New("transfer amounts do not sum to notice amount")
		}
	}
	return PaymentNotice{
		RptID:       rptID,
		Amount:      amount,
		Description: description,
		Transfers:   transfers,
	}, nil
}

// PaymentRequestInfo is the idempotency-cache entry for a single RPT id. It is
// created on the first activation attempt with an empty token and overwritten
// once the node returns one; subsequent activations for the same RPT id reuse
// the token without a network call.
type PaymentRequestInfo struct {
	RptID          string
	PaFiscalCode   string
	PaName         string
	Description    string
	Amount         int64
	DueDate        string
	IsNM3          bool
	PaymentToken   string
	IdempotencyKey string
	CreatedAt      time.Time
}
