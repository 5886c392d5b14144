package nodo

import "time"

// ActivateRequest is the generic-protocol activation call. The idempotency key
// makes a retried call safe: the node deduplicates on it.
type ActivateRequest struct {
	RptID          string `json:"rptId"`
	Amount         int64  `json:"amount"`
	PaFiscalCode   string `json:"paFiscalCode"`
	IdempotencyKey string `json:"idempotencyKey"`
	ExpirationTime int64  `json:"expirationTime,omitempty"`
}

// ActivateNM3Request is the activation call for the NM3 protocol variant,
// used for multi-beneficiary and QR-originated payment requests.
type ActivateNM3Request struct {
	RptID          string `json:"rptId"`
	Amount         int64  `json:"amount"`
	PaFiscalCode   string `json:"paFiscalCode"`
	IdempotencyKey string `json:"idempotencyKey"`
	AllCCP         bool   `json:"allCCP"`
	ExpirationTime int64  `json:"expirationTime,omitempty"`
}

type ActivateResponse struct {
	PaymentToken string         `json:"paymentToken"`
	TotalAmount  int64          `json:"totalAmount"`
	PaName       string         `json:"paName"`
	Description  string         `json:"description"`
	DueDate      string         `json:"dueDate"`
	Transfers    []TransferInfo `json:"transferList"`
}

type TransferInfo struct {
	PaFiscalCode string `json:"paFiscalCode"`
	Amount       int64  `json:"transferAmount"`
	Category     string `json:"transferCategory"`
	IBAN         string `json:"iban"`
	DigitalStamp bool   `json:"digitalStamp"`
}

// ClosePaymentRequest settles an authorized transaction with the node. The
// total amount is fee inclusive; identity fields come from the authorization
// request event.
type ClosePaymentRequest struct {
	PaymentTokens     []string  `json:"paymentTokens"`
	Outcome           string    `json:"outcome"`
	TotalAmount       int64     `json:"totalAmount"`
	Fee               int64     `json:"fee"`
	PspID             string    `json:"idPSP"`
	BrokerID          string    `json:"idBrokerPSP"`
	ChannelID         string    `json:"idChannel"`
	PaymentMethod     string    `json:"paymentMethod"`
	Timestamp         time.Time `json:"timestampOperation"`
	AuthorizationCode string    `json:"authorizationCode,omitempty"`
	GatewayOutcome    string    `json:"gatewayOutcome,omitempty"`
}

type ClosePaymentResponse struct {
	Outcome string `json:"outcome"`
}

const (
	OutcomeOK = "OK"
	OutcomeKO = "KO"
)
