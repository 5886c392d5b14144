package gateway

import (
	"time"

	"github.com/pagopay/transactions-service/internal/domain"
)

// OutcomeRequest is a gateway callback payload. Each family speaks its own
// outcome vocabulary; normalization to the canonical OK/KO happens in the
// outcome validator.
type OutcomeRequest interface {
	Family() domain.GatewayID
}

type XPayOutcome struct {
	Outcome           string
	AuthorizationCode string
	RRN               string
	OperationAt       time.Time
}

func (XPayOutcome) Family() domain.GatewayID { return domain.GatewayXPay }

type VPosOutcome struct {
	Status            string
	ErrorCode         string
	AuthorizationCode string
	RRN               string
	OperationAt       time.Time
}

func (VPosOutcome) Family() domain.GatewayID { return domain.GatewayVPos }

type NPGOutcome struct {
	OperationResult   string
	OperationID       string
	AuthorizationCode string
	PaymentEndToEndID string
	OperationAt       time.Time
}

func (NPGOutcome) Family() domain.GatewayID { return domain.GatewayNPG }

// RedirectOutcome arrives out of band: the PSP identity and transaction id it
// claims are checked against the values recorded at request time.
type RedirectOutcome struct {
	Outcome           string
	PspID             string
	PspTransactionID  string
	ErrorCode         string
	AuthorizationCode string
	RRN               string
	OperationAt       time.Time
}

func (RedirectOutcome) Family() domain.GatewayID { return domain.GatewayRedirect }
