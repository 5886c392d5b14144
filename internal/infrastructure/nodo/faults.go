package nodo

import (
	"errors"
	"fmt"
)

// FaultCategory groups node fault codes for caller-side handling. Faults are
// business outcomes, not transport failures: they are never retried at this
// layer and never trip the circuit breaker.
type FaultCategory string

const (
	CategoryConfiguration FaultCategory = "CONFIGURATION"
	CategoryValidation    FaultCategory = "VALIDATION"
	CategoryGateway       FaultCategory = "GATEWAY"
	CategoryTimeout       FaultCategory = "TIMEOUT"
	CategoryPaymentStatus FaultCategory = "PAYMENT_STATUS"
	CategoryUnknown       FaultCategory = "UNKNOWN"
)

// FaultMultiBeneficiary is returned by the generic activation protocol when
// the notice needs the NM3 variant; callers retry once with NM3.
const FaultMultiBeneficiary = "PPT_MULTI_BENEFICIARIO"

var faultCategories = map[string]FaultCategory{
	"PPT_DOMINIO_SCONOSCIUTO":          CategoryConfiguration,
	"PPT_STAZIONE_INT_PA_SCONOSCIUTA":  CategoryConfiguration,
	"PPT_INTERMEDIARIO_PA_SCONOSCIUTO": CategoryConfiguration,
	"PPT_CANALE_SCONOSCIUTO":           CategoryConfiguration,
	"PPT_DOMINIO_DISABILITATO":         CategoryConfiguration,

	"PPT_SINTASSI_EXTRAXSD": CategoryValidation,
	"PPT_SINTASSI_XSD":      CategoryValidation,
	"PPT_AUTENTICAZIONE":    CategoryValidation,
	"PPT_AUTORIZZAZIONE":    CategoryValidation,
	"PPT_SEMANTICA":         CategoryValidation,
	FaultMultiBeneficiary:   CategoryValidation,

	"PPT_STAZIONE_INT_PA_IRRAGGIUNGIBILE":     CategoryGateway,
	"PPT_STAZIONE_INT_PA_SERVIZIO_NON_ATTIVO": CategoryGateway,
	"PPT_ERRORE_EMESSO_DA_PAA":                CategoryGateway,
	"PPT_IBAN_NON_CENSITO":                    CategoryGateway,

	"PPT_STAZIONE_INT_PA_TIMEOUT": CategoryTimeout,

	"PPT_PAGAMENTO_IN_CORSO":    CategoryPaymentStatus,
	"PPT_PAGAMENTO_DUPLICATO":   CategoryPaymentStatus,
	"PAA_PAGAMENTO_IN_CORSO":    CategoryPaymentStatus,
	"PAA_PAGAMENTO_DUPLICATO":   CategoryPaymentStatus,
	"PAA_PAGAMENTO_SCADUTO":     CategoryPaymentStatus,
	"PAA_PAGAMENTO_ANNULLATO":   CategoryPaymentStatus,
	"PAA_PAGAMENTO_SCONOSCIUTO": CategoryPaymentStatus,
}

// FaultError is a business fault reported by the node in an otherwise valid
// response envelope.
type FaultError struct {
	FaultCode   string
	Description string
}

type faultResponse struct {
	FaultCode   string `json:"faultCode"`
	Description string `json:"description"`
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("nodo fault [%s]: %s", e.FaultCode, e.Description)
}

// Category maps the fault code onto its handling category.
func (e *FaultError) Category() FaultCategory {
	if c, ok := faultCategories[e.FaultCode]; ok {
		return c
	}
	return CategoryUnknown
}

func IsFaultError(err error) (*FaultError, bool) {
	var faultErr *FaultError
	ok := errors.As(err, &faultErr)
	return faultErr, ok
}

// IsFaultCode reports whether err is a node fault with the given code.
func IsFaultCode(err error, code string) bool {
	faultErr, ok := IsFaultError(err)
	return ok && faultErr.FaultCode == code
}
