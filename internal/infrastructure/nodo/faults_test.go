package nodo

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFaultError_Category(t *testing.T) {
	cases := []struct {
		code     string
		category FaultCategory
	}{
		{"PPT_DOMINIO_SCONOSCIUTO", CategoryConfiguration},
		{"PPT_SINTASSI_XSD", CategoryValidation},
		{FaultMultiBeneficiary, CategoryValidation},
		{"PPT_STAZIONE_INT_PA_IRRAGGIUNGIBILE", CategoryGateway},
		{"PPT_STAZIONE_INT_PA_TIMEOUT", CategoryTimeout},
		{"PAA_PAGAMENTO_DUPLICATO", CategoryPaymentStatus},
		{"PPT_SOMETHING_NEW", CategoryUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			err := &FaultError{FaultCode: tc.code}
			assert.Equal(t, tc.category, err.Category())
		})
	}
}

func TestIsFaultCode(t *testing.T) {
	fault := &FaultError{FaultCode: FaultMultiBeneficiary, Description: "multi beneficiary"}

	assert.True(t, IsFaultCode(fault, FaultMultiBeneficiary))
	assert.True(t, IsFaultCode(fmt.Errorf("activation: %w", fault), FaultMultiBeneficiary))
	assert.False(t, IsFaultCode(fault, "PPT_SEMANTICA"))
	assert.False(t, IsFaultCode(errors.New("plain"), FaultMultiBeneficiary))
	assert.False(t, IsFaultCode(nil, FaultMultiBeneficiary))
}

func TestAllCCP(t *testing.T) {
	prefixes := []string{"IT57P07601", "IT12Q07601"}

	postal := []TransferInfo{
		{IBAN: "IT57P076010325667388593822"},
		{IBAN: "IT12Q076010325667388593823"},
	}
	assert.True(t, AllCCP(postal, prefixes))

	mixed := []TransferInfo{
		{IBAN: "IT57P076010325667388593822"},
		{IBAN: "IT60X0542811101000000123456"},
	}
	assert.False(t, AllCCP(mixed, prefixes))

	// No transfers or no configured prefixes never match.
	assert.False(t, AllCCP(nil, prefixes))
	assert.False(t, AllCCP(postal, nil))

	// An IBAN shorter than the prefix cannot match.
	assert.False(t, AllCCP([]TransferInfo{{IBAN: "IT57"}}, prefixes))
}
