package services

import (
	"fmt"

	"github.com/jaevor/go-nanoid"
)

const keyTokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

const keyTokenLength = 10

// IdempotencyKeyGenerator produces node idempotency keys in the form
// <pspFiscalCode>_<token>, where token is a 10 character alphanumeric string.
// The node uses the key to deduplicate activation attempts, so a key minted
// for a payment notice must be reused verbatim on every retry for it.
type IdempotencyKeyGenerator struct {
	pspFiscalCode string
	newToken      func() string
}

func NewIdempotencyKeyGenerator(pspFiscalCode string) (*IdempotencyKeyGenerator, error) {
	gen, err := nanoid.CustomASCII(keyTokenAlphabet, keyTokenLength)
	if err != nil {
		return nil, fmt.Errorf("building idempotency token generator: %w", err)
	}
	return &IdempotencyKeyGenerator{pspFiscalCode: pspFiscalCode, newToken: gen}, nil
}

// NewIdempotencyKeyGeneratorWithSource injects the token source. Tests use it
// to make generated keys deterministic.
func NewIdempotencyKeyGeneratorWithSource(pspFiscalCode string, newToken func() string) *IdempotencyKeyGenerator {
	return &IdempotencyKeyGenerator{pspFiscalCode: pspFiscalCode, newToken: newToken}
}

func (g *IdempotencyKeyGenerator) Generate() string {
	return g.pspFiscalCode + "_" + g.newToken()
}
