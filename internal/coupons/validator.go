package coupons

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/marsos-sa/marketplace-backend/pkg/errors"
)

// Validator resolves a coupon code to its flat discount amount.
type Validator interface {
	Validate(ctx context.Context, code string) (decimal.Decimal, error)
}

// StaticValidator validates against a fixed code table. Campaign codes are
// flat SAR amounts applied once per supplier group.
type StaticValidator struct {
	codes map[string]decimal.Decimal
}

// NewStaticValidator builds the validator with the current campaign codes.
func NewStaticValidator() *StaticValidator {
	return &StaticValidator{
		codes: map[string]decimal.Decimal{
			"DISCOUNT10": decimal.NewFromInt(10),
			"SAVE20":     decimal.NewFromInt(20),
		},
	}
}

// Validate returns the discount for code. Codes compare case-sensitively;
// unknown codes fail validation and leave the cart discount at zero.
func (v *StaticValidator) Validate(_ context.Context, code string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	amount, ok := v.codes[trimmed]
	if !ok {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "invalid coupon code")
	}
	return amount, nil
}
