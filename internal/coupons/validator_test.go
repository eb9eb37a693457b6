package coupons

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/marsos-sa/marketplace-backend/pkg/errors"
)

func TestStaticValidator(t *testing.T) {
	t.Parallel()

	validator := NewStaticValidator()

	tests := []struct {
		name    string
		code    string
		want    string
		wantErr bool
	}{
		{name: "discount10", code: "DISCOUNT10", want: "10"},
		{name: "save20", code: "SAVE20", want: "20"},
		{name: "trims whitespace", code: "  SAVE20  ", want: "20"},
		{name: "case sensitive", code: "save20", wantErr: true},
		{name: "unknown", code: "WELCOME5", wantErr: true},
		{name: "empty", code: "", wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			amount, err := validator.Validate(context.Background(), tc.code)
			if tc.wantErr {
				if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
					t.Fatalf("expected validation error, got %v", err)
				}
				if !amount.IsZero() {
					t.Fatalf("rejected code must yield zero discount, got %s", amount)
				}
				return
			}
			if err != nil {
				t.Fatalf("validate: %v", err)
			}
			if !amount.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("amount = %s, want %s", amount, tc.want)
			}
		})
	}
}
