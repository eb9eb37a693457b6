package types

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestFlexibleMaxUnmarshal(t *testing.T) {
	t.Parallel()

	var m FlexibleMax
	if err := json.Unmarshal([]byte(`25`), &m); err != nil {
		t.Fatalf("numeric max: %v", err)
	}
	if m.Unbounded || m.Value != 25 {
		t.Fatalf("expected bounded 25, got %+v", m)
	}

	if err := json.Unmarshal([]byte(`"Unlimited"`), &m); err != nil {
		t.Fatalf("unlimited max: %v", err)
	}
	if !m.Unbounded {
		t.Fatalf("expected unbounded, got %+v", m)
	}

	if err := json.Unmarshal([]byte(`null`), &m); err != nil {
		t.Fatalf("null max: %v", err)
	}
	if !m.Unbounded {
		t.Fatalf("expected null to mean unbounded, got %+v", m)
	}

	if err := json.Unmarshal([]byte(`"lots"`), &m); err == nil {
		t.Fatal("expected error for unrecognized string bound")
	}
}

func TestPriceTierMatches(t *testing.T) {
	t.Parallel()

	bounded := PriceTier{MinQty: 10, MaxQty: FlexibleMax{Value: 49}}
	if bounded.Matches(9) {
		t.Fatal("qty below min should not match")
	}
	if !bounded.Matches(10) || !bounded.Matches(49) {
		t.Fatal("boundary quantities should match")
	}
	if bounded.Matches(50) {
		t.Fatal("qty above max should not match")
	}

	open := PriceTier{MinQty: 50, MaxQty: FlexibleMax{Unbounded: true}}
	if !open.Matches(5000) {
		t.Fatal("unbounded tier should match any qty at or above min")
	}
}

func TestPriceTierShippingFor(t *testing.T) {
	t.Parallel()

	tier := PriceTier{
		Locations: []TierLocation{
			{Location: " Riyadh ", Price: decimal.NewFromInt(10)},
			{Location: "Jeddah", Price: decimal.NewFromInt(25)},
		},
	}

	if got := tier.ShippingFor("riyadh"); !got.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected 10 for riyadh, got %s", got)
	}
	if got := tier.ShippingFor("JEDDAH "); !got.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("expected 25 for jeddah, got %s", got)
	}
	if got := tier.ShippingFor("Dammam"); !got.IsZero() {
		t.Fatalf("expected zero for unpriced location, got %s", got)
	}
	if got := tier.ShippingFor(""); !got.IsZero() {
		t.Fatalf("expected zero for empty location, got %s", got)
	}
}
