package engine

import (
	"math"
	"testing"

	"procur/internal/types"
)

func TestPVDiscountFraction(t *testing.T) {
	// 30 days earlier at 12% annual, daily compounding.
	got := PVDiscountFraction(30, 0.12)
	want := 1 - math.Pow(1+0.12/365, -30)
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("pv = %v, want %v", got, want)
	}
	if PVDiscountFraction(0, 0.12) != 0 {
		t.Fatal("zero day delta should have zero discount")
	}
	if PVDiscountFraction(30, 0) != 0 {
		t.Fatal("zero rate should have zero discount")
	}
	if PVDiscountFraction(60, 0.12) <= PVDiscountFraction(30, 0.12) {
		t.Fatal("pv discount should grow with day delta")
	}
}

func TestTermTradeDiscount_ProRates(t *testing.T) {
	policy := types.ExchangePolicy{TermTrade: map[int]float64{12: 0.06}}
	if d := termTradeDiscount(policy, 12); d != 0.06 {
		t.Fatalf("exact entry = %v, want 0.06", d)
	}
	if d := termTradeDiscount(policy, 6); math.Abs(d-0.03) > 1e-12 {
		t.Fatalf("pro-rated = %v, want 0.03", d)
	}
	if d := termTradeDiscount(policy, 0); d != 0 {
		t.Fatal("no added months, no discount")
	}
}

func TestEnforceExchange_TermExtensionPaysDiscount(t *testing.T) {
	vendor := testVendor()
	prev := types.OfferComponents{UnitPrice: 1020, Quantity: 100, TermMonths: 12, PaymentTerms: types.PaymentNet30}
	cur := types.OfferComponents{UnitPrice: 1020, Quantity: 100, TermMonths: 24, PaymentTerms: types.PaymentNet30}

	out, notes := EnforceExchange(prev, cur, vendor, 0.12)
	want := types.Round2(1020 * 0.95) // term_trade[12] = 5%
	if out.UnitPrice != want {
		t.Fatalf("price = %.2f, want %.2f", out.UnitPrice, want)
	}
	if len(notes) == 0 {
		t.Fatal("expected an adjustment note")
	}
}

func TestEnforceExchange_FasterPaymentTakesLargerOfPolicyAndPV(t *testing.T) {
	vendor := testVendor()
	prev := types.OfferComponents{UnitPrice: 1000, Quantity: 100, TermMonths: 12, PaymentTerms: types.PaymentNet45}
	cur := types.OfferComponents{UnitPrice: 1000, Quantity: 100, TermMonths: 12, PaymentTerms: types.PaymentNet15}

	// Policy delta Net45 -> Net15 is 0.02 - (-0.01) = 0.03; PV over 30 days at
	// 12% is under 1%, so the policy delta wins.
	out, _ := EnforceExchange(prev, cur, vendor, 0.12)
	want := types.Round2(1000 * 0.97)
	if out.UnitPrice != want {
		t.Fatalf("price = %.2f, want %.2f", out.UnitPrice, want)
	}
}

func TestEnforceExchange_SlowerPaymentPremiumCapped(t *testing.T) {
	vendor := testVendor()
	prev := types.OfferComponents{UnitPrice: 1000, Quantity: 100, TermMonths: 12, PaymentTerms: types.PaymentNet15}
	cur := types.OfferComponents{UnitPrice: 1100, Quantity: 100, TermMonths: 12, PaymentTerms: types.PaymentNet45}

	// Offset delta 0.02 - (-0.01) = 0.03 caps the premium at 1030.
	out, _ := EnforceExchange(prev, cur, vendor, 0.12)
	if out.UnitPrice != 1030 {
		t.Fatalf("price = %.2f, want 1030.00", out.UnitPrice)
	}
}

func TestEnforceExchange_FloorClamp(t *testing.T) {
	vendor := testVendor()
	prev := types.OfferComponents{UnitPrice: 920, Quantity: 100, TermMonths: 12, PaymentTerms: types.PaymentNet30}
	cur := types.OfferComponents{UnitPrice: 880, Quantity: 100, TermMonths: 12, PaymentTerms: types.PaymentNet30}

	out, notes := EnforceExchange(prev, cur, vendor, 0.12)
	if out.UnitPrice != 900 {
		t.Fatalf("price = %.2f, want floor 900.00", out.UnitPrice)
	}
	if len(notes) == 0 {
		t.Fatal("floor clamp should be noted")
	}
}

func TestEnforceExchange_NoLeverMoveNoChange(t *testing.T) {
	vendor := testVendor()
	prev := types.OfferComponents{UnitPrice: 1100, Quantity: 100, TermMonths: 12, PaymentTerms: types.PaymentNet30}
	cur := types.OfferComponents{UnitPrice: 1050, Quantity: 100, TermMonths: 12, PaymentTerms: types.PaymentNet30}

	out, notes := EnforceExchange(prev, cur, vendor, 0.12)
	if out.UnitPrice != 1050 || len(notes) != 0 {
		t.Fatalf("plain price move should pass through, got %.2f notes %v", out.UnitPrice, notes)
	}
}

func TestEnforceDiversity(t *testing.T) {
	last := types.OfferComponents{UnitPrice: 1000, Quantity: 100, TermMonths: 12, PaymentTerms: types.PaymentNet30}
	same := types.OfferComponents{UnitPrice: 1002, Quantity: 100, TermMonths: 12, PaymentTerms: types.PaymentNet30}

	out, forced := EnforceDiversity(same, &last, 900)
	if !forced {
		t.Fatal("parroted bundle should be forced apart")
	}
	if out.UnitPrice != 985 {
		t.Fatalf("forced price = %.2f, want 985.00", out.UnitPrice)
	}

	different := types.OfferComponents{UnitPrice: 950, Quantity: 100, TermMonths: 12, PaymentTerms: types.PaymentNet30}
	if _, forced := EnforceDiversity(different, &last, 900); forced {
		t.Fatal("distinct bundle should pass through")
	}
}

func TestNormalizeBuyerPrice(t *testing.T) {
	prev := types.OfferComponents{UnitPrice: 1000, Quantity: 100, TermMonths: 12, PaymentTerms: types.PaymentNet30}
	jump := types.OfferComponents{UnitPrice: 1100, Quantity: 100, TermMonths: 12, PaymentTerms: types.PaymentNet30}

	out := NormalizeBuyerPrice(jump, &prev, StrategyPricePressure, 10)
	if out.UnitPrice != 1010 {
		t.Fatalf("price = %.2f, want 1010.00", out.UnitPrice)
	}

	// Lever trades may re-price upward.
	out = NormalizeBuyerPrice(jump, &prev, StrategyTermTrade, 10)
	if out.UnitPrice != 1100 {
		t.Fatalf("term trade price = %.2f, want 1100.00 untouched", out.UnitPrice)
	}

	if out := NormalizeBuyerPrice(jump, nil, StrategyPricePressure, 10); out.UnitPrice != 1100 {
		t.Fatal("first offer has no previous to normalize against")
	}
}
