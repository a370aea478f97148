package policy

import (
	"testing"

	"procur/internal/config"
	"procur/internal/types"
)

func TestGuardrails_BankVerificationOnlyInProduction(t *testing.T) {
	vendor := testVendor() // no contact endpoints
	o := offer(1100, 12, types.PaymentNet30)

	sim := NewGuardrailService(config.Default())
	if alerts := sim.Check(vendor, o); len(alerts) != 0 {
		t.Fatalf("simulation mode alerts = %v, want none", alerts)
	}

	cfg := config.Default()
	cfg.RunMode = config.RunModeProduction
	prod := NewGuardrailService(cfg)
	alerts := prod.Check(vendor, o)
	if len(alerts) != 1 || alerts[0].Code != "missing_bank_verification" {
		t.Fatalf("production alerts = %v, want missing_bank_verification", alerts)
	}
	if alerts[0].Blocking {
		t.Fatal("bank verification alert must be non-blocking")
	}
}

func TestGuardrails_PriceOutlier(t *testing.T) {
	g := NewGuardrailService(config.Default())
	vendor := testVendor() // tier price at qty 100 is 1100

	// 30% of 1100 = 330; 1450 is within, 1500 is beyond.
	if alerts := g.Check(vendor, offer(1430, 12, types.PaymentNet30)); len(alerts) != 0 {
		t.Fatalf("within threshold alerts = %v", alerts)
	}
	alerts := g.Check(vendor, offer(1500, 12, types.PaymentNet30))
	if len(alerts) != 1 || alerts[0].Code != "price_outlier" {
		t.Fatalf("alerts = %v, want price_outlier", alerts)
	}
	if alerts[0].Blocking {
		t.Fatal("price outlier must be non-blocking")
	}
}

func TestGuardrails_DepositPolicy(t *testing.T) {
	g := NewGuardrailService(config.Default())
	vendor := testVendor()

	alerts := g.Check(vendor, offer(1100, 12, types.PaymentDeposit))
	if len(alerts) != 1 || alerts[0].Code != "deposit_terms_unverified" {
		t.Fatalf("alerts = %v, want deposit_terms_unverified", alerts)
	}
	if !alerts[0].Blocking {
		t.Fatal("deposit alert must block")
	}

	vendor.ContactEndpoints = map[string]string{"deposit_policy": "https://acme.example/deposits"}
	if alerts := g.Check(vendor, offer(1100, 12, types.PaymentDeposit)); len(alerts) != 0 {
		t.Fatalf("alerts with published policy = %v, want none", alerts)
	}
}

func TestHasBlocking(t *testing.T) {
	if HasBlocking([]Violation{{Blocking: false}}) {
		t.Fatal("non-blocking list reported blocking")
	}
	if !HasBlocking([]Violation{{Blocking: false}, {Blocking: true}}) {
		t.Fatal("blocking list not reported")
	}
}
