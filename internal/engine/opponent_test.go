package engine

import (
	"testing"

	"procur/internal/types"
)

func TestSeedOpponentModel(t *testing.T) {
	m := SeedOpponentModel(testVendor(), 1020)
	if m.PriceFloorEstimate != 810 {
		t.Fatalf("floor estimate = %.2f, want 810.00 (90%% of floor)", m.PriceFloorEstimate)
	}
	if m.PriceCeilingEstimate != 1122 {
		t.Fatalf("ceiling estimate = %.2f, want 1122.00 (110%% of anchor)", m.PriceCeilingEstimate)
	}
	if m.PriceElasticity != 0.5 || m.TermElasticity != 0.5 {
		t.Fatalf("elasticities = %.2f/%.2f, want 0.5/0.5", m.PriceElasticity, m.TermElasticity)
	}
}

func move(price float64, term int) types.OfferComponents {
	return types.OfferComponents{UnitPrice: price, Quantity: 100, TermMonths: term, PaymentTerms: types.PaymentNet30}
}

func TestUpdateOpponentModel_HeldPriceTightensFloor(t *testing.T) {
	m := SeedOpponentModel(testVendor(), 1020)
	UpdateOpponentModel(&m, move(1150, 12))
	UpdateOpponentModel(&m, move(1148, 12)) // under the 5.00 move epsilon

	if m.ConsecutiveNoPriceMoves != 1 {
		t.Fatalf("no-price-moves = %d, want 1", m.ConsecutiveNoPriceMoves)
	}
	if m.PriceFloorEstimate != 1123 {
		t.Fatalf("floor estimate = %.2f, want 1123.00 (held price minus 25)", m.PriceFloorEstimate)
	}
	if m.PriceElasticity != 0.4 {
		t.Fatalf("price elasticity = %.2f, want 0.4", m.PriceElasticity)
	}
}

func TestUpdateOpponentModel_RealMoveLowersCeiling(t *testing.T) {
	m := SeedOpponentModel(testVendor(), 1020)
	UpdateOpponentModel(&m, move(1150, 12))
	UpdateOpponentModel(&m, move(1100, 12))

	if m.ConsecutiveNoPriceMoves != 0 {
		t.Fatalf("no-price-moves = %d, want 0 after a real move", m.ConsecutiveNoPriceMoves)
	}
	if m.PriceCeilingEstimate != 1100 {
		t.Fatalf("ceiling = %.2f, want 1100.00", m.PriceCeilingEstimate)
	}
	if m.PriceElasticity != 0.6 {
		t.Fatalf("price elasticity = %.2f, want 0.6", m.PriceElasticity)
	}
}

func TestUpdateOpponentModel_TermChangeBumpsTermElasticity(t *testing.T) {
	m := SeedOpponentModel(testVendor(), 1020)
	UpdateOpponentModel(&m, move(1150, 12))
	UpdateOpponentModel(&m, move(1100, 24))
	if m.TermElasticity != 0.6 {
		t.Fatalf("term elasticity = %.2f, want 0.6", m.TermElasticity)
	}
}

func TestUpdateOpponentModel_ElasticityBounds(t *testing.T) {
	m := SeedOpponentModel(testVendor(), 1020)
	UpdateOpponentModel(&m, move(1150, 12))
	for i := 0; i < 10; i++ {
		UpdateOpponentModel(&m, move(1150, 12))
	}
	if m.PriceElasticity != 0.1 {
		t.Fatalf("price elasticity = %.2f, want clamp at 0.1", m.PriceElasticity)
	}
}

func TestAcceptanceProbability(t *testing.T) {
	strong := AcceptanceProbability(1.0, 1.0, 1.0, 0)
	weak := AcceptanceProbability(0.1, 0.1, 0.1, 0)
	if strong <= weak {
		t.Fatalf("strong fit %.3f should beat weak fit %.3f", strong, weak)
	}
	if strong <= 0.8 {
		t.Fatalf("full fit probability = %.3f, want > 0.8", strong)
	}
	if weak >= 0.1 {
		t.Fatalf("weak fit probability = %.3f, want < 0.1", weak)
	}

	early := AcceptanceProbability(0.9, 0.5, 0.5, 1)
	late := AcceptanceProbability(0.9, 0.5, 0.5, 7)
	if late >= early {
		t.Fatalf("round fatigue should lower probability: round 7 %.3f vs round 1 %.3f", late, early)
	}
}
