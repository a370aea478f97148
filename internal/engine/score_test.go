package engine

import (
	"math"
	"testing"

	"procur/internal/config"
	"procur/internal/policy"
	"procur/internal/types"
)

func almost(got, want float64) bool {
	return math.Abs(got-want) < 1e-9
}

func TestRiskScore(t *testing.T) {
	v := testVendor()
	if got := riskScore(v, nil); got != 0.2 {
		t.Fatalf("low risk = %v, want 0.2", got)
	}

	v.RiskLevel = types.RiskHigh
	if got := riskScore(v, nil); got != 0.8 {
		t.Fatalf("high risk = %v, want 0.8", got)
	}

	v.RiskLevel = types.RiskMedium
	blocked := &types.VendorMatchSummary{ComplianceBlocking: true}
	if got := riskScore(v, blocked); !almost(got, 0.6) {
		t.Fatalf("medium risk with blocking gaps = %v, want 0.6", got)
	}
}

func TestTimeScore(t *testing.T) {
	v := testVendor() // 24h window
	if got := timeScore(v); !almost(got, 1-24.0/72.0) {
		t.Fatalf("24h window = %v, want %v", got, 1-24.0/72.0)
	}

	v.Guardrails.ResponseWindowHours = 0
	if got := timeScore(v); got != 0.5 {
		t.Fatalf("undeclared window = %v, want neutral 0.5", got)
	}

	v.Guardrails.ResponseWindowHours = 120
	if got := timeScore(v); got != 0 {
		t.Fatalf("slow window = %v, want 0", got)
	}
}

func TestScoreBundle(t *testing.T) {
	req := testRequest()
	vendor := testVendor()
	summary := testMatcher().EvaluateVendor(req, vendor, req.BudgetPerUnit(), nil)

	components := types.OfferComponents{
		UnitPrice: 980, Currency: "USD", Quantity: 100,
		TermMonths: 12, PaymentTerms: types.PaymentNet30,
	}
	score, tco, err := ScoreBundle(req, vendor, &summary, components)
	if err != nil {
		t.Fatalf("ScoreBundle: %v", err)
	}
	if tco != 98000 {
		t.Fatalf("tco = %.2f, want 98000.00", tco)
	}
	if score.TCONorm != 1 {
		t.Fatalf("TCONorm = %v, want 1 under budget", score.TCONorm)
	}
	if score.SpecMatch != 1 {
		t.Fatalf("spec match = %v, want 1 for full feature fit", score.SpecMatch)
	}
	if score.Risk != 0.2 {
		t.Fatalf("risk = %v, want 0.2", score.Risk)
	}
	if score.Utility < 0.95 {
		t.Fatalf("utility = %v, want near-maximal for an in-budget full fit", score.Utility)
	}
}

func TestScoreBundle_TCONormAnnualizes(t *testing.T) {
	req := testRequest()
	vendor := testVendor()
	summary := testMatcher().EvaluateVendor(req, vendor, req.BudgetPerUnit(), nil)

	// A 24-month term doubles the raw TCO but the annualized run-rate is what
	// counts against the annual budget.
	components := types.OfferComponents{
		UnitPrice: 980, Currency: "USD", Quantity: 100,
		TermMonths: 24, PaymentTerms: types.PaymentNet30,
	}
	score, tco, err := ScoreBundle(req, vendor, &summary, components)
	if err != nil {
		t.Fatalf("ScoreBundle: %v", err)
	}
	if tco != 196000 {
		t.Fatalf("tco = %.2f, want 196000.00 over 24 months", tco)
	}
	if score.TCONorm != 1 {
		t.Fatalf("TCONorm = %v, want 1: 98000 annual run-rate fits the budget", score.TCONorm)
	}

	components.UnitPrice = 1100
	score, _, err = ScoreBundle(req, vendor, &summary, components)
	if err != nil {
		t.Fatalf("ScoreBundle: %v", err)
	}
	if want := 100000.0 / 110000.0; !almost(score.TCONorm, want) {
		t.Fatalf("TCONorm = %v, want %v over budget", score.TCONorm, want)
	}
}

func TestCompositeScore(t *testing.T) {
	cfg := config.Default()
	score := types.OfferScore{Utility: 0.9, TCONorm: 1, Risk: 0.2, Time: 0.5}
	want := 0.4*0.9 + 0.3*1 + 0.2*0.8 + 0.1*0.5
	if got := CompositeScore(cfg, score); !almost(got, want) {
		t.Fatalf("composite = %v, want %v", got, want)
	}
}

func TestEvaluateCandidate(t *testing.T) {
	cfg := config.Default()
	pol := policy.NewEngine(cfg)
	guard := policy.NewGuardrailService(cfg)
	req := testRequest()
	vendor := testVendor()
	summary := testMatcher().EvaluateVendor(req, vendor, req.BudgetPerUnit(), nil)

	good := types.OfferComponents{
		UnitPrice: 980, Currency: "USD", Quantity: 100,
		TermMonths: 12, PaymentTerms: types.PaymentNet30,
	}
	cand, err := EvaluateCandidate(cfg, pol, guard, req, vendor, &summary, good, types.LeverPrice, 2, true)
	if err != nil {
		t.Fatalf("EvaluateCandidate: %v", err)
	}
	if !cand.Valid {
		t.Fatalf("in-policy candidate invalid: %v %v", cand.PolicyViolations, cand.GuardrailAlerts)
	}
	if cand.AcceptProbability <= 0 || cand.AcceptProbability >= 1 {
		t.Fatalf("accept probability = %v, want in (0,1)", cand.AcceptProbability)
	}
	if cand.SellerUtility <= 0 {
		t.Fatalf("seller utility = %v, want positive above floor", cand.SellerUtility)
	}

	// A below-floor seller counter fails policy validation. Buyer probes are
	// allowed to dip below floor, so this one is evaluated seller-side.
	low := good
	low.UnitPrice = 700
	cand, err = EvaluateCandidate(cfg, pol, guard, req, vendor, &summary, low, types.LeverPrice, 2, false)
	if err != nil {
		t.Fatalf("EvaluateCandidate: %v", err)
	}
	if cand.Valid {
		t.Fatal("below-floor candidate should be invalid")
	}
	if len(cand.PolicyViolations) == 0 {
		t.Fatal("expected policy violation notes")
	}
}
