package eval

import "testing"

func TestFeatureScore_RequiredOnly(t *testing.T) {
	r := FeatureScore([]string{"crm", "api", "reporting"}, []string{"crm", "rest-api"}, nil)
	// rest-api normalizes to api; 2 of 3 required matched.
	if got, want := r.Score, 2.0/3.0; got < want-1e-9 || got > want+1e-9 {
		t.Fatalf("score = %v, want %v", got, want)
	}
	if len(r.Matched) != 2 || len(r.Missing) != 1 {
		t.Fatalf("matched=%v missing=%v", r.Matched, r.Missing)
	}
	if r.Missing[0] != "reporting" {
		t.Fatalf("missing = %v, want reporting", r.Missing)
	}
}

func TestFeatureScore_SynonymNormalization(t *testing.T) {
	r := FeatureScore([]string{"leads", "sequences"}, []string{"lead-management", "email-sequences"}, nil)
	if r.Score != 1.0 {
		t.Fatalf("score = %v, want 1.0", r.Score)
	}
}

func TestFeatureScore_NoRequired(t *testing.T) {
	r := FeatureScore(nil, []string{"anything"}, nil)
	if r.Score != 1.0 {
		t.Fatalf("score with no requirements = %v, want 1.0", r.Score)
	}
}

func TestFeatureScore_OptionalWeights(t *testing.T) {
	required := []string{"crm"}
	weights := map[string]float64{"reporting": 2, "sso": 1}
	r := FeatureScore(required, []string{"crm", "reporting"}, weights)
	// base=1.0, optional = 2/3 -> 0.7 + 0.3*2/3 = 0.9
	want := 0.7 + 0.3*(2.0/3.0)
	if diff := r.Score - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("score = %v, want %v", r.Score, want)
	}
}

func TestComplianceScore_WeightsAndBlocking(t *testing.T) {
	score, blocking := ComplianceScore(
		[]string{"SOC2", "GDPR"},
		map[string]string{"SOC2": "certified", "GDPR": "in_progress"},
	)
	if want := (1.0 + 0.4) / 2; score != want {
		t.Fatalf("score = %v, want %v", score, want)
	}
	if !blocking {
		t.Fatal("in_progress evidence should be blocking")
	}

	score, blocking = ComplianceScore(
		[]string{"SOC2"},
		map[string]string{"SOC2": "attested_with_report"},
	)
	if score != 0.85 {
		t.Fatalf("score = %v, want 0.85", score)
	}
	if blocking {
		t.Fatal("attested_with_report should not block")
	}
}

func TestComplianceScore_NoRequirements(t *testing.T) {
	score, blocking := ComplianceScore(nil, nil)
	if score != 1.0 || blocking {
		t.Fatalf("score=%v blocking=%v, want 1.0/false", score, blocking)
	}
}

func TestSLAScore(t *testing.T) {
	if got := SLAScore(100, "24-7"); got != 1.0 {
		t.Fatalf("perfect SLA score = %v, want 1.0", got)
	}
	if got := SLAScore(99.9, "premium"); got <= 0.9 || got >= 1.0 {
		t.Fatalf("99.9/premium score = %v, want in (0.9, 1.0)", got)
	}
	// Unknown tier scores 0.5.
	want := 0.7*0.95 + 0.3*0.5
	if got := SLAScore(95, "mystery"); got != want {
		t.Fatalf("unknown tier score = %v, want %v", got, want)
	}
}

func TestCostFit(t *testing.T) {
	if got := CostFit(900, 1000); got != 1.0 {
		t.Fatalf("within budget = %v, want 1.0", got)
	}
	// 50% overrun: 1 - 500/3000
	want := 1 - 500.0/3000.0
	if got := CostFit(1500, 1000); got != want {
		t.Fatalf("overrun fit = %v, want %v", got, want)
	}
	if got := CostFit(5000, 1000); got != 0 {
		t.Fatalf("4x budget fit = %v, want 0", got)
	}
}

func TestBuyerUtility_Clamped(t *testing.T) {
	w := DefaultWeights()
	u := BuyerUtility(w, 1, 1, 1, 1)
	if u != 1.0 {
		t.Fatalf("max utility = %v, want 1.0", u)
	}
	u = BuyerUtility(w, 0, 0, 0, 0)
	if u != 0 {
		t.Fatalf("min utility = %v, want 0", u)
	}
}

func TestSellerUtility(t *testing.T) {
	// price = list: full margin -> 0.9 + 0.05
	if got := SellerUtility(1200, 800, 1200, 0.1); got != 0.95 {
		t.Fatalf("full margin utility = %v, want 0.95", got)
	}
	// price = floor: margin 0, utility 0.05 falls below threshold -> raw margin 0.
	if got := SellerUtility(800, 800, 1200, 0.1); got != 0 {
		t.Fatalf("floor utility = %v, want 0", got)
	}
	// degenerate list == floor does not divide by zero
	if got := SellerUtility(800, 800, 800, 0.1); got != 0 {
		t.Fatalf("degenerate utility = %v, want 0", got)
	}
}

func TestHasZOPA(t *testing.T) {
	if !HasZOPA(1000, 900, 0) {
		t.Fatal("budget above floor should have ZOPA")
	}
	if HasZOPA(500, 900, 850) {
		t.Fatal("budget below concession minimum should not have ZOPA")
	}
	if !HasZOPA(860, 900, 850) {
		t.Fatal("concessions below budget should open ZOPA")
	}
}
