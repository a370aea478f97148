package policy

import (
	"testing"

	"procur/internal/config"
	"procur/internal/types"
)

func testRequest() *types.Request {
	return &types.Request{
		RequestID:   "req-1",
		RequesterID: "user-1",
		Type:        types.RequestSaaS,
		Quantity:    100,
		BudgetMin:   50000,
		BudgetMax:   100000,
		Currency:    "USD",
		Policy:      types.PolicyContext{BudgetCap: 120000, RiskThreshold: 0.7},
		Specs:       map[string]any{},
	}
}

func testVendor() *types.VendorProfile {
	return &types.VendorProfile{
		VendorID:   "v-1",
		Name:       "Acme CRM",
		Category:   "crm",
		PriceTiers: map[int]float64{1: 1200, 100: 1100},
		Guardrails: types.Guardrails{
			PriceFloor:          800,
			PaymentTermsAllowed: []types.PaymentTerms{types.PaymentNet30, types.PaymentNet15},
		},
		Exchange: types.DefaultExchangePolicy(),
	}
}

func TestValidateRequest_BudgetCap(t *testing.T) {
	e := NewEngine(config.Default())
	req := testRequest()
	req.BudgetMax = 200000
	res := e.ValidateRequest(req)
	if res.Valid {
		t.Fatal("request over budget cap should be invalid")
	}
	if res.Violations[0].Code != "budget_cap_exceeded" {
		t.Fatalf("code = %s, want budget_cap_exceeded", res.Violations[0].Code)
	}
}

func TestValidateRequest_RiskThreshold(t *testing.T) {
	e := NewEngine(config.Default())
	req := testRequest()
	req.SetSpec("risk_score", 0.9)
	res := e.ValidateRequest(req)
	if res.Valid {
		t.Fatal("request above risk threshold should be invalid")
	}
}

func TestResult_NotesAndCodes(t *testing.T) {
	res := resultOf([]Violation{
		{Code: "budget_cap_exceeded", Message: "over cap", Blocking: true},
		{Code: "acceptance_price_above_budget", Message: "warning only"},
	})
	if res.Valid {
		t.Fatal("blocking violation should invalidate the result")
	}
	codes := res.Codes()
	if len(codes) != 2 || codes[0] != "budget_cap_exceeded" || codes[1] != "acceptance_price_above_budget" {
		t.Fatalf("codes = %v", codes)
	}
	notes := res.Notes()
	if len(notes) != 2 || notes[0] != "budget_cap_exceeded: over cap" {
		t.Fatalf("notes = %v", notes)
	}
}

func TestValidateRequest_OK(t *testing.T) {
	e := NewEngine(config.Default())
	if res := e.ValidateRequest(testRequest()); !res.Valid {
		t.Fatalf("valid request rejected: %v", res.Violations)
	}
}

func offer(price float64, term int, terms types.PaymentTerms) types.OfferComponents {
	return types.OfferComponents{
		UnitPrice: price, Currency: "USD", Quantity: 100,
		TermMonths: term, PaymentTerms: terms,
	}
}

func TestValidateOffer_BudgetCapSlack(t *testing.T) {
	e := NewEngine(config.Default())
	req := testRequest()
	// 1250*100*12/12 = 125000 <= 120000*1.05 = 126000: passes on slack.
	res := e.ValidateOffer(req, offer(1250, 12, types.PaymentNet30), testVendor(), true)
	if !res.Valid {
		t.Fatalf("offer inside slack rejected: %v", res.Violations)
	}
	// 1270*100 = 127000 > 126000: blocked.
	res = e.ValidateOffer(req, offer(1270, 12, types.PaymentNet30), testVendor(), true)
	if res.Valid {
		t.Fatal("offer above cap slack should be invalid")
	}
}

func TestValidateOffer_MaxTerm(t *testing.T) {
	e := NewEngine(config.Default())
	req := testRequest()
	req.SetSpec("max_term_months", 24)
	res := e.ValidateOffer(req, offer(900, 36, types.PaymentNet30), testVendor(), true)
	if res.Valid {
		t.Fatal("offer beyond max term should be invalid")
	}
}

func TestValidateOffer_PaymentTerms(t *testing.T) {
	e := NewEngine(config.Default())
	res := e.ValidateOffer(testRequest(), offer(900, 12, types.PaymentNet45), testVendor(), true)
	if res.Valid {
		t.Fatal("disallowed payment terms should be invalid")
	}
}

func TestValidateOffer_FloorOnlyForSellerPath(t *testing.T) {
	e := NewEngine(config.Default())
	req := testRequest()
	below := offer(700, 12, types.PaymentNet30)

	if res := e.ValidateOffer(req, below, testVendor(), false); res.Valid {
		t.Fatal("seller offer below floor should be invalid")
	}
	if res := e.ValidateOffer(req, below, testVendor(), true); !res.Valid {
		t.Fatalf("buyer probe below floor should pass policy: %v", res.Violations)
	}
}

func TestValidateOffer_AcceptancePriceWarning(t *testing.T) {
	e := NewEngine(config.Default())
	req := testRequest()
	req.SetSpec("minimum_acceptance_price", 850.0)
	res := e.ValidateOffer(req, offer(900, 12, types.PaymentNet30), testVendor(), true)
	if !res.Valid {
		t.Fatalf("warning must not block: %v", res.Violations)
	}
	if len(res.Violations) != 1 || res.Violations[0].Code != "above_minimum_acceptance_price" {
		t.Fatalf("violations = %v, want acceptance-price warning", res.Violations)
	}
}

func TestEnforceConcessionFloor(t *testing.T) {
	e := NewEngine(config.Default())
	if res := e.EnforceConcessionFloor(800, 750); res.Valid {
		t.Fatal("proposed below floor should be invalid")
	}
	if res := e.EnforceConcessionFloor(800, 800); !res.Valid {
		t.Fatal("proposed at floor should be valid")
	}
}

func TestDetermineApprovals(t *testing.T) {
	e := NewEngine(config.Default())
	req := testRequest()

	roles := e.DetermineApprovals(req, 10000)
	if len(roles) != 1 || roles[0] != "procurement_manager" {
		t.Fatalf("small spend roles = %v", roles)
	}

	roles = e.DetermineApprovals(req, 130000)
	// >= finance breakpoint and over the cap
	want := map[string]bool{"procurement_manager": true, "finance": true, "budget_owner": true}
	if len(roles) != len(want) {
		t.Fatalf("roles = %v", roles)
	}
	for _, r := range roles {
		if !want[r] {
			t.Fatalf("unexpected role %s", r)
		}
	}

	req.Policy.ApprovalChain = []string{"cto"}
	roles = e.DetermineApprovals(req, 130000)
	if len(roles) != 1 || roles[0] != "cto" {
		t.Fatalf("explicit chain ignored: %v", roles)
	}
}
