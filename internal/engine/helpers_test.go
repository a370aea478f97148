package engine

import (
	"time"

	"procur/internal/audit"
	"procur/internal/config"
	"procur/internal/policy"
	"procur/internal/proposal"
	"procur/internal/types"
)

func testRequest() *types.Request {
	return &types.Request{
		RequestID:   "req-1",
		RequesterID: "user-1",
		Type:        types.RequestSaaS,
		Description: "CRM for the sales team with lead management",
		Quantity:    100,
		BudgetMax:   100000,
		Currency:    "USD",
		MustHaves:   []string{"crm", "lead-management", "pipeline-management"},
		ComplianceRequirements: []string{
			"SOC2",
		},
		Policy: types.PolicyContext{BudgetCap: 150000},
		Specs:  map[string]any{},
	}
}

func testVendor() *types.VendorProfile {
	return &types.VendorProfile{
		VendorID:       "v-1",
		Name:           "Acme CRM",
		Category:       "crm",
		CapabilityTags: []string{"crm", "lead-management", "pipeline-management", "api"},
		Certifications: []string{"SOC2", "GDPR"},
		Regions:        []string{"US", "EU"},
		PriceTiers:     map[int]float64{1: 1300, 100: 1200},
		Guardrails: types.Guardrails{
			PriceFloor:          900,
			PaymentTermsAllowed: []types.PaymentTerms{types.PaymentNet15, types.PaymentNet30, types.PaymentNet45},
			ResponseWindowHours: 24,
		},
		Exchange: types.ExchangePolicy{
			TermTrade:          map[int]float64{12: 0.05, 24: 0.08},
			PaymentTrade:       map[types.PaymentTerms]float64{types.PaymentNet15: 0.02, types.PaymentNet45: -0.01},
			ValueAddOffsets:    map[string]float64{"onboarding": 5, "premium-support": 8},
			MinStepAbs:         10,
			FinalizeGapAbs:     25,
			FinalizeGapPct:     0.02,
			CloseExtraDiscount: 0.01,
			MaxRounds:          8,
		},
		Reliability:     types.ReliabilityStats{SLAPct: 99.9, SupportTier: "premium"},
		RiskLevel:       types.RiskLow,
		BehaviorProfile: "cooperative",
	}
}

// midJanuary avoids seasonal discount months in bundle tests.
var midJanuary = time.Date(2025, time.January, 15, 12, 0, 0, 0, time.UTC)

func testClock() types.FixedClock {
	return types.FixedClock{T: midJanuary}
}

func testMatcher() *Matcher {
	return NewMatcher(policy.NewComplianceService())
}

func testState(req *types.Request, vendor *types.VendorProfile) *types.VendorNegotiationState {
	cfg := config.Default()
	buyer := testBuyer(cfg, vendor)
	summary := testMatcher().EvaluateVendor(req, vendor, req.BudgetPerUnit(), nil)
	return buyer.NewState(req, RankedVendor{Vendor: vendor, Summary: summary})
}

func testBuyer(cfg *config.Config, vendor *types.VendorProfile) *Buyer {
	pol := policy.NewEngine(cfg)
	guard := policy.NewGuardrailService(cfg)
	seller := NewSeller(cfg, pol, guard)
	trail := audit.NewTrail(testClock(), nil)
	memory := audit.NewMemoryStore(nil)
	return NewBuyer(cfg, pol, guard, proposal.NewDeterministic(), seller, trail, memory, testClock(), nil)
}

func sellerOfferAt(round int, price float64, term int, pay types.PaymentTerms, utility float64) types.Offer {
	return types.Offer{
		OfferID:   types.NewOfferID(),
		RequestID: "req-1",
		VendorID:  "v-1",
		Actor:     types.ActorSeller,
		Round:     round,
		Components: types.OfferComponents{
			UnitPrice: price, Currency: "USD", Quantity: 100,
			TermMonths: term, PaymentTerms: pay,
		},
		Score: types.OfferScore{Utility: utility},
	}
}
