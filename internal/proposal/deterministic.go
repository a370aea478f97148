package proposal

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"procur/internal/types"
)

// Deterministic is the no-model generator: heuristic intake parsing and
// template proposals built straight from the engine-chosen bundle. It is the
// fallback path when a model-backed generator fails, and the default in
// simulation runs.
type Deterministic struct{}

// NewDeterministic creates the deterministic generator.
func NewDeterministic() *Deterministic {
	return &Deterministic{}
}

var (
	quantityRe = regexp.MustCompile(`(?i)(\d[\d,]*)\s*(?:seats|users|licenses|units)`)
	budgetRe   = regexp.MustCompile(`(?i)(?:budget\s*(?:of|is|:)?\s*)?\$\s*(\d[\d,]*(?:\.\d+)?)\s*(k|m)?`)
	termRe     = regexp.MustCompile(`(?i)(\d+)\s*(?:month|mo)`)
)

// complianceTokens are the framework mentions intake scans for.
var complianceTokens = []string{"SOC2", "ISO27001", "GDPR", "HIPAA", "CCPA", "PCI-DSS", "FedRAMP"}

// featureTokens are common capability words pulled into must-haves.
var featureTokens = []string{
	"crm", "api", "reporting", "sso", "automation", "pipeline-management",
	"email-sequences", "lead-management", "support", "payroll",
}

func parseNumber(s string) float64 {
	v, _ := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	return v
}

// Intake parses quantity, budget, compliance frameworks, and feature tokens
// out of the raw text. Quantity and budget are required; missing ones come
// back as clarification questions.
func (d *Deterministic) Intake(ctx context.Context, rawText, policySummary string) (*types.Request, []Clarification, error) {
	req := &types.Request{
		RequestID:   types.NewRequestID(),
		Type:        types.RequestSaaS,
		Description: strings.TrimSpace(rawText),
		Currency:    "USD",
		Status:      types.RequestIntake,
		Specs:       map[string]any{},
	}

	if m := quantityRe.FindStringSubmatch(rawText); m != nil {
		req.Quantity = int(parseNumber(m[1]))
	}
	if m := budgetRe.FindStringSubmatch(rawText); m != nil {
		budget := parseNumber(m[1])
		switch strings.ToLower(m[2]) {
		case "k":
			budget *= 1_000
		case "m":
			budget *= 1_000_000
		}
		req.BudgetMax = budget
	}
	if m := termRe.FindStringSubmatch(rawText); m != nil {
		req.SetSpec("preferred_term_months", parseNumber(m[1]))
	}

	lower := strings.ToLower(rawText)
	for _, tok := range complianceTokens {
		if strings.Contains(lower, strings.ToLower(tok)) {
			req.ComplianceRequirements = append(req.ComplianceRequirements, tok)
		}
	}
	for _, tok := range featureTokens {
		if strings.Contains(lower, tok) {
			req.MustHaves = append(req.MustHaves, tok)
		}
	}
	if strings.Contains(lower, "hardware") || strings.Contains(lower, "laptops") || strings.Contains(lower, "devices") {
		req.Type = types.RequestGoods
	}

	var clarifications []Clarification
	if req.Quantity <= 0 {
		clarifications = append(clarifications, Clarification{
			Field:    "quantity",
			Question: "How many seats or units do you need?",
			Required: true,
		})
	}
	if req.BudgetMax <= 0 {
		clarifications = append(clarifications, Clarification{
			Field:    "budget_max",
			Question: "What is the maximum budget for this purchase?",
			Required: true,
		})
	}
	if len(clarifications) > 0 {
		return nil, clarifications, nil
	}
	return req, nil, nil
}

// Propose wraps the engine-chosen bundle in a synthetic rationale. Always
// valid; never fails.
func (d *Deterministic) Propose(ctx context.Context, req *types.Request, vctx VendorContext, bundle types.OfferComponents) (*types.NegotiationMessage, error) {
	bullets := []string{
		fmt.Sprintf("Proposing %.2f %s per unit for %d units over %d months (%s).",
			bundle.UnitPrice, bundle.Currency, bundle.Quantity, bundle.TermMonths, bundle.PaymentTerms),
	}
	if vctx.LastSellerOffer != nil {
		delta := vctx.LastSellerOffer.UnitPrice - bundle.UnitPrice
		if delta > 0 {
			bullets = append(bullets, fmt.Sprintf("This is %.2f below your last offer; the %s lever funds the gap.", delta, vctx.Strategy))
		}
	}
	if len(bundle.ValueAdds) > 0 {
		bullets = append(bullets, "Value-adds requested: "+strings.Join(bundle.ValueAdds, ", ")+".")
	}

	return &types.NegotiationMessage{
		Actor:                "buyer_agent",
		Round:                vctx.Round,
		Proposal:             bundle.Clone(),
		JustificationBullets: bullets,
		MachineRationale: types.MachineRationale{
			ScoreComponents:      map[string]float64{"best_utility": vctx.BestUtility},
			ConstraintsRespected: []string{"budget_cap", "vendor_guardrails"},
			ConcessionTaken:      vctx.Strategy,
		},
		NextStepHint: "counter",
	}, nil
}
