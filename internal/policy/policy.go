package policy

import (
	"fmt"

	"procur/internal/config"
	"procur/internal/eval"
	"procur/internal/types"
)

// budgetCapSlack allows projected spend to exceed the cap by 5% before the
// policy engine blocks an offer.
const budgetCapSlack = 1.05

// Violation is a single policy or guardrail finding.
type Violation struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Blocking bool   `json:"blocking"`
}

// Result is the outcome of a policy check. Valid means no blocking violations.
type Result struct {
	Valid      bool        `json:"valid"`
	Violations []Violation `json:"violations,omitempty"`
}

func resultOf(violations []Violation) Result {
	valid := true
	for _, v := range violations {
		if v.Blocking {
			valid = false
			break
		}
	}
	return Result{Valid: valid, Violations: violations}
}

// Notes renders violations as short audit note strings.
func (r Result) Notes() []string {
	var notes []string
	for _, v := range r.Violations {
		notes = append(notes, v.Code+": "+v.Message)
	}
	return notes
}

// Codes returns just the violation codes.
func (r Result) Codes() []string {
	var codes []string
	for _, v := range r.Violations {
		codes = append(codes, v.Code)
	}
	return codes
}

// Engine validates requests and offers against spend policy and vendor
// guardrails. It owns its configuration; nothing here is global.
type Engine struct {
	cfg *config.Config
}

// NewEngine creates a policy engine bound to the given config.
func NewEngine(cfg *config.Config) *Engine {
	return &Engine{cfg: cfg}
}

// ValidateRequest enforces the requester-side budget cap and risk threshold.
func (e *Engine) ValidateRequest(req *types.Request) Result {
	var violations []Violation

	if err := req.Validate(); err != nil {
		violations = append(violations, Violation{
			Code:     "malformed_request",
			Message:  err.Error(),
			Blocking: true,
		})
	}

	if cap := req.Policy.BudgetCap; cap > 0 && req.BudgetMax > cap {
		violations = append(violations, Violation{
			Code:     "budget_cap_exceeded",
			Message:  fmt.Sprintf("budget_max %.2f exceeds policy cap %.2f", req.BudgetMax, cap),
			Blocking: true,
		})
	}

	if risk, ok := req.SpecFloat("risk_score"); ok && req.Policy.RiskThreshold > 0 && risk > req.Policy.RiskThreshold {
		violations = append(violations, Violation{
			Code:     "risk_threshold_exceeded",
			Message:  fmt.Sprintf("risk score %.2f exceeds threshold %.2f", risk, req.Policy.RiskThreshold),
			Blocking: true,
		})
	}

	return resultOf(violations)
}

// ValidateOffer enforces spend, term, payment, and floor rules on an offer.
// isBuyerProposal relaxes the vendor-floor check (the buyer may probe below
// floor; the exchange layer clamps) and enables the acceptance-price warning.
func (e *Engine) ValidateOffer(req *types.Request, offer types.OfferComponents, vendor *types.VendorProfile, isBuyerProposal bool) Result {
	var violations []Violation

	if err := offer.Validate(); err != nil {
		violations = append(violations, Violation{Code: "malformed_offer", Message: err.Error(), Blocking: true})
		return resultOf(violations)
	}

	if cap := req.Policy.BudgetCap; cap > 0 {
		projected, err := eval.TCO(offer)
		if err != nil {
			violations = append(violations, Violation{Code: "rounding_drift", Message: err.Error(), Blocking: true})
			return resultOf(violations)
		}
		// The cap is an annual figure; longer terms are normalized before the
		// comparison.
		if annual := projected.Annualized(offer.TermMonths); annual > cap*budgetCapSlack {
			violations = append(violations, Violation{
				Code:     "budget_cap_exceeded",
				Message:  fmt.Sprintf("projected annual spend %.2f exceeds cap %.2f (+5%% slack)", annual, cap),
				Blocking: true,
			})
		}
	}

	if maxTerm, ok := req.SpecFloat("max_term_months"); ok && float64(offer.TermMonths) > maxTerm {
		violations = append(violations, Violation{
			Code:     "term_exceeds_max",
			Message:  fmt.Sprintf("term %d months exceeds requested maximum %.0f", offer.TermMonths, maxTerm),
			Blocking: true,
		})
	}

	if vendor != nil {
		if !vendor.Guardrails.AllowsPayment(offer.PaymentTerms) {
			violations = append(violations, Violation{
				Code:     "payment_terms_not_allowed",
				Message:  fmt.Sprintf("vendor %s does not accept %s", vendor.VendorID, offer.PaymentTerms),
				Blocking: true,
			})
		}
		if !isBuyerProposal && offer.UnitPrice < vendor.PriceFloor() {
			violations = append(violations, Violation{
				Code:     "below_vendor_floor",
				Message:  fmt.Sprintf("unit price %.2f below vendor floor %.2f", offer.UnitPrice, vendor.PriceFloor()),
				Blocking: true,
			})
		}
	}

	if isBuyerProposal {
		if minAccept, ok := req.SpecFloat("minimum_acceptance_price"); ok && offer.UnitPrice > minAccept {
			violations = append(violations, Violation{
				Code:     "above_minimum_acceptance_price",
				Message:  fmt.Sprintf("buyer proposal %.2f exceeds stated acceptance price %.2f", offer.UnitPrice, minAccept),
				Blocking: false,
			})
		}
	}

	return resultOf(violations)
}

// EnforceConcessionFloor blocks a proposed price below the concession floor.
func (e *Engine) EnforceConcessionFloor(floor, proposed float64) Result {
	if proposed < floor {
		return resultOf([]Violation{{
			Code:     "concession_floor_breached",
			Message:  fmt.Sprintf("proposed %.2f below concession floor %.2f", proposed, floor),
			Blocking: true,
		}})
	}
	return resultOf(nil)
}

// Approval spend breakpoints.
const (
	financeApprovalSpend = 50000
	cfoApprovalSpend     = 250000
)

// DetermineApprovals returns the approver roles required for the projected
// spend. An explicit approval chain on the request wins outright.
func (e *Engine) DetermineApprovals(req *types.Request, projectedSpend float64) []string {
	if len(req.Policy.ApprovalChain) > 0 {
		return append([]string(nil), req.Policy.ApprovalChain...)
	}
	roles := []string{"procurement_manager"}
	if projectedSpend >= financeApprovalSpend {
		roles = append(roles, "finance")
	}
	if projectedSpend >= cfoApprovalSpend {
		roles = append(roles, "cfo")
	}
	if cap := req.Policy.BudgetCap; cap > 0 && projectedSpend > cap {
		roles = append(roles, "budget_owner")
	}
	return roles
}
