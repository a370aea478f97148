package engine

import (
	"fmt"
	"math"

	"procur/internal/config"
	"procur/internal/eval"
	"procur/internal/policy"
	"procur/internal/types"
)

// CloseVerdict explains a close decision for the audit trail.
type CloseVerdict struct {
	Close   bool
	Reasons []string
}

// ShouldCloseDeal decides whether the buyer accepts the seller's current offer.
// Hard preconditions all have to hold: within budget, both utilities above
// their thresholds, policy-clean, and at or above the vendor floor. With those
// met, the deal closes when the seller's last two counters converged inside
// the finalize gap (absolute or relative) while moving in the buyer's favor,
// or when the offer lands at or under the per-unit budget outright.
func ShouldCloseDeal(cfg *config.Config, pol *policy.Engine, req *types.Request, state *types.VendorNegotiationState, sellerOffer types.Offer) CloseVerdict {
	vendor := state.Vendor
	components := sellerOffer.Components

	breakdown, err := eval.TCO(components)
	if err != nil {
		return CloseVerdict{Reasons: []string{"tco error: " + err.Error()}}
	}
	if annual := breakdown.Annualized(components.TermMonths); req.BudgetMax > 0 && annual > req.BudgetMax {
		return CloseVerdict{Reasons: []string{fmt.Sprintf("annualized tco %.2f over budget %.2f", annual, req.BudgetMax)}}
	}
	if sellerOffer.Score.Utility < cfg.BuyerAcceptThreshold {
		return CloseVerdict{Reasons: []string{fmt.Sprintf("buyer utility %.3f below threshold %.2f", sellerOffer.Score.Utility, cfg.BuyerAcceptThreshold)}}
	}
	if su := sellerUtilityFor(cfg, vendor, components); su < cfg.SellerAcceptThreshold {
		return CloseVerdict{Reasons: []string{fmt.Sprintf("seller utility %.3f below threshold %.2f", su, cfg.SellerAcceptThreshold)}}
	}
	if res := pol.ValidateOffer(req, components, vendor, false); !res.Valid {
		return CloseVerdict{Reasons: res.Notes()}
	}
	if components.UnitPrice < vendor.PriceFloor() {
		return CloseVerdict{Reasons: []string{fmt.Sprintf("price %.2f below vendor floor %.2f", components.UnitPrice, vendor.PriceFloor())}}
	}

	// Outright: the seller already met the buyer's per-unit budget.
	if budgetPU := req.BudgetPerUnit(); budgetPU > 0 && components.UnitPrice <= budgetPU {
		return CloseVerdict{Close: true, Reasons: []string{fmt.Sprintf("price %.2f within per-unit budget %.2f", components.UnitPrice, budgetPU)}}
	}

	// Convergence: last two seller counters inside the finalize gap and moving
	// in the buyer's favor.
	sellerOffers := state.OffersBy(types.ActorSeller)
	if len(sellerOffers) >= 2 {
		prev := sellerOffers[len(sellerOffers)-2].Components.UnitPrice
		cur := components.UnitPrice
		gap := math.Abs(prev - cur)
		movingDown := cur <= prev
		exch := vendor.Exchange
		if movingDown && exch.FinalizeGapAbs > 0 && gap < exch.FinalizeGapAbs {
			return CloseVerdict{Close: true, Reasons: []string{fmt.Sprintf("converged: gap %.2f under absolute finalize gap %.2f", gap, exch.FinalizeGapAbs)}}
		}
		if movingDown && exch.FinalizeGapPct > 0 && cur > 0 && gap/cur < exch.FinalizeGapPct {
			return CloseVerdict{Close: true, Reasons: []string{fmt.Sprintf("converged: gap %.2f under %.1f%% of price", gap, exch.FinalizeGapPct*100)}}
		}
	}

	return CloseVerdict{Reasons: []string{"thresholds met but price not converged"}}
}

// DecideNextMove maps the round outcome onto the buyer's next move. Accept
// when the close verdict says so and risk is within the plan's stop bound;
// drop when the concession ladder is exhausted and rounds keep stalling;
// otherwise counter.
func DecideNextMove(cfg *config.Config, state *types.VendorNegotiationState, sellerOffer types.Offer, verdict CloseVerdict) types.Decision {
	if verdict.Close {
		if state.Plan != nil && state.Plan.StopRisk > 0 && sellerOffer.Score.Risk > state.Plan.StopRisk {
			return types.DecisionCounter
		}
		return types.DecisionAccept
	}
	if state.Plan != nil &&
		state.ConcessionIndex >= len(state.Plan.ConcessionLadder) &&
		state.StalemateRounds >= cfg.MaxStalledRounds {
		return types.DecisionDrop
	}
	return types.DecisionCounter
}
