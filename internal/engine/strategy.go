package engine

import (
	"fmt"

	"procur/internal/config"
	"procur/internal/eval"
	"procur/internal/types"
)

// BuyerStrategy names the buyer's round-level play.
type BuyerStrategy string

const (
	StrategyPriceAnchor   BuyerStrategy = "PRICE_ANCHOR"
	StrategyTermTrade     BuyerStrategy = "TERM_TRADE"
	StrategyPaymentTrade  BuyerStrategy = "PAYMENT_TRADE"
	StrategyValueAdd      BuyerStrategy = "VALUE_ADD"
	StrategyUltimatum     BuyerStrategy = "ULTIMATUM"
	StrategyPricePressure BuyerStrategy = "PRICE_PRESSURE"
)

// SellerStrategy names the simulated seller's reply style.
type SellerStrategy string

const (
	SellerAnchorHigh        SellerStrategy = "ANCHOR_HIGH"
	SellerRejectBelowFloor  SellerStrategy = "REJECT_BELOW_FLOOR"
	SellerMinimalConcession SellerStrategy = "MINIMAL_CONCESSION"
	SellerTermValue         SellerStrategy = "TERM_VALUE"
	SellerPaymentPremium    SellerStrategy = "PAYMENT_PREMIUM"
	SellerCloseDeal         SellerStrategy = "CLOSE_DEAL"
	SellerGradualConcession SellerStrategy = "GRADUAL_CONCESSION"
)

// leverStrategy maps a concession-ladder lever onto the strategy that plays it.
func leverStrategy(lever types.Lever) BuyerStrategy {
	switch lever {
	case types.LeverTerm:
		return StrategyTermTrade
	case types.LeverPayment:
		return StrategyPaymentTrade
	case types.LeverValue:
		return StrategyValueAdd
	default:
		return StrategyPricePressure
	}
}

// competitorLeverageMargin is how much cheaper a rival offer must be before
// the buyer switches to price pressure.
const competitorLeverageMargin = 0.05

// Stalemate thresholds: average movement over the window below both bounds.
const (
	stalemateWindow         = 3
	stalemateUtilityEpsilon = 0.01
	stalemateTCOEpsilon     = 50.0
)

// StalemateDetected reports whether the last few seller counters moved the
// needle: average utility improvement under 0.01 and average TCO improvement
// under $50 over the window.
func StalemateDetected(state *types.VendorNegotiationState) bool {
	sellerOffers := state.OffersBy(types.ActorSeller)
	if len(sellerOffers) < stalemateWindow {
		return false
	}
	window := sellerOffers[len(sellerOffers)-stalemateWindow:]

	var utilSum, tcoSum float64
	steps := 0
	for i := 1; i < len(window); i++ {
		utilSum += window[i].Score.Utility - window[i-1].Score.Utility
		prevTCO := eval.MustTCO(window[i-1].Components)
		curTCO := eval.MustTCO(window[i].Components)
		tcoSum += prevTCO - curTCO // positive = cost moving down
		steps++
	}
	if steps == 0 {
		return false
	}
	return utilSum/float64(steps) < stalemateUtilityEpsilon && tcoSum/float64(steps) < stalemateTCOEpsilon
}

// bestCompetitorPrice returns the cheapest competing offer, if any.
func bestCompetitorPrice(state *types.VendorNegotiationState) (types.CompetingOffer, bool) {
	var best types.CompetingOffer
	found := false
	for _, c := range state.CompetingOffers {
		if !found || c.UnitPrice < best.UnitPrice {
			best = c
			found = true
		}
	}
	return best, found
}

// SelectBuyerStrategy picks the round strategy. Competitor leverage takes
// precedence; a stalled ladder advances to its next lever; otherwise the
// round-indexed defaults apply. Returns the strategy and an optional note.
func SelectBuyerStrategy(cfg *config.Config, state *types.VendorNegotiationState) (BuyerStrategy, string) {
	// Competitor leverage first: a rival at least 5% cheaper than our current
	// best offer justifies pressing on price.
	if state.BestOffer != nil {
		if rival, ok := bestCompetitorPrice(state); ok {
			if rival.UnitPrice < state.BestOffer.Components.UnitPrice*(1-competitorLeverageMargin) {
				return StrategyPricePressure, fmt.Sprintf(
					"competitor %s at %.2f undercuts best offer %.2f",
					rival.VendorID, rival.UnitPrice, state.BestOffer.Components.UnitPrice)
			}
		}
	}

	// Stalled past the limit: advance the concession ladder and replan from
	// fresh seed bundles.
	if state.StalemateRounds >= cfg.MaxStalledRounds && state.Plan != nil {
		ladder := state.Plan.ConcessionLadder
		if state.ConcessionIndex < len(ladder) {
			lever := ladder[state.ConcessionIndex]
			state.ConcessionIndex++
			state.State = types.StateReplanRequired
			return leverStrategy(lever), fmt.Sprintf("stalled %d rounds, advancing ladder to %s", state.StalemateRounds, lever)
		}
	}

	round := state.Round + 1 // strategy for the upcoming round
	switch {
	case round == 1:
		return StrategyPriceAnchor, ""
	case round == 2 && state.Opponent.ConsecutiveNoPriceMoves > 0:
		return StrategyTermTrade, "seller holding price, trading term"
	case round == 3 && lastSellerPayment(state) == types.PaymentNet45:
		return StrategyPaymentTrade, "seller on Net45, trading payment speed"
	case StalemateDetected(state):
		return StrategyUltimatum, "stalemate detected"
	case round >= 4:
		return StrategyValueAdd, ""
	default:
		return StrategyPricePressure, ""
	}
}

func lastSellerPayment(state *types.VendorNegotiationState) types.PaymentTerms {
	if offer, ok := state.LastOfferBy(types.ActorSeller); ok {
		return offer.Components.PaymentTerms
	}
	return ""
}

// DetermineSellerStrategy picks the simulated seller's reply to a buyer offer.
// Guardrails dominate; the behavior profile biases the default.
func DetermineSellerStrategy(state *types.VendorNegotiationState, buyerOffer types.OfferComponents) SellerStrategy {
	vendor := state.Vendor
	floor := vendor.PriceFloor()
	policy := vendor.Exchange

	switch {
	case state.Round == 0:
		return SellerAnchorHigh
	case buyerOffer.UnitPrice < floor:
		return SellerRejectBelowFloor
	case buyerOffer.TermMonths >= 24:
		return SellerTermValue
	case buyerOffer.PaymentTerms == types.PaymentNet15:
		return SellerPaymentPremium
	case buyerOffer.UnitPrice-floor < policy.FinalizeGapAbs:
		return SellerCloseDeal
	}

	switch vendor.BehaviorProfile {
	case "aggressive":
		return SellerMinimalConcession
	case "cooperative":
		return SellerGradualConcession
	default:
		if state.Round >= 4 {
			return SellerMinimalConcession
		}
		return SellerGradualConcession
	}
}
