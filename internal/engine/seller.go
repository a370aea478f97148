package engine

import (
	"math"

	"procur/internal/config"
	"procur/internal/policy"
	"procur/internal/types"
)

// Seller counter-pricing shape.
const (
	anchorHighMarkup     = 0.15
	anchorHighFloorRatio = 1.3
	rejectFloorMarkup    = 0.05
	rejectPriceMarkup    = 0.02
	termValueHoldMarkup  = 0.01
	gradualGapFraction   = 0.3
)

// Seller is the simulated vendor-side agent. Deterministic: same state and
// buyer offer always produce the same counter.
type Seller struct {
	cfg   *config.Config
	pol   *policy.Engine
	guard *policy.GuardrailService
}

// NewSeller creates a simulated seller bound to the shared config and policy
// services.
func NewSeller(cfg *config.Config, pol *policy.Engine, guard *policy.GuardrailService) *Seller {
	return &Seller{cfg: cfg, pol: pol, guard: guard}
}

// lastSellerPrice returns the seller's previous ask, falling back to the list
// price before any counter exists.
func lastSellerPrice(state *types.VendorNegotiationState, quantity int) float64 {
	if offer, ok := state.LastOfferBy(types.ActorSeller); ok {
		return offer.Components.UnitPrice
	}
	return state.Vendor.ListPriceFor(quantity)
}

// counterPrice computes the seller's asking price for the chosen strategy.
func (s *Seller) counterPrice(strategy SellerStrategy, state *types.VendorNegotiationState, buyerOffer types.OfferComponents) float64 {
	vendor := state.Vendor
	floor := vendor.PriceFloor()
	exch := vendor.Exchange
	cur := lastSellerPrice(state, buyerOffer.Quantity)

	switch strategy {
	case SellerAnchorHigh:
		return math.Max(cur*(1+anchorHighMarkup), floor*anchorHighFloorRatio)
	case SellerRejectBelowFloor:
		return math.Max(floor*(1+rejectFloorMarkup), cur*(1+rejectPriceMarkup))
	case SellerMinimalConcession:
		return math.Max(floor, cur-exch.MinStepAbs)
	case SellerTermValue:
		if addMonths := buyerOffer.TermMonths - 12; addMonths > 0 {
			if d := termTradeDiscount(exch, addMonths); d > 0 {
				return math.Max(floor, cur*(1-d))
			}
		}
		return cur * (1 + termValueHoldMarkup)
	case SellerPaymentPremium:
		offset := exch.PaymentOffset(buyerOffer.PaymentTerms)
		return math.Max(floor, cur*(1-offset))
	case SellerCloseDeal:
		return math.Max(floor, cur*(1-exch.CloseExtraDiscount))
	default: // SellerGradualConcession
		step := exch.MinStepAbs
		if gap := cur - buyerOffer.UnitPrice; gap > 0 && gap*gradualGapFraction > step {
			step = gap * gradualGapFraction
		}
		return math.Max(floor, cur-step)
	}
}

// Respond produces the seller's counter to a buyer offer: strategy selection,
// counter pricing, guardrail enforcement, and scoring. The counter mirrors the
// buyer's term and payment asks except where the strategy prices them.
func (s *Seller) Respond(req *types.Request, state *types.VendorNegotiationState, buyerOffer types.Offer) (types.Offer, SellerStrategy, []string) {
	vendor := state.Vendor
	floor := vendor.PriceFloor()
	strategy := DetermineSellerStrategy(state, buyerOffer.Components)

	components := buyerOffer.Components.Clone()
	components.UnitPrice = types.Round2(s.counterPrice(strategy, state, buyerOffer.Components))
	components.ValueAdds = nil

	// Term-value counters keep the buyer's longer term; other strategies keep
	// the buyer's requested structure and reprice it.
	if strategy == SellerRejectBelowFloor || strategy == SellerAnchorHigh {
		components.TermMonths = 12
		components.PaymentTerms = types.PaymentNet30
	}

	// Payment terms the vendor cannot take are replaced with the closest
	// allowed schedule rather than rejected outright.
	if !vendor.Guardrails.AllowsPayment(components.PaymentTerms) {
		components.PaymentTerms = fallbackPayment(vendor)
	}

	// A counter that restructures the buyer's proposal still prices the change
	// under the vendor's exchange policy, floor included.
	components, notes := EnforceExchange(buyerOffer.Components, components, vendor, s.cfg.DiscountRate)

	if res := s.pol.ValidateOffer(req, components, vendor, false); !res.Valid {
		// Blocking policy findings on a seller counter mean the price structure
		// broke a hard rule; raise to floor-anchored terms and re-note.
		notes = append(notes, res.Notes()...)
		if components.UnitPrice < floor {
			components.UnitPrice = types.Round2(floor)
		}
	}
	notes = append(notes, policy.NotesOf(s.guard.Check(vendor, components))...)

	score, _, err := ScoreBundle(req, vendor, state.MatchSummary, components)
	if err != nil {
		notes = append(notes, "score error: "+err.Error())
	}

	offer := types.Offer{
		OfferID:    types.NewOfferID(),
		RequestID:  req.RequestID,
		VendorID:   vendor.VendorID,
		Actor:      types.ActorSeller,
		Round:      buyerOffer.Round,
		Components: components,
		Score:      score,
		Confidence: 1.0,
	}
	return offer, strategy, notes
}

// fallbackPayment picks the vendor's preferred allowed payment schedule.
func fallbackPayment(vendor *types.VendorProfile) types.PaymentTerms {
	allowed := vendor.Guardrails.PaymentTermsAllowed
	if len(allowed) == 0 {
		return types.PaymentNet30
	}
	for _, t := range allowed {
		if t == types.PaymentNet30 {
			return t
		}
	}
	return allowed[0]
}
