package engine

import (
	"fmt"
	"math"

	"procur/internal/types"
)

// daysPerYear is used by daily-compounded present-value math.
const daysPerYear = 365

// PVDiscountFraction is the fraction of price a buyer may claim for paying
// dayDelta days earlier, at the given annual rate compounded daily:
//
//	1 - (1 + rate/365)^(-dayDelta)
func PVDiscountFraction(dayDelta int, annualRate float64) float64 {
	if dayDelta <= 0 || annualRate <= 0 {
		return 0
	}
	daily := annualRate / daysPerYear
	return 1 - math.Pow(1+daily, -float64(dayDelta))
}

// termTradeDiscount resolves the discount implied by extending the term by
// addMonths: an exact policy entry wins, otherwise the 12-month rate is
// pro-rated.
func termTradeDiscount(policy types.ExchangePolicy, addMonths int) float64 {
	if addMonths <= 0 {
		return 0
	}
	if d, ok := policy.TermTrade[addMonths]; ok {
		return d
	}
	if base, ok := policy.TermTrade[12]; ok {
		return base * float64(addMonths) / 12
	}
	return 0
}

// EnforceExchange adjusts a new offer so that every lever it moved relative
// to the previous offer is actually paid for at the vendor's exchange rates.
// The returned offer is floor-clamped and rounded; notes describe adjustments.
func EnforceExchange(previous, current types.OfferComponents, vendor *types.VendorProfile, discountRate float64) (types.OfferComponents, []string) {
	policy := vendor.Exchange
	out := current.Clone()
	var notes []string

	// Term extension must carry its term-trade discount.
	if addMonths := current.TermMonths - previous.TermMonths; addMonths > 0 {
		discount := termTradeDiscount(policy, addMonths)
		if discount > 0 {
			required := types.Round2(previous.UnitPrice * (1 - discount))
			if out.UnitPrice > required {
				notes = append(notes, fmt.Sprintf(
					"term +%dmo implies %.1f%% discount: price %.2f -> %.2f",
					addMonths, discount*100, out.UnitPrice, required))
				out.UnitPrice = required
			}
		}
	}

	prevOffset := policy.PaymentOffset(previous.PaymentTerms)
	curOffset := policy.PaymentOffset(current.PaymentTerms)
	switch {
	case curOffset > prevOffset:
		// Faster payment: buyer claims the larger of the policy delta and the
		// present value of the earlier cash.
		dayDelta := types.PaymentDays(previous.PaymentTerms) - types.PaymentDays(current.PaymentTerms)
		required := curOffset - prevOffset
		if pv := PVDiscountFraction(dayDelta, discountRate); pv > required {
			required = pv
		}
		target := types.Round2(previous.UnitPrice * (1 - required))
		if out.UnitPrice > target {
			notes = append(notes, fmt.Sprintf(
				"payment %s->%s requires %.2f%% discount: price %.2f -> %.2f",
				previous.PaymentTerms, current.PaymentTerms, required*100, out.UnitPrice, target))
			out.UnitPrice = target
		}
	case curOffset < prevOffset:
		// Slower payment: the premium is capped at the negative delta.
		cap := prevOffset - curOffset
		maxPrice := types.Round2(previous.UnitPrice * (1 + cap))
		if out.UnitPrice > maxPrice {
			notes = append(notes, fmt.Sprintf(
				"payment %s->%s premium capped at %.2f%%: price %.2f -> %.2f",
				previous.PaymentTerms, current.PaymentTerms, cap*100, out.UnitPrice, maxPrice))
			out.UnitPrice = maxPrice
		}
	}

	if floor := vendor.PriceFloor(); out.UnitPrice < floor {
		notes = append(notes, fmt.Sprintf("price clamped to vendor floor %.2f", floor))
		out.UnitPrice = floor
	}
	out.UnitPrice = types.Round2(out.UnitPrice)
	return out, notes
}

// Offer diversity constants: a new bundle within diversityPriceEpsilon of the
// counterparty's last offer (and the same term) is forced diversityForcedDrop
// lower so rounds always move.
const (
	diversityPriceEpsilon = 5.0
	diversityForcedDrop   = 15.0
)

// EnforceDiversity forces a minimum price gap when the bundle parrots the
// counterparty's last offer.
func EnforceDiversity(bundle types.OfferComponents, lastCounterparty *types.OfferComponents, floor float64) (types.OfferComponents, bool) {
	if lastCounterparty == nil {
		return bundle, false
	}
	priceDelta := math.Abs(bundle.UnitPrice - lastCounterparty.UnitPrice)
	if priceDelta < diversityPriceEpsilon && bundle.TermMonths == lastCounterparty.TermMonths {
		out := bundle.Clone()
		out.UnitPrice = types.Round2(math.Max(floor, lastCounterparty.UnitPrice-diversityForcedDrop))
		return out, true
	}
	return bundle, false
}

// NormalizeBuyerPrice keeps consecutive buyer offers monotonically improving:
// outside lever-trade strategies, a buyer price may exceed the previous buyer
// offer by at most the policy minimum step.
func NormalizeBuyerPrice(current types.OfferComponents, prevBuyer *types.OfferComponents, strategy BuyerStrategy, minStep float64) types.OfferComponents {
	if prevBuyer == nil {
		return current
	}
	switch strategy {
	case StrategyTermTrade, StrategyPaymentTrade, StrategyValueAdd:
		return current // lever trades may legitimately re-price
	}
	limit := types.Round2(prevBuyer.UnitPrice + minStep)
	if current.UnitPrice > limit {
		out := current.Clone()
		out.UnitPrice = limit
		return out
	}
	return current
}
