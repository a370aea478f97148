package engine

import (
	"math"
	"sort"
	"time"

	"procur/internal/eval"
	"procur/internal/types"
)

// Seed-anchor shape: the opening discount ask scales with the budget gap but
// stays inside [minAnchorDiscount, maxAnchorDiscount].
const (
	minAnchorDiscount = 0.05
	maxAnchorDiscount = 0.15
	// seedTCOSlack keeps seed bundles whose TCO is within 110% of budget.
	seedTCOSlack = 1.1
)

func baseComponents(req *types.Request, price float64, term int, payment types.PaymentTerms) types.OfferComponents {
	return types.OfferComponents{
		UnitPrice:    types.Round2(price),
		Currency:     req.Currency,
		Quantity:     req.Quantity,
		TermMonths:   term,
		PaymentTerms: payment,
	}
}

// AnchorPrice is the round-1 ask: list discounted by the budget gap fraction,
// clamped to [5%, 15%] and never below the floor.
func AnchorPrice(listPrice, floorPrice, budgetPerUnit float64) float64 {
	gap := 0.0
	if listPrice > 0 {
		gap = (listPrice - budgetPerUnit) / listPrice
	}
	discount := math.Min(maxAnchorDiscount, math.Max(minAnchorDiscount, gap))
	return types.Round2(math.Max(floorPrice, listPrice*(1-discount)))
}

// SeedBundle is an opening candidate with its primary lever.
type SeedBundle struct {
	Components types.OfferComponents
	Lever      types.Lever
	Label      string
}

// SeedBundles produces the opening candidates: a price anchor, a term trade,
// a payment trade, and (when the budget is tight) a value-add ask. Bundles
// whose TCO blows past 110% of budget are dropped; if all do, the cheapest
// single bundle survives so the round always has a move.
func SeedBundles(req *types.Request, vendor *types.VendorProfile) []SeedBundle {
	list := vendor.ListPriceFor(req.Quantity)
	floor := vendor.PriceFloor()
	budgetPU := req.BudgetPerUnit()
	policy := vendor.Exchange

	var bundles []SeedBundle

	anchor := baseComponents(req, AnchorPrice(list, floor, budgetPU), 12, types.PaymentNet30)
	bundles = append(bundles, SeedBundle{Components: anchor, Lever: types.LeverPrice, Label: "price anchor"})

	if d, ok := policy.TermTrade[12]; ok && d > 0 {
		term := baseComponents(req, math.Max(floor, list*(1-d)), 24, types.PaymentNet30)
		bundles = append(bundles, SeedBundle{Components: term, Lever: types.LeverTerm, Label: "24-month term trade"})
	}

	if d, ok := policy.PaymentTrade[types.PaymentNet15]; ok && d > 0 {
		pay := baseComponents(req, math.Max(floor, list*(1-d)), 12, types.PaymentNet15)
		bundles = append(bundles, SeedBundle{Components: pay, Lever: types.LeverPayment, Label: "Net15 payment trade"})
	}

	if budgetPU < 0.9*list && len(policy.ValueAddOffsets) > 0 {
		va := baseComponents(req, list, 12, types.PaymentNet30)
		for label := range policy.ValueAddOffsets {
			va.ValueAdds = append(va.ValueAdds, label)
		}
		sort.Strings(va.ValueAdds)
		bundles = append(bundles, SeedBundle{Components: va, Lever: types.LeverValue, Label: "value-add ask at list"})
	}

	// Budget filter (annualized) with a deadman switch: never return an empty
	// seed set.
	var kept []SeedBundle
	minTCO := math.Inf(1)
	minIdx := 0
	for i, b := range bundles {
		tco := eval.MustAnnualizedTCO(b.Components)
		if tco < minTCO {
			minTCO = tco
			minIdx = i
		}
		if req.BudgetMax <= 0 || tco <= req.BudgetMax*seedTCOSlack {
			kept = append(kept, b)
		}
	}
	if len(kept) == 0 {
		kept = []SeedBundle{bundles[minIdx]}
	}
	return kept
}

// Volume discount breakpoints for target bundles.
func volumeDiscount(quantity int) float64 {
	switch {
	case quantity >= 500:
		return 0.20
	case quantity >= 250:
		return 0.18
	case quantity >= 100:
		return 0.15
	default:
		return 0
	}
}

// seasonalDiscount is a static calendar approximation: quarter-end months buy
// extra urgency, December the most.
func seasonalDiscount(now time.Time) float64 {
	switch now.Month() {
	case time.December:
		return 0.12
	case time.March, time.June, time.September:
		return 0.10
	default:
		return 0
	}
}

// maxCombinedAdvancedDiscount caps volume + seasonal stacking.
const maxCombinedAdvancedDiscount = 0.30

// advancedDiscount combines volume and seasonal discounts, capped.
func advancedDiscount(quantity int, now time.Time) float64 {
	d := volumeDiscount(quantity) + seasonalDiscount(now)
	if d > maxCombinedAdvancedDiscount {
		d = maxCombinedAdvancedDiscount
	}
	return d
}

// Target-bundle shape constants.
const (
	priceAnchorDrop    = 0.15
	pricePressureDrop  = 0.05
	ultimatumFloorPlus = 25.0
	termTradeMinAdd    = 12
)

// TargetBundle produces the single bundle for the selected strategy, working
// from the seller's last offer (or the anchor when none exists). Advanced
// volume/seasonal discounts sharpen the ask; the vendor floor always holds.
func TargetBundle(strategy BuyerStrategy, req *types.Request, vendor *types.VendorProfile, state *types.VendorNegotiationState, now time.Time) types.OfferComponents {
	list := vendor.ListPriceFor(req.Quantity)
	floor := vendor.PriceFloor()
	policy := vendor.Exchange

	base := AnchorPrice(list, floor, req.BudgetPerUnit())
	term := 12
	payment := types.PaymentNet30
	if last, ok := state.LastOfferBy(types.ActorSeller); ok {
		base = last.Components.UnitPrice
		term = last.Components.TermMonths
		payment = last.Components.PaymentTerms
	}

	out := baseComponents(req, base, term, payment)
	switch strategy {
	case StrategyPriceAnchor:
		out.UnitPrice = types.Round2(math.Max(floor, base*(1-priceAnchorDrop)))
	case StrategyTermTrade:
		add := termTradeMinAdd
		out.TermMonths = term + add
		if out.TermMonths < 24 {
			out.TermMonths = 24
		}
		out.UnitPrice = types.Round2(math.Max(floor, base*(1-termTradeDiscount(policy, add))))
	case StrategyPaymentTrade:
		out.PaymentTerms = types.PaymentNet15
		d := policy.PaymentOffset(types.PaymentNet15)
		out.UnitPrice = types.Round2(math.Max(floor, base*(1-d)))
	case StrategyValueAdd:
		for label := range policy.ValueAddOffsets {
			out.ValueAdds = append(out.ValueAdds, label)
		}
		sort.Strings(out.ValueAdds)
		out.UnitPrice = types.Round2(math.Max(floor, base))
	case StrategyUltimatum:
		out.UnitPrice = types.Round2(math.Max(floor, state.Opponent.PriceFloorEstimate+ultimatumFloorPlus))
	case StrategyPricePressure:
		target := base * (1 - pricePressureDrop)
		if rival, ok := bestCompetitorPrice(state); ok && rival.UnitPrice < target {
			target = rival.UnitPrice
		}
		out.UnitPrice = types.Round2(math.Max(floor, target))
	}

	// Advanced discounts sharpen price-led asks only; lever trades already
	// priced their concession.
	switch strategy {
	case StrategyPriceAnchor, StrategyPricePressure, StrategyUltimatum:
		if extra := advancedDiscount(req.Quantity, now); extra > 0 {
			out.UnitPrice = types.Round2(math.Max(floor, out.UnitPrice*(1-extra)))
		}
	}
	return out
}

// AlternativeLevers returns two levers different from the primary, used to
// score alternatives alongside the target bundle.
func AlternativeLevers(primary BuyerStrategy) []BuyerStrategy {
	order := []BuyerStrategy{StrategyPricePressure, StrategyTermTrade, StrategyPaymentTrade, StrategyValueAdd}
	var out []BuyerStrategy
	for _, s := range order {
		if s != primary && len(out) < 2 {
			out = append(out, s)
		}
	}
	return out
}
