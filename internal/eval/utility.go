package eval

// Weights are the buyer utility weights; they sum to 1 in the default set.
type Weights struct {
	Cost       float64 `json:"cost"`
	Features   float64 `json:"features"`
	Compliance float64 `json:"compliance"`
	SLA        float64 `json:"sla"`
}

// DefaultWeights returns the standard buyer utility weighting.
func DefaultWeights() Weights {
	return Weights{Cost: 0.40, Features: 0.35, Compliance: 0.15, SLA: 0.10}
}

// CostFit is 1.0 when the unit price is within the per-unit budget, then
// degrades linearly and hits zero at 4x budget.
func CostFit(unitPrice, budgetPerUnit float64) float64 {
	if budgetPerUnit <= 0 {
		return 0.5
	}
	if unitPrice <= budgetPerUnit {
		return 1.0
	}
	overrun := (unitPrice - budgetPerUnit) / (3 * budgetPerUnit)
	return Clamp(1-overrun, 0, 1)
}

// BuyerUtility combines the weighted component scores and clamps to [0,1].
func BuyerUtility(w Weights, costFit, feature, compliance, sla float64) float64 {
	u := w.Cost*costFit + w.Features*feature + w.Compliance*compliance + w.SLA*sla
	return Clamp(u, 0, 1)
}

// sellerMarginEpsilon avoids division blowups when list price sits on the floor.
const sellerMarginEpsilon = 1e-9

// SellerUtility scores an offer from the seller's side: mostly margin over the
// floor, with a small baseline. Below minAcceptThreshold, the raw margin is
// reported so callers can still rank hopeless offers.
func SellerUtility(price, floor, list, minAcceptThreshold float64) float64 {
	span := list - floor
	if span < sellerMarginEpsilon {
		span = sellerMarginEpsilon
	}
	margin := Clamp((price-floor)/span, 0, 1)
	u := Clamp(0.9*margin+0.1*0.5, 0, 1)
	if u < minAcceptThreshold {
		return margin
	}
	return u
}

// HasZOPA reports whether a zone of possible agreement exists: the buyer's
// per-unit budget reaches either the raw floor or the concessions-adjusted
// minimum price.
func HasZOPA(budgetPerUnit, sellerFloor, concessionsMinPrice float64) bool {
	min := sellerFloor
	if concessionsMinPrice > 0 && concessionsMinPrice < min {
		min = concessionsMinPrice
	}
	return budgetPerUnit >= min
}
