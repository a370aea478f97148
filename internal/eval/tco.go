package eval

import (
	"errors"
	"fmt"

	"procur/internal/types"
)

// ErrRoundingDrift signals a broken TCO invariant; fatal for the run.
var ErrRoundingDrift = errors.New("tco rounding drift exceeds tolerance")

// tcoTolerance is the maximum absolute drift allowed between the recomputed
// sum and the rounded total.
const tcoTolerance = 0.01

// TCOBreakdown decomposes a total cost of ownership.
type TCOBreakdown struct {
	Base      float64 `json:"base"`
	Fees      float64 `json:"fees"`
	Credits   float64 `json:"credits"`
	PrepayAdj float64 `json:"prepay_adj"`
	Total     float64 `json:"total"`
}

// TCO computes total cost of ownership over the offer term with no prepay
// adjustment.
func TCO(c types.OfferComponents) (TCOBreakdown, error) {
	return TCOWithPrepay(c, false, 0)
}

// TCOWithPrepay computes total cost of ownership; when prepaid, the base is
// discounted by prepayRate.
//
//	base    = round2(unit_price * quantity * term_months / 12)
//	fees    = sum of positive one-time fees
//	credits = -(sum of negative one-time fees)
//	total   = round2(base + fees - credits + prepay_adj)
func TCOWithPrepay(c types.OfferComponents, prepaid bool, prepayRate float64) (TCOBreakdown, error) {
	base := types.Round2(c.UnitPrice * float64(c.Quantity) * float64(c.TermMonths) / 12)

	var fees, credits float64
	for _, amount := range c.OneTimeFees {
		if amount >= 0 {
			fees += amount
		} else {
			credits += -amount
		}
	}

	var prepayAdj float64
	if prepaid && prepayRate > 0 {
		prepayAdj = -types.Round2(base * prepayRate)
	}

	total := types.Round2(base + fees - credits + prepayAdj)
	drift := base + fees - credits + prepayAdj - total
	if drift < 0 {
		drift = -drift
	}
	if drift > tcoTolerance {
		return TCOBreakdown{}, fmt.Errorf("%w: base=%.4f fees=%.4f credits=%.4f prepay=%.4f total=%.4f",
			ErrRoundingDrift, base, fees, credits, prepayAdj, total)
	}

	return TCOBreakdown{Base: base, Fees: fees, Credits: credits, PrepayAdj: prepayAdj, Total: total}, nil
}

// Annualized normalizes the total to a 12-month equivalent. Budgets are
// annual figures; all budget comparisons use this view so longer terms do not
// read as overspend.
func (b TCOBreakdown) Annualized(termMonths int) float64 {
	if termMonths <= 0 {
		return b.Total
	}
	return types.Round2(b.Total * 12 / float64(termMonths))
}

// MustAnnualizedTCO is the panic-on-drift form of the annualized total.
func MustAnnualizedTCO(c types.OfferComponents) float64 {
	b, err := TCO(c)
	if err != nil {
		panic(err)
	}
	return b.Annualized(c.TermMonths)
}

// MustTCO computes the TCO total and panics on rounding drift. Rounding drift
// is fatal for the whole run, so callers on already-validated components use
// this form.
func MustTCO(c types.OfferComponents) float64 {
	b, err := TCO(c)
	if err != nil {
		panic(err)
	}
	return b.Total
}
