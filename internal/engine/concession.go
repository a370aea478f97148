package engine

import (
	"fmt"
	"sort"

	"procur/internal/types"
)

// ConcessionBundle is one enumerated lever combination with its effective price.
type ConcessionBundle struct {
	EffectivePrice float64
	// Applied lists the human-readable levers in the combination.
	Applied []string
	// AddMonths / Payment / ValueAdds reconstruct the bundle as offer terms.
	AddMonths int
	Payment   types.PaymentTerms
	ValueAdds []string
}

type discountOption struct {
	label    string
	discount float64
}

// EnumerateConcessions lists every lever combination the vendor's exchange
// policy allows: singles, pairs, and a bounded triple set. Effective price is
//
//	list * Π(1 - discount_i) - perSeatCredit
//
// Percentage discounts stack multiplicatively; value-add credits subtract per
// seat.
func EnumerateConcessions(listPrice float64, policy types.ExchangePolicy) []ConcessionBundle {
	var payments, terms []discountOption
	var paymentTerms []types.PaymentTerms
	var termMonths []int

	for pt, d := range policy.PaymentTrade {
		if d > 0 {
			payments = append(payments, discountOption{string(pt), d})
			paymentTerms = append(paymentTerms, pt)
		}
	}
	for months, d := range policy.TermTrade {
		if d > 0 {
			terms = append(terms, discountOption{fmt.Sprintf("+%dmo", months), d})
			termMonths = append(termMonths, months)
		}
	}
	// Deterministic enumeration order regardless of map iteration.
	sort.Slice(payments, func(i, j int) bool { return payments[i].label < payments[j].label })
	sort.Slice(paymentTerms, func(i, j int) bool { return paymentTerms[i] < paymentTerms[j] })
	sortTermPair(terms, termMonths)

	var valueLabels []string
	for label := range policy.ValueAddOffsets {
		valueLabels = append(valueLabels, label)
	}
	sort.Strings(valueLabels)

	var out []ConcessionBundle

	// Singles: payment, term, value-add.
	for i, p := range payments {
		out = append(out, ConcessionBundle{
			EffectivePrice: listPrice * (1 - p.discount),
			Applied:        []string{"payment:" + p.label},
			Payment:        paymentTerms[i],
		})
	}
	for i, t := range terms {
		out = append(out, ConcessionBundle{
			EffectivePrice: listPrice * (1 - t.discount),
			Applied:        []string{"term:" + t.label},
			AddMonths:      termMonths[i],
		})
	}
	for _, label := range valueLabels {
		credit := policy.ValueAddOffsets[label]
		out = append(out, ConcessionBundle{
			EffectivePrice: listPrice - credit,
			Applied:        []string{"value:" + label},
			ValueAdds:      []string{label},
		})
	}

	// Pairs: payment x term multiply; value-adds subtract after.
	for i, p := range payments {
		for j, t := range terms {
			out = append(out, ConcessionBundle{
				EffectivePrice: listPrice * (1 - p.discount) * (1 - t.discount),
				Applied:        []string{"payment:" + p.label, "term:" + t.label},
				Payment:        paymentTerms[i],
				AddMonths:      termMonths[j],
			})
		}
		for _, label := range valueLabels {
			out = append(out, ConcessionBundle{
				EffectivePrice: listPrice*(1-p.discount) - policy.ValueAddOffsets[label],
				Applied:        []string{"payment:" + p.label, "value:" + label},
				Payment:        paymentTerms[i],
				ValueAdds:      []string{label},
			})
		}
	}
	for j, t := range terms {
		for _, label := range valueLabels {
			out = append(out, ConcessionBundle{
				EffectivePrice: listPrice*(1-t.discount) - policy.ValueAddOffsets[label],
				Applied:        []string{"term:" + t.label, "value:" + label},
				AddMonths:      termMonths[j],
				ValueAdds:      []string{label},
			})
		}
	}

	// Triples, bounded to the top-2 payment and top-2 term discounts.
	topPay, topPayTerms := topDiscounts(payments, paymentTerms, 2)
	topTerm, topTermMonths := topTermDiscounts(terms, termMonths, 2)
	for i, p := range topPay {
		for j, t := range topTerm {
			for _, label := range valueLabels {
				out = append(out, ConcessionBundle{
					EffectivePrice: listPrice*(1-p.discount)*(1-t.discount) - policy.ValueAddOffsets[label],
					Applied:        []string{"payment:" + p.label, "term:" + t.label, "value:" + label},
					Payment:        topPayTerms[i],
					AddMonths:      topTermMonths[j],
					ValueAdds:      []string{label},
				})
			}
		}
	}

	for i := range out {
		out[i].EffectivePrice = types.Round2(out[i].EffectivePrice)
	}
	return out
}

func sortTermPair(terms []discountOption, months []int) {
	idx := make([]int, len(terms))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return months[idx[a]] < months[idx[b]] })
	st := make([]discountOption, len(terms))
	sm := make([]int, len(months))
	for i, j := range idx {
		st[i] = terms[j]
		sm[i] = months[j]
	}
	copy(terms, st)
	copy(months, sm)
}

func topDiscounts(opts []discountOption, pts []types.PaymentTerms, n int) ([]discountOption, []types.PaymentTerms) {
	idx := make([]int, len(opts))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return opts[idx[a]].discount > opts[idx[b]].discount })
	if len(idx) > n {
		idx = idx[:n]
	}
	var o []discountOption
	var p []types.PaymentTerms
	for _, i := range idx {
		o = append(o, opts[i])
		p = append(p, pts[i])
	}
	return o, p
}

func topTermDiscounts(opts []discountOption, months []int, n int) ([]discountOption, []int) {
	idx := make([]int, len(opts))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return opts[idx[a]].discount > opts[idx[b]].discount })
	if len(idx) > n {
		idx = idx[:n]
	}
	var o []discountOption
	var m []int
	for _, i := range idx {
		o = append(o, opts[i])
		m = append(m, months[i])
	}
	return o, m
}

// BestEffectivePrice returns the lowest enumerated effective price that still
// respects the vendor floor, with the levers that produce it. The empty
// combination (list price, no levers) is always a candidate.
func BestEffectivePrice(listPrice, floorPrice float64, policy types.ExchangePolicy) (float64, []string) {
	best := types.Round2(listPrice)
	var applied []string
	for _, b := range EnumerateConcessions(listPrice, policy) {
		if b.EffectivePrice >= floorPrice && b.EffectivePrice < best {
			best = b.EffectivePrice
			applied = b.Applied
		}
	}
	return best, applied
}

// MinEffectivePrice returns the lowest enumerated effective price without the
// floor clamp. Used by feasibility: value-add credits may carry the effective
// price below the cash floor.
func MinEffectivePrice(listPrice float64, policy types.ExchangePolicy) float64 {
	min := types.Round2(listPrice)
	for _, b := range EnumerateConcessions(listPrice, policy) {
		if b.EffectivePrice < min {
			min = b.EffectivePrice
		}
	}
	return min
}

// FeasibleWithTrades reports whether any lever combination brings the
// effective per-unit price within the buyer's budget, i.e. whether a zone of
// possible agreement exists at all.
func FeasibleWithTrades(budgetPerUnit, listPrice, floorPrice float64, policy types.ExchangePolicy) bool {
	if budgetPerUnit <= 0 {
		return false
	}
	min := MinEffectivePrice(listPrice, policy)
	if floorPrice < min {
		min = floorPrice
	}
	return budgetPerUnit >= min
}
