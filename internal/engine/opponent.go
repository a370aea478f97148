package engine

import (
	"math"

	"procur/internal/eval"
	"procur/internal/types"
)

// Opponent-model tuning: a price move under noPriceMoveEpsilon counts as
// holding; floor estimates tighten to floorTightenGap under the held price.
const (
	noPriceMoveEpsilon = 5.0
	floorTightenGap    = 25.0
	elasticityStep     = 0.1
	elasticityMin      = 0.1
	elasticityMax      = 0.9
)

// SeedOpponentModel initializes the model from the vendor's visible pricing:
// floor estimate below the guardrail floor, ceiling above the anchor.
func SeedOpponentModel(vendor *types.VendorProfile, anchor float64) types.OpponentModel {
	return types.OpponentModel{
		PriceFloorEstimate:   types.Round2(vendor.PriceFloor() * 0.9),
		PriceCeilingEstimate: types.Round2(anchor * 1.1),
		PriceElasticity:      0.5,
		TermElasticity:       0.5,
	}
}

// UpdateOpponentModel folds one counterparty move into the model: held prices
// tighten the floor estimate and count toward stubbornness; real moves lower
// the ceiling and loosen elasticity.
func UpdateOpponentModel(m *types.OpponentModel, move types.OfferComponents) {
	prev, hadPrev := m.LastOffer()

	if hadPrev {
		delta := math.Abs(move.UnitPrice - prev.UnitPrice)
		if delta < noPriceMoveEpsilon {
			m.ConsecutiveNoPriceMoves++
			tightened := types.Round2(move.UnitPrice - floorTightenGap)
			if tightened > m.PriceFloorEstimate {
				m.PriceFloorEstimate = tightened
			}
			m.PriceElasticity = eval.Clamp(m.PriceElasticity-elasticityStep, elasticityMin, elasticityMax)
		} else {
			m.ConsecutiveNoPriceMoves = 0
			if move.UnitPrice < m.PriceCeilingEstimate {
				m.PriceCeilingEstimate = types.Round2(move.UnitPrice)
			}
			m.PriceElasticity = eval.Clamp(m.PriceElasticity+elasticityStep, elasticityMin, elasticityMax)
		}
		if move.TermMonths != prev.TermMonths {
			m.TermElasticity = eval.Clamp(m.TermElasticity+elasticityStep, elasticityMin, elasticityMax)
		}
	} else {
		if move.UnitPrice < m.PriceCeilingEstimate {
			m.PriceCeilingEstimate = types.Round2(move.UnitPrice)
		}
	}

	m.PushOffer(move)
}

// Acceptance-probability shape: logistic in the blended fit, damped by round
// fatigue.
const (
	acceptPriceWeight   = 0.6
	acceptLeverWeight   = 0.2
	acceptUtilityWeight = 0.2
	acceptSteepness     = 8.0
	acceptMidpoint      = 0.7
	fatiguePerRound     = 0.05
	fatigueFloor        = 0.5
)

// AcceptanceProbability estimates how likely the counterparty is to take the
// offer, for explainability only; the close decision never reads it.
func AcceptanceProbability(priceFit, leverFit, utility float64, round int) float64 {
	score := acceptPriceWeight*priceFit + acceptLeverWeight*leverFit + acceptUtilityWeight*utility
	p := 1 / (1 + math.Exp(-acceptSteepness*(score-acceptMidpoint)))
	fatigue := math.Max(fatigueFloor, 1-float64(round)*fatiguePerRound)
	return eval.Clamp(p*fatigue, 0, 1)
}
