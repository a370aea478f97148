package engine

import (
	"procur/internal/config"
	"procur/internal/eval"
	"procur/internal/policy"
	"procur/internal/types"
)

// Risk base levels per vendor risk label; blocking compliance gaps add a bump.
const (
	riskLowBase          = 0.2
	riskMediumBase       = 0.5
	riskHighBase         = 0.8
	riskComplianceBump   = 0.1
	responseWindowFullHr = 72.0
)

func riskScore(vendor *types.VendorProfile, summary *types.VendorMatchSummary) float64 {
	var base float64
	switch vendor.RiskLevel {
	case types.RiskLow:
		base = riskLowBase
	case types.RiskHigh:
		base = riskHighBase
	default:
		base = riskMediumBase
	}
	if summary != nil && summary.ComplianceBlocking {
		base += riskComplianceBump
	}
	return eval.Clamp(base, 0, 1)
}

// timeScore rewards fast vendor response windows: 1.0 at instant, 0 at 72h+.
// Vendors that declare no window score neutral.
func timeScore(vendor *types.VendorProfile) float64 {
	hours := vendor.Guardrails.ResponseWindowHours
	if hours <= 0 {
		return 0.5
	}
	return eval.Clamp(1-float64(hours)/responseWindowFullHr, 0, 1)
}

// ScoreBundle evaluates offer components against the request from the buyer's
// side: TCO, component scores, and the weighted utility. The match summary
// supplies the feature/compliance/SLA dimensions so they are computed once per
// vendor, not per offer.
func ScoreBundle(req *types.Request, vendor *types.VendorProfile, summary *types.VendorMatchSummary, components types.OfferComponents) (types.OfferScore, float64, error) {
	breakdown, err := eval.TCO(components)
	if err != nil {
		return types.OfferScore{}, 0, err
	}
	tco := breakdown.Total

	costFit := eval.CostFit(components.UnitPrice, req.BudgetPerUnit())

	var feature, compliance, sla float64
	var matched, missing []string
	if summary != nil {
		feature = summary.FeatureScore
		compliance = summary.ComplianceScore
		sla = summary.SLAScore
		matched = summary.MatchedFeatures
		missing = summary.MissingFeatures
	}

	score := types.OfferScore{
		SpecMatch:       feature,
		Risk:            riskScore(vendor, summary),
		Time:            timeScore(vendor),
		Utility:         eval.BuyerUtility(eval.DefaultWeights(), costFit, feature, compliance, sla),
		MatchedFeatures: matched,
		MissingFeatures: missing,
	}
	if annual := breakdown.Annualized(components.TermMonths); annual > 0 && req.BudgetMax > 0 {
		score.TCONorm = eval.Clamp(req.BudgetMax/annual, 0, 1)
	}
	return score, tco, nil
}

// CompositeScore folds an offer score into the configured presentation
// composite. Risk counts inverted: lower risk, higher composite.
func CompositeScore(cfg *config.Config, score types.OfferScore) float64 {
	w := cfg.ScoringWeights
	return w.Value*score.Utility + w.Cost*score.TCONorm + w.Risk*(1-score.Risk) + w.Time*score.Time
}

// sellerUtilityFor scores components from the vendor's side of the table.
func sellerUtilityFor(cfg *config.Config, vendor *types.VendorProfile, components types.OfferComponents) float64 {
	list := vendor.ListPriceFor(components.Quantity)
	return eval.SellerUtility(components.UnitPrice, vendor.PriceFloor(), list, cfg.SellerAcceptThreshold)
}

// EvaluateCandidate runs the full candidate pipeline on one bundle: scoring,
// policy validation, and guardrail checks, collected into one record.
func EvaluateCandidate(cfg *config.Config, pol *policy.Engine, guard *policy.GuardrailService, req *types.Request, vendor *types.VendorProfile, summary *types.VendorMatchSummary, components types.OfferComponents, lever types.Lever, round int, isBuyerProposal bool) (types.CandidateEvaluation, error) {
	score, tco, err := ScoreBundle(req, vendor, summary, components)
	if err != nil {
		return types.CandidateEvaluation{}, err
	}

	polRes := pol.ValidateOffer(req, components, vendor, isBuyerProposal)
	alerts := guard.Check(vendor, components)

	cand := types.CandidateEvaluation{
		Offer:            components,
		PrimaryLever:     lever,
		TCO:              tco,
		BuyerUtility:     score.Utility,
		SellerUtility:    sellerUtilityFor(cfg, vendor, components),
		Valid:            polRes.Valid && !policy.HasBlocking(alerts),
		PolicyViolations: polRes.Notes(),
		GuardrailAlerts:  policy.NotesOf(alerts),
	}

	priceFit := eval.CostFit(components.UnitPrice, req.BudgetPerUnit())
	leverFit := 0.5
	if lever != types.LeverPrice {
		leverFit = 0.7
	}
	cand.AcceptProbability = AcceptanceProbability(priceFit, leverFit, cand.SellerUtility, round)
	return cand, nil
}
