package engine

import (
	"sort"
	"strings"

	"procur/internal/eval"
	"procur/internal/policy"
	"procur/internal/types"
)

// categoryInferenceSpec is the specs key caching the inferred category so the
// (possibly repeated) inference runs once per request.
const categoryInferenceSpec = "_category_inference"

// genericCategory loses category ties to any specific vertical.
const genericCategory = "saas"

// candidateCategories are scored during inference; phrases hit against the
// description, tokens against must-have features.
var candidateCategories = []struct {
	Name    string
	Phrases []string
	Tokens  []string
}{
	{Name: "crm", Phrases: []string{"crm", "sales team", "pipeline", "customer relationship", "leads"}, Tokens: []string{"crm", "pipeline-management", "lead-management", "email-sequences"}},
	{Name: "hr", Phrases: []string{"hr ", "hris", "payroll", "onboarding", "human resources", "benefits"}, Tokens: []string{"payroll", "benefits", "hris"}},
	{Name: "security", Phrases: []string{"security", "endpoint", "siem", "vulnerability", "threat"}, Tokens: []string{"sso", "single-sign-on", "siem", "endpoint"}},
	{Name: "analytics", Phrases: []string{"analytics", "dashboards", "business intelligence", "data warehouse"}, Tokens: []string{"reporting", "dashboards", "etl"}},
	{Name: "erp", Phrases: []string{"erp", "inventory", "accounting", "finance system", "invoicing"}, Tokens: []string{"invoicing", "inventory", "ledger"}},
	{Name: genericCategory, Phrases: []string{"saas", "software", "platform", "tool"}, Tokens: []string{"api", "automation"}},
}

// categoryAliases map vendor catalog spellings onto canonical categories.
var categoryAliases = map[string]string{
	"crm":                              "crm",
	"saas/crm":                         "crm",
	"customer-relationship-management": "crm",
	"hr":                               "hr",
	"hris":                             "hr",
	"human-resources":                  "hr",
	"security":                         "security",
	"secops":                           "security",
	"infosec":                          "security",
	"analytics":                        "analytics",
	"bi":                               "analytics",
	"business-intelligence":            "analytics",
	"erp":                              "erp",
	"finance":                          "erp",
	"saas":                             genericCategory,
	"software":                         genericCategory,
}

func canonicalCategory(c string) string {
	key := strings.ToLower(strings.TrimSpace(c))
	if canon, ok := categoryAliases[key]; ok {
		return canon
	}
	return key
}

// Matcher evaluates vendors against requests for shortlist and scoring.
type Matcher struct {
	compliance *policy.ComplianceService
}

// NewMatcher creates a matcher using the given compliance service.
func NewMatcher(compliance *policy.ComplianceService) *Matcher {
	return &Matcher{compliance: compliance}
}

// InferCategory picks the request category: an explicit one wins, otherwise
// candidates are scored by description-phrase, feature-token, and spec-field
// hits. Ties prefer a non-generic category. The result is cached on specs.
func (m *Matcher) InferCategory(req *types.Request) string {
	if req.Category != "" {
		return canonicalCategory(req.Category)
	}
	if cached, ok := req.SpecString(categoryInferenceSpec); ok && cached != "" {
		return cached
	}

	desc := strings.ToLower(req.Description)
	features := make(map[string]bool, len(req.MustHaves)+len(req.NiceToHaves))
	for _, f := range append(append([]string(nil), req.MustHaves...), req.NiceToHaves...) {
		features[eval.NormalizeFeature(f)] = true
	}

	best := genericCategory
	bestScore := 0
	for _, cand := range candidateCategories {
		score := 0
		for _, phrase := range cand.Phrases {
			if strings.Contains(desc, phrase) {
				score += 2
			}
		}
		for _, tok := range cand.Tokens {
			if features[tok] {
				score += 3
			}
		}
		if explicit, ok := req.SpecString("category_hint"); ok && canonicalCategory(explicit) == cand.Name {
			score += 5
		}
		// Strictly-greater keeps the first (non-generic ordering) winner on ties,
		// except the generic category never beats a tied specific one.
		if score > bestScore || (score == bestScore && best == genericCategory && cand.Name != genericCategory && score > 0) {
			best = cand.Name
			bestScore = score
		}
	}

	req.SetSpec(categoryInferenceSpec, best)
	return best
}

// shortlist composite weights.
const (
	matchFeatureWeight    = 0.45
	matchComplianceWeight = 0.30
	matchPriceWeight      = 0.15
	matchSLAWeight        = 0.10
)

// EvaluateVendor scores one vendor against a request. The composite drives
// shortlist ranking; category mismatch, blocking compliance, or a zero feature
// score all zero it out.
func (m *Matcher) EvaluateVendor(req *types.Request, vendor *types.VendorProfile, budgetPerUnit float64, optionalWeights map[string]float64) types.VendorMatchSummary {
	category := m.InferCategory(req)
	summary := types.VendorMatchSummary{
		InferredCategory: category,
		CategoryMatch:    canonicalCategory(vendor.Category) == category,
	}

	feature := eval.FeatureScore(req.MustHaves, vendor.CapabilityTags, optionalWeights)
	summary.FeatureScore = feature.Score
	summary.MatchedFeatures = feature.Matched
	summary.MissingFeatures = feature.Missing

	assessment := m.compliance.AssessVendor(req, vendor)
	summary.ComplianceScore = assessment.Score
	summary.ComplianceBlocking = assessment.Blocking
	summary.MissingCompliance = assessment.Missing

	summary.SLAScore = eval.SLAScore(vendor.Reliability.SLAPct, vendor.Reliability.SupportTier)

	list := vendor.ListPriceFor(req.Quantity)
	if list > 0 && budgetPerUnit > 0 {
		summary.PriceFit = eval.Clamp(budgetPerUnit/list, 0, 1.2)
	}

	switch {
	case !summary.CategoryMatch:
		summary.Reasons = append(summary.Reasons, "category mismatch: "+vendor.Category)
	case summary.ComplianceBlocking:
		summary.Reasons = append(summary.Reasons, "blocking compliance gaps: "+strings.Join(summary.MissingCompliance, ", "))
	case summary.FeatureScore == 0:
		summary.Reasons = append(summary.Reasons, "no required features matched")
	default:
		priceComposed := eval.Clamp(summary.PriceFit, 0, 1)
		summary.Composite = matchFeatureWeight*summary.FeatureScore +
			matchComplianceWeight*summary.ComplianceScore +
			matchPriceWeight*priceComposed +
			matchSLAWeight*summary.SLAScore
		summary.Reasons = append(summary.Reasons, describeMatch(summary))
	}
	return summary
}

func describeMatch(s types.VendorMatchSummary) string {
	switch {
	case s.FeatureScore >= 0.99 && !s.ComplianceBlocking:
		return "full feature and compliance fit"
	case len(s.MissingFeatures) > 0:
		return "missing features: " + strings.Join(s.MissingFeatures, ", ")
	default:
		return "partial fit"
	}
}

// RankedVendor pairs a vendor with its match summary for shortlist output.
type RankedVendor struct {
	Vendor  *types.VendorProfile
	Summary types.VendorMatchSummary
}

// shortlistMinFeatureScore gates vendors out of the shortlist.
const shortlistMinFeatureScore = 0.3

// Shortlist ranks vendors by composite score, filtering category mismatches,
// blocking compliance gaps, and feature scores below the gate. Stable order:
// composite desc, then vendor id.
func (m *Matcher) Shortlist(req *types.Request, vendors []*types.VendorProfile, topN int) []RankedVendor {
	budgetPerUnit := req.BudgetPerUnit()
	var ranked []RankedVendor
	for _, v := range vendors {
		s := m.EvaluateVendor(req, v, budgetPerUnit, nil)
		if !s.CategoryMatch || s.ComplianceBlocking || s.FeatureScore < shortlistMinFeatureScore {
			continue
		}
		ranked = append(ranked, RankedVendor{Vendor: v, Summary: s})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Summary.Composite != ranked[j].Summary.Composite {
			return ranked[i].Summary.Composite > ranked[j].Summary.Composite
		}
		return ranked[i].Vendor.VendorID < ranked[j].Vendor.VendorID
	})
	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}
