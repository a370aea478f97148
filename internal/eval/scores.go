package eval

import (
	"sort"
	"strings"
)

// featureSynonyms normalizes marketing vocabulary onto canonical feature tokens
// before matching.
var featureSynonyms = map[string]string{
	"leads":             "lead-management",
	"lead-gen":          "lead-management",
	"sequences":         "email-sequences",
	"cadences":          "email-sequences",
	"email-automation":  "email-sequences",
	"reports":           "reporting",
	"dashboards":        "reporting",
	"analytics":         "reporting",
	"sso":               "single-sign-on",
	"saml":              "single-sign-on",
	"api-access":        "api",
	"rest-api":          "api",
	"integrations":      "api",
	"pipeline":          "pipeline-management",
	"deals":             "pipeline-management",
	"support-portal":    "support",
	"helpdesk":          "support",
	"workflows":         "automation",
	"workflow-builder":  "automation",
	"payroll-reporting": "payroll",
}

// NormalizeFeature lowercases, trims, and maps a token through the synonym table.
func NormalizeFeature(token string) string {
	t := strings.ToLower(strings.TrimSpace(token))
	t = strings.ReplaceAll(t, " ", "-")
	if canon, ok := featureSynonyms[t]; ok {
		return canon
	}
	return t
}

// FeatureResult carries a feature score with the matched/missing breakdown.
type FeatureResult struct {
	Score   float64
	Matched []string
	Missing []string
}

// FeatureScore scores required (and optionally weighted) features against the
// offered set. Base is the matched fraction of required features (1.0 if none
// are required); when a weight map is present the two combine 0.7/0.3.
func FeatureScore(required, offered []string, optionalWeights map[string]float64) FeatureResult {
	offeredSet := make(map[string]bool, len(offered))
	for _, f := range offered {
		offeredSet[NormalizeFeature(f)] = true
	}

	var matched, missing []string
	for _, f := range required {
		norm := NormalizeFeature(f)
		if offeredSet[norm] {
			matched = append(matched, norm)
		} else {
			missing = append(missing, norm)
		}
	}

	base := 1.0
	if len(required) > 0 {
		base = float64(len(matched)) / float64(len(required))
	}

	var optionalScore float64
	var totalWeight float64
	for f, w := range optionalWeights {
		totalWeight += w
		if offeredSet[NormalizeFeature(f)] {
			optionalScore += w
		}
	}
	if totalWeight > 0 {
		optionalScore /= totalWeight
	}

	score := base
	switch {
	case len(required) > 0 && totalWeight > 0:
		score = 0.7*base + 0.3*optionalScore
	case totalWeight > 0:
		score = optionalScore
	}

	sort.Strings(matched)
	sort.Strings(missing)
	return FeatureResult{Score: Clamp(score, 0, 1), Matched: matched, Missing: missing}
}

// complianceWeights map evidence level onto a [0,1] weight; anything below
// blockingEvidenceWeight counts as a blocking gap.
var complianceWeights = map[string]float64{
	"certified":            1.0,
	"attested_with_report": 0.85,
	"in_progress":          0.4,
	"roadmap":              0.4,
	"none":                 0.0,
}

const blockingEvidenceWeight = 0.8

// ComplianceEvidenceWeight maps an evidence status to its weight (unknown
// statuses count as none).
func ComplianceEvidenceWeight(status string) float64 {
	if w, ok := complianceWeights[strings.ToLower(strings.TrimSpace(status))]; ok {
		return w
	}
	return 0
}

// ComplianceScore averages evidence weights over required frameworks
// (1.0 if nothing is required) and reports whether any framework falls below
// the blocking threshold.
func ComplianceScore(required []string, evidence map[string]string) (score float64, blocking bool) {
	if len(required) == 0 {
		return 1.0, false
	}
	var sum float64
	for _, framework := range required {
		w := ComplianceEvidenceWeight(evidence[framework])
		sum += w
		if w < blockingEvidenceWeight {
			blocking = true
		}
	}
	return sum / float64(len(required)), blocking
}

// supportTierScores grade the support tier a vendor sells.
var supportTierScores = map[string]float64{
	"extended":       1.0,
	"24-7":           1.0,
	"premium":        0.9,
	"business_hours": 0.7,
	"email_only":     0.4,
}

const unknownTierScore = 0.5

// SLAScore combines uptime percentage and support tier 0.7/0.3.
func SLAScore(slaPct float64, supportTier string) float64 {
	sla := slaPct / 100
	if sla > 1 {
		sla = 1
	}
	if sla < 0 {
		sla = 0
	}
	tier, ok := supportTierScores[strings.ToLower(strings.TrimSpace(supportTier))]
	if !ok {
		tier = unknownTierScore
	}
	return 0.7*sla + 0.3*tier
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
