package policy

import (
	"strings"

	"procur/internal/eval"
	"procur/internal/types"
)

// frameworkEntry is one row of the canonical compliance catalog.
type frameworkEntry struct {
	Canonical string
	Aliases   []string
	// Regions that satisfy the framework by jurisdiction fallback
	// (e.g. an EU-hosted vendor covers GDPR residency).
	Regions  []string
	Blocking bool
}

// complianceCatalog is the canonical framework catalog with aliases, region
// hints, and blocking flags.
var complianceCatalog = []frameworkEntry{
	{Canonical: "SOC2", Aliases: []string{"soc2", "soc-2", "soc2-type2", "soc 2"}, Blocking: true},
	{Canonical: "ISO27001", Aliases: []string{"iso27001", "iso-27001", "iso 27001"}, Blocking: true},
	{Canonical: "GDPR", Aliases: []string{"gdpr", "eu-dpa"}, Regions: []string{"EU"}, Blocking: true},
	{Canonical: "HIPAA", Aliases: []string{"hipaa"}, Regions: []string{"US"}, Blocking: true},
	{Canonical: "CCPA", Aliases: []string{"ccpa"}, Regions: []string{"US"}, Blocking: false},
	{Canonical: "PCI-DSS", Aliases: []string{"pci", "pci-dss", "pcidss"}, Blocking: true},
	{Canonical: "FedRAMP", Aliases: []string{"fedramp"}, Regions: []string{"US"}, Blocking: true},
}

func lookupFramework(name string) (frameworkEntry, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	for _, entry := range complianceCatalog {
		if strings.ToLower(entry.Canonical) == needle {
			return entry, true
		}
		for _, alias := range entry.Aliases {
			if alias == needle {
				return entry, true
			}
		}
	}
	return frameworkEntry{}, false
}

// FrameworkStatus is the per-framework outcome of a vendor assessment.
type FrameworkStatus struct {
	Framework string `json:"framework"`
	Status    string `json:"status"`   // compliant | missing
	Evidence  string `json:"evidence"` // certified | attested_with_report | none
	Blocking  bool   `json:"blocking"`
}

// ComplianceAssessment is the vendor-level compliance verdict for a request.
type ComplianceAssessment struct {
	VendorID   string            `json:"vendor_id"`
	Frameworks []FrameworkStatus `json:"frameworks,omitempty"`
	Score      float64           `json:"score"`
	Blocking   bool              `json:"blocking"`
	Missing    []string          `json:"missing,omitempty"`
}

// Notes renders the assessment as short audit note strings.
func (a ComplianceAssessment) Notes() []string {
	var notes []string
	for _, f := range a.Frameworks {
		if f.Status != "compliant" {
			notes = append(notes, "missing "+f.Framework)
		}
	}
	return notes
}

// ComplianceService assesses vendor certifications against request
// requirements using the canonical catalog.
type ComplianceService struct{}

// NewComplianceService creates a compliance service.
func NewComplianceService() *ComplianceService {
	return &ComplianceService{}
}

// AssessVendor checks each required framework against the vendor's
// certifications and regions. Certification matches count as certified
// evidence; a pure region fallback counts as attested_with_report.
func (s *ComplianceService) AssessVendor(req *types.Request, vendor *types.VendorProfile) ComplianceAssessment {
	certs := make(map[string]bool, len(vendor.Certifications))
	for _, c := range vendor.Certifications {
		if entry, ok := lookupFramework(c); ok {
			certs[entry.Canonical] = true
		} else {
			certs[strings.ToUpper(strings.TrimSpace(c))] = true
		}
	}
	regions := make(map[string]bool, len(vendor.Regions))
	for _, r := range vendor.Regions {
		regions[strings.ToUpper(strings.TrimSpace(r))] = true
	}

	out := ComplianceAssessment{VendorID: vendor.VendorID}
	evidence := make(map[string]string, len(req.ComplianceRequirements))
	for _, required := range req.ComplianceRequirements {
		entry, known := lookupFramework(required)
		if !known {
			entry = frameworkEntry{Canonical: strings.ToUpper(strings.TrimSpace(required)), Blocking: true}
		}

		status := FrameworkStatus{Framework: entry.Canonical, Blocking: entry.Blocking}
		switch {
		case certs[entry.Canonical]:
			status.Status = "compliant"
			status.Evidence = "certified"
		case regionCovered(entry, regions):
			status.Status = "compliant"
			status.Evidence = "attested_with_report"
		default:
			status.Status = "missing"
			status.Evidence = "none"
			out.Missing = append(out.Missing, entry.Canonical)
			if entry.Blocking {
				out.Blocking = true
			}
		}
		evidence[required] = status.Evidence
		out.Frameworks = append(out.Frameworks, status)
	}

	out.Score, _ = eval.ComplianceScore(req.ComplianceRequirements, evidence)
	return out
}

func regionCovered(entry frameworkEntry, vendorRegions map[string]bool) bool {
	for _, region := range entry.Regions {
		if vendorRegions[region] {
			return true
		}
	}
	return false
}

// ControlStatus is one row of a risk card.
type ControlStatus struct {
	Control  string `json:"control"`
	Status   string `json:"status"`
	Blocking bool   `json:"blocking"`
}

// RiskCard summarizes a vendor's compliance and risk posture for a request.
type RiskCard struct {
	VendorID         string          `json:"vendor_id"`
	Controls         []ControlStatus `json:"controls,omitempty"`
	BlockingBreaches []string        `json:"blocking_breaches,omitempty"`
	RiskLevel        types.RiskLevel `json:"risk_level"`
}

// BuildRiskCard assembles the per-control statuses and blocking breach flags.
func (s *ComplianceService) BuildRiskCard(req *types.Request, vendor *types.VendorProfile) RiskCard {
	assessment := s.AssessVendor(req, vendor)
	card := RiskCard{VendorID: vendor.VendorID, RiskLevel: vendor.RiskLevel}
	for _, f := range assessment.Frameworks {
		card.Controls = append(card.Controls, ControlStatus{
			Control:  f.Framework,
			Status:   f.Status,
			Blocking: f.Blocking,
		})
		if f.Status == "missing" && f.Blocking {
			card.BlockingBreaches = append(card.BlockingBreaches, f.Framework)
		}
	}
	if vendor.RiskLevel == types.RiskHigh {
		card.Controls = append(card.Controls, ControlStatus{Control: "vendor_risk_level", Status: "elevated", Blocking: false})
	}
	return card
}
