package catalog

import "procur/internal/types"

// Seed returns the built-in demo vendor set: three CRM vendors with distinct
// pricing and temperament, plus one analytics and one HR vendor so category
// inference has something to filter.
func Seed() []*types.VendorProfile {
	return []*types.VendorProfile{
		{
			VendorID:       "crm-apex",
			Name:           "Apex CRM",
			Category:       "crm",
			CapabilityTags: []string{"crm", "pipeline-management", "lead-management", "email-sequences", "api", "reporting"},
			Certifications: []string{"SOC2", "ISO27001", "GDPR"},
			Regions:        []string{"US", "EU"},
			PriceTiers:     map[int]float64{1: 1300, 100: 1200, 250: 1150},
			Guardrails: types.Guardrails{
				PriceFloor:          900,
				PaymentTermsAllowed: []types.PaymentTerms{types.PaymentNet15, types.PaymentNet30, types.PaymentNet45},
				ResponseWindowHours: 24,
			},
			Exchange: types.ExchangePolicy{
				TermTrade:          map[int]float64{12: 0.05, 24: 0.08},
				PaymentTrade:       map[types.PaymentTerms]float64{types.PaymentNet15: 0.02, types.PaymentNet45: -0.01},
				ValueAddOffsets:    map[string]float64{"onboarding": 5, "premium-support": 8, "training-credits": 4},
				MinStepAbs:         10,
				FinalizeGapAbs:     25,
				FinalizeGapPct:     0.02,
				CloseExtraDiscount: 0.01,
				MaxRounds:          8,
			},
			Reliability: types.ReliabilityStats{SLAPct: 99.9, SupportTier: "premium"},
			RiskLevel:   types.RiskLow,
			ContactEndpoints: map[string]string{
				"sales":        "sales@apexcrm.example",
				"bank_account": "verified",
			},
			BehaviorProfile: "cooperative",
		},
		{
			VendorID:       "crm-nimbus",
			Name:           "Nimbus Sales Cloud",
			Category:       "crm",
			CapabilityTags: []string{"crm", "pipeline-management", "lead-management", "api"},
			Certifications: []string{"SOC2"},
			Regions:        []string{"US"},
			PriceTiers:     map[int]float64{1: 1250, 100: 1150},
			Guardrails: types.Guardrails{
				PriceFloor:          950,
				PaymentTermsAllowed: []types.PaymentTerms{types.PaymentNet30, types.PaymentNet45},
				ResponseWindowHours: 48,
			},
			Exchange: types.ExchangePolicy{
				TermTrade:          map[int]float64{12: 0.04},
				PaymentTrade:       map[types.PaymentTerms]float64{types.PaymentNet45: -0.015},
				MinStepAbs:         15,
				FinalizeGapAbs:     20,
				FinalizeGapPct:     0.015,
				CloseExtraDiscount: 0.005,
				MaxRounds:          6,
			},
			Reliability: types.ReliabilityStats{SLAPct: 99.5, SupportTier: "business_hours"},
			RiskLevel:   types.RiskMedium,
			ContactEndpoints: map[string]string{
				"sales": "sales@nimbus.example",
			},
			BehaviorProfile: "aggressive",
		},
		{
			VendorID:       "crm-forge",
			Name:           "DealForge",
			Category:       "crm",
			CapabilityTags: []string{"crm", "pipeline-management", "lead-management", "reporting"},
			Certifications: []string{"SOC2", "GDPR"},
			Regions:        []string{"US", "EU"},
			PriceTiers:     map[int]float64{1: 1000, 100: 920},
			Guardrails: types.Guardrails{
				PriceFloor:          850,
				PaymentTermsAllowed: []types.PaymentTerms{types.PaymentNet15, types.PaymentNet30},
				ResponseWindowHours: 12,
			},
			Exchange: types.ExchangePolicy{
				TermTrade:          map[int]float64{12: 0.06, 24: 0.1},
				PaymentTrade:       map[types.PaymentTerms]float64{types.PaymentNet15: 0.025},
				ValueAddOffsets:    map[string]float64{"onboarding": 6},
				MinStepAbs:         10,
				FinalizeGapAbs:     30,
				FinalizeGapPct:     0.025,
				CloseExtraDiscount: 0.01,
				MaxRounds:          8,
			},
			Reliability: types.ReliabilityStats{SLAPct: 99.0, SupportTier: "email_only"},
			RiskLevel:   types.RiskMedium,
			ContactEndpoints: map[string]string{
				"sales":        "deals@dealforge.example",
				"bank_account": "verified",
			},
			BehaviorProfile: "cooperative",
		},
		{
			VendorID:       "insight-bi",
			Name:           "Insight BI",
			Category:       "analytics",
			CapabilityTags: []string{"reporting", "dashboards", "etl", "api"},
			Certifications: []string{"SOC2", "ISO27001"},
			Regions:        []string{"US"},
			PriceTiers:     map[int]float64{1: 800, 50: 740},
			Guardrails: types.Guardrails{
				PriceFloor:          600,
				ResponseWindowHours: 24,
			},
			Reliability:     types.ReliabilityStats{SLAPct: 99.9, SupportTier: "extended"},
			RiskLevel:       types.RiskLow,
			BehaviorProfile: "cooperative",
		},
		{
			VendorID:       "orbit-hr",
			Name:           "Orbit HR",
			Category:       "hr",
			CapabilityTags: []string{"payroll", "benefits", "hris", "api"},
			Certifications: []string{"SOC2", "GDPR"},
			Regions:        []string{"US", "EU"},
			PriceTiers:     map[int]float64{1: 35, 100: 30, 500: 26},
			Guardrails: types.Guardrails{
				PriceFloor:          22,
				PaymentTermsAllowed: []types.PaymentTerms{types.PaymentNet30, types.PaymentNet45},
				ResponseWindowHours: 36,
			},
			Reliability:     types.ReliabilityStats{SLAPct: 99.8, SupportTier: "premium"},
			RiskLevel:       types.RiskLow,
			BehaviorProfile: "cooperative",
		},
	}
}
