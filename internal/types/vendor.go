package types

import "fmt"

// RiskLevel is the coarse vendor risk label.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "med"
	RiskHigh   RiskLevel = "high"
)

// Guardrails are the vendor-declared hard limits a seller agent never crosses.
type Guardrails struct {
	PriceFloor          float64        `json:"price_floor"`
	NonNegotiables      []string       `json:"non_negotiables,omitempty"`
	PaymentTermsAllowed []PaymentTerms `json:"payment_terms_allowed,omitempty"`
	ResponseWindowHours int            `json:"response_window_hours,omitempty"`
}

// AllowsPayment reports whether the given payment terms are acceptable to the
// vendor. An empty allow-list means no restriction.
func (g Guardrails) AllowsPayment(terms PaymentTerms) bool {
	if len(g.PaymentTermsAllowed) == 0 {
		return true
	}
	for _, t := range g.PaymentTermsAllowed {
		if t == terms {
			return true
		}
	}
	return false
}

// ExchangePolicy declares the vendor's deterministic rates for converting
// term, payment, and value-add levers into price discounts.
type ExchangePolicy struct {
	// TermTrade maps added months to a fractional discount (e.g. 12 -> 0.05).
	TermTrade map[int]float64 `json:"term_trade,omitempty"`
	// PaymentTrade maps payment terms to a fractional discount. Negative values
	// are premiums for slower payment.
	PaymentTrade map[PaymentTerms]float64 `json:"payment_trade,omitempty"`
	// ValueAddOffsets maps value-add labels to a per-seat dollar credit.
	ValueAddOffsets map[string]float64 `json:"value_add_offsets,omitempty"`

	MinStepAbs         float64 `json:"min_step_abs"`
	FinalizeGapAbs     float64 `json:"finalize_gap_abs"`
	FinalizeGapPct     float64 `json:"finalize_gap_pct"`
	CloseExtraDiscount float64 `json:"close_extra_discount"`
	MaxRounds          int     `json:"max_rounds"`
}

// DefaultExchangePolicy returns the exchange policy used when a vendor record
// does not declare one.
func DefaultExchangePolicy() ExchangePolicy {
	return ExchangePolicy{
		TermTrade:          map[int]float64{12: 0.05, 24: 0.08},
		PaymentTrade:       map[PaymentTerms]float64{PaymentNet15: 0.02, PaymentNet30: 0, PaymentNet45: -0.01},
		ValueAddOffsets:    map[string]float64{"onboarding": 5, "premium-support": 8},
		MinStepAbs:         10,
		FinalizeGapAbs:     25,
		FinalizeGapPct:     0.02,
		CloseExtraDiscount: 0.01,
		MaxRounds:          8,
	}
}

// Validate checks the exchange-policy invariants.
func (p ExchangePolicy) Validate() error {
	for months := range p.TermTrade {
		if months <= 0 {
			return fmt.Errorf("exchange policy: term_trade months must be positive, got %d", months)
		}
	}
	for terms, pct := range p.PaymentTrade {
		if pct <= -0.25 || pct >= 0.25 {
			return fmt.Errorf("exchange policy: payment_trade[%s]=%.3f outside (-0.25, 0.25)", terms, pct)
		}
	}
	if p.MinStepAbs <= 0 {
		return fmt.Errorf("exchange policy: min_step_abs must be positive, got %.2f", p.MinStepAbs)
	}
	return nil
}

// PaymentOffset returns the payment-trade discount for the given terms (0 when
// the policy has no entry).
func (p ExchangePolicy) PaymentOffset(terms PaymentTerms) float64 {
	return p.PaymentTrade[terms]
}

// ReliabilityStats summarizes vendor service levels used by SLA scoring.
type ReliabilityStats struct {
	SLAPct      float64 `json:"sla_pct"`
	SupportTier string  `json:"support_tier,omitempty"`
}

// VendorProfile is the read-only description of a shortlisted vendor.
// Immutable during a run; shared across workers.
type VendorProfile struct {
	VendorID         string            `json:"vendor_id"`
	Name             string            `json:"name"`
	Category         string            `json:"category"`
	CapabilityTags   []string          `json:"capability_tags,omitempty"`
	Certifications   []string          `json:"certifications,omitempty"`
	Regions          []string          `json:"regions,omitempty"`
	PriceTiers       map[int]float64   `json:"price_tiers,omitempty"`
	Guardrails       Guardrails        `json:"guardrails"`
	Exchange         ExchangePolicy    `json:"exchange_policy"`
	Reliability      ReliabilityStats  `json:"reliability_stats"`
	RiskLevel        RiskLevel         `json:"risk_level"`
	BillingCadence   string            `json:"billing_cadence,omitempty"`
	ContactEndpoints map[string]string `json:"contact_endpoints,omitempty"`
	// BehaviorProfile biases the simulated seller (e.g. "aggressive", "cooperative").
	BehaviorProfile string `json:"behavior_profile,omitempty"`
}

// ListPriceFor returns the tiered unit list price for the given quantity:
// the tier with the largest minimum quantity not exceeding qty. Falls back to
// the smallest tier when qty is below all tiers.
func (v *VendorProfile) ListPriceFor(qty int) float64 {
	if len(v.PriceTiers) == 0 {
		return 0
	}
	bestQty := -1
	bestPrice := 0.0
	minQty := -1
	minPrice := 0.0
	for tier, price := range v.PriceTiers {
		if minQty < 0 || tier < minQty {
			minQty, minPrice = tier, price
		}
		if tier <= qty && tier > bestQty {
			bestQty, bestPrice = tier, price
		}
	}
	if bestQty < 0 {
		return minPrice
	}
	return bestPrice
}

// PriceFloor is a convenience accessor for the vendor guardrail floor.
func (v *VendorProfile) PriceFloor() float64 {
	return v.Guardrails.PriceFloor
}
