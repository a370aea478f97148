package types

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// PaymentTerms enumerate the supported invoice schedules.
type PaymentTerms string

const (
	PaymentNet15      PaymentTerms = "Net15"
	PaymentNet30      PaymentTerms = "Net30"
	PaymentNet45      PaymentTerms = "Net45"
	PaymentMilestones PaymentTerms = "Milestones"
	PaymentDeposit    PaymentTerms = "Deposit"
)

// PaymentDays returns the nominal days-to-cash for the given terms, used by
// present-value payment math. Milestones and Deposit settle faster than Net30.
func PaymentDays(terms PaymentTerms) int {
	switch terms {
	case PaymentNet15:
		return 15
	case PaymentNet30:
		return 30
	case PaymentNet45:
		return 45
	case PaymentMilestones:
		return 20
	case PaymentDeposit:
		return 10
	default:
		return 30
	}
}

// OfferComponents is the negotiable bundle: price, term, payment schedule,
// fees/credits, and value-adds evaluated as a single offer.
type OfferComponents struct {
	UnitPrice    float64      `json:"unit_price"`
	Currency     string       `json:"currency"`
	Quantity     int          `json:"quantity"`
	TermMonths   int          `json:"term_months"`
	PaymentTerms PaymentTerms `json:"payment_terms"`
	// OneTimeFees maps a label to a signed dollar amount: positive is a fee,
	// negative is a credit.
	OneTimeFees     map[string]float64 `json:"one_time_fees,omitempty"`
	ValueAdds       []string           `json:"value_adds,omitempty"`
	WarrantySupport string             `json:"warranty_support,omitempty"`
	Exclusions      []string           `json:"exclusions,omitempty"`
	Notes           string             `json:"notes,omitempty"`
}

// Validate checks the structural invariants of offer components.
func (c OfferComponents) Validate() error {
	if c.UnitPrice <= 0 {
		return fmt.Errorf("offer: unit_price must be positive, got %.2f", c.UnitPrice)
	}
	if c.TermMonths <= 0 {
		return fmt.Errorf("offer: term_months must be positive, got %d", c.TermMonths)
	}
	if c.Quantity <= 0 {
		return fmt.Errorf("offer: quantity must be positive, got %d", c.Quantity)
	}
	return nil
}

// Clone returns a deep copy (maps and slices are not shared).
func (c OfferComponents) Clone() OfferComponents {
	out := c
	if c.OneTimeFees != nil {
		out.OneTimeFees = make(map[string]float64, len(c.OneTimeFees))
		for k, v := range c.OneTimeFees {
			out.OneTimeFees[k] = v
		}
	}
	out.ValueAdds = append([]string(nil), c.ValueAdds...)
	out.Exclusions = append([]string(nil), c.Exclusions...)
	return out
}

// OfferScore is the deterministic evaluation attached to an offer.
type OfferScore struct {
	SpecMatch       float64  `json:"spec_match"`
	TCONorm         float64  `json:"tco_norm"`
	Risk            float64  `json:"risk"`
	Time            float64  `json:"time"`
	Utility         float64  `json:"utility"`
	MatchedFeatures []string `json:"matched_features,omitempty"`
	MissingFeatures []string `json:"missing_features,omitempty"`
}

// Offer is a scored offer appended to a vendor's negotiation history.
type Offer struct {
	OfferID    string          `json:"offer_id"`
	RequestID  string          `json:"request_id"`
	VendorID   string          `json:"vendor_id"`
	Actor      Actor           `json:"actor"`
	Round      int             `json:"round"`
	Components OfferComponents `json:"components"`
	Score      OfferScore      `json:"score"`
	Confidence float64         `json:"confidence"`
	Accepted   bool            `json:"accepted"`
}

// NewOfferID returns a fresh offer identifier.
func NewOfferID() string {
	return "off-" + uuid.NewString()[:8]
}

// Actor identifies which side of the table produced a move.
type Actor string

const (
	ActorBuyer  Actor = "buyer"
	ActorSeller Actor = "seller"
)

// Round2 rounds to 2 decimals (cents). Money math throughout the engine is
// rounded at every mutation so drift never accumulates.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
