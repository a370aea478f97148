package types

import "time"

// UtilitySnapshot captures the utility state attached to an audit move.
type UtilitySnapshot struct {
	BuyerUtility  float64 `json:"buyer_utility"`
	SellerUtility float64 `json:"seller_utility"`
	TCO           float64 `json:"tco"`
}

// MoveLog is the human-readable audit record for a single actor move.
type MoveLog struct {
	Actor           Actor           `json:"actor"`
	Round           int             `json:"round_number"`
	Offer           OfferComponents `json:"offer"`
	Lever           Lever           `json:"lever"`
	Rationale       []string        `json:"rationale,omitempty"`
	Utility         UtilitySnapshot `json:"utility"`
	Decision        Decision        `json:"decision,omitempty"`
	Timestamp       time.Time       `json:"timestamp"`
	PolicyNotes     []string        `json:"policy_notes,omitempty"`
	GuardrailNotes  []string        `json:"guardrail_notes,omitempty"`
	ComplianceNotes []string        `json:"compliance_notes,omitempty"`
}

// RoundLog groups the buyer and seller moves of one round for one vendor.
type RoundLog struct {
	RequestID string    `json:"request_id"`
	VendorID  string    `json:"vendor_id"`
	Round     int       `json:"round_number"`
	Moves     []MoveLog `json:"moves"`
}

// RoundMemory is the structured per-round record kept for retrieval.
type RoundMemory struct {
	RequestID    string                `json:"request_id"`
	VendorID     string                `json:"vendor_id"`
	Round        int                   `json:"round_number"`
	Timestamp    time.Time             `json:"timestamp"`
	Actor        Actor                 `json:"actor"`
	Strategy     string                `json:"strategy"`
	Selected     CandidateEvaluation   `json:"selected"`
	Rejected     []CandidateEvaluation `json:"rejected,omitempty"`
	Decision     Decision              `json:"decision"`
	DeltaUtility float64               `json:"delta_utility"`
	DeltaTCO     float64               `json:"delta_tco"`
}

// NegotiationMemory is the tagged per-vendor memory used by retrieval.
type NegotiationMemory struct {
	RequestID    string        `json:"request_id"`
	VendorID     string        `json:"vendor_id"`
	ScenarioTags []string      `json:"scenario_tags,omitempty"`
	Rounds       []RoundMemory `json:"rounds,omitempty"`
	Outcome      string        `json:"outcome,omitempty"`
	Savings      float64       `json:"savings,omitempty"`
}

// Event is an entry in the per-request audit event stream.
type Event struct {
	RequestID string         `json:"request_id"`
	VendorID  string         `json:"vendor_id,omitempty"`
	Kind      string         `json:"kind"`
	Timestamp time.Time      `json:"timestamp"`
	Fields    map[string]any `json:"fields,omitempty"`
}
