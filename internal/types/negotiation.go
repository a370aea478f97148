package types

// Lever is a negotiable dimension traded against price.
type Lever string

const (
	LeverPrice   Lever = "price"
	LeverTerm    Lever = "term"
	LeverPayment Lever = "payment"
	LeverValue   Lever = "value"
)

// Decision is the buyer's next-move choice after a round.
type Decision string

const (
	DecisionAccept      Decision = "accept"
	DecisionCounter     Decision = "counter"
	DecisionRequestInfo Decision = "request_info"
	DecisionDrop        Decision = "drop"
)

// FSMState is the per-vendor negotiation lifecycle state.
type FSMState string

const (
	StateInit           FSMState = "init"
	StateNegotiating    FSMState = "negotiating"
	StateReplanRequired FSMState = "replan_required"
	StateNoZOPA         FSMState = "no_zopa"
	StateAccepted       FSMState = "accepted"
	StateDropped        FSMState = "dropped"
)

// opponentRingSize bounds the remembered counterparty offers.
const opponentRingSize = 3

// OpponentModel is the buyer's running estimate of the seller's limits and
// responsiveness. Updated after every counterparty move.
type OpponentModel struct {
	PriceFloorEstimate      float64           `json:"price_floor_estimate"`
	PriceCeilingEstimate    float64           `json:"price_ceiling_estimate"`
	PriceElasticity         float64           `json:"price_elasticity"`
	TermElasticity          float64           `json:"term_elasticity"`
	ConsecutiveNoPriceMoves int               `json:"consecutive_no_price_moves"`
	LastOffers              []OfferComponents `json:"last_offers,omitempty"`
}

// PushOffer appends an offer to the bounded ring of remembered moves.
func (m *OpponentModel) PushOffer(c OfferComponents) {
	m.LastOffers = append(m.LastOffers, c.Clone())
	if len(m.LastOffers) > opponentRingSize {
		m.LastOffers = m.LastOffers[len(m.LastOffers)-opponentRingSize:]
	}
}

// LastOffer returns the most recent remembered counterparty offer.
func (m *OpponentModel) LastOffer() (OfferComponents, bool) {
	if len(m.LastOffers) == 0 {
		return OfferComponents{}, false
	}
	return m.LastOffers[len(m.LastOffers)-1], true
}

// NegotiationPlan is the buyer agent's per-vendor playbook, created at
// shortlist time. CurrentStrategy mutates per round.
type NegotiationPlan struct {
	Anchors            map[Lever]float64 `json:"anchors"`
	ConcessionLadder   []Lever           `json:"concession_ladder"`
	StopUtility        float64           `json:"stop_utility"`
	StopRisk           float64           `json:"stop_risk"`
	AllowedConcessions []Lever           `json:"allowed_concessions,omitempty"`
	CurrentStrategy    string            `json:"current_strategy"`
	Exchange           ExchangePolicy    `json:"exchange_policy"`
}

// CompetingOffer is a rival vendor's best price, fed in for price pressure.
type CompetingOffer struct {
	VendorID  string  `json:"vendor_id"`
	UnitPrice float64 `json:"unit_price"`
}

// VendorMatchSummary is the matcher's verdict on a vendor for a request,
// reused by shortlist filtering and per-round scoring.
type VendorMatchSummary struct {
	CategoryMatch      bool     `json:"category_match"`
	InferredCategory   string   `json:"inferred_category,omitempty"`
	FeatureScore       float64  `json:"feature_score"`
	MatchedFeatures    []string `json:"matched_features,omitempty"`
	MissingFeatures    []string `json:"missing_features,omitempty"`
	ComplianceScore    float64  `json:"compliance_score"`
	ComplianceBlocking bool     `json:"compliance_blocking"`
	MissingCompliance  []string `json:"missing_compliance,omitempty"`
	SLAScore           float64  `json:"sla_score"`
	PriceFit           float64  `json:"price_fit"`
	Composite          float64  `json:"composite"`
	Reasons            []string `json:"reasons,omitempty"`
}

// VendorNegotiationState is the single mutable record for one (request, vendor)
// workflow. Owned by exactly one buyer-agent loop.
type VendorNegotiationState struct {
	Vendor          *VendorProfile      `json:"-"`
	VendorID        string              `json:"vendor_id"`
	RequestID       string              `json:"request_id"`
	Round           int                 `json:"round"`
	BestOffer       *Offer              `json:"best_offer,omitempty"`
	Active          bool                `json:"active"`
	ConcessionIndex int                 `json:"concession_index"`
	History         []Offer             `json:"history,omitempty"`
	Opponent        OpponentModel       `json:"opponent_model"`
	StalemateRounds int                 `json:"stalemate_rounds"`
	Plan            *NegotiationPlan    `json:"plan,omitempty"`
	State           FSMState            `json:"fsm_state"`
	OutcomeReason   string              `json:"outcome_reason,omitempty"`
	ConcessionNotes []string            `json:"concession_notes,omitempty"`
	MatchSummary    *VendorMatchSummary `json:"match_summary,omitempty"`
	CompetingOffers []CompetingOffer    `json:"competing_offers,omitempty"`
}

// AppendOffer records an offer in the history and refreshes BestOffer
// (highest buyer utility wins).
func (s *VendorNegotiationState) AppendOffer(o Offer) {
	s.History = append(s.History, o)
	if s.BestOffer == nil || o.Score.Utility > s.BestOffer.Score.Utility {
		cp := o
		s.BestOffer = &cp
	}
}

// LastOfferBy returns the most recent offer from the given actor.
func (s *VendorNegotiationState) LastOfferBy(actor Actor) (Offer, bool) {
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Actor == actor {
			return s.History[i], true
		}
	}
	return Offer{}, false
}

// OffersBy returns all offers from the given actor in round order.
func (s *VendorNegotiationState) OffersBy(actor Actor) []Offer {
	var out []Offer
	for _, o := range s.History {
		if o.Actor == actor {
			out = append(out, o)
		}
	}
	return out
}

// CandidateEvaluation is a scored candidate bundle considered in a round.
type CandidateEvaluation struct {
	Offer             OfferComponents `json:"offer"`
	PrimaryLever      Lever           `json:"primary_lever"`
	TCO               float64         `json:"tco"`
	BuyerUtility      float64         `json:"buyer_utility"`
	SellerUtility     float64         `json:"seller_utility,omitempty"`
	AcceptProbability float64         `json:"accept_probability,omitempty"`
	Valid             bool            `json:"valid"`
	PolicyViolations  []string        `json:"policy_violations,omitempty"`
	GuardrailAlerts   []string        `json:"guardrail_alerts,omitempty"`
	Rationale         []string        `json:"rationale,omitempty"`
}
