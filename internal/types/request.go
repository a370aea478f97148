package types

import (
	"fmt"

	"github.com/google/uuid"
)

// RequestType distinguishes software subscriptions from physical goods.
type RequestType string

const (
	RequestSaaS  RequestType = "saas"
	RequestGoods RequestType = "goods"
)

// RequestStatus is the lifecycle state of a procurement request.
type RequestStatus string

const (
	RequestIntake      RequestStatus = "intake"
	RequestNegotiating RequestStatus = "negotiating"
	RequestCompleted   RequestStatus = "completed"
	RequestFailed      RequestStatus = "failed"
)

// PolicyContext carries the requester-side spend policy attached to a request.
type PolicyContext struct {
	BudgetCap     float64  `json:"budget_cap"`
	RiskThreshold float64  `json:"risk_threshold"`
	ApprovalChain []string `json:"approval_chain,omitempty"`
}

// Request is a structured procurement request produced by intake.
// Immutable during a run except Status and Policy.
type Request struct {
	RequestID              string         `json:"request_id"`
	RequesterID            string         `json:"requester_id"`
	Type                   RequestType    `json:"type"`
	Description            string         `json:"description"`
	Category               string         `json:"category,omitempty"`
	Specs                  map[string]any `json:"specs,omitempty"`
	Quantity               int            `json:"quantity"`
	BudgetMin              float64        `json:"budget_min,omitempty"`
	BudgetMax              float64        `json:"budget_max,omitempty"`
	Currency               string         `json:"currency"`
	MustHaves              []string       `json:"must_haves,omitempty"`
	NiceToHaves            []string       `json:"nice_to_haves,omitempty"`
	ComplianceRequirements []string       `json:"compliance_requirements,omitempty"`
	BillingCadence         string         `json:"billing_cadence,omitempty"`
	Policy                 PolicyContext  `json:"policy_context"`
	Status                 RequestStatus  `json:"status"`
}

// NewRequestID returns a fresh request identifier.
func NewRequestID() string {
	return "req-" + uuid.NewString()[:8]
}

// Validate checks the structural invariants of a request.
func (r *Request) Validate() error {
	if r.Quantity <= 0 {
		return fmt.Errorf("request %s: quantity must be positive, got %d", r.RequestID, r.Quantity)
	}
	if r.BudgetMin > 0 && r.BudgetMax > 0 && r.BudgetMin > r.BudgetMax {
		return fmt.Errorf("request %s: budget_min %.2f exceeds budget_max %.2f", r.RequestID, r.BudgetMin, r.BudgetMax)
	}
	return nil
}

// BudgetPerUnit is the per-unit budget derived from BudgetMax and Quantity.
func (r *Request) BudgetPerUnit() float64 {
	if r.Quantity <= 0 || r.BudgetMax <= 0 {
		return 0
	}
	return r.BudgetMax / float64(r.Quantity)
}

// SpecFloat reads a numeric value from the free-form specs map.
func (r *Request) SpecFloat(key string) (float64, bool) {
	v, ok := r.Specs[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// SpecString reads a string value from the free-form specs map.
func (r *Request) SpecString(key string) (string, bool) {
	v, ok := r.Specs[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// SetSpec writes a value into the specs map, allocating it if needed.
func (r *Request) SetSpec(key string, value any) {
	if r.Specs == nil {
		r.Specs = make(map[string]any)
	}
	r.Specs[key] = value
}
