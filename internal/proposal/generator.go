package proposal

import (
	"context"

	"procur/internal/types"
)

// Clarification is an intake question for a missing required field.
type Clarification struct {
	Field    string `json:"field"`
	Question string `json:"question"`
	Required bool   `json:"required"`
}

// VendorContext is the negotiation context handed to the generator for one
// proposal. Snapshots only; the generator never mutates engine state.
type VendorContext struct {
	VendorID        string                 `json:"vendor_id"`
	VendorName      string                 `json:"vendor_name"`
	ListPrice       float64                `json:"list_price"`
	Strategy        string                 `json:"strategy"`
	Round           int                    `json:"round"`
	LastSellerOffer *types.OfferComponents `json:"last_seller_offer,omitempty"`
	BestUtility     float64                `json:"best_utility"`
	// Exemplars are compact prior-negotiation contexts from retrieval.
	Exemplars []string `json:"exemplars,omitempty"`
}

// Generator produces structured requests from free text and buyer
// counter-proposals during negotiation. Implementations may be model-backed
// or fully deterministic; the negotiation loop behaves identically with either.
type Generator interface {
	// Intake structures a raw request. When required fields are missing it
	// returns the clarification questions and a nil request.
	Intake(ctx context.Context, rawText, policySummary string) (*types.Request, []Clarification, error)

	// Propose produces the buyer's message for a round, anchored on the
	// engine-chosen bundle. Implementations must return a message whose
	// proposal passes types.NegotiationMessage.Validate.
	Propose(ctx context.Context, req *types.Request, vctx VendorContext, bundle types.OfferComponents) (*types.NegotiationMessage, error)
}
