package audit

import (
	"fmt"

	"procur/internal/types"
)

// ScenarioTags derives the retrieval tags for a negotiation: category,
// quantity bucket, must-have tags, and a budget-tightness bucket relative to
// the vendor's list price.
func ScenarioTags(req *types.Request, listPrice float64) []string {
	tags := []string{"type:" + string(req.Type)}
	if req.Category != "" {
		tags = append(tags, "category:"+req.Category)
	}

	switch {
	case req.Quantity < 50:
		tags = append(tags, "qty:small")
	case req.Quantity < 250:
		tags = append(tags, "qty:medium")
	default:
		tags = append(tags, "qty:large")
	}

	for _, f := range req.MustHaves {
		tags = append(tags, "must:"+f)
	}

	if listPrice > 0 {
		ratio := req.BudgetPerUnit() / listPrice
		switch {
		case ratio < 0.8:
			tags = append(tags, "budget:tight")
		case ratio < 1.1:
			tags = append(tags, "budget:fit")
		default:
			tags = append(tags, "budget:roomy")
		}
	}
	return tags
}

// StartedEvent builds the event opening a vendor negotiation on the
// per-request stream.
func StartedEvent(requestID, vendorID string, listPrice float64) types.Event {
	return types.Event{
		RequestID: requestID,
		VendorID:  vendorID,
		Kind:      "vendor.negotiation_started",
		Fields: map[string]any{
			"list_price": fmt.Sprintf("%.2f", listPrice),
		},
	}
}

// OutcomeEvent builds the standard finalize event for a vendor negotiation.
func OutcomeEvent(requestID, vendorID, outcome, reason string, savings float64) types.Event {
	return types.Event{
		RequestID: requestID,
		VendorID:  vendorID,
		Kind:      "vendor.negotiation_finished",
		Fields: map[string]any{
			"outcome": outcome,
			"reason":  reason,
			"savings": fmt.Sprintf("%.2f", savings),
		},
	}
}
