package proposal

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"procur/internal/types"
)

// ModelClient is the single capability a hosted language model must expose.
// The core never references a model vendor directly.
type ModelClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// maxParseRetries is how many times a schema-invalid model reply is re-asked
// before the caller falls back to the deterministic path.
const maxParseRetries = 2

// ModelGenerator is the model-backed Generator: it prompts a ModelClient and
// parses strict JSON against the wire schema, retrying on validation failure.
type ModelGenerator struct {
	client   ModelClient
	fallback *Deterministic
}

// NewModelGenerator creates a model-backed generator with a deterministic
// intake fallback.
func NewModelGenerator(client ModelClient) *ModelGenerator {
	return &ModelGenerator{client: client, fallback: NewDeterministic()}
}

// extractJSON trims code fences and surrounding prose from a model reply.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+3:]
		s = strings.TrimPrefix(s, "json")
		if j := strings.Index(s, "```"); j >= 0 {
			s = s[:j]
		}
	}
	if i := strings.IndexByte(s, '{'); i > 0 {
		s = s[i:]
	}
	if j := strings.LastIndexByte(s, '}'); j >= 0 && j < len(s)-1 {
		s = s[:j+1]
	}
	return strings.TrimSpace(s)
}

// Intake asks the model to structure the raw request; on parse failure it
// degrades to the deterministic parser rather than failing intake outright.
func (g *ModelGenerator) Intake(ctx context.Context, rawText, policySummary string) (*types.Request, []Clarification, error) {
	prompt := fmt.Sprintf(
		"Structure this procurement request as JSON with fields request_id, type, quantity, budget_max, currency, must_haves, compliance_requirements, description.\nPolicy: %s\nRequest: %s\nReply with JSON only.",
		policySummary, rawText)

	for attempt := 0; attempt <= maxParseRetries; attempt++ {
		raw, err := g.client.Complete(ctx, prompt)
		if err != nil {
			return g.fallback.Intake(ctx, rawText, policySummary)
		}
		var req types.Request
		if err := json.Unmarshal([]byte(extractJSON(raw)), &req); err != nil {
			continue
		}
		if req.RequestID == "" {
			req.RequestID = types.NewRequestID()
		}
		if req.Currency == "" {
			req.Currency = "USD"
		}
		req.Status = types.RequestIntake
		if req.Description == "" {
			req.Description = strings.TrimSpace(rawText)
		}

		var clarifications []Clarification
		if req.Quantity <= 0 {
			clarifications = append(clarifications, Clarification{Field: "quantity", Question: "How many seats or units do you need?", Required: true})
		}
		if req.BudgetMax <= 0 {
			clarifications = append(clarifications, Clarification{Field: "budget_max", Question: "What is the maximum budget for this purchase?", Required: true})
		}
		if len(clarifications) > 0 {
			return nil, clarifications, nil
		}
		return &req, nil, nil
	}
	return g.fallback.Intake(ctx, rawText, policySummary)
}

// Propose prompts the model for a negotiation message and validates it against
// the wire schema. After maxParseRetries schema failures it returns an error;
// the buyer agent then substitutes the deterministic bundle.
func (g *ModelGenerator) Propose(ctx context.Context, req *types.Request, vctx VendorContext, bundle types.OfferComponents) (*types.NegotiationMessage, error) {
	anchor, _ := json.Marshal(bundle)
	var exemplars string
	if len(vctx.Exemplars) > 0 {
		exemplars = "Prior similar negotiations:\n" + strings.Join(vctx.Exemplars, "\n")
	}
	prompt := fmt.Sprintf(
		"You are the buyer agent negotiating with %s (round %d, strategy %s).\n%s\nAnchor bundle: %s\nReply with a single JSON object matching the negotiation message schema (actor, round, proposal, justification_bullets, machine_rationale, next_step_hint). JSON only.",
		vctx.VendorName, vctx.Round, vctx.Strategy, exemplars, anchor)

	var lastErr error
	for attempt := 0; attempt <= maxParseRetries; attempt++ {
		raw, err := g.client.Complete(ctx, prompt)
		if err != nil {
			lastErr = err
			continue
		}
		var msg types.NegotiationMessage
		if err := json.Unmarshal([]byte(extractJSON(raw)), &msg); err != nil {
			lastErr = fmt.Errorf("parse model reply: %w", err)
			continue
		}
		msg.Actor = "buyer_agent"
		msg.Round = vctx.Round
		if err := msg.Validate(); err != nil {
			lastErr = fmt.Errorf("invalid model message: %w", err)
			continue
		}
		return &msg, nil
	}
	return nil, fmt.Errorf("model generator failed after %d attempts: %w", maxParseRetries+1, lastErr)
}
