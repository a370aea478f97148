package proposal

import (
	"context"
	"errors"
	"strings"
	"testing"

	"procur/internal/types"
)

// scriptedClient replays canned completions in order.
type scriptedClient struct {
	replies []string
	err     error
	calls   int
}

func (c *scriptedClient) Complete(ctx context.Context, prompt string) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	if len(c.replies) == 0 {
		return "", errors.New("script exhausted")
	}
	r := c.replies[0]
	c.replies = c.replies[1:]
	return r, nil
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"{\"a\":1}", "{\"a\":1}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"Here you go:\n{\"a\":1}\nHope that helps.", "{\"a\":1}"},
	}
	for _, c := range cases {
		if got := extractJSON(c.in); got != c.want {
			t.Fatalf("extractJSON(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

const validMessageJSON = `{
  "actor": "seller_agent",
  "round": 99,
  "proposal": {"unit_price": 1100, "currency": "USD", "quantity": 100, "term_months": 12, "payment_terms": "Net30"},
  "justification_bullets": ["holding firm"],
  "next_step_hint": "counter"
}`

func TestModelPropose_ParsesAndPinsIdentity(t *testing.T) {
	g := NewModelGenerator(&scriptedClient{replies: []string{validMessageJSON}})
	msg, err := g.Propose(context.Background(), &types.Request{}, VendorContext{Round: 3, VendorName: "Acme"}, types.OfferComponents{})
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	// Actor and round come from the engine context, not the model reply.
	if msg.Actor != "buyer_agent" || msg.Round != 3 {
		t.Fatalf("actor/round = %s/%d, want buyer_agent/3", msg.Actor, msg.Round)
	}
	if msg.Proposal.UnitPrice != 1100 {
		t.Fatalf("proposal price = %.2f", msg.Proposal.UnitPrice)
	}
}

func TestModelPropose_RetriesOnGarbage(t *testing.T) {
	client := &scriptedClient{replies: []string{"not json", "```json\n" + validMessageJSON + "\n```"}}
	g := NewModelGenerator(client)
	msg, err := g.Propose(context.Background(), &types.Request{}, VendorContext{Round: 1}, types.OfferComponents{})
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if client.calls != 2 {
		t.Fatalf("calls = %d, want 2", client.calls)
	}
	if msg.Proposal.UnitPrice != 1100 {
		t.Fatalf("proposal price = %.2f", msg.Proposal.UnitPrice)
	}
}

func TestModelPropose_FailsAfterRetries(t *testing.T) {
	g := NewModelGenerator(&scriptedClient{replies: []string{"nope", "nope", "nope"}})
	_, err := g.Propose(context.Background(), &types.Request{}, VendorContext{}, types.OfferComponents{})
	if err == nil {
		t.Fatal("want error after exhausting retries")
	}
	if !strings.Contains(err.Error(), "model generator failed") {
		t.Fatalf("err = %v", err)
	}
}

func TestModelIntake_FallsBackOnClientError(t *testing.T) {
	g := NewModelGenerator(&scriptedClient{err: errors.New("upstream down")})
	req, clar, err := g.Intake(context.Background(), "CRM for 100 seats, budget $120k, SOC2", "")
	if err != nil {
		t.Fatalf("Intake: %v", err)
	}
	if len(clar) != 0 {
		t.Fatalf("clarifications = %v", clar)
	}
	if req.Quantity != 100 || req.BudgetMax != 120000 {
		t.Fatalf("fallback parse = qty %d budget %.0f", req.Quantity, req.BudgetMax)
	}
}

func TestModelIntake_ParsesModelReply(t *testing.T) {
	reply := `{"type": "saas", "quantity": 40, "budget_max": 60000, "currency": "EUR", "must_haves": ["crm"], "description": "CRM fuer den Vertrieb"}`
	g := NewModelGenerator(&scriptedClient{replies: []string{reply}})
	req, clar, err := g.Intake(context.Background(), "CRM fuer den Vertrieb, 40 Nutzer, 60000 EUR", "")
	if err != nil {
		t.Fatalf("Intake: %v", err)
	}
	if len(clar) != 0 {
		t.Fatalf("clarifications = %v", clar)
	}
	if req.Quantity != 40 || req.BudgetMax != 60000 || req.Currency != "EUR" {
		t.Fatalf("req = %+v", req)
	}
	if req.RequestID == "" || req.Status != types.RequestIntake {
		t.Fatalf("id/status = %q/%s", req.RequestID, req.Status)
	}
}

func TestModelIntake_AsksClarificationsFromModelReply(t *testing.T) {
	reply := `{"type": "saas", "budget_max": 60000, "description": "CRM"}`
	g := NewModelGenerator(&scriptedClient{replies: []string{reply}})
	req, clar, err := g.Intake(context.Background(), "some crm", "")
	if err != nil {
		t.Fatalf("Intake: %v", err)
	}
	if req != nil {
		t.Fatal("request should be nil while clarifications are open")
	}
	if len(clar) != 1 || clar[0].Field != "quantity" {
		t.Fatalf("clarifications = %v", clar)
	}
}
