package types

import "fmt"

// MachineRationale is the structured, machine-checkable part of a message.
type MachineRationale struct {
	ScoreComponents      map[string]float64 `json:"score_components,omitempty"`
	ConstraintsRespected []string           `json:"constraints_respected,omitempty"`
	ConcessionTaken      string             `json:"concession_taken,omitempty"`
}

// NegotiationMessage is the wire schema exchanged with the proposal generator.
type NegotiationMessage struct {
	Actor                string           `json:"actor"`
	Round                int              `json:"round"`
	Proposal             OfferComponents  `json:"proposal"`
	JustificationBullets []string         `json:"justification_bullets,omitempty"`
	MachineRationale     MachineRationale `json:"machine_rationale"`
	NextStepHint         string           `json:"next_step_hint,omitempty"`
}

// Validate checks the message against the wire contract.
func (m *NegotiationMessage) Validate() error {
	switch m.Actor {
	case "buyer_agent", "seller_agent":
	default:
		return fmt.Errorf("message: unknown actor %q", m.Actor)
	}
	if m.Round < 0 {
		return fmt.Errorf("message: negative round %d", m.Round)
	}
	if err := m.Proposal.Validate(); err != nil {
		return fmt.Errorf("message proposal: %w", err)
	}
	switch m.NextStepHint {
	case "", "accept", "counter", "request_info", "escalate":
	default:
		return fmt.Errorf("message: unknown next_step_hint %q", m.NextStepHint)
	}
	return nil
}
