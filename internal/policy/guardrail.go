package policy

import (
	"fmt"
	"math"

	"procur/internal/config"
	"procur/internal/types"
)

// Contact endpoint keys consulted by guardrail checks.
const (
	endpointBankAccount   = "bank_account"
	endpointDepositPolicy = "deposit_policy"
)

// GuardrailService runs stateless risk checks on (vendor, offer) pairs.
type GuardrailService struct {
	cfg *config.Config
}

// NewGuardrailService creates a guardrail service bound to the given config.
func NewGuardrailService(cfg *config.Config) *GuardrailService {
	return &GuardrailService{cfg: cfg}
}

// Check returns guardrail findings for the offer. Blocking findings abort the
// offer; non-blocking ones are recorded on the move.
func (g *GuardrailService) Check(vendor *types.VendorProfile, offer types.OfferComponents) []Violation {
	var alerts []Violation

	// Counterparty verification only matters against real sellers.
	if g.cfg.RunMode == config.RunModeProduction {
		if _, ok := vendor.ContactEndpoints[endpointBankAccount]; !ok {
			alerts = append(alerts, Violation{
				Code:     "missing_bank_verification",
				Message:  fmt.Sprintf("vendor %s has no verified bank account on file", vendor.VendorID),
				Blocking: false,
			})
		}
	}

	if tier := vendor.ListPriceFor(offer.Quantity); tier > 0 {
		deviation := math.Abs(offer.UnitPrice-tier) / tier
		if deviation > g.cfg.PriceOutlierThreshold {
			alerts = append(alerts, Violation{
				Code:     "price_outlier",
				Message:  fmt.Sprintf("unit price %.2f deviates %.0f%% from tier price %.2f", offer.UnitPrice, deviation*100, tier),
				Blocking: false,
			})
		}
	}

	if offer.PaymentTerms == types.PaymentDeposit {
		if _, ok := vendor.ContactEndpoints[endpointDepositPolicy]; !ok {
			alerts = append(alerts, Violation{
				Code:     "deposit_terms_unverified",
				Message:  fmt.Sprintf("vendor %s offers Deposit terms without a published deposit policy", vendor.VendorID),
				Blocking: true,
			})
		}
	}

	return alerts
}

// HasBlocking reports whether any finding in the list blocks.
func HasBlocking(violations []Violation) bool {
	for _, v := range violations {
		if v.Blocking {
			return true
		}
	}
	return false
}

// NotesOf renders findings as short audit note strings.
func NotesOf(violations []Violation) []string {
	var notes []string
	for _, v := range violations {
		notes = append(notes, v.Code+": "+v.Message)
	}
	return notes
}
