package config

import "time"

// RunMode toggles counterparty-verification guardrails.
type RunMode string

const (
	// RunModeSimulation skips counterparty bank verification (local sellers).
	RunModeSimulation RunMode = "simulation"
	// RunModeProduction enables all counterparty checks.
	RunModeProduction RunMode = "production"
)

// ScoringWeights weight the composite offer score used for presentation.
type ScoringWeights struct {
	Value float64 `json:"value"`
	Cost  float64 `json:"cost"`
	Risk  float64 `json:"risk"`
	Time  float64 `json:"time"`
}

// Config holds the runtime tuning of the negotiation core (in-memory representation).
// The engine owns an instance; there are no package-level mutable knobs.
type Config struct {
	// BuyerAcceptThreshold is the minimum buyer utility required to close.
	BuyerAcceptThreshold float64 `json:"buyer_accept_threshold"`
	// SellerAcceptThreshold is the minimum seller utility required to close.
	SellerAcceptThreshold float64 `json:"seller_accept_threshold"`
	// MaxStalledRounds is the stalemate trigger (rounds with negligible movement).
	MaxStalledRounds int `json:"max_stalled_rounds"`
	// PriceOutlierThreshold is the relative deviation from the vendor price tier
	// that raises a price_outlier guardrail alert.
	PriceOutlierThreshold float64 `json:"price_outlier_threshold"`
	// DiscountRate is the annual rate used for present-value payment-term math.
	DiscountRate float64 `json:"discount_rate"`

	ScoringWeights ScoringWeights `json:"scoring_weights"`

	RunMode RunMode `json:"run_mode"`

	// MaxRounds caps rounds per vendor when the vendor's exchange policy does not.
	MaxRounds int `json:"max_rounds"`

	// ProposalTimeout bounds a single proposal-generator call.
	ProposalTimeout time.Duration `json:"proposal_timeout"`
	// ProposalRetries is the retry count for proposal-generator failures.
	ProposalRetries int `json:"proposal_retries"`
	// RoundWallClock is the per-round share of the negotiation wall-clock ceiling.
	RoundWallClock time.Duration `json:"round_wall_clock"`

	// TopN is the default shortlist size.
	TopN int `json:"top_n"`
}

// Default returns a Config with the documented defaults.
func Default() *Config {
	return &Config{
		BuyerAcceptThreshold:  0.75,
		SellerAcceptThreshold: 0.10,
		MaxStalledRounds:      3,
		PriceOutlierThreshold: 0.30,
		DiscountRate:          0.12,
		ScoringWeights: ScoringWeights{
			Value: 0.4,
			Cost:  0.3,
			Risk:  0.2,
			Time:  0.1,
		},
		RunMode:         RunModeSimulation,
		MaxRounds:       8,
		ProposalTimeout: 60 * time.Second,
		ProposalRetries: 3,
		RoundWallClock:  90 * time.Second,
		TopN:            5,
	}
}
