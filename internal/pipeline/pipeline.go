package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"procur/internal/audit"
	"procur/internal/catalog"
	"procur/internal/config"
	"procur/internal/engine"
	"procur/internal/eval"
	"procur/internal/logger"
	"procur/internal/policy"
	"procur/internal/proposal"
	"procur/internal/retrieval"
	"procur/internal/types"
)

const logTag = "pipeline"

// exemplarTopK bounds how many prior-negotiation exemplars feed a proposal.
const exemplarTopK = 3

// Pipeline wires intake, matching, parallel negotiation, and recommendation
// into one run.
type Pipeline struct {
	cfg        *config.Config
	catalog    *catalog.Catalog
	matcher    *engine.Matcher
	pol        *policy.Engine
	guard      *policy.GuardrailService
	compliance *policy.ComplianceService
	gen        proposal.Generator
	trail      *audit.Trail
	memory     *audit.MemoryStore
	index      *retrieval.Index
	clock      types.Clock
}

// Options carries the optional pipeline collaborators; nil fields get
// in-memory defaults.
type Options struct {
	Generator proposal.Generator
	AuditSink audit.Sink
	MemSink   audit.MemorySink
	Index     *retrieval.Index
	Clock     types.Clock
}

// New builds a pipeline over the given catalog.
func New(cfg *config.Config, cat *catalog.Catalog, opts Options) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = types.RealClock{}
	}
	index := opts.Index
	if index == nil {
		var err error
		index, err = retrieval.NewIndex(0)
		if err != nil {
			return nil, err
		}
	}
	gen := opts.Generator
	if gen == nil {
		gen = proposal.NewDeterministic()
	}
	compliance := policy.NewComplianceService()
	return &Pipeline{
		cfg:        cfg,
		catalog:    cat,
		matcher:    engine.NewMatcher(compliance),
		pol:        policy.NewEngine(cfg),
		guard:      policy.NewGuardrailService(cfg),
		compliance: compliance,
		gen:        gen,
		trail:      audit.NewTrail(clock, opts.AuditSink),
		memory:     audit.NewMemoryStore(opts.MemSink),
		index:      index,
		clock:      clock,
	}, nil
}

// Trail exposes the audit trail (for export and persistence hosts).
func (p *Pipeline) Trail() *audit.Trail { return p.trail }

// Memory exposes the memory store.
func (p *Pipeline) Memory() *audit.MemoryStore { return p.memory }

// Index exposes the retrieval index.
func (p *Pipeline) Index() *retrieval.Index { return p.index }

// ShortlistEntry pairs a vendor id with its match summary for result output.
type ShortlistEntry struct {
	VendorID string                   `json:"vendor_id"`
	Name     string                   `json:"name"`
	Summary  types.VendorMatchSummary `json:"summary"`
}

// Recommendation is one ranked pick out of the finished negotiations.
type Recommendation struct {
	Kind     string      `json:"kind"`
	VendorID string      `json:"vendor_id"`
	Offer    types.Offer `json:"offer"`
	TCO      float64     `json:"tco"`
	Savings  float64     `json:"savings"`
	Bullets  []string    `json:"bullets,omitempty"`
}

// Bundle is the keyed presentation form of a recommendation.
type Bundle struct {
	OfferID  string   `json:"offer_id"`
	VendorID string   `json:"vendor_id"`
	Bullets  []string `json:"bullets,omitempty"`
}

// SupportInfo summarizes a vendor's support posture on the run report.
type SupportInfo struct {
	Tier                string  `json:"tier,omitempty"`
	SLAPct              float64 `json:"sla_pct"`
	ResponseWindowHours int     `json:"response_window_hours,omitempty"`
}

// AuditSummary counts the audit footprint of one vendor negotiation.
type AuditSummary struct {
	Rounds int `json:"rounds"`
	Moves  int `json:"moves"`
	Events int `json:"events"`
}

// MemorySummary digests the retrieval memory written for one negotiation.
type MemorySummary struct {
	Outcome      string   `json:"outcome,omitempty"`
	Savings      float64  `json:"savings"`
	Rounds       int      `json:"rounds"`
	ScenarioTags []string `json:"scenario_tags,omitempty"`
}

// VendorReport is the per-vendor block of the run report. Every shortlisted
// vendor gets one, closed deal or not.
type VendorReport struct {
	VendorID         string                 `json:"vendor_id"`
	VendorName       string                 `json:"vendor_name"`
	State            types.FSMState         `json:"state"`
	OutcomeReason    string                 `json:"outcome_reason,omitempty"`
	FinalPrice       float64                `json:"final_price,omitempty"`
	TermMonths       int                    `json:"term_months,omitempty"`
	PaymentTerms     types.PaymentTerms     `json:"payment_terms,omitempty"`
	ComplianceStatus []policy.ControlStatus `json:"compliance_status,omitempty"`
	Support          SupportInfo            `json:"support"`
	BehaviorProfile  string                 `json:"behavior_profile,omitempty"`
	Composite        float64                `json:"composite_score"`
	AuditSummary     AuditSummary           `json:"audit_summary"`
	MemoryLog        MemorySummary          `json:"memory_log"`
}

// Result is the full outcome of one pipeline run.
type Result struct {
	Request         *types.Request            `json:"request"`
	Clarifications  []proposal.Clarification  `json:"clarifications,omitempty"`
	Shortlist       []ShortlistEntry          `json:"shortlist,omitempty"`
	Outcomes        []engine.Outcome          `json:"outcomes,omitempty"`
	Recommendations []Recommendation          `json:"recommendations,omitempty"`
	Bundles         map[string]Bundle         `json:"bundles,omitempty"`
	Vendors         []VendorReport            `json:"vendors,omitempty"`
	Approvals       []string                  `json:"approvals,omitempty"`
	Audit           audit.Export              `json:"audit"`
	Memories        []types.NegotiationMemory `json:"memories,omitempty"`
	Elapsed         time.Duration             `json:"elapsed"`
}

// Intake structures a raw-text request via the proposal generator. A non-empty
// clarification list means the request is incomplete and the run should wait
// for answers.
func (p *Pipeline) Intake(ctx context.Context, rawText, policySummary string) (*types.Request, []proposal.Clarification, error) {
	req, clar, err := p.gen.Intake(ctx, rawText, policySummary)
	if err != nil {
		return nil, nil, fmt.Errorf("intake: %w", err)
	}
	return req, clar, nil
}

// RunText runs the whole pipeline from raw text. Clarification questions
// short-circuit into the result.
func (p *Pipeline) RunText(ctx context.Context, rawText, policySummary string) (*Result, error) {
	req, clar, err := p.Intake(ctx, rawText, policySummary)
	if err != nil {
		return nil, err
	}
	if len(clar) > 0 {
		return &Result{Request: req, Clarifications: clar}, nil
	}
	return p.Run(ctx, req)
}

// Run negotiates a structured request against the catalog: validate, shortlist,
// fan out one buyer loop per vendor, then rank the survivors.
func (p *Pipeline) Run(ctx context.Context, req *types.Request) (*Result, error) {
	start := p.clock.Now()

	if res := p.pol.ValidateRequest(req); !res.Valid {
		req.Status = types.RequestFailed
		return nil, fmt.Errorf("request rejected by policy: %v", res.Notes())
	}
	req.Status = types.RequestNegotiating

	ranked := p.matcher.Shortlist(req, p.catalog.All(), p.cfg.TopN)
	if len(ranked) == 0 {
		req.Status = types.RequestFailed
		return &Result{
			Request: req,
			Audit:   p.trail.ExportByRequest(req.RequestID),
			Elapsed: p.clock.Now().Sub(start),
		}, fmt.Errorf("no vendors matched request %s", req.RequestID)
	}
	logger.Info(logTag, fmt.Sprintf("%s: %d vendors shortlisted", req.RequestID, len(ranked)))

	seller := engine.NewSeller(p.cfg, p.pol, p.guard)
	buyer := engine.NewBuyer(p.cfg, p.pol, p.guard, p.gen, seller, p.trail, p.memory, p.clock, func(tags []string) []string {
		return p.index.Exemplars(tags, exemplarTopK)
	})

	// Cross-feed: every loop sees the rival shortlist list prices as competing
	// offers, so price pressure has real numbers behind it.
	states := make([]*types.VendorNegotiationState, len(ranked))
	for i, rv := range ranked {
		states[i] = buyer.NewState(req, rv)
		for j, other := range ranked {
			if i == j {
				continue
			}
			states[i].CompetingOffers = append(states[i].CompetingOffers, types.CompetingOffer{
				VendorID:  other.Vendor.VendorID,
				UnitPrice: other.Vendor.ListPriceFor(req.Quantity),
			})
		}
	}

	outcomes := make([]engine.Outcome, len(ranked))
	g, gctx := errgroup.WithContext(ctx)
	for i := range states {
		g.Go(func() error {
			out, err := buyer.Negotiate(gctx, req, states[i])
			if err != nil {
				return fmt.Errorf("vendor %s: %w", states[i].VendorID, err)
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		req.Status = types.RequestFailed
		return nil, err
	}

	recs := p.recommend(req, outcomes)
	if anyAccepted(outcomes) {
		req.Status = types.RequestCompleted
	} else {
		req.Status = types.RequestFailed
	}

	// Finished memories become retrieval exemplars for the next run.
	memories := p.memory.ExportByRequest(req.RequestID)
	for _, m := range memories {
		p.index.Add(m)
	}

	export := p.trail.ExportByRequest(req.RequestID)
	result := &Result{
		Request:         req,
		Outcomes:        outcomes,
		Recommendations: recs,
		Bundles:         bundlesOf(recs),
		Vendors:         p.vendorReports(req, ranked, outcomes, export, memories),
		Audit:           export,
		Memories:        memories,
		Elapsed:         p.clock.Now().Sub(start),
	}
	for _, rv := range ranked {
		result.Shortlist = append(result.Shortlist, ShortlistEntry{
			VendorID: rv.Vendor.VendorID,
			Name:     rv.Vendor.Name,
			Summary:  rv.Summary,
		})
	}
	if len(recs) > 0 {
		result.Approvals = p.pol.DetermineApprovals(req, recs[0].TCO)
	}
	return result, nil
}

func anyAccepted(outcomes []engine.Outcome) bool {
	for _, o := range outcomes {
		if o.State == types.StateAccepted {
			return true
		}
	}
	return false
}

// recommend ranks accepted outcomes into best_value / lowest_cost /
// lowest_risk picks, deduplicated when one vendor wins several.
func (p *Pipeline) recommend(req *types.Request, outcomes []engine.Outcome) []Recommendation {
	type entry struct {
		outcome engine.Outcome
		tco     float64
	}
	var accepted []entry
	for _, o := range outcomes {
		if o.State != types.StateAccepted || o.FinalOffer == nil {
			continue
		}
		accepted = append(accepted, entry{o, eval.MustTCO(o.FinalOffer.Components)})
	}
	if len(accepted) == 0 {
		return nil
	}

	// Deterministic base order: utility desc, price asc, vendor id.
	sort.Slice(accepted, func(i, j int) bool {
		ui, uj := accepted[i].outcome.FinalOffer.Score.Utility, accepted[j].outcome.FinalOffer.Score.Utility
		if ui != uj {
			return ui > uj
		}
		pi, pj := accepted[i].outcome.FinalOffer.Components.UnitPrice, accepted[j].outcome.FinalOffer.Components.UnitPrice
		if pi != pj {
			return pi < pj
		}
		return accepted[i].outcome.VendorID < accepted[j].outcome.VendorID
	})

	build := func(kind string, e entry) Recommendation {
		c := e.outcome.FinalOffer.Components
		score := e.outcome.FinalOffer.Score
		bullets := []string{
			fmt.Sprintf("%.2f/unit for %d months on %s", c.UnitPrice, c.TermMonths, c.PaymentTerms),
			fmt.Sprintf("TCO %.2f, savings %.2f vs list", e.tco, e.outcome.Savings),
		}
		switch kind {
		case "best_value":
			bullets = append(bullets, fmt.Sprintf("highest utility (%.3f) among accepted offers", score.Utility))
		case "lowest_cost":
			bullets = append(bullets, "lowest total cost of ownership among accepted offers")
		case "lowest_risk":
			bullets = append(bullets, fmt.Sprintf("lowest risk score (%.3f) among accepted offers", score.Risk))
		}
		if len(c.ValueAdds) > 0 {
			bullets = append(bullets, "includes "+strings.Join(c.ValueAdds, ", "))
		}
		return Recommendation{
			Kind:     kind,
			VendorID: e.outcome.VendorID,
			Offer:    *e.outcome.FinalOffer,
			TCO:      e.tco,
			Savings:  e.outcome.Savings,
			Bullets:  bullets,
		}
	}

	pick := func(kind string, less func(a, b entry) bool) Recommendation {
		best := accepted[0]
		for _, e := range accepted[1:] {
			if less(e, best) {
				best = e
			}
		}
		return build(kind, best)
	}

	candidates := []Recommendation{
		build("best_value", accepted[0]),
		pick("lowest_cost", func(a, b entry) bool {
			if a.tco != b.tco {
				return a.tco < b.tco
			}
			return a.outcome.VendorID < b.outcome.VendorID
		}),
		pick("lowest_risk", func(a, b entry) bool {
			ra, rb := a.outcome.FinalOffer.Score.Risk, b.outcome.FinalOffer.Score.Risk
			if ra != rb {
				return ra < rb
			}
			return a.outcome.VendorID < b.outcome.VendorID
		}),
	}

	seen := make(map[string]bool)
	var out []Recommendation
	for _, r := range candidates {
		if seen[r.VendorID] {
			continue
		}
		seen[r.VendorID] = true
		out = append(out, r)
	}
	return out
}

// bundlesOf keys the recommendations by kind for presentation.
func bundlesOf(recs []Recommendation) map[string]Bundle {
	if len(recs) == 0 {
		return nil
	}
	out := make(map[string]Bundle, len(recs))
	for _, r := range recs {
		out[r.Kind] = Bundle{OfferID: r.Offer.OfferID, VendorID: r.VendorID, Bullets: r.Bullets}
	}
	return out
}

// vendorReports assembles the per-vendor report blocks: final terms,
// compliance controls, support posture, composite score, and the audit and
// memory digests. Ordered by composite score descending, then vendor id.
func (p *Pipeline) vendorReports(req *types.Request, ranked []engine.RankedVendor, outcomes []engine.Outcome, export audit.Export, memories []types.NegotiationMemory) []VendorReport {
	memByVendor := make(map[string]types.NegotiationMemory, len(memories))
	for _, m := range memories {
		memByVendor[m.VendorID] = m
	}
	eventsByVendor := make(map[string]int, len(ranked))
	for _, ev := range export.Events {
		eventsByVendor[ev.VendorID]++
	}

	reports := make([]VendorReport, 0, len(ranked))
	for i, rv := range ranked {
		v := rv.Vendor
		o := outcomes[i]
		r := VendorReport{
			VendorID:         v.VendorID,
			VendorName:       v.Name,
			State:            o.State,
			OutcomeReason:    o.Reason,
			ComplianceStatus: p.compliance.BuildRiskCard(req, v).Controls,
			Support: SupportInfo{
				Tier:                v.Reliability.SupportTier,
				SLAPct:              v.Reliability.SLAPct,
				ResponseWindowHours: v.Guardrails.ResponseWindowHours,
			},
			BehaviorProfile: v.BehaviorProfile,
			AuditSummary: AuditSummary{
				Rounds: len(export.RoundLogs[v.VendorID]),
				Events: eventsByVendor[v.VendorID],
			},
		}
		for _, rl := range export.RoundLogs[v.VendorID] {
			r.AuditSummary.Moves += len(rl.Moves)
		}
		if o.FinalOffer != nil {
			c := o.FinalOffer.Components
			r.FinalPrice = c.UnitPrice
			r.TermMonths = c.TermMonths
			r.PaymentTerms = c.PaymentTerms
			r.Composite = engine.CompositeScore(p.cfg, o.FinalOffer.Score)
		}
		if m, ok := memByVendor[v.VendorID]; ok {
			r.MemoryLog = MemorySummary{
				Outcome:      m.Outcome,
				Savings:      m.Savings,
				Rounds:       len(m.Rounds),
				ScenarioTags: m.ScenarioTags,
			}
		}
		reports = append(reports, r)
	}
	sort.Slice(reports, func(i, j int) bool {
		if reports[i].Composite != reports[j].Composite {
			return reports[i].Composite > reports[j].Composite
		}
		return reports[i].VendorID < reports[j].VendorID
	})
	return reports
}
