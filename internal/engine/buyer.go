package engine

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"procur/internal/audit"
	"procur/internal/config"
	"procur/internal/eval"
	"procur/internal/logger"
	"procur/internal/policy"
	"procur/internal/proposal"
	"procur/internal/types"
)

const logTag = "negotiate"

// ExemplarFunc supplies compact prior-negotiation contexts for the proposal
// generator, keyed by scenario tags.
type ExemplarFunc func(tags []string) []string

// Buyer runs the per-vendor negotiation loop. One Buyer serves many vendors
// concurrently; all mutable state lives in the per-vendor
// VendorNegotiationState owned by each Negotiate call.
type Buyer struct {
	cfg       *config.Config
	pol       *policy.Engine
	guard     *policy.GuardrailService
	gen       proposal.Generator
	seller    *Seller
	trail     *audit.Trail
	memory    *audit.MemoryStore
	clock     types.Clock
	exemplars ExemplarFunc
}

// NewBuyer wires the buyer agent. gen may be nil (a Deterministic generator
// equivalent is used implicitly: the engine bundle goes out unmodified).
// exemplars may be nil.
func NewBuyer(cfg *config.Config, pol *policy.Engine, guard *policy.GuardrailService, gen proposal.Generator, seller *Seller, trail *audit.Trail, memory *audit.MemoryStore, clock types.Clock, exemplars ExemplarFunc) *Buyer {
	if clock == nil {
		clock = types.RealClock{}
	}
	return &Buyer{
		cfg:       cfg,
		pol:       pol,
		guard:     guard,
		gen:       gen,
		seller:    seller,
		trail:     trail,
		memory:    memory,
		clock:     clock,
		exemplars: exemplars,
	}
}

// Outcome is the terminal result of one vendor negotiation.
type Outcome struct {
	VendorID   string         `json:"vendor_id"`
	State      types.FSMState `json:"state"`
	Reason     string         `json:"reason,omitempty"`
	FinalOffer *types.Offer   `json:"final_offer,omitempty"`
	Rounds     int            `json:"rounds"`
	Savings    float64        `json:"savings"`
}

// NewState initializes the per-vendor negotiation state with its plan, match
// summary, and seeded opponent model.
func (b *Buyer) NewState(req *types.Request, ranked RankedVendor) *types.VendorNegotiationState {
	vendor := ranked.Vendor
	summary := ranked.Summary
	list := vendor.ListPriceFor(req.Quantity)
	anchor := AnchorPrice(list, vendor.PriceFloor(), req.BudgetPerUnit())

	stopRisk := req.Policy.RiskThreshold
	if stopRisk <= 0 {
		stopRisk = riskHighBase
	}

	state := &types.VendorNegotiationState{
		Vendor:       vendor,
		VendorID:     vendor.VendorID,
		RequestID:    req.RequestID,
		Active:       true,
		State:        types.StateInit,
		MatchSummary: &summary,
		Opponent:     SeedOpponentModel(vendor, anchor),
		Plan: &types.NegotiationPlan{
			Anchors: map[types.Lever]float64{
				types.LeverPrice: anchor,
				types.LeverTerm:  24,
			},
			ConcessionLadder:   []types.Lever{types.LeverPrice, types.LeverTerm, types.LeverPayment, types.LeverValue},
			StopUtility:        b.cfg.BuyerAcceptThreshold,
			StopRisk:           stopRisk,
			AllowedConcessions: []types.Lever{types.LeverPrice, types.LeverTerm, types.LeverPayment, types.LeverValue},
			Exchange:           vendor.Exchange,
		},
	}
	return state
}

// maxRoundsFor prefers the vendor's declared round cap over the global one.
func (b *Buyer) maxRoundsFor(vendor *types.VendorProfile) int {
	if vendor.Exchange.MaxRounds > 0 {
		return vendor.Exchange.MaxRounds
	}
	return b.cfg.MaxRounds
}

// Negotiate runs the full loop against one vendor and returns the terminal
// outcome. The state must come from NewState and is owned by this call.
func (b *Buyer) Negotiate(ctx context.Context, req *types.Request, state *types.VendorNegotiationState) (Outcome, error) {
	vendor := state.Vendor
	list := vendor.ListPriceFor(req.Quantity)
	floor := vendor.PriceFloor()

	tags := audit.ScenarioTags(req, list)
	b.memory.Start(req.RequestID, vendor.VendorID, tags)
	if err := b.trail.Event(ctx, audit.StartedEvent(req.RequestID, vendor.VendorID, list)); err != nil {
		logger.Warn(logTag, "audit event failed: "+err.Error())
	}

	// Feasibility pre-check: no lever combination reaches the budget, no rounds.
	if !FeasibleWithTrades(req.BudgetPerUnit(), list, floor, vendor.Exchange) {
		best, levers := BestEffectivePrice(list, floor, vendor.Exchange)
		reason := fmt.Sprintf("no zone of agreement: budget %.2f/unit, best effective price %.2f",
			req.BudgetPerUnit(), best)
		if len(levers) > 0 {
			reason += " via " + strings.Join(levers, "+")
		}
		return b.finalize(ctx, req, state, types.StateNoZOPA, reason)
	}

	state.State = types.StateNegotiating
	maxRounds := b.maxRoundsFor(vendor)
	deadline := b.clock.Now().Add(time.Duration(maxRounds) * b.cfg.RoundWallClock)

	for round := 1; round <= maxRounds; round++ {
		if err := ctx.Err(); err != nil {
			return b.finalize(ctx, req, state, types.StateDropped, "cancelled: "+err.Error())
		}
		if b.clock.Now().After(deadline) {
			return b.finalize(ctx, req, state, types.StateDropped, "negotiation wall clock exceeded")
		}

		strategy, strategyNote := SelectBuyerStrategy(b.cfg, state)
		state.Plan.CurrentStrategy = string(strategy)

		buyerOffer, selected, rejected, err := b.buyerMove(ctx, req, state, strategy, strategyNote, round)
		if err != nil {
			return b.finalize(ctx, req, state, types.StateDropped, "buyer move failed: "+err.Error())
		}
		state.AppendOffer(buyerOffer)
		if state.State == types.StateReplanRequired {
			state.State = types.StateNegotiating
		}

		sellerOffer, sellerStrategy, sellerNotes := b.seller.Respond(req, state, buyerOffer)
		UpdateOpponentModel(&state.Opponent, sellerOffer.Components)
		state.AppendOffer(sellerOffer)
		b.trackStalemate(state)

		if err := b.trail.RecordMove(ctx, req.RequestID, vendor.VendorID, types.MoveLog{
			Actor: types.ActorSeller,
			Round: round,
			Offer: sellerOffer.Components,
			Lever: types.LeverPrice,
			Rationale: []string{
				"strategy " + string(sellerStrategy),
			},
			Utility: types.UtilitySnapshot{
				BuyerUtility:  sellerOffer.Score.Utility,
				SellerUtility: sellerUtilityFor(b.cfg, vendor, sellerOffer.Components),
				TCO:           eval.MustTCO(sellerOffer.Components),
			},
			GuardrailNotes: sellerNotes,
		}); err != nil {
			logger.Warn(logTag, "audit write failed: "+err.Error())
		}

		verdict := ShouldCloseDeal(b.cfg, b.pol, req, state, sellerOffer)
		decision := DecideNextMove(b.cfg, state, sellerOffer, verdict)
		b.recordRound(req, state, round, strategy, selected, rejected, decision)

		state.Round = round
		switch decision {
		case types.DecisionAccept:
			accepted := sellerOffer
			accepted.Accepted = true
			state.BestOffer = &accepted
			return b.finalize(ctx, req, state, types.StateAccepted, strings.Join(verdict.Reasons, "; "))
		case types.DecisionDrop:
			return b.finalize(ctx, req, state, types.StateDropped, "concession ladder exhausted without convergence")
		}
	}

	return b.finalize(ctx, req, state, types.StateDropped, fmt.Sprintf("no agreement within %d rounds", b.maxRoundsFor(vendor)))
}

// buyerMove builds, normalizes, validates, and records one buyer proposal.
func (b *Buyer) buyerMove(ctx context.Context, req *types.Request, state *types.VendorNegotiationState, strategy BuyerStrategy, strategyNote string, round int) (types.Offer, types.CandidateEvaluation, []types.CandidateEvaluation, error) {
	vendor := state.Vendor
	var rationale []string
	if strategyNote != "" {
		rationale = append(rationale, strategyNote)
	}

	bundle, selected, rejected, err := b.chooseBundle(req, state, strategy, round)
	if err != nil {
		return types.Offer{}, selected, rejected, err
	}

	components, genNotes := b.generateProposal(ctx, req, state, strategy, round, bundle)
	rationale = append(rationale, genNotes...)

	components, adjustNotes := b.normalizeProposal(req, state, strategy, components, bundle)
	rationale = append(rationale, adjustNotes...)

	polRes := b.pol.ValidateOffer(req, components, vendor, true)
	if !polRes.Valid {
		// Blocking buyer-side findings rewrite the move back to the safe
		// engine bundle instead of aborting the round.
		codes := strings.Join(polRes.Codes(), ", ")
		components, polRes = b.rewriteToSafeBundle(req, state, bundle, components)
		rationale = append(rationale, "policy_adjustment: proposal rewritten to safe bundle ("+codes+")")
		if !polRes.Valid {
			return types.Offer{}, selected, rejected, fmt.Errorf("no policy-clean proposal: %s", strings.Join(polRes.Notes(), "; "))
		}
	}
	alerts := b.guard.Check(vendor, components)
	if policy.HasBlocking(alerts) {
		return types.Offer{}, selected, rejected, fmt.Errorf("guardrail blocked proposal: %s", strings.Join(policy.NotesOf(alerts), "; "))
	}

	score, tco, err := ScoreBundle(req, vendor, state.MatchSummary, components)
	if err != nil {
		return types.Offer{}, selected, rejected, err
	}

	offer := types.Offer{
		OfferID:    types.NewOfferID(),
		RequestID:  req.RequestID,
		VendorID:   vendor.VendorID,
		Actor:      types.ActorBuyer,
		Round:      round,
		Components: components,
		Score:      score,
		Confidence: 1.0,
	}

	if err := b.trail.RecordMove(ctx, req.RequestID, vendor.VendorID, types.MoveLog{
		Actor:     types.ActorBuyer,
		Round:     round,
		Offer:     components,
		Lever:     selected.PrimaryLever,
		Rationale: append([]string{"strategy " + string(strategy)}, rationale...),
		Utility: types.UtilitySnapshot{
			BuyerUtility:  score.Utility,
			SellerUtility: sellerUtilityFor(b.cfg, vendor, components),
			TCO:           tco,
		},
		PolicyNotes:     polRes.Notes(),
		GuardrailNotes:  policy.NotesOf(alerts),
		ComplianceNotes: complianceNotes(state.MatchSummary),
	}); err != nil {
		logger.Warn(logTag, "audit write failed: "+err.Error())
	}

	selected.Offer = components
	selected.TCO = tco
	selected.BuyerUtility = score.Utility
	return offer, selected, rejected, nil
}

// complianceNotes renders the match-time compliance gaps as audit notes.
// A blocking gap flags the move without stopping it; the shortlist already
// filtered hard blockers.
func complianceNotes(summary *types.VendorMatchSummary) []string {
	if summary == nil {
		return nil
	}
	var notes []string
	for _, f := range summary.MissingCompliance {
		notes = append(notes, "missing "+f)
	}
	if summary.ComplianceBlocking {
		notes = append(notes, "blocking gap, proceeding flagged for review")
	}
	return notes
}

// chooseBundle picks the engine bundle for the round: best seed bundle on
// round one or after a replan, the strategy target (scored against two
// alternative levers) otherwise.
func (b *Buyer) chooseBundle(req *types.Request, state *types.VendorNegotiationState, strategy BuyerStrategy, round int) (types.OfferComponents, types.CandidateEvaluation, []types.CandidateEvaluation, error) {
	vendor := state.Vendor
	now := b.clock.Now()

	type candidate struct {
		components types.OfferComponents
		lever      types.Lever
	}
	var candidates []candidate

	if round == 1 || state.State == types.StateReplanRequired {
		for _, seed := range SeedBundles(req, vendor) {
			candidates = append(candidates, candidate{seed.Components, seed.Lever})
		}
	} else {
		candidates = append(candidates, candidate{TargetBundle(strategy, req, vendor, state, now), strategyLever(strategy)})
		for _, alt := range AlternativeLevers(strategy) {
			candidates = append(candidates, candidate{TargetBundle(alt, req, vendor, state, now), strategyLever(alt)})
		}
	}

	var evals []types.CandidateEvaluation
	bestIdx := -1
	for _, c := range candidates {
		ev, err := EvaluateCandidate(b.cfg, b.pol, b.guard, req, vendor, state.MatchSummary, c.components, c.lever, round, true)
		if err != nil {
			return types.OfferComponents{}, types.CandidateEvaluation{}, nil, err
		}
		evals = append(evals, ev)
		if ev.Valid && (bestIdx < 0 || ev.BuyerUtility > evals[bestIdx].BuyerUtility) {
			bestIdx = len(evals) - 1
		}
	}
	if bestIdx < 0 {
		// Nothing policy-clean: keep the first candidate and let the move-level
		// rewrite handle it.
		bestIdx = 0
	}

	selected := evals[bestIdx]
	var rejected []types.CandidateEvaluation
	for i, ev := range evals {
		if i != bestIdx {
			rejected = append(rejected, ev)
		}
	}
	return candidates[bestIdx].components, selected, rejected, nil
}

func strategyLever(s BuyerStrategy) types.Lever {
	switch s {
	case StrategyTermTrade:
		return types.LeverTerm
	case StrategyPaymentTrade:
		return types.LeverPayment
	case StrategyValueAdd:
		return types.LeverValue
	default:
		return types.LeverPrice
	}
}

// generateProposal asks the proposal generator for the round message, with
// timeout and retries; any failure falls back to the engine bundle unchanged.
func (b *Buyer) generateProposal(ctx context.Context, req *types.Request, state *types.VendorNegotiationState, strategy BuyerStrategy, round int, bundle types.OfferComponents) (types.OfferComponents, []string) {
	if b.gen == nil {
		return bundle, nil
	}
	vendor := state.Vendor

	vctx := proposal.VendorContext{
		VendorID:   vendor.VendorID,
		VendorName: vendor.Name,
		ListPrice:  vendor.ListPriceFor(req.Quantity),
		Strategy:   string(strategy),
		Round:      round,
	}
	if last, ok := state.LastOfferBy(types.ActorSeller); ok {
		c := last.Components.Clone()
		vctx.LastSellerOffer = &c
	}
	if state.BestOffer != nil {
		vctx.BestUtility = state.BestOffer.Score.Utility
	}
	if b.exemplars != nil {
		vctx.Exemplars = b.exemplars(audit.ScenarioTags(req, vctx.ListPrice))
	}

	retries := b.cfg.ProposalRetries
	if retries < 1 {
		retries = 1
	}
	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, b.cfg.ProposalTimeout)
		msg, err := b.gen.Propose(callCtx, req, vctx, bundle)
		cancel()
		if err != nil {
			lastErr = err
			continue
		}
		if msg == nil {
			continue
		}
		if verr := msg.Validate(); verr != nil {
			lastErr = verr
			continue
		}
		return msg.Proposal, msg.JustificationBullets
	}
	note := "generator fallback: engine bundle sent unmodified"
	if lastErr != nil {
		note = fmt.Sprintf("generator fallback after %d attempts (%v): engine bundle sent unmodified", retries, lastErr)
	}
	return bundle, []string{note}
}

// normalizeProposal pins the request structure onto the generated proposal and
// applies the concession floor, monotonic pricing, exchange, and diversity
// rules in that order.
func (b *Buyer) normalizeProposal(req *types.Request, state *types.VendorNegotiationState, strategy BuyerStrategy, components, bundle types.OfferComponents) (types.OfferComponents, []string) {
	vendor := state.Vendor
	floor := vendor.PriceFloor()
	var notes []string

	components.Quantity = req.Quantity
	if components.Currency == "" {
		components.Currency = req.Currency
	}

	// Proposals below the vendor floor are rewritten up to the engine anchor.
	if res := b.pol.EnforceConcessionFloor(floor, components.UnitPrice); !res.Valid {
		safe := math.Max(floor, bundle.UnitPrice)
		notes = append(notes, fmt.Sprintf("policy_adjustment: price %.2f below floor %.2f, rewritten to %.2f", components.UnitPrice, floor, safe))
		components.UnitPrice = types.Round2(safe)
	}

	var prevBuyer *types.OfferComponents
	if prev, ok := state.LastOfferBy(types.ActorBuyer); ok {
		c := prev.Components.Clone()
		prevBuyer = &c
	}
	if prevBuyer != nil {
		before := components.UnitPrice
		components = NormalizeBuyerPrice(components, prevBuyer, strategy, vendor.Exchange.MinStepAbs)
		if components.UnitPrice != before {
			notes = append(notes, fmt.Sprintf("price normalized %.2f -> %.2f to keep offers monotonic", before, components.UnitPrice))
		}
		adjusted, exchangeNotes := EnforceExchange(*prevBuyer, components, vendor, b.cfg.DiscountRate)
		components = adjusted
		notes = append(notes, exchangeNotes...)
	}

	if last, ok := state.LastOfferBy(types.ActorSeller); ok {
		c := last.Components
		diversified, forced := EnforceDiversity(components, &c, floor)
		if forced {
			notes = append(notes, "diversity: bundle repeated counterparty offer, price forced down")
		}
		components = diversified
	}

	return components, notes
}

// rewriteToSafeBundle replaces a policy-blocked proposal with the engine
// bundle clamped into budget.
func (b *Buyer) rewriteToSafeBundle(req *types.Request, state *types.VendorNegotiationState, bundle, blocked types.OfferComponents) (types.OfferComponents, policy.Result) {
	vendor := state.Vendor
	safe := bundle.Clone()

	if budgetPU := req.BudgetPerUnit(); budgetPU > 0 && safe.UnitPrice > budgetPU {
		safe.UnitPrice = types.Round2(math.Max(vendor.PriceFloor(), budgetPU))
	}
	if maxTerm, ok := req.SpecFloat("max_term_months"); ok && float64(safe.TermMonths) > maxTerm {
		safe.TermMonths = int(maxTerm)
	}
	if !vendor.Guardrails.AllowsPayment(safe.PaymentTerms) {
		safe.PaymentTerms = fallbackPayment(vendor)
	}
	return safe, b.pol.ValidateOffer(req, safe, vendor, true)
}

// trackStalemate updates the consecutive-stalled-rounds counter after a seller
// move.
func (b *Buyer) trackStalemate(state *types.VendorNegotiationState) {
	if StalemateDetected(state) {
		state.StalemateRounds++
	} else {
		state.StalemateRounds = 0
	}
}

// recordRound writes the structured round memory.
func (b *Buyer) recordRound(req *types.Request, state *types.VendorNegotiationState, round int, strategy BuyerStrategy, selected types.CandidateEvaluation, rejected []types.CandidateEvaluation, decision types.Decision) {
	var deltaUtility, deltaTCO float64
	if prev, ok := previousRoundSeller(state, round); ok {
		if cur, ok2 := state.LastOfferBy(types.ActorSeller); ok2 {
			deltaUtility = cur.Score.Utility - prev.Score.Utility
			deltaTCO = eval.MustTCO(prev.Components) - eval.MustTCO(cur.Components)
		}
	}
	b.memory.RecordRound(types.RoundMemory{
		RequestID:    req.RequestID,
		VendorID:     state.VendorID,
		Round:        round,
		Timestamp:    b.clock.Now(),
		Actor:        types.ActorBuyer,
		Strategy:     string(strategy),
		Selected:     selected,
		Rejected:     rejected,
		Decision:     decision,
		DeltaUtility: deltaUtility,
		DeltaTCO:     deltaTCO,
	})
}

func previousRoundSeller(state *types.VendorNegotiationState, round int) (types.Offer, bool) {
	offers := state.OffersBy(types.ActorSeller)
	for i := len(offers) - 1; i >= 0; i-- {
		if offers[i].Round < round {
			return offers[i], true
		}
	}
	return types.Offer{}, false
}

// finalize closes out the negotiation: terminal state, savings, audit event,
// and memory flush.
func (b *Buyer) finalize(ctx context.Context, req *types.Request, state *types.VendorNegotiationState, terminal types.FSMState, reason string) (Outcome, error) {
	vendor := state.Vendor
	state.State = terminal
	state.Active = false
	state.OutcomeReason = reason

	out := Outcome{
		VendorID: vendor.VendorID,
		State:    terminal,
		Reason:   reason,
		Rounds:   state.Round,
	}
	if terminal == types.StateAccepted && state.BestOffer != nil {
		out.FinalOffer = state.BestOffer
		list := vendor.ListPriceFor(req.Quantity)
		out.Savings = math.Max(types.Round2((list-state.BestOffer.Components.UnitPrice)*float64(req.Quantity)), 0)
	}

	if err := b.trail.Event(ctx, audit.OutcomeEvent(req.RequestID, vendor.VendorID, string(terminal), reason, out.Savings)); err != nil {
		logger.Warn(logTag, "audit event failed: "+err.Error())
	}
	if err := b.memory.Finalize(ctx, req.RequestID, vendor.VendorID, string(terminal), out.Savings); err != nil {
		logger.Warn(logTag, "memory flush failed: "+err.Error())
	}

	switch terminal {
	case types.StateAccepted:
		logger.Success(logTag, fmt.Sprintf("%s: accepted at %.2f/unit after %d rounds", vendor.VendorID, out.FinalOffer.Components.UnitPrice, out.Rounds))
	case types.StateNoZOPA:
		logger.Warn(logTag, fmt.Sprintf("%s: %s", vendor.VendorID, reason))
	default:
		logger.Info(logTag, fmt.Sprintf("%s: %s (%s)", vendor.VendorID, terminal, reason))
	}
	return out, nil
}
