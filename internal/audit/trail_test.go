package audit

import (
	"context"
	"testing"
	"time"

	"procur/internal/types"
)

var testNow = time.Date(2025, time.January, 15, 12, 0, 0, 0, time.UTC)

func testMove(actor types.Actor, round int, price float64) types.MoveLog {
	return types.MoveLog{
		Actor: actor,
		Round: round,
		Offer: types.OfferComponents{UnitPrice: price, Quantity: 100, TermMonths: 12, PaymentTerms: types.PaymentNet30},
		Lever: types.LeverPrice,
	}
}

func TestTrail_GroupsMovesByRound(t *testing.T) {
	trail := NewTrail(types.FixedClock{T: testNow}, nil)
	ctx := context.Background()

	if err := trail.RecordMove(ctx, "r1", "v1", testMove(types.ActorBuyer, 1, 1140)); err != nil {
		t.Fatalf("RecordMove: %v", err)
	}
	if err := trail.RecordMove(ctx, "r1", "v1", testMove(types.ActorSeller, 1, 1380)); err != nil {
		t.Fatalf("RecordMove: %v", err)
	}
	if err := trail.RecordMove(ctx, "r1", "v1", testMove(types.ActorBuyer, 2, 1114)); err != nil {
		t.Fatalf("RecordMove: %v", err)
	}

	logs := trail.RoundLogs("r1", "v1")
	if len(logs) != 2 {
		t.Fatalf("rounds = %d, want 2", len(logs))
	}
	if len(logs[0].Moves) != 2 || len(logs[1].Moves) != 1 {
		t.Fatalf("move counts = %d/%d, want 2/1", len(logs[0].Moves), len(logs[1].Moves))
	}
	if logs[0].Moves[0].Timestamp != testNow {
		t.Fatalf("timestamp = %v, want clock time", logs[0].Moves[0].Timestamp)
	}
}

func TestTrail_ShardsByVendor(t *testing.T) {
	trail := NewTrail(types.FixedClock{T: testNow}, nil)
	ctx := context.Background()

	_ = trail.RecordMove(ctx, "r1", "v1", testMove(types.ActorBuyer, 1, 1140))
	_ = trail.RecordMove(ctx, "r1", "v2", testMove(types.ActorBuyer, 1, 1100))
	_ = trail.Event(ctx, OutcomeEvent("r1", "v1", "ACCEPTED", "converged", 4500))

	export := trail.ExportByRequest("r1")
	if len(export.RoundLogs) != 2 {
		t.Fatalf("vendors in export = %d, want 2", len(export.RoundLogs))
	}
	if len(export.Events) != 1 {
		t.Fatalf("events = %d, want 1", len(export.Events))
	}
	ev := export.Events[0]
	if ev.Kind != "vendor.negotiation_finished" || ev.VendorID != "v1" {
		t.Fatalf("event = %+v", ev)
	}
	if ev.Fields["savings"] != "4500.00" {
		t.Fatalf("savings field = %v", ev.Fields["savings"])
	}

	if logs := trail.RoundLogs("r1", "missing"); logs != nil {
		t.Fatalf("unknown vendor logs = %v", logs)
	}
}

func TestMemoryStore_Lifecycle(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()

	store.Start("r1", "v1", []string{"type:saas", "budget:tight"})
	store.RecordRound(types.RoundMemory{RequestID: "r1", VendorID: "v1", Round: 1, Strategy: "PRICE_ANCHOR", Decision: types.DecisionCounter})
	store.RecordRound(types.RoundMemory{RequestID: "r1", VendorID: "v1", Round: 2, Strategy: "PRICE_PRESSURE", Decision: types.DecisionAccept})
	if err := store.Finalize(ctx, "r1", "v1", "ACCEPTED", 4500); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	mem, ok := store.Get("r1", "v1")
	if !ok {
		t.Fatal("memory missing")
	}
	if mem.Outcome != "ACCEPTED" || mem.Savings != 4500 {
		t.Fatalf("outcome/savings = %s/%.2f", mem.Outcome, mem.Savings)
	}
	if len(mem.Rounds) != 2 || len(mem.ScenarioTags) != 2 {
		t.Fatalf("rounds=%d tags=%d", len(mem.Rounds), len(mem.ScenarioTags))
	}
}

func TestMemoryStore_ExportSorted(t *testing.T) {
	store := NewMemoryStore(nil)
	store.Start("r1", "v-b", nil)
	store.Start("r1", "v-a", nil)
	store.Start("r2", "v-z", nil)

	mems := store.ExportByRequest("r1")
	if len(mems) != 2 {
		t.Fatalf("export = %d, want 2", len(mems))
	}
	if mems[0].VendorID != "v-a" || mems[1].VendorID != "v-b" {
		t.Fatalf("order = %s, %s", mems[0].VendorID, mems[1].VendorID)
	}
	if len(store.All()) != 3 {
		t.Fatalf("all = %d, want 3", len(store.All()))
	}
}

func TestScenarioTags(t *testing.T) {
	req := &types.Request{
		Type:      types.RequestSaaS,
		Category:  "crm",
		Quantity:  100,
		BudgetMax: 100000,
		MustHaves: []string{"crm", "lead-management"},
	}
	tags := ScenarioTags(req, 1200)

	set := map[string]bool{}
	for _, tag := range tags {
		set[tag] = true
	}
	for _, tag := range []string{"type:saas", "category:crm", "qty:medium", "must:crm", "must:lead-management", "budget:fit"} {
		if !set[tag] {
			t.Fatalf("tags %v missing %s", tags, tag)
		}
	}

	req.Quantity = 10
	req.BudgetMax = 7000 // 700/unit against list 1200: tight
	tags = ScenarioTags(req, 1200)
	set = map[string]bool{}
	for _, tag := range tags {
		set[tag] = true
	}
	if !set["qty:small"] || !set["budget:tight"] {
		t.Fatalf("tags = %v, want qty:small and budget:tight", tags)
	}
}
