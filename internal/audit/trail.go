package audit

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"procur/internal/types"
)

// Sink receives finished round logs and events for persistence. The in-memory
// trail works without one.
type Sink interface {
	WriteRound(ctx context.Context, rl types.RoundLog) error
	WriteEvent(ctx context.Context, ev types.Event) error
}

type trailKey struct {
	requestID string
	vendorID  string
}

// vendorTrail is the per-(request, vendor) shard. Writes within a shard are
// serialized by its own mutex; cross-shard writes never contend.
type vendorTrail struct {
	mu     sync.Mutex
	rounds []types.RoundLog
}

// Trail is the append-only audit store keyed by (request, vendor).
type Trail struct {
	mu     sync.RWMutex
	shards map[trailKey]*vendorTrail
	events map[string][]types.Event
	clock  types.Clock
	sink   Sink
}

// NewTrail creates an audit trail. sink may be nil.
func NewTrail(clock types.Clock, sink Sink) *Trail {
	if clock == nil {
		clock = types.RealClock{}
	}
	return &Trail{
		shards: make(map[trailKey]*vendorTrail),
		events: make(map[string][]types.Event),
		clock:  clock,
		sink:   sink,
	}
}

func (t *Trail) shard(requestID, vendorID string) *vendorTrail {
	k := trailKey{requestID, vendorID}
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.shards[k]
	if !ok {
		s = &vendorTrail{}
		t.shards[k] = s
	}
	return s
}

// RecordMove appends a move to the round log for its round number, creating
// the round entry on the first (buyer) move.
func (t *Trail) RecordMove(ctx context.Context, requestID, vendorID string, move types.MoveLog) error {
	if move.Timestamp.IsZero() {
		move.Timestamp = t.clock.Now()
	}
	s := t.shard(requestID, vendorID)
	s.mu.Lock()
	defer s.mu.Unlock()

	var rl *types.RoundLog
	for i := range s.rounds {
		if s.rounds[i].Round == move.Round {
			rl = &s.rounds[i]
			break
		}
	}
	if rl == nil {
		s.rounds = append(s.rounds, types.RoundLog{
			RequestID: requestID,
			VendorID:  vendorID,
			Round:     move.Round,
		})
		rl = &s.rounds[len(s.rounds)-1]
	}
	rl.Moves = append(rl.Moves, move)

	if t.sink != nil {
		if err := t.sink.WriteRound(ctx, *rl); err != nil {
			return fmt.Errorf("audit sink round: %w", err)
		}
	}
	return nil
}

// Event appends an entry to the per-request event stream.
func (t *Trail) Event(ctx context.Context, ev types.Event) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = t.clock.Now()
	}
	t.mu.Lock()
	t.events[ev.RequestID] = append(t.events[ev.RequestID], ev)
	t.mu.Unlock()

	if t.sink != nil {
		if err := t.sink.WriteEvent(ctx, ev); err != nil {
			return fmt.Errorf("audit sink event: %w", err)
		}
	}
	return nil
}

// RoundLogs returns a copy of the round logs for one vendor, in round order.
func (t *Trail) RoundLogs(requestID, vendorID string) []types.RoundLog {
	t.mu.RLock()
	s, ok := t.shards[trailKey{requestID, vendorID}]
	t.mu.RUnlock()
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.RoundLog, len(s.rounds))
	copy(out, s.rounds)
	sort.Slice(out, func(i, j int) bool { return out[i].Round < out[j].Round })
	return out
}

// Export is the audit view of a whole request.
type Export struct {
	RoundLogs map[string][]types.RoundLog `json:"round_logs"`
	Events    []types.Event               `json:"events,omitempty"`
}

// ExportByRequest collects all round logs and events for a request.
func (t *Trail) ExportByRequest(requestID string) Export {
	t.mu.RLock()
	keys := make([]trailKey, 0, len(t.shards))
	for k := range t.shards {
		if k.requestID == requestID {
			keys = append(keys, k)
		}
	}
	events := append([]types.Event(nil), t.events[requestID]...)
	t.mu.RUnlock()

	out := Export{RoundLogs: make(map[string][]types.RoundLog, len(keys)), Events: events}
	for _, k := range keys {
		out.RoundLogs[k.vendorID] = t.RoundLogs(k.requestID, k.vendorID)
	}
	return out
}
