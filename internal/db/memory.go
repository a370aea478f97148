package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"procur/internal/types"
)

// WriteMemory upserts one finalized negotiation memory. Implements
// audit.MemorySink.
func (d *DB) WriteMemory(ctx context.Context, m types.NegotiationMemory) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal memory: %w", err)
	}
	_, err = d.sql.ExecContext(ctx, `
		INSERT INTO negotiation_memories (request_id, vendor_id, memory_json, outcome, savings, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(request_id, vendor_id)
		DO UPDATE SET memory_json = excluded.memory_json,
		              outcome     = excluded.outcome,
		              savings     = excluded.savings,
		              updated_at  = excluded.updated_at
	`, m.RequestID, m.VendorID, string(payload), m.Outcome, m.Savings, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("write memory: %w", err)
	}
	return nil
}

// LoadMemories retrieves every persisted negotiation memory, used to seed the
// retrieval index across runs.
func (d *DB) LoadMemories(ctx context.Context) ([]types.NegotiationMemory, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT memory_json FROM negotiation_memories ORDER BY request_id, vendor_id`)
	if err != nil {
		return nil, fmt.Errorf("load memories: %w", err)
	}
	defer rows.Close()

	var out []types.NegotiationMemory
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		var m types.NegotiationMemory
		if err := json.Unmarshal([]byte(payload), &m); err != nil {
			return nil, fmt.Errorf("parse memory: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
