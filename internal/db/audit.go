package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"procur/internal/types"
)

// WriteRound upserts the round log for its (request, vendor, round) key.
// Implements audit.Sink.
func (d *DB) WriteRound(ctx context.Context, rl types.RoundLog) error {
	moves, err := json.Marshal(rl.Moves)
	if err != nil {
		return fmt.Errorf("marshal moves: %w", err)
	}
	_, err = d.sql.ExecContext(ctx, `
		INSERT INTO audit_rounds (request_id, vendor_id, round_number, moves_json, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(request_id, vendor_id, round_number)
		DO UPDATE SET moves_json = excluded.moves_json, updated_at = excluded.updated_at
	`, rl.RequestID, rl.VendorID, rl.Round, string(moves), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("write round: %w", err)
	}
	return nil
}

// WriteEvent appends one audit event. Implements audit.Sink.
func (d *DB) WriteEvent(ctx context.Context, ev types.Event) error {
	fields, err := json.Marshal(ev.Fields)
	if err != nil {
		return fmt.Errorf("marshal event fields: %w", err)
	}
	_, err = d.sql.ExecContext(ctx, `
		INSERT INTO audit_events (request_id, vendor_id, kind, fields_json, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`, ev.RequestID, ev.VendorID, ev.Kind, string(fields), ev.Timestamp.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// LoadRounds retrieves the persisted round logs for one vendor negotiation,
// in round order.
func (d *DB) LoadRounds(ctx context.Context, requestID, vendorID string) ([]types.RoundLog, error) {
	rows, err := d.sql.QueryContext(ctx, `
		SELECT round_number, moves_json FROM audit_rounds
		WHERE request_id = ? AND vendor_id = ?
		ORDER BY round_number
	`, requestID, vendorID)
	if err != nil {
		return nil, fmt.Errorf("load rounds: %w", err)
	}
	defer rows.Close()

	var out []types.RoundLog
	for rows.Next() {
		rl := types.RoundLog{RequestID: requestID, VendorID: vendorID}
		var moves string
		if err := rows.Scan(&rl.Round, &moves); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		if err := json.Unmarshal([]byte(moves), &rl.Moves); err != nil {
			return nil, fmt.Errorf("parse moves: %w", err)
		}
		out = append(out, rl)
	}
	return out, rows.Err()
}

// LoadEvents retrieves the persisted event stream for a request.
func (d *DB) LoadEvents(ctx context.Context, requestID string) ([]types.Event, error) {
	rows, err := d.sql.QueryContext(ctx, `
		SELECT vendor_id, kind, fields_json, timestamp FROM audit_events
		WHERE request_id = ? ORDER BY id
	`, requestID)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	defer rows.Close()

	var out []types.Event
	for rows.Next() {
		ev := types.Event{RequestID: requestID}
		var vendorID, kind, fields, ts string
		if err := rows.Scan(&vendorID, &kind, &fields, &ts); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.VendorID = vendorID
		ev.Kind = kind
		if err := json.Unmarshal([]byte(fields), &ev.Fields); err != nil {
			return nil, fmt.Errorf("parse event fields: %w", err)
		}
		if t, perr := time.Parse(time.RFC3339, ts); perr == nil {
			ev.Timestamp = t
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
