package db

import (
	"log"
	"time"

	"procur/internal/engine"
	"procur/internal/eval"
	"procur/internal/types"
)

// InsertRunResult records a finished pipeline run and returns its id.
func (d *DB) InsertRunResult(requestID string, status types.RequestStatus, elapsed time.Duration) int64 {
	res, err := d.sql.Exec(`
		INSERT INTO run_results (request_id, status, elapsed_ms, created_at)
		VALUES (?, ?, ?, ?)
	`, requestID, string(status), elapsed.Milliseconds(), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		log.Printf("[DB] InsertRunResult: %v", err)
		return 0
	}
	id, _ := res.LastInsertId()
	return id
}

// InsertOutcomes bulk-inserts per-vendor outcomes linked to a run record.
func (d *DB) InsertOutcomes(runID int64, outcomes []engine.Outcome) {
	if runID == 0 || len(outcomes) == 0 {
		return
	}

	tx, err := d.sql.Begin()
	if err != nil {
		log.Printf("[DB] InsertOutcomes begin tx: %v", err)
		return
	}

	stmt, err := tx.Prepare(`INSERT INTO run_outcomes (
		run_id, vendor_id, state, reason, rounds, unit_price, tco, savings
	) VALUES (?,?,?,?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		log.Printf("[DB] InsertOutcomes prepare: %v", err)
		return
	}
	defer stmt.Close()

	for _, o := range outcomes {
		var unitPrice, tco float64
		if o.FinalOffer != nil {
			unitPrice = o.FinalOffer.Components.UnitPrice
			tco = eval.MustTCO(o.FinalOffer.Components)
		}
		stmt.Exec(runID, o.VendorID, string(o.State), o.Reason, o.Rounds, unitPrice, tco, o.Savings)
	}

	if err := tx.Commit(); err != nil {
		log.Printf("[DB] InsertOutcomes commit: %v", err)
	}
}

// GetOutcomes retrieves the per-vendor outcomes for a run.
func (d *DB) GetOutcomes(runID int64) []engine.Outcome {
	rows, err := d.sql.Query(`
		SELECT vendor_id, state, reason, rounds, savings
		FROM run_outcomes WHERE run_id = ? ORDER BY id
	`, runID)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var out []engine.Outcome
	for rows.Next() {
		var o engine.Outcome
		var state string
		rows.Scan(&o.VendorID, &state, &o.Reason, &o.Rounds, &o.Savings)
		o.State = types.FSMState(state)
		out = append(out, o)
	}
	return out
}
