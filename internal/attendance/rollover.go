package attendance

import (
	"context"
	"fmt"
)

// rolloverSQL advances every attendance row by one day in a single statement:
// the day counter always moves, the present counter moves only when the row
// was marked present, the stored percentage is recomputed from the new
// counters, and the daily flag is reset. Row locks taken by the update make
// concurrent marks land entirely before or entirely after the pass.
const rolloverSQL = `
	UPDATE attendance SET
		total_days   = total_days + 1,
		days_present = days_present + CASE WHEN today_marked = 'present' THEN 1 ELSE 0 END,
		percent      = (days_present + CASE WHEN today_marked = 'present' THEN 1 ELSE 0 END)::double precision * 100 / (total_days + 1),
		today_marked = 'unset'
`

// RolloverAll applies the daily advance to every attendance row inside one
// transaction: either the whole table moves forward a day or none of it does.
// Each invocation counts a day, so the caller must trigger it exactly once
// per day boundary.
func (r *Repository) RolloverAll(ctx context.Context) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("rollover begin: %w", err)
	}
	res, err := tx.ExecContext(ctx, rolloverSQL)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("rollover update: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("rollover commit: %w", err)
	}
	return affected, nil
}

// advanceCounters is the per-row rollover step. It mirrors rolloverSQL and
// exists so the arithmetic is testable without a database.
func advanceCounters(totalDays, daysPresent int, marked Mark) (int, int, float64) {
	totalDays++
	if marked == MarkPresent {
		daysPresent++
	}
	percent := 0.0
	if totalDays > 0 {
		percent = float64(daysPresent) * 100 / float64(totalDays)
	}
	return totalDays, daysPresent, percent
}
