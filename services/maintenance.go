package services

import (
	"database/sql"
	"log"
	"sync/atomic"
	"time"

	"procurement-backend/models"
	"procurement-backend/storage"
)

var maintenanceRunning int32

// RunDailyMaintenance is the nightly housekeeping pass: expired
// sessions are purged and approved RFPs that saw no activity for
// autoCloseAfter are moved to CLOSED. The atomic guard keeps
// overlapping cron fires from doubling up.
func RunDailyMaintenance(db *sql.DB, autoCloseAfter time.Duration) {
	if !atomic.CompareAndSwapInt32(&maintenanceRunning, 0, 1) {
		log.Println("Maintenance already running, skipping this fire")
		return
	}
	defer atomic.StoreInt32(&maintenanceRunning, 0)

	if err := storage.CleanupExpiredSessions(db); err != nil {
		log.Printf("Session cleanup failed: %v", err)
	}
	if err := autoCloseApprovedRFPs(db, autoCloseAfter); err != nil {
		log.Printf("RFP auto-close failed: %v", err)
	}
}

// autoCloseApprovedRFPs closes approved RFPs left untouched past the
// cutoff so the open-RFP list reflects work actually in flight.
func autoCloseApprovedRFPs(db *sql.DB, after time.Duration) error {
	cutoff := time.Now().Add(-after)
	rows, err := db.Query(`
		SELECT id, rfp_number FROM rfp
		WHERE status = $1 AND updated_at < $2`, models.RFPApproved, cutoff)
	if err != nil {
		return err
	}
	defer rows.Close()

	type ref struct {
		id     int
		number string
	}
	var stale []ref
	for rows.Next() {
		var r ref
		if err := rows.Scan(&r.id, &r.number); err != nil {
			return err
		}
		stale = append(stale, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, r := range stale {
		_, err := db.Exec(`UPDATE rfp SET status = $1, updated_at = $2, updated_by = 'system' WHERE id = $3 AND status = $4`,
			models.RFPClosed, time.Now(), r.id, models.RFPApproved)
		if err != nil {
			return err
		}
		log.Printf("Auto-closed RFP %s", r.number)
	}
	return nil
}
