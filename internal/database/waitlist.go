package database

import (
	"context"
	"fmt"
	"time"

	"spacehub/internal/models"
)

const waitlistColumns = `id, user_id, space_id, facility_id, requested_date, requested_start_time,
	requested_end_time, participants, status, created_at, updated_at`

func (db *DB) queryWaitlist(ctx context.Context, query string, args ...interface{}) ([]*models.WaitlistEntry, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query waitlist: %w", err)
	}
	defer rows.Close()

	var entries []*models.WaitlistEntry
	for rows.Next() {
		var e models.WaitlistEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.SpaceID, &e.FacilityID, &e.RequestedDate,
			&e.RequestedStartTime, &e.RequestedEndTime, &e.Participants, &e.Status,
			&e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan waitlist entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func (db *DB) CreateWaitlistEntry(ctx context.Context, e *models.WaitlistEntry) error {
	now := time.Now()
	e.Status = models.WaitlistWaiting
	res, err := db.ExecContext(ctx, `INSERT INTO waitlist (
			user_id, space_id, facility_id, requested_date, requested_start_time, requested_end_time,
			participants, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, e.SpaceID, e.FacilityID, e.RequestedDate, e.RequestedStartTime, e.RequestedEndTime,
		e.Participants, e.Status, now, now)
	if err != nil {
		return fmt.Errorf("failed to create waitlist entry: %w", err)
	}
	e.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	e.CreatedAt = now
	e.UpdatedAt = now
	return nil
}

func (db *DB) GetWaitlistEntry(ctx context.Context, id int64) (*models.WaitlistEntry, error) {
	entries, err := db.queryWaitlist(ctx, `SELECT `+waitlistColumns+` FROM waitlist WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNotFound
	}
	return entries[0], nil
}

func (db *DB) GetWaitlistByUser(ctx context.Context, userID int64) ([]*models.WaitlistEntry, error) {
	return db.queryWaitlist(ctx,
		`SELECT `+waitlistColumns+` FROM waitlist WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
}

// GetWaitingBySpace returns waiting entries in arrival order.
func (db *DB) GetWaitingBySpace(ctx context.Context, spaceID int64) ([]*models.WaitlistEntry, error) {
	return db.queryWaitlist(ctx, `SELECT `+waitlistColumns+` FROM waitlist
		WHERE space_id = ? AND status = ? ORDER BY created_at ASC, id ASC`, spaceID, models.WaitlistWaiting)
}

// GetWaitingForSlot returns waiting entries matching the exact date and times.
func (db *DB) GetWaitingForSlot(ctx context.Context, spaceID int64, date, start, end string) ([]*models.WaitlistEntry, error) {
	return db.queryWaitlist(ctx, `SELECT `+waitlistColumns+` FROM waitlist
		WHERE space_id = ? AND requested_date = ? AND requested_start_time = ? AND requested_end_time = ? AND status = ?
		ORDER BY created_at ASC, id ASC`, spaceID, date, start, end, models.WaitlistWaiting)
}

func (db *DB) UpdateWaitlistStatus(ctx context.Context, id int64, status string) error {
	res, err := db.ExecContext(ctx, `UPDATE waitlist SET status = ?, updated_at = ? WHERE id = ?`, status, time.Now(), id)
	return checkAffected(res, err, "update waitlist status")
}

func (db *DB) DeleteWaitlistEntry(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM waitlist WHERE id = ?`, id)
	return checkAffected(res, err, "delete waitlist entry")
}
