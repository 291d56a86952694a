package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"spacehub/internal/models"
)

const scheduleColumns = `id, space_id, day_of_week, open_time, close_time, is_available, created_at, updated_at`

func querySchedules(ctx context.Context, q queryer, spaceID int64) ([]*models.AvailabilitySchedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM availability_schedules WHERE space_id = ? ORDER BY day_of_week ASC, id ASC`
	rows, err := q.QueryContext(ctx, query, spaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []*models.AvailabilitySchedule
	for rows.Next() {
		var s models.AvailabilitySchedule
		if err := rows.Scan(&s.ID, &s.SpaceID, &s.DayOfWeek, &s.OpenTime, &s.CloseTime,
			&s.IsAvailable, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		schedules = append(schedules, &s)
	}
	return schedules, rows.Err()
}

// CreateSchedule adds a weekday schedule row. A second row for the same
// space and weekday is rejected with ErrDuplicate.
func (db *DB) CreateSchedule(ctx context.Context, s *models.AvailabilitySchedule) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM availability_schedules WHERE space_id = ? AND day_of_week = ?`,
			s.SpaceID, s.DayOfWeek).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check schedule: %w", err)
		}
		if exists > 0 {
			return ErrDuplicate
		}

		now := time.Now()
		res, err := tx.ExecContext(ctx, `INSERT INTO availability_schedules
			(space_id, day_of_week, open_time, close_time, is_available, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			s.SpaceID, s.DayOfWeek, s.OpenTime, s.CloseTime, s.IsAvailable, now, now)
		if err != nil {
			return fmt.Errorf("failed to create schedule: %w", err)
		}
		s.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		s.CreatedAt = now
		s.UpdatedAt = now
		return nil
	})
}

func (db *DB) GetSchedulesBySpace(ctx context.Context, spaceID int64) ([]*models.AvailabilitySchedule, error) {
	schedules, err := querySchedules(ctx, db, spaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get schedules: %w", err)
	}
	return schedules, nil
}

func (db *DB) GetSchedule(ctx context.Context, id int64) (*models.AvailabilitySchedule, error) {
	var s models.AvailabilitySchedule
	err := db.QueryRowContext(ctx, `SELECT `+scheduleColumns+` FROM availability_schedules WHERE id = ?`, id).Scan(
		&s.ID, &s.SpaceID, &s.DayOfWeek, &s.OpenTime, &s.CloseTime, &s.IsAvailable, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, notFoundOr(err, "failed to get schedule %d", id)
	}
	return &s, nil
}

func (db *DB) UpdateSchedule(ctx context.Context, s *models.AvailabilitySchedule) error {
	s.UpdatedAt = time.Now()
	res, err := db.ExecContext(ctx,
		`UPDATE availability_schedules SET open_time = ?, close_time = ?, is_available = ?, updated_at = ? WHERE id = ?`,
		s.OpenTime, s.CloseTime, s.IsAvailable, s.UpdatedAt, s.ID)
	return checkAffected(res, err, "update schedule")
}

func queryActiveBlackouts(ctx context.Context, q queryer, spaceID int64) ([]*models.BlackoutDate, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, space_id, start_date, end_date, reason, is_active, created_at
		FROM blackout_dates WHERE space_id = ? AND is_active = 1 ORDER BY start_date ASC, id ASC`, spaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blackouts []*models.BlackoutDate
	for rows.Next() {
		var b models.BlackoutDate
		if err := rows.Scan(&b.ID, &b.SpaceID, &b.StartDate, &b.EndDate, &b.Reason, &b.IsActive, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan blackout: %w", err)
		}
		blackouts = append(blackouts, &b)
	}
	return blackouts, rows.Err()
}

// CreateBlackoutDate stores an active blackout range.
func (db *DB) CreateBlackoutDate(ctx context.Context, b *models.BlackoutDate) error {
	now := time.Now()
	res, err := db.ExecContext(ctx, `INSERT INTO blackout_dates (space_id, start_date, end_date, reason, is_active, created_at)
		VALUES (?, ?, ?, ?, 1, ?)`, b.SpaceID, b.StartDate, b.EndDate, b.Reason, now)
	if err != nil {
		return fmt.Errorf("failed to create blackout date: %w", err)
	}
	b.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	b.IsActive = true
	b.CreatedAt = now
	return nil
}

func (db *DB) GetActiveBlackoutDates(ctx context.Context, spaceID int64) ([]*models.BlackoutDate, error) {
	blackouts, err := queryActiveBlackouts(ctx, db, spaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get blackout dates: %w", err)
	}
	return blackouts, nil
}

func (db *DB) DeactivateBlackoutDate(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, `UPDATE blackout_dates SET is_active = 0 WHERE id = ?`, id)
	return checkAffected(res, err, "deactivate blackout date")
}
