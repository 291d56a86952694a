package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"spacehub/internal/models"
	"spacehub/internal/rules"
)

const bookingColumns = `id, user_id, space_id, facility_id, start_time, end_time, duration,
	participants, total_price, deposit_amount, discount_amount, promo_code_id,
	status, payment_status, special_requests, is_recurring, recurring_pattern,
	parent_booking_id, created_at, updated_at, version`

func scanBooking(row rowScanner) (*models.Booking, error) {
	var (
		b          models.Booking
		start, end string
		promoID    sql.NullInt64
		parentID   sql.NullInt64
	)
	err := row.Scan(
		&b.ID, &b.UserID, &b.SpaceID, &b.FacilityID, &start, &end, &b.Duration,
		&b.Participants, &b.TotalPrice, &b.DepositAmount, &b.DiscountAmount, &promoID,
		&b.Status, &b.PaymentStatus, &b.SpecialRequests, &b.IsRecurring, &b.RecurringPattern,
		&parentID, &b.CreatedAt, &b.UpdatedAt, &b.Version,
	)
	if err != nil {
		return nil, err
	}
	if b.StartTime, err = parseDateTime(start); err != nil {
		return nil, fmt.Errorf("failed to parse booking start %s: %w", start, err)
	}
	if b.EndTime, err = parseDateTime(end); err != nil {
		return nil, fmt.Errorf("failed to parse booking end %s: %w", end, err)
	}
	b.PromoCodeID = intPtr(promoID)
	b.ParentBookingID = intPtr(parentID)
	return &b, nil
}

func queryBookings(ctx context.Context, q queryer, query string, args ...interface{}) ([]*models.Booking, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func insertBooking(ctx context.Context, q queryer, b *models.Booking) error {
	query := `INSERT INTO bookings (
				user_id, space_id, facility_id, start_time, end_time, duration,
				participants, total_price, deposit_amount, discount_amount, promo_code_id,
				status, payment_status, special_requests, is_recurring, recurring_pattern,
				parent_booking_id, created_at, updated_at, version
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		b.UserID, b.SpaceID, b.FacilityID,
		formatDateTime(b.StartTime), formatDateTime(b.EndTime), b.Duration,
		b.Participants, b.TotalPrice, b.DepositAmount, b.DiscountAmount, nullInt(b.PromoCodeID),
		b.Status, b.PaymentStatus, b.SpecialRequests, b.IsRecurring, b.RecurringPattern,
		nullInt(b.ParentBookingID), now, now, 1,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	b.ID = id
	b.CreatedAt = now
	b.UpdatedAt = now
	b.Version = 1
	return nil
}

// CreateBookingWithLock re-runs the availability check inside a write
// transaction and inserts the booking only when the slot is free. An
// unavailable slot is reported through the result, not an error. When
// redemption is set the promo use is recorded in the same transaction.
func (db *DB) CreateBookingWithLock(
	ctx context.Context,
	booking *models.Booking,
	redemption *models.PromoRedemption,
) (*models.AvailabilityResult, error) {
	// часы расписания задаются в пределах одной даты
	if !rules.SameDay(booking.StartTime, booking.EndTime) {
		return &models.AvailabilityResult{IsAvailable: false, Reason: rules.ReasonMultiDay}, nil
	}
	req := rules.AvailabilityRequest{
		Date:      booking.StartTime.Format(models.DateLayout),
		StartTime: booking.StartTime.Format(models.ClockLayout),
		EndTime:   booking.EndTime.Format(models.ClockLayout),
	}

	var result *models.AvailabilityResult
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		schedules, err := querySchedules(ctx, tx, booking.SpaceID)
		if err != nil {
			return fmt.Errorf("failed to load schedules in tx: %w", err)
		}
		blackouts, err := queryActiveBlackouts(ctx, tx, booking.SpaceID)
		if err != nil {
			return fmt.Errorf("failed to load blackouts in tx: %w", err)
		}
		existing, err := queryOverlapping(ctx, tx, booking.SpaceID, booking.StartTime, booking.EndTime)
		if err != nil {
			return fmt.Errorf("failed to load bookings in tx: %w", err)
		}

		result, err = rules.CheckAvailability(req, schedules, blackouts, existing)
		if err != nil {
			return err
		}
		if !result.IsAvailable {
			return nil
		}

		if err := insertBooking(ctx, tx, booking); err != nil {
			return err
		}
		if redemption != nil {
			return redeemPromo(ctx, tx, redemption.PromoCodeID, redemption.UserID, booking.ID, redemption.DiscountAmount)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFoundOr(err, "failed to get booking %d", id)
	}
	return b, nil
}

// ListBookings returns bookings newest first.
func (db *DB) ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE 1 = 1`
	var args []interface{}
	if filter.UserID != 0 {
		query += ` AND user_id = ?`
		args = append(args, filter.UserID)
	}
	if filter.SpaceID != 0 {
		query += ` AND space_id = ?`
		args = append(args, filter.SpaceID)
	}
	if filter.FacilityID != 0 {
		query += ` AND facility_id = ?`
		args = append(args, filter.FacilityID)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	bookings, err := queryBookings(ctx, db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

func queryOverlapping(ctx context.Context, q queryer, spaceID int64, start, end time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE space_id = ? AND status != ? AND start_time < ? AND end_time > ?
              ORDER BY start_time ASC`
	return queryBookings(ctx, q, query, spaceID, models.StatusCancelled, formatDateTime(end), formatDateTime(start))
}

// GetOverlappingBookings returns the non-cancelled bookings of a space that
// intersect [start, end).
func (db *DB) GetOverlappingBookings(ctx context.Context, spaceID int64, start, end time.Time) ([]*models.Booking, error) {
	bookings, err := queryOverlapping(ctx, db, spaceID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to get overlapping bookings: %w", err)
	}
	return bookings, nil
}

// GetSpaceBookingsOnDate returns non-cancelled bookings starting on date.
func (db *DB) GetSpaceBookingsOnDate(ctx context.Context, spaceID int64, date string) ([]*models.Booking, error) {
	day, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE space_id = ? AND status != ? AND start_time >= ? AND start_time < ?
              ORDER BY start_time ASC`
	bookings, err := queryBookings(ctx, db, query,
		spaceID, models.StatusCancelled, formatDateTime(day), formatDateTime(day.AddDate(0, 0, 1)))
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings on date: %w", err)
	}
	return bookings, nil
}

// GetBookingsByDateRange returns bookings starting between the two dates inclusive.
func (db *DB) GetBookingsByDateRange(ctx context.Context, startDate, endDate time.Time) ([]*models.Booking, error) {
	from := time.Date(startDate.Year(), startDate.Month(), startDate.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(endDate.Year(), endDate.Month(), endDate.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)

	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE start_time >= ? AND start_time < ? ORDER BY start_time ASC, id ASC`
	bookings, err := queryBookings(ctx, db, query, formatDateTime(from), formatDateTime(to))
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings by date range: %w", err)
	}
	return bookings, nil
}

// GetBookingsEndedBefore returns bookings in status whose end time is before t.
func (db *DB) GetBookingsEndedBefore(ctx context.Context, status string, t time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE status = ? AND end_time <= ? ORDER BY end_time ASC`
	bookings, err := queryBookings(ctx, db, query, status, formatDateTime(t))
	if err != nil {
		return nil, fmt.Errorf("failed to get ended bookings: %w", err)
	}
	return bookings, nil
}

func (db *DB) UpdateBookingStatusWithVersion(ctx context.Context, id, fromVersion int64, status string) error {
	query := `UPDATE bookings SET status = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`
	return db.versionedUpdate(ctx, query, "update booking status", status, time.Now(), id, fromVersion)
}

func (db *DB) UpdatePaymentStatusWithVersion(ctx context.Context, id, fromVersion int64, paymentStatus string) error {
	query := `UPDATE bookings SET payment_status = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`
	return db.versionedUpdate(ctx, query, "update payment status", paymentStatus, time.Now(), id, fromVersion)
}

func (db *DB) UpdateBookingDetailsWithVersion(
	ctx context.Context,
	id, fromVersion int64,
	participants int,
	specialRequests string,
) error {
	query := `UPDATE bookings SET participants = ?, special_requests = ?, version = version + 1, updated_at = ?
              WHERE id = ? AND version = ?`
	return db.versionedUpdate(ctx, query, "update booking", participants, specialRequests, time.Now(), id, fromVersion)
}

func (db *DB) versionedUpdate(ctx context.Context, query, op string, args ...interface{}) error {
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}
