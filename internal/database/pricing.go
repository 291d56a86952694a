package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"spacehub/internal/models"
)

const pricingColumns = `id, space_id, name, base_price, peak_price, off_peak_price, weekend_price, holiday_price,
	deposit_percentage, min_booking_duration, max_booking_duration, is_active, created_at, updated_at`

func scanPricingRule(row rowScanner) (*models.PricingRule, error) {
	var (
		r                               models.PricingRule
		peak, offPeak, weekend, holiday sql.NullFloat64
		maxDuration                     sql.NullFloat64
	)
	err := row.Scan(&r.ID, &r.SpaceID, &r.Name, &r.BasePrice, &peak, &offPeak, &weekend, &holiday,
		&r.DepositPercentage, &r.MinBookingDuration, &maxDuration, &r.IsActive, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.PeakPrice = floatPtr(peak)
	r.OffPeakPrice = floatPtr(offPeak)
	r.WeekendPrice = floatPtr(weekend)
	r.HolidayPrice = floatPtr(holiday)
	r.MaxBookingDuration = floatPtr(maxDuration)
	return &r, nil
}

func (db *DB) queryPricingRules(ctx context.Context, query string, args ...interface{}) ([]*models.PricingRule, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pricing rules: %w", err)
	}
	defer rows.Close()

	var list []*models.PricingRule
	for rows.Next() {
		r, err := scanPricingRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pricing rule: %w", err)
		}
		list = append(list, r)
	}
	return list, rows.Err()
}

// CreatePricingRule stores a rule. Only one active rule per space is allowed.
func (db *DB) CreatePricingRule(ctx context.Context, r *models.PricingRule) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if r.IsActive {
			var active int
			if err := tx.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM pricing_rules WHERE space_id = ? AND is_active = 1`, r.SpaceID).Scan(&active); err != nil {
				return fmt.Errorf("failed to check pricing rules: %w", err)
			}
			if active > 0 {
				return ErrDuplicate
			}
		}

		now := time.Now()
		res, err := tx.ExecContext(ctx, `INSERT INTO pricing_rules (
				space_id, name, base_price, peak_price, off_peak_price, weekend_price, holiday_price,
				deposit_percentage, min_booking_duration, max_booking_duration, is_active, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.SpaceID, r.Name, r.BasePrice, nullFloat(r.PeakPrice), nullFloat(r.OffPeakPrice),
			nullFloat(r.WeekendPrice), nullFloat(r.HolidayPrice), r.DepositPercentage,
			r.MinBookingDuration, nullFloat(r.MaxBookingDuration), r.IsActive, now, now)
		if err != nil {
			return fmt.Errorf("failed to create pricing rule: %w", err)
		}
		r.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		r.CreatedAt = now
		r.UpdatedAt = now
		return nil
	})
}

func (db *DB) GetPricingRule(ctx context.Context, id int64) (*models.PricingRule, error) {
	r, err := scanPricingRule(db.QueryRowContext(ctx, `SELECT `+pricingColumns+` FROM pricing_rules WHERE id = ?`, id))
	if err != nil {
		return nil, notFoundOr(err, "failed to get pricing rule %d", id)
	}
	return r, nil
}

// GetActivePricingRules returns the active rules of a space, lowest id first.
func (db *DB) GetActivePricingRules(ctx context.Context, spaceID int64) ([]*models.PricingRule, error) {
	return db.queryPricingRules(ctx,
		`SELECT `+pricingColumns+` FROM pricing_rules WHERE space_id = ? AND is_active = 1 ORDER BY id ASC`, spaceID)
}

func (db *DB) GetPricingRulesBySpace(ctx context.Context, spaceID int64) ([]*models.PricingRule, error) {
	return db.queryPricingRules(ctx,
		`SELECT `+pricingColumns+` FROM pricing_rules WHERE space_id = ? ORDER BY id ASC`, spaceID)
}

func (db *DB) ListPricingRules(ctx context.Context) ([]*models.PricingRule, error) {
	return db.queryPricingRules(ctx, `SELECT `+pricingColumns+` FROM pricing_rules ORDER BY space_id ASC, id ASC`)
}

// UpdatePricingRule saves the rule. Activating a second rule for the same
// space is rejected with ErrDuplicate.
func (db *DB) UpdatePricingRule(ctx context.Context, r *models.PricingRule) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if r.IsActive {
			var active int
			if err := tx.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM pricing_rules WHERE space_id = ? AND is_active = 1 AND id != ?`,
				r.SpaceID, r.ID).Scan(&active); err != nil {
				return fmt.Errorf("failed to check pricing rules: %w", err)
			}
			if active > 0 {
				return ErrDuplicate
			}
		}

		r.UpdatedAt = time.Now()
		res, err := tx.ExecContext(ctx, `UPDATE pricing_rules SET
				name = ?, base_price = ?, peak_price = ?, off_peak_price = ?, weekend_price = ?, holiday_price = ?,
				deposit_percentage = ?, min_booking_duration = ?, max_booking_duration = ?, is_active = ?, updated_at = ?
			WHERE id = ?`,
			r.Name, r.BasePrice, nullFloat(r.PeakPrice), nullFloat(r.OffPeakPrice), nullFloat(r.WeekendPrice),
			nullFloat(r.HolidayPrice), r.DepositPercentage, r.MinBookingDuration, nullFloat(r.MaxBookingDuration),
			r.IsActive, r.UpdatedAt, r.ID)
		return checkAffected(res, err, "update pricing rule")
	})
}
