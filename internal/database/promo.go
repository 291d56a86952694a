package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"spacehub/internal/models"
)

const promoColumns = `id, code, description, discount_type, discount_value, max_uses, current_uses,
	valid_from, valid_until, is_active, created_at, updated_at`

func scanPromo(row rowScanner) (*models.PromoCode, error) {
	var (
		p       models.PromoCode
		maxUses sql.NullInt64
	)
	err := row.Scan(&p.ID, &p.Code, &p.Description, &p.DiscountType, &p.DiscountValue, &maxUses,
		&p.CurrentUses, &p.ValidFrom, &p.ValidUntil, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if maxUses.Valid {
		v := int(maxUses.Int64)
		p.MaxUses = &v
	}
	return &p, nil
}

func nullMaxUses(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

// CreatePromoCode stores the code upper-cased. Codes are unique.
func (db *DB) CreatePromoCode(ctx context.Context, p *models.PromoCode) error {
	p.Code = strings.ToUpper(strings.TrimSpace(p.Code))
	now := time.Now()
	res, err := db.ExecContext(ctx, `INSERT INTO promo_codes (
			code, description, discount_type, discount_value, max_uses, current_uses,
			valid_from, valid_until, is_active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, 0, ?, ?, ?, ?, ?)`,
		p.Code, p.Description, p.DiscountType, p.DiscountValue, nullMaxUses(p.MaxUses),
		p.ValidFrom, p.ValidUntil, p.IsActive, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create promo code: %w", err)
	}
	p.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	p.CurrentUses = 0
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

func (db *DB) GetPromoCode(ctx context.Context, id int64) (*models.PromoCode, error) {
	p, err := scanPromo(db.QueryRowContext(ctx, `SELECT `+promoColumns+` FROM promo_codes WHERE id = ?`, id))
	if err != nil {
		return nil, notFoundOr(err, "failed to get promo code %d", id)
	}
	return p, nil
}

// GetActivePromoByCode looks the code up case-insensitively among active codes.
func (db *DB) GetActivePromoByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	p, err := scanPromo(db.QueryRowContext(ctx,
		`SELECT `+promoColumns+` FROM promo_codes WHERE code = ? AND is_active = 1`,
		strings.ToUpper(strings.TrimSpace(code))))
	if err != nil {
		return nil, notFoundOr(err, "failed to get promo code %s", code)
	}
	return p, nil
}

func (db *DB) ListPromoCodes(ctx context.Context) ([]*models.PromoCode, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+promoColumns+` FROM promo_codes ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list promo codes: %w", err)
	}
	defer rows.Close()

	var list []*models.PromoCode
	for rows.Next() {
		p, err := scanPromo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan promo code: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func (db *DB) UpdatePromoCode(ctx context.Context, p *models.PromoCode) error {
	p.Code = strings.ToUpper(strings.TrimSpace(p.Code))
	p.UpdatedAt = time.Now()
	res, err := db.ExecContext(ctx, `UPDATE promo_codes SET
			code = ?, description = ?, discount_type = ?, discount_value = ?, max_uses = ?,
			valid_from = ?, valid_until = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		p.Code, p.Description, p.DiscountType, p.DiscountValue, nullMaxUses(p.MaxUses),
		p.ValidFrom, p.ValidUntil, p.IsActive, p.UpdatedAt, p.ID)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return checkAffected(res, err, "update promo code")
}

func (db *DB) DeletePromoCode(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM promo_codes WHERE id = ?`, id)
	return checkAffected(res, err, "delete promo code")
}

func hasUsedPromo(ctx context.Context, q queryer, promoID, userID int64) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM promo_code_usage WHERE promo_code_id = ? AND user_id = ?`, promoID, userID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (db *DB) HasUserUsedPromo(ctx context.Context, promoID, userID int64) (bool, error) {
	used, err := hasUsedPromo(ctx, db, promoID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check promo usage: %w", err)
	}
	return used, nil
}

// redeemPromo re-checks the usage limit and the per-user rule, then records
// the usage and bumps current_uses by one.
func redeemPromo(ctx context.Context, q queryer, promoID, userID, bookingID int64, discount float64) error {
	promo, err := scanPromo(q.QueryRowContext(ctx, `SELECT `+promoColumns+` FROM promo_codes WHERE id = ?`, promoID))
	if err != nil {
		return notFoundOr(err, "failed to load promo code %d", promoID)
	}
	if !promo.IsActive || promo.UsageLimitReached() {
		return ErrPromoUnavailable
	}
	used, err := hasUsedPromo(ctx, q, promoID, userID)
	if err != nil {
		return fmt.Errorf("failed to check promo usage: %w", err)
	}
	if used {
		return ErrPromoUnavailable
	}

	if _, err := q.ExecContext(ctx, `INSERT INTO promo_code_usage (promo_code_id, user_id, booking_id, discount_amount, used_at)
		VALUES (?, ?, ?, ?, ?)`, promoID, userID, bookingID, discount, time.Now()); err != nil {
		return fmt.Errorf("failed to record promo usage: %w", err)
	}
	if _, err := q.ExecContext(ctx,
		`UPDATE promo_codes SET current_uses = current_uses + 1, updated_at = ? WHERE id = ?`,
		time.Now(), promoID); err != nil {
		return fmt.Errorf("failed to increment promo uses: %w", err)
	}
	return nil
}

// RedeemPromoCode records a promo use atomically.
func (db *DB) RedeemPromoCode(ctx context.Context, promoID, userID, bookingID int64, discount float64) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		return redeemPromo(ctx, tx, promoID, userID, bookingID, discount)
	})
}

func (db *DB) GetPromoUsages(ctx context.Context, promoID int64) ([]*models.PromoCodeUsage, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, promo_code_id, user_id, booking_id, discount_amount, used_at
		FROM promo_code_usage WHERE promo_code_id = ? ORDER BY used_at ASC, id ASC`, promoID)
	if err != nil {
		return nil, fmt.Errorf("failed to get promo usages: %w", err)
	}
	defer rows.Close()

	var list []*models.PromoCodeUsage
	for rows.Next() {
		var u models.PromoCodeUsage
		if err := rows.Scan(&u.ID, &u.PromoCodeID, &u.UserID, &u.BookingID, &u.DiscountAmount, &u.UsedAt); err != nil {
			return nil, fmt.Errorf("failed to scan promo usage: %w", err)
		}
		list = append(list, &u)
	}
	return list, rows.Err()
}
