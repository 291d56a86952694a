package database

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"spacehub/internal/models"
)

func (db *DB) CreateReview(ctx context.Context, r *models.Review) error {
	now := time.Now()
	res, err := db.ExecContext(ctx, `INSERT INTO reviews (
			user_id, space_id, facility_id, booking_id, rating, comment, is_public, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.UserID, r.SpaceID, r.FacilityID, nullInt(r.BookingID), r.Rating, r.Comment, r.IsPublic, now, now)
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	r.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	r.CreatedAt = now
	r.UpdatedAt = now
	return nil
}

// GetPublicReviewsBySpace returns public reviews newest first.
func (db *DB) GetPublicReviewsBySpace(ctx context.Context, spaceID int64) ([]*models.Review, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, user_id, space_id, facility_id, booking_id, rating, comment,
			is_public, created_at, updated_at
		FROM reviews WHERE space_id = ? AND is_public = 1 ORDER BY created_at DESC, id DESC`, spaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}
	defer rows.Close()

	var list []*models.Review
	for rows.Next() {
		var (
			r         models.Review
			bookingID sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.SpaceID, &r.FacilityID, &bookingID, &r.Rating, &r.Comment,
			&r.IsPublic, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		r.BookingID = intPtr(bookingID)
		list = append(list, &r)
	}
	return list, rows.Err()
}

// GetSpaceRating returns the average rating rounded to one decimal.
func (db *DB) GetSpaceRating(ctx context.Context, spaceID int64) (*models.RatingSummary, error) {
	var (
		avg   sql.NullFloat64
		count int
	)
	err := db.QueryRowContext(ctx,
		`SELECT AVG(rating), COUNT(*) FROM reviews WHERE space_id = ?`, spaceID).Scan(&avg, &count)
	if err != nil {
		return nil, fmt.Errorf("failed to get space rating: %w", err)
	}
	summary := &models.RatingSummary{Count: count}
	if avg.Valid {
		summary.Average = math.Round(avg.Float64*10) / 10
	}
	return summary, nil
}

// AddFavorite is idempotent: an existing pair is returned unchanged.
func (db *DB) AddFavorite(ctx context.Context, userID, spaceID int64) (*models.Favorite, error) {
	now := time.Now()
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO favorites (user_id, space_id, created_at) VALUES (?, ?, ?)`, userID, spaceID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to add favorite: %w", err)
	}

	var f models.Favorite
	err = db.QueryRowContext(ctx,
		`SELECT id, user_id, space_id, created_at FROM favorites WHERE user_id = ? AND space_id = ?`,
		userID, spaceID).Scan(&f.ID, &f.UserID, &f.SpaceID, &f.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to load favorite: %w", err)
	}
	return &f, nil
}

func (db *DB) RemoveFavorite(ctx context.Context, userID, spaceID int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM favorites WHERE user_id = ? AND space_id = ?`, userID, spaceID)
	return checkAffected(res, err, "remove favorite")
}

func (db *DB) GetFavoritesByUser(ctx context.Context, userID int64) ([]*models.Favorite, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, user_id, space_id, created_at FROM favorites WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get favorites: %w", err)
	}
	defer rows.Close()

	var list []*models.Favorite
	for rows.Next() {
		var f models.Favorite
		if err := rows.Scan(&f.ID, &f.UserID, &f.SpaceID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		list = append(list, &f)
	}
	return list, rows.Err()
}

func (db *DB) IsFavorite(ctx context.Context, userID, spaceID int64) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM favorites WHERE user_id = ? AND space_id = ?`, userID, spaceID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return count > 0, nil
}
