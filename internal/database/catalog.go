package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"spacehub/internal/models"
)

const facilityColumns = `id, name, description, address, city, state, zip_code, country, latitude, longitude,
	contact_phone, contact_email, website, images, is_active, owner_id, created_at, updated_at`

const spaceColumns = `id, facility_id, name, description, type, sport_type, capacity, images, amenities,
	is_active, created_at, updated_at`

func scanFacility(row rowScanner) (*models.Facility, error) {
	var (
		f        models.Facility
		lat, lng sql.NullFloat64
		images   string
	)
	err := row.Scan(&f.ID, &f.Name, &f.Description, &f.Address, &f.City, &f.State, &f.ZipCode, &f.Country,
		&lat, &lng, &f.ContactPhone, &f.ContactEmail, &f.Website, &images, &f.IsActive, &f.OwnerID,
		&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	f.Latitude = floatPtr(lat)
	f.Longitude = floatPtr(lng)
	f.Images = splitList(images)
	return &f, nil
}

func (db *DB) queryFacilities(ctx context.Context, query string, args ...interface{}) ([]*models.Facility, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query facilities: %w", err)
	}
	defer rows.Close()

	var facilities []*models.Facility
	for rows.Next() {
		f, err := scanFacility(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan facility: %w", err)
		}
		facilities = append(facilities, f)
	}
	return facilities, rows.Err()
}

func (db *DB) CreateFacility(ctx context.Context, f *models.Facility) error {
	now := time.Now()
	res, err := db.ExecContext(ctx, `INSERT INTO facilities (
			name, description, address, city, state, zip_code, country, latitude, longitude,
			contact_phone, contact_email, website, images, is_active, owner_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.Name, f.Description, f.Address, f.City, f.State, f.ZipCode, f.Country,
		nullFloat(f.Latitude), nullFloat(f.Longitude), f.ContactPhone, f.ContactEmail, f.Website,
		joinList(f.Images), f.IsActive, f.OwnerID, now, now)
	if err != nil {
		return fmt.Errorf("failed to create facility: %w", err)
	}
	f.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	f.CreatedAt = now
	f.UpdatedAt = now
	return nil
}

func (db *DB) GetFacility(ctx context.Context, id int64) (*models.Facility, error) {
	f, err := scanFacility(db.QueryRowContext(ctx, `SELECT `+facilityColumns+` FROM facilities WHERE id = ?`, id))
	if err != nil {
		return nil, notFoundOr(err, "failed to get facility %d", id)
	}
	return f, nil
}

func (db *DB) ListActiveFacilities(ctx context.Context) ([]*models.Facility, error) {
	return db.queryFacilities(ctx, `SELECT `+facilityColumns+` FROM facilities WHERE is_active = 1 ORDER BY name ASC`)
}

func (db *DB) ListFacilitiesByOwner(ctx context.Context, ownerID int64) ([]*models.Facility, error) {
	return db.queryFacilities(ctx,
		`SELECT `+facilityColumns+` FROM facilities WHERE owner_id = ? ORDER BY created_at DESC, id DESC`, ownerID)
}

func (db *DB) CountFacilities(ctx context.Context) (int, error) {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM facilities`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count facilities: %w", err)
	}
	return count, nil
}

func (db *DB) UpdateFacility(ctx context.Context, f *models.Facility) error {
	f.UpdatedAt = time.Now()
	res, err := db.ExecContext(ctx, `UPDATE facilities SET
			name = ?, description = ?, address = ?, city = ?, state = ?, zip_code = ?, country = ?,
			latitude = ?, longitude = ?, contact_phone = ?, contact_email = ?, website = ?, images = ?,
			is_active = ?, owner_id = ?, updated_at = ?
		WHERE id = ?`,
		f.Name, f.Description, f.Address, f.City, f.State, f.ZipCode, f.Country,
		nullFloat(f.Latitude), nullFloat(f.Longitude), f.ContactPhone, f.ContactEmail, f.Website,
		joinList(f.Images), f.IsActive, f.OwnerID, f.UpdatedAt, f.ID)
	return checkAffected(res, err, "update facility")
}

func (db *DB) DeactivateFacility(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, `UPDATE facilities SET is_active = 0, updated_at = ? WHERE id = ?`, time.Now(), id)
	return checkAffected(res, err, "deactivate facility")
}

func scanSpace(row rowScanner) (*models.Space, error) {
	var (
		s                 models.Space
		images, amenities string
	)
	err := row.Scan(&s.ID, &s.FacilityID, &s.Name, &s.Description, &s.Type, &s.SportType, &s.Capacity,
		&images, &amenities, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.Images = splitList(images)
	s.Amenities = splitList(amenities)
	return &s, nil
}

func (db *DB) querySpaces(ctx context.Context, query string, args ...interface{}) ([]*models.Space, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query spaces: %w", err)
	}
	defer rows.Close()

	var spaces []*models.Space
	for rows.Next() {
		s, err := scanSpace(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan space: %w", err)
		}
		spaces = append(spaces, s)
	}
	return spaces, rows.Err()
}

func (db *DB) CreateSpace(ctx context.Context, s *models.Space) error {
	now := time.Now()
	res, err := db.ExecContext(ctx, `INSERT INTO spaces (
			facility_id, name, description, type, sport_type, capacity, images, amenities, is_active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.FacilityID, s.Name, s.Description, s.Type, s.SportType, s.Capacity,
		joinList(s.Images), joinList(s.Amenities), s.IsActive, now, now)
	if err != nil {
		return fmt.Errorf("failed to create space: %w", err)
	}
	s.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	s.CreatedAt = now
	s.UpdatedAt = now
	return nil
}

func (db *DB) GetSpace(ctx context.Context, id int64) (*models.Space, error) {
	s, err := scanSpace(db.QueryRowContext(ctx, `SELECT `+spaceColumns+` FROM spaces WHERE id = ?`, id))
	if err != nil {
		return nil, notFoundOr(err, "failed to get space %d", id)
	}
	return s, nil
}

func (db *DB) ListActiveSpaces(ctx context.Context) ([]*models.Space, error) {
	return db.querySpaces(ctx, `SELECT `+spaceColumns+` FROM spaces WHERE is_active = 1 ORDER BY name ASC`)
}

func (db *DB) ListSpacesByFacility(ctx context.Context, facilityID int64) ([]*models.Space, error) {
	return db.querySpaces(ctx,
		`SELECT `+spaceColumns+` FROM spaces WHERE facility_id = ? AND is_active = 1 ORDER BY name ASC`, facilityID)
}

func (db *DB) ListSpacesByType(ctx context.Context, spaceType string) ([]*models.Space, error) {
	return db.querySpaces(ctx,
		`SELECT `+spaceColumns+` FROM spaces WHERE type = ? AND is_active = 1 ORDER BY name ASC`, spaceType)
}

func (db *DB) UpdateSpace(ctx context.Context, s *models.Space) error {
	s.UpdatedAt = time.Now()
	res, err := db.ExecContext(ctx, `UPDATE spaces SET
			facility_id = ?, name = ?, description = ?, type = ?, sport_type = ?, capacity = ?,
			images = ?, amenities = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		s.FacilityID, s.Name, s.Description, s.Type, s.SportType, s.Capacity,
		joinList(s.Images), joinList(s.Amenities), s.IsActive, s.UpdatedAt, s.ID)
	return checkAffected(res, err, "update space")
}

func (db *DB) DeactivateSpace(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, `UPDATE spaces SET is_active = 0, updated_at = ? WHERE id = ?`, time.Now(), id)
	return checkAffected(res, err, "deactivate space")
}
