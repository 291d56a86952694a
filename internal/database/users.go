package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"spacehub/internal/models"
)

const userColumns = `id, name, email, phone, role, membership_status, is_verified, telegram_chat_id, created_at, updated_at`

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.MembershipStatus, &u.IsVerified,
		&u.TelegramChatID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser stores a user; the email must be unique (case-insensitive).
func (db *DB) CreateUser(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	now := time.Now()
	res, err := db.ExecContext(ctx, `INSERT INTO users (
			name, email, phone, role, membership_status, is_verified, telegram_chat_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Name, u.Email, u.Phone, u.Role, u.MembershipStatus, u.IsVerified, u.TelegramChatID, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	u.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return nil, notFoundOr(err, "failed to get user %d", id)
	}
	return u, nil
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(strings.TrimSpace(email))))
	if err != nil {
		return nil, notFoundOr(err, "failed to get user by email")
	}
	return u, nil
}

func (db *DB) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (db *DB) UpdateUser(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.UpdatedAt = time.Now()
	res, err := db.ExecContext(ctx, `UPDATE users SET
			name = ?, email = ?, phone = ?, role = ?, membership_status = ?, is_verified = ?,
			telegram_chat_id = ?, updated_at = ?
		WHERE id = ?`,
		u.Name, u.Email, u.Phone, u.Role, u.MembershipStatus, u.IsVerified, u.TelegramChatID, u.UpdatedAt, u.ID)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return checkAffected(res, err, "update user")
}
