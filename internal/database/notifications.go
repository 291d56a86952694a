package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"spacehub/internal/models"
)

const notificationColumns = `id, user_id, type, title, message, booking_id, is_read, is_email_sent,
	is_sms_sent, is_push_sent, created_at`

func (db *DB) queryNotifications(ctx context.Context, query string, args ...interface{}) ([]*models.Notification, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var list []*models.Notification
	for rows.Next() {
		var (
			n         models.Notification
			bookingID sql.NullInt64
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &bookingID, &n.IsRead,
			&n.IsEmailSent, &n.IsSMSSent, &n.IsPushSent, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.BookingID = intPtr(bookingID)
		list = append(list, &n)
	}
	return list, rows.Err()
}

func (db *DB) CreateNotification(ctx context.Context, n *models.Notification) error {
	now := time.Now()
	res, err := db.ExecContext(ctx, `INSERT INTO notifications (
			user_id, type, title, message, booking_id, is_read, is_email_sent, is_sms_sent, is_push_sent, created_at
		) VALUES (?, ?, ?, ?, ?, 0, 0, 0, 0, ?)`,
		n.UserID, n.Type, n.Title, n.Message, nullInt(n.BookingID), now)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	n.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	n.CreatedAt = now
	return nil
}

func (db *DB) GetNotification(ctx context.Context, id int64) (*models.Notification, error) {
	list, err := db.queryNotifications(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return list[0], nil
}

func (db *DB) GetUserNotifications(ctx context.Context, userID int64) ([]*models.Notification, error) {
	return db.queryNotifications(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
}

func (db *DB) GetUnreadNotifications(ctx context.Context, userID int64) ([]*models.Notification, error) {
	return db.queryNotifications(ctx, `SELECT `+notificationColumns+` FROM notifications
		WHERE user_id = ? AND is_read = 0 ORDER BY created_at DESC, id DESC`, userID)
}

func (db *DB) MarkNotificationRead(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ?`, id)
	return checkAffected(res, err, "mark notification read")
}

// MarkAllNotificationsRead returns the number of notifications changed.
func (db *DB) MarkAllNotificationsRead(ctx context.Context, userID int64) (int64, error) {
	res, err := db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return res.RowsAffected()
}

func (db *DB) MarkNotificationPushed(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, `UPDATE notifications SET is_push_sent = 1 WHERE id = ?`, id)
	return checkAffected(res, err, "mark notification pushed")
}

func (db *DB) DeleteNotification(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM notifications WHERE id = ?`, id)
	return checkAffected(res, err, "delete notification")
}
