package sqlite

import (
	"context"
	"database/sql"

	"github.com/folioapp/folio-server/internal/domain"
	"github.com/folioapp/folio-server/internal/store"
)

// notificationColumns must match the scan order in scanNotification.
const notificationColumns = `id, user_id, type, title, message, link, read, created_at`

func scanNotification(scanner interface{ Scan(dest ...any) error }) (*domain.Notification, error) {
	var n domain.Notification
	var link sql.NullString
	var read int
	var createdAt string

	err := scanner.Scan(
		&n.ID,
		&n.UserID,
		&n.Type,
		&n.Title,
		&n.Message,
		&link,
		&read,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if link.Valid {
		n.Link = link.String
	}
	n.Read = read != 0

	n.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}

	return &n, nil
}

// CreateNotification inserts a notification row.
func (s *Store) CreateNotification(ctx context.Context, n *domain.Notification) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, type, title, message, link, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID,
		n.UserID,
		n.Type,
		n.Title,
		n.Message,
		nullString(n.Link),
		boolToInt(n.Read),
		formatTime(n.CreatedAt),
	)
	if err != nil && isUniqueViolation(err) {
		return store.ErrAlreadyExists.WithMessage("notification already exists")
	}
	return err
}

// ListNotificationsForUser returns a user's notifications, newest first.
func (s *Store) ListNotificationsForUser(ctx context.Context, userID string) ([]*domain.Notification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications
		 WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkNotificationRead marks a notification read, scoped to its owner.
func (s *Store) MarkNotificationRead(ctx context.Context, id, userID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET read = 1 WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound.WithMessage("notification not found")
	}
	return nil
}
