package pg

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kiezhub-dev/kiezhub/shared/domain"
)

func (s *Storage) SaveNotification(n domain.Notification) error {
	ctx, cancel := opTimeout()
	defer cancel()

	data, err := json.Marshal(n.Data)
	if err != nil {
		return fmt.Errorf("failed to encode notification data: %w", err)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
            INSERT INTO notifications(user_id, notification_type, data)
            VALUES($1, $2, $3)`,
			n.UserId, n.Type, data)
		if err != nil {
			return fmt.Errorf("failed to insert notification: %w", err)
		}
		return nil
	})
}

func (s *Storage) Notifications(userId domain.UserId, filter domain.NotificationFilter) ([]domain.Notification, error) {
	query := `
        SELECT id, user_id, notification_type, is_read, data, created_at
        FROM notifications WHERE user_id = $1`
	args := []any{userId}
	if filter.UnreadOnly {
		query += " AND NOT is_read"
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		query += fmt.Sprintf(" AND notification_type = $%d", len(args))
	}
	args = append(args, filter.Page.Offset, filter.Page.Limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC OFFSET $%d LIMIT $%d", len(args)-1, len(args))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func scanNotification(scan func(dest ...any) error) (domain.Notification, error) {
	var n domain.Notification
	var data []byte
	if err := scan(&n.Id, &n.UserId, &n.Type, &n.IsRead, &data, &n.CreatedAt); err != nil {
		return domain.Notification{}, fmt.Errorf("failed to scan notification: %w", err)
	}
	if err := json.Unmarshal(data, &n.Data); err != nil {
		return domain.Notification{}, fmt.Errorf("failed to decode notification data: %w", err)
	}
	return n, nil
}

// NotificationStatsFor returns unread counters plus the latest few entries.
func (s *Storage) NotificationStatsFor(userId domain.UserId) (domain.NotificationStats, error) {
	st := domain.NotificationStats{UnreadByType: map[domain.NotificationType]int{}}

	rows, err := s.db.Query(`
        SELECT notification_type, count(*) FROM notifications
        WHERE user_id = $1 AND NOT is_read GROUP BY notification_type`,
		userId)
	if err != nil {
		return domain.NotificationStats{}, fmt.Errorf("failed to query notification stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t domain.NotificationType
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return domain.NotificationStats{}, fmt.Errorf("failed to scan notification stats: %w", err)
		}
		st.UnreadByType[t] = n
		st.TotalUnread += n
	}
	if err := rows.Err(); err != nil {
		return domain.NotificationStats{}, err
	}

	latest, err := s.Notifications(userId, domain.NotificationFilter{UnreadOnly: true, Page: domain.Page{Limit: 5}})
	if err != nil {
		return domain.NotificationStats{}, err
	}
	st.Latest = latest
	return st, nil
}

// MarkNotificationRead only touches the caller's own rows.
func (s *Storage) MarkNotificationRead(userId domain.UserId, id domain.NotificationId) error {
	ctx, cancel := opTimeout()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec("UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2", id, userId)
		if err != nil {
			return fmt.Errorf("failed to mark notification read: %w", err)
		}
		return requireRowsAffected(result, "Notification not found")
	})
}

// MarkAllNotificationsRead flips every unread row, or only those of one
// type when kind is set, and returns how many changed.
func (s *Storage) MarkAllNotificationsRead(userId domain.UserId, kind domain.NotificationType) (int, error) {
	ctx, cancel := opTimeout()
	defer cancel()

	query := "UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read"
	args := []any{userId}
	if kind != "" {
		args = append(args, kind)
		query += " AND notification_type = $2"
	}

	var updated int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(query, args...)
		if err != nil {
			return fmt.Errorf("failed to mark notifications read: %w", err)
		}
		updated, err = result.RowsAffected()
		return err
	})
	return int(updated), err
}

// DeleteReadNotifications purges everything the user already read.
func (s *Storage) DeleteReadNotifications(userId domain.UserId) (int, error) {
	ctx, cancel := opTimeout()
	defer cancel()

	var deleted int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec("DELETE FROM notifications WHERE user_id = $1 AND is_read", userId)
		if err != nil {
			return fmt.Errorf("failed to delete read notifications: %w", err)
		}
		deleted, err = result.RowsAffected()
		return err
	})
	return int(deleted), err
}

func (s *Storage) DeleteNotification(userId domain.UserId, id domain.NotificationId) error {
	ctx, cancel := opTimeout()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec("DELETE FROM notifications WHERE id = $1 AND user_id = $2", id, userId)
		if err != nil {
			return fmt.Errorf("failed to delete notification: %w", err)
		}
		return requireRowsAffected(result, "Notification not found")
	})
}
