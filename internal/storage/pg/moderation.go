package pg

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/kiezhub-dev/kiezhub/shared/domain"
	internal_errors "github.com/kiezhub-dev/kiezhub/shared/errors"
)

func (s *Storage) SaveModerationItem(item domain.ModerationItem) (int64, error) {
	ctx, cancel := opTimeout()
	defer cancel()

	reasons, err := json.Marshal(item.Reasons)
	if err != nil {
		return -1, fmt.Errorf("failed to encode moderation reasons: %w", err)
	}

	var id int64
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRow(`
            INSERT INTO moderation_queue(content_type, content_id, user_id, reasons, confidence)
            VALUES($1, $2, $3, $4, $5) RETURNING id`,
			item.ContentType, item.ContentId, item.UserId, reasons, item.Confidence,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to insert moderation item: %w", err)
		}
		return nil
	})
	return id, err
}

func (s *Storage) ModerationItem(id int64) (domain.ModerationItem, error) {
	var item domain.ModerationItem
	var reasons []byte
	var resolvedBy sql.NullInt64
	err := s.db.QueryRow(`
        SELECT id, content_type, content_id, user_id, reasons, confidence, status, created_at, resolved_at, resolved_by
        FROM moderation_queue WHERE id = $1`,
		id,
	).Scan(&item.Id, &item.ContentType, &item.ContentId, &item.UserId, &reasons, &item.Confidence, &item.Status, &item.CreatedAt, &item.ResolvedAt, &resolvedBy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ModerationItem{}, &internal_errors.ErrorWithStatusCode{Message: "Moderation item not found", StatusCode: http.StatusNotFound}
		}
		return domain.ModerationItem{}, fmt.Errorf("failed to query moderation item: %w", err)
	}
	if err := json.Unmarshal(reasons, &item.Reasons); err != nil {
		return domain.ModerationItem{}, fmt.Errorf("failed to decode moderation reasons: %w", err)
	}
	if resolvedBy.Valid {
		item.ResolvedBy = resolvedBy.Int64
	}
	return item, nil
}

// ModerationQueue lists pending items oldest first.
func (s *Storage) ModerationQueue(page domain.Page) ([]domain.ModerationItem, error) {
	rows, err := s.db.Query(`
        SELECT id, content_type, content_id, user_id, reasons, confidence, status, created_at, resolved_at, resolved_by
        FROM moderation_queue
        WHERE status = 'pending'
        ORDER BY created_at OFFSET $1 LIMIT $2`,
		page.Offset, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query moderation queue: %w", err)
	}
	defer rows.Close()

	var out []domain.ModerationItem
	for rows.Next() {
		var item domain.ModerationItem
		var reasons []byte
		var resolvedBy sql.NullInt64
		err := rows.Scan(&item.Id, &item.ContentType, &item.ContentId, &item.UserId, &reasons, &item.Confidence, &item.Status, &item.CreatedAt, &item.ResolvedAt, &resolvedBy)
		if err != nil {
			return nil, fmt.Errorf("failed to scan moderation item: %w", err)
		}
		if err := json.Unmarshal(reasons, &item.Reasons); err != nil {
			return nil, fmt.Errorf("failed to decode moderation reasons: %w", err)
		}
		if resolvedBy.Valid {
			item.ResolvedBy = resolvedBy.Int64
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// ResolveModerationItem records the admin decision. Only pending items can
// be resolved.
func (s *Storage) ResolveModerationItem(id int64, status domain.ModerationStatus, resolvedBy domain.UserId) error {
	ctx, cancel := opTimeout()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(`
            UPDATE moderation_queue
            SET status = $2, resolved_at = (now() at time zone 'utc'), resolved_by = $3
            WHERE id = $1 AND status = 'pending'`,
			id, status, resolvedBy)
		if err != nil {
			return fmt.Errorf("failed to resolve moderation item: %w", err)
		}
		return requireRowsAffected(result, "Pending moderation item not found")
	})
}

// RecentContentBy returns a user's latest comments and forum posts for
// re-checking. Keyed by content type.
func (s *Storage) RecentContentBy(userId domain.UserId, limit int) ([]domain.FlaggedContent, error) {
	rows, err := s.db.Query(`
        SELECT 'comment' AS content_type, id, content FROM comments WHERE author_id = $1
        UNION ALL
        SELECT 'forum_post', id, content FROM forum_posts WHERE author_id = $1
        ORDER BY id DESC LIMIT $2`,
		userId, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent content: %w", err)
	}
	defer rows.Close()

	var out []domain.FlaggedContent
	for rows.Next() {
		var fc domain.FlaggedContent
		if err := rows.Scan(&fc.ContentType, &fc.ContentId, &fc.Preview); err != nil {
			return nil, fmt.Errorf("failed to scan recent content: %w", err)
		}
		out = append(out, fc)
	}
	return out, rows.Err()
}
