package pg

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/kiezhub-dev/kiezhub/shared/domain"
	internal_errors "github.com/kiezhub-dev/kiezhub/shared/errors"
)

const commentSelect = `
    SELECT c.id, c.content, c.created_at, c.author_id, c.parent_id, c.event_id, c.service_id,
           u.display_name, u.profile_image_url, u.created_at
    FROM comments c
    JOIN users u ON u.id = c.author_id`

func scanComment(scan func(dest ...any) error) (domain.Comment, error) {
	var c domain.Comment
	err := scan(&c.Id, &c.Content, &c.CreatedAt, &c.AuthorId, &c.ParentId, &c.EventId, &c.ServiceId,
		&c.Author.DisplayName, &c.Author.ProfileImageURL, &c.Author.CreatedAt)
	if err != nil {
		return domain.Comment{}, err
	}
	c.Author.Id = c.AuthorId
	return c, nil
}

func (s *Storage) SaveComment(data domain.CommentCreationData) (domain.Comment, error) {
	ctx, cancel := opTimeout()
	defer cancel()

	var id domain.CommentId
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRow(`
            INSERT INTO comments(content, author_id, parent_id, event_id, service_id)
            VALUES($1, $2, $3, $4, $5) RETURNING id`,
			data.Content, data.AuthorId, data.ParentId, data.EventId, data.ServiceId,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to insert comment: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Comment{}, err
	}
	return s.Comment(id)
}

func (s *Storage) Comment(id domain.CommentId) (domain.Comment, error) {
	c, err := scanComment(s.db.QueryRow(commentSelect+" WHERE c.id = $1", id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Comment{}, &internal_errors.ErrorWithStatusCode{Message: "Comment not found", StatusCode: http.StatusNotFound}
		}
		return domain.Comment{}, fmt.Errorf("failed to query comment: %w", err)
	}
	return c, nil
}

// Comments returns top-level comments for one target with replies nested
// one level deep.
func (s *Storage) Comments(filter domain.CommentFilter) ([]domain.Comment, error) {
	query := commentSelect
	args := []any{}
	if filter.EventId != 0 {
		args = append(args, filter.EventId)
		query += fmt.Sprintf(" WHERE c.event_id = $%d", len(args))
	} else if filter.ServiceId != 0 {
		args = append(args, filter.ServiceId)
		query += fmt.Sprintf(" WHERE c.service_id = $%d", len(args))
	} else if filter.AuthorId != 0 {
		args = append(args, filter.AuthorId)
		query += fmt.Sprintf(" WHERE c.author_id = $%d", len(args))
	} else {
		return nil, &internal_errors.ErrorWithStatusCode{Message: "Comment filter requires a target", StatusCode: http.StatusBadRequest}
	}
	query += " AND c.parent_id IS NULL"
	args = append(args, filter.Page.Offset, filter.Page.Limit)
	query += fmt.Sprintf(" ORDER BY c.created_at OFFSET $%d LIMIT $%d", len(args)-1, len(args))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	var out []domain.Comment
	for rows.Next() {
		c, err := scanComment(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		replies, err := s.replies(out[i].Id)
		if err != nil {
			return nil, err
		}
		out[i].Replies = replies
	}
	return out, nil
}

func (s *Storage) replies(parentId domain.CommentId) ([]*domain.Comment, error) {
	rows, err := s.db.Query(commentSelect+" WHERE c.parent_id = $1 ORDER BY c.created_at", parentId)
	if err != nil {
		return nil, fmt.Errorf("failed to query replies: %w", err)
	}
	defer rows.Close()

	var out []*domain.Comment
	for rows.Next() {
		c, err := scanComment(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reply: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (s *Storage) UpdateComment(id domain.CommentId, content string) error {
	ctx, cancel := opTimeout()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec("UPDATE comments SET content = $2 WHERE id = $1", id, content)
		if err != nil {
			return fmt.Errorf("failed to update comment: %w", err)
		}
		return requireRowsAffected(result, "Comment not found")
	})
}

// DeleteComment removes the comment and, via cascade, its replies.
func (s *Storage) DeleteComment(id domain.CommentId) error {
	ctx, cancel := opTimeout()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec("DELETE FROM comments WHERE id = $1", id)
		if err != nil {
			return fmt.Errorf("failed to delete comment: %w", err)
		}
		return requireRowsAffected(result, "Comment not found")
	})
}
