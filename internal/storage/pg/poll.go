package pg

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/kiezhub-dev/kiezhub/shared/domain"
	internal_errors "github.com/kiezhub-dev/kiezhub/shared/errors"
)

const pollSelect = `
    SELECT p.id, p.question, p.poll_type, p.is_active, p.ends_at, p.created_at, p.creator_id, p.thread_id,
           u.display_name, u.profile_image_url, u.created_at
    FROM polls p
    JOIN users u ON u.id = p.creator_id`

func scanPoll(scan func(dest ...any) error) (domain.Poll, error) {
	var p domain.Poll
	err := scan(&p.Id, &p.Question, &p.Type, &p.IsActive, &p.EndsAt, &p.CreatedAt, &p.CreatorId, &p.ThreadId,
		&p.Creator.DisplayName, &p.Creator.ProfileImageURL, &p.Creator.CreatedAt)
	if err != nil {
		return domain.Poll{}, err
	}
	p.Creator.Id = p.CreatorId
	return p, nil
}

// =========================================================================
// Public Methods (satisfy the service.PollStorage interface)
// =========================================================================

// SavePoll inserts the poll and its options atomically.
func (s *Storage) SavePoll(data domain.PollCreationData) (domain.PollId, error) {
	ctx, cancel := opTimeout()
	defer cancel()

	var id domain.PollId
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRow(`
            INSERT INTO polls(question, poll_type, ends_at, creator_id, thread_id)
            VALUES($1, $2, $3, $4, $5) RETURNING id`,
			data.Question, data.Type, data.EndsAt, data.CreatorId, data.ThreadId,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to insert poll: %w", err)
		}
		for i, text := range data.Options {
			if _, err := tx.Exec(`
                INSERT INTO poll_options(poll_id, text, order_index) VALUES($1, $2, $3)`,
				id, text, i); err != nil {
				return fmt.Errorf("failed to insert poll option: %w", err)
			}
		}
		return nil
	})
	return id, err
}

// Poll fetches a poll with options and vote counts. viewerId of 0 leaves
// UserVote unset.
func (s *Storage) Poll(id domain.PollId, viewerId domain.UserId) (domain.Poll, error) {
	poll, err := scanPoll(s.db.QueryRow(pollSelect+" WHERE p.id = $1", id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Poll{}, &internal_errors.ErrorWithStatusCode{Message: "Poll not found", StatusCode: http.StatusNotFound}
		}
		return domain.Poll{}, fmt.Errorf("failed to query poll: %w", err)
	}
	if err := s.enrichPoll(&poll, viewerId); err != nil {
		return domain.Poll{}, err
	}
	return poll, nil
}

func (s *Storage) Polls(filter domain.PollFilter, viewerId domain.UserId) ([]domain.Poll, error) {
	query := pollSelect + " WHERE 1=1"
	args := []any{}
	if filter.Type != "" {
		args = append(args, filter.Type)
		query += fmt.Sprintf(" AND p.poll_type = $%d", len(args))
	}
	if filter.ActiveOnly {
		query += " AND p.is_active AND (p.ends_at IS NULL OR p.ends_at > (now() at time zone 'utc'))"
	}
	if filter.ThreadId != 0 {
		args = append(args, filter.ThreadId)
		query += fmt.Sprintf(" AND p.thread_id = $%d", len(args))
	}
	if filter.CreatorId != 0 {
		args = append(args, filter.CreatorId)
		query += fmt.Sprintf(" AND p.creator_id = $%d", len(args))
	}
	args = append(args, filter.Page.Offset, filter.Page.Limit)
	query += fmt.Sprintf(" ORDER BY p.created_at DESC OFFSET $%d LIMIT $%d", len(args)-1, len(args))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query polls: %w", err)
	}
	defer rows.Close()

	var out []domain.Poll
	for rows.Next() {
		p, err := scanPoll(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := s.enrichPoll(&out[i], viewerId); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Storage) UpdatePoll(id domain.PollId, upd domain.PollUpdate) (domain.Poll, error) {
	ctx, cancel := opTimeout()
	defer cancel()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(`
            UPDATE polls SET
                question = COALESCE($2, question),
                ends_at = COALESCE($3, ends_at),
                is_active = COALESCE($4, is_active)
            WHERE id = $1`,
			id, upd.Question, upd.EndsAt, upd.IsActive)
		if err != nil {
			return fmt.Errorf("failed to update poll: %w", err)
		}
		return requireRowsAffected(result, "Poll not found")
	})
	if err != nil {
		return domain.Poll{}, err
	}
	return s.Poll(id, 0)
}

func (s *Storage) DeletePoll(id domain.PollId) error {
	ctx, cancel := opTimeout()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec("DELETE FROM polls WHERE id = $1", id)
		if err != nil {
			return fmt.Errorf("failed to delete poll: %w", err)
		}
		return requireRowsAffected(result, "Poll not found")
	})
}

// SaveVote casts or moves a vote. The unique constraint on (poll_id, user_id)
// makes a revote an update.
func (s *Storage) SaveVote(pollId domain.PollId, optionId domain.OptionId, userId domain.UserId) error {
	ctx, cancel := opTimeout()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		// Option must belong to this poll.
		var belongs bool
		err := tx.QueryRow("SELECT EXISTS(SELECT 1 FROM poll_options WHERE id = $1 AND poll_id = $2)", optionId, pollId).Scan(&belongs)
		if err != nil {
			return fmt.Errorf("failed to check poll option: %w", err)
		}
		if !belongs {
			return &internal_errors.ErrorWithStatusCode{Message: "Option does not belong to this poll", StatusCode: http.StatusBadRequest}
		}
		_, err = tx.Exec(`
            INSERT INTO poll_votes(poll_id, option_id, user_id)
            VALUES($1, $2, $3)
            ON CONFLICT (poll_id, user_id) DO UPDATE
            SET option_id = EXCLUDED.option_id, created_at = (now() at time zone 'utc')`,
			pollId, optionId, userId)
		if err != nil {
			return fmt.Errorf("failed to save vote: %w", err)
		}
		return nil
	})
}

// DeleteVote withdraws the user's vote.
func (s *Storage) DeleteVote(pollId domain.PollId, userId domain.UserId) error {
	ctx, cancel := opTimeout()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec("DELETE FROM poll_votes WHERE poll_id = $1 AND user_id = $2", pollId, userId)
		if err != nil {
			return fmt.Errorf("failed to delete vote: %w", err)
		}
		return requireRowsAffected(result, "Vote not found")
	})
}

// PollHasVotes reports whether anyone voted yet. Gates restricted updates.
func (s *Storage) PollHasVotes(id domain.PollId) (bool, error) {
	var exists bool
	err := s.db.QueryRow("SELECT EXISTS(SELECT 1 FROM poll_votes WHERE poll_id = $1)", id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check poll votes: %w", err)
	}
	return exists, nil
}

// enrichPoll loads options with vote counts, total votes, and the viewer's vote.
func (s *Storage) enrichPoll(poll *domain.Poll, viewerId domain.UserId) error {
	rows, err := s.db.Query(`
        SELECT o.id, o.poll_id, o.text, o.order_index,
               (SELECT count(*) FROM poll_votes v WHERE v.option_id = o.id)
        FROM poll_options o
        WHERE o.poll_id = $1
        ORDER BY o.order_index`,
		poll.Id)
	if err != nil {
		return fmt.Errorf("failed to query poll options: %w", err)
	}
	defer rows.Close()

	poll.Options = poll.Options[:0]
	poll.TotalVotes = 0
	for rows.Next() {
		var o domain.PollOption
		if err := rows.Scan(&o.Id, &o.PollId, &o.Text, &o.OrderIndex, &o.VoteCount); err != nil {
			return fmt.Errorf("failed to scan poll option: %w", err)
		}
		poll.TotalVotes += o.VoteCount
		poll.Options = append(poll.Options, o)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if viewerId != 0 {
		err := s.db.QueryRow("SELECT option_id FROM poll_votes WHERE poll_id = $1 AND user_id = $2", poll.Id, viewerId).Scan(&poll.UserVote)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to query viewer vote: %w", err)
		}
	}
	return nil
}
