package pg

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kiezhub-dev/kiezhub/shared/domain"
	internal_errors "github.com/kiezhub-dev/kiezhub/shared/errors"
	"github.com/lib/pq"
)

// eventSelect joins the creator, category and live participant count.
const eventSelect = `
    SELECT e.id, e.title, e.description, e.starts_at, e.ends_at, e.location, e.max_participants,
           e.is_active, e.created_at, e.creator_id, e.category_id,
           u.display_name, u.profile_image_url, u.created_at,
           c.name, c.description, c.created_at,
           (SELECT count(*) FROM event_participations p
             WHERE p.event_id = e.id AND p.status != 'cancelled') AS participant_count
    FROM events e
    JOIN users u ON u.id = e.creator_id
    JOIN event_categories c ON c.id = e.category_id`

func scanEvent(scan func(dest ...any) error) (domain.Event, error) {
	var e domain.Event
	err := scan(&e.Id, &e.Title, &e.Description, &e.StartsAt, &e.EndsAt, &e.Location, &e.MaxParticipants,
		&e.IsActive, &e.CreatedAt, &e.CreatorId, &e.CategoryId,
		&e.Creator.DisplayName, &e.Creator.ProfileImageURL, &e.Creator.CreatedAt,
		&e.Category.Name, &e.Category.Description, &e.Category.CreatedAt,
		&e.ParticipantCount)
	if err != nil {
		return domain.Event{}, err
	}
	e.Creator.Id = e.CreatorId
	e.Category.Id = e.CategoryId
	e.IsFull = e.MaxParticipants > 0 && e.ParticipantCount >= e.MaxParticipants
	return e, nil
}

// =========================================================================
// Event categories
// =========================================================================

func (s *Storage) SaveEventCategory(name, description string) (domain.EventCategory, error) {
	ctx, cancel := opTimeout()
	defer cancel()

	var c domain.EventCategory
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRow(`
            INSERT INTO event_categories(name, description) VALUES($1, $2)
            RETURNING id, name, description, created_at`,
			name, description,
		).Scan(&c.Id, &c.Name, &c.Description, &c.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return &internal_errors.ErrorWithStatusCode{Message: "Category already exists", StatusCode: http.StatusConflict}
			}
			return fmt.Errorf("failed to insert event category: %w", err)
		}
		return nil
	})
	return c, err
}

func (s *Storage) EventCategories() ([]domain.EventCategory, error) {
	rows, err := s.db.Query("SELECT id, name, description, created_at FROM event_categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query event categories: %w", err)
	}
	defer rows.Close()

	var out []domain.EventCategory
	for rows.Next() {
		var c domain.EventCategory
		if err := rows.Scan(&c.Id, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Storage) UpdateEventCategory(id domain.CategoryId, name, description *string) (domain.EventCategory, error) {
	ctx, cancel := opTimeout()
	defer cancel()

	var c domain.EventCategory
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRow(`
            UPDATE event_categories SET
                name = COALESCE($2, name),
                description = COALESCE($3, description)
            WHERE id = $1
            RETURNING id, name, description, created_at`,
			id, name, description,
		).Scan(&c.Id, &c.Name, &c.Description, &c.CreatedAt)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return &internal_errors.ErrorWithStatusCode{Message: "Category not found", StatusCode: http.StatusNotFound}
			}
			if isUniqueViolation(err) {
				return &internal_errors.ErrorWithStatusCode{Message: "Category already exists", StatusCode: http.StatusConflict}
			}
			return fmt.Errorf("failed to update event category: %w", err)
		}
		return nil
	})
	return c, err
}

// DeleteEventCategory fails with 409 while events still reference it.
func (s *Storage) DeleteEventCategory(id domain.CategoryId) error {
	ctx, cancel := opTimeout()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec("DELETE FROM event_categories WHERE id = $1", id)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == "23503" { // foreign_key_violation
				return &internal_errors.ErrorWithStatusCode{Message: "Category still has events", StatusCode: http.StatusConflict}
			}
			return fmt.Errorf("failed to delete event category: %w", err)
		}
		return requireRowsAffected(result, "Category not found")
	})
}

// =========================================================================
// Events
// =========================================================================

func (s *Storage) SaveEvent(data domain.EventCreationData) (domain.EventId, error) {
	ctx, cancel := opTimeout()
	defer cancel()

	var id domain.EventId
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRow(`
            INSERT INTO events(title, description, starts_at, ends_at, location, max_participants, creator_id, category_id)
            VALUES($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
			data.Title, data.Description, data.StartsAt, data.EndsAt, data.Location, data.MaxParticipants, data.CreatorId, data.CategoryId,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to insert event: %w", err)
		}
		return nil
	})
	return id, err
}

func (s *Storage) Event(id domain.EventId) (domain.Event, error) {
	return s.event(s.db, id)
}

func (s *Storage) Events(filter domain.EventFilter) ([]domain.Event, error) {
	query := eventSelect + " WHERE e.is_active"
	args := []any{}
	if filter.CategoryId != 0 {
		args = append(args, filter.CategoryId)
		query += fmt.Sprintf(" AND e.category_id = $%d", len(args))
	}
	if filter.CreatorId != 0 {
		args = append(args, filter.CreatorId)
		query += fmt.Sprintf(" AND e.creator_id = $%d", len(args))
	}
	if filter.UpcomingOnly {
		query += " AND e.starts_at > (now() at time zone 'utc')"
	}
	args = append(args, filter.Page.Offset, filter.Page.Limit)
	query += fmt.Sprintf(" ORDER BY e.starts_at OFFSET $%d LIMIT $%d", len(args)-1, len(args))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var out []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Storage) UpdateEvent(id domain.EventId, upd domain.EventUpdate) (domain.Event, error) {
	ctx, cancel := opTimeout()
	defer cancel()

	var event domain.Event
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(`
            UPDATE events SET
                title = COALESCE($2, title),
                description = COALESCE($3, description),
                starts_at = COALESCE($4, starts_at),
                ends_at = COALESCE($5, ends_at),
                location = COALESCE($6, location),
                max_participants = COALESCE($7, max_participants),
                category_id = COALESCE($8, category_id)
            WHERE id = $1 AND is_active`,
			id, upd.Title, upd.Description, upd.StartsAt, upd.EndsAt, upd.Location, upd.MaxParticipants, upd.CategoryId)
		if err != nil {
			return fmt.Errorf("failed to update event: %w", err)
		}
		if err := requireRowsAffected(result, "Event not found"); err != nil {
			return err
		}
		event, err = s.event(tx, id)
		return err
	})
	return event, err
}

// DeleteEvent is a soft delete. Participations stay for history.
func (s *Storage) DeleteEvent(id domain.EventId) error {
	ctx, cancel := opTimeout()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec("UPDATE events SET is_active = FALSE WHERE id = $1 AND is_active", id)
		if err != nil {
			return fmt.Errorf("failed to delete event: %w", err)
		}
		return requireRowsAffected(result, "Event not found")
	})
}

func (s *Storage) event(q Querier, id domain.EventId) (domain.Event, error) {
	e, err := scanEvent(q.QueryRow(eventSelect+" WHERE e.id = $1", id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Event{}, &internal_errors.ErrorWithStatusCode{Message: "Event not found", StatusCode: http.StatusNotFound}
		}
		return domain.Event{}, fmt.Errorf("failed to query event: %w", err)
	}
	return e, nil
}

// =========================================================================
// Participations
// =========================================================================

// SaveParticipation registers a user. A previously cancelled row is
// re-activated instead of inserting a duplicate.
func (s *Storage) SaveParticipation(eventId domain.EventId, userId domain.UserId) error {
	ctx, cancel := opTimeout()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
            INSERT INTO event_participations(event_id, user_id, status)
            VALUES($1, $2, 'registered')
            ON CONFLICT (event_id, user_id) DO UPDATE
            SET status = 'registered', status_updated_at = (now() at time zone 'utc')
            WHERE event_participations.status = 'cancelled'`,
			eventId, userId)
		if err != nil {
			return fmt.Errorf("failed to save participation: %w", err)
		}
		return nil
	})
}

func (s *Storage) CancelParticipation(eventId domain.EventId, userId domain.UserId) error {
	ctx, cancel := opTimeout()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(`
            UPDATE event_participations
            SET status = 'cancelled', status_updated_at = (now() at time zone 'utc')
            WHERE event_id = $1 AND user_id = $2 AND status = 'registered'`,
			eventId, userId)
		if err != nil {
			return fmt.Errorf("failed to cancel participation: %w", err)
		}
		return requireRowsAffected(result, "Registration not found")
	})
}

func (s *Storage) Participation(eventId domain.EventId, userId domain.UserId) (domain.EventParticipation, error) {
	var p domain.EventParticipation
	err := s.db.QueryRow(`
        SELECT id, event_id, user_id, status, registered_at, status_updated_at
        FROM event_participations WHERE event_id = $1 AND user_id = $2`,
		eventId, userId,
	).Scan(&p.Id, &p.EventId, &p.UserId, &p.Status, &p.RegisteredAt, &p.StatusUpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.EventParticipation{}, &internal_errors.ErrorWithStatusCode{Message: "Registration not found", StatusCode: http.StatusNotFound}
		}
		return domain.EventParticipation{}, fmt.Errorf("failed to query participation: %w", err)
	}
	return p, nil
}

func (s *Storage) Participants(eventId domain.EventId) ([]domain.EventParticipation, error) {
	rows, err := s.db.Query(`
        SELECT p.id, p.event_id, p.user_id, p.status, p.registered_at, p.status_updated_at,
               u.display_name, u.profile_image_url, u.created_at
        FROM event_participations p
        JOIN users u ON u.id = p.user_id
        WHERE p.event_id = $1 AND p.status != 'cancelled'
        ORDER BY p.registered_at`,
		eventId)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	var out []domain.EventParticipation
	for rows.Next() {
		var p domain.EventParticipation
		err := rows.Scan(&p.Id, &p.EventId, &p.UserId, &p.Status, &p.RegisteredAt, &p.StatusUpdatedAt,
			&p.User.DisplayName, &p.User.ProfileImageURL, &p.User.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		p.User.Id = p.UserId
		out = append(out, p)
	}
	return out, rows.Err()
}

// EventsJoinedBy lists active events the user is registered for or attended.
func (s *Storage) EventsJoinedBy(userId domain.UserId, page domain.Page) ([]domain.Event, error) {
	rows, err := s.db.Query(eventSelect+`
        JOIN event_participations my ON my.event_id = e.id AND my.user_id = $1 AND my.status != 'cancelled'
        WHERE e.is_active
        ORDER BY e.starts_at OFFSET $2 LIMIT $3`,
		userId, page.Offset, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query joined events: %w", err)
	}
	defer rows.Close()

	var out []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// EventStatsFor aggregates a user's participation history.
func (s *Storage) EventStatsFor(userId domain.UserId) (domain.EventStats, error) {
	var st domain.EventStats
	err := s.db.QueryRow(`
        SELECT
            count(*) FILTER (WHERE p.status = 'registered' AND e.starts_at > (now() at time zone 'utc') AND e.is_active),
            count(*) FILTER (WHERE p.status = 'attended'),
            count(*) FILTER (WHERE p.status = 'cancelled'),
            count(*)
        FROM event_participations p
        JOIN events e ON e.id = p.event_id
        WHERE p.user_id = $1`,
		userId,
	).Scan(&st.UpcomingEvents, &st.EventsAttended, &st.EventsCancelled, &st.TotalEvents)
	if err != nil {
		return domain.EventStats{}, fmt.Errorf("failed to query event stats: %w", err)
	}
	return st, nil
}

// MarkAttendance flips the given registered users to attended.
// Returns how many rows changed.
func (s *Storage) MarkAttendance(eventId domain.EventId, userIds []domain.UserId) (int, error) {
	ctx, cancel := opTimeout()
	defer cancel()

	var updated int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(`
            UPDATE event_participations
            SET status = 'attended', status_updated_at = (now() at time zone 'utc')
            WHERE event_id = $1 AND user_id = ANY($2) AND status = 'registered'`,
			eventId, pq.Array(userIds))
		if err != nil {
			return fmt.Errorf("failed to mark attendance: %w", err)
		}
		updated, err = result.RowsAffected()
		return err
	})
	return int(updated), err
}

// DueEventReminders claims pending reminders for events starting before the
// given time and returns who to notify. Claimed rows are not returned again.
func (s *Storage) DueEventReminders(until time.Time) ([]domain.EventReminder, error) {
	ctx, cancel := opTimeout()
	defer cancel()

	var out []domain.EventReminder
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.Query(`
            UPDATE event_participations p
            SET reminder_sent = TRUE
            FROM events e
            WHERE e.id = p.event_id
              AND p.status = 'registered'
              AND NOT p.reminder_sent
              AND e.is_active
              AND e.starts_at > (now() at time zone 'utc')
              AND e.starts_at <= $1
            RETURNING e.id, e.title, e.starts_at, p.user_id`,
			until)
		if err != nil {
			return fmt.Errorf("failed to claim event reminders: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var r domain.EventReminder
			if err := rows.Scan(&r.EventId, &r.Title, &r.StartsAt, &r.UserId); err != nil {
				return fmt.Errorf("failed to scan event reminder: %w", err)
			}
			out = append(out, r)
		}
		return rows.Err()
	})
	return out, err
}

// CompleteEndedEvents marks registrations as attended for events that ended
// before the cutoff and have not been processed yet. Returns event ids touched.
func (s *Storage) CompleteEndedEvents(cutoff time.Time) ([]domain.EventId, error) {
	ctx, cancel := opTimeout()
	defer cancel()

	var ids []domain.EventId
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.Query(`
            UPDATE event_participations p
            SET status = 'attended', status_updated_at = (now() at time zone 'utc')
            FROM events e
            WHERE e.id = p.event_id
              AND p.status = 'registered'
              AND e.is_active
              AND COALESCE(e.ends_at, e.starts_at) < $1
            RETURNING e.id`,
			cutoff)
		if err != nil {
			return fmt.Errorf("failed to complete ended events: %w", err)
		}
		defer rows.Close()

		seen := map[domain.EventId]bool{}
		for rows.Next() {
			var id domain.EventId
			if err := rows.Scan(&id); err != nil {
				return fmt.Errorf("failed to scan completed event id: %w", err)
			}
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
		return rows.Err()
	})
	return ids, err
}
