package pg

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kiezhub-dev/kiezhub/shared/domain"
	internal_errors "github.com/kiezhub-dev/kiezhub/shared/errors"
)

const userColumns = `id, display_name, email, password_hash, first_name, last_name, bio, location,
	profile_image_url, is_active, is_admin, email_verified, email_verified_at, created_at,
	privacy_email, privacy_first_name, privacy_last_name, privacy_bio, privacy_location, privacy_created_at,
	notify_forum_reply, notify_forum_mention, notify_email_events`

func scanUser(row *sql.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.Id, &u.DisplayName, &u.Email, &u.PassHash, &u.FirstName, &u.LastName, &u.Bio, &u.Location,
		&u.ProfileImageURL, &u.IsActive, &u.Admin, &u.EmailVerified, &u.EmailVerifiedAt, &u.CreatedAt,
		&u.Privacy.Email, &u.Privacy.FirstName, &u.Privacy.LastName, &u.Privacy.Bio, &u.Privacy.Location, &u.Privacy.CreatedAt,
		&u.Notifications.ForumReply, &u.Notifications.ForumMention, &u.Notifications.EmailEvents)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, &internal_errors.ErrorWithStatusCode{Message: "User not found", StatusCode: http.StatusNotFound}
		}
		return domain.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

// =========================================================================
// Public Methods (satisfy the service.UserStorage interface)
// =========================================================================

// SaveUser creates a new user account. A unique violation on email or
// display name surfaces as 409.
func (s *Storage) SaveUser(user domain.User) (domain.UserId, error) {
	ctx, cancel := opTimeout()
	defer cancel()

	var id domain.UserId
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = s.saveUser(tx, user)
		return err
	})
	return id, err
}

func (s *Storage) UserByEmail(email domain.Email) (domain.User, error) {
	return s.userByEmail(s.db, email)
}

func (s *Storage) UserById(id domain.UserId) (domain.User, error) {
	return s.userById(s.db, id)
}

// UserByDisplayName resolves @mentions.
func (s *Storage) UserByDisplayName(name string) (domain.User, error) {
	return scanUser(s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE display_name = $1", name))
}

// Users lists active accounts for the member directory.
func (s *Storage) Users(page domain.Page) ([]domain.User, error) {
	return s.users(s.db, page)
}

func (s *Storage) UpdateProfile(id domain.UserId, upd domain.ProfileUpdate) (domain.User, error) {
	ctx, cancel := opTimeout()
	defer cancel()

	var user domain.User
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		user, err = s.updateProfile(tx, id, upd)
		return err
	})
	return user, err
}

func (s *Storage) UpdatePassword(id domain.UserId, passHash string) error {
	ctx, cancel := opTimeout()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.updatePassword(tx, id, passHash)
	})
}

func (s *Storage) MarkEmailVerified(id domain.UserId) error {
	ctx, cancel := opTimeout()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.markEmailVerified(tx, id)
	})
}

// SetUserActive flips account activation. Deactivation records the timestamp
// used by the suspension cache.
func (s *Storage) SetUserActive(id domain.UserId, active bool) error {
	ctx, cancel := opTimeout()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.setUserActive(tx, id, active)
	})
}

// GetRecentlyDeactivatedUsers satisfies the suspension.CacheStorage interface.
func (s *Storage) GetRecentlyDeactivatedUsers(since time.Time) ([]domain.UserId, error) {
	rows, err := s.db.Query("SELECT id FROM users WHERE deactivated_at >= $1", since)
	if err != nil {
		return nil, fmt.Errorf("failed to query deactivated users: %w", err)
	}
	defer rows.Close()

	var ids []domain.UserId
	for rows.Next() {
		var id domain.UserId
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan deactivated user: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UserStats aggregates one user's activity counters across the platform.
func (s *Storage) UserStats(id domain.UserId) (domain.UserStats, error) {
	var st domain.UserStats
	err := s.db.QueryRow(`
        SELECT
            (SELECT count(*) FROM events WHERE creator_id = $1),
            (SELECT count(*) FROM event_participations WHERE user_id = $1 AND status != 'cancelled'),
            (SELECT count(*) FROM services WHERE user_id = $1 AND is_active),
            (SELECT count(*) FROM forum_threads WHERE creator_id = $1),
            (SELECT count(*) FROM forum_posts WHERE author_id = $1),
            (SELECT count(*) FROM comments WHERE author_id = $1),
            (SELECT count(*) FROM polls WHERE creator_id = $1),
            (SELECT count(*) FROM poll_votes WHERE user_id = $1)`,
		id,
	).Scan(&st.EventsCreated, &st.EventsJoined, &st.Services, &st.ForumThreads, &st.ForumPosts, &st.Comments, &st.PollsCreated, &st.VotesCast)
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("failed to query user stats: %w", err)
	}
	return st, nil
}

// =========================================================================
// Internal Methods (Core Database Logic)
// =========================================================================

func (s *Storage) saveUser(q Querier, user domain.User) (domain.UserId, error) {
	var id int64
	err := q.QueryRow(`
        INSERT INTO users(display_name, email, password_hash, is_admin)
        VALUES($1, $2, $3, $4) RETURNING id`,
		user.DisplayName, user.Email, user.PassHash, user.Admin).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return -1, &internal_errors.ErrorWithStatusCode{Message: "Email or display name already taken", StatusCode: http.StatusConflict}
		}
		return -1, fmt.Errorf("failed to insert user: %w", err)
	}
	return id, nil
}

func (s *Storage) userByEmail(q Querier, email domain.Email) (domain.User, error) {
	return scanUser(q.QueryRow("SELECT "+userColumns+" FROM users WHERE email = $1", email))
}

func (s *Storage) userById(q Querier, id domain.UserId) (domain.User, error) {
	return scanUser(q.QueryRow("SELECT "+userColumns+" FROM users WHERE id = $1", id))
}

func (s *Storage) users(q Querier, page domain.Page) ([]domain.User, error) {
	rows, err := q.Query(`
        SELECT `+userColumns+` FROM users
        WHERE is_active ORDER BY display_name OFFSET $1 LIMIT $2`,
		page.Offset, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		var u domain.User
		err := rows.Scan(&u.Id, &u.DisplayName, &u.Email, &u.PassHash, &u.FirstName, &u.LastName, &u.Bio, &u.Location,
			&u.ProfileImageURL, &u.IsActive, &u.Admin, &u.EmailVerified, &u.EmailVerifiedAt, &u.CreatedAt,
			&u.Privacy.Email, &u.Privacy.FirstName, &u.Privacy.LastName, &u.Privacy.Bio, &u.Privacy.Location, &u.Privacy.CreatedAt,
			&u.Notifications.ForumReply, &u.Notifications.ForumMention, &u.Notifications.EmailEvents)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Storage) updateProfile(q Querier, id domain.UserId, upd domain.ProfileUpdate) (domain.User, error) {
	// COALESCE keeps the stored value when the field was not provided.
	row := q.QueryRow(`
        UPDATE users SET
            display_name = COALESCE($2, display_name),
            first_name = COALESCE($3, first_name),
            last_name = COALESCE($4, last_name),
            bio = COALESCE($5, bio),
            location = COALESCE($6, location),
            profile_image_url = COALESCE($7, profile_image_url),
            privacy_email = COALESCE($8, privacy_email),
            privacy_first_name = COALESCE($9, privacy_first_name),
            privacy_last_name = COALESCE($10, privacy_last_name),
            privacy_bio = COALESCE($11, privacy_bio),
            privacy_location = COALESCE($12, privacy_location),
            privacy_created_at = COALESCE($13, privacy_created_at),
            notify_forum_reply = COALESCE($14, notify_forum_reply),
            notify_forum_mention = COALESCE($15, notify_forum_mention),
            notify_email_events = COALESCE($16, notify_email_events)
        WHERE id = $1
        RETURNING `+userColumns,
		id, upd.DisplayName, upd.FirstName, upd.LastName, upd.Bio, upd.Location, upd.ProfileImageURL,
		privacyArg(upd.Privacy, func(p *domain.PrivacySettings) bool { return p.Email }),
		privacyArg(upd.Privacy, func(p *domain.PrivacySettings) bool { return p.FirstName }),
		privacyArg(upd.Privacy, func(p *domain.PrivacySettings) bool { return p.LastName }),
		privacyArg(upd.Privacy, func(p *domain.PrivacySettings) bool { return p.Bio }),
		privacyArg(upd.Privacy, func(p *domain.PrivacySettings) bool { return p.Location }),
		privacyArg(upd.Privacy, func(p *domain.PrivacySettings) bool { return p.CreatedAt }),
		notifyArg(upd.Notifications, func(n *domain.NotificationSettings) bool { return n.ForumReply }),
		notifyArg(upd.Notifications, func(n *domain.NotificationSettings) bool { return n.ForumMention }),
		notifyArg(upd.Notifications, func(n *domain.NotificationSettings) bool { return n.EmailEvents }),
	)
	user, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, &internal_errors.ErrorWithStatusCode{Message: "Display name already taken", StatusCode: http.StatusConflict}
		}
		return domain.User{}, err
	}
	return user, nil
}

func privacyArg(p *domain.PrivacySettings, pick func(*domain.PrivacySettings) bool) any {
	if p == nil {
		return nil
	}
	return pick(p)
}

func notifyArg(n *domain.NotificationSettings, pick func(*domain.NotificationSettings) bool) any {
	if n == nil {
		return nil
	}
	return pick(n)
}

func (s *Storage) updatePassword(q Querier, id domain.UserId, passHash string) error {
	result, err := q.Exec("UPDATE users SET password_hash = $1 WHERE id = $2", passHash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return requireRowsAffected(result, "User not found for password update")
}

func (s *Storage) markEmailVerified(q Querier, id domain.UserId) error {
	result, err := q.Exec(`
        UPDATE users SET email_verified = TRUE, email_verified_at = (now() at time zone 'utc')
        WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}
	return requireRowsAffected(result, "User not found for email verification")
}

func (s *Storage) setUserActive(q Querier, id domain.UserId, active bool) error {
	var result sql.Result
	var err error
	if active {
		result, err = q.Exec("UPDATE users SET is_active = TRUE, deactivated_at = NULL WHERE id = $1", id)
	} else {
		result, err = q.Exec("UPDATE users SET is_active = FALSE, deactivated_at = (now() at time zone 'utc') WHERE id = $1", id)
	}
	if err != nil {
		return fmt.Errorf("failed to update user activation: %w", err)
	}
	return requireRowsAffected(result, "User not found for activation update")
}
