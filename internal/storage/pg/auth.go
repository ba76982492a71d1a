package pg

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/kiezhub-dev/kiezhub/shared/domain"
	internal_errors "github.com/kiezhub-dev/kiezhub/shared/errors"
)

// =========================================================================
// Refresh tokens
// =========================================================================

func (s *Storage) SaveRefreshToken(token domain.RefreshToken) error {
	ctx, cancel := opTimeout()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
            INSERT INTO refresh_tokens(user_id, token_hash, expires_at)
            VALUES($1, $2, $3)`,
			token.UserId, token.TokenHash, token.ExpiresAt)
		if err != nil {
			return fmt.Errorf("failed to insert refresh token: %w", err)
		}
		return nil
	})
}

func (s *Storage) RefreshTokenByHash(tokenHash string) (domain.RefreshToken, error) {
	var t domain.RefreshToken
	err := s.db.QueryRow(`
        SELECT id, user_id, token_hash, (expires_at at time zone 'utc'), (created_at at time zone 'utc')
        FROM refresh_tokens WHERE token_hash = $1`,
		tokenHash,
	).Scan(&t.Id, &t.UserId, &t.TokenHash, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.RefreshToken{}, &internal_errors.ErrorWithStatusCode{Message: "Invalid refresh token", StatusCode: http.StatusUnauthorized}
		}
		return domain.RefreshToken{}, fmt.Errorf("failed to query refresh token: %w", err)
	}
	return t, nil
}

// DeleteRefreshToken removes a single token (logout, rotation).
func (s *Storage) DeleteRefreshToken(tokenHash string) error {
	ctx, cancel := opTimeout()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec("DELETE FROM refresh_tokens WHERE token_hash = $1", tokenHash)
		if err != nil {
			return fmt.Errorf("failed to delete refresh token: %w", err)
		}
		return requireRowsAffected(result, "Refresh token not found")
	})
}

// DeleteUserRefreshTokens revokes every session of one user (logout-all,
// password reset).
func (s *Storage) DeleteUserRefreshTokens(userId domain.UserId) error {
	ctx, cancel := opTimeout()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM refresh_tokens WHERE user_id = $1", userId); err != nil {
			return fmt.Errorf("failed to delete user refresh tokens: %w", err)
		}
		return nil
	})
}

// =========================================================================
// Action tokens (email verification, password reset)
// =========================================================================

// SaveActionToken replaces any previous token of the same kind so only the
// latest emailed link works.
func (s *Storage) SaveActionToken(token domain.ActionToken) error {
	ctx, cancel := opTimeout()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM action_tokens WHERE user_id = $1 AND kind = $2", token.UserId, token.Kind); err != nil {
			return fmt.Errorf("failed to delete previous action tokens: %w", err)
		}
		_, err := tx.Exec(`
            INSERT INTO action_tokens(user_id, kind, token_hash, expires_at)
            VALUES($1, $2, $3, $4)`,
			token.UserId, token.Kind, token.TokenHash, token.ExpiresAt)
		if err != nil {
			return fmt.Errorf("failed to insert action token: %w", err)
		}
		return nil
	})
}

func (s *Storage) ActionTokenByHash(kind domain.ActionTokenKind, tokenHash string) (domain.ActionToken, error) {
	var t domain.ActionToken
	err := s.db.QueryRow(`
        SELECT user_id, kind, token_hash, (expires_at at time zone 'utc')
        FROM action_tokens WHERE kind = $1 AND token_hash = $2`,
		kind, tokenHash,
	).Scan(&t.UserId, &t.Kind, &t.TokenHash, &t.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ActionToken{}, &internal_errors.ErrorWithStatusCode{Message: "Invalid or expired token", StatusCode: http.StatusBadRequest}
		}
		return domain.ActionToken{}, fmt.Errorf("failed to query action token: %w", err)
	}
	return t, nil
}

func (s *Storage) DeleteActionTokens(userId domain.UserId, kind domain.ActionTokenKind) error {
	ctx, cancel := opTimeout()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM action_tokens WHERE user_id = $1 AND kind = $2", userId, kind); err != nil {
			return fmt.Errorf("failed to delete action tokens: %w", err)
		}
		return nil
	})
}
