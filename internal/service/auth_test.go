package service

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/kiezhub-dev/kiezhub/shared/config"
	"github.com/kiezhub-dev/kiezhub/shared/domain"
	internal_errors "github.com/kiezhub-dev/kiezhub/shared/errors"
	"github.com/kiezhub-dev/kiezhub/shared/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- Mocks ---

type MockAuthStorage struct {
	SaveUserFunc                func(user domain.User) (domain.UserId, error)
	UserByEmailFunc             func(email domain.Email) (domain.User, error)
	UserByIdFunc                func(id domain.UserId) (domain.User, error)
	UpdatePasswordFunc          func(id domain.UserId, passHash string) error
	MarkEmailVerifiedFunc       func(id domain.UserId) error
	SaveRefreshTokenFunc        func(token domain.RefreshToken) error
	RefreshTokenByHashFunc      func(tokenHash string) (domain.RefreshToken, error)
	DeleteRefreshTokenFunc      func(tokenHash string) error
	DeleteUserRefreshTokensFunc func(userId domain.UserId) error
	SaveActionTokenFunc         func(token domain.ActionToken) error
	ActionTokenByHashFunc       func(kind domain.ActionTokenKind, tokenHash string) (domain.ActionToken, error)
	DeleteActionTokensFunc      func(userId domain.UserId, kind domain.ActionTokenKind) error
}

func (m *MockAuthStorage) SaveUser(user domain.User) (domain.UserId, error) {
	if m.SaveUserFunc != nil {
		return m.SaveUserFunc(user)
	}
	return 1, nil
}

func (m *MockAuthStorage) UserByEmail(email domain.Email) (domain.User, error) {
	if m.UserByEmailFunc != nil {
		return m.UserByEmailFunc(email)
	}
	passHash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	return domain.User{Id: 1, Email: email, PassHash: string(passHash), IsActive: true}, nil
}

func (m *MockAuthStorage) UserById(id domain.UserId) (domain.User, error) {
	if m.UserByIdFunc != nil {
		return m.UserByIdFunc(id)
	}
	return domain.User{Id: id, Email: "test@example.com", IsActive: true}, nil
}

func (m *MockAuthStorage) UpdatePassword(id domain.UserId, passHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(id, passHash)
	}
	return nil
}

func (m *MockAuthStorage) MarkEmailVerified(id domain.UserId) error {
	if m.MarkEmailVerifiedFunc != nil {
		return m.MarkEmailVerifiedFunc(id)
	}
	return nil
}

func (m *MockAuthStorage) SaveRefreshToken(token domain.RefreshToken) error {
	if m.SaveRefreshTokenFunc != nil {
		return m.SaveRefreshTokenFunc(token)
	}
	return nil
}

func (m *MockAuthStorage) RefreshTokenByHash(tokenHash string) (domain.RefreshToken, error) {
	if m.RefreshTokenByHashFunc != nil {
		return m.RefreshTokenByHashFunc(tokenHash)
	}
	return domain.RefreshToken{}, &internal_errors.ErrorWithStatusCode{Message: "Invalid refresh token", StatusCode: http.StatusUnauthorized}
}

func (m *MockAuthStorage) DeleteRefreshToken(tokenHash string) error {
	if m.DeleteRefreshTokenFunc != nil {
		return m.DeleteRefreshTokenFunc(tokenHash)
	}
	return nil
}

func (m *MockAuthStorage) DeleteUserRefreshTokens(userId domain.UserId) error {
	if m.DeleteUserRefreshTokensFunc != nil {
		return m.DeleteUserRefreshTokensFunc(userId)
	}
	return nil
}

func (m *MockAuthStorage) SaveActionToken(token domain.ActionToken) error {
	if m.SaveActionTokenFunc != nil {
		return m.SaveActionTokenFunc(token)
	}
	return nil
}

func (m *MockAuthStorage) ActionTokenByHash(kind domain.ActionTokenKind, tokenHash string) (domain.ActionToken, error) {
	if m.ActionTokenByHashFunc != nil {
		return m.ActionTokenByHashFunc(kind, tokenHash)
	}
	return domain.ActionToken{}, &internal_errors.ErrorWithStatusCode{Message: "Invalid or expired token", StatusCode: http.StatusBadRequest}
}

func (m *MockAuthStorage) DeleteActionTokens(userId domain.UserId, kind domain.ActionTokenKind) error {
	if m.DeleteActionTokensFunc != nil {
		return m.DeleteActionTokensFunc(userId, kind)
	}
	return nil
}

type MockEmail struct {
	SendFunc      func(recipientEmail, subject, body string) error
	IsCorrectFunc func(email domain.Email) error
}

func (m *MockEmail) Send(recipientEmail, subject, body string) error {
	if m.SendFunc != nil {
		return m.SendFunc(recipientEmail, subject, body)
	}
	return nil
}

func (m *MockEmail) IsCorrect(email domain.Email) error {
	if m.IsCorrectFunc != nil {
		return m.IsCorrectFunc(email)
	}
	if !strings.Contains(email, "@") {
		return &internal_errors.ErrorWithStatusCode{Message: "invalid email", StatusCode: http.StatusBadRequest}
	}
	return nil
}

type MockJwt struct {
	NewTokenFunc func(user domain.User) (string, error)
}

func (m *MockJwt) NewToken(user domain.User) (string, error) {
	if m.NewTokenFunc != nil {
		return m.NewTokenFunc(user)
	}
	return "test_token", nil
}

func (m *MockJwt) TTL() time.Duration { return 30 * time.Minute }

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Public.JwtTTL = 30 * time.Minute
	cfg.Public.RefreshTokenTTL = 720 * time.Hour
	cfg.Public.VerificationTokenTTL = 24 * time.Hour
	cfg.Public.PasswordResetTokenTTL = time.Hour
	return cfg
}

// --- Tests ---

func TestRegister(t *testing.T) {
	clock := clockwork.NewFakeClock()

	t.Run("Successful registration", func(t *testing.T) {
		var savedUser domain.User
		var savedToken domain.ActionToken
		storage := &MockAuthStorage{
			SaveUserFunc: func(user domain.User) (domain.UserId, error) {
				savedUser = user
				return 7, nil
			},
			SaveActionTokenFunc: func(token domain.ActionToken) error {
				savedToken = token
				return nil
			},
		}
		service := NewAuth(storage, &MockEmail{}, &MockJwt{}, testConfig(), clock)

		user, err := service.Register(domain.Registration{
			DisplayName: "anna",
			Email:       "Anna@Example.COM",
			Password:    "password123",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(7), user.Id)

		assert.Equal(t, "anna@example.com", savedUser.Email)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(savedUser.PassHash), []byte("password123")))

		assert.Equal(t, domain.TokenEmailVerification, savedToken.Kind)
		assert.Equal(t, int64(7), savedToken.UserId)
		assert.WithinDuration(t, clock.Now().Add(24*time.Hour), savedToken.ExpiresAt, time.Minute, "verification token lives as long as the config says")
	})

	t.Run("Mail failure does not fail registration", func(t *testing.T) {
		email := &MockEmail{
			SendFunc: func(recipientEmail, subject, body string) error {
				return &internal_errors.ErrorWithStatusCode{Message: "smtp down", StatusCode: http.StatusInternalServerError}
			},
		}
		service := NewAuth(&MockAuthStorage{}, email, &MockJwt{}, testConfig(), clock)

		_, err := service.Register(domain.Registration{DisplayName: "bob", Email: "bob@example.com", Password: "password123"})
		assert.NoError(t, err)
	})

	t.Run("Invalid email rejected", func(t *testing.T) {
		service := NewAuth(&MockAuthStorage{}, &MockEmail{}, &MockJwt{}, testConfig(), clock)

		_, err := service.Register(domain.Registration{DisplayName: "bob", Email: "not-an-email", Password: "password123"})
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, err.(*internal_errors.ErrorWithStatusCode).StatusCode)
	})
}

func TestLogin(t *testing.T) {
	clock := clockwork.NewFakeClock()

	t.Run("Successful login issues token pair", func(t *testing.T) {
		var savedRefresh domain.RefreshToken
		storage := &MockAuthStorage{
			SaveRefreshTokenFunc: func(token domain.RefreshToken) error {
				savedRefresh = token
				return nil
			},
		}
		service := NewAuth(storage, &MockEmail{}, &MockJwt{}, testConfig(), clock)

		pair, err := service.Login(domain.Credentials{Email: "test@example.com", Password: "password"})
		require.NoError(t, err)
		assert.Equal(t, "test_token", pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
		assert.Equal(t, int(30*time.Minute/time.Second), pair.ExpiresIn)

		// Only the hash hits storage.
		assert.NotEqual(t, pair.RefreshToken, savedRefresh.TokenHash)
		assert.Equal(t, utils.HashToken(pair.RefreshToken), savedRefresh.TokenHash)
	})

	t.Run("Unknown user gets the same error as wrong password", func(t *testing.T) {
		storage := &MockAuthStorage{
			UserByEmailFunc: func(email domain.Email) (domain.User, error) {
				return domain.User{}, &internal_errors.ErrorWithStatusCode{Message: "User not found", StatusCode: http.StatusNotFound}
			},
		}
		service := NewAuth(storage, &MockEmail{}, &MockJwt{}, testConfig(), clock)

		_, errUnknown := service.Login(domain.Credentials{Email: "nobody@example.com", Password: "password"})
		require.Error(t, errUnknown)

		service = NewAuth(&MockAuthStorage{}, &MockEmail{}, &MockJwt{}, testConfig(), clock)
		_, errWrongPass := service.Login(domain.Credentials{Email: "test@example.com", Password: "wrong"})
		require.Error(t, errWrongPass)

		assert.Equal(t, errUnknown.Error(), errWrongPass.Error())
		assert.Equal(t, http.StatusUnauthorized, errUnknown.(*internal_errors.ErrorWithStatusCode).StatusCode)
	})

	t.Run("Deactivated account rejected", func(t *testing.T) {
		passHash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
		storage := &MockAuthStorage{
			UserByEmailFunc: func(email domain.Email) (domain.User, error) {
				return domain.User{Id: 1, PassHash: string(passHash), IsActive: false}, nil
			},
		}
		service := NewAuth(storage, &MockEmail{}, &MockJwt{}, testConfig(), clock)

		_, err := service.Login(domain.Credentials{Email: "test@example.com", Password: "password"})
		require.Error(t, err)
		assert.Equal(t, http.StatusForbidden, err.(*internal_errors.ErrorWithStatusCode).StatusCode)
	})
}

func TestRefresh(t *testing.T) {
	clock := clockwork.NewFakeClock()

	t.Run("Valid token is rotated", func(t *testing.T) {
		deleted := ""
		storage := &MockAuthStorage{
			RefreshTokenByHashFunc: func(tokenHash string) (domain.RefreshToken, error) {
				return domain.RefreshToken{UserId: 1, TokenHash: tokenHash, ExpiresAt: clock.Now().Add(time.Hour)}, nil
			},
			DeleteRefreshTokenFunc: func(tokenHash string) error {
				deleted = tokenHash
				return nil
			},
		}
		service := NewAuth(storage, &MockEmail{}, &MockJwt{}, testConfig(), clock)

		pair, err := service.Refresh("old-token")
		require.NoError(t, err)
		assert.NotEqual(t, "old-token", pair.RefreshToken)
		assert.Equal(t, utils.HashToken("old-token"), deleted)
	})

	t.Run("Expired token deleted and rejected", func(t *testing.T) {
		deleted := false
		storage := &MockAuthStorage{
			RefreshTokenByHashFunc: func(tokenHash string) (domain.RefreshToken, error) {
				return domain.RefreshToken{UserId: 1, TokenHash: tokenHash, ExpiresAt: clock.Now().Add(-time.Minute)}, nil
			},
			DeleteRefreshTokenFunc: func(tokenHash string) error {
				deleted = true
				return nil
			},
		}
		service := NewAuth(storage, &MockEmail{}, &MockJwt{}, testConfig(), clock)

		_, err := service.Refresh("stale-token")
		require.Error(t, err)
		assert.Equal(t, http.StatusUnauthorized, err.(*internal_errors.ErrorWithStatusCode).StatusCode)
		assert.True(t, deleted)
	})

	t.Run("Deactivated user cannot refresh", func(t *testing.T) {
		storage := &MockAuthStorage{
			RefreshTokenByHashFunc: func(tokenHash string) (domain.RefreshToken, error) {
				return domain.RefreshToken{UserId: 1, TokenHash: tokenHash, ExpiresAt: clock.Now().Add(time.Hour)}, nil
			},
			UserByIdFunc: func(id domain.UserId) (domain.User, error) {
				return domain.User{Id: id, IsActive: false}, nil
			},
		}
		service := NewAuth(storage, &MockEmail{}, &MockJwt{}, testConfig(), clock)

		_, err := service.Refresh("token")
		require.Error(t, err)
		assert.Equal(t, http.StatusForbidden, err.(*internal_errors.ErrorWithStatusCode).StatusCode)
	})
}

func TestLogout(t *testing.T) {
	clock := clockwork.NewFakeClock()

	t.Run("Unknown token is fine", func(t *testing.T) {
		storage := &MockAuthStorage{
			DeleteRefreshTokenFunc: func(tokenHash string) error {
				return &internal_errors.ErrorWithStatusCode{Message: "not found", StatusCode: http.StatusNotFound}
			},
		}
		service := NewAuth(storage, &MockEmail{}, &MockJwt{}, testConfig(), clock)
		assert.NoError(t, service.Logout("whatever"))
	})
}

func TestVerifyEmail(t *testing.T) {
	clock := clockwork.NewFakeClock()

	t.Run("Valid token verifies and cleans up", func(t *testing.T) {
		verified := false
		cleaned := false
		storage := &MockAuthStorage{
			ActionTokenByHashFunc: func(kind domain.ActionTokenKind, tokenHash string) (domain.ActionToken, error) {
				assert.Equal(t, domain.TokenEmailVerification, kind)
				return domain.ActionToken{UserId: 1, Kind: kind, ExpiresAt: clock.Now().Add(time.Hour)}, nil
			},
			MarkEmailVerifiedFunc: func(id domain.UserId) error {
				verified = true
				return nil
			},
			DeleteActionTokensFunc: func(userId domain.UserId, kind domain.ActionTokenKind) error {
				cleaned = true
				return nil
			},
		}
		service := NewAuth(storage, &MockEmail{}, &MockJwt{}, testConfig(), clock)

		require.NoError(t, service.VerifyEmail("token"))
		assert.True(t, verified)
		assert.True(t, cleaned)
	})

	t.Run("Expired token rejected", func(t *testing.T) {
		storage := &MockAuthStorage{
			ActionTokenByHashFunc: func(kind domain.ActionTokenKind, tokenHash string) (domain.ActionToken, error) {
				return domain.ActionToken{UserId: 1, Kind: kind, ExpiresAt: clock.Now().Add(-time.Hour)}, nil
			},
		}
		service := NewAuth(storage, &MockEmail{}, &MockJwt{}, testConfig(), clock)

		err := service.VerifyEmail("token")
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, err.(*internal_errors.ErrorWithStatusCode).StatusCode)
	})
}

func TestResendVerification(t *testing.T) {
	clock := clockwork.NewFakeClock()

	t.Run("Unverified user gets a fresh mail", func(t *testing.T) {
		sent := false
		email := &MockEmail{
			SendFunc: func(recipientEmail, subject, body string) error {
				sent = true
				return nil
			},
		}
		service := NewAuth(&MockAuthStorage{}, email, &MockJwt{}, testConfig(), clock)

		require.NoError(t, service.ResendVerification(1))
		assert.True(t, sent)
	})

	t.Run("Already verified is a conflict", func(t *testing.T) {
		storage := &MockAuthStorage{
			UserByIdFunc: func(id domain.UserId) (domain.User, error) {
				return domain.User{Id: id, Email: "test@example.com", EmailVerified: true, IsActive: true}, nil
			},
		}
		service := NewAuth(storage, &MockEmail{}, &MockJwt{}, testConfig(), clock)

		err := service.ResendVerification(1)
		require.Error(t, err)
		assert.Equal(t, http.StatusConflict, err.(*internal_errors.ErrorWithStatusCode).StatusCode)
	})
}

func TestForgotPassword(t *testing.T) {
	clock := clockwork.NewFakeClock()

	t.Run("Unknown email still succeeds", func(t *testing.T) {
		tokenSaved := false
		storage := &MockAuthStorage{
			UserByEmailFunc: func(email domain.Email) (domain.User, error) {
				return domain.User{}, &internal_errors.ErrorWithStatusCode{Message: "User not found", StatusCode: http.StatusNotFound}
			},
			SaveActionTokenFunc: func(token domain.ActionToken) error {
				tokenSaved = true
				return nil
			},
		}
		service := NewAuth(storage, &MockEmail{}, &MockJwt{}, testConfig(), clock)

		assert.NoError(t, service.ForgotPassword("nobody@example.com"))
		assert.False(t, tokenSaved)
	})

	t.Run("Known email gets a short-lived token", func(t *testing.T) {
		var saved domain.ActionToken
		storage := &MockAuthStorage{
			SaveActionTokenFunc: func(token domain.ActionToken) error {
				saved = token
				return nil
			},
		}
		service := NewAuth(storage, &MockEmail{}, &MockJwt{}, testConfig(), clock)

		require.NoError(t, service.ForgotPassword("test@example.com"))
		assert.Equal(t, domain.TokenPasswordReset, saved.Kind)
		assert.WithinDuration(t, clock.Now().Add(time.Hour), saved.ExpiresAt, time.Minute)
	})
}

func TestResetPassword(t *testing.T) {
	clock := clockwork.NewFakeClock()

	t.Run("Reset revokes all sessions", func(t *testing.T) {
		var newHash string
		revoked := false
		storage := &MockAuthStorage{
			ActionTokenByHashFunc: func(kind domain.ActionTokenKind, tokenHash string) (domain.ActionToken, error) {
				return domain.ActionToken{UserId: 3, Kind: kind, ExpiresAt: clock.Now().Add(time.Hour)}, nil
			},
			UpdatePasswordFunc: func(id domain.UserId, passHash string) error {
				newHash = passHash
				return nil
			},
			DeleteUserRefreshTokensFunc: func(userId domain.UserId) error {
				revoked = userId == 3
				return nil
			},
		}
		service := NewAuth(storage, &MockEmail{}, &MockJwt{}, testConfig(), clock)

		require.NoError(t, service.ResetPassword("token", "newpassword1"))
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(newHash), []byte("newpassword1")))
		assert.True(t, revoked)
	})
}
