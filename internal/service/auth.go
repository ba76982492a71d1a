package service

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/kiezhub-dev/kiezhub/shared/config"
	"github.com/kiezhub-dev/kiezhub/shared/domain"
	"github.com/kiezhub-dev/kiezhub/shared/errors"
	"github.com/kiezhub-dev/kiezhub/shared/logger"
	"github.com/kiezhub-dev/kiezhub/shared/utils"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	Register(reg domain.Registration) (domain.User, error)
	Login(creds domain.Credentials) (domain.TokenPair, error)
	Refresh(refreshToken string) (domain.TokenPair, error)
	Logout(refreshToken string) error
	LogoutAll(userId domain.UserId) error
	VerifyEmail(token string) error
	ResendVerification(userId domain.UserId) error
	ForgotPassword(email domain.Email) error
	ResetPassword(token, newPassword string) error
}

type AuthStorage interface {
	SaveUser(user domain.User) (domain.UserId, error)
	UserByEmail(email domain.Email) (domain.User, error)
	UserById(id domain.UserId) (domain.User, error)
	UpdatePassword(id domain.UserId, passHash string) error
	MarkEmailVerified(id domain.UserId) error

	SaveRefreshToken(token domain.RefreshToken) error
	RefreshTokenByHash(tokenHash string) (domain.RefreshToken, error)
	DeleteRefreshToken(tokenHash string) error
	DeleteUserRefreshTokens(userId domain.UserId) error

	SaveActionToken(token domain.ActionToken) error
	ActionTokenByHash(kind domain.ActionTokenKind, tokenHash string) (domain.ActionToken, error)
	DeleteActionTokens(userId domain.UserId, kind domain.ActionTokenKind) error
}

type Email interface {
	Send(recipientEmail, subject, body string) error
	IsCorrect(email domain.Email) error
}

type Jwt interface {
	NewToken(user domain.User) (string, error)
	TTL() time.Duration
}

type Auth struct {
	storage AuthStorage
	email   Email
	jwt     Jwt
	cfg     *config.Config
	clock   clockwork.Clock
}

func NewAuth(storage AuthStorage, email Email, jwt Jwt, cfg *config.Config, clock clockwork.Clock) *Auth {
	return &Auth{
		storage: storage,
		email:   email,
		jwt:     jwt,
		cfg:     cfg,
		clock:   clock,
	}
}

// Register creates the account and emails a verification link. The account
// is usable right away, verification only flips the flag.
func (a *Auth) Register(reg domain.Registration) (domain.User, error) {
	email := strings.ToLower(reg.Email)

	if err := a.email.IsCorrect(email); err != nil {
		return domain.User{}, err
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Error("failed to hash password", "error", err)
		return domain.User{}, err
	}

	id, err := a.storage.SaveUser(domain.User{
		DisplayName: reg.DisplayName,
		Email:       email,
		PassHash:    string(passHash),
	})
	if err != nil {
		return domain.User{}, err
	}

	if err := a.sendVerificationMail(id, email); err != nil {
		// Account exists, the user can request a resend.
		logger.Log.Warn("verification mail failed after registration", "user_id", id, "error", err)
	}

	return a.storage.UserById(id)
}

// Login verifies credentials and returns an access/refresh token pair.
func (a *Auth) Login(creds domain.Credentials) (domain.TokenPair, error) {
	email := strings.ToLower(creds.Email)

	if err := a.email.IsCorrect(email); err != nil {
		return domain.TokenPair{}, err
	}

	user, err := a.storage.UserByEmail(email)
	if err != nil {
		// to not leak existing users
		if errors.IsNotFound(err) {
			return domain.TokenPair{}, &errors.ErrorWithStatusCode{Message: "Invalid credentials", StatusCode: http.StatusUnauthorized}
		}
		return domain.TokenPair{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PassHash), []byte(creds.Password)); err != nil {
		return domain.TokenPair{}, &errors.ErrorWithStatusCode{Message: "Invalid credentials", StatusCode: http.StatusUnauthorized}
	}

	if !user.IsActive {
		return domain.TokenPair{}, &errors.ErrorWithStatusCode{Message: "Account deactivated", StatusCode: http.StatusForbidden}
	}

	return a.issueTokens(user)
}

// Refresh rotates the refresh token: the presented token is revoked and a
// new pair is issued.
func (a *Auth) Refresh(refreshToken string) (domain.TokenPair, error) {
	stored, err := a.storage.RefreshTokenByHash(utils.HashToken(refreshToken))
	if err != nil {
		return domain.TokenPair{}, err
	}
	if stored.ExpiresAt.Before(a.clock.Now()) {
		// Expired tokens are deleted on sight.
		if err := a.storage.DeleteRefreshToken(stored.TokenHash); err != nil {
			logger.Log.Warn("failed to delete expired refresh token", "error", err)
		}
		return domain.TokenPair{}, &errors.ErrorWithStatusCode{Message: "Refresh token expired", StatusCode: http.StatusUnauthorized}
	}

	user, err := a.storage.UserById(stored.UserId)
	if err != nil {
		return domain.TokenPair{}, err
	}
	if !user.IsActive {
		return domain.TokenPair{}, &errors.ErrorWithStatusCode{Message: "Account deactivated", StatusCode: http.StatusForbidden}
	}

	if err := a.storage.DeleteRefreshToken(stored.TokenHash); err != nil {
		return domain.TokenPair{}, err
	}
	return a.issueTokens(user)
}

func (a *Auth) Logout(refreshToken string) error {
	err := a.storage.DeleteRefreshToken(utils.HashToken(refreshToken))
	if err != nil && !errors.IsNotFound(err) {
		return err
	}
	// Unknown token is fine, logout is idempotent.
	return nil
}

func (a *Auth) LogoutAll(userId domain.UserId) error {
	return a.storage.DeleteUserRefreshTokens(userId)
}

func (a *Auth) VerifyEmail(token string) error {
	stored, err := a.storage.ActionTokenByHash(domain.TokenEmailVerification, utils.HashToken(token))
	if err != nil {
		return err
	}
	if stored.ExpiresAt.Before(a.clock.Now()) {
		return &errors.ErrorWithStatusCode{Message: "Verification link expired", StatusCode: http.StatusBadRequest}
	}
	if err := a.storage.MarkEmailVerified(stored.UserId); err != nil {
		return err
	}
	return a.storage.DeleteActionTokens(stored.UserId, domain.TokenEmailVerification)
}

func (a *Auth) ResendVerification(userId domain.UserId) error {
	user, err := a.storage.UserById(userId)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return &errors.ErrorWithStatusCode{Message: "Email already verified", StatusCode: http.StatusConflict}
	}
	return a.sendVerificationMail(user.Id, user.Email)
}

// ForgotPassword always reports success so the endpoint cannot be used to
// enumerate accounts.
func (a *Auth) ForgotPassword(email domain.Email) error {
	email = strings.ToLower(email)

	if err := a.email.IsCorrect(email); err != nil {
		return err
	}

	user, err := a.storage.UserByEmail(email)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil
		}
		return err
	}

	token := utils.NewOpaqueToken()
	err = a.storage.SaveActionToken(domain.ActionToken{
		UserId:    user.Id,
		Kind:      domain.TokenPasswordReset,
		TokenHash: utils.HashToken(token),
		ExpiresAt: a.clock.Now().UTC().Add(a.cfg.PasswordResetTokenTTL()),
	})
	if err != nil {
		return err
	}

	body := fmt.Sprintf(`
		Hello,

		Someone requested a password reset for your account.
		Use the token below within one hour:

		%s

		If you did not request this, please ignore this email.
	`, token)

	if err := a.email.Send(email, "Reset your password", body); err != nil {
		logger.Log.Error("failed to send password reset mail", "user_id", user.Id, "error", err)
	}
	return nil
}

// ResetPassword sets the new password and revokes every active session.
func (a *Auth) ResetPassword(token, newPassword string) error {
	stored, err := a.storage.ActionTokenByHash(domain.TokenPasswordReset, utils.HashToken(token))
	if err != nil {
		return err
	}
	if stored.ExpiresAt.Before(a.clock.Now()) {
		return &errors.ErrorWithStatusCode{Message: "Reset link expired", StatusCode: http.StatusBadRequest}
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Error("failed to hash password", "error", err)
		return err
	}
	if err := a.storage.UpdatePassword(stored.UserId, string(passHash)); err != nil {
		return err
	}
	if err := a.storage.DeleteActionTokens(stored.UserId, domain.TokenPasswordReset); err != nil {
		return err
	}
	return a.storage.DeleteUserRefreshTokens(stored.UserId)
}

func (a *Auth) issueTokens(user domain.User) (domain.TokenPair, error) {
	access, err := a.jwt.NewToken(user)
	if err != nil {
		logger.Log.Error("failed to create jwt token", "user_id", user.Id, "error", err)
		return domain.TokenPair{}, err
	}

	refresh := utils.NewOpaqueToken()
	err = a.storage.SaveRefreshToken(domain.RefreshToken{
		UserId:    user.Id,
		TokenHash: utils.HashToken(refresh),
		ExpiresAt: a.clock.Now().UTC().Add(a.cfg.RefreshTokenTTL()),
	})
	if err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(a.jwt.TTL().Seconds()),
	}, nil
}

func (a *Auth) sendVerificationMail(userId domain.UserId, email domain.Email) error {
	token := utils.NewOpaqueToken()
	err := a.storage.SaveActionToken(domain.ActionToken{
		UserId:    userId,
		Kind:      domain.TokenEmailVerification,
		TokenHash: utils.HashToken(token),
		ExpiresAt: a.clock.Now().UTC().Add(a.cfg.VerificationTokenTTL()),
	})
	if err != nil {
		return err
	}

	body := fmt.Sprintf(`
		Hello,

		Welcome aboard. Verify your email address with the token below:

		%s

		If you did not create an account, please ignore this email.
	`, token)

	return a.email.Send(email, "Please confirm your email address", body)
}
