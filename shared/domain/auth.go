package domain

import "time"

type Email = string

type Credentials struct {
	Email    Email
	Password string
}

type Registration struct {
	DisplayName string
	Email       Email
	Password    string
}

// TokenPair is returned from login and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int // seconds
}

// RefreshToken rows store only a hash of the opaque token.
type RefreshToken struct {
	Id        int64
	UserId    UserId
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// ActionTokenKind distinguishes one-time email tokens.
type ActionTokenKind string

const (
	TokenEmailVerification ActionTokenKind = "email_verification"
	TokenPasswordReset     ActionTokenKind = "password_reset"
)

// ActionToken is a one-time token delivered by email (verification, reset).
type ActionToken struct {
	UserId    UserId
	Kind      ActionTokenKind
	TokenHash string
	ExpiresAt time.Time
}
