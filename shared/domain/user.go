package domain

import "time"

type UserId = int64

type User struct {
	Id              UserId
	DisplayName     string
	Email           string
	PassHash        string
	FirstName       string
	LastName        string
	Bio             string
	Location        string
	ProfileImageURL string
	IsActive        bool
	Admin           bool
	CreatedAt       time.Time
	EmailVerified   bool
	EmailVerifiedAt *time.Time

	Privacy       PrivacySettings
	Notifications NotificationSettings
}

// PrivacySettings controls which profile fields other users can see.
type PrivacySettings struct {
	Email     bool
	FirstName bool
	LastName  bool
	Bio       bool
	Location  bool
	CreatedAt bool
}

// NotificationSettings controls which notifications a user receives.
type NotificationSettings struct {
	ForumReply   bool
	ForumMention bool
	EmailEvents  bool
}

// ProfileUpdate carries optional field changes; nil means "leave unchanged".
type ProfileUpdate struct {
	DisplayName     *string
	FirstName       *string
	LastName        *string
	Bio             *string
	Location        *string
	ProfileImageURL *string
	Privacy         *PrivacySettings
	Notifications   *NotificationSettings
}

type UserStats struct {
	EventsCreated  int
	EventsJoined   int
	Services       int
	ForumThreads   int
	ForumPosts     int
	Comments       int
	PollsCreated   int
	VotesCast      int
}
