package api

import (
	"time"

	"github.com/kiezhub-dev/kiezhub/shared/domain"
)

type UserSummary struct {
	Id              int64     `json:"id"`
	DisplayName     string    `json:"display_name"`
	ProfileImageURL string    `json:"profile_image_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func NewUserSummary(u domain.UserSummary) UserSummary {
	return UserSummary{
		Id:              u.Id,
		DisplayName:     u.DisplayName,
		ProfileImageURL: u.ProfileImageURL,
		CreatedAt:       u.CreatedAt,
	}
}

// UserPublic honors the owner's privacy flags; hidden fields are omitted.
type UserPublic struct {
	Id              int64      `json:"id"`
	DisplayName     string     `json:"display_name"`
	ProfileImageURL string     `json:"profile_image_url,omitempty"`
	Email           string     `json:"email,omitempty"`
	FirstName       string     `json:"first_name,omitempty"`
	LastName        string     `json:"last_name,omitempty"`
	Bio             string     `json:"bio,omitempty"`
	Location        string     `json:"location,omitempty"`
	CreatedAt       *time.Time `json:"created_at,omitempty"`
}

func NewUserPublic(u domain.User) UserPublic {
	out := UserPublic{
		Id:              u.Id,
		DisplayName:     u.DisplayName,
		ProfileImageURL: u.ProfileImageURL,
	}
	// Privacy flags hide fields from other users.
	if !u.Privacy.Email {
		out.Email = u.Email
	}
	if !u.Privacy.FirstName {
		out.FirstName = u.FirstName
	}
	if !u.Privacy.LastName {
		out.LastName = u.LastName
	}
	if !u.Privacy.Bio {
		out.Bio = u.Bio
	}
	if !u.Privacy.Location {
		out.Location = u.Location
	}
	if !u.Privacy.CreatedAt {
		createdAt := u.CreatedAt
		out.CreatedAt = &createdAt
	}
	return out
}

// UserPrivate is the owner's (or an admin's) full view.
type UserPrivate struct {
	Id              int64      `json:"id"`
	DisplayName     string     `json:"display_name"`
	Email           string     `json:"email"`
	FirstName       string     `json:"first_name,omitempty"`
	LastName        string     `json:"last_name,omitempty"`
	Bio             string     `json:"bio,omitempty"`
	Location        string     `json:"location,omitempty"`
	ProfileImageURL string     `json:"profile_image_url,omitempty"`
	IsActive        bool       `json:"is_active"`
	IsAdmin         bool       `json:"is_admin"`
	EmailVerified   bool       `json:"email_verified"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`

	Privacy       PrivacySettings      `json:"privacy"`
	Notifications NotificationSettings `json:"notifications"`
}

type PrivacySettings struct {
	Email     bool `json:"email"`
	FirstName bool `json:"first_name"`
	LastName  bool `json:"last_name"`
	Bio       bool `json:"bio"`
	Location  bool `json:"location"`
	CreatedAt bool `json:"created_at"`
}

type NotificationSettings struct {
	ForumReply   bool `json:"forum_reply"`
	ForumMention bool `json:"forum_mention"`
	EmailEvents  bool `json:"email_events"`
}

func NewUserPrivate(u domain.User) UserPrivate {
	return UserPrivate{
		Id:              u.Id,
		DisplayName:     u.DisplayName,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Bio:             u.Bio,
		Location:        u.Location,
		ProfileImageURL: u.ProfileImageURL,
		IsActive:        u.IsActive,
		IsAdmin:         u.Admin,
		EmailVerified:   u.EmailVerified,
		EmailVerifiedAt: u.EmailVerifiedAt,
		CreatedAt:       u.CreatedAt,
		Privacy:         PrivacySettings(u.Privacy),
		Notifications:   NotificationSettings(u.Notifications),
	}
}

type UpdateProfileRequest struct {
	DisplayName     *string               `json:"display_name,omitempty" validate:"omitempty,min=3,max=100"`
	FirstName       *string               `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName        *string               `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Bio             *string               `json:"bio,omitempty" validate:"omitempty,max=2000"`
	Location        *string               `json:"location,omitempty" validate:"omitempty,max=200"`
	ProfileImageURL *string               `json:"profile_image_url,omitempty" validate:"omitempty,url"`
	Privacy         *PrivacySettings      `json:"privacy,omitempty"`
	Notifications   *NotificationSettings `json:"notifications,omitempty"`
}

func (r *UpdateProfileRequest) ToDomain() domain.ProfileUpdate {
	upd := domain.ProfileUpdate{
		DisplayName:     r.DisplayName,
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		Bio:             r.Bio,
		Location:        r.Location,
		ProfileImageURL: r.ProfileImageURL,
	}
	if r.Privacy != nil {
		p := domain.PrivacySettings(*r.Privacy)
		upd.Privacy = &p
	}
	if r.Notifications != nil {
		n := domain.NotificationSettings(*r.Notifications)
		upd.Notifications = &n
	}
	return upd
}

type UserStatsResponse struct {
	EventsCreated int `json:"events_created"`
	EventsJoined  int `json:"events_joined"`
	Services      int `json:"services"`
	ForumThreads  int `json:"forum_threads"`
	ForumPosts    int `json:"forum_posts"`
	Comments      int `json:"comments"`
	PollsCreated  int `json:"polls_created"`
	VotesCast     int `json:"votes_cast"`
}
