package domain

import "time"

// UserSummary is the public slice of a user embedded in other entities.
type UserSummary struct {
	Id              UserId
	DisplayName     string
	ProfileImageURL string
	CreatedAt       time.Time
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		Id:              u.Id,
		DisplayName:     u.DisplayName,
		ProfileImageURL: u.ProfileImageURL,
		CreatedAt:       u.CreatedAt,
	}
}

// Page is an offset/limit pair already clamped by the handler layer.
type Page struct {
	Offset int
	Limit  int
}

// EngagementLevel buckets an activity count the way the platform reports it.
func EngagementLevel(total int) string {
	switch {
	case total == 0:
		return "new"
	case total < 3:
		return "low"
	case total < 10:
		return "moderate"
	case total < 25:
		return "high"
	default:
		return "very_high"
	}
}
