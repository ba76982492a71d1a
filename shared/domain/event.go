package domain

import "time"

type EventId = int64
type CategoryId = int64

type EventCategory struct {
	Id          CategoryId
	Name        string
	Description string
	CreatedAt   time.Time
}

type Event struct {
	Id              EventId
	Title           string
	Description     string
	StartsAt        time.Time
	EndsAt          *time.Time
	Location        string
	MaxParticipants int // 0 means unlimited
	IsActive        bool
	CreatedAt       time.Time
	CreatorId       UserId
	CategoryId      CategoryId

	Creator  UserSummary
	Category EventCategory

	ParticipantCount int
	IsFull           bool
}

type EventCreationData struct {
	Title           string
	Description     string
	StartsAt        time.Time
	EndsAt          *time.Time
	Location        string
	MaxParticipants int
	CreatorId       UserId
	CategoryId      CategoryId
}

// EventUpdate carries optional changes; nil means "leave unchanged".
type EventUpdate struct {
	Title           *string
	Description     *string
	StartsAt        *time.Time
	EndsAt          *time.Time
	Location        *string
	MaxParticipants *int
	CategoryId      *CategoryId
}

type ParticipationStatus string

const (
	ParticipationRegistered ParticipationStatus = "registered"
	ParticipationAttended   ParticipationStatus = "attended"
	ParticipationCancelled  ParticipationStatus = "cancelled"
)

type EventParticipation struct {
	Id              int64
	EventId         EventId
	UserId          UserId
	Status          ParticipationStatus
	RegisteredAt    time.Time
	StatusUpdatedAt time.Time

	User UserSummary
}

// EventReminder is one pending "your event starts soon" notification.
type EventReminder struct {
	EventId  EventId
	Title    string
	StartsAt time.Time
	UserId   UserId
}

type EventFilter struct {
	CategoryId   CategoryId // 0 means all
	UpcomingOnly bool
	CreatorId    UserId // 0 means all
	Page         Page
}

type EventStats struct {
	UpcomingEvents  int
	EventsAttended  int
	EventsCancelled int
	AttendanceRate  float64
	TotalEvents     int
	EngagementLevel string
}
