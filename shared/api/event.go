package api

import (
	"time"

	"github.com/kiezhub-dev/kiezhub/shared/domain"
)

// Request DTOs

type CreateEventCategoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description,omitempty"`
}

type UpdateEventCategoryRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Description *string `json:"description,omitempty"`
}

type CreateEventRequest struct {
	Title           string     `json:"title" validate:"required,max=200"`
	Description     string     `json:"description" validate:"required"`
	StartsAt        time.Time  `json:"starts_at" validate:"required"`
	EndsAt          *time.Time `json:"ends_at,omitempty"`
	Location        string     `json:"location,omitempty" validate:"max=300"`
	MaxParticipants int        `json:"max_participants,omitempty" validate:"gte=0"`
	CategoryId      int64      `json:"category_id" validate:"required"`
}

type UpdateEventRequest struct {
	Title           *string    `json:"title,omitempty" validate:"omitempty,max=200"`
	Description     *string    `json:"description,omitempty"`
	StartsAt        *time.Time `json:"starts_at,omitempty"`
	EndsAt          *time.Time `json:"ends_at,omitempty"`
	Location        *string    `json:"location,omitempty" validate:"omitempty,max=300"`
	MaxParticipants *int       `json:"max_participants,omitempty" validate:"omitempty,gte=0"`
	CategoryId      *int64     `json:"category_id,omitempty"`
}

type MarkAttendanceRequest struct {
	UserIds []int64 `json:"user_ids" validate:"required,min=1"`
}

// Response DTOs

type EventCategoryResponse struct {
	Id          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewEventCategoryResponse(c domain.EventCategory) EventCategoryResponse {
	return EventCategoryResponse{Id: c.Id, Name: c.Name, Description: c.Description, CreatedAt: c.CreatedAt}
}

type EventSummary struct {
	Id               int64                 `json:"id"`
	Title            string                `json:"title"`
	StartsAt         time.Time             `json:"starts_at"`
	Location         string                `json:"location,omitempty"`
	Creator          UserSummary           `json:"creator"`
	Category         EventCategoryResponse `json:"category"`
	ParticipantCount int                   `json:"participant_count"`
}

func NewEventSummary(e domain.Event) EventSummary {
	return EventSummary{
		Id:               e.Id,
		Title:            e.Title,
		StartsAt:         e.StartsAt,
		Location:         e.Location,
		Creator:          NewUserSummary(e.Creator),
		Category:         NewEventCategoryResponse(e.Category),
		ParticipantCount: e.ParticipantCount,
	}
}

type EventResponse struct {
	Id               int64                 `json:"id"`
	Title            string                `json:"title"`
	Description      string                `json:"description"`
	StartsAt         time.Time             `json:"starts_at"`
	EndsAt           *time.Time            `json:"ends_at,omitempty"`
	Location         string                `json:"location,omitempty"`
	MaxParticipants  int                   `json:"max_participants,omitempty"`
	IsActive         bool                  `json:"is_active"`
	CreatedAt        time.Time             `json:"created_at"`
	Creator          UserSummary           `json:"creator"`
	Category         EventCategoryResponse `json:"category"`
	ParticipantCount int                   `json:"participant_count"`
	IsFull           bool                  `json:"is_full"`
}

func NewEventResponse(e domain.Event) EventResponse {
	return EventResponse{
		Id:               e.Id,
		Title:            e.Title,
		Description:      e.Description,
		StartsAt:         e.StartsAt,
		EndsAt:           e.EndsAt,
		Location:         e.Location,
		MaxParticipants:  e.MaxParticipants,
		IsActive:         e.IsActive,
		CreatedAt:        e.CreatedAt,
		Creator:          NewUserSummary(e.Creator),
		Category:         NewEventCategoryResponse(e.Category),
		ParticipantCount: e.ParticipantCount,
		IsFull:           e.IsFull,
	}
}

type ParticipationResponse struct {
	Id              int64       `json:"id"`
	EventId         int64       `json:"event_id"`
	Status          string      `json:"status"`
	RegisteredAt    time.Time   `json:"registered_at"`
	StatusUpdatedAt time.Time   `json:"status_updated_at"`
	User            UserSummary `json:"user"`
}

func NewParticipationResponse(p domain.EventParticipation) ParticipationResponse {
	return ParticipationResponse{
		Id:              p.Id,
		EventId:         p.EventId,
		Status:          string(p.Status),
		RegisteredAt:    p.RegisteredAt,
		StatusUpdatedAt: p.StatusUpdatedAt,
		User:            NewUserSummary(p.User),
	}
}

type EventStatsResponse struct {
	UpcomingEvents  int     `json:"upcoming_events"`
	EventsAttended  int     `json:"events_attended"`
	EventsCancelled int     `json:"events_cancelled"`
	AttendanceRate  float64 `json:"attendance_rate"`
	TotalEvents     int     `json:"total_events"`
	EngagementLevel string  `json:"engagement_level"`
}
