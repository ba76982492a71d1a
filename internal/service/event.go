package service

import (
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/kiezhub-dev/kiezhub/shared/config"
	"github.com/kiezhub-dev/kiezhub/shared/domain"
	"github.com/kiezhub-dev/kiezhub/shared/errors"
	"github.com/kiezhub-dev/kiezhub/shared/logger"
)

type EventService interface {
	CreateCategory(name, description string) (domain.EventCategory, error)
	Categories() ([]domain.EventCategory, error)
	UpdateCategory(id domain.CategoryId, name, description *string) (domain.EventCategory, error)
	DeleteCategory(id domain.CategoryId) error

	Create(data domain.EventCreationData) (domain.Event, error)
	Event(id domain.EventId) (domain.Event, error)
	Events(filter domain.EventFilter) ([]domain.Event, error)
	Update(id domain.EventId, actor *domain.User, upd domain.EventUpdate) (domain.Event, error)
	Delete(id domain.EventId, actor *domain.User) error

	Join(eventId domain.EventId, userId domain.UserId) error
	Leave(eventId domain.EventId, userId domain.UserId) error
	Participants(eventId domain.EventId) ([]domain.EventParticipation, error)
	JoinedBy(userId domain.UserId, page domain.Page) ([]domain.Event, error)
	StatsFor(userId domain.UserId) (domain.EventStats, error)

	// Admin operations
	MarkAttendance(eventId domain.EventId, userIds []domain.UserId) (int, error)
	ProcessCompletedEvents() ([]domain.EventId, error)
	SendEventReminders() (int, error)
}

type EventStorage interface {
	SaveEventCategory(name, description string) (domain.EventCategory, error)
	EventCategories() ([]domain.EventCategory, error)
	UpdateEventCategory(id domain.CategoryId, name, description *string) (domain.EventCategory, error)
	DeleteEventCategory(id domain.CategoryId) error

	SaveEvent(data domain.EventCreationData) (domain.EventId, error)
	Event(id domain.EventId) (domain.Event, error)
	Events(filter domain.EventFilter) ([]domain.Event, error)
	UpdateEvent(id domain.EventId, upd domain.EventUpdate) (domain.Event, error)
	DeleteEvent(id domain.EventId) error

	SaveParticipation(eventId domain.EventId, userId domain.UserId) error
	CancelParticipation(eventId domain.EventId, userId domain.UserId) error
	Participation(eventId domain.EventId, userId domain.UserId) (domain.EventParticipation, error)
	Participants(eventId domain.EventId) ([]domain.EventParticipation, error)
	EventsJoinedBy(userId domain.UserId, page domain.Page) ([]domain.Event, error)
	EventStatsFor(userId domain.UserId) (domain.EventStats, error)
	MarkAttendance(eventId domain.EventId, userIds []domain.UserId) (int, error)
	CompleteEndedEvents(cutoff time.Time) ([]domain.EventId, error)
	DueEventReminders(until time.Time) ([]domain.EventReminder, error)
}

type Event struct {
	storage  EventStorage
	cfg      *config.Public
	clock    clockwork.Clock
	notifier Notifier
}

func NewEvent(storage EventStorage, cfg *config.Public, clock clockwork.Clock, notifier Notifier) *Event {
	return &Event{storage: storage, cfg: cfg, clock: clock, notifier: notifier}
}

func (e *Event) CreateCategory(name, description string) (domain.EventCategory, error) {
	return e.storage.SaveEventCategory(name, description)
}

func (e *Event) Categories() ([]domain.EventCategory, error) {
	return e.storage.EventCategories()
}

func (e *Event) UpdateCategory(id domain.CategoryId, name, description *string) (domain.EventCategory, error) {
	return e.storage.UpdateEventCategory(id, name, description)
}

func (e *Event) DeleteCategory(id domain.CategoryId) error {
	return e.storage.DeleteEventCategory(id)
}

func (e *Event) Create(data domain.EventCreationData) (domain.Event, error) {
	if !data.StartsAt.After(e.clock.Now()) {
		return domain.Event{}, &errors.ErrorWithStatusCode{Message: "Event must start in the future", StatusCode: http.StatusBadRequest}
	}
	if data.EndsAt != nil && !data.EndsAt.After(data.StartsAt) {
		return domain.Event{}, &errors.ErrorWithStatusCode{Message: "Event must end after it starts", StatusCode: http.StatusBadRequest}
	}
	id, err := e.storage.SaveEvent(data)
	if err != nil {
		return domain.Event{}, err
	}
	// The creator participates in their own event.
	if err := e.storage.SaveParticipation(id, data.CreatorId); err != nil {
		logger.Log.Warn("failed to register creator for own event", "event_id", id, "error", err)
	}
	return e.storage.Event(id)
}

func (e *Event) Event(id domain.EventId) (domain.Event, error) {
	return e.storage.Event(id)
}

func (e *Event) Events(filter domain.EventFilter) ([]domain.Event, error) {
	return e.storage.Events(filter)
}

// Update is allowed for the creator and admins.
func (e *Event) Update(id domain.EventId, actor *domain.User, upd domain.EventUpdate) (domain.Event, error) {
	event, err := e.storage.Event(id)
	if err != nil {
		return domain.Event{}, err
	}
	if event.CreatorId != actor.Id && !actor.Admin {
		return domain.Event{}, &errors.ErrorWithStatusCode{Message: "Only the creator can edit this event", StatusCode: http.StatusForbidden}
	}
	if upd.StartsAt != nil && !upd.StartsAt.After(e.clock.Now()) {
		return domain.Event{}, &errors.ErrorWithStatusCode{Message: "Event must start in the future", StatusCode: http.StatusBadRequest}
	}
	return e.storage.UpdateEvent(id, upd)
}

func (e *Event) Delete(id domain.EventId, actor *domain.User) error {
	event, err := e.storage.Event(id)
	if err != nil {
		return err
	}
	if event.CreatorId != actor.Id && !actor.Admin {
		return &errors.ErrorWithStatusCode{Message: "Only the creator can delete this event", StatusCode: http.StatusForbidden}
	}
	return e.storage.DeleteEvent(id)
}

// Join registers the user when the event is open: active, in the future,
// before the registration deadline, below capacity, and not already joined.
func (e *Event) Join(eventId domain.EventId, userId domain.UserId) error {
	event, err := e.storage.Event(eventId)
	if err != nil {
		return err
	}

	now := e.clock.Now()
	if !event.IsActive || !event.StartsAt.After(now) {
		return &errors.ErrorWithStatusCode{Message: "Event is not open for registration", StatusCode: http.StatusBadRequest}
	}
	deadline := event.StartsAt.Add(-time.Duration(e.cfg.Events.RegistrationDeadlineHours) * time.Hour)
	if now.After(deadline) {
		return &errors.ErrorWithStatusCode{Message: "Registration deadline has passed", StatusCode: http.StatusBadRequest}
	}
	if event.IsFull {
		return &errors.ErrorWithStatusCode{Message: "Event is full", StatusCode: http.StatusConflict}
	}

	participation, err := e.storage.Participation(eventId, userId)
	if err != nil && !errors.IsNotFound(err) {
		return err
	}
	if err == nil && participation.Status != domain.ParticipationCancelled {
		return &errors.ErrorWithStatusCode{Message: "Already registered for this event", StatusCode: http.StatusConflict}
	}

	return e.storage.SaveParticipation(eventId, userId)
}

// Leave cancels a registration. Attendance already recorded stays.
func (e *Event) Leave(eventId domain.EventId, userId domain.UserId) error {
	event, err := e.storage.Event(eventId)
	if err != nil {
		return err
	}
	if !event.StartsAt.After(e.clock.Now()) {
		return &errors.ErrorWithStatusCode{Message: "Event has already started", StatusCode: http.StatusBadRequest}
	}
	return e.storage.CancelParticipation(eventId, userId)
}

func (e *Event) Participants(eventId domain.EventId) ([]domain.EventParticipation, error) {
	if _, err := e.storage.Event(eventId); err != nil {
		return nil, err
	}
	return e.storage.Participants(eventId)
}

func (e *Event) JoinedBy(userId domain.UserId, page domain.Page) ([]domain.Event, error) {
	return e.storage.EventsJoinedBy(userId, page)
}

func (e *Event) StatsFor(userId domain.UserId) (domain.EventStats, error) {
	st, err := e.storage.EventStatsFor(userId)
	if err != nil {
		return domain.EventStats{}, err
	}
	attended := st.EventsAttended
	denominator := st.TotalEvents - st.UpcomingEvents
	if denominator > 0 {
		st.AttendanceRate = float64(attended) / float64(denominator)
	}
	st.EngagementLevel = domain.EngagementLevel(st.TotalEvents - st.EventsCancelled)
	return st, nil
}

func (e *Event) MarkAttendance(eventId domain.EventId, userIds []domain.UserId) (int, error) {
	event, err := e.storage.Event(eventId)
	if err != nil {
		return 0, err
	}
	if event.StartsAt.After(e.clock.Now()) {
		return 0, &errors.ErrorWithStatusCode{Message: "Event has not started yet", StatusCode: http.StatusBadRequest}
	}
	return e.storage.MarkAttendance(eventId, userIds)
}

// ProcessCompletedEvents promotes registrations to attended once the event
// ended at least the configured delay ago. Intended for a periodic job.
func (e *Event) ProcessCompletedEvents() ([]domain.EventId, error) {
	cutoff := e.clock.Now().Add(-time.Duration(e.cfg.Events.AutoAttendanceDelayHours) * time.Hour)
	ids, err := e.storage.CompleteEndedEvents(cutoff)
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		logger.Log.Info("processed completed events", "count", len(ids))
	}
	return ids, nil
}

// SendEventReminders notifies registered participants of events starting
// within the configured window. Each participant is reminded once.
// Intended for a periodic job.
func (e *Event) SendEventReminders() (int, error) {
	until := e.clock.Now().Add(time.Duration(e.cfg.Events.ReminderHours) * time.Hour)
	due, err := e.storage.DueEventReminders(until)
	if err != nil {
		return 0, err
	}
	for _, rem := range due {
		e.notifier.Notify(rem.UserId, domain.NotificationEventReminder, map[string]any{
			"event_id":    rem.EventId,
			"event_title": rem.Title,
			"starts_at":   rem.StartsAt,
		})
	}
	if len(due) > 0 {
		logger.Log.Info("sent event reminders", "count", len(due))
	}
	return len(due), nil
}
