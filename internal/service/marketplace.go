package service

import (
	"net/http"

	"github.com/kiezhub-dev/kiezhub/shared/domain"
	"github.com/kiezhub-dev/kiezhub/shared/errors"
	"github.com/kiezhub-dev/kiezhub/shared/logger"
)

// Notifier fans out in-app notifications. Implemented by *Notification.
type Notifier interface {
	Notify(userId domain.UserId, kind domain.NotificationType, data map[string]any)
}

type MarketplaceService interface {
	Create(data domain.ServiceCreationData) (domain.Service, error)
	Service(id domain.ServiceId, viewerId domain.UserId) (domain.Service, error)
	Services(filter domain.ServiceFilter) ([]domain.Service, error)
	Update(id domain.ServiceId, actor *domain.User, upd domain.ServiceUpdate) (domain.Service, error)
	Delete(id domain.ServiceId, actor *domain.User) error
	ExpressInterest(id domain.ServiceId, userId domain.UserId) error
	Complete(id domain.ServiceId, actor *domain.User) error
	Stats(userId domain.UserId) (domain.ServiceStats, error)

	// Admin operations
	Flagged(page domain.Page) ([]domain.Service, error)
	Flag(id domain.ServiceId, reason string) error
	Review(id domain.ServiceId, reviewerId domain.UserId, notes string) error
}

type MarketplaceStorage interface {
	SaveService(data domain.ServiceCreationData) (domain.ServiceId, error)
	Service(id domain.ServiceId) (domain.Service, error)
	Services(filter domain.ServiceFilter) ([]domain.Service, error)
	UpdateService(id domain.ServiceId, upd domain.ServiceUpdate) (domain.Service, error)
	DeleteService(id domain.ServiceId) error
	IncrementServiceViews(id domain.ServiceId) error
	IncrementServiceInterest(id domain.ServiceId) error
	CompleteService(id domain.ServiceId) error
	FlagService(id domain.ServiceId, reason string) error
	ReviewService(id domain.ServiceId, reviewerId domain.UserId, notes string) error
	ServiceStats(userId domain.UserId) (domain.ServiceStats, error)
}

type Marketplace struct {
	storage   MarketplaceStorage
	notifier  Notifier
	moderator ContentModerator
}

func NewMarketplace(storage MarketplaceStorage, notifier Notifier, moderator ContentModerator) *Marketplace {
	return &Marketplace{storage: storage, notifier: notifier, moderator: moderator}
}

// Create saves the listing and screens its text.
func (m *Marketplace) Create(data domain.ServiceCreationData) (domain.Service, error) {
	id, err := m.storage.SaveService(data)
	if err != nil {
		return domain.Service{}, err
	}
	m.moderator.Screen("service", id, data.UserId, data.Title+"\n"+data.Description)
	return m.storage.Service(id)
}

// Service returns one listing and counts the view. Owners browsing their
// own listing don't bump the counter.
func (m *Marketplace) Service(id domain.ServiceId, viewerId domain.UserId) (domain.Service, error) {
	svc, err := m.storage.Service(id)
	if err != nil {
		return domain.Service{}, err
	}
	if viewerId != svc.UserId {
		if err := m.storage.IncrementServiceViews(id); err != nil {
			logger.Log.Warn("failed to count service view", "service_id", id, "error", err)
		} else {
			svc.ViewCount++
		}
	}
	return svc, nil
}

func (m *Marketplace) Services(filter domain.ServiceFilter) ([]domain.Service, error) {
	return m.storage.Services(filter)
}

func (m *Marketplace) Update(id domain.ServiceId, actor *domain.User, upd domain.ServiceUpdate) (domain.Service, error) {
	svc, err := m.storage.Service(id)
	if err != nil {
		return domain.Service{}, err
	}
	if svc.UserId != actor.Id && !actor.Admin {
		return domain.Service{}, &errors.ErrorWithStatusCode{Message: "Only the owner can edit this listing", StatusCode: http.StatusForbidden}
	}
	updated, err := m.storage.UpdateService(id, upd)
	if err != nil {
		return domain.Service{}, err
	}
	m.moderator.Screen("service", id, updated.UserId, updated.Title+"\n"+updated.Description)
	return updated, nil
}

func (m *Marketplace) Delete(id domain.ServiceId, actor *domain.User) error {
	svc, err := m.storage.Service(id)
	if err != nil {
		return err
	}
	if svc.UserId != actor.Id && !actor.Admin {
		return &errors.ErrorWithStatusCode{Message: "Only the owner can delete this listing", StatusCode: http.StatusForbidden}
	}
	return m.storage.DeleteService(id)
}

// ExpressInterest bumps the interest counter and notifies the owner.
func (m *Marketplace) ExpressInterest(id domain.ServiceId, userId domain.UserId) error {
	svc, err := m.storage.Service(id)
	if err != nil {
		return err
	}
	if svc.UserId == userId {
		return &errors.ErrorWithStatusCode{Message: "Cannot express interest in your own listing", StatusCode: http.StatusBadRequest}
	}
	if svc.IsCompleted {
		return &errors.ErrorWithStatusCode{Message: "Listing is already completed", StatusCode: http.StatusBadRequest}
	}
	if err := m.storage.IncrementServiceInterest(id); err != nil {
		return err
	}
	m.notifier.Notify(svc.UserId, domain.NotificationServiceInterest, map[string]any{
		"service_id":    svc.Id,
		"service_title": svc.Title,
	})
	return nil
}

func (m *Marketplace) Complete(id domain.ServiceId, actor *domain.User) error {
	svc, err := m.storage.Service(id)
	if err != nil {
		return err
	}
	if svc.UserId != actor.Id && !actor.Admin {
		return &errors.ErrorWithStatusCode{Message: "Only the owner can complete this listing", StatusCode: http.StatusForbidden}
	}
	return m.storage.CompleteService(id)
}

func (m *Marketplace) Stats(userId domain.UserId) (domain.ServiceStats, error) {
	return m.storage.ServiceStats(userId)
}

func (m *Marketplace) Flagged(page domain.Page) ([]domain.Service, error) {
	return m.storage.Services(domain.ServiceFilter{FlaggedOnly: true, Page: page})
}

func (m *Marketplace) Flag(id domain.ServiceId, reason string) error {
	return m.storage.FlagService(id, reason)
}

func (m *Marketplace) Review(id domain.ServiceId, reviewerId domain.UserId, notes string) error {
	return m.storage.ReviewService(id, reviewerId, notes)
}
