package service

import (
	"github.com/kiezhub-dev/kiezhub/shared/domain"
	"github.com/kiezhub-dev/kiezhub/shared/logger"
	"github.com/kiezhub-dev/kiezhub/shared/suspension"
)

type UserService interface {
	User(id domain.UserId) (domain.User, error)
	Users(page domain.Page) ([]domain.User, error)
	UpdateProfile(id domain.UserId, upd domain.ProfileUpdate) (domain.User, error)
	Stats(id domain.UserId) (domain.UserStats, error)

	// Admin operations
	SetUserActive(id domain.UserId, active bool) error
}

type UserStorage interface {
	UserById(id domain.UserId) (domain.User, error)
	Users(page domain.Page) ([]domain.User, error)
	UpdateProfile(id domain.UserId, upd domain.ProfileUpdate) (domain.User, error)
	UserStats(id domain.UserId) (domain.UserStats, error)
	SetUserActive(id domain.UserId, active bool) error
}

type User struct {
	storage         UserStorage
	suspensionCache *suspension.Cache
}

func NewUser(storage UserStorage, suspensionCache *suspension.Cache) *User {
	return &User{storage: storage, suspensionCache: suspensionCache}
}

func (u *User) User(id domain.UserId) (domain.User, error) {
	return u.storage.UserById(id)
}

func (u *User) Users(page domain.Page) ([]domain.User, error) {
	return u.storage.Users(page)
}

func (u *User) UpdateProfile(id domain.UserId, upd domain.ProfileUpdate) (domain.User, error) {
	return u.storage.UpdateProfile(id, upd)
}

func (u *User) Stats(id domain.UserId) (domain.UserStats, error) {
	return u.storage.UserStats(id)
}

// SetUserActive flips account activation and refreshes the suspension cache
// so deactivation takes effect before the access token expires.
func (u *User) SetUserActive(id domain.UserId, active bool) error {
	if err := u.storage.SetUserActive(id, active); err != nil {
		return err
	}
	if err := u.suspensionCache.Update(); err != nil {
		logger.Log.Warn("activation changed but cache update failed",
			"user_id", id,
			"error", err)
		// Don't fail the request - cache will update on next background tick
	}
	return nil
}
