package service

import (
	"github.com/kiezhub-dev/kiezhub/shared/domain"
	"github.com/kiezhub-dev/kiezhub/shared/logger"
)

type NotificationService interface {
	Notifications(userId domain.UserId, filter domain.NotificationFilter) ([]domain.Notification, error)
	Stats(userId domain.UserId) (domain.NotificationStats, error)
	MarkRead(userId domain.UserId, id domain.NotificationId) error
	MarkAllRead(userId domain.UserId, kind domain.NotificationType) (int, error)
	Delete(userId domain.UserId, id domain.NotificationId) error
	DeleteRead(userId domain.UserId) (int, error)

	// Admin operations
	Announce(message string) (int, error)
}

type NotificationStorage interface {
	SaveNotification(n domain.Notification) error
	Notifications(userId domain.UserId, filter domain.NotificationFilter) ([]domain.Notification, error)
	NotificationStatsFor(userId domain.UserId) (domain.NotificationStats, error)
	MarkNotificationRead(userId domain.UserId, id domain.NotificationId) error
	MarkAllNotificationsRead(userId domain.UserId, kind domain.NotificationType) (int, error)
	DeleteNotification(userId domain.UserId, id domain.NotificationId) error
	DeleteReadNotifications(userId domain.UserId) (int, error)

	UserById(id domain.UserId) (domain.User, error)
	Users(page domain.Page) ([]domain.User, error)
}

type Notification struct {
	storage NotificationStorage
}

func NewNotification(storage NotificationStorage) *Notification {
	return &Notification{storage: storage}
}

// Notify delivers one in-app notification, honoring the recipient's
// settings. Delivery failures are logged, never propagated: notifications
// must not break the operation that triggered them.
func (n *Notification) Notify(userId domain.UserId, kind domain.NotificationType, data map[string]any) {
	user, err := n.storage.UserById(userId)
	if err != nil {
		logger.Log.Warn("notification recipient lookup failed", "user_id", userId, "error", err)
		return
	}

	switch kind {
	case domain.NotificationForumReply:
		if !user.Notifications.ForumReply {
			return
		}
	case domain.NotificationForumMention:
		if !user.Notifications.ForumMention {
			return
		}
	}

	err = n.storage.SaveNotification(domain.Notification{
		UserId: userId,
		Type:   kind,
		Data:   data,
	})
	if err != nil {
		logger.Log.Warn("failed to save notification", "user_id", userId, "type", kind, "error", err)
	}
}

func (n *Notification) Notifications(userId domain.UserId, filter domain.NotificationFilter) ([]domain.Notification, error) {
	return n.storage.Notifications(userId, filter)
}

func (n *Notification) Stats(userId domain.UserId) (domain.NotificationStats, error) {
	return n.storage.NotificationStatsFor(userId)
}

func (n *Notification) MarkRead(userId domain.UserId, id domain.NotificationId) error {
	return n.storage.MarkNotificationRead(userId, id)
}

func (n *Notification) MarkAllRead(userId domain.UserId, kind domain.NotificationType) (int, error) {
	return n.storage.MarkAllNotificationsRead(userId, kind)
}

func (n *Notification) Delete(userId domain.UserId, id domain.NotificationId) error {
	return n.storage.DeleteNotification(userId, id)
}

func (n *Notification) DeleteRead(userId domain.UserId) (int, error) {
	return n.storage.DeleteReadNotifications(userId)
}

// Announce pushes an admin announcement to every active user and returns
// the number of recipients.
func (n *Notification) Announce(message string) (int, error) {
	const batch = 500
	sent := 0
	for offset := 0; ; offset += batch {
		users, err := n.storage.Users(domain.Page{Offset: offset, Limit: batch})
		if err != nil {
			return sent, err
		}
		for _, user := range users {
			err := n.storage.SaveNotification(domain.Notification{
				UserId: user.Id,
				Type:   domain.NotificationAdminAnnouncement,
				Data:   map[string]any{"message": message},
			})
			if err != nil {
				logger.Log.Warn("announcement delivery failed", "user_id", user.Id, "error", err)
				continue
			}
			sent++
		}
		if len(users) < batch {
			return sent, nil
		}
	}
}
