package service

import (
	"net/http"
	"testing"

	"github.com/kiezhub-dev/kiezhub/shared/domain"
	internal_errors "github.com/kiezhub-dev/kiezhub/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockNotificationStorage struct {
	SaveNotificationFunc         func(n domain.Notification) error
	NotificationsFunc            func(userId domain.UserId, filter domain.NotificationFilter) ([]domain.Notification, error)
	NotificationStatsForFunc     func(userId domain.UserId) (domain.NotificationStats, error)
	MarkNotificationReadFunc     func(userId domain.UserId, id domain.NotificationId) error
	MarkAllNotificationsReadFunc func(userId domain.UserId, kind domain.NotificationType) (int, error)
	DeleteNotificationFunc       func(userId domain.UserId, id domain.NotificationId) error
	DeleteReadNotificationsFunc  func(userId domain.UserId) (int, error)
	UserByIdFunc                 func(id domain.UserId) (domain.User, error)
	UsersFunc                    func(page domain.Page) ([]domain.User, error)
}

func (m *MockNotificationStorage) SaveNotification(n domain.Notification) error {
	if m.SaveNotificationFunc != nil {
		return m.SaveNotificationFunc(n)
	}
	return nil
}

func (m *MockNotificationStorage) Notifications(userId domain.UserId, filter domain.NotificationFilter) ([]domain.Notification, error) {
	if m.NotificationsFunc != nil {
		return m.NotificationsFunc(userId, filter)
	}
	return nil, nil
}

func (m *MockNotificationStorage) NotificationStatsFor(userId domain.UserId) (domain.NotificationStats, error) {
	if m.NotificationStatsForFunc != nil {
		return m.NotificationStatsForFunc(userId)
	}
	return domain.NotificationStats{}, nil
}

func (m *MockNotificationStorage) MarkNotificationRead(userId domain.UserId, id domain.NotificationId) error {
	if m.MarkNotificationReadFunc != nil {
		return m.MarkNotificationReadFunc(userId, id)
	}
	return nil
}

func (m *MockNotificationStorage) MarkAllNotificationsRead(userId domain.UserId, kind domain.NotificationType) (int, error) {
	if m.MarkAllNotificationsReadFunc != nil {
		return m.MarkAllNotificationsReadFunc(userId, kind)
	}
	return 0, nil
}

func (m *MockNotificationStorage) DeleteNotification(userId domain.UserId, id domain.NotificationId) error {
	if m.DeleteNotificationFunc != nil {
		return m.DeleteNotificationFunc(userId, id)
	}
	return nil
}

func (m *MockNotificationStorage) DeleteReadNotifications(userId domain.UserId) (int, error) {
	if m.DeleteReadNotificationsFunc != nil {
		return m.DeleteReadNotificationsFunc(userId)
	}
	return 0, nil
}

func (m *MockNotificationStorage) UserById(id domain.UserId) (domain.User, error) {
	if m.UserByIdFunc != nil {
		return m.UserByIdFunc(id)
	}
	return domain.User{
		Id:            id,
		IsActive:      true,
		Notifications: domain.NotificationSettings{ForumReply: true, ForumMention: true},
	}, nil
}

func (m *MockNotificationStorage) Users(page domain.Page) ([]domain.User, error) {
	if m.UsersFunc != nil {
		return m.UsersFunc(page)
	}
	return nil, nil
}

func TestNotify(t *testing.T) {
	t.Run("Delivered", func(t *testing.T) {
		var saved domain.Notification
		storage := &MockNotificationStorage{
			SaveNotificationFunc: func(n domain.Notification) error {
				saved = n
				return nil
			},
		}
		service := NewNotification(storage)

		service.Notify(3, domain.NotificationForumReply, map[string]any{"thread_id": int64(1)})

		assert.Equal(t, domain.UserId(3), saved.UserId)
		assert.Equal(t, domain.NotificationForumReply, saved.Type)
		assert.Equal(t, int64(1), saved.Data["thread_id"])
	})

	t.Run("Reply notifications muted", func(t *testing.T) {
		storage := &MockNotificationStorage{
			UserByIdFunc: func(id domain.UserId) (domain.User, error) {
				return domain.User{Id: id, Notifications: domain.NotificationSettings{ForumMention: true}}, nil
			},
			SaveNotificationFunc: func(n domain.Notification) error {
				t.Fatal("muted notification must not be saved")
				return nil
			},
		}
		service := NewNotification(storage)

		service.Notify(3, domain.NotificationForumReply, nil)
	})

	t.Run("Service interest ignores forum settings", func(t *testing.T) {
		saved := false
		storage := &MockNotificationStorage{
			UserByIdFunc: func(id domain.UserId) (domain.User, error) {
				return domain.User{Id: id}, nil
			},
			SaveNotificationFunc: func(n domain.Notification) error {
				saved = true
				return nil
			},
		}
		service := NewNotification(storage)

		service.Notify(3, domain.NotificationServiceInterest, nil)
		assert.True(t, saved)
	})

	t.Run("Unknown recipient swallowed", func(t *testing.T) {
		storage := &MockNotificationStorage{
			UserByIdFunc: func(id domain.UserId) (domain.User, error) {
				return domain.User{}, &internal_errors.ErrorWithStatusCode{Message: "User not found", StatusCode: http.StatusNotFound}
			},
		}
		service := NewNotification(storage)

		service.Notify(3, domain.NotificationForumReply, nil)
	})
}

func TestAnnounce(t *testing.T) {
	t.Run("All users reached across batches", func(t *testing.T) {
		// 502 users: one full batch plus a short one.
		all := make([]domain.User, 502)
		for i := range all {
			all[i] = domain.User{Id: domain.UserId(i + 1)}
		}
		saved := 0
		storage := &MockNotificationStorage{
			UsersFunc: func(page domain.Page) ([]domain.User, error) {
				end := page.Offset + page.Limit
				if end > len(all) {
					end = len(all)
				}
				if page.Offset >= len(all) {
					return nil, nil
				}
				return all[page.Offset:end], nil
			},
			SaveNotificationFunc: func(n domain.Notification) error {
				saved++
				assert.Equal(t, domain.NotificationAdminAnnouncement, n.Type)
				assert.Equal(t, "Summer fest this weekend", n.Data["message"])
				return nil
			},
		}
		service := NewNotification(storage)

		sent, err := service.Announce("Summer fest this weekend")
		require.NoError(t, err)
		assert.Equal(t, 502, sent)
		assert.Equal(t, 502, saved)
	})

	t.Run("Delivery failures skipped", func(t *testing.T) {
		storage := &MockNotificationStorage{
			UsersFunc: func(page domain.Page) ([]domain.User, error) {
				if page.Offset > 0 {
					return nil, nil
				}
				return []domain.User{{Id: 1}, {Id: 2}, {Id: 3}}, nil
			},
			SaveNotificationFunc: func(n domain.Notification) error {
				if n.UserId == 2 {
					return assert.AnError
				}
				return nil
			},
		}
		service := NewNotification(storage)

		sent, err := service.Announce("hello")
		require.NoError(t, err)
		assert.Equal(t, 2, sent)
	})
}
