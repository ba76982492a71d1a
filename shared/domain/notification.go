package domain

import "time"

type NotificationId = int64

type NotificationType string

const (
	NotificationForumReply        NotificationType = "forum_reply"
	NotificationForumMention      NotificationType = "forum_mention"
	NotificationEventReminder     NotificationType = "event_reminder"
	NotificationServiceInterest   NotificationType = "service_interest"
	NotificationAdminAnnouncement NotificationType = "admin_announcement"
)

type Notification struct {
	Id        NotificationId
	UserId    UserId
	Type      NotificationType
	IsRead    bool
	Data      map[string]any // JSON payload, shape depends on Type
	CreatedAt time.Time
}

type NotificationFilter struct {
	UnreadOnly bool
	Type       NotificationType // "" means all
	Page       Page
}

type NotificationStats struct {
	TotalUnread  int
	UnreadByType map[NotificationType]int
	Latest       []Notification
}
