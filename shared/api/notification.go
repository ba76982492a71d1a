package api

import (
	"time"

	"github.com/kiezhub-dev/kiezhub/shared/domain"
)

type NotificationResponse struct {
	Id        int64          `json:"id"`
	Type      string         `json:"type"`
	IsRead    bool           `json:"is_read"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func NewNotificationResponse(n domain.Notification) NotificationResponse {
	return NotificationResponse{
		Id:        n.Id,
		Type:      string(n.Type),
		IsRead:    n.IsRead,
		Data:      n.Data,
		CreatedAt: n.CreatedAt,
	}
}

type NotificationStatsResponse struct {
	TotalUnread  int                    `json:"total_unread"`
	UnreadByType map[string]int         `json:"unread_by_type"`
	Latest       []NotificationResponse `json:"latest"`
}

func NewNotificationStatsResponse(s domain.NotificationStats) NotificationStatsResponse {
	out := NotificationStatsResponse{
		TotalUnread:  s.TotalUnread,
		UnreadByType: make(map[string]int, len(s.UnreadByType)),
		Latest:       make([]NotificationResponse, 0, len(s.Latest)),
	}
	for t, n := range s.UnreadByType {
		out.UnreadByType[string(t)] = n
	}
	for _, n := range s.Latest {
		out.Latest = append(out.Latest, NewNotificationResponse(n))
	}
	return out
}
