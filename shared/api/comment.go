package api

import (
	"time"

	"github.com/kiezhub-dev/kiezhub/shared/domain"
)

// CreateCommentRequest targets exactly one of event_id or service_id.
type CreateCommentRequest struct {
	Content   string `json:"content" validate:"required,max=5000"`
	ParentId  *int64 `json:"parent_id,omitempty"`
	EventId   *int64 `json:"event_id,omitempty"`
	ServiceId *int64 `json:"service_id,omitempty"`
}

type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required,max=5000"`
}

type CommentResponse struct {
	Id        int64             `json:"id"`
	Content   string            `json:"content"`
	Rendered  string            `json:"rendered_html"`
	CreatedAt time.Time         `json:"created_at"`
	ParentId  *int64            `json:"parent_id,omitempty"`
	EventId   *int64            `json:"event_id,omitempty"`
	ServiceId *int64            `json:"service_id,omitempty"`
	Author    UserSummary       `json:"author"`
	Replies   []CommentResponse `json:"replies,omitempty"`
}

func NewCommentResponse(c domain.Comment) CommentResponse {
	out := CommentResponse{
		Id:        c.Id,
		Content:   c.Content,
		Rendered:  c.Rendered,
		CreatedAt: c.CreatedAt,
		ParentId:  c.ParentId,
		EventId:   c.EventId,
		ServiceId: c.ServiceId,
		Author:    NewUserSummary(c.Author),
	}
	for _, r := range c.Replies {
		out.Replies = append(out.Replies, NewCommentResponse(*r))
	}
	return out
}
