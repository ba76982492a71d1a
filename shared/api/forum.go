package api

import (
	"time"

	"github.com/kiezhub-dev/kiezhub/shared/domain"
)

// Request DTOs

type CreateForumCategoryRequest struct {
	Name         string `json:"name" validate:"required,max=100"`
	Description  string `json:"description,omitempty"`
	Color        string `json:"color,omitempty" validate:"omitempty,hexcolor"`
	Icon         string `json:"icon,omitempty" validate:"omitempty,max=50"`
	DisplayOrder int    `json:"display_order,omitempty" validate:"gte=0"`
}

type UpdateForumCategoryRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Description  *string `json:"description,omitempty"`
	Color        *string `json:"color,omitempty" validate:"omitempty,hexcolor"`
	Icon         *string `json:"icon,omitempty" validate:"omitempty,max=50"`
	DisplayOrder *int    `json:"display_order,omitempty" validate:"omitempty,gte=0"`
	IsActive     *bool   `json:"is_active,omitempty"`
}

type CreateThreadRequest struct {
	Title      string `json:"title" validate:"required,max=200"`
	CategoryId int64  `json:"category_id" validate:"required"`
	// Optional first post created together with the thread.
	Content string `json:"content,omitempty"`
}

type UpdateThreadRequest struct {
	Title    *string `json:"title,omitempty" validate:"omitempty,max=200"`
	IsPinned *bool   `json:"is_pinned,omitempty"`
	IsLocked *bool   `json:"is_locked,omitempty"`
}

type CreatePostRequest struct {
	Content string `json:"content" validate:"required,max=10000"`
}

type UpdatePostRequest struct {
	Content string `json:"content" validate:"required,max=10000"`
}

// Response DTOs

type ForumCategoryResponse struct {
	Id           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Color        string    `json:"color,omitempty"`
	Icon         string    `json:"icon,omitempty"`
	IsActive     bool      `json:"is_active"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
	ThreadCount  int       `json:"thread_count"`
}

func NewForumCategoryResponse(c domain.ForumCategory) ForumCategoryResponse {
	return ForumCategoryResponse{
		Id:           c.Id,
		Name:         c.Name,
		Description:  c.Description,
		Color:        c.Color,
		Icon:         c.Icon,
		IsActive:     c.IsActive,
		DisplayOrder: c.DisplayOrder,
		CreatedAt:    c.CreatedAt,
		ThreadCount:  c.ThreadCount,
	}
}

type ThreadResponse struct {
	Id           int64       `json:"id"`
	Title        string      `json:"title"`
	IsPinned     bool        `json:"is_pinned"`
	IsLocked     bool        `json:"is_locked"`
	CreatedAt    time.Time   `json:"created_at"`
	CategoryId   int64       `json:"category_id"`
	Creator      UserSummary `json:"creator"`
	PostCount    int         `json:"post_count"`
	LastActivity time.Time   `json:"last_activity"`
}

func NewThreadResponse(t domain.ForumThread) ThreadResponse {
	return ThreadResponse{
		Id:           t.Id,
		Title:        t.Title,
		IsPinned:     t.IsPinned,
		IsLocked:     t.IsLocked,
		CreatedAt:    t.CreatedAt,
		CategoryId:   t.CategoryId,
		Creator:      NewUserSummary(t.Creator),
		PostCount:    t.PostCount,
		LastActivity: t.LastActivity,
	}
}

type PostResponse struct {
	Id        int64       `json:"id"`
	Content   string      `json:"content"`
	Rendered  string      `json:"rendered_html"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt *time.Time  `json:"updated_at,omitempty"`
	ThreadId  int64       `json:"thread_id"`
	Author    UserSummary `json:"author"`
}

func NewPostResponse(p domain.ForumPost) PostResponse {
	return PostResponse{
		Id:        p.Id,
		Content:   p.Content,
		Rendered:  p.Rendered,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
		ThreadId:  p.ThreadId,
		Author:    NewUserSummary(p.Author),
	}
}
