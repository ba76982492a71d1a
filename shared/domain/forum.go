package domain

import "time"

type ForumCategoryId = int64
type ThreadId = int64
type PostId = int64

type ForumCategory struct {
	Id           ForumCategoryId
	Name         string
	Description  string
	Color        string // "#rrggbb"
	Icon         string
	IsActive     bool
	DisplayOrder int
	CreatedAt    time.Time

	ThreadCount int
}

type ForumThread struct {
	Id         ThreadId
	Title      string
	IsPinned   bool
	IsLocked   bool
	CreatedAt  time.Time
	CreatorId  UserId
	CategoryId ForumCategoryId

	Creator UserSummary

	PostCount    int
	LastActivity time.Time
}

type ThreadCreationData struct {
	Title      string
	CategoryId ForumCategoryId
	CreatorId  UserId
}

// ThreadUpdate carries optional changes; pin/lock are admin-only.
type ThreadUpdate struct {
	Title    *string
	IsPinned *bool
	IsLocked *bool
}

type ForumPost struct {
	Id        PostId
	Content   string // raw markdown
	Rendered  string // sanitized HTML, not persisted
	CreatedAt time.Time
	UpdatedAt *time.Time
	AuthorId  UserId
	ThreadId  ThreadId

	Author UserSummary
}

type PostCreationData struct {
	Content  string
	ThreadId ThreadId
	AuthorId UserId
}

type ThreadFilter struct {
	CategoryId  ForumCategoryId // 0 means all
	CreatorId   UserId          // 0 means all
	PinnedFirst bool
	Page        Page
}
