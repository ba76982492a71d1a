package domain

import "time"

type CommentId = int64

// Comment attaches to exactly one of an event or a service.
type Comment struct {
	Id        CommentId
	Content   string
	Rendered  string // sanitized HTML, not persisted
	CreatedAt time.Time
	AuthorId  UserId
	ParentId  *CommentId
	EventId   *EventId
	ServiceId *ServiceId

	Author  UserSummary
	Replies []*Comment
}

type CommentCreationData struct {
	Content   string
	AuthorId  UserId
	ParentId  *CommentId
	EventId   *EventId
	ServiceId *ServiceId
}

type CommentFilter struct {
	EventId   EventId   // 0 means not filtering by event
	ServiceId ServiceId // 0 means not filtering by service
	ParentId  CommentId // 0 means top-level comments
	AuthorId  UserId    // 0 means all
	Page      Page
}
