package domain

import "time"

// ModerationResult is the outcome of the content checker.
type ModerationResult struct {
	Flagged        bool
	RequiresReview bool
	Confidence     float64
	Reasons        []string
}

type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "pending"
	ModerationApproved ModerationStatus = "approved"
	ModerationRemoved  ModerationStatus = "removed"
)

// ModerationItem is a queue entry awaiting admin review.
type ModerationItem struct {
	Id          int64
	ContentType string // comment, forum_post, service
	ContentId   int64
	UserId      UserId
	Reasons     []string
	Confidence  float64
	Status      ModerationStatus
	CreatedAt   time.Time
	ResolvedAt  *time.Time
	ResolvedBy  UserId
}

// ModerationReport aggregates a re-check of one user's recent content.
type ModerationReport struct {
	UserId           UserId
	FlaggedItems     int
	TotalItems       int
	AverageRiskScore float64
	NeedsAdminReview bool
	Flagged          []FlaggedContent
}

type FlaggedContent struct {
	ContentType string
	ContentId   int64
	Preview     string
	Result      ModerationResult
}
