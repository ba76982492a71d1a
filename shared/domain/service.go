package domain

import "time"

type ServiceId = int64

// Service is a neighborhood offer (is_offering) or request.
type Service struct {
	Id          ServiceId
	Title       string
	Description string
	IsOffering  bool
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   *time.Time

	ImageURL         string
	MeetingLocations []string
	ViewCount        int
	InterestCount    int
	IsCompleted      bool
	CompletedAt      *time.Time

	PriceType              string // free, fixed, hourly, negotiable
	PriceAmount            *float64
	PriceCurrency          string
	EstimatedDurationHours *float64
	ContactMethod          string
	ResponseTimeHours      *int

	// Admin moderation fields.
	AdminNotes    string
	FlaggedAt     *time.Time
	FlaggedReason string
	ReviewedAt    *time.Time
	ReviewedBy    UserId

	UserId UserId
	User   UserSummary
}

type ServiceCreationData struct {
	Title                  string
	Description            string
	IsOffering             bool
	ImageURL               string
	MeetingLocations       []string
	PriceType              string
	PriceAmount            *float64
	PriceCurrency          string
	EstimatedDurationHours *float64
	ContactMethod          string
	ResponseTimeHours      *int
	UserId                 UserId
}

// ServiceUpdate carries optional changes; nil means "leave unchanged".
type ServiceUpdate struct {
	Title                  *string
	Description            *string
	IsOffering             *bool
	ImageURL               *string
	MeetingLocations       *[]string
	PriceType              *string
	PriceAmount            *float64
	PriceCurrency          *string
	EstimatedDurationHours *float64
	ContactMethod          *string
	ResponseTimeHours      *int
}

type ServiceFilter struct {
	IsOffering *bool
	Search     string
	ExcludeUser UserId // 0 means no exclusion
	UserId      UserId // 0 means all users
	FlaggedOnly bool
	Page        Page
}

type ServiceStats struct {
	TotalActive       int
	ServicesOffered   int
	ServicesRequested int
	MarketBalance     float64 // offered / max(1, requested)

	// Filled only for authenticated callers.
	MyServices  int
	MyOfferings int
	MyRequests  int
}
