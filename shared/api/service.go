package api

import (
	"time"

	"github.com/kiezhub-dev/kiezhub/shared/domain"
)

// Request DTOs

type CreateServiceRequest struct {
	Title                  string   `json:"title" validate:"required,max=200"`
	Description            string   `json:"description" validate:"required"`
	IsOffering             *bool    `json:"is_offering" validate:"required"`
	ImageURL               string   `json:"image_url,omitempty" validate:"omitempty,url"`
	MeetingLocations       []string `json:"meeting_locations,omitempty"`
	PriceType              string   `json:"price_type,omitempty" validate:"omitempty,oneof=free fixed hourly negotiable"`
	PriceAmount            *float64 `json:"price_amount,omitempty" validate:"omitempty,gte=0"`
	PriceCurrency          string   `json:"price_currency,omitempty" validate:"omitempty,len=3"`
	EstimatedDurationHours *float64 `json:"estimated_duration_hours,omitempty" validate:"omitempty,gt=0"`
	ContactMethod          string   `json:"contact_method,omitempty" validate:"omitempty,oneof=message email phone"`
	ResponseTimeHours      *int     `json:"response_time_hours,omitempty" validate:"omitempty,gt=0"`
}

type UpdateServiceRequest struct {
	Title                  *string   `json:"title,omitempty" validate:"omitempty,max=200"`
	Description            *string   `json:"description,omitempty"`
	IsOffering             *bool     `json:"is_offering,omitempty"`
	ImageURL               *string   `json:"image_url,omitempty" validate:"omitempty,url"`
	MeetingLocations       *[]string `json:"meeting_locations,omitempty"`
	PriceType              *string   `json:"price_type,omitempty" validate:"omitempty,oneof=free fixed hourly negotiable"`
	PriceAmount            *float64  `json:"price_amount,omitempty" validate:"omitempty,gte=0"`
	PriceCurrency          *string   `json:"price_currency,omitempty" validate:"omitempty,len=3"`
	EstimatedDurationHours *float64  `json:"estimated_duration_hours,omitempty" validate:"omitempty,gt=0"`
	ContactMethod          *string   `json:"contact_method,omitempty" validate:"omitempty,oneof=message email phone"`
	ResponseTimeHours      *int      `json:"response_time_hours,omitempty" validate:"omitempty,gt=0"`
}

type FlagServiceRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// Response DTOs

type ServiceSummary struct {
	Id            int64       `json:"id"`
	Title         string      `json:"title"`
	IsOffering    bool        `json:"is_offering"`
	PriceType     string      `json:"price_type,omitempty"`
	PriceAmount   *float64    `json:"price_amount,omitempty"`
	PriceCurrency string      `json:"price_currency,omitempty"`
	IsCompleted   bool        `json:"is_completed"`
	CreatedAt     time.Time   `json:"created_at"`
	User          UserSummary `json:"user"`
}

func NewServiceSummary(s domain.Service) ServiceSummary {
	return ServiceSummary{
		Id:            s.Id,
		Title:         s.Title,
		IsOffering:    s.IsOffering,
		PriceType:     s.PriceType,
		PriceAmount:   s.PriceAmount,
		PriceCurrency: s.PriceCurrency,
		IsCompleted:   s.IsCompleted,
		CreatedAt:     s.CreatedAt,
		User:          NewUserSummary(s.User),
	}
}

type ServiceResponse struct {
	Id                     int64       `json:"id"`
	Title                  string      `json:"title"`
	Description            string      `json:"description"`
	IsOffering             bool        `json:"is_offering"`
	IsActive               bool        `json:"is_active"`
	ImageURL               string      `json:"image_url,omitempty"`
	MeetingLocations       []string    `json:"meeting_locations,omitempty"`
	ViewCount              int         `json:"view_count"`
	InterestCount          int         `json:"interest_count"`
	IsCompleted            bool        `json:"is_completed"`
	CompletedAt            *time.Time  `json:"completed_at,omitempty"`
	PriceType              string      `json:"price_type,omitempty"`
	PriceAmount            *float64    `json:"price_amount,omitempty"`
	PriceCurrency          string      `json:"price_currency,omitempty"`
	EstimatedDurationHours *float64    `json:"estimated_duration_hours,omitempty"`
	ContactMethod          string      `json:"contact_method,omitempty"`
	ResponseTimeHours      *int        `json:"response_time_hours,omitempty"`
	CreatedAt              time.Time   `json:"created_at"`
	UpdatedAt              *time.Time  `json:"updated_at,omitempty"`
	User                   UserSummary `json:"user"`
}

func NewServiceResponse(s domain.Service) ServiceResponse {
	return ServiceResponse{
		Id:                     s.Id,
		Title:                  s.Title,
		Description:            s.Description,
		IsOffering:             s.IsOffering,
		IsActive:               s.IsActive,
		ImageURL:               s.ImageURL,
		MeetingLocations:       s.MeetingLocations,
		ViewCount:              s.ViewCount,
		InterestCount:          s.InterestCount,
		IsCompleted:            s.IsCompleted,
		CompletedAt:            s.CompletedAt,
		PriceType:              s.PriceType,
		PriceAmount:            s.PriceAmount,
		PriceCurrency:          s.PriceCurrency,
		EstimatedDurationHours: s.EstimatedDurationHours,
		ContactMethod:          s.ContactMethod,
		ResponseTimeHours:      s.ResponseTimeHours,
		CreatedAt:              s.CreatedAt,
		UpdatedAt:              s.UpdatedAt,
		User:                   NewUserSummary(s.User),
	}
}

// AdminServiceResponse includes moderation fields, admin endpoints only.
type AdminServiceResponse struct {
	ServiceResponse
	AdminNotes    string     `json:"admin_notes,omitempty"`
	FlaggedAt     *time.Time `json:"flagged_at,omitempty"`
	FlaggedReason string     `json:"flagged_reason,omitempty"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	ReviewedBy    int64      `json:"reviewed_by,omitempty"`
}

func NewAdminServiceResponse(s domain.Service) AdminServiceResponse {
	return AdminServiceResponse{
		ServiceResponse: NewServiceResponse(s),
		AdminNotes:      s.AdminNotes,
		FlaggedAt:       s.FlaggedAt,
		FlaggedReason:   s.FlaggedReason,
		ReviewedAt:      s.ReviewedAt,
		ReviewedBy:      s.ReviewedBy,
	}
}

type ServiceStatsResponse struct {
	TotalActiveServices int     `json:"total_active_services"`
	ServicesOffered     int     `json:"services_offered"`
	ServicesRequested   int     `json:"services_requested"`
	MarketBalance       float64 `json:"market_balance"`

	MyServices  *int `json:"my_services,omitempty"`
	MyOfferings *int `json:"my_offerings,omitempty"`
	MyRequests  *int `json:"my_requests,omitempty"`
}
