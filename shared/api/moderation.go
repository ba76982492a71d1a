package api

import (
	"time"

	"github.com/kiezhub-dev/kiezhub/shared/domain"
)

type ResolveModerationRequest struct {
	Action string `json:"action" validate:"required,oneof=approve remove"`
	Notes  string `json:"notes,omitempty" validate:"max=1000"`
}

type ModerationItemResponse struct {
	Id          int64      `json:"id"`
	ContentType string     `json:"content_type"`
	ContentId   int64      `json:"content_id"`
	UserId      int64      `json:"user_id"`
	Reasons     []string   `json:"reasons"`
	Confidence  float64    `json:"confidence"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy  int64      `json:"resolved_by,omitempty"`
}

func NewModerationItemResponse(m domain.ModerationItem) ModerationItemResponse {
	return ModerationItemResponse{
		Id:          m.Id,
		ContentType: m.ContentType,
		ContentId:   m.ContentId,
		UserId:      m.UserId,
		Reasons:     m.Reasons,
		Confidence:  m.Confidence,
		Status:      string(m.Status),
		CreatedAt:   m.CreatedAt,
		ResolvedAt:  m.ResolvedAt,
		ResolvedBy:  m.ResolvedBy,
	}
}

type FlaggedContentResponse struct {
	ContentType    string   `json:"content_type"`
	ContentId      int64    `json:"content_id"`
	Preview        string   `json:"preview"`
	Flagged        bool     `json:"flagged"`
	RequiresReview bool     `json:"requires_review"`
	Confidence     float64  `json:"confidence"`
	Reasons        []string `json:"reasons"`
}

type ModerationReportResponse struct {
	UserId           int64                    `json:"user_id"`
	FlaggedItems     int                      `json:"flagged_items"`
	TotalItems       int                      `json:"total_items"`
	AverageRiskScore float64                  `json:"average_risk_score"`
	NeedsAdminReview bool                     `json:"needs_admin_review"`
	Flagged          []FlaggedContentResponse `json:"flagged"`
}

func NewModerationReportResponse(r domain.ModerationReport) ModerationReportResponse {
	out := ModerationReportResponse{
		UserId:           r.UserId,
		FlaggedItems:     r.FlaggedItems,
		TotalItems:       r.TotalItems,
		AverageRiskScore: r.AverageRiskScore,
		NeedsAdminReview: r.NeedsAdminReview,
		Flagged:          make([]FlaggedContentResponse, 0, len(r.Flagged)),
	}
	for _, f := range r.Flagged {
		out.Flagged = append(out.Flagged, FlaggedContentResponse{
			ContentType:    f.ContentType,
			ContentId:      f.ContentId,
			Preview:        f.Preview,
			Flagged:        f.Result.Flagged,
			RequiresReview: f.Result.RequiresReview,
			Confidence:     f.Result.Confidence,
			Reasons:        f.Result.Reasons,
		})
	}
	return out
}
