package api

import (
	"time"

	"github.com/kiezhub-dev/kiezhub/shared/domain"
)

// Request DTOs

type CreatePollRequest struct {
	Question string     `json:"question" validate:"required,max=500"`
	Type     string     `json:"type" validate:"required,oneof=thread admin"`
	ThreadId *int64     `json:"thread_id,omitempty"`
	EndsAt   *time.Time `json:"ends_at,omitempty"`
	Options  []string   `json:"options" validate:"required,min=2,max=10,dive,required,max=200"`
}

type UpdatePollRequest struct {
	Question *string    `json:"question,omitempty" validate:"omitempty,max=500"`
	EndsAt   *time.Time `json:"ends_at,omitempty"`
	IsActive *bool      `json:"is_active,omitempty"`
}

type VoteRequest struct {
	OptionId int64 `json:"option_id" validate:"required"`
}

// Response DTOs

type PollOptionResponse struct {
	Id         int64  `json:"id"`
	Text       string `json:"text"`
	OrderIndex int    `json:"order_index"`
	VoteCount  int    `json:"vote_count"`
}

func NewPollOptionResponse(o domain.PollOption) PollOptionResponse {
	return PollOptionResponse{Id: o.Id, Text: o.Text, OrderIndex: o.OrderIndex, VoteCount: o.VoteCount}
}

type PollResponse struct {
	Id         int64                `json:"id"`
	Question   string               `json:"question"`
	Type       string               `json:"type"`
	IsActive   bool                 `json:"is_active"`
	EndsAt     *time.Time           `json:"ends_at,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
	ThreadId   *int64               `json:"thread_id,omitempty"`
	Creator    UserSummary          `json:"creator"`
	Options    []PollOptionResponse `json:"options"`
	TotalVotes int                  `json:"total_votes"`
	UserVote   *int64               `json:"user_vote,omitempty"`
}

func NewPollResponse(p domain.Poll) PollResponse {
	out := PollResponse{
		Id:         p.Id,
		Question:   p.Question,
		Type:       string(p.Type),
		IsActive:   p.IsActive,
		EndsAt:     p.EndsAt,
		CreatedAt:  p.CreatedAt,
		ThreadId:   p.ThreadId,
		Creator:    NewUserSummary(p.Creator),
		Options:    make([]PollOptionResponse, 0, len(p.Options)),
		TotalVotes: p.TotalVotes,
	}
	for _, o := range p.Options {
		out.Options = append(out.Options, NewPollOptionResponse(o))
	}
	if p.UserVote != 0 {
		v := p.UserVote
		out.UserVote = &v
	}
	return out
}

type PollAnalysisResponse struct {
	PollId            int64                `json:"poll_id"`
	Question          string               `json:"question"`
	TotalVotes        int                  `json:"total_votes"`
	Options           []PollOptionResponse `json:"options"`
	Winners           []PollOptionResponse `json:"winners"`
	ResultType        string               `json:"result_type"`
	IsConcluded       bool                 `json:"is_concluded"`
	ParticipationRate string               `json:"participation_rate"`
}

func NewPollAnalysisResponse(a domain.PollAnalysis) PollAnalysisResponse {
	out := PollAnalysisResponse{
		PollId:            a.PollId,
		Question:          a.Question,
		TotalVotes:        a.TotalVotes,
		Options:           make([]PollOptionResponse, 0, len(a.Options)),
		Winners:           make([]PollOptionResponse, 0, len(a.Winners)),
		ResultType:        a.ResultType,
		IsConcluded:       a.IsConcluded,
		ParticipationRate: a.ParticipationRate,
	}
	for _, o := range a.Options {
		out.Options = append(out.Options, NewPollOptionResponse(o))
	}
	for _, o := range a.Winners {
		out.Winners = append(out.Winners, NewPollOptionResponse(o))
	}
	return out
}
