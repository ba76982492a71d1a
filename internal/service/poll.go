package service

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/kiezhub-dev/kiezhub/shared/config"
	"github.com/kiezhub-dev/kiezhub/shared/domain"
	"github.com/kiezhub-dev/kiezhub/shared/errors"
)

type PollService interface {
	Create(data domain.PollCreationData, actor *domain.User) (domain.Poll, error)
	Poll(id domain.PollId, viewerId domain.UserId) (domain.Poll, error)
	Polls(filter domain.PollFilter, viewerId domain.UserId) ([]domain.Poll, error)
	Update(id domain.PollId, actor *domain.User, upd domain.PollUpdate) (domain.Poll, error)
	Delete(id domain.PollId, actor *domain.User) error
	Vote(pollId domain.PollId, optionId domain.OptionId, userId domain.UserId) (domain.Poll, error)
	RemoveVote(pollId domain.PollId, userId domain.UserId) (domain.Poll, error)
	Analysis(id domain.PollId) (domain.PollAnalysis, error)
}

type PollStorage interface {
	SavePoll(data domain.PollCreationData) (domain.PollId, error)
	Poll(id domain.PollId, viewerId domain.UserId) (domain.Poll, error)
	Polls(filter domain.PollFilter, viewerId domain.UserId) ([]domain.Poll, error)
	UpdatePoll(id domain.PollId, upd domain.PollUpdate) (domain.Poll, error)
	DeletePoll(id domain.PollId) error
	SaveVote(pollId domain.PollId, optionId domain.OptionId, userId domain.UserId) error
	DeleteVote(pollId domain.PollId, userId domain.UserId) error
	PollHasVotes(id domain.PollId) (bool, error)

	Thread(id domain.ThreadId) (domain.ForumThread, error)
}

type Poll struct {
	storage PollStorage
	cfg     *config.Public
	clock   clockwork.Clock
}

func NewPoll(storage PollStorage, cfg *config.Public, clock clockwork.Clock) *Poll {
	return &Poll{storage: storage, cfg: cfg, clock: clock}
}

// Create validates poll shape and fills the default closing time. Thread
// polls must point at an unlocked thread (admins may bypass the lock),
// admin polls require admin rights.
func (p *Poll) Create(data domain.PollCreationData, actor *domain.User) (domain.Poll, error) {
	if len(data.Options) < p.cfg.Polls.MinOptions || len(data.Options) > p.cfg.Polls.MaxOptions {
		msg := fmt.Sprintf("Polls need between %d and %d options", p.cfg.Polls.MinOptions, p.cfg.Polls.MaxOptions)
		return domain.Poll{}, &errors.ErrorWithStatusCode{Message: msg, StatusCode: http.StatusBadRequest}
	}

	switch data.Type {
	case domain.PollTypeAdmin:
		if !actor.Admin {
			return domain.Poll{}, &errors.ErrorWithStatusCode{Message: "Platform polls require admin rights", StatusCode: http.StatusForbidden}
		}
		data.ThreadId = nil
	case domain.PollTypeThread:
		if data.ThreadId == nil {
			return domain.Poll{}, &errors.ErrorWithStatusCode{Message: "Thread polls need a thread", StatusCode: http.StatusBadRequest}
		}
		thread, err := p.storage.Thread(*data.ThreadId)
		if err != nil {
			return domain.Poll{}, err
		}
		if thread.IsLocked && !actor.Admin {
			return domain.Poll{}, &errors.ErrorWithStatusCode{Message: "Thread is locked", StatusCode: http.StatusForbidden}
		}
	default:
		return domain.Poll{}, &errors.ErrorWithStatusCode{Message: "Unknown poll type", StatusCode: http.StatusBadRequest}
	}

	now := p.clock.Now()
	if data.EndsAt == nil {
		hours := p.cfg.Polls.ThreadDurationHours
		if data.Type == domain.PollTypeAdmin {
			hours = p.cfg.Polls.AdminDurationHours
		}
		endsAt := now.Add(time.Duration(hours) * time.Hour)
		data.EndsAt = &endsAt
	} else if !data.EndsAt.After(now) {
		return domain.Poll{}, &errors.ErrorWithStatusCode{Message: "Poll must close in the future", StatusCode: http.StatusBadRequest}
	}

	data.CreatorId = actor.Id
	id, err := p.storage.SavePoll(data)
	if err != nil {
		return domain.Poll{}, err
	}
	return p.storage.Poll(id, actor.Id)
}

func (p *Poll) Poll(id domain.PollId, viewerId domain.UserId) (domain.Poll, error) {
	return p.storage.Poll(id, viewerId)
}

func (p *Poll) Polls(filter domain.PollFilter, viewerId domain.UserId) ([]domain.Poll, error) {
	return p.storage.Polls(filter, viewerId)
}

func (p *Poll) Update(id domain.PollId, actor *domain.User, upd domain.PollUpdate) (domain.Poll, error) {
	poll, err := p.storage.Poll(id, actor.Id)
	if err != nil {
		return domain.Poll{}, err
	}
	if poll.CreatorId != actor.Id && !actor.Admin {
		return domain.Poll{}, &errors.ErrorWithStatusCode{Message: "Only the creator can edit this poll", StatusCode: http.StatusForbidden}
	}
	if upd.EndsAt != nil && !upd.EndsAt.After(p.clock.Now()) {
		return domain.Poll{}, &errors.ErrorWithStatusCode{Message: "Poll must close in the future", StatusCode: http.StatusBadRequest}
	}
	return p.storage.UpdatePoll(id, upd)
}

// Delete is blocked once anyone has voted; close the poll instead.
func (p *Poll) Delete(id domain.PollId, actor *domain.User) error {
	poll, err := p.storage.Poll(id, actor.Id)
	if err != nil {
		return err
	}
	if poll.CreatorId != actor.Id && !actor.Admin {
		return &errors.ErrorWithStatusCode{Message: "Only the creator can delete this poll", StatusCode: http.StatusForbidden}
	}
	hasVotes, err := p.storage.PollHasVotes(id)
	if err != nil {
		return err
	}
	if hasVotes && !actor.Admin {
		return &errors.ErrorWithStatusCode{Message: "Poll already has votes", StatusCode: http.StatusConflict}
	}
	return p.storage.DeletePoll(id)
}

// Vote records or moves the caller's vote and returns the fresh results.
func (p *Poll) Vote(pollId domain.PollId, optionId domain.OptionId, userId domain.UserId) (domain.Poll, error) {
	poll, err := p.storage.Poll(pollId, userId)
	if err != nil {
		return domain.Poll{}, err
	}
	if p.concluded(poll) {
		return domain.Poll{}, &errors.ErrorWithStatusCode{Message: "Poll is closed", StatusCode: http.StatusBadRequest}
	}
	if err := p.storage.SaveVote(pollId, optionId, userId); err != nil {
		return domain.Poll{}, err
	}
	return p.storage.Poll(pollId, userId)
}

// RemoveVote withdraws the caller's vote. Closed polls keep their votes.
func (p *Poll) RemoveVote(pollId domain.PollId, userId domain.UserId) (domain.Poll, error) {
	poll, err := p.storage.Poll(pollId, userId)
	if err != nil {
		return domain.Poll{}, err
	}
	if p.concluded(poll) {
		return domain.Poll{}, &errors.ErrorWithStatusCode{Message: "Poll is closed", StatusCode: http.StatusBadRequest}
	}
	if err := p.storage.DeleteVote(pollId, userId); err != nil {
		return domain.Poll{}, err
	}
	return p.storage.Poll(pollId, userId)
}

func (p *Poll) concluded(poll domain.Poll) bool {
	if !poll.IsActive {
		return true
	}
	return poll.EndsAt != nil && !poll.EndsAt.After(p.clock.Now())
}

// Analysis summarizes the result: winners, tie or clear winner, and a rough
// participation bucket.
func (p *Poll) Analysis(id domain.PollId) (domain.PollAnalysis, error) {
	poll, err := p.storage.Poll(id, 0)
	if err != nil {
		return domain.PollAnalysis{}, err
	}

	analysis := domain.PollAnalysis{
		PollId:      poll.Id,
		Question:    poll.Question,
		TotalVotes:  poll.TotalVotes,
		Options:     poll.Options,
		IsConcluded: p.concluded(poll),
	}

	if poll.TotalVotes == 0 {
		analysis.ResultType = "no_votes"
		analysis.ParticipationRate = "no_participation"
		return analysis, nil
	}

	max := 0
	for _, opt := range poll.Options {
		if opt.VoteCount > max {
			max = opt.VoteCount
		}
	}
	for _, opt := range poll.Options {
		if opt.VoteCount == max {
			analysis.Winners = append(analysis.Winners, opt)
		}
	}
	if len(analysis.Winners) > 1 {
		analysis.ResultType = "tie"
	} else {
		analysis.ResultType = "clear_winner"
	}

	switch {
	case poll.TotalVotes < 5:
		analysis.ParticipationRate = "low"
	case poll.TotalVotes < 15:
		analysis.ParticipationRate = "moderate"
	default:
		analysis.ParticipationRate = "high"
	}
	return analysis, nil
}
