package service

import (
	"net/http"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/kiezhub-dev/kiezhub/shared/config"
	"github.com/kiezhub-dev/kiezhub/shared/domain"
	internal_errors "github.com/kiezhub-dev/kiezhub/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockPollStorage struct {
	SavePollFunc     func(data domain.PollCreationData) (domain.PollId, error)
	PollFunc         func(id domain.PollId, viewerId domain.UserId) (domain.Poll, error)
	PollsFunc        func(filter domain.PollFilter, viewerId domain.UserId) ([]domain.Poll, error)
	UpdatePollFunc   func(id domain.PollId, upd domain.PollUpdate) (domain.Poll, error)
	DeletePollFunc   func(id domain.PollId) error
	SaveVoteFunc     func(pollId domain.PollId, optionId domain.OptionId, userId domain.UserId) error
	DeleteVoteFunc   func(pollId domain.PollId, userId domain.UserId) error
	PollHasVotesFunc func(id domain.PollId) (bool, error)
	ThreadFunc       func(id domain.ThreadId) (domain.ForumThread, error)
}

func (m *MockPollStorage) SavePoll(data domain.PollCreationData) (domain.PollId, error) {
	if m.SavePollFunc != nil {
		return m.SavePollFunc(data)
	}
	return 1, nil
}

func (m *MockPollStorage) Poll(id domain.PollId, viewerId domain.UserId) (domain.Poll, error) {
	if m.PollFunc != nil {
		return m.PollFunc(id, viewerId)
	}
	return domain.Poll{Id: id, IsActive: true}, nil
}

func (m *MockPollStorage) Polls(filter domain.PollFilter, viewerId domain.UserId) ([]domain.Poll, error) {
	if m.PollsFunc != nil {
		return m.PollsFunc(filter, viewerId)
	}
	return nil, nil
}

func (m *MockPollStorage) UpdatePoll(id domain.PollId, upd domain.PollUpdate) (domain.Poll, error) {
	if m.UpdatePollFunc != nil {
		return m.UpdatePollFunc(id, upd)
	}
	return domain.Poll{Id: id}, nil
}

func (m *MockPollStorage) DeletePoll(id domain.PollId) error {
	if m.DeletePollFunc != nil {
		return m.DeletePollFunc(id)
	}
	return nil
}

func (m *MockPollStorage) SaveVote(pollId domain.PollId, optionId domain.OptionId, userId domain.UserId) error {
	if m.SaveVoteFunc != nil {
		return m.SaveVoteFunc(pollId, optionId, userId)
	}
	return nil
}

func (m *MockPollStorage) DeleteVote(pollId domain.PollId, userId domain.UserId) error {
	if m.DeleteVoteFunc != nil {
		return m.DeleteVoteFunc(pollId, userId)
	}
	return nil
}

func (m *MockPollStorage) PollHasVotes(id domain.PollId) (bool, error) {
	if m.PollHasVotesFunc != nil {
		return m.PollHasVotesFunc(id)
	}
	return false, nil
}

func (m *MockPollStorage) Thread(id domain.ThreadId) (domain.ForumThread, error) {
	if m.ThreadFunc != nil {
		return m.ThreadFunc(id)
	}
	return domain.ForumThread{Id: id}, nil
}

func pollConfig() *config.Public {
	return &config.Public{
		Polls: config.Polls{
			MinOptions:          2,
			MaxOptions:          10,
			ThreadDurationHours: 72,
			AdminDurationHours:  168,
		},
	}
}

func TestCreatePoll(t *testing.T) {
	clock := clockwork.NewFakeClock()
	threadId := domain.ThreadId(3)

	t.Run("Too few options", func(t *testing.T) {
		service := NewPoll(&MockPollStorage{}, pollConfig(), clock)

		_, err := service.Create(domain.PollCreationData{
			Type:     domain.PollTypeThread,
			ThreadId: &threadId,
			Options:  []string{"only one"},
		}, &domain.User{Id: 1})
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, err.(*internal_errors.ErrorWithStatusCode).StatusCode)
	})

	t.Run("Admin poll requires admin", func(t *testing.T) {
		service := NewPoll(&MockPollStorage{}, pollConfig(), clock)

		_, err := service.Create(domain.PollCreationData{
			Type:    domain.PollTypeAdmin,
			Options: []string{"yes", "no"},
		}, &domain.User{Id: 1})
		require.Error(t, err)
		assert.Equal(t, http.StatusForbidden, err.(*internal_errors.ErrorWithStatusCode).StatusCode)
	})

	t.Run("Admin poll drops thread reference", func(t *testing.T) {
		var saved domain.PollCreationData
		storage := &MockPollStorage{
			SavePollFunc: func(data domain.PollCreationData) (domain.PollId, error) {
				saved = data
				return 1, nil
			},
		}
		service := NewPoll(storage, pollConfig(), clock)

		_, err := service.Create(domain.PollCreationData{
			Type:     domain.PollTypeAdmin,
			ThreadId: &threadId,
			Options:  []string{"yes", "no"},
		}, &domain.User{Id: 1, Admin: true})
		require.NoError(t, err)
		assert.Nil(t, saved.ThreadId)
	})

	t.Run("Thread poll needs a thread", func(t *testing.T) {
		service := NewPoll(&MockPollStorage{}, pollConfig(), clock)

		_, err := service.Create(domain.PollCreationData{
			Type:    domain.PollTypeThread,
			Options: []string{"yes", "no"},
		}, &domain.User{Id: 1})
		require.Error(t, err)
	})

	t.Run("Locked thread rejected", func(t *testing.T) {
		storage := &MockPollStorage{
			ThreadFunc: func(id domain.ThreadId) (domain.ForumThread, error) {
				return domain.ForumThread{Id: id, IsLocked: true}, nil
			},
		}
		service := NewPoll(storage, pollConfig(), clock)

		_, err := service.Create(domain.PollCreationData{
			Type:     domain.PollTypeThread,
			ThreadId: &threadId,
			Options:  []string{"yes", "no"},
		}, &domain.User{Id: 1})
		require.Error(t, err)
		assert.Equal(t, http.StatusForbidden, err.(*internal_errors.ErrorWithStatusCode).StatusCode)
	})

	t.Run("Admin attaches poll to locked thread", func(t *testing.T) {
		saved := false
		storage := &MockPollStorage{
			ThreadFunc: func(id domain.ThreadId) (domain.ForumThread, error) {
				return domain.ForumThread{Id: id, IsLocked: true}, nil
			},
			SavePollFunc: func(data domain.PollCreationData) (domain.PollId, error) {
				saved = true
				return 1, nil
			},
		}
		service := NewPoll(storage, pollConfig(), clock)

		_, err := service.Create(domain.PollCreationData{
			Type:     domain.PollTypeThread,
			ThreadId: &threadId,
			Options:  []string{"yes", "no"},
		}, &domain.User{Id: 1, Admin: true})
		require.NoError(t, err)
		assert.True(t, saved)
	})

	t.Run("Default closing time", func(t *testing.T) {
		var saved domain.PollCreationData
		storage := &MockPollStorage{
			SavePollFunc: func(data domain.PollCreationData) (domain.PollId, error) {
				saved = data
				return 1, nil
			},
		}
		service := NewPoll(storage, pollConfig(), clock)

		_, err := service.Create(domain.PollCreationData{
			Type:     domain.PollTypeThread,
			ThreadId: &threadId,
			Options:  []string{"yes", "no"},
		}, &domain.User{Id: 1})
		require.NoError(t, err)
		require.NotNil(t, saved.EndsAt)
		assert.Equal(t, clock.Now().Add(72*time.Hour), *saved.EndsAt)
	})

	t.Run("Closing time in the past rejected", func(t *testing.T) {
		service := NewPoll(&MockPollStorage{}, pollConfig(), clock)

		past := clock.Now().Add(-time.Hour)
		_, err := service.Create(domain.PollCreationData{
			Type:     domain.PollTypeThread,
			ThreadId: &threadId,
			EndsAt:   &past,
			Options:  []string{"yes", "no"},
		}, &domain.User{Id: 1})
		require.Error(t, err)
	})
}

func TestDeletePoll(t *testing.T) {
	clock := clockwork.NewFakeClock()

	pollOwnedBy := func(creator domain.UserId) func(domain.PollId, domain.UserId) (domain.Poll, error) {
		return func(id domain.PollId, viewerId domain.UserId) (domain.Poll, error) {
			return domain.Poll{Id: id, CreatorId: creator, IsActive: true}, nil
		}
	}

	t.Run("Blocked once votes exist", func(t *testing.T) {
		storage := &MockPollStorage{
			PollFunc:         pollOwnedBy(1),
			PollHasVotesFunc: func(id domain.PollId) (bool, error) { return true, nil },
		}
		service := NewPoll(storage, pollConfig(), clock)

		err := service.Delete(1, &domain.User{Id: 1})
		require.Error(t, err)
		assert.Equal(t, http.StatusConflict, err.(*internal_errors.ErrorWithStatusCode).StatusCode)
	})

	t.Run("Admin can delete voted poll", func(t *testing.T) {
		deleted := false
		storage := &MockPollStorage{
			PollFunc:         pollOwnedBy(1),
			PollHasVotesFunc: func(id domain.PollId) (bool, error) { return true, nil },
			DeletePollFunc: func(id domain.PollId) error {
				deleted = true
				return nil
			},
		}
		service := NewPoll(storage, pollConfig(), clock)

		require.NoError(t, service.Delete(1, &domain.User{Id: 2, Admin: true}))
		assert.True(t, deleted)
	})

	t.Run("Non-creator rejected", func(t *testing.T) {
		storage := &MockPollStorage{PollFunc: pollOwnedBy(1)}
		service := NewPoll(storage, pollConfig(), clock)

		err := service.Delete(1, &domain.User{Id: 2})
		require.Error(t, err)
		assert.Equal(t, http.StatusForbidden, err.(*internal_errors.ErrorWithStatusCode).StatusCode)
	})
}

func TestVote(t *testing.T) {
	clock := clockwork.NewFakeClock()

	t.Run("Closed poll rejected", func(t *testing.T) {
		ended := clock.Now().Add(-time.Hour)
		storage := &MockPollStorage{
			PollFunc: func(id domain.PollId, viewerId domain.UserId) (domain.Poll, error) {
				return domain.Poll{Id: id, IsActive: true, EndsAt: &ended}, nil
			},
		}
		service := NewPoll(storage, pollConfig(), clock)

		_, err := service.Vote(1, 2, 3)
		require.Error(t, err)
		assert.Equal(t, "Poll is closed", err.Error())
	})

	t.Run("Inactive poll rejected", func(t *testing.T) {
		storage := &MockPollStorage{
			PollFunc: func(id domain.PollId, viewerId domain.UserId) (domain.Poll, error) {
				return domain.Poll{Id: id, IsActive: false}, nil
			},
		}
		service := NewPoll(storage, pollConfig(), clock)

		_, err := service.Vote(1, 2, 3)
		require.Error(t, err)
	})

	t.Run("Vote saved and results refreshed", func(t *testing.T) {
		ends := clock.Now().Add(time.Hour)
		calls := 0
		storage := &MockPollStorage{
			PollFunc: func(id domain.PollId, viewerId domain.UserId) (domain.Poll, error) {
				calls++
				poll := domain.Poll{Id: id, IsActive: true, EndsAt: &ends}
				if calls > 1 {
					poll.TotalVotes = 1
					poll.UserVote = 2
				}
				return poll, nil
			},
			SaveVoteFunc: func(pollId domain.PollId, optionId domain.OptionId, userId domain.UserId) error {
				assert.Equal(t, domain.OptionId(2), optionId)
				return nil
			},
		}
		service := NewPoll(storage, pollConfig(), clock)

		poll, err := service.Vote(1, 2, 3)
		require.NoError(t, err)
		assert.Equal(t, 1, poll.TotalVotes)
		assert.Equal(t, domain.OptionId(2), poll.UserVote)
	})
}

func TestRemoveVote(t *testing.T) {
	clock := clockwork.NewFakeClock()

	t.Run("Vote withdrawn while open", func(t *testing.T) {
		ends := clock.Now().Add(time.Hour)
		removed := false
		storage := &MockPollStorage{
			PollFunc: func(id domain.PollId, viewerId domain.UserId) (domain.Poll, error) {
				poll := domain.Poll{Id: id, IsActive: true, EndsAt: &ends, TotalVotes: 1, UserVote: 2}
				if removed {
					poll.TotalVotes = 0
					poll.UserVote = 0
				}
				return poll, nil
			},
			DeleteVoteFunc: func(pollId domain.PollId, userId domain.UserId) error {
				removed = true
				return nil
			},
		}
		service := NewPoll(storage, pollConfig(), clock)

		poll, err := service.RemoveVote(1, 3)
		require.NoError(t, err)
		assert.True(t, removed)
		assert.Zero(t, poll.TotalVotes)
	})

	t.Run("Closed poll keeps its votes", func(t *testing.T) {
		ended := clock.Now().Add(-time.Hour)
		storage := &MockPollStorage{
			PollFunc: func(id domain.PollId, viewerId domain.UserId) (domain.Poll, error) {
				return domain.Poll{Id: id, IsActive: true, EndsAt: &ended}, nil
			},
			DeleteVoteFunc: func(pollId domain.PollId, userId domain.UserId) error {
				t.Fatal("vote on a closed poll must not be deleted")
				return nil
			},
		}
		service := NewPoll(storage, pollConfig(), clock)

		_, err := service.RemoveVote(1, 3)
		require.Error(t, err)
		assert.Equal(t, "Poll is closed", err.Error())
	})
}

func TestPollAnalysis(t *testing.T) {
	clock := clockwork.NewFakeClock()

	pollWith := func(counts ...int) func(domain.PollId, domain.UserId) (domain.Poll, error) {
		return func(id domain.PollId, viewerId domain.UserId) (domain.Poll, error) {
			poll := domain.Poll{Id: id, Question: "Best kiez?", IsActive: true}
			for i, c := range counts {
				poll.Options = append(poll.Options, domain.PollOption{Id: domain.OptionId(i + 1), VoteCount: c})
				poll.TotalVotes += c
			}
			return poll, nil
		}
	}

	t.Run("No votes", func(t *testing.T) {
		service := NewPoll(&MockPollStorage{PollFunc: pollWith(0, 0)}, pollConfig(), clock)

		analysis, err := service.Analysis(1)
		require.NoError(t, err)
		assert.Equal(t, "no_votes", analysis.ResultType)
		assert.Equal(t, "no_participation", analysis.ParticipationRate)
		assert.Empty(t, analysis.Winners)
	})

	t.Run("Tie", func(t *testing.T) {
		service := NewPoll(&MockPollStorage{PollFunc: pollWith(2, 2, 0)}, pollConfig(), clock)

		analysis, err := service.Analysis(1)
		require.NoError(t, err)
		assert.Equal(t, "tie", analysis.ResultType)
		assert.Len(t, analysis.Winners, 2)
		assert.Equal(t, "low", analysis.ParticipationRate)
	})

	t.Run("Clear winner with moderate participation", func(t *testing.T) {
		service := NewPoll(&MockPollStorage{PollFunc: pollWith(7, 3)}, pollConfig(), clock)

		analysis, err := service.Analysis(1)
		require.NoError(t, err)
		assert.Equal(t, "clear_winner", analysis.ResultType)
		require.Len(t, analysis.Winners, 1)
		assert.Equal(t, domain.OptionId(1), analysis.Winners[0].Id)
		assert.Equal(t, "moderate", analysis.ParticipationRate)
	})

	t.Run("High participation", func(t *testing.T) {
		service := NewPoll(&MockPollStorage{PollFunc: pollWith(15, 10)}, pollConfig(), clock)

		analysis, err := service.Analysis(1)
		require.NoError(t, err)
		assert.Equal(t, "high", analysis.ParticipationRate)
	})

	t.Run("Fifteen votes already count as high", func(t *testing.T) {
		service := NewPoll(&MockPollStorage{PollFunc: pollWith(10, 5)}, pollConfig(), clock)

		analysis, err := service.Analysis(1)
		require.NoError(t, err)
		assert.Equal(t, "high", analysis.ParticipationRate)
	})
}
