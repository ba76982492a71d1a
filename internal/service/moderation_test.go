package service

import (
	"testing"

	"github.com/kiezhub-dev/kiezhub/shared/config"
	"github.com/kiezhub-dev/kiezhub/shared/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockModerationStorage struct {
	SaveModerationItemFunc    func(item domain.ModerationItem) (int64, error)
	ModerationItemFunc        func(id int64) (domain.ModerationItem, error)
	ModerationQueueFunc       func(page domain.Page) ([]domain.ModerationItem, error)
	ResolveModerationItemFunc func(id int64, status domain.ModerationStatus, resolvedBy domain.UserId) error
	RecentContentByFunc       func(userId domain.UserId, limit int) ([]domain.FlaggedContent, error)
	DeleteCommentFunc         func(id domain.CommentId) error
	DeletePostFunc            func(id domain.PostId) error
	DeleteServiceFunc         func(id domain.ServiceId) error
}

func (m *MockModerationStorage) SaveModerationItem(item domain.ModerationItem) (int64, error) {
	if m.SaveModerationItemFunc != nil {
		return m.SaveModerationItemFunc(item)
	}
	return 1, nil
}

func (m *MockModerationStorage) ModerationItem(id int64) (domain.ModerationItem, error) {
	if m.ModerationItemFunc != nil {
		return m.ModerationItemFunc(id)
	}
	return domain.ModerationItem{Id: id, ContentType: "comment", ContentId: 1}, nil
}

func (m *MockModerationStorage) ModerationQueue(page domain.Page) ([]domain.ModerationItem, error) {
	if m.ModerationQueueFunc != nil {
		return m.ModerationQueueFunc(page)
	}
	return nil, nil
}

func (m *MockModerationStorage) ResolveModerationItem(id int64, status domain.ModerationStatus, resolvedBy domain.UserId) error {
	if m.ResolveModerationItemFunc != nil {
		return m.ResolveModerationItemFunc(id, status, resolvedBy)
	}
	return nil
}

func (m *MockModerationStorage) RecentContentBy(userId domain.UserId, limit int) ([]domain.FlaggedContent, error) {
	if m.RecentContentByFunc != nil {
		return m.RecentContentByFunc(userId, limit)
	}
	return nil, nil
}

func (m *MockModerationStorage) DeleteComment(id domain.CommentId) error {
	if m.DeleteCommentFunc != nil {
		return m.DeleteCommentFunc(id)
	}
	return nil
}

func (m *MockModerationStorage) DeletePost(id domain.PostId) error {
	if m.DeletePostFunc != nil {
		return m.DeletePostFunc(id)
	}
	return nil
}

func (m *MockModerationStorage) DeleteService(id domain.ServiceId) error {
	if m.DeleteServiceFunc != nil {
		return m.DeleteServiceFunc(id)
	}
	return nil
}

func moderationConfig() *config.Moderation {
	return &config.Moderation{
		Enabled:         true,
		BannedWords:     []string{"spamword", "scam"},
		FlagThreshold:   0.7,
		ReviewThreshold: 0.3,
	}
}

func TestCheck(t *testing.T) {
	service := NewModeration(&MockModerationStorage{}, moderationConfig())

	t.Run("Clean content", func(t *testing.T) {
		result := service.Check("Looking forward to the street fair on Saturday!")
		assert.False(t, result.Flagged)
		assert.False(t, result.RequiresReview)
		assert.Zero(t, result.Confidence)
		assert.Empty(t, result.Reasons)
	})

	t.Run("Banned words", func(t *testing.T) {
		result := service.Check("This SPAMWORD is a total scam")
		assert.True(t, result.Flagged)
		assert.InDelta(t, 1.0, result.Confidence, 0.001)
		assert.Contains(t, result.Reasons, "banned_word: spamword")
		assert.Contains(t, result.Reasons, "banned_word: scam")
	})

	t.Run("Excessive links", func(t *testing.T) {
		result := service.Check("see http://a.com http://b.com http://c.com")
		assert.False(t, result.Flagged)
		assert.True(t, result.RequiresReview)
		assert.Contains(t, result.Reasons, "excessive_links: 3")
	})

	t.Run("Two links are fine", func(t *testing.T) {
		result := service.Check("see http://a.com and http://b.com")
		assert.Empty(t, result.Reasons)
	})

	t.Run("Shouting", func(t *testing.T) {
		result := service.Check("THIS IS VERY IMPORTANT EVERYONE READ NOW")
		assert.Contains(t, result.Reasons, "excessive_caps")
	})

	t.Run("Mostly digits", func(t *testing.T) {
		result := service.Check("4915731234567 4915731234567")
		assert.Contains(t, result.Reasons, "excessive_digits")
	})

	t.Run("Repeated characters", func(t *testing.T) {
		result := service.Check("heyyyyyy whats up")
		assert.Contains(t, result.Reasons, "repeated_characters")
	})

	t.Run("Confidence capped at one", func(t *testing.T) {
		result := service.Check("SPAMWORD SCAM SPAMWORD http://a http://b http://c AAAAAAAA")
		assert.InDelta(t, 1.0, result.Confidence, 0.001)
	})
}

func TestScreen(t *testing.T) {
	t.Run("Risky content queued", func(t *testing.T) {
		var saved domain.ModerationItem
		storage := &MockModerationStorage{
			SaveModerationItemFunc: func(item domain.ModerationItem) (int64, error) {
				saved = item
				return 1, nil
			},
		}
		service := NewModeration(storage, moderationConfig())

		service.Screen("comment", 42, 7, "this is a scam")

		assert.Equal(t, "comment", saved.ContentType)
		assert.Equal(t, int64(42), saved.ContentId)
		assert.Equal(t, domain.UserId(7), saved.UserId)
		assert.Equal(t, domain.ModerationPending, saved.Status)
	})

	t.Run("Clean content skipped", func(t *testing.T) {
		storage := &MockModerationStorage{
			SaveModerationItemFunc: func(item domain.ModerationItem) (int64, error) {
				t.Fatal("clean content must not be queued")
				return 0, nil
			},
		}
		service := NewModeration(storage, moderationConfig())

		service.Screen("comment", 42, 7, "nice event, see you there")
	})

	t.Run("Disabled moderation skipped", func(t *testing.T) {
		cfg := moderationConfig()
		cfg.Enabled = false
		storage := &MockModerationStorage{
			SaveModerationItemFunc: func(item domain.ModerationItem) (int64, error) {
				t.Fatal("disabled moderation must not queue anything")
				return 0, nil
			},
		}
		service := NewModeration(storage, cfg)

		service.Screen("comment", 42, 7, "this is a scam")
	})
}

func TestResolve(t *testing.T) {
	admin := &domain.User{Id: 9, Admin: true}

	t.Run("Approve keeps content", func(t *testing.T) {
		var status domain.ModerationStatus
		storage := &MockModerationStorage{
			ResolveModerationItemFunc: func(id int64, s domain.ModerationStatus, resolvedBy domain.UserId) error {
				status = s
				assert.Equal(t, domain.UserId(9), resolvedBy)
				return nil
			},
			DeleteCommentFunc: func(id domain.CommentId) error {
				t.Fatal("approve must not delete content")
				return nil
			},
		}
		service := NewModeration(storage, moderationConfig())

		require.NoError(t, service.Resolve(1, "approve", admin))
		assert.Equal(t, domain.ModerationApproved, status)
	})

	t.Run("Remove deletes the content", func(t *testing.T) {
		deleted := false
		storage := &MockModerationStorage{
			ModerationItemFunc: func(id int64) (domain.ModerationItem, error) {
				return domain.ModerationItem{Id: id, ContentType: "forum_post", ContentId: 5}, nil
			},
			DeletePostFunc: func(id domain.PostId) error {
				deleted = id == 5
				return nil
			},
		}
		service := NewModeration(storage, moderationConfig())

		require.NoError(t, service.Resolve(1, "remove", admin))
		assert.True(t, deleted)
	})

	t.Run("Unknown action rejected", func(t *testing.T) {
		service := NewModeration(&MockModerationStorage{}, moderationConfig())

		err := service.Resolve(1, "escalate", admin)
		require.Error(t, err)
		assert.Equal(t, "Unknown action", err.Error())
	})
}

func TestCheckUser(t *testing.T) {
	t.Run("Flagged content reported", func(t *testing.T) {
		storage := &MockModerationStorage{
			RecentContentByFunc: func(userId domain.UserId, limit int) ([]domain.FlaggedContent, error) {
				assert.Equal(t, 50, limit)
				return []domain.FlaggedContent{
					{ContentType: "comment", ContentId: 1, Preview: "totally a scam and a spamword"},
					{ContentType: "comment", ContentId: 2, Preview: "see you at the market"},
				}, nil
			},
		}
		service := NewModeration(storage, moderationConfig())

		report, err := service.CheckUser(3)
		require.NoError(t, err)
		assert.Equal(t, 2, report.TotalItems)
		assert.Equal(t, 1, report.FlaggedItems)
		assert.InDelta(t, 0.5, report.AverageRiskScore, 0.001)
		assert.True(t, report.NeedsAdminReview)
	})

	t.Run("Clean user", func(t *testing.T) {
		storage := &MockModerationStorage{
			RecentContentByFunc: func(userId domain.UserId, limit int) ([]domain.FlaggedContent, error) {
				return []domain.FlaggedContent{
					{ContentType: "comment", ContentId: 1, Preview: "lovely weather"},
				}, nil
			},
		}
		service := NewModeration(storage, moderationConfig())

		report, err := service.CheckUser(3)
		require.NoError(t, err)
		assert.Zero(t, report.FlaggedItems)
		assert.False(t, report.NeedsAdminReview)
	})

	t.Run("No content", func(t *testing.T) {
		service := NewModeration(&MockModerationStorage{}, moderationConfig())

		report, err := service.CheckUser(3)
		require.NoError(t, err)
		assert.Zero(t, report.TotalItems)
		assert.Zero(t, report.AverageRiskScore)
		assert.False(t, report.NeedsAdminReview)
	})
}
