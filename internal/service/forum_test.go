package service

import (
	"net/http"
	"regexp"
	"testing"

	"github.com/kiezhub-dev/kiezhub/shared/domain"
	internal_errors "github.com/kiezhub-dev/kiezhub/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockForumStorage struct {
	SaveForumCategoryFunc   func(c domain.ForumCategory) (domain.ForumCategory, error)
	ForumCategoriesFunc     func(includeInactive bool) ([]domain.ForumCategory, error)
	ForumCategoryFunc       func(id domain.ForumCategoryId) (domain.ForumCategory, error)
	UpdateForumCategoryFunc func(id domain.ForumCategoryId, name, description, color, icon *string, displayOrder *int, isActive *bool) (domain.ForumCategory, error)
	DeleteForumCategoryFunc func(id domain.ForumCategoryId) error

	SaveThreadFunc   func(data domain.ThreadCreationData) (domain.ThreadId, error)
	ThreadFunc       func(id domain.ThreadId) (domain.ForumThread, error)
	ThreadsFunc      func(filter domain.ThreadFilter) ([]domain.ForumThread, error)
	UpdateThreadFunc func(id domain.ThreadId, upd domain.ThreadUpdate) (domain.ForumThread, error)
	DeleteThreadFunc func(id domain.ThreadId) error

	SavePostFunc   func(data domain.PostCreationData) (domain.ForumPost, error)
	PostFunc       func(id domain.PostId) (domain.ForumPost, error)
	PostsFunc      func(threadId domain.ThreadId, page domain.Page) ([]domain.ForumPost, error)
	PostsByFunc    func(authorId domain.UserId, page domain.Page) ([]domain.ForumPost, error)
	UpdatePostFunc func(id domain.PostId, content string) error
	DeletePostFunc func(id domain.PostId) error

	UserByDisplayNameFunc func(name string) (domain.User, error)
}

func (m *MockForumStorage) SaveForumCategory(c domain.ForumCategory) (domain.ForumCategory, error) {
	if m.SaveForumCategoryFunc != nil {
		return m.SaveForumCategoryFunc(c)
	}
	return c, nil
}

func (m *MockForumStorage) ForumCategories(includeInactive bool) ([]domain.ForumCategory, error) {
	if m.ForumCategoriesFunc != nil {
		return m.ForumCategoriesFunc(includeInactive)
	}
	return nil, nil
}

func (m *MockForumStorage) ForumCategory(id domain.ForumCategoryId) (domain.ForumCategory, error) {
	if m.ForumCategoryFunc != nil {
		return m.ForumCategoryFunc(id)
	}
	return domain.ForumCategory{Id: id, IsActive: true}, nil
}

func (m *MockForumStorage) UpdateForumCategory(id domain.ForumCategoryId, name, description, color, icon *string, displayOrder *int, isActive *bool) (domain.ForumCategory, error) {
	if m.UpdateForumCategoryFunc != nil {
		return m.UpdateForumCategoryFunc(id, name, description, color, icon, displayOrder, isActive)
	}
	return domain.ForumCategory{Id: id}, nil
}

func (m *MockForumStorage) DeleteForumCategory(id domain.ForumCategoryId) error {
	if m.DeleteForumCategoryFunc != nil {
		return m.DeleteForumCategoryFunc(id)
	}
	return nil
}

func (m *MockForumStorage) SaveThread(data domain.ThreadCreationData) (domain.ThreadId, error) {
	if m.SaveThreadFunc != nil {
		return m.SaveThreadFunc(data)
	}
	return 1, nil
}

func (m *MockForumStorage) Thread(id domain.ThreadId) (domain.ForumThread, error) {
	if m.ThreadFunc != nil {
		return m.ThreadFunc(id)
	}
	return domain.ForumThread{Id: id}, nil
}

func (m *MockForumStorage) Threads(filter domain.ThreadFilter) ([]domain.ForumThread, error) {
	if m.ThreadsFunc != nil {
		return m.ThreadsFunc(filter)
	}
	return nil, nil
}

func (m *MockForumStorage) UpdateThread(id domain.ThreadId, upd domain.ThreadUpdate) (domain.ForumThread, error) {
	if m.UpdateThreadFunc != nil {
		return m.UpdateThreadFunc(id, upd)
	}
	return domain.ForumThread{Id: id}, nil
}

func (m *MockForumStorage) DeleteThread(id domain.ThreadId) error {
	if m.DeleteThreadFunc != nil {
		return m.DeleteThreadFunc(id)
	}
	return nil
}

func (m *MockForumStorage) SavePost(data domain.PostCreationData) (domain.ForumPost, error) {
	if m.SavePostFunc != nil {
		return m.SavePostFunc(data)
	}
	return domain.ForumPost{Id: 1, Content: data.Content, ThreadId: data.ThreadId, AuthorId: data.AuthorId}, nil
}

func (m *MockForumStorage) Post(id domain.PostId) (domain.ForumPost, error) {
	if m.PostFunc != nil {
		return m.PostFunc(id)
	}
	return domain.ForumPost{Id: id}, nil
}

func (m *MockForumStorage) Posts(threadId domain.ThreadId, page domain.Page) ([]domain.ForumPost, error) {
	if m.PostsFunc != nil {
		return m.PostsFunc(threadId, page)
	}
	return nil, nil
}

func (m *MockForumStorage) PostsBy(authorId domain.UserId, page domain.Page) ([]domain.ForumPost, error) {
	if m.PostsByFunc != nil {
		return m.PostsByFunc(authorId, page)
	}
	return nil, nil
}

func (m *MockForumStorage) UpdatePost(id domain.PostId, content string) error {
	if m.UpdatePostFunc != nil {
		return m.UpdatePostFunc(id, content)
	}
	return nil
}

func (m *MockForumStorage) DeletePost(id domain.PostId) error {
	if m.DeletePostFunc != nil {
		return m.DeletePostFunc(id)
	}
	return nil
}

func (m *MockForumStorage) UserByDisplayName(name string) (domain.User, error) {
	if m.UserByDisplayNameFunc != nil {
		return m.UserByDisplayNameFunc(name)
	}
	return domain.User{}, &internal_errors.ErrorWithStatusCode{Message: "User not found", StatusCode: http.StatusNotFound}
}

// MockRenderer passes text through and reads @mentions with a plain regex.
type MockRenderer struct{}

var mentionPattern = regexp.MustCompile(`@(\w+)`)

func (MockRenderer) Render(text string) string { return text }

func (MockRenderer) ExtractMentions(text string) []string {
	var names []string
	for _, m := range mentionPattern.FindAllStringSubmatch(text, -1) {
		names = append(names, m[1])
	}
	return names
}

type MockNotifier struct {
	NotifyFunc func(userId domain.UserId, kind domain.NotificationType, data map[string]any)
}

func (m *MockNotifier) Notify(userId domain.UserId, kind domain.NotificationType, data map[string]any) {
	if m.NotifyFunc != nil {
		m.NotifyFunc(userId, kind, data)
	}
}

type MockModerator struct {
	ScreenFunc func(contentType string, contentId int64, userId domain.UserId, content string)
}

func (m *MockModerator) Screen(contentType string, contentId int64, userId domain.UserId, content string) {
	if m.ScreenFunc != nil {
		m.ScreenFunc(contentType, contentId, userId, content)
	}
}

func newTestForum(storage *MockForumStorage, notifier *MockNotifier) *Forum {
	if notifier == nil {
		notifier = &MockNotifier{}
	}
	return NewForum(storage, MockRenderer{}, notifier, &MockModerator{})
}

func TestCreateThread(t *testing.T) {
	t.Run("With first post", func(t *testing.T) {
		var savedPost domain.PostCreationData
		storage := &MockForumStorage{
			SavePostFunc: func(data domain.PostCreationData) (domain.ForumPost, error) {
				savedPost = data
				return domain.ForumPost{Id: 10, Content: data.Content}, nil
			},
		}
		forum := newTestForum(storage, nil)

		_, err := forum.CreateThread(domain.ThreadCreationData{Title: "Garden plots", CategoryId: 2, CreatorId: 3}, "Who wants one?")
		require.NoError(t, err)
		assert.Equal(t, "Who wants one?", savedPost.Content)
		assert.Equal(t, domain.UserId(3), savedPost.AuthorId)
	})

	t.Run("Without first post", func(t *testing.T) {
		storage := &MockForumStorage{
			SavePostFunc: func(data domain.PostCreationData) (domain.ForumPost, error) {
				t.Fatal("no first post expected")
				return domain.ForumPost{}, nil
			},
		}
		forum := newTestForum(storage, nil)

		_, err := forum.CreateThread(domain.ThreadCreationData{Title: "Garden plots", CategoryId: 2, CreatorId: 3}, "")
		require.NoError(t, err)
	})

	t.Run("Inactive category rejected", func(t *testing.T) {
		storage := &MockForumStorage{
			ForumCategoryFunc: func(id domain.ForumCategoryId) (domain.ForumCategory, error) {
				return domain.ForumCategory{Id: id, IsActive: false}, nil
			},
		}
		forum := newTestForum(storage, nil)

		_, err := forum.CreateThread(domain.ThreadCreationData{CategoryId: 2, CreatorId: 3}, "")
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, err.(*internal_errors.ErrorWithStatusCode).StatusCode)
	})
}

func TestUpdateThread(t *testing.T) {
	threadOwnedBy := func(creator domain.UserId) func(domain.ThreadId) (domain.ForumThread, error) {
		return func(id domain.ThreadId) (domain.ForumThread, error) {
			return domain.ForumThread{Id: id, CreatorId: creator}, nil
		}
	}
	pinned := true

	t.Run("Creator can rename", func(t *testing.T) {
		forum := newTestForum(&MockForumStorage{ThreadFunc: threadOwnedBy(1)}, nil)

		title := "New title"
		_, err := forum.UpdateThread(1, &domain.User{Id: 1}, domain.ThreadUpdate{Title: &title})
		assert.NoError(t, err)
	})

	t.Run("Non-creator rejected", func(t *testing.T) {
		forum := newTestForum(&MockForumStorage{ThreadFunc: threadOwnedBy(1)}, nil)

		_, err := forum.UpdateThread(1, &domain.User{Id: 2}, domain.ThreadUpdate{})
		require.Error(t, err)
		assert.Equal(t, http.StatusForbidden, err.(*internal_errors.ErrorWithStatusCode).StatusCode)
	})

	t.Run("Creator cannot pin", func(t *testing.T) {
		forum := newTestForum(&MockForumStorage{ThreadFunc: threadOwnedBy(1)}, nil)

		_, err := forum.UpdateThread(1, &domain.User{Id: 1}, domain.ThreadUpdate{IsPinned: &pinned})
		require.Error(t, err)
		assert.Equal(t, http.StatusForbidden, err.(*internal_errors.ErrorWithStatusCode).StatusCode)
	})

	t.Run("Admin can pin", func(t *testing.T) {
		forum := newTestForum(&MockForumStorage{ThreadFunc: threadOwnedBy(1)}, nil)

		_, err := forum.UpdateThread(1, &domain.User{Id: 2, Admin: true}, domain.ThreadUpdate{IsPinned: &pinned})
		assert.NoError(t, err)
	})
}

func TestCreatePost(t *testing.T) {
	t.Run("Locked thread rejected", func(t *testing.T) {
		storage := &MockForumStorage{
			ThreadFunc: func(id domain.ThreadId) (domain.ForumThread, error) {
				return domain.ForumThread{Id: id, IsLocked: true}, nil
			},
		}
		forum := newTestForum(storage, nil)

		_, err := forum.CreatePost(domain.PostCreationData{ThreadId: 1, AuthorId: 2, Content: "hi"}, &domain.User{Id: 2})
		require.Error(t, err)
		assert.Equal(t, "Thread is locked", err.Error())
	})

	t.Run("Admin posts in locked thread", func(t *testing.T) {
		saved := false
		storage := &MockForumStorage{
			ThreadFunc: func(id domain.ThreadId) (domain.ForumThread, error) {
				return domain.ForumThread{Id: id, IsLocked: true}, nil
			},
			SavePostFunc: func(data domain.PostCreationData) (domain.ForumPost, error) {
				saved = true
				return domain.ForumPost{Id: 1, Content: data.Content, AuthorId: data.AuthorId}, nil
			},
		}
		forum := newTestForum(storage, nil)

		_, err := forum.CreatePost(domain.PostCreationData{ThreadId: 1, AuthorId: 2, Content: "locking this now"}, &domain.User{Id: 2, Admin: true})
		require.NoError(t, err)
		assert.True(t, saved)
	})

	t.Run("Thread creator notified of reply", func(t *testing.T) {
		var notifiedUser domain.UserId
		var notifiedKind domain.NotificationType
		storage := &MockForumStorage{
			ThreadFunc: func(id domain.ThreadId) (domain.ForumThread, error) {
				return domain.ForumThread{Id: id, Title: "Garden plots", CreatorId: 1}, nil
			},
		}
		notifier := &MockNotifier{
			NotifyFunc: func(userId domain.UserId, kind domain.NotificationType, data map[string]any) {
				notifiedUser = userId
				notifiedKind = kind
				assert.Equal(t, "Garden plots", data["thread_title"])
			},
		}
		forum := newTestForum(storage, notifier)

		post, err := forum.CreatePost(domain.PostCreationData{ThreadId: 1, AuthorId: 2, Content: "count me in"}, &domain.User{Id: 2})
		require.NoError(t, err)
		assert.Equal(t, "count me in", post.Rendered)
		assert.Equal(t, domain.UserId(1), notifiedUser)
		assert.Equal(t, domain.NotificationForumReply, notifiedKind)
	})

	t.Run("Own thread reply does not notify", func(t *testing.T) {
		storage := &MockForumStorage{
			ThreadFunc: func(id domain.ThreadId) (domain.ForumThread, error) {
				return domain.ForumThread{Id: id, CreatorId: 2}, nil
			},
		}
		notifier := &MockNotifier{
			NotifyFunc: func(userId domain.UserId, kind domain.NotificationType, data map[string]any) {
				t.Fatal("author must not be notified about their own post")
			},
		}
		forum := newTestForum(storage, notifier)

		_, err := forum.CreatePost(domain.PostCreationData{ThreadId: 1, AuthorId: 2, Content: "bump"}, &domain.User{Id: 2})
		require.NoError(t, err)
	})

	t.Run("Mentioned users notified once", func(t *testing.T) {
		users := map[string]domain.User{
			"anna": {Id: 5, DisplayName: "anna"},
			"ben":  {Id: 6, DisplayName: "ben"},
		}
		storage := &MockForumStorage{
			ThreadFunc: func(id domain.ThreadId) (domain.ForumThread, error) {
				return domain.ForumThread{Id: id, CreatorId: 5}, nil
			},
			UserByDisplayNameFunc: func(name string) (domain.User, error) {
				if u, ok := users[name]; ok {
					return u, nil
				}
				return domain.User{}, &internal_errors.ErrorWithStatusCode{Message: "User not found", StatusCode: http.StatusNotFound}
			},
		}
		got := map[domain.UserId][]domain.NotificationType{}
		notifier := &MockNotifier{
			NotifyFunc: func(userId domain.UserId, kind domain.NotificationType, data map[string]any) {
				got[userId] = append(got[userId], kind)
			},
		}
		forum := newTestForum(storage, notifier)

		// anna is also the thread creator, she gets the reply but not a
		// second mention. The unknown name is skipped quietly.
		_, err := forum.CreatePost(domain.PostCreationData{
			ThreadId: 1,
			AuthorId: 2,
			Content:  "cc @anna @ben @nobody",
		}, &domain.User{Id: 2})
		require.NoError(t, err)

		assert.Equal(t, []domain.NotificationType{domain.NotificationForumReply}, got[5])
		assert.Equal(t, []domain.NotificationType{domain.NotificationForumMention}, got[6])
		assert.Len(t, got, 2)
	})
}

func TestUpdatePost(t *testing.T) {
	t.Run("Author edits and content is rescreened", func(t *testing.T) {
		screened := false
		storage := &MockForumStorage{
			PostFunc: func(id domain.PostId) (domain.ForumPost, error) {
				return domain.ForumPost{Id: id, AuthorId: 2, Content: "edited"}, nil
			},
		}
		moderator := &MockModerator{
			ScreenFunc: func(contentType string, contentId int64, userId domain.UserId, content string) {
				screened = contentType == "forum_post" && content == "edited"
			},
		}
		forum := NewForum(storage, MockRenderer{}, &MockNotifier{}, moderator)

		post, err := forum.UpdatePost(1, &domain.User{Id: 2}, "edited")
		require.NoError(t, err)
		assert.True(t, screened)
		assert.Equal(t, "edited", post.Rendered)
	})

	t.Run("Non-author rejected", func(t *testing.T) {
		storage := &MockForumStorage{
			PostFunc: func(id domain.PostId) (domain.ForumPost, error) {
				return domain.ForumPost{Id: id, AuthorId: 2}, nil
			},
		}
		forum := newTestForum(storage, nil)

		_, err := forum.UpdatePost(1, &domain.User{Id: 3}, "edited")
		require.Error(t, err)
		assert.Equal(t, http.StatusForbidden, err.(*internal_errors.ErrorWithStatusCode).StatusCode)
	})
}
