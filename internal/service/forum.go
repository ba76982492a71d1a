package service

import (
	"net/http"

	"github.com/kiezhub-dev/kiezhub/shared/domain"
	"github.com/kiezhub-dev/kiezhub/shared/errors"
	"github.com/kiezhub-dev/kiezhub/shared/logger"
)

// Renderer turns raw markdown into sanitized HTML and finds @mentions.
type Renderer interface {
	Render(text string) string
	ExtractMentions(text string) []string
}

// ContentModerator screens user-generated text after it is saved.
// Implemented by *Moderation.
type ContentModerator interface {
	Screen(contentType string, contentId int64, userId domain.UserId, content string)
}

type ForumService interface {
	CreateCategory(c domain.ForumCategory) (domain.ForumCategory, error)
	Categories(includeInactive bool) ([]domain.ForumCategory, error)
	UpdateCategory(id domain.ForumCategoryId, name, description, color, icon *string, displayOrder *int, isActive *bool) (domain.ForumCategory, error)
	DeleteCategory(id domain.ForumCategoryId) error

	CreateThread(data domain.ThreadCreationData, firstPost string) (domain.ForumThread, error)
	Thread(id domain.ThreadId) (domain.ForumThread, error)
	Threads(filter domain.ThreadFilter) ([]domain.ForumThread, error)
	UpdateThread(id domain.ThreadId, actor *domain.User, upd domain.ThreadUpdate) (domain.ForumThread, error)
	DeleteThread(id domain.ThreadId, actor *domain.User) error

	CreatePost(data domain.PostCreationData, actor *domain.User) (domain.ForumPost, error)
	Posts(threadId domain.ThreadId, page domain.Page) ([]domain.ForumPost, error)
	PostsBy(authorId domain.UserId, page domain.Page) ([]domain.ForumPost, error)
	UpdatePost(id domain.PostId, actor *domain.User, content string) (domain.ForumPost, error)
	DeletePost(id domain.PostId, actor *domain.User) error
}

type ForumStorage interface {
	SaveForumCategory(c domain.ForumCategory) (domain.ForumCategory, error)
	ForumCategories(includeInactive bool) ([]domain.ForumCategory, error)
	ForumCategory(id domain.ForumCategoryId) (domain.ForumCategory, error)
	UpdateForumCategory(id domain.ForumCategoryId, name, description, color, icon *string, displayOrder *int, isActive *bool) (domain.ForumCategory, error)
	DeleteForumCategory(id domain.ForumCategoryId) error

	SaveThread(data domain.ThreadCreationData) (domain.ThreadId, error)
	Thread(id domain.ThreadId) (domain.ForumThread, error)
	Threads(filter domain.ThreadFilter) ([]domain.ForumThread, error)
	UpdateThread(id domain.ThreadId, upd domain.ThreadUpdate) (domain.ForumThread, error)
	DeleteThread(id domain.ThreadId) error

	SavePost(data domain.PostCreationData) (domain.ForumPost, error)
	Post(id domain.PostId) (domain.ForumPost, error)
	Posts(threadId domain.ThreadId, page domain.Page) ([]domain.ForumPost, error)
	PostsBy(authorId domain.UserId, page domain.Page) ([]domain.ForumPost, error)
	UpdatePost(id domain.PostId, content string) error
	DeletePost(id domain.PostId) error

	UserByDisplayName(name string) (domain.User, error)
}

type Forum struct {
	storage   ForumStorage
	renderer  Renderer
	notifier  Notifier
	moderator ContentModerator
}

func NewForum(storage ForumStorage, renderer Renderer, notifier Notifier, moderator ContentModerator) *Forum {
	return &Forum{
		storage:   storage,
		renderer:  renderer,
		notifier:  notifier,
		moderator: moderator,
	}
}

func (f *Forum) CreateCategory(c domain.ForumCategory) (domain.ForumCategory, error) {
	return f.storage.SaveForumCategory(c)
}

func (f *Forum) Categories(includeInactive bool) ([]domain.ForumCategory, error) {
	return f.storage.ForumCategories(includeInactive)
}

func (f *Forum) UpdateCategory(id domain.ForumCategoryId, name, description, color, icon *string, displayOrder *int, isActive *bool) (domain.ForumCategory, error) {
	return f.storage.UpdateForumCategory(id, name, description, color, icon, displayOrder, isActive)
}

func (f *Forum) DeleteCategory(id domain.ForumCategoryId) error {
	return f.storage.DeleteForumCategory(id)
}

// CreateThread opens a thread, optionally with its first post in one go.
func (f *Forum) CreateThread(data domain.ThreadCreationData, firstPost string) (domain.ForumThread, error) {
	category, err := f.storage.ForumCategory(data.CategoryId)
	if err != nil {
		return domain.ForumThread{}, err
	}
	if !category.IsActive {
		return domain.ForumThread{}, &errors.ErrorWithStatusCode{Message: "Category is not accepting new threads", StatusCode: http.StatusBadRequest}
	}

	id, err := f.storage.SaveThread(data)
	if err != nil {
		return domain.ForumThread{}, err
	}

	if firstPost != "" {
		post, err := f.storage.SavePost(domain.PostCreationData{
			Content:  firstPost,
			ThreadId: id,
			AuthorId: data.CreatorId,
		})
		if err != nil {
			logger.Log.Warn("thread created but first post failed", "thread_id", id, "error", err)
		} else {
			f.moderator.Screen("forum_post", post.Id, data.CreatorId, firstPost)
		}
	}

	return f.storage.Thread(id)
}

func (f *Forum) Thread(id domain.ThreadId) (domain.ForumThread, error) {
	return f.storage.Thread(id)
}

func (f *Forum) Threads(filter domain.ThreadFilter) ([]domain.ForumThread, error) {
	return f.storage.Threads(filter)
}

// UpdateThread lets the creator rename; pin and lock are admin-only.
func (f *Forum) UpdateThread(id domain.ThreadId, actor *domain.User, upd domain.ThreadUpdate) (domain.ForumThread, error) {
	thread, err := f.storage.Thread(id)
	if err != nil {
		return domain.ForumThread{}, err
	}
	if thread.CreatorId != actor.Id && !actor.Admin {
		return domain.ForumThread{}, &errors.ErrorWithStatusCode{Message: "Only the creator can edit this thread", StatusCode: http.StatusForbidden}
	}
	if (upd.IsPinned != nil || upd.IsLocked != nil) && !actor.Admin {
		return domain.ForumThread{}, &errors.ErrorWithStatusCode{Message: "Pinning and locking require admin rights", StatusCode: http.StatusForbidden}
	}
	return f.storage.UpdateThread(id, upd)
}

func (f *Forum) DeleteThread(id domain.ThreadId, actor *domain.User) error {
	thread, err := f.storage.Thread(id)
	if err != nil {
		return err
	}
	if thread.CreatorId != actor.Id && !actor.Admin {
		return &errors.ErrorWithStatusCode{Message: "Only the creator can delete this thread", StatusCode: http.StatusForbidden}
	}
	return f.storage.DeleteThread(id)
}

// CreatePost appends a reply, screens it, and notifies the thread creator
// and anyone @mentioned. Locked threads only accept posts from admins.
func (f *Forum) CreatePost(data domain.PostCreationData, actor *domain.User) (domain.ForumPost, error) {
	thread, err := f.storage.Thread(data.ThreadId)
	if err != nil {
		return domain.ForumPost{}, err
	}
	if thread.IsLocked && !actor.Admin {
		return domain.ForumPost{}, &errors.ErrorWithStatusCode{Message: "Thread is locked", StatusCode: http.StatusForbidden}
	}

	post, err := f.storage.SavePost(data)
	if err != nil {
		return domain.ForumPost{}, err
	}
	post.Rendered = f.renderer.Render(post.Content)

	f.moderator.Screen("forum_post", post.Id, data.AuthorId, data.Content)
	f.notifyPost(thread, post)

	return post, nil
}

func (f *Forum) notifyPost(thread domain.ForumThread, post domain.ForumPost) {
	data := map[string]any{
		"thread_id":    thread.Id,
		"thread_title": thread.Title,
		"post_id":      post.Id,
	}

	notified := map[domain.UserId]bool{post.AuthorId: true}
	if thread.CreatorId != post.AuthorId {
		f.notifier.Notify(thread.CreatorId, domain.NotificationForumReply, data)
		notified[thread.CreatorId] = true
	}

	for _, name := range f.renderer.ExtractMentions(post.Content) {
		user, err := f.storage.UserByDisplayName(name)
		if err != nil {
			if !errors.IsNotFound(err) {
				logger.Log.Warn("mention lookup failed", "name", name, "error", err)
			}
			continue
		}
		if notified[user.Id] {
			continue
		}
		f.notifier.Notify(user.Id, domain.NotificationForumMention, data)
		notified[user.Id] = true
	}
}

func (f *Forum) Posts(threadId domain.ThreadId, page domain.Page) ([]domain.ForumPost, error) {
	if _, err := f.storage.Thread(threadId); err != nil {
		return nil, err
	}
	posts, err := f.storage.Posts(threadId, page)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		posts[i].Rendered = f.renderer.Render(posts[i].Content)
	}
	return posts, nil
}

func (f *Forum) PostsBy(authorId domain.UserId, page domain.Page) ([]domain.ForumPost, error) {
	posts, err := f.storage.PostsBy(authorId, page)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		posts[i].Rendered = f.renderer.Render(posts[i].Content)
	}
	return posts, nil
}

func (f *Forum) UpdatePost(id domain.PostId, actor *domain.User, content string) (domain.ForumPost, error) {
	post, err := f.storage.Post(id)
	if err != nil {
		return domain.ForumPost{}, err
	}
	if post.AuthorId != actor.Id && !actor.Admin {
		return domain.ForumPost{}, &errors.ErrorWithStatusCode{Message: "Only the author can edit this post", StatusCode: http.StatusForbidden}
	}
	if err := f.storage.UpdatePost(id, content); err != nil {
		return domain.ForumPost{}, err
	}
	f.moderator.Screen("forum_post", id, post.AuthorId, content)

	updated, err := f.storage.Post(id)
	if err != nil {
		return domain.ForumPost{}, err
	}
	updated.Rendered = f.renderer.Render(updated.Content)
	return updated, nil
}

func (f *Forum) DeletePost(id domain.PostId, actor *domain.User) error {
	post, err := f.storage.Post(id)
	if err != nil {
		return err
	}
	if post.AuthorId != actor.Id && !actor.Admin {
		return &errors.ErrorWithStatusCode{Message: "Only the author can delete this post", StatusCode: http.StatusForbidden}
	}
	return f.storage.DeletePost(id)
}
