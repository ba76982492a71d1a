package service

import (
	"net/http"

	"github.com/kiezhub-dev/kiezhub/shared/domain"
	"github.com/kiezhub-dev/kiezhub/shared/errors"
)

type CommentService interface {
	Create(data domain.CommentCreationData) (domain.Comment, error)
	Comment(id domain.CommentId) (domain.Comment, error)
	Comments(filter domain.CommentFilter) ([]domain.Comment, error)
	Update(id domain.CommentId, actor *domain.User, content string) (domain.Comment, error)
	Delete(id domain.CommentId, actor *domain.User) error
}

type CommentStorage interface {
	SaveComment(data domain.CommentCreationData) (domain.Comment, error)
	Comment(id domain.CommentId) (domain.Comment, error)
	Comments(filter domain.CommentFilter) ([]domain.Comment, error)
	UpdateComment(id domain.CommentId, content string) error
	DeleteComment(id domain.CommentId) error

	Event(id domain.EventId) (domain.Event, error)
	Service(id domain.ServiceId) (domain.Service, error)
}

type Comment struct {
	storage   CommentStorage
	renderer  Renderer
	moderator ContentModerator
}

func NewComment(storage CommentStorage, renderer Renderer, moderator ContentModerator) *Comment {
	return &Comment{storage: storage, renderer: renderer, moderator: moderator}
}

// Create attaches a comment to exactly one of an event or a service.
// Replies stay on the same target as their parent and don't nest further.
func (c *Comment) Create(data domain.CommentCreationData) (domain.Comment, error) {
	if (data.EventId == nil) == (data.ServiceId == nil) {
		return domain.Comment{}, &errors.ErrorWithStatusCode{Message: "Comment needs exactly one of event or service", StatusCode: http.StatusBadRequest}
	}

	if data.EventId != nil {
		if _, err := c.storage.Event(*data.EventId); err != nil {
			return domain.Comment{}, err
		}
	} else {
		if _, err := c.storage.Service(*data.ServiceId); err != nil {
			return domain.Comment{}, err
		}
	}

	if data.ParentId != nil {
		parent, err := c.storage.Comment(*data.ParentId)
		if err != nil {
			return domain.Comment{}, err
		}
		if parent.ParentId != nil {
			return domain.Comment{}, &errors.ErrorWithStatusCode{Message: "Replies cannot be nested", StatusCode: http.StatusBadRequest}
		}
		if !sameTarget(parent, data) {
			return domain.Comment{}, &errors.ErrorWithStatusCode{Message: "Reply must stay on the parent's target", StatusCode: http.StatusBadRequest}
		}
	}

	comment, err := c.storage.SaveComment(data)
	if err != nil {
		return domain.Comment{}, err
	}
	c.moderator.Screen("comment", comment.Id, data.AuthorId, data.Content)

	comment.Rendered = c.renderer.Render(comment.Content)
	return comment, nil
}

func sameTarget(parent domain.Comment, data domain.CommentCreationData) bool {
	if data.EventId != nil {
		return parent.EventId != nil && *parent.EventId == *data.EventId
	}
	return parent.ServiceId != nil && *parent.ServiceId == *data.ServiceId
}

func (c *Comment) Comment(id domain.CommentId) (domain.Comment, error) {
	comment, err := c.storage.Comment(id)
	if err != nil {
		return domain.Comment{}, err
	}
	c.render(&comment)
	return comment, nil
}

func (c *Comment) Comments(filter domain.CommentFilter) ([]domain.Comment, error) {
	comments, err := c.storage.Comments(filter)
	if err != nil {
		return nil, err
	}
	for i := range comments {
		c.render(&comments[i])
	}
	return comments, nil
}

func (c *Comment) render(comment *domain.Comment) {
	comment.Rendered = c.renderer.Render(comment.Content)
	for i := range comment.Replies {
		comment.Replies[i].Rendered = c.renderer.Render(comment.Replies[i].Content)
	}
}

func (c *Comment) Update(id domain.CommentId, actor *domain.User, content string) (domain.Comment, error) {
	comment, err := c.storage.Comment(id)
	if err != nil {
		return domain.Comment{}, err
	}
	if comment.AuthorId != actor.Id && !actor.Admin {
		return domain.Comment{}, &errors.ErrorWithStatusCode{Message: "Only the author can edit this comment", StatusCode: http.StatusForbidden}
	}
	if err := c.storage.UpdateComment(id, content); err != nil {
		return domain.Comment{}, err
	}
	c.moderator.Screen("comment", id, comment.AuthorId, content)

	updated, err := c.storage.Comment(id)
	if err != nil {
		return domain.Comment{}, err
	}
	updated.Rendered = c.renderer.Render(updated.Content)
	return updated, nil
}

func (c *Comment) Delete(id domain.CommentId, actor *domain.User) error {
	comment, err := c.storage.Comment(id)
	if err != nil {
		return err
	}
	if comment.AuthorId != actor.Id && !actor.Admin {
		return &errors.ErrorWithStatusCode{Message: "Only the author can delete this comment", StatusCode: http.StatusForbidden}
	}
	return c.storage.DeleteComment(id)
}
