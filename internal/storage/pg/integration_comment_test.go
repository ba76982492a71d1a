package pg

import (
	"testing"
	"time"

	"github.com/kiezhub-dev/kiezhub/shared/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/lib/pq"
)

func TestSaveCommentStorage(t *testing.T) {
	authorId := createTestUser(t)
	categoryId := createTestEventCategory(t)
	eventId := createTestEvent(t, authorId, categoryId, time.Now().UTC().Add(24*time.Hour))

	comment, err := storage.SaveComment(domain.CommentCreationData{
		Content:  "Can I bring my kids?",
		AuthorId: authorId,
		EventId:  &eventId,
	})
	require.NoError(t, err)
	assert.Greater(t, comment.Id, int64(0))
	assert.Equal(t, "Can I bring my kids?", comment.Content)
	require.NotNil(t, comment.EventId)
	assert.Equal(t, eventId, *comment.EventId)
	assert.Nil(t, comment.ParentId)
	assert.Equal(t, authorId, comment.Author.Id)
	assert.NotEmpty(t, comment.Author.DisplayName)

	t.Run("service comments", func(t *testing.T) {
		serviceId := createTestService(t, authorId)
		comment, err := storage.SaveComment(domain.CommentCreationData{
			Content:   "Is this still available?",
			AuthorId:  authorId,
			ServiceId: &serviceId,
		})
		require.NoError(t, err)
		require.NotNil(t, comment.ServiceId)
		assert.Equal(t, serviceId, *comment.ServiceId)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := storage.Comment(-999)
		requireNotFoundError(t, err)
	})
}

func TestCommentsNesting(t *testing.T) {
	authorId := createTestUser(t)
	replierId := createTestUser(t)
	categoryId := createTestEventCategory(t)
	eventId := createTestEvent(t, authorId, categoryId, time.Now().UTC().Add(24*time.Hour))

	top, err := storage.SaveComment(domain.CommentCreationData{Content: "top level", AuthorId: authorId, EventId: &eventId})
	require.NoError(t, err)
	reply, err := storage.SaveComment(domain.CommentCreationData{Content: "a reply", AuthorId: replierId, ParentId: &top.Id, EventId: &eventId})
	require.NoError(t, err)

	comments, err := storage.Comments(domain.CommentFilter{EventId: eventId, Page: domain.Page{Limit: 100}})
	require.NoError(t, err)
	require.Len(t, comments, 1, "Replies must not appear at the top level")
	assert.Equal(t, top.Id, comments[0].Id)

	require.Len(t, comments[0].Replies, 1)
	assert.Equal(t, reply.Id, comments[0].Replies[0].Id)
	assert.Equal(t, replierId, comments[0].Replies[0].Author.Id)

	t.Run("filter requires a target", func(t *testing.T) {
		_, err := storage.Comments(domain.CommentFilter{Page: domain.Page{Limit: 100}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "requires a target")
	})

	t.Run("filter by author", func(t *testing.T) {
		comments, err := storage.Comments(domain.CommentFilter{AuthorId: authorId, Page: domain.Page{Limit: 100}})
		require.NoError(t, err)
		require.Len(t, comments, 1)
		assert.Equal(t, top.Id, comments[0].Id)
	})

	t.Run("deleting the parent cascades to replies", func(t *testing.T) {
		require.NoError(t, storage.DeleteComment(top.Id))

		_, err := storage.Comment(reply.Id)
		requireNotFoundError(t, err)
	})
}

func TestUpdateCommentStorage(t *testing.T) {
	authorId := createTestUser(t)
	categoryId := createTestEventCategory(t)
	eventId := createTestEvent(t, authorId, categoryId, time.Now().UTC().Add(24*time.Hour))

	comment, err := storage.SaveComment(domain.CommentCreationData{Content: "tpyo", AuthorId: authorId, EventId: &eventId})
	require.NoError(t, err)

	require.NoError(t, storage.UpdateComment(comment.Id, "typo"))

	updated, err := storage.Comment(comment.Id)
	require.NoError(t, err)
	assert.Equal(t, "typo", updated.Content)

	requireNotFoundError(t, storage.UpdateComment(-999, "nothing"))
}

func TestCommentCascadeFromEvent(t *testing.T) {
	authorId := createTestUser(t)
	serviceId := createTestService(t, authorId)

	comment, err := storage.SaveComment(domain.CommentCreationData{Content: "hello", AuthorId: authorId, ServiceId: &serviceId})
	require.NoError(t, err)

	// Service deletion is a soft delete, so the comment survives it.
	require.NoError(t, storage.DeleteService(serviceId))

	_, err = storage.Comment(comment.Id)
	require.NoError(t, err)
}
