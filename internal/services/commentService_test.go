package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"toolkithub/internal/models"
	"toolkithub/internal/validation"
)

func strPtr(s string) *string { return &s }

func TestValidateCommentContent(t *testing.T) {
	assert.NoError(t, ValidateCommentContent("a"))
	assert.NoError(t, ValidateCommentContent(strings.Repeat("é", models.MaxCommentLength)))
	assert.True(t, validation.IsValidationError(ValidateCommentContent("")))
	assert.True(t, validation.IsValidationError(ValidateCommentContent("   ")))
	assert.True(t, validation.IsValidationError(ValidateCommentContent(strings.Repeat("x", models.MaxCommentLength+1))))
}

func TestCommentThreadsAndCascade(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	tool := e.seedTool("Figma", "Design", models.PlanFree, primitive.NilObjectID)
	alice := e.seedUser("alice")
	bob := e.seedUser("bob")

	top, err := e.comments.AddComment(ctx, alice.ID, tool.ID, models.AddCommentRequestBody{Content: "great"})
	require.NoError(t, err)
	assert.Equal(t, "alice", top.UserName)
	assert.Equal(t, alice.PhotoURL, top.UserPhotoURL)

	r1, err := e.comments.AddComment(ctx, bob.ID, tool.ID, models.AddCommentRequestBody{Content: "agreed", ParentID: strPtr(top.ID.Hex())})
	require.NoError(t, err)
	_, err = e.comments.AddComment(ctx, alice.ID, tool.ID, models.AddCommentRequestBody{Content: "thanks", ParentID: strPtr(top.ID.Hex())})
	require.NoError(t, err)

	threads, err := e.comments.GetThreads(ctx, tool.ID)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Len(t, threads[0].Replies, 2)

	t.Run("Deleting a reply removes only that reply", func(t *testing.T) {
		require.NoError(t, e.comments.DeleteComment(ctx, Actor{UserID: bob.ID}, r1.ID))
		assert.Len(t, e.store.comments, 2)
	})

	t.Run("Deleting a top-level comment removes its replies", func(t *testing.T) {
		require.NoError(t, e.comments.DeleteComment(ctx, Actor{UserID: alice.ID}, top.ID))
		assert.Empty(t, e.store.comments)
	})
}

func TestCommentCascadeRemovesAllThree(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	tool := e.seedTool("Figma", "Design", models.PlanFree, primitive.NilObjectID)
	user := e.seedUser("alice")

	top, err := e.comments.AddComment(ctx, user.ID, tool.ID, models.AddCommentRequestBody{Content: "top"})
	require.NoError(t, err)
	for _, c := range []string{"one", "two"} {
		_, err := e.comments.AddComment(ctx, user.ID, tool.ID, models.AddCommentRequestBody{Content: c, ParentID: strPtr(top.ID.Hex())})
		require.NoError(t, err)
	}
	require.Len(t, e.store.comments, 3)

	require.NoError(t, e.comments.DeleteComment(ctx, Actor{UserID: user.ID}, top.ID))
	assert.Empty(t, e.store.comments)
}

func TestRepliesCannotNest(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	tool := e.seedTool("Figma", "Design", models.PlanFree, primitive.NilObjectID)
	other := e.seedTool("Sketch", "Design", models.PlanPaid, primitive.NilObjectID)
	user := e.seedUser("alice")

	top, err := e.comments.AddComment(ctx, user.ID, tool.ID, models.AddCommentRequestBody{Content: "top"})
	require.NoError(t, err)
	reply, err := e.comments.AddComment(ctx, user.ID, tool.ID, models.AddCommentRequestBody{Content: "reply", ParentID: strPtr(top.ID.Hex())})
	require.NoError(t, err)

	_, err = e.comments.AddComment(ctx, user.ID, tool.ID, models.AddCommentRequestBody{Content: "deeper", ParentID: strPtr(reply.ID.Hex())})
	assert.True(t, validation.IsValidationError(err))

	_, err = e.comments.AddComment(ctx, user.ID, other.ID, models.AddCommentRequestBody{Content: "cross", ParentID: strPtr(top.ID.Hex())})
	assert.True(t, validation.IsValidationError(err))

	_, err = e.comments.AddComment(ctx, user.ID, tool.ID, models.AddCommentRequestBody{Content: "x", ParentID: strPtr(primitive.NewObjectID().Hex())})
	assert.ErrorIs(t, err, ErrParentNotFound)
}

func TestUpdateCommentAuthorOnly(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	tool := e.seedTool("Figma", "Design", models.PlanFree, primitive.NilObjectID)
	alice := e.seedUser("alice")
	bob := e.seedUser("bob")

	c, err := e.comments.AddComment(ctx, alice.ID, tool.ID, models.AddCommentRequestBody{Content: "first"})
	require.NoError(t, err)

	_, err = e.comments.UpdateComment(ctx, Actor{UserID: bob.ID}, c.ID, "hijack")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = e.comments.UpdateComment(ctx, Actor{IsAdmin: true}, c.ID, "admin edit")
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := e.comments.UpdateComment(ctx, Actor{UserID: alice.ID}, c.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)
	assert.Equal(t, alice.ID, updated.UserID)
	assert.Nil(t, updated.ParentID)
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

	_, err = e.comments.UpdateComment(ctx, Actor{UserID: alice.ID}, primitive.NewObjectID(), "x")
	assert.ErrorIs(t, err, ErrCommentNotFound)
}

func TestAdminMayDeleteAnyComment(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	tool := e.seedTool("Figma", "Design", models.PlanFree, primitive.NilObjectID)
	alice := e.seedUser("alice")

	c, err := e.comments.AddComment(ctx, alice.ID, tool.ID, models.AddCommentRequestBody{Content: "spam"})
	require.NoError(t, err)

	assert.ErrorIs(t, e.comments.DeleteComment(ctx, Actor{UserID: primitive.NewObjectID()}, c.ID), ErrNotOwner)
	assert.NoError(t, e.comments.DeleteComment(ctx, Actor{IsAdmin: true}, c.ID))
}

func TestTouchFailureDoesNotFailComment(t *testing.T) {
	e := newEnv()
	tool := e.seedTool("Figma", "Design", models.PlanFree, primitive.NilObjectID)
	user := e.seedUser("alice")
	e.store.failTouch = true

	_, err := e.comments.AddComment(context.Background(), user.ID, tool.ID, models.AddCommentRequestBody{Content: "hi"})
	assert.NoError(t, err)
	assert.Len(t, e.store.comments, 1)
}

func TestThreadsDropsOrphans(t *testing.T) {
	missing := primitive.NewObjectID()
	top := models.Comment{ID: primitive.NewObjectID(), Content: "top"}
	orphan := models.Comment{ID: primitive.NewObjectID(), Content: "orphan", ParentID: &missing}

	threads := Threads([]models.Comment{orphan, top})
	require.Len(t, threads, 1)
	assert.Empty(t, threads[0].Replies)
	assert.NotNil(t, Threads(nil))
}
