package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"toolkithub/internal/models"
	"toolkithub/internal/validation"
)

func TestValidateRating(t *testing.T) {
	for _, v := range []float64{0.5, 1, 2.5, 4.5, 5.0} {
		assert.NoError(t, ValidateRating(v), "%v should be accepted", v)
	}
	for _, v := range []float64{0, 5.5, -1, 0.25, 3.3, 4.75} {
		err := ValidateRating(v)
		assert.True(t, validation.IsValidationError(err), "%v should be rejected", v)
	}
}

func TestRatingOutOfRangeWritesNothing(t *testing.T) {
	e := newEnv()
	tool := e.seedTool("Figma", "Design", models.PlanFree, primitive.NilObjectID)

	_, err := e.ratings.AddRating(context.Background(), primitive.NewObjectID(), tool.ID, 5.5)
	assert.True(t, validation.IsValidationError(err))
	assert.Empty(t, e.store.ratings)
}

func TestAggregateAfterSequentialRatings(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	tool := e.seedTool("Figma", "Design", models.PlanFree, primitive.NilObjectID)

	var last *models.RatingResult
	for _, v := range []float64{3.0, 4.0, 5.0} {
		res, err := e.ratings.AddRating(ctx, primitive.NewObjectID(), tool.ID, v)
		require.NoError(t, err)
		last = res
	}

	assert.Equal(t, 4.0, last.AverageRating)
	assert.Equal(t, 3, last.RatingCount)

	stored, err := e.tools.GetTool(ctx, tool.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, stored.AverageRating)
	assert.Equal(t, 3, stored.RatingCount)
	assert.Positive(t, e.cache.invalidations)
}

func TestAggregateRoundsToOneDecimal(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	tool := e.seedTool("Figma", "Design", models.PlanFree, primitive.NilObjectID)

	for _, v := range []float64{3.0, 3.0, 4.0} {
		_, err := e.ratings.AddRating(ctx, primitive.NewObjectID(), tool.ID, v)
		require.NoError(t, err)
	}
	stored, _ := e.tools.GetTool(ctx, tool.ID)
	assert.Equal(t, 3.3, stored.AverageRating)
}

func TestDuplicateRatingRejected(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	tool := e.seedTool("Figma", "Design", models.PlanFree, primitive.NilObjectID)
	user := primitive.NewObjectID()

	_, err := e.ratings.AddRating(ctx, user, tool.ID, 4)
	require.NoError(t, err)

	_, err = e.ratings.AddRating(ctx, user, tool.ID, 2)
	assert.ErrorIs(t, err, ErrDuplicateRating)
	assert.ErrorIs(t, err, ErrConflict)

	res, err := e.ratings.UpdateRating(ctx, user, tool.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2.0, res.Rating.Rating)
	assert.Equal(t, 2.0, res.AverageRating)
	assert.Equal(t, 1, res.RatingCount)
}

func TestUpdateAndDeleteRequireExistingRating(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	tool := e.seedTool("Figma", "Design", models.PlanFree, primitive.NilObjectID)
	user := primitive.NewObjectID()

	_, err := e.ratings.UpdateRating(ctx, user, tool.ID, 3)
	assert.ErrorIs(t, err, ErrRatingNotFound)

	_, err = e.ratings.DeleteRating(ctx, user, tool.ID)
	assert.ErrorIs(t, err, ErrRatingNotFound)

	_, err = e.ratings.AddRating(ctx, user, primitive.NewObjectID(), 3)
	assert.ErrorIs(t, err, ErrToolNotFound)
}

func TestDeleteRatingResetsAggregate(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	tool := e.seedTool("Figma", "Design", models.PlanFree, primitive.NilObjectID)
	user := primitive.NewObjectID()

	_, err := e.ratings.AddRating(ctx, user, tool.ID, 4.5)
	require.NoError(t, err)

	res, err := e.ratings.DeleteRating(ctx, user, tool.ID)
	require.NoError(t, err)
	assert.Nil(t, res.Rating)
	assert.Equal(t, 0.0, res.AverageRating)
	assert.Equal(t, 0, res.RatingCount)
}

func TestRecomputeFailureIsSwallowed(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	tool := e.seedTool("Figma", "Design", models.PlanFree, primitive.NilObjectID)
	e.store.failAggregate = true

	res, err := e.ratings.AddRating(ctx, primitive.NewObjectID(), tool.ID, 5)
	require.NoError(t, err)
	require.NotNil(t, res.Rating)
	assert.Equal(t, 0, res.RatingCount)
	assert.Len(t, e.store.ratings, 1)

	_, _, err = e.ratings.RecomputeAggregate(ctx, tool.ID)
	assert.Error(t, err)
}
