package services

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"toolkithub/internal/cache"
	"toolkithub/internal/catalog"
	"toolkithub/internal/metrics"
	"toolkithub/internal/models"
	"toolkithub/internal/repositories"
	"toolkithub/internal/validation"
)

type RatingService interface {
	AddRating(ctx context.Context, userID, toolID primitive.ObjectID, value float64) (*models.RatingResult, error)
	UpdateRating(ctx context.Context, userID, toolID primitive.ObjectID, value float64) (*models.RatingResult, error)
	DeleteRating(ctx context.Context, userID, toolID primitive.ObjectID) (*models.RatingResult, error)
	GetMyRating(ctx context.Context, userID, toolID primitive.ObjectID) (*models.Rating, error)
	// RecomputeAggregate re-reads every rating of the tool and writes the
	// rounded mean and count back onto it. Concurrent writers may interleave,
	// so the stored aggregate is eventually consistent with the ratings.
	RecomputeAggregate(ctx context.Context, toolID primitive.ObjectID) (float64, int, error)
}

type ratingServiceImpl struct {
	catalogReader
	ratingRepo repositories.RatingRepository
}

func NewRatingService(ratingRepo repositories.RatingRepository, toolRepo repositories.ToolRepository, catalogCache cache.CatalogCache) RatingService {
	return &ratingServiceImpl{
		catalogReader: catalogReader{toolRepo: toolRepo, cache: catalogCache},
		ratingRepo:    ratingRepo,
	}
}

// ValidateRating accepts multiples of 0.5 in [0.5, 5.0].
func ValidateRating(value float64) error {
	if math.IsNaN(value) || value < models.MinRating || value > models.MaxRating {
		return validation.Errorf("rating must be between %.1f and %.1f", models.MinRating, models.MaxRating)
	}
	if steps := value / models.RatingStep; steps != math.Trunc(steps) {
		return validation.Errorf("rating must be a multiple of %.1f", models.RatingStep)
	}
	return nil
}

func (s *ratingServiceImpl) loadTool(ctx context.Context, toolID primitive.ObjectID) (*models.Tool, error) {
	tool, err := s.toolRepo.FindByID(ctx, toolID)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ErrToolNotFound
		}
		return nil, fmt.Errorf("failed to retrieve tool: %w", err)
	}
	return tool, nil
}

func (s *ratingServiceImpl) AddRating(ctx context.Context, userID, toolID primitive.ObjectID, value float64) (*models.RatingResult, error) {
	log.Debug().Str("userID", userID.Hex()).Str("toolID", toolID.Hex()).Float64("rating", value).Msg("Attempting to add rating")

	if err := ValidateRating(value); err != nil {
		log.Warn().Err(err).Str("userID", userID.Hex()).Msg("Rejected rating")
		return nil, err
	}
	tool, err := s.loadTool(ctx, toolID)
	if err != nil {
		return nil, err
	}

	existing, err := s.ratingRepo.FindByTool(ctx, toolID)
	if err != nil {
		log.Error().Err(err).Str("toolID", toolID.Hex()).Msg("Failed to read ratings")
		return nil, fmt.Errorf("failed to read ratings: %w", err)
	}
	for _, r := range existing {
		if r.UserID == userID {
			log.Warn().Str("userID", userID.Hex()).Str("toolID", toolID.Hex()).Msg("Duplicate rating")
			return nil, ErrDuplicateRating
		}
	}

	at := now()
	rating, err := s.ratingRepo.Create(ctx, &models.Rating{
		ToolID:    toolID,
		UserID:    userID,
		Rating:    value,
		CreatedAt: at,
		UpdatedAt: at,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateRating
		}
		log.Error().Err(err).Str("userID", userID.Hex()).Str("toolID", toolID.Hex()).Msg("Failed to create rating")
		return nil, fmt.Errorf("failed to create rating: %w", err)
	}
	metrics.RatingWritesTotal.WithLabelValues("create").Inc()

	log.Info().Str("userID", userID.Hex()).Str("toolID", toolID.Hex()).Msg("Rating created")
	return s.afterWrite(ctx, tool, rating), nil
}

func (s *ratingServiceImpl) UpdateRating(ctx context.Context, userID, toolID primitive.ObjectID, value float64) (*models.RatingResult, error) {
	log.Debug().Str("userID", userID.Hex()).Str("toolID", toolID.Hex()).Float64("rating", value).Msg("Attempting to update rating")

	if err := ValidateRating(value); err != nil {
		log.Warn().Err(err).Str("userID", userID.Hex()).Msg("Rejected rating")
		return nil, err
	}
	tool, err := s.loadTool(ctx, toolID)
	if err != nil {
		return nil, err
	}
	rating, err := s.GetMyRating(ctx, userID, toolID)
	if err != nil {
		return nil, err
	}

	at := now()
	result, err := s.ratingRepo.UpdateValue(ctx, rating.ID, value, at)
	if err != nil {
		log.Error().Err(err).Str("ratingID", rating.ID.Hex()).Msg("Failed to update rating")
		return nil, fmt.Errorf("failed to update rating: %w", err)
	}
	if result.MatchedCount == 0 {
		return nil, ErrRatingNotFound
	}
	rating.Rating = value
	rating.UpdatedAt = at
	metrics.RatingWritesTotal.WithLabelValues("update").Inc()

	log.Info().Str("userID", userID.Hex()).Str("toolID", toolID.Hex()).Msg("Rating updated")
	return s.afterWrite(ctx, tool, rating), nil
}

func (s *ratingServiceImpl) DeleteRating(ctx context.Context, userID, toolID primitive.ObjectID) (*models.RatingResult, error) {
	log.Debug().Str("userID", userID.Hex()).Str("toolID", toolID.Hex()).Msg("Attempting to delete rating")

	tool, err := s.loadTool(ctx, toolID)
	if err != nil {
		return nil, err
	}
	rating, err := s.GetMyRating(ctx, userID, toolID)
	if err != nil {
		return nil, err
	}

	result, err := s.ratingRepo.Delete(ctx, rating.ID)
	if err != nil {
		log.Error().Err(err).Str("ratingID", rating.ID.Hex()).Msg("Failed to delete rating")
		return nil, fmt.Errorf("failed to delete rating: %w", err)
	}
	if result.DeletedCount == 0 {
		return nil, ErrRatingNotFound
	}
	metrics.RatingWritesTotal.WithLabelValues("delete").Inc()

	log.Info().Str("userID", userID.Hex()).Str("toolID", toolID.Hex()).Msg("Rating deleted")
	return s.afterWrite(ctx, tool, nil), nil
}

func (s *ratingServiceImpl) GetMyRating(ctx context.Context, userID, toolID primitive.ObjectID) (*models.Rating, error) {
	rating, err := s.ratingRepo.FindByToolAndUser(ctx, toolID, userID)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ErrRatingNotFound
		}
		log.Error().Err(err).Str("userID", userID.Hex()).Str("toolID", toolID.Hex()).Msg("Failed to retrieve rating")
		return nil, fmt.Errorf("failed to retrieve rating: %w", err)
	}
	return rating, nil
}

func (s *ratingServiceImpl) RecomputeAggregate(ctx context.Context, toolID primitive.ObjectID) (float64, int, error) {
	ratings, err := s.ratingRepo.FindByTool(ctx, toolID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read ratings: %w", err)
	}
	values := make([]float64, len(ratings))
	for i, r := range ratings {
		values[i] = r.Rating
	}
	average := catalog.Average(values)

	if err := s.toolRepo.UpdateAggregate(ctx, toolID, average, len(ratings), now()); err != nil {
		return 0, 0, fmt.Errorf("failed to write aggregate: %w", err)
	}
	s.invalidate(ctx)

	log.Debug().Str("toolID", toolID.Hex()).Float64("average", average).Int("count", len(ratings)).Msg("Aggregate recomputed")
	return average, len(ratings), nil
}

// afterWrite refreshes the aggregate. A failed recompute is logged and the
// tool's previous aggregate is returned; the rating write stands.
func (s *ratingServiceImpl) afterWrite(ctx context.Context, tool *models.Tool, rating *models.Rating) *models.RatingResult {
	result := &models.RatingResult{
		Rating:        rating,
		AverageRating: tool.AverageRating,
		RatingCount:   tool.RatingCount,
	}
	average, count, err := s.RecomputeAggregate(ctx, tool.ID)
	if err != nil {
		metrics.AggregateRecomputeFailuresTotal.Inc()
		log.Error().Err(err).Str("toolID", tool.ID.Hex()).Msg("Aggregate recompute failed")
		return result
	}
	result.AverageRating = average
	result.RatingCount = count
	return result
}
