package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"toolkithub/internal/metrics"
	"toolkithub/internal/models"
	"toolkithub/internal/repositories"
)

type BookmarkService interface {
	// Toggle flips the caller's bookmark on a tool and returns the new state.
	Toggle(ctx context.Context, userID, toolID primitive.ObjectID) (*models.BookmarkToggleResult, error)
	IsBookmarked(ctx context.Context, userID, toolID primitive.ObjectID) (bool, error)
	GetBookmarkedToolIDs(ctx context.Context, userID primitive.ObjectID) (map[primitive.ObjectID]struct{}, error)
	// GetBookmarkedTools returns the bookmarked tools, most recently
	// bookmarked first. Bookmarks of deleted tools are skipped.
	GetBookmarkedTools(ctx context.Context, userID primitive.ObjectID) ([]models.Tool, error)
}

type bookmarkServiceImpl struct {
	bookmarkRepo repositories.BookmarkRepository
	toolRepo     repositories.ToolRepository
}

func NewBookmarkService(bookmarkRepo repositories.BookmarkRepository, toolRepo repositories.ToolRepository) BookmarkService {
	return &bookmarkServiceImpl{bookmarkRepo: bookmarkRepo, toolRepo: toolRepo}
}

func (s *bookmarkServiceImpl) Toggle(ctx context.Context, userID, toolID primitive.ObjectID) (*models.BookmarkToggleResult, error) {
	log.Debug().Str("userID", userID.Hex()).Str("toolID", toolID.Hex()).Msg("Toggling bookmark")

	if _, err := s.toolRepo.FindByID(ctx, toolID); err != nil {
		if isNoDocuments(err) {
			return nil, ErrToolNotFound
		}
		return nil, fmt.Errorf("failed to retrieve tool: %w", err)
	}

	existing, err := s.bookmarkRepo.FindByUserAndTool(ctx, userID, toolID)
	switch {
	case err == nil:
		if _, err := s.bookmarkRepo.Delete(ctx, existing.ID); err != nil {
			log.Error().Err(err).Str("userID", userID.Hex()).Str("toolID", toolID.Hex()).Msg("Failed to remove bookmark")
			return nil, fmt.Errorf("failed to remove bookmark: %w", err)
		}
		metrics.BookmarkTogglesTotal.WithLabelValues("removed").Inc()
		log.Info().Str("userID", userID.Hex()).Str("toolID", toolID.Hex()).Msg("Bookmark removed")
		return &models.BookmarkToggleResult{ToolID: toolID, Bookmarked: false}, nil

	case isNoDocuments(err):
		_, err := s.bookmarkRepo.Create(ctx, &models.Bookmark{ToolID: toolID, UserID: userID, CreatedAt: now()})
		if err != nil && !mongo.IsDuplicateKeyError(err) {
			log.Error().Err(err).Str("userID", userID.Hex()).Str("toolID", toolID.Hex()).Msg("Failed to add bookmark")
			return nil, fmt.Errorf("failed to add bookmark: %w", err)
		}
		metrics.BookmarkTogglesTotal.WithLabelValues("added").Inc()
		log.Info().Str("userID", userID.Hex()).Str("toolID", toolID.Hex()).Msg("Bookmark added")
		return &models.BookmarkToggleResult{ToolID: toolID, Bookmarked: true}, nil

	default:
		log.Error().Err(err).Str("userID", userID.Hex()).Str("toolID", toolID.Hex()).Msg("Failed to read bookmark")
		return nil, fmt.Errorf("failed to read bookmark: %w", err)
	}
}

func (s *bookmarkServiceImpl) IsBookmarked(ctx context.Context, userID, toolID primitive.ObjectID) (bool, error) {
	_, err := s.bookmarkRepo.FindByUserAndTool(ctx, userID, toolID)
	if err == nil {
		return true, nil
	}
	if isNoDocuments(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to read bookmark: %w", err)
}

func (s *bookmarkServiceImpl) GetBookmarkedToolIDs(ctx context.Context, userID primitive.ObjectID) (map[primitive.ObjectID]struct{}, error) {
	bookmarks, err := s.bookmarkRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve bookmarks: %w", err)
	}
	ids := make(map[primitive.ObjectID]struct{}, len(bookmarks))
	for _, bm := range bookmarks {
		ids[bm.ToolID] = struct{}{}
	}
	return ids, nil
}

func (s *bookmarkServiceImpl) GetBookmarkedTools(ctx context.Context, userID primitive.ObjectID) ([]models.Tool, error) {
	bookmarks, err := s.bookmarkRepo.FindByUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("userID", userID.Hex()).Msg("Failed to retrieve bookmarks")
		return nil, fmt.Errorf("failed to retrieve bookmarks: %w", err)
	}
	ids := make([]primitive.ObjectID, 0, len(bookmarks))
	for _, bm := range bookmarks {
		ids = append(ids, bm.ToolID)
	}
	tools, err := s.toolRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve bookmarked tools: %w", err)
	}

	byID := make(map[primitive.ObjectID]models.Tool, len(tools))
	for _, t := range tools {
		byID[t.ID] = t
	}
	out := make([]models.Tool, 0, len(tools))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}
