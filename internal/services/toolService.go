package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"toolkithub/internal/cache"
	"toolkithub/internal/catalog"
	"toolkithub/internal/metrics"
	"toolkithub/internal/models"
	"toolkithub/internal/repositories"
	"toolkithub/internal/validation"
)

const searchLimit = 50

type ToolService interface {
	ListTools(ctx context.Context, filter catalog.Filter, userID primitive.ObjectID) (*models.ToolPage, error)
	GetTool(ctx context.Context, toolID primitive.ObjectID) (*models.Tool, error)
	AddTool(ctx context.Context, actor Actor, reqBody models.AddToolRequestBody) (*models.Tool, error)
	UpdateTool(ctx context.Context, actor Actor, toolID primitive.ObjectID, reqBody models.UpdateToolRequestBody) (*models.Tool, error)
	DeleteTool(ctx context.Context, actor Actor, toolID primitive.ObjectID, cascade bool) error
	SearchByName(ctx context.Context, term string) ([]models.Tool, error)
	Summary(ctx context.Context) (*catalog.Summary, error)
}

type toolServiceImpl struct {
	catalogReader
	categoryRepo repositories.CategoryRepository
	ratingRepo   repositories.RatingRepository
	commentRepo  repositories.CommentRepository
	bookmarkRepo repositories.BookmarkRepository
	bookmarks    BookmarkService
}

func NewToolService(
	toolRepo repositories.ToolRepository,
	categoryRepo repositories.CategoryRepository,
	ratingRepo repositories.RatingRepository,
	commentRepo repositories.CommentRepository,
	bookmarkRepo repositories.BookmarkRepository,
	catalogCache cache.CatalogCache,
) ToolService {
	return &toolServiceImpl{
		catalogReader: catalogReader{toolRepo: toolRepo, cache: catalogCache},
		categoryRepo:  categoryRepo,
		ratingRepo:    ratingRepo,
		commentRepo:   commentRepo,
		bookmarkRepo:  bookmarkRepo,
		bookmarks:     NewBookmarkService(bookmarkRepo, toolRepo),
	}
}

func (s *toolServiceImpl) ListTools(ctx context.Context, filter catalog.Filter, userID primitive.ObjectID) (*models.ToolPage, error) {
	log.Debug().Str("category", filter.Category).Str("sort", string(filter.Sort)).Int("page", filter.Page).Msg("Listing tools")

	tools, err := s.all(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load tool catalog")
		return nil, fmt.Errorf("failed to load tools: %w", err)
	}

	if filter.BookmarkedOnly {
		filter.BookmarkIDs = map[primitive.ObjectID]struct{}{}
		if !userID.IsZero() {
			ids, err := s.bookmarks.GetBookmarkedToolIDs(ctx, userID)
			if err != nil {
				log.Error().Err(err).Str("userID", userID.Hex()).Msg("Failed to load bookmarks for list filter")
				return nil, err
			}
			filter.BookmarkIDs = ids
		}
	}

	page := catalog.Apply(tools, filter)
	log.Debug().Int("total", page.Total).Int("page", page.Page).Msg("Tools listed")
	return &page, nil
}

func (s *toolServiceImpl) GetTool(ctx context.Context, toolID primitive.ObjectID) (*models.Tool, error) {
	tool, err := s.toolRepo.FindByID(ctx, toolID)
	if err != nil {
		if isNoDocuments(err) {
			log.Warn().Str("toolID", toolID.Hex()).Msg("Tool not found")
			return nil, ErrToolNotFound
		}
		log.Error().Err(err).Str("toolID", toolID.Hex()).Msg("Failed to retrieve tool")
		return nil, fmt.Errorf("failed to retrieve tool: %w", err)
	}
	return tool, nil
}

func (s *toolServiceImpl) AddTool(ctx context.Context, actor Actor, reqBody models.AddToolRequestBody) (*models.Tool, error) {
	log.Debug().Str("userID", actor.UserID.Hex()).Str("name", reqBody.Name).Msg("Attempting to add tool")

	reqBody.Name = strings.TrimSpace(reqBody.Name)
	reqBody.Category = strings.TrimSpace(reqBody.Category)
	reqBody.URL = strings.TrimSpace(reqBody.URL)
	reqBody.Description = strings.TrimSpace(reqBody.Description)
	if reqBody.Plan == "" {
		reqBody.Plan = models.PlanNone
	}
	if err := validate.Validate(reqBody); err != nil {
		log.Warn().Err(err).Str("userID", actor.UserID.Hex()).Msg("Rejected tool")
		return nil, err
	}
	if err := s.requireCategory(ctx, reqBody.Category); err != nil {
		return nil, err
	}

	at := now()
	tool := &models.Tool{
		Name:        reqBody.Name,
		Category:    reqBody.Category,
		URL:         reqBody.URL,
		Description: reqBody.Description,
		Memo:        reqBody.Memo,
		Plan:        reqBody.Plan,
		CreatedAt:   at,
		UpdatedAt:   at,
		CreatedBy:   actor.UserID,
	}
	created, err := s.toolRepo.Create(ctx, tool)
	if err != nil {
		log.Error().Err(err).Str("userID", actor.UserID.Hex()).Msg("Failed to create tool")
		return nil, fmt.Errorf("failed to create tool: %w", err)
	}
	s.invalidate(ctx)
	metrics.ToolWritesTotal.WithLabelValues("create").Inc()

	log.Info().Str("userID", actor.UserID.Hex()).Str("toolID", created.ID.Hex()).Msg("Tool created")
	return created, nil
}

func (s *toolServiceImpl) UpdateTool(ctx context.Context, actor Actor, toolID primitive.ObjectID, reqBody models.UpdateToolRequestBody) (*models.Tool, error) {
	log.Debug().Str("userID", actor.UserID.Hex()).Str("toolID", toolID.Hex()).Msg("Attempting to update tool")

	if err := validate.Validate(reqBody); err != nil {
		log.Warn().Err(err).Str("toolID", toolID.Hex()).Msg("Rejected tool update")
		return nil, err
	}

	tool, err := s.GetTool(ctx, toolID)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(tool.CreatedBy) {
		log.Warn().Str("userID", actor.UserID.Hex()).Str("toolID", toolID.Hex()).Msg("Tool update forbidden")
		return nil, ErrNotOwner
	}

	if reqBody.Name != nil {
		tool.Name = strings.TrimSpace(*reqBody.Name)
	}
	if reqBody.Category != nil {
		category := strings.TrimSpace(*reqBody.Category)
		if category != tool.Category {
			if err := s.requireCategory(ctx, category); err != nil {
				return nil, err
			}
		}
		tool.Category = category
	}
	if reqBody.URL != nil {
		tool.URL = strings.TrimSpace(*reqBody.URL)
	}
	if reqBody.Description != nil {
		tool.Description = strings.TrimSpace(*reqBody.Description)
	}
	if reqBody.Memo != nil {
		tool.Memo = *reqBody.Memo
	}
	if reqBody.Plan != nil {
		tool.Plan = *reqBody.Plan
	}
	if tool.Name == "" || tool.Description == "" {
		return nil, validation.Errorf("name and description must not be blank")
	}
	tool.UpdatedAt = now()

	result, err := s.toolRepo.Update(ctx, tool)
	if err != nil {
		log.Error().Err(err).Str("toolID", toolID.Hex()).Msg("Failed to update tool")
		return nil, fmt.Errorf("failed to update tool: %w", err)
	}
	if result.MatchedCount == 0 {
		return nil, ErrToolNotFound
	}
	s.invalidate(ctx)
	metrics.ToolWritesTotal.WithLabelValues("update").Inc()

	log.Info().Str("userID", actor.UserID.Hex()).Str("toolID", toolID.Hex()).Msg("Tool updated")
	return tool, nil
}

// DeleteTool removes a tool. With cascade, which only admins may request,
// the tool's ratings, comments and bookmarks are removed first.
func (s *toolServiceImpl) DeleteTool(ctx context.Context, actor Actor, toolID primitive.ObjectID, cascade bool) error {
	log.Debug().Str("userID", actor.UserID.Hex()).Str("toolID", toolID.Hex()).Bool("cascade", cascade).Msg("Attempting to delete tool")

	if cascade && !actor.IsAdmin {
		return ErrAdminOnly
	}
	tool, err := s.GetTool(ctx, toolID)
	if err != nil {
		return err
	}
	if !actor.Owns(tool.CreatedBy) {
		log.Warn().Str("userID", actor.UserID.Hex()).Str("toolID", toolID.Hex()).Msg("Tool delete forbidden")
		return ErrNotOwner
	}

	if cascade {
		ratings, err := s.ratingRepo.DeleteByTool(ctx, toolID)
		if err != nil {
			return fmt.Errorf("failed to delete ratings: %w", err)
		}
		comments, err := s.commentRepo.DeleteByTool(ctx, toolID)
		if err != nil {
			return fmt.Errorf("failed to delete comments: %w", err)
		}
		bookmarks, err := s.bookmarkRepo.DeleteByTool(ctx, toolID)
		if err != nil {
			return fmt.Errorf("failed to delete bookmarks: %w", err)
		}
		log.Info().Str("toolID", toolID.Hex()).
			Int64("ratings", ratings).
			Int64("comments", comments).
			Int64("bookmarks", bookmarks).
			Msg("Cascaded tool delete")
	}

	result, err := s.toolRepo.Delete(ctx, toolID)
	if err != nil {
		log.Error().Err(err).Str("toolID", toolID.Hex()).Msg("Failed to delete tool")
		return fmt.Errorf("failed to delete tool: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrToolNotFound
	}
	s.invalidate(ctx)
	metrics.ToolWritesTotal.WithLabelValues("delete").Inc()

	log.Info().Str("userID", actor.UserID.Hex()).Str("toolID", toolID.Hex()).Msg("Tool deleted")
	return nil
}

func (s *toolServiceImpl) SearchByName(ctx context.Context, term string) ([]models.Tool, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, validation.Errorf("search term is required")
	}
	tools, err := s.toolRepo.SearchByName(ctx, term, searchLimit)
	if err != nil {
		log.Error().Err(err).Str("term", term).Msg("Failed to search tools")
		return nil, fmt.Errorf("failed to search tools: %w", err)
	}
	return tools, nil
}

func (s *toolServiceImpl) Summary(ctx context.Context) (*catalog.Summary, error) {
	tools, err := s.all(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tools: %w", err)
	}
	summary := catalog.Summarize(tools)
	return &summary, nil
}

func (s *toolServiceImpl) requireCategory(ctx context.Context, name string) error {
	if _, err := s.categoryRepo.FindByName(ctx, name); err != nil {
		if isNoDocuments(err) {
			log.Warn().Str("category", name).Msg("Unknown category")
			return &validation.Error{Message: "validation failed", Fields: map[string]string{"category": fmt.Sprintf("%q does not exist", name)}}
		}
		return fmt.Errorf("failed to look up category: %w", err)
	}
	return nil
}
