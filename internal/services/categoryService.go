package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"toolkithub/internal/cache"
	"toolkithub/internal/catalog"
	"toolkithub/internal/metrics"
	"toolkithub/internal/models"
	"toolkithub/internal/repositories"
)

type CategoryService interface {
	AddCategory(ctx context.Context, name string) (*models.Category, error)
	GetCategories(ctx context.Context) ([]models.CategoryWithCount, error)
	GetCategoryByID(ctx context.Context, categoryID primitive.ObjectID) (*models.Category, error)
	UpdateCategory(ctx context.Context, categoryID primitive.ObjectID, update models.CategoryUpdate) (*models.Category, error)
	DeleteCategory(ctx context.Context, categoryID primitive.ObjectID) error
}

type categoryServiceImpl struct {
	catalogReader
	categoryRepo repositories.CategoryRepository
}

func NewCategoryService(categoryRepo repositories.CategoryRepository, toolRepo repositories.ToolRepository, catalogCache cache.CatalogCache) CategoryService {
	return &categoryServiceImpl{
		catalogReader: catalogReader{toolRepo: toolRepo, cache: catalogCache},
		categoryRepo:  categoryRepo,
	}
}

func (s *categoryServiceImpl) validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if err := validate.Validate(models.Category{Name: name}); err != nil {
		return "", err
	}
	if err := checkCategoryName(name); err != nil {
		return "", err
	}
	return name, nil
}

func (s *categoryServiceImpl) AddCategory(ctx context.Context, name string) (*models.Category, error) {
	log.Debug().Str("name", name).Msg("Attempting to add category")

	name, err := s.validateName(name)
	if err != nil {
		log.Warn().Err(err).Msg("Rejected category")
		return nil, err
	}
	if _, err := s.categoryRepo.FindByName(ctx, name); err == nil {
		return nil, ErrCategoryExists
	} else if !isNoDocuments(err) {
		return nil, fmt.Errorf("failed to look up category: %w", err)
	}

	category, err := s.categoryRepo.Create(ctx, &models.Category{Name: name, CreatedAt: now()})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrCategoryExists
		}
		log.Error().Err(err).Str("name", name).Msg("Failed to create category")
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	metrics.CategoryCreatedTotal.Inc()

	log.Info().Str("categoryID", category.ID.Hex()).Str("name", name).Msg("Category created")
	return category, nil
}

// GetCategories returns every category with the number of tools filed under it.
func (s *categoryServiceImpl) GetCategories(ctx context.Context) ([]models.CategoryWithCount, error) {
	categories, err := s.categoryRepo.FindAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to retrieve categories")
		return nil, fmt.Errorf("failed to retrieve categories: %w", err)
	}
	tools, err := s.all(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tools: %w", err)
	}
	counts := catalog.Summarize(tools).ByCategory

	out := make([]models.CategoryWithCount, 0, len(categories))
	for _, c := range categories {
		out = append(out, models.CategoryWithCount{Category: c, ToolCount: counts[c.Name]})
	}
	return out, nil
}

func (s *categoryServiceImpl) GetCategoryByID(ctx context.Context, categoryID primitive.ObjectID) (*models.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, categoryID)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ErrCategoryNotFound
		}
		log.Error().Err(err).Str("categoryID", categoryID.Hex()).Msg("Failed to retrieve category")
		return nil, fmt.Errorf("failed to retrieve category: %w", err)
	}
	return category, nil
}

// UpdateCategory renames a category and every tool filed under the old name.
func (s *categoryServiceImpl) UpdateCategory(ctx context.Context, categoryID primitive.ObjectID, update models.CategoryUpdate) (*models.Category, error) {
	category, err := s.GetCategoryByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if update.Name == nil {
		return category, nil
	}
	name, err := s.validateName(*update.Name)
	if err != nil {
		return nil, err
	}
	if name == category.Name {
		return category, nil
	}
	if _, err := s.categoryRepo.FindByName(ctx, name); err == nil {
		return nil, ErrCategoryExists
	} else if !isNoDocuments(err) {
		return nil, fmt.Errorf("failed to look up category: %w", err)
	}

	if _, err := s.categoryRepo.Rename(ctx, categoryID, name); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrCategoryExists
		}
		return nil, fmt.Errorf("failed to rename category: %w", err)
	}
	moved, err := s.toolRepo.RenameCategory(ctx, category.Name, name, now())
	if err != nil {
		log.Error().Err(err).Str("from", category.Name).Str("to", name).Msg("Failed to move tools to renamed category")
		return nil, fmt.Errorf("failed to move tools to renamed category: %w", err)
	}
	s.invalidate(ctx)

	log.Info().Str("categoryID", categoryID.Hex()).Str("from", category.Name).Str("to", name).Int64("tools", moved).Msg("Category renamed")
	category.Name = name
	return category, nil
}

func (s *categoryServiceImpl) DeleteCategory(ctx context.Context, categoryID primitive.ObjectID) error {
	category, err := s.GetCategoryByID(ctx, categoryID)
	if err != nil {
		return err
	}
	inUse, err := s.toolRepo.CountByCategory(ctx, category.Name)
	if err != nil {
		return fmt.Errorf("failed to count tools in category: %w", err)
	}
	if inUse > 0 {
		log.Warn().Str("categoryID", categoryID.Hex()).Int64("tools", inUse).Msg("Refusing to delete category in use")
		return ErrCategoryInUse
	}

	result, err := s.categoryRepo.Delete(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrCategoryNotFound
	}
	log.Info().Str("categoryID", categoryID.Hex()).Str("name", category.Name).Msg("Category deleted")
	return nil
}
