package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"toolkithub/internal/cache"
	"toolkithub/internal/catalog"
	"toolkithub/internal/models"
	"toolkithub/internal/repositories"
	"toolkithub/internal/validation"
)

var validate = validation.New()

// Actor is the caller of a write. Admins pass every ownership check.
type Actor struct {
	UserID  primitive.ObjectID
	IsAdmin bool
}

// SystemActor is used by operator tooling, which runs with admin rights.
func SystemActor() Actor {
	return Actor{IsAdmin: true}
}

// Owns reports whether a may modify a record created by owner.
func (a Actor) Owns(owner primitive.ObjectID) bool {
	if a.IsAdmin {
		return true
	}
	return !owner.IsZero() && a.UserID == owner
}

func now() time.Time {
	return time.Now().UTC()
}

// checkCategoryName rejects the list sentinel as a category name.
func checkCategoryName(name string) error {
	if strings.EqualFold(strings.TrimSpace(name), catalog.AllCategories) {
		return validation.Errorf("%q is reserved", catalog.AllCategories)
	}
	return nil
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// catalogReader reads the full tool list through the catalog cache.
type catalogReader struct {
	toolRepo repositories.ToolRepository
	cache    cache.CatalogCache
}

func (c catalogReader) all(ctx context.Context) ([]models.Tool, error) {
	tools, hit, err := c.cache.Get(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Catalog cache read failed, falling back to store")
	}
	if hit {
		return tools, nil
	}

	gen, genErr := c.cache.Generation(ctx)
	if genErr != nil {
		log.Error().Err(genErr).Msg("Catalog cache generation read failed, skipping fill")
	}

	tools, err = c.toolRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if genErr == nil {
		if err := c.cache.Set(ctx, gen, tools); err != nil {
			log.Error().Err(err).Msg("Failed to populate catalog cache")
		}
	}
	return tools, nil
}

func (c catalogReader) invalidate(ctx context.Context) {
	if err := c.cache.Invalidate(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to invalidate catalog cache")
	}
}
