package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"toolkithub/internal/database"
	"toolkithub/internal/models"
	"toolkithub/internal/utils"
)

const categoryRepo = "category"

type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) (*models.Category, error)
	FindAll(ctx context.Context) ([]models.Category, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error)
	FindByName(ctx context.Context, name string) (*models.Category, error)
	Rename(ctx context.Context, id primitive.ObjectID, name string) (*mongo.UpdateResult, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*mongo.DeleteResult, error)
	// Upsert inserts a category with the given name unless one exists and
	// reports whether it was created.
	Upsert(ctx context.Context, name string, at time.Time) (bool, error)
}

type categoryRepository struct {
	db database.Service
}

func NewCategoryRepository(db database.Service) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) collection() *mongo.Collection {
	return r.db.Collection(database.CategoriesCollection)
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) (_ *models.Category, err error) {
	defer utils.TrackQuery("create", categoryRepo)(&err)

	if category.ID.IsZero() {
		category.ID = primitive.NewObjectID()
	}
	if _, err = r.collection().InsertOne(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to insert category: %w", err)
	}
	return category, nil
}

func (r *categoryRepository) FindAll(ctx context.Context) (_ []models.Category, err error) {
	defer utils.TrackQuery("findAll", categoryRepo)(&err)

	cursor, err := r.collection().Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve categories: %w", err)
	}
	defer cursor.Close(ctx)

	categories := []models.Category{}
	if err = cursor.All(ctx, &categories); err != nil {
		return nil, fmt.Errorf("error decoding categories: %w", err)
	}
	return categories, nil
}

func (r *categoryRepository) FindByID(ctx context.Context, id primitive.ObjectID) (_ *models.Category, err error) {
	defer utils.TrackQuery("findByID", categoryRepo)(&err)

	var category models.Category
	if err = r.collection().FindOne(ctx, bson.M{"_id": id}).Decode(&category); err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) FindByName(ctx context.Context, name string) (_ *models.Category, err error) {
	defer utils.TrackQuery("findByName", categoryRepo)(&err)

	var category models.Category
	if err = r.collection().FindOne(ctx, bson.M{"name": name}).Decode(&category); err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) Rename(ctx context.Context, id primitive.ObjectID, name string) (_ *mongo.UpdateResult, err error) {
	defer utils.TrackQuery("rename", categoryRepo)(&err)

	result, err := r.collection().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"name": name}})
	if err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return result, nil
}

func (r *categoryRepository) Delete(ctx context.Context, id primitive.ObjectID) (_ *mongo.DeleteResult, err error) {
	defer utils.TrackQuery("delete", categoryRepo)(&err)

	result, err := r.collection().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to delete category: %w", err)
	}
	return result, nil
}

func (r *categoryRepository) Upsert(ctx context.Context, name string, at time.Time) (_ bool, err error) {
	defer utils.TrackQuery("upsert", categoryRepo)(&err)

	update := bson.M{"$setOnInsert": bson.M{"_id": primitive.NewObjectID(), "name": name, "created_at": at}}
	result, err := r.collection().UpdateOne(ctx, bson.M{"name": name}, update, options.Update().SetUpsert(true))
	if err != nil {
		return false, fmt.Errorf("failed to upsert category %q: %w", name, err)
	}
	return result.UpsertedCount > 0, nil
}
