package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"toolkithub/internal/database"
	"toolkithub/internal/models"
	"toolkithub/internal/utils"
)

const ratingRepo = "rating"

type RatingRepository interface {
	Create(ctx context.Context, rating *models.Rating) (*models.Rating, error)
	FindByTool(ctx context.Context, toolID primitive.ObjectID) ([]models.Rating, error)
	FindByToolAndUser(ctx context.Context, toolID, userID primitive.ObjectID) (*models.Rating, error)
	UpdateValue(ctx context.Context, id primitive.ObjectID, value float64, at time.Time) (*mongo.UpdateResult, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*mongo.DeleteResult, error)
	DeleteByTool(ctx context.Context, toolID primitive.ObjectID) (int64, error)
}

type ratingRepository struct {
	db database.Service
}

func NewRatingRepository(db database.Service) RatingRepository {
	return &ratingRepository{db: db}
}

func (r *ratingRepository) collection() *mongo.Collection {
	return r.db.Collection(database.RatingsCollection)
}

func (r *ratingRepository) Create(ctx context.Context, rating *models.Rating) (_ *models.Rating, err error) {
	defer utils.TrackQuery("create", ratingRepo)(&err)

	if rating.ID.IsZero() {
		rating.ID = primitive.NewObjectID()
	}
	if _, err = r.collection().InsertOne(ctx, rating); err != nil {
		return nil, fmt.Errorf("failed to insert rating: %w", err)
	}
	return rating, nil
}

func (r *ratingRepository) FindByTool(ctx context.Context, toolID primitive.ObjectID) (_ []models.Rating, err error) {
	defer utils.TrackQuery("findByTool", ratingRepo)(&err)

	cursor, err := r.collection().Find(ctx, bson.M{"tool_id": toolID})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve ratings: %w", err)
	}
	defer cursor.Close(ctx)

	ratings := []models.Rating{}
	if err = cursor.All(ctx, &ratings); err != nil {
		return nil, fmt.Errorf("error decoding ratings: %w", err)
	}
	return ratings, nil
}

func (r *ratingRepository) FindByToolAndUser(ctx context.Context, toolID, userID primitive.ObjectID) (_ *models.Rating, err error) {
	defer utils.TrackQuery("findByToolAndUser", ratingRepo)(&err)

	var rating models.Rating
	if err = r.collection().FindOne(ctx, bson.M{"tool_id": toolID, "user_id": userID}).Decode(&rating); err != nil {
		return nil, err
	}
	return &rating, nil
}

func (r *ratingRepository) UpdateValue(ctx context.Context, id primitive.ObjectID, value float64, at time.Time) (_ *mongo.UpdateResult, err error) {
	defer utils.TrackQuery("update", ratingRepo)(&err)

	update := bson.M{"$set": bson.M{"rating": value, "updated_at": at}}
	result, err := r.collection().UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update rating: %w", err)
	}
	return result, nil
}

func (r *ratingRepository) Delete(ctx context.Context, id primitive.ObjectID) (_ *mongo.DeleteResult, err error) {
	defer utils.TrackQuery("delete", ratingRepo)(&err)

	result, err := r.collection().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to delete rating: %w", err)
	}
	return result, nil
}

func (r *ratingRepository) DeleteByTool(ctx context.Context, toolID primitive.ObjectID) (_ int64, err error) {
	defer utils.TrackQuery("deleteByTool", ratingRepo)(&err)

	result, err := r.collection().DeleteMany(ctx, bson.M{"tool_id": toolID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete ratings for tool: %w", err)
	}
	return result.DeletedCount, nil
}
