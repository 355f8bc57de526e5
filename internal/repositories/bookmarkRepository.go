package repositories

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"toolkithub/internal/database"
	"toolkithub/internal/models"
	"toolkithub/internal/utils"
)

const bookmarkRepo = "bookmark"

type BookmarkRepository interface {
	Create(ctx context.Context, bm *models.Bookmark) (*models.Bookmark, error)
	FindByUserAndTool(ctx context.Context, userID, toolID primitive.ObjectID) (*models.Bookmark, error)
	// FindByUser returns the user's bookmarks, newest first.
	FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Bookmark, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*mongo.DeleteResult, error)
	DeleteByTool(ctx context.Context, toolID primitive.ObjectID) (int64, error)
}

type bookmarkRepository struct {
	db database.Service
}

func NewBookmarkRepository(db database.Service) BookmarkRepository {
	return &bookmarkRepository{db: db}
}

func (r *bookmarkRepository) collection() *mongo.Collection {
	return r.db.Collection(database.BookmarksCollection)
}

func (r *bookmarkRepository) Create(ctx context.Context, bm *models.Bookmark) (_ *models.Bookmark, err error) {
	defer utils.TrackQuery("create", bookmarkRepo)(&err)

	if bm.ID.IsZero() {
		bm.ID = primitive.NewObjectID()
	}
	if _, err = r.collection().InsertOne(ctx, bm); err != nil {
		return nil, fmt.Errorf("failed to insert bookmark: %w", err)
	}
	return bm, nil
}

func (r *bookmarkRepository) FindByUserAndTool(ctx context.Context, userID, toolID primitive.ObjectID) (_ *models.Bookmark, err error) {
	defer utils.TrackQuery("findByUserAndTool", bookmarkRepo)(&err)

	var bm models.Bookmark
	if err = r.collection().FindOne(ctx, bson.M{"user_id": userID, "tool_id": toolID}).Decode(&bm); err != nil {
		return nil, err
	}
	return &bm, nil
}

func (r *bookmarkRepository) FindByUser(ctx context.Context, userID primitive.ObjectID) (_ []models.Bookmark, err error) {
	defer utils.TrackQuery("findByUser", bookmarkRepo)(&err)

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection().Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve bookmarks: %w", err)
	}
	defer cursor.Close(ctx)

	bookmarks := []models.Bookmark{}
	if err = cursor.All(ctx, &bookmarks); err != nil {
		return nil, fmt.Errorf("error decoding bookmarks: %w", err)
	}
	return bookmarks, nil
}

func (r *bookmarkRepository) Delete(ctx context.Context, id primitive.ObjectID) (_ *mongo.DeleteResult, err error) {
	defer utils.TrackQuery("delete", bookmarkRepo)(&err)

	result, err := r.collection().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to delete bookmark: %w", err)
	}
	return result, nil
}

func (r *bookmarkRepository) DeleteByTool(ctx context.Context, toolID primitive.ObjectID) (_ int64, err error) {
	defer utils.TrackQuery("deleteByTool", bookmarkRepo)(&err)

	result, err := r.collection().DeleteMany(ctx, bson.M{"tool_id": toolID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete bookmarks for tool: %w", err)
	}
	return result.DeletedCount, nil
}
