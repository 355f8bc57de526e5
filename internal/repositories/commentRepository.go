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

const commentRepo = "comment"

type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error)
	// FindByTool returns every comment of a tool, oldest first.
	FindByTool(ctx context.Context, toolID primitive.ObjectID) ([]models.Comment, error)
	UpdateContent(ctx context.Context, id primitive.ObjectID, content string, at time.Time) (*mongo.UpdateResult, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*mongo.DeleteResult, error)
	DeleteByParent(ctx context.Context, parentID primitive.ObjectID) (int64, error)
	DeleteByTool(ctx context.Context, toolID primitive.ObjectID) (int64, error)
}

type commentRepository struct {
	db database.Service
}

func NewCommentRepository(db database.Service) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) collection() *mongo.Collection {
	return r.db.Collection(database.CommentsCollection)
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) (_ *models.Comment, err error) {
	defer utils.TrackQuery("create", commentRepo)(&err)

	if comment.ID.IsZero() {
		comment.ID = primitive.NewObjectID()
	}
	if _, err = r.collection().InsertOne(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to insert comment: %w", err)
	}
	return comment, nil
}

func (r *commentRepository) FindByID(ctx context.Context, id primitive.ObjectID) (_ *models.Comment, err error) {
	defer utils.TrackQuery("findByID", commentRepo)(&err)

	var comment models.Comment
	if err = r.collection().FindOne(ctx, bson.M{"_id": id}).Decode(&comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) FindByTool(ctx context.Context, toolID primitive.ObjectID) (_ []models.Comment, err error) {
	defer utils.TrackQuery("findByTool", commentRepo)(&err)

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection().Find(ctx, bson.M{"tool_id": toolID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve comments: %w", err)
	}
	defer cursor.Close(ctx)

	comments := []models.Comment{}
	if err = cursor.All(ctx, &comments); err != nil {
		return nil, fmt.Errorf("error decoding comments: %w", err)
	}
	return comments, nil
}

func (r *commentRepository) UpdateContent(ctx context.Context, id primitive.ObjectID, content string, at time.Time) (_ *mongo.UpdateResult, err error) {
	defer utils.TrackQuery("update", commentRepo)(&err)

	update := bson.M{"$set": bson.M{"content": content, "updated_at": at}}
	result, err := r.collection().UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}
	return result, nil
}

func (r *commentRepository) Delete(ctx context.Context, id primitive.ObjectID) (_ *mongo.DeleteResult, err error) {
	defer utils.TrackQuery("delete", commentRepo)(&err)

	result, err := r.collection().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to delete comment: %w", err)
	}
	return result, nil
}

func (r *commentRepository) DeleteByParent(ctx context.Context, parentID primitive.ObjectID) (_ int64, err error) {
	defer utils.TrackQuery("deleteByParent", commentRepo)(&err)

	result, err := r.collection().DeleteMany(ctx, bson.M{"parent_id": parentID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete replies: %w", err)
	}
	return result.DeletedCount, nil
}

func (r *commentRepository) DeleteByTool(ctx context.Context, toolID primitive.ObjectID) (_ int64, err error) {
	defer utils.TrackQuery("deleteByTool", commentRepo)(&err)

	result, err := r.collection().DeleteMany(ctx, bson.M{"tool_id": toolID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete comments for tool: %w", err)
	}
	return result.DeletedCount, nil
}
