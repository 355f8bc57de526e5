package repositories

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"toolkithub/internal/database"
	"toolkithub/internal/models"
	"toolkithub/internal/utils"
)

const toolRepo = "tool"

type ToolRepository interface {
	Create(ctx context.Context, tool *models.Tool) (*models.Tool, error)
	InsertMany(ctx context.Context, tools []models.Tool) (int, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Tool, error)
	FindAll(ctx context.Context) ([]models.Tool, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Tool, error)
	SearchByName(ctx context.Context, term string, limit int64) ([]models.Tool, error)
	Update(ctx context.Context, tool *models.Tool) (*mongo.UpdateResult, error)
	UpdateAggregate(ctx context.Context, id primitive.ObjectID, average float64, count int, at time.Time) error
	Touch(ctx context.Context, id primitive.ObjectID, at time.Time) error
	RenameCategory(ctx context.Context, from, to string, at time.Time) (int64, error)
	CountByCategory(ctx context.Context, category string) (int64, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*mongo.DeleteResult, error)
	DeleteMany(ctx context.Context, ids []primitive.ObjectID) (int64, error)
	ListIDs(ctx context.Context) ([]primitive.ObjectID, error)
}

type toolRepository struct {
	db database.Service
}

func NewToolRepository(db database.Service) ToolRepository {
	return &toolRepository{db: db}
}

func (r *toolRepository) collection() *mongo.Collection {
	return r.db.Collection(database.ToolsCollection)
}

func (r *toolRepository) Create(ctx context.Context, tool *models.Tool) (_ *models.Tool, err error) {
	defer utils.TrackQuery("create", toolRepo)(&err)

	if tool.ID.IsZero() {
		tool.ID = primitive.NewObjectID()
	}
	if _, err = r.collection().InsertOne(ctx, tool); err != nil {
		return nil, fmt.Errorf("failed to insert tool: %w", err)
	}
	return tool, nil
}

func (r *toolRepository) InsertMany(ctx context.Context, tools []models.Tool) (_ int, err error) {
	defer utils.TrackQuery("insertMany", toolRepo)(&err)

	if len(tools) == 0 {
		return 0, nil
	}
	docs := make([]interface{}, 0, len(tools))
	for i := range tools {
		if tools[i].ID.IsZero() {
			tools[i].ID = primitive.NewObjectID()
		}
		docs = append(docs, tools[i])
	}
	result, err := r.collection().InsertMany(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("failed to insert tools: %w", err)
	}
	return len(result.InsertedIDs), nil
}

func (r *toolRepository) FindByID(ctx context.Context, id primitive.ObjectID) (_ *models.Tool, err error) {
	defer utils.TrackQuery("findByID", toolRepo)(&err)

	var tool models.Tool
	if err = r.collection().FindOne(ctx, bson.M{"_id": id}).Decode(&tool); err != nil {
		return nil, err
	}
	return &tool, nil
}

func (r *toolRepository) FindAll(ctx context.Context) (_ []models.Tool, err error) {
	defer utils.TrackQuery("findAll", toolRepo)(&err)
	return r.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}))
}

func (r *toolRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (_ []models.Tool, err error) {
	defer utils.TrackQuery("findByIDs", toolRepo)(&err)

	if len(ids) == 0 {
		return []models.Tool{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *toolRepository) SearchByName(ctx context.Context, term string, limit int64) (_ []models.Tool, err error) {
	defer utils.TrackQuery("searchByName", toolRepo)(&err)

	filter := bson.M{"name": primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return r.find(ctx, filter, opts)
}

func (r *toolRepository) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Tool, error) {
	cursor, err := r.collection().Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tools: %w", err)
	}
	defer cursor.Close(ctx)

	tools := []models.Tool{}
	if err := cursor.All(ctx, &tools); err != nil {
		return nil, fmt.Errorf("error decoding tools: %w", err)
	}
	return tools, nil
}

// Update writes the editable fields of tool. The rating aggregate is left
// alone so an edit never overwrites a concurrent recompute.
func (r *toolRepository) Update(ctx context.Context, tool *models.Tool) (_ *mongo.UpdateResult, err error) {
	defer utils.TrackQuery("update", toolRepo)(&err)

	update := bson.M{"$set": bson.M{
		"name":        tool.Name,
		"category":    tool.Category,
		"url":         tool.URL,
		"description": tool.Description,
		"memo":        tool.Memo,
		"plan":        tool.Plan,
		"updated_at":  tool.UpdatedAt,
	}}
	result, err := r.collection().UpdateOne(ctx, bson.M{"_id": tool.ID}, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update tool: %w", err)
	}
	return result, nil
}

func (r *toolRepository) UpdateAggregate(ctx context.Context, id primitive.ObjectID, average float64, count int, at time.Time) (err error) {
	defer utils.TrackQuery("updateAggregate", toolRepo)(&err)

	update := bson.M{"$set": bson.M{
		"average_rating": average,
		"rating_count":   count,
		"updated_at":     at,
	}}
	result, err := r.collection().UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update tool aggregate: %w", err)
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *toolRepository) Touch(ctx context.Context, id primitive.ObjectID, at time.Time) (err error) {
	defer utils.TrackQuery("touch", toolRepo)(&err)

	if _, err = r.collection().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"updated_at": at}}); err != nil {
		return fmt.Errorf("failed to touch tool: %w", err)
	}
	return nil
}

func (r *toolRepository) RenameCategory(ctx context.Context, from, to string, at time.Time) (_ int64, err error) {
	defer utils.TrackQuery("renameCategory", toolRepo)(&err)

	update := bson.M{"$set": bson.M{"category": to, "updated_at": at}}
	result, err := r.collection().UpdateMany(ctx, bson.M{"category": from}, update)
	if err != nil {
		return 0, fmt.Errorf("failed to rename tool category: %w", err)
	}
	return result.ModifiedCount, nil
}

func (r *toolRepository) CountByCategory(ctx context.Context, category string) (_ int64, err error) {
	defer utils.TrackQuery("countByCategory", toolRepo)(&err)

	count, err := r.collection().CountDocuments(ctx, bson.M{"category": category})
	if err != nil {
		return 0, fmt.Errorf("failed to count tools in category: %w", err)
	}
	return count, nil
}

func (r *toolRepository) Delete(ctx context.Context, id primitive.ObjectID) (_ *mongo.DeleteResult, err error) {
	defer utils.TrackQuery("delete", toolRepo)(&err)

	result, err := r.collection().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to delete tool: %w", err)
	}
	return result, nil
}

func (r *toolRepository) DeleteMany(ctx context.Context, ids []primitive.ObjectID) (_ int64, err error) {
	defer utils.TrackQuery("deleteMany", toolRepo)(&err)

	if len(ids) == 0 {
		return 0, nil
	}
	result, err := r.collection().DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete tools: %w", err)
	}
	return result.DeletedCount, nil
}

func (r *toolRepository) ListIDs(ctx context.Context) (_ []primitive.ObjectID, err error) {
	defer utils.TrackQuery("listIDs", toolRepo)(&err)

	cursor, err := r.collection().Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to list tool ids: %w", err)
	}
	defer cursor.Close(ctx)

	var ids []primitive.ObjectID
	for cursor.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err = cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("error decoding tool id: %w", err)
		}
		ids = append(ids, doc.ID)
	}
	if err = cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tool ids: %w", err)
	}
	return ids, nil
}
