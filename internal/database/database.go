package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ToolsCollection      = "tools"
	CategoriesCollection = "categories"
	RatingsCollection    = "ratings"
	CommentsCollection   = "comments"
	BookmarksCollection  = "bookmarks"
	UsersCollection      = "users"
	AdminLogsCollection  = "admin_logs"
)

// Collections lists every collection the application owns.
var Collections = []string{
	ToolsCollection,
	CategoriesCollection,
	RatingsCollection,
	CommentsCollection,
	BookmarksCollection,
	UsersCollection,
	AdminLogsCollection,
}

type Service interface {
	Health() map[string]string
	Client() *mongo.Client
	Collection(name string) *mongo.Collection
	Close(ctx context.Context) error
}

type service struct {
	db     *mongo.Client
	dbName string
}

// New connects to MongoDB at uri and scopes every collection to dbName.
func New(ctx context.Context, uri, dbName string) (Service, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo URI is empty")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	return &service{db: client, dbName: dbName}, nil
}

func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	err := s.db.Ping(ctx, nil)
	if err != nil {
		log.Error().Err(err).Msg("Database health check failed")
		return map[string]string{
			"message": "db down",
			"error":   err.Error(),
		}
	}

	return map[string]string{
		"message": "It's healthy",
	}
}

func (s *service) Client() *mongo.Client {
	return s.db
}

func (s *service) Collection(name string) *mongo.Collection {
	return s.db.Database(s.dbName).Collection(name)
}

func (s *service) Close(ctx context.Context) error {
	return s.db.Disconnect(ctx)
}

// EnsureCollections creates any missing collection so a fresh database shows
// the full schema before the first write.
func EnsureCollections(ctx context.Context, s Service) ([]string, error) {
	db := s.Collection(ToolsCollection).Database()
	existing, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, name := range existing {
		have[name] = true
	}

	var created []string
	for _, name := range Collections {
		if have[name] {
			continue
		}
		if err := db.CreateCollection(ctx, name); err != nil {
			return created, fmt.Errorf("failed to create collection %s: %w", name, err)
		}
		created = append(created, name)
	}
	return created, nil
}

// EnsureIndexes declares the indexes the queries rely on. The unique indexes
// back up the application-level duplicate checks on ratings, bookmarks,
// categories and users.
func EnsureIndexes(ctx context.Context, s Service) error {
	specs := map[string][]mongo.IndexModel{
		RatingsCollection: {
			{Keys: bson.D{{Key: "tool_id", Value: 1}, {Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		BookmarksCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "tool_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "tool_id", Value: 1}}},
		},
		CommentsCollection: {
			{Keys: bson.D{{Key: "tool_id", Value: 1}, {Key: "created_at", Value: 1}}},
			{Keys: bson.D{{Key: "parent_id", Value: 1}}},
		},
		CategoriesCollection: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		ToolsCollection: {
			{Keys: bson.D{{Key: "category", Value: 1}}},
		},
		UsersCollection: {
			{Keys: bson.D{{Key: "provider", Value: 1}, {Key: "provider_user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}

	for collection, models := range specs {
		if _, err := s.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes for %s: %w", collection, err)
		}
		log.Debug().Str("collection", collection).Int("indexes", len(models)).Msg("Indexes ensured")
	}
	return nil
}
