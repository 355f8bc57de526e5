package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"toolkithub/internal/database"
	"toolkithub/internal/models"
	"toolkithub/internal/utils"
)

const userRepo = "user"

type UserRepository interface {
	// UpsertFromProvider creates or refreshes the user identified by
	// (Provider, ProviderUserID) and returns the stored record.
	UpsertFromProvider(ctx context.Context, user *models.User) (*models.User, error)
	FindByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
}

type userRepository struct {
	db database.Service
}

func NewUserRepository(db database.Service) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) UpsertFromProvider(ctx context.Context, user *models.User) (_ *models.User, err error) {
	defer utils.TrackQuery("upsertFromProvider", userRepo)(&err)

	now := time.Now().UTC()
	filter := bson.M{"provider": user.Provider, "provider_user_id": user.ProviderUserID}
	update := bson.M{
		"$set": bson.M{
			"name":       user.Name,
			"email":      user.Email,
			"photo_url":  user.PhotoURL,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored models.User
	if err = r.db.Collection(database.UsersCollection).FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored); err != nil {
		log.Error().Err(err).Str("provider", user.Provider).Msg("Failed to upsert user")
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return &stored, nil
}

func (r *userRepository) FindByID(ctx context.Context, userID primitive.ObjectID) (_ *models.User, err error) {
	defer utils.TrackQuery("findByID", userRepo)(&err)

	var user models.User
	if err = r.db.Collection(database.UsersCollection).FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		if err != mongo.ErrNoDocuments {
			log.Error().Err(err).Str("userID", userID.Hex()).Msg("Failed to find user by ID")
		}
		return nil, err
	}
	return &user, nil
}
