package repositories

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"toolkithub/internal/database"
	"toolkithub/internal/models"
	"toolkithub/internal/utils"
)

type AdminLogRepository interface {
	Create(ctx context.Context, entry *models.AdminLog) error
}

type adminLogRepository struct {
	db database.Service
}

func NewAdminLogRepository(db database.Service) AdminLogRepository {
	return &adminLogRepository{db: db}
}

func (r *adminLogRepository) Create(ctx context.Context, entry *models.AdminLog) (err error) {
	defer utils.TrackQuery("create", "adminLog")(&err)

	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	if _, err = r.db.Collection(database.AdminLogsCollection).InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to insert admin log: %w", err)
	}
	return nil
}
