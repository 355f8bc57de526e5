package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Category struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name" validate:"required,max=100"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
}

type CategoryUpdate struct {
	Name *string `json:"name,omitempty" bson:"name,omitempty" validate:"omitempty,min=1,max=100"`
}

// CategoryWithCount is a category plus the number of tools filed under it.
type CategoryWithCount struct {
	Category
	ToolCount int `json:"toolCount"`
}
