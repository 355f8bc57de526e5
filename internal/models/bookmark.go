package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Bookmark struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ToolID    primitive.ObjectID `json:"toolId" bson:"tool_id"`
	UserID    primitive.ObjectID `json:"userId" bson:"user_id"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
}

type BookmarkToggleResult struct {
	ToolID     primitive.ObjectID `json:"toolId"`
	Bookmarked bool               `json:"bookmarked"`
}
