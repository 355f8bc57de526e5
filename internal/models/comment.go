package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const MaxCommentLength = 1000

// Comment is a top-level comment when ParentID is nil, otherwise a reply to a
// top-level comment. Replies are never nested further.
type Comment struct {
	ID           primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	ToolID       primitive.ObjectID  `json:"toolId" bson:"tool_id"`
	UserID       primitive.ObjectID  `json:"userId" bson:"user_id"`
	UserName     string              `json:"userName" bson:"user_name"`
	UserPhotoURL string              `json:"userPhotoURL,omitempty" bson:"user_photo_url,omitempty"`
	Content      string              `json:"content" bson:"content"`
	ParentID     *primitive.ObjectID `json:"parentId" bson:"parent_id"`
	CreatedAt    time.Time           `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time           `json:"updatedAt" bson:"updated_at"`
}

// IsTopLevel reports whether c has no parent.
func (c Comment) IsTopLevel() bool {
	return c.ParentID == nil
}

type CommentThread struct {
	Comment
	Replies []Comment `json:"replies"`
}

type AddCommentRequestBody struct {
	Content  string  `json:"content"`
	ParentID *string `json:"parentId,omitempty"`
}

type UpdateCommentRequestBody struct {
	Content string `json:"content"`
}
