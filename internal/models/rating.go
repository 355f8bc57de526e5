package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MinRating  = 0.5
	MaxRating  = 5.0
	RatingStep = 0.5
)

// Rating is one user's score for one tool. At most one exists per (tool, user).
type Rating struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ToolID    primitive.ObjectID `json:"toolId" bson:"tool_id"`
	UserID    primitive.ObjectID `json:"userId" bson:"user_id"`
	Rating    float64            `json:"rating" bson:"rating"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updated_at"`
}

type RatingRequestBody struct {
	Rating float64 `json:"rating"`
}

// RatingResult is returned after a rating write together with the tool's
// refreshed aggregate.
type RatingResult struct {
	Rating        *Rating `json:"rating,omitempty"`
	AverageRating float64 `json:"averageRating"`
	RatingCount   int     `json:"ratingCount"`
}
