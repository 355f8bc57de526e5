package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Plan is the pricing tag shown as a badge and used by the free-only filter.
type Plan string

const (
	PlanNone       Plan = "none"
	PlanFree       Plan = "free"
	PlanPaid       Plan = "paid"
	PlanEnterprise Plan = "enterprise"
)

// Valid reports whether p is one of the known plans.
func (p Plan) Valid() bool {
	switch p {
	case PlanNone, PlanFree, PlanPaid, PlanEnterprise:
		return true
	}
	return false
}

// Tool is a catalog entry. AverageRating and RatingCount are recomputed from
// the ratings collection after every rating write.
type Tool struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name          string             `json:"name" bson:"name"`
	Category      string             `json:"category" bson:"category"`
	URL           string             `json:"url" bson:"url"`
	Description   string             `json:"description" bson:"description"`
	Memo          string             `json:"memo,omitempty" bson:"memo,omitempty"`
	Plan          Plan               `json:"plan" bson:"plan"`
	AverageRating float64            `json:"averageRating" bson:"average_rating"`
	RatingCount   int                `json:"ratingCount" bson:"rating_count"`
	CreatedAt     time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updated_at"`
	CreatedBy     primitive.ObjectID `json:"createdBy,omitempty" bson:"created_by,omitempty"`
}

type AddToolRequestBody struct {
	Name        string `json:"name" validate:"required,max=200"`
	Category    string `json:"category" validate:"required,max=100"`
	URL         string `json:"url" validate:"required,url"`
	Description string `json:"description" validate:"required,max=2000"`
	Memo        string `json:"memo" validate:"max=2000"`
	Plan        Plan   `json:"plan" validate:"omitempty,oneof=none free paid enterprise"`
}

type UpdateToolRequestBody struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Category    *string `json:"category,omitempty" validate:"omitempty,min=1,max=100"`
	URL         *string `json:"url,omitempty" validate:"omitempty,url"`
	Description *string `json:"description,omitempty" validate:"omitempty,min=1,max=2000"`
	Memo        *string `json:"memo,omitempty" validate:"omitempty,max=2000"`
	Plan        *Plan   `json:"plan,omitempty" validate:"omitempty,oneof=none free paid enterprise"`
}

// ToolPage is one page of the filtered and sorted catalog.
type ToolPage struct {
	Items      []Tool `json:"items"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	TotalPages int    `json:"totalPages"`
}
