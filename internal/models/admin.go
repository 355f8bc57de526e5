package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AdminLoginRequestBody struct {
	ID       string `json:"id" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AdminSession is handed to the client after a successful admin login.
// ExpiresAt is epoch milliseconds.
type AdminSession struct {
	IsAdmin   bool   `json:"isAdmin"`
	ExpiresAt int64  `json:"expiresAt"`
	Token     string `json:"token,omitempty"`
}

// AdminLog records an admin login attempt.
type AdminLog struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	AdminID    string             `json:"adminId" bson:"admin_id"`
	Success    bool               `json:"success" bson:"success"`
	RemoteAddr string             `json:"remoteAddr" bson:"remote_addr"`
	CreatedAt  time.Time          `json:"createdAt" bson:"created_at"`
}
