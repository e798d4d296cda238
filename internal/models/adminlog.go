package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminLog records one admin mutation. Append-only document store.
type AdminLog struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	UserID    string `bson:"user_id" json:"user_id"` // uuid from the identity provider
	UserEmail string `bson:"user_email" json:"user_email"`

	Action       string         `bson:"action" json:"action"`               // create|update|delete|export
	ResourceType string         `bson:"resource_type" json:"resource_type"` // products|posts|inquiries|uploads
	ResourceID   string         `bson:"resource_id,omitempty" json:"resource_id,omitempty"`
	Details      map[string]any `bson:"details,omitempty" json:"details,omitempty"`

	IPAddress string `bson:"ip_address" json:"ip_address"`
	UserAgent string `bson:"user_agent" json:"user_agent"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
