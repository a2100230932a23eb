package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MediaType string

const (
	MediaProfilePicture MediaType = "profile_picture"
	MediaDocument       MediaType = "document"
)

func (t MediaType) Valid() bool {
	return t == MediaProfilePicture || t == MediaDocument
}

// Media records one stored upload owned by a user.
type Media struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Type      MediaType          `bson:"type" json:"type"`
	URL       string             `bson:"url" json:"url"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
