package models

import (
	"github.com/campusnet/campusnet/backend/go-services/pkg/apperror"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ParseID parses a hex object id from a path or body value. what names the entity in the error.
func ParseID(s, what string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, apperror.Validation("invalid " + what + " id")
	}
	return id, nil
}
