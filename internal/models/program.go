package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Program is an academic offer published by a university.
type Program struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title        string             `bson:"title" json:"title"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	Price        float64            `bson:"price" json:"price"`
	Duration     int                `bson:"duration" json:"duration"`
	UniversityID primitive.ObjectID `bson:"universityId" json:"universityId"`
	// Applications holds student ids; each appears at most once.
	Applications []string           `bson:"applications" json:"applications"`
	Attachments  []string           `bson:"attachments" json:"attachments"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`

	University *UserSummary `bson:"university,omitempty" json:"university,omitempty"`
}

func (p *Program) HasApplicant(studentID string) bool {
	for _, id := range p.Applications {
		if id == studentID {
			return true
		}
	}
	return false
}
