package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CandidatureStatus string

const (
	StatusPending  CandidatureStatus = "En cours"
	StatusAccepted CandidatureStatus = "Accepté"
	StatusRejected CandidatureStatus = "Refusé"
)

var candidatureTransitions = map[CandidatureStatus][]CandidatureStatus{
	StatusPending: {StatusAccepted, StatusRejected},
}

func (s CandidatureStatus) Valid() bool {
	return s == StatusPending || s == StatusAccepted || s == StatusRejected
}

func (s CandidatureStatus) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// CanTransition reports whether a candidature may move from s to next.
func (s CandidatureStatus) CanTransition(next CandidatureStatus) bool {
	for _, allowed := range candidatureTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Candidature is one student application. Title, price and duration are copied
// from the program when the student applies and are not kept in sync afterwards.
type Candidature struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	ProgramID    primitive.ObjectID `bson:"programId" json:"programId"`
	Title        string             `bson:"title" json:"title"`
	Price        float64            `bson:"price" json:"price"`
	Duration     int                `bson:"duration" json:"duration"`
	Statut       CandidatureStatus  `bson:"statut" json:"statut"`
	UniversityID primitive.ObjectID `bson:"universityId" json:"universityId"`
	StudentID    primitive.ObjectID `bson:"studentId" json:"studentId"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`

	University *UserSummary `bson:"university,omitempty" json:"university,omitempty"`
	Student    *UserSummary `bson:"student,omitempty" json:"student,omitempty"`
}

// NewCandidature snapshots the program for the given student.
func NewCandidature(p *Program, studentID primitive.ObjectID, now time.Time) *Candidature {
	return &Candidature{
		ID:           primitive.NewObjectID(),
		ProgramID:    p.ID,
		Title:        p.Title,
		Price:        p.Price,
		Duration:     p.Duration,
		Statut:       StatusPending,
		UniversityID: p.UniversityID,
		StudentID:    studentID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
