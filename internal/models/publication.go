package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Publication is a social post. UniversityID is nil for posts made by an administrator.
type Publication struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	Content      string              `bson:"content" json:"content"`
	UniversityID *primitive.ObjectID `bson:"universityId,omitempty" json:"universityId,omitempty"`
	Likes        []string            `bson:"likes" json:"likes"`
	Attachments  []string            `bson:"attachments" json:"attachments"`
	CreatedAt    time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time           `bson:"updatedAt" json:"updatedAt"`

	University *UserSummary `bson:"university,omitempty" json:"university,omitempty"`
}

func (p *Publication) LikedBy(userID string) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// PublicationView is the feed representation: likes as a count plus the viewer's own state.
type PublicationView struct {
	ID           primitive.ObjectID  `json:"_id"`
	Content      string              `json:"content"`
	UniversityID *primitive.ObjectID `json:"universityId,omitempty"`
	University   *UserSummary        `json:"university,omitempty"`
	Attachments  []string            `json:"attachments"`
	Likes        int                 `json:"likes"`
	Liked        bool                `json:"liked"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

func (p *Publication) View(viewerID string) PublicationView {
	return PublicationView{
		ID:           p.ID,
		Content:      p.Content,
		UniversityID: p.UniversityID,
		University:   p.University,
		Attachments:  p.Attachments,
		Likes:        len(p.Likes),
		Liked:        viewerID != "" && p.LikedBy(viewerID),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}
