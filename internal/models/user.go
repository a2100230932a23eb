package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserType string

const (
	UserTypeStudent    UserType = "student"
	UserTypeUniversity UserType = "university"
	UserTypeAdmin      UserType = "admin"
)

func (t UserType) Valid() bool {
	switch t {
	case UserTypeStudent, UserTypeUniversity, UserTypeAdmin:
		return true
	}
	return false
}

type Address struct {
	City    string `bson:"city,omitempty" json:"city,omitempty"`
	Country string `bson:"country,omitempty" json:"country,omitempty"`
}

func (a *Address) Empty() bool {
	return a == nil || (a.City == "" && a.Country == "")
}

// Entitlements are the per-university capabilities only an administrator may change.
type Entitlements struct {
	CanAddProgram         bool `bson:"canAddProgram" json:"canAddProgram"`
	CanManagePrograms     bool `bson:"canManagePrograms" json:"canManagePrograms"`
	CanAddPublication     bool `bson:"canAddPublication" json:"canAddPublication"`
	CanManagePublications bool `bson:"canManagePublications" json:"canManagePublications"`
	CanManageCandidates   bool `bson:"canManageCandidates" json:"canManageCandidates"`
}

// User is a student, university or administrator account.
type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Type           UserType           `bson:"type" json:"type"`
	Name           string             `bson:"name" json:"name"`
	Email          string             `bson:"email" json:"email"`
	Password       string             `bson:"password" json:"-"`
	Presentation   string             `bson:"presentation,omitempty" json:"presentation,omitempty"`
	ProfilePicture string             `bson:"profilePicture,omitempty" json:"profilePicture,omitempty"`
	CoverPhoto     string             `bson:"coverPhoto,omitempty" json:"coverPhoto,omitempty"`
	Nationality    string             `bson:"nationality,omitempty" json:"nationality,omitempty"`
	Address        *Address           `bson:"address,omitempty" json:"address,omitempty"`

	Entitlements `bson:",inline"`
	CanCandidate bool `bson:"canCandidate" json:"canCandidate"`

	RefreshToken    string   `bson:"refreshToken,omitempty" json:"-"`
	ListAbonnements []string `bson:"listAbonnements" json:"listAbonnements"`
	Attachments     []string `bson:"attachments" json:"attachments"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) IsAdmin() bool      { return u != nil && u.Type == UserTypeAdmin }
func (u *User) IsStudent() bool    { return u != nil && u.Type == UserTypeStudent }
func (u *User) IsUniversity() bool { return u != nil && u.Type == UserTypeUniversity }

// Owns reports whether the user is the owner referenced by id.
func (u *User) Owns(id primitive.ObjectID) bool {
	return u != nil && !id.IsZero() && u.ID == id
}

// UserSummary is the minimal display projection joined onto programs, candidatures and publications.
type UserSummary struct {
	ID             primitive.ObjectID `bson:"_id" json:"_id"`
	Name           string             `bson:"name" json:"name"`
	Email          string             `bson:"email,omitempty" json:"email,omitempty"`
	Address        *Address           `bson:"address,omitempty" json:"address,omitempty"`
	ProfilePicture string             `bson:"profilePicture,omitempty" json:"profilePicture,omitempty"`
}
