package users

import (
	"context"
	"time"

	"github.com/campusnet/campusnet/backend/go-services/internal/database"
	"github.com/campusnet/campusnet/backend/go-services/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProfileUpdate lists the self-editable profile fields. Nil pointers are left untouched.
type ProfileUpdate struct {
	Name           *string
	Presentation   *string
	Nationality    *string
	Address        *models.Address
	ProfilePicture *string
	CoverPhoto     *string
}

// UserRepository defines persistence operations for users.
// Lookups return (nil, nil) when no user matches.
type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByRefreshToken(ctx context.Context, token string) (*models.User, error)
	// SetRefreshToken overwrites the single active refresh token; "" clears it.
	SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error
	// ClearRefreshToken removes token from whichever user holds it and reports whether one did.
	ClearRefreshToken(ctx context.Context, token string) (bool, error)
	List(ctx context.Context, t models.UserType) ([]*models.User, error)
	SetEntitlements(ctx context.Context, id primitive.ObjectID, e models.Entitlements) (*models.User, error)
	// AppendAttachments appends document URLs in order and marks the user able to apply.
	AppendAttachments(ctx context.Context, id primitive.ObjectID, urls []string) (*models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, p ProfileUpdate) (*models.User, error)
	ToggleSubscriber(ctx context.Context, universityID primitive.ObjectID, userID string) (bool, *models.User, error)
}

// MongoUserRepository implements UserRepository using MongoDB
type MongoUserRepository struct {
	col *mongo.Collection
}

// NewMongoUserRepository creates a new repository for the given collection
func NewMongoUserRepository(col *mongo.Collection) *MongoUserRepository {
	return &MongoUserRepository{col: col}
}

func (r *MongoUserRepository) Create(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.CreatedAt, u.UpdatedAt = now, now
	if u.Attachments == nil {
		u.Attachments = []string{}
	}
	if u.ListAbonnements == nil {
		u.ListAbonnements = []string{}
	}
	_, err := r.col.InsertOne(ctx, u)
	return err
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, filter).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepository) GetByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, nil
	}
	return r.findOne(ctx, bson.M{"refreshToken": token})
}

func (r *MongoUserRepository) SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error {
	update := bson.M{"$set": bson.M{"refreshToken": token, "updatedAt": time.Now().UTC()}}
	if token == "" {
		update = bson.M{"$unset": bson.M{"refreshToken": ""}, "$set": bson.M{"updatedAt": time.Now().UTC()}}
	}
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

func (r *MongoUserRepository) ClearRefreshToken(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	res, err := r.col.UpdateOne(ctx,
		bson.M{"refreshToken": token},
		bson.M{"$unset": bson.M{"refreshToken": ""}, "$set": bson.M{"updatedAt": time.Now().UTC()}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (r *MongoUserRepository) List(ctx context.Context, t models.UserType) ([]*models.User, error) {
	filter := bson.M{}
	if t != "" {
		filter["type"] = t
	}
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	out := []*models.User{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoUserRepository) updateAndReturn(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u models.User
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// SetEntitlements writes every flag in one document update so they never disagree.
func (r *MongoUserRepository) SetEntitlements(ctx context.Context, id primitive.ObjectID, e models.Entitlements) (*models.User, error) {
	return r.updateAndReturn(ctx, id, bson.M{"$set": bson.M{
		"canAddProgram":         e.CanAddProgram,
		"canManagePrograms":     e.CanManagePrograms,
		"canAddPublication":     e.CanAddPublication,
		"canManagePublications": e.CanManagePublications,
		"canManageCandidates":   e.CanManageCandidates,
		"updatedAt":             time.Now().UTC(),
	}})
}

func (r *MongoUserRepository) AppendAttachments(ctx context.Context, id primitive.ObjectID, urls []string) (*models.User, error) {
	return r.updateAndReturn(ctx, id, bson.M{
		"$push": bson.M{"attachments": bson.M{"$each": urls}},
		"$set":  bson.M{"canCandidate": true, "updatedAt": time.Now().UTC()},
	})
}

func (r *MongoUserRepository) UpdateProfile(ctx context.Context, id primitive.ObjectID, p ProfileUpdate) (*models.User, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Presentation != nil {
		set["presentation"] = *p.Presentation
	}
	if p.Nationality != nil {
		set["nationality"] = *p.Nationality
	}
	if p.Address != nil {
		set["address"] = p.Address
	}
	if p.ProfilePicture != nil {
		set["profilePicture"] = *p.ProfilePicture
	}
	if p.CoverPhoto != nil {
		set["coverPhoto"] = *p.CoverPhoto
	}
	return r.updateAndReturn(ctx, id, bson.M{"$set": set})
}

func (r *MongoUserRepository) ToggleSubscriber(ctx context.Context, universityID primitive.ObjectID, userID string) (bool, *models.User, error) {
	var u models.User
	added, err := database.ToggleMember(ctx, r.col, universityID, "listAbonnements", userID, &u)
	if err != nil {
		if database.IsNotFound(err) {
			return false, nil, nil
		}
		return false, nil, err
	}
	return added, &u, nil
}
