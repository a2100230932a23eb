package candidatures

import (
	"context"
	"errors"

	"github.com/campusnet/campusnet/backend/go-services/internal/database"
	"github.com/campusnet/campusnet/backend/go-services/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicate reports a second candidature for the same student and program.
var ErrDuplicate = errors.New("duplicate candidature")

// Repository stores candidatures. Lookups return (nil, nil) when nothing matches.
type Repository interface {
	Create(ctx context.Context, c *models.Candidature) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Candidature, error)
	ListByStudent(ctx context.Context, studentID primitive.ObjectID) ([]*models.Candidature, error)
	ListByUniversity(ctx context.Context, universityID primitive.ObjectID) ([]*models.Candidature, error)
	// UpdateStatus moves the candidature from one status to another. It returns nil when the
	// candidature does not exist or is no longer in status from.
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.CandidatureStatus) (*models.Candidature, error)
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Create(ctx context.Context, c *models.Candidature) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, c)
	if database.IsDuplicateKey(err) {
		return ErrDuplicate
	}
	return err
}

func (r *MongoRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *MongoRepository) Get(ctx context.Context, id primitive.ObjectID) (*models.Candidature, error) {
	var c models.Candidature
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *MongoRepository) aggregate(ctx context.Context, p mongo.Pipeline) ([]*models.Candidature, error) {
	cur, err := r.col.Aggregate(ctx, p)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*models.Candidature{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoRepository) ListByStudent(ctx context.Context, studentID primitive.ObjectID) ([]*models.Candidature, error) {
	return r.aggregate(ctx, database.Pipeline(bson.M{"studentId": studentID}, database.LookupSummary("universityId", "university")))
}

func (r *MongoRepository) ListByUniversity(ctx context.Context, universityID primitive.ObjectID) ([]*models.Candidature, error) {
	return r.aggregate(ctx, database.Pipeline(bson.M{"universityId": universityID}, database.LookupSummary("studentId", "student")))
}

func (r *MongoRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.CandidatureStatus) (*models.Candidature, error) {
	var c models.Candidature
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "statut": from},
		bson.M{"$set": bson.M{"statut": to, "updatedAt": primitive.NewDateTimeFromTime(timeNow())}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}
