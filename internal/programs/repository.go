package programs

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/campusnet/campusnet/backend/go-services/internal/database"
	"github.com/campusnet/campusnet/backend/go-services/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrProgramGone is returned by AddApplicant when the program no longer exists.
var ErrProgramGone = errors.New("program no longer exists")

// Fields holds the replaceable scalar fields of a program.
type Fields struct {
	Title       string
	Description string
	Price       float64
	Duration    int
}

// Repository stores programs. Lookups return (nil, nil) when nothing matches;
// reads join the owning university's display fields.
type Repository interface {
	Create(ctx context.Context, p *models.Program) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Program, error)
	List(ctx context.Context) ([]*models.Program, error)
	ListByUniversity(ctx context.Context, universityID primitive.ObjectID) ([]*models.Program, error)
	ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.Program, error)
	SearchTitle(ctx context.Context, q string, limit int) ([]*models.Program, error)
	// Update replaces the scalar fields and appends attachments.
	Update(ctx context.Context, id primitive.ObjectID, f Fields, attachments []string) (*models.Program, error)
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
	// AddApplicant appends studentID unless already present. It reports whether it was appended
	// and returns ErrProgramGone when the program is missing.
	AddApplicant(ctx context.Context, id primitive.ObjectID, studentID string) (bool, error)
	RemoveApplicant(ctx context.Context, id primitive.ObjectID, studentID string) error
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Create(ctx context.Context, p *models.Program) error {
	now := time.Now().UTC()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.CreatedAt, p.UpdatedAt = now, now
	if p.Applications == nil {
		p.Applications = []string{}
	}
	if p.Attachments == nil {
		p.Attachments = []string{}
	}
	doc := *p
	doc.University = nil
	_, err := r.col.InsertOne(ctx, doc)
	return err
}

func (r *MongoRepository) find(ctx context.Context, filter bson.M, limit int) ([]*models.Program, error) {
	p := database.Pipeline(filter)
	if limit > 0 {
		p = append(p, bson.D{{Key: "$limit", Value: limit}})
	}
	p = append(p, database.LookupSummary("universityId", "university")...)
	cur, err := r.col.Aggregate(ctx, p)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*models.Program{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoRepository) Get(ctx context.Context, id primitive.ObjectID) (*models.Program, error) {
	list, err := r.find(ctx, bson.M{"_id": id}, 1)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

func (r *MongoRepository) List(ctx context.Context) ([]*models.Program, error) {
	return r.find(ctx, bson.M{}, 0)
}

func (r *MongoRepository) ListByUniversity(ctx context.Context, universityID primitive.ObjectID) ([]*models.Program, error) {
	return r.find(ctx, bson.M{"universityId": universityID}, 0)
}

func (r *MongoRepository) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.Program, error) {
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, 0)
}

func (r *MongoRepository) SearchTitle(ctx context.Context, q string, limit int) ([]*models.Program, error) {
	re := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
	return r.find(ctx, bson.M{"$or": bson.A{bson.M{"title": re}, bson.M{"description": re}}}, limit)
}

func (r *MongoRepository) Update(ctx context.Context, id primitive.ObjectID, f Fields, attachments []string) (*models.Program, error) {
	update := bson.M{"$set": bson.M{
		"title":       f.Title,
		"description": f.Description,
		"price":       f.Price,
		"duration":    f.Duration,
		"updatedAt":   time.Now().UTC(),
	}}
	if len(attachments) > 0 {
		update["$push"] = bson.M{"attachments": bson.M{"$each": attachments}}
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, nil
	}
	return r.Get(ctx, id)
}

func (r *MongoRepository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *MongoRepository) AddApplicant(ctx context.Context, id primitive.ObjectID, studentID string) (bool, error) {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "applications": bson.M{"$ne": studentID}},
		bson.M{"$push": bson.M{"applications": studentID}, "$set": bson.M{"updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 1 {
		return true, nil
	}
	n, err := r.col.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, ErrProgramGone
	}
	return false, nil
}

func (r *MongoRepository) RemoveApplicant(ctx context.Context, id primitive.ObjectID, studentID string) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$pull": bson.M{"applications": studentID}})
	return err
}
