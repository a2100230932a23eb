package publications

import (
	"context"
	"time"

	"github.com/campusnet/campusnet/backend/go-services/internal/database"
	"github.com/campusnet/campusnet/backend/go-services/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Repository stores publications. Lookups return (nil, nil) when nothing matches.
type Repository interface {
	Create(ctx context.Context, p *models.Publication) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Publication, error)
	List(ctx context.Context) ([]*models.Publication, error)
	ListByUniversity(ctx context.Context, universityID primitive.ObjectID) ([]*models.Publication, error)
	// Update sets content when non-nil and appends attachments.
	Update(ctx context.Context, id primitive.ObjectID, content *string, attachments []string) (*models.Publication, error)
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
	// ToggleLike flips userID's membership in likes. liked is the state afterwards;
	// a nil publication means it does not exist.
	ToggleLike(ctx context.Context, id primitive.ObjectID, userID string) (liked bool, p *models.Publication, err error)
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Create(ctx context.Context, p *models.Publication) error {
	now := time.Now().UTC()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.CreatedAt, p.UpdatedAt = now, now
	if p.Likes == nil {
		p.Likes = []string{}
	}
	if p.Attachments == nil {
		p.Attachments = []string{}
	}
	doc := *p
	doc.University = nil
	_, err := r.col.InsertOne(ctx, doc)
	return err
}

func (r *MongoRepository) find(ctx context.Context, filter bson.M) ([]*models.Publication, error) {
	cur, err := r.col.Aggregate(ctx, database.Pipeline(filter, database.LookupSummary("universityId", "university")))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*models.Publication{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoRepository) Get(ctx context.Context, id primitive.ObjectID) (*models.Publication, error) {
	list, err := r.find(ctx, bson.M{"_id": id})
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

func (r *MongoRepository) List(ctx context.Context) ([]*models.Publication, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoRepository) ListByUniversity(ctx context.Context, universityID primitive.ObjectID) ([]*models.Publication, error) {
	return r.find(ctx, bson.M{"universityId": universityID})
}

func (r *MongoRepository) Update(ctx context.Context, id primitive.ObjectID, content *string, attachments []string) (*models.Publication, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if content != nil {
		set["content"] = *content
	}
	update := bson.M{"$set": set}
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

func (r *MongoRepository) ToggleLike(ctx context.Context, id primitive.ObjectID, userID string) (bool, *models.Publication, error) {
	var p models.Publication
	liked, err := database.ToggleMember(ctx, r.col, id, "likes", userID, &p)
	if err != nil {
		if database.IsNotFound(err) {
			return false, nil, nil
		}
		return false, nil, err
	}
	return liked, &p, nil
}
