package media

import (
	"context"
	"time"

	"github.com/campusnet/campusnet/backend/go-services/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository stores Media records.
type Repository interface {
	CreateMany(ctx context.Context, items []*models.Media) error
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Media, error)
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) CreateMany(ctx context.Context, items []*models.Media) error {
	if len(items) == 0 {
		return nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(items))
	for _, m := range items {
		if m.ID.IsZero() {
			m.ID = primitive.NewObjectID()
		}
		m.CreatedAt, m.UpdatedAt = now, now
		docs = append(docs, m)
	}
	_, err := r.col.InsertMany(ctx, docs)
	return err
}

func (r *MongoRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Media, error) {
	cur, err := r.col.Find(ctx, bson.M{"userId": userID}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*models.Media{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
