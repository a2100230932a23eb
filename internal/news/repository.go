package news

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

// Fields are the replaceable fields of a news item.
type Fields struct {
	Title       string
	Description string
	Link        string
}

type Repository interface {
	Create(ctx context.Context, n *models.News) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.News, error)
	List(ctx context.Context) ([]*models.News, error)
	Update(ctx context.Context, id primitive.ObjectID, f Fields, attachments []string) (*models.News, error)
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Create(ctx context.Context, n *models.News) error {
	now := time.Now().UTC()
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	n.CreatedAt, n.UpdatedAt = now, now
	if n.Attachments == nil {
		n.Attachments = []string{}
	}
	_, err := r.col.InsertOne(ctx, n)
	return err
}

func (r *MongoRepository) Get(ctx context.Context, id primitive.ObjectID) (*models.News, error) {
	var n models.News
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&n); err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

func (r *MongoRepository) List(ctx context.Context) ([]*models.News, error) {
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*models.News{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoRepository) Update(ctx context.Context, id primitive.ObjectID, f Fields, attachments []string) (*models.News, error) {
	update := bson.M{"$set": bson.M{
		"title":       f.Title,
		"description": f.Description,
		"link":        f.Link,
		"updatedAt":   time.Now().UTC(),
	}}
	if len(attachments) > 0 {
		update["$push"] = bson.M{"attachments": bson.M{"$each": attachments}}
	}
	var n models.News
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&n)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

func (r *MongoRepository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}
