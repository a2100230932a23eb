package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ToggleMember removes value from the array field of document id when present and adds it
// otherwise. Each branch is a single atomic update. The updated document is decoded into out.
// Returns added=true when value is a member afterwards, and mongo.ErrNoDocuments when id does not exist.
func ToggleMember(ctx context.Context, col *mongo.Collection, id primitive.ObjectID, field, value string, out interface{}) (bool, error) {
	after := options.FindOneAndUpdate().SetReturnDocument(options.After)
	now := bson.M{"updatedAt": primitive.NewDateTimeFromTime(time.Now().UTC())}

	res := col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, field: value},
		bson.M{"$pull": bson.M{field: value}, "$set": now},
		after)
	err := res.Decode(out)
	if err == nil {
		return false, nil
	}
	if !IsNotFound(err) {
		return false, err
	}

	res = col.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$addToSet": bson.M{field: value}, "$set": now},
		after)
	if err := res.Decode(out); err != nil {
		return false, err
	}
	return true, nil
}
