package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	UsersCollection         = "users"
	ProgramsCollection      = "programs"
	CandidaturesCollection  = "candidatures"
	NotificationsCollection = "notifications"
	PublicationsCollection  = "publications"
	NewsCollection          = "news"
	MediaCollection         = "media"
)

// ConnectMongo opens a connection and returns the client. Caller should call client.Disconnect(ctx).
func ConnectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	clientOpts := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// ConnectWithRetry retries ConnectMongo with exponential backoff to tolerate startup races.
func ConnectWithRetry(ctx context.Context, uri string, timeout time.Duration, attempts int, onRetry func(attempt int, err error)) (*mongo.Client, error) {
	backoff := time.Second
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		client, err := ConnectMongo(ctx, uri, timeout)
		if err == nil {
			return client, nil
		}
		lastErr = err
		if onRetry != nil {
			onRetry(attempt, err)
		}
		if attempt < attempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}
	return nil, fmt.Errorf("mongo unavailable after %d attempts: %w", attempts, lastErr)
}

// EnsureIndexes creates the indexes the domain relies on. Creating an existing index is a no-op.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_email")},
			{Keys: bson.D{{Key: "type", Value: 1}}},
			{Keys: bson.D{{Key: "refreshToken", Value: 1}}, Options: options.Index().SetSparse(true)},
		},
		ProgramsCollection: {
			{Keys: bson.D{{Key: "universityId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		CandidaturesCollection: {
			// one candidature per (student, program) closes the concurrent apply race
			{Keys: bson.D{{Key: "studentId", Value: 1}, {Key: "programId", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_student_program")},
			{Keys: bson.D{{Key: "universityId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		NotificationsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		PublicationsCollection: {
			{Keys: bson.D{{Key: "universityId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		MediaCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}}},
		},
	}
	for col, models := range specs {
		if _, err := db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", col, err)
		}
	}
	return nil
}

// IsDuplicateKey reports whether err is a unique index violation.
func IsDuplicateKey(err error) bool {
	return err != nil && mongo.IsDuplicateKeyError(err)
}

// IsNotFound reports whether err means no document matched.
func IsNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// LookupSummary returns the stages that join the users collection on localField and
// store a UserSummary projection under as. Missing users leave as unset.
func LookupSummary(localField, as string) []bson.D {
	return []bson.D{
		{{Key: "$lookup", Value: bson.M{
			"from": UsersCollection,
			"let":  bson.M{"uid": "$" + localField},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$eq": bson.A{"$_id", "$$uid"}}}},
				bson.M{"$project": bson.M{"name": 1, "email": 1, "address": 1, "profilePicture": 1}},
			},
			"as": as,
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$" + as, "preserveNullAndEmptyArrays": true}}},
	}
}

// Pipeline assembles a pipeline from a $match filter, a newest-first sort and extra stages.
func Pipeline(filter bson.M, extra ...[]bson.D) mongo.Pipeline {
	p := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}}},
	}
	for _, stages := range extra {
		p = append(p, stages...)
	}
	return p
}
