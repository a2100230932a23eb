package database

import (
	"context"
	"fmt"

	"github.com/campusnet/campusnet/backend/go-services/pkg/logger"
	"go.mongodb.org/mongo-driver/mongo"
)

// Step is one write of a multi-document operation. Undo reverts Do and may be nil.
type Step struct {
	Name string
	Do   func(ctx context.Context) error
	Undo func(ctx context.Context) error
}

// Transactor runs a sequence of steps so that either all of them take effect or none do.
type Transactor interface {
	Run(ctx context.Context, steps ...Step) error
}

// MongoTransactor runs the steps inside a MongoDB multi-document transaction.
// It needs a replica set or sharded cluster.
type MongoTransactor struct {
	client *mongo.Client
}

func NewMongoTransactor(client *mongo.Client) *MongoTransactor {
	return &MongoTransactor{client: client}
}

func (t *MongoTransactor) Run(ctx context.Context, steps ...Step) error {
	sess, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		for _, s := range steps {
			if err := s.Do(sc); err != nil {
				return nil, fmt.Errorf("%s: %w", s.Name, err)
			}
		}
		return nil, nil
	})
	return err
}

// CompensatingTransactor runs steps in order and, when one fails, undoes the completed
// ones in reverse order. Used on standalone servers where transactions are unavailable.
type CompensatingTransactor struct{}

func (CompensatingTransactor) Run(ctx context.Context, steps ...Step) error {
	done := make([]Step, 0, len(steps))
	for _, s := range steps {
		if err := s.Do(ctx); err != nil {
			// undo with a context that survives cancellation of the request
			undoCtx := context.WithoutCancel(ctx)
			for i := len(done) - 1; i >= 0; i-- {
				if done[i].Undo == nil {
					continue
				}
				if uerr := done[i].Undo(undoCtx); uerr != nil {
					logger.Errorw("compensation failed", logger.Fields{"step": done[i].Name, "cause": s.Name, "error": uerr.Error()})
				}
			}
			return fmt.Errorf("%s: %w", s.Name, err)
		}
		done = append(done, s)
	}
	return nil
}
