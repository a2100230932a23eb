package notifications

import (
	"context"
	"encoding/json"
	"time"

	"github.com/campusnet/campusnet/backend/go-services/internal/models"
	"github.com/campusnet/campusnet/backend/go-services/pkg/apperror"
	"github.com/campusnet/campusnet/backend/go-services/pkg/logger"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Channel is the Redis pub/sub channel carrying live notifications for a user.
func Channel(userID string) string {
	return "user_notifications:" + userID
}

// Service stores notifications and fans them out to connected clients through Redis.
// A nil Redis client disables live delivery.
type Service struct {
	repo  Repository
	redis *redis.Client
}

func NewService(repo Repository, rdb *redis.Client) *Service {
	return &Service{repo: repo, redis: rdb}
}

// Create persists n without publishing it.
func (s *Service) Create(ctx context.Context, n *models.Notification) error {
	return s.repo.Create(ctx, n)
}

func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	return s.repo.Delete(ctx, id)
}

// Publish pushes n to its recipient's channel. Delivery is best effort.
func (s *Service) Publish(ctx context.Context, n *models.Notification) {
	if s.redis == nil {
		return
	}
	payload, err := json.Marshal(n)
	if err != nil {
		logger.Warnf("notification marshal: %v", err)
		return
	}
	if err := s.redis.Publish(ctx, Channel(n.UserID.Hex()), payload).Err(); err != nil {
		logger.Warnw("notification publish failed", logger.Fields{"user": n.UserID.Hex(), "error": err.Error()})
	}
}

// Notify stores a notification for userID and publishes it.
func (s *Service) Notify(ctx context.Context, userID primitive.ObjectID, title, content string) (*models.Notification, error) {
	n := &models.Notification{UserID: userID, Title: title, Content: content, CreatedAt: time.Now().UTC()}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, apperror.Internal("failed to create notification", err)
	}
	s.Publish(ctx, n)
	return n, nil
}

// ListForUser returns a user's notifications, newest first. Only the user or an administrator may read them.
func (s *Service) ListForUser(ctx context.Context, actor *models.User, rawUserID string) ([]*models.Notification, error) {
	id, err := models.ParseID(rawUserID, "user")
	if err != nil {
		return nil, err
	}
	if !actor.Owns(id) && !actor.IsAdmin() {
		return nil, apperror.Forbidden("cannot read another user's notifications")
	}
	list, err := s.repo.ListByUser(ctx, id)
	if err != nil {
		return nil, apperror.Internal("failed to list notifications", err)
	}
	return list, nil
}

// LiveAvailable reports whether Stream can deliver notifications.
func (s *Service) LiveAvailable() error {
	if s.redis == nil {
		return apperror.Unavailable("live notifications unavailable")
	}
	return nil
}

// Stream forwards live notifications for userID to conn until the client disconnects or ctx ends.
func (s *Service) Stream(ctx context.Context, userID string, conn *websocket.Conn) error {
	if err := s.LiveAvailable(); err != nil {
		return err
	}
	pubsub := s.redis.Subscribe(ctx, Channel(userID))
	defer pubsub.Close()

	// wait for the subscription to be active before reading
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	ch := pubsub.Channel()

	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				return err
			}
		case <-clientClosed:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}
