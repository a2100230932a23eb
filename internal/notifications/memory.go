package notifications

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/campusnet/campusnet/backend/go-services/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepository is the in-memory Repository used in tests.
type MemoryRepository struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]models.Notification
	// FailCreate makes Create return this error when set.
	FailCreate error
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[primitive.ObjectID]models.Notification)}
}

func (m *MemoryRepository) Create(ctx context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailCreate != nil {
		return m.FailCreate
	}
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	n.UpdatedAt = n.CreatedAt
	m.items[n.ID] = *n
	return nil
}

func (m *MemoryRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

func (m *MemoryRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Notification{}
	for _, n := range m.items {
		if n.UserID == userID {
			c := n
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}
