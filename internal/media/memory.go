package media

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
	items []models.Media
	// Fail makes every write return this error when set.
	Fail error
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (m *MemoryRepository) CreateMany(ctx context.Context, items []*models.Media) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	now := time.Now().UTC()
	for _, it := range items {
		if it.ID.IsZero() {
			it.ID = primitive.NewObjectID()
		}
		it.CreatedAt, it.UpdatedAt = now, now
		m.items = append(m.items, *it)
	}
	return nil
}

func (m *MemoryRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Media, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Media{}
	for i := range m.items {
		if m.items[i].UserID == userID {
			c := m.items[i]
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
