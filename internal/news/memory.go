package news

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/campusnet/campusnet/backend/go-services/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MemoryRepository struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]models.News
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[primitive.ObjectID]models.News)}
}

func (m *MemoryRepository) Create(ctx context.Context, n *models.News) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	n.CreatedAt, n.UpdatedAt = now, now
	c := *n
	c.Attachments = append([]string{}, n.Attachments...)
	m.items[n.ID] = c
	return nil
}

func (m *MemoryRepository) Get(ctx context.Context, id primitive.ObjectID) (*models.News, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	return &n, nil
}

func (m *MemoryRepository) List(ctx context.Context) ([]*models.News, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.News{}
	for _, n := range m.items {
		c := n
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryRepository) Update(ctx context.Context, id primitive.ObjectID, f Fields, attachments []string) (*models.News, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	n.Title, n.Description, n.Link = f.Title, f.Description, f.Link
	n.Attachments = append(append([]string{}, n.Attachments...), attachments...)
	n.UpdatedAt = time.Now().UTC()
	m.items[id] = n
	return &n, nil
}

func (m *MemoryRepository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return false, nil
	}
	delete(m.items, id)
	return true, nil
}
