package publications

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
	items map[primitive.ObjectID]*models.Publication
	// Summaries resolves the joined university, keyed by user id.
	Summaries map[primitive.ObjectID]*models.UserSummary
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		items:     make(map[primitive.ObjectID]*models.Publication),
		Summaries: make(map[primitive.ObjectID]*models.UserSummary),
	}
}

func (m *MemoryRepository) copyOf(p *models.Publication) *models.Publication {
	c := *p
	c.Likes = append([]string{}, p.Likes...)
	c.Attachments = append([]string{}, p.Attachments...)
	if p.UniversityID != nil {
		c.University = m.Summaries[*p.UniversityID]
	}
	return &c
}

func (m *MemoryRepository) Create(ctx context.Context, p *models.Publication) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	m.items[p.ID] = m.copyOf(p)
	return nil
}

func (m *MemoryRepository) Get(ctx context.Context, id primitive.ObjectID) (*models.Publication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	return m.copyOf(p), nil
}

func (m *MemoryRepository) filter(match func(*models.Publication) bool) []*models.Publication {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Publication{}
	for _, p := range m.items {
		if match(p) {
			out = append(out, m.copyOf(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *MemoryRepository) List(ctx context.Context) ([]*models.Publication, error) {
	return m.filter(func(*models.Publication) bool { return true }), nil
}

func (m *MemoryRepository) ListByUniversity(ctx context.Context, universityID primitive.ObjectID) ([]*models.Publication, error) {
	return m.filter(func(p *models.Publication) bool {
		return p.UniversityID != nil && *p.UniversityID == universityID
	}), nil
}

func (m *MemoryRepository) Update(ctx context.Context, id primitive.ObjectID, content *string, attachments []string) (*models.Publication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	if content != nil {
		p.Content = *content
	}
	p.Attachments = append(p.Attachments, attachments...)
	p.UpdatedAt = time.Now().UTC()
	return m.copyOf(p), nil
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

func (m *MemoryRepository) ToggleLike(ctx context.Context, id primitive.ObjectID, userID string) (bool, *models.Publication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return false, nil, nil
	}
	for i, l := range p.Likes {
		if l == userID {
			p.Likes = append(p.Likes[:i], p.Likes[i+1:]...)
			return false, m.copyOf(p), nil
		}
	}
	p.Likes = append(p.Likes, userID)
	return true, m.copyOf(p), nil
}
