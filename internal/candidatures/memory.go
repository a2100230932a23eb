package candidatures

import (
	"context"
	"sort"
	"sync"

	"github.com/campusnet/campusnet/backend/go-services/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepository is the in-memory Repository used in tests. It enforces the
// one-candidature-per-student-and-program rule like the unique index does.
type MemoryRepository struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]models.Candidature
	// Summaries resolves joined display fields, keyed by user id.
	Summaries map[primitive.ObjectID]*models.UserSummary
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		items:     make(map[primitive.ObjectID]models.Candidature),
		Summaries: make(map[primitive.ObjectID]*models.UserSummary),
	}
}

func (m *MemoryRepository) Create(ctx context.Context, c *models.Candidature) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.StudentID == c.StudentID && existing.ProgramID == c.ProgramID {
			return ErrDuplicate
		}
	}
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	m.items[c.ID] = *c
	return nil
}

func (m *MemoryRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

func (m *MemoryRepository) Get(ctx context.Context, id primitive.ObjectID) (*models.Candidature, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *MemoryRepository) list(match func(models.Candidature) bool, join func(*models.Candidature)) []*models.Candidature {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Candidature{}
	for _, c := range m.items {
		if match(c) {
			cc := c
			join(&cc)
			out = append(out, &cc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *MemoryRepository) ListByStudent(ctx context.Context, studentID primitive.ObjectID) ([]*models.Candidature, error) {
	return m.list(
		func(c models.Candidature) bool { return c.StudentID == studentID },
		func(c *models.Candidature) { c.University = m.Summaries[c.UniversityID] },
	), nil
}

func (m *MemoryRepository) ListByUniversity(ctx context.Context, universityID primitive.ObjectID) ([]*models.Candidature, error) {
	return m.list(
		func(c models.Candidature) bool { return c.UniversityID == universityID },
		func(c *models.Candidature) { c.Student = m.Summaries[c.StudentID] },
	), nil
}

func (m *MemoryRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.CandidatureStatus) (*models.Candidature, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[id]
	if !ok || c.Statut != from {
		return nil, nil
	}
	c.Statut = to
	c.UpdatedAt = timeNow().UTC()
	m.items[c.ID] = c
	return &c, nil
}

func (m *MemoryRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}
