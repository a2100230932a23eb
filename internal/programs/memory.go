package programs

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/campusnet/campusnet/backend/go-services/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepository is the in-memory Repository used in tests.
type MemoryRepository struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]*models.Program
	// Summaries resolves the joined university, keyed by user id.
	Summaries map[primitive.ObjectID]*models.UserSummary
	// FailAddApplicant makes AddApplicant return this error when set.
	FailAddApplicant error
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		items:     make(map[primitive.ObjectID]*models.Program),
		Summaries: make(map[primitive.ObjectID]*models.UserSummary),
	}
}

func (m *MemoryRepository) copyOf(p *models.Program) *models.Program {
	c := *p
	c.Applications = append([]string{}, p.Applications...)
	c.Attachments = append([]string{}, p.Attachments...)
	c.University = m.Summaries[p.UniversityID]
	return &c
}

func (m *MemoryRepository) Create(ctx context.Context, p *models.Program) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.Applications == nil {
		p.Applications = []string{}
	}
	if p.Attachments == nil {
		p.Attachments = []string{}
	}
	m.items[p.ID] = m.copyOf(p)
	return nil
}

func (m *MemoryRepository) Get(ctx context.Context, id primitive.ObjectID) (*models.Program, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	return m.copyOf(p), nil
}

func (m *MemoryRepository) filter(match func(*models.Program) bool) []*models.Program {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Program{}
	for _, p := range m.items {
		if match(p) {
			out = append(out, m.copyOf(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *MemoryRepository) List(ctx context.Context) ([]*models.Program, error) {
	return m.filter(func(*models.Program) bool { return true }), nil
}

func (m *MemoryRepository) ListByUniversity(ctx context.Context, universityID primitive.ObjectID) ([]*models.Program, error) {
	return m.filter(func(p *models.Program) bool { return p.UniversityID == universityID }), nil
}

func (m *MemoryRepository) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.Program, error) {
	want := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	return m.filter(func(p *models.Program) bool { return want[p.ID] }), nil
}

func (m *MemoryRepository) SearchTitle(ctx context.Context, q string, limit int) ([]*models.Program, error) {
	q = strings.ToLower(q)
	out := m.filter(func(p *models.Program) bool {
		return strings.Contains(strings.ToLower(p.Title), q) || strings.Contains(strings.ToLower(p.Description), q)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryRepository) Update(ctx context.Context, id primitive.ObjectID, f Fields, attachments []string) (*models.Program, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	p.Title, p.Description, p.Price, p.Duration = f.Title, f.Description, f.Price, f.Duration
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

func (m *MemoryRepository) AddApplicant(ctx context.Context, id primitive.ObjectID, studentID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAddApplicant != nil {
		return false, m.FailAddApplicant
	}
	p, ok := m.items[id]
	if !ok {
		return false, ErrProgramGone
	}
	if p.HasApplicant(studentID) {
		return false, nil
	}
	p.Applications = append(p.Applications, studentID)
	return true, nil
}

func (m *MemoryRepository) RemoveApplicant(ctx context.Context, id primitive.ObjectID, studentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return errors.New("program not found")
	}
	kept := p.Applications[:0]
	for _, s := range p.Applications {
		if s != studentID {
			kept = append(kept, s)
		}
	}
	p.Applications = kept
	return nil
}
