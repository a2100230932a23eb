package users

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/campusnet/campusnet/backend/go-services/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrDuplicateEmail mirrors the unique email index for the in-memory store.
var ErrDuplicateEmail = errors.New("duplicate email")

// MemoryRepository is an in-memory UserRepository used by unit tests across packages.
// Returned users are copies, so callers cannot mutate stored state.
type MemoryRepository struct {
	mu    sync.RWMutex
	store map[primitive.ObjectID]*models.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{store: make(map[primitive.ObjectID]*models.User)}
}

func clone(u *models.User) *models.User {
	c := *u
	c.Attachments = append([]string{}, u.Attachments...)
	c.ListAbonnements = append([]string{}, u.ListAbonnements...)
	if u.Address != nil {
		a := *u.Address
		c.Address = &a
	}
	return &c
}

func (m *MemoryRepository) Create(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.store {
		if existing.Email == u.Email {
			return ErrDuplicateEmail
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	m.store[u.ID] = clone(u)
	return nil
}

func (m *MemoryRepository) find(match func(*models.User) bool) *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.store {
		if match(u) {
			return clone(u)
		}
	}
	return nil
}

func (m *MemoryRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.ID == id }), nil
}

func (m *MemoryRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Email == email }), nil
}

func (m *MemoryRepository) GetByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, nil
	}
	return m.find(func(u *models.User) bool { return u.RefreshToken == token }), nil
}

func (m *MemoryRepository) mutate(id primitive.ObjectID, fn func(*models.User)) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[id]
	if !ok {
		return nil
	}
	fn(u)
	u.UpdatedAt = time.Now().UTC()
	return clone(u)
}

func (m *MemoryRepository) SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error {
	m.mutate(id, func(u *models.User) { u.RefreshToken = token })
	return nil
}

func (m *MemoryRepository) ClearRefreshToken(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.store {
		if u.RefreshToken == token {
			u.RefreshToken = ""
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryRepository) List(ctx context.Context, t models.UserType) ([]*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*models.User{}
	for _, u := range m.store {
		if t == "" || u.Type == t {
			out = append(out, clone(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryRepository) SetEntitlements(ctx context.Context, id primitive.ObjectID, e models.Entitlements) (*models.User, error) {
	return m.mutate(id, func(u *models.User) { u.Entitlements = e }), nil
}

func (m *MemoryRepository) AppendAttachments(ctx context.Context, id primitive.ObjectID, urls []string) (*models.User, error) {
	return m.mutate(id, func(u *models.User) {
		u.Attachments = append(u.Attachments, urls...)
		u.CanCandidate = true
	}), nil
}

func (m *MemoryRepository) UpdateProfile(ctx context.Context, id primitive.ObjectID, p ProfileUpdate) (*models.User, error) {
	return m.mutate(id, func(u *models.User) {
		if p.Name != nil {
			u.Name = *p.Name
		}
		if p.Presentation != nil {
			u.Presentation = *p.Presentation
		}
		if p.Nationality != nil {
			u.Nationality = *p.Nationality
		}
		if p.Address != nil {
			a := *p.Address
			u.Address = &a
		}
		if p.ProfilePicture != nil {
			u.ProfilePicture = *p.ProfilePicture
		}
		if p.CoverPhoto != nil {
			u.CoverPhoto = *p.CoverPhoto
		}
	}), nil
}

func (m *MemoryRepository) ToggleSubscriber(ctx context.Context, universityID primitive.ObjectID, userID string) (bool, *models.User, error) {
	added := false
	u := m.mutate(universityID, func(u *models.User) {
		for i, id := range u.ListAbonnements {
			if id == userID {
				u.ListAbonnements = append(u.ListAbonnements[:i], u.ListAbonnements[i+1:]...)
				return
			}
		}
		u.ListAbonnements = append(u.ListAbonnements, userID)
		added = true
	})
	return added, u, nil
}
