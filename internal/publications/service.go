package publications

import (
	"context"

	"github.com/campusnet/campusnet/backend/go-services/internal/models"
	"github.com/campusnet/campusnet/backend/go-services/internal/storage"
	"github.com/campusnet/campusnet/backend/go-services/pkg/apperror"
	"github.com/campusnet/campusnet/backend/go-services/pkg/metrics"
	"github.com/campusnet/campusnet/backend/go-services/pkg/sanitize"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Input struct {
	Content string `form:"content" json:"content" binding:"max=10000"`
}

// LikeResult is the state after a like toggle.
type LikeResult struct {
	Liked bool     `json:"liked"`
	Likes []string `json:"likes"`
}

type Service struct {
	repo   Repository
	store  storage.Store
	limits storage.Limits
}

func NewService(repo Repository, store storage.Store, limits storage.Limits) *Service {
	return &Service{repo: repo, store: store, limits: limits}
}

func canManage(actor *models.User, p *models.Publication) bool {
	if actor.IsAdmin() {
		return true
	}
	return p.UniversityID != nil && actor.Owns(*p.UniversityID) &&
		(actor.CanManagePublications || actor.CanAddPublication)
}

func viewerID(viewer *models.User) string {
	if viewer == nil {
		return ""
	}
	return viewer.ID.Hex()
}

func views(list []*models.Publication, viewer *models.User) []models.PublicationView {
	out := make([]models.PublicationView, 0, len(list))
	for _, p := range list {
		out = append(out, p.View(viewerID(viewer)))
	}
	return out
}

// Create posts as the acting university, or as the platform when the actor is an administrator.
func (s *Service) Create(ctx context.Context, actor *models.User, in Input, files []storage.Upload) (*models.PublicationView, error) {
	var owner *primitive.ObjectID
	switch {
	case actor.IsAdmin():
	case actor.IsUniversity() && actor.CanAddPublication:
		id := actor.ID
		owner = &id
	default:
		return nil, apperror.Forbidden("not allowed to publish")
	}
	content := sanitize.Text(in.Content)
	if content == "" && len(files) == 0 {
		return nil, apperror.Validation("content or attachment is required")
	}
	urls, err := storage.SaveAll(ctx, s.store, files, s.limits)
	if err != nil {
		return nil, err
	}
	p := &models.Publication{
		Content:      content,
		UniversityID: owner,
		Likes:        []string{},
		Attachments:  urls,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		storage.Cleanup(ctx, s.store, urls)
		return nil, apperror.Internal("failed to create publication", err)
	}
	v := p.View(actor.ID.Hex())
	return &v, nil
}

// List returns the feed, newest first, with likes counted and liked set for viewer (which may be nil).
func (s *Service) List(ctx context.Context, viewer *models.User) ([]models.PublicationView, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperror.Internal("failed to list publications", err)
	}
	return views(list, viewer), nil
}

func (s *Service) ListByUniversity(ctx context.Context, rawUniversityID string, viewer *models.User) ([]models.PublicationView, error) {
	id, err := models.ParseID(rawUniversityID, "university")
	if err != nil {
		return nil, err
	}
	list, err := s.repo.ListByUniversity(ctx, id)
	if err != nil {
		return nil, apperror.Internal("failed to list publications", err)
	}
	return views(list, viewer), nil
}

func (s *Service) Get(ctx context.Context, rawID string, viewer *models.User) (*models.PublicationView, error) {
	p, err := s.load(ctx, rawID)
	if err != nil {
		return nil, err
	}
	v := p.View(viewerID(viewer))
	return &v, nil
}

func (s *Service) load(ctx context.Context, rawID string) (*models.Publication, error) {
	id, err := models.ParseID(rawID, "publication")
	if err != nil {
		return nil, err
	}
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperror.Internal("failed to load publication", err)
	}
	if p == nil {
		return nil, apperror.NotFound("publication not found")
	}
	return p, nil
}

// Update replaces the content when given and appends new attachments.
func (s *Service) Update(ctx context.Context, actor *models.User, rawID string, in Input, files []storage.Upload) (*models.PublicationView, error) {
	p, err := s.load(ctx, rawID)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, p) {
		return nil, apperror.Forbidden("not allowed to modify this publication")
	}
	var content *string
	if c := sanitize.Text(in.Content); c != "" {
		content = &c
	}
	urls, err := storage.SaveAll(ctx, s.store, files, s.limits)
	if err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, p.ID, content, urls)
	if err != nil || updated == nil {
		storage.Cleanup(ctx, s.store, urls)
		if err != nil {
			return nil, apperror.Internal("failed to update publication", err)
		}
		return nil, apperror.NotFound("publication not found")
	}
	v := updated.View(actor.ID.Hex())
	return &v, nil
}

func (s *Service) Delete(ctx context.Context, actor *models.User, rawID string) error {
	p, err := s.load(ctx, rawID)
	if err != nil {
		return err
	}
	if !canManage(actor, p) {
		return apperror.Forbidden("not allowed to delete this publication")
	}
	ok, err := s.repo.Delete(ctx, p.ID)
	if err != nil {
		return apperror.Internal("failed to delete publication", err)
	}
	if !ok {
		return apperror.NotFound("publication not found")
	}
	return nil
}

// ToggleLike removes the actor's like when present and adds it otherwise.
func (s *Service) ToggleLike(ctx context.Context, actor *models.User, rawID string) (*LikeResult, error) {
	id, err := models.ParseID(rawID, "publication")
	if err != nil {
		return nil, err
	}
	liked, p, err := s.repo.ToggleLike(ctx, id, actor.ID.Hex())
	if err != nil {
		return nil, apperror.Internal("failed to toggle like", err)
	}
	if p == nil {
		return nil, apperror.NotFound("publication not found")
	}
	direction := "unlike"
	if liked {
		direction = "like"
	}
	metrics.LikesToggled.WithLabelValues(direction).Inc()
	return &LikeResult{Liked: liked, Likes: p.Likes}, nil
}
