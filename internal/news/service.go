package news

import (
	"context"

	"github.com/campusnet/campusnet/backend/go-services/internal/models"
	"github.com/campusnet/campusnet/backend/go-services/internal/storage"
	"github.com/campusnet/campusnet/backend/go-services/pkg/apperror"
	"github.com/campusnet/campusnet/backend/go-services/pkg/sanitize"
	"github.com/campusnet/campusnet/backend/go-services/pkg/validator"
)

type Input struct {
	Title       string `form:"title" json:"title" binding:"required,max=200"`
	Description string `form:"description" json:"description" binding:"required,max=20000"`
	Link        string `form:"link" json:"link" binding:"omitempty,url"`
}

func (in Input) fields() (Fields, error) {
	if err := validator.Struct(in); err != nil {
		return Fields{}, err
	}
	f := Fields{Title: sanitize.Inline(in.Title), Description: sanitize.Text(in.Description), Link: in.Link}
	if f.Title == "" || f.Description == "" {
		return Fields{}, apperror.Validation("title and description are required")
	}
	return f, nil
}

// Service manages platform news. Reads are public; writes are reserved to administrators.
type Service struct {
	repo   Repository
	store  storage.Store
	limits storage.Limits
}

func NewService(repo Repository, store storage.Store, limits storage.Limits) *Service {
	return &Service{repo: repo, store: store, limits: limits}
}

func (s *Service) List(ctx context.Context) ([]*models.News, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperror.Internal("failed to list news", err)
	}
	return list, nil
}

func (s *Service) Get(ctx context.Context, rawID string) (*models.News, error) {
	id, err := models.ParseID(rawID, "news")
	if err != nil {
		return nil, err
	}
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperror.Internal("failed to load news", err)
	}
	if n == nil {
		return nil, apperror.NotFound("news not found")
	}
	return n, nil
}

func (s *Service) Create(ctx context.Context, actor *models.User, in Input, files []storage.Upload) (*models.News, error) {
	if !actor.IsAdmin() {
		return nil, apperror.Forbidden("only an administrator can publish news")
	}
	f, err := in.fields()
	if err != nil {
		return nil, err
	}
	urls, err := storage.SaveAll(ctx, s.store, files, s.limits)
	if err != nil {
		return nil, err
	}
	n := &models.News{Title: f.Title, Description: f.Description, Link: f.Link, Attachments: urls}
	if err := s.repo.Create(ctx, n); err != nil {
		storage.Cleanup(ctx, s.store, urls)
		return nil, apperror.Internal("failed to create news", err)
	}
	return n, nil
}

func (s *Service) Update(ctx context.Context, actor *models.User, rawID string, in Input, files []storage.Upload) (*models.News, error) {
	if !actor.IsAdmin() {
		return nil, apperror.Forbidden("only an administrator can edit news")
	}
	id, err := models.ParseID(rawID, "news")
	if err != nil {
		return nil, err
	}
	f, err := in.fields()
	if err != nil {
		return nil, err
	}
	urls, err := storage.SaveAll(ctx, s.store, files, s.limits)
	if err != nil {
		return nil, err
	}
	n, err := s.repo.Update(ctx, id, f, urls)
	if err != nil || n == nil {
		storage.Cleanup(ctx, s.store, urls)
		if err != nil {
			return nil, apperror.Internal("failed to update news", err)
		}
		return nil, apperror.NotFound("news not found")
	}
	return n, nil
}

func (s *Service) Delete(ctx context.Context, actor *models.User, rawID string) error {
	if !actor.IsAdmin() {
		return apperror.Forbidden("only an administrator can delete news")
	}
	id, err := models.ParseID(rawID, "news")
	if err != nil {
		return err
	}
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return apperror.Internal("failed to delete news", err)
	}
	if !ok {
		return apperror.NotFound("news not found")
	}
	return nil
}
