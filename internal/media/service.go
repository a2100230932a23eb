package media

import (
	"context"

	"github.com/campusnet/campusnet/backend/go-services/internal/models"
	"github.com/campusnet/campusnet/backend/go-services/internal/storage"
	"github.com/campusnet/campusnet/backend/go-services/internal/users"
	"github.com/campusnet/campusnet/backend/go-services/pkg/apperror"
	"github.com/campusnet/campusnet/backend/go-services/pkg/logger"
)

// Service stores uploaded files and links them to their owners.
type Service struct {
	store    storage.Store
	limits   storage.Limits
	repo     Repository
	users    users.UserRepository
	profiles *users.Service
}

func NewService(store storage.Store, limits storage.Limits, repo Repository, userRepo users.UserRepository, profiles *users.Service) *Service {
	return &Service{store: store, limits: limits, repo: repo, users: userRepo, profiles: profiles}
}

// Store exposes the underlying driver to other services that attach files.
func (s *Service) Store() storage.Store { return s.store }

func (s *Service) Limits() storage.Limits { return s.limits }

// UploadDocuments stores a student's documents, appends them to the student's attachments
// and enables applying to programs.
func (s *Service) UploadDocuments(ctx context.Context, actor *models.User, files []storage.Upload) (*models.User, error) {
	if !actor.IsStudent() {
		return nil, apperror.Forbidden("only students can upload application documents")
	}
	if len(files) == 0 {
		return nil, apperror.Validation("no file uploaded")
	}
	urls, err := storage.SaveAll(ctx, s.store, files, s.limits)
	if err != nil {
		return nil, err
	}
	updated, err := s.users.AppendAttachments(ctx, actor.ID, urls)
	if err != nil || updated == nil {
		storage.Cleanup(ctx, s.store, urls)
		if err != nil {
			return nil, apperror.Internal("failed to save documents", err)
		}
		return nil, apperror.NotFound("user not found")
	}
	s.record(ctx, actor, models.MediaDocument, urls)
	return updated, nil
}

// Upload stores a single file of the given kind and records it for the actor.
func (s *Service) Upload(ctx context.Context, actor *models.User, file *storage.Upload, kind models.MediaType) (*models.Media, error) {
	if file == nil {
		return nil, apperror.Validation("no file uploaded")
	}
	if kind == "" {
		kind = models.MediaDocument
	}
	if !kind.Valid() {
		return nil, apperror.Validation("invalid media type")
	}
	urls, err := storage.SaveAll(ctx, s.store, []storage.Upload{*file}, s.limits)
	if err != nil {
		return nil, err
	}
	m := &models.Media{UserID: actor.ID, Type: kind, URL: urls[0]}
	if err := s.repo.CreateMany(ctx, []*models.Media{m}); err != nil {
		storage.Cleanup(ctx, s.store, urls)
		return nil, apperror.Internal("failed to record upload", err)
	}
	return m, nil
}

// UpdateProfile stores the optional photo and cover files then applies the profile edit.
// Stored files are removed again when the edit is rejected.
func (s *Service) UpdateProfile(ctx context.Context, actor *models.User, in users.ProfileInput, photo, cover *storage.Upload) (*models.User, error) {
	var files []storage.Upload
	if photo != nil {
		files = append(files, *photo)
	}
	if cover != nil {
		files = append(files, *cover)
	}
	urls, err := storage.SaveAll(ctx, s.store, files, s.limits)
	if err != nil {
		return nil, err
	}
	var photoURL, coverURL string
	i := 0
	if photo != nil {
		photoURL = urls[i]
		i++
	}
	if cover != nil {
		coverURL = urls[i]
	}
	updated, err := s.profiles.UpdateProfile(ctx, actor, in, photoURL, coverURL)
	if err != nil {
		storage.Cleanup(ctx, s.store, urls)
		return nil, err
	}
	if photoURL != "" {
		s.record(ctx, actor, models.MediaProfilePicture, []string{photoURL})
	}
	return updated, nil
}

// ListByUser returns the uploads of a user. Only the user or an administrator may list them.
func (s *Service) ListByUser(ctx context.Context, actor *models.User, rawUserID string) ([]*models.Media, error) {
	id, err := models.ParseID(rawUserID, "user")
	if err != nil {
		return nil, err
	}
	if !actor.Owns(id) && !actor.IsAdmin() {
		return nil, apperror.Forbidden("cannot list another user's media")
	}
	list, err := s.repo.ListByUser(ctx, id)
	if err != nil {
		return nil, apperror.Internal("failed to list media", err)
	}
	return list, nil
}

// record writes Media rows for files already linked to their owner. A failure here
// leaves the owner's data intact, so it is logged rather than returned.
func (s *Service) record(ctx context.Context, actor *models.User, kind models.MediaType, urls []string) {
	items := make([]*models.Media, 0, len(urls))
	for _, u := range urls {
		items = append(items, &models.Media{UserID: actor.ID, Type: kind, URL: u})
	}
	if err := s.repo.CreateMany(ctx, items); err != nil {
		logger.Warnw("media record not saved", logger.Fields{"user": actor.ID.Hex(), "type": string(kind), "error": err.Error()})
	}
}
