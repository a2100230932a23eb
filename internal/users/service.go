package users

import (
	"context"
	"strings"

	"github.com/campusnet/campusnet/backend/go-services/internal/models"
	"github.com/campusnet/campusnet/backend/go-services/pkg/apperror"
	"github.com/campusnet/campusnet/backend/go-services/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Service encapsulates user-related business logic: profiles, entitlements and follows
type Service struct {
	repo UserRepository
}

func NewService(r UserRepository) *Service {
	return &Service{repo: r}
}

// ProfileInput is the editable part of a profile. Empty values are left unchanged.
type ProfileInput struct {
	Name         string `form:"name" json:"name" binding:"omitempty,min=2,max=120"`
	Presentation string `form:"presentation" json:"presentation" binding:"omitempty,max=5000"`
	Nationality  string `form:"nationality" json:"nationality" binding:"omitempty,max=80"`
	City         string `form:"city" json:"city" binding:"omitempty,max=120"`
	Country      string `form:"country" json:"country" binding:"omitempty,max=120"`
}

// FollowResult is the post-toggle state of a follow.
type FollowResult struct {
	Following   bool     `json:"following"`
	Subscribers []string `json:"subscribers"`
}

func (s *Service) Get(ctx context.Context, rawID string) (*models.User, error) {
	id, err := models.ParseID(rawID, "user")
	if err != nil {
		return nil, err
	}
	return s.mustGet(ctx, id)
}

func (s *Service) mustGet(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal("failed to load user", err)
	}
	if u == nil {
		return nil, apperror.NotFound("user not found")
	}
	return u, nil
}

func (s *Service) ListAll(ctx context.Context) ([]*models.User, error) {
	list, err := s.repo.List(ctx, "")
	if err != nil {
		return nil, apperror.Internal("failed to list users", err)
	}
	return list, nil
}

func (s *Service) ListUniversities(ctx context.Context) ([]*models.User, error) {
	list, err := s.repo.List(ctx, models.UserTypeUniversity)
	if err != nil {
		return nil, apperror.Internal("failed to list universities", err)
	}
	return list, nil
}

// SetEntitlements marks a university as authentic (or not). Only administrators may call it.
// canAddProgram, canAddPublication and canManageCandidates always end up equal to isAuthentic;
// the two manage flags follow them.
func (s *Service) SetEntitlements(ctx context.Context, actor *models.User, rawID string, isAuthentic bool) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, apperror.Forbidden("only an administrator can change entitlements")
	}
	id, err := models.ParseID(rawID, "university")
	if err != nil {
		return nil, err
	}
	target, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	if !target.IsUniversity() {
		return nil, apperror.Validation("entitlements only apply to universities")
	}
	updated, err := s.repo.SetEntitlements(ctx, id, models.Entitlements{
		CanAddProgram:         isAuthentic,
		CanManagePrograms:     isAuthentic,
		CanAddPublication:     isAuthentic,
		CanManagePublications: isAuthentic,
		CanManageCandidates:   isAuthentic,
	})
	if err != nil {
		return nil, apperror.Internal("failed to update entitlements", err)
	}
	if updated == nil {
		return nil, apperror.NotFound("user not found")
	}
	logger.Infow("entitlements updated", logger.Fields{"admin": actor.ID.Hex(), "university": id.Hex(), "authentic": isAuthentic})
	return updated, nil
}

// ToggleFollow adds the actor to the university's subscribers, or removes them when already there.
func (s *Service) ToggleFollow(ctx context.Context, actor *models.User, rawUniversityID string) (*FollowResult, error) {
	id, err := models.ParseID(rawUniversityID, "university")
	if err != nil {
		return nil, err
	}
	if actor.Owns(id) {
		return nil, apperror.Validation("cannot follow yourself")
	}
	target, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	if !target.IsUniversity() {
		return nil, apperror.Validation("only universities can be followed")
	}
	following, updated, err := s.repo.ToggleSubscriber(ctx, id, actor.ID.Hex())
	if err != nil {
		return nil, apperror.Internal("failed to update subscribers", err)
	}
	if updated == nil {
		return nil, apperror.NotFound("user not found")
	}
	return &FollowResult{Following: following, Subscribers: updated.ListAbonnements}, nil
}

// UpdateProfile applies the actor's own profile edits. photoURL and coverURL are set when non-empty.
func (s *Service) UpdateProfile(ctx context.Context, actor *models.User, in ProfileInput, photoURL, coverURL string) (*models.User, error) {
	var p ProfileUpdate
	if v := strings.TrimSpace(in.Name); v != "" {
		p.Name = &v
	}
	if v := strings.TrimSpace(in.Presentation); v != "" {
		p.Presentation = &v
	}
	if v := strings.TrimSpace(in.Nationality); v != "" {
		if !actor.IsStudent() {
			return nil, apperror.Validation("nationality only applies to students")
		}
		p.Nationality = &v
	}
	if in.City != "" || in.Country != "" {
		if !actor.IsUniversity() {
			return nil, apperror.Validation("address only applies to universities")
		}
		addr := models.Address{City: strings.TrimSpace(in.City), Country: strings.TrimSpace(in.Country)}
		if actor.Address != nil {
			if addr.City == "" {
				addr.City = actor.Address.City
			}
			if addr.Country == "" {
				addr.Country = actor.Address.Country
			}
		}
		p.Address = &addr
	}
	if photoURL != "" {
		p.ProfilePicture = &photoURL
	}
	if coverURL != "" {
		p.CoverPhoto = &coverURL
	}
	updated, err := s.repo.UpdateProfile(ctx, actor.ID, p)
	if err != nil {
		return nil, apperror.Internal("failed to update profile", err)
	}
	if updated == nil {
		return nil, apperror.NotFound("user not found")
	}
	return updated, nil
}
