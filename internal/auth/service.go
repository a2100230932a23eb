package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/campusnet/campusnet/backend/go-services/internal/database"
	"github.com/campusnet/campusnet/backend/go-services/internal/models"
	"github.com/campusnet/campusnet/backend/go-services/internal/sessions"
	"github.com/campusnet/campusnet/backend/go-services/internal/tokens"
	"github.com/campusnet/campusnet/backend/go-services/internal/users"
	"github.com/campusnet/campusnet/backend/go-services/pkg/apperror"
	"github.com/campusnet/campusnet/backend/go-services/pkg/logger"
	"github.com/campusnet/campusnet/backend/go-services/pkg/metrics"
	"github.com/campusnet/campusnet/backend/go-services/pkg/validator"
)

// RegisterInput is the registration payload. Nationality is required for students,
// address for universities.
type RegisterInput struct {
	Type           string          `json:"type" binding:"required,oneof=student university admin"`
	Name           string          `json:"name" binding:"required,max=120"`
	Email          string          `json:"email" binding:"required,email"`
	Password       string          `json:"password" binding:"required,min=6,max=72"`
	ProfilePicture string          `json:"profilePicture" binding:"omitempty,url"`
	Presentation   string          `json:"presentation" binding:"max=5000"`
	Nationality    string          `json:"nationality" binding:"max=80"`
	Address        *models.Address `json:"address"`
	Attachments    []string        `json:"attachments" binding:"omitempty,dive,url"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResult struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         *models.User `json:"user"`
}

// Service registers users and issues, rotates and revokes their tokens.
type Service struct {
	users     users.UserRepository
	issuer    *tokens.Issuer
	blacklist *sessions.Blacklist
	hashCost  int
}

func NewService(repo users.UserRepository, issuer *tokens.Issuer, blacklist *sessions.Blacklist) *Service {
	return &Service{users: repo, issuer: issuer, blacklist: blacklist}
}

func record(event string, err error) {
	metrics.AuthEvents.WithLabelValues(event, metrics.Outcome(err)).Inc()
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

// Register creates a student or university account with every entitlement off and returns
// it with a fresh access token. Nothing is persisted when validation fails.
func (s *Service) Register(ctx context.Context, in RegisterInput) (u *models.User, token string, err error) {
	defer func() { record("register", err) }()

	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := validator.Struct(in); err != nil {
		return nil, "", err
	}
	typ := models.UserType(in.Type)
	switch typ {
	case models.UserTypeAdmin:
		return nil, "", apperror.Forbidden("administrator accounts cannot be self-registered")
	case models.UserTypeStudent:
		if strings.TrimSpace(in.Nationality) == "" {
			return nil, "", apperror.Validation("nationality is required for a student")
		}
	case models.UserTypeUniversity:
		if in.Address.Empty() {
			return nil, "", apperror.Validation("address is required for a university")
		}
	}

	existing, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, "", apperror.Internal("failed to check email", err)
	}
	if existing != nil {
		return nil, "", apperror.Conflict("email already in use")
	}

	hash, err := HashPassword(in.Password, s.hashCost)
	if err != nil {
		return nil, "", apperror.Internal("failed to hash password", err)
	}
	u = &models.User{
		Type:            typ,
		Name:            in.Name,
		Email:           in.Email,
		Password:        hash,
		Presentation:    in.Presentation,
		ProfilePicture:  in.ProfilePicture,
		Nationality:     strings.TrimSpace(in.Nationality),
		Attachments:     append([]string{}, in.Attachments...),
		ListAbonnements: []string{},
	}
	if typ == models.UserTypeUniversity {
		u.Address = in.Address
	}
	if err := s.users.Create(ctx, u); err != nil {
		if database.IsDuplicateKey(err) || errors.Is(err, users.ErrDuplicateEmail) {
			return nil, "", apperror.Conflict("email already in use")
		}
		return nil, "", apperror.Internal("failed to create user", err)
	}

	token, err = s.issuer.Access(u)
	if err != nil {
		return nil, "", apperror.Internal("failed to create access token", err)
	}
	logger.Infow("user registered", logger.Fields{"user": u.ID.Hex(), "type": u.Type})
	return u, token, nil
}

// Login verifies credentials and starts the single active session, replacing any previous refresh token.
func (s *Service) Login(ctx context.Context, in LoginInput) (res *LoginResult, err error) {
	defer func() { record("login", err) }()

	in.Email = normalizeEmail(in.Email)
	if err := validator.Struct(in); err != nil {
		return nil, err
	}
	u, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, apperror.Internal("failed to load user", err)
	}
	if u == nil {
		return nil, apperror.NotFound("user not found")
	}
	if err := CheckPassword(u.Password, in.Password); err != nil {
		if errors.Is(err, ErrPasswordMismatch) {
			return nil, apperror.Unauthorized("incorrect password")
		}
		return nil, apperror.Internal("failed to verify password", err)
	}

	access, err := s.issuer.Access(u)
	if err != nil {
		return nil, apperror.Internal("failed to create access token", err)
	}
	refresh, err := s.issuer.Refresh(u)
	if err != nil {
		return nil, apperror.Internal("failed to create refresh token", err)
	}
	if err := s.users.SetRefreshToken(ctx, u.ID, refresh); err != nil {
		return nil, apperror.Internal("failed to store session", err)
	}
	u.RefreshToken = refresh
	return &LoginResult{AccessToken: access, RefreshToken: refresh, User: u}, nil
}

// Refresh issues a new access token for a refresh token that verifies and matches the stored one.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (access string, err error) {
	defer func() { record("refresh", err) }()

	if refreshToken == "" {
		return "", apperror.Unauthorized("refresh token missing")
	}
	claims, err := s.issuer.ParseRefresh(refreshToken)
	if err != nil {
		return "", apperror.Forbidden("refresh token expired or invalid")
	}
	id, err := models.ParseID(claims.Subject, "user")
	if err != nil {
		return "", apperror.Forbidden("refresh token expired or invalid")
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return "", apperror.Internal("failed to load user", err)
	}
	if u == nil || u.RefreshToken != refreshToken {
		return "", apperror.Forbidden("refresh token expired or invalid")
	}
	access, err = s.issuer.Access(u)
	if err != nil {
		return "", apperror.Internal("failed to create access token", err)
	}
	return access, nil
}

// Logout clears the stored refresh token and, when the caller's access token is supplied,
// revokes it for the rest of its lifetime. Succeeds when nothing matches.
func (s *Service) Logout(ctx context.Context, refreshToken, accessToken string) (err error) {
	defer func() { record("logout", err) }()

	if _, err := s.users.ClearRefreshToken(ctx, refreshToken); err != nil {
		return apperror.Internal("failed to end session", err)
	}
	if accessToken == "" {
		return nil
	}
	claims, perr := s.issuer.ParseAccess(accessToken)
	if perr != nil {
		// expired or foreign tokens need no revocation
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.blacklist.Revoke(ctx, claims.ID, ttl); err != nil {
		return apperror.Internal("failed to revoke access token", err)
	}
	return nil
}
