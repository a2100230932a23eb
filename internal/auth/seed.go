package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/campusnet/campusnet/backend/go-services/internal/config"
	"github.com/campusnet/campusnet/backend/go-services/internal/models"
	"github.com/campusnet/campusnet/backend/go-services/internal/users"
)

// EnsureAdmin creates the administrator account described by cfg unless one with that email
// already exists. It reports whether an account was created.
func EnsureAdmin(ctx context.Context, repo users.UserRepository, cfg config.AdminConfig) (bool, error) {
	email := normalizeEmail(cfg.Email)
	if email == "" || cfg.Password == "" {
		return false, errors.New("ADMIN_EMAIL and ADMIN_PASSWORD are required")
	}
	existing, err := repo.GetByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("lookup admin: %w", err)
	}
	if existing != nil {
		if !existing.IsAdmin() {
			return false, fmt.Errorf("%s belongs to a %s account", email, existing.Type)
		}
		return false, nil
	}
	hash, err := HashPassword(cfg.Password, 0)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}
	name := cfg.Name
	if name == "" {
		name = "Administrator"
	}
	err = repo.Create(ctx, &models.User{
		Type:            models.UserTypeAdmin,
		Name:            name,
		Email:           email,
		Password:        hash,
		ListAbonnements: []string{},
		Attachments:     []string{},
	})
	if err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}
	return true, nil
}
