package users

import (
	"context"
	"errors"
	"testing"

	"github.com/campusnet/campusnet/backend/go-services/internal/models"
	"github.com/campusnet/campusnet/backend/go-services/pkg/apperror"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, repo *MemoryRepository, typ models.UserType, email string) *models.User {
	t.Helper()
	u := &models.User{Type: typ, Name: string(typ), Email: email}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestSetEntitlements_AdminSetsAllFlagsTogether(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()
	admin := seed(t, repo, models.UserTypeAdmin, "admin@x.io")
	uni := seed(t, repo, models.UserTypeUniversity, "uni@x.io")

	u, err := svc.SetEntitlements(ctx, admin, uni.ID.Hex(), true)
	require.NoError(t, err)
	require.True(t, u.CanAddProgram)
	require.True(t, u.CanAddPublication)
	require.True(t, u.CanManageCandidates)

	stored, _ := repo.GetByID(ctx, uni.ID)
	require.True(t, stored.CanAddProgram && stored.CanAddPublication && stored.CanManageCandidates)

	u, err = svc.SetEntitlements(ctx, admin, uni.ID.Hex(), false)
	require.NoError(t, err)
	require.False(t, u.CanAddProgram || u.CanAddPublication || u.CanManageCandidates || u.CanManagePrograms || u.CanManagePublications)
}

func TestSetEntitlements_NonAdminForbidden(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()
	uni := seed(t, repo, models.UserTypeUniversity, "uni@x.io")
	other := seed(t, repo, models.UserTypeUniversity, "other@x.io")

	_, err := svc.SetEntitlements(ctx, other, uni.ID.Hex(), true)
	require.True(t, errors.Is(err, apperror.ErrForbidden))

	// self-promotion is rejected too
	_, err = svc.SetEntitlements(ctx, uni, uni.ID.Hex(), true)
	require.True(t, errors.Is(err, apperror.ErrForbidden))

	stored, _ := repo.GetByID(ctx, uni.ID)
	require.False(t, stored.CanAddProgram)
}

func TestSetEntitlements_TargetChecks(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()
	admin := seed(t, repo, models.UserTypeAdmin, "admin@x.io")
	student := seed(t, repo, models.UserTypeStudent, "s@x.io")

	_, err := svc.SetEntitlements(ctx, admin, student.ID.Hex(), true)
	require.True(t, errors.Is(err, apperror.ErrValidation))

	_, err = svc.SetEntitlements(ctx, admin, "64b000000000000000000000", true)
	require.True(t, errors.Is(err, apperror.ErrNotFound))

	_, err = svc.SetEntitlements(ctx, admin, "not-an-id", true)
	require.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestToggleFollow_IsAnInvolution(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()
	uni := seed(t, repo, models.UserTypeUniversity, "uni@x.io")
	student := seed(t, repo, models.UserTypeStudent, "s@x.io")

	res, err := svc.ToggleFollow(ctx, student, uni.ID.Hex())
	require.NoError(t, err)
	require.True(t, res.Following)
	require.Equal(t, []string{student.ID.Hex()}, res.Subscribers)

	res, err = svc.ToggleFollow(ctx, student, uni.ID.Hex())
	require.NoError(t, err)
	require.False(t, res.Following)
	require.Empty(t, res.Subscribers)
}

func TestToggleFollow_Rejections(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()
	uni := seed(t, repo, models.UserTypeUniversity, "uni@x.io")
	student := seed(t, repo, models.UserTypeStudent, "s@x.io")
	other := seed(t, repo, models.UserTypeStudent, "o@x.io")

	_, err := svc.ToggleFollow(ctx, uni, uni.ID.Hex())
	require.True(t, errors.Is(err, apperror.ErrValidation))

	_, err = svc.ToggleFollow(ctx, student, other.ID.Hex())
	require.True(t, errors.Is(err, apperror.ErrValidation))

	_, err = svc.ToggleFollow(ctx, student, "64b000000000000000000000")
	require.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestUpdateProfile(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()
	uni := seed(t, repo, models.UserTypeUniversity, "uni@x.io")
	student := seed(t, repo, models.UserTypeStudent, "s@x.io")

	u, err := svc.UpdateProfile(ctx, uni, ProfileInput{Name: " Sorbonne ", City: "Paris"}, "http://cdn/p.png", "")
	require.NoError(t, err)
	require.Equal(t, "Sorbonne", u.Name)
	require.Equal(t, "Paris", u.Address.City)
	require.Equal(t, "http://cdn/p.png", u.ProfilePicture)
	require.Empty(t, u.CoverPhoto)

	_, err = svc.UpdateProfile(ctx, uni, ProfileInput{Nationality: "FR"}, "", "")
	require.True(t, errors.Is(err, apperror.ErrValidation))

	_, err = svc.UpdateProfile(ctx, student, ProfileInput{Country: "FR"}, "", "")
	require.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestListUniversities(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	seed(t, repo, models.UserTypeUniversity, "u1@x.io")
	seed(t, repo, models.UserTypeStudent, "s@x.io")

	list, err := svc.ListUniversities(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)

	all, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
}
