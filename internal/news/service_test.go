package news

import (
	"context"
	"errors"
	"testing"

	"github.com/campusnet/campusnet/backend/go-services/internal/models"
	"github.com/campusnet/campusnet/backend/go-services/internal/storage"
	"github.com/campusnet/campusnet/backend/go-services/pkg/apperror"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newService(t *testing.T) *Service {
	store, err := storage.NewLocalStore(t.TempDir(), "http://localhost:5000/uploads/")
	require.NoError(t, err)
	return NewService(NewMemoryRepository(), store, storage.Limits{MaxFiles: 5})
}

func TestNews_AdminLifecycle(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	admin := &models.User{ID: primitive.NewObjectID(), Type: models.UserTypeAdmin}

	n, err := svc.Create(ctx, admin, Input{Title: "Rentrée 2025", Description: "<i>Dates</i> announced", Link: "https://campus.example.com/rentree"}, nil)
	require.NoError(t, err)
	require.Equal(t, "Dates announced", n.Description)

	n, err = svc.Update(ctx, admin, n.ID.Hex(), Input{Title: "Rentrée 2025 (updated)", Description: "New dates"}, nil)
	require.NoError(t, err)
	require.Equal(t, "Rentrée 2025 (updated)", n.Title)
	require.Empty(t, n.Link)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, admin, n.ID.Hex()))
	_, err = svc.Get(ctx, n.ID.Hex())
	require.True(t, errors.Is(err, apperror.ErrNotFound))
	require.True(t, errors.Is(svc.Delete(ctx, admin, n.ID.Hex()), apperror.ErrNotFound))
}

func TestNews_WritesRequireAdmin(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	uni := &models.User{ID: primitive.NewObjectID(), Type: models.UserTypeUniversity}
	uni.CanAddPublication = true

	_, err := svc.Create(ctx, uni, Input{Title: "t", Description: "d"}, nil)
	require.True(t, errors.Is(err, apperror.ErrForbidden))
	_, err = svc.Update(ctx, uni, primitive.NewObjectID().Hex(), Input{Title: "t", Description: "d"}, nil)
	require.True(t, errors.Is(err, apperror.ErrForbidden))
	require.True(t, errors.Is(svc.Delete(ctx, uni, primitive.NewObjectID().Hex()), apperror.ErrForbidden))
}

func TestNews_Validation(t *testing.T) {
	svc := newService(t)
	admin := &models.User{ID: primitive.NewObjectID(), Type: models.UserTypeAdmin}
	_, err := svc.Create(context.Background(), admin, Input{Title: "t"}, nil)
	require.True(t, errors.Is(err, apperror.ErrValidation))
	_, err = svc.Create(context.Background(), admin, Input{Title: "t", Description: "d", Link: "not a url"}, nil)
	require.True(t, errors.Is(err, apperror.ErrValidation))
}
