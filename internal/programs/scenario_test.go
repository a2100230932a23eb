package programs

import (
	"context"
	"testing"
	"time"

	"github.com/campusnet/campusnet/backend/go-services/internal/auth"
	"github.com/campusnet/campusnet/backend/go-services/internal/candidatures"
	"github.com/campusnet/campusnet/backend/go-services/internal/config"
	"github.com/campusnet/campusnet/backend/go-services/internal/database"
	"github.com/campusnet/campusnet/backend/go-services/internal/media"
	"github.com/campusnet/campusnet/backend/go-services/internal/models"
	"github.com/campusnet/campusnet/backend/go-services/internal/notifications"
	"github.com/campusnet/campusnet/backend/go-services/internal/search"
	"github.com/campusnet/campusnet/backend/go-services/internal/sessions"
	"github.com/campusnet/campusnet/backend/go-services/internal/storage"
	"github.com/campusnet/campusnet/backend/go-services/internal/tokens"
	"github.com/campusnet/campusnet/backend/go-services/internal/users"
	"github.com/stretchr/testify/require"
)

// A student registers, logs in, uploads a document and applies to a university's program.
func TestStudentApplicationScenario(t *testing.T) {
	ctx := context.Background()
	userRepo := users.NewMemoryRepository()
	issuer := tokens.NewIssuer(config.JWTConfig{
		Secret:          "scenario-access-secret-xxxxxxxxxxxx",
		RefreshSecret:   "scenario-refresh-secret-xxxxxxxxxxx",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	})
	authSvc := auth.NewService(userRepo, issuer, sessions.NewBlacklist(nil))
	store, err := storage.NewLocalStore(t.TempDir(), "http://localhost:5000/uploads/")
	require.NoError(t, err)
	limits := storage.Limits{MaxFiles: 5}
	mediaSvc := media.NewService(store, limits, media.NewMemoryRepository(), userRepo, users.NewService(userRepo))

	cands := candidatures.NewMemoryRepository()
	notes := notifications.NewMemoryRepository()
	progRepo := NewMemoryRepository()
	progSvc := NewService(progRepo, cands, notifications.NewService(notes, nil), database.CompensatingTransactor{},
		search.NopProgramIndex{}, store, limits)

	uniUser, _, err := authSvc.Register(ctx, auth.RegisterInput{
		Type: "university", Name: "U", Email: "u@campus.io", Password: "secret1",
		Address: &models.Address{City: "Dakar", Country: "SN"},
	})
	require.NoError(t, err)
	uni, err := userRepo.SetEntitlements(ctx, uniUser.ID, models.Entitlements{CanAddProgram: true, CanAddPublication: true, CanManageCandidates: true})
	require.NoError(t, err)
	p, err := progSvc.Create(ctx, uni, Input{Title: "P", Price: price(500), Duration: 12}, nil)
	require.NoError(t, err)

	_, token, err := authSvc.Register(ctx, auth.RegisterInput{Type: "student", Name: "S", Email: "s@campus.io", Password: "secret1", Nationality: "SN"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	login, err := authSvc.Login(ctx, auth.LoginInput{Email: "s@campus.io", Password: "secret1"})
	require.NoError(t, err)
	claims, err := issuer.ParseAccess(login.AccessToken)
	require.NoError(t, err)
	require.Equal(t, login.User.ID.Hex(), claims.Subject)
	require.False(t, login.User.CanCandidate)

	s, err := mediaSvc.UploadDocuments(ctx, login.User, []storage.Upload{file("transcript.pdf")})
	require.NoError(t, err)
	require.True(t, s.CanCandidate)

	c, err := progSvc.Apply(ctx, s, p.ID.Hex())
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, c.Statut)

	list, _ := cands.ListByStudent(ctx, s.ID)
	require.Len(t, list, 1)
	uniNotes, _ := notes.ListByUser(ctx, uni.ID)
	require.Len(t, uniNotes, 1)
	stored, _ := progRepo.Get(ctx, p.ID)
	require.Equal(t, []string{s.ID.Hex()}, stored.Applications)
}
