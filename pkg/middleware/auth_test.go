package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/campusnet/campusnet/backend/go-services/internal/config"
	"github.com/campusnet/campusnet/backend/go-services/internal/models"
	"github.com/campusnet/campusnet/backend/go-services/internal/sessions"
	"github.com/campusnet/campusnet/backend/go-services/internal/tokens"
	"github.com/campusnet/campusnet/backend/go-services/internal/users"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type gateFixture struct {
	gate      *Gate
	issuer    *tokens.Issuer
	repo      *users.MemoryRepository
	blacklist *sessions.Blacklist
	student   *models.User
	admin     *models.User
}

func newGateFixture(t *testing.T, accessTTL time.Duration) *gateFixture {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)

	issuer := tokens.NewIssuer(config.JWTConfig{
		Secret:          "access-secret",
		RefreshSecret:   "refresh-secret",
		AccessTokenTTL:  accessTTL,
		RefreshTokenTTL: time.Hour,
	})
	repo := users.NewMemoryRepository()
	ctx := context.Background()
	student := &models.User{Type: models.UserTypeStudent, Name: "Student", Email: "s@example.com"}
	admin := &models.User{Type: models.UserTypeAdmin, Name: "Admin", Email: "a@example.com"}
	require.NoError(t, repo.Create(ctx, student))
	require.NoError(t, repo.Create(ctx, admin))

	bl := sessions.NewBlacklist(redis.NewClient(&redis.Options{Addr: m.Addr()}))
	return &gateFixture{
		gate:      NewGate(issuer, repo, bl),
		issuer:    issuer,
		repo:      repo,
		blacklist: bl,
		student:   student,
		admin:     admin,
	}
}

func (f *gateFixture) router() *gin.Engine {
	r := gin.New()
	r.GET("/me", f.gate.Authenticate(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": CurrentUser(c).ID.Hex()})
	})
	r.GET("/admin", f.gate.Authenticate(), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/ws", f.gate.AuthenticateWS(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/feed", f.gate.OptionalAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"anonymous": CurrentUser(c) == nil})
	})
	return r
}

func withBearer(method, path, token string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate_ValidToken(t *testing.T) {
	f := newGateFixture(t, time.Hour)
	token, err := f.issuer.Access(f.student)
	require.NoError(t, err)

	w := do(f.router(), withBearer("GET", "/me", token))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), f.student.ID.Hex())
}

func TestAuthenticate_Rejections(t *testing.T) {
	f := newGateFixture(t, time.Hour)
	r := f.router()

	w := do(r, withBearer("GET", "/me", ""))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.JSONEq(t, `{"error":"missing Authorization header"}`, w.Body.String())

	w = do(r, withBearer("GET", "/me", "not-a-jwt"))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.JSONEq(t, `{"error":"invalid token"}`, w.Body.String())

	refresh, err := f.issuer.Refresh(f.student)
	require.NoError(t, err)
	w = do(r, withBearer("GET", "/me", refresh))
	require.Equal(t, http.StatusUnauthorized, w.Code, "refresh tokens are not access tokens")

	ghost := &models.User{ID: primitive.NewObjectID(), Email: "ghost@example.com"}
	token, err := f.issuer.Access(ghost)
	require.NoError(t, err)
	w = do(r, withBearer("GET", "/me", token))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.JSONEq(t, `{"error":"user not found"}`, w.Body.String())
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	f := newGateFixture(t, -time.Minute)
	token, err := f.issuer.Access(f.student)
	require.NoError(t, err)

	w := do(f.router(), withBearer("GET", "/me", token))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.JSONEq(t, `{"error":"token expired"}`, w.Body.String())
}

func TestAuthenticate_RevokedToken(t *testing.T) {
	f := newGateFixture(t, time.Hour)
	token, err := f.issuer.Access(f.student)
	require.NoError(t, err)
	claims, err := f.issuer.ParseAccess(token)
	require.NoError(t, err)
	require.NoError(t, f.blacklist.Revoke(context.Background(), claims.ID, time.Hour))

	w := do(f.router(), withBearer("GET", "/me", token))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.JSONEq(t, `{"error":"token revoked"}`, w.Body.String())
}

func TestRequireAdmin(t *testing.T) {
	f := newGateFixture(t, time.Hour)
	r := f.router()

	studentToken, _ := f.issuer.Access(f.student)
	adminToken, _ := f.issuer.Access(f.admin)

	require.Equal(t, http.StatusForbidden, do(r, withBearer("GET", "/admin", studentToken)).Code)
	require.Equal(t, http.StatusNoContent, do(r, withBearer("GET", "/admin", adminToken)).Code)
}

func TestAuthenticateWS_AcceptsQueryToken(t *testing.T) {
	f := newGateFixture(t, time.Hour)
	token, _ := f.issuer.Access(f.student)
	r := f.router()

	require.Equal(t, http.StatusNoContent, do(r, httptest.NewRequest("GET", "/ws?token="+token, nil)).Code)
	require.Equal(t, http.StatusUnauthorized, do(r, httptest.NewRequest("GET", "/me?token="+token, nil)).Code)
}

func TestOptionalAuth(t *testing.T) {
	f := newGateFixture(t, time.Hour)
	token, _ := f.issuer.Access(f.student)
	r := f.router()

	require.JSONEq(t, `{"anonymous":true}`, do(r, withBearer("GET", "/feed", "")).Body.String())
	require.JSONEq(t, `{"anonymous":true}`, do(r, withBearer("GET", "/feed", "garbage")).Body.String())
	require.JSONEq(t, `{"anonymous":false}`, do(r, withBearer("GET", "/feed", token)).Body.String())
}

func TestBearerToken(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/", nil)
	require.Empty(t, BearerToken(c))

	c.Request.Header.Set("Authorization", "bearer abc.def")
	require.Equal(t, "abc.def", BearerToken(c))

	c.Request.Header.Set("Authorization", "Basic Zm9vOmJhcg==")
	require.Empty(t, BearerToken(c))
}
