package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/campusnet/campusnet/backend/go-services/internal/models"
	"github.com/campusnet/campusnet/backend/go-services/internal/sessions"
	"github.com/campusnet/campusnet/backend/go-services/internal/tokens"
	"github.com/campusnet/campusnet/backend/go-services/pkg/apperror"
	"github.com/campusnet/campusnet/backend/go-services/pkg/response"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	userKey   = "currentUser"
	claimsKey = "claims"
)

// UserLookup resolves a token subject to a stored user. It returns (nil, nil) when none exists.
type UserLookup interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Gate turns bearer access tokens into the current user.
type Gate struct {
	issuer    *tokens.Issuer
	users     UserLookup
	blacklist *sessions.Blacklist
}

func NewGate(issuer *tokens.Issuer, users UserLookup, blacklist *sessions.Blacklist) *Gate {
	return &Gate{issuer: issuer, users: users, blacklist: blacklist}
}

// BearerToken returns the token from an "Authorization: Bearer <token>" header, or "".
func BearerToken(c *gin.Context) string {
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// Authenticate rejects the request with 401 unless it carries a valid access token for an existing user.
func (g *Gate) Authenticate() gin.HandlerFunc {
	return g.authenticate(false)
}

// AuthenticateWS is Authenticate that also accepts the token in the "token" query parameter,
// since browsers cannot set headers on websocket handshakes.
func (g *Gate) AuthenticateWS() gin.HandlerFunc {
	return g.authenticate(true)
}

func (g *Gate) authenticate(allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := BearerToken(c)
		if raw == "" && allowQuery {
			raw = c.Query("token")
		}
		if raw == "" {
			response.Error(c, apperror.Unauthorized("missing Authorization header"))
			return
		}
		u, claims, err := g.resolve(c.Request.Context(), raw)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Set(userKey, u)
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// OptionalAuth attaches the current user when a valid token is present and lets anonymous
// or invalid-token requests through without one.
func (g *Gate) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := BearerToken(c); raw != "" {
			if u, claims, err := g.resolve(c.Request.Context(), raw); err == nil {
				c.Set(userKey, u)
				c.Set(claimsKey, claims)
			}
		}
		c.Next()
	}
}

func (g *Gate) resolve(ctx context.Context, raw string) (*models.User, *tokens.Claims, error) {
	claims, err := g.issuer.ParseAccess(raw)
	if err != nil {
		if errors.Is(err, tokens.ErrTokenExpired) {
			return nil, nil, apperror.ErrTokenExpired
		}
		return nil, nil, apperror.Unauthorized("invalid token")
	}
	revoked, err := g.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, nil, apperror.Internal("failed to check token", err)
	}
	if revoked {
		return nil, nil, apperror.Unauthorized("token revoked")
	}
	id, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return nil, nil, apperror.Unauthorized("invalid token")
	}
	u, err := g.users.GetByID(ctx, id)
	if err != nil {
		return nil, nil, apperror.Internal("failed to load user", err)
	}
	if u == nil {
		return nil, nil, apperror.Unauthorized("user not found")
	}
	return u, claims, nil
}

// RequireAdmin must run after Authenticate.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CurrentUser(c).IsAdmin() {
			response.Error(c, apperror.Forbidden("administrator access required"))
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil on anonymous requests.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

// CurrentClaims returns the verified access token claims, or nil.
func CurrentClaims(c *gin.Context) *tokens.Claims {
	if v, ok := c.Get(claimsKey); ok {
		if cl, ok := v.(*tokens.Claims); ok {
			return cl
		}
	}
	return nil
}

// SetCurrentUser attaches u to the request, for tests of handlers behind the gate.
func SetCurrentUser(c *gin.Context, u *models.User) {
	c.Set(userKey, u)
}

// limiterKey prefers the authenticated user so that users behind one NAT get separate budgets.
func limiterKey(c *gin.Context) string {
	if u := CurrentUser(c); u != nil {
		return "user:" + u.ID.Hex()
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}
