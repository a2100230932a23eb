package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/campusnet/campusnet/backend/go-services/internal/config"
	"github.com/campusnet/campusnet/backend/go-services/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Claims carried by both token kinds. Subject is the user id hex.
type Claims struct {
	Email string `json:"email,omitempty"`
	Type  string `json:"typ"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies access and refresh tokens with separate secrets.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewIssuer(cfg config.JWTConfig) *Issuer {
	return &Issuer{
		accessSecret:  []byte(cfg.Secret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
		now:           time.Now,
	}
}

func (i *Issuer) AccessTTL() time.Duration { return i.accessTTL }

// Access creates a signed access token for the user
func (i *Issuer) Access(u *models.User) (string, error) {
	return i.sign(u, TypeAccess, i.accessTTL, i.accessSecret)
}

// Refresh creates a signed refresh token for the user
func (i *Issuer) Refresh(u *models.User) (string, error) {
	return i.sign(u, TypeRefresh, i.refreshTTL, i.refreshSecret)
}

func (i *Issuer) sign(u *models.User, typ string, ttl time.Duration, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", fmt.Errorf("%s secret not configured", typ)
	}
	now := i.now()
	claims := Claims{
		Email: u.Email,
		Type:  typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (i *Issuer) ParseAccess(raw string) (*Claims, error) {
	return i.parse(raw, TypeAccess, i.accessSecret)
}

func (i *Issuer) ParseRefresh(raw string) (*Claims, error) {
	return i.parse(raw, TypeRefresh, i.refreshSecret)
}

func (i *Issuer) parse(raw, typ string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if claims.Type != typ || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
