// Package auth resolves bearer tokens into user identities.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lingobox/lingobox/internal/clock"
	"github.com/lingobox/lingobox/internal/models"
)

// ErrNoToken is returned when the request carries no bearer token.
var ErrNoToken = errors.New("no bearer token")

// Claims are the token claims lingobox reads.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator turns a bearer token into a user.
type Authenticator interface {
	Resolve(token string) (models.User, error)
}

// JWTAuthenticator signs and verifies HS256 tokens.
type JWTAuthenticator struct {
	secret []byte
	issuer string
	ttl    time.Duration
	clock  clock.Clock
}

func NewJWTAuthenticator(secret, issuer string, ttl time.Duration, clk clock.Clock) *JWTAuthenticator {
	return &JWTAuthenticator{secret: []byte(secret), issuer: issuer, ttl: ttl, clock: clk}
}

// Issue signs a token for userID.
func (a *JWTAuthenticator) Issue(userID, role string) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}
	if role == "" {
		role = models.RoleUser
	}
	now := a.clock.Now()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Resolve verifies token and returns the user it names.
func (a *JWTAuthenticator) Resolve(token string) (models.User, error) {
	if token == "" {
		return models.User{}, ErrNoToken
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(a.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.clock.Now),
	)
	if err != nil {
		return models.User{}, fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return models.User{}, errors.New("invalid token: missing subject")
	}

	role := models.RoleUser
	if claims.Role == models.RoleAdmin {
		role = models.RoleAdmin
	}
	return models.User{ID: claims.Subject, Role: role}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
