// Package auth validates the bearer credential presented when a signaling
// connection is opened. Accounts and login live elsewhere; this package only
// checks what they issued.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dkeye/Voice/internal/domain"
)

var ErrUnauthorized = errors.New("unauthorized")

//go:generate mockgen -source=jwt.go -destination=mocks/mock_validator.go -package=mocks

// Validator turns a bearer credential into the user it was issued for.
type Validator interface {
	Validate(token string) (domain.UserID, error)
}

type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// JWTManager signs and checks HS256 tokens carrying the user id in "uid".
type JWTManager struct {
	Secret []byte
	TTL    time.Duration
}

func NewJWTManager(secret string, ttl time.Duration) JWTManager {
	return JWTManager{Secret: []byte(secret), TTL: ttl}
}

func (m JWTManager) Generate(userID domain.UserID) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: string(userID),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.TTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.Secret)
}

func (m JWTManager) Parse(token string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return m.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return Claims{}, err
	}
	return claims, nil
}

func (m JWTManager) Validate(token string) (domain.UserID, error) {
	if token == "" {
		return "", fmt.Errorf("%w: missing token", ErrUnauthorized)
	}
	claims, err := m.Parse(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	uid, err := domain.ParseUserID(claims.UserID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return uid, nil
}

// TokenFromRequest reads the bearer from the Authorization header, falling
// back to the token query parameter browsers use for websockets.
func TokenFromRequest(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if scheme, rest, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(rest)
	}
	return r.URL.Query().Get("token")
}
