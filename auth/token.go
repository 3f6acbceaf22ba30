// Package auth provides the identity of the local user from a signed token.
package auth

import (
	"chat-sync/domain"
	"chat-sync/errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "chat-sync"

// Claims defines the structure of the data stored inside the JWT.
type Claims struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed JWT for a specific user.
func GenerateToken(secret []byte, userID string, roles []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}
	// HS256, signed with the shared secret
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken checks the signature and the expiration of a JWT string.
func ParseToken(secret []byte, raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.ErrInvalidToken
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing user_id", errors.ErrInvalidToken)
	}
	return claims, nil
}

// TokenIdentity is the domain.Identity carried by a validated token.
// The raw token is kept to authenticate against the transport.
type TokenIdentity struct {
	raw    string
	claims *Claims
}

func NewTokenIdentity(secret []byte, raw string) (*TokenIdentity, error) {
	claims, err := ParseToken(secret, raw)
	if err != nil {
		return nil, err
	}
	return &TokenIdentity{raw: raw, claims: claims}, nil
}

func (t *TokenIdentity) CurrentUserID() domain.UserID {
	return domain.UserID(t.claims.UserID)
}

func (t *TokenIdentity) HasRole(role string) bool {
	return slices.Contains(t.claims.Roles, role)
}

func (t *TokenIdentity) Token() string { return t.raw }

// ExpiresAt is the zero time for tokens without expiration.
func (t *TokenIdentity) ExpiresAt() time.Time {
	if t.claims.ExpiresAt == nil {
		return time.Time{}
	}
	return t.claims.ExpiresAt.Time
}
