package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/priyanshu-0212/my-agri-portal/internal/models"
)

// ErrSessionRevoked is returned for tokens whose ID is on the logout denylist.
var ErrSessionRevoked = errors.New("session has been revoked")

// SessionClaims is the payload of a session token. The token travels in an
// HttpOnly cookie; role and admin flag are embedded so handlers can build
// the Actor without a user lookup on every request.
type SessionClaims struct {
	UserID  string      `json:"user_id"`
	Role    models.Role `json:"role"`
	IsAdmin bool        `json:"is_admin"`
	jwt.RegisteredClaims
}

// NewSessionToken issues a signed session token for a user.
func NewSessionToken(user *models.User, secretKey string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		UserID:  user.ID.Hex(),
		Role:    user.Role,
		IsAdmin: user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return tokenString, nil
}

// ValidateSessionToken verifies a session token and returns its claims.
// It does not consult the revocation list; see CheckRevoked.
func ValidateSessionToken(tokenString, secretKey string) (*SessionClaims, error) {
	claims := &SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse session token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid session token")
	}
	return claims, nil
}

// Actor builds the request-scoped identity carried by the claims.
func (c *SessionClaims) Actor() (models.Actor, error) {
	userID, err := primitive.ObjectIDFromHex(c.UserID)
	if err != nil {
		return models.Actor{}, fmt.Errorf("invalid user ID in session claims: %w", err)
	}
	return models.Actor{ID: userID, Role: c.Role, IsAdmin: c.IsAdmin}, nil
}

func revokedKey(jti string) string {
	return "session:revoked:" + jti
}

// Revoke places a token's ID on the Redis denylist until the token would
// have expired anyway. Used by logout.
func Revoke(ctx context.Context, rdb *redis.Client, claims *SessionClaims) error {
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil // Already expired, nothing to revoke
	}
	if err := rdb.Set(ctx, revokedKey(claims.ID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke session %s: %w", claims.ID, err)
	}
	return nil
}

// CheckRevoked returns ErrSessionRevoked if the token's ID is denylisted.
func CheckRevoked(ctx context.Context, rdb *redis.Client, claims *SessionClaims) error {
	_, err := rdb.Get(ctx, revokedKey(claims.ID)).Result()
	if err == nil {
		return ErrSessionRevoked
	}
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return fmt.Errorf("failed to check session revocation: %w", err)
}
