// Package auth verifies the bearer identity tokens attached to every
// storage-core request and exposes the caller identity to handlers.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the caller's privilege level.
type Role string

const (
	// RoleUser is a regular authenticated reporter.
	RoleUser Role = "user"
	// RoleModerator reviews complaints and may promote evidence.
	RoleModerator Role = "moderator"
	// RoleAdmin holds every moderator capability.
	RoleAdmin Role = "admin"
)

// ErrInvalidToken is returned when a token fails verification.
var ErrInvalidToken = errors.New("auth: invalid token")

// Identity is the verified caller attached to a request.
type Identity struct {
	UserID string
	Role   Role
}

// CanModerate reports whether the identity may record moderation decisions.
func (id Identity) CanModerate() bool {
	return id.Role == RoleModerator || id.Role == RoleAdmin
}

// Claims is the JWT claim set: registered claims plus the user ID and role.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
	Role   string `json:"role"`
}

// GenerateToken signs an HS256 token for the identity, valid for ttl.
func GenerateToken(identity Identity, secretKey []byte, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID: identity.UserID,
		Role:   string(identity.Role),
	})

	signedToken, err := token.SignedString(secretKey)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signedToken, nil
}

// VerifyToken parses and validates a bearer token, returning the caller
// identity. Tokens signed with any method other than HMAC are rejected.
func VerifyToken(tokenString string, secretKey []byte) (Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method %q", t.Method.Alg())
		}
		return secretKey, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}
	if claims.UserID == "" {
		return Identity{}, ErrInvalidToken
	}

	role := Role(claims.Role)
	switch role {
	case RoleModerator, RoleAdmin:
	default:
		role = RoleUser
	}

	return Identity{UserID: claims.UserID, Role: role}, nil
}
