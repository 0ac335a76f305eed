package utils // helpers for password hashing and signed verification tokens

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for expired, malformed or mis-signed
// verification tokens.
var ErrInvalidToken = errors.New("invalid or expired token")

// NewVerifyToken builds and signs an HS256 JWT used in email-verification
// links. The subject is the user id; the token expires after ttl.
func NewVerifyToken(secret string, userID uint64, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":   strconv.FormatUint(userID, 10),
		"scope": "verify",
		"exp":   now.Add(ttl).Unix(),
		"iat":   now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign verify token: %w", err)
	}
	return signed, nil
}

// ParseVerifyToken validates a verification token and returns the user id it
// was issued for.
func ParseVerifyToken(secret, raw string) (uint64, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return 0, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}
	if scope, _ := claims["scope"].(string); scope != "verify" {
		return 0, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}
