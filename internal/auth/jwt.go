package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrTokenInvalid = errors.New("invalid token")

// Claims is the decoded subset of a bearer token this service cares about.
// Tokens deliberately carry no role or authorization claims; authorization is
// resolved live on every request.
type Claims struct {
	Subject string // employee UUID
	TokenID string // jti
}

// Sign mints an HS256 bearer token for the given employee UUID.
func Sign(secret []byte, employeeUUID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": employeeUUID,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// Verify checks signature and expiry and returns the decoded claims.
func Verify(secret []byte, tokenStr string) (Claims, error) {
	tok, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !tok.Valid {
		return Claims{}, ErrTokenInvalid
	}
	mapc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrTokenInvalid
	}
	sub, _ := mapc["sub"].(string)
	jti, _ := mapc["jti"].(string)
	if sub == "" {
		return Claims{}, ErrTokenInvalid
	}
	return Claims{Subject: sub, TokenID: jti}, nil
}
