package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
)

const tokenTTL = 24 * time.Hour

// Token creates and verifies the bearer tokens the HTTP gateway accepts.
type Token struct {
	Jwt    string
	secret []byte
}

func NewT() *Token {
	return &Token{secret: GetSecret()}
}

// Create signs a token carrying the user id as its subject.
func (t *Token) Create(userID string) (string, error) {
	if len(t.secret) == 0 {
		return "", errors.New("no signing secret configured")
	}

	now := time.Now()
	claims := jwt.StandardClaims{
		Subject:   userID,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(tokenTTL).Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	t.Jwt = signed
	return signed, nil
}

// Verify checks the signature and expiry, returning the user id.
func (t *Token) Verify(tokenString string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.StandardClaims{}, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("parsing token: %w", err)
	}

	claims, ok := parsed.Claims.(*jwt.StandardClaims)
	if !ok || !parsed.Valid {
		return "", errors.New("invalid token")
	}
	return claims.Subject, nil
}

// Extract pulls the raw token out of an Authorization header value.
func (t *Token) Extract(header string) (string, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return "", errors.New("authorization header is not a bearer token")
	}
	return raw, nil
}
