package auth

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/google/uuid"
)

func newTestToken(t *testing.T) *Token {
	t.Setenv("SQLMCP_SECRET", "test-signing-secret")
	return NewT()
}

func TestTokenCreation(t *testing.T) {
	tok := newTestToken(t)
	userID := uuid.NewString()
	tokenString, err := tok.Create(userID)
	if err != nil {
		t.Fatalf("create token failed: %v", err)
	}

	assert.NotEqual(t, "", tokenString)
	assert.Equal(t, tok.Jwt, tokenString)
}

func TestTokenCreationWithoutSecret(t *testing.T) {
	t.Setenv("SQLMCP_SECRET", "")
	tok := NewT()
	_, err := tok.Create(uuid.NewString())
	assert.Error(t, err)
}

func TestTokenVerification(t *testing.T) {
	tok := newTestToken(t)
	userID := uuid.NewString()
	tokenString, err := tok.Create(userID)
	if err != nil {
		t.Fatalf("create token failed: %v", err)
	}

	id, err := tok.Verify(tokenString)
	if err != nil {
		t.Fatalf("token validation failed: %v", err)
	}

	assert.NotEqual(t, "", id)
	assert.Equal(t, userID, id)
}

func TestTokenVerificationRejectsTampering(t *testing.T) {
	tok := newTestToken(t)
	tokenString, err := tok.Create(uuid.NewString())
	if err != nil {
		t.Fatalf("create token failed: %v", err)
	}

	_, err = tok.Verify(tokenString + "x")
	assert.Error(t, err)
}

func TestTokenExtraction(t *testing.T) {
	tok := newTestToken(t)
	userID := uuid.NewString()
	rawToken, err := tok.Create(userID)
	if err != nil {
		t.Fatalf("create token failed: %v", err)
	}
	fakeHeader := "Bearer " + rawToken
	tokenString, err := tok.Extract(fakeHeader)
	if err != nil {
		t.Fatalf("token extraction failed: %v", err)
	}
	assert.NotContains(t, tokenString, "Bearer")
	assert.NotEqual(t, "", tokenString)
}

func TestTokenExtractionRejectsOtherSchemes(t *testing.T) {
	tok := newTestToken(t)
	_, err := tok.Extract("Basic dXNlcjpwYXNz")
	assert.Error(t, err)
}
