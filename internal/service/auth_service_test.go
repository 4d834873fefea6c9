package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ieltsprep/ielts-backend/internal/config"
	"github.com/ieltsprep/ielts-backend/internal/model"
)

func newTestAuth() *AuthService {
	return NewAuthService(&config.Config{JWTSecret: "test-secret", JWTExpiry: time.Hour}, nil)
}

func TestIssueAndValidateToken(t *testing.T) {
	auth := newTestAuth()

	tok, err := auth.IssueToken(TokenTypeAdmin, "author-1", []string{string(model.PermissionTestsWrite)}, 0)
	if err != nil {
		t.Fatalf("IssueToken() error: %v", err)
	}

	claims, err := auth.ValidateToken(tok)
	if err != nil {
		t.Fatalf("ValidateToken() error: %v", err)
	}
	if claims.TokenType != TokenTypeAdmin || claims.UserID != "author-1" || claims.ID == "" {
		t.Errorf("claims = %+v", claims)
	}
	if !claims.HasPermission(model.PermissionTestsWrite) || claims.HasPermission(model.PermissionTestsPublish) {
		t.Errorf("permissions = %v", claims.Permissions)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	auth := newTestAuth()

	other := NewAuthService(&config.Config{JWTSecret: "other", JWTExpiry: time.Hour}, nil)
	foreign, _ := other.IssueToken(TokenTypeLearner, "l1", nil, 0)

	// A non-positive ttl falls back to the configured expiry, so build an expired one by hand.
	expiredTok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))},
		TokenType:        TokenTypeLearner,
		UserID:           "l1",
	})
	expired, _ := expiredTok.SignedString([]byte("test-secret"))

	noSubject := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{TokenType: TokenTypeLearner})
	anonymous, _ := noSubject.SignedString([]byte("test-secret"))

	for name, tok := range map[string]string{
		"garbage":    "not-a-token",
		"foreign":    foreign,
		"expired":    expired,
		"no subject": anonymous,
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := auth.ValidateToken(tok); err == nil {
				t.Error("ValidateToken() accepted an invalid token")
			}
		})
	}
}

func TestValidateTokenFallsBackToSubject(t *testing.T) {
	auth := newTestAuth()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "idp|42"},
		TokenType:        TokenTypeLearner,
	})
	signed, _ := tok.SignedString([]byte("test-secret"))

	claims, err := auth.ValidateToken(signed)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != "idp|42" {
		t.Errorf("UserID = %q, want subject", claims.UserID)
	}
}
