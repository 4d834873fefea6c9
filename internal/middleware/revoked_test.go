package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ieltsprep/ielts-backend/internal/config"
	"github.com/ieltsprep/ielts-backend/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func TestRejectRevokedFailsOpen(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()
	auth := service.NewAuthService(&config.Config{JWTSecret: "mw-secret", JWTExpiry: time.Hour}, rdb)

	r := gin.New()
	r.GET("/", RequireLearnerJWT(auth), RejectRevoked(auth, zerolog.Nop()), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	token, err := auth.IssueToken(service.TokenTypeLearner, "learner-9", nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204 when Redis is down", w.Code)
	}
}

func TestRejectRevokedWithoutClaims(t *testing.T) {
	r := gin.New()
	r.GET("/", RejectRevoked(newAuth(), zerolog.Nop()), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusUnauthorized || errorCode(t, w) != "TOKEN_REQUIRED" {
		t.Errorf("status = %d code = %s", w.Code, errorCode(t, w))
	}
}
