package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/ieltsprep/ielts-backend/internal/config"
	"github.com/ieltsprep/ielts-backend/internal/model"
	"github.com/ieltsprep/ielts-backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuth() *service.AuthService {
	return service.NewAuthService(&config.Config{JWTSecret: "mw-secret", JWTExpiry: time.Hour}, nil)
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error *struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	if body.Error == nil {
		return ""
	}
	return body.Error.Code
}

func TestRequireAdminJWT(t *testing.T) {
	auth := newAuth()
	admin, _ := auth.IssueToken(service.TokenTypeAdmin, "a1", []string{string(model.PermissionTestsRead)}, 0)
	learner, _ := auth.IssueToken(service.TokenTypeLearner, "l1", nil, 0)

	r := gin.New()
	r.GET("/admin",
		RequireAdminJWT(auth),
		RequirePermission(model.PermissionTestsRead),
		func(c *gin.Context) { c.String(http.StatusOK, GetClaims(c).UserID) },
	)
	r.GET("/publish",
		RequireAdminJWT(auth),
		RequirePermission(model.PermissionTestsPublish),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)

	tests := []struct {
		name     string
		path     string
		header   string
		wantCode int
		wantErr  string
	}{
		{"missing", "/admin", "", http.StatusUnauthorized, "TOKEN_REQUIRED"},
		{"malformed", "/admin", "Bearer nope", http.StatusUnauthorized, "TOKEN_INVALID"},
		{"learner token", "/admin", "Bearer " + learner, http.StatusForbidden, "ADMIN_ACCESS_ONLY"},
		{"missing permission", "/publish", "Bearer " + admin, http.StatusForbidden, "PERMISSION_DENIED"},
		{"ok", "/admin", "bearer " + admin, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.wantErr != "" {
				if got := errorCode(t, w); got != tt.wantErr {
					t.Errorf("error code = %q, want %q", got, tt.wantErr)
				}
			} else if w.Body.String() != "a1" {
				t.Errorf("body = %q", w.Body.String())
			}
		})
	}
}

func TestRequireLearnerWSAuthReadsQuery(t *testing.T) {
	auth := newAuth()
	learner, _ := auth.IssueToken(service.TokenTypeLearner, "l1", nil, 0)

	r := gin.New()
	r.GET("/ws", RequireLearnerWSAuth(auth), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws?token="+learner, nil))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Authorization", "Bearer "+learner)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("header token on ws route: status = %d, want 401", w.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl := NewRateLimiter(ctx, 2)

	r := gin.New()
	r.GET("/", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}

	if !rl.Allow("someone-else") {
		t.Error("keys should have independent buckets")
	}
}

func TestBrotliCompressesLargeBodies(t *testing.T) {
	big := strings.Repeat("river bank ", 500)

	r := gin.New()
	r.Use(Brotli())
	r.GET("/big", func(c *gin.Context) { c.String(http.StatusOK, big) })
	r.GET("/small", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/uploads/a.mp3", func(c *gin.Context) { c.String(http.StatusOK, big) })

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Accept-Encoding", "gzip, br;q=1.0")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := get("/big")
	if w.Header().Get("Content-Encoding") != "br" {
		t.Fatalf("large body not compressed, headers %v", w.Header())
	}
	plain, err := io.ReadAll(brotli.NewReader(w.Body))
	if err != nil || string(plain) != big {
		t.Errorf("decompressed body mismatch (err %v, %d bytes)", err, len(plain))
	}

	if w := get("/small"); w.Header().Get("Content-Encoding") != "" || w.Body.String() != "ok" {
		t.Errorf("small body = %q, encoding %q", w.Body.String(), w.Header().Get("Content-Encoding"))
	}
	if w := get("/uploads/a.mp3"); w.Header().Get("Content-Encoding") != "" {
		t.Error("uploads should not be compressed")
	}
}

func TestNoStore(t *testing.T) {
	r := gin.New()
	r.GET("/", NoStore(), func(c *gin.Context) { c.Status(http.StatusOK) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q", got)
	}
}
