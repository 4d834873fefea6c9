package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ieltsprep/ielts-backend/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
	Setup()
}

func bind(t *testing.T, body string, dst any) map[string]string {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return Bind(c, dst)
}

func TestBindGroupType(t *testing.T) {
	var ok model.ReplaceQuestionSetRequest
	if fields := bind(t, `{"groups":[{"group_type":"GAP_FILL","questions":[]}]}`, &ok); fields != nil {
		t.Fatalf("valid payload rejected: %v", fields)
	}

	var bad model.ReplaceQuestionSetRequest
	fields := bind(t, `{"groups":[{"group_type":"ESSAY"}]}`, &bad)
	msg, found := fields["groups[0].group_type"]
	if !found {
		t.Fatalf("fields = %v, want groups[0].group_type", fields)
	}
	if !strings.Contains(msg, "GAP_FILL") {
		t.Errorf("message %q does not list allowed types", msg)
	}
}

func TestBindSyntaxError(t *testing.T) {
	var req model.CreateTestRequest
	fields := bind(t, `{"title":`, &req)
	if _, ok := fields["detail"]; !ok {
		t.Errorf("fields = %v, want detail", fields)
	}
}

func TestBindRequiredFields(t *testing.T) {
	var req model.CreateTestRequest
	fields := bind(t, `{"title":"Cambridge 18 Reading 1","module":"WRITING"}`, &req)
	for _, key := range []string{"module", "duration_minutes"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("missing error for %s in %v", key, fields)
		}
	}
}
