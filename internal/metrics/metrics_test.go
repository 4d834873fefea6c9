package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func scrape(t *testing.T) string {
	t.Helper()
	r := gin.New()
	r.GET("/metrics", Handler())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", w.Code)
	}
	return w.Body.String()
}

func TestMiddlewareCountsByRouteTemplate(t *testing.T) {
	r := gin.New()
	r.Use(Middleware())
	r.GET("/probe/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/probe/"+id, nil))
	}

	want := `http_requests_total{endpoint="/probe/:id",method="GET",status="204"} 2`
	if body := scrape(t); !strings.Contains(body, want) {
		t.Errorf("exposition missing %q", want)
	}
}

func TestMiddlewareLabelsUnmatchedRoutes(t *testing.T) {
	r := gin.New()
	r.Use(Middleware())
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	if body := scrape(t); !strings.Contains(body, `endpoint="unmatched"`) {
		t.Error("unmatched route not labelled")
	}
}

func TestHandlerExposesDomainCounters(t *testing.T) {
	Submissions.WithLabelValues("queued").Inc()

	if body := scrape(t); !strings.Contains(body, `submissions_total{stage="queued"}`) {
		t.Error("submissions_total missing from exposition")
	}
}
