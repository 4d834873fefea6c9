// Package metrics exposes Prometheus collectors for HTTP traffic and the
// authoring/attempt pipeline.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector of this service.
var Registry = prometheus.NewRegistry()

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// QuestionSetSaves counts persisted question sets by how they were produced.
	QuestionSetSaves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "question_set_saves_total",
			Help: "Question sets renumbered and saved, by source (replace, edit)",
		},
		[]string{"source"},
	)

	// BrokenTokens counts placeholders pointing past their group's questions, seen on save.
	BrokenTokens = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "question_set_broken_tokens_total",
			Help: "Broken [n] placeholders found when saving question sets",
		},
	)

	AnswersSaved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attempt_answers_saved_total",
			Help: "Answers captured, by channel (http, ws)",
		},
		[]string{"channel"},
	)

	Submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submissions_total",
			Help: "Submissions by stage (queued, persisted, failed)",
		},
		[]string{"stage"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		RequestCounter,
		RequestDuration,
		QuestionSetSaves,
		BrokenTokens,
		AnswersSaved,
		Submissions,
	)
}

// Middleware records request count and latency per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
