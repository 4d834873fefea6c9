package router

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ieltsprep/ielts-backend/internal/config"
	"github.com/ieltsprep/ielts-backend/internal/handler"
	"github.com/ieltsprep/ielts-backend/internal/metrics"
	"github.com/ieltsprep/ielts-backend/internal/middleware"
	"github.com/ieltsprep/ielts-backend/internal/model"
	"github.com/ieltsprep/ielts-backend/internal/response"
	"github.com/ieltsprep/ielts-backend/internal/service"
	"github.com/rs/zerolog"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Test      *handler.TestHandler
	Authoring *handler.AuthoringHandler
	Attempt   *handler.AttemptHandler
	Media     *handler.MediaHandler
	WS        *handler.WSHandler
	System    *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// ctx bounds background goroutines owned by middlewares.
func SetupRouter(
	ctx context.Context,
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request id first so the access log and every envelope carry it.
	router.Use(response.RequestIDMiddleware())
	router.Use(response.RequestLogger(log))
	router.Use(metrics.Middleware())
	router.Use(middleware.Brotli())

	// Uploaded media is immutable (UUID names), so cache it for a year.
	if cfg.StorageDriver == "" || cfg.StorageDriver == "local" {
		uploadsGroup := router.Group("/uploads")
		uploadsGroup.Use(middleware.CacheControl(31536000))
		{
			uploadsGroup.Static("/", cfg.UploadDir)
		}
	}

	router.GET("/health", handlers.System.Health)
	router.GET("/metrics", metrics.Handler())

	learnerLimiter := middleware.NewRateLimiter(ctx, cfg.LearnerRateLimit)
	byLearner := func(c *gin.Context) string {
		if claims := middleware.GetClaims(c); claims != nil {
			return claims.UserID
		}
		return c.ClientIP()
	}

	// ─── 1. Learner API ────────────────────────────────────────────────
	learnerAPI := router.Group("/api/v1/learner")
	learnerAPI.Use(
		middleware.RequireLearnerJWT(authService),
		middleware.RejectRevoked(authService, log),
		learnerLimiter.MiddlewareBy(byLearner),
		middleware.NoStore(),
	)
	{
		learnerAPI.GET("/tests", handlers.Test.ListPublishedTests)
		learnerAPI.POST("/tests/:id/attempts", handlers.Attempt.StartAttempt)

		learnerAPI.GET("/attempts/:attempt_id", handlers.Attempt.GetAttempt)
		learnerAPI.PUT("/attempts/:attempt_id/answers", handlers.Attempt.SaveAnswer)
		learnerAPI.POST("/attempts/:attempt_id/submit", handlers.Attempt.SubmitAttempt)

		learnerAPI.GET("/submissions", handlers.Attempt.ListSubmissions)
		learnerAPI.POST("/logout", handlers.Attempt.Logout)
	}

	// ─── 2. Learner WebSocket ──────────────────────────────────────────
	ws := router.Group("/ws/v1/learner")
	ws.Use(
		middleware.RequireLearnerWSAuth(authService),
		middleware.RejectRevoked(authService, log),
		learnerLimiter.Middleware(),
	)
	{
		ws.GET("/attempts/:attempt_id/stream", handlers.WS.AttemptStream)
	}

	// ─── 3. Admin API ──────────────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService), middleware.RejectRevoked(authService, log))
	{
		read := middleware.RequirePermission(model.PermissionTestsRead)
		write := middleware.RequirePermission(model.PermissionTestsWrite)
		publish := middleware.RequirePermission(model.PermissionTestsPublish)

		adminAPI.GET("/tests", read, handlers.Test.ListTests)
		adminAPI.POST("/tests", write, handlers.Test.CreateTest)
		adminAPI.GET("/tests/:id", read, handlers.Test.GetTest)
		adminAPI.PUT("/tests/:id", write, handlers.Test.UpdateTest)
		adminAPI.DELETE("/tests/:id", write, handlers.Test.DeleteTest)
		adminAPI.POST("/tests/:id/publish", publish, handlers.Test.PublishTest)
		adminAPI.POST("/tests/:id/archive", publish, handlers.Test.ArchiveTest)

		adminAPI.GET("/tests/:id/question-set", read, handlers.Authoring.GetQuestionSet)
		adminAPI.PUT("/tests/:id/question-set", write, handlers.Authoring.ReplaceQuestionSet)
		adminAPI.POST("/tests/:id/question-set/edits", write, handlers.Authoring.ApplyEdit)
		adminAPI.POST("/tests/:id/question-set/edits/batch", write, handlers.Authoring.ApplyEditBatch)
		adminAPI.GET("/tests/:id/preview", read, handlers.Authoring.PreviewTest)

		adminAPI.POST("/media/upload", middleware.RequirePermission(model.PermissionMediaUpload), handlers.Media.UploadMedia)

		adminAPI.GET("/system/queues", read, handlers.System.Queues)
	}

	return router
}
