package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ieltsprep/ielts-backend/internal/metrics"
	"github.com/ieltsprep/ielts-backend/internal/middleware"
	"github.com/ieltsprep/ielts-backend/internal/model"
	"github.com/ieltsprep/ielts-backend/internal/response"
	"github.com/ieltsprep/ielts-backend/internal/service"
	"github.com/ieltsprep/ielts-backend/internal/validator"
	"github.com/rs/zerolog"
)

// AttemptHandler handles the learner side: starting, answering and submitting attempts.
type AttemptHandler struct {
	attempts *service.AttemptService
	auth     *service.AuthService
	log      zerolog.Logger
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(attempts *service.AttemptService, auth *service.AuthService, log zerolog.Logger) *AttemptHandler {
	return &AttemptHandler{
		attempts: attempts,
		auth:     auth,
		log:      log.With().Str("component", "attempt_handler").Logger(),
	}
}

// StartAttempt godoc
// POST /api/v1/learner/tests/:id/attempts
// Starts an attempt, or resumes the learner's open attempt on the same test.
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	testID, ok := parseID(c, "id")
	if !ok {
		return
	}

	attempt, err := h.attempts.Start(c.Request.Context(), testID, claims.UserID)
	if err != nil {
		failFromService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"attempt": attempt})
}

// GetAttempt godoc
// GET /api/v1/learner/attempts/:attempt_id
// Returns the rendered paper with saved answers bound into gap-fill inputs.
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	attemptID, ok := parseID(c, "attempt_id")
	if !ok {
		return
	}

	view, err := h.attempts.View(c.Request.Context(), attemptID, claims.UserID)
	if err != nil {
		failFromService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// SaveAnswer godoc
// PUT /api/v1/learner/attempts/:attempt_id/answers
func (h *AttemptHandler) SaveAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	attemptID, ok := parseID(c, "attempt_id")
	if !ok {
		return
	}

	var req model.SaveAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	progress, err := h.attempts.SaveAnswer(c.Request.Context(), attemptID, claims.UserID, req.QuestionID, req.Value)
	if err != nil {
		failFromService(c, h.log, err)
		return
	}
	metrics.AnswersSaved.WithLabelValues("http").Inc()
	response.Success(c, http.StatusOK, gin.H{"progress": progress})
}

// SubmitAttempt godoc
// POST /api/v1/learner/attempts/:attempt_id/submit
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	attemptID, ok := parseID(c, "attempt_id")
	if !ok {
		return
	}

	receipt, err := h.attempts.Submit(c.Request.Context(), attemptID, claims.UserID)
	if err != nil {
		failFromService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"receipt": receipt})
}

// ListSubmissions godoc
// GET /api/v1/learner/submissions?limit=
func (h *AttemptHandler) ListSubmissions(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	receipts, err := h.attempts.History(c.Request.Context(), claims.UserID, limit)
	if err != nil {
		failFromService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"submissions": receipts})
}

// Logout godoc
// POST /api/v1/learner/logout
// Revokes the presented token so a shared device cannot keep answering.
func (h *AttemptHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.auth.Revoke(c.Request.Context(), claims); err != nil {
		failFromService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "signed out"})
}
