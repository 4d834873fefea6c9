package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ieltsprep/ielts-backend/internal/middleware"
	"github.com/ieltsprep/ielts-backend/internal/model"
	"github.com/ieltsprep/ielts-backend/internal/response"
	"github.com/ieltsprep/ielts-backend/internal/service"
	"github.com/ieltsprep/ielts-backend/internal/validator"
	"github.com/rs/zerolog"
)

// TestHandler handles test management endpoints for authors and the learner catalogue.
type TestHandler struct {
	testService *service.TestService
	log         zerolog.Logger
}

// NewTestHandler creates a new TestHandler.
func NewTestHandler(testService *service.TestService, log zerolog.Logger) *TestHandler {
	return &TestHandler{
		testService: testService,
		log:         log.With().Str("component", "test_handler").Logger(),
	}
}

// ListTests godoc
// GET /api/v1/admin/tests?module=&status=&q=&page=&per_page=
func (h *TestHandler) ListTests(c *gin.Context) {
	filter, ok := parseFilter(c)
	if !ok {
		return
	}
	h.list(c, filter)
}

// ListPublishedTests godoc
// GET /api/v1/learner/tests?module=&q=&page=&per_page=
// Learners only ever see published tests.
func (h *TestHandler) ListPublishedTests(c *gin.Context) {
	filter, ok := parseFilter(c)
	if !ok {
		return
	}
	filter.Status = model.TestStatusPublished
	h.list(c, filter)
}

func (h *TestHandler) list(c *gin.Context, filter model.TestFilter) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	tests, pagination, err := h.testService.List(c.Request.Context(), filter, page, perPage)
	if err != nil {
		failFromService(c, h.log, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"tests": tests}, pagination)
}

// CreateTest godoc
// POST /api/v1/admin/tests
func (h *TestHandler) CreateTest(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateTestRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	t, err := h.testService.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		failFromService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"test": t})
}

// GetTest godoc
// GET /api/v1/admin/tests/:id
func (h *TestHandler) GetTest(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	t, err := h.testService.GetByID(c.Request.Context(), id)
	if err != nil {
		failFromService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"test": t})
}

// UpdateTest godoc
// PUT /api/v1/admin/tests/:id
func (h *TestHandler) UpdateTest(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateTestRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	t, err := h.testService.Update(c.Request.Context(), id, req)
	if err != nil {
		failFromService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"test": t})
}

// DeleteTest godoc
// DELETE /api/v1/admin/tests/:id
func (h *TestHandler) DeleteTest(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.testService.Delete(c.Request.Context(), id); err != nil {
		failFromService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "test deleted"})
}

// PublishTest godoc
// POST /api/v1/admin/tests/:id/publish
// Refused while the question set has broken placeholders or missing answers.
func (h *TestHandler) PublishTest(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	t, err := h.testService.Publish(c.Request.Context(), id)
	if err != nil {
		failFromService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"test": t})
}

// ArchiveTest godoc
// POST /api/v1/admin/tests/:id/archive
func (h *TestHandler) ArchiveTest(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	t, err := h.testService.Archive(c.Request.Context(), id)
	if err != nil {
		failFromService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"test": t})
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

func parseFilter(c *gin.Context) (model.TestFilter, bool) {
	f := model.TestFilter{
		Module: model.TestModule(strings.ToUpper(c.Query("module"))),
		Status: model.TestStatus(strings.ToUpper(c.Query("status"))),
		Search: strings.TrimSpace(c.Query("q")),
	}

	fields := map[string]string{}
	switch f.Module {
	case "", model.TestModuleReading, model.TestModuleListening:
	default:
		fields["module"] = "module must be one of READING, LISTENING"
	}
	switch f.Status {
	case "", model.TestStatusDraft, model.TestStatusPublished, model.TestStatusArchived:
	default:
		fields["status"] = "status must be one of DRAFT, PUBLISHED, ARCHIVED"
	}
	if len(f.Search) > 100 {
		fields["q"] = "q must be at most 100 characters"
	}

	if len(fields) > 0 {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return f, false
	}
	return f, true
}
