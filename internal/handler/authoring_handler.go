package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ieltsprep/ielts-backend/internal/model"
	"github.com/ieltsprep/ielts-backend/internal/response"
	"github.com/ieltsprep/ielts-backend/internal/service"
	"github.com/ieltsprep/ielts-backend/internal/validator"
	"github.com/rs/zerolog"
)

// AuthoringHandler handles question set endpoints.
type AuthoringHandler struct {
	authoring *service.AuthoringService
	log       zerolog.Logger
}

// NewAuthoringHandler creates a new AuthoringHandler.
func NewAuthoringHandler(authoring *service.AuthoringService, log zerolog.Logger) *AuthoringHandler {
	return &AuthoringHandler{
		authoring: authoring,
		log:       log.With().Str("component", "authoring_handler").Logger(),
	}
}

// GetQuestionSet godoc
// GET /api/v1/admin/tests/:id/question-set
// Returns the numbered groups plus the problems that block publishing.
func (h *AuthoringHandler) GetQuestionSet(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	view, err := h.authoring.GetSet(c.Request.Context(), id)
	if err != nil {
		failFromService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// ReplaceQuestionSet godoc
// PUT /api/v1/admin/tests/:id/question-set
// Stores the payload as the whole set; numbering is recomputed server side.
func (h *AuthoringHandler) ReplaceQuestionSet(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req model.ReplaceQuestionSetRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.authoring.ReplaceSet(c.Request.Context(), id, req)
	if err != nil {
		failFromService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// ApplyEdit godoc
// POST /api/v1/admin/tests/:id/question-set/edits
// Applies one add/remove/move/update edit and returns the renumbered set.
func (h *AuthoringHandler) ApplyEdit(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req model.EditRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.authoring.ApplyEdit(c.Request.Context(), id, req)
	if err != nil {
		failFromService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// ApplyEditBatch godoc
// POST /api/v1/admin/tests/:id/question-set/edits/batch
// Applies the edits in order; one failing edit rejects the whole batch.
func (h *AuthoringHandler) ApplyEditBatch(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req model.EditBatchRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.authoring.ApplyEdits(c.Request.Context(), id, req.Edits)
	if err != nil {
		failFromService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// PreviewTest godoc
// GET /api/v1/admin/tests/:id/preview
func (h *AuthoringHandler) PreviewTest(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	preview, err := h.authoring.Preview(c.Request.Context(), id)
	if err != nil {
		failFromService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, preview)
}
