package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ieltsprep/ielts-backend/internal/model"
	"github.com/ieltsprep/ielts-backend/internal/questionset"
	"github.com/ieltsprep/ielts-backend/internal/response"
	"github.com/ieltsprep/ielts-backend/internal/service"
	"github.com/rs/zerolog"
)

// errorMapping pairs a service sentinel with its HTTP status and API code.
type errorMapping struct {
	err    error
	status int
	code   response.ErrCode
}

var serviceErrors = []errorMapping{
	{service.ErrTestNotFound, http.StatusNotFound, response.ErrNotFound},
	{service.ErrTestNotDraft, http.StatusConflict, response.ErrTestNotDraft},
	{service.ErrTestNotPublished, http.StatusConflict, response.ErrTestNotPublished},
	{service.ErrTestPublished, http.StatusConflict, response.ErrTestIsPublished},
	{service.ErrNoQuestions, http.StatusUnprocessableEntity, response.ErrNoQuestions},
	{questionset.ErrGroupNotFound, http.StatusNotFound, response.ErrGroupNotFound},
	{questionset.ErrQuestionNotFound, http.StatusNotFound, response.ErrQuestionNotFound},
	{model.ErrUnknownEditOp, http.StatusBadRequest, response.ErrUnknownEditOperation},
	{model.ErrEditTargetEmpty, http.StatusBadRequest, response.ErrInvalidPayload},
	{service.ErrAttemptNotFound, http.StatusNotFound, response.ErrAttemptNotFound},
	{service.ErrNotAttemptOwner, http.StatusForbidden, response.ErrNotAttemptOwner},
	{service.ErrQuestionNotInTest, http.StatusBadRequest, response.ErrQuestionNotInTest},
	{service.ErrTestWithdrawn, http.StatusGone, response.ErrTestWithdrawn},
	{service.ErrUnsupportedFileType, http.StatusBadRequest, response.ErrUnsupportedFile},
	{service.ErrFileTooLarge, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge},
}

// failFromService writes the envelope for a service error. Unknown errors are
// logged and reported as internal.
func failFromService(c *gin.Context, log zerolog.Logger, err error) {
	var problems *service.ProblemsError
	if errors.As(err, &problems) {
		response.FailWithDetails(c, http.StatusUnprocessableEntity, response.ErrTestHasProblems, gin.H{"problems": problems.Problems})
		return
	}

	var invalid *questionset.ValidationError
	if errors.As(err, &invalid) {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidQuestionSet, invalid.Fields)
		return
	}

	code, status, ok := lookupError(err)
	if ok {
		response.Fail(c, status, code)
		return
	}

	log.Error().Err(err).
		Str("path", c.FullPath()).
		Str("request_id", response.RequestID(c)).
		Msg("Request failed")
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}

func lookupError(err error) (response.ErrCode, int, bool) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			return m.code, m.status, true
		}
	}
	return "", 0, false
}
