package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ieltsprep/ielts-backend/internal/questionset"
	"github.com/ieltsprep/ielts-backend/internal/response"
	"github.com/ieltsprep/ielts-backend/internal/service"
	"github.com/rs/zerolog"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serveError(err error) (*httptest.ResponseRecorder, response.Response) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	failFromService(c, zerolog.Nop(), err)

	var env response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func TestFailFromService(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   response.ErrCode
	}{
		{"not found", service.ErrTestNotFound, http.StatusNotFound, response.ErrNotFound},
		{"wrapped not draft", fmt.Errorf("update: %w", service.ErrTestNotDraft), http.StatusConflict, response.ErrTestNotDraft},
		{"unknown group", questionset.ErrGroupNotFound, http.StatusNotFound, response.ErrGroupNotFound},
		{"foreign question", service.ErrQuestionNotInTest, http.StatusBadRequest, response.ErrQuestionNotInTest},
		{"withdrawn", service.ErrTestWithdrawn, http.StatusGone, response.ErrTestWithdrawn},
		{"other owner", service.ErrNotAttemptOwner, http.StatusForbidden, response.ErrNotAttemptOwner},
		{"unmapped", errors.New("connection reset"), http.StatusInternalServerError, response.ErrInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := serveError(tt.err)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if env.Error == nil || env.Error.Code != tt.wantCode {
				t.Errorf("error = %+v, want code %s", env.Error, tt.wantCode)
			}
		})
	}
}

func TestFailFromServiceProblems(t *testing.T) {
	err := &service.ProblemsError{Problems: []questionset.Problem{
		{Code: questionset.ProblemBrokenToken, GroupID: uuid.New(), Token: "[4]"},
	}}
	w, env := serveError(fmt.Errorf("publish: %w", err))

	if w.Code != http.StatusUnprocessableEntity || env.Error == nil || env.Error.Code != response.ErrTestHasProblems {
		t.Fatalf("status %d error %+v", w.Code, env.Error)
	}
	details, ok := env.Error.Details.(map[string]any)
	if !ok {
		t.Fatalf("details = %T", env.Error.Details)
	}
	if list, _ := details["problems"].([]any); len(list) != 1 {
		t.Errorf("problems = %v", details["problems"])
	}
}

func TestFailFromServiceValidation(t *testing.T) {
	err := &questionset.ValidationError{Fields: map[string]string{"groups[0].group_type": "unknown group type"}}
	w, env := serveError(err)

	if w.Code != http.StatusBadRequest || env.Error == nil || env.Error.Code != response.ErrInvalidQuestionSet {
		t.Fatalf("status %d error %+v", w.Code, env.Error)
	}
	if _, ok := env.Error.Fields["groups[0].group_type"]; !ok {
		t.Errorf("fields = %v", env.Error.Fields)
	}
}

func TestLookupErrorUnknown(t *testing.T) {
	if _, _, ok := lookupError(errors.New("boom")); ok {
		t.Error("lookupError matched an unmapped error")
	}
}
