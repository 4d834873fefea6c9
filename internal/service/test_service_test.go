package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ieltsprep/ielts-backend/internal/questionset"
	"github.com/ieltsprep/ielts-backend/internal/repository"
	"github.com/jackc/pgx/v5"
)

func TestProblemsErrorUnwraps(t *testing.T) {
	var err error = &ProblemsError{Problems: []questionset.Problem{{Code: questionset.ProblemBrokenToken, Token: "[4]"}}}

	if !errors.Is(err, ErrTestHasProblems) {
		t.Error("ProblemsError should match ErrTestHasProblems")
	}
	var pe *ProblemsError
	if !errors.As(err, &pe) || len(pe.Problems) != 1 {
		t.Errorf("errors.As() = %+v", pe)
	}
}

func TestTransitionError(t *testing.T) {
	problems := &ProblemsError{Problems: []questionset.Problem{{Code: questionset.ProblemBrokenToken, Token: "[2]"}}}
	conflict := fmt.Errorf("%w: test is PUBLISHED, want DRAFT", repository.ErrStatusConflict)

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"status changed under the lock", conflict, ErrTestNotDraft},
		{"test deleted", pgx.ErrNoRows, ErrTestNotFound},
		{"no questions", ErrNoQuestions, ErrNoQuestions},
		{"problems", problems, ErrTestHasProblems},
		{"database failure", errors.New("connection reset"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := transitionError(tt.err, ErrTestNotDraft)
			if tt.want == nil {
				if errors.Is(got, ErrTestNotDraft) || errors.Is(got, ErrTestNotFound) || !errors.Is(got, tt.err) {
					t.Errorf("transitionError() = %v, want wrapped %v", got, tt.err)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Errorf("transitionError() = %v, want %v", got, tt.want)
			}
		})
	}

	var pe *ProblemsError
	if !errors.As(transitionError(problems, ErrTestNotDraft), &pe) || len(pe.Problems) != 1 {
		t.Error("problems should survive the mapping for the 422 body")
	}
}
