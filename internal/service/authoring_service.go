package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ieltsprep/ielts-backend/internal/metrics"
	"github.com/ieltsprep/ielts-backend/internal/model"
	"github.com/ieltsprep/ielts-backend/internal/questionset"
	"github.com/ieltsprep/ielts-backend/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// AuthoringService edits the question sets of draft tests. Every write is
// validated and renumbered before it is stored.
type AuthoringService struct {
	tests   *TestService
	setRepo *repository.QuestionSetRepository
	log     zerolog.Logger
}

// NewAuthoringService creates a new AuthoringService.
func NewAuthoringService(tests *TestService, setRepo *repository.QuestionSetRepository, log zerolog.Logger) *AuthoringService {
	return &AuthoringService{
		tests:   tests,
		setRepo: setRepo,
		log:     log.With().Str("component", "authoring_service").Logger(),
	}
}

// GetSet returns a test's question set with the problems that block publishing.
func (s *AuthoringService) GetSet(ctx context.Context, testID uuid.UUID) (*model.QuestionSetView, error) {
	if _, err := s.tests.GetByID(ctx, testID); err != nil {
		return nil, err
	}
	set, err := s.setRepo.Load(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("load question set: %w", err)
	}
	view := model.NewQuestionSetView(set)
	return &view, nil
}

// ReplaceSet stores req as the whole question set of a draft test.
func (s *AuthoringService) ReplaceSet(ctx context.Context, testID uuid.UUID, req model.ReplaceQuestionSetRequest) (*model.QuestionSetView, error) {
	incoming := req.ToSet(testID)
	return s.modify(ctx, testID, "replace", func(questionset.Set) (questionset.Set, error) {
		return incoming, nil
	})
}

// ApplyEdit applies one edit to the stored set of a draft test.
func (s *AuthoringService) ApplyEdit(ctx context.Context, testID uuid.UUID, req model.EditRequest) (*model.QuestionSetView, error) {
	edit, err := req.ToEdit()
	if err != nil {
		return nil, err
	}
	return s.modify(ctx, testID, "edit", func(current questionset.Set) (questionset.Set, error) {
		return questionset.Apply(current, edit)
	})
}

// ApplyEdits applies a batch of edits atomically: either all are stored or none.
func (s *AuthoringService) ApplyEdits(ctx context.Context, testID uuid.UUID, reqs []model.EditRequest) (*model.QuestionSetView, error) {
	edits := make([]questionset.Edit, 0, len(reqs))
	for i, req := range reqs {
		edit, err := req.ToEdit()
		if err != nil {
			return nil, fmt.Errorf("edit %d: %w", i, err)
		}
		edits = append(edits, edit)
	}
	return s.modify(ctx, testID, "batch", func(current questionset.Set) (questionset.Set, error) {
		return questionset.ApplyAll(current, edits...)
	})
}

// Preview renders the set the way learners will see it, with answers and
// explanations included.
func (s *AuthoringService) Preview(ctx context.Context, testID uuid.UUID) (*model.PreviewView, error) {
	t, err := s.tests.GetByID(ctx, testID)
	if err != nil {
		return nil, err
	}
	set, err := s.setRepo.Load(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("load question set: %w", err)
	}

	problems := set.Problems()
	if problems == nil {
		problems = []questionset.Problem{}
	}
	return &model.PreviewView{
		Test:     *t,
		Groups:   questionset.Render(set, nil, questionset.RenderOptions{Preview: true}),
		Problems: problems,
		Total:    set.QuestionCount(),
	}, nil
}

func (s *AuthoringService) modify(ctx context.Context, testID uuid.UUID, source string, fn func(questionset.Set) (questionset.Set, error)) (*model.QuestionSetView, error) {
	t, err := s.tests.GetByID(ctx, testID)
	if err != nil {
		return nil, err
	}
	if t.Status != model.TestStatusDraft {
		return nil, ErrTestNotDraft
	}

	saved, err := s.setRepo.Modify(ctx, testID, func(current questionset.Set) (questionset.Set, error) {
		next, err := fn(current)
		if err != nil {
			return questionset.Set{}, err
		}
		if err := next.Validate(); err != nil {
			return questionset.Set{}, err
		}
		return next.Renumbered(), nil
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrStatusConflict):
			return nil, ErrTestNotDraft
		case errors.Is(err, pgx.ErrNoRows):
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("save question set: %w", err)
	}

	view := model.NewQuestionSetView(saved)
	metrics.QuestionSetSaves.WithLabelValues(source).Inc()
	broken := 0
	for _, p := range view.Problems {
		if p.Code == questionset.ProblemBrokenToken {
			broken++
		}
	}
	metrics.BrokenTokens.Add(float64(broken))

	s.log.Info().
		Str("test_id", testID.String()).
		Str("source", source).
		Int("groups", len(saved.Groups)).
		Int("questions", saved.QuestionCount()).
		Int("problems", len(view.Problems)).
		Msg("Question set saved")
	return &view, nil
}
