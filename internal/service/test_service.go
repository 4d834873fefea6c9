package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ieltsprep/ielts-backend/internal/config"
	"github.com/ieltsprep/ielts-backend/internal/model"
	"github.com/ieltsprep/ielts-backend/internal/questionset"
	"github.com/ieltsprep/ielts-backend/internal/repository"
	"github.com/ieltsprep/ielts-backend/internal/response"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Domain Errors
var (
	ErrTestNotFound     = errors.New("test not found")
	ErrTestNotDraft     = errors.New("test status is not DRAFT")
	ErrTestNotPublished = errors.New("test status is not PUBLISHED")
	ErrTestPublished    = errors.New("published tests must be archived first")
	ErrNoQuestions      = errors.New("test has no questions, cannot publish")
	ErrTestHasProblems  = errors.New("test has unresolved problems")
)

// ProblemsError carries the problems that stopped a publish.
type ProblemsError struct {
	Problems []questionset.Problem
}

func (e *ProblemsError) Error() string {
	return fmt.Sprintf("%s: %d problem(s)", ErrTestHasProblems, len(e.Problems))
}

func (e *ProblemsError) Unwrap() error { return ErrTestHasProblems }

// TestService handles test lifecycle and the published paper cache.
type TestService struct {
	testRepo *repository.TestRepository
	setRepo  *repository.QuestionSetRepository
	rdb      *redis.Client
	log      zerolog.Logger
}

// NewTestService creates a new TestService.
func NewTestService(
	testRepo *repository.TestRepository,
	setRepo *repository.QuestionSetRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *TestService {
	return &TestService{
		testRepo: testRepo,
		setRepo:  setRepo,
		rdb:      rdb,
		log:      log.With().Str("component", "test_service").Logger(),
	}
}

// GetByID retrieves a test, mapping a missing row to ErrTestNotFound.
func (s *TestService) GetByID(ctx context.Context, id uuid.UUID) (*model.Test, error) {
	t, err := s.testRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("get test: %w", err)
	}
	return t, nil
}

// List retrieves tests matching the filter with pagination.
func (s *TestService) List(ctx context.Context, f model.TestFilter, page, perPage int) ([]model.Test, *response.Pagination, error) {
	page, perPage = response.NormalizePage(page, perPage)

	tests, total, err := s.testRepo.List(ctx, f, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, fmt.Errorf("list tests: %w", err)
	}
	return tests, response.NewPagination(page, perPage, total), nil
}

// Create inserts a new test as DRAFT.
func (s *TestService) Create(ctx context.Context, req model.CreateTestRequest, createdBy string) (*model.Test, error) {
	t := &model.Test{
		Title:           req.Title,
		Module:          model.TestModule(req.Module),
		Description:     req.Description,
		AudioURL:        req.AudioURL,
		DurationMinutes: req.DurationMinutes,
		Status:          model.TestStatusDraft,
		CreatedBy:       createdBy,
	}
	if err := s.testRepo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create test: %w", err)
	}

	s.log.Info().Str("test_id", t.ID.String()).Str("module", string(t.Module)).Msg("Test created")
	return t, nil
}

// Update edits the metadata of a draft test.
func (s *TestService) Update(ctx context.Context, id uuid.UUID, req model.UpdateTestRequest) (*model.Test, error) {
	t, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status != model.TestStatusDraft {
		return nil, ErrTestNotDraft
	}

	req.Apply(t)
	if err := s.testRepo.Update(ctx, t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTestNotDraft
		}
		return nil, fmt.Errorf("update test: %w", err)
	}
	return t, nil
}

// Delete removes a draft or archived test.
func (s *TestService) Delete(ctx context.Context, id uuid.UUID) error {
	t, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if t.Status == model.TestStatusPublished {
		return ErrTestPublished
	}
	if err := s.testRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete test: %w", err)
	}
	s.rdb.Del(ctx, config.CacheKey.TestPaperKey(id))

	s.log.Info().Str("test_id", id.String()).Msg("Test deleted")
	return nil
}

// Publish makes a draft available to learners. The set must have at least one
// question and no problems. The checks, the paper cache write and the status
// change run under the test's row lock, so no edit can land between them and
// learners never see a published test without a paper.
func (s *TestService) Publish(ctx context.Context, id uuid.UUID) (*model.Test, error) {
	t, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status != model.TestStatusDraft {
		return nil, ErrTestNotDraft
	}

	cached := false
	_, err = s.setRepo.Transition(ctx, id, model.TestStatusDraft, model.TestStatusPublished, func(set questionset.Set) error {
		if set.QuestionCount() == 0 {
			return ErrNoQuestions
		}
		if problems := set.Problems(); len(problems) > 0 {
			return &ProblemsError{Problems: problems}
		}
		t.Status = model.TestStatusPublished
		t.QuestionCount = set.QuestionCount()
		if err := s.cachePaper(ctx, &model.Paper{Test: *t, Set: set}); err != nil {
			return err
		}
		cached = true
		return nil
	})
	if err != nil {
		if cached {
			s.rdb.Del(ctx, config.CacheKey.TestPaperKey(id))
		}
		return nil, transitionError(err, ErrTestNotDraft)
	}

	s.log.Info().
		Str("test_id", id.String()).
		Int("questions", t.QuestionCount).
		Msg("Test published")
	return t, nil
}

// Archive withdraws a published test. Attempts already started keep their
// answers but can no longer load the paper.
func (s *TestService) Archive(ctx context.Context, id uuid.UUID) (*model.Test, error) {
	t, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status != model.TestStatusPublished {
		return nil, ErrTestNotPublished
	}

	if _, err := s.setRepo.Transition(ctx, id, model.TestStatusPublished, model.TestStatusArchived, nil); err != nil {
		return nil, transitionError(err, ErrTestNotPublished)
	}
	s.rdb.Del(ctx, config.CacheKey.TestPaperKey(id))
	t.Status = model.TestStatusArchived

	s.log.Info().Str("test_id", id.String()).Msg("Test archived")
	return t, nil
}

// transitionError maps repository errors from a status change. Domain errors
// returned by the check callback pass through unchanged.
func transitionError(err, conflict error) error {
	switch {
	case errors.Is(err, repository.ErrStatusConflict):
		return conflict
	case errors.Is(err, pgx.ErrNoRows):
		return ErrTestNotFound
	case errors.Is(err, ErrNoQuestions), errors.Is(err, ErrTestHasProblems):
		return err
	}
	return fmt.Errorf("change status: %w", err)
}

// GetPaper returns the cached paper of a published test, loading it from
// PostgreSQL on a cache miss.
func (s *TestService) GetPaper(ctx context.Context, id uuid.UUID) (*model.Paper, error) {
	data, err := s.rdb.Get(ctx, config.CacheKey.TestPaperKey(id)).Bytes()
	switch {
	case err == nil:
		var p model.Paper
		if err := json.Unmarshal(data, &p); err == nil {
			return &p, nil
		}
		s.log.Warn().Str("test_id", id.String()).Msg("Corrupt paper cache entry, reloading")
	case !errors.Is(err, redis.Nil):
		s.log.Warn().Err(err).Str("test_id", id.String()).Msg("Paper cache read failed")
	}

	t, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status != model.TestStatusPublished {
		return nil, ErrTestNotPublished
	}

	set, err := s.setRepo.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load question set: %w", err)
	}

	p := &model.Paper{Test: *t, Set: set}
	if err := s.cachePaper(ctx, p); err != nil {
		s.log.Warn().Err(err).Str("test_id", id.String()).Msg("Failed to cache paper")
	}
	return p, nil
}

// PrewarmAllCaches loads all published papers into Redis on application startup.
func (s *TestService) PrewarmAllCaches(ctx context.Context) error {
	tests, err := s.testRepo.ListPublished(ctx)
	if err != nil {
		return fmt.Errorf("list published tests: %w", err)
	}

	if len(tests) == 0 {
		s.log.Info().Msg("No published tests to prewarm")
		return nil
	}

	pipe := s.rdb.Pipeline()
	for i := range tests {
		set, err := s.setRepo.Load(ctx, tests[i].ID)
		if err != nil {
			s.log.Warn().
				Err(err).
				Str("test_id", tests[i].ID.String()).
				Msg("Failed to load test, skipping")
			continue
		}
		payload, err := json.Marshal(model.Paper{Test: tests[i], Set: set})
		if err != nil {
			return fmt.Errorf("marshal paper: %w", err)
		}
		pipe.Set(ctx, config.CacheKey.TestPaperKey(tests[i].ID), payload, 0)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}

	s.log.Info().Int("total", len(tests)).Msg("Prewarming complete")
	return nil
}

func (s *TestService) cachePaper(ctx context.Context, p *model.Paper) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal paper: %w", err)
	}
	if err := s.rdb.Set(ctx, config.CacheKey.TestPaperKey(p.Test.ID), payload, 0).Err(); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}
	return nil
}
