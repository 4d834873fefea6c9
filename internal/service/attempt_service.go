package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ieltsprep/ielts-backend/internal/answers"
	"github.com/ieltsprep/ielts-backend/internal/config"
	"github.com/ieltsprep/ielts-backend/internal/metrics"
	"github.com/ieltsprep/ielts-backend/internal/model"
	"github.com/ieltsprep/ielts-backend/internal/questionset"
	"github.com/ieltsprep/ielts-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Attempt errors.
var (
	ErrAttemptNotFound   = errors.New("attempt not found or already submitted")
	ErrNotAttemptOwner   = errors.New("attempt belongs to another learner")
	ErrQuestionNotInTest = errors.New("question does not belong to this test")
	ErrTestWithdrawn     = errors.New("test of this attempt is no longer published")

	errCorruptAttempt = errors.New("corrupt attempt")
)

// AttemptService keeps in-progress attempts in Redis and hands finished ones
// to the submission worker.
type AttemptService struct {
	tests   *TestService
	subRepo *repository.SubmissionRepository
	rdb     *redis.Client
	ttl     time.Duration
	log     zerolog.Logger
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(
	tests *TestService,
	subRepo *repository.SubmissionRepository,
	rdb *redis.Client,
	cfg *config.Config,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		tests:   tests,
		subRepo: subRepo,
		rdb:     rdb,
		ttl:     cfg.AttemptTTL,
		log:     log.With().Str("component", "attempt_service").Logger(),
	}
}

// Start opens an attempt on a published test, or returns the learner's open
// attempt on it so a reload resumes instead of starting over.
func (s *AttemptService) Start(ctx context.Context, testID uuid.UUID, learnerID string) (*model.Attempt, error) {
	if _, err := s.tests.GetPaper(ctx, testID); err != nil {
		return nil, err
	}

	activeKey := config.CacheKey.LearnerActiveAttemptKey(learnerID, testID)
	existing, err := s.rdb.Get(ctx, activeKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("check active attempt: %w", err)
	}
	if existingID, perr := uuid.Parse(existing); perr == nil {
		if a, err := s.load(ctx, existingID, learnerID); err == nil {
			return a, nil
		}
	}

	now := time.Now().UTC()
	a := &model.Attempt{
		ID:        uuid.New(),
		TestID:    testID,
		LearnerID: learnerID,
		StartedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	metaKey := config.CacheKey.AttemptMetaKey(a.ID)
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, metaKey, map[string]any{
		"test_id":    a.TestID.String(),
		"learner_id": a.LearnerID,
		"started_at": a.StartedAt.Format(time.RFC3339Nano),
		"expires_at": a.ExpiresAt.Format(time.RFC3339Nano),
	})
	pipe.Expire(ctx, metaKey, s.ttl)
	pipe.Set(ctx, activeKey, a.ID.String(), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("store attempt: %w", err)
	}

	s.log.Info().
		Str("attempt_id", a.ID.String()).
		Str("test_id", testID.String()).
		Str("learner_id", learnerID).
		Msg("Attempt started")
	return a, nil
}

// Get returns the attempt if it is open and owned by learnerID.
func (s *AttemptService) Get(ctx context.Context, attemptID uuid.UUID, learnerID string) (*model.Attempt, error) {
	return s.load(ctx, attemptID, learnerID)
}

// View renders the attempt's paper with the learner's current answers bound in.
func (s *AttemptService) View(ctx context.Context, attemptID uuid.UUID, learnerID string) (*model.AttemptView, error) {
	a, paper, store, err := s.open(ctx, attemptID, learnerID)
	if err != nil {
		return nil, err
	}

	return &model.AttemptView{
		Attempt:         *a,
		Title:           paper.Test.Title,
		Module:          paper.Test.Module,
		AudioURL:        paper.Test.AudioURL,
		DurationMinutes: paper.Test.DurationMinutes,
		Groups:          questionset.Render(paper.Set, store, questionset.RenderOptions{}),
		Answered:        store.CountAnswered(),
		Total:           paper.Set.QuestionCount(),
	}, nil
}

// SaveAnswer records one answer and returns the updated progress. The value is
// stored as typed; an empty value clears the answer.
func (s *AttemptService) SaveAnswer(ctx context.Context, attemptID uuid.UUID, learnerID string, questionID uuid.UUID, value string) (*model.Progress, error) {
	a, err := s.load(ctx, attemptID, learnerID)
	if err != nil {
		return nil, err
	}
	paper, err := s.paper(ctx, a.TestID)
	if err != nil {
		return nil, err
	}
	if !paper.Set.HasQuestion(questionID) {
		return nil, ErrQuestionNotInTest
	}

	key := config.CacheKey.AttemptAnswersKey(attemptID)
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key, questionID.String(), value)
	if a.ExpiresAt.After(time.Now()) {
		pipe.ExpireAt(ctx, key, a.ExpiresAt)
	} else {
		pipe.Expire(ctx, key, s.ttl)
	}
	all := pipe.HGetAll(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("save answer: %w", err)
	}

	store := answers.FromMap(all.Val())
	store.Restrict(paper.Set.QuestionIDs())
	return &model.Progress{Answered: store.CountAnswered(), Total: paper.Set.QuestionCount()}, nil
}

// Submit closes the attempt, queues its answers for persistence and returns
// the receipt. The attempt's Redis state is discarded.
func (s *AttemptService) Submit(ctx context.Context, attemptID uuid.UUID, learnerID string) (*model.SubmissionReceipt, error) {
	a, paper, store, err := s.open(ctx, attemptID, learnerID)
	if err != nil {
		return nil, err
	}

	sub := model.Submission{
		SubmissionReceipt: model.SubmissionReceipt{
			ID:          uuid.New(),
			AttemptID:   a.ID,
			TestID:      a.TestID,
			LearnerID:   a.LearnerID,
			Answered:    store.CountAnswered(),
			Total:       paper.Set.QuestionCount(),
			SubmittedAt: time.Now().UTC(),
		},
		Answers: store.Snapshot(),
	}
	payload, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("marshal submission: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, config.WorkerKey.PersistSubmissionsQueue, payload)
	pipe.Del(ctx,
		config.CacheKey.AttemptMetaKey(a.ID),
		config.CacheKey.AttemptAnswersKey(a.ID),
		config.CacheKey.LearnerActiveAttemptKey(a.LearnerID, a.TestID),
	)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("queue submission: %w", err)
	}
	metrics.Submissions.WithLabelValues("queued").Inc()

	s.log.Info().
		Str("attempt_id", a.ID.String()).
		Str("learner_id", a.LearnerID).
		Int("answered", sub.Answered).
		Int("total", sub.Total).
		Msg("Attempt submitted")
	return &sub.SubmissionReceipt, nil
}

// History lists a learner's persisted submissions, newest first.
func (s *AttemptService) History(ctx context.Context, learnerID string, limit int) ([]model.SubmissionReceipt, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	receipts, err := s.subRepo.ListByLearner(ctx, learnerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return receipts, nil
}

// open loads the attempt, its paper and its answers restricted to the paper's questions.
func (s *AttemptService) open(ctx context.Context, attemptID uuid.UUID, learnerID string) (*model.Attempt, *model.Paper, *answers.Store, error) {
	a, err := s.load(ctx, attemptID, learnerID)
	if err != nil {
		return nil, nil, nil, err
	}
	paper, err := s.paper(ctx, a.TestID)
	if err != nil {
		return nil, nil, nil, err
	}

	raw, err := s.rdb.HGetAll(ctx, config.CacheKey.AttemptAnswersKey(attemptID)).Result()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load answers: %w", err)
	}
	store := answers.FromMap(raw)
	if dropped := store.Restrict(paper.Set.QuestionIDs()); dropped > 0 {
		s.log.Debug().Str("attempt_id", attemptID.String()).Int("dropped", dropped).Msg("Ignored answers for unknown questions")
	}
	return a, paper, store, nil
}

func (s *AttemptService) paper(ctx context.Context, testID uuid.UUID) (*model.Paper, error) {
	p, err := s.tests.GetPaper(ctx, testID)
	if errors.Is(err, ErrTestNotPublished) || errors.Is(err, ErrTestNotFound) {
		return nil, ErrTestWithdrawn
	}
	return p, err
}

func (s *AttemptService) load(ctx context.Context, attemptID uuid.UUID, learnerID string) (*model.Attempt, error) {
	meta, err := s.rdb.HGetAll(ctx, config.CacheKey.AttemptMetaKey(attemptID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load attempt: %w", err)
	}
	if len(meta) == 0 {
		return nil, ErrAttemptNotFound
	}
	if meta["learner_id"] != learnerID {
		return nil, ErrNotAttemptOwner
	}

	testID, err := uuid.Parse(meta["test_id"])
	if err != nil {
		return nil, fmt.Errorf("%w %s: test_id: %v", errCorruptAttempt, attemptID, err)
	}
	startedAt, err := time.Parse(time.RFC3339Nano, meta["started_at"])
	if err != nil {
		return nil, fmt.Errorf("%w %s: started_at: %v", errCorruptAttempt, attemptID, err)
	}
	expiresAt, err := time.Parse(time.RFC3339Nano, meta["expires_at"])
	if err != nil {
		return nil, fmt.Errorf("%w %s: expires_at: %v", errCorruptAttempt, attemptID, err)
	}

	return &model.Attempt{
		ID:        attemptID,
		TestID:    testID,
		LearnerID: meta["learner_id"],
		StartedAt: startedAt,
		ExpiresAt: expiresAt,
	}, nil
}
