package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ieltsprep/ielts-backend/internal/config"
	"github.com/ieltsprep/ielts-backend/internal/metrics"
	"github.com/ieltsprep/ielts-backend/internal/model"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// errPoison marks payloads that will never persist and must not be retried.
var errPoison = errors.New("unpersistable submission payload")

// SubmissionInserter stores a submission; *repository.SubmissionRepository satisfies it.
type SubmissionInserter interface {
	Insert(ctx context.Context, s *model.Submission) (bool, error)
}

// SubmissionWorker consumes persist_submissions_queue and writes submissions to PostgreSQL.
type SubmissionWorker struct {
	store      SubmissionInserter
	rdb        *redis.Client
	log        zerolog.Logger
	retryDelay time.Duration
}

// NewSubmissionWorker creates a new SubmissionWorker.
func NewSubmissionWorker(store SubmissionInserter, rdb *redis.Client, log zerolog.Logger) *SubmissionWorker {
	return &SubmissionWorker{
		store:      store,
		rdb:        rdb,
		log:        log.With().Str("component", "submission_worker").Logger(),
		retryDelay: 5 * time.Second,
	}
}

// Start begins the worker loop. Call in a goroutine; it returns after ctx is
// cancelled and the queue has been drained.
func (w *SubmissionWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *SubmissionWorker) processNext(ctx context.Context) {
	queue := config.WorkerKey.PersistSubmissionsQueue

	// BLPop blocks until an item is available or the 1 second timeout.
	result, err := w.rdb.BLPop(ctx, time.Second, queue).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
			time.Sleep(time.Second)
		}
		return
	}
	if len(result) < 2 {
		return
	}

	if err := w.handle(ctx, result[1]); err != nil {
		if errors.Is(err, errPoison) {
			w.log.Error().Err(err).Msg("Moving payload to dead letter queue")
			w.rdb.RPush(ctx, config.WorkerKey.DeadSubmissionsQueue, result[1])
			return
		}
		w.log.Error().Err(err).Dur("retry_in", w.retryDelay).Msg("Persist error, requeueing")
		// Push back to the head so ordering per learner is kept.
		w.rdb.LPush(context.Background(), queue, result[1])
		metrics.Submissions.WithLabelValues("failed").Inc()

		select {
		case <-ctx.Done():
		case <-time.After(w.retryDelay):
		}
	}
}

// handle decodes one payload and inserts it. Duplicates are not an error.
func (w *SubmissionWorker) handle(ctx context.Context, raw string) error {
	var sub model.Submission
	if err := json.Unmarshal([]byte(raw), &sub); err != nil {
		return fmt.Errorf("%w: %v", errPoison, err)
	}
	if sub.ID == uuid.Nil || sub.AttemptID == uuid.Nil {
		return fmt.Errorf("%w: missing ids", errPoison)
	}

	inserted, err := w.store.Insert(ctx, &sub)
	if err != nil {
		if isIntegrityViolation(err) {
			return fmt.Errorf("%w: insert submission %s: %v", errPoison, sub.ID, err)
		}
		return fmt.Errorf("insert submission %s: %w", sub.ID, err)
	}

	if inserted {
		metrics.Submissions.WithLabelValues("persisted").Inc()
		w.log.Debug().
			Str("submission_id", sub.ID.String()).
			Str("learner_id", sub.LearnerID).
			Int("answered", sub.Answered).
			Msg("Submission persisted")
	} else {
		w.log.Debug().Str("attempt_id", sub.AttemptID.String()).Msg("Duplicate submission ignored")
	}
	return nil
}

// isIntegrityViolation reports SQLSTATE class 23 (integrity constraint) errors.
// Retrying them cannot succeed.
func isIntegrityViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23")
}

// drain processes all remaining items in the queue before shutdown.
func (w *SubmissionWorker) drain(ctx context.Context) {
	queue := config.WorkerKey.PersistSubmissionsQueue
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, queue).Result()
		if err != nil {
			break
		}

		if err := w.handle(ctx, result); err != nil {
			if errors.Is(err, errPoison) {
				w.rdb.RPush(ctx, config.WorkerKey.DeadSubmissionsQueue, result)
				continue
			}
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.LPush(ctx, queue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
