package repository

import (
	"context"
	"encoding/json"

	"github.com/ieltsprep/ielts-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SubmissionRepository handles submission data access.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

// Insert stores a submission. Re-delivering the same attempt is a no-op, so the
// worker can retry safely. Reports whether a row was written.
func (r *SubmissionRepository) Insert(ctx context.Context, s *model.Submission) (bool, error) {
	answers := make(map[string]string, len(s.Answers))
	for id, v := range s.Answers {
		answers[id.String()] = v
	}
	payload, err := json.Marshal(answers)
	if err != nil {
		return false, err
	}

	tag, err := r.pool.Exec(ctx,
		`INSERT INTO submissions (id, attempt_id, test_id, learner_id, answers, answered, total, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (attempt_id) DO NOTHING`,
		s.ID, s.AttemptID, s.TestID, s.LearnerID, string(payload), s.Answered, s.Total, s.SubmittedAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ListByLearner returns a learner's most recent submission receipts.
func (r *SubmissionRepository) ListByLearner(ctx context.Context, learnerID string, limit int) ([]model.SubmissionReceipt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, attempt_id, test_id, learner_id, answered, total, submitted_at
		 FROM submissions WHERE learner_id = $1
		 ORDER BY submitted_at DESC LIMIT $2`, learnerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	receipts := []model.SubmissionReceipt{}
	for rows.Next() {
		var s model.SubmissionReceipt
		if err := rows.Scan(&s.ID, &s.AttemptID, &s.TestID, &s.LearnerID, &s.Answered, &s.Total, &s.SubmittedAt); err != nil {
			return nil, err
		}
		receipts = append(receipts, s)
	}
	return receipts, rows.Err()
}
