package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/ieltsprep/ielts-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const testColumns = `t.id, t.title, t.module, t.description, t.audio_url, t.duration_minutes,
	t.status, t.created_by, t.created_at, t.updated_at,
	(SELECT COUNT(*) FROM questions q WHERE q.test_id = t.id)`

// ErrStatusConflict reports a write against a test whose status no longer
// allows it.
var ErrStatusConflict = errors.New("test status conflict")

// TestRepository handles test data access.
type TestRepository struct {
	pool *pgxpool.Pool
}

// NewTestRepository creates a new TestRepository.
func NewTestRepository(pool *pgxpool.Pool) *TestRepository {
	return &TestRepository{pool: pool}
}

func scanTest(row pgx.Row, t *model.Test) error {
	return row.Scan(&t.ID, &t.Title, &t.Module, &t.Description, &t.AudioURL, &t.DurationMinutes,
		&t.Status, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt, &t.QuestionCount)
}

// GetByID retrieves a test by its UUID. Returns pgx.ErrNoRows when absent.
func (r *TestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Test, error) {
	t := &model.Test{}
	row := r.pool.QueryRow(ctx, `SELECT `+testColumns+` FROM tests t WHERE t.id = $1`, id)
	if err := scanTest(row, t); err != nil {
		return nil, err
	}
	return t, nil
}

// List retrieves tests matching the filter, newest first, with the total count.
func (r *TestRepository) List(ctx context.Context, f model.TestFilter, limit, offset int) ([]model.Test, int, error) {
	where := ` WHERE 1=1`
	var args []any
	if f.Module != "" {
		args = append(args, f.Module)
		where += ` AND t.module = $` + strconv.Itoa(len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where += ` AND t.status = $` + strconv.Itoa(len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where += ` AND t.title ILIKE $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tests t`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + testColumns + ` FROM tests t` + where +
		` ORDER BY t.created_at DESC LIMIT $` + strconv.Itoa(len(args)+1) +
		` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tests := make([]model.Test, 0, limit)
	for rows.Next() {
		var t model.Test
		if err := scanTest(rows, &t); err != nil {
			return nil, 0, err
		}
		tests = append(tests, t)
	}
	return tests, total, rows.Err()
}

// ListPublished returns every published test.
// Used for paper cache prewarming on application startup.
func (r *TestRepository) ListPublished(ctx context.Context) ([]model.Test, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+testColumns+` FROM tests t WHERE t.status = $1 ORDER BY t.created_at DESC`,
		model.TestStatusPublished)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tests []model.Test
	for rows.Next() {
		var t model.Test
		if err := scanTest(rows, &t); err != nil {
			return nil, err
		}
		tests = append(tests, t)
	}
	return tests, rows.Err()
}

// Create inserts a new test.
func (r *TestRepository) Create(ctx context.Context, t *model.Test) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO tests (title, module, description, audio_url, duration_minutes, status, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		t.Title, t.Module, t.Description, t.AudioURL, t.DurationMinutes, t.Status, t.CreatedBy,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

// Update writes the editable fields of a draft test. Returns pgx.ErrNoRows
// when no draft with that id exists.
func (r *TestRepository) Update(ctx context.Context, t *model.Test) error {
	return r.pool.QueryRow(ctx,
		`UPDATE tests SET title = $1, description = $2, audio_url = $3, duration_minutes = $4, updated_at = NOW()
		 WHERE id = $5 AND status = $6
		 RETURNING updated_at`,
		t.Title, t.Description, t.AudioURL, t.DurationMinutes, t.ID, model.TestStatusDraft,
	).Scan(&t.UpdatedAt)
}

// Delete removes a test. Groups, questions and submissions cascade.
func (r *TestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tests WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
