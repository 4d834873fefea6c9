package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/ieltsprep/ielts-backend/internal/model"
	"github.com/ieltsprep/ielts-backend/internal/questionset"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuestionSetRepository loads and stores the groups and questions of a test.
type QuestionSetRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionSetRepository creates a new QuestionSetRepository.
func NewQuestionSetRepository(pool *pgxpool.Pool) *QuestionSetRepository {
	return &QuestionSetRepository{pool: pool}
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
}

// Load returns the stored set for a test ordered by group order then position.
// A test without groups yields an empty set.
func (r *QuestionSetRepository) Load(ctx context.Context, testID uuid.UUID) (questionset.Set, error) {
	return load(ctx, r.pool, testID)
}

func load(ctx context.Context, q querier, testID uuid.UUID) (questionset.Set, error) {
	set := questionset.Set{TestID: testID, Groups: []questionset.Group{}}

	rows, err := q.Query(ctx,
		`SELECT id, group_type, instruction, content, media_url, order_index
		 FROM question_groups WHERE test_id = $1
		 ORDER BY order_index`, testID)
	if err != nil {
		return set, err
	}
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		g := questionset.Group{Questions: []questionset.Question{}}
		if err := rows.Scan(&g.ID, &g.Type, &g.Instruction, &g.Content, &g.MediaURL, &g.OrderIndex); err != nil {
			rows.Close()
			return set, err
		}
		index[g.ID] = len(set.Groups)
		set.Groups = append(set.Groups, g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return set, err
	}

	rows, err = q.Query(ctx,
		`SELECT q.id, q.group_id, q.question_number, q.prompt, q.options, q.correct_answer, q.explanation
		 FROM questions q
		 JOIN question_groups g ON g.id = q.group_id
		 WHERE q.test_id = $1
		 ORDER BY g.order_index, q.position`, testID)
	if err != nil {
		return set, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			qn      questionset.Question
			groupID uuid.UUID
			options []byte
			answer  string
		)
		if err := rows.Scan(&qn.ID, &groupID, &qn.Number, &qn.Prompt, &options, &answer, &qn.Explanation); err != nil {
			return set, err
		}
		if len(options) > 0 {
			if err := json.Unmarshal(options, &qn.Options); err != nil {
				return set, fmt.Errorf("decode options of question %s: %w", qn.ID, err)
			}
		}
		qn.Answer = questionset.DecodeAnswer(answer)

		gi, ok := index[groupID]
		if !ok {
			continue
		}
		set.Groups[gi].Questions = append(set.Groups[gi].Questions, qn)
	}
	if err := rows.Err(); err != nil {
		return set, err
	}

	// Rows written outside this service (imports, manual fixes) may have gaps.
	if !set.IsNumbered() {
		set = set.Renumbered()
	}
	return set, nil
}

// ReplaceAll swaps the stored groups and questions of set.TestID for the given
// set in one transaction. The set must already be numbered.
func (r *QuestionSetRepository) ReplaceAll(ctx context.Context, set questionset.Set) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := save(ctx, tx, set); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Modify locks the test row, loads its set, passes it to fn and stores the
// result, all in one transaction. Concurrent edits to the same test serialize
// with each other and with Transition. Returns pgx.ErrNoRows when the test does
// not exist and ErrStatusConflict when it is no longer a draft.
func (r *QuestionSetRepository) Modify(ctx context.Context, testID uuid.UUID, fn func(questionset.Set) (questionset.Set, error)) (questionset.Set, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return questionset.Set{}, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := lockStatus(ctx, tx, testID, model.TestStatusDraft); err != nil {
		return questionset.Set{}, err
	}

	current, err := load(ctx, tx, testID)
	if err != nil {
		return questionset.Set{}, fmt.Errorf("load set: %w", err)
	}

	next, err := fn(current)
	if err != nil {
		return questionset.Set{}, err
	}
	next.TestID = testID

	if err := save(ctx, tx, next); err != nil {
		return questionset.Set{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return questionset.Set{}, err
	}
	return next, nil
}

// Transition moves a test from one status to another under the same row lock
// Modify takes. When fn is non-nil it receives the stored set and can veto the
// change by returning an error; the status is only written if fn succeeds.
// Returns pgx.ErrNoRows when the test does not exist and ErrStatusConflict
// when its status is not from.
func (r *QuestionSetRepository) Transition(ctx context.Context, testID uuid.UUID, from, to model.TestStatus, fn func(questionset.Set) error) (questionset.Set, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return questionset.Set{}, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := lockStatus(ctx, tx, testID, from); err != nil {
		return questionset.Set{}, err
	}

	var set questionset.Set
	if fn != nil {
		set, err = load(ctx, tx, testID)
		if err != nil {
			return questionset.Set{}, fmt.Errorf("load set: %w", err)
		}
		if err := fn(set); err != nil {
			return questionset.Set{}, err
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE tests SET status = $1, updated_at = NOW() WHERE id = $2`, to, testID); err != nil {
		return questionset.Set{}, fmt.Errorf("update status: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return questionset.Set{}, err
	}
	return set, nil
}

func lockStatus(ctx context.Context, tx pgx.Tx, testID uuid.UUID, want model.TestStatus) error {
	var status model.TestStatus
	if err := tx.QueryRow(ctx, `SELECT status FROM tests WHERE id = $1 FOR UPDATE`, testID).Scan(&status); err != nil {
		return err
	}
	if status != want {
		return fmt.Errorf("%w: %s is %s, want %s", ErrStatusConflict, testID, status, want)
	}
	return nil
}

func save(ctx context.Context, q querier, set questionset.Set) error {
	groupRows := make([][]any, 0, len(set.Groups))
	var questionRows [][]any
	for _, g := range set.Groups {
		groupRows = append(groupRows, []any{g.ID, set.TestID, string(g.Type), g.Instruction, g.Content, g.MediaURL, g.OrderIndex})
		for pos, qn := range g.Questions {
			options := qn.Options
			if options == nil {
				options = []string{}
			}
			optionsJSON, err := json.Marshal(options)
			if err != nil {
				return fmt.Errorf("encode options of question %s: %w", qn.ID, err)
			}
			answer, err := qn.Answer.Encode()
			if err != nil {
				return fmt.Errorf("encode answer of question %s: %w", qn.ID, err)
			}
			questionRows = append(questionRows, []any{
				qn.ID, g.ID, set.TestID, qn.Number, pos + 1, qn.Prompt, string(optionsJSON), answer, qn.Explanation,
			})
		}
	}

	if _, err := q.Exec(ctx, `DELETE FROM question_groups WHERE test_id = $1`, set.TestID); err != nil {
		return err
	}

	if len(groupRows) > 0 {
		if _, err := q.CopyFrom(ctx,
			pgx.Identifier{"question_groups"},
			[]string{"id", "test_id", "group_type", "instruction", "content", "media_url", "order_index"},
			pgx.CopyFromRows(groupRows),
		); err != nil {
			return fmt.Errorf("copy groups: %w", err)
		}
	}

	if len(questionRows) > 0 {
		if _, err := q.CopyFrom(ctx,
			pgx.Identifier{"questions"},
			[]string{"id", "group_id", "test_id", "question_number", "position", "prompt", "options", "correct_answer", "explanation"},
			pgx.CopyFromRows(questionRows),
		); err != nil {
			return fmt.Errorf("copy questions: %w", err)
		}
	}

	_, err := q.Exec(ctx, `UPDATE tests SET updated_at = NOW() WHERE id = $1`, set.TestID)
	return err
}
