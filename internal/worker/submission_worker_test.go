package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ieltsprep/ielts-backend/internal/model"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

type fakeStore struct {
	seen map[uuid.UUID]bool
	err  error
}

func (f *fakeStore) Insert(_ context.Context, s *model.Submission) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.seen[s.AttemptID] {
		return false, nil
	}
	f.seen[s.AttemptID] = true
	return true, nil
}

func payload(t *testing.T) string {
	t.Helper()
	q := uuid.New()
	raw, err := json.Marshal(model.Submission{
		SubmissionReceipt: model.SubmissionReceipt{
			ID:          uuid.New(),
			AttemptID:   uuid.New(),
			TestID:      uuid.New(),
			LearnerID:   "learner-1",
			Answered:    1,
			Total:       3,
			SubmittedAt: time.Now().UTC(),
		},
		Answers: map[uuid.UUID]string{q: "river"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return string(raw)
}

func TestHandleIsIdempotent(t *testing.T) {
	store := &fakeStore{seen: map[uuid.UUID]bool{}}
	w := NewSubmissionWorker(store, nil, zerolog.Nop())
	raw := payload(t)

	for i := 0; i < 2; i++ {
		if err := w.handle(context.Background(), raw); err != nil {
			t.Fatalf("handle() #%d error: %v", i, err)
		}
	}
	if len(store.seen) != 1 {
		t.Errorf("stored %d submissions, want 1", len(store.seen))
	}
}

func TestHandleClassifiesErrors(t *testing.T) {
	w := NewSubmissionWorker(&fakeStore{seen: map[uuid.UUID]bool{}}, nil, zerolog.Nop())

	for _, raw := range []string{"not json", `{"answers":{}}`} {
		if err := w.handle(context.Background(), raw); !errors.Is(err, errPoison) {
			t.Errorf("handle(%q) error = %v, want poison", raw, err)
		}
	}

	tests := []struct {
		name       string
		storeErr   error
		wantPoison bool
	}{
		{"connection failure", errors.New("db down"), false},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, false},
		{"test deleted after submit", &pgconn.PgError{Code: "23503", Message: "violates foreign key constraint"}, true},
		{"check violation", &pgconn.PgError{Code: "23514"}, true},
		{"wrapped not null violation", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23502"}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failing := NewSubmissionWorker(&fakeStore{err: tt.storeErr}, nil, zerolog.Nop())
			err := failing.handle(context.Background(), payload(t))
			if err == nil {
				t.Fatal("handle() returned nil for a failing store")
			}
			if got := errors.Is(err, errPoison); got != tt.wantPoison {
				t.Errorf("handle() error = %v, poison = %v, want %v", err, got, tt.wantPoison)
			}
		})
	}
}
