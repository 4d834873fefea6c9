package service

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ieltsprep/ielts-backend/internal/config"
	"github.com/ieltsprep/ielts-backend/internal/model"
	"github.com/ieltsprep/ielts-backend/internal/questionset"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// newRedisAttempts returns an AttemptService backed by the Redis at REDIS_URL
// and a published paper with two questions already in the paper cache. The
// test is skipped when no Redis is reachable.
func newRedisAttempts(t *testing.T) (*AttemptService, *model.Paper, *redis.Client) {
	t.Helper()
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("parse REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(opts)
	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		t.Skipf("redis unavailable: %v", err)
	}

	testID := uuid.New()
	paper := &model.Paper{
		Test: model.Test{ID: testID, Title: "Rivers", Module: model.TestModuleReading, Status: model.TestStatusPublished, DurationMinutes: 20},
		Set: questionset.Set{TestID: testID, Groups: []questionset.Group{{
			ID:      uuid.New(),
			Type:    questionset.GroupTypeGapFill,
			Content: "The [1] meets the [2].",
			Questions: []questionset.Question{
				{ID: uuid.New(), Number: 1, Answer: questionset.TextAnswer("river")},
				{ID: uuid.New(), Number: 2, Answer: questionset.TextAnswer("sea")},
			},
		}}},
	}
	raw, err := json.Marshal(paper)
	if err != nil {
		t.Fatalf("marshal paper: %v", err)
	}
	if err := rdb.Set(ctx, config.CacheKey.TestPaperKey(testID), raw, time.Minute).Err(); err != nil {
		t.Fatalf("seed paper: %v", err)
	}

	log := zerolog.Nop()
	tests := NewTestService(nil, nil, rdb, log)
	svc := NewAttemptService(tests, nil, rdb, &config.Config{AttemptTTL: time.Minute}, log)

	t.Cleanup(func() {
		rdb.Del(context.Background(), config.CacheKey.TestPaperKey(testID))
		rdb.Close()
	})
	return svc, paper, rdb
}

func cleanupAttempt(t *testing.T, rdb *redis.Client, a *model.Attempt) {
	t.Cleanup(func() {
		rdb.Del(context.Background(),
			config.CacheKey.AttemptMetaKey(a.ID),
			config.CacheKey.AttemptAnswersKey(a.ID),
			config.CacheKey.LearnerActiveAttemptKey(a.LearnerID, a.TestID),
		)
	})
}

func TestStartResumesOpenAttempt(t *testing.T) {
	svc, paper, rdb := newRedisAttempts(t)
	ctx := context.Background()

	first, err := svc.Start(ctx, paper.Test.ID, "learner-1")
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	cleanupAttempt(t, rdb, first)

	again, err := svc.Start(ctx, paper.Test.ID, "learner-1")
	if err != nil {
		t.Fatalf("second Start() error: %v", err)
	}
	if again.ID != first.ID {
		t.Errorf("second Start() opened %s, want resumed %s", again.ID, first.ID)
	}
	if !again.StartedAt.Equal(first.StartedAt) {
		t.Errorf("resumed StartedAt = %v, want %v", again.StartedAt, first.StartedAt)
	}

	other, err := svc.Start(ctx, paper.Test.ID, "learner-2")
	if err != nil {
		t.Fatalf("Start() for another learner error: %v", err)
	}
	cleanupAttempt(t, rdb, other)
	if other.ID == first.ID {
		t.Error("another learner resumed the first learner's attempt")
	}
}

func TestSaveAnswer(t *testing.T) {
	svc, paper, rdb := newRedisAttempts(t)
	ctx := context.Background()
	qs := paper.Set.Groups[0].Questions

	a, err := svc.Start(ctx, paper.Test.ID, "learner-1")
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	cleanupAttempt(t, rdb, a)

	steps := []struct {
		name       string
		questionID uuid.UUID
		value      string
		want       model.Progress
	}{
		{"first answer", qs[0].ID, "river", model.Progress{Answered: 1, Total: 2}},
		{"second answer", qs[1].ID, "sea", model.Progress{Answered: 2, Total: 2}},
		{"overwrite keeps count", qs[1].ID, "ocean", model.Progress{Answered: 2, Total: 2}},
		{"empty value clears", qs[1].ID, "", model.Progress{Answered: 1, Total: 2}},
	}
	for _, st := range steps {
		got, err := svc.SaveAnswer(ctx, a.ID, "learner-1", st.questionID, st.value)
		if err != nil {
			t.Fatalf("%s: SaveAnswer() error: %v", st.name, err)
		}
		if *got != st.want {
			t.Errorf("%s: progress = %+v, want %+v", st.name, *got, st.want)
		}
	}

	view, err := svc.View(ctx, a.ID, "learner-1")
	if err != nil {
		t.Fatalf("View() error: %v", err)
	}
	if view.Answered != 1 || view.Total != 2 {
		t.Errorf("view progress = %d/%d, want 1/2", view.Answered, view.Total)
	}
}

func TestSaveAnswerRejections(t *testing.T) {
	svc, paper, rdb := newRedisAttempts(t)
	ctx := context.Background()

	a, err := svc.Start(ctx, paper.Test.ID, "learner-1")
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	cleanupAttempt(t, rdb, a)

	tests := []struct {
		name       string
		attemptID  uuid.UUID
		learnerID  string
		questionID uuid.UUID
		want       error
	}{
		{"question from another test", a.ID, "learner-1", uuid.New(), ErrQuestionNotInTest},
		{"not the owner", a.ID, "learner-2", paper.Set.Groups[0].Questions[0].ID, ErrNotAttemptOwner},
		{"unknown attempt", uuid.New(), "learner-1", paper.Set.Groups[0].Questions[0].ID, ErrAttemptNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SaveAnswer(ctx, tt.attemptID, tt.learnerID, tt.questionID, "x")
			if !errors.Is(err, tt.want) {
				t.Errorf("SaveAnswer() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoadRejectsCorruptMeta(t *testing.T) {
	svc, paper, rdb := newRedisAttempts(t)
	ctx := context.Background()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	tests := []struct {
		name  string
		field string
		value string
	}{
		{"test id", "test_id", "not-a-uuid"},
		{"started at", "started_at", "yesterday"},
		{"expires at", "expires_at", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := uuid.New()
			meta := map[string]any{
				"test_id":    paper.Test.ID.String(),
				"learner_id": "learner-1",
				"started_at": now,
				"expires_at": now,
			}
			meta[tt.field] = tt.value
			key := config.CacheKey.AttemptMetaKey(id)
			if err := rdb.HSet(ctx, key, meta).Err(); err != nil {
				t.Fatalf("seed meta: %v", err)
			}
			t.Cleanup(func() { rdb.Del(context.Background(), key) })

			_, err := svc.Get(ctx, id, "learner-1")
			if !errors.Is(err, errCorruptAttempt) {
				t.Errorf("Get() error = %v, want corrupt attempt", err)
			}
		})
	}
}
