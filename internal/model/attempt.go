package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/ieltsprep/ielts-backend/internal/questionset"
)

// Attempt is one learner's in-progress sitting of a published test.
type Attempt struct {
	ID        uuid.UUID `json:"id"`
	TestID    uuid.UUID `json:"test_id"`
	LearnerID string    `json:"learner_id"`
	StartedAt time.Time `json:"started_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AttemptView is the rendered paper for an attempt plus answer progress.
type AttemptView struct {
	Attempt         Attempt                     `json:"attempt"`
	Title           string                      `json:"title"`
	Module          TestModule                  `json:"module"`
	AudioURL        string                      `json:"audio_url,omitempty"`
	DurationMinutes int                         `json:"duration_minutes"`
	Groups          []questionset.RenderedGroup `json:"groups"`
	Answered        int                         `json:"answered"`
	Total           int                         `json:"total"`
}

// Progress is the "N / total answered" indicator.
type Progress struct {
	Answered int `json:"answered"`
	Total    int `json:"total"`
}

// SaveAnswerRequest sets one answer in an attempt.
type SaveAnswerRequest struct {
	QuestionID uuid.UUID `json:"question_id" binding:"required"`
	Value      string    `json:"value" binding:"max=1000"`
}

// SubmissionReceipt acknowledges a submitted attempt.
type SubmissionReceipt struct {
	ID          uuid.UUID `json:"id"`
	AttemptID   uuid.UUID `json:"attempt_id"`
	TestID      uuid.UUID `json:"test_id"`
	LearnerID   string    `json:"learner_id"`
	Answered    int       `json:"answered"`
	Total       int       `json:"total"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Submission is the persisted form of a submitted attempt.
type Submission struct {
	SubmissionReceipt
	Answers map[uuid.UUID]string `json:"answers"`
}
