package model

import (
	"time"

	"github.com/google/uuid"
)

// TestModule is the IELTS skill a test practises.
type TestModule string

const (
	TestModuleReading   TestModule = "READING"
	TestModuleListening TestModule = "LISTENING"
)

// TestStatus enumerates the possible states of a test.
type TestStatus string

const (
	TestStatusDraft     TestStatus = "DRAFT"
	TestStatusPublished TestStatus = "PUBLISHED"
	TestStatusArchived  TestStatus = "ARCHIVED"
)

// Test is a reading or listening practice test.
type Test struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	Module          TestModule `json:"module"`
	Description     string     `json:"description"`
	AudioURL        string     `json:"audio_url,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	Status          TestStatus `json:"status"`
	CreatedBy       string     `json:"created_by"`
	QuestionCount   int        `json:"question_count"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// CreateTestRequest is the payload for creating a new draft test.
type CreateTestRequest struct {
	Title           string `json:"title" binding:"required,min=3,max=255"`
	Module          string `json:"module" binding:"required,oneof=READING LISTENING"`
	Description     string `json:"description" binding:"omitempty,max=4000"`
	AudioURL        string `json:"audio_url" binding:"omitempty,max=1024"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,min=1,max=180"`
}

// UpdateTestRequest is the payload for updating a draft test. Empty fields are kept.
type UpdateTestRequest struct {
	Title           string  `json:"title" binding:"omitempty,min=3,max=255"`
	Description     *string `json:"description" binding:"omitempty,max=4000"`
	AudioURL        *string `json:"audio_url" binding:"omitempty,max=1024"`
	DurationMinutes int     `json:"duration_minutes" binding:"omitempty,min=1,max=180"`
}

// Apply copies the non-empty fields of the request onto t.
func (r UpdateTestRequest) Apply(t *Test) {
	if r.Title != "" {
		t.Title = r.Title
	}
	if r.Description != nil {
		t.Description = *r.Description
	}
	if r.AudioURL != nil {
		t.AudioURL = *r.AudioURL
	}
	if r.DurationMinutes != 0 {
		t.DurationMinutes = r.DurationMinutes
	}
}

// TestFilter narrows test listings.
type TestFilter struct {
	Module TestModule
	Status TestStatus
	Search string
}
