package model

import "github.com/ieltsprep/ielts-backend/internal/questionset"

// Paper is a published test with its numbered question set, as cached in Redis.
// It carries correct answers and must never be sent to learners as is.
type Paper struct {
	Test Test            `json:"test"`
	Set  questionset.Set `json:"question_set"`
}

// PreviewView is what authors see when previewing a test.
type PreviewView struct {
	Test     Test                        `json:"test"`
	Groups   []questionset.RenderedGroup `json:"groups"`
	Problems []questionset.Problem       `json:"problems"`
	Total    int                         `json:"total"`
}
