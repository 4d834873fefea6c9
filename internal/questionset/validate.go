package questionset

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// ProblemCode classifies an authoring inconsistency that blocks publishing.
type ProblemCode string

const (
	ProblemBrokenToken   ProblemCode = "BROKEN_TOKEN"
	ProblemMissingAnswer ProblemCode = "MISSING_ANSWER"
	ProblemEmptyGroup    ProblemCode = "EMPTY_GROUP"
)

// Problem is a non-fatal inconsistency an admin should fix before publish.
type Problem struct {
	Code       ProblemCode `json:"code"`
	GroupID    uuid.UUID   `json:"group_id"`
	OrderIndex int         `json:"order_index"`
	QuestionID uuid.UUID   `json:"question_id,omitempty"`
	Number     int         `json:"question_number,omitempty"`
	Token      string      `json:"token,omitempty"`
}

// Problems lists broken [n] tokens, questions without a correct answer and
// groups with no questions.
func (s Set) Problems() []Problem {
	var out []Problem
	for _, g := range s.Groups {
		if len(g.Questions) == 0 {
			out = append(out, Problem{Code: ProblemEmptyGroup, GroupID: g.ID, OrderIndex: g.OrderIndex})
		}
		for _, tok := range BrokenTokens(g) {
			out = append(out, Problem{Code: ProblemBrokenToken, GroupID: g.ID, OrderIndex: g.OrderIndex, Token: tok})
		}
		for _, q := range g.Questions {
			if q.Answer.IsZero() {
				out = append(out, Problem{
					Code:       ProblemMissingAnswer,
					GroupID:    g.ID,
					OrderIndex: g.OrderIndex,
					QuestionID: q.ID,
					Number:     q.Number,
				})
			}
		}
	}
	return out
}

// ValidationError maps field paths to messages, e.g. "groups[0].questions[1].options".
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "invalid question set: " + strings.Join(parts, "; ")
}

// Validate checks the structural rules a set must satisfy before it is
// persisted: known group types, unique ids, options where the type needs
// them, and answers shaped for the group type.
func (s Set) Validate() error {
	fields := map[string]string{}
	seen := map[uuid.UUID]string{}

	for gi, g := range s.Groups {
		gp := fmt.Sprintf("groups[%d]", gi)
		if !g.Type.Valid() {
			fields[gp+".group_type"] = fmt.Sprintf("unknown group type %q", g.Type)
		}
		if g.ID == uuid.Nil {
			fields[gp+".id"] = "is required"
		} else if prev, dup := seen[g.ID]; dup {
			fields[gp+".id"] = "duplicates " + prev
		} else {
			seen[g.ID] = gp
		}

		want := AnswerKindFor(g.Type)
		for qi, q := range g.Questions {
			qp := fmt.Sprintf("%s.questions[%d]", gp, qi)
			if q.ID == uuid.Nil {
				fields[qp+".id"] = "is required"
			} else if prev, dup := seen[q.ID]; dup {
				fields[qp+".id"] = "duplicates " + prev
			} else {
				seen[q.ID] = qp
			}
			if g.Type.UsesOptions() && g.Type != GroupTypeMatching && len(q.Options) == 0 {
				fields[qp+".options"] = "is required for " + string(g.Type)
			}
			if q.Answer.Kind != "" && q.Answer.Kind != want && !q.Answer.IsZero() {
				fields[qp+".correct_answer"] = fmt.Sprintf("must be %s for %s", want, g.Type)
			}
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
