// Package questionset models a test's ordered question groups and the pure
// transformations over them: renumbering, structural edits and placeholder binding.
package questionset

import (
	"github.com/google/uuid"
)

// GroupType enumerates the rendering/answer shape shared by a group's questions.
type GroupType string

const (
	GroupTypeGapFill                GroupType = "GAP_FILL"
	GroupTypeTrueFalseNotGiven      GroupType = "TRUE_FALSE_NOT_GIVEN"
	GroupTypeYesNoNotGiven          GroupType = "YES_NO_NOT_GIVEN"
	GroupTypeMultipleChoiceSingle   GroupType = "MULTIPLE_CHOICE_SINGLE"
	GroupTypeMultipleChoiceMultiple GroupType = "MULTIPLE_CHOICE_MULTIPLE"
	GroupTypeMatching               GroupType = "MATCHING"
	GroupTypeMapLabeling            GroupType = "MAP_LABELING"
)

// GroupTypes lists every supported group type in display order.
var GroupTypes = []GroupType{
	GroupTypeGapFill,
	GroupTypeTrueFalseNotGiven,
	GroupTypeYesNoNotGiven,
	GroupTypeMultipleChoiceSingle,
	GroupTypeMultipleChoiceMultiple,
	GroupTypeMatching,
	GroupTypeMapLabeling,
}

// Valid reports whether t is one of the known group types.
func (t GroupType) Valid() bool {
	for _, known := range GroupTypes {
		if t == known {
			return true
		}
	}
	return false
}

// UsesOptions reports whether questions of this type carry an option list.
func (t GroupType) UsesOptions() bool {
	switch t {
	case GroupTypeMultipleChoiceSingle, GroupTypeMultipleChoiceMultiple, GroupTypeMatching, GroupTypeMapLabeling:
		return true
	}
	return false
}

// UsesContent reports whether the group's content string is parsed for [n] tokens.
func (t GroupType) UsesContent() bool {
	return t == GroupTypeGapFill
}

// Question is a single numbered item inside a group.
type Question struct {
	ID          uuid.UUID     `json:"id"`
	Number      int           `json:"question_number"`
	Prompt      string        `json:"prompt"`
	Options     []string      `json:"options,omitempty"`
	Answer      CorrectAnswer `json:"correct_answer"`
	Explanation string        `json:"explanation,omitempty"`
}

// Group is an ordered cluster of questions sharing one instruction and type.
type Group struct {
	ID          uuid.UUID  `json:"id"`
	Type        GroupType  `json:"group_type"`
	Instruction string     `json:"instruction"`
	Content     string     `json:"content,omitempty"`
	MediaURL    string     `json:"media_url,omitempty"`
	OrderIndex  int        `json:"order_index"`
	Questions   []Question `json:"questions"`
}

// Set is the full authoring state of one test.
type Set struct {
	TestID uuid.UUID `json:"test_id"`
	Groups []Group   `json:"groups"`
}

// Clone returns a deep copy of the question.
func (q Question) Clone() Question {
	out := q
	if q.Options != nil {
		out.Options = append([]string(nil), q.Options...)
	}
	out.Answer = q.Answer.Clone()
	return out
}

// Clone returns a deep copy of the group and its questions.
func (g Group) Clone() Group {
	out := g
	if g.Questions != nil {
		out.Questions = make([]Question, len(g.Questions))
		for i, q := range g.Questions {
			out.Questions[i] = q.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the set.
func (s Set) Clone() Set {
	out := Set{TestID: s.TestID}
	if s.Groups != nil {
		out.Groups = cloneGroups(s.Groups)
	}
	return out
}

func cloneGroups(groups []Group) []Group {
	out := make([]Group, len(groups))
	for i, g := range groups {
		out[i] = g.Clone()
	}
	return out
}

// QuestionCount returns the number of questions across all groups.
func (s Set) QuestionCount() int {
	n := 0
	for _, g := range s.Groups {
		n += len(g.Questions)
	}
	return n
}

// QuestionIDs returns every question id in display order.
func (s Set) QuestionIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, s.QuestionCount())
	for _, g := range s.Groups {
		for _, q := range g.Questions {
			ids = append(ids, q.ID)
		}
	}
	return ids
}

// HasQuestion reports whether a question with the given id exists in the set.
func (s Set) HasQuestion(id uuid.UUID) bool {
	_, _, ok := s.locateQuestion(id)
	return ok
}

func (s Set) groupIndex(id uuid.UUID) (int, bool) {
	for i, g := range s.Groups {
		if g.ID == id {
			return i, true
		}
	}
	return -1, false
}

func (s Set) locateQuestion(id uuid.UUID) (gi, qi int, ok bool) {
	for i, g := range s.Groups {
		for j, q := range g.Questions {
			if q.ID == id {
				return i, j, true
			}
		}
	}
	return -1, -1, false
}
