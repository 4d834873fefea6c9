package model

import (
	"errors"

	"github.com/google/uuid"
	"github.com/ieltsprep/ielts-backend/internal/questionset"
)

// Edit request errors.
var (
	ErrUnknownEditOp   = errors.New("unknown edit operation")
	ErrEditTargetEmpty = errors.New("edit target is required")
)

// QuestionInput is one question in an authoring payload. A missing id means
// the question is new.
type QuestionInput struct {
	ID            *uuid.UUID                `json:"id"`
	Prompt        string                    `json:"prompt" binding:"max=2000"`
	Options       []string                  `json:"options" binding:"omitempty,max=26,dive,max=500"`
	CorrectAnswer questionset.CorrectAnswer `json:"correct_answer"`
	Explanation   string                    `json:"explanation" binding:"max=4000"`
}

// GroupInput is one question group in an authoring payload.
type GroupInput struct {
	ID          *uuid.UUID      `json:"id"`
	GroupType   string          `json:"group_type" binding:"required,group_type"`
	Instruction string          `json:"instruction" binding:"max=2000"`
	Content     string          `json:"content" binding:"max=20000"`
	MediaURL    string          `json:"media_url" binding:"omitempty,max=1024"`
	Questions   []QuestionInput `json:"questions" binding:"max=100,dive"`
}

// ReplaceQuestionSetRequest replaces every group and question of a test.
type ReplaceQuestionSetRequest struct {
	Groups []GroupInput `json:"groups" binding:"max=40,dive"`
}

// EditOp names a single authoring edit.
type EditOp string

const (
	EditAddGroup       EditOp = "add_group"
	EditRemoveGroup    EditOp = "remove_group"
	EditMoveGroup      EditOp = "move_group"
	EditUpdateGroup    EditOp = "update_group"
	EditAddQuestion    EditOp = "add_question"
	EditRemoveQuestion EditOp = "remove_question"
	EditMoveQuestion   EditOp = "move_question"
	EditUpdateQuestion EditOp = "update_question"
)

// EditRequest applies one structural or content edit to a test's question set.
// Position is 0-based; omitted means append for add operations.
type EditRequest struct {
	Op            EditOp                     `json:"op" binding:"required,oneof=add_group remove_group move_group update_group add_question remove_question move_question update_question"`
	GroupID       *uuid.UUID                 `json:"group_id"`
	QuestionID    *uuid.UUID                 `json:"question_id"`
	Position      *int                       `json:"position" binding:"omitempty,min=0"`
	Group         *GroupInput                `json:"group"`
	Question      *QuestionInput             `json:"question"`
	Instruction   *string                    `json:"instruction" binding:"omitempty,max=2000"`
	Content       *string                    `json:"content" binding:"omitempty,max=20000"`
	MediaURL      *string                    `json:"media_url" binding:"omitempty,max=1024"`
	Prompt        *string                    `json:"prompt" binding:"omitempty,max=2000"`
	Options       []string                   `json:"options" binding:"omitempty,max=26,dive,max=500"`
	CorrectAnswer *questionset.CorrectAnswer `json:"correct_answer"`
	Explanation   *string                    `json:"explanation" binding:"omitempty,max=4000"`
}

// EditBatchRequest applies several edits in one transaction.
type EditBatchRequest struct {
	Edits []EditRequest `json:"edits" binding:"required,min=1,max=50,dive"`
}

// ToQuestion converts the input into a domain question.
func (in QuestionInput) ToQuestion() questionset.Question {
	q := questionset.Question{
		Prompt:      in.Prompt,
		Options:     append([]string(nil), in.Options...),
		Answer:      in.CorrectAnswer.Clone(),
		Explanation: in.Explanation,
	}
	if in.ID != nil {
		q.ID = *in.ID
	}
	return q
}

// ToGroup converts the input into a domain group. Missing ids are assigned by
// questionset.Apply or by FillIDs.
func (in GroupInput) ToGroup() questionset.Group {
	g := questionset.Group{
		Type:        questionset.GroupType(in.GroupType),
		Instruction: in.Instruction,
		Content:     in.Content,
		MediaURL:    in.MediaURL,
		Questions:   make([]questionset.Question, 0, len(in.Questions)),
	}
	if in.ID != nil {
		g.ID = *in.ID
	}
	for _, q := range in.Questions {
		g.Questions = append(g.Questions, q.ToQuestion())
	}
	return g
}

// ToSet converts a replace payload into a set for testID, assigning ids to
// new groups and questions.
func (r ReplaceQuestionSetRequest) ToSet(testID uuid.UUID) questionset.Set {
	set := questionset.Set{TestID: testID, Groups: make([]questionset.Group, 0, len(r.Groups))}
	for _, g := range r.Groups {
		group := g.ToGroup()
		if group.ID == uuid.Nil {
			group.ID = uuid.New()
		}
		for i := range group.Questions {
			if group.Questions[i].ID == uuid.Nil {
				group.Questions[i].ID = uuid.New()
			}
		}
		set.Groups = append(set.Groups, group)
	}
	return set
}

// ToEdit converts the request into a questionset edit.
func (r EditRequest) ToEdit() (questionset.Edit, error) {
	at := -1
	to := 0
	if r.Position != nil {
		at = *r.Position
		to = *r.Position
	}

	switch r.Op {
	case EditAddGroup:
		if r.Group == nil {
			return nil, ErrEditTargetEmpty
		}
		return questionset.AddGroup{Group: r.Group.ToGroup(), At: at}, nil
	case EditRemoveGroup:
		if r.GroupID == nil {
			return nil, ErrEditTargetEmpty
		}
		return questionset.RemoveGroup{GroupID: *r.GroupID}, nil
	case EditMoveGroup:
		if r.GroupID == nil || r.Position == nil {
			return nil, ErrEditTargetEmpty
		}
		return questionset.MoveGroup{GroupID: *r.GroupID, To: to}, nil
	case EditUpdateGroup:
		if r.GroupID == nil {
			return nil, ErrEditTargetEmpty
		}
		return questionset.UpdateGroup{
			GroupID:     *r.GroupID,
			Instruction: r.Instruction,
			Content:     r.Content,
			MediaURL:    r.MediaURL,
		}, nil
	case EditAddQuestion:
		if r.GroupID == nil || r.Question == nil {
			return nil, ErrEditTargetEmpty
		}
		return questionset.AddQuestion{GroupID: *r.GroupID, Question: r.Question.ToQuestion(), At: at}, nil
	case EditRemoveQuestion:
		if r.QuestionID == nil {
			return nil, ErrEditTargetEmpty
		}
		return questionset.RemoveQuestion{QuestionID: *r.QuestionID}, nil
	case EditMoveQuestion:
		if r.QuestionID == nil || r.Position == nil {
			return nil, ErrEditTargetEmpty
		}
		return questionset.MoveQuestion{QuestionID: *r.QuestionID, To: to}, nil
	case EditUpdateQuestion:
		if r.QuestionID == nil {
			return nil, ErrEditTargetEmpty
		}
		return questionset.UpdateQuestion{
			QuestionID:  *r.QuestionID,
			Prompt:      r.Prompt,
			Options:     r.Options,
			Answer:      r.CorrectAnswer,
			Explanation: r.Explanation,
		}, nil
	default:
		return nil, ErrUnknownEditOp
	}
}

// QuestionSetView is the admin view of a set with the problems that block publishing.
type QuestionSetView struct {
	Set      questionset.Set       `json:"question_set"`
	Problems []questionset.Problem `json:"problems"`
}

// NewQuestionSetView pairs a set with its problems, never returning nil slices.
func NewQuestionSetView(set questionset.Set) QuestionSetView {
	problems := set.Problems()
	if problems == nil {
		problems = []questionset.Problem{}
	}
	if set.Groups == nil {
		set.Groups = []questionset.Group{}
	}
	return QuestionSetView{Set: set, Problems: problems}
}
