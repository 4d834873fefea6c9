package questionset

import (
	"errors"

	"github.com/google/uuid"
)

// Domain errors returned by Apply.
var (
	ErrGroupNotFound    = errors.New("question group not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrNilEdit          = errors.New("edit is required")
)

// Edit is one structural or content change to a Set.
type Edit interface {
	apply(s *Set) error
}

// Apply returns a new set with edit applied and numbering repaired. The input
// set is never modified.
func Apply(s Set, edit Edit) (Set, error) {
	if edit == nil {
		return s, ErrNilEdit
	}
	next := s.Clone()
	if err := edit.apply(&next); err != nil {
		return s, err
	}
	return next.Renumbered(), nil
}

// ApplyAll applies edits in order, stopping at the first failure.
func ApplyAll(s Set, edits ...Edit) (Set, error) {
	cur := s
	for _, e := range edits {
		var err error
		if cur, err = Apply(cur, e); err != nil {
			return s, err
		}
	}
	return cur, nil
}

// AddGroup inserts a group at position At (0-based). A negative At appends.
type AddGroup struct {
	Group Group
	At    int
}

func (e AddGroup) apply(s *Set) error {
	g := e.Group.Clone()
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	for i := range g.Questions {
		if g.Questions[i].ID == uuid.Nil {
			g.Questions[i].ID = uuid.New()
		}
	}
	if g.Questions == nil {
		g.Questions = []Question{}
	}
	s.Groups = insertAt(s.Groups, g, e.At)
	return nil
}

// RemoveGroup deletes a group together with all of its questions.
type RemoveGroup struct {
	GroupID uuid.UUID
}

func (e RemoveGroup) apply(s *Set) error {
	i, ok := s.groupIndex(e.GroupID)
	if !ok {
		return ErrGroupNotFound
	}
	s.Groups = append(s.Groups[:i], s.Groups[i+1:]...)
	return nil
}

// MoveGroup moves a group to position To (0-based, clamped).
type MoveGroup struct {
	GroupID uuid.UUID
	To      int
}

func (e MoveGroup) apply(s *Set) error {
	i, ok := s.groupIndex(e.GroupID)
	if !ok {
		return ErrGroupNotFound
	}
	s.Groups = move(s.Groups, i, e.To)
	return nil
}

// UpdateGroup replaces a group's descriptive fields. Nil fields are left as is.
type UpdateGroup struct {
	GroupID     uuid.UUID
	Instruction *string
	Content     *string
	MediaURL    *string
}

func (e UpdateGroup) apply(s *Set) error {
	i, ok := s.groupIndex(e.GroupID)
	if !ok {
		return ErrGroupNotFound
	}
	g := &s.Groups[i]
	if e.Instruction != nil {
		g.Instruction = *e.Instruction
	}
	if e.Content != nil {
		g.Content = *e.Content
	}
	if e.MediaURL != nil {
		g.MediaURL = *e.MediaURL
	}
	return nil
}

// AddQuestion inserts a question into a group at At (0-based). A negative At appends.
type AddQuestion struct {
	GroupID  uuid.UUID
	Question Question
	At       int
}

func (e AddQuestion) apply(s *Set) error {
	i, ok := s.groupIndex(e.GroupID)
	if !ok {
		return ErrGroupNotFound
	}
	q := e.Question.Clone()
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	s.Groups[i].Questions = insertAt(s.Groups[i].Questions, q, e.At)
	return nil
}

// RemoveQuestion deletes a question; its group is kept even if it becomes empty.
type RemoveQuestion struct {
	QuestionID uuid.UUID
}

func (e RemoveQuestion) apply(s *Set) error {
	gi, qi, ok := s.locateQuestion(e.QuestionID)
	if !ok {
		return ErrQuestionNotFound
	}
	qs := s.Groups[gi].Questions
	s.Groups[gi].Questions = append(qs[:qi], qs[qi+1:]...)
	return nil
}

// MoveQuestion moves a question to position To (0-based, clamped) within its group.
type MoveQuestion struct {
	QuestionID uuid.UUID
	To         int
}

func (e MoveQuestion) apply(s *Set) error {
	gi, qi, ok := s.locateQuestion(e.QuestionID)
	if !ok {
		return ErrQuestionNotFound
	}
	s.Groups[gi].Questions = move(s.Groups[gi].Questions, qi, e.To)
	return nil
}

// UpdateQuestion replaces a question's content fields. Nil fields are left as is.
type UpdateQuestion struct {
	QuestionID  uuid.UUID
	Prompt      *string
	Options     []string
	Answer      *CorrectAnswer
	Explanation *string
}

func (e UpdateQuestion) apply(s *Set) error {
	gi, qi, ok := s.locateQuestion(e.QuestionID)
	if !ok {
		return ErrQuestionNotFound
	}
	q := &s.Groups[gi].Questions[qi]
	if e.Prompt != nil {
		q.Prompt = *e.Prompt
	}
	if e.Options != nil {
		q.Options = append([]string(nil), e.Options...)
	}
	if e.Answer != nil {
		q.Answer = e.Answer.Clone()
	}
	if e.Explanation != nil {
		q.Explanation = *e.Explanation
	}
	return nil
}

func insertAt[T any](list []T, item T, at int) []T {
	if at < 0 || at > len(list) {
		at = len(list)
	}
	list = append(list, item)
	copy(list[at+1:], list[at:])
	list[at] = item
	return list
}

func move[T any](list []T, from, to int) []T {
	if to < 0 {
		to = 0
	}
	if to > len(list)-1 {
		to = len(list) - 1
	}
	if from == to {
		return list
	}
	item := list[from]
	list = append(list[:from], list[from+1:]...)
	return insertAt(list, item, to)
}
