package questionset

import (
	"regexp"
	"strconv"

	"github.com/google/uuid"
)

// tokenPattern matches a [n] placeholder and captures the digit run.
var tokenPattern = regexp.MustCompile(`\[(\d+)\]`)

// FragmentKind identifies how a fragment is rendered.
type FragmentKind string

const (
	FragmentText    FragmentKind = "text"
	FragmentInput   FragmentKind = "input"
	FragmentLabeled FragmentKind = "labeled"
	FragmentBroken  FragmentKind = "broken"
)

// Fragment is one display piece produced by Bind.
type Fragment struct {
	Kind       FragmentKind `json:"kind"`
	Text       string       `json:"text"`
	QuestionID uuid.UUID    `json:"question_id,omitzero"`
	Number     int          `json:"number,omitempty"`
	Value      string       `json:"value,omitempty"`
	Token      string       `json:"token,omitempty"`
}

// AnswerLookup resolves the learner's current value for a question.
type AnswerLookup interface {
	Get(questionID uuid.UUID) (string, bool)
}

// Bind turns content into alternating literal and input fragments, binding
// each [n] token to questions[n-1]. Tokens past the end of questions become
// broken fragments. Literals around tokens are always emitted, even when
// empty, so "[3]" with fewer than three questions yields an empty text, a
// broken fragment and another empty text. Empty content yields one labeled
// input per question. answers may be nil.
func Bind(content string, questions []Question, answers AnswerLookup) []Fragment {
	if content == "" {
		return labeledInputs(questions, answers)
	}

	matches := tokenPattern.FindAllStringSubmatchIndex(content, -1)
	out := make([]Fragment, 0, 2*len(matches)+1)
	last := 0
	for _, m := range matches {
		out = append(out, Fragment{Kind: FragmentText, Text: content[last:m[0]]})
		token := content[m[2]:m[3]]
		out = append(out, bindToken(token, questions, answers))
		last = m[1]
	}
	out = append(out, Fragment{Kind: FragmentText, Text: content[last:]})
	return out
}

func bindToken(token string, questions []Question, answers AnswerLookup) Fragment {
	n, err := strconv.Atoi(token)
	if err != nil || n < 1 || n > len(questions) {
		return Fragment{Kind: FragmentBroken, Token: token}
	}
	q := questions[n-1]
	return Fragment{
		Kind:       FragmentInput,
		QuestionID: q.ID,
		Number:     q.Number,
		Value:      lookup(answers, q.ID),
	}
}

func labeledInputs(questions []Question, answers AnswerLookup) []Fragment {
	out := make([]Fragment, 0, len(questions))
	for _, q := range questions {
		out = append(out, Fragment{
			Kind:       FragmentLabeled,
			QuestionID: q.ID,
			Number:     q.Number,
			Value:      lookup(answers, q.ID),
		})
	}
	return out
}

func lookup(answers AnswerLookup, id uuid.UUID) string {
	if answers == nil {
		return ""
	}
	v, _ := answers.Get(id)
	return v
}

// BrokenTokens returns the digit runs of every [n] token in the group's
// content that does not resolve to one of its questions, in content order.
func BrokenTokens(g Group) []string {
	if !g.Type.UsesContent() || g.Content == "" {
		return nil
	}
	var broken []string
	for _, f := range Bind(g.Content, g.Questions, nil) {
		if f.Kind == FragmentBroken {
			broken = append(broken, f.Token)
		}
	}
	return broken
}
