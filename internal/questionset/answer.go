package questionset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// AnswerKind tags which field of a CorrectAnswer is populated.
type AnswerKind string

const (
	AnswerText    AnswerKind = "text"
	AnswerChoices AnswerKind = "choices"
	AnswerPairs   AnswerKind = "pairs"
)

// AnswerKindFor returns the answer shape a group type expects.
func AnswerKindFor(t GroupType) AnswerKind {
	switch t {
	case GroupTypeMultipleChoiceMultiple:
		return AnswerChoices
	case GroupTypeMatching:
		return AnswerPairs
	default:
		return AnswerText
	}
}

// CorrectAnswer is a tagged union: a single string, a list of strings, or a
// key to value mapping, depending on the owning group's type.
type CorrectAnswer struct {
	Kind    AnswerKind
	Text    string
	Choices []string
	Pairs   map[string]string
}

// TextAnswer builds a scalar answer.
func TextAnswer(s string) CorrectAnswer { return CorrectAnswer{Kind: AnswerText, Text: s} }

// ChoicesAnswer builds a multi-select answer.
func ChoicesAnswer(choices ...string) CorrectAnswer {
	return CorrectAnswer{Kind: AnswerChoices, Choices: append([]string{}, choices...)}
}

// PairsAnswer builds a matching answer.
func PairsAnswer(pairs map[string]string) CorrectAnswer {
	out := make(map[string]string, len(pairs))
	for k, v := range pairs {
		out[k] = v
	}
	return CorrectAnswer{Kind: AnswerPairs, Pairs: out}
}

// IsZero reports whether no answer has been provided.
func (a CorrectAnswer) IsZero() bool {
	switch a.Kind {
	case AnswerChoices:
		return len(a.Choices) == 0
	case AnswerPairs:
		return len(a.Pairs) == 0
	default:
		return a.Text == ""
	}
}

// Clone returns a deep copy.
func (a CorrectAnswer) Clone() CorrectAnswer {
	out := CorrectAnswer{Kind: a.Kind, Text: a.Text}
	if a.Choices != nil {
		out.Choices = append([]string{}, a.Choices...)
	}
	if a.Pairs != nil {
		out.Pairs = make(map[string]string, len(a.Pairs))
		for k, v := range a.Pairs {
			out.Pairs[k] = v
		}
	}
	return out
}

// Encode serializes the answer for the correct_answer column: scalars as
// plain text, compound forms as JSON.
func (a CorrectAnswer) Encode() (string, error) {
	switch a.Kind {
	case AnswerChoices:
		b, err := json.Marshal(nonNilStrings(a.Choices))
		if err != nil {
			return "", fmt.Errorf("encode choices: %w", err)
		}
		return string(b), nil
	case AnswerPairs:
		pairs := a.Pairs
		if pairs == nil {
			pairs = map[string]string{}
		}
		b, err := json.Marshal(pairs)
		if err != nil {
			return "", fmt.Errorf("encode pairs: %w", err)
		}
		return string(b), nil
	default:
		return a.Text, nil
	}
}

// DecodeAnswer reads a stored correct_answer value. Text that parses as a
// JSON array or object is the compound form; anything else, including JSON
// scalars like 42 or "x", is kept verbatim as the scalar form.
func DecodeAnswer(raw string) CorrectAnswer {
	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) > 0 {
		switch trimmed[0] {
		case '[':
			var choices []string
			if err := json.Unmarshal(trimmed, &choices); err == nil {
				return CorrectAnswer{Kind: AnswerChoices, Choices: nonNilStrings(choices)}
			}
			var generic []any
			if err := json.Unmarshal(trimmed, &generic); err == nil {
				out := make([]string, len(generic))
				for i, v := range generic {
					out[i] = stringify(v)
				}
				return CorrectAnswer{Kind: AnswerChoices, Choices: out}
			}
		case '{':
			var generic map[string]any
			if err := json.Unmarshal(trimmed, &generic); err == nil {
				pairs := make(map[string]string, len(generic))
				for k, v := range generic {
					pairs[k] = stringify(v)
				}
				return CorrectAnswer{Kind: AnswerPairs, Pairs: pairs}
			}
		}
	}
	return TextAnswer(raw)
}

// MarshalJSON renders the answer in its natural JSON shape.
func (a CorrectAnswer) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AnswerChoices:
		return json.Marshal(nonNilStrings(a.Choices))
	case AnswerPairs:
		if a.Pairs == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(a.Pairs)
	default:
		return json.Marshal(a.Text)
	}
}

// UnmarshalJSON accepts a string, an array of strings or an object.
func (a *CorrectAnswer) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*a = CorrectAnswer{Kind: AnswerText}
		return nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*a = TextAnswer(s)
	case '[':
		var choices []string
		if err := json.Unmarshal(trimmed, &choices); err != nil {
			return err
		}
		*a = CorrectAnswer{Kind: AnswerChoices, Choices: nonNilStrings(choices)}
	case '{':
		var pairs map[string]string
		if err := json.Unmarshal(trimmed, &pairs); err != nil {
			return err
		}
		*a = PairsAnswer(pairs)
	default:
		return errors.New("correct_answer must be a string, an array of strings or an object")
	}
	return nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}
