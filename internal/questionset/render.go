package questionset

import (
	"github.com/google/uuid"
)

// RenderedQuestion is a question as presented to a test taker. Answer and
// Explanation are only populated in preview mode.
type RenderedQuestion struct {
	ID          uuid.UUID      `json:"id"`
	Number      int            `json:"question_number"`
	Prompt      string         `json:"prompt,omitempty"`
	Options     []string       `json:"options,omitempty"`
	Value       string         `json:"value,omitempty"`
	Answer      *CorrectAnswer `json:"correct_answer,omitempty"`
	Explanation string         `json:"explanation,omitempty"`
}

// RenderedGroup is a group ready for display. Gap-fill groups carry
// Fragments; the other types carry one entry per question.
type RenderedGroup struct {
	ID          uuid.UUID          `json:"id"`
	Type        GroupType          `json:"group_type"`
	Instruction string             `json:"instruction"`
	MediaURL    string             `json:"media_url,omitempty"`
	OrderIndex  int                `json:"order_index"`
	FirstNumber int                `json:"first_number,omitempty"`
	LastNumber  int                `json:"last_number,omitempty"`
	Fragments   []Fragment         `json:"fragments,omitempty"`
	Questions   []RenderedQuestion `json:"questions"`
}

// RenderOptions controls what Render exposes.
type RenderOptions struct {
	// Preview includes correct answers and explanations.
	Preview bool
}

// Render produces the display form of every group in s. Correct answers and
// explanations are dropped unless opts.Preview is set.
func Render(s Set, answers AnswerLookup, opts RenderOptions) []RenderedGroup {
	out := make([]RenderedGroup, 0, len(s.Groups))
	for _, g := range s.Groups {
		out = append(out, renderGroup(g, answers, opts))
	}
	return out
}

func renderGroup(g Group, answers AnswerLookup, opts RenderOptions) RenderedGroup {
	rg := RenderedGroup{
		ID:          g.ID,
		Type:        g.Type,
		Instruction: g.Instruction,
		MediaURL:    g.MediaURL,
		OrderIndex:  g.OrderIndex,
		Questions:   make([]RenderedQuestion, 0, len(g.Questions)),
	}
	if n := len(g.Questions); n > 0 {
		rg.FirstNumber = g.Questions[0].Number
		rg.LastNumber = g.Questions[n-1].Number
	}
	if g.Type.UsesContent() {
		rg.Fragments = Bind(g.Content, g.Questions, answers)
	}

	for _, q := range g.Questions {
		rq := RenderedQuestion{
			ID:     q.ID,
			Number: q.Number,
			Prompt: q.Prompt,
			Value:  lookup(answers, q.ID),
		}
		if g.Type.UsesOptions() && len(q.Options) > 0 {
			rq.Options = append([]string(nil), q.Options...)
		}
		if opts.Preview {
			a := q.Answer.Clone()
			rq.Answer = &a
			rq.Explanation = q.Explanation
		}
		rg.Questions = append(rg.Questions, rq)
	}
	return rg
}
