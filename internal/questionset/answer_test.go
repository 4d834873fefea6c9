package questionset

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/google/uuid"
)

func TestDecodeAnswer(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want CorrectAnswer
	}{
		{"plain text", "river", TextAnswer("river")},
		{"empty", "", TextAnswer("")},
		{"json number stays scalar", "42", TextAnswer("42")},
		{"json bool stays scalar", "true", TextAnswer("true")},
		{"json string stays raw", `"B"`, TextAnswer(`"B"`)},
		{"array", `["A","C"]`, ChoicesAnswer("A", "C")},
		{"mixed array", `["A",2]`, ChoicesAnswer("A", "2")},
		{"object", `{"1":"iii","2":"v"}`, PairsAnswer(map[string]string{"1": "iii", "2": "v"})},
		{"broken json", `[A, C`, TextAnswer(`[A, C`)},
		{"bracketed text", "[1] river", TextAnswer("[1] river")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeAnswer(tt.raw); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DecodeAnswer(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestEncodeAnswer(t *testing.T) {
	tests := []struct {
		name string
		in   CorrectAnswer
		want string
	}{
		{"text", TextAnswer("NOT GIVEN"), "NOT GIVEN"},
		{"choices", ChoicesAnswer("A", "D"), `["A","D"]`},
		{"empty choices", CorrectAnswer{Kind: AnswerChoices}, `[]`},
		{"pairs", PairsAnswer(map[string]string{"a": "1"}), `{"a":"1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.Encode()
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Encode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQuestionJSONAnswerShapes(t *testing.T) {
	raw := `{"id":"` + uuid.NewString() + `","prompt":"p","correct_answer":["A","B"]}`
	var q Question
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		t.Fatal(err)
	}
	if q.Answer.Kind != AnswerChoices || len(q.Answer.Choices) != 2 {
		t.Errorf("answer = %+v, want two choices", q.Answer)
	}

	out, err := json.Marshal(Question{Answer: PairsAnswer(map[string]string{"x": "y"})})
	if err != nil {
		t.Fatal(err)
	}
	var back map[string]any
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatal(err)
	}
	if _, ok := back["correct_answer"].(map[string]any); !ok {
		t.Errorf("pairs answer marshalled as %T", back["correct_answer"])
	}

	if err := json.Unmarshal([]byte(`{"correct_answer":12}`), &q); err == nil {
		t.Error("numeric correct_answer should be rejected")
	}
}

func TestValidate(t *testing.T) {
	good := Set{Groups: []Group{
		{ID: uuid.New(), Type: GroupTypeMultipleChoiceMultiple, Questions: []Question{
			{ID: uuid.New(), Options: []string{"A", "B", "C"}, Answer: ChoicesAnswer("A", "C")},
		}},
		{ID: uuid.New(), Type: GroupTypeMatching, Questions: []Question{
			{ID: uuid.New(), Answer: PairsAnswer(map[string]string{"1": "B"})},
		}},
	}}
	if err := good.Validate(); err != nil {
		t.Errorf("Validate() on good set: %v", err)
	}

	dup := uuid.New()
	bad := Set{Groups: []Group{
		{ID: dup, Type: "ESSAY"},
		{ID: uuid.New(), Type: GroupTypeMultipleChoiceSingle, Questions: []Question{
			{ID: dup, Answer: ChoicesAnswer("A")},
		}},
	}}
	err := bad.Validate()
	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("Validate() error = %v, want *ValidationError", err)
	}
	for _, field := range []string{
		"groups[0].group_type",
		"groups[1].questions[0].id",
		"groups[1].questions[0].options",
		"groups[1].questions[0].correct_answer",
	} {
		if _, ok := ve.Fields[field]; !ok {
			t.Errorf("missing field error %s in %v", field, ve.Fields)
		}
	}
}

func TestProblems(t *testing.T) {
	set := Set{Groups: []Group{
		{ID: uuid.New(), Type: GroupTypeGapFill, Content: "[1] and [4]", Questions: []Question{{ID: uuid.New()}}},
		{ID: uuid.New(), Type: GroupTypeTrueFalseNotGiven},
	}}.Renumbered()

	codes := map[ProblemCode]int{}
	for _, p := range set.Problems() {
		codes[p.Code]++
	}
	want := map[ProblemCode]int{ProblemBrokenToken: 1, ProblemMissingAnswer: 1, ProblemEmptyGroup: 1}
	if !reflect.DeepEqual(codes, want) {
		t.Errorf("problem codes = %v, want %v", codes, want)
	}
}

func TestRenderHidesAnswersOutsidePreview(t *testing.T) {
	set := Set{Groups: []Group{
		{ID: uuid.New(), Type: GroupTypeGapFill, Content: "The [1].", Questions: []Question{
			{ID: uuid.New(), Answer: TextAnswer("river"), Explanation: "para 2"},
		}},
		{ID: uuid.New(), Type: GroupTypeMultipleChoiceSingle, Questions: []Question{
			{ID: uuid.New(), Prompt: "Pick", Options: []string{"A", "B"}, Answer: TextAnswer("A")},
		}},
	}}.Renumbered()

	learner := Render(set, nil, RenderOptions{})
	for _, g := range learner {
		for _, q := range g.Questions {
			if q.Answer != nil || q.Explanation != "" {
				t.Errorf("learner render leaked answer for %s", q.ID)
			}
		}
	}
	if len(learner[0].Fragments) != 3 {
		t.Errorf("gap fill fragments = %d, want 3", len(learner[0].Fragments))
	}
	if learner[1].Fragments != nil {
		t.Error("multiple choice group should not carry fragments")
	}
	if learner[1].FirstNumber != 2 || learner[1].LastNumber != 2 {
		t.Errorf("range = %d-%d, want 2-2", learner[1].FirstNumber, learner[1].LastNumber)
	}

	preview := Render(set, nil, RenderOptions{Preview: true})
	if q := preview[0].Questions[0]; q.Answer == nil || q.Answer.Text != "river" || q.Explanation != "para 2" {
		t.Errorf("preview question = %+v", q)
	}
}
