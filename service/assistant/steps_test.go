package assistant

import (
	"errors"
	"testing"

	"sid-assistant/model"
)

func testStepTable() *model.StepTable {
	return &model.StepTable{Steps: []model.StepResponses{
		{
			Step:           "template",
			Greeting:       "Choisis ton template",
			Tips:           []string{"tip one", "tip two", "tip three"},
			Encouragements: []string{"bravo", "super"},
			KeywordResponses: []model.KeywordResponse{
				{Keyword: "couleur", Response: "about colours"},
				{Keyword: "Template", Response: "about templates"},
			},
		},
		{Step: "empty"},
	}}
}

func mustStepResponder(t *testing.T, rnd func() float64) *StepResponder {
	t.Helper()
	r, err := newStepResponder(testStepTable(), rnd)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestStepResponder_Respond(t *testing.T) {
	tests := []struct {
		name    string
		step    string
		message string
		rnd     float64
		want    string
	}{
		{"unknown step", "payment", "Comment je paie ?", 0, unknownStepReply},
		{"short message first encouragement", "template", "ok", 0, "bravo"},
		{"short message last encouragement", "template", "merci !", 0.99, "super"},
		{"nine runes with accents", "template", "éééééééé?", 0, "bravo"},
		{"keyword in file order", "template", "Quelle couleur pour mon template ?", 0, "about colours"},
		{"keyword case insensitive", "template", "Comment choisir un TEMPLATE ?", 0, "about templates"},
		{"question without keyword", "template", "Est-ce que c'est rapide ?", 0, unmatchedQuestion},
		{"statement gives tip", "template", "Je regarde les options", 0.5, "tip two"},
		{"statement without question mark ignores keywords", "template", "Je change la couleur", 0, "tip one"},
		{"empty lists use defaults", "empty", "Je regarde les options", 0.5, defaultTip},
		{"empty encouragements use default", "empty", "ok", 0.5, defaultEncouragement},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mustStepResponder(t, func() float64 { return tt.rnd })
			if got := r.Respond(tt.step, tt.message); got != tt.want {
				t.Errorf("Respond(%q, %q) = %q, want %q", tt.step, tt.message, got, tt.want)
			}
		})
	}
}

func TestStepResponder_PickClampsIndex(t *testing.T) {
	r := mustStepResponder(t, func() float64 { return 1.0 })
	if got := r.Respond("template", "ok"); got != "super" {
		t.Errorf("expected last encouragement, got %q", got)
	}
	r = mustStepResponder(t, func() float64 { return -0.5 })
	if got := r.Respond("template", "ok"); got != "bravo" {
		t.Errorf("expected first encouragement, got %q", got)
	}
}

func TestStepResponder_Greeting(t *testing.T) {
	r := mustStepResponder(t, func() float64 { return 0 })
	if g, ok := r.Greeting("template"); !ok || g != "Choisis ton template" {
		t.Errorf("unexpected greeting %q %v", g, ok)
	}
	if _, ok := r.Greeting("empty"); ok {
		t.Error("expected no greeting for a step without one")
	}
	if _, ok := r.Greeting("missing"); ok {
		t.Error("expected no greeting for an unknown step")
	}
}

func TestNewStepResponder_RejectsDuplicateStep(t *testing.T) {
	table := testStepTable()
	table.Steps = append(table.Steps, model.StepResponses{Step: "template", Greeting: "second"})

	if _, err := newStepResponder(table, func() float64 { return 0 }); !errors.Is(err, ErrInvalidStepTable) {
		t.Errorf("expected ErrInvalidStepTable, got %v", err)
	}
}
