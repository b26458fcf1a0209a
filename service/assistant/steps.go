package assistant

import (
	"fmt"
	"strings"

	"sid-assistant/model"
	"sid-assistant/utils"
)

const (
	// Messages shorter than this are treated as acknowledgements.
	shortMessageLen = 10

	unknownStepReply     = "Je suis là pour t'aider ! Pose-moi ta question sur la création de ton app 😊"
	unmatchedQuestion    = "Bonne question ! Donne-moi un peu plus de détails et je t'aide à avancer 💪"
	defaultTip           = "Prends ton temps, chaque détail compte pour ton app ✨"
	defaultEncouragement = "Super, on avance bien ! 👍"
)

// StepResponder answers from the per-step scripted table of the wizard.
type StepResponder struct {
	steps map[string]model.StepResponses
	rnd   func() float64
}

func newStepResponder(table *model.StepTable, rnd func() float64) (*StepResponder, error) {
	steps := make(map[string]model.StepResponses, len(table.Steps))
	for _, s := range table.Steps {
		if _, ok := steps[s.Step]; ok {
			return nil, fmt.Errorf("%w: duplicate step %q", ErrInvalidStepTable, s.Step)
		}
		steps[s.Step] = s
	}
	return &StepResponder{steps: steps, rnd: rnd}, nil
}

// Respond picks the reply for message at step:
//   - unknown step: a fixed generic reply
//   - fewer than 10 characters: a random encouragement
//   - contains '?': the first keyword response whose keyword occurs in the message
//   - otherwise: a random tip
func (r *StepResponder) Respond(step, message string) string {
	s, ok := r.steps[step]
	if !ok {
		return unknownStepReply
	}

	if utils.RuneLen(message) < shortMessageLen {
		return r.pick(s.Encouragements, defaultEncouragement)
	}

	if strings.Contains(message, "?") {
		lower := utils.NormalizeString(message)
		for _, kr := range s.KeywordResponses {
			if strings.Contains(lower, utils.NormalizeString(kr.Keyword)) {
				return kr.Response
			}
		}
		return unmatchedQuestion
	}

	return r.pick(s.Tips, defaultTip)
}

// Greeting returns the opening line configured for a step.
func (r *StepResponder) Greeting(step string) (string, bool) {
	s, ok := r.steps[step]
	if !ok || s.Greeting == "" {
		return "", false
	}
	return s.Greeting, true
}

func (r *StepResponder) pick(list []string, def string) string {
	if len(list) == 0 {
		return def
	}
	idx := int(r.rnd() * float64(len(list)))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(list) {
		idx = len(list) - 1
	}
	return list[idx]
}
