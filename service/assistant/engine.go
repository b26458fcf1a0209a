// Package assistant answers wizard users from a static FAQ knowledge base
// and a per-step script. It holds no session state and never mutates the
// data it is built from, so one Engine can serve concurrent callers.
package assistant

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"

	"sid-assistant/model"
)

var (
	ErrInvalidProfile       = errors.New("invalid profile")
	ErrInvalidKnowledgeBase = errors.New("invalid knowledge base")
	ErrInvalidStepTable     = errors.New("invalid step table")
	ErrInvalidIntentConfig  = errors.New("invalid intent config")
)

const (
	// DefaultMatchThreshold is the minimum score for the matcher to accept an entry.
	DefaultMatchThreshold = 0.3
	// DefaultResponseThreshold is the score a match must exceed to be
	// answered from the FAQ instead of the step script.
	DefaultResponseThreshold = 0.7
	// FallbackConfidence is reported on tech-level fallback responses.
	FallbackConfidence = 0.5

	followUpLeadIn = "Je peux aussi t'aider à :"
)

// businessPhrases are rewritten to name the user's business type.
var businessPhrases = []struct{ phrase, prefix string }{
	{"votre entreprise", "votre "},
	{"ton entreprise", "ton "},
	{"your business", "your "},
}

type Option func(*Engine)

func WithMatchThreshold(v float64) Option {
	return func(e *Engine) { e.matchThreshold = v }
}

func WithResponseThreshold(v float64) Option {
	return func(e *Engine) { e.responseThreshold = v }
}

// WithRandom replaces the source used to pick tips and encouragements.
// fn must return values in [0,1).
func WithRandom(fn func() float64) Option {
	return func(e *Engine) { e.rnd = fn }
}

type Engine struct {
	detector          *IntentDetector
	matcher           *Matcher
	steps             *StepResponder
	fallbacks         map[model.TechLevel]model.FallbackTemplate
	genericActions    []model.FollowUpAction
	matchThreshold    float64
	responseThreshold float64
	rnd               func() float64
}

// MatchResult is a FAQ lookup together with the intents that scoped it.
type MatchResult struct {
	Intents  []model.Topic      `json:"intents"`
	Response *model.FAQResponse `json:"response"`
}

func NewEngine(kb *model.KnowledgeBase, table *model.StepTable, intents *model.IntentConfig, opts ...Option) (*Engine, error) {
	if kb == nil || table == nil || intents == nil {
		return nil, errors.New("assistant: knowledge base, step table and intent config are required")
	}

	entries, err := indexKnowledgeBase(kb)
	if err != nil {
		return nil, err
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStepTable, err)
	}
	if err := intents.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIntentConfig, err)
	}
	detector, err := NewIntentDetector(intents.Intents)
	if err != nil {
		return nil, err
	}

	fallbacks := make(map[model.TechLevel]model.FallbackTemplate, len(kb.Fallbacks))
	for level, tmpl := range kb.Fallbacks {
		fallbacks[level] = tmpl
	}

	e := &Engine{
		detector:          detector,
		matcher:           newMatcher(entries, intents.BonusKeywords),
		fallbacks:         fallbacks,
		genericActions:    append([]model.FollowUpAction(nil), kb.GenericActions...),
		matchThreshold:    DefaultMatchThreshold,
		responseThreshold: DefaultResponseThreshold,
		rnd:               rand.Float64,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.matchThreshold <= 0 || e.matchThreshold > 1 || e.responseThreshold <= 0 || e.responseThreshold > 1 {
		return nil, fmt.Errorf("assistant: thresholds must be in (0,1], got match=%.2f response=%.2f",
			e.matchThreshold, e.responseThreshold)
	}
	if e.steps, err = newStepResponder(table, e.rnd); err != nil {
		return nil, err
	}
	return e, nil
}

// indexKnowledgeBase copies the FAQ entries into a per-topic index, keeping
// file order, and checks that every tech level has a fallback.
func indexKnowledgeBase(kb *model.KnowledgeBase) (map[model.Topic][]model.FAQEntry, error) {
	if err := kb.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKnowledgeBase, err)
	}

	entries := make(map[model.Topic][]model.FAQEntry, len(kb.Topics))
	seen := make(map[model.Topic]map[string]bool)
	for _, tf := range kb.Topics {
		if !tf.Topic.Known() {
			return nil, fmt.Errorf("%w: unknown topic %q", ErrInvalidKnowledgeBase, tf.Topic)
		}
		if seen[tf.Topic] == nil {
			seen[tf.Topic] = make(map[string]bool)
		}
		for _, entry := range tf.Entries {
			if strings.TrimSpace(entry.Answer) == "" {
				return nil, fmt.Errorf("%w: empty answer for %q", ErrInvalidKnowledgeBase, entry.Question)
			}
			if seen[tf.Topic][entry.Question] {
				return nil, fmt.Errorf("%w: duplicate question %q in topic %s", ErrInvalidKnowledgeBase, entry.Question, tf.Topic)
			}
			seen[tf.Topic][entry.Question] = true
			entry.FollowUpActions = append([]model.FollowUpAction(nil), entry.FollowUpActions...)
			entries[tf.Topic] = append(entries[tf.Topic], entry)
		}
	}

	for _, level := range []model.TechLevel{model.TechBeginner, model.TechIntermediate, model.TechExpert} {
		if _, ok := kb.Fallbacks[level]; !ok {
			return nil, fmt.Errorf("%w: missing fallback for tech level %s", ErrInvalidKnowledgeBase, level)
		}
	}
	for level := range kb.Fallbacks {
		if !level.Valid() {
			return nil, fmt.Errorf("%w: unknown tech level %q in fallbacks", ErrInvalidKnowledgeBase, level)
		}
	}
	return entries, nil
}

func validateContext(ctx model.ChatContext) error {
	if err := ctx.Validate(); err != nil {
		return fmt.Errorf("%w: tech level %q: %v", ErrInvalidProfile, ctx.UserProfile.TechLevel, err)
	}
	return nil
}

// DetectIntents classifies a question into topics.
func (e *Engine) DetectIntents(question string) []model.Topic {
	return e.detector.Detect(question)
}

// Greeting returns the scripted opening line for a wizard step.
func (e *Engine) Greeting(step string) (string, bool) {
	return e.steps.Greeting(step)
}

// Match runs intent detection and the similarity search. When no entry
// reaches the match threshold the tech-level fallback is returned.
func (e *Engine) Match(question string, ctx model.ChatContext) (*MatchResult, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	intents := e.detector.Detect(question)
	entry, score := e.matcher.Best(question, intents)
	if entry != nil && score >= e.matchThreshold {
		log.Printf("[Engine] matched %q intents=%v confidence=%.2f", entry.Question, intents, score)
		return &MatchResult{
			Intents: intents,
			Response: &model.FAQResponse{
				Question:        entry.Question,
				Answer:          entry.Answer,
				FollowUpActions: append([]model.FollowUpAction(nil), entry.FollowUpActions...),
				Confidence:      score,
			},
		}, nil
	}

	log.Printf("[Engine] no match intents=%v best=%.2f, fallback level=%s", intents, score, ctx.UserProfile.TechLevel)
	return &MatchResult{
		Intents:  intents,
		Response: e.fallback(question, ctx.UserProfile.TechLevel),
	}, nil
}

// FindBestAnswer returns the best FAQ entry for question, or the tech-level
// fallback (Fallback set, confidence 0.5) when nothing matches well enough.
func (e *Engine) FindBestAnswer(question string, ctx model.ChatContext) (*model.FAQResponse, error) {
	res, err := e.Match(question, ctx)
	if err != nil {
		return nil, err
	}
	return res.Response, nil
}

func (e *Engine) fallback(question string, level model.TechLevel) *model.FAQResponse {
	tmpl := e.fallbacks[level]
	return &model.FAQResponse{
		Question:        question,
		Answer:          tmpl.Message,
		FollowUpActions: append([]model.FollowUpAction(nil), e.genericActions...),
		Confidence:      FallbackConfidence,
		Fallback:        true,
	}
}

// GenerateResponse answers from the FAQ when the match is strong enough,
// otherwise from the script of the current wizard step. The reply is never
// empty; the only error is ErrInvalidProfile.
func (e *Engine) GenerateResponse(ctx model.ChatContext, userMessage string) (string, error) {
	resp, err := e.FindBestAnswer(userMessage, ctx)
	if err != nil {
		return "", err
	}

	if !resp.Fallback && resp.Confidence > e.responseThreshold {
		return formatAnswer(resp, ctx.UserProfile.BusinessType), nil
	}
	return e.steps.Respond(ctx.CurrentStep, userMessage), nil
}

func formatAnswer(resp *model.FAQResponse, businessType string) string {
	answer := resp.Answer
	if bt := strings.TrimSpace(businessType); bt != "" {
		for _, p := range businessPhrases {
			answer = strings.ReplaceAll(answer, p.phrase, p.prefix+bt)
		}
	}

	if len(resp.FollowUpActions) == 0 {
		return answer
	}

	var b strings.Builder
	b.WriteString(answer)
	b.WriteString("\n\n")
	b.WriteString(followUpLeadIn)
	for _, a := range resp.FollowUpActions {
		b.WriteString("\n• ")
		b.WriteString(a.Label)
	}
	return b.String()
}
