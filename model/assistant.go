package model

import (
	"github.com/go-playground/validator/v10"
)

// Topic is a coarse FAQ category produced by intent detection.
type Topic string

const (
	TopicPricing   Topic = "pricing"
	TopicTechnical Topic = "technical"
	TopicFeatures  Topic = "features"
	TopicSupport   Topic = "support"
	TopicBusiness  Topic = "business"
	TopicGeneral   Topic = "general"
)

// TopicOrder is the fixed check order used by intent detection and FAQ search.
var TopicOrder = []Topic{TopicPricing, TopicTechnical, TopicFeatures, TopicSupport, TopicBusiness}

func (t Topic) Known() bool {
	if t == TopicGeneral {
		return true
	}
	for _, o := range TopicOrder {
		if o == t {
			return true
		}
	}
	return false
}

type TechLevel string

const (
	TechBeginner     TechLevel = "beginner"
	TechIntermediate TechLevel = "intermediate"
	TechExpert       TechLevel = "expert"
)

func (l TechLevel) Valid() bool {
	switch l {
	case TechBeginner, TechIntermediate, TechExpert:
		return true
	}
	return false
}

type UserProfile struct {
	TechLevel         TechLevel `json:"tech_level" yaml:"tech_level" validate:"required,oneof=beginner intermediate expert"`
	BusinessType      string    `json:"business_type,omitempty" yaml:"business_type"`
	PreviousQuestions []string  `json:"previous_questions,omitempty" yaml:"previous_questions"`
}

// ChatContext is supplied fresh on every engine call.
type ChatContext struct {
	CurrentStep string         `json:"current_step"`
	UserProfile UserProfile    `json:"user_profile"`
	AppData     map[string]any `json:"app_data,omitempty"`
}

var validate = validator.New()

// Validate checks the struct tags of the context (tech level in particular).
func (c ChatContext) Validate() error {
	return validate.Struct(c)
}

type FollowUpAction struct {
	Label  string `json:"label" yaml:"label" validate:"required"`
	Action string `json:"action" yaml:"action" validate:"required"`
}

type FAQEntry struct {
	Question        string           `json:"question" yaml:"question" validate:"required"`
	Answer          string           `json:"answer" yaml:"answer" validate:"required"`
	FollowUpActions []FollowUpAction `json:"follow_up_actions,omitempty" yaml:"follow_up_actions" validate:"dive"`
}

type TopicFAQ struct {
	Topic   Topic      `json:"topic" yaml:"topic" validate:"required"`
	Entries []FAQEntry `json:"entries" yaml:"entries" validate:"dive"`
}

type FallbackTemplate struct {
	Message string `json:"message" yaml:"message" validate:"required"`
}

// KnowledgeBase is the static FAQ data. Topics and entries are lists so that
// the file order is the iteration order.
type KnowledgeBase struct {
	Topics         []TopicFAQ                     `json:"topics" yaml:"topics" validate:"dive"`
	Fallbacks      map[TechLevel]FallbackTemplate `json:"fallbacks" yaml:"fallbacks" validate:"dive"`
	GenericActions []FollowUpAction               `json:"generic_actions" yaml:"generic_actions" validate:"dive"`
}

func (kb *KnowledgeBase) Validate() error {
	return validate.Struct(kb)
}

// FAQResponse is the result of a FAQ lookup; Fallback marks the tech-level
// generic answer returned when nothing matched.
type FAQResponse struct {
	Question        string           `json:"question"`
	Answer          string           `json:"answer"`
	FollowUpActions []FollowUpAction `json:"follow_up_actions,omitempty"`
	Confidence      float64          `json:"confidence"`
	Fallback        bool             `json:"fallback"`
}

type KeywordResponse struct {
	Keyword  string `json:"keyword" yaml:"keyword" validate:"required"`
	Response string `json:"response" yaml:"response" validate:"required"`
}

type StepResponses struct {
	Step             string            `json:"step" yaml:"step" validate:"required"`
	Greeting         string            `json:"greeting" yaml:"greeting"`
	Tips             []string          `json:"tips" yaml:"tips"`
	Encouragements   []string          `json:"encouragements" yaml:"encouragements"`
	KeywordResponses []KeywordResponse `json:"keyword_responses" yaml:"keyword_responses" validate:"dive"`
}

type StepTable struct {
	Steps []StepResponses `json:"steps" yaml:"steps" validate:"dive"`
}

func (t *StepTable) Validate() error {
	return validate.Struct(t)
}

type IntentDefinition struct {
	ID       Topic    `json:"id" yaml:"id" validate:"required"`
	Triggers []string `json:"triggers" yaml:"triggers" validate:"required,min=1"`
	Enabled  bool     `json:"enabled" yaml:"enabled"`
}

type IntentConfig struct {
	Intents       []IntentDefinition `json:"intents" yaml:"intents" validate:"dive"`
	BonusKeywords []string           `json:"bonus_keywords" yaml:"bonus_keywords"`
}

func (c *IntentConfig) Validate() error {
	return validate.Struct(c)
}
