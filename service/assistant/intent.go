package assistant

import (
	"fmt"

	"sid-assistant/model"
	"sid-assistant/utils"
)

// IntentDetector maps a question to the topics whose trigger substrings it
// contains. Matching is plain substring containment on the lowercased
// question, so a trigger embedded in a longer unrelated word still fires.
type IntentDetector struct {
	intentDefs []model.IntentDefinition
}

// NewIntentDetector keeps the enabled definitions and orders them by
// model.TopicOrder. Definitions sharing a topic are merged.
func NewIntentDetector(defs []model.IntentDefinition) (*IntentDetector, error) {
	byTopic := make(map[model.Topic]*model.IntentDefinition)
	for _, d := range defs {
		if !d.Enabled {
			continue
		}
		if !d.ID.Known() || d.ID == model.TopicGeneral {
			return nil, fmt.Errorf("%w: unknown intent %q", ErrInvalidIntentConfig, d.ID)
		}
		triggers := make([]string, 0, len(d.Triggers))
		for _, t := range d.Triggers {
			if t = utils.NormalizeString(t); t != "" {
				triggers = append(triggers, t)
			}
		}
		if existing, ok := byTopic[d.ID]; ok {
			existing.Triggers = append(existing.Triggers, triggers...)
			continue
		}
		byTopic[d.ID] = &model.IntentDefinition{ID: d.ID, Triggers: triggers, Enabled: true}
	}

	enabled := make([]model.IntentDefinition, 0, len(byTopic))
	for _, topic := range model.TopicOrder {
		if d, ok := byTopic[topic]; ok && len(d.Triggers) > 0 {
			enabled = append(enabled, *d)
		}
	}
	return &IntentDetector{intentDefs: enabled}, nil
}

// Detect returns the matched topics in check order, or [general] if none.
func (r *IntentDetector) Detect(question string) []model.Topic {
	q := utils.NormalizeString(question)

	topics := make([]model.Topic, 0, len(r.intentDefs))
	for _, d := range r.intentDefs {
		if utils.ContainsAny(q, d.Triggers) {
			topics = append(topics, d.ID)
		}
	}
	if len(topics) == 0 {
		return []model.Topic{model.TopicGeneral}
	}
	return topics
}
