package assistant

import (
	"strings"

	"sid-assistant/model"
	"sid-assistant/utils"
)

const (
	// minTokenLen drops tokens of this many characters or fewer.
	minTokenLen = 2
	// KeywordBonus is added once per bonus keyword found in both strings.
	KeywordBonus = 0.2
	maxScore     = 1.0
)

// Similarity scores a user question against a canonical FAQ question:
// Jaccard overlap of the token sets, plus KeywordBonus for every keyword
// that is a substring of both lowercased strings, clamped to 1.
func Similarity(question, candidate string, keywords []string) float64 {
	q := utils.NormalizeString(question)
	c := utils.NormalizeString(candidate)

	qTokens := utils.TokenSet(q, minTokenLen)
	if len(qTokens) == 0 {
		return 0
	}
	cTokens := utils.TokenSet(c, minTokenLen)

	common := 0
	for t := range qTokens {
		if _, ok := cTokens[t]; ok {
			common++
		}
	}
	union := len(qTokens) + len(cTokens) - common
	score := float64(common) / float64(union)

	for _, kw := range keywords {
		if kw != "" && strings.Contains(q, kw) && strings.Contains(c, kw) {
			score += KeywordBonus
		}
	}
	return utils.Min(score, maxScore)
}

// Matcher finds the best canonical question across a set of topics.
type Matcher struct {
	entries  map[model.Topic][]model.FAQEntry
	keywords []string
}

func newMatcher(entries map[model.Topic][]model.FAQEntry, keywords []string) *Matcher {
	kws := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = utils.NormalizeString(kw); kw != "" {
			kws = append(kws, kw)
		}
	}
	return &Matcher{entries: entries, keywords: kws}
}

// Best returns the highest scoring entry. Topics are searched in the given
// order and entries in file order; on equal scores the first one seen wins.
// A nil entry means no candidate scored above zero.
func (m *Matcher) Best(question string, topics []model.Topic) (*model.FAQEntry, float64) {
	var (
		best      *model.FAQEntry
		bestScore float64
	)
	for _, topic := range topics {
		entries := m.entries[topic]
		for i := range entries {
			score := Similarity(question, entries[i].Question, m.keywords)
			if score > bestScore {
				best = &entries[i]
				bestScore = score
			}
		}
	}
	return best, bestScore
}
