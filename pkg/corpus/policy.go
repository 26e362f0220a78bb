package corpus

import (
	"github.com/charmbracelet/log"
)

// Policy decides which counted words enter the lexicon. Every threshold is
// exclusive: a word must occur more often than the limit to pass.
type Policy struct {
	// MinCount drops words seen this many times or fewer.
	MinCount int
	// SingleLetterWords lists the only one-letter words kept.
	SingleLetterWords []string
	// TwoLetterMinCount drops two-letter words seen this many times or fewer.
	TwoLetterMinCount int
	// ShortWordLength is the length below which ShortWordMinCount applies.
	ShortWordLength int
	// ShortWordMinCount drops words shorter than ShortWordLength seen this
	// many times or fewer.
	ShortWordMinCount int
}

// DefaultPolicy returns the thresholds tuned for English prose.
func DefaultPolicy() Policy {
	return Policy{
		MinCount:          1,
		SingleLetterWords: []string{"a", "i"},
		TwoLetterMinCount: 100,
		ShortWordLength:   5,
		ShortWordMinCount: 15,
	}
}

// Keep reports whether a word with the given count passes every rule.
func (p Policy) Keep(word string, count int) bool {
	if !IsWord(word) || count <= p.MinCount {
		return false
	}
	if len(word) == 1 && !p.singleLetterAllowed(word) {
		return false
	}
	if len(word) == 2 && count <= p.TwoLetterMinCount {
		return false
	}
	if len(word) < p.ShortWordLength && count <= p.ShortWordMinCount {
		return false
	}
	return true
}

func (p Policy) singleLetterAllowed(word string) bool {
	for _, w := range p.SingleLetterWords {
		if w == word {
			return true
		}
	}
	return false
}

// Apply returns the words of counts that pass the policy.
func (p Policy) Apply(counts map[string]int) map[string]int {
	kept := make(map[string]int, len(counts))
	for w, n := range counts {
		if p.Keep(w, n) {
			kept[w] = n
		}
	}
	log.Debugf("Corpus policy kept %d of %d words", len(kept), len(counts))
	return kept
}
