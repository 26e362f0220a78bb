package segment

import (
	"math"

	"github.com/bastiangx/wordsep/pkg/model"
)

// Score is the integral rank of a candidate word, higher tried first.
// The transition product overflows int64 for long common words, so the
// value is held in a float64 that always carries a whole number.
type Score float64

// Scorer rates words from the model tables and remembers every result for
// the lifetime of one query. It is not safe for concurrent use.
type Scorer struct {
	lengths model.WordLengthTable
	letters *model.LetterStatsTable
	memo    map[string]Score
}

// NewScorer returns a scorer with an empty memo.
func NewScorer(m *model.Model) *Scorer {
	return &Scorer{
		lengths: m.Lengths,
		letters: m.Letters,
		memo:    make(map[string]Score),
	}
}

// Score returns the memoized score of word.
func (s *Scorer) Score(word string) Score {
	if v, ok := s.memo[word]; ok {
		return v
	}
	v := ScoreWord(word, s.letters, s.lengths)
	s.memo[word] = v
	return v
}

// Cached returns how many distinct words have been scored.
func (s *Scorer) Cached() int {
	return len(s.memo)
}

// ScoreWord multiplies the transition weights of every adjacent letter pair
// starting from 1, then adds the begin weight of the first letter, the end
// weight of the last letter and the weight of the word length. A single
// unobserved pair zeroes the product. Halves round to even.
func ScoreWord(word string, letters *model.LetterStatsTable, lengths model.WordLengthTable) Score {
	if word == "" {
		return 0
	}
	acc := 1.0
	for i := 0; i+1 < len(word); i++ {
		w := letters.Transition(word[i], word[i+1])
		if w == 0 {
			acc = 0
			break
		}
		acc *= w
	}
	acc += letters.Begin(word[0]) + letters.End(word[len(word)-1]) + lengths.Weight(len(word))
	if math.IsInf(acc, 1) {
		acc = math.MaxFloat64
	}
	return Score(math.RoundToEven(acc))
}
