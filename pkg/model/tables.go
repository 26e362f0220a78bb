// Package model holds the letter and word-length statistics used to score
// candidate words, and the frozen bundle of those tables plus the lexicon trie.
package model

import (
	"sort"

	"github.com/bastiangx/wordsep/pkg/lexicon"
)

// NominalTotal is the value every normalized column sums to.
const NominalTotal = 1000.0

// AlphabetSize is the number of letters tracked, 'a' through 'z'.
const AlphabetSize = 26

// WordLengthTable maps a word length to its share of the corpus.
type WordLengthTable map[int]float64

// Weight returns the weight for length n, or 0 if n never occurred.
func (t WordLengthTable) Weight(n int) float64 {
	return t[n]
}

// Lengths returns the observed lengths in increasing order.
func (t WordLengthTable) Lengths() []int {
	lengths := make([]int, 0, len(t))
	for n := range t {
		lengths = append(lengths, n)
	}
	sort.Ints(lengths)
	return lengths
}

// LetterStatsTable holds per-letter position weights and the letter
// transition matrix. Letters outside 'a'-'z' and unobserved pairs weigh 0.
type LetterStatsTable struct {
	Counts      [AlphabetSize]float64               `msgpack:"count"`
	Begins      [AlphabetSize]float64               `msgpack:"begin"`
	Ends        [AlphabetSize]float64               `msgpack:"end"`
	Transitions [AlphabetSize][AlphabetSize]float64 `msgpack:"trans"`
}

func index(b byte) (int, bool) {
	if b < 'a' || b > 'z' {
		return 0, false
	}
	return int(b - 'a'), true
}

// Count returns the weight of letter b across all positions.
func (t *LetterStatsTable) Count(b byte) float64 {
	if i, ok := index(b); ok {
		return t.Counts[i]
	}
	return 0
}

// Begin returns the weight of b as the first letter of a word.
func (t *LetterStatsTable) Begin(b byte) float64 {
	if i, ok := index(b); ok {
		return t.Begins[i]
	}
	return 0
}

// End returns the weight of b as the last letter of a word.
func (t *LetterStatsTable) End(b byte) float64 {
	if i, ok := index(b); ok {
		return t.Ends[i]
	}
	return 0
}

// Transition returns the weight of from being directly followed by to.
func (t *LetterStatsTable) Transition(from, to byte) float64 {
	i, ok := index(from)
	if !ok {
		return 0
	}
	j, ok := index(to)
	if !ok {
		return 0
	}
	return t.Transitions[i][j]
}

// Letters returns the letters that occurred in training data.
func (t *LetterStatsTable) Letters() []byte {
	var letters []byte
	for i, c := range t.Counts {
		if c > 0 {
			letters = append(letters, byte('a'+i))
		}
	}
	return letters
}

// Model is the frozen bundle consulted during segmentation. It is shared
// read-only by every query.
type Model struct {
	Lengths WordLengthTable
	Letters *LetterStatsTable
	Trie    *lexicon.Trie
}

// New bundles hand-built tables with a trie, freezing the trie. A nil
// lengths or letters table is replaced with an empty one.
func New(lengths WordLengthTable, letters *LetterStatsTable, trie *lexicon.Trie) *Model {
	if lengths == nil {
		lengths = make(WordLengthTable)
	}
	if letters == nil {
		letters = &LetterStatsTable{}
	}
	if trie == nil {
		trie = lexicon.NewTrie()
	}
	trie.Freeze()
	return &Model{
		Lengths: lengths,
		Letters: letters,
		Trie:    trie,
	}
}

// SetBegin sets the word-initial weight of b. Out of range letters are ignored.
func (t *LetterStatsTable) SetBegin(b byte, w float64) {
	if i, ok := index(b); ok {
		t.Begins[i] = w
		t.markSeen(i)
	}
}

// SetEnd sets the word-final weight of b.
func (t *LetterStatsTable) SetEnd(b byte, w float64) {
	if i, ok := index(b); ok {
		t.Ends[i] = w
		t.markSeen(i)
	}
}

// SetTransition sets the weight of from followed by to.
func (t *LetterStatsTable) SetTransition(from, to byte, w float64) {
	i, ok := index(from)
	if !ok {
		return
	}
	j, ok := index(to)
	if !ok {
		return
	}
	t.Transitions[i][j] = w
	t.markSeen(i)
	t.markSeen(j)
}

func (t *LetterStatsTable) markSeen(i int) {
	if t.Counts[i] == 0 {
		t.Counts[i] = 1
	}
}
