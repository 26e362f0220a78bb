package model

import (
	"errors"
	"fmt"

	"github.com/bastiangx/wordsep/pkg/lexicon"
	"github.com/charmbracelet/log"
)

// ErrEmptyCorpus is returned when there are no words to build from.
var ErrEmptyCorpus = errors.New("no words to build a model from")

// Build aggregates a filtered word-count table into the length and letter
// tables and the lexicon trie. Each word contributes count occurrences, and
// every column is normalized to NominalTotal.
//
// The transition matrix is normalized per destination letter: the weight of
// a followed by b is count(a,b) over the count of all pairs ending in b.
func Build(counts map[string]int) (*Model, error) {
	if len(counts) == 0 {
		return nil, ErrEmptyCorpus
	}

	lengths := make(WordLengthTable)
	letters := &LetterStatsTable{}
	trie := lexicon.NewTrie()

	var lengthTotal float64
	for word, count := range counts {
		if count <= 0 {
			continue
		}
		if err := checkWord(word); err != nil {
			return nil, err
		}

		c := float64(count)
		lengths[len(word)] += c
		lengthTotal += c

		first, _ := index(word[0])
		last, _ := index(word[len(word)-1])
		letters.Begins[first] += c
		letters.Ends[last] += c
		for i := 0; i < len(word); i++ {
			cur, _ := index(word[i])
			letters.Counts[cur] += c
			if i+1 < len(word) {
				next, _ := index(word[i+1])
				letters.Transitions[cur][next] += c
			}
		}

		trie.Insert(word, count)
	}

	if trie.Len() == 0 {
		return nil, ErrEmptyCorpus
	}
	trie.Freeze()

	for n, c := range lengths {
		lengths[n] = c / lengthTotal * NominalTotal
	}
	normalize(letters.Counts[:])
	normalize(letters.Begins[:])
	normalize(letters.Ends[:])
	for to := 0; to < AlphabetSize; to++ {
		var sum float64
		for from := 0; from < AlphabetSize; from++ {
			sum += letters.Transitions[from][to]
		}
		if sum == 0 {
			continue
		}
		for from := 0; from < AlphabetSize; from++ {
			letters.Transitions[from][to] = letters.Transitions[from][to] / sum * NominalTotal
		}
	}

	log.Debugf("Built model: %d words, %d lengths, %d letters", trie.Len(), len(lengths), len(letters.Letters()))

	return &Model{
		Lengths: lengths,
		Letters: letters,
		Trie:    trie,
	}, nil
}

func checkWord(word string) error {
	if word == "" {
		return fmt.Errorf("empty word in count table")
	}
	for i := 0; i < len(word); i++ {
		if _, ok := index(word[i]); !ok {
			return fmt.Errorf("word %q has non-lowercase letter %q at %d", word, word[i], i)
		}
	}
	return nil
}

func normalize(column []float64) {
	var sum float64
	for _, v := range column {
		sum += v
	}
	if sum == 0 {
		return
	}
	for i := range column {
		column[i] = column[i] / sum * NominalTotal
	}
}
