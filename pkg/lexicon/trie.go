// Package lexicon holds the word trie used to split concatenated text, and the
// candidate walk that lists every dictionary word starting at a given point of the input.
package lexicon

import (
	"sort"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// Trie is a prefix tree of lowercase words. Every stored word carries the
// number of times it was seen in the training corpus.
//
// A Trie is built once, then frozen. After Freeze, all read methods are safe
// for concurrent use without locking.
type Trie struct {
	trie     *patricia.Trie
	alphabet [256]bool
	words    int
	longest  int
	frozen   atomic.Bool
}

// NewTrie returns an empty, writable trie.
func NewTrie() *Trie {
	return &Trie{
		trie: patricia.NewTrie(),
	}
}

// FromCounts builds and freezes a trie from a word-count table.
func FromCounts(counts map[string]int) *Trie {
	t := NewTrie()
	for word, count := range counts {
		t.Insert(word, count)
	}
	t.Freeze()
	return t
}

// Insert adds a word. Empty words are ignored, and so is every insert after
// Freeze. It reports whether the word was new.
func (t *Trie) Insert(word string, count int) bool {
	if t.frozen.Load() {
		log.Warnf("Ignoring insert of '%s' into a frozen trie", word)
		return false
	}
	if word == "" {
		return false
	}
	if !t.trie.Insert(patricia.Prefix(word), count) {
		t.trie.Set(patricia.Prefix(word), count)
		return false
	}
	for i := 0; i < len(word); i++ {
		t.alphabet[word[i]] = true
	}
	t.words++
	if len(word) > t.longest {
		t.longest = len(word)
	}
	return true
}

// Freeze marks the trie read-only.
func (t *Trie) Freeze() {
	t.frozen.Store(true)
}

// Frozen reports whether Freeze was called.
func (t *Trie) Frozen() bool {
	return t.frozen.Load()
}

// Contains reports whether word is a complete dictionary word.
func (t *Trie) Contains(word string) bool {
	_, ok := t.Count(word)
	return ok
}

// Count returns the corpus count stored for word.
func (t *Trie) Count(word string) (int, bool) {
	if word == "" {
		return 0, false
	}
	item := t.trie.Get(patricia.Prefix(word))
	if item == nil {
		return 0, false
	}
	count, ok := item.(int)
	if !ok {
		log.Errorf("Unknown item type: %T for word %s", item, word)
		return 0, false
	}
	return count, true
}

// Len returns the number of stored words.
func (t *Trie) Len() int {
	return t.words
}

// Longest returns the length of the longest stored word.
func (t *Trie) Longest() int {
	return t.longest
}

// HasLetter reports whether any stored word uses the byte b.
func (t *Trie) HasLetter(b byte) bool {
	return t.alphabet[b]
}

// Alphabet returns the sorted set of letters used by stored words.
func (t *Trie) Alphabet() []byte {
	var letters []byte
	for b, ok := range t.alphabet {
		if ok {
			letters = append(letters, byte(b))
		}
	}
	return letters
}

// Words returns every stored word with its count, sorted alphabetically.
func (t *Trie) Words() ([]string, []int) {
	words := make([]string, 0, t.words)
	err := t.trie.Visit(func(p patricia.Prefix, item patricia.Item) error {
		words = append(words, string(p))
		return nil
	})
	if err != nil {
		log.Errorf("Error visiting trie: %v", err)
	}
	sort.Strings(words)

	counts := make([]int, len(words))
	for i, w := range words {
		counts[i], _ = t.Count(w)
	}
	return words, counts
}
