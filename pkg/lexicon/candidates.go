package lexicon

import (
	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// Candidates returns every dictionary word that is a prefix of remaining,
// shortest first. The walk follows remaining letter by letter from the root
// and stops at the first letter with no child, so the result never contains a
// word longer than the deepest matched path.
//
// An empty result means no word starts at this point of the input.
func (t *Trie) Candidates(remaining string) []string {
	if remaining == "" {
		return nil
	}

	var layer []string
	err := t.trie.VisitPrefixes(patricia.Prefix(remaining), func(p patricia.Prefix, item patricia.Item) error {
		// p aliases remaining, the slice bounds give the word directly
		layer = append(layer, remaining[:len(p)])
		return nil
	})
	if err != nil {
		log.Errorf("Error visiting trie prefixes: %v", err)
		return nil
	}
	return layer
}
