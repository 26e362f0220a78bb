package segment

import (
	"context"
	"fmt"

	"github.com/bastiangx/wordsep/pkg/lexicon"
)

// outcome is the result of exploring one node of the segmentation tree.
type outcome int

const (
	// found means the input was rebuilt exactly; the output stack holds the words.
	found outcome = iota
	// deadEnd means no branch below the node reaches the end of the input.
	deadEnd
	// exhausted means a budget ran out before the node was decided.
	exhausted
)

// ctxCheckInterval is how many expansions pass between context checks.
const ctxCheckInterval = 256

// searcher is the working state of one query. The invariant
// concat(output) == input[:offset] holds at every depth: a word is pushed
// before descending and popped after a failed branch.
//
// The tree is explored depth first. Without the dead-end memo a suffix that
// is reachable through several different word sequences is explored again
// every time, which is exponential in the number of overlapping short words.
type searcher struct {
	ctx      context.Context
	input    string
	trie     *lexicon.Trie
	scorer   *Scorer
	output   []string
	failed   map[int]struct{}
	maxDepth int
	maxSteps int
	steps    int
	budget   *BudgetError
}

func newSearcher(ctx context.Context, input string, trie *lexicon.Trie, scorer *Scorer, opts Options) *searcher {
	s := &searcher{
		ctx:      ctx,
		input:    input,
		trie:     trie,
		scorer:   scorer,
		maxDepth: opts.MaxDepth,
		maxSteps: opts.MaxSteps,
	}
	if opts.MemoizeDeadEnds {
		s.failed = make(map[int]struct{})
	}
	return s
}

func (s *searcher) remaining(offset int) string {
	return s.input[offset:]
}

// search explores the node reached after consuming input[:offset]. Success is
// checked before any candidate is generated, and the first successful branch
// in priority order wins.
func (s *searcher) search(offset int) outcome {
	if offset == len(s.input) {
		return found
	}
	if _, ok := s.failed[offset]; ok {
		return deadEnd
	}
	if s.overBudget() {
		return exhausted
	}

	layer := s.trie.Candidates(s.remaining(offset))
	if len(layer) == 0 {
		s.markFailed(offset)
		return deadEnd
	}

	for _, c := range rank(layer, s.scorer) {
		s.output = append(s.output, c.Word)
		switch s.search(offset + len(c.Word)) {
		case found:
			return found
		case exhausted:
			s.output = s.output[:len(s.output)-1]
			return exhausted
		}
		s.output = s.output[:len(s.output)-1]
	}

	s.markFailed(offset)
	return deadEnd
}

func (s *searcher) markFailed(offset int) {
	if s.failed != nil {
		s.failed[offset] = struct{}{}
	}
}

// overBudget counts one expansion and checks every configured limit.
func (s *searcher) overBudget() bool {
	s.steps++
	if s.maxDepth > 0 && len(s.output) >= s.maxDepth {
		s.budget = &BudgetError{Reason: fmt.Sprintf("depth limit %d reached", s.maxDepth), Steps: s.steps}
		return true
	}
	if s.maxSteps > 0 && s.steps > s.maxSteps {
		s.budget = &BudgetError{Reason: fmt.Sprintf("step limit %d reached", s.maxSteps), Steps: s.steps}
		return true
	}
	if s.steps%ctxCheckInterval == 1 {
		if err := s.ctx.Err(); err != nil {
			s.budget = &BudgetError{Reason: err.Error(), Steps: s.steps, Cause: err}
			return true
		}
	}
	return false
}

// run explores from the root and returns the words on success.
func (s *searcher) run() ([]string, error) {
	switch s.search(0) {
	case found:
		words := make([]string, len(s.output))
		copy(words, s.output)
		return words, nil
	case exhausted:
		return nil, s.budget
	default:
		return nil, ErrNoDecomposition
	}
}
