/*
Package segment splits a run of lowercase letters into dictionary words.

Every point of the input branches into the dictionary words that start there.
Branches are tried best score first and the search backtracks out of dead
ends until the chosen words rebuild the input exactly:

	m, _ := model.LoadFile("model.msgpack")
	seg := segment.New(m, segment.DefaultOptions())
	res, err := seg.Segment(ctx, "hellotherehowareyou")
	// res.String() == "hello there how are you"

A query that cannot be rebuilt returns ErrNoDecomposition, never a partial
result. Searches that run out of steps, depth or time return a *BudgetError
matching ErrUnboundedSearch, so callers can tell a proven failure from one
that was abandoned.

A Segmenter is safe for concurrent use. The model is shared read-only and
every query owns its own scorer memo and search state.
*/
package segment

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bastiangx/wordsep/pkg/model"
	"github.com/charmbracelet/log"
)

// Options bounds the work done by a single query. Zero values disable a limit.
type Options struct {
	MaxDepth        int
	MaxSteps        int
	Timeout         time.Duration
	MemoizeDeadEnds bool
}

// DefaultOptions returns the budgets used when no config overrides them.
func DefaultOptions() Options {
	return Options{
		MaxDepth:        256,
		MaxSteps:        2_000_000,
		Timeout:         5 * time.Second,
		MemoizeDeadEnds: true,
	}
}

// Segmentation is a successful result.
type Segmentation struct {
	Words   []string
	Steps   int
	Scored  int
	Elapsed time.Duration
}

// String joins the words with single spaces.
func (s *Segmentation) String() string {
	return strings.Join(s.Words, " ")
}

// Segmenter runs queries against one frozen model.
type Segmenter struct {
	model *model.Model
	opts  atomic.Pointer[Options]
}

// New returns a segmenter for m. The model's trie must be frozen.
func New(m *model.Model, opts Options) *Segmenter {
	if !m.Trie.Frozen() {
		log.Warn("Segmenter created over a writable trie, freezing it")
		m.Trie.Freeze()
	}
	s := &Segmenter{model: m}
	s.SetOptions(opts)
	return s
}

// Options returns the budgets in effect.
func (s *Segmenter) Options() Options {
	return *s.opts.Load()
}

// SetOptions replaces the budgets for queries started afterwards.
func (s *Segmenter) SetOptions(opts Options) {
	s.opts.Store(&opts)
}

// Model returns the shared model.
func (s *Segmenter) Model() *model.Model {
	return s.model
}

// Validate checks input against the trained alphabet.
func (s *Segmenter) Validate(input string) error {
	if input == "" {
		return ErrEmptyInput
	}
	for i := 0; i < len(input); i++ {
		b := input[i]
		if b < 'a' || b > 'z' || !s.model.Trie.HasLetter(b) {
			return &InputError{Input: input, Pos: i, Char: b}
		}
	}
	return nil
}

// Segment splits input into dictionary words whose concatenation is input.
func (s *Segmenter) Segment(ctx context.Context, input string) (*Segmentation, error) {
	start := time.Now()
	res, steps, err := s.segment(ctx, input)
	elapsed := time.Since(start)
	observe(err, steps, elapsed)

	if err != nil {
		log.Debugf("Segment '%s' failed after %d steps: %v", input, steps, err)
		return nil, err
	}
	res.Elapsed = elapsed
	log.Debugf("Took [ %v ] and %d steps for '%s'", elapsed, steps, input)
	return res, nil
}

func (s *Segmenter) segment(ctx context.Context, input string) (*Segmentation, int, error) {
	if err := s.Validate(input); err != nil {
		return nil, 0, err
	}

	opts := s.Options()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	scorer := NewScorer(s.model)
	srch := newSearcher(ctx, input, s.model.Trie, scorer, opts)
	words, err := srch.run()
	if err != nil {
		return nil, srch.steps, err
	}
	return &Segmentation{
		Words:  words,
		Steps:  srch.steps,
		Scored: scorer.Cached(),
	}, srch.steps, nil
}
