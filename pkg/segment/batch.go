package segment

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Result pairs one input of a batch with its outcome.
type Result struct {
	Input        string
	Segmentation *Segmentation
	Err          error
}

// SegmentAll runs independent queries concurrently and returns the results
// in input order. A failed query never cancels the others; cancelling ctx
// stops every query still running. workers <= 0 uses GOMAXPROCS.
func (s *Segmenter) SegmentAll(ctx context.Context, inputs []string, workers int) []Result {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	results := make([]Result, len(inputs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, input := range inputs {
		g.Go(func() error {
			res, err := s.Segment(gCtx, input)
			results[i] = Result{
				Input:        input,
				Segmentation: res,
				Err:          err,
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
