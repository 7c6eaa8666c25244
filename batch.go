package absa

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// BatchItem is one example with its attention output.
type BatchItem struct {
	Example   Example
	Output    AttentionOutput
	Alignment Alignment
}

// RecognizeBatch runs recognizer over items with at most workers goroutines
// (runtime.NumCPU() when workers <= 0). Results keep the input order. The
// first failure cancels the remaining work and is returned with its index.
func RecognizeBatch(ctx context.Context, recognizer PatternRecognizer, items []BatchItem, workers int) ([][]Pattern, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([][]Pattern, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, item := range items {
		if gctx.Err() != nil {
			break
		}
		i, item := i, item
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			patterns, err := recognizer.Recognize(item.Example, item.Output, item.Alignment)
			if err != nil {
				return fmt.Errorf("example %d: %w", i, err)
			}
			results[i] = patterns
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
