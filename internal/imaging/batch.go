package imaging

import (
	"context"
	"fmt"
	"sync"

	"github.com/docflow/docflow/internal/content"
)

// BatchSize bounds the concurrency of a normalization pass: assets are
// processed in fixed-size batches, concurrent within a batch.
const BatchSize = 5

// Result is the tagged per-asset outcome: Err nil means Asset carries a
// processed blob; otherwise Asset is the original, unprocessed input and
// the caller decides whether to emit a placeholder.
type Result struct {
	Asset content.ImageAsset
	Err   error
}

// NormalizeAll processes assets in batches of BatchSize. If a batch fails
// as a whole, its assets are retried one at a time so a single bad asset
// never loses its siblings. Result order matches input order.
func (n *Normalizer) NormalizeAll(ctx context.Context, assets []content.ImageAsset) []Result {
	results := make([]Result, len(assets))

	for start := 0; start < len(assets); start += BatchSize {
		end := start + BatchSize
		if end > len(assets) {
			end = len(assets)
		}
		batch := assets[start:end]

		if err := ctx.Err(); err != nil {
			for i := range batch {
				results[start+i] = Result{Asset: batch[i], Err: err}
			}
			continue
		}

		if err := n.runBatch(batch, results[start:end]); err != nil {
			n.Log.Warn("image batch failed, retrying assets individually", "error", err)
			for i, asset := range batch {
				results[start+i] = n.normalizeGuarded(asset)
			}
		}
	}
	return results
}

// runBatch normalizes one batch concurrently. A panic inside any worker is
// reported as a batch failure rather than crashing the conversion.
func (n *Normalizer) runBatch(batch []content.ImageAsset, out []Result) error {
	var wg sync.WaitGroup
	panics := make(chan any, len(batch))

	for i, asset := range batch {
		wg.Add(1)
		go func(i int, asset content.ImageAsset) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					panics <- rec
				}
			}()
			processed, err := n.Normalize(asset)
			out[i] = Result{Asset: processed, Err: err}
		}(i, asset)
	}
	wg.Wait()
	close(panics)

	if rec, ok := <-panics; ok {
		return fmt.Errorf("batch worker panic: %v", rec)
	}
	return nil
}

// normalizeGuarded is the individual-asset fallback path.
func (n *Normalizer) normalizeGuarded(asset content.ImageAsset) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			res = Result{Asset: asset, Err: fmt.Errorf("normalize panic: %v", rec)}
		}
	}()
	processed, err := n.Normalize(asset)
	return Result{Asset: processed, Err: err}
}
