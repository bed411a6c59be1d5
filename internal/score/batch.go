package score

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/trustlens/trustlens/internal/models"
)

// BatchItem is one product submitted for batch scoring. A nil profile means
// the caller gave up on the product (for example the scrape failed); it is
// reported as unscored and ranks last.
type BatchItem struct {
	ProductID string
	Profile   *models.ReviewProfile
}

// BatchResult pairs a batch item with its outcome. Result is nil for
// unscored items.
type BatchResult struct {
	ProductID        string
	OriginalPosition int
	Result           *models.TrustScore
}

// BatchProcessor scores many products with bounded concurrency and paced
// external calls. The engine itself is freely concurrent; the processor owns
// the operational policy around it.
type BatchProcessor struct {
	engine         *Engine
	maxConcurrent  int
	limiter        *rate.Limiter
	rankingEnabled bool
}

// NewBatchProcessor creates a batch processor. pacingInterval throttles the
// start of consecutive scoring calls to avoid rate-limiting by the external
// text-analysis service; zero disables pacing.
func NewBatchProcessor(engine *Engine, maxConcurrent int, pacingInterval time.Duration, rankingEnabled bool) *BatchProcessor {
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}
	var limiter *rate.Limiter
	if pacingInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(pacingInterval), 1)
	}
	return &BatchProcessor{
		engine:         engine,
		maxConcurrent:  maxConcurrent,
		limiter:        limiter,
		rankingEnabled: rankingEnabled,
	}
}

// RankingEnabled reports whether ranking is switched on for this processor.
func (p *BatchProcessor) RankingEnabled() bool {
	return p.rankingEnabled
}

// Process scores every item and returns results in submission order. A
// product ID appearing more than once is scored once; later occurrences
// share the first result. Process returns only after every item has either
// a score or is marked unscored.
func (p *BatchProcessor) Process(ctx context.Context, items []BatchItem) []BatchResult {
	results := make([]BatchResult, len(items))
	for i, item := range items {
		results[i] = BatchResult{ProductID: item.ProductID, OriginalPosition: i}
	}

	// Dedup: only the first occurrence of each product ID is scored.
	firstIndex := make(map[string]int, len(items))
	var toScore []int
	for i, item := range items {
		if _, seen := firstIndex[item.ProductID]; seen {
			continue
		}
		firstIndex[item.ProductID] = i
		if item.Profile != nil {
			toScore = append(toScore, i)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxConcurrent)

	for _, idx := range toScore {
		idx := idx
		g.Go(func() error {
			if p.limiter != nil {
				if err := p.limiter.Wait(gctx); err != nil {
					// Batch abandoned; the item stays unscored.
					return nil
				}
			}
			ts := p.engine.Score(gctx, items[idx].ProductID, *items[idx].Profile)
			results[idx].Result = &ts
			return nil
		})
	}

	// Workers never return errors; Wait is pure completion detection.
	_ = g.Wait()

	// Propagate scores to duplicate occurrences.
	for i, item := range items {
		if first := firstIndex[item.ProductID]; first != i {
			results[i].Result = results[first].Result
		}
	}

	log.Info().
		Int("items", len(items)).
		Int("scored", len(toScore)).
		Msg("Batch scoring complete")

	return results
}

// ProcessAndRank scores the batch and, when ranking is enabled, returns the
// entries ordered by trust score. Ranking runs strictly after all scoring
// has completed.
func (p *BatchProcessor) ProcessAndRank(ctx context.Context, items []BatchItem) ([]BatchResult, []models.RankedEntry) {
	results := p.Process(ctx, items)
	if !p.rankingEnabled {
		return results, nil
	}

	entries := make([]models.RankedEntry, len(results))
	for i, r := range results {
		score := models.UnscoredValue
		if r.Result != nil {
			score = r.Result.TrustScore
		}
		entries[i] = models.RankedEntry{
			ProductID:        r.ProductID,
			Score:            score,
			OriginalPosition: i,
		}
	}

	return results, Rank(entries)
}
