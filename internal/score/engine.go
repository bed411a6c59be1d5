package score

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/trustlens/trustlens/internal/models"
)

// analysisBase centers the authenticity component. The analyzer adjustment
// in [-25, 25] moves it within [0, 50].
const analysisBase = 25

// maxTrustScore is the hard ceiling on the combined score.
const maxTrustScore = 100

// Engine aggregates the statistics sub-score and the authenticity sub-score
// into a trust score. It holds no mutable state: concurrent calls for
// different profiles need no coordination.
type Engine struct {
	analyzer *Analyzer
}

// NewEngine creates a scoring engine backed by the given analyzer.
func NewEngine(analyzer *Analyzer) *Engine {
	return &Engine{analyzer: analyzer}
}

// Score computes the trust score for one listing. The stats comments come
// first in the breakdown, followed by the authenticity comments, each in
// their rule-evaluation order. productID is used only for diagnostics.
func (e *Engine) Score(ctx context.Context, productID string, profile models.ReviewProfile) models.TrustScore {
	statsScore, statsComments := ScoreStats(profile)

	adjustment, analysisComments := e.analyzer.Analyze(ctx, profile.ReviewSample)
	analysisScore := analysisBase + adjustment

	total := statsScore + analysisScore
	if total > maxTrustScore {
		total = maxTrustScore
	}

	comments := make([]string, 0, len(statsComments)+len(analysisComments))
	comments = append(comments, statsComments...)
	comments = append(comments, analysisComments...)

	log.Debug().
		Str("product_id", productID).
		Int("stats_score", statsScore).
		Int("analysis_score", analysisScore).
		Int("trust_score", total).
		Msg("Trust score computed")

	return models.TrustScore{
		TrustScore: total,
		Breakdown: models.ScoreBreakdown{
			ReviewStatsScore:    statsScore,
			ReviewAnalysisScore: analysisScore,
			Comments:            comments,
		},
	}
}
