// Package models defines the core data structures used throughout the application.
package models

import (
	"time"
)

// ReviewSample represents a single scraped user review.
type ReviewSample struct {
	Text               string `json:"text"`
	Rating             int    `json:"rating"`
	IsVerifiedPurchase bool   `json:"is_verified_purchase"`
	DateText           string `json:"date_text,omitempty"`
	HelpfulVotes       int    `json:"helpful_votes,omitempty"`
}

// ReviewProfile contains the aggregate review facts for one product listing.
// It is assembled by an external scraper and consumed once per scoring call.
type ReviewProfile struct {
	TotalReviewCount           int             `json:"total_review_count"`
	AverageRating              float64         `json:"average_rating"`
	VerifiedPurchasePercentage float64         `json:"verified_purchase_percentage"`
	RatingDistribution         map[int]float64 `json:"rating_distribution"`
	ReviewTimestampCount       int             `json:"review_timestamp_count"`
	ReviewSample               []ReviewSample  `json:"review_sample"`
}

// ScoreBreakdown explains how a trust score was computed. Comments are
// ordered: statistics rule comments first, then authenticity comments.
type ScoreBreakdown struct {
	ReviewStatsScore    int      `json:"review_stats_score"`
	ReviewAnalysisScore int      `json:"review_analysis_score"`
	Comments            []string `json:"comments"`
}

// TrustScore is the engine output: a 0-100 score with its breakdown.
type TrustScore struct {
	TrustScore int            `json:"trust_score"`
	Breakdown  ScoreBreakdown `json:"breakdown"`
}

// UnscoredValue marks a ranked entry whose product was never scored. It is
// numerically below every valid score, so unscored entries sort last with no
// special casing in the comparator.
const UnscoredValue = -1

// RankedEntry pairs a product with its score for ranking.
type RankedEntry struct {
	ProductID        string `json:"product_id"`
	Score            int    `json:"score"`
	OriginalPosition int    `json:"original_position"`
}

// ScoreResult is a persisted scoring outcome.
type ScoreResult struct {
	ID                  string    `json:"id"`
	ProductID           string    `json:"product_id"`
	ProfileHash         string    `json:"profile_hash"`
	TrustScore          int       `json:"trust_score"`
	ReviewStatsScore    int       `json:"review_stats_score"`
	ReviewAnalysisScore int       `json:"review_analysis_score"`
	Comments            []string  `json:"comments"`
	ProcessingTimeMs    int64     `json:"processing_time_ms"`
	CreatedAt           time.Time `json:"created_at"`
}

// ScoreRequest is the request body for the single-product scoring endpoint.
type ScoreRequest struct {
	ProductID string        `json:"product_id"`
	Profile   ReviewProfile `json:"profile"`
}

// ScoreResponse is the API response for a scoring request.
type ScoreResponse struct {
	ID          string         `json:"id"`
	ProductID   string         `json:"product_id"`
	ProfileHash string         `json:"profile_hash"`
	TrustScore  int            `json:"trust_score"`
	Breakdown   ScoreBreakdown `json:"breakdown"`
	Cached      bool           `json:"cached,omitempty"`
}

// BatchScoreRequest is the request body for batch scoring.
type BatchScoreRequest struct {
	Products []ScoreRequest `json:"products"`
	Rank     bool           `json:"rank,omitempty"`
}

// BatchScoreResponse contains per-product results and, when ranking was
// requested and enabled, the ranked order.
type BatchScoreResponse struct {
	Results []ScoreResponse `json:"results"`
	Ranking []RankedEntry   `json:"ranking,omitempty"`
}

// APIKey represents an API key for authentication.
type APIKey struct {
	ID                string     `json:"id"`
	KeyHash           string     `json:"-"` // Never expose
	Name              string     `json:"name"`
	RequestsPerMinute int        `json:"requests_per_minute"`
	CreatedAt         time.Time  `json:"created_at"`
	LastUsedAt        *time.Time `json:"last_used_at,omitempty"`
}

// AuditLog represents an API request audit entry.
type AuditLog struct {
	ID           string    `json:"id"`
	APIKeyID     string    `json:"api_key_id"`
	Endpoint     string    `json:"endpoint"`
	Method       string    `json:"method"`
	RequestSize  int64     `json:"request_size"`
	ResponseCode int       `json:"response_code"`
	DurationMs   int64     `json:"duration_ms"`
	Timestamp    time.Time `json:"timestamp"`
}
