// Package score implements the trust score engine: review statistics
// scoring, AI-assisted authenticity analysis with a rule-based fallback,
// aggregation into a 0-100 trust score, and result ranking.
package score

import (
	"github.com/trustlens/trustlens/internal/models"
)

// ScoreStats evaluates the aggregate review statistics of a listing and
// returns a 0-50 sub-score with one explanatory comment per rule. The five
// rules are independent and evaluated in a fixed order; within each rule the
// first matching band wins. Zero-valued inputs fall into the lowest band, so
// a partially scraped profile degrades instead of erroring.
func ScoreStats(profile models.ReviewProfile) (int, []string) {
	score := 0
	comments := make([]string, 0, 5)

	// Review volume (10 pts)
	switch {
	case profile.TotalReviewCount >= 1000:
		score += 10
		comments = append(comments, "High number of reviews (1000+)")
	case profile.TotalReviewCount >= 500:
		score += 7
		comments = append(comments, "Good number of reviews (500+)")
	case profile.TotalReviewCount >= 100:
		score += 4
		comments = append(comments, "Moderate number of reviews (100+)")
	case profile.TotalReviewCount >= 50:
		score += 1
		comments = append(comments, "Few reviews (50+)")
	default:
		comments = append(comments, "Very few reviews (<50)")
	}

	// Average rating (10 pts). The 4.5-4.7 window scores highest: ratings
	// above 4.8 correlate with manipulated listings more often than slightly
	// imperfect ones.
	switch {
	case profile.AverageRating >= 4.5 && profile.AverageRating <= 4.7:
		score += 10
		comments = append(comments, "Optimal average rating (4.5-4.7)")
	case profile.AverageRating >= 4.8:
		score += 7
		comments = append(comments, "Very high average rating (4.8+)")
	case profile.AverageRating >= 4.0:
		score += 5
		comments = append(comments, "Good average rating (4.0+)")
	default:
		score += 3
		comments = append(comments, "Lower average rating (<4.0)")
	}

	// Verified purchase ratio (10 pts)
	switch {
	case profile.VerifiedPurchasePercentage >= 90:
		score += 10
		comments = append(comments, "Excellent verified purchase ratio (90%+)")
	case profile.VerifiedPurchasePercentage >= 70:
		score += 5
		comments = append(comments, "Good verified purchase ratio (70-89%)")
	default:
		score += 1
		comments = append(comments, "Low verified purchase ratio (<70%)")
	}

	// Rating distribution (10 pts). A missing 5-star entry counts as 0%.
	if profile.RatingDistribution[5] < 80 {
		score += 10
		comments = append(comments, "Balanced rating distribution")
	} else {
		score += 4
		comments = append(comments, "Skewed toward 5-star reviews")
	}

	// Review recency (8 pts). Only a presence signal: any parsable date
	// markers at all, not actual recency math.
	if profile.ReviewTimestampCount > 0 {
		score += 8
		comments = append(comments, "Reviews spread over time")
	} else {
		comments = append(comments, "No review dates found")
	}

	return score, comments
}
