package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trustlens/trustlens/internal/models"
)

func TestScoreStats_Bands(t *testing.T) {
	testCases := []struct {
		name            string
		profile         models.ReviewProfile
		expectedScore   int
		expectedComment string
	}{
		{
			name:            "high review volume",
			profile:         models.ReviewProfile{TotalReviewCount: 1500},
			expectedScore:   10 + 3 + 1 + 10 + 0,
			expectedComment: "High number of reviews (1000+)",
		},
		{
			name:            "good review volume",
			profile:         models.ReviewProfile{TotalReviewCount: 500},
			expectedScore:   7 + 3 + 1 + 10 + 0,
			expectedComment: "Good number of reviews (500+)",
		},
		{
			name:            "moderate review volume",
			profile:         models.ReviewProfile{TotalReviewCount: 100},
			expectedScore:   4 + 3 + 1 + 10 + 0,
			expectedComment: "Moderate number of reviews (100+)",
		},
		{
			name:            "few reviews",
			profile:         models.ReviewProfile{TotalReviewCount: 50},
			expectedScore:   1 + 3 + 1 + 10 + 0,
			expectedComment: "Few reviews (50+)",
		},
		{
			name:            "very few reviews",
			profile:         models.ReviewProfile{TotalReviewCount: 12},
			expectedScore:   0 + 3 + 1 + 10 + 0,
			expectedComment: "Very few reviews (<50)",
		},
		{
			name:            "optimal average rating beats very high",
			profile:         models.ReviewProfile{AverageRating: 4.6},
			expectedScore:   0 + 10 + 1 + 10 + 0,
			expectedComment: "Optimal average rating (4.5-4.7)",
		},
		{
			name:            "suspiciously high average rating",
			profile:         models.ReviewProfile{AverageRating: 4.9},
			expectedScore:   0 + 7 + 1 + 10 + 0,
			expectedComment: "Very high average rating (4.8+)",
		},
		{
			name:            "good average rating",
			profile:         models.ReviewProfile{AverageRating: 4.2},
			expectedScore:   0 + 5 + 1 + 10 + 0,
			expectedComment: "Good average rating (4.0+)",
		},
		{
			name:            "low average rating",
			profile:         models.ReviewProfile{AverageRating: 3.1},
			expectedScore:   0 + 3 + 1 + 10 + 0,
			expectedComment: "Lower average rating (<4.0)",
		},
		{
			name:            "excellent verified ratio",
			profile:         models.ReviewProfile{VerifiedPurchasePercentage: 95},
			expectedScore:   0 + 3 + 10 + 10 + 0,
			expectedComment: "Excellent verified purchase ratio (90%+)",
		},
		{
			name:            "good verified ratio",
			profile:         models.ReviewProfile{VerifiedPurchasePercentage: 75},
			expectedScore:   0 + 3 + 5 + 10 + 0,
			expectedComment: "Good verified purchase ratio (70-89%)",
		},
		{
			name:            "skewed distribution",
			profile:         models.ReviewProfile{RatingDistribution: map[int]float64{5: 85}},
			expectedScore:   0 + 3 + 1 + 4 + 0,
			expectedComment: "Skewed toward 5-star reviews",
		},
		{
			name:            "balanced distribution",
			profile:         models.ReviewProfile{RatingDistribution: map[int]float64{5: 60}},
			expectedScore:   0 + 3 + 1 + 10 + 0,
			expectedComment: "Balanced rating distribution",
		},
		{
			name:            "recency signal present",
			profile:         models.ReviewProfile{ReviewTimestampCount: 3},
			expectedScore:   0 + 3 + 1 + 10 + 8,
			expectedComment: "Reviews spread over time",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, comments := ScoreStats(tc.profile)
			assert.Equal(t, tc.expectedScore, got)
			assert.Contains(t, comments, tc.expectedComment)
			// One comment per rule, always.
			assert.Len(t, comments, 5)
		})
	}
}

func TestScoreStats_ZeroProfile(t *testing.T) {
	// A profile with nothing scraped degrades to the lowest bands instead of
	// erroring. Missing 5-star distribution counts as 0%, which looks
	// balanced, and a zero rating falls into the lowest rating band.
	got, comments := ScoreStats(models.ReviewProfile{})

	assert.Equal(t, 0+3+1+10+0, got)
	require.Len(t, comments, 5)
	assert.Equal(t, "Very few reviews (<50)", comments[0])
	assert.Equal(t, "Lower average rating (<4.0)", comments[1])
	assert.Equal(t, "Low verified purchase ratio (<70%)", comments[2])
	assert.Equal(t, "Balanced rating distribution", comments[3])
	assert.Equal(t, "No review dates found", comments[4])
}

func TestScoreStats_MaxScore(t *testing.T) {
	got, _ := ScoreStats(models.ReviewProfile{
		TotalReviewCount:           1200,
		AverageRating:              4.6,
		VerifiedPurchasePercentage: 95,
		RatingDistribution:         map[int]float64{5: 60},
		ReviewTimestampCount:       10,
	})

	// Best band in every rule: 10+10+10+10+8.
	assert.Equal(t, 48, got)
}

func TestScoreStats_VolumeMonotonicity(t *testing.T) {
	volumes := []int{40, 60, 150, 600, 1200}

	prev := -1
	for _, v := range volumes {
		got, _ := ScoreStats(models.ReviewProfile{TotalReviewCount: v})
		assert.GreaterOrEqual(t, got, prev, "score decreased at volume %d", v)
		prev = got
	}
}

func TestScoreStats_CommentOrderFollowsRuleOrder(t *testing.T) {
	_, comments := ScoreStats(models.ReviewProfile{
		TotalReviewCount:           1200,
		AverageRating:              4.6,
		VerifiedPurchasePercentage: 95,
		RatingDistribution:         map[int]float64{5: 60},
		ReviewTimestampCount:       10,
	})

	require.Len(t, comments, 5)
	assert.Equal(t, []string{
		"High number of reviews (1000+)",
		"Optimal average rating (4.5-4.7)",
		"Excellent verified purchase ratio (90%+)",
		"Balanced rating distribution",
		"Reviews spread over time",
	}, comments)
}
