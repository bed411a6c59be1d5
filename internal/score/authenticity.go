package score

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/trustlens/trustlens/internal/llm"
	"github.com/trustlens/trustlens/internal/models"
)

const (
	// DefaultSampleLimit caps how many reviews go to the text analyzer.
	DefaultSampleLimit = 30

	// Adjustment bounds the text-analysis contract promises.
	minAdjustment = -25
	maxAdjustment = 25
)

// Analyzer scores a sample of individual reviews for authenticity, producing
// an adjustment in [-25, 25]. It prefers an LLM-backed analysis and falls
// back to deterministic rules on any failure. The fallback is total: Analyze
// never returns an error.
type Analyzer struct {
	provider    llm.Provider
	sampleLimit int
	timeout     time.Duration
}

// NewAnalyzer creates an analyzer. provider may be nil (no credential
// configured), in which case every call uses the rule-based fallback.
func NewAnalyzer(provider llm.Provider, sampleLimit int, timeout time.Duration) *Analyzer {
	if sampleLimit <= 0 {
		sampleLimit = DefaultSampleLimit
	}
	return &Analyzer{
		provider:    provider,
		sampleLimit: sampleLimit,
		timeout:     timeout,
	}
}

type analysisResult struct {
	Score    float64  `json:"score"`
	Comments []string `json:"comments"`
}

// Analyze returns an authenticity adjustment and explanatory comments for
// the given review sample. An empty sample skips analysis entirely and
// contributes zero. Exactly one of the AI result or the fallback result is
// used; a partial AI result is never blended in.
func (a *Analyzer) Analyze(ctx context.Context, reviews []models.ReviewSample) (int, []string) {
	if len(reviews) == 0 {
		return 0, []string{"No detailed reviews available for analysis"}
	}

	sample := reviews
	if len(sample) > a.sampleLimit {
		sample = sample[:a.sampleLimit]
	}

	if a.provider != nil {
		adjustment, comments, err := a.analyzeWithProvider(ctx, sample)
		if err == nil {
			return adjustment, comments
		}
		log.Warn().Err(err).Str("provider", a.provider.Name()).Msg("Text analysis failed, using rule-based fallback")
	}

	return analyzeFallback(sample)
}

// analyzeWithProvider sends the review texts to the configured provider and
// parses its JSON reply. Timeouts count as failures like any other error.
func (a *Analyzer) analyzeWithProvider(ctx context.Context, reviews []models.ReviewSample) (int, []string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	prompt := buildAnalysisPrompt(reviews)

	opts := llm.DefaultCompletionOptions()
	response, err := a.provider.Complete(ctx, prompt, opts)
	if err != nil {
		return 0, nil, fmt.Errorf("analysis request failed: %w", err)
	}

	result, err := parseAnalysisResponse(response)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to parse analysis response: %w", err)
	}

	adjustment := int(result.Score)
	if adjustment < minAdjustment {
		adjustment = minAdjustment
	}
	if adjustment > maxAdjustment {
		adjustment = maxAdjustment
	}

	return adjustment, result.Comments, nil
}

func buildAnalysisPrompt(reviews []models.ReviewSample) string {
	texts := make([]string, len(reviews))
	for i, r := range reviews {
		texts[i] = r.Text
	}

	return fmt.Sprintf(`Analyze these product reviews for authenticity and provide a score from -25 to +25 based on these criteria:

- Deduct points for repetitive language or phrases
- Deduct points for overly positive and vague reviews
- Add points for detailed product usage descriptions
- Add points for mix of sentiments (3-5 star reviews)
- Add points if reviews seem genuine and detailed

Reviews to analyze:
%s

Respond with JSON format:
{"score": <number between -25 and +25>, "comments": ["comment1", "comment2"]}

Only respond with the JSON object, no other text.`, strings.Join(texts, "\n\n"))
}

func parseAnalysisResponse(response string) (*analysisResult, error) {
	response = strings.TrimSpace(response)

	// Handle markdown code blocks
	if strings.HasPrefix(response, "```") {
		re := regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")
		matches := re.FindStringSubmatch(response)
		if len(matches) > 1 {
			response = matches[1]
		}
	}

	var result analysisResult
	if err := json.Unmarshal([]byte(response), &result); err != nil {
		// Try to find JSON object in response
		start := strings.Index(response, "{")
		end := strings.LastIndex(response, "}")
		if start >= 0 && end > start {
			response = response[start : end+1]
			if err := json.Unmarshal([]byte(response), &result); err != nil {
				return nil, fmt.Errorf("invalid JSON: %w", err)
			}
		} else {
			return nil, fmt.Errorf("no JSON found in response")
		}
	}

	return &result, nil
}

// analyzeFallback applies deterministic authenticity rules: a repetition
// penalty, a detail bonus, and a sample-rating sanity bonus. The sanity rule
// deliberately stays silent when it does not trigger.
func analyzeFallback(reviews []models.ReviewSample) (int, []string) {
	score := 0
	var comments []string

	// Repetition check: near-duplicate texts suggest templated reviews.
	unique := make(map[string]struct{}, len(reviews))
	for _, r := range reviews {
		unique[strings.ToLower(r.Text)] = struct{}{}
	}
	if float64(len(unique)) < float64(len(reviews))*0.8 {
		score -= 10
		comments = append(comments, "Some repetitive review content detected")
	}

	// Detail check: long-form reviews are a positive signal.
	detailed := 0
	for _, r := range reviews {
		if len(r.Text) > 100 {
			detailed++
		}
	}
	if float64(detailed) > float64(len(reviews))*0.6 {
		score += 10
		comments = append(comments, "Many detailed reviews found")
	}

	// Sample-rating sanity check: a perfect-looking sample earns nothing.
	ratingSum := 0
	for _, r := range reviews {
		ratingSum += r.Rating
	}
	if float64(ratingSum)/float64(len(reviews)) < 4.8 {
		score += 5
		comments = append(comments, "Realistic rating distribution in sample")
	}

	return score, comments
}
