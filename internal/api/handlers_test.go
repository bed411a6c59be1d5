package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trustlens/trustlens/internal/models"
	"github.com/trustlens/trustlens/internal/score"
)

// memStore is an in-memory database.Store for handler tests.
type memStore struct {
	mu      sync.Mutex
	results map[string]*models.ScoreResult
	byHash  map[string]*models.ScoreResult
	keys    map[string]*models.APIKey
	audits  []*models.AuditLog
}

func newMemStore() *memStore {
	return &memStore{
		results: make(map[string]*models.ScoreResult),
		byHash:  make(map[string]*models.ScoreResult),
		keys:    make(map[string]*models.APIKey),
	}
}

func (m *memStore) SaveResult(ctx context.Context, result *models.ScoreResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[result.ID] = result
	m.byHash[result.ProfileHash] = result
	return nil
}

func (m *memStore) GetResult(ctx context.Context, id string) (*models.ScoreResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.results[id], nil
}

func (m *memStore) GetResultByProfileHash(ctx context.Context, hash string) (*models.ScoreResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byHash[hash], nil
}

func (m *memStore) ListResults(ctx context.Context, limit, offset int) ([]*models.ScoreResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ScoreResult
	for _, r := range m.results {
		out = append(out, r)
	}
	return out, nil
}

func (m *memStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key.ID] = key
	return nil
}

func (m *memStore) GetAPIKeyByHash(ctx context.Context, hash string) (*models.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range m.keys {
		if k.KeyHash == hash {
			return k, nil
		}
	}
	return nil, nil
}

func (m *memStore) UpdateAPIKeyLastUsed(ctx context.Context, id string, t time.Time) error {
	return nil
}

func (m *memStore) DeleteAPIKey(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, id)
	return nil
}

func (m *memStore) ListAPIKeys(ctx context.Context) ([]*models.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.APIKey
	for _, k := range m.keys {
		out = append(out, k)
	}
	return out, nil
}

func (m *memStore) LogRequest(ctx context.Context, log *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits = append(m.audits, log)
	return nil
}

func (m *memStore) GetAuditLogs(ctx context.Context, limit, offset int) ([]*models.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.audits, nil
}

func (m *memStore) Close() error   { return nil }
func (m *memStore) Migrate() error { return nil }

func newTestRouter(store *memStore) http.Handler {
	analyzer := score.NewAnalyzer(nil, 30, 0)
	engine := score.NewEngine(analyzer)
	batch := score.NewBatchProcessor(engine, 2, 0, true)
	handler := NewHandler(engine, batch, store)

	r := chi.NewRouter()
	r.Post("/score", handler.ScoreProduct)
	r.Post("/score/batch", handler.ScoreBatch)
	r.Get("/results/{id}", handler.GetResult)
	r.Get("/health", handler.HealthCheck)
	return r
}

func scoreBody(t *testing.T, productID string, volume int) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(models.ScoreRequest{
		ProductID: productID,
		Profile: models.ReviewProfile{
			TotalReviewCount:           volume,
			AverageRating:              4.6,
			VerifiedPurchasePercentage: 95,
			RatingDistribution:         map[int]float64{5: 60},
			ReviewTimestampCount:       10,
		},
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestScoreProduct(t *testing.T) {
	router := newTestRouter(newMemStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/score", scoreBody(t, "B000TEST01", 1200)))

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp models.ScoreResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "B000TEST01", resp.ProductID)
	assert.Equal(t, 73, resp.TrustScore)
	assert.Equal(t, 48, resp.Breakdown.ReviewStatsScore)
	assert.Equal(t, 25, resp.Breakdown.ReviewAnalysisScore)
	assert.False(t, resp.Cached)
	assert.NotEmpty(t, resp.ID)
}

func TestScoreProduct_CachedOnIdenticalProfile(t *testing.T) {
	store := newMemStore()
	router := newTestRouter(store)

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest("POST", "/score", scoreBody(t, "B000TEST01", 1200)))
	require.Equal(t, http.StatusCreated, first.Code)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest("POST", "/score", scoreBody(t, "B000TEST01", 1200)))
	require.Equal(t, http.StatusOK, second.Code)

	var resp models.ScoreResponse
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
	assert.True(t, resp.Cached)
	assert.Equal(t, 73, resp.TrustScore)
}

func TestScoreProduct_MissingProductID(t *testing.T) {
	router := newTestRouter(newMemStore())

	body := bytes.NewBufferString(`{"profile": {}}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/score", body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScoreBatch_Ranked(t *testing.T) {
	router := newTestRouter(newMemStore())

	req := models.BatchScoreRequest{
		Products: []models.ScoreRequest{
			{ProductID: "mid", Profile: models.ReviewProfile{TotalReviewCount: 60}},
			{ProductID: "top", Profile: models.ReviewProfile{TotalReviewCount: 1200}},
		},
		Rank: true,
	}
	body, err := json.Marshal(req)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/score/batch", bytes.NewBuffer(body)))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.BatchScoreResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	require.Len(t, resp.Ranking, 2)
	assert.Equal(t, "top", resp.Ranking[0].ProductID)
	assert.Equal(t, "mid", resp.Ranking[1].ProductID)
}

func TestGetResult_NotFound(t *testing.T) {
	router := newTestRouter(newMemStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/results/does-not-exist", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(newMemStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}
