// Package api provides HTTP API handlers.
package api

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/trustlens/trustlens/internal/database"
	"github.com/trustlens/trustlens/internal/models"
	"github.com/trustlens/trustlens/internal/score"
)

// Handler contains all HTTP handlers.
type Handler struct {
	engine *score.Engine
	batch  *score.BatchProcessor
	store  database.Store
}

// NewHandler creates a new handler.
func NewHandler(engine *score.Engine, batch *score.BatchProcessor, store database.Store) *Handler {
	return &Handler{
		engine: engine,
		batch:  batch,
		store:  store,
	}
}

// HealthCheck returns the service health status.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"version":   "1.0.0",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	writeJSON(w, http.StatusOK, response)
}

// ScoreProduct handles single-product scoring requests. Identical profiles
// hit the stored result instead of re-running the analysis.
func (h *Handler) ScoreProduct(w http.ResponseWriter, r *http.Request) {
	var req models.ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "product_id is required")
		return
	}

	hash, err := profileHash(req.Profile)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid profile")
		return
	}

	// Check for an existing score of the exact same profile
	existing, err := h.store.GetResultByProfileHash(r.Context(), hash)
	if err != nil {
		log.Error().Err(err).Msg("Failed to check for existing result")
	}
	if existing != nil {
		log.Info().Str("id", existing.ID).Str("product_id", req.ProductID).Msg("Returning cached score")
		writeJSON(w, http.StatusOK, resultResponse(existing, true))
		return
	}

	startTime := time.Now()
	ts := h.engine.Score(r.Context(), req.ProductID, req.Profile)

	result := &models.ScoreResult{
		ID:                  uuid.New().String(),
		ProductID:           req.ProductID,
		ProfileHash:         hash,
		TrustScore:          ts.TrustScore,
		ReviewStatsScore:    ts.Breakdown.ReviewStatsScore,
		ReviewAnalysisScore: ts.Breakdown.ReviewAnalysisScore,
		Comments:            ts.Breakdown.Comments,
		ProcessingTimeMs:    time.Since(startTime).Milliseconds(),
		CreatedAt:           time.Now(),
	}

	if err := h.store.SaveResult(r.Context(), result); err != nil {
		log.Error().Err(err).Msg("Failed to save score result")
	}

	log.Info().
		Str("id", result.ID).
		Str("product_id", result.ProductID).
		Int("trust_score", result.TrustScore).
		Int64("duration_ms", result.ProcessingTimeMs).
		Msg("Scoring complete")

	writeJSON(w, http.StatusCreated, resultResponse(result, false))
}

// ScoreBatch handles batch scoring requests, optionally ranking the batch.
func (h *Handler) ScoreBatch(w http.ResponseWriter, r *http.Request) {
	var req models.BatchScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if len(req.Products) == 0 {
		writeError(w, http.StatusBadRequest, "products is required")
		return
	}

	items := make([]score.BatchItem, len(req.Products))
	for i := range req.Products {
		items[i] = score.BatchItem{
			ProductID: req.Products[i].ProductID,
			Profile:   &req.Products[i].Profile,
		}
	}

	var (
		results []score.BatchResult
		ranking []models.RankedEntry
	)
	if req.Rank {
		results, ranking = h.batch.ProcessAndRank(r.Context(), items)
	} else {
		results = h.batch.Process(r.Context(), items)
	}

	response := models.BatchScoreResponse{
		Results: make([]models.ScoreResponse, len(results)),
		Ranking: ranking,
	}
	for i, br := range results {
		sr := models.ScoreResponse{ProductID: br.ProductID}
		if br.Result != nil {
			sr.TrustScore = br.Result.TrustScore
			sr.Breakdown = br.Result.Breakdown
		} else {
			sr.TrustScore = models.UnscoredValue
		}
		response.Results[i] = sr
	}

	writeJSON(w, http.StatusOK, response)
}

// GetResult returns a score result by ID.
func (h *Handler) GetResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "ID is required")
		return
	}

	result, err := h.store.GetResult(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get result")
		writeError(w, http.StatusInternalServerError, "Failed to get result")
		return
	}
	if result == nil {
		writeError(w, http.StatusNotFound, "Result not found")
		return
	}

	writeJSON(w, http.StatusOK, resultResponse(result, false))
}

// ListResults returns paginated score results.
func (h *Handler) ListResults(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	results, err := h.store.ListResults(r.Context(), limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list results")
		writeError(w, http.StatusInternalServerError, "Failed to list results")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"limit":   limit,
		"offset":  offset,
	})
}

// GetAuditLogs returns paginated audit logs.
func (h *Handler) GetAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	logs, err := h.store.GetAuditLogs(r.Context(), limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get audit logs")
		writeError(w, http.StatusInternalServerError, "Failed to get audit logs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"logs":   logs,
		"limit":  limit,
		"offset": offset,
	})
}

// CreateAPIKey creates a new API key.
func (h *Handler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name              string `json:"name"`
		RequestsPerMinute int    `json:"requests_per_minute"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	// Generate random API key
	keyBytes := make([]byte, 32)
	if _, err := rand.Read(keyBytes); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate key")
		return
	}
	rawKey := "tls_" + base64.URLEncoding.EncodeToString(keyBytes)

	// Hash for storage
	hash := sha256.Sum256([]byte(rawKey))
	keyHash := hex.EncodeToString(hash[:])

	if req.RequestsPerMinute <= 0 {
		req.RequestsPerMinute = 60
	}

	apiKey := &models.APIKey{
		ID:                uuid.New().String(),
		KeyHash:           keyHash,
		Name:              req.Name,
		RequestsPerMinute: req.RequestsPerMinute,
		CreatedAt:         time.Now(),
	}

	if err := h.store.CreateAPIKey(r.Context(), apiKey); err != nil {
		log.Error().Err(err).Msg("Failed to create API key")
		writeError(w, http.StatusInternalServerError, "Failed to create API key")
		return
	}

	// Return the raw key only once
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":                  apiKey.ID,
		"key":                 rawKey, // Only returned on creation
		"name":                apiKey.Name,
		"requests_per_minute": apiKey.RequestsPerMinute,
		"created_at":          apiKey.CreatedAt,
	})
}

// ListAPIKeys lists all API keys (without the actual keys).
func (h *Handler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.store.ListAPIKeys(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list API keys")
		writeError(w, http.StatusInternalServerError, "Failed to list API keys")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"keys": keys,
	})
}

// DeleteAPIKey deletes an API key.
func (h *Handler) DeleteAPIKey(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "ID is required")
		return
	}

	if err := h.store.DeleteAPIKey(r.Context(), id); err != nil {
		log.Error().Err(err).Msg("Failed to delete API key")
		writeError(w, http.StatusInternalServerError, "Failed to delete API key")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Helper functions

// profileHash returns a stable hash of the profile's canonical JSON form.
// Map keys serialize in sorted order, so equal profiles hash equally.
func profileHash(profile models.ReviewProfile) (string, error) {
	data, err := json.Marshal(profile)
	if err != nil {
		return "", err
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}

func resultResponse(result *models.ScoreResult, cached bool) models.ScoreResponse {
	return models.ScoreResponse{
		ID:          result.ID,
		ProductID:   result.ProductID,
		ProfileHash: result.ProfileHash,
		TrustScore:  result.TrustScore,
		Breakdown: models.ScoreBreakdown{
			ReviewStatsScore:    result.ReviewStatsScore,
			ReviewAnalysisScore: result.ReviewAnalysisScore,
			Comments:            result.Comments,
		},
		Cached: cached,
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
