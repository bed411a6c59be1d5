// Package database provides SQLite implementation of the Store interface.
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/trustlens/trustlens/internal/models"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.Migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// Migrate runs database migrations.
func (s *SQLiteStore) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS score_results (
			id TEXT PRIMARY KEY,
			product_id TEXT NOT NULL,
			profile_hash TEXT NOT NULL,
			trust_score INTEGER NOT NULL,
			review_stats_score INTEGER NOT NULL,
			review_analysis_score INTEGER NOT NULL,
			comments TEXT NOT NULL,
			processing_time_ms INTEGER NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_score_results_hash ON score_results(profile_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_score_results_product ON score_results(product_id)`,
		`CREATE TABLE IF NOT EXISTS api_keys (
			id TEXT PRIMARY KEY,
			key_hash TEXT UNIQUE NOT NULL,
			name TEXT NOT NULL,
			requests_per_minute INTEGER NOT NULL,
			created_at DATETIME NOT NULL,
			last_used_at DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_api_keys_hash ON api_keys(key_hash)`,
		`CREATE TABLE IF NOT EXISTS audit_logs (
			id TEXT PRIMARY KEY,
			api_key_id TEXT NOT NULL,
			endpoint TEXT NOT NULL,
			method TEXT NOT NULL,
			request_size INTEGER NOT NULL,
			response_code INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			timestamp DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_logs(timestamp)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveResult stores a scoring outcome.
func (s *SQLiteStore) SaveResult(ctx context.Context, result *models.ScoreResult) error {
	commentsJSON, _ := json.Marshal(result.Comments)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO score_results (id, product_id, profile_hash, trust_score, review_stats_score,
			review_analysis_score, comments, processing_time_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ID, result.ProductID, result.ProfileHash, result.TrustScore,
		result.ReviewStatsScore, result.ReviewAnalysisScore, string(commentsJSON),
		result.ProcessingTimeMs, result.CreatedAt,
	)
	return err
}

// GetResult retrieves a score result by ID.
func (s *SQLiteStore) GetResult(ctx context.Context, id string) (*models.ScoreResult, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, product_id, profile_hash, trust_score, review_stats_score,
			review_analysis_score, comments, processing_time_ms, created_at
		FROM score_results WHERE id = ?`, id)
	return scanResult(row)
}

// GetResultByProfileHash retrieves the latest score result for a profile hash.
func (s *SQLiteStore) GetResultByProfileHash(ctx context.Context, hash string) (*models.ScoreResult, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, product_id, profile_hash, trust_score, review_stats_score,
			review_analysis_score, comments, processing_time_ms, created_at
		FROM score_results WHERE profile_hash = ? ORDER BY created_at DESC LIMIT 1`, hash)
	return scanResult(row)
}

func scanResult(row *sql.Row) (*models.ScoreResult, error) {
	var result models.ScoreResult
	var commentsJSON string
	err := row.Scan(&result.ID, &result.ProductID, &result.ProfileHash, &result.TrustScore,
		&result.ReviewStatsScore, &result.ReviewAnalysisScore, &commentsJSON,
		&result.ProcessingTimeMs, &result.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	json.Unmarshal([]byte(commentsJSON), &result.Comments)
	return &result, nil
}

// ListResults returns paginated score results.
func (s *SQLiteStore) ListResults(ctx context.Context, limit, offset int) ([]*models.ScoreResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, profile_hash, trust_score, review_stats_score,
			review_analysis_score, comments, processing_time_ms, created_at
		FROM score_results ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*models.ScoreResult
	for rows.Next() {
		var r models.ScoreResult
		var commentsJSON string
		if err := rows.Scan(&r.ID, &r.ProductID, &r.ProfileHash, &r.TrustScore,
			&r.ReviewStatsScore, &r.ReviewAnalysisScore, &commentsJSON,
			&r.ProcessingTimeMs, &r.CreatedAt); err != nil {
			return nil, err
		}
		json.Unmarshal([]byte(commentsJSON), &r.Comments)
		results = append(results, &r)
	}
	return results, rows.Err()
}

// CreateAPIKey stores a new API key.
func (s *SQLiteStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO api_keys (id, key_hash, name, requests_per_minute, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		key.ID, key.KeyHash, key.Name, key.RequestsPerMinute, key.CreatedAt)
	return err
}

// GetAPIKeyByHash retrieves an API key by its hash.
func (s *SQLiteStore) GetAPIKeyByHash(ctx context.Context, hash string) (*models.APIKey, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, key_hash, name, requests_per_minute, created_at, last_used_at
		FROM api_keys WHERE key_hash = ?`, hash)

	var key models.APIKey
	err := row.Scan(&key.ID, &key.KeyHash, &key.Name, &key.RequestsPerMinute,
		&key.CreatedAt, &key.LastUsedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &key, nil
}

// UpdateAPIKeyLastUsed updates the last used timestamp.
func (s *SQLiteStore) UpdateAPIKeyLastUsed(ctx context.Context, id string, t time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE api_keys SET last_used_at = ? WHERE id = ?`, t, id)
	return err
}

// DeleteAPIKey removes an API key.
func (s *SQLiteStore) DeleteAPIKey(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = ?`, id)
	return err
}

// ListAPIKeys returns all API keys.
func (s *SQLiteStore) ListAPIKeys(ctx context.Context) ([]*models.APIKey, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, requests_per_minute, created_at, last_used_at
		FROM api_keys ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.Name, &k.RequestsPerMinute,
			&k.CreatedAt, &k.LastUsedAt); err != nil {
			return nil, err
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

// LogRequest stores an audit log entry.
func (s *SQLiteStore) LogRequest(ctx context.Context, log *models.AuditLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, api_key_id, endpoint, method, request_size, response_code, duration_ms, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		log.ID, log.APIKeyID, log.Endpoint, log.Method, log.RequestSize,
		log.ResponseCode, log.DurationMs, log.Timestamp)
	return err
}

// GetAuditLogs returns paginated audit logs.
func (s *SQLiteStore) GetAuditLogs(ctx context.Context, limit, offset int) ([]*models.AuditLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, api_key_id, endpoint, method, request_size, response_code, duration_ms, timestamp
		FROM audit_logs ORDER BY timestamp DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.AuditLog
	for rows.Next() {
		var l models.AuditLog
		if err := rows.Scan(&l.ID, &l.APIKeyID, &l.Endpoint, &l.Method,
			&l.RequestSize, &l.ResponseCode, &l.DurationMs, &l.Timestamp); err != nil {
			return nil, err
		}
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}
