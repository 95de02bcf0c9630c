package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/arenalab/promptarena/internal"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS prompt_sessions (
		id TEXT PRIMARY KEY,
		prompt_text TEXT NOT NULL,
		user_id TEXT,
		domain TEXT,
		safety_level TEXT,
		selected_models TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS model_responses (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		model_id TEXT NOT NULL,
		provider TEXT NOT NULL,
		response_text TEXT,
		latency_ms INTEGER,
		input_tokens INTEGER,
		output_tokens INTEGER,
		token_count INTEGER,
		cost REAL,
		status TEXT NOT NULL,
		error_kind TEXT,
		error_detail TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(session_id, model_id),
		FOREIGN KEY (session_id) REFERENCES prompt_sessions(id)
	);

	CREATE TABLE IF NOT EXISTS evaluation_results (
		id TEXT PRIMARY KEY,
		response_id TEXT NOT NULL,
		model_id TEXT NOT NULL,
		accuracy REAL,
		relevance REAL,
		clarity REAL,
		coherence REAL,
		hallucination_risk REAL,
		trust_score REAL,
		rank INTEGER,
		is_best BOOLEAN DEFAULT FALSE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(response_id),
		FOREIGN KEY (response_id) REFERENCES model_responses(id)
	);

	CREATE TABLE IF NOT EXISTS feedback (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		response_id TEXT,
		rating INTEGER,
		was_helpful BOOLEAN,
		was_accurate BOOLEAN,
		comment TEXT,
		preferred_model TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (session_id) REFERENCES prompt_sessions(id)
	);

	CREATE INDEX IF NOT EXISTS idx_responses_session ON model_responses(session_id);
	CREATE INDEX IF NOT EXISTS idx_evaluations_response ON evaluation_results(response_id);
	CREATE INDEX IF NOT EXISTS idx_feedback_session ON feedback(session_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) SaveSession(ctx context.Context, session internal.PromptSession) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO prompt_sessions (id, prompt_text, user_id, domain, safety_level, selected_models, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.PromptText, session.UserID, session.Domain, string(session.SafetyLevel),
		strings.Join(session.SelectedModels, ","), string(session.Status), session.CreatedAt)
	return err
}

func (s *Store) UpdateSessionStatus(ctx context.Context, sessionID string, status internal.SessionStatus) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE prompt_sessions SET status = ? WHERE id = ?`,
		string(status), sessionID)
	return err
}

// UpdateSessionClassification fills in domain and safety once the
// classifier has run. The session row itself is written at submission,
// before classification resolves.
func (s *Store) UpdateSessionClassification(ctx context.Context, sessionID, domain string, safety internal.SafetyLevel) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE prompt_sessions SET domain = ?, safety_level = ? WHERE id = ?`,
		domain, string(safety), sessionID)
	return err
}

// SaveResponse persists one model response. Writing the same
// session_id+model_id pair twice is a no-op, so the write is safely
// retryable.
func (s *Store) SaveResponse(ctx context.Context, resp internal.ModelResponse) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO model_responses (id, session_id, model_id, provider, response_text, latency_ms, input_tokens, output_tokens, token_count, cost, status, error_kind, error_detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		resp.ID, resp.SessionID, resp.ModelID, resp.Provider, resp.ResponseText,
		resp.Latency.Milliseconds(), resp.InputTokens, resp.OutputTokens, resp.TokenCount,
		resp.Cost, string(resp.Status), resp.ErrorKind, resp.ErrorDetail, resp.CreatedAt)
	return err
}

// SaveEvaluation persists one evaluation. At most one evaluation per
// response is kept; duplicate writes are no-ops.
func (s *Store) SaveEvaluation(ctx context.Context, eval internal.EvaluationResult) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO evaluation_results (id, response_id, model_id, accuracy, relevance, clarity, coherence, hallucination_risk, trust_score, rank, is_best)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		eval.ID, eval.ResponseID, eval.ModelID, eval.Accuracy, eval.Relevance, eval.Clarity,
		eval.Coherence, eval.HallucinationRisk, eval.TrustScore, eval.Rank, eval.IsBest)
	return err
}

func (s *Store) SaveFeedback(ctx context.Context, fb internal.Feedback) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO feedback (id, session_id, response_id, rating, was_helpful, was_accurate, comment, preferred_model, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fb.ID, fb.SessionID, fb.ResponseID, fb.Rating, fb.WasHelpful, fb.WasAccurate,
		fb.Comment, fb.PreferredModel, fb.CreatedAt)
	return err
}

func (s *Store) GetSession(ctx context.Context, sessionID string) (*internal.PromptSession, error) {
	var session internal.PromptSession
	var models, status, safety string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, prompt_text, COALESCE(user_id, ''), COALESCE(domain, ''), COALESCE(safety_level, ''), selected_models, status, created_at
		 FROM prompt_sessions WHERE id = ?`, sessionID).Scan(
		&session.ID, &session.PromptText, &session.UserID, &session.Domain, &safety,
		&models, &status, &session.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}
	if err != nil {
		return nil, err
	}
	session.SafetyLevel = internal.SafetyLevel(safety)
	session.Status = internal.SessionStatus(status)
	if models != "" {
		session.SelectedModels = strings.Split(models, ",")
	}
	return &session, nil
}

// ListSessions returns the most recent sessions, newest first.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]internal.PromptSession, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, prompt_text, COALESCE(user_id, ''), COALESCE(domain, ''), COALESCE(safety_level, ''), selected_models, status, created_at
		 FROM prompt_sessions ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []internal.PromptSession
	for rows.Next() {
		var session internal.PromptSession
		var models, status, safety string
		if err := rows.Scan(&session.ID, &session.PromptText, &session.UserID, &session.Domain,
			&safety, &models, &status, &session.CreatedAt); err != nil {
			return nil, err
		}
		session.SafetyLevel = internal.SafetyLevel(safety)
		session.Status = internal.SessionStatus(status)
		if models != "" {
			session.SelectedModels = strings.Split(models, ",")
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (s *Store) GetResponses(ctx context.Context, sessionID string) ([]internal.ModelResponse, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, model_id, provider, COALESCE(response_text, ''), latency_ms, input_tokens, output_tokens, token_count, cost, status, COALESCE(error_kind, ''), COALESCE(error_detail, ''), created_at
		 FROM model_responses WHERE session_id = ? ORDER BY model_id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var responses []internal.ModelResponse
	for rows.Next() {
		var resp internal.ModelResponse
		var latencyMs int64
		var status string
		if err := rows.Scan(&resp.ID, &resp.SessionID, &resp.ModelID, &resp.Provider,
			&resp.ResponseText, &latencyMs, &resp.InputTokens, &resp.OutputTokens,
			&resp.TokenCount, &resp.Cost, &status, &resp.ErrorKind, &resp.ErrorDetail,
			&resp.CreatedAt); err != nil {
			return nil, err
		}
		resp.Latency = time.Duration(latencyMs) * time.Millisecond
		resp.Status = internal.ResponseStatus(status)
		responses = append(responses, resp)
	}
	return responses, rows.Err()
}

func (s *Store) GetEvaluations(ctx context.Context, sessionID string) ([]internal.EvaluationResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT e.id, e.response_id, e.model_id, e.accuracy, e.relevance, e.clarity, e.coherence, e.hallucination_risk, e.trust_score, e.rank, e.is_best
		 FROM evaluation_results e
		 JOIN model_responses r ON r.id = e.response_id
		 WHERE r.session_id = ? ORDER BY e.rank`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var evaluations []internal.EvaluationResult
	for rows.Next() {
		var eval internal.EvaluationResult
		if err := rows.Scan(&eval.ID, &eval.ResponseID, &eval.ModelID, &eval.Accuracy,
			&eval.Relevance, &eval.Clarity, &eval.Coherence, &eval.HallucinationRisk,
			&eval.TrustScore, &eval.Rank, &eval.IsBest); err != nil {
			return nil, err
		}
		evaluations = append(evaluations, eval)
	}
	return evaluations, rows.Err()
}

// SessionStats summarises stored sessions.
type SessionStats struct {
	TotalSessions    int
	CompleteSessions int
	FailedSessions   int
	TotalResponses   int
	TotalCost        float64
}

func (s *Store) Stats(ctx context.Context) (*SessionStats, error) {
	stats := &SessionStats{}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'complete' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0)
		FROM prompt_sessions`).Scan(
		&stats.TotalSessions,
		&stats.CompleteSessions,
		&stats.FailedSessions,
	)
	if err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(cost), 0) FROM model_responses`).Scan(
		&stats.TotalResponses, &stats.TotalCost)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// ClearSessions removes every stored session along with its responses,
// evaluations and feedback. Returns the number of sessions removed.
func (s *Store) ClearSessions(ctx context.Context) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	for _, table := range []string{"evaluation_results", "model_responses", "feedback"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return 0, err
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM prompt_sessions`)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, tx.Commit()
}

func (s *Store) Close() error {
	return s.db.Close()
}
