package internal

import (
	"fmt"
	"time"
)

// SessionStatus tracks the lifecycle of a prompt session.
type SessionStatus string

const (
	SessionPending  SessionStatus = "pending"
	SessionPartial  SessionStatus = "partial"
	SessionComplete SessionStatus = "complete"
	SessionFailed   SessionStatus = "failed"
)

// SafetyLevel classifies how carefully a prompt's answers should be treated.
// Levels are ordered: safe < caution < warning < critical.
type SafetyLevel string

const (
	SafetySafe     SafetyLevel = "safe"
	SafetyCaution  SafetyLevel = "caution"
	SafetyWarning  SafetyLevel = "warning"
	SafetyCritical SafetyLevel = "critical"
)

// PromptSession is one submitted prompt together with the models it was
// fanned out to. The prompt text is immutable once the session is created.
type PromptSession struct {
	ID             string        `json:"session_id"`
	PromptText     string        `json:"prompt_text"`
	UserID         string        `json:"user_id,omitempty"`
	Domain         string        `json:"domain"`
	SafetyLevel    SafetyLevel   `json:"safety_level"`
	SelectedModels []string      `json:"selected_models"`
	Status         SessionStatus `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
}

// ResponseStatus marks a model call as succeeded or failed.
type ResponseStatus string

const (
	ResponseSuccess ResponseStatus = "success"
	ResponseError   ResponseStatus = "error"
)

// ModelResponse is the outcome of one provider call within a session,
// success or failure. Never mutated after creation.
type ModelResponse struct {
	ID           string         `json:"response_id"`
	SessionID    string         `json:"session_id"`
	ModelID      string         `json:"model_id"`
	Provider     string         `json:"provider"`
	ResponseText string         `json:"response_text"`
	Latency      time.Duration  `json:"latency"`
	InputTokens  int            `json:"input_tokens"`
	OutputTokens int            `json:"output_tokens"`
	TokenCount   int            `json:"token_count"`
	Cost         float64        `json:"cost"`
	Status       ResponseStatus `json:"status"`
	ErrorKind    string         `json:"error_kind,omitempty"`
	ErrorDetail  string         `json:"error_detail,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// EvaluationResult holds the heuristic quality scores for one successful
// ModelResponse. All scores are bounded [0,100].
type EvaluationResult struct {
	ID                string  `json:"evaluation_id"`
	ResponseID        string  `json:"response_id"`
	ModelID           string  `json:"model_id"`
	Accuracy          float64 `json:"accuracy"`
	Relevance         float64 `json:"relevance"`
	Clarity           float64 `json:"clarity"`
	Coherence         float64 `json:"coherence"`
	HallucinationRisk float64 `json:"hallucination_risk"`
	TrustScore        float64 `json:"trust_score"`
	Rank              int     `json:"rank"`
	IsBest            bool    `json:"is_best"`
}

// DomainClassification labels a prompt's subject domain and safety level.
// Computed from the prompt text alone, before any model responds.
type DomainClassification struct {
	Domain          string      `json:"domain"`
	Confidence      float64     `json:"confidence"`
	IsSensitive     bool        `json:"is_sensitive"`
	SensitiveType   string      `json:"sensitive_type,omitempty"`
	SafetyLevel     SafetyLevel `json:"safety_level"`
	Warnings        []string    `json:"warnings"`
	Recommendations []string    `json:"recommendations"`
}

// FailedModel names a model whose call did not succeed, with the reason.
type FailedModel struct {
	ModelID string `json:"model_id"`
	Kind    string `json:"kind"`
	Detail  string `json:"detail"`
}

// ComparisonResult is the ranked outcome assembled over a session's
// evaluations. When AllFailed is set there are no evaluations, no best
// model, and FailedModels carries every requested model.
type ComparisonResult struct {
	BestModel       string        `json:"best_model,omitempty"`
	BestModelReason string        `json:"best_model_reason,omitempty"`
	BestAnswer      string        `json:"best_answer,omitempty"`
	SafestModel     string        `json:"safest_model,omitempty"`
	AllFailed       bool          `json:"all_failed"`
	FailedModels    []FailedModel `json:"failed_models,omitempty"`
	TotalCost       float64       `json:"total_cost"`
	TotalLatency    time.Duration `json:"total_latency"`
	MaxLatency      time.Duration `json:"max_latency"`
	ProcessingTime  time.Duration `json:"processing_time"`
}

// ComparisonOutcome is the full payload returned by a submit: the session,
// its per-model responses and evaluations, the prompt classification, and
// the ranked comparison.
type ComparisonOutcome struct {
	Session        PromptSession        `json:"session"`
	Classification DomainClassification `json:"classification"`
	Responses      []ModelResponse      `json:"responses"`
	Evaluations    []EvaluationResult   `json:"evaluations"`
	Comparison     ComparisonResult     `json:"comparison"`
}

// Feedback is a user's rating of a session or one of its responses.
type Feedback struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"session_id"`
	ResponseID     string    `json:"response_id,omitempty"`
	Rating         int       `json:"rating"`
	WasHelpful     bool      `json:"was_helpful"`
	WasAccurate    bool      `json:"was_accurate"`
	Comment        string    `json:"comment,omitempty"`
	PreferredModel string    `json:"preferred_model,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ValidationError reports user-correctable bad input. It is raised before
// any provider call is issued.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// UnknownModelError reports a model id the registry cannot resolve.
type UnknownModelError struct {
	ModelID string
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("unknown model: %s", e.ModelID)
}

// AggregationError reports that the ranking step itself could not run.
// This is the only fatal post-flight condition in the pipeline.
type AggregationError struct {
	Reason string
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("aggregation failed: %s", e.Reason)
}
