package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/arenalab/promptarena/internal"
	"github.com/arenalab/promptarena/internal/pipeline"
	"github.com/arenalab/promptarena/internal/provider"
	"github.com/arenalab/promptarena/internal/registry"
	"github.com/arenalab/promptarena/internal/store"
)

// Server exposes the comparison pipeline over HTTP.
type Server struct {
	pipeline *pipeline.Pipeline
	registry *registry.Registry
	store    *store.Store
	httpSrv  *http.Server
}

func New(addr string, p *pipeline.Pipeline, reg *registry.Registry, st *store.Store) *Server {
	s := &Server{
		pipeline: p,
		registry: reg,
		store:    st,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/v1/models", s.handleModels)
	mux.HandleFunc("POST /api/v1/prompt/submit", s.handleSubmit)
	mux.HandleFunc("GET /api/v1/sessions", s.handleSessions)
	mux.HandleFunc("GET /api/v1/sessions/{id}", s.handleSession)
	mux.HandleFunc("POST /api/v1/feedback", s.handleFeedback)

	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the route table for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

func (s *Server) ListenAndServe() error {
	log.Printf("listening on %s", s.httpSrv.Addr)
	return s.httpSrv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

type submitRequest struct {
	Prompt      string   `json:"prompt"`
	Models      []string `json:"models"`
	UserID      string   `json:"user_id"`
	MaxTokens   int      `json:"max_tokens"`
	Temperature float64  `json:"temperature"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.List())
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	outcome, err := s.pipeline.Submit(r.Context(), pipeline.SubmitRequest{
		Prompt: req.Prompt,
		Models: req.Models,
		UserID: req.UserID,
		Options: provider.Options{
			MaxTokens:   req.MaxTokens,
			Temperature: req.Temperature,
		},
	})
	if err != nil {
		status, kind := classifySubmitError(err)
		log.Printf("submit rejected: %v", err)
		writeJSON(w, status, errorResponse{Error: err.Error(), Kind: kind})
		return
	}

	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.ListSessions(r.Context(), 50)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if sessions == nil {
		sessions = []internal.PromptSession{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	session, err := s.store.GetSession(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	responses, err := s.store.GetResponses(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	evaluations, err := s.store.GetEvaluations(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session":     session,
		"responses":   responses,
		"evaluations": evaluations,
	})
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var fb internal.Feedback
	if err := decodeJSON(r, &fb); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if fb.SessionID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "session_id is required"})
		return
	}
	if fb.Rating < 1 || fb.Rating > 5 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "rating must be in [1,5]"})
		return
	}

	fb.ID = uuid.New().String()
	fb.CreatedAt = time.Now().UTC()
	if err := s.store.SaveFeedback(r.Context(), fb); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, fb)
}

// classifySubmitError maps pipeline failures to HTTP statuses: bad input
// is the caller's fault, aggregation failures are ours.
func classifySubmitError(err error) (int, string) {
	var ve *internal.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, "ValidationError"
	}
	var ume *internal.UnknownModelError
	if errors.As(err, &ume) {
		return http.StatusBadRequest, "UnknownModel"
	}
	var ae *internal.AggregationError
	if errors.As(err, &ae) {
		return http.StatusInternalServerError, "AggregationError"
	}
	return http.StatusInternalServerError, ""
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}
