package pipeline

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/arenalab/promptarena/internal"
	"github.com/arenalab/promptarena/internal/classifier"
	"github.com/arenalab/promptarena/internal/evaluator"
	"github.com/arenalab/promptarena/internal/orchestrator"
	"github.com/arenalab/promptarena/internal/provider"
	"github.com/arenalab/promptarena/internal/ranking"
	"github.com/arenalab/promptarena/internal/store"
)

const (
	minPromptLen = 10
	maxPromptLen = 4000
)

// SubmitRequest is one prompt comparison request.
type SubmitRequest struct {
	Prompt  string
	Models  []string
	UserID  string
	Options provider.Options
}

// Pipeline runs a prompt through classification, fan-out, evaluation and
// ranking, persisting each stage as it resolves. The store may be nil, in
// which case nothing is persisted.
type Pipeline struct {
	classifier   *classifier.Classifier
	orchestrator *orchestrator.Orchestrator
	evaluator    *evaluator.Evaluator
	store        *store.Store
}

func New(cls *classifier.Classifier, orch *orchestrator.Orchestrator, eval *evaluator.Evaluator, st *store.Store) *Pipeline {
	return &Pipeline{
		classifier:   cls,
		orchestrator: orch,
		evaluator:    eval,
		store:        st,
	}
}

// Submit validates and runs one comparison. Validation and unknown-model
// failures abort before any provider call; per-model provider failures are
// folded into the outcome as error responses. Partial success is a normal
// result, not an error.
func (p *Pipeline) Submit(ctx context.Context, req SubmitRequest) (*internal.ComparisonOutcome, error) {
	prompt := NormalizePrompt(req.Prompt)
	if err := validate(prompt, req.Models, req.Options); err != nil {
		return nil, err
	}

	session := internal.PromptSession{
		ID:             uuid.New().String(),
		PromptText:     prompt,
		UserID:         req.UserID,
		SelectedModels: req.Models,
		Status:         internal.SessionPending,
		CreatedAt:      time.Now().UTC(),
	}

	// The pending session row is written before any provider call so the
	// per-response writes that follow always have a session to hang off.
	p.persistSession(ctx, session)

	// Classification only needs the prompt, so it runs alongside the
	// provider fan-out.
	var classification internal.DomainClassification
	var responses []internal.ModelResponse

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		classification = p.classifier.Classify(prompt)
		return nil
	})
	g.Go(func() error {
		var err error
		responses, err = p.orchestrator.Compare(gctx, session.ID, prompt, req.Models, req.Options)
		return err
	})
	if err := g.Wait(); err != nil {
		p.updateStatus(ctx, session.ID, internal.SessionFailed)
		return nil, err
	}

	session.Domain = classification.Domain
	session.SafetyLevel = classification.SafetyLevel
	p.persistClassification(ctx, session.ID, classification)

	var evaluations []internal.EvaluationResult
	for _, resp := range responses {
		p.persistResponse(ctx, resp)
		if eval := p.evaluator.Evaluate(prompt, resp); eval != nil {
			evaluations = append(evaluations, *eval)
		}
	}

	comparison, err := ranking.Aggregate(session, responses, evaluations, &classification)
	if err != nil {
		p.updateStatus(ctx, session.ID, internal.SessionFailed)
		return nil, err
	}

	for _, eval := range evaluations {
		p.persistEvaluation(ctx, eval)
	}

	session.Status = sessionStatus(responses)
	p.updateStatus(ctx, session.ID, session.Status)

	return &internal.ComparisonOutcome{
		Session:        session,
		Classification: classification,
		Responses:      responses,
		Evaluations:    evaluations,
		Comparison:     comparison,
	}, nil
}

// NormalizePrompt collapses runs of whitespace and applies Unicode NFC so
// validation and similarity scoring see a canonical form.
func NormalizePrompt(text string) string {
	return strings.Join(strings.Fields(norm.NFC.String(text)), " ")
}

func validate(prompt string, models []string, opts provider.Options) error {
	length := len([]rune(prompt))
	if length < minPromptLen {
		return &internal.ValidationError{Field: "prompt_text", Reason: "prompt must be at least 10 characters"}
	}
	if length > maxPromptLen {
		return &internal.ValidationError{Field: "prompt_text", Reason: "prompt must be at most 4000 characters"}
	}
	if len(models) == 0 {
		return &internal.ValidationError{Field: "models", Reason: "at least one model is required"}
	}
	seen := make(map[string]bool, len(models))
	for _, id := range models {
		if seen[id] {
			return &internal.ValidationError{Field: "models", Reason: "duplicate model id: " + id}
		}
		seen[id] = true
	}
	if opts.Temperature < 0 || opts.Temperature > 2 {
		return &internal.ValidationError{Field: "temperature", Reason: "temperature must be in [0,2]"}
	}
	return nil
}

// sessionStatus derives the final session state from its responses.
func sessionStatus(responses []internal.ModelResponse) internal.SessionStatus {
	succeeded := 0
	for _, resp := range responses {
		if resp.Status == internal.ResponseSuccess {
			succeeded++
		}
	}
	switch {
	case succeeded == 0:
		return internal.SessionFailed
	case succeeded < len(responses):
		return internal.SessionPartial
	default:
		return internal.SessionComplete
	}
}

// Persistence failures are logged, not propagated: each write is
// independently retryable and must not turn a finished comparison into an
// error.

func (p *Pipeline) persistSession(ctx context.Context, session internal.PromptSession) {
	if p.store == nil {
		return
	}
	if err := p.store.SaveSession(ctx, session); err != nil {
		log.Printf("failed to persist session %s: %v", session.ID, err)
	}
}

func (p *Pipeline) persistClassification(ctx context.Context, sessionID string, cls internal.DomainClassification) {
	if p.store == nil {
		return
	}
	if err := p.store.UpdateSessionClassification(ctx, sessionID, cls.Domain, cls.SafetyLevel); err != nil {
		log.Printf("failed to persist classification for session %s: %v", sessionID, err)
	}
}

func (p *Pipeline) persistResponse(ctx context.Context, resp internal.ModelResponse) {
	if p.store == nil {
		return
	}
	if err := p.store.SaveResponse(ctx, resp); err != nil {
		log.Printf("failed to persist response %s: %v", resp.ID, err)
	}
}

func (p *Pipeline) persistEvaluation(ctx context.Context, eval internal.EvaluationResult) {
	if p.store == nil {
		return
	}
	if err := p.store.SaveEvaluation(ctx, eval); err != nil {
		log.Printf("failed to persist evaluation %s: %v", eval.ID, err)
	}
}

func (p *Pipeline) updateStatus(ctx context.Context, sessionID string, status internal.SessionStatus) {
	if p.store == nil {
		return
	}
	if err := p.store.UpdateSessionStatus(ctx, sessionID, status); err != nil {
		log.Printf("failed to update session %s status: %v", sessionID, err)
	}
}
