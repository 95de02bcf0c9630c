package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arenalab/promptarena/internal"
	"github.com/arenalab/promptarena/internal/classifier"
	"github.com/arenalab/promptarena/internal/evaluator"
	"github.com/arenalab/promptarena/internal/orchestrator"
	"github.com/arenalab/promptarena/internal/provider"
	"github.com/arenalab/promptarena/internal/registry"
	"github.com/arenalab/promptarena/internal/store"
)

type mockInvoker struct {
	invokeFunc func(ctx context.Context, req provider.Request) (*provider.Response, error)
	callCount  atomic.Int32
}

func (m *mockInvoker) Name() string { return "mock" }

func (m *mockInvoker) Invoke(ctx context.Context, req provider.Request) (*provider.Response, error) {
	m.callCount.Add(1)
	return m.invokeFunc(ctx, req)
}

func (m *mockInvoker) IsAvailable(ctx context.Context) error { return nil }

func answer(text string, latency time.Duration) func(ctx context.Context, req provider.Request) (*provider.Response, error) {
	return func(ctx context.Context, req provider.Request) (*provider.Response, error) {
		return &provider.Response{
			Provider:     req.Model.Provider,
			ModelID:      req.Model.ID,
			Text:         text,
			InputTokens:  10,
			OutputTokens: 5,
			TotalTokens:  15,
			Cost:         req.Model.Cost(10, 5),
			Latency:      latency,
		}, nil
	}
}

func timeoutAnswer() func(ctx context.Context, req provider.Request) (*provider.Response, error) {
	return func(ctx context.Context, req provider.Request) (*provider.Response, error) {
		return nil, &provider.Error{Provider: req.Model.Provider, Kind: provider.KindTimeout, Detail: "request timed out"}
	}
}

func newTestPipeline(t *testing.T, invokers map[string]provider.Invoker, withStore bool) (*Pipeline, *store.Store) {
	t.Helper()
	reg := registry.NewWith([]registry.Descriptor{
		{ID: "model-a", Provider: "prov-a", InputCostPer1K: 0.01, OutputCostPer1K: 0.03, DefaultTimeout: 5 * time.Second, Enabled: true},
		{ID: "model-b", Provider: "prov-b", InputCostPer1K: 0.002, OutputCostPer1K: 0.006, DefaultTimeout: 5 * time.Second, Enabled: true},
	})
	orch := orchestrator.New(reg, invokers, orchestrator.OrchestratorConfig{MaxAttempts: 1})

	var st *store.Store
	if withStore {
		var err error
		st, err = store.New(filepath.Join(t.TempDir(), "test.db"))
		if err != nil {
			t.Fatalf("failed to create store: %v", err)
		}
		t.Cleanup(func() { st.Close() })
	}

	return New(classifier.New(), orch, evaluator.New(evaluator.DefaultWeights()), st), st
}

func TestSubmit_BothModelsSucceed(t *testing.T) {
	invokers := map[string]provider.Invoker{
		"prov-a": &mockInvoker{invokeFunc: answer("4", time.Second)},
		"prov-b": &mockInvoker{invokeFunc: answer("The answer is four.", 2*time.Second)},
	}
	p, st := newTestPipeline(t, invokers, true)

	outcome, err := p.Submit(context.Background(), SubmitRequest{
		Prompt: "What is 2+2?",
		Models: []string{"model-a", "model-b"},
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if len(outcome.Responses) != 2 {
		t.Fatalf("responses = %d, want 2", len(outcome.Responses))
	}
	if len(outcome.Evaluations) != 2 {
		t.Fatalf("evaluations = %d, want 2", len(outcome.Evaluations))
	}

	bestCount := 0
	seenRanks := map[int]bool{}
	for _, eval := range outcome.Evaluations {
		if eval.IsBest {
			bestCount++
			if eval.Rank != 1 {
				t.Errorf("is_best on rank %d", eval.Rank)
			}
		}
		seenRanks[eval.Rank] = true
	}
	if bestCount != 1 {
		t.Errorf("is_best count = %d, want exactly 1", bestCount)
	}
	if !seenRanks[1] || !seenRanks[2] {
		t.Errorf("ranks not contiguous: %v", seenRanks)
	}

	if outcome.Session.Status != internal.SessionComplete {
		t.Errorf("session status = %s, want complete", outcome.Session.Status)
	}
	if outcome.Comparison.AllFailed {
		t.Error("all_failed set on success")
	}
	if outcome.Comparison.BestModel == "" {
		t.Error("missing best model")
	}

	// Persisted rows match the outcome.
	stored, err := st.GetSession(context.Background(), outcome.Session.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if stored.Status != internal.SessionComplete {
		t.Errorf("stored status = %s", stored.Status)
	}
	responses, err := st.GetResponses(context.Background(), outcome.Session.ID)
	if err != nil {
		t.Fatalf("GetResponses failed: %v", err)
	}
	if len(responses) != 2 {
		t.Errorf("stored responses = %d", len(responses))
	}
	evaluations, err := st.GetEvaluations(context.Background(), outcome.Session.ID)
	if err != nil {
		t.Fatalf("GetEvaluations failed: %v", err)
	}
	if len(evaluations) != 2 {
		t.Errorf("stored evaluations = %d", len(evaluations))
	}
}

func TestSubmit_SessionWrittenBeforeProviderCalls(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	// The invoker checks what the store holds at the moment the provider
	// call starts: the pending session row must already be there.
	var statusDuringCall atomic.Value
	mock := &mockInvoker{invokeFunc: func(ctx context.Context, req provider.Request) (*provider.Response, error) {
		sessions, listErr := st.ListSessions(ctx, 10)
		if listErr != nil || len(sessions) != 1 {
			t.Errorf("sessions during call = %d (err %v), want 1", len(sessions), listErr)
		} else {
			statusDuringCall.Store(sessions[0].Status)
		}
		return answer("4", time.Second)(ctx, req)
	}}

	reg := registry.NewWith([]registry.Descriptor{
		{ID: "model-a", Provider: "prov-a", DefaultTimeout: 5 * time.Second, Enabled: true},
	})
	orch := orchestrator.New(reg, map[string]provider.Invoker{"prov-a": mock}, orchestrator.OrchestratorConfig{MaxAttempts: 1})
	p := New(classifier.New(), orch, evaluator.New(evaluator.DefaultWeights()), st)

	outcome, err := p.Submit(context.Background(), SubmitRequest{
		Prompt: "What is 2+2?",
		Models: []string{"model-a"},
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if got := statusDuringCall.Load(); got != internal.SessionPending {
		t.Errorf("session status during provider call = %v, want pending", got)
	}

	// Classification and final status land on the same row afterwards.
	stored, err := st.GetSession(context.Background(), outcome.Session.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if stored.Status != internal.SessionComplete {
		t.Errorf("final stored status = %s, want complete", stored.Status)
	}
	if stored.Domain != outcome.Classification.Domain || stored.Domain == "" {
		t.Errorf("stored domain = %q, want %q", stored.Domain, outcome.Classification.Domain)
	}
}

func TestSubmit_PartialFailure(t *testing.T) {
	invokers := map[string]provider.Invoker{
		"prov-a": &mockInvoker{invokeFunc: timeoutAnswer()},
		"prov-b": &mockInvoker{invokeFunc: answer("The answer is four.", 2*time.Second)},
	}
	p, _ := newTestPipeline(t, invokers, false)

	outcome, err := p.Submit(context.Background(), SubmitRequest{
		Prompt: "What is 2+2?",
		Models: []string{"model-a", "model-b"},
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if len(outcome.Responses) != 2 {
		t.Fatalf("responses = %d, want one per requested model", len(outcome.Responses))
	}
	if len(outcome.Evaluations) != 1 {
		t.Fatalf("evaluations = %d, want 1", len(outcome.Evaluations))
	}
	if outcome.Evaluations[0].ModelID != "model-b" || !outcome.Evaluations[0].IsBest {
		t.Errorf("best = %+v", outcome.Evaluations[0])
	}
	if outcome.Session.Status != internal.SessionPartial {
		t.Errorf("session status = %s, want partial", outcome.Session.Status)
	}
	if len(outcome.Comparison.FailedModels) != 1 || outcome.Comparison.FailedModels[0].ModelID != "model-a" {
		t.Errorf("failed models = %+v", outcome.Comparison.FailedModels)
	}
	if outcome.Comparison.FailedModels[0].Kind != string(provider.KindTimeout) {
		t.Errorf("failure kind = %s", outcome.Comparison.FailedModels[0].Kind)
	}
}

func TestSubmit_AllModelsFail(t *testing.T) {
	invokers := map[string]provider.Invoker{
		"prov-a": &mockInvoker{invokeFunc: timeoutAnswer()},
		"prov-b": &mockInvoker{invokeFunc: timeoutAnswer()},
	}
	p, _ := newTestPipeline(t, invokers, false)

	outcome, err := p.Submit(context.Background(), SubmitRequest{
		Prompt: "What is 2+2?",
		Models: []string{"model-a", "model-b"},
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if !outcome.Comparison.AllFailed {
		t.Error("expected all_failed")
	}
	if len(outcome.Evaluations) != 0 {
		t.Errorf("evaluations = %d, want 0", len(outcome.Evaluations))
	}
	if outcome.Comparison.BestModel != "" {
		t.Errorf("best model = %s, want none", outcome.Comparison.BestModel)
	}
	if outcome.Session.Status != internal.SessionFailed {
		t.Errorf("session status = %s, want failed", outcome.Session.Status)
	}
	if len(outcome.Comparison.FailedModels) != 2 {
		t.Errorf("failed models = %d", len(outcome.Comparison.FailedModels))
	}
}

func TestSubmit_ValidationBeforeProviderCalls(t *testing.T) {
	mock := &mockInvoker{invokeFunc: answer("never called", time.Second)}
	p, _ := newTestPipeline(t, map[string]provider.Invoker{"prov-a": mock, "prov-b": mock}, false)

	tests := []struct {
		name   string
		req    SubmitRequest
		field  string
	}{
		{"empty prompt", SubmitRequest{Prompt: "", Models: []string{"model-a"}}, "prompt_text"},
		{"short prompt", SubmitRequest{Prompt: "too short", Models: []string{"model-a"}}, "prompt_text"},
		{"no models", SubmitRequest{Prompt: "a perfectly valid prompt", Models: nil}, "models"},
		{"duplicate models", SubmitRequest{Prompt: "a perfectly valid prompt", Models: []string{"model-a", "model-a"}}, "models"},
		{"bad temperature", SubmitRequest{Prompt: "a perfectly valid prompt", Models: []string{"model-a"}, Options: provider.Options{Temperature: 3}}, "temperature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Submit(context.Background(), tt.req)
			var ve *internal.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tt.field {
				t.Errorf("field = %s, want %s", ve.Field, tt.field)
			}
		})
	}

	if mock.callCount.Load() != 0 {
		t.Errorf("providers were called %d times before validation", mock.callCount.Load())
	}
}

func TestSubmit_UnknownModelBeforeProviderCalls(t *testing.T) {
	mock := &mockInvoker{invokeFunc: answer("never called", time.Second)}
	p, _ := newTestPipeline(t, map[string]provider.Invoker{"prov-a": mock}, false)

	_, err := p.Submit(context.Background(), SubmitRequest{
		Prompt: "a perfectly valid prompt",
		Models: []string{"model-a", "unknown-model"},
	})
	var ume *internal.UnknownModelError
	if !errors.As(err, &ume) {
		t.Fatalf("expected UnknownModelError, got %v", err)
	}
	if mock.callCount.Load() != 0 {
		t.Errorf("providers were called %d times", mock.callCount.Load())
	}
}

func TestSubmit_ClassificationAttachedToSession(t *testing.T) {
	invokers := map[string]provider.Invoker{
		"prov-a": &mockInvoker{invokeFunc: answer("See a doctor about persistent symptoms.", time.Second)},
		"prov-b": &mockInvoker{invokeFunc: answer("Medication may help, ask a doctor.", time.Second)},
	}
	p, _ := newTestPipeline(t, invokers, false)

	outcome, err := p.Submit(context.Background(), SubmitRequest{
		Prompt: "What treatment does a doctor prescribe for an infection?",
		Models: []string{"model-a", "model-b"},
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if outcome.Classification.Domain != "medical" {
		t.Errorf("domain = %s", outcome.Classification.Domain)
	}
	if outcome.Session.Domain != "medical" {
		t.Errorf("session domain = %s", outcome.Session.Domain)
	}
	if outcome.Session.SafetyLevel != outcome.Classification.SafetyLevel {
		t.Errorf("session safety %s != classification %s", outcome.Session.SafetyLevel, outcome.Classification.SafetyLevel)
	}
}

func TestNormalizePrompt(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  hello   world  ", "hello world"},
		{"tabs\tand\nnewlines", "tabs and newlines"},
		{"already clean", "already clean"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizePrompt(tt.input); got != tt.want {
			t.Errorf("NormalizePrompt(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
