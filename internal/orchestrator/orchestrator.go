package orchestrator

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arenalab/promptarena/internal"
	"github.com/arenalab/promptarena/internal/provider"
	"github.com/arenalab/promptarena/internal/registry"
)

type OrchestratorConfig struct {
	// SessionTimeout bounds the whole fan-out. Zero means no bound beyond
	// the caller's context.
	SessionTimeout time.Duration
	// MaxAttempts is per model, including the first call.
	MaxAttempts int
	RetryDelay  time.Duration
}

// Orchestrator fans a prompt out to every requested model concurrently and
// collects one ModelResponse per model, in the order the models were
// requested.
type Orchestrator struct {
	registry *registry.Registry
	invokers map[string]provider.Invoker
	config   OrchestratorConfig
}

func New(reg *registry.Registry, invokers map[string]provider.Invoker, config OrchestratorConfig) *Orchestrator {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 500 * time.Millisecond
	}
	return &Orchestrator{
		registry: reg,
		invokers: invokers,
		config:   config,
	}
}

// Compare calls every model in modelIDs with the same prompt. Unknown or
// disabled models fail the whole call before any provider is contacted;
// per-model provider failures become error-status responses instead.
func (o *Orchestrator) Compare(ctx context.Context, sessionID, prompt string, modelIDs []string, opts provider.Options) ([]internal.ModelResponse, error) {
	if len(modelIDs) == 0 {
		return nil, &internal.ValidationError{Field: "models", Reason: "at least one model is required"}
	}

	descriptors := make([]registry.Descriptor, len(modelIDs))
	for i, id := range modelIDs {
		desc, err := o.registry.Resolve(id)
		if err != nil {
			return nil, err
		}
		descriptors[i] = desc
	}

	if o.config.SessionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.SessionTimeout)
		defer cancel()
	}

	responses := make([]internal.ModelResponse, len(descriptors))

	var wg sync.WaitGroup
	for i, desc := range descriptors {
		wg.Add(1)
		go func(index int, model registry.Descriptor) {
			defer wg.Done()
			responses[index] = o.callModel(ctx, sessionID, prompt, model, opts)
		}(i, desc)
	}
	wg.Wait()

	return responses, nil
}

// callModel runs the retry loop for a single model. Auth failures and
// timeouts are terminal; everything else retries up to MaxAttempts with the
// per-call timeout re-derived from whatever session budget remains.
func (o *Orchestrator) callModel(ctx context.Context, sessionID, prompt string, model registry.Descriptor, opts provider.Options) internal.ModelResponse {
	resp := internal.ModelResponse{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		ModelID:   model.ID,
		Provider:  model.Provider,
		Status:    internal.ResponseError,
		CreatedAt: time.Now().UTC(),
	}

	invoker, ok := o.invokers[model.Provider]
	if !ok {
		resp.ErrorKind = string(provider.KindProvider)
		resp.ErrorDetail = "no adapter configured for provider " + model.Provider
		return resp
	}

	var lastErr error
	for attempt := 1; attempt <= o.config.MaxAttempts; attempt++ {
		callOpts := opts
		callOpts.Timeout = o.callTimeout(ctx, model)

		result, err := invoker.Invoke(ctx, provider.Request{
			Model:   model,
			Prompt:  prompt,
			Options: callOpts,
		})
		if err == nil {
			resp.Status = internal.ResponseSuccess
			resp.ResponseText = result.Text
			resp.Latency = result.Latency
			resp.InputTokens = result.InputTokens
			resp.OutputTokens = result.OutputTokens
			resp.TokenCount = result.TotalTokens
			resp.Cost = result.Cost
			resp.ErrorKind = ""
			resp.ErrorDetail = ""
			return resp
		}

		lastErr = err
		kind := provider.ClassifyKind(err)
		if kind == provider.KindAuth || kind == provider.KindTimeout {
			break
		}
		if attempt < o.config.MaxAttempts {
			log.Printf("model %s attempt %d/%d failed (%s), retrying", model.ID, attempt, o.config.MaxAttempts, kind)
			select {
			case <-ctx.Done():
				lastErr = ctx.Err()
				attempt = o.config.MaxAttempts
			case <-time.After(o.config.RetryDelay):
			}
		}
	}

	resp.ErrorKind = string(provider.ClassifyKind(lastErr))
	resp.ErrorDetail = errorDetail(lastErr)
	return resp
}

// callTimeout picks the per-call deadline: the model's default, shrunk to
// the remaining session budget when that is smaller.
func (o *Orchestrator) callTimeout(ctx context.Context, model registry.Descriptor) time.Duration {
	timeout := model.DefaultTimeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if timeout <= 0 || remaining < timeout {
			timeout = remaining
		}
	}
	return timeout
}

func errorDetail(err error) string {
	if err == nil {
		return "unknown error"
	}
	var pe *provider.Error
	if errors.As(err, &pe) {
		return pe.Detail
	}
	return err.Error()
}
