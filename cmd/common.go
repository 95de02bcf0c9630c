/*
Copyright © 2026 PromptArena Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"

	"github.com/arenalab/promptarena/internal/appconfig"
	"github.com/arenalab/promptarena/internal/classifier"
	"github.com/arenalab/promptarena/internal/evaluator"
	"github.com/arenalab/promptarena/internal/orchestrator"
	"github.com/arenalab/promptarena/internal/pipeline"
	"github.com/arenalab/promptarena/internal/provider"
	"github.com/arenalab/promptarena/internal/registry"
	"github.com/arenalab/promptarena/internal/store"
)

// buildInvokers constructs one adapter per provider. Adapters with no API
// key configured still get registered; they fail with an auth error on the
// first call, which surfaces as a per-model error response rather than a
// startup failure.
func buildInvokers(cfg appconfig.ProvidersConfig) map[string]provider.Invoker {
	return map[string]provider.Invoker{
		registry.ProviderOpenAI:    provider.NewOpenAIService(cfg.OpenAIKey, cfg.OpenAIBaseURL),
		registry.ProviderAnthropic: provider.NewAnthropicService(cfg.AnthropicKey, cfg.AnthropicBaseURL),
		registry.ProviderGoogle:    provider.NewGoogleService(cfg.GoogleKey, cfg.GoogleBaseURL),
		registry.ProviderGroq:      provider.NewGroqService(cfg.GroqKey, cfg.GroqBaseURL),
	}
}

// buildPipeline wires the full comparison stack from config. The returned
// store is nil when dbPath is empty; the caller owns Close otherwise.
func buildPipeline(cfg *appconfig.Config, dbPath string) (*pipeline.Pipeline, *registry.Registry, *store.Store, error) {
	reg := registry.New()

	orch := orchestrator.New(reg, buildInvokers(cfg.Providers), orchestrator.OrchestratorConfig{
		SessionTimeout: cfg.Session.Timeout,
		MaxAttempts:    cfg.Session.MaxAttempts,
		RetryDelay:     cfg.Session.RetryDelay,
	})

	var db *store.Store
	if dbPath != "" {
		var err error
		db, err = store.New(dbPath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
	}

	p := pipeline.New(classifier.New(), orch, evaluator.New(cfg.Weights), db)
	return p, reg, db, nil
}

func loadConfig() (*appconfig.Config, error) {
	cfg, err := appconfig.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
