package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/arenalab/promptarena/internal/postprocess"
)

// anthropicVersion is the API version header Anthropic requires.
const anthropicVersion = "2023-06-01"

// AnthropicService calls the Anthropic messages API (Claude 3 family).
type AnthropicService struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewAnthropicService(apiKey, baseURL string) *AnthropicService {
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	return &AnthropicService{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (s *AnthropicService) Name() string {
	return "anthropic"
}

func (s *AnthropicService) Invoke(ctx context.Context, req Request) (*Response, error) {
	if s.apiKey == "" {
		return nil, &Error{Provider: s.Name(), Kind: KindAuth, Detail: "Anthropic API key required"}
	}

	callCtx, cancel := callContext(ctx, req.Options)
	defer cancel()

	body := map[string]interface{}{
		"model":      req.Model.ID,
		"max_tokens": maxTokens(req.Options),
		"system":     systemPrompt,
		"messages": []map[string]string{
			{"role": "user", "content": req.Prompt},
		},
		"temperature": req.Options.Temperature,
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, &Error{Provider: s.Name(), Kind: KindProvider, Detail: fmt.Sprintf("failed to marshal request: %v", err)}
	}

	httpReq, err := http.NewRequestWithContext(callCtx, "POST", fmt.Sprintf("%s/v1/messages", s.baseURL), bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, &Error{Provider: s.Name(), Kind: KindProvider, Detail: fmt.Sprintf("failed to create request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", s.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	start := time.Now()
	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, wrapTransportErr(s.Name(), callCtx, err)
	}
	defer resp.Body.Close()
	latency := time.Since(start)

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		detail := errResp.Error.Message
		if detail == "" {
			detail = fmt.Sprintf("API returned status %d", resp.StatusCode)
		}
		return nil, &Error{Provider: s.Name(), Kind: statusKind(resp.StatusCode), Status: resp.StatusCode, Detail: detail}
	}

	var anthropicResp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		StopReason string `json:"stop_reason"`
		Usage      struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&anthropicResp); err != nil {
		return nil, &Error{Provider: s.Name(), Kind: KindMalformed, Detail: fmt.Sprintf("failed to decode response: %v", err)}
	}
	if len(anthropicResp.Content) == 0 {
		return nil, &Error{Provider: s.Name(), Kind: KindMalformed, Detail: "empty content in response"}
	}

	text := postprocess.Clean(anthropicResp.Content[0].Text)
	in, out := anthropicResp.Usage.InputTokens, anthropicResp.Usage.OutputTokens
	if in+out == 0 {
		in, out = approxTokens(req.Prompt), approxTokens(text)
	}

	return &Response{
		Provider:     s.Name(),
		ModelID:      req.Model.ID,
		Text:         text,
		InputTokens:  in,
		OutputTokens: out,
		TotalTokens:  in + out,
		Cost:         req.Model.Cost(in, out),
		Latency:      latency,
		FinishReason: anthropicResp.StopReason,
	}, nil
}

func (s *AnthropicService) IsAvailable(ctx context.Context) error {
	if s.apiKey == "" {
		return fmt.Errorf("Anthropic API key not configured")
	}
	return nil
}
