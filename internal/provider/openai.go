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

// OpenAIService calls the OpenAI chat completions API (GPT-4 Turbo,
// GPT-3.5 Turbo).
type OpenAIService struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewOpenAIService builds the adapter. baseURL may be empty to use the
// public endpoint; the injected client is replaceable in tests.
func NewOpenAIService(apiKey, baseURL string) *OpenAIService {
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	return &OpenAIService{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (s *OpenAIService) Name() string {
	return "openai"
}

func (s *OpenAIService) Invoke(ctx context.Context, req Request) (*Response, error) {
	if s.apiKey == "" {
		return nil, &Error{Provider: s.Name(), Kind: KindAuth, Detail: "OpenAI API key required"}
	}

	callCtx, cancel := callContext(ctx, req.Options)
	defer cancel()

	body := map[string]interface{}{
		"model": req.Model.ID,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": req.Prompt},
		},
		"max_tokens":  maxTokens(req.Options),
		"temperature": req.Options.Temperature,
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, &Error{Provider: s.Name(), Kind: KindProvider, Detail: fmt.Sprintf("failed to marshal request: %v", err)}
	}

	httpReq, err := http.NewRequestWithContext(callCtx, "POST", fmt.Sprintf("%s/v1/chat/completions", s.baseURL), bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, &Error{Provider: s.Name(), Kind: KindProvider, Detail: fmt.Sprintf("failed to create request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))

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

	var openaiResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&openaiResp); err != nil {
		return nil, &Error{Provider: s.Name(), Kind: KindMalformed, Detail: fmt.Sprintf("failed to decode response: %v", err)}
	}
	if len(openaiResp.Choices) == 0 {
		return nil, &Error{Provider: s.Name(), Kind: KindMalformed, Detail: "empty choices in response"}
	}

	text := postprocess.Clean(openaiResp.Choices[0].Message.Content)
	in, out := openaiResp.Usage.PromptTokens, openaiResp.Usage.CompletionTokens
	total := openaiResp.Usage.TotalTokens
	if total == 0 {
		in, out = approxTokens(req.Prompt), approxTokens(text)
		total = in + out
	}

	return &Response{
		Provider:     s.Name(),
		ModelID:      req.Model.ID,
		Text:         text,
		InputTokens:  in,
		OutputTokens: out,
		TotalTokens:  total,
		Cost:         req.Model.Cost(in, out),
		Latency:      latency,
		FinishReason: openaiResp.Choices[0].FinishReason,
	}, nil
}

func (s *OpenAIService) IsAvailable(ctx context.Context) error {
	if s.apiKey == "" {
		return fmt.Errorf("OpenAI API key not configured")
	}
	return nil
}
