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

// GroqService calls Groq's OpenAI-compatible chat completions API.
type GroqService struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewGroqService(apiKey, baseURL string) *GroqService {
	if baseURL == "" {
		baseURL = "https://api.groq.com/openai"
	}
	return &GroqService{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (s *GroqService) Name() string {
	return "groq"
}

func (s *GroqService) Invoke(ctx context.Context, req Request) (*Response, error) {
	if s.apiKey == "" {
		return nil, &Error{Provider: s.Name(), Kind: KindAuth, Detail: "Groq API key required"}
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

	httpReq, err := http.NewRequestWithContext(callCtx, "POST", s.baseURL+"/v1/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, &Error{Provider: s.Name(), Kind: KindProvider, Detail: fmt.Sprintf("failed to create request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)

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

	var groqResp struct {
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

	if err := json.NewDecoder(resp.Body).Decode(&groqResp); err != nil {
		return nil, &Error{Provider: s.Name(), Kind: KindMalformed, Detail: fmt.Sprintf("failed to decode response: %v", err)}
	}
	if len(groqResp.Choices) == 0 {
		return nil, &Error{Provider: s.Name(), Kind: KindMalformed, Detail: "empty choices in response"}
	}

	text := postprocess.Clean(groqResp.Choices[0].Message.Content)
	in, out := groqResp.Usage.PromptTokens, groqResp.Usage.CompletionTokens
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
		FinishReason: groqResp.Choices[0].FinishReason,
	}, nil
}

func (s *GroqService) IsAvailable(ctx context.Context) error {
	if s.apiKey == "" {
		return fmt.Errorf("Groq API key not configured")
	}
	return nil
}
