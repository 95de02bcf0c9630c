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

// GoogleService calls the Gemini generateContent API.
type GoogleService struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewGoogleService(apiKey, baseURL string) *GoogleService {
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	return &GoogleService{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (s *GoogleService) Name() string {
	return "google"
}

func (s *GoogleService) Invoke(ctx context.Context, req Request) (*Response, error) {
	if s.apiKey == "" {
		return nil, &Error{Provider: s.Name(), Kind: KindAuth, Detail: "Google API key required"}
	}

	callCtx, cancel := callContext(ctx, req.Options)
	defer cancel()

	// Gemini has no dedicated system role on this endpoint; the system
	// prompt is prepended to the user text instead.
	body := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{
				{"text": fmt.Sprintf("%s\n\n%s", systemPrompt, req.Prompt)},
			}},
		},
		"generationConfig": map[string]interface{}{
			"temperature":     req.Options.Temperature,
			"maxOutputTokens": maxTokens(req.Options),
		},
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, &Error{Provider: s.Name(), Kind: KindProvider, Detail: fmt.Sprintf("failed to marshal request: %v", err)}
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", s.baseURL, req.Model.ID, s.apiKey)
	httpReq, err := http.NewRequestWithContext(callCtx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, &Error{Provider: s.Name(), Kind: KindProvider, Detail: fmt.Sprintf("failed to create request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

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

	var googleResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason"`
		} `json:"candidates"`
		UsageMetadata struct {
			PromptTokenCount     int `json:"promptTokenCount"`
			CandidatesTokenCount int `json:"candidatesTokenCount"`
			TotalTokenCount      int `json:"totalTokenCount"`
		} `json:"usageMetadata"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&googleResp); err != nil {
		return nil, &Error{Provider: s.Name(), Kind: KindMalformed, Detail: fmt.Sprintf("failed to decode response: %v", err)}
	}
	if len(googleResp.Candidates) == 0 || len(googleResp.Candidates[0].Content.Parts) == 0 {
		return nil, &Error{Provider: s.Name(), Kind: KindMalformed, Detail: "empty candidates in response"}
	}

	text := postprocess.Clean(googleResp.Candidates[0].Content.Parts[0].Text)
	in, out := googleResp.UsageMetadata.PromptTokenCount, googleResp.UsageMetadata.CandidatesTokenCount
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
		FinishReason: googleResp.Candidates[0].FinishReason,
	}, nil
}

func (s *GoogleService) IsAvailable(ctx context.Context) error {
	if s.apiKey == "" {
		return fmt.Errorf("Google API key not configured")
	}
	return nil
}
