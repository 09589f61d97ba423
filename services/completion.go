package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const completionRequestTimeout = 30 * time.Second

// CompletionProvider is the text completion backend used for outfit drafts.
type CompletionProvider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type CompletionConfig struct {
	Endpoint    string
	Model       string
	MaxTokens   int
	Temperature float64
	TopP        float64
}

func CompletionConfigFromEnv() CompletionConfig {
	maxTokens, err := strconv.Atoi(GetEnv("COMPLETION_MAX_TOKENS", "512"))
	if err != nil || maxTokens <= 0 {
		maxTokens = 512
	}
	return CompletionConfig{
		Endpoint:    GetEnv("COMPLETION_ENDPOINT", ""),
		Model:       GetEnv("COMPLETION_MODEL", "outfit-composer"),
		MaxTokens:   maxTokens,
		Temperature: 0.7,
		TopP:        0.9,
	}
}

// HTTPCompletionService talks to an OpenAI-compatible completions endpoint.
type HTTPCompletionService struct {
	cfg    CompletionConfig
	client *http.Client
}

func NewHTTPCompletionService(cfg CompletionConfig) *HTTPCompletionService {
	return &HTTPCompletionService{
		cfg:    cfg,
		client: &http.Client{Timeout: completionRequestTimeout},
	}
}

type completionRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
}

type completionResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

func (s *HTTPCompletionService) Complete(ctx context.Context, prompt string) (string, error) {
	if s.cfg.Endpoint == "" {
		return "", fmt.Errorf("completion endpoint not configured")
	}
	payload, err := json.Marshal(completionRequest{
		Model:       s.cfg.Model,
		Prompt:      prompt,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
		TopP:        s.cfg.TopP,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal completion request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build completion request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("completion service returned status %d: %s", resp.StatusCode, string(body))
	}

	var response completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %v", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("completion response has no choices")
	}
	return response.Choices[0].Text, nil
}
