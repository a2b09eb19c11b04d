package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	dashScopeBaseURL   = "https://dashscope.aliyuncs.com"
	DefaultQwenModel   = "qwen-turbo"
	dashScopeHTTPLimit = 60 * time.Second
)

// DashScopeProvider is a generation provider for DashScope's
// OpenAI-compatible chat endpoint, hand-rolled over net/http so the
// credential can vary per request without rebuilding a client.
type DashScopeProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

type dashScopeChatRequest struct {
	Model    string                 `json:"model"`
	Messages []dashScopeChatMessage `json:"messages"`
}

type dashScopeChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type dashScopeChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int                  `json:"index"`
		Message      dashScopeChatMessage `json:"message"`
		FinishReason string               `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type dashScopeError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

// NewDashScopeProvider creates a DashScope generation provider. An empty
// baseURL targets the public DashScope endpoint.
func NewDashScopeProvider(baseURL, model string) *DashScopeProvider {
	if baseURL == "" {
		baseURL = dashScopeBaseURL
	}
	if model == "" {
		model = DefaultQwenModel
	}
	return &DashScopeProvider{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: dashScopeHTTPLimit},
	}
}

// Name identifies the provider in logs and fallback reporting.
func (p *DashScopeProvider) Name() string {
	return "dashscope"
}

// Complete issues one chat completion with the given credential.
func (p *DashScopeProvider) Complete(ctx context.Context, credential, systemPrompt, userPrompt string) (string, error) {
	if credential == "" {
		return "", fmt.Errorf("credential cannot be empty")
	}

	payload, err := json.Marshal(dashScopeChatRequest{
		Model: p.model,
		Messages: []dashScopeChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	url := fmt.Sprintf("%s/compatible-mode/v1/chat/completions", p.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", credential))

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("dashscope call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr dashScopeError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
			return "", fmt.Errorf("dashscope error: %s (code: %s, request_id: %s)",
				apiErr.Message, apiErr.Code, apiErr.RequestID)
		}
		return "", fmt.Errorf("dashscope error: HTTP %d - %s", resp.StatusCode, string(body))
	}

	var chatResp dashScopeChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", ErrNoCompletion
	}
	return chatResp.Choices[0].Message.Content, nil
}
