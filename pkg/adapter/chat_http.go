package adapter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ChatHTTPAdapter talks to a self-hosted OpenAI-compatible
// /chat/completions endpoint over plain HTTP. Responses are parsed
// leniently: anything without a usable choices[0].message.content is a
// failed call.
type ChatHTTPAdapter struct {
	apiKey     string
	baseURL    string
	models     []string
	httpClient *http.Client
}

// NewChatHTTPAdapter creates a new adapter for the endpoint at baseURL.
func NewChatHTTPAdapter(apiKey, baseURL string, timeout time.Duration, models ...string) (*ChatHTTPAdapter, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("chat endpoint base URL is required")
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &ChatHTTPAdapter{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		models:     models,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Name returns the adapter identifier.
func (a *ChatHTTPAdapter) Name() string {
	return "chat"
}

// Models returns the configured model names.
func (a *ChatHTTPAdapter) Models() []string {
	return a.models
}

// Complete posts the conversation and returns the first choice.
func (a *ChatHTTPAdapter) Complete(ctx context.Context, req *Request) (*Response, error) {
	body, err := buildChatBody(req)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, &AdapterError{Temporary: true, Err: fmt.Errorf("chat API request failed: %w", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(raw, "error.message").String()
		if msg == "" {
			msg = truncate(string(raw), 256)
		}
		return nil, &AdapterError{Status: resp.StatusCode, Err: fmt.Errorf("chat API returned status %d: %s", resp.StatusCode, msg)}
	}

	return parseChatBody(raw)
}

func buildChatBody(req *Request) ([]byte, error) {
	body := []byte(`{}`)
	var err error
	if body, err = sjson.SetBytes(body, "model", req.Model); err != nil {
		return nil, err
	}
	if body, err = sjson.SetBytes(body, "temperature", req.Temperature); err != nil {
		return nil, err
	}
	if req.MaxTokens > 0 {
		if body, err = sjson.SetBytes(body, "max_tokens", req.MaxTokens); err != nil {
			return nil, err
		}
	}
	for i, m := range req.Messages {
		if body, err = sjson.SetBytes(body, fmt.Sprintf("messages.%d.role", i), string(m.Role)); err != nil {
			return nil, err
		}
		if body, err = sjson.SetBytes(body, fmt.Sprintf("messages.%d.content", i), m.Content); err != nil {
			return nil, err
		}
	}
	if len(req.Stop) > 0 {
		if body, err = sjson.SetBytes(body, "stop", req.Stop); err != nil {
			return nil, err
		}
	}
	return body, nil
}

func parseChatBody(raw []byte) (*Response, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("chat API returned malformed body")
	}
	if msg := gjson.GetBytes(raw, "error.message"); msg.Exists() {
		return nil, fmt.Errorf("chat API error: %s", msg.String())
	}

	choice := gjson.GetBytes(raw, "choices.0")
	if !choice.Exists() {
		return nil, fmt.Errorf("chat API returned no choices")
	}
	content := choice.Get("message.content")
	if !content.Exists() || content.Type == gjson.Null {
		return nil, fmt.Errorf("chat API returned no message content")
	}

	out := &Response{
		Text:         content.String(),
		FinishReason: choice.Get("finish_reason").String(),
	}
	if usage := gjson.GetBytes(raw, "usage"); usage.Exists() {
		out.Usage = &Usage{
			PromptTokens:     int(usage.Get("prompt_tokens").Int()),
			CompletionTokens: int(usage.Get("completion_tokens").Int()),
			TotalTokens:      int(usage.Get("total_tokens").Int()),
		}
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
