// Package completion implements an OpenRouter chat-completion client.
// Rate-limit backoff lives here and nowhere else; callers get a terminal
// RateLimitedError once attempts are exhausted.
package completion

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

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel   = "meta-llama/llama-3.2-3b-instruct:free"

	defaultMaxTokens   = 1000
	defaultTemperature = 0.7
	defaultMaxAttempts = 3

	// Fallback hint for callers when a final 429 carries no Retry-After.
	defaultRetryAfterMs = 3000

	noResponseText = "No response received"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

// Usage reports token consumption as returned by the upstream API.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Result is the outcome of a successful completion call.
type Result struct {
	Content string
	Usage   Usage
	Retries int
}

type Client struct {
	HTTPClient  *http.Client
	BaseURL     string
	APIKey      string
	Model       string
	SiteURL     string
	SiteTitle   string
	MaxTokens   int
	Temperature float64
	MaxAttempts int

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

func NewClient(apiKey, baseURL, model, siteURL, siteTitle string, maxTokens int, temperature float64) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	if temperature <= 0 {
		temperature = defaultTemperature
	}
	return &Client{
		HTTPClient:  &http.Client{Timeout: 60 * time.Second},
		BaseURL:     baseURL,
		APIKey:      apiKey,
		Model:       model,
		SiteURL:     siteURL,
		SiteTitle:   siteTitle,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		MaxAttempts: defaultMaxAttempts,
		sleep:       time.Sleep,
	}
}

// Configured reports whether the client has a credential to send. Callers
// should fail fast instead of issuing a request with an empty Bearer token.
func (c *Client) Configured() bool {
	return c.APIKey != ""
}

// Complete sends a chat completion request, retrying on 429 with
// exponential backoff (or the server's Retry-After when present).
func (c *Client) Complete(ctx context.Context, systemPrompt, userMessage, contextBlock string) (*Result, error) {
	messages := []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userMessage},
	}
	if contextBlock != "" {
		messages = append(messages, Message{Role: "system", Content: contextBlock})
	}

	maxAttempts := c.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	var lastRetryAfter string
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, body, err := c.send(ctx, messages)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastRetryAfter = resp.Header.Get("Retry-After")
			if attempt == maxAttempts {
				break
			}
			c.sleep(backoffDelay(attempt, lastRetryAfter))
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
		}

		var chatResp chatResponse
		if err := json.Unmarshal(body, &chatResp); err != nil {
			return nil, fmt.Errorf("decode completion response: %w", err)
		}

		content := noResponseText
		if len(chatResp.Choices) > 0 && chatResp.Choices[0].Message.Content != "" {
			content = chatResp.Choices[0].Message.Content
		}

		return &Result{
			Content: content,
			Usage:   chatResp.Usage,
			Retries: attempt - 1,
		}, nil
	}

	return nil, &RateLimitedError{RetryAfterMs: retryAfterMs(lastRetryAfter)}
}

func (c *Client) send(ctx context.Context, messages []Message) (*http.Response, []byte, error) {
	payload := chatRequest{
		Model:       c.Model,
		Messages:    messages,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal completion request: %w", err)
	}

	url := fmt.Sprintf("%s/chat/completions", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, nil, fmt.Errorf("create completion request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))
	if c.SiteURL != "" {
		req.Header.Set("HTTP-Referer", c.SiteURL)
	}
	if c.SiteTitle != "" {
		req.Header.Set("X-Title", c.SiteTitle)
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read completion response: %w", err)
	}

	return resp, body, nil
}

// backoffDelay honors the server's Retry-After header if parseable,
// otherwise doubles from one second per attempt.
func backoffDelay(attempt int, retryAfter string) time.Duration {
	if retryAfter != "" {
		if secs, err := strconv.Atoi(retryAfter); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return time.Duration(1000*(1<<(attempt-1))) * time.Millisecond
}

func retryAfterMs(retryAfter string) int {
	if retryAfter != "" {
		if secs, err := strconv.Atoi(retryAfter); err == nil && secs >= 0 {
			return secs * 1000
		}
	}
	return defaultRetryAfterMs
}
