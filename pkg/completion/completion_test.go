package completion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) (*Client, *[]time.Duration) {
	c := NewClient("test-key", baseURL, "", "http://localhost:3000", "AI Knowledge Hub", 0, 0)
	var slept []time.Duration
	c.sleep = func(d time.Duration) {
		slept = append(slept, d)
	}
	return c, &slept
}

func writeChatResponse(w http.ResponseWriter, content string) {
	json.NewEncoder(w).Encode(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
		"usage": map[string]int{
			"prompt_tokens":     12,
			"completion_tokens": 34,
			"total_tokens":      46,
		},
	})
}

func TestCompleteSuccess(t *testing.T) {
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "http://localhost:3000", r.Header.Get("HTTP-Referer"))
		assert.Equal(t, "AI Knowledge Hub", r.Header.Get("X-Title"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		writeChatResponse(w, "Here is your answer.")
	}))
	defer srv.Close()

	c, slept := newTestClient(srv.URL)
	res, err := c.Complete(context.Background(), "system prompt", "what is this?", "Relevant documents:\n")
	require.NoError(t, err)

	assert.Equal(t, "Here is your answer.", res.Content)
	assert.Equal(t, 0, res.Retries)
	assert.Equal(t, 46, res.Usage.TotalTokens)
	assert.Empty(t, *slept)

	require.Len(t, gotReq.Messages, 3)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "user", gotReq.Messages[1].Role)
	assert.Equal(t, "system", gotReq.Messages[2].Role)
	assert.Equal(t, DefaultModel, gotReq.Model)
	assert.Equal(t, 1000, gotReq.MaxTokens)
	assert.Equal(t, 0.7, gotReq.Temperature)
}

func TestCompleteOmitsEmptyContextBlock(t *testing.T) {
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		writeChatResponse(w, "ok")
	}))
	defer srv.Close()

	c, _ := newTestClient(srv.URL)
	_, err := c.Complete(context.Background(), "sys", "hello", "")
	require.NoError(t, err)
	assert.Len(t, gotReq.Messages, 2)
}

func TestCompleteRetriesOn429(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		switch attempts {
		case 1:
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			writeChatResponse(w, "finally")
		}
	}))
	defer srv.Close()

	c, slept := newTestClient(srv.URL)
	res, err := c.Complete(context.Background(), "sys", "msg", "")
	require.NoError(t, err)

	assert.Equal(t, "finally", res.Content)
	assert.Equal(t, 2, res.Retries)
	// First delay follows Retry-After, second falls back to exponential.
	require.Len(t, *slept, 2)
	assert.Equal(t, 2*time.Second, (*slept)[0])
	assert.Equal(t, 2*time.Second, (*slept)[1])
}

func TestCompleteRateLimitExhaustion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "5")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, slept := newTestClient(srv.URL)
	res, err := c.Complete(context.Background(), "sys", "msg", "")
	assert.Nil(t, res)

	var rl *RateLimitedError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, 5000, rl.RetryAfterMs)
	assert.Len(t, *slept, 2)
}

func TestCompleteRateLimitExhaustionNoHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, _ := newTestClient(srv.URL)
	_, err := c.Complete(context.Background(), "sys", "msg", "")

	var rl *RateLimitedError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, 3000, rl.RetryAfterMs)
}

func TestCompleteUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"model overloaded"}`))
	}))
	defer srv.Close()

	c, slept := newTestClient(srv.URL)
	res, err := c.Complete(context.Background(), "sys", "msg", "")
	assert.Nil(t, res)

	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusInternalServerError, ue.StatusCode)
	assert.Contains(t, ue.Body, "model overloaded")
	assert.Empty(t, *slept)
}

func TestCompleteEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []interface{}{},
			"usage":   map[string]int{},
		})
	}))
	defer srv.Close()

	c, _ := newTestClient(srv.URL)
	res, err := c.Complete(context.Background(), "sys", "msg", "")
	require.NoError(t, err)
	assert.Equal(t, "No response received", res.Content)
}

func TestBackoffDelay(t *testing.T) {
	tests := []struct {
		name       string
		attempt    int
		retryAfter string
		want       time.Duration
	}{
		{"header wins", 1, "3", 3 * time.Second},
		{"attempt 1 fallback", 1, "", 1 * time.Second},
		{"attempt 2 fallback", 2, "", 2 * time.Second},
		{"unparseable header", 2, "soon", 2 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := backoffDelay(tt.attempt, tt.retryAfter)
			if got != tt.want {
				t.Errorf("backoffDelay(%d, %q) = %v, want %v", tt.attempt, tt.retryAfter, got, tt.want)
			}
		})
	}
}
