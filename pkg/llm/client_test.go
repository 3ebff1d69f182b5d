package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/autoproof/autoproof/pkg/logger"
)

func newServerClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewOpenAIClient(ClientConfig{
		APIKey:     "sk-test",
		BaseURL:    server.URL,
		MaxRetries: 1,
		Throttle:   NewThrottle(time.Millisecond),
	}, logger.NewNopLogger())
}

func TestChatDecodesResponse(t *testing.T) {
	var gotAuth string
	client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"choices": [{"message": {"content": "  []  "}}],
			"usage": {"total_tokens": 42}
		}`))
	})

	resp, err := client.Chat(context.Background(), &ChatRequest{
		Model:    DefaultBulkModel,
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}

	if gotAuth != "Bearer sk-test" {
		t.Errorf("authorization header = %q", gotAuth)
	}
	if resp.Content != "[]" {
		t.Errorf("content = %q, want trimmed reply", resp.Content)
	}
	if resp.TotalTokens != 42 {
		t.Errorf("total tokens = %d", resp.TotalTokens)
	}
}

func TestChatRateLimitClassification(t *testing.T) {
	client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "Rate limit reached", "type": "requests"}}`))
	})

	_, err := client.Chat(context.Background(), &ChatRequest{Model: DefaultBulkModel})
	if !IsRateLimit(err) {
		t.Errorf("expected rate limit error, got %v", err)
	}
}

func TestChatTokenBudgetFailsImmediately(t *testing.T) {
	calls := 0
	client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"message": "This model's maximum context length is 4096 tokens", "code": "context_length_exceeded"}}`))
	})

	_, err := client.Chat(context.Background(), &ChatRequest{Model: DefaultBulkModel})
	if !IsTokenBudget(err) {
		t.Errorf("expected token budget error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("token budget rejection must not be retried, got %d calls", calls)
	}
}

func TestChatGenericAPIError(t *testing.T) {
	client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": {"message": "server melted"}}`))
	})

	_, err := client.Chat(context.Background(), &ChatRequest{Model: DefaultBulkModel})
	if err == nil || IsRateLimit(err) || IsTokenBudget(err) {
		t.Errorf("expected generic API error, got %v", err)
	}
}

func TestChatMissingAPIKey(t *testing.T) {
	client := NewOpenAIClient(ClientConfig{}, logger.NewNopLogger())
	if _, err := client.Chat(context.Background(), &ChatRequest{Model: DefaultBulkModel}); err == nil {
		t.Errorf("expected error without an api key")
	}
}

func TestThrottleSpacesCalls(t *testing.T) {
	throttle := NewThrottle(20 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := throttle.Wait(ctx); err != nil {
			t.Fatalf("wait: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("three calls finished in %s, want at least 40ms of spacing", elapsed)
	}
}

func TestThrottleHonorsContext(t *testing.T) {
	throttle := NewThrottle(time.Hour)
	ctx := context.Background()
	if err := throttle.Wait(ctx); err != nil {
		t.Fatalf("first wait should be immediate: %v", err)
	}

	cancelled, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	if err := throttle.Wait(cancelled); err == nil {
		t.Errorf("expected context deadline error")
	}
}
