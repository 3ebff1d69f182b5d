package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/autoproof/autoproof/pkg/logger"
)

const (
	defaultBaseURL    = "https://api.openai.com/v1"
	defaultMaxRetries = 3
	defaultTimeout    = 60 * time.Second
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest describes one chat-completion call.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

// ChatResponse is the reply content plus its token cost.
type ChatResponse struct {
	Content     string
	TotalTokens int
}

// ChatClient abstracts the chat-completion API so the analyzer can be
// tested against a fake.
type ChatClient interface {
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
}

// ClientConfig configures the OpenAI-compatible HTTP client.
type ClientConfig struct {
	APIKey     string
	BaseURL    string
	MaxRetries int
	Timeout    time.Duration
	Throttle   *Throttle
}

// OpenAIClient talks to an OpenAI-compatible chat-completion endpoint with
// throttling, retries with exponential backoff on rate limits, and typed
// error classification.
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	maxRetries int
	httpClient *http.Client
	throttle   *Throttle
	logger     *logger.Logger
}

func NewOpenAIClient(cfg ClientConfig, log *logger.Logger) *OpenAIClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Throttle == nil {
		cfg.Throttle = NewThrottle(DefaultThrottleInterval)
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &OpenAIClient{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		maxRetries: cfg.MaxRetries,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		throttle:   cfg.Throttle,
		logger:     log.WithField("component", "llm_client"),
	}
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Chat sends one chat-completion request. Rate-limit responses are retried
// with exponential backoff; token-budget rejections fail immediately.
func (c *OpenAIClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if c.apiKey == "" {
		return nil, NewAPIError("api key not configured", 0)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, NewAPIError(fmt.Sprintf("marshal request: %v", err), 0)
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.backoffFor(lastErr, attempt)
			c.logger.Debug("retrying chat request in %s (attempt %d/%d)", backoff, attempt+1, c.maxRetries)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := c.throttle.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := c.doRequest(ctx, body)
		if err == nil {
			return resp, nil
		}
		if IsTokenBudget(err) {
			return nil, err
		}
		lastErr = err
	}

	if IsRateLimit(lastErr) {
		return nil, NewRateLimitError(fmt.Sprintf("rate limit exceeded after %d attempts", c.maxRetries))
	}
	return nil, NewAPIError(fmt.Sprintf("request failed after %d attempts: %v", c.maxRetries, lastErr), 0)
}

func (c *OpenAIClient) doRequest(ctx context.Context, body []byte) (*ChatResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, NewAPIError(fmt.Sprintf("build request: %v", err), 0)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, NewAPIError(fmt.Sprintf("http request: %v", err), 0)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, NewAPIError(fmt.Sprintf("read response: %v", err), httpResp.StatusCode)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, c.classifyError(httpResp.StatusCode, respBody)
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, NewAPIError(fmt.Sprintf("decode response: %v", err), httpResp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return nil, NewAPIError("response contained no choices", httpResp.StatusCode)
	}

	return &ChatResponse{
		Content:     strings.TrimSpace(parsed.Choices[0].Message.Content),
		TotalTokens: parsed.Usage.TotalTokens,
	}, nil
}

// classifyError maps an API error response onto the typed error taxonomy.
func (c *OpenAIClient) classifyError(statusCode int, body []byte) error {
	var apiErr apiErrorResponse
	message := string(body)
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		message = apiErr.Error.Message
	}

	if statusCode == http.StatusTooManyRequests {
		return NewRateLimitError(message)
	}

	lower := strings.ToLower(message)
	if apiErr.Error.Code == "context_length_exceeded" ||
		(strings.Contains(lower, "token") && strings.Contains(lower, "limit")) ||
		strings.Contains(lower, "maximum context length") {
		return NewTokenBudgetError(message)
	}

	return NewAPIError(message, statusCode)
}

// backoffFor doubles the delay per attempt on rate limits and uses a flat
// one-second delay for other transient failures.
func (c *OpenAIClient) backoffFor(err error, attempt int) time.Duration {
	if IsRateLimit(err) {
		return time.Duration(1<<uint(attempt-1)) * time.Second
	}
	return time.Second
}
