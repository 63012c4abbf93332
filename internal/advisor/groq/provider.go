package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"vehicle-bot/internal/advisor"
)

const (
	// DefaultBaseURL is the OpenAI-compatible chat completions endpoint.
	DefaultBaseURL = "https://api.groq.com/openai/v1/chat/completions"

	// DefaultModel is the model used when none is configured.
	DefaultModel = "llama-3.3-70b-versatile"

	maxCompletionTokens = 512
)

// Config contains configuration for the Groq provider.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	MaxRetries     int
	RetryBaseDelay time.Duration
	RequestTimeout time.Duration
}

// Provider implements advisor.Generator against Groq's chat completions API.
type Provider struct {
	config Config
	client *http.Client
	logger zerolog.Logger
}

func New(config Config, logger zerolog.Logger) (*Provider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("groq API key is required")
	}

	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.RetryBaseDelay == 0 {
		config.RetryBaseDelay = 1 * time.Second
	}
	if config.RequestTimeout == 0 {
		config.RequestTimeout = 45 * time.Second
	}

	return &Provider{
		config: config,
		client: &http.Client{Timeout: config.RequestTimeout},
		logger: logger,
	}, nil
}

func (p *Provider) Generate(ctx context.Context, req advisor.AdviceRequest) (*advisor.Advice, error) {
	start := time.Now()

	body, err := json.Marshal(chatRequest{
		Model: p.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(req)},
		},
		MaxTokens:   maxCompletionTokens,
		Temperature: 0.3,
	})
	if err != nil {
		return nil, advisor.WrapError("build request", err)
	}

	resp, err := p.executeWithRetry(ctx, body)
	if err != nil {
		return nil, advisor.WrapError("execute request", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, advisor.WrapError("parse response", fmt.Errorf("empty completion"))
	}

	return &advisor.Advice{
		Text: resp.Choices[0].Message.Content,
		Usage: advisor.UsageInfo{
			Model:        p.config.Model,
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			Duration:     time.Since(start),
		},
	}, nil
}

// executeWithRetry retries transient failures with exponential backoff.
// The request is rebuilt from the body bytes on every attempt.
func (p *Provider) executeWithRetry(ctx context.Context, body []byte) (*chatResponse, error) {
	var lastErr error

	for attempt := 1; attempt <= p.config.MaxRetries; attempt++ {
		resp, err := p.executeRequest(ctx, body)
		if err == nil {
			return resp, nil
		}

		lastErr = err
		if !advisor.IsRetryable(err) {
			return nil, err
		}
		if attempt >= p.config.MaxRetries {
			break
		}

		delay := p.config.RetryBaseDelay * time.Duration(1<<(attempt-1))
		p.logger.Info().Int("attempt", attempt).Dur("delay", delay).Err(err).Msg("retrying advisor request")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

func (p *Provider) executeRequest(ctx context.Context, body []byte) (*chatResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		// Network errors are treated as transient.
		return nil, advisor.ErrUnavailable
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, p.mapHTTPError(resp.StatusCode, bodyBytes)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(bodyBytes, &chatResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &chatResp, nil
}

func (p *Provider) mapHTTPError(statusCode int, body []byte) error {
	var errResp errorResponse
	_ = json.Unmarshal(body, &errResp)

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return advisor.ErrUnauthorized
	case http.StatusTooManyRequests:
		return advisor.ErrRateLimit
	case http.StatusRequestTimeout:
		return advisor.ErrTimeout
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return advisor.ErrUnavailable
	default:
		return fmt.Errorf("API error (status %d): %s", statusCode, errResp.Error.Message)
	}
}

// Groq speaks the OpenAI chat completions wire format.

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
