package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/andresuchdata/inventory-tracker/backend-go/internal/config"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/metrics"
)

const (
	defaultTimeout         = 20 * time.Second
	defaultBreakerFailures = 5
	breakerOpenTimeout     = 30 * time.Second
	maxResponseBytes       = 1 << 20
	apiKeyHeader           = "x-goog-api-key"
)

var errMalformedResponse = errors.New("malformed summarizer response: missing candidates[0].content.parts[0].text")

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text *string `json:"text,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// GeminiClient calls a generateContent endpoint once per summary. It does not
// retry; a circuit breaker short-circuits calls while the service keeps failing.
type GeminiClient struct {
	endpoint   string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	metrics    *metrics.Metrics
}

var _ Summarizer = (*GeminiClient)(nil)

// New returns the configured summarizer, or a no-op one when disabled.
func New(cfg config.SummarizerConfig, m *metrics.Metrics) Summarizer {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return NewNoop()
	}
	if cfg.APIKey == "" {
		log.Warn().Msg("summarizer enabled without SUMMARIZER_API_KEY; requests will likely be rejected")
	}
	return NewGeminiClient(cfg, m)
}

func NewGeminiClient(cfg config.SummarizerConfig, m *metrics.Metrics) *GeminiClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	failures := uint32(defaultBreakerFailures)
	if cfg.BreakerFailures > 0 {
		failures = uint32(cfg.BreakerFailures)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "summarizer",
		MaxRequests: 1,
		Timeout:     breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("name", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})

	return &GeminiClient{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    breaker,
		metrics:    m,
	}
}

func (c *GeminiClient) Summarize(ctx context.Context, req Request) Analysis {
	start := time.Now()

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.generate(ctx, Prompt(req))
	})
	if err != nil {
		c.metrics.ObserveSummarizer(metrics.OutcomeUnavailable, time.Since(start).Seconds())
		log.Warn().Err(err).Str("item", req.ItemName).Msg("summarizer unavailable")
		return Unavailable(err)
	}

	c.metrics.ObserveSummarizer(metrics.OutcomeOK, time.Since(start).Seconds())
	return Text(result.(string))
}

func (c *GeminiClient) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: &prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("encode summarizer request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build summarizer request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("summarizer request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read summarizer response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("summarizer returned HTTP %d", resp.StatusCode)
	}

	var decoded generateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("decode summarizer response: %w", err)
	}

	if len(decoded.Candidates) == 0 ||
		len(decoded.Candidates[0].Content.Parts) == 0 ||
		decoded.Candidates[0].Content.Parts[0].Text == nil {
		return "", errMalformedResponse
	}

	return *decoded.Candidates[0].Content.Parts[0].Text, nil
}
