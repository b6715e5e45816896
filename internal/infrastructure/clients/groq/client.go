package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/virtuefdn/medbridge/backend/pkg/config"
)

const defaultBaseURL = "https://api.groq.com/openai/v1"

// Client talks to the Groq chat completions API.
type Client struct {
	apiKey        string
	model         string
	fallbackModel string
	baseURL       string
	httpClient    *http.Client
	limiter       *tokenBucket
}

// NewClient creates a new Groq client.
func NewClient(cfg *config.GroqConfig) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("groq api key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "openai/gpt-oss-120b"
	}
	fallback := cfg.FallbackModel
	if fallback == "" {
		fallback = "llama-3.3-70b-versatile"
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		apiKey:        cfg.APIKey,
		model:         model,
		fallbackModel: fallback,
		baseURL:       baseURL,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		limiter: newTokenBucket(60, 5),
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Chat runs a completion against the primary model and falls back to the
// secondary model on failure.
func (c *Client) Chat(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	messages := []chatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}

	var lastErr error
	for _, model := range []string{c.model, c.fallbackModel} {
		text, err := c.complete(ctx, model, messages, maxTokens, temperature)
		if err == nil {
			return text, nil
		}
		lastErr = err
		log.Warn().Err(err).Str("model", model).Msg("groq model failed")
	}
	return "", fmt.Errorf("all groq models failed: %w", lastErr)
}

func (c *Client) complete(ctx context.Context, model string, messages []chatMessage, maxTokens int, temperature float64) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		recordGroqMetric(ctx, model, 0, time.Since(start), err)
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("groq request failed with status %d", resp.StatusCode)
		recordGroqMetric(ctx, model, resp.StatusCode, time.Since(start), err)
		return "", err
	}

	var envelope chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		recordGroqMetric(ctx, model, resp.StatusCode, time.Since(start), err)
		return "", err
	}
	if len(envelope.Choices) == 0 {
		err := errors.New("groq response missing choices")
		recordGroqMetric(ctx, model, resp.StatusCode, time.Since(start), err)
		return "", err
	}

	recordGroqMetric(ctx, model, resp.StatusCode, time.Since(start), nil)
	return envelope.Choices[0].Message.Content, nil
}

// stripCodeFence removes a surrounding markdown code block, if any.
func stripCodeFence(text string) string {
	cleaned := strings.TrimSpace(text)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}
	lines := strings.Split(cleaned, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func newTokenBucket(rpm int, burst int) *tokenBucket {
	if rpm <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 5
	}

	bucket := &tokenBucket{
		tokens: make(chan struct{}, burst),
	}
	for i := 0; i < burst; i++ {
		bucket.tokens <- struct{}{}
	}

	interval := time.Minute / time.Duration(rpm)
	if interval <= 0 {
		interval = time.Millisecond
	}

	ticker := time.NewTicker(interval)
	go func() {
		for range ticker.C {
			select {
			case bucket.tokens <- struct{}{}:
			default:
			}
		}
	}()

	return bucket
}

type tokenBucket struct {
	tokens chan struct{}
}

func (b *tokenBucket) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.tokens:
		return nil
	}
}

type groqMetrics struct {
	requestCount    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestErrors   metric.Int64Counter
}

var groqMetricsInit = false
var groqMetricsInst groqMetrics

func ensureGroqMetrics() {
	if groqMetricsInit {
		return
	}
	meter := otel.Meter("github.com/virtuefdn/medbridge/backend/groq")

	requestCount, err := meter.Int64Counter(
		"ai.groq.request.count",
		metric.WithDescription("Number of Groq requests"),
	)
	if err != nil {
		return
	}
	requestDuration, err := meter.Float64Histogram(
		"ai.groq.request.duration",
		metric.WithDescription("Groq request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return
	}
	requestErrors, err := meter.Int64Counter(
		"ai.groq.request.errors",
		metric.WithDescription("Number of Groq request errors"),
	)
	if err != nil {
		return
	}

	groqMetricsInst = groqMetrics{
		requestCount:    requestCount,
		requestDuration: requestDuration,
		requestErrors:   requestErrors,
	}
	groqMetricsInit = true
}

func recordGroqMetric(ctx context.Context, model string, statusCode int, duration time.Duration, err error) {
	ensureGroqMetrics()
	if !groqMetricsInit {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("ai.provider", "groq"),
		attribute.String("ai.model", model),
	}
	if statusCode > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", statusCode))
	}

	groqMetricsInst.requestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	groqMetricsInst.requestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	if err != nil {
		groqMetricsInst.requestErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}
