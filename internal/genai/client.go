// internal/genai/client.go
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	apperrors "codag/internal/common/errors"
	"codag/internal/common/logger"
	"codag/internal/common/metrics"
	"codag/internal/models"
)

// Client issues generation requests to the external model service with
// bounded retry on rate-limit signals. It is immutable after construction
// and safe for concurrent use.
type Client struct {
	cfg        *Config
	httpClient *http.Client
	logger     logger.Logger
}

func NewClient(cfg *Config, log logger.Logger) *Client {
	return &Client{
		cfg: cfg,
		// No client-level timeout; the caller's context bounds the call.
		httpClient: &http.Client{},
		logger: log.With(map[string]interface{}{
			"component": "genai",
			"model":     cfg.Model,
		}),
	}
}

// Generate performs one logical generation request. Only rate-limit/quota
// failures are retried (up to cfg.MaxAttempts calls total); every other
// failure surfaces after a single attempt.
func (c *Client) Generate(ctx context.Context, req *models.GenerationRequest) (*models.RawResponse, error) {
	prompt := BuildPrompt(req)

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			wait := backoffDelay(attempt-1, lastErr, c.cfg.RetryBaseWait)
			c.logger.Warn("rate limit hit, backing off", map[string]interface{}{
				"attempt": attempt,
				"wait":    wait.String(),
			})
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, apperrors.NewTransportFailureError(ctx.Err())
			}
		}

		resp, err := c.call(ctx, prompt)
		if err == nil {
			return c.classifyResponse(resp)
		}

		if ctx.Err() != nil {
			metrics.GenerationAttempts.WithLabelValues("cancelled").Inc()
			return nil, apperrors.NewTransportFailureError(ctx.Err())
		}

		if !isRateLimit(err) {
			metrics.GenerationAttempts.WithLabelValues("transport_failure").Inc()
			return nil, apperrors.NewTransportFailureError(err)
		}

		metrics.GenerationAttempts.WithLabelValues("rate_limited").Inc()
		lastErr = err
	}

	return nil, apperrors.NewRateLimitedError(lastErr)
}

// --- wire types ---

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// generationConfig pins sampling so retries of the same request are the
// closest-available approximation of a repeatable call.
type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

// apiError is the structured error body the model service returns on
// non-2xx responses.
type apiError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *apiError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("genai: %d %s: %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("genai: status %d: %s", e.StatusCode, e.Message)
}

func (c *Client) call(ctx context.Context, prompt string) (*generateResponse, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     c.cfg.Temperature,
			TopP:            1,
			TopK:            1,
			MaxOutputTokens: c.cfg.MaxOutputTokens,
		},
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.cfg.BaseURL, c.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error.Message != "" {
		return &apiError{StatusCode: resp.StatusCode, Status: body.Error.Status, Message: body.Error.Message}
	}
	return &apiError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
}

func (c *Client) classifyResponse(resp *generateResponse) (*models.RawResponse, error) {
	finish := ""
	if len(resp.Candidates) > 0 {
		finish = resp.Candidates[0].FinishReason
	}

	switch finish {
	case "MAX_TOKENS":
		metrics.GenerationAttempts.WithLabelValues("token_limit").Inc()
		return nil, apperrors.NewTokenLimitExceededError()
	case "SAFETY":
		metrics.GenerationAttempts.WithLabelValues("safety_blocked").Inc()
		return nil, apperrors.NewSafetyBlockedError()
	case "STOP", "FINISH_REASON_UNSPECIFIED", "UNSPECIFIED", "":
		// normal completion, fall through
	default:
		metrics.GenerationAttempts.WithLabelValues("abnormal_finish").Inc()
		return nil, apperrors.NewGenerationUnknownError(finish)
	}

	signal := models.FinishComplete
	if finish != "STOP" {
		signal = models.FinishUnspecified
	}

	var text strings.Builder
	if len(resp.Candidates) > 0 {
		for _, p := range resp.Candidates[0].Content.Parts {
			text.WriteString(p.Text)
		}
	}

	metrics.GenerationAttempts.WithLabelValues("success").Inc()
	return &models.RawResponse{Text: text.String(), FinishSignal: signal}, nil
}

// isRateLimit classifies a transport error as a retryable rate-limit/quota
// signal. Structured codes win; the substring check is a fallback for
// error bodies without a recognized status.
func isRateLimit(err error) bool {
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		// Dial/TLS/read failures carry no service signal; treated as
		// non-transient.
		return false
	}
	if apiErr.StatusCode == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED" {
		return true
	}
	msg := strings.ToLower(apiErr.Message)
	return strings.Contains(msg, "429") || strings.Contains(msg, "quota") || strings.Contains(msg, "rate")
}

var retryHintRe = regexp.MustCompile(`(?i)retry in ([\d.]+)`)

// parseRetryHint extracts a service-specified retry delay (milliseconds
// after "retry in") from an error message. The extra second pads out
// clock skew against the quota window.
func parseRetryHint(msg string) (time.Duration, bool) {
	m := retryHintRe.FindStringSubmatch(msg)
	if m == nil {
		return 0, false
	}
	millis, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return time.Duration((millis/1000 + 1) * float64(time.Second)), true
}

// backoffDelay computes the wait after failed attempt attemptIndex. A
// service retry hint overrides the exponential default.
func backoffDelay(attemptIndex int, err error, base time.Duration) time.Duration {
	if err != nil {
		if hint, ok := parseRetryHint(err.Error()); ok {
			return hint
		}
	}
	return base << uint(attemptIndex)
}
