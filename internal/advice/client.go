package advice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/Narayana221/FinanceApp/internal/logger"
)

const (
	defaultTimeout    = 15 * time.Second
	defaultRetries    = 1
	defaultRetryDelay = 2 * time.Second
)

// ErrorKind classifies why advice could not be produced.
type ErrorKind string

const (
	ErrorNone         ErrorKind = ""
	ErrorUnconfigured ErrorKind = "UNCONFIGURED"
	ErrorTimeout      ErrorKind = "TIMEOUT"
	ErrorUpstream     ErrorKind = "UPSTREAM"
)

// Result is the outcome of a coaching request. Failures are carried as
// data with a user-facing message; this boundary never returns an error.
type Result struct {
	OK        bool      `json:"ok"`
	Advice    string    `json:"advice,omitempty"`
	ErrorKind ErrorKind `json:"error_kind,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// Coach produces cashflow advice from an aggregate snapshot.
type Coach struct {
	apiKey     string
	model      string
	timeout    time.Duration
	retries    int
	retryDelay time.Duration

	// generate is swapped out in tests.
	generate func(ctx context.Context, prompt string) (string, error)
}

// Option configures a Coach.
type Option func(*Coach)

// WithTimeout overrides the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Coach) { c.timeout = d }
}

// WithRetries overrides the retry count after the first attempt.
func WithRetries(n int) Option {
	return func(c *Coach) { c.retries = n }
}

// WithRetryDelay overrides the pause between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Coach) { c.retryDelay = d }
}

// WithGenerator replaces the model call, for tests.
func WithGenerator(fn func(ctx context.Context, prompt string) (string, error)) Option {
	return func(c *Coach) { c.generate = fn }
}

// NewCoach creates a coach for the given API key and model name.
func NewCoach(apiKey, model string, opts ...Option) *Coach {
	c := &Coach{
		apiKey:     apiKey,
		model:      model,
		timeout:    defaultTimeout,
		retries:    defaultRetries,
		retryDelay: defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.generate == nil {
		c.generate = c.generateContent
	}
	return c
}

// Advise requests coaching tips for the payload. An unconfigured API key or
// an upstream failure produces a Result describing the problem, never an
// error; the rest of the app keeps working without advice.
func (c *Coach) Advise(ctx context.Context, payload Payload) Result {
	if strings.TrimSpace(c.apiKey) == "" {
		return Result{
			OK:        false,
			ErrorKind: ErrorUnconfigured,
			Message:   "AI Coach unavailable. Please configure an API key.",
		}
	}

	prompt := BuildPrompt(payload)
	log := logger.FromContext(ctx)

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return timeoutResult()
			}
			log.Warn().Int("attempt", attempt+1).Msg("retrying advice request")
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		text, err := c.generate(attemptCtx, prompt)
		cancel()
		if err == nil {
			return Result{OK: true, Advice: text}
		}
		lastErr = err
		if ctx.Err() != nil {
			return timeoutResult()
		}
	}

	log.Error().Err(lastErr).Msg("advice request failed")
	if lastErr != nil && strings.Contains(lastErr.Error(), "deadline exceeded") {
		return timeoutResult()
	}
	return Result{
		OK:        false,
		ErrorKind: ErrorUpstream,
		Message:   "AI Coach is temporarily unavailable. Please try again later.",
	}
}

func timeoutResult() Result {
	return Result{
		OK:        false,
		ErrorKind: ErrorTimeout,
		Message:   "AI Coach timed out. Please try again.",
	}
}

// generateContent performs the real model call.
func (c *Coach) generateContent(ctx context.Context, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      c.apiKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return "", fmt.Errorf("generateContent: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generateContent: generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("generateContent: empty response from model")
	}
	return text, nil
}
