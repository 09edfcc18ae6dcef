package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"alfredoptarigan/resume-ats/internal/config"
)

const (
	defaultRateLimitDelay = 15 * time.Second
	truncationMarker      = "\n\n[Content truncated due to length]"
)

// TextGenerator is a single call to the remote text-generation API.
type TextGenerator interface {
	GenerateContent(ctx context.Context, model, prompt string) (string, error)
}

// GenerationAPIError is an HTTP-level failure reported by the generation API.
type GenerationAPIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *GenerationAPIError) Error() string {
	return fmt.Sprintf("[%d %s] %s", e.StatusCode, e.Status, e.Message)
}

type genaiGenerator struct {
	client *genai.Client
}

// NewGenAIGenerator creates a TextGenerator backed by the Gemini API.
func NewGenAIGenerator(ctx context.Context, apiKey string) (TextGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &genaiGenerator{client: client}, nil
}

func (g *genaiGenerator) GenerateContent(ctx context.Context, model, prompt string) (string, error) {
	temperature := float32(0.2)
	cfg := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		MaxOutputTokens:  4096,
		ResponseMIMEType: "application/json",
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
	if err != nil {
		return "", toGenerationAPIError(err)
	}
	if resp == nil {
		return "", fmt.Errorf("no response generated (nil response)")
	}

	return resp.Text(), nil
}

func toGenerationAPIError(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		var apiErrPtr *genai.APIError
		if !errors.As(err, &apiErrPtr) || apiErrPtr == nil {
			return err
		}
		apiErr = *apiErrPtr
	}

	message := apiErr.Message
	if len(apiErr.Details) > 0 {
		if details, mErr := json.Marshal(apiErr.Details); mErr == nil {
			message += " " + string(details)
		}
	}

	return &GenerationAPIError{
		StatusCode: apiErr.Code,
		Status:     apiErr.Status,
		Message:    message,
	}
}

// GenerationStatus is the diagnostic view of the generation client.
type GenerationStatus struct {
	Configured        bool       `json:"configured"`
	Enabled           bool       `json:"enabled"`
	KeySource         string     `json:"keySource"`
	ModelCandidates   []string   `json:"modelCandidates"`
	TimeoutMs         int64      `json:"timeoutMs"`
	UnsupportedModels []string   `json:"unsupportedModels"`
	RateLimitedUntil  *time.Time `json:"rateLimitedUntil"`
}

type GeminiService interface {
	// Generate returns the first successful model response with any Markdown
	// code fence removed.
	Generate(ctx context.Context, prompt string) (string, error)
	Status() GenerationStatus
}

type geminiService struct {
	cfg       config.GeminiConfig
	generator TextGenerator
	state     *GenerationState
	log       *zap.Logger
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewGeminiService(cfg config.GeminiConfig, generator TextGenerator, state *GenerationState, log *zap.Logger) GeminiService {
	if state == nil {
		state = NewGenerationState()
	}
	if log == nil {
		log = zap.NewNop()
	}
	cfg.MaxRetries = max(cfg.MaxRetries, 0)

	return &geminiService{
		cfg:       cfg,
		generator: generator,
		state:     state,
		log:       log,
		sleep:     sleepContext,
	}
}

// Generate implements GeminiService.
func (g *geminiService) Generate(ctx context.Context, prompt string) (string, error) {
	if !g.cfg.Enabled {
		return "", ErrDisabled
	}
	if !g.cfg.Configured() || g.generator == nil {
		return "", ErrNotConfigured
	}
	if until, active := g.state.RateLimitedUntil(); active {
		return "", &RateLimitedError{Until: until}
	}

	candidates := g.state.FilterSupported(g.cfg.Models)
	if len(candidates) == 0 {
		return "", ErrNoModelsAvailable
	}

	if g.cfg.ChunkSize > 0 && len(prompt) > g.cfg.ChunkSize {
		g.log.Info("✂️ Large prompt detected, truncating",
			zap.Int("chars", len(prompt)),
			zap.Int("chunk_size", g.cfg.ChunkSize),
		)
		prompt = truncateText(prompt, g.cfg.ChunkSize) + truncationMarker
	}

	var lastErr error
	for _, model := range candidates {
		text, err := g.generateWithRetry(ctx, model, prompt)
		if err == nil {
			generationAttempts.WithLabelValues(model, "success").Inc()
			return CleanJSON(text), nil
		}

		lastErr = err
		generationAttempts.WithLabelValues(model, outcomeLabel(err)).Inc()

		if isUnsupportedModelError(err) {
			g.state.MarkUnsupported(model)
		}
		if isRateLimitError(err) {
			until := g.state.RecordRateLimit(ParseRetryDelay(err))
			g.log.Warn("🚫 Gemini rate-limited", zap.String("model", model), zap.Time("until", until))
		}

		g.log.Error("❌ Gemini call failed", zap.String("model", model), zap.Error(err))

		if ctx.Err() != nil {
			break
		}
	}

	if lastErr == nil {
		lastErr = ErrNoModelsAvailable
	}
	return "", lastErr
}

// generateWithRetry retries only timeouts, with exponential backoff.
func (g *geminiService) generateWithRetry(ctx context.Context, model, prompt string) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= g.cfg.MaxRetries; attempt++ {
		g.log.Debug("🤖 Calling Gemini",
			zap.String("model", model),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", g.cfg.MaxRetries+1),
			zap.Duration("timeout", g.cfg.Timeout),
		)

		text, err := g.callWithTimeout(ctx, model, prompt)
		if err == nil {
			return text, nil
		}

		lastErr = err
		if !errors.Is(err, ErrGenerationTimeout) {
			return "", err
		}
		if attempt == g.cfg.MaxRetries {
			g.log.Error("❌ All attempts timed out", zap.String("model", model), zap.Int("attempts", attempt+1))
			break
		}

		wait := g.cfg.RetryBaseDelay * time.Duration(1<<attempt)
		g.log.Warn("⚠️ Timeout, retrying", zap.String("model", model), zap.Int("attempt", attempt+1), zap.Duration("wait", wait))
		if err := g.sleep(ctx, wait); err != nil {
			return "", err
		}
	}

	if lastErr == nil {
		return "", fmt.Errorf("no generation attempt made for model %s", model)
	}
	return "", lastErr
}

// callWithTimeout races one generation call against the configured timeout.
// A response that arrives after the deadline is dropped.
func (g *geminiService) callWithTimeout(ctx context.Context, model, prompt string) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		text, err := g.generator.GenerateContent(attemptCtx, model, prompt)
		done <- result{text: text, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil && errors.Is(r.err, context.DeadlineExceeded) && ctx.Err() == nil {
			return "", &TimeoutError{Model: model, Timeout: g.cfg.Timeout}
		}
		return r.text, r.err
	case <-attemptCtx.Done():
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &TimeoutError{Model: model, Timeout: g.cfg.Timeout}
	}
}

// Status implements GeminiService.
func (g *geminiService) Status() GenerationStatus {
	status := GenerationStatus{
		Configured:        g.cfg.Configured(),
		Enabled:           g.cfg.Enabled,
		KeySource:         g.cfg.KeySource,
		ModelCandidates:   g.state.FilterSupported(g.cfg.Models),
		TimeoutMs:         g.cfg.Timeout.Milliseconds(),
		UnsupportedModels: g.state.UnsupportedModels(),
	}
	if until, active := g.state.RateLimitedUntil(); active {
		status.RateLimitedUntil = &until
	}
	return status
}

func isUnsupportedModelError(err error) bool {
	var apiErr *GenerationAPIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == 404 {
		return true
	}
	text := strings.ToLower(err.Error())
	return strings.Contains(text, "404 not found") || strings.Contains(text, "is not found for api version")
}

func isRateLimitError(err error) bool {
	var apiErr *GenerationAPIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == 429 {
		return true
	}
	text := strings.ToLower(err.Error())
	return strings.Contains(text, "429 too many requests") || strings.Contains(text, "quota exceeded")
}

var (
	retryInfoDelay  = regexp.MustCompile(`(?i)"retryDelay"\s*:\s*"(\d+)s"`)
	plainRetryDelay = regexp.MustCompile(`(?i)please retry in\s+([\d.]+)s`)
)

// ParseRetryDelay reads the server's retry hint from a rate-limit error,
// defaulting to 15s.
func ParseRetryDelay(err error) time.Duration {
	if err == nil {
		return defaultRateLimitDelay
	}
	message := err.Error()

	if m := retryInfoDelay.FindStringSubmatch(message); m != nil {
		if seconds, convErr := strconv.Atoi(m[1]); convErr == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}

	if m := plainRetryDelay.FindStringSubmatch(message); m != nil {
		if seconds, convErr := strconv.ParseFloat(m[1], 64); convErr == nil && seconds > 0 {
			return time.Duration(math.Ceil(seconds*1000)) * time.Millisecond
		}
	}

	return defaultRateLimitDelay
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, ErrGenerationTimeout):
		return "timeout"
	case isRateLimitError(err):
		return "rate_limited"
	case isUnsupportedModelError(err):
		return "unsupported_model"
	default:
		return "error"
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("context cancelled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// truncateText cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncateText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && n < len(s) && !utf8RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func utf8RuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
