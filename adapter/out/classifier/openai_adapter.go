// Package classifier implements out.ClassificationClient on top of the
// OpenAI chat API, with retries, a circuit breaker, result caching, and a
// deterministic heuristic fallback.
package classifier

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/belikedeep/feedbacksense/core/agent/llm"
	"github.com/belikedeep/feedbacksense/core/domain"
	"github.com/belikedeep/feedbacksense/core/port/out"
	"github.com/belikedeep/feedbacksense/core/service/heuristic"
	"github.com/belikedeep/feedbacksense/pkg/logger"
)

// feedbackLLM is the slice of the LLM client the adapter needs. Narrowed
// to an interface so tests can substitute a fake.
type feedbackLLM interface {
	ClassifyFeedback(ctx context.Context, text string) (*llm.ClassificationResponse, error)
	ClassifyFeedbackBatch(ctx context.Context, items []llm.BatchClassifyInput) ([]llm.BatchClassifyResult, error)
}

// RetryPolicy controls transient-failure retries. Delay grows as
// BaseDelay * 2^attempt.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// Config holds adapter settings.
type Config struct {
	// CallTimeout bounds each individual upstream attempt. Zero disables
	// the per-attempt deadline.
	CallTimeout time.Duration
	Retry       RetryPolicy
	CacheTTL    time.Duration
}

// DefaultConfig returns production settings.
func DefaultConfig() Config {
	return Config{
		CallTimeout: 30 * time.Second,
		Retry:       RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second},
		CacheTTL:    30 * time.Minute,
	}
}

// OpenAIAdapter classifies feedback through OpenAI and degrades to the
// heuristic analyzer whenever the upstream is unusable. Classify and
// ClassifyBatch return an error only on context cancellation.
type OpenAIAdapter struct {
	llm      feedbackLLM
	fallback *heuristic.Analyzer
	cache    out.ResultCache // optional, nil disables caching
	cb       *gobreaker.CircuitBreaker
	cfg      Config
	log      *logger.Logger

	mu    sync.Mutex
	stats domain.ClassifierStats
}

var _ out.ClassificationClient = (*OpenAIAdapter)(nil)

// NewOpenAIAdapter creates the adapter. client may be nil when no API key
// is configured; every call then takes the heuristic path.
func NewOpenAIAdapter(client *llm.Client, cache out.ResultCache, cfg Config) *OpenAIAdapter {
	var fc feedbackLLM
	if client != nil {
		fc = client
	}
	return newAdapter(fc, cache, cfg)
}

func newAdapter(client feedbackLLM, cache out.ResultCache, cfg Config) *OpenAIAdapter {
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry.MaxAttempts = 1
	}

	log := logger.Default().WithField("component", "classifier")

	cbSettings := gobreaker.Settings{
		Name:        "openai-classify",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker %s: %s -> %s", name, from.String(), to.String())
		},
	}

	return &OpenAIAdapter{
		llm:      client,
		fallback: heuristic.NewAnalyzer(),
		cache:    cache,
		cb:       gobreaker.NewCircuitBreaker(cbSettings),
		cfg:      cfg,
		log:      log,
		stats:    domain.ClassifierStats{WindowStart: time.Now()},
	}
}

// Classify analyzes one feedback text. Upstream failure is absorbed by
// the heuristic fallback; only context cancellation surfaces as an error.
func (a *OpenAIAdapter) Classify(ctx context.Context, text string) (*domain.AnalysisResult, error) {
	if a.cache != nil {
		var cached domain.AnalysisResult
		hit, err := a.cache.GetJSON(ctx, cacheKey(text), &cached)
		if err != nil {
			a.log.WithError(err).Warn("result cache read failed")
		} else if hit {
			a.bump(func(s *domain.ClassifierStats) { s.CacheHits++ })
			return &cached, nil
		}
	}

	resp, err := a.classifyWithRetry(ctx, text)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.log.WithError(err).Warn("classification degraded to heuristic")
		result := a.heuristicResult(text)
		return &result, nil
	}

	result := resp.ToAnalysisResult()
	a.bump(func(s *domain.ClassifierStats) { s.ItemsClassified++ })

	if a.cache != nil {
		if err := a.cache.SetJSON(ctx, cacheKey(text), result, a.cfg.CacheTTL); err != nil {
			a.log.WithError(err).Warn("result cache write failed")
		}
	}

	return &result, nil
}

// ClassifyBatch analyzes texts in one upstream call, preserving input
// order and length. Items the model drops or mangles fall back to the
// heuristic analyzer individually.
func (a *OpenAIAdapter) ClassifyBatch(ctx context.Context, texts []string) ([]domain.AnalysisResult, error) {
	if len(texts) == 0 {
		return []domain.AnalysisResult{}, nil
	}

	inputs := make([]llm.BatchClassifyInput, len(texts))
	for i, text := range texts {
		inputs[i] = llm.BatchClassifyInput{ID: i, Content: text}
	}

	raw, err := a.classifyBatchWithRetry(ctx, inputs)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.log.WithError(err).Warn("batch classification degraded to heuristic for %d item(s)", len(texts))
		results := make([]domain.AnalysisResult, len(texts))
		for i, text := range texts {
			results[i] = a.heuristicResult(text)
		}
		return results, nil
	}

	results := make([]domain.AnalysisResult, len(texts))
	filled := make([]bool, len(texts))
	classified := int64(0)
	for i := range raw {
		id := raw[i].ID
		if id < 0 || id >= len(texts) || filled[id] {
			continue
		}
		results[id] = raw[i].ToAnalysisResult()
		filled[id] = true
		classified++
	}
	a.bump(func(s *domain.ClassifierStats) { s.ItemsClassified += classified })

	for i := range filled {
		if !filled[i] {
			results[i] = a.heuristicResult(texts[i])
		}
	}

	return results, nil
}

// Stats returns a copy of the rolling usage counters.
func (a *OpenAIAdapter) Stats() domain.ClassifierStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

func (a *OpenAIAdapter) classifyWithRetry(ctx context.Context, text string) (*llm.ClassificationResponse, error) {
	var resp *llm.ClassificationResponse
	err := a.withRetry(ctx, func(attemptCtx context.Context) error {
		r, callErr := a.llm.ClassifyFeedback(attemptCtx, text)
		if callErr != nil {
			return translateError(callErr)
		}
		resp = r
		return nil
	})
	return resp, err
}

func (a *OpenAIAdapter) classifyBatchWithRetry(ctx context.Context, inputs []llm.BatchClassifyInput) ([]llm.BatchClassifyResult, error) {
	var results []llm.BatchClassifyResult
	err := a.withRetry(ctx, func(attemptCtx context.Context) error {
		r, callErr := a.llm.ClassifyFeedbackBatch(attemptCtx, inputs)
		if callErr != nil {
			return translateError(callErr)
		}
		results = r
		return nil
	})
	return results, err
}

// withRetry runs fn through the circuit breaker with exponential backoff.
// Non-retryable errors and open-circuit rejections abort immediately.
func (a *OpenAIAdapter) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	if a.llm == nil {
		return out.ErrNotConfigured
	}

	var lastErr error
	for attempt := 0; attempt < a.cfg.Retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			a.bump(func(s *domain.ClassifierStats) { s.Retries++ })
			delay := a.cfg.Retry.BaseDelay * time.Duration(1<<attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		a.bump(func(s *domain.ClassifierStats) { s.CallsMade++ })

		_, err := a.cb.Execute(func() (interface{}, error) {
			attemptCtx := ctx
			if a.cfg.CallTimeout > 0 {
				var cancel context.CancelFunc
				attemptCtx, cancel = context.WithTimeout(ctx, a.cfg.CallTimeout)
				defer cancel()
			}
			return nil, fn(attemptCtx)
		})
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !isRetryableError(err) {
			return err
		}
	}

	return lastErr
}

func (a *OpenAIAdapter) heuristicResult(text string) domain.AnalysisResult {
	a.bump(func(s *domain.ClassifierStats) { s.Fallbacks++ })
	return a.fallback.Analyze(text)
}

func (a *OpenAIAdapter) bump(fn func(*domain.ClassifierStats)) {
	a.mu.Lock()
	fn(&a.stats)
	a.mu.Unlock()
}

// translateError maps upstream failures onto the port sentinels the retry
// loop understands.
func translateError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "429"):
		return fmt.Errorf("%w: %v", out.ErrRateLimited, err)
	case strings.Contains(msg, "parse"):
		return fmt.Errorf("%w: %v", out.ErrMalformedResponse, err)
	default:
		return err
	}
}

func isRetryableError(err error) bool {
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "429") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "deadline exceeded") ||
		strings.Contains(msg, "503") ||
		strings.Contains(msg, "502")
}

func cacheKey(text string) string {
	hash := sha256.Sum256([]byte(text))
	return "classify:" + hex.EncodeToString(hash[:16])
}
