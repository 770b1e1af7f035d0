// Package out defines outbound ports (driven ports) for the application.
// These interfaces represent dependencies that the application needs.
package out

import (
	"context"
	"errors"

	"github.com/belikedeep/feedbacksense/core/domain"
)

// Classifier failure sentinels. Adapters translate upstream errors into
// these so the pipeline can decide between retry, fallback, and abort.
var (
	// ErrRateLimited signals a retryable quota/rate-limit rejection.
	ErrRateLimited = errors.New("classification service rate limited")

	// ErrMalformedResponse signals an unparseable upstream response.
	// Non-retryable; affects only the item(s) in the failed call.
	ErrMalformedResponse = errors.New("malformed classification response")

	// ErrNotConfigured signals the classifier cannot be attempted at all
	// (e.g. missing credentials). The only error a batch call may raise.
	ErrNotConfigured = errors.New("classification client not configured")
)

// ClassificationClient is the outbound port to the external classification
// service. Implementations own per-call timeouts, retries, and fallback;
// Classify and ClassifyBatch therefore never fail for a single bad item.
type ClassificationClient interface {
	// Classify analyzes one feedback text.
	Classify(ctx context.Context, text string) (*domain.AnalysisResult, error)

	// ClassifyBatch analyzes texts preserving input order and length.
	// It returns an error only when the call cannot be attempted at all.
	ClassifyBatch(ctx context.Context, texts []string) ([]domain.AnalysisResult, error)

	// Stats returns the advisory rolling usage counters.
	Stats() domain.ClassifierStats
}
