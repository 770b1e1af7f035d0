// Package in defines inbound ports (driving ports) for the application.
package in

import (
	"context"

	"github.com/google/uuid"

	"github.com/belikedeep/feedbacksense/core/domain"
)

// ReanalyzeRequest drives a bulk re-analysis over stored feedback.
type ReanalyzeRequest struct {
	Filter  domain.FeedbackFilter
	Profile string // batch profile name: default, csv_import, reanalysis

	// Force re-applies the AI category even to manually overridden items.
	// Without it, overridden items keep their human-assigned category.
	Force bool

	OnProgress domain.ProgressFunc
}

// AnalysisService is the inbound port exposing the feedback classification
// pipeline to route and CLI layers.
type AnalysisService interface {
	// AnalyzeAndCategorize classifies one feedback text synchronously.
	// Classifier failures degrade to the heuristic analyzer; the returned
	// error is non-nil only for empty input.
	AnalyzeAndCategorize(ctx context.Context, text string) (*domain.AnalysisResult, error)

	// BatchReanalyze classifies items in windows of batchSize, preserving
	// input order and length. onProgress fires once per completed window.
	BatchReanalyze(ctx context.Context, items []*domain.FeedbackItem, batchSize int, onProgress domain.ProgressFunc) ([]domain.AnalysisResult, error)

	// ReanalyzeStored loads feedback from the record store, re-classifies
	// it, and persists the outcomes. Per-item write failures land in the
	// summary; the run never aborts on one bad item.
	ReanalyzeStored(ctx context.Context, req ReanalyzeRequest) (*domain.BulkSummary, error)

	// ApplyUserCategory records a human correction: sets the category with
	// maximum confidence, flags the manual override, appends exactly one
	// history event, and feeds the performance ledger. With reanalyze set,
	// a fresh analysis refreshes sentiment and topics but the manual
	// category still wins.
	ApplyUserCategory(ctx context.Context, id uuid.UUID, category domain.Category, reanalyze bool) error

	// GetAIPerformanceMetrics returns rolling accuracy metrics. Safe on an
	// empty ledger.
	GetAIPerformanceMetrics() domain.PerformanceMetrics
}
