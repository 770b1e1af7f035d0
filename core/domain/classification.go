package domain

import (
	"time"

	"github.com/google/uuid"
)

// ClassificationMethod indicates how a category assignment was produced.
type ClassificationMethod string

const (
	MethodAIClassification  ClassificationMethod = "ai_classification"  // External classification service
	MethodHeuristicFallback ClassificationMethod = "heuristic_fallback" // Deterministic lexical fallback
	MethodManualOverride    ClassificationMethod = "manual_override"    // Human-supplied category
)

// ClassificationEvent is one immutable entry in a feedback item's audit
// trail. Events are appended in chronological order and never mutated;
// the latest event's category equals the item's current category.
type ClassificationEvent struct {
	Timestamp  time.Time            `json:"timestamp"`
	Category   Category             `json:"category"`
	Confidence float64              `json:"confidence"`
	Method     ClassificationMethod `json:"method"`
	Reasoning  string               `json:"reasoning,omitempty"`

	// PreviousCategory is set only for manual overrides, recording what
	// the override replaced.
	PreviousCategory *Category `json:"previous_category,omitempty"`
}

// Progress reports batch completion after each window.
type Progress struct {
	Processed        int     `json:"processed"`
	Total            int     `json:"total"`
	Percentage       float64 `json:"percentage"`
	BatchesCompleted int     `json:"batches_completed"`
	TotalBatches     int     `json:"total_batches"`
}

// ProgressFunc is invoked once per completed batch window. A nil callback
// is allowed and skipped.
type ProgressFunc func(Progress)

// BulkError records a single item's failure inside a bulk operation.
type BulkError struct {
	ItemID uuid.UUID `json:"item_id"`
	Reason string    `json:"reason"`
}

// BulkSummary is the always-returned outcome of a bulk operation. Partial
// failure is reported here rather than as an error, so callers can always
// observe how far the run got.
type BulkSummary struct {
	Total     int         `json:"total"`
	Processed int         `json:"processed"`
	Failed    int         `json:"failed"`
	Errors    []BulkError `json:"errors,omitempty"`
}
