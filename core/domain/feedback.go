package domain

import (
	"time"

	"github.com/google/uuid"
)

// Category represents the semantic intent of a feedback item.
type Category string

const (
	// === Product Categories ===
	CategoryBugReport      Category = "bug_report"      // Defect reports, crashes, broken behavior
	CategoryFeatureRequest Category = "feature_request" // Requests for new capabilities
	CategoryUsageIssue     Category = "usage_issue"     // Confusion, friction, how-do-I questions about existing features

	// === Relationship Categories ===
	CategoryComplaint Category = "complaint" // General dissatisfaction without a concrete defect
	CategoryPraise    Category = "praise"    // Positive feedback, thanks, endorsements
	CategoryQuestion  Category = "question"  // Open questions not tied to a usage problem

	// === Commercial ===
	CategoryBilling Category = "billing" // Pricing, invoices, refunds, subscription issues

	// === Catch-all ===
	CategoryOther Category = "other" // Doesn't fit other categories
)

// AllCategories lists every valid category, catch-all last.
var AllCategories = []Category{
	CategoryBugReport,
	CategoryFeatureRequest,
	CategoryUsageIssue,
	CategoryComplaint,
	CategoryPraise,
	CategoryQuestion,
	CategoryBilling,
	CategoryOther,
}

// ParseCategory validates a raw category string, falling back to the
// catch-all for anything the classifier invents.
func ParseCategory(s string) Category {
	c := Category(s)
	for _, known := range AllCategories {
		if c == known {
			return c
		}
	}
	return CategoryOther
}

// IsValid reports whether c is a known category.
func (c Category) IsValid() bool {
	return ParseCategory(string(c)) == c
}

// SentimentLabel represents the coarse sentiment of a feedback item.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentNegative SentimentLabel = "negative"
)

// ParseSentimentLabel validates a raw sentiment string, defaulting to neutral.
func ParseSentimentLabel(s string) SentimentLabel {
	switch SentimentLabel(s) {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return SentimentLabel(s)
	default:
		return SentimentNeutral
	}
}

// FeedbackItem is the pipeline's view of a stored feedback record.
// The record store owns the full entity; the pipeline reads and writes
// only the classification-related fields below.
type FeedbackItem struct {
	ID             uuid.UUID      `json:"id"`
	Content        string         `json:"content"`
	Category       Category       `json:"category"`
	SentimentLabel SentimentLabel `json:"sentiment_label"`
	SentimentScore float64        `json:"sentiment_score"` // 0.0 (negative) .. 1.0 (positive)
	Topics         []string       `json:"topics,omitempty"`

	// AIConfidence is nil until the item has been AI-classified at least once.
	AIConfidence *float64 `json:"ai_confidence,omitempty"`

	// ManualOverride is true once a human has explicitly set the category.
	// It stays true until an explicit re-analysis clears it.
	ManualOverride bool `json:"manual_override"`

	// History is the append-only classification audit trail. The most
	// recent event's category always equals Category.
	History []ClassificationEvent `json:"history,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AnalysisResult is the unit outcome of classifying one piece of feedback,
// produced by the AI client or the heuristic analyzer.
type AnalysisResult struct {
	Category       Category             `json:"category"`
	Confidence     float64              `json:"confidence"` // 0.0 .. 1.0
	SentimentLabel SentimentLabel       `json:"sentiment_label"`
	SentimentScore float64              `json:"sentiment_score"`
	Topics         []string             `json:"topics,omitempty"`
	Reasoning      string               `json:"reasoning,omitempty"`
	Method         ClassificationMethod `json:"method"`
}

// FeedbackFilter narrows FindMany queries on the record store.
// Zero-value fields are ignored.
type FeedbackFilter struct {
	IDs            []uuid.UUID
	Category       *Category
	ManualOverride *bool
	CreatedAfter   *time.Time
	Limit          int
}

// FeedbackUpdate carries a partial-field update for one feedback item.
// Nil pointers leave the stored field untouched.
type FeedbackUpdate struct {
	Category       *Category
	SentimentLabel *SentimentLabel
	SentimentScore *float64
	Topics         []string // nil = untouched, empty slice = clear
	AIConfidence   *float64
	ManualOverride *bool
	History        []ClassificationEvent // full replacement when non-nil
}
