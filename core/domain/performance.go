package domain

import "time"

// UsageLedgerEntry pairs one AI prediction with the human correction that
// followed it. Entries are append-only; the ledger is bounded and evicts
// oldest entries past its configured maximum.
type UsageLedgerEntry struct {
	TextHash   string    `json:"text_hash"` // stable hash of the feedback text
	Prediction Category  `json:"prediction"`
	Correction Category  `json:"correction"`
	Confidence float64   `json:"confidence"`
	RecordedAt time.Time `json:"recorded_at"`
}

// PerformanceMetrics summarizes classifier accuracy from recorded
// prediction/correction pairs. With zero entries every field is its zero
// value and PerCategoryAccuracy is an empty map.
type PerformanceMetrics struct {
	Accuracy                  float64              `json:"accuracy"`
	TotalRecorded             int                  `json:"total_recorded"`
	PerCategoryAccuracy       map[Category]float64 `json:"per_category_accuracy"`
	MeanConfidenceWhenCorrect float64              `json:"mean_confidence_when_correct"`
	MeanConfidenceWhenWrong   float64              `json:"mean_confidence_when_wrong"`
}

// ClassifierStats is the advisory usage counter exposed by the
// classification client. It does not gate calls; callers use it for
// logging and alerting.
type ClassifierStats struct {
	CallsMade       int64     `json:"calls_made"`
	ItemsClassified int64     `json:"items_classified"`
	Fallbacks       int64     `json:"fallbacks"`
	Retries         int64     `json:"retries"`
	CacheHits       int64     `json:"cache_hits"`
	WindowStart     time.Time `json:"window_start"`
}
