// Package performance measures classifier accuracy from human corrections.
package performance

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/belikedeep/feedbacksense/core/domain"
)

// DefaultMaxEntries bounds the in-memory ledger.
const DefaultMaxEntries = 1000

// Tracker keeps a bounded, append-only ledger of prediction/correction
// pairs and derives accuracy metrics from it. Safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	entries []domain.UsageLedgerEntry
	max     int
}

// NewTracker creates a tracker holding at most maxEntries; older entries
// are evicted first. maxEntries <= 0 selects the default.
func NewTracker(maxEntries int) *Tracker {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Tracker{max: maxEntries}
}

// Record appends one prediction/correction pair. The feedback text is
// stored only as a hash.
func (t *Tracker) Record(text string, prediction, correction domain.Category, confidence float64) {
	entry := domain.UsageLedgerEntry{
		TextHash:   hashText(text),
		Prediction: prediction,
		Correction: correction,
		Confidence: confidence,
		RecordedAt: time.Now(),
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = append(t.entries, entry)
	if len(t.entries) > t.max {
		t.entries = t.entries[len(t.entries)-t.max:]
	}
}

// Metrics summarizes the ledger. An empty ledger yields the zero struct
// with an empty per-category map, never an error.
func (t *Tracker) Metrics() domain.PerformanceMetrics {
	t.mu.Lock()
	defer t.mu.Unlock()

	metrics := domain.PerformanceMetrics{
		TotalRecorded:       len(t.entries),
		PerCategoryAccuracy: make(map[domain.Category]float64),
	}
	if len(t.entries) == 0 {
		return metrics
	}

	correct := 0
	var confCorrect, confWrong float64
	wrong := 0
	perCategoryTotal := make(map[domain.Category]int)
	perCategoryCorrect := make(map[domain.Category]int)

	for _, e := range t.entries {
		perCategoryTotal[e.Correction]++
		if e.Prediction == e.Correction {
			correct++
			confCorrect += e.Confidence
			perCategoryCorrect[e.Correction]++
		} else {
			wrong++
			confWrong += e.Confidence
		}
	}

	metrics.Accuracy = float64(correct) / float64(len(t.entries))
	for category, total := range perCategoryTotal {
		metrics.PerCategoryAccuracy[category] = float64(perCategoryCorrect[category]) / float64(total)
	}
	if correct > 0 {
		metrics.MeanConfidenceWhenCorrect = confCorrect / float64(correct)
	}
	if wrong > 0 {
		metrics.MeanConfidenceWhenWrong = confWrong / float64(wrong)
	}

	return metrics
}

// Snapshot returns a copy of the ledger, oldest first, for persistence.
func (t *Tracker) Snapshot() []domain.UsageLedgerEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries := make([]domain.UsageLedgerEntry, len(t.entries))
	copy(entries, t.entries)
	return entries
}

// Restore replaces the ledger with a persisted snapshot, keeping only the
// newest entries when the snapshot exceeds the bound.
func (t *Tracker) Restore(entries []domain.UsageLedgerEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(entries) > t.max {
		entries = entries[len(entries)-t.max:]
	}
	t.entries = make([]domain.UsageLedgerEntry, len(entries))
	copy(t.entries, entries)
}

func hashText(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:16])
}
