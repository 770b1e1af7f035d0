package performance

import (
	"fmt"
	"sync"
	"testing"

	"github.com/belikedeep/feedbacksense/core/domain"
)

func TestMetricsEmptyLedger(t *testing.T) {
	tracker := NewTracker(0)

	m := tracker.Metrics()
	if m.TotalRecorded != 0 {
		t.Errorf("total recorded = %d, want 0", m.TotalRecorded)
	}
	if m.Accuracy != 0 {
		t.Errorf("accuracy = %f, want 0", m.Accuracy)
	}
	if m.PerCategoryAccuracy == nil {
		t.Error("per-category map must be non-nil on empty ledger")
	}
}

func TestMetricsAccuracy(t *testing.T) {
	tracker := NewTracker(100)

	// 4 of 5 predictions match their corrections.
	tracker.Record("a", domain.CategoryBugReport, domain.CategoryBugReport, 1.0)
	tracker.Record("b", domain.CategoryPraise, domain.CategoryPraise, 0.5)
	tracker.Record("c", domain.CategoryBilling, domain.CategoryBilling, 1.0)
	tracker.Record("d", domain.CategoryQuestion, domain.CategoryQuestion, 0.5)
	tracker.Record("e", domain.CategoryOther, domain.CategoryComplaint, 0.5)

	m := tracker.Metrics()
	if m.TotalRecorded != 5 {
		t.Errorf("total recorded = %d, want 5", m.TotalRecorded)
	}
	if m.Accuracy != 0.8 {
		t.Errorf("accuracy = %f, want 0.8", m.Accuracy)
	}
	if got := m.MeanConfidenceWhenCorrect; got != 0.75 {
		t.Errorf("mean confidence when correct = %f, want 0.75", got)
	}
	if got := m.MeanConfidenceWhenWrong; got != 0.5 {
		t.Errorf("mean confidence when wrong = %f, want 0.5", got)
	}
}

func TestMetricsPerCategory(t *testing.T) {
	tracker := NewTracker(100)

	tracker.Record("a", domain.CategoryBugReport, domain.CategoryBugReport, 0.9)
	tracker.Record("b", domain.CategoryComplaint, domain.CategoryBugReport, 0.6)
	tracker.Record("c", domain.CategoryPraise, domain.CategoryPraise, 0.9)

	m := tracker.Metrics()
	if got := m.PerCategoryAccuracy[domain.CategoryBugReport]; got != 0.5 {
		t.Errorf("bug_report accuracy = %f, want 0.5", got)
	}
	if got := m.PerCategoryAccuracy[domain.CategoryPraise]; got != 1.0 {
		t.Errorf("praise accuracy = %f, want 1.0", got)
	}
}

func TestRecordEvictsOldest(t *testing.T) {
	tracker := NewTracker(3)

	// First two entries are wrong predictions, the rest correct.
	tracker.Record("old-1", domain.CategoryOther, domain.CategoryBilling, 0.5)
	tracker.Record("old-2", domain.CategoryOther, domain.CategoryBilling, 0.5)
	for i := 0; i < 3; i++ {
		tracker.Record(fmt.Sprintf("new-%d", i), domain.CategoryPraise, domain.CategoryPraise, 0.9)
	}

	m := tracker.Metrics()
	if m.TotalRecorded != 3 {
		t.Errorf("total recorded = %d, want 3 (bounded)", m.TotalRecorded)
	}
	if m.Accuracy != 1.0 {
		t.Errorf("accuracy = %f, want 1.0 after wrong entries evicted", m.Accuracy)
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	tracker := NewTracker(10)
	tracker.Record("a", domain.CategoryBugReport, domain.CategoryBugReport, 0.9)
	tracker.Record("b", domain.CategoryPraise, domain.CategoryComplaint, 0.4)

	snapshot := tracker.Snapshot()
	if len(snapshot) != 2 {
		t.Fatalf("snapshot length = %d, want 2", len(snapshot))
	}

	restored := NewTracker(10)
	restored.Restore(snapshot)

	if got, want := restored.Metrics(), tracker.Metrics(); got.Accuracy != want.Accuracy || got.TotalRecorded != want.TotalRecorded {
		t.Errorf("restored metrics %+v != original %+v", got, want)
	}

	// Mutating the snapshot must not affect the restored tracker.
	snapshot[0].Prediction = domain.CategoryOther
	if restored.Metrics().Accuracy != 0.5 {
		t.Error("restored tracker shares memory with the snapshot")
	}
}

func TestRestoreTrimsOversizedSnapshot(t *testing.T) {
	entries := make([]domain.UsageLedgerEntry, 5)
	for i := range entries {
		entries[i] = domain.UsageLedgerEntry{
			TextHash:   fmt.Sprintf("h%d", i),
			Prediction: domain.CategoryPraise,
			Correction: domain.CategoryPraise,
		}
	}

	tracker := NewTracker(3)
	tracker.Restore(entries)

	snapshot := tracker.Snapshot()
	if len(snapshot) != 3 {
		t.Fatalf("restored %d entries, want 3", len(snapshot))
	}
	if snapshot[0].TextHash != "h2" {
		t.Errorf("oldest kept entry = %s, want h2 (newest retained)", snapshot[0].TextHash)
	}
}

func TestConcurrentRecordAndRead(t *testing.T) {
	tracker := NewTracker(100)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				tracker.Record(fmt.Sprintf("%d-%d", n, j), domain.CategoryPraise, domain.CategoryPraise, 0.9)
				_ = tracker.Metrics()
			}
		}(i)
	}
	wg.Wait()

	if got := tracker.Metrics().TotalRecorded; got != 100 {
		t.Errorf("total recorded = %d, want 100 (bounded)", got)
	}
}
