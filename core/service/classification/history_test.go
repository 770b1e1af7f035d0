package classification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/belikedeep/feedbacksense/core/domain"
)

type recordingArchive struct {
	events []domain.ClassificationEvent
	err    error
}

func (a *recordingArchive) ArchiveEvent(ctx context.Context, itemID uuid.UUID, event domain.ClassificationEvent) error {
	if a.err != nil {
		return a.err
	}
	a.events = append(a.events, event)
	return nil
}

func TestAppendMonotonicity(t *testing.T) {
	tracker := NewHistoryTracker(nil)
	item := &domain.FeedbackItem{ID: uuid.New(), Category: domain.CategoryOther}

	changes := []domain.Category{
		domain.CategoryBugReport,
		domain.CategoryComplaint,
		domain.CategoryBilling,
	}

	for i, category := range changes {
		err := tracker.Append(context.Background(), item, domain.ClassificationEvent{
			Category:   category,
			Confidence: 0.8,
			Method:     domain.MethodAIClassification,
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if len(item.History) != i+1 {
			t.Fatalf("after %d appends history length = %d", i+1, len(item.History))
		}
		if last := item.History[len(item.History)-1]; last.Category != item.Category {
			t.Errorf("last event category %s != item category %s", last.Category, item.Category)
		}
	}
}

func TestAppendSetsPreviousCategoryOnOverride(t *testing.T) {
	tracker := NewHistoryTracker(nil)
	item := &domain.FeedbackItem{ID: uuid.New(), Category: domain.CategoryComplaint}

	err := tracker.Append(context.Background(), item, domain.ClassificationEvent{
		Category:   domain.CategoryBilling,
		Confidence: 1.0,
		Method:     domain.MethodManualOverride,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	event := item.History[0]
	if event.PreviousCategory == nil || *event.PreviousCategory != domain.CategoryComplaint {
		t.Errorf("previous category = %v, want complaint", event.PreviousCategory)
	}
	if !item.ManualOverride {
		t.Error("manual override flag not set")
	}

	// A later AI event clears the flag and leaves PreviousCategory unset.
	err = tracker.Append(context.Background(), item, domain.ClassificationEvent{
		Category: domain.CategoryComplaint,
		Method:   domain.MethodAIClassification,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.ManualOverride {
		t.Error("manual override flag not cleared by AI event")
	}
	if item.History[1].PreviousCategory != nil {
		t.Error("previous category set on non-override event")
	}
}

func TestAppendRejectsNonChronological(t *testing.T) {
	tracker := NewHistoryTracker(nil)
	item := &domain.FeedbackItem{ID: uuid.New()}

	now := time.Now()
	err := tracker.Append(context.Background(), item, domain.ClassificationEvent{
		Timestamp: now,
		Category:  domain.CategoryPraise,
		Method:    domain.MethodAIClassification,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = tracker.Append(context.Background(), item, domain.ClassificationEvent{
		Timestamp: now.Add(-time.Hour),
		Category:  domain.CategoryOther,
		Method:    domain.MethodAIClassification,
	})
	if !errors.Is(err, ErrNonChronological) {
		t.Fatalf("err = %v, want ErrNonChronological", err)
	}
	if len(item.History) != 1 {
		t.Errorf("history length = %d, want 1 (rejected event must not append)", len(item.History))
	}
}

func TestAppendArchivesBestEffort(t *testing.T) {
	t.Run("archives each event", func(t *testing.T) {
		archive := &recordingArchive{}
		tracker := NewHistoryTracker(archive)
		item := &domain.FeedbackItem{ID: uuid.New()}

		event := domain.ClassificationEvent{Category: domain.CategoryQuestion, Method: domain.MethodAIClassification}
		if err := tracker.Append(context.Background(), item, event); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(archive.events) != 1 {
			t.Errorf("archived events = %d, want 1", len(archive.events))
		}
	})

	t.Run("archive failure does not block append", func(t *testing.T) {
		archive := &recordingArchive{err: errors.New("mongo unavailable")}
		tracker := NewHistoryTracker(archive)
		item := &domain.FeedbackItem{ID: uuid.New()}

		event := domain.ClassificationEvent{Category: domain.CategoryQuestion, Method: domain.MethodAIClassification}
		if err := tracker.Append(context.Background(), item, event); err != nil {
			t.Fatalf("append failed on archive error: %v", err)
		}
		if len(item.History) != 1 {
			t.Errorf("history length = %d, want 1", len(item.History))
		}
	})
}

func TestHistoryReturnsCopy(t *testing.T) {
	tracker := NewHistoryTracker(nil)
	item := &domain.FeedbackItem{ID: uuid.New()}

	event := domain.ClassificationEvent{Category: domain.CategoryPraise, Method: domain.MethodAIClassification}
	if err := tracker.Append(context.Background(), item, event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	events := tracker.History(item)
	events[0].Category = domain.CategoryOther

	if item.History[0].Category != domain.CategoryPraise {
		t.Error("mutating the returned history mutated the item")
	}
}
