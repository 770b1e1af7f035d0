package classification

import (
	"context"
	"errors"
	"time"

	"github.com/belikedeep/feedbacksense/core/domain"
	"github.com/belikedeep/feedbacksense/core/port/out"
	"github.com/belikedeep/feedbacksense/pkg/logger"
)

// ErrNonChronological rejects an event dated before the item's last
// recorded event.
var ErrNonChronological = errors.New("classification event predates item history")

// HistoryTracker maintains the append-only classification audit trail on
// feedback items and mirrors each event to the archive collaborator.
type HistoryTracker struct {
	archive out.HistoryArchive // optional, nil disables archiving
	log     *logger.Logger
	now     func() time.Time
}

// NewHistoryTracker creates a tracker. archive may be nil.
func NewHistoryTracker(archive out.HistoryArchive) *HistoryTracker {
	return &HistoryTracker{
		archive: archive,
		log:     logger.Default().WithField("component", "history_tracker"),
		now:     time.Now,
	}
}

// Append records one classification event on the item and keeps the item's
// current category in sync with its trail. Prior entries are never
// mutated. For manual overrides the event captures the category it
// replaced. Archiving is best effort: a failed archive write is logged
// and does not fail the append.
func (t *HistoryTracker) Append(ctx context.Context, item *domain.FeedbackItem, event domain.ClassificationEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = t.now()
	}
	if n := len(item.History); n > 0 && event.Timestamp.Before(item.History[n-1].Timestamp) {
		return ErrNonChronological
	}

	if event.Method == domain.MethodManualOverride && event.PreviousCategory == nil {
		prev := item.Category
		event.PreviousCategory = &prev
	}

	item.History = append(item.History, event)
	item.Category = event.Category
	item.ManualOverride = event.Method == domain.MethodManualOverride
	item.UpdatedAt = event.Timestamp

	if t.archive != nil {
		if err := t.archive.ArchiveEvent(ctx, item.ID, event); err != nil {
			t.log.WithError(err).Warn("history archive write failed for item %s", item.ID)
		}
	}

	return nil
}

// History returns a defensive copy of the item's audit trail, oldest
// first.
func (t *HistoryTracker) History(item *domain.FeedbackItem) []domain.ClassificationEvent {
	events := make([]domain.ClassificationEvent, len(item.History))
	copy(events, item.History)
	return events
}
