package out

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/belikedeep/feedbacksense/core/domain"
)

// FeedbackRepository is the outbound port to the record store that owns
// FeedbackItem entities. Update applies partial-field changes; callers
// never need the full entity to persist one classification outcome.
type FeedbackRepository interface {
	Create(ctx context.Context, item *domain.FeedbackItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.FeedbackItem, error)
	FindMany(ctx context.Context, filter domain.FeedbackFilter) ([]*domain.FeedbackItem, error)
	Update(ctx context.Context, id uuid.UUID, fields domain.FeedbackUpdate) error
}

// HistoryArchive receives classification events for unbounded retention.
// Archiving is best effort; a failed archive write never blocks the
// pipeline.
type HistoryArchive interface {
	ArchiveEvent(ctx context.Context, itemID uuid.UUID, event domain.ClassificationEvent) error
}

// LedgerStore persists snapshots of the AI performance ledger so the
// in-memory tracker can survive restarts.
type LedgerStore interface {
	SaveSnapshot(ctx context.Context, entries []domain.UsageLedgerEntry) error
	LoadSnapshot(ctx context.Context) ([]domain.UsageLedgerEntry, error)
}

// ResultCache caches classification results keyed by text hash.
type ResultCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}
