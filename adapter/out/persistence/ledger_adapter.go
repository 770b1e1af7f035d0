package persistence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/belikedeep/feedbacksense/core/domain"
)

// LedgerSnapshotAdapter implements out.LedgerStore on Postgres via pgx.
// Snapshots replace the stored ledger wholesale; the tracker owns
// bounding and eviction.
type LedgerSnapshotAdapter struct {
	pool *pgxpool.Pool
}

// NewLedgerSnapshotAdapter creates a new LedgerSnapshotAdapter.
func NewLedgerSnapshotAdapter(pool *pgxpool.Pool) *LedgerSnapshotAdapter {
	return &LedgerSnapshotAdapter{pool: pool}
}

// SaveSnapshot replaces the persisted ledger with the given entries
// atomically.
func (a *LedgerSnapshotAdapter) SaveSnapshot(ctx context.Context, entries []domain.UsageLedgerEntry) error {
	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin ledger snapshot: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM ai_usage_ledger`); err != nil {
		return fmt.Errorf("failed to clear ledger snapshot: %w", err)
	}

	if len(entries) > 0 {
		rows := make([][]interface{}, len(entries))
		for i, e := range entries {
			rows[i] = []interface{}{e.TextHash, string(e.Prediction), string(e.Correction), e.Confidence, e.RecordedAt}
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"ai_usage_ledger"},
			[]string{"text_hash", "prediction", "correction", "confidence", "recorded_at"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("failed to write ledger snapshot: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit ledger snapshot: %w", err)
	}

	return nil
}

// LoadSnapshot reads the persisted ledger, oldest first.
func (a *LedgerSnapshotAdapter) LoadSnapshot(ctx context.Context) ([]domain.UsageLedgerEntry, error) {
	rows, err := a.pool.Query(ctx, `
		SELECT text_hash, prediction, correction, confidence, recorded_at
		FROM ai_usage_ledger
		ORDER BY recorded_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger snapshot: %w", err)
	}
	defer rows.Close()

	var entries []domain.UsageLedgerEntry
	for rows.Next() {
		var e domain.UsageLedgerEntry
		var prediction, correction string
		if err := rows.Scan(&e.TextHash, &prediction, &correction, &e.Confidence, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		e.Prediction = domain.Category(prediction)
		e.Correction = domain.Category(correction)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ledger snapshot: %w", err)
	}

	return entries, nil
}
