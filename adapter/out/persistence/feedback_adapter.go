// Package persistence provides database adapters implementing outbound ports.
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/belikedeep/feedbacksense/core/domain"
)

// FeedbackAdapter implements out.FeedbackRepository on Postgres.
type FeedbackAdapter struct {
	db *sqlx.DB
}

// NewFeedbackAdapter creates a new FeedbackAdapter.
func NewFeedbackAdapter(db *sqlx.DB) *FeedbackAdapter {
	return &FeedbackAdapter{db: db}
}

// feedbackRow represents the database row.
type feedbackRow struct {
	ID             uuid.UUID       `db:"id"`
	Content        string          `db:"content"`
	Category       string          `db:"category"`
	SentimentLabel string          `db:"sentiment_label"`
	SentimentScore float64         `db:"sentiment_score"`
	Topics         pq.StringArray  `db:"topics"`
	AIConfidence   sql.NullFloat64 `db:"ai_confidence"`
	ManualOverride bool            `db:"manual_override"`
	History        []byte          `db:"history"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

func (r *feedbackRow) toEntity() (*domain.FeedbackItem, error) {
	item := &domain.FeedbackItem{
		ID:             r.ID,
		Content:        r.Content,
		Category:       domain.Category(r.Category),
		SentimentLabel: domain.SentimentLabel(r.SentimentLabel),
		SentimentScore: r.SentimentScore,
		Topics:         []string(r.Topics),
		ManualOverride: r.ManualOverride,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if r.AIConfidence.Valid {
		item.AIConfidence = &r.AIConfidence.Float64
	}
	if len(r.History) > 0 {
		if err := json.Unmarshal(r.History, &item.History); err != nil {
			return nil, fmt.Errorf("failed to decode feedback history: %w", err)
		}
	}
	return item, nil
}

// Create inserts a feedback item. A zero ID is assigned.
func (a *FeedbackAdapter) Create(ctx context.Context, item *domain.FeedbackItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}

	history, err := json.Marshal(item.History)
	if err != nil {
		return fmt.Errorf("failed to encode feedback history: %w", err)
	}

	query := `
		INSERT INTO feedback (id, content, category, sentiment_label, sentiment_score, topics, ai_confidence, manual_override, history)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	err = a.db.QueryRowContext(ctx, query,
		item.ID, item.Content, string(item.Category), string(item.SentimentLabel),
		item.SentimentScore, pq.Array(item.Topics), item.AIConfidence,
		item.ManualOverride, history,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create feedback: %w", err)
	}

	return nil
}

// GetByID retrieves one feedback item, nil when not found.
func (a *FeedbackAdapter) GetByID(ctx context.Context, id uuid.UUID) (*domain.FeedbackItem, error) {
	var row feedbackRow
	query := `SELECT * FROM feedback WHERE id = $1`

	if err := a.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get feedback: %w", err)
	}

	return row.toEntity()
}

// FindMany retrieves feedback matching the filter, oldest first.
func (a *FeedbackAdapter) FindMany(ctx context.Context, filter domain.FeedbackFilter) ([]*domain.FeedbackItem, error) {
	var conditions []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(filter.IDs) > 0 {
		conditions = append(conditions, "id = ANY("+arg(pq.Array(filter.IDs))+")")
	}
	if filter.Category != nil {
		conditions = append(conditions, "category = "+arg(string(*filter.Category)))
	}
	if filter.ManualOverride != nil {
		conditions = append(conditions, "manual_override = "+arg(*filter.ManualOverride))
	}
	if filter.CreatedAfter != nil {
		conditions = append(conditions, "created_at > "+arg(*filter.CreatedAfter))
	}

	query := `SELECT * FROM feedback`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}

	var rows []feedbackRow
	if err := a.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to find feedback: %w", err)
	}

	items := make([]*domain.FeedbackItem, len(rows))
	for i := range rows {
		item, err := rows[i].toEntity()
		if err != nil {
			return nil, err
		}
		items[i] = item
	}

	return items, nil
}

// Update applies a partial-field update. Nil pointers leave the stored
// column untouched; an empty update only refreshes updated_at.
func (a *FeedbackAdapter) Update(ctx context.Context, id uuid.UUID, fields domain.FeedbackUpdate) error {
	sets := []string{"updated_at = NOW()"}
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if fields.Category != nil {
		sets = append(sets, "category = "+arg(string(*fields.Category)))
	}
	if fields.SentimentLabel != nil {
		sets = append(sets, "sentiment_label = "+arg(string(*fields.SentimentLabel)))
	}
	if fields.SentimentScore != nil {
		sets = append(sets, "sentiment_score = "+arg(*fields.SentimentScore))
	}
	if fields.Topics != nil {
		sets = append(sets, "topics = "+arg(pq.Array(fields.Topics)))
	}
	if fields.AIConfidence != nil {
		sets = append(sets, "ai_confidence = "+arg(*fields.AIConfidence))
	}
	if fields.ManualOverride != nil {
		sets = append(sets, "manual_override = "+arg(*fields.ManualOverride))
	}
	if fields.History != nil {
		history, err := json.Marshal(fields.History)
		if err != nil {
			return fmt.Errorf("failed to encode feedback history: %w", err)
		}
		sets = append(sets, "history = "+arg(history))
	}

	query := "UPDATE feedback SET " + strings.Join(sets, ", ") + " WHERE id = " + arg(id)

	result, err := a.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update feedback: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}

	return nil
}
