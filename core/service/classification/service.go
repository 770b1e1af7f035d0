package classification

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/belikedeep/feedbacksense/config"
	"github.com/belikedeep/feedbacksense/core/domain"
	"github.com/belikedeep/feedbacksense/core/port/in"
	"github.com/belikedeep/feedbacksense/core/port/out"
	"github.com/belikedeep/feedbacksense/core/service/performance"
	"github.com/belikedeep/feedbacksense/pkg/apperr"
	"github.com/belikedeep/feedbacksense/pkg/logger"
)

// Service is the analysis service facade implementing in.AnalysisService.
// It composes the classification client, batch scheduler, resolution
// policy, history tracker, and performance tracker.
type Service struct {
	client  out.ClassificationClient
	repo    out.FeedbackRepository
	history *HistoryTracker
	tracker *performance.Tracker
	cfg     *config.Config
	log     *logger.Logger
}

var _ in.AnalysisService = (*Service)(nil)

// NewService wires the facade. repo may be nil when only the in-memory
// paths (AnalyzeAndCategorize, BatchReanalyze) are used.
func NewService(client out.ClassificationClient, repo out.FeedbackRepository, history *HistoryTracker, tracker *performance.Tracker, cfg *config.Config) *Service {
	return &Service{
		client:  client,
		repo:    repo,
		history: history,
		tracker: tracker,
		cfg:     cfg,
		log:     logger.Default().WithField("component", "analysis_service"),
	}
}

// AnalyzeAndCategorize classifies one feedback text. Classifier failures
// are absorbed by the adapter's heuristic fallback, so the only errors are
// empty input and cancellation.
func (s *Service) AnalyzeAndCategorize(ctx context.Context, text string) (*domain.AnalysisResult, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, apperr.MissingField("content")
	}
	return s.client.Classify(ctx, trimmed)
}

// BatchReanalyze classifies items in windows of batchSize without an
// inter-batch delay; named profiles (and their delays) apply to the stored
// bulk path only.
func (s *Service) BatchReanalyze(ctx context.Context, items []*domain.FeedbackItem, batchSize int, onProgress domain.ProgressFunc) ([]domain.AnalysisResult, error) {
	return NewScheduler(s.client, 0).Run(ctx, items, batchSize, onProgress)
}

// ReanalyzeStored loads feedback from the record store, re-classifies it
// under the named batch profile, and persists each outcome independently.
// A failed write for one item never blocks the rest; the summary reports
// partial success.
func (s *Service) ReanalyzeStored(ctx context.Context, req in.ReanalyzeRequest) (*domain.BulkSummary, error) {
	profile := s.cfg.GetBatchConfig(req.Profile)

	items, err := s.repo.FindMany(ctx, req.Filter)
	if err != nil {
		return nil, apperr.DatabaseError("find feedback", err)
	}

	summary := &domain.BulkSummary{Total: len(items)}
	if len(items) == 0 {
		return summary, nil
	}

	results, err := NewScheduler(s.client, profile.Delay).Run(ctx, items, profile.BatchSize, req.OnProgress)
	if err != nil {
		return nil, err
	}

	for i, item := range items {
		result := results[i]

		// A pending manual override survives unless the caller forced
		// re-application.
		opts := ResolveOptions{Reanalyze: req.Force || !item.ManualOverride}
		resolution := Resolve(stateOf(item), &result, nil, opts)
		if !resolution.Changed {
			summary.Processed++
			continue
		}

		event := domain.ClassificationEvent{
			Category:   resolution.Category,
			Confidence: resolution.Confidence,
			Method:     resolution.Method,
			Reasoning:  result.Reasoning,
		}
		if err := s.history.Append(ctx, item, event); err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, domain.BulkError{ItemID: item.ID, Reason: err.Error()})
			continue
		}

		override := resolution.Override
		update := domain.FeedbackUpdate{
			Category:       &resolution.Category,
			SentimentLabel: &result.SentimentLabel,
			SentimentScore: &result.SentimentScore,
			Topics:         result.Topics,
			AIConfidence:   &resolution.Confidence,
			ManualOverride: &override,
			History:        item.History,
		}
		if err := s.repo.Update(ctx, item.ID, update); err != nil {
			s.log.WithError(err).Warn("feedback update failed for item %s", item.ID)
			summary.Failed++
			summary.Errors = append(summary.Errors, domain.BulkError{ItemID: item.ID, Reason: err.Error()})
			continue
		}
		summary.Processed++
	}

	return summary, nil
}

// ApplyUserCategory records a human correction. The manual category always
// wins; with reanalyze set a fresh analysis contributes sentiment and
// topics only. Exactly one manual_override event is appended, and the
// prediction/correction pair feeds the performance ledger.
func (s *Service) ApplyUserCategory(ctx context.Context, id uuid.UUID, category domain.Category, reanalyze bool) error {
	if !category.IsValid() {
		return apperr.InvalidInput("category", "unknown category "+string(category))
	}

	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return apperr.DatabaseError("get feedback", err)
	}
	if item == nil {
		return apperr.NotFound("feedback")
	}

	prediction := item.Category
	predictionConfidence := 0.0
	if item.AIConfidence != nil {
		predictionConfidence = *item.AIConfidence
	}

	var aiResult *domain.AnalysisResult
	if reanalyze {
		aiResult, err = s.client.Classify(ctx, item.Content)
		if err != nil {
			return err
		}
	}

	resolution := Resolve(stateOf(item), aiResult, &category, ResolveOptions{ManualEdit: true, Reanalyze: reanalyze})

	event := domain.ClassificationEvent{
		Category:   resolution.Category,
		Confidence: resolution.Confidence,
		Method:     resolution.Method,
	}
	if err := s.history.Append(ctx, item, event); err != nil {
		return err
	}

	override := resolution.Override
	update := domain.FeedbackUpdate{
		Category:       &resolution.Category,
		ManualOverride: &override,
		History:        item.History,
	}
	if aiResult != nil {
		update.SentimentLabel = &aiResult.SentimentLabel
		update.SentimentScore = &aiResult.SentimentScore
		update.Topics = aiResult.Topics
		update.AIConfidence = &aiResult.Confidence
	}
	if err := s.repo.Update(ctx, id, update); err != nil {
		return apperr.DatabaseError("update feedback", err)
	}

	s.tracker.Record(item.Content, prediction, category, predictionConfidence)
	return nil
}

// GetAIPerformanceMetrics returns rolling accuracy metrics from the
// performance ledger.
func (s *Service) GetAIPerformanceMetrics() domain.PerformanceMetrics {
	return s.tracker.Metrics()
}

func stateOf(item *domain.FeedbackItem) ResolutionState {
	confidence := 0.0
	if item.AIConfidence != nil {
		confidence = *item.AIConfidence
	}
	return ResolutionState{
		Category:       item.Category,
		Confidence:     confidence,
		ManualOverride: item.ManualOverride,
	}
}
