// Package classification contains the batch scheduler, category resolution
// policy, history tracker, and the analysis service facade.
package classification

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/belikedeep/feedbacksense/core/domain"
	"github.com/belikedeep/feedbacksense/core/port/out"
)

// Scheduler runs bulk classification in strictly sequential windows.
// Within a window the items go upstream as one batch call; between windows
// it honors an inter-batch delay and checks for cancellation, so an
// already-dispatched window always finishes.
type Scheduler struct {
	client out.ClassificationClient
	delay  time.Duration
	log    zerolog.Logger
}

// NewScheduler creates a scheduler. delay is the pause between consecutive
// windows; zero disables it.
func NewScheduler(client out.ClassificationClient, delay time.Duration) *Scheduler {
	return &Scheduler{
		client: client,
		delay:  delay,
		log:    zlog.With().Str("component", "batch_scheduler").Logger(),
	}
}

// Run classifies items in windows of batchSize, preserving input order and
// length. onProgress fires exactly once per completed window. Cancellation
// is observed between windows; the error discards partial results.
func (s *Scheduler) Run(ctx context.Context, items []*domain.FeedbackItem, batchSize int, onProgress domain.ProgressFunc) ([]domain.AnalysisResult, error) {
	if len(items) == 0 {
		return []domain.AnalysisResult{}, nil
	}
	if batchSize <= 0 {
		batchSize = 1
	}

	total := len(items)
	totalBatches := (total + batchSize - 1) / batchSize
	results := make([]domain.AnalysisResult, total)

	processed := 0
	for batch := 0; batch < totalBatches; batch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := batch * batchSize
		end := start + batchSize
		if end > total {
			end = total
		}

		texts := make([]string, end-start)
		for i, item := range items[start:end] {
			texts[i] = item.Content
		}

		windowStart := time.Now()
		windowResults, err := s.client.ClassifyBatch(ctx, texts)
		if err != nil {
			return nil, err
		}
		copy(results[start:end], windowResults)
		processed += end - start

		s.log.Info().
			Int("batch", batch+1).
			Int("total_batches", totalBatches).
			Int("processed", processed).
			Int("total", total).
			Dur("window_duration", time.Since(windowStart)).
			Msg("batch window completed")

		if onProgress != nil {
			onProgress(domain.Progress{
				Processed:        processed,
				Total:            total,
				Percentage:       float64(processed) / float64(total) * 100,
				BatchesCompleted: batch + 1,
				TotalBatches:     totalBatches,
			})
		}

		if s.delay > 0 && batch < totalBatches-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.delay):
			}
		}
	}

	return results, nil
}
