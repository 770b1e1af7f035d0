// Package http implements inbound Fiber handlers for the feedback
// classification pipeline.
package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/belikedeep/feedbacksense/config"
	"github.com/belikedeep/feedbacksense/core/domain"
	"github.com/belikedeep/feedbacksense/core/port/in"
	"github.com/belikedeep/feedbacksense/core/port/out"
	"github.com/belikedeep/feedbacksense/pkg/metrics"
)

// FeedbackAnalysisHandler exposes the classification pipeline over HTTP.
// It stays thin: validation and envelope shaping only, the service owns
// the semantics.
type FeedbackAnalysisHandler struct {
	service in.AnalysisService
	client  out.ClassificationClient
	cfg     *config.Config
	latency *metrics.LatencyTracker
}

// NewFeedbackAnalysisHandler creates the handler.
func NewFeedbackAnalysisHandler(service in.AnalysisService, client out.ClassificationClient, cfg *config.Config) *FeedbackAnalysisHandler {
	return &FeedbackAnalysisHandler{
		service: service,
		client:  client,
		cfg:     cfg,
		latency: metrics.NewLatencyTracker(1000),
	}
}

// Register mounts the pipeline routes on the given router group.
func (h *FeedbackAnalysisHandler) Register(app fiber.Router) {
	feedback := app.Group("/feedback")
	feedback.Post("/analyze", h.Analyze)
	feedback.Post("/reanalyze", h.Reanalyze)
	feedback.Patch("/:id/category", h.SetCategory)

	ai := app.Group("/ai")
	ai.Get("/performance", h.Performance)

	app.Get("/batch-config/:name", h.BatchConfig)
}

// Analyze classifies one feedback text synchronously.
// POST /feedback/analyze
// Body: { "content": "..." }
func (h *FeedbackAnalysisHandler) Analyze(c *fiber.Ctx) error {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "invalid request body")
	}

	start := time.Now()
	result, err := h.service.AnalyzeAndCategorize(c.Context(), req.Content)
	if err != nil {
		return AppErrorResponse(c, err)
	}
	h.latency.Record(time.Since(start))

	return SuccessResponse(c, result)
}

// reanalyzeRequest selects stored feedback and tunes the bulk run.
type reanalyzeRequest struct {
	IDs            []uuid.UUID `json:"ids,omitempty"`
	Category       *string     `json:"category,omitempty"`
	ManualOverride *bool       `json:"manual_override,omitempty"`
	Limit          int         `json:"limit,omitempty"`
	Profile        string      `json:"profile,omitempty"`
	Force          bool        `json:"force,omitempty"`
}

// Reanalyze re-classifies stored feedback matching the filter.
// POST /feedback/reanalyze
func (h *FeedbackAnalysisHandler) Reanalyze(c *fiber.Ctx) error {
	var req reanalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "invalid request body")
	}

	filter := domain.FeedbackFilter{
		IDs:            req.IDs,
		ManualOverride: req.ManualOverride,
		Limit:          req.Limit,
	}
	if req.Category != nil {
		category := domain.Category(*req.Category)
		if !category.IsValid() {
			return ErrorResponse(c, fiber.StatusBadRequest, "unknown category: "+*req.Category)
		}
		filter.Category = &category
	}

	summary, err := h.service.ReanalyzeStored(c.Context(), in.ReanalyzeRequest{
		Filter:  filter,
		Profile: req.Profile,
		Force:   req.Force,
	})
	if err != nil {
		return AppErrorResponse(c, err)
	}

	return SuccessResponse(c, summary)
}

// SetCategory applies a human category correction to one item.
// PATCH /feedback/:id/category
// Body: { "category": "billing", "reanalyze": false }
func (h *FeedbackAnalysisHandler) SetCategory(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "invalid feedback id")
	}

	var req struct {
		Category  string `json:"category"`
		Reanalyze bool   `json:"reanalyze"`
	}
	if err := c.BodyParser(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "invalid request body")
	}

	category := domain.Category(req.Category)
	if err := h.service.ApplyUserCategory(c.Context(), id, category, req.Reanalyze); err != nil {
		return AppErrorResponse(c, err)
	}

	return SuccessResponse(c, fiber.Map{
		"id":              id,
		"category":        category,
		"manual_override": true,
	})
}

// Performance returns rolling classifier accuracy and usage counters.
// GET /ai/performance
func (h *FeedbackAnalysisHandler) Performance(c *fiber.Ctx) error {
	resp := fiber.Map{
		"metrics": h.service.GetAIPerformanceMetrics(),
		"latency": h.latency.Stats().ToMap(),
	}
	if h.client != nil {
		resp["classifier"] = h.client.Stats()
	}
	return SuccessResponse(c, resp)
}

// BatchConfig resolves a named batch profile. Unknown names fall back to
// the default profile.
// GET /batch-config/:name
func (h *FeedbackAnalysisHandler) BatchConfig(c *fiber.Ctx) error {
	name := c.Params("name")
	profile := h.cfg.GetBatchConfig(name)

	return SuccessResponse(c, fiber.Map{
		"name":        name,
		"batch_size":  profile.BatchSize,
		"delay_ms":    profile.Delay.Milliseconds(),
		"max_retries": profile.MaxRetries,
	})
}
