package http

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/belikedeep/feedbacksense/config"
	"github.com/belikedeep/feedbacksense/core/domain"
	"github.com/belikedeep/feedbacksense/core/port/in"
	"github.com/belikedeep/feedbacksense/pkg/apperr"
)

type stubAnalysisService struct {
	result     *domain.AnalysisResult
	analyzeErr error

	summary      *domain.BulkSummary
	reanalyzeErr error
	lastRequest  in.ReanalyzeRequest

	applyErr         error
	appliedID        uuid.UUID
	appliedCategory  domain.Category
	appliedReanalyze bool

	metrics domain.PerformanceMetrics
}

func (s *stubAnalysisService) AnalyzeAndCategorize(ctx context.Context, text string) (*domain.AnalysisResult, error) {
	if s.analyzeErr != nil {
		return nil, s.analyzeErr
	}
	return s.result, nil
}

func (s *stubAnalysisService) BatchReanalyze(ctx context.Context, items []*domain.FeedbackItem, batchSize int, onProgress domain.ProgressFunc) ([]domain.AnalysisResult, error) {
	return nil, nil
}

func (s *stubAnalysisService) ReanalyzeStored(ctx context.Context, req in.ReanalyzeRequest) (*domain.BulkSummary, error) {
	s.lastRequest = req
	if s.reanalyzeErr != nil {
		return nil, s.reanalyzeErr
	}
	return s.summary, nil
}

func (s *stubAnalysisService) ApplyUserCategory(ctx context.Context, id uuid.UUID, category domain.Category, reanalyze bool) error {
	s.appliedID = id
	s.appliedCategory = category
	s.appliedReanalyze = reanalyze
	return s.applyErr
}

func (s *stubAnalysisService) GetAIPerformanceMetrics() domain.PerformanceMetrics {
	return s.metrics
}

type stubStatsClient struct {
	stats domain.ClassifierStats
}

func (s *stubStatsClient) Classify(ctx context.Context, text string) (*domain.AnalysisResult, error) {
	return nil, nil
}

func (s *stubStatsClient) ClassifyBatch(ctx context.Context, texts []string) ([]domain.AnalysisResult, error) {
	return nil, nil
}

func (s *stubStatsClient) Stats() domain.ClassifierStats {
	return s.stats
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
}

func newTestApp(t *testing.T, svc *stubAnalysisService, client *stubStatsClient) *fiber.App {
	t.Helper()

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}

	app := fiber.New()
	api := app.Group("/api/v1")
	NewFeedbackAnalysisHandler(svc, client, cfg).Register(api)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading response body: %v", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("decoding envelope %q: %v", raw, err)
	}
	return resp.StatusCode, env
}

func TestAnalyze(t *testing.T) {
	svc := &stubAnalysisService{
		result: &domain.AnalysisResult{
			Category:       domain.CategoryBugReport,
			Confidence:     0.91,
			SentimentLabel: domain.SentimentNegative,
			SentimentScore: 0.2,
			Method:         domain.MethodAIClassification,
		},
	}
	app := newTestApp(t, svc, &stubStatsClient{})

	status, env := doJSON(t, app, "POST", "/api/v1/feedback/analyze", `{"content":"the app crashes on startup"}`)
	if status != fiber.StatusOK {
		t.Fatalf("status = %d, want %d", status, fiber.StatusOK)
	}
	if !env.Success {
		t.Fatalf("success = false, error = %+v", env.Error)
	}

	var result domain.AnalysisResult
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if result.Category != domain.CategoryBugReport {
		t.Errorf("category = %q, want %q", result.Category, domain.CategoryBugReport)
	}
	if result.Method != domain.MethodAIClassification {
		t.Errorf("method = %q, want %q", result.Method, domain.MethodAIClassification)
	}
}

func TestAnalyzeInvalidBody(t *testing.T) {
	app := newTestApp(t, &stubAnalysisService{}, &stubStatsClient{})

	status, env := doJSON(t, app, "POST", "/api/v1/feedback/analyze", `{not json`)
	if status != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want %d", status, fiber.StatusBadRequest)
	}
	if env.Error == nil || env.Error.Code != apperr.CodeBadRequest {
		t.Errorf("error = %+v, want code %q", env.Error, apperr.CodeBadRequest)
	}
}

func TestAnalyzeEmptyContent(t *testing.T) {
	svc := &stubAnalysisService{analyzeErr: apperr.MissingField("content")}
	app := newTestApp(t, svc, &stubStatsClient{})

	status, env := doJSON(t, app, "POST", "/api/v1/feedback/analyze", `{"content":""}`)
	if status != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want %d", status, fiber.StatusBadRequest)
	}
	if env.Error == nil || env.Error.Code != apperr.CodeMissingField {
		t.Errorf("error = %+v, want code %q", env.Error, apperr.CodeMissingField)
	}
}

func TestReanalyze(t *testing.T) {
	svc := &stubAnalysisService{
		summary: &domain.BulkSummary{Total: 12, Processed: 11, Failed: 1},
	}
	app := newTestApp(t, svc, &stubStatsClient{})

	body := `{"category":"billing","profile":"csv_import","force":true,"limit":50}`
	status, env := doJSON(t, app, "POST", "/api/v1/feedback/reanalyze", body)
	if status != fiber.StatusOK {
		t.Fatalf("status = %d, want %d", status, fiber.StatusOK)
	}

	var summary domain.BulkSummary
	if err := json.Unmarshal(env.Data, &summary); err != nil {
		t.Fatalf("decoding summary: %v", err)
	}
	if summary.Total != 12 || summary.Processed != 11 || summary.Failed != 1 {
		t.Errorf("summary = %+v, want {12 11 1}", summary)
	}

	req := svc.lastRequest
	if req.Profile != "csv_import" {
		t.Errorf("profile = %q, want csv_import", req.Profile)
	}
	if !req.Force {
		t.Error("force not propagated")
	}
	if req.Filter.Category == nil || *req.Filter.Category != domain.CategoryBilling {
		t.Errorf("filter category = %v, want billing", req.Filter.Category)
	}
	if req.Filter.Limit != 50 {
		t.Errorf("filter limit = %d, want 50", req.Filter.Limit)
	}
}

func TestReanalyzeUnknownCategory(t *testing.T) {
	app := newTestApp(t, &stubAnalysisService{}, &stubStatsClient{})

	status, env := doJSON(t, app, "POST", "/api/v1/feedback/reanalyze", `{"category":"bogus"}`)
	if status != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want %d", status, fiber.StatusBadRequest)
	}
	if env.Error == nil || !strings.Contains(env.Error.Message, "bogus") {
		t.Errorf("error = %+v, want message naming the bad category", env.Error)
	}
}

func TestSetCategory(t *testing.T) {
	svc := &stubAnalysisService{}
	app := newTestApp(t, svc, &stubStatsClient{})

	id := uuid.New()
	status, env := doJSON(t, app, "PATCH", "/api/v1/feedback/"+id.String()+"/category",
		`{"category":"billing","reanalyze":true}`)
	if status != fiber.StatusOK {
		t.Fatalf("status = %d, want %d (error = %+v)", status, fiber.StatusOK, env.Error)
	}

	if svc.appliedID != id {
		t.Errorf("applied id = %s, want %s", svc.appliedID, id)
	}
	if svc.appliedCategory != domain.CategoryBilling {
		t.Errorf("applied category = %q, want billing", svc.appliedCategory)
	}
	if !svc.appliedReanalyze {
		t.Error("reanalyze flag not propagated")
	}
}

func TestSetCategoryInvalidID(t *testing.T) {
	app := newTestApp(t, &stubAnalysisService{}, &stubStatsClient{})

	status, _ := doJSON(t, app, "PATCH", "/api/v1/feedback/not-a-uuid/category", `{"category":"billing"}`)
	if status != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want %d", status, fiber.StatusBadRequest)
	}
}

func TestSetCategoryNotFound(t *testing.T) {
	svc := &stubAnalysisService{applyErr: apperr.NotFound("feedback")}
	app := newTestApp(t, svc, &stubStatsClient{})

	status, env := doJSON(t, app, "PATCH", "/api/v1/feedback/"+uuid.NewString()+"/category",
		`{"category":"billing"}`)
	if status != fiber.StatusNotFound {
		t.Fatalf("status = %d, want %d", status, fiber.StatusNotFound)
	}
	if env.Error == nil || env.Error.Code != apperr.CodeNotFound {
		t.Errorf("error = %+v, want code %q", env.Error, apperr.CodeNotFound)
	}
}

func TestPerformance(t *testing.T) {
	svc := &stubAnalysisService{
		metrics: domain.PerformanceMetrics{
			Accuracy:            0.8,
			TotalRecorded:       5,
			PerCategoryAccuracy: map[domain.Category]float64{domain.CategoryBilling: 1.0},
		},
	}
	client := &stubStatsClient{stats: domain.ClassifierStats{CallsMade: 7, Fallbacks: 2}}
	app := newTestApp(t, svc, client)

	status, env := doJSON(t, app, "GET", "/api/v1/ai/performance", "")
	if status != fiber.StatusOK {
		t.Fatalf("status = %d, want %d", status, fiber.StatusOK)
	}

	var data struct {
		Metrics    domain.PerformanceMetrics `json:"metrics"`
		Classifier domain.ClassifierStats    `json:"classifier"`
		Latency    map[string]any            `json:"latency"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decoding data: %v", err)
	}
	if data.Metrics.Accuracy != 0.8 || data.Metrics.TotalRecorded != 5 {
		t.Errorf("metrics = %+v, want accuracy 0.8 over 5", data.Metrics)
	}
	if data.Classifier.CallsMade != 7 {
		t.Errorf("classifier calls = %d, want 7", data.Classifier.CallsMade)
	}
	if data.Latency == nil {
		t.Error("latency block missing")
	}
}

func TestBatchConfig(t *testing.T) {
	app := newTestApp(t, &stubAnalysisService{}, &stubStatsClient{})

	tests := []struct {
		name          string
		wantBatchSize float64
		wantDelayMS   float64
	}{
		{"default", 5, 1000},
		{"csv_import", 10, 2000},
		{"reanalysis", 3, 1500},
		{"nonexistent", 5, 1000}, // falls back to default
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := doJSON(t, app, "GET", "/api/v1/batch-config/"+tt.name, "")
			if status != fiber.StatusOK {
				t.Fatalf("status = %d, want %d", status, fiber.StatusOK)
			}

			var data map[string]any
			if err := json.Unmarshal(env.Data, &data); err != nil {
				t.Fatalf("decoding data: %v", err)
			}
			if got := data["batch_size"].(float64); got != tt.wantBatchSize {
				t.Errorf("batch_size = %v, want %v", got, tt.wantBatchSize)
			}
			if got := data["delay_ms"].(float64); got != tt.wantDelayMS {
				t.Errorf("delay_ms = %v, want %v", got, tt.wantDelayMS)
			}
		})
	}
}
