package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/belikedeep/feedbacksense/core/domain"
)

const classifySystemPrompt = `You are a customer feedback classification AI. Analyze the feedback and respond with JSON only.

Categories (pick ONE):
- bug_report: Defect reports, crashes, broken behavior
- feature_request: Requests for new capabilities
- usage_issue: Confusion or friction using existing features
- complaint: General dissatisfaction without a concrete defect
- praise: Positive feedback, thanks, endorsements
- question: Open questions not tied to a usage problem
- billing: Pricing, invoices, refunds, subscription issues
- other: Doesn't fit other categories

Sentiment: positive, neutral, or negative, with a score from 0.0 (most negative) to 1.0 (most positive).

Topics: up to 5 short lowercase labels for the themes mentioned (e.g. "performance", "pricing", "mobile").

Respond with this exact JSON format:
{
  "category": "category_name",
  "confidence": 0.0-1.0,
  "sentiment_label": "positive|neutral|negative",
  "sentiment_score": 0.0-1.0,
  "topics": ["topic1", "topic2"],
  "reasoning": "brief 1 sentence explanation"
}`

// ClassificationResponse is the wire format of one classification outcome.
type ClassificationResponse struct {
	Category       string   `json:"category"`
	Confidence     float64  `json:"confidence"`
	SentimentLabel string   `json:"sentiment_label"`
	SentimentScore float64  `json:"sentiment_score"`
	Topics         []string `json:"topics,omitempty"`
	Reasoning      string   `json:"reasoning,omitempty"`
}

// ToAnalysisResult converts the wire response into a domain result,
// normalizing unknown labels and clamping scores into range.
func (r *ClassificationResponse) ToAnalysisResult() domain.AnalysisResult {
	return domain.AnalysisResult{
		Category:       domain.ParseCategory(r.Category),
		Confidence:     clamp01(r.Confidence),
		SentimentLabel: domain.ParseSentimentLabel(r.SentimentLabel),
		SentimentScore: clamp01(r.SentimentScore),
		Topics:         r.Topics,
		Reasoning:      r.Reasoning,
		Method:         domain.MethodAIClassification,
	}
}

// ClassifyFeedback classifies one feedback text.
func (c *Client) ClassifyFeedback(ctx context.Context, text string) (*ClassificationResponse, error) {
	resp, err := c.CompleteWithSystem(ctx, classifySystemPrompt, truncateText(text, 2000))
	if err != nil {
		return nil, err
	}

	var result ClassificationResponse
	if err := json.Unmarshal([]byte(stripFences(resp)), &result); err != nil {
		return nil, fmt.Errorf("failed to parse classification response: %w", err)
	}

	return &result, nil
}

// =============================================================================
// Batch Classification
// =============================================================================

// BatchClassifyInput is one feedback text in a batch call. IDs correlate
// results back to inputs since the model may reorder or drop items.
type BatchClassifyInput struct {
	ID      int    `json:"id"`
	Content string `json:"content"`
}

// BatchClassifyResult is one item's outcome in a batch response.
type BatchClassifyResult struct {
	ID int `json:"id"`
	ClassificationResponse
}

type batchClassifyResponse struct {
	Results []BatchClassifyResult `json:"results"`
}

// ClassifyFeedbackBatch classifies multiple feedback texts in a single API
// call. The returned slice follows the model's ordering; callers must
// correlate by ID and fill gaps themselves.
func (c *Client) ClassifyFeedbackBatch(ctx context.Context, items []BatchClassifyInput) ([]BatchClassifyResult, error) {
	if len(items) == 0 {
		return nil, nil
	}

	resp, err := c.CompleteJSON(ctx, classifySystemPrompt, buildBatchClassifyPrompt(items))
	if err != nil {
		return nil, fmt.Errorf("batch classify failed: %w", err)
	}

	return parseBatchResponse(resp)
}

func buildBatchClassifyPrompt(items []BatchClassifyInput) string {
	var sb strings.Builder

	sb.WriteString("Classify each of the following feedback items.\n\nFeedback items:\n\n")

	for _, item := range items {
		sb.WriteString(fmt.Sprintf("[%d]\n%s\n\n", item.ID, truncateText(item.Content, 500)))
	}

	sb.WriteString(`Respond with JSON containing one result per item, keyed by id:
{
  "results": [
    {"id": 1, "category": "bug_report", "confidence": 0.9, "sentiment_label": "negative", "sentiment_score": 0.2, "topics": ["reliability"], "reasoning": "..."},
    ...
  ]
}`)

	return sb.String()
}

func parseBatchResponse(resp string) ([]BatchClassifyResult, error) {
	var batchResp batchClassifyResponse
	if err := json.Unmarshal([]byte(stripFences(resp)), &batchResp); err != nil {
		return nil, fmt.Errorf("failed to parse batch response: %w", err)
	}
	return batchResp.Results, nil
}

// stripFences removes a markdown code fence wrapper some models emit even
// in JSON mode.
func stripFences(resp string) string {
	resp = strings.TrimSpace(resp)
	resp = strings.TrimPrefix(resp, "```json")
	resp = strings.TrimPrefix(resp, "```")
	resp = strings.TrimSuffix(resp, "```")
	return strings.TrimSpace(resp)
}

func truncateText(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "..."
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
