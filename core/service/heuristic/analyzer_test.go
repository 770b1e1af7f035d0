package heuristic

import (
	"reflect"
	"testing"

	"github.com/belikedeep/feedbacksense/core/domain"
)

func TestAnalyzeCategories(t *testing.T) {
	a := NewAnalyzer()

	tests := []struct {
		name     string
		text     string
		expected domain.Category
	}{
		{"crash report", "The app crashes every time I open settings, total failure", domain.CategoryBugReport},
		{"feature ask", "Please add dark mode, it would be great for night use", domain.CategoryFeatureRequest},
		{"billing dispute", "I was overcharged on my last invoice, I want a refund", domain.CategoryBilling},
		{"usage confusion", "How do I export my data? I can't find the option anywhere", domain.CategoryUsageIssue},
		{"praise", "Thank you, this tool is awesome and saves me hours", domain.CategoryPraise},
		{"complaint", "Really disappointed, the experience has been terrible lately", domain.CategoryComplaint},
		{"bare question", "Is there a way to invite teammates?", domain.CategoryQuestion},
		{"no signal", "xyzzy plugh", domain.CategoryOther},
		{"empty", "", domain.CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := a.Analyze(tt.text)
			if result.Category != tt.expected {
				t.Errorf("category = %s, want %s", result.Category, tt.expected)
			}
			if result.Method != domain.MethodHeuristicFallback {
				t.Errorf("method = %s, want %s", result.Method, domain.MethodHeuristicFallback)
			}
		})
	}
}

func TestAnalyzeConfidenceBounds(t *testing.T) {
	a := NewAnalyzer()

	tests := []struct {
		name string
		text string
	}{
		{"many signals", "bug crash broken error fails glitch freeze stuck"},
		{"one signal", "there is a bug"},
		{"no signals", "lorem ipsum"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := a.Analyze(tt.text)
			if result.Confidence < 0 || result.Confidence > MaxConfidence {
				t.Errorf("confidence %f outside [0, %f]", result.Confidence, MaxConfidence)
			}
		})
	}

	// More signals must never produce lower confidence.
	weak := a.Analyze("there is a bug").Confidence
	strong := a.Analyze("bug crash broken error fails").Confidence
	if strong < weak {
		t.Errorf("confidence not monotonic: %f matched signals < %f", strong, weak)
	}
}

func TestAnalyzeSentiment(t *testing.T) {
	a := NewAnalyzer()

	tests := []struct {
		name  string
		text  string
		label domain.SentimentLabel
	}{
		{"positive", "I love this, it's excellent and fast", domain.SentimentPositive},
		{"negative", "terrible, slow and broken", domain.SentimentNegative},
		{"neutral no lexicon", "the report covers the third quarter", domain.SentimentNeutral},
		{"mixed balances out", "great product but terrible support", domain.SentimentNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := a.Analyze(tt.text)
			if result.SentimentLabel != tt.label {
				t.Errorf("label = %s, want %s (score %f)", result.SentimentLabel, tt.label, result.SentimentScore)
			}
			if result.SentimentScore < 0 || result.SentimentScore > 1 {
				t.Errorf("score %f outside [0, 1]", result.SentimentScore)
			}
		})
	}
}

func TestAnalyzeTopics(t *testing.T) {
	a := NewAnalyzer()

	result := a.Analyze("The mobile app is slow and the pricing is too expensive")
	want := []string{"performance", "pricing", "mobile"}
	if !reflect.DeepEqual(result.Topics, want) {
		t.Errorf("topics = %v, want %v", result.Topics, want)
	}

	// Repeated keywords must not duplicate a topic.
	result = a.Analyze("slow slow slow loading and lag everywhere")
	count := 0
	for _, topic := range result.Topics {
		if topic == "performance" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("performance topic appeared %d times, want 1", count)
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	a := NewAnalyzer()

	text := "The export feature crashes and support was slow to respond"
	first := a.Analyze(text)
	for i := 0; i < 5; i++ {
		if got := a.Analyze(text); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d diverged: %+v vs %+v", i, got, first)
		}
	}
}
