// Package heuristic implements the deterministic lexical fallback analyzer.
//
// The analyzer is the always-available classification path: it never fails,
// costs O(len(text)), and is used both when the external classification
// service is unavailable and when an individual call exhausts its retries.
package heuristic

import (
	"fmt"
	"sort"
	"strings"

	"github.com/belikedeep/feedbacksense/core/domain"
)

// Confidence bounds for heuristic results. Kept below a typical successful
// AI call so downstream consumers can rank provenance by confidence alone.
const (
	baseConfidence = 0.30
	stepConfidence = 0.08
	MaxConfidence  = 0.60
)

// categoryRule maps lexical signals to a category. Rules are evaluated in
// order; the highest accumulated score wins.
type categoryRule struct {
	category domain.Category
	keywords []string
	weight   float64
}

var categoryRules = []categoryRule{
	{domain.CategoryBugReport, []string{"bug", "crash", "broken", "error", "doesn't work", "does not work", "fails", "failure", "glitch", "freeze", "stuck"}, 1.0},
	{domain.CategoryFeatureRequest, []string{"feature", "would be great", "please add", "wish", "request", "support for", "could you add", "suggestion", "it would help"}, 1.0},
	{domain.CategoryBilling, []string{"refund", "invoice", "charge", "billing", "payment", "subscription", "price", "pricing", "overcharged"}, 1.1},
	{domain.CategoryUsageIssue, []string{"how do i", "how to", "can't find", "cannot find", "confusing", "confused", "unclear", "where is", "hard to"}, 0.9},
	{domain.CategoryPraise, []string{"love", "great", "awesome", "amazing", "excellent", "thank you", "thanks", "fantastic", "perfect", "well done"}, 0.9},
	{domain.CategoryComplaint, []string{"disappointed", "frustrated", "terrible", "awful", "worst", "unacceptable", "annoyed", "unhappy", "slow", "useless"}, 0.9},
	{domain.CategoryQuestion, []string{"?", "question", "wondering", "is there", "do you", "does it", "will you"}, 0.5},
}

var positiveWords = []string{
	"love", "great", "good", "awesome", "amazing", "excellent", "fantastic",
	"perfect", "helpful", "easy", "fast", "intuitive", "reliable", "thanks",
	"thank", "wonderful", "smooth", "impressed",
}

var negativeWords = []string{
	"bad", "terrible", "awful", "worst", "hate", "broken", "crash", "bug",
	"slow", "confusing", "frustrated", "disappointed", "useless", "annoying",
	"error", "fails", "unacceptable", "unhappy", "problem",
}

// topicRule maps keywords to a stable topic label. Order here fixes the
// order of the returned topic set.
type topicRule struct {
	topic    string
	keywords []string
}

var topicRules = []topicRule{
	{"performance", []string{"slow", "fast", "lag", "speed", "performance", "loading", "timeout"}},
	{"ui", []string{"ui", "interface", "design", "layout", "button", "screen", "dark mode"}},
	{"pricing", []string{"price", "pricing", "expensive", "cheap", "cost", "billing", "subscription"}},
	{"reliability", []string{"crash", "bug", "broken", "error", "freeze", "down", "unstable"}},
	{"usability", []string{"confusing", "intuitive", "easy", "hard to", "unclear", "how to", "how do i"}},
	{"integrations", []string{"integration", "api", "export", "import", "webhook", "sync"}},
	{"mobile", []string{"mobile", "iphone", "android", "app", "tablet"}},
	{"support", []string{"support", "help", "response", "ticket", "customer service"}},
}

// Analyzer is the deterministic lexical analyzer. It is stateless and safe
// for concurrent use.
type Analyzer struct{}

// NewAnalyzer creates a heuristic analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze classifies one feedback text. Pure function of its input:
// identical text always yields identical output, and it never fails.
func (a *Analyzer) Analyze(text string) domain.AnalysisResult {
	lower := strings.ToLower(text)

	category, signals := a.classify(lower)
	label, score := a.sentiment(lower)
	topics := a.topics(lower)

	confidence := baseConfidence + stepConfidence*float64(signals)
	if confidence > MaxConfidence {
		confidence = MaxConfidence
	}

	reasoning := "no lexical signals matched"
	if signals > 0 {
		reasoning = fmt.Sprintf("matched %d lexical signal(s) for %s", signals, category)
	}

	return domain.AnalysisResult{
		Category:       category,
		Confidence:     confidence,
		SentimentLabel: label,
		SentimentScore: score,
		Topics:         topics,
		Reasoning:      reasoning,
		Method:         domain.MethodHeuristicFallback,
	}
}

// classify returns the best-scoring category and how many of its keywords
// matched. Ties resolve to the rule listed first, keeping output stable.
func (a *Analyzer) classify(lower string) (domain.Category, int) {
	best := domain.CategoryOther
	bestScore := 0.0
	bestHits := 0

	for _, rule := range categoryRules {
		hits := 0
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		score := rule.weight * float64(hits)
		if score > bestScore {
			best = rule.category
			bestScore = score
			bestHits = hits
		}
	}

	return best, bestHits
}

// sentiment scores the text on a 0..1 scale, 0.5 being neutral.
func (a *Analyzer) sentiment(lower string) (domain.SentimentLabel, float64) {
	pos, neg := 0, 0
	for _, w := range positiveWords {
		pos += strings.Count(lower, w)
	}
	for _, w := range negativeWords {
		neg += strings.Count(lower, w)
	}

	total := pos + neg
	if total == 0 {
		return domain.SentimentNeutral, 0.5
	}

	score := 0.5 + float64(pos-neg)/(2.0*float64(total))
	switch {
	case score >= 0.6:
		return domain.SentimentPositive, score
	case score <= 0.4:
		return domain.SentimentNegative, score
	default:
		return domain.SentimentNeutral, score
	}
}

// topics extracts matching topic labels in rule order, deduplicated.
func (a *Analyzer) topics(lower string) []string {
	var topics []string
	seen := make(map[string]bool)

	for _, rule := range topicRules {
		if seen[rule.topic] {
			continue
		}
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				topics = append(topics, rule.topic)
				seen[rule.topic] = true
				break
			}
		}
	}

	return topics
}

// Topics returns the full set of topic labels the analyzer can emit,
// sorted for stable presentation.
func Topics() []string {
	out := make([]string, 0, len(topicRules))
	for _, r := range topicRules {
		out = append(out, r.topic)
	}
	sort.Strings(out)
	return out
}
