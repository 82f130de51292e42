// Package classifier holds the risk classification step. KeywordClassifier is a
// placeholder for a real content-safety model: a fixed latency followed by an
// ordered list of case-insensitive substring rules.
package classifier

import (
	"context"
	"strings"
	"time"

	"moderation-service/internal/entity"
)

// Classifier maps submitted content onto a risk verdict. Implementations must not
// have side effects.
type Classifier interface {
	Classify(ctx context.Context, contentType entity.ContentType, content string) (entity.Verdict, error)
}

// Rule flags content containing any of Terms.
type Rule struct {
	Issue      string
	Risk       entity.RiskLevel
	Confidence int
	Terms      []string
}

// DefaultRules is the stub rule set, evaluated in order.
var DefaultRules = []Rule{
	{
		Issue:      "Violence or threats",
		Risk:       entity.RiskHigh,
		Confidence: 92,
		Terms:      []string{"kill", "weapon", "threat", "bomb", "shoot"},
	},
	{
		Issue:      "Harassment or abusive language",
		Risk:       entity.RiskMedium,
		Confidence: 78,
		Terms:      []string{"hate", "idiot", "stupid", "loser"},
	},
	{
		Issue:      "Spam or scam",
		Risk:       entity.RiskMedium,
		Confidence: 74,
		Terms:      []string{"free money", "click here", "buy now", "winner"},
	},
}

const cleanConfidence = 100

type KeywordClassifier struct {
	rules []Rule
	delay time.Duration
}

// NewKeywordClassifier normalizes rules the same way the terms are matched:
// trimmed and lower-cased, empty terms dropped.
func NewKeywordClassifier(rules []Rule, delay time.Duration) *KeywordClassifier {
	normalized := make([]Rule, 0, len(rules))
	for _, r := range rules {
		terms := make([]string, 0, len(r.Terms))
		for _, term := range r.Terms {
			term = strings.ToLower(strings.TrimSpace(term))
			if term != "" {
				terms = append(terms, term)
			}
		}
		r.Terms = terms
		normalized = append(normalized, r)
	}
	return &KeywordClassifier{
		rules: normalized,
		delay: delay,
	}
}

// Classify simulates analyzer latency and then applies the rules to the raw
// payload, whatever its content type.
func (c *KeywordClassifier) Classify(_ context.Context, _ entity.ContentType, content string) (entity.Verdict, error) {
	start := time.Now()
	if c.delay > 0 {
		time.Sleep(c.delay)
	}

	verdict := entity.Verdict{
		RiskLevel:       entity.RiskSafe,
		DetectedIssues:  []string{},
		ConfidenceScore: cleanConfidence,
	}
	lower := strings.ToLower(content)
	flagged := false
	for _, r := range c.rules {
		if !containsAny(lower, r.Terms) {
			continue
		}
		verdict.DetectedIssues = append(verdict.DetectedIssues, r.Issue)
		if !flagged || r.Risk.Severity() > verdict.RiskLevel.Severity() ||
			(r.Risk == verdict.RiskLevel && r.Confidence > verdict.ConfidenceScore) {
			verdict.RiskLevel = r.Risk
			verdict.ConfidenceScore = r.Confidence
		}
		flagged = true
	}

	verdict.ProcessingTime = int(time.Since(start).Milliseconds())
	return verdict, nil
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
