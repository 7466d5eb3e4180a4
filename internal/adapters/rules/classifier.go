// Package rules is a keyword classifier for deployments without an LLM.
package rules

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mikey/ghl-ops/internal/core"
)

const modelName = "rules"

type category struct {
	name     string
	keywords []string
}

// Checked in order; the first category with a hit wins
var leadCategories = []category{
	{name: "purchase", keywords: []string{"pre-approval", "preapproval", "pre-approved", "prequal", "purchase", "buy a home", "buying a home", "first-time", "first time buyer", "home buyer", "homebuyer", "down payment"}},
	{name: "refinance", keywords: []string{"refinance", "refi", "cash-out", "cash out", "lower my rate", "heloc", "equity"}},
	{name: "realtor", keywords: []string{"realtor", "listing", "buyer's agent", "open house", "under contract"}},
}

var nonLeadKeywords = []string{
	"unsubscribe", "newsletter", "webinar", "invoice", "receipt", "order confirmation",
	"password reset", "verify your email", "out of office", "automatic reply",
}

// Classifier scores candidates by keyword hits in the subject and body
type Classifier struct{}

// NewClassifier creates a keyword classifier
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify implements core.LeadClassifier
func (c *Classifier) Classify(_ context.Context, candidate *core.Candidate) (*core.LeadAssessment, error) {
	text := strings.ToLower(candidate.Subject + "\n" + candidate.Body)
	result := &core.LeadAssessment{ModelUsed: modelName, AssessedAt: time.Now()}

	hits := 0
	for _, cat := range leadCategories {
		for _, kw := range cat.keywords {
			if strings.Contains(text, kw) {
				hits++
				if result.Category == "" {
					result.Category = cat.name
				}
			}
		}
	}

	var negative []string
	for _, kw := range nonLeadKeywords {
		if strings.Contains(text, kw) {
			negative = append(negative, kw)
		}
	}

	switch {
	case hits > 0:
		result.IsLead = true
		result.Score = min(1, 0.6+0.1*float64(hits-1))
		result.Confidence = 0.6
		result.Explanation = fmt.Sprintf("%d lead keyword(s), category %s", hits, result.Category)
	case len(negative) > 0:
		result.Score = 0.1
		result.Confidence = 0.7
		result.Explanation = "automated or marketing mail: " + strings.Join(negative, ", ")
	default:
		// No signal either way; let the threshold decide
		result.IsLead = true
		result.Score = 0.5
		result.Confidence = 0.2
		result.Explanation = "no keywords matched"
	}
	return result, nil
}
