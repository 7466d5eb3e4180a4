package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mikey/ghl-ops/internal/textutil"
)

const leadPromptFormat = `You are a lead qualification assistant for a mortgage loan officer. Decide whether the
following contact, taken from an email, is a genuine prospective client (a "lead") rather than a
vendor, newsletter, automated notification or colleague.
Respond with a JSON object containing:
- is_lead: boolean (true if this is a prospective client)
- score: number between 0 and 1 (higher means more likely to be a lead)
- confidence: number between 0 and 1 (how confident you are in your assessment)
- category: string, one of "purchase", "refinance", "realtor", "vendor", "other"
- explanation: string (one sentence)

Contact:
Name: %s
Email: %s
Phone: %s
Subject: %s
Message:
%s

Respond only with the JSON object and nothing else.`

// leadResponse represents the structured response from the LLM
type leadResponse struct {
	IsLead      bool    `json:"is_lead"`
	Score       float64 `json:"score"`
	Confidence  float64 `json:"confidence"`
	Category    string  `json:"category"`
	Explanation string  `json:"explanation"`
}

// BuildLeadPrompt renders the classification prompt; body must already be
// truncated to the provider's limit
func BuildLeadPrompt(c *Candidate, body string) string {
	name := c.Name
	if name == "" {
		name = strings.TrimSpace(c.FirstName + " " + c.LastName)
	}
	return fmt.Sprintf(leadPromptFormat, name, c.Email, c.Phone, c.Subject, body)
}

// ParseLeadAssessment decodes a model response, tolerating prose around the JSON
func ParseLeadAssessment(text, model string) (*LeadAssessment, error) {
	var resp leadResponse
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &resp); err != nil {
		jsonStr, extractErr := textutil.ExtractJSONObject(text)
		if extractErr != nil {
			return nil, fmt.Errorf("failed to extract JSON from LLM response: %w", extractErr)
		}
		if err := json.Unmarshal([]byte(jsonStr), &resp); err != nil {
			return nil, fmt.Errorf("failed to parse LLM response as JSON: %w", err)
		}
	}

	category := NormalizeCategory(resp.Category)
	if category == "" {
		category = CategoryOther
	}

	return &LeadAssessment{
		IsLead:      resp.IsLead,
		Score:       clamp01(resp.Score),
		Confidence:  clamp01(resp.Confidence),
		Category:    category,
		Explanation: resp.Explanation,
		ModelUsed:   model,
		AssessedAt:  time.Now(),
	}, nil
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
