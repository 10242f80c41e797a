package models

import (
	"slices"
	"time"
)

// DateLayout is the layout of BriefingRecord.Date
const DateLayout = "2006-01-02"

// BriefingRecord is an immutable snapshot of one generated briefing and the
// inputs that produced it. Labels are copied at generation time so later edits
// to the catalog never change how history is displayed.
type BriefingRecord struct {
	ID               string    `json:"id"`
	Date             string    `json:"date"`
	ModelID          string    `json:"model"`
	ModelLabel       string    `json:"model_label"`
	PromptSent       string    `json:"prompt_sent"`
	PromptModified   bool      `json:"prompt_modified"`
	SystemPromptSent string    `json:"system_prompt_sent"`
	Response         string    `json:"response"`
	GeneratedAt      time.Time `json:"generated_at"`
	StyleID          string    `json:"style"`
	TopicsEnabled    []string  `json:"topics_enabled"`
}

// Day parses Date, falling back to GeneratedAt
func (r *BriefingRecord) Day() time.Time {
	if d, err := time.Parse(DateLayout, r.Date); err == nil {
		return d
	}
	return r.GeneratedAt
}

// Clone returns a deep copy
func (r *BriefingRecord) Clone() *BriefingRecord {
	out := *r
	out.TopicsEnabled = slices.Clone(r.TopicsEnabled)
	return &out
}
