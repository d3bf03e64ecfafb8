package models

import (
	"fmt"
	"time"
)

// Responses maps question ID to the answered value.
type Responses map[string]int

// OrganizationInfo is carried through the assessment but never scored.
type OrganizationInfo struct {
	Name             string `json:"name,omitempty"`
	Industry         string `json:"industry,omitempty"`
	Size             string `json:"size,omitempty"`
	Contact          string `json:"contact,omitempty"`
	Email            string `json:"email,omitempty"`
	CageCode         string `json:"cageCode,omitempty"`
	TargetLevel      string `json:"targetLevel,omitempty"`
	AssessorName     string `json:"assessorName,omitempty"`
	AssessmentReason string `json:"assessmentReason,omitempty"`
}

// AssessmentData is a (possibly partial) set of answers against one framework.
type AssessmentData struct {
	ID               string           `json:"id"`
	FrameworkID      string           `json:"frameworkId"`
	Responses        Responses        `json:"responses"`
	OrganizationInfo OrganizationInfo `json:"organizationInfo"`
	CreatedAt        time.Time        `json:"createdAt"`
	LastModified     time.Time        `json:"lastModified"`
	IsComplete       bool             `json:"isComplete"`
}

// ResponseError reports a value outside the framework's answer domain.
type ResponseError struct {
	QuestionID string
	Value      int
	Max        int
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("response for %s out of range: %d (allowed 0-%d)", e.QuestionID, e.Value, e.Max)
}

// ValidateResponses checks every response that targets a known question.
// Unknown question IDs are stale input, not errors.
func ValidateResponses(fw *Framework, responses Responses) error {
	ceiling := fw.MaxAnswerValue()
	for _, q := range fw.AllQuestions() {
		v, ok := responses[q.ID]
		if !ok {
			continue
		}
		if v < 0 || v > ceiling {
			return &ResponseError{QuestionID: q.ID, Value: v, Max: ceiling}
		}
	}
	return nil
}

// IsCompleteFor reports whether every question in fw has a response.
func (r Responses) IsCompleteFor(fw *Framework) bool {
	total := 0
	for _, q := range fw.AllQuestions() {
		total++
		if _, ok := r[q.ID]; !ok {
			return false
		}
	}
	return total > 0
}

// Clone returns an independent copy.
func (r Responses) Clone() Responses {
	out := make(Responses, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// AssessmentFilters defines filters for listing assessments
type AssessmentFilters struct {
	FrameworkID string
	Complete    *bool
	Limit       int
	Offset      int
}

// CreateAssessmentRequest represents a request to start an assessment
type CreateAssessmentRequest struct {
	FrameworkID      string           `json:"framework_id"`
	OrganizationInfo OrganizationInfo `json:"organization_info"`
	Responses        Responses        `json:"responses,omitempty"`
}

// UpdateResponsesRequest merges (or replaces) answers on an assessment
type UpdateResponsesRequest struct {
	Responses Responses `json:"responses"`
	Replace   bool      `json:"replace,omitempty"`
}

// AnalyzeRequest is a stateless scoring request
type AnalyzeRequest struct {
	FrameworkID string    `json:"framework_id"`
	Responses   Responses `json:"responses"`
}
