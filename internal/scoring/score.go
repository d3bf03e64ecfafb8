// Package scoring turns a framework definition and a sparse response map into
// maturity scores, ranked gaps, a phased remediation plan and prioritized
// recommendations. Every function here is pure: no I/O, no clock, no shared state.
package scoring

import (
	"github.com/terra-clan/compliance-engine/internal/models"
)

// Score returns the percentage score of a question set.
//
// Only answered questions count: the mean answer is scaled by
// 100/maxAnswerValue and rounded half-up. An empty answered set scores 0.
// The arithmetic is done in integers so the result never depends on
// floating point rounding of the scale factor.
func Score(questions []models.Question, responses models.Responses, maxAnswerValue int) int {
	if maxAnswerValue <= 0 {
		maxAnswerValue = models.DefaultMaxAnswerValue
	}

	sum, answered := 0, 0
	for _, q := range questions {
		v, ok := responses[q.ID]
		if !ok {
			continue
		}
		sum += v
		answered++
	}
	if answered == 0 {
		return 0
	}

	// round(sum/answered * 100/max) == floor((200*sum + answered*max) / (2*answered*max))
	denom := 2 * answered * maxAnswerValue
	return clampPercent(floorDiv(200*sum+answered*maxAnswerValue, denom))
}

// CompletionRate returns round(answered/total*100) over every question in the set.
// Unlike Score, unanswered questions count in the denominator.
func CompletionRate(questions []models.Question, responses models.Responses) int {
	total := len(questions)
	if total == 0 {
		return 0
	}
	answered := Answered(questions, responses)
	return clampPercent((200*answered + total) / (2 * total))
}

// Answered counts the questions that have a response.
func Answered(questions []models.Question, responses models.Responses) int {
	n := 0
	for _, q := range questions {
		if _, ok := responses[q.ID]; ok {
			n++
		}
	}
	return n
}

// AnalyzeSections scores every section of the framework in declaration order.
func AnalyzeSections(fw *models.Framework, responses models.Responses) []models.SectionAnalysis {
	out := make([]models.SectionAnalysis, 0, len(fw.Sections))
	ceiling := fw.MaxAnswerValue()
	for _, s := range fw.Sections {
		qs := s.AllQuestions()
		out = append(out, models.SectionAnalysis{
			SectionID:         s.ID,
			Section:           s.Name,
			Score:             Score(qs, responses, ceiling),
			QuestionsAnswered: Answered(qs, responses),
			TotalQuestions:    len(qs),
			CompletionRate:    CompletionRate(qs, responses),
		})
	}
	return out
}

// CategoryPerformances scores every category. Categories inherit their
// section's priority, normalized into the shared priority vocabulary.
func CategoryPerformances(fw *models.Framework, responses models.Responses) []models.CategoryPerformance {
	var out []models.CategoryPerformance
	ceiling := fw.MaxAnswerValue()
	for _, s := range fw.Sections {
		priority := s.Priority.Normalize()
		for _, c := range s.Categories {
			out = append(out, models.CategoryPerformance{
				SectionID:         s.ID,
				Section:           s.Name,
				CategoryID:        c.ID,
				Category:          c.Name,
				Score:             Score(c.Questions, responses, ceiling),
				QuestionsAnswered: Answered(c.Questions, responses),
				TotalQuestions:    len(c.Questions),
				Priority:          priority,
			})
		}
	}
	if out == nil {
		out = []models.CategoryPerformance{}
	}
	return out
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func clampPercent(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
