package scoring

import (
	"sort"

	"github.com/terra-clan/compliance-engine/internal/models"
)

// Recommendation defaults.
const (
	DefaultRecommendationThreshold = 2
	DefaultMaxRecommendations      = 10
)

// Recommend builds one recommendation per answered question scoring below
// threshold, ranks them by priority and impact, and keeps the top limit.
// Ties go to the question with the higher priority of its own, then framework
// order. The result is never nil; an empty slice means a strong posture.
func Recommend(fw *models.Framework, responses models.Responses, registry *RuleRegistry, threshold, limit int) []models.SmartRecommendation {
	recs := make([]models.SmartRecommendation, 0)
	if fw == nil {
		return recs
	}
	if threshold <= 0 {
		threshold = DefaultRecommendationThreshold
	}

	rules, _ := registry.Lookup(fw.ID)

	type candidate struct {
		rec          models.SmartRecommendation
		questionRank int
	}
	var candidates []candidate

	for _, s := range fw.Sections {
		for _, c := range s.Categories {
			for _, q := range c.Questions {
				v, ok := responses[q.ID]
				if !ok || v >= threshold {
					continue
				}
				in := RuleInput{Framework: fw, Section: s, Category: c, Question: q, Value: v}
				candidates = append(candidates, candidate{
					rec:          buildRecommendation(in, rules),
					questionRank: q.Priority.Rank(),
				})
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if ri, rj := a.rec.Priority.Rank(), b.rec.Priority.Rank(); ri != rj {
			return ri > rj
		}
		if a.rec.Impact != b.rec.Impact {
			return a.rec.Impact > b.rec.Impact
		}
		return a.questionRank > b.questionRank
	})

	for _, c := range candidates {
		recs = append(recs, c.rec)
	}
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}

func buildRecommendation(in RuleInput, rules FrameworkRules) models.SmartRecommendation {
	var tmpl Template
	matched := false
	if rules.Rules != nil {
		tmpl, matched = rules.Rules(in)
	}
	if !matched {
		tmpl = genericTemplate(in)
	}

	sev := rules.Profile.For(in.Value)

	compliance := make([]string, 0, len(rules.References)+1)
	compliance = append(compliance, rules.References...)
	compliance = append(compliance, "Control "+in.Question.ID)

	return models.SmartRecommendation{
		ID:               "rec-" + in.Question.ID,
		QuestionID:       in.Question.ID,
		Title:            tmpl.Title,
		Description:      tmpl.Description,
		Priority:         sev.Priority.Normalize(),
		Effort:           tmpl.Effort,
		Timeframe:        tmpl.Timeframe,
		Cost:             tmpl.Cost,
		Impact:           sev.Impact,
		RiskReduction:    sev.RiskReduction,
		Category:         in.Category.Name,
		Steps:            tmpl.Steps,
		Resources:        tmpl.Resources,
		ComplianceImpact: compliance,
		BusinessValue:    tmpl.BusinessValue,
		SuccessMetrics:   tmpl.SuccessMetrics,
	}
}
