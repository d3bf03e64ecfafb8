package scoring

import (
	"sort"

	"github.com/terra-clan/compliance-engine/internal/models"
)

// FindGaps returns categories scoring below benchmark, worst first, capped at limit.
// A limit <= 0 disables the cap.
func FindGaps(perf []models.CategoryPerformance, benchmark, limit int) []models.Gap {
	gaps := make([]models.Gap, 0)
	for _, p := range perf {
		if p.Score >= benchmark {
			continue
		}
		improvement := benchmark - p.Score
		if improvement < 0 {
			improvement = 0
		}
		gaps = append(gaps, models.Gap{
			SectionID:   p.SectionID,
			Section:     p.Section,
			CategoryID:  p.CategoryID,
			Category:    p.Category,
			Score:       p.Score,
			Priority:    p.Priority.Normalize(),
			Improvement: improvement,
		})
	}

	sort.SliceStable(gaps, func(i, j int) bool {
		return gaps[i].Score < gaps[j].Score
	})

	if limit > 0 && len(gaps) > limit {
		gaps = gaps[:limit]
	}
	return gaps
}
