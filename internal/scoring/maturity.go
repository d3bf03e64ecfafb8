package scoring

import (
	"log/slog"

	"github.com/terra-clan/compliance-engine/internal/models"
)

// ClassifyMaturity returns the first band containing score.
// Malformed bands fall back to levels[0] so a report can always render;
// the anomaly is logged because it means the framework file is broken.
func ClassifyMaturity(score int, levels []models.MaturityLevel) models.MaturityLevel {
	for _, level := range levels {
		if level.Contains(score) {
			return level
		}
	}

	if len(levels) == 0 {
		slog.Warn("no maturity levels defined", "score", score)
		return models.MaturityLevel{}
	}

	slog.Warn("score matched no maturity band, using lowest level",
		"score", score,
		"fallback", levels[0].Name,
	)
	return levels[0]
}
