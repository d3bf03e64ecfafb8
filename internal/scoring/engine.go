package scoring

import (
	"github.com/terra-clan/compliance-engine/internal/models"
)

// Default engine constants.
const (
	DefaultGapBenchmark = 75
	DefaultMaxGaps      = 10
)

// Config holds the tunable constants of the engine.
type Config struct {
	GapBenchmark            int
	MaxGaps                 int
	MaxRecommendations      int
	RecommendationThreshold int
	ImpactCap               int
}

// DefaultConfig returns the reference constants.
func DefaultConfig() Config {
	return Config{
		GapBenchmark:            DefaultGapBenchmark,
		MaxGaps:                 DefaultMaxGaps,
		MaxRecommendations:      DefaultMaxRecommendations,
		RecommendationThreshold: DefaultRecommendationThreshold,
		ImpactCap:               DefaultImpactCap,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.GapBenchmark <= 0 {
		c.GapBenchmark = d.GapBenchmark
	}
	if c.MaxGaps <= 0 {
		c.MaxGaps = d.MaxGaps
	}
	if c.MaxRecommendations <= 0 {
		c.MaxRecommendations = d.MaxRecommendations
	}
	if c.RecommendationThreshold <= 0 {
		c.RecommendationThreshold = d.RecommendationThreshold
	}
	if c.ImpactCap <= 0 {
		c.ImpactCap = d.ImpactCap
	}
	return c
}

// Engine runs the full analysis pipeline. It holds no per-call state and is
// safe for concurrent use once constructed.
type Engine struct {
	cfg   Config
	rules *RuleRegistry
}

// NewEngine creates an engine. A nil registry uses the built-in rule tables.
func NewEngine(cfg Config, rules *RuleRegistry) *Engine {
	if rules == nil {
		rules = NewRuleRegistry()
	}
	return &Engine{cfg: cfg.withDefaults(), rules: rules}
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Analyze derives the full report for one framework and response set.
func (e *Engine) Analyze(fw *models.Framework, responses models.Responses) *models.Report {
	if fw == nil {
		fw = &models.Framework{}
	}

	questions := fw.AllQuestions()
	overall := Score(questions, responses, fw.MaxAnswerValue())
	perf := CategoryPerformances(fw, responses)
	gaps := FindGaps(perf, e.cfg.GapBenchmark, e.cfg.MaxGaps)
	recs := Recommend(fw, responses, e.rules, e.cfg.RecommendationThreshold, e.cfg.MaxRecommendations)
	answered := Answered(questions, responses)

	return &models.Report{
		FrameworkID:       fw.ID,
		FrameworkVersion:  fw.Version,
		OverallScore:      overall,
		CompletionRate:    CompletionRate(questions, responses),
		QuestionsAnswered: answered,
		TotalQuestions:    len(questions),
		Maturity:          ClassifyMaturity(overall, fw.MaturityLevels),
		Sections:          AnalyzeSections(fw, responses),
		Categories:        perf,
		Gaps:              gaps,
		Remediation:       PhaseRemediation(gaps, e.cfg.ImpactCap),
		Recommendations:   recs,
		StrongPosture:     answered > 0 && len(recs) == 0,
	}
}
