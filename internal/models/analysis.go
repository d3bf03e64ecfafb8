package models

// SectionAnalysis is the per-section score and completion.
type SectionAnalysis struct {
	SectionID         string `json:"sectionId"`
	Section           string `json:"section"`
	Score             int    `json:"score"`
	QuestionsAnswered int    `json:"questionsAnswered"`
	TotalQuestions    int    `json:"totalQuestions"`
	CompletionRate    int    `json:"completionRate"`
}

// CategoryPerformance is the per-category score. Priority is inherited from the section.
type CategoryPerformance struct {
	SectionID         string   `json:"sectionId"`
	Section           string   `json:"section"`
	CategoryID        string   `json:"categoryId"`
	Category          string   `json:"category"`
	Score             int      `json:"score"`
	QuestionsAnswered int      `json:"questionsAnswered"`
	TotalQuestions    int      `json:"totalQuestions"`
	Priority          Priority `json:"priority"`
}

// Gap is a category scoring below the benchmark.
type Gap struct {
	SectionID   string   `json:"sectionId"`
	Section     string   `json:"section"`
	CategoryID  string   `json:"categoryId"`
	Category    string   `json:"category"`
	Score       int      `json:"score"`
	Priority    Priority `json:"priority"`
	Improvement int      `json:"improvementNeeded"`
}

// Effort is a coarse implementation-effort label
type Effort string

const (
	EffortLow    Effort = "low"
	EffortMedium Effort = "medium"
	EffortHigh   Effort = "high"
)

// RemediationItem is a gap annotated with phase, timeline and owners.
type RemediationItem struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Section        string   `json:"section"`
	Category       string   `json:"category"`
	Priority       Priority `json:"priority"`
	Effort         Effort   `json:"effort"`
	Timeline       string   `json:"timeline"`
	Phase          int      `json:"phase"`
	GapSize        int      `json:"gapSize"`
	ExpectedImpact int      `json:"expectedImpact"`
	Resources      []string `json:"resources"`
}

// SmartRecommendation is a ranked improvement suggestion tied to one response.
type SmartRecommendation struct {
	ID               string   `json:"id"`
	QuestionID       string   `json:"questionId"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Priority         Priority `json:"priority"`
	Effort           Effort   `json:"effort"`
	Timeframe        string   `json:"timeframe"`
	Cost             string   `json:"cost"`
	Impact           int      `json:"impact"`
	RiskReduction    int      `json:"riskReduction"`
	Category         string   `json:"category"`
	Steps            []string `json:"steps"`
	Resources        []string `json:"resources"`
	ComplianceImpact []string `json:"complianceImpact"`
	BusinessValue    string   `json:"businessValue"`
	SuccessMetrics   []string `json:"successMetrics"`
}

// Report bundles every derived structure for one (framework, responses) pair.
// It carries no timestamps so identical input always serializes identically.
type Report struct {
	FrameworkID       string                `json:"frameworkId"`
	FrameworkVersion  string                `json:"frameworkVersion"`
	OverallScore      int                   `json:"overallScore"`
	CompletionRate    int                   `json:"completionRate"`
	QuestionsAnswered int                   `json:"questionsAnswered"`
	TotalQuestions    int                   `json:"totalQuestions"`
	Maturity          MaturityLevel         `json:"maturity"`
	Sections          []SectionAnalysis     `json:"sections"`
	Categories        []CategoryPerformance `json:"categories"`
	Gaps              []Gap                 `json:"gaps"`
	Remediation       []RemediationItem     `json:"remediation"`
	Recommendations   []SmartRecommendation `json:"recommendations"`
	StrongPosture     bool                  `json:"strongPosture"`
}

// ScoreSummary is the compact view pushed over live connections.
type ScoreSummary struct {
	OverallScore      int               `json:"overallScore"`
	CompletionRate    int               `json:"completionRate"`
	QuestionsAnswered int               `json:"questionsAnswered"`
	TotalQuestions    int               `json:"totalQuestions"`
	Maturity          string            `json:"maturity"`
	Sections          []SectionAnalysis `json:"sections"`
	GapCount          int               `json:"gapCount"`
}

// Summary returns the compact view of the report.
func (r *Report) Summary() ScoreSummary {
	return ScoreSummary{
		OverallScore:      r.OverallScore,
		CompletionRate:    r.CompletionRate,
		QuestionsAnswered: r.QuestionsAnswered,
		TotalQuestions:    r.TotalQuestions,
		Maturity:          r.Maturity.Name,
		Sections:          r.Sections,
		GapCount:          len(r.Gaps),
	}
}
