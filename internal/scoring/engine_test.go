package scoring

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/terra-clan/compliance-engine/internal/models"
)

func TestEngineAnalyze(t *testing.T) {
	engine := NewEngine(DefaultConfig(), nil)
	fw := cmmcFramework()

	report := engine.Analyze(fw, models.Responses{
		"AC.L1-3.1.1": 0,
		"AC.L1-3.1.2": 1,
		"AT.1":        3,
		"retired-id":  2,
	})

	if report.FrameworkID != "cmmc" || report.FrameworkVersion != "2.0" {
		t.Errorf("unexpected framework identity: %s %s", report.FrameworkID, report.FrameworkVersion)
	}
	// (0+1+3)/3 answered on 0-3 => 44
	if report.OverallScore != 44 {
		t.Errorf("expected overall score 44, got %d", report.OverallScore)
	}
	if report.CompletionRate != 100 || report.QuestionsAnswered != 3 || report.TotalQuestions != 3 {
		t.Errorf("unexpected completion: %d%% %d/%d", report.CompletionRate, report.QuestionsAnswered, report.TotalQuestions)
	}
	if report.Maturity.Name != "Developing" {
		t.Errorf("expected Developing maturity, got %s", report.Maturity.Name)
	}
	if len(report.Sections) != 2 || len(report.Categories) != 2 {
		t.Fatalf("expected 2 sections and 2 categories, got %d/%d", len(report.Sections), len(report.Categories))
	}

	if len(report.Gaps) != 1 || report.Gaps[0].CategoryID != "account-management" {
		t.Fatalf("expected one gap on account-management, got %+v", report.Gaps)
	}
	if report.Gaps[0].Score != 17 || report.Gaps[0].Improvement != 58 {
		t.Errorf("expected gap 17 -> 58 needed, got %d -> %d", report.Gaps[0].Score, report.Gaps[0].Improvement)
	}
	if report.Gaps[0].Priority != models.PriorityCritical {
		t.Errorf("expected inherited critical priority, got %s", report.Gaps[0].Priority)
	}

	if len(report.Remediation) != 1 || report.Remediation[0].Phase != 1 {
		t.Errorf("expected one phase 1 item, got %+v", report.Remediation)
	}

	if len(report.Recommendations) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(report.Recommendations))
	}
	if report.Recommendations[0].QuestionID != "AC.L1-3.1.1" {
		t.Errorf("expected missing control first, got %s", report.Recommendations[0].QuestionID)
	}
	if report.StrongPosture {
		t.Error("did not expect strong posture")
	}
}

func TestEngineAnalyzeEmpty(t *testing.T) {
	engine := NewEngine(Config{}, nil)
	fw := smallFramework()

	report := engine.Analyze(fw, models.Responses{})
	if report.OverallScore != 0 || report.CompletionRate != 0 {
		t.Errorf("expected zero score and completion, got %d/%d", report.OverallScore, report.CompletionRate)
	}
	if report.Maturity.Name != fw.MaturityLevels[0].Name {
		t.Errorf("expected lowest maturity level, got %s", report.Maturity.Name)
	}
	if report.StrongPosture {
		t.Error("an unanswered assessment is not a strong posture")
	}
	if report.Recommendations == nil || report.Gaps == nil || report.Remediation == nil {
		t.Error("expected non-nil slices for empty report")
	}

	report = engine.Analyze(nil, nil)
	if report.TotalQuestions != 0 || report.OverallScore != 0 {
		t.Errorf("expected empty report for nil framework, got %+v", report)
	}
}

func TestEngineStrongPosture(t *testing.T) {
	engine := NewEngine(DefaultConfig(), nil)
	report := engine.Analyze(smallFramework(), models.Responses{"q1": 3, "q2": 2})
	if !report.StrongPosture {
		t.Error("expected strong posture when no response is under threshold")
	}
	if len(report.Recommendations) != 0 {
		t.Errorf("expected no recommendations, got %d", len(report.Recommendations))
	}
}

func TestEngineConfigDefaults(t *testing.T) {
	engine := NewEngine(Config{GapBenchmark: 90}, nil)
	cfg := engine.Config()
	if cfg.GapBenchmark != 90 {
		t.Errorf("expected benchmark override 90, got %d", cfg.GapBenchmark)
	}
	if cfg.MaxGaps != 10 || cfg.MaxRecommendations != 10 || cfg.RecommendationThreshold != 2 || cfg.ImpactCap != 25 {
		t.Errorf("expected defaults for unset fields, got %+v", cfg)
	}

	report := engine.Analyze(smallFramework(), models.Responses{"q1": 3, "q2": 2})
	// 83 is below a benchmark of 90
	if len(report.Gaps) != 1 || report.Gaps[0].Improvement != 7 {
		t.Errorf("expected one gap of 7 under benchmark 90, got %+v", report.Gaps)
	}
}

func TestEngineDeterministic(t *testing.T) {
	engine := NewEngine(DefaultConfig(), nil)
	fw := cmmcFramework()
	responses := models.Responses{"AC.L1-3.1.1": 0, "AC.L1-3.1.2": 1, "AT.1": 0}

	first, err := json.Marshal(engine.Analyze(fw, responses))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		next, err := json.Marshal(engine.Analyze(fw, responses))
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		if !bytes.Equal(first, next) {
			t.Fatalf("run %d produced different output", i)
		}
	}
}
