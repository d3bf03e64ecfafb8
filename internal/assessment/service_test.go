package assessment

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/terra-clan/compliance-engine/internal/cache"
	"github.com/terra-clan/compliance-engine/internal/frameworks"
	"github.com/terra-clan/compliance-engine/internal/models"
	"github.com/terra-clan/compliance-engine/internal/scoring"
	"github.com/terra-clan/compliance-engine/internal/storage"
)

func testFramework() *models.Framework {
	return &models.Framework{
		ID:        "test-fw",
		Name:      "Test Framework",
		Version:   "1.0",
		MaxAnswer: 3,
		MaturityLevels: []models.MaturityLevel{
			{Level: 1, Name: "Initial", MinScore: 0, MaxScore: 49},
			{Level: 2, Name: "Managed", MinScore: 50, MaxScore: 100},
		},
		Sections: []models.Section{
			{
				ID: "access", Name: "Access", Priority: models.PriorityHigh,
				Categories: []models.Category{{
					ID: "accounts", Name: "Accounts",
					Questions: []models.Question{
						{ID: "q1", Text: "Accounts are authorized", Priority: models.PriorityHigh},
						{ID: "q2", Text: "Access is limited", Priority: models.PriorityMedium},
					},
				}},
			},
			{
				ID: "media", Name: "Media", Priority: models.PriorityMedium,
				Categories: []models.Category{{
					ID: "disposal", Name: "Disposal",
					Questions: []models.Question{
						{ID: "q3", Text: "Media is sanitized", Priority: models.PriorityLow},
					},
				}},
			},
		},
	}
}

type countingCache struct {
	*cache.Memory
	hits, misses int
}

func (c *countingCache) Get(ctx context.Context, key string) (*models.Report, error) {
	r, err := c.Memory.Get(ctx, key)
	if r == nil {
		c.misses++
	} else {
		c.hits++
	}
	return r, err
}

func newTestManager(t *testing.T) (*Manager, *countingCache) {
	t.Helper()
	ctx := context.Background()

	repo, err := storage.NewSQLiteRepository(ctx, filepath.Join(t.TempDir(), "assessments.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	if err := storage.RunMigrations(ctx, repo.DB(), storage.DriverSQLite); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}

	loader := frameworks.NewLoader()
	loader.Add(testFramework())

	c := &countingCache{Memory: cache.NewMemory(time.Hour)}
	return NewManager(repo, loader, scoring.NewEngine(scoring.DefaultConfig(), nil), c), c
}

func TestCreateAssessment(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	a, err := m.Create(ctx, models.CreateAssessmentRequest{
		FrameworkID:      "test-fw",
		OrganizationInfo: models.OrganizationInfo{Name: "Acme"},
		Responses:        models.Responses{"q1": 2},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.ID == "" {
		t.Fatal("expected generated id")
	}
	if a.IsComplete {
		t.Error("partial assessment must not be complete")
	}

	got, err := m.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.OrganizationInfo.Name != "Acme" || got.Responses["q1"] != 2 {
		t.Errorf("unexpected assessment: %+v", got)
	}
}

func TestCreateAssessmentErrors(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.Create(ctx, models.CreateAssessmentRequest{FrameworkID: "missing"})
	if !errors.Is(err, ErrFrameworkNotFound) {
		t.Errorf("expected ErrFrameworkNotFound, got %v", err)
	}

	_, err = m.Create(ctx, models.CreateAssessmentRequest{
		FrameworkID: "test-fw",
		Responses:   models.Responses{"q1": 7},
	})
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
	var respErr *models.ResponseError
	if !errors.As(err, &respErr) || respErr.QuestionID != "q1" {
		t.Errorf("expected ResponseError for q1, got %v", err)
	}
}

func TestServiceWritesNoInfoLogs(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	a, err := m.Create(ctx, models.CreateAssessmentRequest{FrameworkID: "test-fw"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := m.UpdateResponses(ctx, a.ID, models.Responses{"q1": 1}, false); err != nil {
		t.Fatalf("UpdateResponses: %v", err)
	}
	if err := m.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	// the HTTP handlers own the audit lines for writes
	if buf.Len() != 0 {
		t.Errorf("expected no info-level service logs, got:\n%s", buf.String())
	}
}

func TestGetMissingAssessment(t *testing.T) {
	m, _ := newTestManager(t)

	if _, err := m.Get(context.Background(), "nope"); !errors.Is(err, ErrAssessmentNotFound) {
		t.Errorf("expected ErrAssessmentNotFound, got %v", err)
	}
	if err := m.Delete(context.Background(), "nope"); !errors.Is(err, ErrAssessmentNotFound) {
		t.Errorf("expected ErrAssessmentNotFound on delete, got %v", err)
	}
}

func TestUpdateResponsesMergeAndReplace(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	a, err := m.Create(ctx, models.CreateAssessmentRequest{
		FrameworkID: "test-fw",
		Responses:   models.Responses{"q1": 1},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	later := a.LastModified.Add(time.Minute)
	m.now = func() time.Time { return later }

	a, err = m.UpdateResponses(ctx, a.ID, models.Responses{"q2": 3, "q3": 0}, false)
	if err != nil {
		t.Fatalf("UpdateResponses (merge): %v", err)
	}
	if len(a.Responses) != 3 || a.Responses["q1"] != 1 {
		t.Errorf("merge lost existing answers: %v", a.Responses)
	}
	if !a.IsComplete {
		t.Error("expected complete after answering every question")
	}
	if !a.LastModified.Equal(later) {
		t.Errorf("expected last modified %s, got %s", later, a.LastModified)
	}

	a, err = m.UpdateResponses(ctx, a.ID, models.Responses{"q3": 2}, true)
	if err != nil {
		t.Fatalf("UpdateResponses (replace): %v", err)
	}
	if len(a.Responses) != 1 || a.IsComplete {
		t.Errorf("replace should leave one answer and an incomplete assessment: %+v", a)
	}

	stored, _ := m.Get(ctx, a.ID)
	if len(stored.Responses) != 1 || stored.Responses["q3"] != 2 {
		t.Errorf("replace not persisted: %v", stored.Responses)
	}

	if _, err := m.UpdateResponses(ctx, a.ID, models.Responses{"q2": -1}, false); !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("expected ErrInvalidResponse, got %v", err)
	}
	if _, err := m.UpdateResponses(ctx, "nope", models.Responses{"q2": 1}, false); !errors.Is(err, ErrAssessmentNotFound) {
		t.Errorf("expected ErrAssessmentNotFound, got %v", err)
	}
}

func TestUpdateResponsesConcurrentMerges(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	a, err := m.Create(ctx, models.CreateAssessmentRequest{FrameworkID: "test-fw"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	questions := []string{"q1", "q2", "q3"}
	for round := 0; round < 20; round++ {
		if _, err := m.UpdateResponses(ctx, a.ID, models.Responses{}, true); err != nil {
			t.Fatalf("round %d: clear: %v", round, err)
		}

		var wg sync.WaitGroup
		for i, q := range questions {
			wg.Add(1)
			go func(q string, v int) {
				defer wg.Done()
				if _, err := m.UpdateResponses(ctx, a.ID, models.Responses{q: v}, false); err != nil {
					t.Errorf("round %d: merge %s: %v", round, q, err)
				}
			}(q, i+1)
		}
		wg.Wait()

		stored, err := m.Get(ctx, a.ID)
		if err != nil {
			t.Fatalf("round %d: Get: %v", round, err)
		}
		if len(stored.Responses) != len(questions) {
			t.Fatalf("round %d: lost answers, stored %v", round, stored.Responses)
		}
		if !stored.IsComplete {
			t.Errorf("round %d: expected complete after all merges", round)
		}
	}
}

func TestReportUsesCache(t *testing.T) {
	m, c := newTestManager(t)
	ctx := context.Background()

	a, err := m.Create(ctx, models.CreateAssessmentRequest{
		FrameworkID: "test-fw",
		Responses:   models.Responses{"q1": 3, "q2": 3, "q3": 0},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	first, err := m.Report(ctx, a.ID)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	second, err := m.Report(ctx, a.ID)
	if err != nil {
		t.Fatalf("Report (cached): %v", err)
	}

	if c.misses != 1 || c.hits != 1 {
		t.Errorf("expected 1 miss then 1 hit, got misses=%d hits=%d", c.misses, c.hits)
	}
	if first.OverallScore != second.OverallScore {
		t.Errorf("cached report differs: %d vs %d", first.OverallScore, second.OverallScore)
	}
	// (3+3+0)/9 = 66.67 -> 67
	if first.OverallScore != 67 {
		t.Errorf("expected overall score 67, got %d", first.OverallScore)
	}

	// a changed answer produces a different key
	if _, err := m.UpdateResponses(ctx, a.ID, models.Responses{"q3": 3}, false); err != nil {
		t.Fatalf("UpdateResponses: %v", err)
	}
	third, err := m.Report(ctx, a.ID)
	if err != nil {
		t.Fatalf("Report (after update): %v", err)
	}
	if third.OverallScore != 100 || c.misses != 2 {
		t.Errorf("expected fresh report scoring 100, got %d (misses=%d)", third.OverallScore, c.misses)
	}
}

func TestAnalyzeStateless(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	report, err := m.Analyze(ctx, "test-fw", models.Responses{"q1": 0, "unknown": 9})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.QuestionsAnswered != 1 || report.OverallScore != 0 {
		t.Errorf("unexpected report: answered=%d score=%d", report.QuestionsAnswered, report.OverallScore)
	}

	list, err := m.List(ctx, models.AssessmentFilters{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("Analyze must not store anything, found %d assessments", len(list))
	}

	if _, err := m.Analyze(ctx, "missing", nil); !errors.Is(err, ErrFrameworkNotFound) {
		t.Errorf("expected ErrFrameworkNotFound, got %v", err)
	}
}

func TestGetStale(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	old := time.Now().Add(-72 * time.Hour)
	m.now = func() time.Time { return old }
	draft, err := m.Create(ctx, models.CreateAssessmentRequest{FrameworkID: "test-fw"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := m.Create(ctx, models.CreateAssessmentRequest{
		FrameworkID: "test-fw",
		Responses:   models.Responses{"q1": 1, "q2": 1, "q3": 1},
	}); err != nil {
		t.Fatalf("Create (complete): %v", err)
	}

	m.now = time.Now
	stale, err := m.GetStale(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("GetStale: %v", err)
	}
	if len(stale) != 1 || stale[0].ID != draft.ID {
		t.Errorf("expected only the incomplete draft, got %v", stale)
	}
}

func TestCacheKey(t *testing.T) {
	fw := testFramework()
	cfg := scoring.DefaultConfig()

	a := CacheKey(fw, models.Responses{"q1": 1, "q2": 2}, cfg)
	b := CacheKey(fw, models.Responses{"q2": 2, "q1": 1}, cfg)
	if a != b {
		t.Error("key must not depend on map order")
	}

	if a == CacheKey(fw, models.Responses{"q1": 1, "q2": 3}, cfg) {
		t.Error("key must change with a response value")
	}

	cfg.GapBenchmark = 90
	if a == CacheKey(fw, models.Responses{"q1": 1, "q2": 2}, cfg) {
		t.Error("key must change with engine config")
	}

	fw.Version = "2.0"
	if a == CacheKey(fw, models.Responses{"q1": 1, "q2": 2}, scoring.DefaultConfig()) {
		t.Error("key must change with framework version")
	}

	edited := testFramework()
	edited.Sections[0].Categories[0].Questions[1].Priority = models.PriorityCritical
	if a == CacheKey(edited, models.Responses{"q1": 1, "q2": 2}, scoring.DefaultConfig()) {
		t.Error("key must change when framework content changes under the same version")
	}
}

func TestReportAfterFrameworkReplaced(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	a, err := m.Create(ctx, models.CreateAssessmentRequest{
		FrameworkID: "test-fw",
		Responses:   models.Responses{"q1": 3, "q2": 3, "q3": 3},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	report, err := m.Report(ctx, a.ID)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if report.TotalQuestions != 3 || report.CompletionRate != 100 {
		t.Fatalf("unexpected first report: %d questions, %d%%", report.TotalQuestions, report.CompletionRate)
	}

	// same id and version, one more question
	fw := testFramework()
	media := &fw.Sections[1].Categories[0]
	media.Questions = append(media.Questions, models.Question{ID: "q4", Text: "Media is tracked", Priority: models.PriorityLow})
	m.frameworks.(*frameworks.Loader).Add(fw)

	report, err = m.Report(ctx, a.ID)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if report.TotalQuestions != 4 || report.CompletionRate != 75 {
		t.Errorf("stale report served after framework change: %d questions, %d%%", report.TotalQuestions, report.CompletionRate)
	}
}
