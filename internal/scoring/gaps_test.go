package scoring

import (
	"fmt"
	"testing"

	"github.com/terra-clan/compliance-engine/internal/models"
)

func perfWithScores(scores ...int) []models.CategoryPerformance {
	perf := make([]models.CategoryPerformance, len(scores))
	for i, s := range scores {
		perf[i] = models.CategoryPerformance{
			CategoryID: fmt.Sprintf("c%d", i),
			Category:   fmt.Sprintf("Category %d", i),
			Score:      s,
			Priority:   models.PriorityMedium,
		}
	}
	return perf
}

func TestFindGaps(t *testing.T) {
	gaps := FindGaps(perfWithScores(80, 40, 74, 75, 10), 75, 10)

	if len(gaps) != 3 {
		t.Fatalf("expected 3 gaps, got %d", len(gaps))
	}

	wantScores := []int{10, 40, 74}
	wantImprovement := []int{65, 35, 1}
	for i, g := range gaps {
		if g.Score != wantScores[i] {
			t.Errorf("gap %d: expected score %d, got %d", i, wantScores[i], g.Score)
		}
		if g.Improvement != wantImprovement[i] {
			t.Errorf("gap %d: expected improvement %d, got %d", i, wantImprovement[i], g.Improvement)
		}
	}
}

func TestFindGapsCap(t *testing.T) {
	scores := make([]int, 15)
	for i := range scores {
		scores[i] = 70 - i*3
	}

	gaps := FindGaps(perfWithScores(scores...), 75, 10)
	if len(gaps) != 10 {
		t.Fatalf("expected 10 gaps, got %d", len(gaps))
	}
	for i := 1; i < len(gaps); i++ {
		if gaps[i-1].Score > gaps[i].Score {
			t.Errorf("gaps not ascending at %d: %d > %d", i, gaps[i-1].Score, gaps[i].Score)
		}
	}
	for _, g := range gaps {
		if g.Score >= 75 {
			t.Errorf("gap at or above benchmark: %d", g.Score)
		}
	}
	if gaps[0].Score != 70-14*3 {
		t.Errorf("expected worst category first, got %d", gaps[0].Score)
	}

	if all := FindGaps(perfWithScores(scores...), 75, 0); len(all) != 15 {
		t.Errorf("expected no cap with limit 0, got %d", len(all))
	}
}

func TestFindGapsStableOnTies(t *testing.T) {
	gaps := FindGaps(perfWithScores(50, 20, 50, 50), 75, 10)
	want := []string{"c1", "c0", "c2", "c3"}
	for i, g := range gaps {
		if g.CategoryID != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], g.CategoryID)
		}
	}
}

func TestFindGapsNone(t *testing.T) {
	gaps := FindGaps(perfWithScores(90, 75), 75, 10)
	if gaps == nil || len(gaps) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", gaps)
	}
}
