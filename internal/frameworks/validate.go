package frameworks

import (
	"errors"
	"fmt"
	"sort"

	"github.com/terra-clan/compliance-engine/internal/models"
)

// ErrInvalidFramework is wrapped by every validation failure
var ErrInvalidFramework = errors.New("invalid framework")

// Validate checks the structural rules the scoring engine relies on.
func Validate(fw *models.Framework) error {
	if fw == nil {
		return fmt.Errorf("%w: nil framework", ErrInvalidFramework)
	}
	if fw.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidFramework)
	}
	if fw.Name == "" {
		return fmt.Errorf("%w: %s: name is required", ErrInvalidFramework, fw.ID)
	}
	if fw.MaxAnswer < 0 {
		return fmt.Errorf("%w: %s: max_answer_value must be at least 1", ErrInvalidFramework, fw.ID)
	}

	if err := validateLevels(fw.MaturityLevels); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidFramework, fw.ID, err)
	}

	seen := make(map[string]bool)
	for _, s := range fw.Sections {
		if s.ID == "" {
			return fmt.Errorf("%w: %s: section id is required", ErrInvalidFramework, fw.ID)
		}
		if _, ok := models.ParsePriority(string(s.Priority)); !ok {
			return fmt.Errorf("%w: %s: section %s has unknown priority %q", ErrInvalidFramework, fw.ID, s.ID, s.Priority)
		}
		for _, c := range s.Categories {
			if c.ID == "" {
				return fmt.Errorf("%w: %s: category id is required in section %s", ErrInvalidFramework, fw.ID, s.ID)
			}
			for _, q := range c.Questions {
				if q.ID == "" {
					return fmt.Errorf("%w: %s: question id is required in %s/%s", ErrInvalidFramework, fw.ID, s.ID, c.ID)
				}
				if seen[q.ID] {
					return fmt.Errorf("%w: %s: duplicate question id %s", ErrInvalidFramework, fw.ID, q.ID)
				}
				seen[q.ID] = true
				if _, ok := models.ParsePriority(string(q.Priority)); !ok {
					return fmt.Errorf("%w: %s: question %s has unknown priority %q", ErrInvalidFramework, fw.ID, q.ID, q.Priority)
				}
			}
		}
	}
	return nil
}

// validateLevels requires ordered, contiguous bands covering 0..100.
func validateLevels(levels []models.MaturityLevel) error {
	if len(levels) == 0 {
		return errors.New("at least one maturity level is required")
	}

	sorted := append([]models.MaturityLevel(nil), levels...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MinScore < sorted[j].MinScore })

	for i, l := range sorted {
		if l.MinScore > l.MaxScore {
			return fmt.Errorf("maturity level %q has min %d above max %d", l.Name, l.MinScore, l.MaxScore)
		}
		if sorted[i] != levels[i] {
			return errors.New("maturity levels must be listed in ascending score order")
		}
		if i == 0 {
			if l.MinScore != 0 {
				return fmt.Errorf("maturity levels must start at 0, got %d", l.MinScore)
			}
			continue
		}
		prev := sorted[i-1]
		if l.MinScore != prev.MaxScore+1 {
			return fmt.Errorf("maturity levels %q and %q are not contiguous", prev.Name, l.Name)
		}
	}

	if last := sorted[len(sorted)-1]; last.MaxScore != 100 {
		return fmt.Errorf("maturity levels must end at 100, got %d", last.MaxScore)
	}
	return nil
}
