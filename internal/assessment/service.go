// Package assessment binds stored assessments to the scoring engine.
package assessment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/terra-clan/compliance-engine/internal/cache"
	"github.com/terra-clan/compliance-engine/internal/models"
	"github.com/terra-clan/compliance-engine/internal/scoring"
	"github.com/terra-clan/compliance-engine/internal/storage"
)

// Common errors
var (
	ErrAssessmentNotFound = errors.New("assessment not found")
	ErrFrameworkNotFound  = errors.New("framework not found")
	ErrInvalidResponse    = errors.New("invalid response")
)

// Service defines the interface for assessment management
type Service interface {
	Create(ctx context.Context, req models.CreateAssessmentRequest) (*models.AssessmentData, error)
	Get(ctx context.Context, id string) (*models.AssessmentData, error)
	List(ctx context.Context, filters models.AssessmentFilters) ([]*models.AssessmentData, error)
	Delete(ctx context.Context, id string) error
	UpdateResponses(ctx context.Context, id string, responses models.Responses, replace bool) (*models.AssessmentData, error)
	Report(ctx context.Context, id string) (*models.Report, error)
	Analyze(ctx context.Context, frameworkID string, responses models.Responses) (*models.Report, error)
	GetStale(ctx context.Context, retention time.Duration) ([]*models.AssessmentData, error)
	Ping(ctx context.Context) error
}

// FrameworkSource resolves framework definitions by ID
type FrameworkSource interface {
	Get(id string) *models.Framework
}

// Manager implements Service on a repository, a framework source and the engine
type Manager struct {
	repo       storage.Repository
	frameworks FrameworkSource
	engine     *scoring.Engine
	cache      cache.ReportCache
	now        func() time.Time
}

// NewManager creates an assessment manager. A nil cache disables report caching.
// repo may be nil when only Analyze is used.
func NewManager(repo storage.Repository, frameworks FrameworkSource, engine *scoring.Engine, reportCache cache.ReportCache) *Manager {
	if engine == nil {
		engine = scoring.NewEngine(scoring.DefaultConfig(), nil)
	}
	return &Manager{
		repo:       repo,
		frameworks: frameworks,
		engine:     engine,
		cache:      reportCache,
		now:        time.Now,
	}
}

// Ping checks database connectivity
func (m *Manager) Ping(ctx context.Context) error {
	if err := m.repo.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// Create starts a new assessment against a known framework
func (m *Manager) Create(ctx context.Context, req models.CreateAssessmentRequest) (*models.AssessmentData, error) {
	fw := m.frameworks.Get(req.FrameworkID)
	if fw == nil {
		return nil, ErrFrameworkNotFound
	}

	responses := req.Responses.Clone()
	if err := validate(fw, responses); err != nil {
		return nil, err
	}

	now := m.now().UTC()
	a := &models.AssessmentData{
		ID:               uuid.New().String(),
		FrameworkID:      fw.ID,
		Responses:        responses,
		OrganizationInfo: req.OrganizationInfo,
		CreatedAt:        now,
		LastModified:     now,
		IsComplete:       responses.IsCompleteFor(fw),
	}

	if err := m.repo.CreateAssessment(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to create assessment: %w", err)
	}

	slog.Debug("assessment created",
		"id", a.ID,
		"framework", a.FrameworkID,
		"responses", len(a.Responses),
	)

	return a, nil
}

// Get retrieves an assessment by ID
func (m *Manager) Get(ctx context.Context, id string) (*models.AssessmentData, error) {
	a, err := m.repo.GetAssessment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	if a == nil {
		return nil, ErrAssessmentNotFound
	}
	return a, nil
}

// List returns assessments matching filters
func (m *Manager) List(ctx context.Context, filters models.AssessmentFilters) ([]*models.AssessmentData, error) {
	list, err := m.repo.ListAssessments(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	return list, nil
}

// Delete removes an assessment
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.repo.DeleteAssessment(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrAssessmentNotFound
		}
		return fmt.Errorf("failed to delete assessment: %w", err)
	}

	slog.Debug("assessment deleted", "id", id)
	return nil
}

// UpdateResponses merges responses into the assessment, or replaces them when
// replace is set. The merge runs inside one repository transaction so
// concurrent writers never drop each other's answers.
func (m *Manager) UpdateResponses(ctx context.Context, id string, responses models.Responses, replace bool) (*models.AssessmentData, error) {
	a, err := m.repo.ModifyAssessment(ctx, id, func(a *models.AssessmentData) error {
		fw := m.frameworks.Get(a.FrameworkID)
		if fw == nil {
			return ErrFrameworkNotFound
		}

		if err := validate(fw, responses); err != nil {
			return err
		}

		if replace || a.Responses == nil {
			a.Responses = models.Responses{}
		}
		for q, v := range responses {
			a.Responses[q] = v
		}
		a.LastModified = m.now().UTC()
		a.IsComplete = a.Responses.IsCompleteFor(fw)
		return nil
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrAssessmentNotFound
		}
		if errors.Is(err, ErrFrameworkNotFound) || errors.Is(err, ErrInvalidResponse) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update assessment: %w", err)
	}

	slog.Debug("assessment responses updated",
		"id", a.ID,
		"changed", len(responses),
		"replace", replace,
		"complete", a.IsComplete,
	)

	return a, nil
}

// Report returns the full analysis of a stored assessment
func (m *Manager) Report(ctx context.Context, id string) (*models.Report, error) {
	a, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	fw := m.frameworks.Get(a.FrameworkID)
	if fw == nil {
		return nil, ErrFrameworkNotFound
	}

	return m.analyze(ctx, fw, a.Responses), nil
}

// Analyze scores responses without storing anything
func (m *Manager) Analyze(ctx context.Context, frameworkID string, responses models.Responses) (*models.Report, error) {
	fw := m.frameworks.Get(frameworkID)
	if fw == nil {
		return nil, ErrFrameworkNotFound
	}

	if err := validate(fw, responses); err != nil {
		return nil, err
	}

	return m.analyze(ctx, fw, responses), nil
}

// GetStale returns incomplete assessments untouched for longer than retention
func (m *Manager) GetStale(ctx context.Context, retention time.Duration) ([]*models.AssessmentData, error) {
	list, err := m.repo.GetStaleAssessments(ctx, m.now().Add(-retention))
	if err != nil {
		return nil, fmt.Errorf("failed to get stale assessments: %w", err)
	}
	return list, nil
}

// analyze runs the engine behind the report cache. Cache failures are logged
// and never fail the request.
func (m *Manager) analyze(ctx context.Context, fw *models.Framework, responses models.Responses) *models.Report {
	if m.cache == nil {
		return m.engine.Analyze(fw, responses)
	}

	key := CacheKey(fw, responses, m.engine.Config())
	cached, err := m.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("report cache read failed", "error", err, "framework", fw.ID)
	}
	if cached != nil {
		return cached
	}

	report := m.engine.Analyze(fw, responses)
	if err := m.cache.Set(ctx, key, report); err != nil {
		slog.Warn("report cache write failed", "error", err, "framework", fw.ID)
	}
	return report
}

// CacheKey digests everything a report depends on, framework content included
func CacheKey(fw *models.Framework, responses models.Responses, cfg scoring.Config) string {
	ids := make([]string, 0, len(responses))
	for id := range responses {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	digest := fw.Digest
	if digest == "" {
		digest = fw.ContentDigest()
	}

	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00", fw.ID, fw.Version, digest)
	for _, id := range ids {
		h.Write([]byte(id))
		h.Write([]byte{'='})
		h.Write([]byte(strconv.Itoa(responses[id])))
		h.Write([]byte{0})
	}
	fmt.Fprintf(h, "%d/%d/%d/%d/%d",
		cfg.GapBenchmark, cfg.MaxGaps, cfg.MaxRecommendations, cfg.RecommendationThreshold, cfg.ImpactCap)

	return hex.EncodeToString(h.Sum(nil))
}

func validate(fw *models.Framework, responses models.Responses) error {
	if err := models.ValidateResponses(fw, responses); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	return nil
}
