package storage

import (
	"context"
	"errors"
	"time"

	"github.com/terra-clan/compliance-engine/internal/models"
)

// ErrNotFound is returned by mutating calls that matched no row.
// Lookups return nil, nil instead.
var ErrNotFound = errors.New("not found")

// Repository defines the interface for assessment persistence
type Repository interface {
	// Assessments
	CreateAssessment(ctx context.Context, a *models.AssessmentData) error
	GetAssessment(ctx context.Context, id string) (*models.AssessmentData, error)
	UpdateAssessment(ctx context.Context, a *models.AssessmentData) error
	// ModifyAssessment loads the assessment, applies fn and stores the result
	// in one transaction. Returns ErrNotFound when id does not exist. fn must
	// not call back into the repository.
	ModifyAssessment(ctx context.Context, id string, fn func(a *models.AssessmentData) error) (*models.AssessmentData, error)
	DeleteAssessment(ctx context.Context, id string) error
	ListAssessments(ctx context.Context, filters models.AssessmentFilters) ([]*models.AssessmentData, error)
	GetStaleAssessments(ctx context.Context, modifiedBefore time.Time) ([]*models.AssessmentData, error)

	// API Clients
	CreateClient(ctx context.Context, client *models.ApiClient) error
	GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error)
	UpdateClientLastUsed(ctx context.Context, apiKey string) error

	// Health
	Ping(ctx context.Context) error
	Close() error
}
