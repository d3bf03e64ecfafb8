package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terra-clan/compliance-engine/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 25
	}

	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	} else {
		poolConfig.MinConns = 5
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

const pgAssessmentColumns = `id, framework_id, responses, organization_info, is_complete, created_at, last_modified`

// CreateAssessment creates a new assessment record
func (r *PostgresRepository) CreateAssessment(ctx context.Context, a *models.AssessmentData) error {
	responsesJSON, orgJSON, err := marshalAssessment(a)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO assessments (` + pgAssessmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = r.pool.Exec(ctx, query,
		a.ID,
		a.FrameworkID,
		responsesJSON,
		orgJSON,
		a.IsComplete,
		a.CreatedAt,
		a.LastModified,
	)
	if err != nil {
		return fmt.Errorf("failed to create assessment: %w", err)
	}

	return nil
}

// GetAssessment retrieves an assessment by ID
func (r *PostgresRepository) GetAssessment(ctx context.Context, id string) (*models.AssessmentData, error) {
	query := `SELECT ` + pgAssessmentColumns + ` FROM assessments WHERE id = $1`

	a, err := scanPgAssessment(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	return a, nil
}

// UpdateAssessment replaces the responses and organization info of an assessment
func (r *PostgresRepository) UpdateAssessment(ctx context.Context, a *models.AssessmentData) error {
	return updatePgAssessment(ctx, r.pool, a)
}

// ModifyAssessment locks the row with SELECT ... FOR UPDATE, applies fn and
// writes the result before committing.
func (r *PostgresRepository) ModifyAssessment(ctx context.Context, id string, fn func(a *models.AssessmentData) error) (*models.AssessmentData, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	a, err := scanPgAssessment(tx.QueryRow(ctx, pgLockAssessmentQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("assessment %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock assessment: %w", err)
	}

	if err := fn(a); err != nil {
		return nil, err
	}

	if err := updatePgAssessment(ctx, tx, a); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit assessment update: %w", err)
	}
	return a, nil
}

const pgLockAssessmentQuery = `SELECT ` + pgAssessmentColumns + ` FROM assessments WHERE id = $1 FOR UPDATE`

const pgUpdateAssessmentQuery = `
		UPDATE assessments
		SET responses = $2, organization_info = $3, is_complete = $4, last_modified = $5
		WHERE id = $1
	`

// pgExecer is satisfied by *pgxpool.Pool and pgx.Tx
type pgExecer interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func updatePgAssessment(ctx context.Context, db pgExecer, a *models.AssessmentData) error {
	responsesJSON, orgJSON, err := marshalAssessment(a)
	if err != nil {
		return err
	}

	result, err := db.Exec(ctx, pgUpdateAssessmentQuery, a.ID, responsesJSON, orgJSON, a.IsComplete, a.LastModified)
	if err != nil {
		return fmt.Errorf("failed to update assessment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("assessment %s: %w", a.ID, ErrNotFound)
	}

	return nil
}

// DeleteAssessment deletes an assessment by ID
func (r *PostgresRepository) DeleteAssessment(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM assessments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete assessment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("assessment %s: %w", id, ErrNotFound)
	}

	return nil
}

// ListAssessments returns assessments matching filters, most recently modified first
func (r *PostgresRepository) ListAssessments(ctx context.Context, filters models.AssessmentFilters) ([]*models.AssessmentData, error) {
	query, args := buildPgListQuery(filters)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer rows.Close()

	return collectPgAssessments(rows)
}

func buildPgListQuery(filters models.AssessmentFilters) (string, []interface{}) {
	query := `SELECT ` + pgAssessmentColumns + ` FROM assessments WHERE 1=1`
	args := make([]interface{}, 0)
	argNum := 1

	if filters.FrameworkID != "" {
		query += fmt.Sprintf(" AND framework_id = $%d", argNum)
		args = append(args, filters.FrameworkID)
		argNum++
	}

	if filters.Complete != nil {
		query += fmt.Sprintf(" AND is_complete = $%d", argNum)
		args = append(args, *filters.Complete)
		argNum++
	}

	query += " ORDER BY last_modified DESC"

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filters.Limit)
		argNum++
	}

	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, filters.Offset)
	}

	return query, args
}

const pgStaleAssessmentsQuery = `
		SELECT ` + pgAssessmentColumns + `
		FROM assessments
		WHERE is_complete = FALSE
		  AND last_modified < $1
		ORDER BY last_modified ASC
	`

// GetStaleAssessments returns incomplete assessments not modified since modifiedBefore
func (r *PostgresRepository) GetStaleAssessments(ctx context.Context, modifiedBefore time.Time) ([]*models.AssessmentData, error) {
	rows, err := r.pool.Query(ctx, pgStaleAssessmentsQuery, modifiedBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to get stale assessments: %w", err)
	}
	defer rows.Close()

	return collectPgAssessments(rows)
}

// rowIterator is satisfied by pgx.Rows and *sql.Rows
type rowIterator interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func collectPgAssessments(rows rowIterator) ([]*models.AssessmentData, error) {
	var assessments []*models.AssessmentData
	for rows.Next() {
		a, err := scanPgAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assessment: %w", err)
		}
		assessments = append(assessments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assessments: %w", err)
	}

	return assessments, nil
}

func scanPgAssessment(row rowScanner) (*models.AssessmentData, error) {
	var a models.AssessmentData
	var responsesJSON, orgJSON []byte

	err := row.Scan(
		&a.ID,
		&a.FrameworkID,
		&responsesJSON,
		&orgJSON,
		&a.IsComplete,
		&a.CreatedAt,
		&a.LastModified,
	)
	if err != nil {
		return nil, err
	}

	if err := unmarshalAssessment(&a, responsesJSON, orgJSON); err != nil {
		return nil, err
	}
	return &a, nil
}

// --- API Clients ---

// CreateClient registers an API client
func (r *PostgresRepository) CreateClient(ctx context.Context, client *models.ApiClient) error {
	permissionsJSON, metadataJSON, err := marshalClient(client)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO api_clients (name, api_key, is_active, created_at, permissions, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err = r.pool.QueryRow(ctx, query,
		client.Name,
		client.ApiKey,
		client.IsActive,
		client.CreatedAt,
		permissionsJSON,
		metadataJSON,
	).Scan(&client.ID)
	if err != nil {
		return fmt.Errorf("failed to create api client: %w", err)
	}

	return nil
}

// GetClientByApiKey retrieves an API client by its key
func (r *PostgresRepository) GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error) {
	query := `
		SELECT id, name, api_key, is_active, created_at, last_used_at, permissions, metadata
		FROM api_clients
		WHERE api_key = $1
	`

	var client models.ApiClient
	var lastUsedAt sql.NullTime
	var permissionsJSON, metadataJSON []byte

	err := r.pool.QueryRow(ctx, query, apiKey).Scan(
		&client.ID,
		&client.Name,
		&client.ApiKey,
		&client.IsActive,
		&client.CreatedAt,
		&lastUsedAt,
		&permissionsJSON,
		&metadataJSON,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get api client: %w", err)
	}

	if lastUsedAt.Valid {
		client.LastUsedAt = &lastUsedAt.Time
	}

	if err := unmarshalClient(&client, permissionsJSON, metadataJSON); err != nil {
		return nil, err
	}

	return &client, nil
}

// UpdateClientLastUsed updates the last_used_at timestamp for a client
func (r *PostgresRepository) UpdateClientLastUsed(ctx context.Context, apiKey string) error {
	query := `UPDATE api_clients SET last_used_at = NOW() WHERE api_key = $1`

	_, err := r.pool.Exec(ctx, query, apiKey)
	if err != nil {
		return fmt.Errorf("failed to update client last_used_at: %w", err)
	}

	return nil
}

// --- shared JSON helpers ---

func marshalAssessment(a *models.AssessmentData) ([]byte, []byte, error) {
	responses := a.Responses
	if responses == nil {
		responses = models.Responses{}
	}
	responsesJSON, err := json.Marshal(responses)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal responses: %w", err)
	}

	orgJSON, err := json.Marshal(a.OrganizationInfo)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal organization info: %w", err)
	}

	return responsesJSON, orgJSON, nil
}

func unmarshalAssessment(a *models.AssessmentData, responsesJSON, orgJSON []byte) error {
	a.Responses = models.Responses{}
	if len(responsesJSON) > 0 {
		if err := json.Unmarshal(responsesJSON, &a.Responses); err != nil {
			return fmt.Errorf("failed to unmarshal responses: %w", err)
		}
	}

	if len(orgJSON) > 0 {
		if err := json.Unmarshal(orgJSON, &a.OrganizationInfo); err != nil {
			return fmt.Errorf("failed to unmarshal organization info: %w", err)
		}
	}

	return nil
}

func marshalClient(c *models.ApiClient) ([]byte, []byte, error) {
	permissions := c.Permissions
	if permissions == nil {
		permissions = []string{}
	}
	permissionsJSON, err := json.Marshal(permissions)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal permissions: %w", err)
	}

	metadata := c.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}

	return permissionsJSON, metadataJSON, nil
}

func unmarshalClient(c *models.ApiClient, permissionsJSON, metadataJSON []byte) error {
	// Parse permissions JSON array
	if permissionsJSON != nil {
		if err := json.Unmarshal(permissionsJSON, &c.Permissions); err != nil {
			return fmt.Errorf("failed to unmarshal permissions: %w", err)
		}
	}

	// Parse metadata JSON object
	if metadataJSON != nil {
		if err := json.Unmarshal(metadataJSON, &c.Metadata); err != nil {
			return fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return nil
}
