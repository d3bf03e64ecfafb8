package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/terra-clan/compliance-engine/internal/models"
)

// timeLayout is how timestamps are stored in SQLite TEXT columns. Fixed
// width keeps lexical order equal to time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteRepository implements Repository on an embedded SQLite database
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (or creates) the database at dsn and applies
// the connection pragmas.
func NewSQLiteRepository(ctx context.Context, dsn string) (*SQLiteRepository, error) {
	db, err := sql.Open(DriverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// SQLite allows one writer; a single connection avoids SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// NewSQLiteRepositoryFromDB wraps an existing handle
func NewSQLiteRepositoryFromDB(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// DB exposes the underlying handle for migrations
func (r *SQLiteRepository) DB() *sql.DB {
	return r.db
}

// Ping checks database connectivity
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

const sqliteAssessmentColumns = `id, framework_id, responses, organization_info, is_complete, created_at, last_modified`

// CreateAssessment creates a new assessment record
func (r *SQLiteRepository) CreateAssessment(ctx context.Context, a *models.AssessmentData) error {
	responsesJSON, orgJSON, err := marshalAssessment(a)
	if err != nil {
		return err
	}

	query := `INSERT INTO assessments (` + sqliteAssessmentColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		a.ID,
		a.FrameworkID,
		string(responsesJSON),
		string(orgJSON),
		a.IsComplete,
		formatTime(a.CreatedAt),
		formatTime(a.LastModified),
	)
	if err != nil {
		return fmt.Errorf("failed to create assessment: %w", err)
	}

	return nil
}

// GetAssessment retrieves an assessment by ID
func (r *SQLiteRepository) GetAssessment(ctx context.Context, id string) (*models.AssessmentData, error) {
	query := `SELECT ` + sqliteAssessmentColumns + ` FROM assessments WHERE id = ?`

	a, err := scanSQLiteAssessment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	return a, nil
}

// UpdateAssessment replaces the responses and organization info of an assessment
func (r *SQLiteRepository) UpdateAssessment(ctx context.Context, a *models.AssessmentData) error {
	return updateSQLiteAssessment(ctx, r.db, a)
}

// ModifyAssessment runs a read-modify-write of one assessment in a transaction.
// The repository holds a single connection, so concurrent calls queue behind it.
func (r *SQLiteRepository) ModifyAssessment(ctx context.Context, id string, fn func(a *models.AssessmentData) error) (*models.AssessmentData, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `SELECT ` + sqliteAssessmentColumns + ` FROM assessments WHERE id = ?`
	a, err := scanSQLiteAssessment(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("assessment %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load assessment: %w", err)
	}

	if err := fn(a); err != nil {
		return nil, err
	}

	if err := updateSQLiteAssessment(ctx, tx, a); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit assessment update: %w", err)
	}
	return a, nil
}

// execer is satisfied by *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func updateSQLiteAssessment(ctx context.Context, db execer, a *models.AssessmentData) error {
	responsesJSON, orgJSON, err := marshalAssessment(a)
	if err != nil {
		return err
	}

	query := `
		UPDATE assessments
		SET responses = ?, organization_info = ?, is_complete = ?, last_modified = ?
		WHERE id = ?
	`

	result, err := db.ExecContext(ctx, query,
		string(responsesJSON),
		string(orgJSON),
		a.IsComplete,
		formatTime(a.LastModified),
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update assessment: %w", err)
	}

	return requireRow(result, "assessment", a.ID)
}

// DeleteAssessment deletes an assessment by ID
func (r *SQLiteRepository) DeleteAssessment(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM assessments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete assessment: %w", err)
	}

	return requireRow(result, "assessment", id)
}

// ListAssessments returns assessments matching filters, most recently modified first
func (r *SQLiteRepository) ListAssessments(ctx context.Context, filters models.AssessmentFilters) ([]*models.AssessmentData, error) {
	query := `SELECT ` + sqliteAssessmentColumns + ` FROM assessments WHERE 1=1`
	args := make([]interface{}, 0)

	if filters.FrameworkID != "" {
		query += " AND framework_id = ?"
		args = append(args, filters.FrameworkID)
	}

	if filters.Complete != nil {
		query += " AND is_complete = ?"
		args = append(args, *filters.Complete)
	}

	query += " ORDER BY last_modified DESC"

	// SQLite requires LIMIT when OFFSET is used; -1 means unbounded.
	if filters.Limit > 0 || filters.Offset > 0 {
		limit := filters.Limit
		if limit <= 0 {
			limit = -1
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, filters.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer rows.Close()

	return collectSQLiteAssessments(rows)
}

// GetStaleAssessments returns incomplete assessments not modified since modifiedBefore
func (r *SQLiteRepository) GetStaleAssessments(ctx context.Context, modifiedBefore time.Time) ([]*models.AssessmentData, error) {
	query := `
		SELECT ` + sqliteAssessmentColumns + `
		FROM assessments
		WHERE is_complete = 0
		  AND last_modified < ?
		ORDER BY last_modified ASC
	`

	rows, err := r.db.QueryContext(ctx, query, formatTime(modifiedBefore))
	if err != nil {
		return nil, fmt.Errorf("failed to get stale assessments: %w", err)
	}
	defer rows.Close()

	return collectSQLiteAssessments(rows)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func collectSQLiteAssessments(rows *sql.Rows) ([]*models.AssessmentData, error) {
	var assessments []*models.AssessmentData
	for rows.Next() {
		a, err := scanSQLiteAssessment(rows)
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

func scanSQLiteAssessment(row rowScanner) (*models.AssessmentData, error) {
	var a models.AssessmentData
	var responsesJSON, orgJSON, createdAt, lastModified string

	err := row.Scan(
		&a.ID,
		&a.FrameworkID,
		&responsesJSON,
		&orgJSON,
		&a.IsComplete,
		&createdAt,
		&lastModified,
	)
	if err != nil {
		return nil, err
	}

	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if a.LastModified, err = parseTime(lastModified); err != nil {
		return nil, err
	}

	if err := unmarshalAssessment(&a, []byte(responsesJSON), []byte(orgJSON)); err != nil {
		return nil, err
	}
	return &a, nil
}

// --- API Clients ---

// CreateClient registers an API client
func (r *SQLiteRepository) CreateClient(ctx context.Context, client *models.ApiClient) error {
	permissionsJSON, metadataJSON, err := marshalClient(client)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO api_clients (name, api_key, is_active, created_at, permissions, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		client.Name,
		client.ApiKey,
		client.IsActive,
		formatTime(client.CreatedAt),
		string(permissionsJSON),
		string(metadataJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to create api client: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read api client id: %w", err)
	}
	client.ID = int(id)

	return nil
}

// GetClientByApiKey retrieves an API client by its key
func (r *SQLiteRepository) GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error) {
	query := `
		SELECT id, name, api_key, is_active, created_at, last_used_at, permissions, metadata
		FROM api_clients
		WHERE api_key = ?
	`

	var client models.ApiClient
	var createdAt, permissionsJSON, metadataJSON string
	var lastUsedAt sql.NullString

	err := r.db.QueryRowContext(ctx, query, apiKey).Scan(
		&client.ID,
		&client.Name,
		&client.ApiKey,
		&client.IsActive,
		&createdAt,
		&lastUsedAt,
		&permissionsJSON,
		&metadataJSON,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get api client: %w", err)
	}

	if client.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if lastUsedAt.Valid {
		t, err := parseTime(lastUsedAt.String)
		if err != nil {
			return nil, err
		}
		client.LastUsedAt = &t
	}

	if err := unmarshalClient(&client, []byte(permissionsJSON), []byte(metadataJSON)); err != nil {
		return nil, err
	}

	return &client, nil
}

// UpdateClientLastUsed updates the last_used_at timestamp for a client
func (r *SQLiteRepository) UpdateClientLastUsed(ctx context.Context, apiKey string) error {
	query := `UPDATE api_clients SET last_used_at = ? WHERE api_key = ?`

	_, err := r.db.ExecContext(ctx, query, formatTime(time.Now()), apiKey)
	if err != nil {
		return fmt.Errorf("failed to update client last_used_at: %w", err)
	}

	return nil
}

func requireRow(result sql.Result, kind, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t, nil
}
