package storage

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/terra-clan/compliance-engine/internal/models"
)

var pgColumns = []string{"id", "framework_id", "responses", "organization_info", "is_complete", "created_at", "last_modified"}

func TestBuildPgListQuery(t *testing.T) {
	complete := false

	tests := []struct {
		name     string
		filters  models.AssessmentFilters
		contains []string
		args     []interface{}
	}{
		{
			name:     "no filters",
			filters:  models.AssessmentFilters{},
			contains: []string{"WHERE 1=1 ORDER BY last_modified DESC"},
			args:     []interface{}{},
		},
		{
			name:     "framework and completion",
			filters:  models.AssessmentFilters{FrameworkID: "cmmc", Complete: &complete},
			contains: []string{"framework_id = $1", "is_complete = $2"},
			args:     []interface{}{"cmmc", false},
		},
		{
			name:     "paging numbers placeholders after filters",
			filters:  models.AssessmentFilters{FrameworkID: "cmmc", Limit: 10, Offset: 20},
			contains: []string{"framework_id = $1", "LIMIT $2", "OFFSET $3"},
			args:     []interface{}{"cmmc", 10, 20},
		},
		{
			name:     "offset without limit",
			filters:  models.AssessmentFilters{Offset: 5},
			contains: []string{"OFFSET $1"},
			args:     []interface{}{5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := buildPgListQuery(tt.filters)
			for _, want := range tt.contains {
				if !strings.Contains(query, want) {
					t.Errorf("query %q missing %q", query, want)
				}
			}
			if !reflect.DeepEqual(args, tt.args) {
				t.Errorf("args = %v, want %v", args, tt.args)
			}
		})
	}
}

func TestPgListQueryCollects(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	complete := true
	query, args := buildPgListQuery(models.AssessmentFilters{FrameworkID: "cmmc", Complete: &complete, Limit: 2})

	mock.ExpectQuery(query).
		WithArgs("cmmc", true, 2).
		WillReturnRows(sqlmock.NewRows(pgColumns).
			AddRow("a-2", "cmmc", []byte(`{"q1":3}`), []byte(`{"name":"Acme"}`), true, created, created.Add(time.Hour)).
			AddRow("a-1", "cmmc", []byte(`{"q1":2}`), []byte(`{}`), true, created, created))

	rows, err := db.QueryContext(context.Background(), query, args...)
	if err != nil {
		t.Fatalf("QueryContext: %v", err)
	}
	defer rows.Close()

	list, err := collectPgAssessments(rows)
	if err != nil {
		t.Fatalf("collectPgAssessments: %v", err)
	}
	if len(list) != 2 || list[0].ID != "a-2" {
		t.Fatalf("unexpected list: %+v", list)
	}
	if list[0].Responses["q1"] != 3 || list[0].OrganizationInfo.Name != "Acme" || !list[0].IsComplete {
		t.Errorf("unexpected first assessment: %+v", list[0])
	}
	if !list[0].LastModified.Equal(created.Add(time.Hour)) {
		t.Errorf("unexpected last modified: %s", list[0].LastModified)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPgStaleQuery(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if !strings.Contains(pgStaleAssessmentsQuery, "is_complete = FALSE") ||
		!strings.Contains(pgStaleAssessmentsQuery, "last_modified < $1") {
		t.Fatalf("stale query must select incomplete rows older than the cutoff: %s", pgStaleAssessmentsQuery)
	}

	cutoff := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	old := cutoff.Add(-48 * time.Hour)
	mock.ExpectQuery(pgStaleAssessmentsQuery).
		WithArgs(cutoff).
		WillReturnRows(sqlmock.NewRows(pgColumns).
			AddRow("stale", "nist-800-171", []byte(`{}`), []byte(`{}`), false, old, old))

	rows, err := db.QueryContext(context.Background(), pgStaleAssessmentsQuery, cutoff)
	if err != nil {
		t.Fatalf("QueryContext: %v", err)
	}
	defer rows.Close()

	list, err := collectPgAssessments(rows)
	if err != nil {
		t.Fatalf("collectPgAssessments: %v", err)
	}
	if len(list) != 1 || list[0].ID != "stale" || list[0].IsComplete {
		t.Errorf("unexpected stale list: %+v", list)
	}
	if len(list[0].Responses) != 0 {
		t.Errorf("expected empty responses, got %v", list[0].Responses)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPgLockAndUpdateQueries(t *testing.T) {
	if !strings.HasSuffix(pgLockAssessmentQuery, "WHERE id = $1 FOR UPDATE") {
		t.Errorf("lock query must take a row lock: %s", pgLockAssessmentQuery)
	}
	for _, want := range []string{"responses = $2", "is_complete = $4", "last_modified = $5", "WHERE id = $1"} {
		if !strings.Contains(pgUpdateAssessmentQuery, want) {
			t.Errorf("update query missing %q", want)
		}
	}
}
