package api

import (
	"context"
	"testing"

	"github.com/terra-clan/compliance-engine/internal/models"
)

func TestAuditAttrs(t *testing.T) {
	attrs := auditAttrs(context.Background(), "a-1")
	if len(attrs) != 2 {
		t.Fatalf("expected only the assessment id without a caller, got %v", attrs)
	}

	client := &models.ApiClient{Name: "auditor", ApiKey: "ce_audit_key_0123456789"}
	ctx := withCaller(context.Background(), client)
	if got := CallerFromContext(ctx); got != client {
		t.Fatalf("CallerFromContext = %v, want %v", got, client)
	}

	attrs = auditAttrs(ctx, "a-1")
	if len(attrs) != 6 || attrs[3] != "auditor" {
		t.Errorf("unexpected attrs: %v", attrs)
	}
	for _, a := range attrs {
		if a == client.ApiKey {
			t.Errorf("raw api key leaked into audit attrs")
		}
	}
}
