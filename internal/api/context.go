package api

import (
	"context"

	"github.com/terra-clan/compliance-engine/internal/models"
)

type contextKey int

const callerKey contextKey = iota

// CallerFromContext returns the API client that authenticated the request
func CallerFromContext(ctx context.Context) *models.ApiClient {
	client, _ := ctx.Value(callerKey).(*models.ApiClient)
	return client
}

func withCaller(ctx context.Context, client *models.ApiClient) context.Context {
	return context.WithValue(ctx, callerKey, client)
}

// auditAttrs names the caller in assessment audit log lines.
func auditAttrs(ctx context.Context, assessmentID string) []any {
	attrs := []any{"assessment_id", assessmentID}
	if c := CallerFromContext(ctx); c != nil {
		attrs = append(attrs, "client", c.Name, "key_prefix", c.MaskedApiKey())
	}
	return attrs
}
