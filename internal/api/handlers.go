package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/compliance-engine/internal/assessment"
	"github.com/terra-clan/compliance-engine/internal/models"
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// respondServiceError maps assessment service errors onto HTTP statuses
func respondServiceError(w http.ResponseWriter, err error, action string) {
	var respErr *models.ResponseError
	switch {
	case errors.Is(err, assessment.ErrAssessmentNotFound):
		respondError(w, http.StatusNotFound, "not_found", "assessment not found")
	case errors.Is(err, assessment.ErrFrameworkNotFound):
		respondError(w, http.StatusNotFound, "framework_not_found", "framework not found")
	case errors.As(err, &respErr):
		respondError(w, http.StatusBadRequest, "invalid_response", respErr.Error())
	case errors.Is(err, assessment.ErrInvalidResponse):
		respondError(w, http.StatusBadRequest, "invalid_response", err.Error())
	default:
		slog.Error("failed to "+action, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to "+action)
	}
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	ready := true

	if err := s.assessments.Ping(r.Context()); err != nil {
		slog.Warn("readiness check failed", "dependency", "database", "error", err)
		checks["database"] = "unavailable"
		ready = false
	} else {
		checks["database"] = "ok"
	}

	for name, err := range s.checks.CheckAll(r.Context()) {
		if err != nil {
			slog.Warn("readiness check failed", "dependency", name, "error", err)
			checks[name] = "unavailable"
			ready = false
			continue
		}
		checks[name] = "ok"
	}

	if !ready {
		respondError(w, http.StatusServiceUnavailable, "not_ready", "service not ready")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ready",
		"checks": checks,
	})
}

// Scoring handlers

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req models.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.FrameworkID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "framework_id is required")
		return
	}

	report, err := s.assessments.Analyze(r.Context(), req.FrameworkID, req.Responses)
	if err != nil {
		respondServiceError(w, err, "analyze responses")
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// Assessment handlers

func (s *Server) handleCreateAssessment(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.FrameworkID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "framework_id is required")
		return
	}

	a, err := s.assessments.Create(r.Context(), req)
	if err != nil {
		respondServiceError(w, err, "create assessment")
		return
	}

	slog.Info("assessment created", append(auditAttrs(r.Context(), a.ID), "framework_id", a.FrameworkID)...)
	respondJSON(w, http.StatusCreated, a)
}

func (s *Server) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	a, err := s.assessments.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "get assessment")
		return
	}

	respondJSON(w, http.StatusOK, a)
}

func (s *Server) handleDeleteAssessment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.assessments.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err, "delete assessment")
		return
	}
	slog.Info("assessment deleted", auditAttrs(r.Context(), id)...)

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "assessment deleted",
	})
}

func (s *Server) handleListAssessments(w http.ResponseWriter, r *http.Request) {
	filters := models.AssessmentFilters{
		FrameworkID: r.URL.Query().Get("framework_id"),
		Limit:       50, // default
		Offset:      0,
	}

	if completeStr := r.URL.Query().Get("complete"); completeStr != "" {
		complete, err := strconv.ParseBool(completeStr)
		if err != nil {
			respondError(w, http.StatusBadRequest, "validation_error", "complete must be true or false")
			return
		}
		filters.Complete = &complete
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filters.Limit = limit
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filters.Offset = offset
		}
	}

	list, err := s.assessments.List(r.Context(), filters)
	if err != nil {
		respondServiceError(w, err, "list assessments")
		return
	}
	if list == nil {
		list = []*models.AssessmentData{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"assessments": list,
		"total":       len(list),
	})
}

func (s *Server) handleUpdateResponses(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.UpdateResponsesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if len(req.Responses) == 0 && !req.Replace {
		respondError(w, http.StatusBadRequest, "validation_error", "responses are required")
		return
	}

	a, err := s.assessments.UpdateResponses(r.Context(), id, req.Responses, req.Replace)
	if err != nil {
		respondServiceError(w, err, "update responses")
		return
	}

	slog.Info("assessment responses updated",
		append(auditAttrs(r.Context(), id), "replace", req.Replace, "answers", len(req.Responses))...)
	respondJSON(w, http.StatusOK, a)
}

// Report handlers. Each one serves a slice of the same cached report.

func (s *Server) report(w http.ResponseWriter, r *http.Request) (*models.Report, bool) {
	report, err := s.assessments.Report(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err, "build report")
		return nil, false
	}
	return report, true
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	if report, ok := s.report(w, r); ok {
		respondJSON(w, http.StatusOK, report)
	}
}

func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	if report, ok := s.report(w, r); ok {
		respondJSON(w, http.StatusOK, report.Summary())
	}
}

func (s *Server) handleGetGaps(w http.ResponseWriter, r *http.Request) {
	if report, ok := s.report(w, r); ok {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"gaps":  report.Gaps,
			"total": len(report.Gaps),
		})
	}
}

func (s *Server) handleGetRemediation(w http.ResponseWriter, r *http.Request) {
	report, ok := s.report(w, r)
	if !ok {
		return
	}

	phases := map[int][]models.RemediationItem{1: {}, 2: {}, 3: {}}
	for _, item := range report.Remediation {
		phases[item.Phase] = append(phases[item.Phase], item)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items":  report.Remediation,
		"phases": phases,
		"total":  len(report.Remediation),
	})
}

func (s *Server) handleGetRecommendations(w http.ResponseWriter, r *http.Request) {
	if report, ok := s.report(w, r); ok {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"recommendations": report.Recommendations,
			"total":           len(report.Recommendations),
			"strong_posture":  report.StrongPosture,
		})
	}
}
