package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/terra-clan/compliance-engine/internal/models"
)

// Client is a Go SDK for the compliance-engine API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new compliance-engine client
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError is returned for any non-2xx response
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error (HTTP %d): %s - %s", e.StatusCode, e.Code, e.Message)
}

// ListOptions contains options for listing assessments
type ListOptions struct {
	FrameworkID string
	Complete    *bool
	Limit       int
	Offset      int
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodGet, "/health", nil)
	return err
}

// ListFrameworks retrieves all loaded frameworks
func (c *Client) ListFrameworks(ctx context.Context) ([]models.FrameworkSummary, error) {
	var data struct {
		Frameworks []models.FrameworkSummary `json:"frameworks"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/v1/frameworks", nil, &data); err != nil {
		return nil, err
	}
	return data.Frameworks, nil
}

// GetFramework retrieves a full framework definition
func (c *Client) GetFramework(ctx context.Context, id string) (*models.Framework, error) {
	var fw models.Framework
	if err := c.call(ctx, http.MethodGet, "/api/v1/frameworks/"+url.PathEscape(id), nil, &fw); err != nil {
		return nil, err
	}
	return &fw, nil
}

// Analyze scores responses without storing them
func (c *Client) Analyze(ctx context.Context, frameworkID string, responses models.Responses) (*models.Report, error) {
	var report models.Report
	req := models.AnalyzeRequest{FrameworkID: frameworkID, Responses: responses}
	if err := c.call(ctx, http.MethodPost, "/api/v1/analyze", req, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// CreateAssessment starts a stored assessment
func (c *Client) CreateAssessment(ctx context.Context, req models.CreateAssessmentRequest) (*models.AssessmentData, error) {
	var a models.AssessmentData
	if err := c.call(ctx, http.MethodPost, "/api/v1/assessments", req, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAssessment retrieves an assessment by ID
func (c *Client) GetAssessment(ctx context.Context, id string) (*models.AssessmentData, error) {
	var a models.AssessmentData
	if err := c.call(ctx, http.MethodGet, assessmentPath(id, ""), nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAssessments retrieves assessments with optional filters
func (c *Client) ListAssessments(ctx context.Context, opts ListOptions) ([]*models.AssessmentData, error) {
	params := url.Values{}
	if opts.FrameworkID != "" {
		params.Set("framework_id", opts.FrameworkID)
	}
	if opts.Complete != nil {
		params.Set("complete", strconv.FormatBool(*opts.Complete))
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		params.Set("offset", strconv.Itoa(opts.Offset))
	}

	path := "/api/v1/assessments"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var data struct {
		Assessments []*models.AssessmentData `json:"assessments"`
	}
	if err := c.call(ctx, http.MethodGet, path, nil, &data); err != nil {
		return nil, err
	}
	return data.Assessments, nil
}

// UpdateResponses merges responses into an assessment, or replaces them all
func (c *Client) UpdateResponses(ctx context.Context, id string, responses models.Responses, replace bool) (*models.AssessmentData, error) {
	var a models.AssessmentData
	req := models.UpdateResponsesRequest{Responses: responses, Replace: replace}
	if err := c.call(ctx, http.MethodPut, assessmentPath(id, "/responses"), req, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// GetReport retrieves the full report for an assessment
func (c *Client) GetReport(ctx context.Context, id string) (*models.Report, error) {
	var report models.Report
	if err := c.call(ctx, http.MethodGet, assessmentPath(id, "/report"), nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// GetRecommendations retrieves the prioritized recommendations for an assessment
func (c *Client) GetRecommendations(ctx context.Context, id string) ([]models.SmartRecommendation, error) {
	var data struct {
		Recommendations []models.SmartRecommendation `json:"recommendations"`
	}
	if err := c.call(ctx, http.MethodGet, assessmentPath(id, "/recommendations"), nil, &data); err != nil {
		return nil, err
	}
	return data.Recommendations, nil
}

// DeleteAssessment deletes an assessment
func (c *Client) DeleteAssessment(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, assessmentPath(id, ""), nil, nil)
}

func assessmentPath(id, suffix string) string {
	return "/api/v1/assessments/" + url.PathEscape(id) + suffix
}

// call sends body as JSON and decodes the envelope's data into out (if non-nil)
func (c *Client) call(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	resp, err := c.doRequest(ctx, method, path, reader)
	if err != nil {
		return err
	}

	var result struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if out == nil || len(result.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(result.Data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response data: %w", err)
	}
	return nil
}

// doRequest performs an HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	endpoint := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, parseAPIError(resp.StatusCode, respBody)
	}

	return respBody, nil
}

// parseAPIError reads both the API envelope and the auth middleware's error shape
func parseAPIError(status int, body []byte) *APIError {
	var envelope struct {
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		return &APIError{StatusCode: status, Code: envelope.Error.Code, Message: envelope.Error.Message}
	}

	var auth struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &auth); err == nil && auth.Error != "" {
		return &APIError{StatusCode: status, Code: auth.Error, Message: auth.Message}
	}

	return &APIError{StatusCode: status, Message: string(body)}
}
