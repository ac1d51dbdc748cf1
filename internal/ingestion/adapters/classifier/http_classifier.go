package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/StayPulseHQ/staypulse/internal/ingestion/domain"
)

// HTTPClassifier calls the triage service over HTTP with a bounded budget.
// The timeout applies per call; a hung service yields a context error that
// the pipeline treats like any other classification failure.
type HTTPClassifier struct {
	logger     *slog.Logger
	httpClient *http.Client
	apiURL     string
	timeout    time.Duration
}

func NewHTTPClassifier(logger *slog.Logger, apiURL string, timeout time.Duration, httpClient *http.Client) *HTTPClassifier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &HTTPClassifier{
		logger:     logger.With("component", "http_classifier"),
		httpClient: httpClient,
		apiURL:     apiURL,
		timeout:    timeout,
	}
}

type classifyRequest struct {
	Text     string `json:"text"`
	TenantID string `json:"tenant_id"`
}

type classifyResponse struct {
	Department string `json:"department"`
	Priority   string `json:"priority"`
}

func (c *HTTPClassifier) Classify(ctx context.Context, text string, tenantID uuid.UUID) (*Classification, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reqBytes, err := json.Marshal(classifyRequest{Text: text, TenantID: tenantID.String()})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal classify request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.apiURL, bytes.NewBuffer(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create classify request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("classify call failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read classify response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		c.logger.WarnContext(ctx, "Classifier returned non-success status", "status_code", httpResp.StatusCode)
		return nil, fmt.Errorf("classifier returned status %d", httpResp.StatusCode)
	}

	var resp classifyResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("malformed classify response: %w", err)
	}

	c.logger.DebugContext(ctx, "Classification received", "department", resp.Department, "priority", resp.Priority)
	return &Classification{
		Department: resp.Department,
		Priority:   domain.Priority(resp.Priority),
	}, nil
}
