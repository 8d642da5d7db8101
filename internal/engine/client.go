package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"
)

// Sentinel errors for analysis engine failures.
var (
	ErrEngineUnreachable = errors.New("analysis engine unreachable")
	ErrEngineTimeout     = errors.New("analysis engine timeout")
	ErrEngineRejected    = errors.New("analysis engine rejected submission")
	ErrEngineQuery       = errors.New("analysis engine query error")
)

// Job statuses as reported by the engine's status endpoint.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Client is the interface for talking to the remote analysis engine.
type Client interface {
	// SubmitAnalysis registers a video for analysis and returns the
	// engine-assigned analysis id.
	SubmitAnalysis(ctx context.Context, req SubmitRequest) (string, error)
	// AnalysisStatus queries the current status of a running analysis.
	AnalysisStatus(ctx context.Context, analysisID string) (*StatusResponse, error)
	// AnalysisAlerts fetches the alert records the engine associated with
	// an analysis. Valid once the analysis has completed.
	AnalysisAlerts(ctx context.Context, analysisID string) ([]Alert, error)
	Ready(ctx context.Context) error
}

// SubmitRequest describes one video artifact to analyze.
type SubmitRequest struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	Scenario  string `json:"scenario"`
	UploadURL string `json:"upload_url"`
}

// StatusResponse is the engine's view of one analysis.
type StatusResponse struct {
	Status       string          `json:"status"`
	Progress     int             `json:"progress"`
	Result       json.RawMessage `json:"result,omitempty"`
	ErrorMessage string          `json:"error,omitempty"`
}

// Alert is one alert record raised during an analysis. AnalysisID is the
// foreign key back to the analysis; AnimalID identifies the resolved animal
// and may be empty when identity resolution did not converge.
type Alert struct {
	ID         string    `json:"id"`
	AnalysisID string    `json:"analysis_id"`
	AnimalID   string    `json:"animal_id"`
	Kind       string    `json:"kind"`
	Severity   string    `json:"severity"`
	RaisedAt   time.Time `json:"raised_at"`
}

// HTTPClient implements Client against the engine's HTTP API.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPClient creates a new engine HTTP client.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) SubmitAnalysis(ctx context.Context, req SubmitRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encoding submit request: %w", err)
	}

	u := fmt.Sprintf("%s/api/v1/analyses", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.setHeaders(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error != "" {
			return "", fmt.Errorf("%w: %s (status %d)", ErrEngineRejected, e.Error, resp.StatusCode)
		}
		return "", fmt.Errorf("%w: status %d", ErrEngineRejected, resp.StatusCode)
	}

	var submitResp struct {
		AnalysisID string `json:"analysis_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&submitResp); err != nil {
		return "", fmt.Errorf("decoding submit response: %w", err)
	}
	if submitResp.AnalysisID == "" {
		return "", fmt.Errorf("%w: response missing analysis_id", ErrEngineRejected)
	}

	return submitResp.AnalysisID, nil
}

func (c *HTTPClient) AnalysisStatus(ctx context.Context, analysisID string) (*StatusResponse, error) {
	u := fmt.Sprintf("%s/api/v1/analyses/%s/status", c.baseURL, url.PathEscape(analysisID))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrEngineQuery, resp.StatusCode)
	}

	var statusResp StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&statusResp); err != nil {
		return nil, fmt.Errorf("decoding status response: %w", err)
	}

	return &statusResp, nil
}

func (c *HTTPClient) AnalysisAlerts(ctx context.Context, analysisID string) ([]Alert, error) {
	u := fmt.Sprintf("%s/api/v1/analyses/%s/alerts", c.baseURL, url.PathEscape(analysisID))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrEngineQuery, resp.StatusCode)
	}

	var alertsResp struct {
		Alerts []Alert `json:"alerts"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&alertsResp); err != nil {
		return nil, fmt.Errorf("decoding alerts response: %w", err)
	}

	if alertsResp.Alerts == nil {
		return []Alert{}, nil
	}
	return alertsResp.Alerts, nil
}

func (c *HTTPClient) Ready(ctx context.Context) error {
	u := fmt.Sprintf("%s/healthz", c.baseURL)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEngineUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: engine not ready (status %d)", ErrEngineUnreachable, resp.StatusCode)
	}

	return nil
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrEngineTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrEngineTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrEngineUnreachable, err)
	}

	return fmt.Errorf("%w: %v", ErrEngineUnreachable, err)
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
