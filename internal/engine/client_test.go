package engine

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, baseURL string) *HTTPClient {
	t.Helper()
	return NewHTTPClient(baseURL, "test-key", 5*time.Second)
}

// --- SubmitAnalysis tests ---

func TestSubmitAnalysis_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/analyses" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", got)
		}

		var req SubmitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Name != "barn-a.mp4" || req.Scenario != "standard" {
			t.Errorf("unexpected request: %+v", req)
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"analysis_id": "an-42"})
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL)
	id, err := c.SubmitAnalysis(context.Background(), SubmitRequest{
		Name:      "barn-a.mp4",
		SizeBytes: 1024,
		Scenario:  "standard",
		UploadURL: "s3://uploads/barn-a.mp4",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "an-42" {
		t.Errorf("unexpected analysis id: %s", id)
	}
}

func TestSubmitAnalysis_Rejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"error": "unsupported codec"})
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL)
	_, err := c.SubmitAnalysis(context.Background(), SubmitRequest{Name: "x.avi"})
	if !errors.Is(err, ErrEngineRejected) {
		t.Fatalf("expected ErrEngineRejected, got %v", err)
	}
	if got := err.Error(); !strings.Contains(got, "unsupported codec") {
		t.Errorf("rejection reason not propagated: %s", got)
	}
}

func TestSubmitAnalysis_MissingAnalysisID(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL)
	_, err := c.SubmitAnalysis(context.Background(), SubmitRequest{Name: "x.mp4"})
	if !errors.Is(err, ErrEngineRejected) {
		t.Fatalf("expected ErrEngineRejected, got %v", err)
	}
}

// --- AnalysisStatus tests ---

func TestAnalysisStatus_Processing(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/analyses/an-42/status" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(StatusResponse{Status: StatusProcessing, Progress: 37})
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL)
	st, err := c.AnalysisStatus(context.Background(), "an-42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Status != StatusProcessing || st.Progress != 37 {
		t.Errorf("unexpected status: %+v", st)
	}
}

func TestAnalysisStatus_CompletedWithResult(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status":   "completed",
			"progress": 100,
			"result":   map[string]any{"identified_count": 3},
		})
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL)
	st, err := c.AnalysisStatus(context.Background(), "an-42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Status != StatusCompleted {
		t.Errorf("unexpected status: %s", st.Status)
	}
	if len(st.Result) == 0 {
		t.Error("expected raw result payload to be preserved")
	}
}

func TestAnalysisStatus_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL)
	_, err := c.AnalysisStatus(context.Background(), "an-42")
	if !errors.Is(err, ErrEngineQuery) {
		t.Fatalf("expected ErrEngineQuery, got %v", err)
	}
}

func TestAnalysisStatus_Unreachable(t *testing.T) {
	c := NewHTTPClient("http://127.0.0.1:1", "", 500*time.Millisecond)
	_, err := c.AnalysisStatus(context.Background(), "an-42")
	if !errors.Is(err, ErrEngineUnreachable) {
		t.Fatalf("expected ErrEngineUnreachable, got %v", err)
	}
}

func TestAnalysisStatus_ContextCancelled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestClient(t, ts.URL)
	_, err := c.AnalysisStatus(ctx, "an-42")
	if !errors.Is(err, ErrEngineTimeout) {
		t.Fatalf("expected ErrEngineTimeout, got %v", err)
	}
}

// --- AnalysisAlerts tests ---

func TestAnalysisAlerts_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/analyses/an-42/alerts" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"alerts": []Alert{
				{ID: "al-1", AnalysisID: "an-42", AnimalID: "cow-9", Kind: "limp", Severity: "warning"},
			},
		})
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL)
	alerts, err := c.AnalysisAlerts(context.Background(), "an-42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].AnimalID != "cow-9" {
		t.Errorf("unexpected animal id: %s", alerts[0].AnimalID)
	}
}

func TestAnalysisAlerts_EmptyNeverNil(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"alerts": nil})
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL)
	alerts, err := c.AnalysisAlerts(context.Background(), "an-42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if alerts == nil {
		t.Error("expected empty slice, got nil")
	}
}

// --- Ready tests ---

func TestReady(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL)
	if err := c.Ready(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReady_NotReady(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL)
	if err := c.Ready(context.Background()); !errors.Is(err, ErrEngineUnreachable) {
		t.Fatalf("expected ErrEngineUnreachable, got %v", err)
	}
}
