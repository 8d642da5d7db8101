package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// chiRequest builds a request carrying a chi URL parameter, for handlers
// that read path variables outside a mounted router.
func chiRequest(method, target, param, value string) *http.Request {
	r := httptest.NewRequest(method, target, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(param, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// --- mock Selector ---

type mockSelector struct {
	selected *uuid.UUID
}

func (m *mockSelector) Select(localID uuid.UUID) {
	m.selected = &localID
}

func (m *mockSelector) Clear() {
	m.selected = nil
}

func (m *mockSelector) Selected() (uuid.UUID, bool) {
	if m.selected == nil {
		return uuid.Nil, false
	}
	return *m.selected, true
}

// --- tests ---

func TestGetSelectionHandler_Empty(t *testing.T) {
	h := NewGetSelectionHandler(&mockSelector{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/selection", nil))

	data := parseData(t, rec, http.StatusOK)
	if data["selected"] != nil {
		t.Errorf("expected null selection, got %v", data["selected"])
	}
}

func TestGetSelectionHandler_Selected(t *testing.T) {
	id := uuid.New()
	sel := &mockSelector{selected: &id}

	h := NewGetSelectionHandler(sel)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/selection", nil))

	data := parseData(t, rec, http.StatusOK)
	if data["selected"] != id.String() {
		t.Errorf("expected %s, got %v", id, data["selected"])
	}
}

func TestSelectHandler_Success(t *testing.T) {
	sel := &mockSelector{}
	id := uuid.New()

	b, _ := json.Marshal(map[string]string{"job_id": id.String()})
	r := httptest.NewRequest(http.MethodPut, "/api/v1/selection", bytes.NewReader(b))
	rec := httptest.NewRecorder()
	NewSelectHandler(sel).ServeHTTP(rec, r)

	data := parseData(t, rec, http.StatusOK)
	if data["selected"] != id.String() {
		t.Errorf("expected %s, got %v", id, data["selected"])
	}
}

func TestSelectHandler_BadUUID(t *testing.T) {
	sel := &mockSelector{}

	b, _ := json.Marshal(map[string]string{"job_id": "nope"})
	r := httptest.NewRequest(http.MethodPut, "/api/v1/selection", bytes.NewReader(b))
	rec := httptest.NewRecorder()
	NewSelectHandler(sel).ServeHTTP(rec, r)

	code, errCode := parseErr(t, rec)
	if code != http.StatusBadRequest || errCode != "INVALID_REQUEST" {
		t.Errorf("expected 400 INVALID_REQUEST, got %d %s", code, errCode)
	}
}

func TestSelectHandler_InvalidJSON(t *testing.T) {
	sel := &mockSelector{}

	r := httptest.NewRequest(http.MethodPut, "/api/v1/selection", bytes.NewReader([]byte("{")))
	rec := httptest.NewRecorder()
	NewSelectHandler(sel).ServeHTTP(rec, r)

	code, _ := parseErr(t, rec)
	if code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}

// Selecting an unknown job is not an error; the selection simply stays
// where the registry left it.
func TestSelectHandler_UnknownJobAcceptedSilently(t *testing.T) {
	sel := &noopSelector{}
	id := uuid.New()

	b, _ := json.Marshal(map[string]string{"job_id": id.String()})
	r := httptest.NewRequest(http.MethodPut, "/api/v1/selection", bytes.NewReader(b))
	rec := httptest.NewRecorder()
	NewSelectHandler(sel).ServeHTTP(rec, r)

	data := parseData(t, rec, http.StatusOK)
	if data["selected"] != nil {
		t.Errorf("expected null selection, got %v", data["selected"])
	}
}

// noopSelector ignores Select, the way the real selection controller does
// for ids not present in the registry.
type noopSelector struct{}

func (n *noopSelector) Select(_ uuid.UUID)          {}
func (n *noopSelector) Clear()                      {}
func (n *noopSelector) Selected() (uuid.UUID, bool) { return uuid.Nil, false }

func TestClearSelectionHandler(t *testing.T) {
	id := uuid.New()
	sel := &mockSelector{selected: &id}

	rec := httptest.NewRecorder()
	NewClearSelectionHandler(sel).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/selection", nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if _, ok := sel.Selected(); ok {
		t.Error("selection should be cleared")
	}
}
