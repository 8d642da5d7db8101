package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/sandeepmv/herdwatch/internal/api/response"
)

// Selector is the selection surface the handlers depend on.
type Selector interface {
	Select(localID uuid.UUID)
	Clear()
	Selected() (uuid.UUID, bool)
}

// NewGetSelectionHandler returns an http.HandlerFunc for GET /api/v1/selection.
func NewGetSelectionHandler(sel Selector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := sel.Selected()
		if !ok {
			response.JSON(w, map[string]any{"selected": nil})
			return
		}
		response.JSON(w, map[string]any{"selected": id})
	}
}

// NewSelectHandler returns an http.HandlerFunc for PUT /api/v1/selection.
// Selecting a job that no longer exists is accepted silently; the registry
// and an operator's screen can legitimately race.
func NewSelectHandler(sel Selector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			JobID string `json:"job_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		localID, err := uuid.Parse(req.JobID)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "job_id must be a UUID", nil)
			return
		}

		sel.Select(localID)

		id, ok := sel.Selected()
		if !ok {
			response.JSON(w, map[string]any{"selected": nil})
			return
		}
		response.JSON(w, map[string]any{"selected": id})
	}
}

// NewClearSelectionHandler returns an http.HandlerFunc for DELETE /api/v1/selection.
func NewClearSelectionHandler(sel Selector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sel.Clear()
		w.WriteHeader(http.StatusNoContent)
	}
}
