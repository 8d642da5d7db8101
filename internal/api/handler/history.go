package handler

import (
	"net/http"
	"strconv"

	mw "github.com/sandeepmv/herdwatch/internal/api/middleware"
	"github.com/sandeepmv/herdwatch/internal/api/response"
	"github.com/sandeepmv/herdwatch/internal/store"
)

// NewJobHistoryHandler returns an http.HandlerFunc for GET /api/v1/jobs/history.
// Unlike the live registry, history is served from the durable store, so it
// survives restarts.
func NewJobHistoryHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := mw.GetTenantID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing tenant", nil)
			return
		}

		q := r.URL.Query()
		page, _ := strconv.Atoi(q.Get("page"))
		limit, _ := strconv.Atoi(q.Get("limit"))

		jobs, total, err := s.ListJobs(r.Context(), store.JobFilter{
			TenantID: tenantID,
			Status:   q.Get("status"),
			Scenario: q.Get("scenario"),
			Page:     page,
			Limit:    limit,
		})
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		if limit <= 0 {
			limit = 20
		}
		if page <= 0 {
			page = 1
		}
		response.Collection(w, jobs, response.PaginationMeta{
			Page:    page,
			Limit:   limit,
			Total:   total,
			HasNext: page*limit < total,
		})
	}
}
