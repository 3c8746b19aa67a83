package livesearch

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zmre/mbr-markdown-browser-sub000/internal/search"
)

// RegisterRoutes mounts the search endpoint on the given router.
func RegisterRoutes(r chi.Router, engine *Engine) {
	r.Get(search.EndpointPath, handleSearch(engine))
}

func handleSearch(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := search.ParseValues(r.URL.Query())
		if err != nil {
			writeJSON(w, http.StatusBadRequest, search.WireResponse{Query: q.RawQuery, Results: []search.Result{}, Error: err.Error()})
			return
		}

		resp, err := engine.Search(r.Context(), q)
		if err != nil {
			status := http.StatusInternalServerError
			var qe *search.QueryError
			switch {
			case errors.Is(err, search.ErrIndexNotBuilt):
				status = http.StatusServiceUnavailable
			case errors.As(err, &qe) && qe.Status != 0:
				status = qe.Status
			}
			writeJSON(w, status, search.WireResponse{Query: q.RawQuery, Results: []search.Result{}, Error: err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, search.WireResponse{
			Query:        q.RawQuery,
			TotalMatches: resp.TotalMatches,
			Results:      resp.Results,
			DurationMs:   resp.Duration.Milliseconds(),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
