package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cxyfer/oj-catalog/internal/domain"
	"github.com/cxyfer/oj-catalog/internal/usecase"
)

const embedOverFetchFactor = 4

// BearerAuth gates the public API behind a token when token auth is
// enabled in app_settings; it is a no-op pass-through otherwise.
func (s *Server) BearerAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		enabled, err := s.Settings.TokenAuthEnabled(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		if !enabled {
			next(w, r)
			return
		}
		token := bearerToken(r)
		if token == "" {
			writeProblem(w, unauthorizedProblem("missing bearer token"))
			return
		}
		ok, err := s.Tokens.ValidateToken(r.Context(), token)
		if err != nil {
			writeError(w, err)
			return
		}
		if !ok {
			writeProblem(w, unauthorizedProblem("invalid or revoked token"))
			return
		}
		next(w, r)
	}
}

// ListProblemsHandler handles GET /api/v1/problems/{source}.
func (s *Server) ListProblemsHandler(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	q := r.URL.Query()

	params := domain.ListParams{
		Source:     source,
		Page:       queryInt(q, "page", 1),
		PerPage:    queryInt(q, "per_page", 20),
		Difficulty: q.Get("difficulty"),
		Search:     q.Get("search"),
		SortBy:     q.Get("sort_by"),
		SortOrder:  q.Get("sort_order"),
		TagMode:    q.Get("tag_mode"),
	}
	if tags := q.Get("tags"); tags != "" {
		params.Tags = splitCSV(tags)
	}
	if params.TagMode == "" {
		params.TagMode = "any"
	}
	if v := q.Get("rating_min"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			params.RatingMin = &f
		}
	}
	if v := q.Get("rating_max"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			params.RatingMax = &f
		}
	}

	result, err := s.Catalog.ListProblems(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListTagsHandler handles GET /api/v1/problems/{source}/tags.
func (s *Server) ListTagsHandler(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	tags, err := s.Catalog.ListTags(r.Context(), source)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

// GetProblemHandler handles GET /api/v1/problems/{source}/{id}.
func (s *Server) GetProblemHandler(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	id := chi.URLParam(r, "id")
	p, err := s.Catalog.GetProblem(r.Context(), source, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DailyHandler handles GET /api/v1/daily.
func (s *Server) DailyHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	challenge, fetching, err := s.Daily.GetDaily(r.Context(), q.Get("domain"), q.Get("source"), q.Get("date"))
	if err != nil {
		writeError(w, err)
		return
	}
	if fetching != nil {
		w.Header().Set("Retry-After", strconv.Itoa(fetching.RetryAfter))
		writeJSON(w, http.StatusAccepted, map[string]any{"status": "fetching", "retry_after": fetching.RetryAfter})
		return
	}
	writeJSON(w, http.StatusOK, challenge)
}

func similarityQueryFrom(q map[string][]string) usecase.SimilarityQuery {
	get := func(k string) string {
		if v, ok := q[k]; ok && len(v) > 0 {
			return v[0]
		}
		return ""
	}
	sq := usecase.SimilarityQuery{OverFetch: embedOverFetchFactor}
	if v := get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			sq.Limit = &n
		}
	}
	if v := get("threshold"); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			sq.Threshold = float32(f)
		}
	}
	if v := get("source"); v != "" {
		sq.Sources = splitCSV(v)
	}
	return sq
}

// SimilarByProblemHandler handles GET /api/v1/similar/{source}/{id}.
func (s *Server) SimilarByProblemHandler(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	id := chi.URLParam(r, "id")
	q := r.URL.Query()
	sq := similarityQueryFrom(q)
	if sq.Limit != nil && *sq.Limit > 50 {
		writeProblem(w, badRequestProblem("limit must be <= 50"))
		return
	}

	hits, err := s.Similarity.SimilarByProblem(r.Context(), source, id, sq)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hits)
}

// SimilarByTextHandler handles GET /api/v1/similar?query=.
func (s *Server) SimilarByTextHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if strings.TrimSpace(query) == "" {
		writeProblem(w, badRequestProblem("query is required"))
		return
	}
	sq := similarityQueryFrom(r.URL.Query())
	if sq.Limit != nil && *sq.Limit > 50 {
		writeProblem(w, badRequestProblem("limit must be <= 50"))
		return
	}

	hits, err := s.Similarity.SimilarByText(r.Context(), query, sq)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hits)
}

// HealthzHandler handles GET /healthz: DB reachability, sqlite-vec
// availability, and embedding dimension, returning 503 on any failure.
func (s *Server) HealthzHandler(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	healthy := true

	if s.DBCheck != nil {
		if err := s.DBCheck(r.Context()); err != nil {
			checks["database"] = err.Error()
			healthy = false
		} else {
			checks["database"] = "ok"
		}
	}
	if s.VecCheck != nil {
		if err := s.VecCheck(r.Context()); err != nil {
			checks["sqlite_vec"] = err.Error()
			healthy = false
		} else {
			checks["sqlite_vec"] = "ok"
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{"status": boolToStatus(healthy), "checks": checks})
}

func boolToStatus(ok bool) string {
	if ok {
		return "ok"
	}
	return "unhealthy"
}

func queryInt(q map[string][]string, key string, def int) int {
	v, ok := q[key]
	if !ok || len(v) == 0 || v[0] == "" {
		return def
	}
	n, err := strconv.Atoi(v[0])
	if err != nil {
		return def
	}
	return n
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
