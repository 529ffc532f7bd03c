package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cxyfer/oj-catalog/internal/domain"
)

// ProblemRequest is the body of the admin create/update problem endpoints.
type ProblemRequest struct {
	ID               string   `json:"id" validate:"required"`
	Source           string   `json:"source" validate:"required"`
	Slug             string   `json:"slug"`
	Title            *string  `json:"title"`
	TitleCN          *string  `json:"title_cn"`
	Difficulty       *string  `json:"difficulty"`
	ACRate           *float64 `json:"ac_rate"`
	Rating           *float64 `json:"rating"`
	Contest          *string  `json:"contest"`
	ProblemIndex     *string  `json:"problem_index"`
	Tags             []string `json:"tags"`
	Link             *string  `json:"link"`
	Category         *string  `json:"category"`
	PaidOnly         *int     `json:"paid_only"`
	Content          *string  `json:"content" validate:"omitempty,max=200000"`
	ContentCN        *string  `json:"content_cn" validate:"omitempty,max=200000"`
	SimilarQuestions []string `json:"similar_questions"`
}

func (req ProblemRequest) toDomain() domain.Problem {
	return domain.Problem{
		ID:               req.ID,
		Source:           req.Source,
		Slug:             req.Slug,
		Title:            req.Title,
		TitleCN:          req.TitleCN,
		Difficulty:       req.Difficulty,
		ACRate:           req.ACRate,
		Rating:           req.Rating,
		Contest:          req.Contest,
		ProblemIndex:     req.ProblemIndex,
		Tags:             req.Tags,
		Link:             req.Link,
		Category:         req.Category,
		PaidOnly:         req.PaidOnly,
		Content:          req.Content,
		ContentCN:        req.ContentCN,
		SimilarQuestions: req.SimilarQuestions,
	}
}

// CreateProblemHandler handles POST /admin/api/problems/{source}.
func (a *AdminServer) CreateProblemHandler(w http.ResponseWriter, r *http.Request) {
	var req ProblemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, badRequestProblem("malformed request body"))
		return
	}
	req.Source = chi.URLParam(r, "source")
	if err := getValidator().Struct(req); err != nil {
		writeProblem(w, validationProblem("invalid problem body", fieldErrorsFrom(err)))
		return
	}
	if err := a.server.Catalog.CreateProblem(r.Context(), req.toDomain()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": req.ID})
}

// UpdateProblemHandler handles PUT /admin/api/problems/{source}/{id}.
func (a *AdminServer) UpdateProblemHandler(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	id := chi.URLParam(r, "id")

	var req ProblemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, badRequestProblem("malformed request body"))
		return
	}
	req.Source, req.ID = source, id
	if err := getValidator().Struct(req); err != nil {
		writeProblem(w, validationProblem("invalid problem body", fieldErrorsFrom(err)))
		return
	}
	if err := a.server.Catalog.UpdateProblem(r.Context(), source, id, req.toDomain()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

// DeleteProblemHandler handles DELETE /admin/api/problems/{source}/{id}.
func (a *AdminServer) DeleteProblemHandler(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	id := chi.URLParam(r, "id")
	if err := a.server.Catalog.DeleteProblem(r.Context(), source, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PlatformStatsHandler handles GET /admin/api/stats: per-source catalog
// coverage plus embedding progress, used to decide when to trigger a run.
func (a *AdminServer) PlatformStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := a.server.Catalog.PlatformStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// TokenCreateRequest is the body of POST /admin/api/tokens.
type TokenCreateRequest struct {
	Label *string `json:"label"`
}

// ListTokensHandler handles GET /admin/api/tokens.
func (a *AdminServer) ListTokensHandler(w http.ResponseWriter, r *http.Request) {
	tokens, err := a.server.Tokens.ListTokens(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

// CreateTokenHandler handles POST /admin/api/tokens.
func (a *AdminServer) CreateTokenHandler(w http.ResponseWriter, r *http.Request) {
	var req TokenCreateRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	token, err := a.server.Tokens.CreateToken(r.Context(), req.Label)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, token)
}

// RevokeTokenHandler handles DELETE /admin/api/tokens/{token}.
func (a *AdminServer) RevokeTokenHandler(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	ok, err := a.server.Tokens.RevokeToken(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeProblem(w, notFoundProblem("no such token"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TokenAuthSettingRequest is the body of PUT /admin/api/settings/token-auth.
type TokenAuthSettingRequest struct {
	Enabled bool `json:"enabled"`
}

// GetTokenAuthSettingHandler handles GET /admin/api/settings/token-auth.
func (a *AdminServer) GetTokenAuthSettingHandler(w http.ResponseWriter, r *http.Request) {
	enabled, err := a.server.Settings.TokenAuthEnabled(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": enabled})
}

// SetTokenAuthSettingHandler handles PUT /admin/api/settings/token-auth.
func (a *AdminServer) SetTokenAuthSettingHandler(w http.ResponseWriter, r *http.Request) {
	var req TokenAuthSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, badRequestProblem("malformed request body"))
		return
	}
	value := "false"
	if req.Enabled {
		value = "true"
	}
	if err := a.server.Settings.SetSetting(r.Context(), "token_auth_enabled", value); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": req.Enabled})
}
