package httpserver

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cxyfer/oj-catalog/internal/domain"
	"github.com/cxyfer/oj-catalog/internal/supervisor"
)

const adminSessionTTL = 8 * time.Hour

// LoginRequest is the body of POST /admin/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginHandler verifies cfg.AdminUsername/AdminPassword and issues a bearer JWT.
func (a *AdminServer) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, badRequestProblem("malformed request body"))
		return
	}
	if err := getValidator().Struct(req); err != nil {
		writeProblem(w, validationProblem("missing required fields", fieldErrorsFrom(err)))
		return
	}

	if req.Username != a.cfg.AdminUsername || !VerifyPassword(req.Password, a.cfg.AdminPassword) {
		writeProblem(w, unauthorizedProblem("invalid credentials"))
		return
	}

	token, err := a.sessionManager.GenerateJWT(req.Username, adminSessionTTL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "expires_in": int(adminSessionTTL.Seconds())})
}

// CrawlerTriggerRequest is the body of POST /admin/api/crawlers/trigger.
type CrawlerTriggerRequest struct {
	Source string   `json:"source" validate:"required"`
	Args   []string `json:"args"`
}

// CrawlerTriggerHandler handles POST /admin/api/crawlers/trigger.
func (a *AdminServer) CrawlerTriggerHandler(w http.ResponseWriter, r *http.Request) {
	var req CrawlerTriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, badRequestProblem("malformed request body"))
		return
	}
	if err := getValidator().Struct(req); err != nil {
		writeProblem(w, validationProblem("missing required fields", fieldErrorsFrom(err)))
		return
	}

	source, ok := domain.ParseCrawlerSource(req.Source)
	if !ok {
		writeProblem(w, badRequestProblem("unknown crawler source: "+req.Source))
		return
	}
	args, err := supervisor.ValidateArgs(source, req.Args)
	if err != nil {
		writeError(w, err)
		return
	}

	jobID, err := a.server.Supervisor.Trigger(r.Context(), domain.JobKindCrawler, string(source), source.ScriptName(), args, domain.TriggerAdmin)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID})
}

// CrawlerStatusHandler handles GET /admin/api/crawlers/status.
func (a *AdminServer) CrawlerStatusHandler(w http.ResponseWriter, r *http.Request) {
	writeJobStatus(w, a.server.Supervisor, domain.JobKindCrawler)
}

// CrawlerCancelHandler handles POST /admin/api/crawlers/cancel.
func (a *AdminServer) CrawlerCancelHandler(w http.ResponseWriter, r *http.Request) {
	if err := a.server.Supervisor.Cancel(domain.JobKindCrawler); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// CrawlerOutputHandler handles GET /admin/api/crawlers/{job_id}/output.
func (a *AdminServer) CrawlerOutputHandler(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		writeProblem(w, badRequestProblem("job_id must be a valid uuid"))
		return
	}
	writeJobOutput(w, a.server.Supervisor, domain.JobKindCrawler, jobID)
}

// EmbeddingTriggerRequest is the body of POST /admin/api/embeddings/trigger.
type EmbeddingTriggerRequest struct {
	Source    string `json:"source" validate:"required"`
	Rebuild   bool   `json:"rebuild"`
	DryRun    bool   `json:"dry_run"`
	BatchSize int    `json:"batch_size" validate:"omitempty,min=1,max=256"`
	Filter    string `json:"filter"`
}

// EmbeddingTriggerHandler handles POST /admin/api/embeddings/trigger.
func (a *AdminServer) EmbeddingTriggerHandler(w http.ResponseWriter, r *http.Request) {
	var req EmbeddingTriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, badRequestProblem("malformed request body"))
		return
	}
	if err := getValidator().Struct(req); err != nil {
		writeProblem(w, validationProblem("invalid embedding trigger body", fieldErrorsFrom(err)))
		return
	}

	if req.Source != "all" && !domain.IsValidSource(req.Source) {
		writeProblem(w, badRequestProblem("invalid source: "+req.Source))
		return
	}

	args := []string{"--source", req.Source}
	if req.Rebuild {
		args = append(args, "--rebuild")
	}
	if req.DryRun {
		args = append(args, "--dry-run")
	}
	if req.BatchSize > 0 {
		args = append(args, "--batch-size", strconv.Itoa(req.BatchSize))
	}
	if req.Filter != "" {
		args = append(args, "--filter", req.Filter)
	}

	jobID, err := a.server.Supervisor.Trigger(r.Context(), domain.JobKindEmbedding, req.Source, "embed.py", args, domain.TriggerAdmin)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID})
}

// EmbeddingStatusHandler handles GET /admin/api/embeddings/status.
func (a *AdminServer) EmbeddingStatusHandler(w http.ResponseWriter, r *http.Request) {
	running, current, history := a.server.Supervisor.Status(domain.JobKindEmbedding)
	stats, err := a.server.Vectors.EmbeddingStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	resp := map[string]any{"running": running, "history": history, "progress": stats}
	if current != nil {
		if running {
			resp["current_job"] = current
		} else {
			resp["last_job"] = current
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// EmbeddingCancelHandler handles POST /admin/api/embeddings/cancel.
func (a *AdminServer) EmbeddingCancelHandler(w http.ResponseWriter, r *http.Request) {
	if err := a.server.Supervisor.Cancel(domain.JobKindEmbedding); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// EmbeddingOutputHandler handles GET /admin/api/embeddings/{job_id}/output.
func (a *AdminServer) EmbeddingOutputHandler(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		writeProblem(w, badRequestProblem("job_id must be a valid uuid"))
		return
	}
	writeJobOutput(w, a.server.Supervisor, domain.JobKindEmbedding, jobID)
}

// EmbeddingProgressHandler handles GET /admin/api/embeddings/{job_id}/progress.
// The supervisor rewrites {job_id}.progress.json with the job's final phase
// at its terminal transition, so this handler only needs to serve the file
// as-is; no read-time merge against the supervisor's history is necessary.
func (a *AdminServer) EmbeddingProgressHandler(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		writeProblem(w, badRequestProblem("job_id must be a valid uuid"))
		return
	}

	progress := map[string]any{"phase": "unknown"}
	if a.server.LogsDir != "" {
		path := filepath.Join(a.server.LogsDir, jobID+".progress.json")
		if raw, err := os.ReadFile(path); err == nil {
			_ = json.Unmarshal(raw, &progress)
		}
	}

	writeJSON(w, http.StatusOK, progress)
}

func writeJobStatus(w http.ResponseWriter, sv *supervisor.Supervisor, kind domain.JobKind) {
	running, current, history := sv.Status(kind)
	resp := map[string]any{"running": running, "history": history}
	if current != nil {
		if running {
			resp["current_job"] = current
		} else {
			resp["last_job"] = current
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJobOutput(w http.ResponseWriter, sv *supervisor.Supervisor, kind domain.JobKind, jobID string) {
	if jobID == "" {
		writeProblem(w, badRequestProblem("job_id is required"))
		return
	}
	stdout, stderr, found := sv.Output(kind, jobID)
	if !found {
		writeProblem(w, notFoundProblem("no output for job "+jobID))
		return
	}
	writeJSON(w, http.StatusOK, map[string]*string{"stdout": stdout, "stderr": stderr})
}
