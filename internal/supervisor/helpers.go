package supervisor

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const dateLayout = "2006-01-02"

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// writeJobLogs persists a job's captured stdout/stderr under logsDir,
// matching the crawler scripts' own on-disk log layout so Supervisor.Output
// can serve output for jobs already evicted from the in-memory history.
func writeJobLogs(logsDir, jobID string, stdout, stderr []byte, logger *slog.Logger) {
	if logsDir == "" {
		return
	}
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		logger.Warn("failed to create logs dir", slog.Any("error", err))
		return
	}
	if len(stdout) > 0 {
		p := filepath.Join(logsDir, jobID+".stdout.log")
		if err := os.WriteFile(p, stdout, 0o644); err != nil {
			logger.Warn("failed to write stdout log", slog.Any("error", err))
		}
	}
	if len(stderr) > 0 {
		p := filepath.Join(logsDir, jobID+".stderr.log")
		if err := os.WriteFile(p, stderr, 0o644); err != nil {
			logger.Warn("failed to write stderr log", slog.Any("error", err))
		}
	}
}

// writeJobProgress merges phase into the embedding job's on-disk
// {job_id}.progress.json and rewrites it unconditionally. embed.py's own
// writes only ever reflect its last partial progress; without this
// unconditional rewrite at the terminal transition, the file would keep
// reporting the helper's last observed phase forever once the job leaves
// the in-memory history FIFO.
func writeJobProgress(logsDir, jobID, phase string, logger *slog.Logger) {
	if logsDir == "" {
		return
	}
	path := filepath.Join(logsDir, jobID+".progress.json")

	progress := map[string]any{}
	if raw, err := os.ReadFile(path); err == nil {
		_ = json.Unmarshal(raw, &progress)
	}
	progress["phase"] = phase

	raw, err := json.Marshal(progress)
	if err != nil {
		logger.Warn("failed to marshal job progress", slog.Any("error", err))
		return
	}
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		logger.Warn("failed to create logs dir", slog.Any("error", err))
		return
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		logger.Warn("failed to write job progress", slog.Any("error", err))
	}
}
