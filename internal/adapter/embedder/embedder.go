// Package embedder invokes the embedding CLI subprocess to turn free text
// into a vector for similarity search, bounding concurrent invocations with
// a semaphore the way the original bounds concurrent Gemini calls.
package embedder

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/cxyfer/oj-catalog/internal/domain"
)

// Config carries the embedder subprocess's invocation parameters.
type Config struct {
	WorkDir     string
	PythonBin   string // defaults to "python3"
	ScriptName  string // defaults to "embedding_cli.py"
	Timeout     time.Duration
	Concurrency int // bounded permits, 1-32
	GeminiAPIKey string
}

// Embedder embeds free text via the configured subprocess, at most
// Concurrency invocations running at once.
type Embedder struct {
	cfg Config
	sem chan struct{}
}

// New constructs an Embedder. cfg.Concurrency must already be validated to
// [1,32] by Config.Validate (see internal/config).
func New(cfg Config) *Embedder {
	if cfg.PythonBin == "" {
		cfg.PythonBin = "python3"
	}
	if cfg.ScriptName == "" {
		cfg.ScriptName = "embedding_cli.py"
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Embedder{cfg: cfg, sem: make(chan struct{}, cfg.Concurrency)}
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// EmbedText runs the embedding subprocess for text and returns the vector
// it produces. Errors are domain.ErrBadGateway (subprocess failed to start,
// exited non-zero, or produced an unparsable response) or
// domain.ErrGatewayTimeout (exceeded cfg.Timeout), or ctx.Err() if ctx ends
// while waiting for a concurrency slot.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	select {
	case e.sem <- struct{}{}:
		defer func() { <-e.sem }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if e.cfg.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, e.cfg.PythonBin, e.cfg.ScriptName, "--embed-text", text)
	cmd.Dir = e.cfg.WorkDir
	if e.cfg.GeminiAPIKey != "" {
		cmd.Env = append(cmd.Environ(), "GEMINI_API_KEY="+e.cfg.GeminiAPIKey)
	}

	out, err := cmd.Output()
	if runCtx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("%w: embedding subprocess timed out", domain.ErrGatewayTimeout)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: embedding subprocess failed: %v", domain.ErrBadGateway, err)
	}

	var resp embedResponse
	if err := json.Unmarshal(out, &resp); err != nil || len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("%w: invalid embedding response", domain.ErrBadGateway)
	}
	return resp.Embedding, nil
}
