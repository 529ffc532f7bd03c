package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/cxyfer/oj-catalog/internal/domain"
	"github.com/cxyfer/oj-catalog/internal/procexec"
)

// Metrics is the narrow observability hook the supervisor reports through,
// implemented by internal/observability so this package stays free of a
// direct prometheus dependency.
type Metrics interface {
	JobStarted(kind, source string)
	JobFinished(kind, source string, status domain.JobStatus)
}

type noopMetrics struct{}

func (noopMetrics) JobStarted(string, string)                   {}
func (noopMetrics) JobFinished(string, string, domain.JobStatus) {}

// Config carries the knobs the Supervisor needs per job kind.
type Config struct {
	ScriptsDir        string        // working directory crawler/embedding scripts run from
	LogsDir           string        // where stdout/stderr logs are written per job id
	DefaultTimeout    time.Duration
	PerSourceTimeout  map[string]time.Duration
	ConfigPath        string // propagated as CONFIG_PATH env to the child
}

// Supervisor runs the crawler and embedding job slots. Exactly one job per
// kind may run at a time; cancellation kills the whole process group.
type Supervisor struct {
	cfg      Config
	launcher domain.Launcher
	logger   *slog.Logger
	metrics  Metrics

	crawler   *slot
	embedding *slot
}

// New constructs a Supervisor. metrics may be nil, in which case job
// start/finish events are simply not recorded.
func New(cfg Config, launcher domain.Launcher, logger *slog.Logger, metrics Metrics) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Supervisor{
		cfg:       cfg,
		launcher:  launcher,
		logger:    logger,
		metrics:   metrics,
		crawler:   newSlot(),
		embedding: newSlot(),
	}
}

func (sv *Supervisor) slotFor(kind domain.JobKind) *slot {
	if kind == domain.JobKindEmbedding {
		return sv.embedding
	}
	return sv.crawler
}

func (sv *Supervisor) timeoutFor(source string) time.Duration {
	if d, ok := sv.cfg.PerSourceTimeout[source]; ok {
		return d
	}
	if sv.cfg.DefaultTimeout > 0 {
		return sv.cfg.DefaultTimeout
	}
	return 5 * time.Minute
}

// Trigger starts a new job in the given slot. scriptName/args describe the
// subprocess to launch; it returns domain.ErrConflict if a job of this kind
// is already running.
func (sv *Supervisor) Trigger(ctx context.Context, kind domain.JobKind, source, scriptName string, args []string, trigger domain.JobTrigger) (string, error) {
	sl := sv.slotFor(kind)

	jobID := uuid.NewString()
	job := domain.Job{
		JobID:     jobID,
		Source:    source,
		Args:      args,
		Trigger:   trigger,
		StartedAt: time.Now(),
		Status:    domain.JobRunning,
	}

	if err := sl.beginIfIdle(job); err != nil {
		return "", err
	}

	sv.metrics.JobStarted(string(kind), source)

	env := []string{}
	if sv.cfg.ConfigPath != "" {
		env = append(env, "CONFIG_PATH="+sv.cfg.ConfigPath)
	}

	proc, err := sv.launcher.Start(ctx, sv.cfg.ScriptsDir, "uv", append([]string{"run", "python3", scriptName}, args...), env)
	if err != nil {
		sl.finishIfRunning(func(j *domain.Job) {
			j.Status = domain.JobFailed
			now := time.Now()
			j.FinishedAt = &now
		})
		sv.metrics.JobFinished(string(kind), source, domain.JobFailed)
		return "", fmt.Errorf("%w: failed to spawn %s: %v", domain.ErrInternal, scriptName, err)
	}

	sl.setActivePID(proc.PID())

	go sv.awaitCompletion(kind, sl, jobID, source, proc)

	return jobID, nil
}

// awaitCompletion is the wait-goroutine: it races Wait() against the
// per-source timeout, clears the active pid under the pid lock, then
// applies the terminal transition only if a concurrent Cancel hasn't
// already done so.
func (sv *Supervisor) awaitCompletion(kind domain.JobKind, sl *slot, jobID, source string, proc domain.Process) {
	defer func() {
		if r := recover(); r != nil {
			sv.logger.Error("job wait goroutine panicked", slog.Any("recover", r), slog.String("job_id", jobID))
		}
	}()

	type waitResult struct {
		stdout, stderr []byte
		err            error
	}
	done := make(chan waitResult, 1)
	go func() {
		stdout, stderr, err := proc.Wait()
		done <- waitResult{stdout, stderr, err}
	}()

	timeout := sv.timeoutFor(source)
	var res waitResult
	var timedOut bool

	select {
	case res = <-done:
	case <-time.After(timeout):
		timedOut = true
	}

	pid := sl.clearActivePID()

	if timedOut {
		sv.logger.Warn("job timed out", slog.String("job_id", jobID), slog.String("source", source))
		procexec.KillGroup(pid)
		res = <-done // still must reap
	}

	sl.finishIfRunning(func(j *domain.Job) {
		now := time.Now()
		j.FinishedAt = &now
		sv.writeLogs(jobID, res.stdout, res.stderr)
		j.SetOutput(res.stdout, res.stderr)
		switch {
		case timedOut:
			j.Status = domain.JobTimedOut
		case res.err != nil:
			j.Status = domain.JobFailed
		case proc.Success():
			j.Status = domain.JobCompleted
		default:
			j.Status = domain.JobFailed
		}
	})

	running, current, _ := sl.snapshot()
	_ = running
	if current != nil {
		sv.metrics.JobFinished(string(kind), source, current.Status)
		if kind == domain.JobKindEmbedding {
			writeJobProgress(sv.cfg.LogsDir, jobID, string(current.Status), sv.logger)
		}
	}
}

func (sv *Supervisor) writeLogs(jobID string, stdout, stderr []byte) {
	writeJobLogs(sv.cfg.LogsDir, jobID, stdout, stderr, sv.logger)
}

// Cancel cancels the currently running job of kind, killing its process
// group. Returns domain.ErrConflict if no job of that kind is running.
func (sv *Supervisor) Cancel(kind domain.JobKind) error {
	sl := sv.slotFor(kind)
	return sl.cancelRunning(time.Now(), procexec.KillGroup)
}

// Status returns whether a job of kind is running, its current/last job
// record (output redacted), and the recent history (most-recent-first).
func (sv *Supervisor) Status(kind domain.JobKind) (running bool, current *domain.Job, history []domain.Job) {
	return sv.slotFor(kind).snapshot()
}

// Output returns the stdout/stderr for jobID, checking the in-memory slot
// first and falling back to the on-disk log files (which survive across
// history eviction).
func (sv *Supervisor) Output(kind domain.JobKind, jobID string) (stdout, stderr *string, found bool) {
	sl := sv.slotFor(kind)
	if job, ok := sl.findOutput(jobID); ok {
		return job.Stdout, job.Stderr, true
	}

	if sv.cfg.LogsDir == "" {
		return nil, nil, false
	}
	outPath := filepath.Join(sv.cfg.LogsDir, jobID+".stdout.log")
	errPath := filepath.Join(sv.cfg.LogsDir, jobID+".stderr.log")
	outBytes, outErr := os.ReadFile(outPath)
	errBytes, errErr := os.ReadFile(errPath)
	if outErr != nil && errErr != nil {
		return nil, nil, false
	}
	if outErr == nil {
		s := string(outBytes)
		stdout = &s
	}
	if errErr == nil {
		s := string(errBytes)
		stderr = &s
	}
	return stdout, stderr, true
}
