package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cxyfer/oj-catalog/internal/domain"
	"github.com/cxyfer/oj-catalog/internal/procexec"
)

const (
	fallbackCooldown    = 30 * time.Second
	fallbackCleanupWait = 60 * time.Second
)

// FallbackCoordinator runs the single-source (LeetCode) daily-challenge
// fallback crawl: when a requested date is missing from the catalog, it
// claims a per-(domain,date) slot and spawns a crawl, returning "fetching"
// to concurrent callers instead of spawning duplicate crawls for the same key.
type FallbackCoordinator struct {
	mu       sync.Mutex
	entries  map[string]*domain.FallbackEntry
	cfg      Config
	launcher domain.Launcher
	logger   *slog.Logger
}

// NewFallbackCoordinator constructs a coordinator sharing the Supervisor's
// launcher and logs configuration.
func NewFallbackCoordinator(cfg Config, launcher domain.Launcher, logger *slog.Logger) *FallbackCoordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackCoordinator{
		entries:  make(map[string]*domain.FallbackEntry),
		cfg:      cfg,
		launcher: launcher,
		logger:   logger,
	}
}

// ClaimResult is what Claim reports back to the HTTP handler.
type ClaimResult struct {
	AlreadyFetching bool
	RetryAfter      int // seconds
}

// Claim atomically checks whether key already has a running or
// still-cooling-down entry and, if not, installs a new Running entry for it.
// The check-and-insert happens under a single lock specifically to close the
// TOCTOU window between "is something already in flight for this key" and
// "mark this key as in flight" that two concurrent requests for the same
// missing daily challenge would otherwise race through.
func (fc *FallbackCoordinator) Claim(key string, now time.Time) (claimed bool, result ClaimResult) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if entry, ok := fc.entries[key]; ok {
		if entry.Status == domain.JobRunning {
			return false, ClaimResult{AlreadyFetching: true, RetryAfter: 30}
		}
		if entry.CooldownUntil != nil && now.Before(*entry.CooldownUntil) {
			remaining := int(entry.CooldownUntil.Sub(now).Seconds())
			return false, ClaimResult{AlreadyFetching: true, RetryAfter: remaining}
		}
	}

	fc.entries[key] = &domain.FallbackEntry{Status: domain.JobRunning, StartedAt: now}
	return true, ClaimResult{}
}

// Run spawns the leetcode.py fallback crawl for the claimed key and updates
// the entry's terminal status (and cooldown, on anything but success) once
// it finishes. It schedules cleanup of the entry after fallbackCleanupWait,
// but the cleanup only actually removes it if the entry's StartedAt still
// identifies this exact attempt — a newer concurrent claim for the same key
// (after cooldown expired) must not be deleted by a stale cleanup timer.
func (fc *FallbackCoordinator) Run(ctx context.Context, key string, now time.Time, domainArg string, date string, isToday bool) {
	args := []string{"--date", date, "--domain", domainArg}
	if isToday {
		args = []string{"--daily", "--domain", domainArg}
	}

	env := []string{}
	if fc.cfg.ConfigPath != "" {
		env = append(env, "CONFIG_PATH="+fc.cfg.ConfigPath)
	}

	proc, err := fc.launcher.Start(ctx, fc.cfg.ScriptsDir, "uv", append([]string{"run", "python3", "leetcode.py"}, args...), env)
	if err != nil {
		fc.logger.Error("failed to spawn daily fallback crawler", slog.Any("error", err))
		fc.mu.Lock()
		if entry, ok := fc.entries[key]; ok {
			entry.Status = domain.JobFailed
			until := now.Add(fallbackCooldown)
			entry.CooldownUntil = &until
		}
		fc.mu.Unlock()
		fc.scheduleCleanup(key, now)
		return
	}

	timeout := fc.cfg.DefaultTimeout
	if d, ok := fc.cfg.PerSourceTimeout["leetcode"]; ok {
		timeout = d
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	jobID := fmt.Sprintf("daily-%s-%s", domainArg, date)

	type waitResult struct {
		stdout, stderr []byte
		err            error
	}
	done := make(chan waitResult, 1)
	go func() {
		stdout, stderr, werr := proc.Wait()
		done <- waitResult{stdout, stderr, werr}
	}()

	var res waitResult
	var timedOut bool
	select {
	case res = <-done:
	case <-time.After(timeout):
		timedOut = true
	}

	if timedOut {
		procexec.KillGroup(proc.PID())
		res = <-done
	}

	status := domain.JobFailed
	switch {
	case timedOut:
		status = domain.JobTimedOut
	case res.err == nil && proc.Success():
		status = domain.JobCompleted
	}

	writeJobLogs(fc.cfg.LogsDir, jobID, res.stdout, res.stderr, fc.logger)

	fc.mu.Lock()
	if entry, ok := fc.entries[key]; ok {
		entry.Status = status
		if status != domain.JobCompleted {
			until := time.Now().Add(fallbackCooldown)
			entry.CooldownUntil = &until
		}
	}
	fc.mu.Unlock()

	fc.scheduleCleanup(key, now)
}

func (fc *FallbackCoordinator) scheduleCleanup(key string, attemptStartedAt time.Time) {
	go func() {
		time.Sleep(fallbackCleanupWait)
		fc.mu.Lock()
		defer fc.mu.Unlock()
		if entry, ok := fc.entries[key]; ok && entry.StartedAt.Equal(attemptStartedAt) {
			delete(fc.entries, key)
		}
	}()
}
