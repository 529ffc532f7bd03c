package supervisor

import (
	"container/list"
	"sync"
	"time"

	"github.com/cxyfer/oj-catalog/internal/domain"
)

// historyCap bounds the FIFO job history retained per slot (original_source
// evicts the oldest entry once the deque reaches 50).
const historyCap = 50

// slot is a singleton at-most-one-running-job-per-kind record, ground on
// original_source's `crawler_lock` / `embedding_lock` + `*_history` +
// `active_*_pid` triple. The active pid is deliberately a separate
// mutex-guarded cell from the job record: the wait-goroutine must be able to
// clear the pid (closing the cancel race window) before it re-acquires the
// job mutex to apply the terminal transition, and doing both under one lock
// would require re-entrant locking.
type slot struct {
	mu      sync.Mutex
	current *domain.Job
	history *list.List // of domain.Job, oldest at Front

	pidMu     sync.Mutex
	activePID int // 0 means "no active process"
}

func newSlot() *slot {
	return &slot{history: list.New()}
}

// beginIfIdle installs job as current iff no job is currently running, else
// reports the conflict.
func (s *slot) beginIfIdle(job domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && s.current.Status == domain.JobRunning {
		return domain.ErrConflict
	}
	jobCopy := job
	s.current = &jobCopy
	return nil
}

// setActivePID records the pid of the process currently running for the
// slot's single in-flight job.
func (s *slot) setActivePID(pid int) {
	s.pidMu.Lock()
	s.activePID = pid
	s.pidMu.Unlock()
}

// clearActivePID zeroes the active pid and returns its previous value.
func (s *slot) clearActivePID() int {
	s.pidMu.Lock()
	pid := s.activePID
	s.activePID = 0
	s.pidMu.Unlock()
	return pid
}

// finishIfRunning applies a terminal transition to the current job, but only
// if it is still JobRunning — this is what lets a concurrent Cancel "win"
// over a job that finishes (or times out) at nearly the same instant: once
// Cancel has set the status to Cancelled, the wait-goroutine's own terminal
// update becomes a no-op.
func (s *slot) finishIfRunning(apply func(*domain.Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && s.current.Status == domain.JobRunning {
		apply(s.current)
	}
	s.pushHistoryLocked()
}

// cancelRunning marks the current job cancelled iff it is running, killing
// its process group first. Returns domain.ErrConflict if nothing is running.
func (s *slot) cancelRunning(now time.Time, kill func(pid int) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.Status != domain.JobRunning {
		return domain.ErrConflict
	}
	if pid := s.clearActivePID(); pid != 0 {
		kill(pid)
	}
	s.current.Status = domain.JobCancelled
	s.current.FinishedAt = &now
	return nil
}

func (s *slot) pushHistoryLocked() {
	if s.current == nil {
		return
	}
	cp := *s.current
	s.history.PushBack(cp)
	if s.history.Len() > historyCap {
		s.history.Remove(s.history.Front())
	}
}

// snapshot returns the running flag, a redacted copy of the current job (if
// any, with stdout/stderr cleared as the status endpoint never echoes
// output inline), and the history in most-recent-first order.
func (s *slot) snapshot() (running bool, current *domain.Job, history []domain.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		cp := *s.current
		cp.Stdout, cp.Stderr = nil, nil
		current = &cp
		running = cp.Status == domain.JobRunning
	}

	history = make([]domain.Job, 0, s.history.Len())
	for e := s.history.Back(); e != nil; e = e.Prev() {
		j := e.Value.(domain.Job)
		j.Stdout, j.Stderr = nil, nil
		history = append(history, j)
	}
	return running, current, history
}

// findOutput returns the stdout/stderr of a finished job by id, checked
// against the current job and the history ring (in that order).
func (s *slot) findOutput(jobID string) (*domain.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && s.current.JobID == jobID {
		cp := *s.current
		return &cp, true
	}
	for e := s.history.Back(); e != nil; e = e.Prev() {
		j := e.Value.(domain.Job)
		if j.JobID == jobID {
			cp := j
			return &cp, true
		}
	}
	return nil, false
}
