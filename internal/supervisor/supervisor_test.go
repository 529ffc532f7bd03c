package supervisor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cxyfer/oj-catalog/internal/domain"
)

type fakeProcess struct {
	pid     int
	waitCh  chan struct{}
	stdout  []byte
	stderr  []byte
	waitErr error
	success bool
}

func (p *fakeProcess) PID() int { return p.pid }

func (p *fakeProcess) Wait() (stdout, stderr []byte, exitErr error) {
	<-p.waitCh
	return p.stdout, p.stderr, p.waitErr
}

func (p *fakeProcess) Success() bool { return p.success }

type fakeLauncher struct {
	proc       *fakeProcess
	startErr   error
	startedEnv []string
}

func (f *fakeLauncher) Start(_ context.Context, _ string, _ string, _ []string, env []string) (domain.Process, error) {
	f.startedEnv = env
	if f.startErr != nil {
		return nil, f.startErr
	}
	return f.proc, nil
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func TestSupervisor_Trigger_RejectsConcurrentJobOfSameKind(t *testing.T) {
	proc := &fakeProcess{pid: 111, waitCh: make(chan struct{}), success: true}
	t.Cleanup(func() { close(proc.waitCh) })
	sv := New(Config{}, &fakeLauncher{proc: proc}, nil, nil)

	jobID, err := sv.Trigger(context.Background(), domain.JobKindCrawler, "leetcode", "leetcode.py", nil, domain.TriggerAdmin)
	require.NoError(t, err)
	require.NotEmpty(t, jobID)

	_, err = sv.Trigger(context.Background(), domain.JobKindCrawler, "leetcode", "leetcode.py", nil, domain.TriggerAdmin)
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestSupervisor_Trigger_AllowsNextJobAfterCompletion(t *testing.T) {
	proc := &fakeProcess{pid: 111, waitCh: make(chan struct{}), success: true}
	sv := New(Config{}, &fakeLauncher{proc: proc}, nil, nil)

	_, err := sv.Trigger(context.Background(), domain.JobKindCrawler, "leetcode", "leetcode.py", nil, domain.TriggerAdmin)
	require.NoError(t, err)

	close(proc.waitCh)
	require.Eventually(t, func() bool {
		running, _, _ := sv.Status(domain.JobKindCrawler)
		return !running
	}, time.Second, 10*time.Millisecond)

	_, err = sv.Trigger(context.Background(), domain.JobKindCrawler, "leetcode", "leetcode.py", nil, domain.TriggerAdmin)
	require.NoError(t, err)
}

func TestSupervisor_Trigger_DifferentKindsRunIndependently(t *testing.T) {
	crawlerProc := &fakeProcess{pid: 1, waitCh: make(chan struct{}), success: true}
	embeddingProc := &fakeProcess{pid: 2, waitCh: make(chan struct{}), success: true}
	t.Cleanup(func() {
		close(crawlerProc.waitCh)
		close(embeddingProc.waitCh)
	})
	launcher := &fakeLauncher{proc: crawlerProc}
	sv := New(Config{}, launcher, nil, nil)

	_, err := sv.Trigger(context.Background(), domain.JobKindCrawler, "leetcode", "leetcode.py", nil, domain.TriggerAdmin)
	require.NoError(t, err)

	launcher.proc = embeddingProc
	_, err = sv.Trigger(context.Background(), domain.JobKindEmbedding, "leetcode", "embed.py", nil, domain.TriggerAdmin)
	require.NoError(t, err, "a running crawler job must not block an embedding job")
}

func TestSupervisor_Trigger_PropagatesConfigPathEnv(t *testing.T) {
	proc := &fakeProcess{pid: 1, waitCh: closedChan(), success: true}
	launcher := &fakeLauncher{proc: proc}
	sv := New(Config{ConfigPath: "/cfg.toml"}, launcher, nil, nil)

	_, err := sv.Trigger(context.Background(), domain.JobKindCrawler, "leetcode", "leetcode.py", nil, domain.TriggerAdmin)
	require.NoError(t, err)
	require.Contains(t, launcher.startedEnv, "CONFIG_PATH=/cfg.toml")
}

func TestSupervisor_Trigger_SpawnFailureFreesSlotForRetry(t *testing.T) {
	launcher := &fakeLauncher{startErr: errors.New("boom")}
	sv := New(Config{}, launcher, nil, nil)

	_, err := sv.Trigger(context.Background(), domain.JobKindCrawler, "leetcode", "leetcode.py", nil, domain.TriggerAdmin)
	require.Error(t, err)

	running, _, _ := sv.Status(domain.JobKindCrawler)
	require.False(t, running)

	launcher.startErr = nil
	launcher.proc = &fakeProcess{pid: 1, waitCh: closedChan(), success: true}
	_, err = sv.Trigger(context.Background(), domain.JobKindCrawler, "leetcode", "leetcode.py", nil, domain.TriggerAdmin)
	require.NoError(t, err)
}

func TestSupervisor_Cancel_MarksRunningJobCancelled(t *testing.T) {
	proc := &fakeProcess{pid: 999999, waitCh: make(chan struct{})}
	t.Cleanup(func() { close(proc.waitCh) })
	sv := New(Config{}, &fakeLauncher{proc: proc}, nil, nil)

	jobID, err := sv.Trigger(context.Background(), domain.JobKindCrawler, "leetcode", "leetcode.py", nil, domain.TriggerAdmin)
	require.NoError(t, err)

	require.NoError(t, sv.Cancel(domain.JobKindCrawler))

	running, current, _ := sv.Status(domain.JobKindCrawler)
	require.False(t, running)
	require.NotNil(t, current)
	require.Equal(t, jobID, current.JobID)
	require.Equal(t, domain.JobCancelled, current.Status)
}

func TestSupervisor_Cancel_ErrorsWhenNothingRunning(t *testing.T) {
	sv := New(Config{}, &fakeLauncher{}, nil, nil)
	err := sv.Cancel(domain.JobKindCrawler)
	require.ErrorIs(t, err, domain.ErrConflict)
}

// TestSupervisor_EmbeddingCompletion_PersistsFinalPhase grounds the
// supervisor's terminal-transition rewrite of {job_id}.progress.json, which
// is what keeps EmbeddingProgressHandler from serving a stale phase once the
// job falls out of the in-memory history.
func TestSupervisor_EmbeddingCompletion_PersistsFinalPhase(t *testing.T) {
	dir := t.TempDir()
	proc := &fakeProcess{pid: 1, waitCh: make(chan struct{}), success: true}
	sv := New(Config{LogsDir: dir}, &fakeLauncher{proc: proc}, nil, nil)

	jobID, err := sv.Trigger(context.Background(), domain.JobKindEmbedding, "leetcode", "embed.py", nil, domain.TriggerAdmin)
	require.NoError(t, err)

	close(proc.waitCh)

	path := filepath.Join(dir, jobID+".progress.json")
	require.Eventually(t, func() bool {
		_, statErr := os.Stat(path)
		return statErr == nil
	}, time.Second, 10*time.Millisecond)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), string(domain.JobCompleted))
}

// TestSupervisor_Output_FallsBackToOnDiskLogsAfterEviction grounds
// Output's documented fallback: once a job's record leaves the in-memory
// history FIFO, its stdout/stderr must still be servable from the on-disk
// log files written at completion.
func TestSupervisor_Output_FallsBackToOnDiskLogsAfterEviction(t *testing.T) {
	dir := t.TempDir()
	launcher := &fakeLauncher{}
	sv := New(Config{LogsDir: dir}, launcher, nil, nil)

	var firstJobID string
	for i := 0; i < historyCap+1; i++ {
		launcher.proc = &fakeProcess{pid: i + 1, waitCh: closedChan(), stdout: []byte(fmt.Sprintf("out-%d", i)), success: true}

		jobID, err := sv.Trigger(context.Background(), domain.JobKindCrawler, "leetcode", "leetcode.py", nil, domain.TriggerAdmin)
		require.NoError(t, err)
		require.Eventually(t, func() bool {
			running, _, _ := sv.Status(domain.JobKindCrawler)
			return !running
		}, time.Second, time.Millisecond)

		if i == 0 {
			firstJobID = jobID
		}
	}

	stdout, _, found := sv.Output(domain.JobKindCrawler, firstJobID)
	require.True(t, found)
	require.Equal(t, "out-0", *stdout)
}
