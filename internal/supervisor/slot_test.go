package supervisor

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cxyfer/oj-catalog/internal/domain"
)

func TestSlot_BeginIfIdle_RejectsWhileRunning(t *testing.T) {
	s := newSlot()
	require.NoError(t, s.beginIfIdle(domain.Job{JobID: "a", Status: domain.JobRunning}))

	err := s.beginIfIdle(domain.Job{JobID: "b", Status: domain.JobRunning})
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestSlot_BeginIfIdle_AllowsAfterFinish(t *testing.T) {
	s := newSlot()
	require.NoError(t, s.beginIfIdle(domain.Job{JobID: "a", Status: domain.JobRunning}))

	s.finishIfRunning(func(j *domain.Job) { j.Status = domain.JobCompleted })

	require.NoError(t, s.beginIfIdle(domain.Job{JobID: "b", Status: domain.JobRunning}))
}

func TestSlot_CancelRunning_ErrorsWhenIdle(t *testing.T) {
	s := newSlot()
	err := s.cancelRunning(time.Now(), func(int) bool { return true })
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestSlot_CancelRunning_KillsActivePID(t *testing.T) {
	s := newSlot()
	require.NoError(t, s.beginIfIdle(domain.Job{JobID: "a", Status: domain.JobRunning}))
	s.setActivePID(4242)

	var killedPID int
	err := s.cancelRunning(time.Now(), func(pid int) bool {
		killedPID = pid
		return true
	})
	require.NoError(t, err)
	require.Equal(t, 4242, killedPID)
	require.Equal(t, 0, s.clearActivePID(), "cancelRunning must already have cleared the active pid")
}

// TestSlot_CancelRunning_WinsOverRacingFinish grounds the slot's documented
// cancel-race invariant: once Cancel has set the terminal status, the
// wait-goroutine's own finishIfRunning call becomes a no-op.
func TestSlot_CancelRunning_WinsOverRacingFinish(t *testing.T) {
	s := newSlot()
	require.NoError(t, s.beginIfIdle(domain.Job{JobID: "a", Status: domain.JobRunning}))

	require.NoError(t, s.cancelRunning(time.Now(), func(int) bool { return true }))

	s.finishIfRunning(func(j *domain.Job) { j.Status = domain.JobCompleted })

	_, current, _ := s.snapshot()
	require.NotNil(t, current)
	require.Equal(t, domain.JobCancelled, current.Status, "a racing finishIfRunning must not override a cancelled job")
}

func TestSlot_HistoryFIFO_EvictsOldestBeyondCap(t *testing.T) {
	s := newSlot()
	const total = historyCap + 5

	for i := 0; i < total; i++ {
		jobID := fmt.Sprintf("job-%d", i)
		require.NoError(t, s.beginIfIdle(domain.Job{JobID: jobID, Status: domain.JobRunning}))
		s.finishIfRunning(func(j *domain.Job) { j.Status = domain.JobCompleted })
	}

	_, _, history := s.snapshot()
	require.Len(t, history, historyCap)
	require.Equal(t, "job-54", history[0].JobID, "most recent job must sort first")
	require.Equal(t, "job-5", history[len(history)-1].JobID, "the oldest 5 jobs must have been evicted")
}

func TestSlot_FindOutput_ChecksCurrentThenHistory(t *testing.T) {
	s := newSlot()
	require.NoError(t, s.beginIfIdle(domain.Job{JobID: "a", Status: domain.JobRunning}))
	s.finishIfRunning(func(j *domain.Job) {
		j.Status = domain.JobCompleted
		j.SetOutput([]byte("out"), []byte("err"))
	})

	job, ok := s.findOutput("a")
	require.True(t, ok)
	require.Equal(t, "out", *job.Stdout)
	require.Equal(t, "err", *job.Stderr)

	_, ok = s.findOutput("missing")
	require.False(t, ok)
}

func TestSlot_Snapshot_RedactsOutput(t *testing.T) {
	s := newSlot()
	require.NoError(t, s.beginIfIdle(domain.Job{JobID: "a", Status: domain.JobRunning}))
	s.finishIfRunning(func(j *domain.Job) {
		j.Status = domain.JobCompleted
		j.SetOutput([]byte("out"), []byte("err"))
	})

	_, current, history := s.snapshot()
	require.NotNil(t, current)
	require.Nil(t, current.Stdout)
	require.Nil(t, current.Stderr)
	require.Len(t, history, 1)
	require.Nil(t, history[0].Stdout)
}
