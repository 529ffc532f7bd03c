package supervisor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cxyfer/oj-catalog/internal/domain"
)

var errTestSpawn = errors.New("spawn failed")

func TestFallbackCoordinator_Claim_FirstClaimSucceeds(t *testing.T) {
	fc := NewFallbackCoordinator(Config{}, nil, nil)

	claimed, result := fc.Claim("com:2026-07-31", time.Now())
	require.True(t, claimed)
	require.False(t, result.AlreadyFetching)
}

func TestFallbackCoordinator_Claim_RejectsSecondClaimWhileRunning(t *testing.T) {
	fc := NewFallbackCoordinator(Config{}, nil, nil)
	now := time.Now()

	claimed, _ := fc.Claim("com:2026-07-31", now)
	require.True(t, claimed)

	claimed, result := fc.Claim("com:2026-07-31", now)
	require.False(t, claimed)
	require.True(t, result.AlreadyFetching)
	require.Equal(t, 30, result.RetryAfter)
}

func TestFallbackCoordinator_Claim_DoesNotBlockDifferentKeys(t *testing.T) {
	fc := NewFallbackCoordinator(Config{}, nil, nil)
	now := time.Now()

	claimed, _ := fc.Claim("com:2026-07-31", now)
	require.True(t, claimed)

	claimed, _ = fc.Claim("cn:2026-07-31", now)
	require.True(t, claimed, "a claim for a different key must not be blocked by an in-flight claim")
}

func TestFallbackCoordinator_Claim_RespectsCooldown(t *testing.T) {
	fc := NewFallbackCoordinator(Config{}, nil, nil)
	now := time.Now()
	until := now.Add(20 * time.Second)
	fc.entries["com:2026-07-31"] = &domain.FallbackEntry{Status: domain.JobFailed, CooldownUntil: &until}

	claimed, result := fc.Claim("com:2026-07-31", now)
	require.False(t, claimed)
	require.True(t, result.AlreadyFetching)
	require.InDelta(t, 20, result.RetryAfter, 1)
}

func TestFallbackCoordinator_Claim_AllowsAfterCooldownExpires(t *testing.T) {
	fc := NewFallbackCoordinator(Config{}, nil, nil)
	now := time.Now()
	expired := now.Add(-1 * time.Second)
	fc.entries["com:2026-07-31"] = &domain.FallbackEntry{Status: domain.JobFailed, CooldownUntil: &expired}

	claimed, _ := fc.Claim("com:2026-07-31", now)
	require.True(t, claimed)
}

func TestFallbackCoordinator_Run_MarksCompletedOnSuccessWithoutCooldown(t *testing.T) {
	proc := &fakeProcess{pid: 1, waitCh: closedChan(), success: true}
	fc := NewFallbackCoordinator(Config{}, &fakeLauncher{proc: proc}, nil)

	now := time.Now()
	claimed, _ := fc.Claim("com:2026-07-31", now)
	require.True(t, claimed)

	fc.Run(context.Background(), "com:2026-07-31", now, "com", "2026-07-31", false)

	fc.mu.Lock()
	entry := fc.entries["com:2026-07-31"]
	fc.mu.Unlock()

	require.NotNil(t, entry)
	require.Equal(t, domain.JobCompleted, entry.Status)
	require.Nil(t, entry.CooldownUntil)
}

func TestFallbackCoordinator_Run_SetsCooldownOnFailure(t *testing.T) {
	proc := &fakeProcess{pid: 1, waitCh: closedChan(), success: false}
	fc := NewFallbackCoordinator(Config{}, &fakeLauncher{proc: proc}, nil)

	now := time.Now()
	claimed, _ := fc.Claim("com:2026-07-31", now)
	require.True(t, claimed)

	fc.Run(context.Background(), "com:2026-07-31", now, "com", "2026-07-31", false)

	fc.mu.Lock()
	entry := fc.entries["com:2026-07-31"]
	fc.mu.Unlock()

	require.NotNil(t, entry)
	require.Equal(t, domain.JobFailed, entry.Status)
	require.NotNil(t, entry.CooldownUntil)
}

func TestFallbackCoordinator_Run_SetsCooldownOnSpawnFailure(t *testing.T) {
	fc := NewFallbackCoordinator(Config{}, &fakeLauncher{startErr: errTestSpawn}, nil)

	now := time.Now()
	claimed, _ := fc.Claim("com:2026-07-31", now)
	require.True(t, claimed)

	fc.Run(context.Background(), "com:2026-07-31", now, "com", "2026-07-31", false)

	fc.mu.Lock()
	entry := fc.entries["com:2026-07-31"]
	fc.mu.Unlock()

	require.NotNil(t, entry)
	require.Equal(t, domain.JobFailed, entry.Status)
	require.NotNil(t, entry.CooldownUntil)
}
