// Package procexec launches subprocesses in their own process group so the
// whole process tree can be torn down atomically on timeout or cancellation.
package procexec

import (
	"bytes"
	"context"
	"os/exec"
	"syscall"

	"github.com/cxyfer/oj-catalog/internal/domain"
)

// Launcher is the production domain.Launcher backed by os/exec.
type Launcher struct{}

// NewLauncher returns a ready-to-use process-group launcher.
func NewLauncher() *Launcher { return &Launcher{} }

// Start launches name with args under workDir, in its own process group
// (Setpgid on unix), with stdout/stderr captured in memory.
func (Launcher) Start(_ context.Context, workDir, name string, args []string, env []string) (domain.Process, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = workDir
	if len(env) > 0 {
		cmd.Env = append(cmd.Environ(), env...)
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	return &process{cmd: cmd, stdout: &stdout, stderr: &stderr}, nil
}

type process struct {
	cmd    *exec.Cmd
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func (p *process) PID() int { return p.cmd.Process.Pid }

func (p *process) Wait() (stdout, stderr []byte, exitErr error) {
	exitErr = p.cmd.Wait()
	return p.stdout.Bytes(), p.stderr.Bytes(), exitErr
}

func (p *process) Success() bool {
	return p.cmd.ProcessState != nil && p.cmd.ProcessState.Success()
}

// KillGroup sends SIGKILL to the process group rooted at pid and reports
// whether the signal was delivered. It refuses to act on pid <= 1 (a guard
// against accidentally signalling init or the caller's own group if a
// zero/invalid pid ever leaked through), and treats ESRCH (the group has
// already exited) as a harmless no-op that returns false, so repeated or
// racing cancellations are idempotent.
func KillGroup(pid int) bool {
	if pid <= 1 {
		return false
	}
	err := syscall.Kill(-pid, syscall.SIGKILL)
	if err == nil {
		return true
	}
	if err == syscall.ESRCH {
		return false
	}
	return false
}
