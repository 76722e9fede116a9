// Package daemonize starts a session supervisor detached from its invoking
// terminal without calling fork(2) directly, which the Go runtime does not
// support safely once goroutines are running. Instead it re-execs the
// current binary in supervisor mode with a new session (setsid) and
// redirected standard streams, then polls for the session's socket to
// become observable — the same shape as the teacher CLI's ensureDaemon
// helper.
package daemonize

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/ianremillard/pterm/internal/perrors"
)

// Spawn re-execs the current binary with args, detaching it into its own
// session with stdio redirected to /dev/null, then waits up to timeout for
// socketPath to become dial-able. It returns once the socket is observed or
// the timeout elapses.
func Spawn(args []string, socketPath string, timeout time.Duration, dialLive func(string) bool) error {
	exe, err := os.Executable()
	if err != nil {
		return perrors.New("daemonize.Spawn", perrors.KindPtyIO, err)
	}

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return perrors.New("daemonize.Spawn", perrors.KindPtyIO, err)
	}
	defer devNull.Close()

	cmd := exec.Command(exe, args...)
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return perrors.New("daemonize.Spawn", perrors.KindPtyIO, err)
	}
	// The supervisor is now detached; losing interest in its exit status is
	// intentional; once our own process exits the supervisor is reparented
	// to init exactly as a classic double-forked daemon would be.
	go func() { _ = cmd.Wait() }()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if dialLive(socketPath) {
			return nil
		}
		time.Sleep(25 * time.Millisecond)
	}
	return perrors.New("daemonize.Spawn", perrors.KindPtyIO,
		fmt.Errorf("socket %s did not appear within %s", socketPath, timeout))
}
