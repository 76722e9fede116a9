//go:build integration

// Integration tests for the pterm CLI and its session supervisor.
//
// Run with:
//
//	go test -tags=integration -v ./test/
package integration_test

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ptermBin string

func TestMain(m *testing.M) {
	root := moduleRoot()

	tmpBin, err := os.MkdirTemp("", "pterm-inttest-bin-*")
	if err != nil {
		panic("MkdirTemp: " + err.Error())
	}
	defer os.RemoveAll(tmpBin)

	ptermBin = filepath.Join(tmpBin, "pterm")
	cmd := exec.Command("go", "build", "-o", ptermBin, "./cmd/pterm")
	cmd.Dir = root
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic("build ./cmd/pterm: " + err.Error())
	}

	os.Exit(m.Run())
}

func moduleRoot() string {
	abs, err := filepath.Abs("..")
	if err != nil {
		panic(err)
	}
	return abs
}

type testEnv struct {
	t    *testing.T
	root string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	return &testEnv{t: t, root: root}
}

func (e *testEnv) envVars() []string {
	return append(os.Environ(), "PTERM_SOCKET_DIR="+e.root)
}

func (e *testEnv) pterm(args ...string) (string, error) {
	cmd := exec.Command(ptermBin, args...)
	cmd.Env = e.envVars()
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func (e *testEnv) ptermOK(args ...string) string {
	e.t.Helper()
	out, err := e.pterm(args...)
	require.NoError(e.t, err, "pterm %v\n%s", args, out)
	return out
}

func (e *testEnv) socketPath(name string) string {
	return filepath.Join(e.root, name, "socket")
}

func (e *testEnv) waitForSocket(name string, timeout time.Duration) {
	e.t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(e.socketPath(name)); err == nil {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	e.t.Fatalf("socket for %s did not appear within %s", name, timeout)
}

// TestNewAndList creates a session running cat and checks it is reported
// live by `pterm list`.
func TestNewAndList(t *testing.T) {
	env := newTestEnv(t)
	env.ptermOK("new", "s1", "--", "/bin/cat")
	env.waitForSocket("s1", 3*time.Second)

	out := env.ptermOK("list")
	assert.Contains(t, out, "s1")

	env.ptermOK("kill", "s1")
}

// TestSocketCommand checks `pterm socket` prints the resolved path once the
// session exists and fails before it does.
func TestSocketCommand(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.pterm("socket", "s2")
	require.Error(t, err)

	env.ptermOK("new", "s2", "--", "/bin/cat")
	env.waitForSocket("s2", 3*time.Second)

	out := env.ptermOK("socket", "s2")
	assert.Contains(t, out, env.socketPath("s2"))

	env.ptermOK("kill", "s2")
}

// TestKillTerminatesSession verifies that kill succeeds on a live session and
// that its socket is gone within a bounded interval. It does not check that
// the daemon process itself has exited.
func TestKillTerminatesSession(t *testing.T) {
	env := newTestEnv(t)
	env.ptermOK("new", "s3", "--", "/bin/cat")
	env.waitForSocket("s3", 3*time.Second)

	env.ptermOK("kill", "s3")

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(env.socketPath("s3")); os.IsNotExist(err) {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("socket still present after kill")
}

// TestAttachEcho drives a real attach session against /bin/cat and checks
// that input sent on the bridge's stdin is echoed back on stdout.
func TestAttachEcho(t *testing.T) {
	env := newTestEnv(t)
	env.ptermOK("new", "s4", "--cols", "80", "--rows", "24", "--", "/bin/cat")
	env.waitForSocket("s4", 3*time.Second)

	cmd := exec.Command(ptermBin, "attach", "s4")
	cmd.Env = env.envVars()
	stdin, err := cmd.StdinPipe()
	require.NoError(t, err)
	stdout, err := cmd.StdoutPipe()
	require.NoError(t, err)
	require.NoError(t, cmd.Start())
	defer cmd.Process.Kill()

	_, err = fmt.Fprint(stdin, "hello\n")
	require.NoError(t, err)

	reader := bufio.NewReader(stdout)
	deadline := time.Now().Add(3 * time.Second)
	var got bytes.Buffer
	buf := make([]byte, 256)
	for time.Now().Before(deadline) && !bytes.Contains(got.Bytes(), []byte("hello")) {
		n, rerr := reader.Read(buf)
		if n > 0 {
			got.Write(buf[:n])
		}
		if rerr != nil {
			break
		}
	}
	assert.Contains(t, got.String(), "hello")

	env.ptermOK("kill", "s4")
}
