package bridge

import (
	"net"
	"os"
	"testing"
	"time"

	"github.com/ianremillard/pterm/internal/wire"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardFile(t *testing.T) *os.File {
	t.Helper()
	f, err := os.Open(os.DevNull)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestSocketLoopStopsOnExitFrame(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()

	b := &bridgeSession{conn: client, log: logrus.New().WithField("component", "test")}
	done := make(chan struct{})
	go func() {
		b.socketLoop(func() { close(done) })
	}()

	go func() {
		_, _ = server.Write(wire.Encode(nil, wire.Exit, wire.ExitPayload(7)))
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("socketLoop did not stop on EXIT frame")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	require.True(t, b.exitSet)
	assert.Equal(t, 7, b.exitCode)
}

func TestNewTermiosGuardNonTTYIsNoop(t *testing.T) {
	f, err := newTermiosGuard(discardFile(t))
	require.NoError(t, err)
	f.restore() // must not panic on a non-terminal fd
}
