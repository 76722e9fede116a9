package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPopulatesEveryField(t *testing.T) {
	c := Default()
	assert.Equal(t, 4194304, c.ScrollbackCapacityBytes)
	assert.Equal(t, 16777216, c.MaxFrameLenBytes)
	assert.Equal(t, 4194304, c.ClientHighWaterBytes)
	assert.Equal(t, 0, c.ClientHardCeilingBytes)
	assert.Equal(t, 3000, c.DaemonizeTimeoutMS)
	assert.Equal(t, 1000, c.SocketWatchPollMS)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scrollback_capacity_bytes: 1024\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1024, c.ScrollbackCapacityBytes)
	assert.Equal(t, 16777216, c.MaxFrameLenBytes)
}

func TestSocketRootPrefersExplicitEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PTERM_SOCKET_DIR", filepath.Join(dir, "explicit"))
	t.Setenv("XDG_RUNTIME_DIR", "")

	root, err := SocketRoot()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "explicit"), root)

	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSocketPathLayout(t *testing.T) {
	root := "/tmp/pterm-0"
	assert.Equal(t, "/tmp/pterm-0/proj/build", SessionDir(root, "proj/build"))
	assert.Equal(t, "/tmp/pterm-0/proj/build/socket", SocketPath(root, "proj/build"))
}
