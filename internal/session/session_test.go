package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ianremillard/pterm/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestNewRejectsAlreadyRunning(t *testing.T) {
	dir := t.TempDir()
	sockPath := filepath.Join(dir, "socket")

	s1, err := New(Options{
		Name:       "t1",
		SocketPath: sockPath,
		Cols:       80,
		Rows:       24,
		Command:    "/bin/cat",
		Config:     config.Default(),
		Logger:     testLogger(),
	})
	require.NoError(t, err)
	go s1.Run()
	defer func() {
		Kill(sockPath)
		<-s1.Done()
	}()

	time.Sleep(50 * time.Millisecond)

	_, err = New(Options{
		Name:       "t2",
		SocketPath: sockPath,
		Cols:       80,
		Rows:       24,
		Command:    "/bin/cat",
		Config:     config.Default(),
		Logger:     testLogger(),
	})
	require.Error(t, err)
}

func TestListOmitsStaleSockets(t *testing.T) {
	root := t.TempDir()
	sockPath := filepath.Join(root, "alive", "socket")
	require.NoError(t, os.MkdirAll(filepath.Dir(sockPath), 0o700))

	s, err := New(Options{
		Name:       "alive",
		SocketPath: sockPath,
		Cols:       80,
		Rows:       24,
		Command:    "/bin/cat",
		Config:     config.Default(),
		Logger:     testLogger(),
	})
	require.NoError(t, err)
	go s.Run()
	defer func() {
		Kill(sockPath)
		<-s.Done()
	}()
	time.Sleep(50 * time.Millisecond)

	// A socket file left behind by a daemon that crashed without unlinking
	// it: present on disk, but nothing is listening. List must not report it.
	stalePath := filepath.Join(root, "stale", "socket")
	require.NoError(t, os.MkdirAll(filepath.Dir(stalePath), 0o700))
	require.NoError(t, os.WriteFile(stalePath, nil, 0o600))

	infos, err := List(root)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "alive", infos[0].Name)
	assert.True(t, infos[0].Alive)
}
