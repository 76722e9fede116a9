package session

import (
	"net"
	"os"
	"path/filepath"
	"time"
)

// Info describes one session directory discovered under the socket root,
// as reported by List.
type Info struct {
	Name    string
	Socket  string
	Alive   bool
	ModTime time.Time
}

// List scans root for session directories containing a socket file and
// reports the ones that currently have a live listener. Stale directories
// (no live listener, e.g. left behind by a daemon that crashed rather than
// unlinking its socket on exit) are not reported; List never deletes
// anything itself, it just omits them from the result.
func List(root string) ([]Info, error) {
	var out []Info
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if d.Name() != "socket" {
			return nil
		}
		if !isSocketLive(path) {
			return nil
		}
		name, rerr := filepath.Rel(root, filepath.Dir(path))
		if rerr != nil {
			name = filepath.Dir(path)
		}
		info, serr := d.Info()
		var modTime time.Time
		if serr == nil {
			modTime = info.ModTime()
		}
		out = append(out, Info{
			Name:    name,
			Socket:  path,
			Alive:   true,
			ModTime: modTime,
		})
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return out, nil
}

// Kill unlinks a session's socket file. The owning daemon process detects
// the removal via its socket watch and exits on its own; Kill does not wait
// for that to happen.
func Kill(socketPath string) error {
	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Dial connects to a session's socket as a bridge client would.
func Dial(socketPath string) (net.Conn, error) {
	return net.Dial("unix", socketPath)
}

// IsAlive reports whether socketPath currently has a live listener. It is
// exported for use by the daemonize package's socket-readiness poll.
func IsAlive(socketPath string) bool {
	return isSocketLive(socketPath)
}
