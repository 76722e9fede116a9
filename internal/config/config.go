// Package config resolves the pterm socket root and loads the optional
// daemon config file that exposes the tunables the wire protocol and
// session design leave implementation-defined (scrollback capacity, frame
// length ceiling, client backpressure marks, idle poll interval).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mcuadros/go-defaults"
	"gopkg.in/yaml.v3"
)

// Config holds the tunables a session daemon reads at startup. Zero-valued
// fields left unset by a config file keep the values Default fills in from
// the struct tags (via go-defaults' SetDefaults), mirroring the declarative defaulting used elsewhere in the
// stack rather than hand-rolled "if x == 0" chains.
type Config struct {
	// ScrollbackCapacityBytes bounds the per-session scrollback ring.
	ScrollbackCapacityBytes int `yaml:"scrollback_capacity_bytes" default:"4194304"`

	// MaxFrameLenBytes is the wire codec's frame length ceiling.
	MaxFrameLenBytes int `yaml:"max_frame_len_bytes" default:"16777216"`

	// ClientHighWaterBytes is the soft mark above which a client's outbound
	// queue growth is logged but never dropped.
	ClientHighWaterBytes int `yaml:"client_high_water_bytes" default:"4194304"`

	// ClientHardCeilingBytes, when positive, disconnects a client whose
	// outbound queue exceeds it with a SlowConsumer error. Zero disables the
	// ceiling (the default: never drop a slow client).
	ClientHardCeilingBytes int `yaml:"client_hard_ceiling_bytes" default:"0"`

	// DaemonizeTimeoutMS bounds how long `pterm new`/`pterm open` wait for a
	// freshly spawned daemon's socket to become observable.
	DaemonizeTimeoutMS int `yaml:"daemonize_timeout_ms" default:"3000"`

	// SocketWatchPollMS is the fallback poll interval used to notice socket
	// removal when fsnotify is unavailable on the host.
	SocketWatchPollMS int `yaml:"socket_watch_poll_ms" default:"1000"`
}

// Default returns a Config with every field set to its documented default.
func Default() *Config {
	c := &Config{}
	defaults.SetDefaults(c)
	return c
}

// Load reads path, overlaying values onto the documented defaults. A
// missing file is not an error: Load returns the defaults unchanged.
func Load(path string) (*Config, error) {
	c := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return c, nil
}

// SocketRoot resolves the directory under which every session directory
// lives, in priority order: $PTERM_SOCKET_DIR, $XDG_RUNTIME_DIR/pterm, then
// /tmp/pterm-<uid>. The directory is created with mode 0700 if missing.
func SocketRoot() (string, error) {
	root := os.Getenv("PTERM_SOCKET_DIR")
	if root == "" {
		if xdg := os.Getenv("XDG_RUNTIME_DIR"); xdg != "" {
			root = filepath.Join(xdg, "pterm")
		}
	}
	if root == "" {
		root = filepath.Join("/tmp", fmt.Sprintf("pterm-%d", os.Getuid()))
	}
	if err := os.MkdirAll(root, 0o700); err != nil {
		return "", fmt.Errorf("create socket root %s: %w", root, err)
	}
	return root, nil
}

// ConfigPath resolves the daemon config file location: <root>/../config.yaml,
// falling back to ~/.config/pterm/config.yaml.
func ConfigPath(socketRoot string) string {
	candidate := filepath.Join(filepath.Dir(socketRoot), "config.yaml")
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "pterm", "config.yaml")
	}
	return candidate
}

// SessionDir returns <root>/<name>, the directory a named session owns.
func SessionDir(socketRoot, name string) string {
	return filepath.Join(socketRoot, filepath.FromSlash(name))
}

// SocketPath returns <root>/<name>/socket.
func SocketPath(socketRoot, name string) string {
	return filepath.Join(SessionDir(socketRoot, name), "socket")
}

// LogPath returns <root>/<name>/daemon.log.
func LogPath(socketRoot, name string) string {
	return filepath.Join(SessionDir(socketRoot, name), "daemon.log")
}

// DefaultShell resolves the command to exec inside a new PTY session when
// no explicit command is given: $SHELL, falling back to /bin/sh.
func DefaultShell() string {
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "/bin/sh"
}
