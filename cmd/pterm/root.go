package main

import (
	"github.com/ianremillard/pterm/internal/config"
)

// resolveRoot is the common socket-root resolution every subcommand starts
// from: $PTERM_SOCKET_DIR, then $XDG_RUNTIME_DIR/pterm, then
// /tmp/pterm-<uid>, created 0700 if missing.
func resolveRoot() (string, error) {
	return config.SocketRoot()
}
