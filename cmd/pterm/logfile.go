package main

import "os"

// maxLogFileBytes is the size past which openLogFile truncates a session's
// daemon.log rather than let it grow unbounded across the session's
// lifetime; a detached supervisor never rotates to a new file, it just
// starts the log over.
const maxLogFileBytes = 4 << 20

// openLogFile opens the daemon's per-session log file for appending, giving
// a detached supervisor somewhere to put warnings and panics once its own
// std streams are /dev/null. If the file already exceeds maxLogFileBytes
// (e.g. from a long-running prior incarnation of the same session name) it
// is truncated first, so a crash-looping session can't fill the socket root
// with an unbounded log.
func openLogFile(path string) (*os.File, error) {
	if info, err := os.Stat(path); err == nil && info.Size() > maxLogFileBytes {
		if err := os.Truncate(path, 0); err != nil {
			return nil, err
		}
	}
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
}
