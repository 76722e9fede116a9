// Package bridge implements the short-lived process that marshals a local
// controlling terminal against a session daemon's socket: stdin becomes
// INPUT frames, SCROLLBACK/OUTPUT frames become stdout, window resizes
// become RESIZE frames, and SIGINT/SIGTERM trigger a clean DETACH.
package bridge

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/ianremillard/pterm/internal/wire"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// Run connects to socketPath and bridges it to the process's own stdin and
// stdout until the session sends EXIT, the connection closes, or the
// process receives SIGINT/SIGTERM. It returns the exit code the caller
// should use for os.Exit: the child's exit code when known, 0 on a clean
// detach, 1 on transport failure. maxFrameLen is the decoder's frame length
// ceiling, taken from the daemon config so a bridge never silently diverges
// from the session it is attached to.
func Run(socketPath string, maxFrameLen uint32, log *logrus.Logger) (int, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return 1, fmt.Errorf("connect %s: %w", socketPath, err)
	}
	defer conn.Close()

	guard, err := newTermiosGuard(os.Stdin)
	if err != nil {
		return 1, err
	}
	defer guard.restore()

	b := &bridgeSession{conn: conn, maxFrameLen: maxFrameLen, log: log.WithField("component", "bridge")}
	return b.run()
}

type bridgeSession struct {
	conn        net.Conn
	maxFrameLen uint32
	log         *logrus.Entry

	mu       sync.Mutex
	exitCode int
	exitSet  bool
}

func (b *bridgeSession) run() (int, error) {
	done := make(chan struct{})
	var once sync.Once
	finish := func() { once.Do(func() { close(done) }) }

	go b.stdinLoop(finish)
	go b.socketLoop(finish)
	go b.resizeLoop(done)
	go b.signalLoop(finish)

	b.sendInitialResize()

	<-done

	b.mu.Lock()
	code := b.exitCode
	set := b.exitSet
	b.mu.Unlock()
	if set {
		return code, nil
	}
	return 0, nil
}

// stdinLoop reads the controlling terminal's stdin and forwards it as INPUT
// frames. It returns (closing done) on EOF or write failure.
func (b *bridgeSession) stdinLoop(finish func()) {
	defer finish()
	buf := make([]byte, 4096)
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			frame := wire.Encode(nil, wire.Input, buf[:n])
			if _, werr := b.conn.Write(frame); werr != nil {
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// socketLoop decodes SCROLLBACK/OUTPUT/EXIT frames from the daemon and
// writes payload bytes to stdout in arrival order; SCROLLBACK is guaranteed
// by the session supervisor to be enqueued before any subsequent OUTPUT, so
// no additional buffering is needed here to preserve that ordering.
func (b *bridgeSession) socketLoop(finish func()) {
	defer finish()
	fail := func() {
		b.mu.Lock()
		if !b.exitSet {
			b.exitCode, b.exitSet = 1, true
		}
		b.mu.Unlock()
	}
	dec := wire.NewDecoderWithLimit(b.maxFrameLen)
	buf := make([]byte, 64*1024)
	for {
		n, err := b.conn.Read(buf)
		if n > 0 {
			dec.Feed(buf[:n])
			for {
				frame, ok, derr := dec.Next()
				if derr != nil {
					fail()
					return
				}
				if !ok {
					break
				}
				switch frame.Type {
				case wire.Scrollback, wire.Output:
					os.Stdout.Write(frame.Payload)
				case wire.Exit:
					code, cerr := wire.DecodeExit(frame.Payload)
					if cerr == nil {
						b.mu.Lock()
						b.exitCode = int(code)
						b.exitSet = true
						b.mu.Unlock()
					}
					return
				}
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				b.log.WithError(err).Debug("socket read ended")
				fail()
			}
			return
		}
	}
}

// resizeLoop sends a RESIZE on every SIGWINCH. The initial RESIZE at startup
// is sent by run via sendInitialResize.
func (b *bridgeSession) resizeLoop(done <-chan struct{}) {
	winch := make(chan os.Signal, 1)
	signal.Notify(winch, syscall.SIGWINCH)
	defer signal.Stop(winch)
	for {
		select {
		case <-winch:
			b.sendResize()
		case <-done:
			return
		}
	}
}

func (b *bridgeSession) sendInitialResize() { b.sendResize() }

func (b *bridgeSession) sendResize() {
	cols, rows, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return
	}
	payload := wire.ResizePayload(uint16(cols), uint16(rows))
	_, _ = b.conn.Write(wire.Encode(nil, wire.Resize, payload))
}

// signalLoop sends a best-effort DETACH on SIGINT/SIGTERM, then unblocks
// run; the terminal is restored by Run's deferred termios guard.
func (b *bridgeSession) signalLoop(finish func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	<-sigCh
	_, _ = b.conn.Write(wire.Encode(nil, wire.Detach, nil))
	finish()
}

// termiosGuard restores a TTY's original termios on every exit path,
// including signal-initiated termination, mirroring the scoped-guard
// pattern used for raw-mode handling elsewhere in the example corpus.
type termiosGuard struct {
	fd       int
	original *term.State
}

func newTermiosGuard(f *os.File) (*termiosGuard, error) {
	fd := int(f.Fd())
	if !isatty.IsTerminal(uintptr(fd)) {
		return &termiosGuard{fd: fd}, nil
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("set raw mode: %w", err)
	}
	return &termiosGuard{fd: fd, original: state}, nil
}

func (g *termiosGuard) restore() {
	if g.original != nil {
		_ = term.Restore(g.fd, g.original)
	}
}
