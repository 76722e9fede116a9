// Package session implements the PTY session supervisor: the daemon-side
// process that owns one pseudo-terminal and child command, retains bounded
// scrollback, and multiplexes an arbitrary number of attached bridge clients
// over a Unix socket.
//
// Each Session is its own OS process (see internal/daemonize); there is no
// in-memory multi-session registry. The filesystem — the presence of a
// session's socket file — is the registry, per the design's explicit
// rejection of an in-memory directory.
package session

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/cornelk/hashmap"
	"github.com/creack/pty"
	"github.com/fsnotify/fsnotify"
	"github.com/ianremillard/pterm/internal/config"
	"github.com/ianremillard/pterm/internal/perrors"
	"github.com/ianremillard/pterm/internal/wire"
	"github.com/sirupsen/logrus"
	"github.com/smallnest/ringbuffer"
)

var errSlowConsumer = errors.New("slow consumer exceeded hard ceiling")

// State is the session lifecycle state machine: Starting -> Running ->
// Draining -> Terminated.
type State int32

const (
	StateStarting State = iota
	StateRunning
	StateDraining
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Options configures a new Session.
type Options struct {
	Name       string
	SocketPath string
	Cols       uint16
	Rows       uint16
	Command    string
	Args       []string
	Config     *config.Config
	Logger     *logrus.Logger
}

// Session is the PTY supervisor for a single named session.
type Session struct {
	name   string
	sockP  string
	cfg    *config.Config
	log    *logrus.Entry

	ptm *os.File
	cmd *exec.Cmd

	scrollback *Scrollback

	clients      *hashmap.Map[uint64, *client]
	nextClientID uint64
	attachMu     sync.Mutex

	ptyWriteBuf *ringbuffer.RingBuffer

	listener net.Listener

	state atomic.Int32

	exitCode     atomic.Int32
	exitReceived atomic.Bool

	shutdownOnce sync.Once
	done         chan struct{}
}

// New allocates a PTY, execs the session command into its slave, and binds
// the session's Unix socket. It does not start the event loop; call Run for
// that. New corresponds to steps 2-5 of session startup (openpty, exec into
// the slave via pty.StartWithSize, apply initial winsize, bind+listen).
func New(opts Options) (*Session, error) {
	log := opts.Logger.WithField("session", opts.Name)

	if _, err := os.Stat(opts.SocketPath); err == nil {
		if isSocketLive(opts.SocketPath) {
			return nil, perrors.New("session.New", perrors.KindAlreadyRunning,
				fmt.Errorf("socket %s has a live listener", opts.SocketPath))
		}
		_ = os.Remove(opts.SocketPath)
	}

	cmd := exec.Command(opts.Command, opts.Args...)
	ptm, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: opts.Cols, Rows: opts.Rows})
	if err != nil {
		return nil, perrors.New("session.New", perrors.KindPtyIO, err)
	}

	ln, err := net.Listen("unix", opts.SocketPath)
	if err != nil {
		_ = ptm.Close()
		_ = cmd.Process.Kill()
		return nil, perrors.New("session.New", perrors.KindAlreadyRunning, err)
	}
	if err := os.Chmod(opts.SocketPath, 0o600); err != nil {
		log.WithError(err).Warn("failed to restrict socket permissions")
	}

	s := &Session{
		name:        opts.Name,
		sockP:       opts.SocketPath,
		cfg:         opts.Config,
		log:         log,
		ptm:         ptm,
		cmd:         cmd,
		scrollback:  NewScrollback(opts.Config.ScrollbackCapacityBytes),
		clients:     hashmap.New[uint64, *client](),
		ptyWriteBuf: ringbuffer.New(1 << 20).SetBlocking(true),
		listener:    ln,
		done:        make(chan struct{}),
	}
	s.state.Store(int32(StateStarting))
	return s, nil
}

// State reports the session's current lifecycle state.
func (s *Session) State() State { return State(s.state.Load()) }

// Done is closed once the session has fully torn down.
func (s *Session) Done() <-chan struct{} { return s.done }

// Run starts the event loop goroutines and blocks until the session has
// fully drained and torn down. It always returns nil; failures during the
// run surface as log entries and trigger shutdown, matching the daemon's
// own best-effort teardown policy.
func (s *Session) Run() error {
	s.state.Store(int32(StateRunning))

	var wg sync.WaitGroup
	wg.Add(5)
	go func() { defer wg.Done(); s.ptyReadLoop() }()
	go func() { defer wg.Done(); s.ptyWriteLoop() }()
	go func() { defer wg.Done(); s.acceptLoop() }()
	go func() { defer wg.Done(); s.watchSocket() }()

	go func() { defer wg.Done(); s.childWaitLoop() }()
	wg.Wait()

	s.teardown()
	return nil
}

// childWaitLoop blocks on the child process exit (the idiomatic translation
// of a SIGCHLD self-pipe: Go delivers process exit via a blocking Wait call
// on a dedicated goroutine rather than a signal).
func (s *Session) childWaitLoop() {
	err := s.cmd.Wait()
	code := int32(0)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = int32(exitErr.ExitCode())
		} else {
			code = -1
		}
	}
	s.exitCode.Store(code)
	s.exitReceived.Store(true)
	s.log.WithField("exit_code", code).Info("child exited")
	s.broadcastExit(code)
	s.beginShutdown()
}

// ptyReadLoop reads PTY master output, appends it to scrollback, and fans it
// out to every attached client in order. attachMu is held for the duration
// of each read's fanout so a client attaching concurrently always receives a
// scrollback snapshot that ends exactly where the OUTPUT bytes it receives
// afterward begin.
func (s *Session) ptyReadLoop() {
	buf := make([]byte, 64*1024)
	for {
		n, err := s.ptm.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			s.attachMu.Lock()
			s.scrollback.Write(chunk)
			s.fanout(wire.Output, chunk)
			s.attachMu.Unlock()
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.log.WithError(err).Debug("pty master read ended")
			}
			s.beginShutdown()
			return
		}
	}
}

// fanout enqueues an encoded frame to every attached client, dropping any
// client whose hard ceiling is exceeded or whose connection has failed.
// Dropping one client never prevents delivery to the others.
func (s *Session) fanout(typ byte, payload []byte) {
	encoded := wire.Encode(nil, typ, payload)
	s.clients.Range(func(id uint64, c *client) bool {
		if err := c.enqueue(encoded); err != nil {
			s.log.WithField("client", id).WithError(err).Info("dropping client")
			s.removeClient(id)
		}
		return true
	})
}

// broadcastExit sends an EXIT frame to every attached client.
func (s *Session) broadcastExit(code int32) {
	s.fanout(wire.Exit, wire.ExitPayload(code))
}

// ptyWriteLoop drains the PTY write backpressure queue into the PTY master.
// Input bytes from any client are pushed into ptyWriteBuf (see
// handleClientFrame) rather than written directly, so a burst of input never
// blocks the client reader goroutine that produced it; the ring buffer's
// blocking Read here is the translation of "wait for PTY writable
// readiness" into a dedicated draining goroutine.
func (s *Session) ptyWriteLoop() {
	buf := make([]byte, 4096)
	for {
		n, err := s.ptyWriteBuf.Read(buf)
		if err != nil {
			if errors.Is(err, ringbuffer.ErrIsClosed) {
				return
			}
			continue
		}
		if n == 0 {
			continue
		}
		if _, werr := s.ptm.Write(buf[:n]); werr != nil {
			s.log.WithError(werr).Debug("pty master write failed")
			return
		}
	}
}

// acceptLoop accepts client connections, registers each, and spawns its
// writer and reader goroutines.
func (s *Session) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.State() >= StateDraining {
				return
			}
			s.log.WithError(err).Debug("accept failed")
			return
		}
		s.attachClient(conn)
	}
}

func (s *Session) attachClient(conn net.Conn) {
	id := atomic.AddUint64(&s.nextClientID, 1)
	cl := newClient(id, conn, s.cfg.ClientHighWaterBytes, s.cfg.ClientHardCeilingBytes,
		uint32(s.cfg.MaxFrameLenBytes), s.log.WithField("client", id))

	s.attachMu.Lock()
	snapshot := s.scrollback.Snapshot()
	if err := cl.enqueue(wire.Encode(nil, wire.Scrollback, snapshot)); err != nil {
		s.attachMu.Unlock()
		cl.close()
		return
	}
	s.clients.Set(id, cl)
	s.attachMu.Unlock()

	go func() {
		if err := cl.drain(); err != nil {
			s.log.WithField("client", id).WithError(err).Debug("client writer exited")
		}
	}()

	go s.clientReadLoop(cl)
}

func (s *Session) clientReadLoop(cl *client) {
	err := cl.readFrames(func(f wire.Frame) error {
		switch f.Type {
		case wire.Input:
			return s.writeInput(f.Payload)
		case wire.Resize:
			cols, rows, derr := wire.DecodeResize(f.Payload)
			if derr != nil {
				return derr
			}
			s.resize(cols, rows)
			return nil
		case wire.Detach:
			return errDetach
		default:
			return &wire.ProtocolError{Reason: fmt.Sprintf("unexpected frame type %#x from client", f.Type)}
		}
	})
	if err != nil && !errors.Is(err, errDetach) && !errors.Is(err, io.EOF) {
		s.log.WithField("client", cl.id).WithError(err).Debug("client read loop ended")
	}
	s.removeClient(cl.id)
}

var errDetach = errors.New("client requested detach")

func (s *Session) removeClient(id uint64) {
	if cl, ok := s.clients.Get(id); ok {
		cl.close()
		s.clients.Del(id)
	}
}

// writeInput pushes client input bytes onto the PTY write backpressure
// queue. It blocks only the calling client's own reader goroutine if the
// queue is full, never the PTY read path or other clients.
func (s *Session) writeInput(payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	if _, err := s.ptyWriteBuf.Write(payload); err != nil {
		return perrors.New("session.writeInput", perrors.KindPtyIO, err)
	}
	return nil
}

// resize applies a RESIZE frame to the PTY master. The most recently applied
// resize wins; concurrent resizes from different clients are not
// synchronized beyond the ordering already imposed by their respective
// event-loop goroutines.
func (s *Session) resize(cols, rows uint16) {
	if err := pty.Setsize(s.ptm, &pty.Winsize{Cols: cols, Rows: rows}); err != nil {
		s.log.WithError(err).Debug("resize failed")
	}
}

// watchSocket detects external deletion of the session's own socket file —
// the authoritative "this session is dead" signal — via fsnotify where
// available, falling back to periodic stat polling.
func (s *Session) watchSocket() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.pollSocket()
		return
	}
	defer watcher.Close()

	dir := sessionDir(s.sockP)
	if err := watcher.Add(dir); err != nil {
		s.pollSocket()
		return
	}

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if ev.Name == s.sockP && (ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0) {
				s.log.Info("socket removed externally, shutting down")
				s.beginShutdown()
				return
			}
		case <-s.done:
			return
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.log.WithError(err).Debug("socket watch error")
		}
	}
}

func (s *Session) pollSocket() {
	interval := time.Duration(s.cfg.SocketWatchPollMS) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := os.Stat(s.sockP); os.IsNotExist(err) {
				s.log.Info("socket removed externally, shutting down")
				s.beginShutdown()
				return
			}
		case <-s.done:
			return
		}
	}
}

// beginShutdown transitions the session into Draining and unblocks every
// event-loop goroutine's suspension point: closing the listener unblocks
// acceptLoop, closing the PTY write queue unblocks ptyWriteLoop, and closing
// the PTY master both unblocks ptyReadLoop and delivers SIGHUP to the child
// via controlling-tty semantics, which in turn unblocks childWaitLoop. It is
// safe to call multiple times and from multiple goroutines; only the first
// call has effect.
func (s *Session) beginShutdown() {
	s.shutdownOnce.Do(func() {
		s.state.Store(int32(StateDraining))
		_ = s.listener.Close()
		_ = s.ptyWriteBuf.CloseWriter()
		_ = s.ptm.Close()
		if !s.exitReceived.Load() && s.cmd.Process != nil {
			_ = s.cmd.Process.Signal(syscall.SIGHUP)
		}
		close(s.done)
	})
}

// teardown performs the Draining -> Terminated transition once every
// event-loop goroutine has exited: notify and close every client, force-kill
// the child if SIGHUP was not sufficient, close the listener, and unlink the
// socket file.
func (s *Session) teardown() {
	s.clients.Range(func(id uint64, c *client) bool {
		c.close()
		return true
	})

	if !s.exitReceived.Load() && s.cmd.Process != nil {
		done := make(chan struct{})
		go func() { _ = s.cmd.Wait(); close(done) }()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			_ = s.cmd.Process.Kill()
		}
	}

	_ = s.listener.Close()
	_ = os.Remove(s.sockP)

	s.state.Store(int32(StateTerminated))
	s.log.Info("session terminated")
}

func sessionDir(socketPath string) string {
	for i := len(socketPath) - 1; i >= 0; i-- {
		if socketPath[i] == '/' {
			return socketPath[:i]
		}
	}
	return "."
}

// isSocketLive reports whether path refers to a Unix socket with a
// listener actively accepting connections.
func isSocketLive(path string) bool {
	conn, err := net.DialTimeout("unix", path, 200*time.Millisecond)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
