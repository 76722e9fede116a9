package session

import (
	"net"
	"sync"

	"github.com/ianremillard/pterm/internal/perrors"
	"github.com/ianremillard/pterm/internal/wire"
	"github.com/sirupsen/logrus"
)

// client is one attached bridge connection. It owns an inbound decode
// buffer and an outbound byte queue; a dedicated writer goroutine drains the
// queue so a slow reader on the peer side never blocks the session's PTY
// read path. This generalizes the teacher's single attachedConn-per-instance
// field into one of many concurrently registered clients.
type client struct {
	id   uint64
	conn net.Conn
	log  *logrus.Entry

	highWater   int
	hardCeiling int
	maxFrameLen uint32

	mu      sync.Mutex
	queue   [][]byte
	queued  int
	closed  bool
	notify  chan struct{}
}

func newClient(id uint64, conn net.Conn, highWater, hardCeiling int, maxFrameLen uint32, log *logrus.Entry) *client {
	return &client{
		id:          id,
		conn:        conn,
		log:         log,
		highWater:   highWater,
		hardCeiling: hardCeiling,
		maxFrameLen: maxFrameLen,
		notify:      make(chan struct{}, 1),
	}
}

// enqueue appends a frame's bytes to the client's outbound queue. It never
// blocks and never drops bytes unless a positive hard ceiling is configured
// and exceeded, in which case it reports a SlowConsumer-kind error so the
// caller can drop the client; the session's other clients and the PTY read
// path are unaffected either way.
func (c *client) enqueue(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return perrors.New("client.enqueue", perrors.KindClientIO, net.ErrClosed)
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	c.queue = append(c.queue, cp)
	c.queued += len(cp)
	queued := c.queued
	c.mu.Unlock()

	if queued > c.highWater {
		c.log.WithFields(logrus.Fields{"client": c.id, "queued": queued}).
			Warn("client outbound queue above soft high-water mark")
	}
	if c.hardCeiling > 0 && queued > c.hardCeiling {
		return perrors.New("client.enqueue", perrors.KindClientIO, errSlowConsumer)
	}

	select {
	case c.notify <- struct{}{}:
	default:
	}
	return nil
}

// drain is run by the client's writer goroutine. It blocks on notify until
// there is queued data, then writes it to the connection in FIFO order.
// It returns when the connection is closed or a write fails.
func (c *client) drain() error {
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return nil
		}
		if len(c.queue) == 0 {
			c.mu.Unlock()
			<-c.notify
			continue
		}
		pending := c.queue
		c.queue = nil
		c.queued = 0
		c.mu.Unlock()

		for _, chunk := range pending {
			if _, err := c.conn.Write(chunk); err != nil {
				return perrors.New("client.drain", perrors.KindClientIO, err)
			}
		}
	}
}

// close marks the client closed and unblocks any waiting drain goroutine.
// It is idempotent.
func (c *client) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()
	select {
	case c.notify <- struct{}{}:
	default:
	}
	_ = c.conn.Close()
}

// readFrames decodes INPUT/RESIZE/DETACH frames from the client connection
// and invokes handler for each; it returns on connection close, decode
// error, or handler error.
func (c *client) readFrames(handler func(wire.Frame) error) error {
	dec := wire.NewDecoderWithLimit(c.maxFrameLen)
	buf := make([]byte, 64*1024)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			dec.Feed(buf[:n])
			for {
				frame, ok, derr := dec.Next()
				if derr != nil {
					return derr
				}
				if !ok {
					break
				}
				if herr := handler(frame); herr != nil {
					return herr
				}
			}
		}
		if err != nil {
			return err
		}
	}
}
