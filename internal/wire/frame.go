// Package wire implements the pterm session framing codec: a byte-oriented
// stream protocol of type:u8 | length:u32 (little-endian) | payload frames
// exchanged between a bridge process and its session daemon over a Unix
// socket.
package wire

import (
	"encoding/binary"
	"fmt"
)

// Client-to-daemon frame types.
const (
	Input  byte = 0x01
	Resize byte = 0x02
	Detach byte = 0x03
)

// Daemon-to-client frame types. The type space intentionally overlaps with
// the client-to-daemon space above: each endpoint only ever decodes frames
// sent by its peer role, never its own.
const (
	Output     byte = 0x01
	Exit       byte = 0x02
	Scrollback byte = 0x80
)

// HeaderLen is the number of bytes preceding a frame's payload: one type
// byte plus a 4-byte little-endian length.
const HeaderLen = 5

// DefaultMaxFrameLen is the frame length ceiling applied when a Decoder is
// constructed with NewDecoder; override via NewDecoderWithLimit.
const DefaultMaxFrameLen = 16 << 20

// ProtocolError is returned by Decoder.Next when a peer sends a frame whose
// declared length exceeds the configured ceiling, or other malformed input.
// The connection must be closed on receipt; the codec makes no attempt to
// resynchronize with the stream.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string { return "protocol error: " + e.Reason }

// Frame is one decoded message.
type Frame struct {
	Type    byte
	Payload []byte
}

// Encode appends the wire encoding of (typ, payload) to dst and returns the
// extended slice.
func Encode(dst []byte, typ byte, payload []byte) []byte {
	var hdr [HeaderLen]byte
	hdr[0] = typ
	binary.LittleEndian.PutUint32(hdr[1:], uint32(len(payload)))
	dst = append(dst, hdr[:]...)
	dst = append(dst, payload...)
	return dst
}

// ResizePayload encodes a RESIZE frame payload: cols then rows, both
// little-endian u16.
func ResizePayload(cols, rows uint16) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint16(buf[0:2], cols)
	binary.LittleEndian.PutUint16(buf[2:4], rows)
	return buf
}

// DecodeResize unpacks a RESIZE frame payload.
func DecodeResize(payload []byte) (cols, rows uint16, err error) {
	if len(payload) != 4 {
		return 0, 0, &ProtocolError{Reason: fmt.Sprintf("resize payload length %d, want 4", len(payload))}
	}
	return binary.LittleEndian.Uint16(payload[0:2]), binary.LittleEndian.Uint16(payload[2:4]), nil
}

// ExitPayload encodes an EXIT frame payload: a little-endian i32 exit code.
func ExitPayload(code int32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(code))
	return buf
}

// DecodeExit unpacks an EXIT frame payload.
func DecodeExit(payload []byte) (int32, error) {
	if len(payload) != 4 {
		return 0, &ProtocolError{Reason: fmt.Sprintf("exit payload length %d, want 4", len(payload))}
	}
	return int32(binary.LittleEndian.Uint32(payload)), nil
}

// Decoder incrementally reassembles frames from an append-only byte stream.
// Callers append newly-read bytes via Feed and drain completed frames with
// Next until it returns ok=false, then read more bytes and Feed again.
//
// Decoder is not safe for concurrent use; each connection owns one.
type Decoder struct {
	buf    []byte
	maxLen uint32
}

// NewDecoder returns a Decoder enforcing DefaultMaxFrameLen.
func NewDecoder() *Decoder { return NewDecoderWithLimit(DefaultMaxFrameLen) }

// NewDecoderWithLimit returns a Decoder enforcing maxLen as the largest
// acceptable payload length.
func NewDecoderWithLimit(maxLen uint32) *Decoder {
	return &Decoder{maxLen: maxLen}
}

// Feed appends newly read bytes to the decode buffer.
func (d *Decoder) Feed(b []byte) {
	d.buf = append(d.buf, b...)
}

// Next extracts the next complete frame from the buffer, if any. It returns
// ok=false (with err=nil) when the buffer holds an incomplete frame and more
// bytes are needed. It returns a non-nil err, which is always a
// *ProtocolError, when the buffer's declared length exceeds the configured
// ceiling; callers must close the connection without calling Next again.
func (d *Decoder) Next() (frame Frame, ok bool, err error) {
	if len(d.buf) < HeaderLen {
		return Frame{}, false, nil
	}
	typ := d.buf[0]
	length := binary.LittleEndian.Uint32(d.buf[1:HeaderLen])
	if length > d.maxLen {
		return Frame{}, false, &ProtocolError{
			Reason: fmt.Sprintf("frame length %d exceeds ceiling %d", length, d.maxLen),
		}
	}
	total := HeaderLen + int(length)
	if len(d.buf) < total {
		return Frame{}, false, nil
	}
	payload := make([]byte, length)
	copy(payload, d.buf[HeaderLen:total])

	remaining := len(d.buf) - total
	if remaining > 0 {
		copy(d.buf, d.buf[total:])
	}
	d.buf = d.buf[:remaining]

	return Frame{Type: typ, Payload: payload}, true, nil
}

// Pending reports the number of unconsumed bytes buffered by the decoder,
// useful for diagnostics and tests.
func (d *Decoder) Pending() int { return len(d.buf) }
