package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payload := []byte("hello\n")
	buf := Encode(nil, Input, payload)

	dec := NewDecoder()
	dec.Feed(buf)
	frame, ok, err := dec.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Input, frame.Type)
	assert.Equal(t, payload, frame.Payload)
	assert.Equal(t, 0, dec.Pending())
}

func TestEncodeDecodeEmptyPayload(t *testing.T) {
	buf := Encode(nil, Detach, nil)
	dec := NewDecoder()
	dec.Feed(buf)
	frame, ok, err := dec.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Detach, frame.Type)
	assert.Empty(t, frame.Payload)
}

func TestDecoderHandlesConcatenatedFrames(t *testing.T) {
	buf := Encode(nil, Output, []byte("abc"))
	buf = Encode(buf, Output, []byte("def"))

	dec := NewDecoder()
	dec.Feed(buf)

	f1, ok, err := dec.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), f1.Payload)

	f2, ok, err := dec.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("def"), f2.Payload)

	_, ok, err = dec.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDecoderHandlesSplitFeed(t *testing.T) {
	buf := Encode(nil, Output, []byte("hello world"))

	dec := NewDecoder()
	for i := 0; i < len(buf); i++ {
		dec.Feed(buf[i : i+1])
		frame, ok, err := dec.Next()
		require.NoError(t, err)
		if i < len(buf)-1 {
			assert.False(t, ok, "frame should not be complete at byte %d", i)
			continue
		}
		require.True(t, ok)
		assert.Equal(t, []byte("hello world"), frame.Payload)
	}
}

func TestDecoderRejectsOversizeFrame(t *testing.T) {
	dec := NewDecoderWithLimit(4)
	buf := Encode(nil, Output, []byte("too long"))
	dec.Feed(buf)

	_, _, err := dec.Next()
	require.Error(t, err)
	var perr *ProtocolError
	require.ErrorAs(t, err, &perr)
}

func TestResizePayloadRoundTrip(t *testing.T) {
	payload := ResizePayload(120, 40)
	cols, rows, err := DecodeResize(payload)
	require.NoError(t, err)
	assert.EqualValues(t, 120, cols)
	assert.EqualValues(t, 40, rows)
}

func TestExitPayloadRoundTrip(t *testing.T) {
	payload := ExitPayload(-1)
	code, err := DecodeExit(payload)
	require.NoError(t, err)
	assert.EqualValues(t, -1, code)
}

func TestDecodeResizeRejectsBadLength(t *testing.T) {
	_, _, err := DecodeResize([]byte{1, 2, 3})
	require.Error(t, err)
}
