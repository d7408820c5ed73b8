package protocol

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/tidwall/gjson"
)

// MaxPayloadSize is the framing codec's hard ceiling: the length field is a
// big-endian u16, so 65535 bytes is the largest legal payload (spec §4.1).
const MaxPayloadSize = 65535

// ErrDisconnected signals a clean EOF at a frame boundary.
var ErrDisconnected = errors.New("protocol: peer disconnected")

// ErrOversizedPayload signals a write_frame call asked for more than
// MaxPayloadSize bytes — a fatal session error per §4.1.
var ErrOversizedPayload = errors.New("protocol: payload exceeds 65535 bytes")

// ProtocolError wraps a framing-level failure (short read, truncated
// frame) that must close the owning session per §7.
type ProtocolError struct {
	Context string
	Err     error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error (%s): %v", e.Context, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// Codec reads and writes length-prefixed typed frames over a byte stream:
// 2-byte big-endian type tag, 2-byte big-endian length N, N bytes of
// payload (spec §4.1). It reads payloads into a reusable scratch buffer;
// ReadFrame still returns each payload as a freshly allocated copy.
type Codec struct {
	r       *bufio.Reader
	w       io.Writer
	scratch []byte
}

// NewCodec wraps a connection (or any ReadWriter) in a framing codec.
func NewCodec(rw io.ReadWriter) *Codec {
	return &Codec{
		r:       bufio.NewReader(rw),
		w:       rw,
		scratch: make([]byte, 4096),
	}
}

// ReadFrame reads one (type, payload) frame. Returns ErrDisconnected on a
// clean EOF at a frame boundary, or a *ProtocolError on a truncated frame.
func (c *Codec) ReadFrame() (MessageType, []byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(c.r, header[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil, ErrDisconnected
		}
		return 0, nil, &ProtocolError{Context: "reading frame header", Err: err}
	}

	msgType := MessageType(binary.BigEndian.Uint16(header[0:2]))
	length := binary.BigEndian.Uint16(header[2:4])

	if length == 0 {
		return msgType, nil, nil
	}

	if cap(c.scratch) < int(length) {
		c.scratch = make([]byte, length)
	}
	payload := c.scratch[:length]
	if _, err := io.ReadFull(c.r, payload); err != nil {
		return 0, nil, &ProtocolError{Context: "reading frame payload", Err: err}
	}

	out := make([]byte, length)
	copy(out, payload)
	return msgType, out, nil
}

// WriteFrame writes one (type, payload) frame and flushes.
func (c *Codec) WriteFrame(msgType MessageType, payload []byte) error {
	if len(payload) > MaxPayloadSize {
		return ErrOversizedPayload
	}

	var header [4]byte
	binary.BigEndian.PutUint16(header[0:2], uint16(msgType))
	binary.BigEndian.PutUint16(header[2:4], uint16(len(payload)))

	if _, err := c.w.Write(header[:]); err != nil {
		return &ProtocolError{Context: "writing frame header", Err: err}
	}
	if len(payload) > 0 {
		if _, err := c.w.Write(payload); err != nil {
			return &ProtocolError{Context: "writing frame payload", Err: err}
		}
	}
	if f, ok := c.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// Encode marshals v to JSON and returns the bytes to use as a frame
// payload; it writes nothing, and msgType does not affect the encoding.
// JSON stands in for the out-of-scope binary schema library (spec §1)
// while keeping frames legible for tests.
func Encode(msgType MessageType, v interface{}) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// Decode unmarshals a frame payload into v.
func Decode(payload []byte, v interface{}) error {
	if len(payload) == 0 {
		return nil
	}
	return json.Unmarshal(payload, v)
}

// Summarize renders a payload's top-level keys for log lines without a
// full strict unmarshal, so a malformed frame that fails Decode can still
// be diagnosed. Falls back to a byte count for non-object payloads.
func Summarize(payload []byte) string {
	if len(payload) == 0 {
		return "<empty>"
	}
	if !gjson.ValidBytes(payload) {
		return fmt.Sprintf("<%d invalid-json bytes>", len(payload))
	}
	result := gjson.ParseBytes(payload)
	if !result.IsObject() {
		return fmt.Sprintf("<%d bytes, non-object json>", len(payload))
	}
	keys := make([]string, 0, 8)
	result.ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return len(keys) < 8
	})
	return fmt.Sprintf("{keys: %v}", keys)
}
