package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/vango-dev/transitiongroup/pkg/frame"
)

// Allocation limits against hostile length prefixes.
const (
	// DefaultMaxAllocation caps a single string or payload (4MB).
	DefaultMaxAllocation = 4 * 1024 * 1024

	// MaxCollectionCount caps the number of frames in a render payload.
	MaxCollectionCount = 100_000

	// MaxDepth caps element/component nesting in a render payload.
	MaxDepth = 256
)

// Decoding errors.
var (
	ErrVarintOverflow     = errors.New("protocol: varint overflow")
	ErrInvalidBool        = errors.New("protocol: invalid boolean value")
	ErrAllocationTooLarge = errors.New("protocol: allocation size exceeds limit")
	ErrCollectionTooLarge = errors.New("protocol: collection count exceeds limit")
	ErrMaxDepthExceeded   = errors.New("protocol: maximum nesting depth exceeded")
	ErrUnbalanced         = errors.New("protocol: unbalanced open/close frames")
	ErrUnknownFrameKind   = errors.New("protocol: unknown render frame kind")
)

// payloadWriter builds a render payload.
type payloadWriter struct {
	buf []byte
}

func newPayloadWriter() *payloadWriter {
	return &payloadWriter{buf: make([]byte, 0, 256)}
}

func (w *payloadWriter) count(n uint64) { w.buf = binary.AppendUvarint(w.buf, n) }

// head writes the kind byte and sequence number every frame starts with.
func (w *payloadWriter) head(k frame.Kind, seq int) {
	w.buf = append(w.buf, byte(k))
	w.buf = binary.AppendVarint(w.buf, int64(seq))
}

func (w *payloadWriter) str(s string) {
	w.buf = binary.AppendUvarint(w.buf, uint64(len(s)))
	w.buf = append(w.buf, s...)
}

func (w *payloadWriter) flag(b bool) {
	var v byte
	if b {
		v = 1
	}
	w.buf = append(w.buf, v)
}

// optional writes a presence flag and, for a non-nil v, its printed form.
func (w *payloadWriter) optional(v any) {
	w.flag(v != nil)
	if v != nil {
		w.str(fmt.Sprint(v))
	}
}

// payloadReader walks a render payload.
type payloadReader struct {
	buf []byte
	pos int
}

func (r *payloadReader) remaining() int { return len(r.buf) - r.pos }

func (r *payloadReader) uvarint() (uint64, error) {
	v, n := binary.Uvarint(r.buf[r.pos:])
	switch {
	case n == 0:
		return 0, io.ErrUnexpectedEOF
	case n < 0:
		return 0, ErrVarintOverflow
	}
	r.pos += n
	return v, nil
}

// head reads a frame's kind byte and sequence number.
func (r *payloadReader) head() (frame.Kind, int, error) {
	if r.remaining() == 0 {
		return 0, 0, io.ErrUnexpectedEOF
	}
	k := frame.Kind(r.buf[r.pos])
	r.pos++

	seq, n := binary.Varint(r.buf[r.pos:])
	switch {
	case n == 0:
		return 0, 0, io.ErrUnexpectedEOF
	case n < 0:
		return 0, 0, ErrVarintOverflow
	}
	r.pos += n
	return k, int(seq), nil
}

func (r *payloadReader) str() (string, error) {
	length, err := r.uvarint()
	if err != nil {
		return "", err
	}
	if length > DefaultMaxAllocation {
		return "", ErrAllocationTooLarge
	}
	if length > uint64(r.remaining()) {
		return "", io.ErrUnexpectedEOF
	}
	s := string(r.buf[r.pos : r.pos+int(length)])
	r.pos += int(length)
	return s, nil
}

// flag accepts only 0x00 and 0x01.
func (r *payloadReader) flag() (bool, error) {
	if r.remaining() == 0 {
		return false, io.ErrUnexpectedEOF
	}
	b := r.buf[r.pos]
	r.pos++
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, ErrInvalidBool
}

// optional returns nil for an absent value so decoded keys keep their
// "unkeyed" meaning.
func (r *payloadReader) optional() (any, error) {
	present, err := r.flag()
	if err != nil || !present {
		return nil, err
	}
	return r.str()
}

// count reads a frame count, bounded by MaxCollectionCount and by the bytes
// left (every frame takes at least two).
func (r *payloadReader) count() (int, error) {
	n, err := r.uvarint()
	if err != nil {
		return 0, err
	}
	if n > MaxCollectionCount {
		return 0, ErrCollectionTooLarge
	}
	if n > uint64(r.remaining()) {
		return 0, io.ErrUnexpectedEOF
	}
	return int(n), nil
}
