package protocol

import (
	"encoding/binary"
	"errors"
	"io"
)

// MaxPayloadSize is the largest payload a frame may carry.
const MaxPayloadSize = DefaultMaxAllocation

// FrameType identifies the type of frame.
type FrameType uint8

const (
	FrameRender FrameType = 0x01 // Server → client render pass
	FramePing   FrameType = 0x02 // Keepalive
	FrameError  FrameType = 0x03 // Error message
)

// String returns the string representation of the frame type.
func (ft FrameType) String() string {
	switch ft {
	case FrameRender:
		return "Render"
	case FramePing:
		return "Ping"
	case FrameError:
		return "Error"
	default:
		return "Unknown"
	}
}

// FrameFlags are optional flags for frame processing.
type FrameFlags uint8

const (
	FlagFirstPass FrameFlags = 0x01 // Render frame of the reconciler's first pass
	FlagRetained  FrameFlags = 0x02 // Render frame contains retained children
)

// Has returns true if the flags contain the specified flag.
func (ff FrameFlags) Has(flag FrameFlags) bool {
	return ff&flag != 0
}

// Frame errors.
var (
	ErrFrameTooLarge    = errors.New("protocol: frame payload too large")
	ErrInvalidFrameType = errors.New("protocol: invalid frame type")
)

// Frame is a protocol message: a type, flags and an opaque payload.
type Frame struct {
	Type    FrameType
	Flags   FrameFlags
	Payload []byte
}

// NewFrame creates a frame with no flags.
func NewFrame(ft FrameType, payload []byte) *Frame {
	return &Frame{Type: ft, Payload: payload}
}

// Encode encodes the frame including its header.
func (f *Frame) Encode() []byte {
	buf := make([]byte, 0, len(f.Payload)+2+binary.MaxVarintLen64)
	buf = append(buf, byte(f.Type), byte(f.Flags))
	buf = binary.AppendUvarint(buf, uint64(len(f.Payload)))
	return append(buf, f.Payload...)
}

// DecodeFrame decodes exactly one frame from data. Trailing bytes are an
// error.
func DecodeFrame(data []byte) (*Frame, error) {
	if len(data) < 2 {
		return nil, io.ErrUnexpectedEOF
	}
	ft := FrameType(data[0])
	if !validFrameType(ft) {
		return nil, ErrInvalidFrameType
	}
	length, n := binary.Uvarint(data[2:])
	switch {
	case n == 0:
		return nil, io.ErrUnexpectedEOF
	case n < 0:
		return nil, ErrVarintOverflow
	}
	if length > MaxPayloadSize {
		return nil, ErrFrameTooLarge
	}
	body := data[2+n:]
	if length != uint64(len(body)) {
		return nil, io.ErrUnexpectedEOF
	}

	payload := make([]byte, length)
	copy(payload, body)
	return &Frame{Type: ft, Flags: FrameFlags(data[1]), Payload: payload}, nil
}

// ReadFrame reads a complete frame from r.
func ReadFrame(r io.ByteReader) (*Frame, error) {
	ft, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if !validFrameType(FrameType(ft)) {
		return nil, ErrInvalidFrameType
	}
	flags, err := r.ReadByte()
	if err != nil {
		return nil, unexpected(err)
	}

	length, err := binary.ReadUvarint(r)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, ErrVarintOverflow
	}
	if length > MaxPayloadSize {
		return nil, ErrFrameTooLarge
	}

	payload := make([]byte, length)
	for i := range payload {
		if payload[i], err = r.ReadByte(); err != nil {
			return nil, unexpected(err)
		}
	}
	return &Frame{Type: FrameType(ft), Flags: FrameFlags(flags), Payload: payload}, nil
}

// WriteFrame writes a complete frame to w.
func WriteFrame(w io.Writer, f *Frame) error {
	if len(f.Payload) > MaxPayloadSize {
		return ErrFrameTooLarge
	}
	_, err := w.Write(f.Encode())
	return err
}

func validFrameType(ft FrameType) bool {
	switch ft {
	case FrameRender, FramePing, FrameError:
		return true
	}
	return false
}

func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
