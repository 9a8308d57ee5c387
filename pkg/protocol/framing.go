package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// Every message is prefixed with its payload length as a little-endian
	// uint64.
	HEADER_SIZE = 8

	DEFAULT_MAX_FRAME = 16 << 20
)

var (
	ErrFrameTooLarge = errors.New("frame exceeds size limit")
	ErrEmptyFrame    = errors.New("frame has no payload")
)

// WriteFrame writes the header and payload in a single call so that
// concurrent writers guarded by the same lock never interleave.
func WriteFrame(w io.Writer, payload []byte) error {
	buffer := make([]byte, HEADER_SIZE+len(payload))
	binary.LittleEndian.PutUint64(buffer, uint64(len(payload)))
	copy(buffer[HEADER_SIZE:], payload)

	_, err := w.Write(buffer)
	return err
}

// ReadFrame reads exactly one frame. It returns io.EOF only when the stream
// ended cleanly on a frame boundary; a stream cut inside a frame yields
// io.ErrUnexpectedEOF. A limit of zero disables the size check.
func ReadFrame(r io.Reader, limit uint64) ([]byte, error) {
	var header [HEADER_SIZE]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	length := binary.LittleEndian.Uint64(header[:])
	if length == 0 {
		return nil, ErrEmptyFrame
	}

	if limit > 0 && length > limit {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrFrameTooLarge, length, limit)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("reading %d byte payload: %w", length, err)
	}

	return payload, nil
}
