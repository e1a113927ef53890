// Package wire implements the length-prefixed framing used on raw TCP
// connections. Every frame is a 4-byte big-endian unsigned length
// followed by that many payload bytes, one frame per protocol message.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxFrameSize bounds the memory a single frame may claim. No client
// message comes close to this; anything larger is a broken or hostile
// peer.
const MaxFrameSize = 1 << 20 // 1 MiB

// ErrFrameTooLarge is returned when a frame header announces a payload
// larger than MaxFrameSize.
var ErrFrameTooLarge = errors.New("wire: frame exceeds maximum size")

// ReadFrame blocks until a full frame is available and returns its
// payload. A clean close before any header byte yields io.EOF; a close
// mid-header or mid-body yields io.ErrUnexpectedEOF so callers can tell
// a finished peer from a truncated one.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	length := binary.BigEndian.Uint32(header[:])
	if length > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, length)
	}
	if length == 0 {
		return []byte{}, nil
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		if err == io.EOF {
			// A full header was read, so the stream ended mid-frame.
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}

	return payload, nil
}

// WriteFrame prefixes payload with its length and writes the whole
// frame with a single Write call so concurrent writers guarded by a
// mutex never interleave partial frames.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload))
	}

	buf := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(buf[:4], uint32(len(payload)))
	copy(buf[4:], payload)

	_, err := w.Write(buf)
	return err
}
