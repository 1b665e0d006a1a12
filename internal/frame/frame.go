// Package frame implements the length-prefixed framing used on the service socket.
//
// A frame is a 4-byte little-endian length followed by exactly that many
// payload bytes.
package frame

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// HeaderSize is the size of the length prefix
const HeaderSize = 4

// MaxPayloadSize bounds the declared length accepted from a peer
const MaxPayloadSize = 64 << 20

var (
	// ErrMalformedHeader means fewer than HeaderSize bytes were available
	ErrMalformedHeader = errors.New("malformed frame header")

	// ErrImplausibleLength means the declared length is negative or too large
	ErrImplausibleLength = errors.New("implausible frame length")
)

// Encode prefixes payload with its length
func Encode(payload []byte) []byte {
	b := make([]byte, HeaderSize+len(payload))
	binary.LittleEndian.PutUint32(b, uint32(len(payload)))
	copy(b[HeaderSize:], payload)
	return b
}

// DecodeHeader returns the payload length declared by the first HeaderSize bytes of b
func DecodeHeader(b []byte) (int, error) {
	if len(b) < HeaderSize {
		return 0, errors.Wrapf(ErrMalformedHeader, "got %d bytes", len(b))
	}
	n := binary.LittleEndian.Uint32(b[:HeaderSize])
	// the service packs the length as a signed 32-bit value, so a set sign
	// bit reads as a negative length; MaxPayloadSize rejects both
	if n > MaxPayloadSize {
		return 0, errors.Wrapf(ErrImplausibleLength, "declared %d bytes", int32(n))
	}
	return int(n), nil
}

// Write writes one complete frame to w
func Write(w io.Writer, payload []byte) error {
	if len(payload) > MaxPayloadSize {
		return errors.Wrapf(ErrImplausibleLength, "payload of %d bytes", len(payload))
	}
	_, err := w.Write(Encode(payload))
	return err
}
