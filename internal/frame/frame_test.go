package frame

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/pkg/errors"
)

func TestRoundTrip(t *testing.T) {
	payloads := [][]byte{
		nil,
		{0x00},
		[]byte("hello"),
		bytes.Repeat([]byte{0xAB}, 5000),
	}
	for _, p := range payloads {
		b := Encode(p)
		n, err := DecodeHeader(b[:HeaderSize])
		if err != nil {
			t.Fatalf("DecodeHeader: %v", err)
		}
		if n != len(p) {
			t.Errorf("declared length = %d, want %d", n, len(p))
		}
		if !bytes.Equal(b[HeaderSize:], p) {
			t.Errorf("payload bytes differ for len %d", len(p))
		}
	}
}

func TestHeaderIsLittleEndian(t *testing.T) {
	b := Encode(make([]byte, 0x0102))
	if want := []byte{0x02, 0x01, 0x00, 0x00}; !bytes.Equal(b[:HeaderSize], want) {
		t.Errorf("header = %x, want %x", b[:HeaderSize], want)
	}
}

func TestDecodeHeaderShort(t *testing.T) {
	for _, b := range [][]byte{nil, {1}, {1, 2, 3}} {
		if _, err := DecodeHeader(b); !errors.Is(err, ErrMalformedHeader) {
			t.Errorf("DecodeHeader(%x) err = %v, want ErrMalformedHeader", b, err)
		}
	}
}

func TestDecodeHeaderImplausible(t *testing.T) {
	tests := []uint32{0xFFFFFFFF, 0x80000000, MaxPayloadSize + 1}
	for _, n := range tests {
		var h [HeaderSize]byte
		binary.LittleEndian.PutUint32(h[:], n)
		if _, err := DecodeHeader(h[:]); !errors.Is(err, ErrImplausibleLength) {
			t.Errorf("DecodeHeader(%d) err = %v, want ErrImplausibleLength", n, err)
		}
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, []byte("abc")); err != nil {
		t.Fatal(err)
	}
	if want := []byte{3, 0, 0, 0, 'a', 'b', 'c'}; !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("wrote %x, want %x", buf.Bytes(), want)
	}
}
