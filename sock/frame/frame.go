package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"github.com/ValentinKolb/svsock/lib/bitvec"
	"github.com/ValentinKolb/svsock/sock/common"
)

const (
	// WordSize is the size of one wire word in bytes
	WordSize = 4
	// MarkerSize is the size of the length-prefixed marker word
	MarkerSize = WordSize
)

var (
	ErrEndOfStream = errors.New("frame: end of stream")
	ErrMismatch    = errors.New("frame: marker does not match width")
	ErrShortFrame  = errors.New("frame: short frame")
)

// Done is the sentinel message acknowledging a consumed value. It is always sent on its own.
var Done = [WordSize]byte{}

// Format is one binary wire convention for word frames
type Format interface {
	// Name returns the configuration name of the format
	Name() string
	// HeaderSize returns the number of bytes preceding the payload
	HeaderSize() int
	// FrameSize returns the number of bytes of a data frame carrying width bits
	FrameSize(width int) int
	// CheckHeader validates a header of HeaderSize bytes.
	// It returns ErrEndOfStream for the end-of-stream marker.
	CheckHeader(header []byte, width int) error
	// Encode appends the frame carrying words to dst
	Encode(dst []byte, width int, words []uint32) []byte
	// Decode reads the payload of a complete frame into words
	Decode(frame []byte, width int, words []uint32) error
}

// Raw is the header-less format: exactly ceil(width/32) little-endian words
var Raw Format = rawFormat{}

// LengthPrefixed is the legacy format: a marker word holding the width followed by the
// payload words. A zero marker ends the stream.
var LengthPrefixed Format = lengthPrefixedFormat{}

// ByName returns the format with the given configuration name
func ByName(name string) (Format, error) {
	switch name {
	case common.FrameFormatRaw, "":
		return Raw, nil
	case common.FrameFormatLengthPrefixed:
		return LengthPrefixed, nil
	default:
		return nil, fmt.Errorf("invalid frame format %s (expected %s or %s)", name, common.FrameFormatRaw, common.FrameFormatLengthPrefixed)
	}
}

// --------------------------------------------------------------------------
// Word helpers
// --------------------------------------------------------------------------

// PutWords appends words to dst in little-endian byte order
func PutWords(dst []byte, words []uint32) []byte {
	for _, w := range words {
		dst = binary.LittleEndian.AppendUint32(dst, w)
	}
	return dst
}

// ReadWords decodes len(words) little-endian words from src
func ReadWords(src []byte, words []uint32) error {
	if len(src) < len(words)*WordSize {
		return fmt.Errorf("%w: %d bytes for %d words", ErrShortFrame, len(src), len(words))
	}
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(src[i*WordSize:])
	}
	return nil
}

// --------------------------------------------------------------------------
// Raw
// --------------------------------------------------------------------------

type rawFormat struct{}

func (rawFormat) Name() string { return common.FrameFormatRaw }

func (rawFormat) HeaderSize() int { return 0 }

func (rawFormat) FrameSize(width int) int { return bitvec.ByteCount(width) }

func (rawFormat) CheckHeader([]byte, int) error { return nil }

func (rawFormat) Encode(dst []byte, width int, words []uint32) []byte {
	return PutWords(dst, words[:bitvec.WordCount(width)])
}

func (rawFormat) Decode(frame []byte, width int, words []uint32) error {
	return ReadWords(frame, words[:bitvec.WordCount(width)])
}

// --------------------------------------------------------------------------
// Length prefixed
// --------------------------------------------------------------------------

type lengthPrefixedFormat struct{}

func (lengthPrefixedFormat) Name() string { return common.FrameFormatLengthPrefixed }

func (lengthPrefixedFormat) HeaderSize() int { return MarkerSize }

func (lengthPrefixedFormat) FrameSize(width int) int { return MarkerSize + bitvec.ByteCount(width) }

func (lengthPrefixedFormat) CheckHeader(header []byte, width int) error {
	if len(header) < MarkerSize {
		return fmt.Errorf("%w: %d byte marker", ErrShortFrame, len(header))
	}
	marker := binary.LittleEndian.Uint32(header)
	if marker == 0 {
		return ErrEndOfStream
	}
	if int(marker) != width {
		return fmt.Errorf("%w: marker %d, width %d", ErrMismatch, marker, width)
	}
	return nil
}

func (lengthPrefixedFormat) Encode(dst []byte, width int, words []uint32) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(width))
	return PutWords(dst, words[:bitvec.WordCount(width)])
}

func (f lengthPrefixedFormat) Decode(frame []byte, width int, words []uint32) error {
	if err := f.CheckHeader(frame, width); err != nil {
		return err
	}
	return ReadWords(frame[MarkerSize:], words[:bitvec.WordCount(width)])
}

// EndOfStream returns the length-prefixed end-of-stream marker
func EndOfStream() []byte {
	return make([]byte, MarkerSize)
}
