package wave

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/go-audio/audio"
)

const (
	scalePCMInt16 = 32768.0
	scalePCMInt24 = 8388608.0
	scalePCMInt32 = 2147483648.0
	maxPCMInt16   = 32767
	maxPCMInt32   = 2147483647
)

var (
	// ErrUnsupportedByteDepth is returned when no integer codec exists for
	// the requested sample width.
	ErrUnsupportedByteDepth = errors.New("unsupported byte depth")
	// ErrInvalidShape is returned when sample data doesn't divide evenly
	// into frames of the requested channel count.
	ErrInvalidShape = errors.New("invalid sample data shape")
)

// DecodeSamples unpacks little-endian signed PCM bytes into a normalized
// float buffer with interleaved channels. Values are scaled by the width's
// integer range into [-1.0, 1.0). Widths of 2 and 4 bytes decode natively;
// 3-byte samples are zero-extended to 4 bytes and have no encode path.
func DecodeSamples(data []byte, channels, byteDepth int) (*audio.FloatBuffer, error) {
	if channels < 1 {
		return nil, fmt.Errorf("%w: %d channels", ErrInvalidShape, channels)
	}

	scale, err := sampleScale(byteDepth)
	if err != nil {
		return nil, err
	}

	if len(data)%(byteDepth*channels) != 0 {
		return nil, fmt.Errorf("%w: %d bytes across %d channels at depth %d",
			ErrInvalidShape, len(data), channels, byteDepth)
	}

	buf := &audio.FloatBuffer{
		Data:           make([]float64, len(data)/byteDepth),
		Format:         &audio.Format{NumChannels: channels},
		SourceBitDepth: byteDepth * 8,
	}

	for i := range buf.Data {
		buf.Data[i] = float64(decodeSampleLE(data[i*byteDepth:], byteDepth)) / scale
	}

	return buf, nil
}

// EncodeSamples packs a normalized float buffer into little-endian signed
// PCM bytes. Inverse scaling truncates toward zero rather than rounding;
// values outside [-1.0, 1.0) clamp to the representable range. Widths of
// 2 and 4 bytes are encodable; 3-byte output is deliberately unimplemented.
func EncodeSamples(buf *audio.FloatBuffer, byteDepth int) ([]byte, error) {
	if buf == nil {
		return nil, fmt.Errorf("%w: nil buffer", ErrInvalidShape)
	}

	// a buffer without format information is a flat mono column
	channels := 1
	if buf.Format != nil && buf.Format.NumChannels > 0 {
		channels = buf.Format.NumChannels
	}

	if len(buf.Data)%channels != 0 {
		return nil, fmt.Errorf("%w: %d samples across %d channels",
			ErrInvalidShape, len(buf.Data), channels)
	}

	if byteDepth != 2 && byteDepth != 4 {
		return nil, fmt.Errorf("%w: no encoder for depth %d", ErrUnsupportedByteDepth, byteDepth)
	}

	out := make([]byte, len(buf.Data)*byteDepth)
	for i, v := range buf.Data {
		encodeSampleLE(out[i*byteDepth:], v, byteDepth)
	}

	return out, nil
}

func sampleScale(byteDepth int) (float64, error) {
	switch byteDepth {
	case 2:
		return scalePCMInt16, nil
	case 3:
		return scalePCMInt24, nil
	case 4:
		return scalePCMInt32, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedByteDepth, byteDepth)
	}
}

func decodeSampleLE(b []byte, byteDepth int) int32 {
	switch byteDepth {
	case 2:
		return int32(int16(binary.LittleEndian.Uint16(b[:2])))
	case 3:
		return int32(uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16)
	case 4:
		return int32(binary.LittleEndian.Uint32(b[:4]))
	default:
		return 0
	}
}

func encodeSampleLE(dst []byte, v float64, byteDepth int) {
	switch byteDepth {
	case 2:
		binary.LittleEndian.PutUint16(dst[:2], uint16(int16(truncatePCM(v, scalePCMInt16, maxPCMInt16))))
	case 4:
		binary.LittleEndian.PutUint32(dst[:4], uint32(int32(truncatePCM(v, scalePCMInt32, maxPCMInt32))))
	}
}

func truncatePCM(v, scale float64, max int64) int64 {
	if v >= 1.0 {
		return max
	}

	if v <= -1.0 {
		return -int64(scale)
	}

	return int64(v * scale)
}
