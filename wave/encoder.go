package wave

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/riff"
)

var (
	// ErrNotConfigured is returned when an operation needs stream
	// parameters that haven't been set yet.
	ErrNotConfigured = errors.New("stream parameters not set")
	// ErrImmutableAfterWrite is returned when a parameter setter runs
	// after the header has been committed by the first write.
	ErrImmutableAfterWrite = errors.New("parameters are immutable once frames are written")

	errNilEncoder        = errors.New("can't write through a nil encoder")
	errEncoderClosed     = errors.New("encoder is closed")
	errInvalidSampleRate = errors.New("sample rate must be positive")
	errInvalidChannels   = errors.New("channel count must be positive")
	errInvalidByteDepth  = errors.New("byte depth must be between 1 and 4")
)

// sizePlaceholder marks the RIFF and data size fields until Flush or Close
// patches in the real totals.
const sizePlaceholder = uint32(4294967295)

// Encoder writes PCM frames into a WAVE container. Parameters are set
// before the first write; the header goes out with placeholder sizes that
// Flush and Close patch from running totals, so the stream length never
// needs to be known up front.
type Encoder struct {
	w     io.WriteSeeker
	owned io.Closer

	sampleRate int
	channels   int
	byteDepth  int

	written     int // bytes written, header included
	frames      int
	dataSizePos int // byte offset of the data chunk size field
	wroteHeader bool
	closed      bool
}

// NewEncoder returns an encoder writing to w. The caller keeps ownership
// of w; Close finalizes the container without closing it.
func NewEncoder(w io.WriteSeeker) *Encoder {
	return &Encoder{w: w}
}

// Create creates or truncates a WAVE file at path. The returned encoder
// owns the file handle and releases it on Close.
func Create(path string) (*Encoder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}

	e := NewEncoder(f)
	e.owned = f

	return e, nil
}

// SetSampleRate sets the sample rate in Hz.
func (e *Encoder) SetSampleRate(hz int) error {
	if e.wroteHeader {
		return ErrImmutableAfterWrite
	}

	if hz <= 0 {
		return fmt.Errorf("%w: %d", errInvalidSampleRate, hz)
	}

	e.sampleRate = hz

	return nil
}

// SetChannels sets the number of interleaved channels per frame.
func (e *Encoder) SetChannels(n int) error {
	if e.wroteHeader {
		return ErrImmutableAfterWrite
	}

	if n < 1 {
		return fmt.Errorf("%w: %d", errInvalidChannels, n)
	}

	e.channels = n

	return nil
}

// SetByteDepth sets the storage width of a single sample in bytes. Widths
// of 1 to 4 describe a valid header; only 2 and 4 have an encode path, and
// the others fail at write time.
func (e *Encoder) SetByteDepth(n int) error {
	if e.wroteHeader {
		return ErrImmutableAfterWrite
	}

	if n < 1 || n > 4 {
		return fmt.Errorf("%w: %d", errInvalidByteDepth, n)
	}

	e.byteDepth = n

	return nil
}

// SampleRate returns the configured sample rate in Hz.
func (e *Encoder) SampleRate() int {
	if e == nil {
		return 0
	}

	return e.sampleRate
}

// Channels returns the configured channel count.
func (e *Encoder) Channels() int {
	if e == nil {
		return 0
	}

	return e.channels
}

// ByteDepth returns the configured sample width in bytes.
func (e *Encoder) ByteDepth() int {
	if e == nil {
		return 0
	}

	return e.byteDepth
}

// Written returns the number of frames written so far.
func (e *Encoder) Written() int {
	if e == nil {
		return 0
	}

	return e.frames
}

// Params returns the configured stream parameters.
func (e *Encoder) Params() (Params, error) {
	if e == nil || e.sampleRate == 0 || e.channels == 0 || e.byteDepth == 0 {
		return Params{}, ErrNotConfigured
	}

	return Params{
		SampleRate: e.sampleRate,
		Channels:   e.channels,
		ByteDepth:  e.byteDepth,
		NumFrames:  e.frames,
	}, nil
}

// WriteFrames encodes buf and appends it to the data chunk. The first
// write commits the stream parameters and emits the container header.
func (e *Encoder) WriteFrames(buf *audio.FloatBuffer) error {
	if e == nil || e.w == nil {
		return errNilEncoder
	}

	if e.closed {
		return errEncoderClosed
	}

	if buf == nil {
		return fmt.Errorf("%w: nil buffer", ErrInvalidShape)
	}

	if !e.wroteHeader {
		if err := e.writeHeader(); err != nil {
			return err
		}
	}

	if buf.Format != nil && buf.Format.NumChannels > 0 && buf.Format.NumChannels != e.channels {
		return fmt.Errorf("%w: %d channel buffer into a %d channel stream",
			ErrInvalidShape, buf.Format.NumChannels, e.channels)
	}

	if len(buf.Data)%e.channels != 0 {
		return fmt.Errorf("%w: %d samples across %d channels", ErrInvalidShape, len(buf.Data), e.channels)
	}

	data, err := EncodeSamples(buf, e.byteDepth)
	if err != nil {
		return err
	}

	n, err := e.w.Write(data)
	e.written += n

	if err != nil {
		return fmt.Errorf("failed to write PCM data: %w", err)
	}

	e.frames += len(buf.Data) / e.channels

	return nil
}

// Flush patches the container sizes from the running totals and returns
// the cursor to the end of the stream so that writing can continue.
func (e *Encoder) Flush() error {
	if e == nil || e.w == nil {
		return errNilEncoder
	}

	if e.closed {
		return errEncoderClosed
	}

	if !e.wroteHeader {
		if err := e.writeHeader(); err != nil {
			return err
		}
	}

	return e.patchHeader()
}

// Close finalizes the container and releases the file handle when the
// encoder owns one. Closing twice is a no-op. A stream that never saw a
// write still comes out as a valid zero frame file.
func (e *Encoder) Close() error {
	if e == nil || e.w == nil || e.closed {
		return nil
	}

	e.closed = true

	if !e.wroteHeader {
		if err := e.writeHeader(); err != nil {
			e.closeOwned()
			return err
		}
	}

	if err := e.patchHeader(); err != nil {
		e.closeOwned()
		return err
	}

	if f, ok := e.w.(*os.File); ok {
		if err := f.Sync(); err != nil {
			e.closeOwned()
			return fmt.Errorf("failed to sync file: %w", err)
		}
	}

	return e.closeOwned()
}

func (e *Encoder) closeOwned() error {
	if e.owned == nil {
		return nil
	}

	err := e.owned.Close()
	e.owned = nil

	if err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}

	return nil
}

// addLE serializes and writes the passed value using little endian.
func (e *Encoder) addLE(src any) error {
	e.written += binary.Size(src)

	if err := binary.Write(e.w, binary.LittleEndian, src); err != nil {
		return fmt.Errorf("failed to write little endian: %w", err)
	}

	return nil
}

func (e *Encoder) writeHeader() error {
	if e.sampleRate == 0 || e.channels == 0 || e.byteDepth == 0 {
		return fmt.Errorf("%w: sample rate, channels and byte depth are needed before writing", ErrNotConfigured)
	}

	if err := e.addLE(riff.RiffID); err != nil {
		return err
	}
	// file size, patched on Flush/Close
	if err := e.addLE(sizePlaceholder); err != nil {
		return err
	}

	if err := e.addLE(riff.WavFormatID); err != nil {
		return err
	}

	if err := e.addLE(riff.FmtID); err != nil {
		return err
	}

	if err := e.addLE(uint32(fmtChunkMinSize)); err != nil {
		return err
	}

	if err := e.addLE(uint16(FormatPCM)); err != nil {
		return err
	}

	if err := e.addLE(uint16(e.channels)); err != nil {
		return fmt.Errorf("error encoding the number of channels - %w", err)
	}

	if err := e.addLE(uint32(e.sampleRate)); err != nil {
		return fmt.Errorf("error encoding the sample rate - %w", err)
	}

	blockAlign := e.channels * e.byteDepth

	if err := e.addLE(uint32(e.sampleRate * blockAlign)); err != nil {
		return fmt.Errorf("error encoding the avg bytes per sec - %w", err)
	}

	if err := e.addLE(uint16(blockAlign)); err != nil {
		return err
	}

	if err := e.addLE(uint16(e.byteDepth * 8)); err != nil {
		return fmt.Errorf("error encoding bits per sample - %w", err)
	}

	if err := e.addLE(riff.DataFormatID); err != nil {
		return fmt.Errorf("error encoding the data chunk header - %w", err)
	}

	e.dataSizePos = e.written

	if err := e.addLE(sizePlaceholder); err != nil {
		return fmt.Errorf("%w when writing the data chunk size header", err)
	}

	e.wroteHeader = true

	return nil
}

// patchHeader rewrites the two placeholder size fields. It bypasses addLE
// so the running byte total stays true to the stream length.
func (e *Encoder) patchHeader() error {
	if _, err := e.w.Seek(4, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to the file size position: %w", err)
	}

	if err := binary.Write(e.w, binary.LittleEndian, uint32(e.written)-8); err != nil {
		return fmt.Errorf("%w when patching the total file size", err)
	}

	if _, err := e.w.Seek(int64(e.dataSizePos), io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to the data chunk size position: %w", err)
	}

	if err := binary.Write(e.w, binary.LittleEndian, uint32(e.byteDepth*e.channels*e.frames)); err != nil {
		return fmt.Errorf("%w when patching the data chunk size", err)
	}

	if _, err := e.w.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek back to the end of the stream: %w", err)
	}

	return nil
}
