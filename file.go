package audiophile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/audio"

	"github.com/ejhumphrey/audiophile/wave"
)

var (
	// ErrConversionFailed is returned when an operation needs the external
	// converter and it is missing or its run fails.
	ErrConversionFailed = errors.New("format conversion failed")

	errNilFile     = errors.New("can't use a nil file")
	errFileClosed  = errors.New("file is closed")
	errNotReadable = errors.New("file is open for writing, not reading")
	errNotWritable = errors.New("file is open for reading, not writing")
)

// Params are desired stream parameters. A zero field keeps whatever the
// source provides.
type Params struct {
	SampleRate int
	Channels   int
	ByteDepth  int
}

// Converter turns the audio file at input into output with the requested
// stream parameters, where zero keeps the source's value. The sox and
// ffmpeg packages provide implementations.
type Converter interface {
	Convert(input, output string, sampleRate, channels, byteDepth int) error
}

// Player plays an audio file from start to end seconds. A non-positive
// end plays through to the end of the file. The sox package provides an
// implementation backed by its play binary.
type Player interface {
	Play(path string, start, end float64) error
}

// File is an audio file handle with transparent format conversion. Wave
// files whose parameters already match are read in place; anything else
// is routed through the Converter into a scratch wave file that lives for
// the handle's lifetime. Write handles aimed at a non-wave target write
// the scratch first and convert it on Close.
type File struct {
	path     string
	wavePath string
	scratch  string
	writing  bool

	dec  *wave.Decoder
	enc  *wave.Encoder
	conv Converter

	closed bool
}

// OpenFile opens path for reading with the requested parameters. A wave
// file that already satisfies them is opened natively; any other input
// needs conv and fails ErrConversionFailed without one.
func OpenFile(path string, p Params, conv Converter) (*File, error) {
	if isWave(path) {
		dec, err := wave.Open(path)
		if err != nil {
			return nil, err
		}

		if matchesNative(dec, p) {
			return &File{path: path, wavePath: path, dec: dec, conv: conv}, nil
		}

		if err := dec.Close(); err != nil {
			return nil, err
		}
	}

	if conv == nil {
		return nil, fmt.Errorf("%w: no converter available for %s", ErrConversionFailed, path)
	}

	scratch, err := scratchWave()
	if err != nil {
		return nil, err
	}

	if err := conv.Convert(path, scratch, p.SampleRate, p.Channels, p.ByteDepth); err != nil {
		os.Remove(scratch)
		return nil, fmt.Errorf("%w: %v", ErrConversionFailed, err)
	}

	dec, err := wave.Open(scratch)
	if err != nil {
		os.Remove(scratch)
		return nil, fmt.Errorf("failed to open the converted stream: %w", err)
	}

	return &File{path: path, wavePath: scratch, scratch: scratch, dec: dec, conv: conv}, nil
}

// CreateFile opens path for writing. All three parameters are required. A
// non-wave target is written as a scratch wave file and converted when
// the handle closes, which needs conv up front.
func CreateFile(path string, p Params, conv Converter) (*File, error) {
	if p.SampleRate == 0 || p.Channels == 0 || p.ByteDepth == 0 {
		return nil, fmt.Errorf("%w: writing needs sample rate, channels and byte depth", wave.ErrNotConfigured)
	}

	wavePath, scratch := path, ""

	if !isWave(path) {
		if conv == nil {
			return nil, fmt.Errorf("%w: no converter available for %s", ErrConversionFailed, path)
		}

		s, err := scratchWave()
		if err != nil {
			return nil, err
		}

		wavePath, scratch = s, s
	}

	enc, err := wave.Create(wavePath)
	if err != nil {
		if scratch != "" {
			os.Remove(scratch)
		}

		return nil, err
	}

	if err := configureEncoder(enc, p); err != nil {
		enc.Close()
		os.Remove(wavePath)

		return nil, err
	}

	return &File{path: path, wavePath: wavePath, scratch: scratch, writing: true, enc: enc, conv: conv}, nil
}

// Path returns the path the handle was opened with.
func (f *File) Path() string {
	if f == nil {
		return ""
	}

	return f.path
}

// WavePath returns the path of the wave stream actually being read or
// written, which differs from Path when a scratch file is in play.
func (f *File) WavePath() string {
	if f == nil {
		return ""
	}

	return f.wavePath
}

// SampleRate returns the stream's sample rate in Hz.
func (f *File) SampleRate() int {
	if f == nil {
		return 0
	}

	if f.writing {
		return f.enc.SampleRate()
	}

	return f.dec.SampleRate()
}

// Channels returns the stream's channel count.
func (f *File) Channels() int {
	if f == nil {
		return 0
	}

	if f.writing {
		return f.enc.Channels()
	}

	return f.dec.Channels()
}

// ByteDepth returns the stream's sample width in bytes.
func (f *File) ByteDepth() int {
	if f == nil {
		return 0
	}

	if f.writing {
		return f.enc.ByteDepth()
	}

	return f.dec.ByteDepth()
}

// NumSamples returns how many sample rows the stream holds, counting one
// row across all channels. For a write handle that is the rows written
// so far.
func (f *File) NumSamples() int {
	if f == nil {
		return 0
	}

	if f.writing {
		return f.enc.Written()
	}

	return f.dec.NumFrames()
}

// Duration returns the stream length in time.
func (f *File) Duration() (time.Duration, error) {
	if f == nil {
		return 0, errNilFile
	}

	if f.writing {
		seconds := float64(f.enc.Written()) / float64(f.enc.SampleRate())
		return time.Duration(seconds * float64(time.Second)), nil
	}

	return f.dec.Duration()
}

// ReadFrames decodes up to count rows from the current position.
func (f *File) ReadFrames(count int) (*audio.FloatBuffer, error) {
	if f == nil {
		return nil, errNilFile
	}

	if f.closed {
		return nil, errFileClosed
	}

	if f.writing {
		return nil, errNotReadable
	}

	return f.dec.ReadFrames(count)
}

// ReadFramesAt decodes up to count rows starting at row start.
func (f *File) ReadFramesAt(start, count int) (*audio.FloatBuffer, error) {
	if f == nil {
		return nil, errNilFile
	}

	if f.closed {
		return nil, errFileClosed
	}

	if f.writing {
		return nil, errNotReadable
	}

	return f.dec.ReadFramesAt(start, count)
}

// SetPosition moves the read cursor to the given row.
func (f *File) SetPosition(row int) error {
	if f == nil {
		return errNilFile
	}

	if f.closed {
		return errFileClosed
	}

	if f.writing {
		return errNotReadable
	}

	return f.dec.SetPosition(row)
}

// Position returns the read cursor's current row.
func (f *File) Position() int {
	if f == nil || f.writing {
		return 0
	}

	return f.dec.Position()
}

// WriteFrames appends interleaved rows to a write handle.
func (f *File) WriteFrames(buf *audio.FloatBuffer) error {
	if f == nil {
		return errNilFile
	}

	if f.closed {
		return errFileClosed
	}

	if !f.writing {
		return errNotWritable
	}

	return f.enc.WriteFrames(buf)
}

// Close releases the handle. A write handle finalizes its wave stream
// first; when the target is not a wave file the scratch stream is then
// converted into place. The scratch file is removed on every path.
// Closing twice is a no-op.
func (f *File) Close() error {
	if f == nil || f.closed {
		return nil
	}

	f.closed = true

	if !f.writing {
		err := f.dec.Close()
		f.removeScratch()

		return err
	}

	if err := f.enc.Close(); err != nil {
		f.removeScratch()
		return err
	}

	if f.scratch != "" {
		err := f.conv.Convert(f.scratch, f.path, 0, 0, 0)
		f.removeScratch()

		if err != nil {
			return fmt.Errorf("%w: %v", ErrConversionFailed, err)
		}
	}

	return nil
}

func (f *File) removeScratch() {
	if f.scratch == "" {
		return
	}

	os.Remove(f.scratch)
	f.scratch = ""
}

func configureEncoder(enc *wave.Encoder, p Params) error {
	if err := enc.SetSampleRate(p.SampleRate); err != nil {
		return err
	}

	if err := enc.SetChannels(p.Channels); err != nil {
		return err
	}

	return enc.SetByteDepth(p.ByteDepth)
}

// matchesNative reports whether the open stream already satisfies every
// requested parameter, counting zero as no request.
func matchesNative(dec *wave.Decoder, p Params) bool {
	if p.SampleRate != 0 && p.SampleRate != dec.SampleRate() {
		return false
	}

	if p.Channels != 0 && p.Channels != dec.Channels() {
		return false
	}

	if p.ByteDepth != 0 && p.ByteDepth != dec.ByteDepth() {
		return false
	}

	return true
}

func isWave(path string) bool {
	return strings.EqualFold(filepath.Ext(path), wave.Extension)
}

// scratchWave reserves a temp file name with the wave extension so the
// converter has a concrete target to write over.
func scratchWave() (string, error) {
	f, err := os.CreateTemp("", "audiophile-*"+wave.Extension)
	if err != nil {
		return "", fmt.Errorf("failed to create a scratch file: %w", err)
	}

	name := f.Name()

	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("failed to close the scratch file: %w", err)
	}

	return name, nil
}
