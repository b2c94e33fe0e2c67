package audiophile

import (
	"errors"
	"io"

	"github.com/go-audio/audio"
)

var errNilReader = errors.New("can't read through a nil framed reader")

// FramedReader slides a fixed-shape analysis window across an audio file.
// Every frame comes back framesize rows by channels columns no matter
// where it lands: regions hanging off either end of the signal are zero
// rows, so consumers never see a ragged frame.
//
// Frame spacing and alignment live on the embedded Window; the defaults
// are half-frame overlap with center alignment.
type FramedReader struct {
	file      *File
	window    *Window
	framesize int
}

// NewFramedReader opens path through a managed File and wraps it in a
// window of the given frame size.
func NewFramedReader(path string, framesize int, p Params, conv Converter) (*FramedReader, error) {
	file, err := OpenFile(path, p, conv)
	if err != nil {
		return nil, err
	}

	window, err := NewWindow(framesize, file.SampleRate(), file.NumSamples())
	if err != nil {
		file.Close()
		return nil, err
	}

	return &FramedReader{file: file, window: window, framesize: framesize}, nil
}

// Window returns the frame sequencer for reconfiguration.
func (fr *FramedReader) Window() *Window {
	if fr == nil {
		return nil
	}

	return fr.window
}

// File returns the underlying managed file handle.
func (fr *FramedReader) File() *File {
	if fr == nil {
		return nil
	}

	return fr.file
}

// FrameSize returns the default frame length in rows.
func (fr *FramedReader) FrameSize() int {
	if fr == nil {
		return 0
	}

	return fr.framesize
}

// NumFrames returns how many frames the current window yields.
func (fr *FramedReader) NumFrames() int {
	return fr.Window().NumFrames()
}

// SampleRate returns the stream's sample rate in Hz.
func (fr *FramedReader) SampleRate() int {
	return fr.File().SampleRate()
}

// Channels returns the stream's channel count.
func (fr *FramedReader) Channels() int {
	return fr.File().Channels()
}

// NumSamples returns the stream's total row count.
func (fr *FramedReader) NumSamples() int {
	return fr.File().NumSamples()
}

// ByteDepth returns the stream's sample width in bytes.
func (fr *FramedReader) ByteDepth() int {
	return fr.File().ByteDepth()
}

// ReadFrameAtIndex returns the frame starting at the given row, which may
// be negative or past the end. A framesize at or below zero uses the
// reader's own. The result always holds framesize rows, zero-padded
// wherever the frame leaves the signal.
func (fr *FramedReader) ReadFrameAtIndex(sampleIndex, framesize int) (*audio.FloatBuffer, error) {
	if fr == nil || fr.file == nil {
		return nil, errNilReader
	}

	if framesize <= 0 {
		framesize = fr.framesize
	}

	channels := fr.file.Channels()
	out := &audio.FloatBuffer{
		Data: make([]float64, framesize*channels),
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  fr.file.SampleRate(),
		},
		SourceBitDepth: fr.file.ByteDepth() * 8,
	}

	total := fr.file.NumSamples()

	switch {
	case sampleIndex < 0 && sampleIndex+framesize > 0:
		// straddling the start: real rows sit right-aligned after the
		// zero rows that stand in for the negative indexes
		buf, err := fr.file.ReadFramesAt(0, sampleIndex+framesize)
		if err != nil {
			return nil, err
		}

		copy(out.Data[-sampleIndex*channels:], buf.Data)
	case sampleIndex > total || sampleIndex+framesize <= 0:
		// entirely outside the signal, the frame stays silent
	default:
		buf, err := fr.file.ReadFramesAt(sampleIndex, framesize)
		if err != nil {
			return nil, err
		}

		copy(out.Data, buf.Data)
	}

	return out, nil
}

// ReadFrameAtTime returns the frame whose start row is the sample index
// nearest to t seconds.
func (fr *FramedReader) ReadFrameAtTime(t float64, framesize int) (*audio.FloatBuffer, error) {
	if fr == nil || fr.file == nil {
		return nil, errNilReader
	}

	return fr.ReadFrameAtIndex(fr.window.TimeToSampleIndex(t), framesize)
}

// Next returns the frame at the window's next time point. When the
// sequence is spent it rewinds and returns io.EOF, so another call starts
// the iteration over.
func (fr *FramedReader) Next() (*audio.FloatBuffer, error) {
	if fr == nil || fr.file == nil {
		return nil, errNilReader
	}

	t, err := fr.window.NextTimePoint()
	if errors.Is(err, ErrSequenceExhausted) {
		fr.window.Reset()
		return nil, io.EOF
	}

	if err != nil {
		return nil, err
	}

	return fr.ReadFrameAtTime(t, 0)
}

// Reset rewinds iteration to the first frame.
func (fr *FramedReader) Reset() {
	fr.Window().Reset()
}

// Close releases the underlying file handle.
func (fr *FramedReader) Close() error {
	if fr == nil {
		return nil
	}

	return fr.file.Close()
}
