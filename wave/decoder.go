package wave

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/riff"
)

var (
	// ErrMalformedContainer is returned when the outer RIFF structure is
	// damaged: wrong form tags, truncated headers, or chunks that claim
	// more bytes than the stream holds.
	ErrMalformedContainer = errors.New("malformed RIFF container")
	// ErrMissingChunk is returned when a required chunk is absent or the
	// data chunk appears before the fmt chunk that describes it.
	ErrMissingChunk = errors.New("missing required chunk")
	// ErrUnsupportedCompression is returned when the fmt chunk declares
	// any compression scheme other than linear PCM.
	ErrUnsupportedCompression = errors.New("unsupported compression format")
	// ErrOutOfRange is returned when a frame position falls outside the
	// addressable range of the data chunk.
	ErrOutOfRange = errors.New("position not in range")
)

// Decoder provides sample accurate random access to the PCM frames of a
// WAVE container. The stream parameters are committed while opening and
// never change afterwards.
type Decoder struct {
	r      io.ReadSeeker
	parser *riff.Parser
	owned  io.Closer

	numChannels int
	sampleRate  int
	byteDepth   int

	frameCount int
	dataStart  int64
	dataSize   int

	pos    int
	chunks []ChunkInfo
}

// NewDecoder scans the container headers of r and returns a decoder
// positioned at the first frame. The scan stops at the data chunk; the
// caller keeps ownership of r.
func NewDecoder(r io.ReadSeeker) (*Decoder, error) {
	d := &Decoder{r: r, parser: riff.New(r)}
	if err := d.readHeaders(); err != nil {
		return nil, err
	}

	return d, nil
}

// Open opens the WAVE file at path for reading. The returned decoder owns
// the file handle and releases it on Close.
func Open(path string) (*Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	d, err := NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	d.owned = f

	return d, nil
}

// Close releases the underlying file when the decoder owns it. Decoders
// built over a caller supplied reader leave the reader open.
func (d *Decoder) Close() error {
	if d == nil || d.owned == nil {
		return nil
	}

	err := d.owned.Close()
	d.owned = nil

	if err != nil {
		return fmt.Errorf("failed to close reader: %w", err)
	}

	return nil
}

// SampleRate returns the sample rate in Hz.
func (d *Decoder) SampleRate() int {
	if d == nil {
		return 0
	}

	return d.sampleRate
}

// Channels returns the number of interleaved channels per frame.
func (d *Decoder) Channels() int {
	if d == nil {
		return 0
	}

	return d.numChannels
}

// ByteDepth returns the storage width of a single sample in bytes.
func (d *Decoder) ByteDepth() int {
	if d == nil {
		return 0
	}

	return d.byteDepth
}

// NumFrames returns the total number of frames in the data chunk.
func (d *Decoder) NumFrames() int {
	if d == nil {
		return 0
	}

	return d.frameCount
}

// Params returns the committed stream parameters.
func (d *Decoder) Params() (Params, error) {
	if d == nil || d.numChannels == 0 {
		return Params{}, ErrNotConfigured
	}

	return Params{
		SampleRate: d.sampleRate,
		Channels:   d.numChannels,
		ByteDepth:  d.byteDepth,
		NumFrames:  d.frameCount,
	}, nil
}

// Format returns the audio format of the decoded content.
func (d *Decoder) Format() *audio.Format {
	if d == nil {
		return nil
	}

	return &audio.Format{
		NumChannels: d.numChannels,
		SampleRate:  d.sampleRate,
	}
}

// Duration returns the playable length of the data chunk.
func (d *Decoder) Duration() (time.Duration, error) {
	if d == nil || d.sampleRate == 0 {
		return 0, ErrNotConfigured
	}

	return time.Duration(float64(d.frameCount) / float64(d.sampleRate) * float64(time.Second)), nil
}

// Chunks lists every chunk encountered while opening the container, in
// order, up to and including the data chunk. Unknown chunks are recorded
// and skipped, never interpreted.
func (d *Decoder) Chunks() []ChunkInfo {
	if d == nil {
		return nil
	}

	return d.chunks
}

// Position returns the frame index the next read starts from.
func (d *Decoder) Position() int {
	if d == nil {
		return 0
	}

	return d.pos
}

// SetPosition moves the read cursor to an absolute frame index. The whole
// range [0, NumFrames] is addressable; positioning at NumFrames leaves the
// cursor at end-of-data.
func (d *Decoder) SetPosition(frame int) error {
	if d == nil || d.numChannels == 0 {
		return ErrNotConfigured
	}

	if frame < 0 || frame > d.frameCount {
		return fmt.Errorf("%w: frame %d of %d", ErrOutOfRange, frame, d.frameCount)
	}

	d.pos = frame

	return nil
}

// ReadFrames decodes up to count frames from the current position and
// advances past them. Fewer frames come back near end-of-data; a cursor
// exactly at the end yields an empty buffer.
func (d *Decoder) ReadFrames(count int) (*audio.FloatBuffer, error) {
	if d == nil || d.numChannels == 0 {
		return nil, ErrNotConfigured
	}

	if count < 0 {
		return nil, fmt.Errorf("%w: %d frames requested", ErrOutOfRange, count)
	}

	if remain := d.frameCount - d.pos; count > remain {
		count = remain
	}

	frameWidth := d.numChannels * d.byteDepth
	if _, err := d.r.Seek(d.dataStart+int64(d.pos)*int64(frameWidth), io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to frame %d: %w", d.pos, err)
	}

	data := make([]byte, count*frameWidth)

	n, err := io.ReadFull(d.r, data)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("failed to read PCM data: %w", err)
	}

	// a short read keeps whole frames only
	data = data[:n-n%frameWidth]

	buf, err := DecodeSamples(data, d.numChannels, d.byteDepth)
	if err != nil {
		return nil, err
	}

	buf.Format.SampleRate = d.sampleRate
	d.pos += len(buf.Data) / d.numChannels

	return buf, nil
}

// ReadFramesAt decodes up to count frames starting at the given frame
// index, leaving the cursor after the region read.
func (d *Decoder) ReadFramesAt(start, count int) (*audio.FloatBuffer, error) {
	if err := d.SetPosition(start); err != nil {
		return nil, err
	}

	return d.ReadFrames(count)
}

// String implements the Stringer interface.
func (d *Decoder) String() string {
	return d.parser.String()
}

func (d *Decoder) readHeaders() error {
	id, size, err := d.parser.IDnSize()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedContainer, err)
	}

	d.parser.ID = id
	if d.parser.ID != riff.RiffID {
		return fmt.Errorf("%w: %q is not a RIFF form", ErrMalformedContainer, id[:])
	}

	d.parser.Size = size

	if err := binary.Read(d.r, binary.BigEndian, &d.parser.Format); err != nil {
		return fmt.Errorf("%w: missing form type: %v", ErrMalformedContainer, err)
	}

	if d.parser.Format != riff.WavFormatID {
		return fmt.Errorf("%w: %q is not a WAVE form", ErrMalformedContainer, d.parser.Format[:])
	}

	fmtSeen := false

	for {
		id, size, err := d.parser.IDnSize()
		if err != nil {
			// a clean EOF means the scan ran out of chunks; a partial
			// header is container damage
			if errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
				return fmt.Errorf("%w: no data chunk", ErrMissingChunk)
			}

			return fmt.Errorf("%w: chunk header: %v", ErrMalformedContainer, err)
		}

		offset, err := d.r.Seek(0, io.SeekCurrent)
		if err != nil {
			return fmt.Errorf("failed to locate chunk payload: %w", err)
		}

		d.chunks = append(d.chunks, ChunkInfo{ID: id, Size: size, Offset: offset})

		switch id {
		case riff.FmtID:
			if err := d.parseFmt(size); err != nil {
				return err
			}

			fmtSeen = true
		case riff.DataFormatID:
			if !fmtSeen {
				return fmt.Errorf("%w: data chunk precedes fmt chunk", ErrMissingChunk)
			}

			d.dataStart = offset
			d.dataSize = int(size)
			d.frameCount = d.dataSize / (d.numChannels * d.byteDepth)

			return nil
		default:
			if err := skipChunk(d.r, id, size); err != nil {
				return err
			}
		}
	}
}

func (d *Decoder) parseFmt(size uint32) error {
	if size < fmtChunkMinSize {
		return fmt.Errorf("%w: fmt chunk of %d bytes", ErrMalformedContainer, size)
	}

	chunk := &riff.Chunk{
		ID:   riff.FmtID,
		Size: int(size),
		R:    io.LimitReader(d.r, int64(size)),
	}

	var tag uint16
	if err := chunk.ReadLE(&tag); err != nil {
		return fmt.Errorf("%w: fmt compression tag: %v", ErrMalformedContainer, err)
	}

	var channels uint16
	if err := chunk.ReadLE(&channels); err != nil {
		return fmt.Errorf("%w: fmt channels: %v", ErrMalformedContainer, err)
	}

	var sampleRate uint32
	if err := chunk.ReadLE(&sampleRate); err != nil {
		return fmt.Errorf("%w: fmt sample rate: %v", ErrMalformedContainer, err)
	}

	var avgBytesPerSec uint32
	if err := chunk.ReadLE(&avgBytesPerSec); err != nil {
		return fmt.Errorf("%w: fmt avg bytes/sec: %v", ErrMalformedContainer, err)
	}

	var blockAlign uint16
	if err := chunk.ReadLE(&blockAlign); err != nil {
		return fmt.Errorf("%w: fmt block align: %v", ErrMalformedContainer, err)
	}

	var bitsPerSample uint16
	if err := chunk.ReadLE(&bitsPerSample); err != nil {
		return fmt.Errorf("%w: fmt bit depth: %v", ErrMalformedContainer, err)
	}

	if tag != FormatPCM {
		return fmt.Errorf("%w: format tag %d", ErrUnsupportedCompression, tag)
	}

	if channels < 1 || bitsPerSample == 0 {
		return fmt.Errorf("%w: %d channels at %d bits", ErrMalformedContainer, channels, bitsPerSample)
	}

	d.numChannels = int(channels)
	d.sampleRate = int(sampleRate)
	d.byteDepth = (int(bitsPerSample) + 7) / 8

	d.parser.NumChannels = channels
	d.parser.SampleRate = sampleRate
	d.parser.AvgBytesPerSec = avgBytesPerSec
	d.parser.BlockAlign = blockAlign
	d.parser.BitsPerSample = bitsPerSample
	d.parser.WavAudioFormat = tag

	// fmt extensions carry no information for PCM streams
	if rest := int64(size) - fmtChunkMinSize; rest > 0 {
		if _, err := d.r.Seek(rest, io.SeekCurrent); err != nil {
			return fmt.Errorf("failed to skip fmt extension: %w", err)
		}
	}

	return nil
}

func skipChunk(r io.Reader, id [4]byte, size uint32) error {
	// all RIFF chunks must be word aligned; an odd payload carries a
	// trailing pad byte that its declared size leaves out
	span := int64(size)
	if size%2 == 1 {
		span++
	}

	if n, err := io.CopyN(io.Discard, r, span); err != nil {
		return fmt.Errorf("%w: %q chunk truncated after %d of %d bytes",
			ErrMalformedContainer, id[:], n, span)
	}

	return nil
}
