package audiophile

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/audio"

	"github.com/ejhumphrey/audiophile/ffmpeg"
	"github.com/ejhumphrey/audiophile/sox"
	"github.com/ejhumphrey/audiophile/wave"
)

// readFrameSize is the chunk length Read streams a file through. Large
// enough to keep the frame count low, small enough to bound the padding
// the final frame carries.
const readFrameSize = 50000

// Read decodes the whole signal at path into one interleaved buffer,
// converting through conv first when the source isn't a satisfying wave
// file. An empty stream comes back as an empty buffer with a valid
// format.
func Read(path string, p Params, conv Converter) (*audio.FloatBuffer, error) {
	fr, err := NewFramedReader(path, readFrameSize, p, conv)
	if err != nil {
		return nil, err
	}
	defer fr.Close()

	if err := fr.Window().SetOverlap(0); err != nil {
		return nil, err
	}

	if err := fr.Window().SetAlignment(AlignLeft); err != nil {
		return nil, err
	}

	total := fr.NumSamples()
	channels := fr.Channels()

	out := &audio.FloatBuffer{
		Data: make([]float64, 0, total*channels),
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  fr.SampleRate(),
		},
		SourceBitDepth: fr.ByteDepth() * 8,
	}

	for {
		frame, err := fr.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, err
		}

		out.Data = append(out.Data, frame.Data...)
	}

	// the final frame is zero-padded; cut back to the true length
	out.Data = out.Data[:total*channels]

	return out, nil
}

// Write encodes buf to path at the given byte depth. The sample rate and
// channel count come from the buffer's format; a missing channel count
// means mono. Non-wave targets are staged as a scratch wave file and
// converted through conv.
func Write(path string, buf *audio.FloatBuffer, byteDepth int, conv Converter) error {
	if buf == nil {
		return fmt.Errorf("%w: nil buffer", wave.ErrInvalidShape)
	}

	p := Params{Channels: 1, ByteDepth: byteDepth}

	if buf.Format != nil {
		p.SampleRate = buf.Format.SampleRate

		if buf.Format.NumChannels > 0 {
			p.Channels = buf.Format.NumChannels
		}
	}

	if p.SampleRate == 0 {
		return fmt.Errorf("%w: the buffer carries no sample rate", wave.ErrNotConfigured)
	}

	f, err := CreateFile(path, p, conv)
	if err != nil {
		return err
	}

	if err := f.WriteFrames(buf); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// FindConverter probes for an external converter, preferring SoX and
// falling back to FFmpeg. It returns nil when neither binary is
// installed. Probing runs a subprocess, so callers do it once and hold
// the result.
func FindConverter() Converter {
	if tool, err := sox.Find(); err == nil {
		return tool
	}

	if tool, err := ffmpeg.Find(); err == nil {
		return tool
	}

	return nil
}

// FindPlayer probes for an external player, currently SoX's play binary.
// It returns nil when none is installed.
func FindPlayer() Player {
	if tool, err := sox.Find(); err == nil && tool.HasPlay() {
		return tool
	}

	return nil
}
