package wave

import "fmt"

// Extension is the canonical file extension for WAVE containers.
const Extension = ".wav"

const (
	// FormatPCM is the fmt chunk compression tag for linear PCM, the only
	// scheme this package reads or writes.
	FormatPCM = 1

	fmtChunkMinSize = 16
)

// Params describes a committed PCM stream: interleaved frames of signed
// little-endian samples, linear quantization.
type Params struct {
	SampleRate int
	Channels   int
	ByteDepth  int
	NumFrames  int
}

// String implements the Stringer interface.
func (p Params) String() string {
	return fmt.Sprintf("%d Hz, %d channel(s), %d byte(s) per sample, %d frames",
		p.SampleRate, p.Channels, p.ByteDepth, p.NumFrames)
}
