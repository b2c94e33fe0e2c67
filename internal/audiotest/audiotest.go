// Package audiotest provides the shared signal fixtures used across the
// test suites.
package audiotest

import (
	"math"
	"testing"

	"github.com/go-audio/audio"

	"github.com/ejhumphrey/audiophile/wave"
)

// TonePattern returns repeats cycles of the {0, 0.5, 0, -0.5} test tone.
// At a sample rate of four times the target frequency the cycle traces a
// coarse sine whose PCM bytes are known exactly.
func TonePattern(repeats int) []float64 {
	out := make([]float64, 0, repeats*4)

	for i := 0; i < repeats; i++ {
		out = append(out, 0, 0.5, 0, -0.5)
	}

	return out
}

// Sine returns n samples of a unit amplitude sine at freq Hz.
func Sine(freq, sampleRate float64, n int) []float64 {
	out := make([]float64, n)

	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / sampleRate)
	}

	return out
}

// WriteWave builds a wav fixture at path through the wave encoder, failing
// the test on any error. data is interleaved when channels > 1.
func WriteWave(t *testing.T, path string, data []float64, channels, sampleRate, byteDepth int) {
	t.Helper()

	enc, err := wave.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}

	if err := enc.SetSampleRate(sampleRate); err != nil {
		t.Fatal(err)
	}

	if err := enc.SetChannels(channels); err != nil {
		t.Fatal(err)
	}

	if err := enc.SetByteDepth(byteDepth); err != nil {
		t.Fatal(err)
	}

	if len(data) > 0 {
		if err := enc.WriteFrames(&audio.FloatBuffer{Data: data}); err != nil {
			t.Fatalf("failed to write frames: %v", err)
		}
	}

	if err := enc.Close(); err != nil {
		t.Fatalf("failed to close %s: %v", path, err)
	}
}
