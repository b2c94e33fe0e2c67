package audiophile

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/ejhumphrey/audiophile/internal/audiotest"
)

func approxEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) <= epsilon
}

func assertSamplesClose(t *testing.T, got, expected []float64, epsilon float64) {
	t.Helper()

	if len(got) != len(expected) {
		t.Fatalf("expected %d samples, got %d", len(expected), len(got))
	}

	for i := range expected {
		if !approxEqual(got[i], expected[i], epsilon) {
			t.Fatalf("sample %d: expected %v, got %v", i, expected[i], got[i])
		}
	}
}

// writeToneWav writes the canonical 440 sample mono test tone and returns
// its path: 110 cycles of {0, 0.5, 0, -0.5} at 440 Hz, 16-bit.
func writeToneWav(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tone.wav")
	audiotest.WriteWave(t, path, audiotest.TonePattern(110), 1, 440, 2)

	return path
}
