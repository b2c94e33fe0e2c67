package ffmpeg

import (
	"errors"
	"os/exec"
	"reflect"
	"testing"
)

func captureTool(calls *[][]string) *Tool {
	return &Tool{
		path: "ffmpeg",
		runner: func(bin string, args ...string) error {
			*calls = append(*calls, append([]string{bin}, args...))
			return nil
		},
	}
}

func TestConvert_Args(t *testing.T) {
	testCases := []struct {
		desc       string
		sampleRate int
		channels   int
		expected   []string
	}{
		{
			desc:     "container only",
			expected: []string{"ffmpeg", "-y", "-i", "in.mp3", "out.wav"},
		},
		{
			desc:       "rate and channels",
			sampleRate: 22050,
			channels:   1,
			expected:   []string{"ffmpeg", "-y", "-i", "in.mp3", "-ac", "1", "-ar", "22050", "out.wav"},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.desc, func(t *testing.T) {
			var calls [][]string
			tool := captureTool(&calls)

			err := tool.Convert("in.mp3", "out.wav", testCase.sampleRate, testCase.channels, 0)
			if err != nil {
				t.Fatalf("convert: %v", err)
			}

			if len(calls) != 1 || !reflect.DeepEqual(calls[0], testCase.expected) {
				t.Fatalf("expected %q, got %q", testCase.expected, calls)
			}
		})
	}
}

func TestConvert_RejectsByteDepth(t *testing.T) {
	var calls [][]string
	tool := captureTool(&calls)

	if err := tool.Convert("in.mp3", "out.wav", 0, 0, 2); err == nil {
		t.Fatal("expected an error for a byte depth request")
	}

	if len(calls) != 0 {
		t.Fatalf("no command should run, got %q", calls)
	}
}

func TestNilTool(t *testing.T) {
	var tool *Tool

	if err := tool.Convert("a.wav", "b.wav", 0, 0, 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// TestFind exercises the real probe and skips on machines without ffmpeg.
func TestFind(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg is not installed")
	}

	if _, err := Find(); err != nil {
		t.Fatalf("find: %v", err)
	}
}
