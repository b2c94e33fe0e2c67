package sox

import (
	"errors"
	"os/exec"
	"reflect"
	"testing"
)

// captureTool records every command instead of running it.
func captureTool(calls *[][]string) *Tool {
	return &Tool{
		soxPath:  "sox",
		playPath: "play",
		soxiPath: "soxi",
		runner: func(bin string, args ...string) error {
			*calls = append(*calls, append([]string{bin}, args...))
			return nil
		},
	}
}

func assertCall(t *testing.T, calls [][]string, index int, expected []string) {
	t.Helper()

	if index >= len(calls) {
		t.Fatalf("expected at least %d commands, got %d", index+1, len(calls))
	}

	if !reflect.DeepEqual(calls[index], expected) {
		t.Fatalf("command %d:\nexpected %q\ngot      %q", index, expected, calls[index])
	}
}

func TestConvert_Args(t *testing.T) {
	testCases := []struct {
		desc       string
		sampleRate int
		channels   int
		byteDepth  int
		expected   []string
	}{
		{
			desc:     "container only",
			expected: []string{"sox", "--no-dither", "in.mp3", "out.wav"},
		},
		{
			desc:       "every parameter",
			sampleRate: 44100,
			channels:   2,
			byteDepth:  2,
			expected: []string{
				"sox", "--no-dither", "in.mp3", "-b", "16", "-c", "2",
				"out.wav", "rate", "-I", "44100",
			},
		},
		{
			desc:      "byte depth alone",
			byteDepth: 3,
			expected:  []string{"sox", "--no-dither", "in.mp3", "-b", "24", "out.wav"},
		},
		{
			desc:       "sample rate alone",
			sampleRate: 8000,
			expected:   []string{"sox", "--no-dither", "in.mp3", "out.wav", "rate", "-I", "8000"},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.desc, func(t *testing.T) {
			var calls [][]string
			tool := captureTool(&calls)

			err := tool.Convert("in.mp3", "out.wav",
				testCase.sampleRate, testCase.channels, testCase.byteDepth)
			if err != nil {
				t.Fatalf("convert: %v", err)
			}

			assertCall(t, calls, 0, testCase.expected)
		})
	}
}

func TestConvert_RejectsOddByteDepth(t *testing.T) {
	var calls [][]string
	tool := captureTool(&calls)

	if err := tool.Convert("in.wav", "out.wav", 0, 0, 5); err == nil {
		t.Fatal("expected an error for byte depth 5")
	}

	if len(calls) != 0 {
		t.Fatalf("no command should run, got %q", calls)
	}
}

func TestPlay_Args(t *testing.T) {
	var calls [][]string
	tool := captureTool(&calls)

	if err := tool.Play("tone.wav", 1.5, 0); err != nil {
		t.Fatalf("play: %v", err)
	}

	assertCall(t, calls, 0, []string{
		"play", "--norm", "--no-show-progress", "tone.wav", "trim", "1.50000000",
	})

	if err := tool.Play("tone.wav", 0, 2); err != nil {
		t.Fatalf("play with end: %v", err)
	}

	assertCall(t, calls, 1, []string{
		"play", "--norm", "--no-show-progress", "tone.wav", "trim", "0.00000000", "=2.00000000",
	})
}

func TestPlay_NeedsThePlayBinary(t *testing.T) {
	tool := &Tool{soxPath: "sox"}

	if err := tool.Play("tone.wav", 0, 0); err == nil {
		t.Fatal("expected an error without the play binary")
	}
}

func TestEditingVerbs_Args(t *testing.T) {
	testCases := []struct {
		desc     string
		invoke   func(tool *Tool) error
		expected []string
	}{
		{
			desc:     "trim passes start and duration",
			invoke:   func(tool *Tool) error { return tool.Trim("in.wav", "out.wav", 1, 3) },
			expected: []string{"sox", "in.wav", "out.wav", "trim", "1.00000000", "2.00000000"},
		},
		{
			desc:     "pad",
			invoke:   func(tool *Tool) error { return tool.Pad("in.wav", "out.wav", 0.5, 1) },
			expected: []string{"sox", "in.wav", "out.wav", "pad", "0.50000000", "1.00000000"},
		},
		{
			desc:     "fade",
			invoke:   func(tool *Tool) error { return tool.Fade("in.wav", "out.wav", 0.5, 1, "q") },
			expected: []string{"sox", "in.wav", "out.wav", "fade", "q", "0.50000000", "0", "1.00000000"},
		},
		{
			desc:     "mix",
			invoke:   func(tool *Tool) error { return tool.Mix([]string{"a.wav", "b.wav"}, "out.wav") },
			expected: []string{"sox", "-m", "a.wav", "b.wav", "out.wav"},
		},
		{
			desc: "concatenate",
			invoke: func(tool *Tool) error {
				return tool.Concatenate([]string{"a.wav", "b.wav"}, "out.wav")
			},
			expected: []string{"sox", "--combine", "concatenate", "a.wav", "b.wav", "out.wav"},
		},
		{
			desc:     "normalize",
			invoke:   func(tool *Tool) error { return tool.Normalize("in.wav", "out.wav", -3) },
			expected: []string{"sox", "--norm=-3.00000000", "in.wav", "out.wav"},
		},
		{
			desc: "remove silence",
			invoke: func(tool *Tool) error {
				return tool.RemoveSilence("in.wav", "out.wav", 0.1, 0.5)
			},
			expected: []string{
				"sox", "in.wav", "out.wav", "silence",
				"1", "0.50000000", "0.10000000%",
				"-1", "0.50000000", "0.10000000%",
			},
		},
		{
			desc: "combine as stereo",
			invoke: func(tool *Tool) error {
				return tool.CombineAsStereo("left.wav", "right.wav", "out.wav")
			},
			expected: []string{"sox", "-M", "left.wav", "right.wav", "out.wav"},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.desc, func(t *testing.T) {
			var calls [][]string
			tool := captureTool(&calls)

			if err := testCase.invoke(tool); err != nil {
				t.Fatalf("invoke: %v", err)
			}

			assertCall(t, calls, 0, testCase.expected)
		})
	}
}

func TestSplitStereo_RunsTwice(t *testing.T) {
	var calls [][]string
	tool := captureTool(&calls)

	if err := tool.SplitStereo("in.wav", "left.wav", "right.wav"); err != nil {
		t.Fatalf("split: %v", err)
	}

	assertCall(t, calls, 0, []string{"sox", "-D", "in.wav", "left.wav", "remix", "1"})
	assertCall(t, calls, 1, []string{"sox", "-D", "in.wav", "right.wav", "remix", "2"})
}

func TestVerbs_Validation(t *testing.T) {
	var calls [][]string
	tool := captureTool(&calls)

	if err := tool.Trim("in.wav", "out.wav", -1, 2); err == nil {
		t.Fatal("expected an error for a negative start")
	}

	if err := tool.Trim("in.wav", "out.wav", 3, 1); err == nil {
		t.Fatal("expected an error for an end before the start")
	}

	if err := tool.Pad("in.wav", "out.wav", -0.1, 0); err == nil {
		t.Fatal("expected an error for a negative pad")
	}

	if err := tool.Fade("in.wav", "out.wav", 1, 1, "x"); err == nil {
		t.Fatal("expected an error for an unknown fade shape")
	}

	if err := tool.Mix([]string{"only.wav"}, "out.wav"); err == nil {
		t.Fatal("expected an error mixing a single input")
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

	if tool.HasPlay() {
		t.Fatal("a nil tool has no play binary")
	}

	if tool.IsValidFormat("wav") {
		t.Fatal("a nil tool validates nothing")
	}
}

func TestIsValidFormat(t *testing.T) {
	tool := &Tool{formats: []string{"aiff", "flac", "mp3"}}

	testCases := []struct {
		ext      string
		expected bool
	}{
		{ext: "mp3", expected: true},
		{ext: ".mp3", expected: true},
		{ext: ".MP3", expected: true},
		{ext: "wav", expected: true}, // always handled natively
		{ext: "ogg", expected: false},
		{ext: "", expected: false},
		{ext: ".", expected: false},
	}

	for _, testCase := range testCases {
		if got := tool.IsValidFormat(testCase.ext); got != testCase.expected {
			t.Fatalf("%q: expected %v, got %v", testCase.ext, testCase.expected, got)
		}
	}
}

func TestParseFormats(t *testing.T) {
	help := `sox: SoX v14.4.2

Usage summary: [gopts] [[fopts] infile]... [fopts] outfile [effect [effopt]]...

SPECIAL FILENAMES (infile, outfile):
-                        Pipe/redirect input/output (stdin/stdout); may need -t

AUDIO FILE FORMATS: 8svx aif aifc aiff al amb au avr cdda flac gsm mp3 ogg raw voc wav wv xa
PLAYLIST FORMATS: m3u pls AUDIO DEVICE DRIVERS: alsa oss ossdsp
`

	formats := parseFormats(help)

	if len(formats) != 18 {
		t.Fatalf("expected 18 formats, got %d: %q", len(formats), formats)
	}

	found := map[string]bool{}
	for _, format := range formats {
		found[format] = true
	}

	for _, expected := range []string{"wav", "flac", "mp3", "8svx"} {
		if !found[expected] {
			t.Fatalf("expected %q in the formats listing", expected)
		}
	}

	if parseFormats("no such line here") != nil {
		t.Fatal("expected nil for help output without a formats line")
	}
}

// TestFind exercises the real probe and skips on machines without sox.
func TestFind(t *testing.T) {
	if _, err := exec.LookPath("sox"); err != nil {
		t.Skip("sox is not installed")
	}

	tool, err := Find()
	if err != nil {
		t.Fatalf("find: %v", err)
	}

	if !tool.IsValidFormat("wav") {
		t.Fatal("a probed sox should support wav")
	}
}
