// Package sox shells out to the SoX command line tools: sox itself for
// conversion and editing, play for playback and soxi for stream
// inspection.
//
// Formats beyond plain wave depend on how the local SoX build was
// compiled; compressed formats like mp3 need their codec libraries baked
// into the binary.
package sox

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	// ErrNotFound is returned by Find when the sox binary is missing or
	// doesn't answer like SoX.
	ErrNotFound = errors.New("sox not found")

	errNoPlay          = errors.New("the play binary is not installed")
	errNoSoxi          = errors.New("the soxi binary is not installed")
	errBadByteDepth    = errors.New("byte depth not supported by sox")
	errBadFadeShape    = errors.New("unknown fade shape")
	errNegativeTime    = errors.New("time values must not be negative")
	errNotEnoughInputs = errors.New("at least two inputs are needed")
)

type runFunc func(bin string, args ...string) error

// Tool is a located SoX installation.
type Tool struct {
	soxPath  string
	playPath string
	soxiPath string
	formats  []string

	runner runFunc // replaced by tests
}

// Find locates sox on the PATH and probes it, picking up the companion
// play and soxi binaries when present. The probe's help output carries
// the formats listing IsValidFormat checks against.
func Find() (*Tool, error) {
	soxPath, err := exec.LookPath("sox")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	out, err := exec.Command(soxPath, "-h").CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("%w: probe failed: %v", ErrNotFound, err)
	}

	if !strings.Contains(string(out), "SPECIAL FILENAMES") {
		return nil, fmt.Errorf("%w: %s doesn't answer like sox", ErrNotFound, soxPath)
	}

	t := &Tool{soxPath: soxPath, formats: parseFormats(string(out))}

	if path, err := exec.LookPath("play"); err == nil {
		t.playPath = path
	}

	if path, err := exec.LookPath("soxi"); err == nil {
		t.soxiPath = path
	}

	return t, nil
}

// HasPlay reports whether the play binary was found alongside sox.
func (t *Tool) HasPlay() bool {
	return t != nil && t.playPath != ""
}

// Convert rewrites input as output with the requested stream parameters,
// where zero keeps the source's value. Dithering is disabled so sample
// values stay exact.
func (t *Tool) Convert(input, output string, sampleRate, channels, byteDepth int) error {
	args := []string{"--no-dither", input}

	if byteDepth != 0 {
		switch byteDepth {
		case 1, 2, 3, 4, 8:
		default:
			return fmt.Errorf("%w: %d", errBadByteDepth, byteDepth)
		}

		args = append(args, "-b", strconv.Itoa(byteDepth*8))
	}

	if channels != 0 {
		args = append(args, "-c", strconv.Itoa(channels))
	}

	args = append(args, output)

	if sampleRate != 0 {
		args = append(args, "rate", "-I", strconv.Itoa(sampleRate))
	}

	return t.sox(args...)
}

// Play plays path from start to end seconds through the play binary at a
// normalized level. A non-positive end plays through to the end of the
// file.
func (t *Tool) Play(path string, start, end float64) error {
	if t == nil || t.playPath == "" {
		return errNoPlay
	}

	args := []string{"--norm", "--no-show-progress", path, "trim", decimal(start)}

	if end > 0 {
		args = append(args, "="+decimal(end))
	}

	return t.run(t.playPath, args...)
}

// Trim excerpts the clip between start and end seconds.
func (t *Tool) Trim(input, output string, start, end float64) error {
	if start < 0 {
		return fmt.Errorf("%w: start %v", errNegativeTime, start)
	}

	if end < start {
		return fmt.Errorf("end %v is before start %v", end, start)
	}

	return t.sox(input, output, "trim", decimal(start), decimal(end-start))
}

// Pad adds startDur seconds of silence to the front of the stream and
// endDur seconds to the back.
func (t *Tool) Pad(input, output string, startDur, endDur float64) error {
	if startDur < 0 || endDur < 0 {
		return fmt.Errorf("%w: %v, %v", errNegativeTime, startDur, endDur)
	}

	return t.sox(input, output, "pad", decimal(startDur), decimal(endDur))
}

// Fade applies a fade-in over fadeIn seconds and a fade-out over fadeOut
// seconds. shape picks the curve: "q" quarter sine, "h" half sine, "t"
// linear, "l" logarithmic or "p" inverted parabola.
func (t *Tool) Fade(input, output string, fadeIn, fadeOut float64, shape string) error {
	switch shape {
	case "q", "h", "t", "l", "p":
	default:
		return fmt.Errorf("%w: %q", errBadFadeShape, shape)
	}

	if fadeIn < 0 || fadeOut < 0 {
		return fmt.Errorf("%w: %v, %v", errNegativeTime, fadeIn, fadeOut)
	}

	return t.sox(input, output, "fade", shape, decimal(fadeIn), "0", decimal(fadeOut))
}

// Mix sums the inputs into one stream.
func (t *Tool) Mix(inputs []string, output string) error {
	if len(inputs) < 2 {
		return errNotEnoughInputs
	}

	args := append([]string{"-m"}, inputs...)
	args = append(args, output)

	return t.sox(args...)
}

// Concatenate joins the inputs end to end.
func (t *Tool) Concatenate(inputs []string, output string) error {
	if len(inputs) < 2 {
		return errNotEnoughInputs
	}

	args := append([]string{"--combine", "concatenate"}, inputs...)
	args = append(args, output)

	return t.sox(args...)
}

// Normalize scales the stream to peak at dbLevel decibels.
func (t *Tool) Normalize(input, output string, dbLevel float64) error {
	return t.sox("--norm="+decimal(dbLevel), input, output)
}

// RemoveSilence strips silent stretches from the stream. threshold is
// the silence level as a percentage of full scale; minDuration is how
// long the signal must stay above it to count as sound.
func (t *Tool) RemoveSilence(input, output string, threshold, minDuration float64) error {
	if threshold < 0 || minDuration < 0 {
		return fmt.Errorf("%w: %v, %v", errNegativeTime, threshold, minDuration)
	}

	dur := decimal(minDuration)
	level := decimal(threshold) + "%"

	return t.sox(input, output, "silence", "1", dur, level, "-1", dur, level)
}

// SplitStereo writes the two channels of a stereo input as separate mono
// files.
func (t *Tool) SplitStereo(input, left, right string) error {
	if err := t.sox("-D", input, left, "remix", "1"); err != nil {
		return err
	}

	return t.sox("-D", input, right, "remix", "2")
}

// CombineAsStereo merges two mono files into one stereo stream, left on
// channel 1 and right on channel 2.
func (t *Tool) CombineAsStereo(left, right, output string) error {
	return t.sox("-M", left, right, output)
}

// IsValidFormat reports whether this SoX build handles files with the
// given extension, dot or not.
func (t *Tool) IsValidFormat(ext string) bool {
	if t == nil {
		return false
	}

	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" {
		return false
	}

	// plain wave always works
	if ext == "wav" {
		return true
	}

	for _, format := range t.formats {
		if format == ext {
			return true
		}
	}

	return false
}

// sox dispatches one invocation of the main binary.
func (t *Tool) sox(args ...string) error {
	if t == nil {
		return ErrNotFound
	}

	return t.run(t.soxPath, args...)
}

func (t *Tool) run(bin string, args ...string) error {
	if t == nil || bin == "" {
		return ErrNotFound
	}

	if t.runner != nil {
		return t.runner(bin, args...)
	}

	return runCommand(bin, args...)
}

// runCommand executes one command, folding its stderr into the returned
// error.
func runCommand(bin string, args ...string) error {
	cmd := exec.Command(bin, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %v: %s", filepath.Base(bin), err, msg)
		}

		return fmt.Errorf("%s: %v", filepath.Base(bin), err)
	}

	return nil
}

// decimal renders a float the way sox likes its numeric arguments.
func decimal(v float64) string {
	return strconv.FormatFloat(v, 'f', 8, 64)
}

// parseFormats pulls the supported format names out of the sox help
// listing.
func parseFormats(help string) []string {
	for _, line := range strings.Split(help, "\n") {
		if !strings.Contains(line, "AUDIO FILE FORMATS") {
			continue
		}

		if _, rest, ok := strings.Cut(line, ":"); ok {
			return strings.Fields(rest)
		}
	}

	return nil
}
