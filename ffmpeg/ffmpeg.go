// Package ffmpeg shells out to the FFmpeg binary for format conversion.
// It backs the converter contract as the fallback when SoX is not
// installed.
package ffmpeg

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

var (
	// ErrNotFound is returned by Find when the ffmpeg binary is missing
	// or doesn't answer like FFmpeg.
	ErrNotFound = errors.New("ffmpeg not found")

	errByteDepth = errors.New("ffmpeg conversion can't set a byte depth")
)

type runFunc func(bin string, args ...string) error

// Tool is a located FFmpeg installation.
type Tool struct {
	path string

	runner runFunc // replaced by tests
}

// Find locates ffmpeg on the PATH and probes it with -version.
func Find() (*Tool, error) {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	out, err := exec.Command(path, "-version").CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("%w: probe failed: %v", ErrNotFound, err)
	}

	if !strings.Contains(string(out), "ffmpeg version") {
		return nil, fmt.Errorf("%w: %s doesn't answer like ffmpeg", ErrNotFound, path)
	}

	return &Tool{path: path}, nil
}

// Convert rewrites input as output, resampling and remixing on request.
// Zero values keep the source's parameters. Byte depth requests are not
// supported here and fail; callers that need one go through sox.
func (t *Tool) Convert(input, output string, sampleRate, channels, byteDepth int) error {
	if byteDepth != 0 {
		return fmt.Errorf("%w: %d", errByteDepth, byteDepth)
	}

	args := []string{"-y", "-i", input}

	if channels != 0 {
		args = append(args, "-ac", strconv.Itoa(channels))
	}

	if sampleRate != 0 {
		args = append(args, "-ar", strconv.Itoa(sampleRate))
	}

	args = append(args, output)

	return t.run(args...)
}

func (t *Tool) run(args ...string) error {
	if t == nil || t.path == "" {
		return ErrNotFound
	}

	if t.runner != nil {
		return t.runner(t.path, args...)
	}

	cmd := exec.Command(t.path, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("ffmpeg: %v: %s", err, msg)
		}

		return fmt.Errorf("ffmpeg: %v", err)
	}

	return nil
}
