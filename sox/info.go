package sox

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// FileInfo is the parsed output of soxi for one audio file.
type FileInfo struct {
	Channels   int
	SampleRate int
	Precision  int // bits per sample
	NumSamples int
	Duration   time.Duration
	Encoding   string
}

// Info inspects path through soxi. Unlike the native codec this works
// for every format the SoX build understands.
func (t *Tool) Info(path string) (*FileInfo, error) {
	if t == nil || t.soxiPath == "" {
		return nil, errNoSoxi
	}

	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	out, err := exec.Command(t.soxiPath, path).Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			if msg := strings.TrimSpace(string(exitErr.Stderr)); msg != "" {
				return nil, fmt.Errorf("soxi: %v: %s", err, msg)
			}
		}

		return nil, fmt.Errorf("soxi: %v", err)
	}

	return parseInfo(string(out)), nil
}

// parseInfo reads soxi's "key : value" lines. Unknown keys are ignored
// and unparsable values leave their field at zero.
func parseInfo(out string) *FileInfo {
	info := &FileInfo{}

	for _, line := range strings.Split(out, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}

		key, value = strings.TrimSpace(key), strings.TrimSpace(value)

		switch key {
		case "Channels":
			if n, err := strconv.Atoi(value); err == nil {
				info.Channels = n
			}
		case "Sample Rate":
			if n, err := strconv.Atoi(value); err == nil {
				info.SampleRate = n
			}
		case "Precision":
			// rendered as "16-bit"
			if bits, _, ok := strings.Cut(value, "-"); ok {
				if n, err := strconv.Atoi(bits); err == nil {
					info.Precision = n
				}
			}
		case "Duration":
			// rendered as "00:00:01.00 = 440 samples ~ 75 CDDA sectors"
			clock, rest, _ := strings.Cut(value, "=")

			if d, err := parseClock(strings.TrimSpace(clock)); err == nil {
				info.Duration = d
			}

			if fields := strings.Fields(rest); len(fields) > 0 {
				if n, err := strconv.Atoi(fields[0]); err == nil {
					info.NumSamples = n
				}
			}
		case "Sample Encoding":
			info.Encoding = value
		}
	}

	return info
}

// parseClock converts soxi's hh:mm:ss.cc duration field.
func parseClock(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("malformed clock value %q", s)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("malformed clock value %q", s)
	}

	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("malformed clock value %q", s)
	}

	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, fmt.Errorf("malformed clock value %q", s)
	}

	total := float64(hours*3600+minutes*60) + seconds

	return time.Duration(total * float64(time.Second)), nil
}
