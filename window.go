package audiophile

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrSequenceExhausted is returned by NextTimePoint once every time
	// point in the window sequence has been consumed.
	ErrSequenceExhausted = errors.New("window sequence exhausted")

	errInvalidFrameSize  = errors.New("frame size must be positive")
	errInvalidWindowRate = errors.New("sample rate must be positive")
	errInvalidTotal      = errors.New("total sample count can't be negative")
	errInvalidFramerate  = errors.New("framerate must be positive")
	errInvalidStride     = errors.New("stride must be positive")
	errInvalidOverlap    = errors.New("overlap must be less than 1")
	errNoTimePoints      = errors.New("at least one time point is needed")
	errInvalidAlignment  = errors.New("unknown alignment")
)

// Alignment names where a time point sits inside its frame.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// IsValid reports whether a is one of the three known alignments.
func (a Alignment) IsValid() bool {
	switch a {
	case AlignLeft, AlignCenter, AlignRight:
		return true
	}

	return false
}

// Window turns a signal's length into a sequence of frame time points. The
// spacing comes from a single stride rule expressed in whichever unit is
// handy, framerate in Hz, stride in samples, or overlap as a fraction of
// the frame, with each setter recomputing the same underlying stride.
// Setting explicit time points replaces the uniform rule entirely and
// leaves the triple undefined.
//
// Every stride rule setter resets iteration to the first frame.
type Window struct {
	framesize    int
	sampleRate   int
	totalSamples int

	stride float64
	points []float64 // explicit time points, nil in uniform mode

	alignment Alignment
	offset    float64

	index int
}

// NewWindow returns a window over totalSamples samples with a half frame
// of overlap, center alignment and no offset.
func NewWindow(framesize, sampleRate, totalSamples int) (*Window, error) {
	if framesize < 1 {
		return nil, fmt.Errorf("%w: %d", errInvalidFrameSize, framesize)
	}

	if sampleRate < 1 {
		return nil, fmt.Errorf("%w: %d", errInvalidWindowRate, sampleRate)
	}

	if totalSamples < 0 {
		return nil, fmt.Errorf("%w: %d", errInvalidTotal, totalSamples)
	}

	w := &Window{
		framesize:    framesize,
		sampleRate:   sampleRate,
		totalSamples: totalSamples,
		stride:       0.5 * float64(framesize),
		alignment:    AlignCenter,
	}

	return w, nil
}

// FrameSize returns the frame length in samples.
func (w *Window) FrameSize() int {
	if w == nil {
		return 0
	}

	return w.framesize
}

// SampleRate returns the sample rate in Hz.
func (w *Window) SampleRate() int {
	if w == nil {
		return 0
	}

	return w.sampleRate
}

// SetFramerate spaces frames framerate per second apart.
func (w *Window) SetFramerate(fps float64) error {
	if fps <= 0 {
		return fmt.Errorf("%w: %v", errInvalidFramerate, fps)
	}

	w.stride = float64(w.sampleRate) / fps
	w.points = nil
	w.Reset()

	return nil
}

// SetStride spaces frames stride samples apart.
func (w *Window) SetStride(samples float64) error {
	if samples <= 0 {
		return fmt.Errorf("%w: %v", errInvalidStride, samples)
	}

	w.stride = samples
	w.points = nil
	w.Reset()

	return nil
}

// SetOverlap spaces frames so that consecutive frames share the given
// fraction of their length. Values at or below zero leave gaps between
// frames; values of 1 or more would never advance and are rejected.
func (w *Window) SetOverlap(frac float64) error {
	if frac >= 1 {
		return fmt.Errorf("%w: %v", errInvalidOverlap, frac)
	}

	w.stride = float64(w.framesize) * (1 - frac)
	w.points = nil
	w.Reset()

	return nil
}

// SetTimePoints replaces the uniform stride rule with an explicit sequence
// of frame start times in seconds. Framerate, stride and overlap become
// undefined until a uniform setter runs again.
func (w *Window) SetTimePoints(pts []float64) error {
	if len(pts) == 0 {
		return errNoTimePoints
	}

	w.points = append([]float64(nil), pts...)
	w.Reset()

	return nil
}

// Framerate returns the frame rate in Hz. ok is false when explicit time
// points are in effect.
func (w *Window) Framerate() (float64, bool) {
	if w == nil || w.points != nil {
		return 0, false
	}

	return float64(w.sampleRate) / w.stride, true
}

// Stride returns the frame spacing in samples. ok is false when explicit
// time points are in effect.
func (w *Window) Stride() (float64, bool) {
	if w == nil || w.points != nil {
		return 0, false
	}

	return w.stride, true
}

// Overlap returns the shared fraction between consecutive frames. ok is
// false when explicit time points are in effect.
func (w *Window) Overlap() (float64, bool) {
	if w == nil || w.points != nil {
		return 0, false
	}

	return 1 - w.stride/float64(w.framesize), true
}

// TimePoints returns the raw frame start times in seconds, before any
// alignment shift or offset.
func (w *Window) TimePoints() []float64 {
	if w == nil {
		return nil
	}

	if w.points != nil {
		return append([]float64(nil), w.points...)
	}

	pts := make([]float64, w.NumFrames())
	for i := range pts {
		pts[i] = w.timePoint(i)
	}

	return pts
}

// NumFrames returns how many frames the sequence yields.
func (w *Window) NumFrames() int {
	if w == nil {
		return 0
	}

	if w.points != nil {
		return len(w.points)
	}

	return int(math.Ceil(float64(w.totalSamples) / w.stride))
}

// SetAlignment picks where each time point sits inside its frame.
func (w *Window) SetAlignment(a Alignment) error {
	if !a.IsValid() {
		return fmt.Errorf("%w: %q", errInvalidAlignment, string(a))
	}

	w.alignment = a

	return nil
}

// Alignment returns the current alignment.
func (w *Window) Alignment() Alignment {
	if w == nil {
		return ""
	}

	return w.alignment
}

// SetOffset shifts every time point by the given number of seconds.
func (w *Window) SetOffset(seconds float64) {
	w.offset = seconds
}

// Offset returns the current shift in seconds.
func (w *Window) Offset() float64 {
	if w == nil {
		return 0
	}

	return w.offset
}

// NextTimePoint consumes and returns the next time point, adjusted for
// alignment and offset. Once the sequence is spent it fails
// ErrSequenceExhausted until Reset.
func (w *Window) NextTimePoint() (float64, error) {
	if w == nil || w.Done() {
		return 0, ErrSequenceExhausted
	}

	t := w.timePoint(w.index)
	w.index++

	return t + w.alignmentShift() + w.offset, nil
}

// Done reports whether every time point has been consumed.
func (w *Window) Done() bool {
	if w == nil {
		return true
	}

	return w.index >= w.NumFrames()
}

// Reset rewinds iteration to the first frame.
func (w *Window) Reset() {
	if w == nil {
		return
	}

	w.index = 0
}

// TimeToSampleIndex converts a time in seconds to the nearest sample
// index, rounding halves away from zero.
func (w *Window) TimeToSampleIndex(t float64) int {
	if w == nil {
		return 0
	}

	return int(math.Round(t * float64(w.sampleRate)))
}

// timePoint returns the raw start time of frame i in seconds.
func (w *Window) timePoint(i int) float64 {
	if w.points != nil {
		return w.points[i]
	}

	return float64(i) * w.stride / float64(w.sampleRate)
}

// alignmentShift moves a raw time point so the frame sits left of, around
// or right of it.
func (w *Window) alignmentShift() float64 {
	switch w.alignment {
	case AlignCenter:
		return -0.5 * float64(w.framesize) / float64(w.sampleRate)
	case AlignRight:
		return -float64(w.framesize) / float64(w.sampleRate)
	}

	return 0
}
