package audiophile

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
)

// DefaultSampleRate is assumed for signals that don't carry their own.
const DefaultSampleRate = 44100

var (
	errNilPlayer    = errors.New("a player is needed")
	errEmptySignal  = errors.New("can't play an empty signal")
	errSilentSignal = errors.New("can't scale an all-zero signal")
)

// Soundsc scales a copy of buf so its peak sits at 0.98 of full scale,
// stages it as a scratch 16-bit wave file and plays it through player.
// The scratch file is removed on every path.
func Soundsc(buf *audio.FloatBuffer, player Player) error {
	if player == nil {
		return errNilPlayer
	}

	if buf == nil || len(buf.Data) == 0 {
		return errEmptySignal
	}

	var peak float64

	for _, v := range buf.Data {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}

	if peak == 0 {
		return errSilentSignal
	}

	scale := 0.98 / peak

	scaled := &audio.FloatBuffer{
		Data: make([]float64, len(buf.Data)),
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  DefaultSampleRate,
		},
		SourceBitDepth: 16,
	}

	if buf.Format != nil {
		if buf.Format.NumChannels > 0 {
			scaled.Format.NumChannels = buf.Format.NumChannels
		}

		if buf.Format.SampleRate > 0 {
			scaled.Format.SampleRate = buf.Format.SampleRate
		}
	}

	for i, v := range buf.Data {
		scaled.Data[i] = v * scale
	}

	scratch, err := scratchWave()
	if err != nil {
		return err
	}
	defer os.Remove(scratch)

	if err := Write(scratch, scaled, 2, nil); err != nil {
		return fmt.Errorf("failed to stage the playback file: %w", err)
	}

	return player.Play(scratch, 0, 0)
}
