// This tool converts a wav file into an aiff file and stores it in the
// same folder as the source.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"

	"github.com/ejhumphrey/audiophile/wave"
)

const chunkFrames = 100000

var errMissingPath = errors.New("the -path flag is required")

func main() {
	err := run(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	flagSet := flag.NewFlagSet("wav2aiff", flag.ContinueOnError)

	path := flagSet.String("path", "", "path of the wav file to convert")
	output := flagSet.String("output", "", "path to write; defaults to the source with an .aif extension")

	if err := flagSet.Parse(args); err != nil {
		return err
	}

	if *path == "" {
		return errMissingPath
	}

	outPath := *output
	if outPath == "" {
		outPath = strings.TrimSuffix(*path, filepath.Ext(*path)) + ".aif"
	}

	if err := convert(*path, outPath); err != nil {
		return err
	}

	log.Printf("wav file converted to %s", outPath)

	return nil
}

func convert(inPath, outPath string) error {
	dec, err := wave.Open(inPath)
	if err != nil {
		return err
	}
	defer dec.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outPath, err)
	}

	bitDepth := dec.ByteDepth() * 8
	enc := aiff.NewEncoder(out, dec.SampleRate(), bitDepth, dec.Channels())

	for {
		buf, err := dec.ReadFrames(chunkFrames)
		if err != nil {
			out.Close()
			return err
		}

		if len(buf.Data) == 0 {
			break
		}

		if err := enc.Write(intBuffer(buf, bitDepth)); err != nil {
			out.Close()
			return fmt.Errorf("failed to write %s: %w", outPath, err)
		}
	}

	if err := enc.Close(); err != nil {
		out.Close()
		return fmt.Errorf("failed to finalize %s: %w", outPath, err)
	}

	return out.Close()
}

// intBuffer rescales unit-range samples into the integer range the aiff
// encoder expects for the given bit depth.
func intBuffer(buf *audio.FloatBuffer, bitDepth int) *audio.IntBuffer {
	scale := math.Pow(2, float64(bitDepth-1))

	out := &audio.IntBuffer{
		Format:         buf.Format,
		SourceBitDepth: bitDepth,
		Data:           make([]int, len(buf.Data)),
	}

	for i, v := range buf.Data {
		s := math.Trunc(v * scale)

		if s > scale-1 {
			s = scale - 1
		}

		if s < -scale {
			s = -scale
		}

		out.Data[i] = int(s)
	}

	return out
}
