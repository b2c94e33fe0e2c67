package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/go-audio/audio"

	"github.com/ejhumphrey/audiophile/wave"
)

func main() {
	err := run(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	flagSet := flag.NewFlagSet("gen-tone", flag.ContinueOnError)

	output := flagSet.String("output", "tone.wav", "filename to write to")
	frequency := flagSet.Float64("frequency", 440, "frequency in hertz to generate")
	length := flagSet.Float64("length", 5, "length in seconds of output file")
	sampleRate := flagSet.Int("rate", 44100, "sample rate in hertz")
	channels := flagSet.Int("channels", 1, "number of channels")
	byteDepth := flagSet.Int("depth", 2, "bytes per sample, 2 or 4")
	amplitude := flagSet.Float64("amplitude", 0.9, "peak amplitude between 0 and 1")

	err := flagSet.Parse(args)
	if err != nil {
		return err
	}

	log.Printf("generating a %g sec tone at %g hz", *length, *frequency)

	enc, err := wave.Create(*output)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", *output, err)
	}

	if err := configure(enc, *sampleRate, *channels, *byteDepth); err != nil {
		enc.Close()
		return err
	}

	numFrames := int(float64(*sampleRate) * *length)

	buf := &audio.FloatBuffer{
		Data:   make([]float64, numFrames * *channels),
		Format: &audio.Format{NumChannels: *channels, SampleRate: *sampleRate},
	}

	for i := range numFrames {
		fv := *amplitude * math.Sin(float64(i) / float64(*sampleRate) * *frequency * 2 * math.Pi)

		row := i * *channels
		for c := range *channels {
			buf.Data[row+c] = fv
		}
	}

	if err := enc.WriteFrames(buf); err != nil {
		enc.Close()
		return err
	}

	return enc.Close()
}

func configure(enc *wave.Encoder, sampleRate, channels, byteDepth int) error {
	if err := enc.SetSampleRate(sampleRate); err != nil {
		return err
	}

	if err := enc.SetChannels(channels); err != nil {
		return err
	}

	return enc.SetByteDepth(byteDepth)
}
