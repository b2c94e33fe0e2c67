// This tool converts one or more audio files to the requested stream
// parameters through whichever converter binary is installed, running
// the conversions concurrently.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ejhumphrey/audiophile"
)

var (
	errNoInputs    = errors.New("pass at least one input file")
	errNoConverter = errors.New("neither sox nor ffmpeg is installed")
)

func main() {
	err := run(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
}

// request holds the target parameters shared by every conversion in a
// batch.
type request struct {
	outDir string
	ext    string

	sampleRate int
	channels   int
	byteDepth  int

	jobs int
}

func run(args []string) error {
	flagSet := flag.NewFlagSet("audioconvert", flag.ContinueOnError)

	outDir := flagSet.String("outdir", "", "directory to write into; defaults to each source's directory")
	ext := flagSet.String("ext", ".wav", "target extension")
	sampleRate := flagSet.Int("rate", 0, "target sample rate in hertz, 0 keeps the source's")
	channels := flagSet.Int("channels", 0, "target channel count, 0 keeps the source's")
	byteDepth := flagSet.Int("depth", 0, "target bytes per sample, 0 keeps the source's")
	jobs := flagSet.Int("jobs", 4, "how many conversions run at once")

	if err := flagSet.Parse(args); err != nil {
		return err
	}

	inputs := flagSet.Args()
	if len(inputs) == 0 {
		return errNoInputs
	}

	conv := audiophile.FindConverter()
	if conv == nil {
		return errNoConverter
	}

	req := request{
		outDir:     *outDir,
		ext:        *ext,
		sampleRate: *sampleRate,
		channels:   *channels,
		byteDepth:  *byteDepth,
		jobs:       *jobs,
	}

	return convertAll(context.Background(), conv, inputs, req)
}

// convertAll runs every conversion under a bounded errgroup and returns
// the first failure, cancelling the rest of the batch.
func convertAll(ctx context.Context, conv audiophile.Converter, inputs []string, req request) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(req.jobs)

	for _, input := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			output := targetPath(input, req.outDir, req.ext)
			if output == input {
				return fmt.Errorf("%s: refusing to overwrite the source", input)
			}

			if err := conv.Convert(input, output, req.sampleRate, req.channels, req.byteDepth); err != nil {
				return fmt.Errorf("%s: %w", input, err)
			}

			log.Printf("converted %s to %s", input, output)

			return nil
		})
	}

	return g.Wait()
}

// targetPath swaps the input's extension and optionally its directory.
func targetPath(input, outDir, ext string) string {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + ext

	if outDir == "" {
		return filepath.Join(filepath.Dir(input), base)
	}

	return filepath.Join(outDir, base)
}
