// This tool prints the stream parameters of the passed audio file. Wave
// files are inspected natively; anything else goes through soxi when SoX
// is installed.
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ejhumphrey/audiophile/sox"
	"github.com/ejhumphrey/audiophile/wave"
)

const missingPathMessage = "You must pass the path of the file to inspect"

func main() {
	err := run(os.Args[1:], os.Stdout)
	if err == nil {
		return
	}

	if errors.Is(err, errMissingPath) {
		fmt.Println(missingPathMessage)
		os.Exit(1)
	}

	log.Fatal(err)
}

var errMissingPath = errors.New("missing path argument")

func run(args []string, out io.Writer) error {
	if len(args) < 1 {
		return errMissingPath
	}

	path := args[0]

	if strings.EqualFold(filepath.Ext(path), wave.Extension) {
		return printWave(path, out)
	}

	return printViaSoxi(path, out)
}

func printWave(path string, out io.Writer) error {
	dec, err := wave.Open(path)
	if err != nil {
		return err
	}
	defer dec.Close()

	params, err := dec.Params()
	if err != nil {
		return err
	}

	duration, err := dec.Duration()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "File: %s\n", path)
	fmt.Fprintf(out, "Stream: %s\n", params)
	fmt.Fprintf(out, "Duration: %s\n", duration)
	fmt.Fprintln(out, "Chunks:")

	for _, c := range dec.Chunks() {
		fmt.Fprintf(out, "\t%s\n", c)
	}

	return nil
}

func printViaSoxi(path string, out io.Writer) error {
	tool, err := sox.Find()
	if err != nil {
		return fmt.Errorf("only wave files can be inspected without SoX: %w", err)
	}

	info, err := tool.Info(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "File: %s\n", path)
	fmt.Fprintf(out, "Stream: %d Hz, %d channel(s), %d bit(s) per sample, %d frames\n",
		info.SampleRate, info.Channels, info.Precision, info.NumSamples)
	fmt.Fprintf(out, "Duration: %s\n", info.Duration)
	fmt.Fprintf(out, "Encoding: %s\n", info.Encoding)

	return nil
}
