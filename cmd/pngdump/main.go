// Command pngdump decodes a PNG file's pixel data and reports its
// shape, optionally writing the raw decoded rows to a file. It exists
// to exercise the decoder end to end, not to re-encode images.
package main

import (
	"flag"
	"fmt"
	"os"

	pngcore "github.com/nwinter/pngcore"
	"github.com/nwinter/pngcore/internal/stream"
)

type commandOptions struct {
	Input  string
	Raw    string
	Expand bool
}

var showHelp bool
var options commandOptions

func init() {
	flag.BoolVar(&showHelp, "h", false, "show this help")
	flag.StringVar(&options.Input, "i", "", "set source `png` input file")
	flag.StringVar(&options.Raw, "o", "", "write decoded rows to `file` instead of stdout info only")
	flag.BoolVar(&options.Expand, "expand", true, "apply EXPAND/STRIP_16/SCALE_16 transforms")
	flag.Usage = usage
}

func usage() {
	fmt.Fprintf(os.Stderr, `pngdump: decode a PNG's pixel data
Usage: pngdump -i file.png [-o rows.bin] [-expand=false]

Options:
`)
	flag.PrintDefaults()
}

func main() {
	flag.Parse()

	if showHelp || options.Input == "" {
		flag.Usage()
		os.Exit(0)
	}
	if err := dump(options); err != nil {
		fmt.Fprintf(os.Stderr, "pngdump: %v\n", err)
		os.Exit(1)
	}
}

func dump(opts commandOptions) error {
	f, err := os.Open(opts.Input)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := pngcore.NewDecoder(f, stream.NewDecoder())
	if !opts.Expand {
		dec.SetTransform(pngcore.TransformIdentity)
	}
	info, reader, err := dec.ReadInfo()
	if err != nil {
		return err
	}
	fmt.Printf("%dx%d color=%s depth=%d line=%d bytes\n",
		info.Width, info.Height, info.ColorType, info.BitDepth, info.LineSize)

	var out *os.File
	if opts.Raw != "" {
		out, err = os.Create(opts.Raw)
		if err != nil {
			return err
		}
		defer out.Close()
	}

	buf := make([]byte, info.BufferSize())
	if err := reader.NextFrame(buf); err != nil {
		return err
	}
	if out != nil {
		if _, err := out.Write(buf); err != nil {
			return err
		}
	}
	return nil
}
