// apple-hdr-info describes an Apple HDR capture: EXIF highlights of the
// base image, the gain map calibration scalars, and gain map statistics.
// It expects the same inputs as apple-hdr (base image, extracted gain map,
// metadata text dump).
package main

import(
	"flag"
	"fmt"
	"image"
	"log"

	"github.com/mustakshif/appleheic2exr/pkg/gainmap"
)

func init() {
	flag.Parse()
}

func main() {
	conv := gainmap.NewConversion()
	if err := conv.LoadFilesAndArgs(flag.Args()...); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Analyzing Apple HDR capture: %s\n", conv.BaseFilename)

	fmt.Printf("\n1. Base image metadata:\n")
	if lines, err := gainmap.ReadEXIFHighlights(conv.BaseFilename); err != nil {
		fmt.Printf("   Failed to read base image metadata: %v\n", err)
	} else {
		for _, line := range lines {
			fmt.Printf("   %s\n", line)
		}
	}

	fmt.Printf("\n2. Gain map calibration:\n")
	if err := conv.ExtractParams(); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("   %s\n", conv.Params)

	fmt.Printf("\n3. Gain map image analysis:\n")
	if conv.RawGain == nil {
		log.Fatal(gainmap.InputMissingError{Input: "gain map"})
	}

	// Stats at the gain map's own resolution; no resampling wanted here.
	b := conv.RawGain.Bounds()
	grid, err := gainmap.NormalizeGainMap(conv.RawGain, image.Point{b.Dx(), b.Dy()})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Print(gainmap.GainMapStats(grid))
}
