package main

import(
	"flag"
	"log"

	"github.com/mustakshif/appleheic2exr/pkg/gainmap"
)

var(
	fVerbosity int
	fOutput string
	fToneMap bool
	fTonemapper string
	fDebug bool
)

func init() {
	flag.IntVar(&fVerbosity, "v", 0, "how verbose to get")
	flag.StringVar(&fOutput, "o", "", "output file (default: base image filename with .exr extension)")
	flag.BoolVar(&fToneMap, "tonemap", false, "tone map the HDR result back into displayable range")
	flag.StringVar(&fTonemapper, "tonemapper", "", "which tone mapping operator: "+gainmap.ListTonemappers())
	flag.BoolVar(&fDebug, "debug", false, "write debug PNGs of intermediate stages")
	flag.Parse()

	log.Printf("apple-hdr starting\n")
}

func main() {
	conv := gainmap.NewConversion()
	if err := conv.LoadFilesAndArgs(flag.Args()...); err != nil {
		log.Fatal(err)
	}

	if fOutput != "" {
		conv.Config.Output = fOutput
	}
	if fTonemapper != "" {
		conv.Config.Tonemapper = fTonemapper
	} else if fToneMap {
		conv.Config.Tonemapper = "reinhard"
	}
	conv.Config.Verbosity = fVerbosity
	if fDebug {
		conv.Config.Debug = true
	}

	if conv.Verbosity > 0 {
		log.Printf("Final configuration:-\n\n%s\n", conv.Config.AsYaml())
	}

	if err := conv.ExtractParams(); err != nil {
		log.Fatal(err)
	}
	if err := conv.Normalize(); err != nil {
		log.Fatal(err)
	}
	if err := conv.Synthesize(); err != nil {
		log.Fatal(err)
	}
	if err := conv.Tonemap(); err != nil {
		log.Fatal(err)
	}
	if err := conv.Write(); err != nil {
		log.Fatal(err)
	}
}
