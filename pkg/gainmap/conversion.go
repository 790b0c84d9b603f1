package gainmap

import (
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/mustakshif/appleheic2exr/pkg/gmath"
)

// A Conversion owns one run of the gain map pipeline: an SDR base image, a
// raw gain map, calibration metadata, and the HDR rendition built from them.
// Every entity is built once and consumed in a single forward pass.
type Conversion struct {
	Config

	BaseFilename string
	Base         *Rendition        // SDR base image, values in [0,1]
	RawGain      image.Image       // gain map as decoded, any size, 1 or 3 channels
	Gain         *gmath.FloatGrid  // gain map normalized to the base image's grid
	Metadata     string            // exiftool-style text dump, may be empty
	Params       CalibrationParameters
	HDR          *Rendition        // the synthesized (and maybe tonemapped) result
}

func NewConversion() Conversion {
	return Conversion{
		Config: NewConfig(),
	}
}

func (c Conversion)String() string {
	str := fmt.Sprintf("Conversion [%s]\n", c.BaseFilename)
	if c.Base != nil {
		str += fmt.Sprintf("  base     %s\n", c.Base)
	}
	if c.RawGain != nil {
		b := c.RawGain.Bounds()
		str += fmt.Sprintf("  gain map %dx%d\n", b.Dx(), b.Dy())
	}
	str += fmt.Sprintf("  params   %s\n", c.Params)
	return str
}

// LoadFilesAndArgs dispatches each argument on its extension: .yaml is a
// base config, .txt is the calibration metadata dump, anything else is
// decoded as an image - the first one is the base image, the second the
// gain map.
func (c *Conversion)LoadFilesAndArgs(args ...string) error {
	for _, arg := range args {
		if _, err := os.Stat(arg); err != nil {
			return fmt.Errorf("load %s: %v", arg, err)
		}
		if err := c.loadFile(arg); err != nil {
			return fmt.Errorf("loadfile %s: %v", arg, err)
		}
	}
	return nil
}

func (c *Conversion)loadFile(filename string) error {
	switch strings.ToLower(filepath.Ext(filename)) {

	case ".yaml":
		cfg, err := loadConfig(filename)
		if err != nil {
			return fmt.Errorf("loading %s as config YAML failed: %v", filename, err)
		}
		c.Config = cfg
		log.Printf("Loaded base configuration from %s\n", filename)

	case ".txt":
		text, err := loadMetadataText(filename)
		if err != nil {
			return err
		}
		c.Metadata = text
		log.Printf("Loaded calibration metadata from %s\n", filename)

	default:
		img, err := loadImageFile(filename)
		if err != nil {
			return err
		}
		switch {
		case c.Base == nil:
			base, err := NewRenditionFromImage(img, filename)
			if err != nil {
				return err
			}
			c.Base = base
			c.BaseFilename = filename
		case c.RawGain == nil:
			c.RawGain = img
		default:
			return fmt.Errorf("already have a base image and a gain map, no role for %s", filename)
		}
	}

	return nil
}

// ExtractParams turns the metadata text into typed calibration scalars.
// With no metadata loaded at all, every parameter keeps its default.
func (c *Conversion)ExtractParams() error {
	params, err := ParseCalibration(c.Metadata)
	if err != nil {
		return err
	}
	c.Params = params
	log.Printf("Calibration: %s", c.Params)
	return nil
}

// Normalize reduces the raw gain map to a single channel and resamples it
// onto the base image's pixel grid.
func (c *Conversion)Normalize() error {
	if c.Base == nil {
		return InputMissingError{Input: "base image"}
	}
	if c.RawGain == nil {
		return InputMissingError{Input: "gain map"}
	}

	grid, err := NormalizeGainMap(c.RawGain, image.Point{c.Base.W, c.Base.H})
	if err != nil {
		return err
	}
	c.Gain = grid
	log.Printf("Gain map normalized: %s", c.Gain.Stats())

	if c.Config.Debug {
		c.Gain.ToImg("normalized gain map", "gainmap-debug.png")
	}
	return nil
}

// Synthesize builds the HDR rendition.
func (c *Conversion)Synthesize() error {
	if c.Gain == nil {
		return InputMissingError{Input: "normalized gain map"}
	}

	hdr, err := Synthesize(c.Base, c.Gain, c.Params)
	if err != nil {
		return err
	}
	c.HDR = hdr
	log.Printf("Synthesized %s", c.HDR)
	return nil
}

// Tonemap optionally compresses the HDR rendition back into [0,1]. With no
// tonemapper configured the synthesized output passes through untouched.
func (c *Conversion)Tonemap() error {
	if c.Config.Tonemapper == "" {
		return nil
	}
	if c.HDR == nil {
		return InputMissingError{Input: "synthesized image"}
	}

	log.Printf("Tonemapping: %s", c.Config.Tonemapper)
	mapped, err := ApplyTonemapper(c.Config.Tonemapper, c.HDR)
	if err != nil {
		return err
	}
	c.HDR = mapped

	if c.Config.Debug {
		WritePNG(c.HDR, fmt.Sprintf("tmo-%s.png", c.Config.Tonemapper))
	}
	return nil
}

// Write hands the result to the extension-selected float-image sink.
func (c *Conversion)Write() error {
	if c.HDR == nil {
		return InputMissingError{Input: "synthesized image"}
	}

	out := c.OutputFilename()
	if err := WriteFloatImage(out, c.HDR); err != nil {
		return err
	}
	log.Printf("Wrote %s", out)
	return nil
}

// OutputFilename is the configured output, defaulting to the base image's
// filename with its extension swapped for .exr.
func (c *Conversion)OutputFilename() string {
	if c.Config.Output != "" {
		return c.Config.Output
	}
	ext := filepath.Ext(c.BaseFilename)
	return strings.TrimSuffix(c.BaseFilename, ext) + ".exr"
}
