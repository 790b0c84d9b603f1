package gainmap

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/tiff"
)

func loadImageFile(filename string) (image.Image, error) {
	reader, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open+r img '%s': %v", filename, err)
	}
	defer reader.Close()

	img, _, err := image.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("image loading '%s': %v", filename, err)
	}
	return img, nil
}

func loadMetadataText(filename string) (string, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return "", fmt.Errorf("metadata read '%s': %v", filename, err)
	}
	return string(contents), nil
}

func loadConfig(filename string) (Config, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("config read '%s': %v", filename, err)
	}
	return newConfigFromYaml(contents)
}

// exifHighlightFields are the tags worth surfacing when describing a base
// image, mirroring what exiftool reports about an Apple HDR capture.
var exifHighlightFields = []exif.FieldName{
	exif.Make,
	exif.Model,
	exif.DateTimeOriginal,
	exif.PixelXDimension,
	exif.PixelYDimension,
	exif.ColorSpace,
	exif.ISOSpeedRatings,
	exif.ExposureTime,
	exif.FNumber,
}

// ReadEXIFHighlights pulls the interesting EXIF tags out of a JPEG/TIFF.
// Missing individual tags are skipped; only a base image with no EXIF block
// at all is an error.
func ReadEXIFHighlights(filename string) ([]string, error) {
	reader, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open+r exif '%s': %v", filename, err)
	}
	defer reader.Close()

	ex, err := exif.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("exif parsing '%s': %v", filename, err)
	}

	lines := []string{}
	for _, field := range exifHighlightFields {
		tag, err := ex.Get(field)
		if err != nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", field, tag.String()))
	}
	return lines, nil
}
