package gainmap

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/codec/rgbe"
)

// A Sink encodes a float RGB image into some container format. Whether a
// sink exists for a given output is decided when the sink is constructed,
// so a run can fail with EncodeUnavailable before any file is touched.
type Sink interface {
	Encode(w io.Writer, img hdr.Image) error
}

// NewSink picks an encoder from the output filename's extension:
// .exr for scanline OpenEXR, .hdr for Radiance RGBE.
func NewSink(filename string) (Sink, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".exr":
		return exrSink{}, nil
	case ".hdr":
		return rgbeSink{}, nil
	}
	return nil, EncodeUnavailableError{Format: filepath.Ext(filename)}
}

type exrSink struct{}

func (exrSink) Encode(w io.Writer, img hdr.Image) error { return EncodeEXR(w, img) }

type rgbeSink struct{}

func (rgbeSink) Encode(w io.Writer, img hdr.Image) error { return rgbe.Encode(w, img) }

// WriteFloatImage encodes img to filename via the extension-selected sink.
// It stages through a temp file in the destination directory and renames on
// success, so a failed run never leaves a partial artifact behind.
func WriteFloatImage(filename string, img hdr.Image) error {
	sink, err := NewSink(filename)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(filename), filepath.Base(filename)+".tmp*")
	if err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	}

	if err := sink.Encode(tmp, img); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("encoding '%s': %v", filename, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close '%s': %v", filename, err)
	}
	if err := os.Rename(tmp.Name(), filename); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename to '%s': %v", filename, err)
	}

	return nil
}
