package gainmap

import (
	"image"
	"image/color"

	"github.com/nfnt/resize"

	"github.com/mustakshif/appleheic2exr/pkg/gmath"
)

// BT.601 luma weights. Apple authors the gain map against this reduction
// (it is what OpenCV's RGB2GRAY uses), so we must match it rather than use
// a plain channel average.
const (
	lumaR601 = 0.299
	lumaG601 = 0.587
	lumaB601 = 0.114
)

// NormalizeGainMap reduces a raw 1- or 3-channel gain map to a
// single-channel float grid in [0,1], resampled to exactly target
// dimensions. Gain maps are commonly stored at half the base image's
// resolution to save space, so resampling uses Lanczos3 rather than
// nearest/bilinear to avoid block artifacts.
func NormalizeGainMap(raw image.Image, target image.Point) (*gmath.FloatGrid, error) {
	if n := channelCount(raw); n != 1 && n != 3 {
		return nil, UnsupportedChannelLayoutError{Source: "gain map", Channels: n}
	}

	b := raw.Bounds()
	grid := gmath.NewFloatGrid(b.Dx(), b.Dy())

	_, isGray := raw.(*image.Gray)
	_, isGray16 := raw.(*image.Gray16)

	for y:=0; y<b.Dy(); y++ {
		for x:=0; x<b.Dx(); x++ {
			r, g, bb, _ := raw.At(b.Min.X + x, b.Min.Y + y).RGBA()

			var v float64
			if isGray || isGray16 {
				v = float64(r) / float64(0xFFFF)
			} else {
				v = (lumaR601*float64(r) + lumaG601*float64(g) + lumaB601*float64(bb)) / float64(0xFFFF)
			}
			grid.Set(x, y, gmath.Clamp(v, 0.0, 1.0))
		}
	}

	if b.Dx() == target.X && b.Dy() == target.Y {
		return &grid, nil
	}

	return resampleGrid(&grid, target)
}

// resampleGrid does the Lanczos3 resize through a 16-bit grayscale image;
// the quantization is no worse than the gain map's own storage depth.
func resampleGrid(grid *gmath.FloatGrid, target image.Point) (*gmath.FloatGrid, error) {
	gray := image.NewGray16(image.Rect(0, 0, grid.Dx(), grid.Dy()))
	for y:=0; y<grid.Dy(); y++ {
		for x:=0; x<grid.Dx(); x++ {
			v := gmath.Clamp(grid.Get(x, y), 0.0, 1.0)
			gray.SetGray16(x, y, color.Gray16{Y: uint16(v*65535.0 + 0.5)})
		}
	}

	resized := resize.Resize(uint(target.X), uint(target.Y), gray, resize.Lanczos3)

	rb := resized.Bounds()
	if rb.Dx() != target.X || rb.Dy() != target.Y {
		return nil, DimensionError{Got: image.Point{rb.Dx(), rb.Dy()}, Want: target}
	}

	out := gmath.NewFloatGrid(target.X, target.Y)
	for y:=0; y<target.Y; y++ {
		for x:=0; x<target.X; x++ {
			r, _, _, _ := resized.At(rb.Min.X + x, rb.Min.Y + y).RGBA()
			out.Set(x, y, float64(r) / float64(0xFFFF))
		}
	}

	return &out, nil
}
