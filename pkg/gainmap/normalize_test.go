package gainmap

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
)

func TestNormalizeUpsamplesConstantGainMap(t *testing.T) {
	// A 1x1 gain map has a single constant value, so every interpolation
	// scheme must yield that constant across the 4x4 target.
	src := image.NewGray(image.Rect(0, 0, 1, 1))
	src.SetGray(0, 0, color.Gray{Y: 128})

	grid, err := NormalizeGainMap(src, image.Point{4, 4})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if grid.Dx() != 4 || grid.Dy() != 4 {
		t.Fatalf("grid is %dx%d, want 4x4", grid.Dx(), grid.Dy())
	}

	want := float64(128*257) / float64(0xFFFF)
	for y:=0; y<4; y++ {
		for x:=0; x<4; x++ {
			if v := grid.Get(x, y); math.Abs(v-want) > 1e-4 {
				t.Fatalf("grid(%d,%d) = %f, want uniform %f", x, y, v, want)
			}
		}
	}
}

func TestNormalizePassthroughAtTargetSize(t *testing.T) {
	src := image.NewGray16(image.Rect(0, 0, 2, 2))
	src.SetGray16(0, 0, color.Gray16{Y: 0x0000})
	src.SetGray16(1, 0, color.Gray16{Y: 0x4000})
	src.SetGray16(0, 1, color.Gray16{Y: 0x8000})
	src.SetGray16(1, 1, color.Gray16{Y: 0xFFFF})

	grid, err := NormalizeGainMap(src, image.Point{2, 2})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if v := grid.Get(1, 1); !almostEqual(v, 1.0) {
		t.Errorf("grid(1,1) = %f, want 1.0", v)
	}
	if v := grid.Get(0, 0); !almostEqual(v, 0.0) {
		t.Errorf("grid(0,0) = %f, want 0.0", v)
	}
	if v := grid.Get(1, 0); math.Abs(v-0.25) > 1e-4 {
		t.Errorf("grid(1,0) = %f, want 0.25", v)
	}
}

func TestNormalizeLumaReduction(t *testing.T) {
	// Pure-channel colors must reduce with BT.601 weights, not a plain
	// average.
	cases := []struct {
		col  color.NRGBA
		want float64
	}{
		{color.NRGBA{R: 255, A: 255}, 0.299},
		{color.NRGBA{G: 255, A: 255}, 0.587},
		{color.NRGBA{B: 255, A: 255}, 0.114},
		{color.NRGBA{R: 255, G: 255, B: 255, A: 255}, 1.0},
	}

	for _, c := range cases {
		src := image.NewNRGBA(image.Rect(0, 0, 1, 1))
		src.SetNRGBA(0, 0, c.col)

		grid, err := NormalizeGainMap(src, image.Point{1, 1})
		if err != nil {
			t.Fatalf("normalize %v: %v", c.col, err)
		}
		if v := grid.Get(0, 0); math.Abs(v-c.want) > 1e-3 {
			t.Errorf("luma(%v) = %f, want %f", c.col, v, c.want)
		}
	}
}

func TestNormalizeRejectsUnsupportedChannels(t *testing.T) {
	for _, src := range []image.Image{
		image.NewAlpha(image.Rect(0, 0, 2, 2)),
		image.NewCMYK(image.Rect(0, 0, 2, 2)),
	} {
		_, err := NormalizeGainMap(src, image.Point{2, 2})
		if err == nil {
			t.Fatalf("%T: want UnsupportedChannelLayoutError", src)
		}
		var ucl UnsupportedChannelLayoutError
		if !errors.As(err, &ucl) {
			t.Fatalf("%T: want UnsupportedChannelLayoutError, got %T: %v", src, err, err)
		}
	}
}

func TestNormalizeDownsample(t *testing.T) {
	// Uniform downsample keeps the constant value.
	src := image.NewGray(image.Rect(0, 0, 8, 8))
	for y:=0; y<8; y++ {
		for x:=0; x<8; x++ {
			src.SetGray(x, y, color.Gray{Y: 64})
		}
	}

	grid, err := NormalizeGainMap(src, image.Point{4, 4})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := float64(64*257) / float64(0xFFFF)
	for y:=0; y<4; y++ {
		for x:=0; x<4; x++ {
			if v := grid.Get(x, y); math.Abs(v-want) > 1e-3 {
				t.Fatalf("grid(%d,%d) = %f, want %f", x, y, v, want)
			}
		}
	}
}
