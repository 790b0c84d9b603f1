package gainmap

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeTestPNG(t *testing.T, filename string, img image.Image) {
	t.Helper()
	f, err := os.Create(filename)
	if err != nil {
		t.Fatalf("create %s: %v", filename, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", filename, err)
	}
}

func TestConversionEndToEnd(t *testing.T) {
	dir := t.TempDir()

	base := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y:=0; y<4; y++ {
		for x:=0; x<4; x++ {
			base.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	basePath := filepath.Join(dir, "base.png")
	writeTestPNG(t, basePath, base)

	// 1x1 gain map; the normalizer has to upsample it to 4x4.
	gain := image.NewGray(image.Rect(0, 0, 1, 1))
	gain.SetGray(0, 0, color.Gray{Y: 128})
	gainPath := filepath.Join(dir, "gain.png")
	writeTestPNG(t, gainPath, gain)

	metaPath := filepath.Join(dir, "meta.txt")
	meta := "HDR Capacity Max : 4.0\nHDR Capacity Min : 1.0\nGamma : 1.0\nOffset SDR : 0.0\n"
	if err := os.WriteFile(metaPath, []byte(meta), 0o644); err != nil {
		t.Fatalf("write meta: %v", err)
	}

	conv := NewConversion()
	if err := conv.LoadFilesAndArgs(basePath, gainPath, metaPath); err != nil {
		t.Fatalf("load: %v", err)
	}
	conv.Config.Output = filepath.Join(dir, "out.exr")

	if err := conv.ExtractParams(); err != nil {
		t.Fatalf("params: %v", err)
	}
	if err := conv.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := conv.Synthesize(); err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if err := conv.Tonemap(); err != nil {
		t.Fatalf("tonemap: %v", err)
	}
	if err := conv.Write(); err != nil {
		t.Fatalf("write: %v", err)
	}

	data, err := os.ReadFile(conv.Config.Output)
	if err != nil {
		t.Fatalf("readback: %v", err)
	}
	dec, err := DecodeEXR(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dec.W != 4 || dec.H != 4 {
		t.Fatalf("output is %dx%d, want 4x4", dec.W, dec.H)
	}

	// White base, uniform gain g, headroom 4: every pixel is 1 + 3g.
	g := float64(128*257) / float64(0xFFFF)
	want := 1.0 + 3.0*g
	for y:=0; y<4; y++ {
		for x:=0; x<4; x++ {
			p := dec.Pix(x, y)
			for _, ch := range []float64{p.R, p.G, p.B} {
				if math.Abs(ch-want) > 1e-4 {
					t.Fatalf("pixel (%d,%d) = %v, want uniform %f", x, y, p, want)
				}
			}
		}
	}
}

func TestConversionMissingInputs(t *testing.T) {
	conv := NewConversion()
	if err := conv.Normalize(); err == nil {
		t.Fatal("want InputMissingError with no base image")
	}

	conv = NewConversion()
	base := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	rend, err := NewRenditionFromImage(base, "base")
	if err != nil {
		t.Fatalf("rendition: %v", err)
	}
	conv.Base = rend
	if err := conv.Normalize(); err == nil {
		t.Fatal("want InputMissingError with no gain map")
	}
}

func TestConversionTonemapSkippable(t *testing.T) {
	conv := NewConversion()
	conv.HDR = uniformBase(2, 2, 0.5)
	conv.HDR.Headroom = 3.0

	// No tonemapper configured: the synthesized rendition must pass through
	// untouched.
	if err := conv.Tonemap(); err != nil {
		t.Fatalf("tonemap: %v", err)
	}
	if p := conv.HDR.Pix(0, 0); !almostEqual(p.R, 0.5) {
		t.Errorf("skipped tonemap altered output: %v", p)
	}
}

func TestConversionTonemapWithoutSynthesize(t *testing.T) {
	conv := NewConversion()
	conv.Config.Tonemapper = "reinhard"

	err := conv.Tonemap()
	if err == nil {
		t.Fatal("want InputMissingError tonemapping before synthesis")
	}
	var missing InputMissingError
	if !errors.As(err, &missing) {
		t.Fatalf("want InputMissingError, got %v", err)
	}
}

func TestOutputFilenameDefault(t *testing.T) {
	conv := NewConversion()
	conv.BaseFilename = filepath.Join("some", "dir", "IMG_0042.jpg")

	if got, want := conv.OutputFilename(), filepath.Join("some", "dir", "IMG_0042.exr"); got != want {
		t.Errorf("OutputFilename = %q, want %q", got, want)
	}

	conv.Config.Output = "elsewhere.exr"
	if got := conv.OutputFilename(); got != "elsewhere.exr" {
		t.Errorf("OutputFilename = %q, want override", got)
	}
}
