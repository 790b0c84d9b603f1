package gainmap

import (
	"fmt"
	"image"
	"image/color"

	"github.com/mdouchement/hdr/hdrcolor"
)

// A Rendition is a 2-D grid of floating point RGB triples. The SDR base
// image is a Rendition with values in [0,1]; synthesis produces one with
// values in [0, headroom]. Implements image.Image and hdr.Image, so the
// mdouchement tone mapping operators and codecs can consume it directly.
type Rendition struct {
	W, H     int
	Headroom float64 // upper bound on channel values; 1.0 for SDR
	Pixels   []hdrcolor.RGB
}

func NewRendition(w, h int, headroom float64) *Rendition {
	return &Rendition{
		W:        w,
		H:        h,
		Headroom: headroom,
		Pixels:   make([]hdrcolor.RGB, w*h),
	}
}

// Implement image.Image
func (r Rendition)ColorModel() color.Model       { return hdrcolor.RGBModel }
func (r Rendition)Bounds() image.Rectangle       { return image.Rect(0, 0, r.W, r.H) }
func (r Rendition)At(x, y int) color.Color       { return r.HDRAt(x, y) }

// Implement hdr.Image
func (r Rendition)HDRAt(x, y int) hdrcolor.Color { return r.Pix(x, y) }
func (r Rendition)Size() int                     { return r.W * r.H }

// Pixel access
func (r *Rendition)Pix(x, y int) hdrcolor.RGB         { return r.Pixels[y*r.W + x] }
func (r *Rendition)SetPix(x, y int, c hdrcolor.RGB)   { r.Pixels[y*r.W + x] = c }

func (r Rendition)String() string {
	return fmt.Sprintf("Rendition[%dx%d, headroom %.3f]", r.W, r.H, r.Headroom)
}

// NewRenditionFromImage ingests a decoded SDR image, normalizing 8- and
// 16-bit integer samples to [0,1] by the format maximum. The alpha channel,
// if any, is dropped.
func NewRenditionFromImage(img image.Image, source string) (*Rendition, error) {
	if n := channelCount(img); n != 1 && n != 3 {
		return nil, UnsupportedChannelLayoutError{Source: source, Channels: n}
	}

	b := img.Bounds()
	rend := NewRendition(b.Dx(), b.Dy(), 1.0)

	for y:=0; y<b.Dy(); y++ {
		for x:=0; x<b.Dx(); x++ {
			rr, gg, bb, _ := img.At(b.Min.X + x, b.Min.Y + y).RGBA()
			rend.SetPix(x, y, hdrcolor.RGB{
				R: float64(rr) / float64(0xFFFF),
				G: float64(gg) / float64(0xFFFF),
				B: float64(bb) / float64(0xFFFF),
			})
		}
	}

	return rend, nil
}

// channelCount reports how many color channels the decoded representation
// carries. Anything we can't name gets treated as 3-channel RGB, since
// image.Image always surfaces samples through RGBA().
func channelCount(img image.Image) int {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return 1
	case *image.Alpha, *image.Alpha16:
		return 0
	case *image.CMYK:
		return 4
	case *image.NYCbCrA:
		return 4
	default:
		return 3
	}
}
