package gainmap

import (
	"image"
	"math"

	"github.com/mdouchement/hdr/hdrcolor"

	"github.com/mustakshif/appleheic2exr/pkg/gmath"
)

// Synthesize combines the SDR base image with the normalized gain map:
//
//	hdr = clamp(base * (1 + (headroom-1) * gain'), 0, headroom)
//
// where gain' is the gain value after the SDR offset and gamma correction.
// The operation order matters for numeric compatibility with the camera
// pipeline, so don't reorder the steps.
func Synthesize(base *Rendition, gain *gmath.FloatGrid, params CalibrationParameters) (*Rendition, error) {
	if gain.Dx() != base.W || gain.Dy() != base.H {
		return nil, DimensionError{
			Got:  image.Point{gain.Dx(), gain.Dy()},
			Want: image.Point{base.W, base.H},
		}
	}

	headroom := params.Headroom()
	out := NewRendition(base.W, base.H, headroom)

	for y:=0; y<base.H; y++ {
		for x:=0; x<base.W; x++ {
			g := gmath.Clamp(gain.Get(x, y) + params.OffsetSDR, 0.0, 1.0)

			if params.Gamma != 1.0 {
				// The normalizer already clamps, but a negative base raised
				// to a non-integer exponent is NaN, so re-clamp here too.
				if g < 0 { g = 0 }
				g = math.Pow(g, params.Gamma)
			}

			scale := 1.0 + (headroom - 1.0) * g
			in := base.Pix(x, y)

			out.SetPix(x, y, hdrcolor.RGB{
				R: gmath.Clamp(in.R * scale, 0.0, headroom),
				G: gmath.Clamp(in.G * scale, 0.0, headroom),
				B: gmath.Clamp(in.B * scale, 0.0, headroom),
			})
		}
	}

	return out, nil
}
