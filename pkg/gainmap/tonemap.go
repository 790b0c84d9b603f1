package gainmap

import (
	"fmt"

	"github.com/mdouchement/hdr/hdrcolor"
	"github.com/mdouchement/hdr/tmo"

	"github.com/mustakshif/appleheic2exr/pkg/gmath"
)

// BT.709 luma weights, used for the tone mapper's luminance. Deliberately
// not the BT.601 weights the normalizer uses; the two stages follow
// different conventions.
const (
	lumaR709 = 0.2126
	lumaG709 = 0.7152
	lumaB709 = 0.0722
)

var (
	// "reinhard" is the native operator; the rest come from mdouchement/hdr.
	Tonemappers = []string{"reinhard", "drago03", "durand", "icam06", "linear", "reinhard05"}
)

func ListTonemappers() string {
	return fmt.Sprintf("%v", Tonemappers)
}

// ToneMapReinhard compresses HDR values back into [0,1] with the global
// Reinhard operator, scaling each pixel by 1/(1+L) where L is its BT.709
// luminance. Not idempotent: apply at most once.
func ToneMapReinhard(hdr *Rendition) *Rendition {
	out := NewRendition(hdr.W, hdr.H, 1.0)

	for y:=0; y<hdr.H; y++ {
		for x:=0; x<hdr.W; x++ {
			in := hdr.Pix(x, y)

			lum := lumaR709*in.R + lumaG709*in.G + lumaB709*in.B
			if lum < 1e-6 {
				lum = 1e-6 // pure-black pixels must not produce an undefined scale
			}
			scale := 1.0 / (1.0 + lum)

			out.SetPix(x, y, hdrcolor.RGB{
				R: gmath.Clamp(in.R * scale, 0.0, 1.0),
				G: gmath.Clamp(in.G * scale, 0.0, 1.0),
				B: gmath.Clamp(in.B * scale, 0.0, 1.0),
			})
		}
	}

	return out
}

// ApplyTonemapper runs the named operator over an HDR rendition, returning
// an SDR rendition in [0,1].
func ApplyTonemapper(name string, hdr *Rendition) (*Rendition, error) {
	if name == "reinhard" {
		return ToneMapReinhard(hdr), nil
	}

	op, err := setupTonemapper(name, hdr)
	if err != nil {
		return nil, err
	}

	newImg := op.Perform()
	return NewRenditionFromImage(newImg, "tonemapped image")
}

func setupTonemapper(name string, hdr *Rendition) (tmo.ToneMappingOperator, error) {
	switch name {
	case "drago03":
		return tmo.NewDefaultDrago03(hdr), nil
	case "durand":
		return tmo.NewDefaultDurand(hdr), nil
	case "icam06":
		return tmo.NewDefaultICam06(hdr), nil
	case "linear":
		return tmo.NewLinear(hdr), nil
	case "reinhard05":
		return tmo.NewDefaultReinhard05(hdr), nil
	}

	return nil, fmt.Errorf("tonemapper %q not recognized, wanted one of %s", name, ListTonemappers())
}
