package gainmap

import (
	"fmt"

	"github.com/skypies/util/histogram"

	"github.com/mustakshif/appleheic2exr/pkg/gmath"
)

// GainMapStats summarizes a normalized gain map: shape, value range,
// moments, and a bucketed distribution of the 8-bit-scaled values.
func GainMapStats(g *gmath.FloatGrid) string {
	min, max := g.MinMax()

	hist := histogram.Histogram{NumBuckets: 256, ValMin: 0, ValMax: 256}
	for y:=0; y<g.Dy(); y++ {
		for x:=0; x<g.Dx(); x++ {
			hist.Add(histogram.ScalarVal(int(g.Get(x, y) * 255.0)))
		}
	}

	str := fmt.Sprintf("   Shape: %dx%d\n", g.Dx(), g.Dy())
	str += fmt.Sprintf("   Min value: %.6f\n", min)
	str += fmt.Sprintf("   Max value: %.6f\n", max)
	str += fmt.Sprintf("   Mean value: %.3f\n", g.Mean())
	str += fmt.Sprintf("   Standard deviation: %.3f\n", g.StdDev())
	str += fmt.Sprintf("   Median value: %.6f\n", g.Median())
	str += fmt.Sprintf("   Distribution: %s\n", hist.String())
	return str
}
