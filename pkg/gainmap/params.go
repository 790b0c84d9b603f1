package gainmap

import (
	"fmt"
	"strconv"
	"strings"
)

// CalibrationParameters are the scalars Apple writes into the gain map's
// metadata. OffsetHDR, GainMapMin and GainMapMax are parsed and carried, but
// the synthesis formula never consumes them; that matches the reference
// camera pipeline behaviour, so we don't silently start applying them.
type CalibrationParameters struct {
	MaxCapacity float64 // "HDR Capacity Max"
	MinCapacity float64 // "HDR Capacity Min"
	GainMapMax  float64 // "Gain Map Max"
	GainMapMin  float64 // "Gain Map Min"
	Gamma       float64 // "Gamma"
	OffsetSDR   float64 // "Offset SDR"
	OffsetHDR   float64 // "Offset HDR"
}

func NewCalibrationParameters() CalibrationParameters {
	return CalibrationParameters{
		MaxCapacity: 3.0,
		MinCapacity: 0.0,
		Gamma:       1.0,
		OffsetSDR:   0.0,
		OffsetHDR:   0.0,
	}
}

// Headroom is the max multiplicative boost the gain map can express.
func (p CalibrationParameters)Headroom() float64 {
	if p.MinCapacity > 0 {
		return p.MaxCapacity / p.MinCapacity
	}
	return p.MaxCapacity
}

func (p CalibrationParameters)String() string {
	return fmt.Sprintf("capacity[%.3f,%.3f] gamma %.3f, offsets[sdr %.4f, hdr %.4f], headroom %.3f",
		p.MinCapacity, p.MaxCapacity, p.Gamma, p.OffsetSDR, p.OffsetHDR, p.Headroom())
}

// ParseCalibration turns an exiftool-style text dump ("Label : value" lines,
// free-form whitespace and casing) into typed calibration scalars. A label
// that never appears keeps its default; a label whose value won't parse is a
// MetadataParseError. The first occurrence of a repeated label wins.
func ParseCalibration(metadata string) (CalibrationParameters, error) {
	p := NewCalibrationParameters()

	fields := []struct {
		label string
		dst   *float64
	}{
		{"HDR Capacity Max", &p.MaxCapacity},
		{"HDR Capacity Min", &p.MinCapacity},
		{"Gain Map Max",     &p.GainMapMax},
		{"Gain Map Min",     &p.GainMapMin},
		{"Gamma",            &p.Gamma},
		{"Offset SDR",       &p.OffsetSDR},
		{"Offset HDR",       &p.OffsetHDR},
	}

	seen := map[string]bool{}

	for _, line := range strings.Split(metadata, "\n") {
		for _, f := range fields {
			if seen[f.label] {
				continue
			}
			idx := strings.Index(strings.ToLower(line), strings.ToLower(f.label))
			if idx < 0 {
				continue
			}

			v, err := parseLabelledValue(line[idx+len(f.label):])
			if err != nil {
				return p, MetadataParseError{Key: f.label, Value: strings.TrimSpace(line[idx+len(f.label):])}
			}
			*f.dst = v
			seen[f.label] = true
		}
	}

	return p, nil
}

// parseLabelledValue takes everything after the label, skips to the first
// colon, and parses the first whitespace-delimited token after it.
func parseLabelledValue(rest string) (float64, error) {
	colon := strings.Index(rest, ":")
	if colon < 0 {
		return 0, fmt.Errorf("no value delimiter")
	}
	tokens := strings.Fields(rest[colon+1:])
	if len(tokens) == 0 {
		return 0, fmt.Errorf("no value")
	}
	return strconv.ParseFloat(tokens[0], 64)
}
