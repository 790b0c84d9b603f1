package gainmap

import (
	"errors"
	"math"
	"testing"
)

// A trimmed exiftool dump from an iPhone gain map image.
const sampleMetadata = `ExifTool Version Number         : 12.60
File Type                       : JPEG
Image Width                     : 2016
Image Height                    : 1512
HDR Capacity Max                : 3.228517
HDR Capacity Min                : 0.000000
Gain Map Max                    : 1.614258
Gain Map Min                    : 0.000000
Gamma                           : 1.000000
Offset SDR                      : 0.015625
Offset HDR                      : 0.015625
Y Cb Cr Sub Sampling            : YCbCr4:2:0 (2 2)
`

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestParseCalibrationFullDump(t *testing.T) {
	p, err := ParseCalibration(sampleMetadata)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if !almostEqual(p.MaxCapacity, 3.228517) {
		t.Errorf("MaxCapacity = %f, want 3.228517", p.MaxCapacity)
	}
	if !almostEqual(p.MinCapacity, 0.0) {
		t.Errorf("MinCapacity = %f, want 0", p.MinCapacity)
	}
	if !almostEqual(p.GainMapMax, 1.614258) {
		t.Errorf("GainMapMax = %f, want 1.614258", p.GainMapMax)
	}
	if !almostEqual(p.Gamma, 1.0) {
		t.Errorf("Gamma = %f, want 1", p.Gamma)
	}
	if !almostEqual(p.OffsetSDR, 0.015625) {
		t.Errorf("OffsetSDR = %f, want 0.015625", p.OffsetSDR)
	}
	if !almostEqual(p.OffsetHDR, 0.015625) {
		t.Errorf("OffsetHDR = %f, want 0.015625", p.OffsetHDR)
	}
}

func TestParseCalibrationDefaults(t *testing.T) {
	p, err := ParseCalibration("")
	if err != nil {
		t.Fatalf("parse empty: %v", err)
	}
	if !almostEqual(p.MaxCapacity, 3.0) || !almostEqual(p.MinCapacity, 0.0) ||
		!almostEqual(p.Gamma, 1.0) || !almostEqual(p.OffsetSDR, 0.0) || !almostEqual(p.OffsetHDR, 0.0) {
		t.Errorf("defaults wrong: %+v", p)
	}
}

func TestParseCalibrationAbsentKeyFallsBack(t *testing.T) {
	p, err := ParseCalibration("HDR Capacity Max : 4.5\nSome Other Tag : hello\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !almostEqual(p.MaxCapacity, 4.5) {
		t.Errorf("MaxCapacity = %f, want 4.5", p.MaxCapacity)
	}
	if !almostEqual(p.Gamma, 1.0) {
		t.Errorf("absent Gamma should default to 1.0, got %f", p.Gamma)
	}
}

func TestParseCalibrationMalformedValue(t *testing.T) {
	_, err := ParseCalibration("Gamma : notanumber\n")
	if err == nil {
		t.Fatal("want error for malformed Gamma value")
	}
	var mpe MetadataParseError
	if !errors.As(err, &mpe) {
		t.Fatalf("want MetadataParseError, got %T: %v", err, err)
	}
	if mpe.Key != "Gamma" {
		t.Errorf("error named key %q, want Gamma", mpe.Key)
	}
}

func TestParseCalibrationFirstOccurrenceWins(t *testing.T) {
	p, err := ParseCalibration("Gamma : 2.0\nGamma : 3.0\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !almostEqual(p.Gamma, 2.0) {
		t.Errorf("Gamma = %f, want first occurrence 2.0", p.Gamma)
	}
}

func TestParseCalibrationTolerantOfCasing(t *testing.T) {
	p, err := ParseCalibration("hdr capacity max:2.25\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !almostEqual(p.MaxCapacity, 2.25) {
		t.Errorf("MaxCapacity = %f, want 2.25", p.MaxCapacity)
	}
}

func TestHeadroom(t *testing.T) {
	cases := []struct {
		max, min, want float64
	}{
		{3.0, 0.0, 3.0}, // min == 0 must use the max-only branch
		{4.0, 1.0, 4.0},
		{4.0, 2.0, 2.0},
		{1.0, 0.0, 1.0},
	}
	for _, c := range cases {
		p := NewCalibrationParameters()
		p.MaxCapacity, p.MinCapacity = c.max, c.min
		if got := p.Headroom(); !almostEqual(got, c.want) {
			t.Errorf("Headroom(max=%f, min=%f) = %f, want %f", c.max, c.min, got, c.want)
		}
	}
}
