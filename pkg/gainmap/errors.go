package gainmap

import (
	"fmt"
	"image"
)

// The pipeline is deterministic numeric work over already-acquired data, so
// every failure is a permanent input/configuration defect; nothing retries.
// These types exist so callers can name the offending stage and key.

// InputMissingError means a required input (base image or gain map) was never
// provided by the decode layer.
type InputMissingError struct {
	Input string
}

func (e InputMissingError) Error() string {
	return fmt.Sprintf("required input missing: %s", e.Input)
}

// MetadataParseError means a calibration label was present in the metadata
// text but its value would not parse. A malformed present value is different
// from an absent one, which silently falls back to a default.
type MetadataParseError struct {
	Key   string
	Value string
}

func (e MetadataParseError) Error() string {
	return fmt.Sprintf("metadata key %q: can't parse value %q", e.Key, e.Value)
}

// DimensionError means the gain map could not be brought to the base image's
// pixel grid.
type DimensionError struct {
	Got, Want image.Point
}

func (e DimensionError) Error() string {
	return fmt.Sprintf("dimension mismatch: got %dx%d, want %dx%d", e.Got.X, e.Got.Y, e.Want.X, e.Want.Y)
}

// UnsupportedChannelLayoutError means an input image has a channel count
// outside {1,3}.
type UnsupportedChannelLayoutError struct {
	Source   string
	Channels int
}

func (e UnsupportedChannelLayoutError) Error() string {
	return fmt.Sprintf("%s: unsupported channel layout (%d channels, want 1 or 3)", e.Source, e.Channels)
}

// EncodeUnavailableError means no float-image encoder exists for the
// requested output. It is raised when the sink is constructed, never via a
// process-wide flag.
type EncodeUnavailableError struct {
	Format string
}

func (e EncodeUnavailableError) Error() string {
	return fmt.Sprintf("no float-image encoder available for %q", e.Format)
}
