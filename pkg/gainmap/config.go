package gainmap

import (
	"log"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Verbosity  int

	// Tonemapper names the HDR->SDR operator to run after synthesis, or ""
	// to keep the full HDR range.
	Tonemapper string

	// Output is the float-image destination; empty means "input filename
	// with a .exr extension".
	Output     string

	// Debug writes an annotated PNG of the normalized gain map.
	Debug      bool
}

func NewConfig() Config {
	return Config{}
}

func newConfigFromYaml(b []byte) (Config, error) {
	c := NewConfig()
	err := yaml.Unmarshal(b, &c)
	return c, err
}

func (c Config)AsYaml() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		log.Fatalf("Can't marshal config yaml: %v\n", err)
	}
	return string(b)
}
