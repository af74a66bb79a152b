package ccd

import (
	"fmt"
	"image"
	"log"
	"strings"

	"gopkg.in/yaml.v2"
)

// Config is everything needed to set up a render, as read from a YAML
// file and then adjusted from the command line. Keys are the lowercased
// field names:
//
//	preset: kaf-6303
//	seed: 42
//	params:
//	  adc:
//	    bitdepth: 10
//	presets:
//	  mysensor:
//	    width: 640
//	    ...
type Config struct {
	Verbosity  int
	Preset     string
	Presets    map[string]SensorConfig // extra sensors, or overrides of the built in ones
	Params     Params
	Seed       uint64
	SeedPolicy SeedPolicy
	DebugSites []image.Point
	DumpPrefix string
}

func NewConfig() Config {
	return Config{
		Preset:  "KAF-6303",
		Presets: map[string]SensorConfig{},
		Params:  DefaultParams(),
	}
}

// ParseConfig reads a YAML config; anything it doesn't mention keeps
// its default.
func ParseConfig(b []byte) (Config, error) {
	c := NewConfig()
	err := c.Overlay(b)
	return c, err
}

// Overlay applies a YAML fragment on top of the config, e.g.
// "params: {vclock: {cte: 0.99}}".
func (c *Config) Overlay(b []byte) error {
	if err := yaml.UnmarshalStrict(b, c); err != nil {
		return &ConfigurationError{Field: "yaml", Value: firstLine(b), Reason: err.Error()}
	}
	if c.Presets == nil {
		c.Presets = map[string]SensorConfig{}
	}
	return nil
}

func firstLine(b []byte) string {
	s, _, _ := strings.Cut(string(b), "\n")
	return s
}

func (c Config) AsYaml() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		log.Printf("Can't marshal config yaml: %v\n", err)
		return ""
	}
	return string(b)
}

// SensorConfig resolves the preset name, looking in the config's own
// presets before the built in ones.
func (c Config) SensorConfig() (SensorConfig, error) {
	for k, sc := range c.Presets {
		if strings.EqualFold(k, c.Preset) {
			if sc.Name == "" {
				sc.Name = k
			}
			return sc, nil
		}
	}
	return Preset(c.Preset)
}

func (c Config) Options() Options {
	return Options{Verbosity: c.Verbosity, DebugSites: c.DebugSites, DumpPrefix: c.DumpPrefix}
}

func (c Config) NewPipeline() (*Pipeline, error) {
	sc, err := c.SensorConfig()
	if err != nil {
		return nil, err
	}
	pl, err := NewPipeline(sc, c.Params, c.Options())
	if err != nil {
		return nil, fmt.Errorf("sensor %s: %w", sc.Name, err)
	}
	return pl, nil
}

func (c Config) NewSession() (*Session, error) {
	pl, err := c.NewPipeline()
	if err != nil {
		return nil, err
	}
	return NewSession(pl, c.Seed, c.SeedPolicy), nil
}
