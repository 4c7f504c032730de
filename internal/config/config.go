// Package config provides unified configuration loading for wcimg.
// It supports loading from YAML files and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/nvandessel/wcimg/internal/cluster"
	"github.com/nvandessel/wcimg/internal/drift"
	"github.com/nvandessel/wcimg/internal/sampling"
	"github.com/nvandessel/wcimg/internal/signature"
	"github.com/nvandessel/wcimg/internal/units"
)

// validate is a singleton validator instance
var validate = validator.New()

// WcimgConfig contains all wcimg configuration settings.
type WcimgConfig struct {
	// Drift converts slice and depo times to the drift coordinate.
	Drift DriftConfig `json:"drift" yaml:"drift"`

	// Signature controls blob signature extraction.
	Signature SignatureConfig `json:"signature" yaml:"signature"`

	// Sampling controls how blobs become points.
	Sampling SamplingConfig `json:"sampling" yaml:"sampling"`

	// Bee holds Bee upload metadata.
	Bee BeeConfig `json:"bee" yaml:"bee"`

	// Logging contains settings for operational and decision logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Store configures the run catalog.
	Store StoreConfig `json:"store" yaml:"store"`

	// Metrics configures the Prometheus textfile output.
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
}

// DriftConfig holds unit expressions such as "1.6*mm/us".
type DriftConfig struct {
	// Speed is the drift speed. An empty or zero speed shifts times by T0 only.
	Speed string `json:"speed" yaml:"speed"`
	// T0 is the absolute time of the first tick.
	T0 string `json:"t0" yaml:"t0"`
}

// SignatureConfig configures signature extraction and the text dump.
type SignatureConfig struct {
	// Tick is the sampling period, as a unit expression.
	Tick string `json:"tick" yaml:"tick" validate:"required"`
	// Focus selects "val" or "unc" for plane status.
	Focus string `json:"focus" yaml:"focus" validate:"oneof=val unc"`
	// ValueScale multiplies blob charge in the dump.
	ValueScale float64 `json:"value_scale" yaml:"value_scale" validate:"gt=0"`
	// ChannelOffsets maps plane id to the global channel of wire index 0.
	ChannelOffsets map[int]int `json:"channel_offsets" yaml:"channel_offsets" validate:"required,dive,gte=0"`
}

// SamplingConfig selects the blob sampler.
type SamplingConfig struct {
	// Strategy is "center" or "uniform".
	Strategy string `json:"strategy" yaml:"strategy" validate:"oneof=center uniform"`
	// Density is the target number of points per cubic centimeter. Only
	// the uniform strategy reads it.
	Density float64 `json:"density" yaml:"density"`
}

// BeeConfig holds Bee upload metadata.
type BeeConfig struct {
	// Geom is the detector geometry name.
	Geom string `json:"geom" yaml:"geom" validate:"required"`
}

// LoggingConfig configures wcimg's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables decision logging to <dir>/decisions.jsonl.
	Level string `json:"level" yaml:"level" validate:"omitempty,oneof=info debug trace"`
	// Dir is where decisions.jsonl is written.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// StoreConfig configures the SQLite run catalog. An empty path disables it.
type StoreConfig struct {
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// MetricsConfig configures metrics output. An empty path disables it.
type MetricsConfig struct {
	Textfile string `json:"textfile,omitempty" yaml:"textfile,omitempty"`
}

// Default returns a WcimgConfig with sensible defaults.
func Default() *WcimgConfig {
	offsets := make(map[int]int)
	for p, off := range cluster.DefaultChannelOffsets() {
		offsets[int(p)] = off
	}
	return &WcimgConfig{
		Drift: DriftConfig{
			Speed: "1.6*mm/us",
			T0:    "0*ns",
		},
		Signature: SignatureConfig{
			Tick:           "500*ns",
			Focus:          string(signature.FocusValue),
			ValueScale:     signature.DefaultValueScale,
			ChannelOffsets: offsets,
		},
		Sampling: SamplingConfig{
			Strategy: "uniform",
			Density:  9.0,
		},
		Bee: BeeConfig{
			Geom: "protodune",
		},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   ".wcimg",
		},
	}
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.wcimg/config.yaml -> environment variables
func Load() (*WcimgConfig, error) {
	config := Default()

	homeDir, err := os.UserHomeDir()
	if err == nil {
		configPath := filepath.Join(homeDir, ".wcimg", "config.yaml")
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadPath loads path when it is set and the default locations otherwise.
// Environment overrides apply in both cases.
func LoadPath(path string) (*WcimgConfig, error) {
	if path == "" {
		return Load()
	}
	config, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	applyEnvOverrides(config)
	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*WcimgConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Store.Path = expandEnvVars(config.Store.Path)
	config.Metrics.Textfile = expandEnvVars(config.Metrics.Textfile)

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *WcimgConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}

	for name, expr := range map[string]string{
		"drift.speed":    c.Drift.Speed,
		"drift.t0":       c.Drift.T0,
		"signature.tick": c.Signature.Tick,
	} {
		if expr == "" {
			continue
		}
		if _, err := units.Parse(expr); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	if tick, _ := units.Parse(c.Signature.Tick); tick <= 0 {
		return fmt.Errorf("signature.tick must be positive, got %q", c.Signature.Tick)
	}

	if c.Sampling.Strategy == "uniform" {
		if err := sampling.CheckDensity(c.Sampling.Density); err != nil {
			return fmt.Errorf("sampling.density: %w", err)
		}
	}

	for plane := range c.Signature.ChannelOffsets {
		if !cluster.PlaneID(plane).Valid() {
			return fmt.Errorf("signature.channel_offsets: invalid plane %d (valid: 1, 2, 4)", plane)
		}
	}

	return nil
}

// Params are the typed analysis parameters derived from a configuration.
type Params struct {
	Drift      drift.Drift
	Extractor  signature.Extractor
	ValueScale float64
	Offsets    cluster.ChannelOffsets
	Sampler    sampling.Sampler
}

// Resolve validates c and converts it to typed parameters.
func (c *WcimgConfig) Resolve() (*Params, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var d drift.Drift
	if c.Drift.Speed != "" {
		d.Speed = units.MustParse(c.Drift.Speed)
	}
	if c.Drift.T0 != "" {
		d.T0 = units.MustParse(c.Drift.T0)
	}

	offsets := make(cluster.ChannelOffsets, len(c.Signature.ChannelOffsets))
	for p, off := range c.Signature.ChannelOffsets {
		offsets[cluster.PlaneID(p)] = off
	}

	// Density is configured per cubic centimeter.
	sampler, err := sampling.New(c.Sampling.Strategy, c.Sampling.Density/units.CubicCentimeter)
	if err != nil {
		return nil, err
	}

	return &Params{
		Drift: d,
		Extractor: signature.Extractor{
			Tick:    units.MustParse(c.Signature.Tick),
			Focus:   signature.Focus(c.Signature.Focus),
			Offsets: offsets,
		},
		ValueScale: c.Signature.ValueScale,
		Offsets:    offsets,
		Sampler:    sampler,
	}, nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	for _, e := range validationErrs {
		field := e.Namespace()
		switch e.Tag() {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "oneof":
			return fmt.Errorf("%s: must be one of [%s], got %q", field, e.Param(), e.Value())
		case "gt", "gte":
			return fmt.Errorf("%s: must be %s %s", field, e.Tag(), e.Param())
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}
	return err
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *WcimgConfig) {
	if v := os.Getenv("WCIMG_DRIFT_SPEED"); v != "" {
		config.Drift.Speed = v
	}
	if v := os.Getenv("WCIMG_T0"); v != "" {
		config.Drift.T0 = v
	}
	if v := os.Getenv("WCIMG_TICK"); v != "" {
		config.Signature.Tick = v
	}
	if v := os.Getenv("WCIMG_FOCUS"); v != "" {
		config.Signature.Focus = v
	}
	if v := os.Getenv("WCIMG_VALUE_SCALE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Signature.ValueScale = f
		}
	}
	if v := os.Getenv("WCIMG_SAMPLING"); v != "" {
		config.Sampling.Strategy = v
	}
	if v := os.Getenv("WCIMG_DENSITY"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Sampling.Density = f
		}
	}
	if v := os.Getenv("WCIMG_BEE_GEOM"); v != "" {
		config.Bee.Geom = v
	}
	if v := os.Getenv("WCIMG_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("WCIMG_STORE_PATH"); v != "" {
		config.Store.Path = v
	}
	if v := os.Getenv("WCIMG_METRICS_TEXTFILE"); v != "" {
		config.Metrics.Textfile = v
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
