package cli

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/anchorsynth/anchorsynth/pkg/synthesis"
)

// Config is the optional TOML configuration file. Command-line flags take
// precedence: file values only fill options the flags left unset.
//
// Example:
//
//	input_format = "default"
//	numeric_type = "Q"
//	timeout_seconds = 120
//
//	[learning]
//	method = "noisetolerant"
//	expected_depth = 5.0
//	max_denominator = 100
//
//	[pruning]
//	method = "hierarchical"
//	max_w = "1600"
//	max_h = "1200"
//
//	[cache]
//	redis_addr = "localhost:6379"
type Config struct {
	InputFormat    string `toml:"input_format"`
	NumericType    string `toml:"numeric_type"`
	Instantiation  string `toml:"instantiation_method"`
	TimeoutSeconds int    `toml:"timeout_seconds"`

	Learning LearningConfig `toml:"learning"`
	Pruning  PruningConfig  `toml:"pruning"`
	Cache    CacheConfig    `toml:"cache"`
}

// LearningConfig tunes the learner.
type LearningConfig struct {
	Method         string  `toml:"method"`
	ExpectedDepth  float64 `toml:"expected_depth"`
	MaxDenominator int     `toml:"max_denominator"`
	MaxOffset      int64   `toml:"max_offset"`
	AAlpha         float64 `toml:"a_alpha"`
	BAlpha         float64 `toml:"b_alpha"`
	CutoffFit      float64 `toml:"cutoff_fit"`
	CutoffSpread   float64 `toml:"cutoff_spread"`
	TopK           int     `toml:"top_k"`
}

// PruningConfig tunes the pruner.
type PruningConfig struct {
	Method    string `toml:"method"`
	MinWidth  string `toml:"min_w"`
	MinHeight string `toml:"min_h"`
	MaxWidth  string `toml:"max_w"`
	MaxHeight string `toml:"max_h"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Disabled  bool   `toml:"disabled"`
	RedisAddr string `toml:"redis_addr"`
}

// loadConfig reads a TOML config file.
func loadConfig(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return cfg, nil
}

// apply fills options the flags left at their zero values.
func (cfg Config) apply(opts *synthesis.Options) {
	setString := func(dst *string, v string) {
		if *dst == "" && v != "" {
			*dst = v
		}
	}
	setString(&opts.InputFormat, cfg.InputFormat)
	setString(&opts.NumericType, cfg.NumericType)
	setString(&opts.InstantiationMethod, cfg.Instantiation)
	setString(&opts.LearningMethod, cfg.Learning.Method)
	setString(&opts.PruningMethod, cfg.Pruning.Method)
	setString(&opts.MinWidth, cfg.Pruning.MinWidth)
	setString(&opts.MinHeight, cfg.Pruning.MinHeight)
	setString(&opts.MaxWidth, cfg.Pruning.MaxWidth)
	setString(&opts.MaxHeight, cfg.Pruning.MaxHeight)

	if opts.TimeoutSeconds == 0 {
		opts.TimeoutSeconds = cfg.TimeoutSeconds
	}
	if opts.ExpectedDepth == 0 {
		opts.ExpectedDepth = cfg.Learning.ExpectedDepth
	}
	if opts.MaxDenominator == 0 {
		opts.MaxDenominator = cfg.Learning.MaxDenominator
	}
	if opts.MaxOffset == 0 {
		opts.MaxOffset = cfg.Learning.MaxOffset
	}
	if opts.AAlpha == 0 {
		opts.AAlpha = cfg.Learning.AAlpha
	}
	if opts.BAlpha == 0 {
		opts.BAlpha = cfg.Learning.BAlpha
	}
	if opts.CutoffFit == 0 {
		opts.CutoffFit = cfg.Learning.CutoffFit
	}
	if opts.CutoffSpread == 0 {
		opts.CutoffSpread = cfg.Learning.CutoffSpread
	}
	if opts.TopK == 0 {
		opts.TopK = cfg.Learning.TopK
	}
}
