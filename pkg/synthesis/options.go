// Package synthesis orchestrates the constraint inference pipeline.
//
// This package implements the complete load → instantiate → learn → prune
// pipeline that can be used by CLI and API components. By centralizing this
// logic, we ensure consistent behavior across all entry points and avoid
// code duplication.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Load: Parse the input document into view trees
//  2. Instantiate: Enumerate constraint sketches over anchor pairs
//  3. Learn: Infer sketch parameters from the examples
//  4. Prune: Select a consistent, deterministic, maximal-score subset
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := synthesis.NewRunner(cache, nil, logger)
//	opts := synthesis.Options{
//	    LearningMethod: "noisetolerant",
//	    PruningMethod:  "hierarchical",
//	}
//	result, err := runner.Synthesize(ctx, inputJSON, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	doc := result.Document()
package synthesis

import (
	"github.com/anchorsynth/anchorsynth/pkg/errors"
	"github.com/anchorsynth/anchorsynth/pkg/layout"
	"github.com/anchorsynth/anchorsynth/pkg/num"
	"github.com/anchorsynth/anchorsynth/pkg/synthesis/learn"
	"github.com/anchorsynth/anchorsynth/pkg/synthesis/prune"
)

// Instantiation method names. Both are accepted for compatibility with the
// original tool's interface; the "prolog" engine was an obsolete equivalent
// and maps to the sweep-line instantiator with a warning.
const (
	InstantiationNumpy  = "numpy"
	InstantiationProlog = "prolog"
)

// Options contains all configuration for the synthesis pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Input options
	InputFormat string `json:"input_format,omitempty"` // default | bench
	NumericType string `json:"numeric_type,omitempty"` // N | R | Q | Z
	NumExamples int    `json:"num_examples,omitempty"` // truncate example list; 0 keeps all

	// Method selection
	InstantiationMethod string `json:"instantiation_method,omitempty"` // numpy | prolog
	LearningMethod      string `json:"learning_method,omitempty"`      // simple | heuristic | noisetolerant
	PruningMethod       string `json:"pruning_method,omitempty"`       // none | baseline | hierarchical

	// Pruning bounds. Values are rational strings; empty means "derive
	// from the examples".
	MinWidth  string `json:"min_w,omitempty"`
	MinHeight string `json:"min_h,omitempty"`
	MaxWidth  string `json:"max_w,omitempty"`
	MaxHeight string `json:"max_h,omitempty"`

	// Learner tuning. Zero values take the defaults.
	ExpectedDepth  float64 `json:"expected_depth,omitempty"`
	MaxDenominator int     `json:"max_denominator,omitempty"`
	MaxOffset      int64   `json:"max_offset,omitempty"`
	AAlpha         float64 `json:"a_alpha,omitempty"`
	BAlpha         float64 `json:"b_alpha,omitempty"`
	CutoffFit      float64 `json:"cutoff_fit,omitempty"`
	CutoffSpread   float64 `json:"cutoff_spread,omitempty"`
	TopK           int     `json:"top_k,omitempty"`

	// TimeoutSeconds bounds the whole run; 0 means no deadline.
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`

	// Workers bounds the learner fan-out; 0 means GOMAXPROCS.
	Workers int `json:"workers,omitempty"`

	// Debug toggles: carry intermediate artifacts in the result.
	EmitVisibility bool `json:"emit_visibility,omitempty"`
	EmitTemplates  bool `json:"emit_templates,omitempty"`
	EmitCandidates bool `json:"emit_candidates,omitempty"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks fields and applies defaults. This method is
// idempotent - calling it multiple times has the same effect as calling it
// once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	if o.InputFormat == "" {
		o.InputFormat = string(layout.FormatDefault)
	}
	switch layout.Format(o.InputFormat) {
	case layout.FormatDefault, layout.FormatBench:
	default:
		return errors.New(errors.ErrCodeInvalidOptions, "unknown input_format %q", o.InputFormat)
	}

	if o.NumericType == "" {
		o.NumericType = string(layout.DomainNumber)
	}
	if !layout.Domain(o.NumericType).Valid() {
		return errors.New(errors.ErrCodeInvalidOptions, "unknown numeric_type %q", o.NumericType)
	}

	if o.InstantiationMethod == "" {
		o.InstantiationMethod = InstantiationNumpy
	}
	if o.InstantiationMethod != InstantiationNumpy && o.InstantiationMethod != InstantiationProlog {
		return errors.New(errors.ErrCodeInvalidOptions, "unknown instantiation_method %q", o.InstantiationMethod)
	}

	if o.LearningMethod == "" {
		o.LearningMethod = string(learn.MethodNoiseTolerant)
	}
	if !learn.Method(o.LearningMethod).Valid() {
		return errors.New(errors.ErrCodeInvalidOptions, "unknown learning_method %q", o.LearningMethod)
	}

	if o.PruningMethod == "" {
		o.PruningMethod = string(prune.MethodHierarchical)
	}
	if !prune.Method(o.PruningMethod).Valid() {
		return errors.New(errors.ErrCodeInvalidOptions, "unknown pruning_method %q", o.PruningMethod)
	}

	if o.NumExamples < 0 {
		return errors.New(errors.ErrCodeInvalidOptions, "num_examples must be nonnegative")
	}
	if o.TimeoutSeconds < 0 {
		return errors.New(errors.ErrCodeInvalidOptions, "timeout_seconds must be nonnegative")
	}

	for _, b := range []string{o.MinWidth, o.MinHeight, o.MaxWidth, o.MaxHeight} {
		if b == "" {
			continue
		}
		if _, err := num.Parse(b); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidOptions, err, "invalid pruning bound")
		}
	}

	o.validated = true
	return nil
}

// learnConfig resolves the learner configuration for a set of examples.
// When MaxOffset is unset it is derived from the largest example extent,
// so offsets anywhere inside the biggest screen stay representable.
func (o *Options) learnConfig(examples []*layout.View) learn.Config {
	cfg := learn.DefaultConfig(len(examples))
	if o.MaxOffset > 0 {
		cfg.MaxOffset = o.MaxOffset
	} else {
		var widest int64
		for _, ex := range examples {
			w := num.Float(ex.Rect.Width())
			h := num.Float(ex.Rect.Height())
			if int64(w) > widest {
				widest = int64(w)
			}
			if int64(h) > widest {
				widest = int64(h)
			}
		}
		if widest > 0 {
			cfg.MaxOffset = widest + 10
		}
	}
	if o.ExpectedDepth > 0 {
		cfg.ExpectedDepth = o.ExpectedDepth
	}
	if o.MaxDenominator > 0 {
		cfg.MaxDenominator = o.MaxDenominator
	}
	if o.AAlpha > 0 {
		cfg.AAlpha = o.AAlpha
	}
	if o.BAlpha > 0 {
		cfg.BAlpha = o.BAlpha
	}
	if o.CutoffFit > 0 {
		cfg.CutoffFit = o.CutoffFit
	}
	if o.CutoffSpread > 0 {
		cfg.CutoffSpread = o.CutoffSpread
	}
	if o.TopK > 0 {
		cfg.TopK = o.TopK
	}
	return cfg
}

// pruneBounds resolves the pruning bounds.
func (o *Options) pruneBounds() prune.Bounds {
	parse := func(s string) num.Rat {
		if s == "" {
			return nil
		}
		r, err := num.Parse(s)
		if err != nil {
			return nil
		}
		return r
	}
	return prune.Bounds{
		MinW: parse(o.MinWidth),
		MinH: parse(o.MinHeight),
		MaxW: parse(o.MaxWidth),
		MaxH: parse(o.MaxHeight),
	}
}
