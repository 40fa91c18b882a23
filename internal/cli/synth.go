package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/anchorsynth/anchorsynth/pkg/cache"
	"github.com/anchorsynth/anchorsynth/pkg/errors"
	"github.com/anchorsynth/anchorsynth/pkg/synthesis"
)

// synthCommand creates the synth command, the main entry point of the tool.
func (c *CLI) synthCommand() *cobra.Command {
	var (
		inputFile  string
		outputFile string
		configFile string
		noCache    bool
		redisAddr  string
	)
	opts := synthesis.Options{}

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Synthesize layout constraints from examples",
		Long: `Synthesize layout constraints from a JSON example file.

The input document holds one or more measured examples of the same view
hierarchy at different screen sizes:

  {"examples": [{"name": "root", "rect": [0, 0, 800, 600], "children": [...]}, ...]}

The bench format uses {"train": [...]} with left/top/width/height records.

Synthesis emits a JSON document of constraints of the form y = a*x + b over
view anchors, selected so that they reproduce the examples, determine every
view uniquely, and generalize across the tested size range.

Results are cached locally; identical inputs and options return instantly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if configFile != "" {
				cfg, err := loadConfig(configFile)
				if err != nil {
					return err
				}
				cfg.apply(&opts)
				if cfg.Cache.Disabled {
					noCache = true
				}
				if redisAddr == "" {
					redisAddr = cfg.Cache.RedisAddr
				}
			}
			return c.runSynth(cmd.Context(), inputFile, outputFile, opts, noCache, redisAddr)
		},
	}

	cmd.Flags().StringVarP(&inputFile, "input-file", "i", "", "path to the JSON example document (required)")
	_ = cmd.MarkFlagRequired("input-file")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "write the result document to a file instead of stdout")
	cmd.Flags().StringVar(&configFile, "config", "", "TOML configuration file")

	cmd.Flags().StringVar(&opts.InputFormat, "input-format", "", "input format: default, bench")
	cmd.Flags().StringVar(&opts.NumericType, "numeric-type", "", "numeric domain: N, R, Q, Z")
	cmd.Flags().StringVar(&opts.InstantiationMethod, "instantiation-method", "", "instantiation method: numpy, prolog")
	cmd.Flags().StringVar(&opts.LearningMethod, "learning-method", "", "learning method: simple, heuristic, noisetolerant")
	cmd.Flags().StringVar(&opts.PruningMethod, "pruning-method", "", "pruning method: none, baseline, hierarchical")
	cmd.Flags().IntVar(&opts.NumExamples, "num-examples", 0, "truncate the example list")
	cmd.Flags().IntVar(&opts.TimeoutSeconds, "timeout", 0, "global synthesis deadline in seconds")

	cmd.Flags().StringVar(&opts.MinWidth, "min-w", "", "minimum test width")
	cmd.Flags().StringVar(&opts.MinHeight, "min-h", "", "minimum test height")
	cmd.Flags().StringVar(&opts.MaxWidth, "max-w", "", "maximum test width")
	cmd.Flags().StringVar(&opts.MaxHeight, "max-h", "", "maximum test height")

	cmd.Flags().BoolVar(&opts.EmitVisibility, "emit-visibility", false, "emit visibility pairs to stderr")
	cmd.Flags().BoolVar(&opts.EmitTemplates, "emit-templates", false, "emit instantiated templates to stderr")
	cmd.Flags().BoolVar(&opts.EmitCandidates, "emit-candidates", false, "emit learned candidates to stderr")

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable result caching")
	cmd.Flags().StringVar(&redisAddr, "cache-redis", "", "use a Redis result cache at this address")

	return cmd
}

// runSynth executes one synthesis and writes the output document.
func (c *CLI) runSynth(ctx context.Context, inputFile, outputFile string,
	opts synthesis.Options, noCache bool, redisAddr string) error {

	input, err := os.ReadFile(inputFile)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "read input %s", inputFile)
	}

	runner, closeCache, err := c.synthRunner(ctx, noCache, redisAddr)
	if err != nil {
		return err
	}
	defer closeCache()

	prog := newProgress(c.Logger)
	res, synthErr := runner.Synthesize(withLogger(ctx, c.Logger), input, opts)
	if synthErr != nil && res == nil {
		return synthErr
	}

	c.emitDebug(res, opts)

	doc, err := json.MarshalIndent(res.Document(), "", "  ")
	if err != nil {
		return err
	}
	doc = append(doc, '\n')

	if outputFile != "" {
		if err := os.WriteFile(outputFile, doc, 0644); err != nil {
			return err
		}
		printFile(outputFile)
	} else {
		if _, err := os.Stdout.Write(doc); err != nil {
			return err
		}
	}

	switch {
	case synthErr != nil:
		printWarning("Deadline exhausted; result is a best-effort partial answer")
		return synthErr
	case res.CacheHit:
		prog.done(fmt.Sprintf("Selected %d constraints (cached)", len(res.Constraints)))
	default:
		prog.done(fmt.Sprintf("Selected %d constraints from %d candidates",
			len(res.Constraints), res.Stats.CandidateCount))
	}
	return nil
}

// synthRunner builds a runner with the requested cache backend.
func (c *CLI) synthRunner(ctx context.Context, noCache bool, redisAddr string) (*synthesis.Runner, func(), error) {
	if redisAddr != "" && !noCache {
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: redisAddr})
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis cache: %w", err)
		}
		runner := synthesis.NewRunner(rc, nil, c.Logger)
		return runner, func() { _ = rc.Close() }, nil
	}
	return c.newRunner(noCache), func() {}, nil
}

// emitDebug streams the requested intermediate artifacts to stderr as JSON
// lines.
func (c *CLI) emitDebug(res *synthesis.Result, opts synthesis.Options) {
	enc := json.NewEncoder(os.Stderr)
	if opts.EmitVisibility {
		_ = enc.Encode(map[string]any{"visibility_pairs": res.VisibilityPairs})
	}
	if opts.EmitTemplates {
		_ = enc.Encode(map[string]any{"templates": res.Templates})
	}
	if opts.EmitCandidates {
		type scored struct {
			Constraint json.RawMessage `json:"constraint"`
			Score      float64         `json:"score"`
		}
		out := make([]scored, 0, len(res.Candidates))
		for _, cd := range res.Candidates {
			data, err := json.Marshal(cd.Constraint)
			if err != nil {
				continue
			}
			out = append(out, scored{Constraint: data, Score: cd.Score})
		}
		_ = enc.Encode(map[string]any{"candidates": out})
	}
}
