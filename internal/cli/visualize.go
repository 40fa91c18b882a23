package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anchorsynth/anchorsynth/pkg/errors"
	"github.com/anchorsynth/anchorsynth/pkg/layout"
	"github.com/anchorsynth/anchorsynth/pkg/render/dot"
	"github.com/anchorsynth/anchorsynth/pkg/synthesis"
)

// visualizeCommand creates the visualize command for rendering a view tree
// with its synthesized constraints.
func (c *CLI) visualizeCommand() *cobra.Command {
	var (
		inputFile string
		output    string
		format    string
		detailed  bool
		noCache   bool
	)
	opts := synthesis.Options{}

	cmd := &cobra.Command{
		Use:   "visualize",
		Short: "Render a view tree and its constraints as a diagram",
		Long: `Render a view tree and its synthesized constraints as a diagram.

The command runs the synthesis pipeline over the input (reusing the cache),
then draws the first example's hierarchy with the selected constraints as
labeled edges. Output formats are svg (default), png, and dot.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runVisualize(cmd.Context(), inputFile, output, format, detailed, opts, noCache)
		},
	}

	cmd.Flags().StringVarP(&inputFile, "input-file", "i", "", "path to the JSON example document (required)")
	_ = cmd.MarkFlagRequired("input-file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: input name with format extension)")
	cmd.Flags().StringVarP(&format, "format", "f", "svg", "output format: svg, png, dot")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include view rectangles in labels")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&opts.LearningMethod, "learning-method", "", "learning method: simple, heuristic, noisetolerant")
	cmd.Flags().StringVar(&opts.PruningMethod, "pruning-method", "", "pruning method: none, baseline, hierarchical")

	return cmd
}

func (c *CLI) runVisualize(ctx context.Context, inputFile, output, format string,
	detailed bool, opts synthesis.Options, noCache bool) error {

	switch format {
	case "svg", "png", "dot":
	default:
		return fmt.Errorf("invalid format: %q (must be one of: svg, png, dot)", format)
	}

	input, err := os.ReadFile(inputFile)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "read input %s", inputFile)
	}

	// Reparse the first example for drawing.
	var doc struct {
		Examples []json.RawMessage `json:"examples"`
		Train    []json.RawMessage `json:"train"`
	}
	if err := json.Unmarshal(input, &doc); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "malformed input document")
	}
	docs := doc.Examples
	if layout.Format(opts.InputFormat) == layout.FormatBench {
		docs = doc.Train
	}
	if len(docs) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "no examples in input")
	}
	root, err := layout.NewLoader(layout.Format(opts.InputFormat), layout.DomainNumber).Load(docs[0])
	if err != nil {
		return err
	}

	runner := c.newRunner(noCache)
	spin := newSpinnerWithContext(ctx, "Synthesizing constraints...")
	spin.Start()
	res, err := runner.Synthesize(withLogger(ctx, c.Logger), input, opts)
	spin.Stop()
	if err != nil {
		return err
	}

	dotSrc := dot.ToDOT(root, res.Constraints, dot.Options{Detailed: detailed})

	var data []byte
	switch format {
	case "dot":
		data = []byte(dotSrc)
	case "svg":
		if data, err = dot.RenderSVG(dotSrc); err != nil {
			return err
		}
	case "png":
		if data, err = dot.RenderPNG(dotSrc); err != nil {
			return err
		}
	}

	if output == "" {
		base := strings.TrimSuffix(filepath.Base(inputFile), filepath.Ext(inputFile))
		output = base + "." + format
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		return err
	}
	printSuccess("Rendered %d constraints", len(res.Constraints))
	printFile(output)
	return nil
}
