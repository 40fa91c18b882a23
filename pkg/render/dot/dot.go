// Package dot renders a view tree and its synthesized constraints as a
// Graphviz diagram.
//
// This is a debug aid: nodes are views, solid edges are the hierarchy, and
// dashed labeled edges show how each constraint ties its y anchor to its x
// anchor. In-process SVG rendering uses [github.com/goccy/go-graphviz].
package dot

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/anchorsynth/anchorsynth/pkg/constraint"
	"github.com/anchorsynth/anchorsynth/pkg/layout"
	"github.com/anchorsynth/anchorsynth/pkg/num"
)

// Options configures diagram rendering.
type Options struct {
	// Detailed includes each view's rectangle in its label.
	Detailed bool
}

// ToDOT converts a view tree plus constraints to Graphviz DOT format. The
// resulting DOT string can be rendered with [RenderSVG] or [RenderPNG].
func ToDOT(root *layout.View, constraints []constraint.Constraint, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, v := range root.All() {
		label := v.Name
		if opts.Detailed {
			label = fmt.Sprintf("%s\n%s", v.Name, v.Rect)
		}
		// Constants attach to their view's label.
		var consts []string
		for _, c := range constraints {
			if c.XID == nil && c.YID.ViewName == v.Name {
				consts = append(consts, fmt.Sprintf("%s %s %s", c.YID.Attribute, c.Op, num.Format(c.B)))
			}
		}
		if len(consts) > 0 {
			label += "\n" + strings.Join(consts, "\n")
		}
		fmt.Fprintf(&buf, "  %q [label=%q];\n", v.Name, label)
	}

	buf.WriteString("\n")
	for _, v := range root.All() {
		for _, c := range v.Children {
			fmt.Fprintf(&buf, "  %q -> %q;\n", v.Name, c.Name)
		}
	}

	buf.WriteString("\n")
	for _, c := range constraints {
		if c.XID == nil {
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [style=dashed, color=grey40, fontsize=10, label=%q];\n",
			c.YID.ViewName, c.XID.ViewName, edgeLabel(c))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// edgeLabel compresses a constraint into an edge annotation, dropping the
// neutral multiplier and offset.
func edgeLabel(c constraint.Constraint) string {
	rhs := string(c.XID.Attribute)
	if !num.Eq(c.A, num.Int(1)) {
		rhs = fmt.Sprintf("%s*%s", num.Format(c.A), rhs)
	}
	if !num.IsZero(c.B) {
		sign := "+"
		if c.B.Sign() < 0 {
			sign = ""
		}
		rhs = fmt.Sprintf("%s%s%s", rhs, sign, num.Format(c.B))
	}
	return fmt.Sprintf("%s %s %s", c.YID.Attribute, c.Op, rhs)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	return render(dot, graphviz.SVG)
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(dot string) ([]byte, error) {
	return render(dot, graphviz.PNG)
}

func render(dot string, format graphviz.Format) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
