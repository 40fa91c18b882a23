// Package render provides visualization rendering for synthesis output.
//
// # Overview
//
// The [dot] subpackage draws a view tree together with its synthesized
// constraints as a Graphviz diagram: views as boxes, hierarchy as solid
// edges, constraints as dashed labeled edges. Rendering to SVG or PNG
// happens in-process via [github.com/goccy/go-graphviz].
//
//	src := dot.ToDOT(root, constraints, dot.Options{})
//	svg, err := dot.RenderSVG(src)
//
// The diagram is a debugging aid for inspecting what the pruner selected;
// it is not a layout preview.
//
// [dot]: github.com/anchorsynth/anchorsynth/pkg/render/dot
package render
