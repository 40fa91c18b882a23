package layout

import (
	"github.com/anchorsynth/anchorsynth/pkg/num"
)

// View is one node of a layout example: a named rectangle with children.
// Views are constructed by Builder or Loader and never mutated afterwards.
// Every child's rectangle is assumed to lie within its parent's; the loader
// does not enforce containment, but all downstream solver encoding relies
// on it.
type View struct {
	Name     string
	Rect     Rect
	Children []*View

	parent *View
}

// Parent returns the view's parent, or nil for the root.
func (v *View) Parent() *View { return v.parent }

// Attr returns the view's value for the given attribute.
func (v *View) Attr(a Attribute) num.Rat { return v.Rect.Attr(a) }

// Anchor returns the view's anchor for the given attribute.
func (v *View) Anchor(a Attribute) Anchor { return Anchor{View: v, Attribute: a} }

// Edge returns the view's edge for the given position attribute.
func (v *View) Edge(a Attribute) Edge { return v.Anchor(a).Edge() }

// Anchors returns all eight anchors in canonical order.
func (v *View) Anchors() []Anchor {
	out := make([]Anchor, len(Attributes))
	for i, a := range Attributes {
		out[i] = v.Anchor(a)
	}
	return out
}

// XAnchors returns the four horizontal-axis anchors.
func (v *View) XAnchors() []Anchor {
	return []Anchor{
		v.Anchor(AttrLeft), v.Anchor(AttrRight),
		v.Anchor(AttrWidth), v.Anchor(AttrCenterX),
	}
}

// YAnchors returns the four vertical-axis anchors.
func (v *View) YAnchors() []Anchor {
	return []Anchor{
		v.Anchor(AttrTop), v.Anchor(AttrBottom),
		v.Anchor(AttrHeight), v.Anchor(AttrCenterY),
	}
}

// AxisAnchors returns XAnchors for horizontal and YAnchors for vertical.
func (v *View) AxisAnchors(horizontal bool) []Anchor {
	if horizontal {
		return v.XAnchors()
	}
	return v.YAnchors()
}

// All returns the view and all descendants in pre-order.
func (v *View) All() []*View {
	out := []*View{v}
	for _, c := range v.Children {
		out = append(out, c.All()...)
	}
	return out
}

// Find returns the named view within this subtree, or nil.
func (v *View) Find(name string) *View {
	for _, w := range v.All() {
		if w.Name == name {
			return w
		}
	}
	return nil
}

// FindAnchor resolves an anchor ID within this subtree, or returns false.
func (v *View) FindAnchor(id AnchorID) (Anchor, bool) {
	w := v.Find(id.ViewName)
	if w == nil {
		return Anchor{}, false
	}
	return w.Anchor(id.Attribute), true
}

// IsParentOf reports whether name is one of v's immediate children.
func (v *View) IsParentOf(name string) bool {
	for _, c := range v.Children {
		if c.Name == name {
			return true
		}
	}
	return false
}

// IsSiblingOf reports whether v and o are distinct views sharing a parent.
func (v *View) IsSiblingOf(o *View) bool {
	return v != o && v.parent != nil && v.parent == o.parent
}

// IsIsomorphic reports whether v and o have identical structure: the same
// arity at every node and, when includeNames is set, the same names.
// Rectangles are not compared.
func (v *View) IsIsomorphic(o *View, includeNames bool) bool {
	if includeNames && v.Name != o.Name {
		return false
	}
	if len(v.Children) != len(o.Children) {
		return false
	}
	for i := range v.Children {
		if !v.Children[i].IsIsomorphic(o.Children[i], includeNames) {
			return false
		}
	}
	return true
}

// link wires parent pointers throughout the subtree. Called once at build
// time; views are immutable afterwards.
func (v *View) link(parent *View) {
	v.parent = parent
	for _, c := range v.Children {
		c.link(v)
	}
}
