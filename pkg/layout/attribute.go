// Package layout defines the view-tree data model for layout inference.
//
// A layout example is a tree of named rectangular views measured at one
// screen size. Views expose anchors (left, right, top, bottom, center_x,
// center_y, width, height) whose values are exact rationals, and edges (the
// 1-D segments position anchors lie on) used by the visibility engine.
//
// Views are immutable after construction: the loader and builder produce a
// fully-linked tree up front, and anchors and edges are lightweight values
// materialized on demand from the owning view. This keeps references
// acyclic — the tree owns everything, and an anchor is just a (view,
// attribute) pair.
package layout

// Attribute identifies one scalar property of a view.
type Attribute string

// The eight view attributes.
const (
	AttrLeft    Attribute = "left"
	AttrTop     Attribute = "top"
	AttrRight   Attribute = "right"
	AttrBottom  Attribute = "bottom"
	AttrCenterX Attribute = "center_x"
	AttrCenterY Attribute = "center_y"
	AttrWidth   Attribute = "width"
	AttrHeight  Attribute = "height"
)

// Attributes lists all attributes in canonical order.
var Attributes = []Attribute{
	AttrLeft, AttrTop, AttrRight, AttrBottom,
	AttrCenterX, AttrCenterY, AttrWidth, AttrHeight,
}

// IsSize reports whether a is width or height.
func (a Attribute) IsSize() bool {
	return a == AttrWidth || a == AttrHeight
}

// IsPosition reports whether a is a position attribute (everything that is
// not a size).
func (a Attribute) IsPosition() bool {
	switch a {
	case AttrLeft, AttrTop, AttrRight, AttrBottom, AttrCenterX, AttrCenterY:
		return true
	}
	return false
}

// IsHorizontal reports whether a varies along the x axis.
func (a Attribute) IsHorizontal() bool {
	switch a {
	case AttrLeft, AttrRight, AttrCenterX, AttrWidth:
		return true
	}
	return false
}

// IsVertical reports whether a varies along the y axis.
func (a Attribute) IsVertical() bool {
	switch a {
	case AttrTop, AttrBottom, AttrCenterY, AttrHeight:
		return true
	}
	return false
}

// Dual returns the opposing edge attribute (left↔right, top↔bottom).
// Center and size attributes have no dual; ok is false for them.
func (a Attribute) Dual() (dual Attribute, ok bool) {
	switch a {
	case AttrLeft:
		return AttrRight, true
	case AttrRight:
		return AttrLeft, true
	case AttrTop:
		return AttrBottom, true
	case AttrBottom:
		return AttrTop, true
	}
	return "", false
}

// IsDualPair reports whether (a1, a2) is an opposing edge pair in either
// order: {left, right} or {top, bottom}.
func IsDualPair(a1, a2 Attribute) bool {
	d, ok := a1.Dual()
	return ok && d == a2
}

// Valid reports whether a is one of the eight attributes.
func (a Attribute) Valid() bool {
	switch a {
	case AttrLeft, AttrTop, AttrRight, AttrBottom, AttrCenterX, AttrCenterY, AttrWidth, AttrHeight:
		return true
	}
	return false
}
