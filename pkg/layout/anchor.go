package layout

import (
	"fmt"
	"strings"

	"github.com/anchorsynth/anchorsynth/pkg/num"
)

// AnchorID names a single anchor: a (view name, attribute) pair.
// IDs are globally unique within one example tree.
type AnchorID struct {
	ViewName  string
	Attribute Attribute
}

// String renders the ID as "view.attribute".
func (id AnchorID) String() string {
	return id.ViewName + "." + string(id.Attribute)
}

// ParseAnchorID reads an ID in "view.attribute" form.
func ParseAnchorID(s string) (AnchorID, error) {
	i := strings.LastIndex(s, ".")
	if i <= 0 || i == len(s)-1 {
		return AnchorID{}, fmt.Errorf("invalid anchor id %q", s)
	}
	attr := Attribute(s[i+1:])
	if !attr.Valid() {
		return AnchorID{}, fmt.Errorf("invalid anchor attribute in %q", s)
	}
	return AnchorID{ViewName: s[:i], Attribute: attr}, nil
}

// Anchor is a materialized anchor: the backing view plus the attribute.
// Its value is read from the view's rectangle on demand.
type Anchor struct {
	View      *View
	Attribute Attribute
}

// ID returns the anchor's identifier.
func (a Anchor) ID() AnchorID {
	return AnchorID{ViewName: a.View.Name, Attribute: a.Attribute}
}

// Value returns the anchor's numeric value under its example.
func (a Anchor) Value() num.Rat {
	return a.View.Rect.Attr(a.Attribute)
}

// Edge returns the 1-D segment this position anchor lies on. Only position
// attributes have edges; Edge panics for width and height.
func (a Anchor) Edge() Edge {
	if !a.Attribute.IsPosition() {
		panic(fmt.Sprintf("anchor %s has no edge", a.ID()))
	}
	r := a.View.Rect
	if a.Attribute.IsHorizontal() {
		// Vertical segment spanning the view's y extent.
		return Edge{Anchor: a, Lo: r.Top, Hi: r.Bottom}
	}
	// Horizontal segment spanning the view's x extent.
	return Edge{Anchor: a, Lo: r.Left, Hi: r.Right}
}

// String renders the anchor as "view.attribute @ value".
func (a Anchor) String() string {
	return fmt.Sprintf("%s @ %s", a.ID(), num.Format(a.Value()))
}

// Edge is a line segment perpendicular to its anchor's axis. For example,
// header.bottom carries the horizontal segment from header.left to
// header.right at y = header.bottom.
type Edge struct {
	Anchor Anchor
	Lo     num.Rat // segment start on the perpendicular axis
	Hi     num.Rat // segment end, Lo <= Hi
}

// Position returns the coordinate the segment sits at on its own axis.
func (e Edge) Position() num.Rat {
	return e.Anchor.Value()
}

// View returns the owning view.
func (e Edge) View() *View {
	return e.Anchor.View
}

// String renders the edge as "view.attribute (lo, hi) @ position".
func (e Edge) String() string {
	return fmt.Sprintf("%s (%s, %s) @ %s",
		e.Anchor.ID(), num.Format(e.Lo), num.Format(e.Hi), num.Format(e.Position()))
}
