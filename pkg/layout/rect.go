package layout

import (
	"fmt"

	"github.com/anchorsynth/anchorsynth/pkg/num"
)

// Rect is an axis-aligned rectangle with exact rational coordinates.
// Invariant: Left <= Right and Top <= Bottom.
type Rect struct {
	Left   num.Rat
	Top    num.Rat
	Right  num.Rat
	Bottom num.Rat
}

// NewRect builds a rectangle from its four edge coordinates. It returns an
// error if the rectangle is inverted (negative width or height).
func NewRect(left, top, right, bottom num.Rat) (Rect, error) {
	if right.Cmp(left) < 0 || bottom.Cmp(top) < 0 {
		return Rect{}, fmt.Errorf("inverted rect: left=%s top=%s right=%s bottom=%s",
			num.Format(left), num.Format(top), num.Format(right), num.Format(bottom))
	}
	return Rect{Left: left, Top: top, Right: right, Bottom: bottom}, nil
}

// RectFromInts builds a rectangle from integer coordinates. It panics on an
// inverted rectangle; intended for tests and literals.
func RectFromInts(left, top, right, bottom int64) Rect {
	r, err := NewRect(num.Int(left), num.Int(top), num.Int(right), num.Int(bottom))
	if err != nil {
		panic(err)
	}
	return r
}

// Width returns right - left.
func (r Rect) Width() num.Rat { return num.Sub(r.Right, r.Left) }

// Height returns bottom - top.
func (r Rect) Height() num.Rat { return num.Sub(r.Bottom, r.Top) }

// CenterX returns (left + right) / 2.
func (r Rect) CenterX() num.Rat { return num.Mid(r.Left, r.Right) }

// CenterY returns (top + bottom) / 2.
func (r Rect) CenterY() num.Rat { return num.Mid(r.Top, r.Bottom) }

// Attr returns the rectangle's value for the given attribute.
func (r Rect) Attr(a Attribute) num.Rat {
	switch a {
	case AttrLeft:
		return r.Left
	case AttrTop:
		return r.Top
	case AttrRight:
		return r.Right
	case AttrBottom:
		return r.Bottom
	case AttrCenterX:
		return r.CenterX()
	case AttrCenterY:
		return r.CenterY()
	case AttrWidth:
		return r.Width()
	case AttrHeight:
		return r.Height()
	}
	panic(fmt.Sprintf("unknown attribute %q", a))
}

// Eq reports whether two rectangles have identical coordinates.
func (r Rect) Eq(o Rect) bool {
	return num.Eq(r.Left, o.Left) && num.Eq(r.Top, o.Top) &&
		num.Eq(r.Right, o.Right) && num.Eq(r.Bottom, o.Bottom)
}

// String renders the rectangle as "[l t r b]".
func (r Rect) String() string {
	return fmt.Sprintf("[%s %s %s %s]",
		num.Format(r.Left), num.Format(r.Top), num.Format(r.Right), num.Format(r.Bottom))
}
