package constraint

import (
	"fmt"

	"github.com/anchorsynth/anchorsynth/pkg/layout"
	"github.com/anchorsynth/anchorsynth/pkg/num"
)

// NewTemplate creates an unlearned constraint sketch of the given kind.
// Constant forms take no x anchor; all other kinds require one. Parameter
// defaults follow the kind: a = 0 for constant forms, a = 1 for add-only
// forms and centering, b = 0 everywhere.
func NewTemplate(kind Kind, y layout.AnchorID, x *layout.AnchorID) (Constraint, error) {
	if !kind.Valid() {
		return Constraint{}, fmt.Errorf("unknown constraint kind %q", kind)
	}
	if kind.IsConstantForm() {
		if x != nil {
			return Constraint{}, fmt.Errorf("%s takes no x anchor", kind)
		}
	} else if x == nil {
		return Constraint{}, fmt.Errorf("%s requires an x anchor", kind)
	}

	a := num.Int(1)
	if kind.IsConstantForm() {
		a = num.Int(0)
	}
	return Constraint{
		Kind:     kind,
		YID:      y,
		XID:      x,
		A:        a,
		B:        num.Int(0),
		Op:       OpEq,
		Priority: PriorityRequired,
	}, nil
}

// MustTemplate is NewTemplate for call sites with statically valid kinds.
func MustTemplate(kind Kind, y layout.AnchorID, x *layout.AnchorID) Constraint {
	c, err := NewTemplate(kind, y, x)
	if err != nil {
		panic(err)
	}
	return c
}
