// Package constraint defines the constraint grammar of the synthesis engine.
//
// A constraint relates one anchor (y) to at most one other anchor (x) by a
// linear form y op a·x + b with exact rational coefficients. Constraints are
// immutable values: the learner produces instantiated constraints from
// templates via the functional Subst operation, never by mutation.
package constraint

// Kind classifies a constraint's form and role.
type Kind string

// The constraint kinds.
const (
	// KindSizeConstant is y = b on a size anchor.
	KindSizeConstant Kind = "size_constant"
	// KindSizeConstantBound is y >= b or y <= b; a low-priority form used
	// only when learning produces an inequality bound instead of a point.
	KindSizeConstantBound Kind = "size_constant_bound"
	// KindSizeOffset is y = x + b on size anchors.
	KindSizeOffset Kind = "size_offset"
	// KindSizeRatio is y = a·x on size anchors.
	KindSizeRatio Kind = "size_ratio"
	// KindSizeRatioGeneral is y = a·x + b on size anchors.
	KindSizeRatioGeneral Kind = "size_ratio_general"
	// KindSizeAspectRatio is y = a·x between the perpendicular size anchors
	// of a single view.
	KindSizeAspectRatio Kind = "size_aspect_ratio"
	// KindSizeAspectRatioGeneral is the general-form aspect ratio.
	KindSizeAspectRatioGeneral Kind = "size_aspect_ratio_general"
	// KindPosLTRBOffset is y = x + b on position anchors, used for both
	// adjacency and alignment (alignment has b = 0).
	KindPosLTRBOffset Kind = "pos_ltrb_offset"
	// KindPosCentering is y = x on center attributes.
	KindPosCentering Kind = "pos_centering"
)

// Kinds lists every kind in canonical order.
var Kinds = []Kind{
	KindSizeConstant, KindSizeConstantBound,
	KindSizeOffset, KindSizeRatio, KindSizeRatioGeneral,
	KindSizeAspectRatio, KindSizeAspectRatioGeneral,
	KindPosLTRBOffset, KindPosCentering,
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// IsConstantForm reports whether the form is y op b (no x anchor).
func (k Kind) IsConstantForm() bool {
	return k == KindSizeConstant || k == KindSizeConstantBound
}

// IsAddOnlyForm reports whether the form is y op x + b (a fixed at 1).
func (k Kind) IsAddOnlyForm() bool {
	return k == KindSizeOffset || k == KindPosLTRBOffset
}

// IsMulOnlyForm reports whether the form is y op a·x (b fixed at 0).
func (k Kind) IsMulOnlyForm() bool {
	return k == KindSizeRatio || k == KindSizeAspectRatio
}

// IsGeneralForm reports whether the form is y op a·x + b with both free.
func (k Kind) IsGeneralForm() bool {
	return k == KindSizeRatioGeneral || k == KindSizeAspectRatioGeneral
}

// IsPositionKind reports whether the kind constrains position anchors.
func (k Kind) IsPositionKind() bool {
	return k == KindPosLTRBOffset || k == KindPosCentering
}

// IsSizeKind reports whether the kind constrains size anchors.
func (k Kind) IsSizeKind() bool {
	return !k.IsPositionKind()
}

// NumFreeVars returns how many parameters learning must infer: 0 for fully
// fixed forms, 1 for constant/add-only/mul-only forms, 2 for general forms.
func (k Kind) NumFreeVars() int {
	switch {
	case k == KindPosCentering:
		return 0
	case k.IsGeneralForm():
		return 2
	default:
		return 1
	}
}
