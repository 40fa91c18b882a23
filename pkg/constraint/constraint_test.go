package constraint

import (
	"encoding/json"
	"testing"

	"github.com/anchorsynth/anchorsynth/pkg/layout"
	"github.com/anchorsynth/anchorsynth/pkg/num"
)

func anchor(view string, attr layout.Attribute) layout.AnchorID {
	return layout.AnchorID{ViewName: view, Attribute: attr}
}

func TestKindForms(t *testing.T) {
	tests := []struct {
		kind     Kind
		free     int
		constant bool
		addOnly  bool
		mulOnly  bool
		general  bool
		position bool
	}{
		{KindSizeConstant, 1, true, false, false, false, false},
		{KindSizeConstantBound, 1, true, false, false, false, false},
		{KindSizeOffset, 1, false, true, false, false, false},
		{KindSizeRatio, 1, false, false, true, false, false},
		{KindSizeRatioGeneral, 2, false, false, false, true, false},
		{KindSizeAspectRatio, 1, false, false, true, false, false},
		{KindSizeAspectRatioGeneral, 2, false, false, false, true, false},
		{KindPosLTRBOffset, 1, false, true, false, false, true},
		{KindPosCentering, 0, false, false, false, false, true},
	}
	for _, tt := range tests {
		if got := tt.kind.NumFreeVars(); got != tt.free {
			t.Errorf("%s.NumFreeVars() = %d, want %d", tt.kind, got, tt.free)
		}
		if got := tt.kind.IsConstantForm(); got != tt.constant {
			t.Errorf("%s.IsConstantForm() = %v", tt.kind, got)
		}
		if got := tt.kind.IsAddOnlyForm(); got != tt.addOnly {
			t.Errorf("%s.IsAddOnlyForm() = %v", tt.kind, got)
		}
		if got := tt.kind.IsMulOnlyForm(); got != tt.mulOnly {
			t.Errorf("%s.IsMulOnlyForm() = %v", tt.kind, got)
		}
		if got := tt.kind.IsGeneralForm(); got != tt.general {
			t.Errorf("%s.IsGeneralForm() = %v", tt.kind, got)
		}
		if got := tt.kind.IsPositionKind(); got != tt.position {
			t.Errorf("%s.IsPositionKind() = %v", tt.kind, got)
		}
		if tt.kind.IsSizeKind() == tt.position {
			t.Errorf("%s: IsSizeKind and IsPositionKind must be exclusive", tt.kind)
		}
	}
}

func TestNewTemplateDefaults(t *testing.T) {
	y := anchor("header", layout.AttrHeight)

	c := MustTemplate(KindSizeConstant, y, nil)
	if !c.IsTemplate() {
		t.Error("fresh sketch should be a template")
	}
	if num.Format(c.A) != "0" || num.Format(c.B) != "0" {
		t.Errorf("size_constant defaults a=%s b=%s, want 0, 0", num.Format(c.A), num.Format(c.B))
	}

	x := anchor("root", layout.AttrHeight)
	c = MustTemplate(KindPosLTRBOffset, anchor("header", layout.AttrTop), &x)
	if num.Format(c.A) != "1" {
		t.Errorf("add-only default a=%s, want 1", num.Format(c.A))
	}
}

func TestNewTemplateValidation(t *testing.T) {
	y := anchor("v", layout.AttrWidth)
	x := anchor("root", layout.AttrWidth)

	if _, err := NewTemplate(KindSizeConstant, y, &x); err == nil {
		t.Error("constant form with x anchor should fail")
	}
	if _, err := NewTemplate(KindSizeRatio, y, nil); err == nil {
		t.Error("ratio form without x anchor should fail")
	}
	if _, err := NewTemplate(Kind("bogus"), y, nil); err == nil {
		t.Error("unknown kind should fail")
	}
}

func TestSubst(t *testing.T) {
	y := anchor("header", layout.AttrHeight)
	tpl := MustTemplate(KindSizeConstant, y, nil)

	c := tpl.Subst(nil, num.Int(80), 2)
	if c.IsTemplate() {
		t.Error("substituted constraint should not be a template")
	}
	if num.Format(c.B) != "80" || c.SampleCount != 2 {
		t.Errorf("subst result b=%s n=%d", num.Format(c.B), c.SampleCount)
	}
	// Template untouched.
	if !tpl.IsTemplate() || num.Format(tpl.B) != "0" {
		t.Error("Subst mutated the template")
	}
}

func TestSubstPanics(t *testing.T) {
	y := anchor("header", layout.AttrHeight)
	learned := MustTemplate(KindSizeConstant, y, nil).Subst(nil, num.Int(80), 1)

	defer func() {
		if recover() == nil {
			t.Error("Subst on a learned constraint should panic")
		}
	}()
	learned.Subst(nil, num.Int(90), 1)
}

func TestIsHorizontal(t *testing.T) {
	xw := anchor("root", layout.AttrWidth)
	c := MustTemplate(KindSizeRatio, anchor("v", layout.AttrWidth), &xw)
	if !c.IsHorizontal() {
		t.Error("width ratio should be horizontal")
	}

	xh := anchor("root", layout.AttrHeight)
	c = MustTemplate(KindSizeRatio, anchor("v", layout.AttrHeight), &xh)
	if c.IsHorizontal() {
		t.Error("height ratio should be vertical")
	}

	// Aspect ratios cross axes and classify by y.
	c = MustTemplate(KindSizeAspectRatio, anchor("v", layout.AttrWidth), &xh)
	if !c.IsHorizontal() {
		t.Error("aspect ratio with y=width should classify horizontal")
	}
}

func TestOpHolds(t *testing.T) {
	two, three := num.Int(2), num.Int(3)

	if !OpEq.Holds(two, two) || OpEq.Holds(two, three) {
		t.Error("OpEq misbehaves")
	}
	if !OpLE.Holds(two, three) || OpLE.Holds(three, two) {
		t.Error("OpLE misbehaves")
	}
	if !OpGE.Holds(three, two) || OpGE.Holds(two, three) {
		t.Error("OpGE misbehaves")
	}
	if OpLE.Flip() != OpGE || OpGE.Flip() != OpLE || OpEq.Flip() != OpEq {
		t.Error("Flip misbehaves")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	x := anchor("root", layout.AttrWidth)
	orig := MustTemplate(KindSizeRatio, anchor("sidebar", layout.AttrWidth), &x).
		Subst(num.Frac(1, 4), nil, 2)

	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	parsed, err := ParseConstraint(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !parsed.Equal(orig) {
		t.Errorf("round trip mismatch:\n  orig:   %s\n  parsed: %s", orig, parsed)
	}
}

func TestJSONRoundTripConstant(t *testing.T) {
	orig := MustTemplate(KindSizeConstant, anchor("header", layout.AttrHeight), nil).
		Subst(nil, num.Int(80), 3)

	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal to map: %v", err)
	}
	if m["x"] != nil {
		t.Errorf("constant form should serialize x as null, got %v", m["x"])
	}

	parsed, err := ParseConstraint(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !parsed.Equal(orig) {
		t.Errorf("round trip mismatch: %s != %s", parsed, orig)
	}
}

func TestString(t *testing.T) {
	x := anchor("root", layout.AttrWidth)
	tpl := MustTemplate(KindSizeRatio, anchor("v", layout.AttrWidth), &x)
	if got := tpl.String(); got != "v.width = _ * root.width" {
		t.Errorf("template String() = %q", got)
	}
	c := tpl.Subst(num.Frac(1, 2), nil, 1)
	if got := c.String(); got != "v.width = 1/2 * root.width" {
		t.Errorf("learned String() = %q", got)
	}
}

func TestKeyIdentity(t *testing.T) {
	x := anchor("root", layout.AttrWidth)
	a := MustTemplate(KindSizeRatio, anchor("v", layout.AttrWidth), &x).Subst(num.Frac(1, 2), nil, 1)
	b := MustTemplate(KindSizeRatio, anchor("v", layout.AttrWidth), &x).Subst(num.Frac(2, 4), nil, 2)
	c := MustTemplate(KindSizeRatio, anchor("v", layout.AttrWidth), &x).Subst(num.Frac(1, 3), nil, 1)

	if a.Key() != b.Key() {
		t.Error("equal-value constraints should share a key (sample count excluded)")
	}
	if a.Key() == c.Key() {
		t.Error("different coefficients should produce different keys")
	}
}
