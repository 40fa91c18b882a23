package layout

import (
	"testing"

	"github.com/anchorsynth/anchorsynth/pkg/num"
)

func sampleTree(t *testing.T) *View {
	t.Helper()
	return B("root", 0, 0, 800, 600,
		B("header", 0, 0, 800, 80),
		B("sidebar", 0, 80, 200, 600),
		B("main", 200, 80, 800, 600),
	).MustBuild()
}

func TestAttributePredicates(t *testing.T) {
	tests := []struct {
		attr                 Attribute
		size, pos, horiz, vert bool
	}{
		{AttrLeft, false, true, true, false},
		{AttrRight, false, true, true, false},
		{AttrCenterX, false, true, true, false},
		{AttrWidth, true, false, true, false},
		{AttrTop, false, true, false, true},
		{AttrBottom, false, true, false, true},
		{AttrCenterY, false, true, false, true},
		{AttrHeight, true, false, false, true},
	}
	for _, tt := range tests {
		if got := tt.attr.IsSize(); got != tt.size {
			t.Errorf("%s.IsSize() = %v, want %v", tt.attr, got, tt.size)
		}
		if got := tt.attr.IsPosition(); got != tt.pos {
			t.Errorf("%s.IsPosition() = %v, want %v", tt.attr, got, tt.pos)
		}
		if got := tt.attr.IsHorizontal(); got != tt.horiz {
			t.Errorf("%s.IsHorizontal() = %v, want %v", tt.attr, got, tt.horiz)
		}
		if got := tt.attr.IsVertical(); got != tt.vert {
			t.Errorf("%s.IsVertical() = %v, want %v", tt.attr, got, tt.vert)
		}
	}
}

func TestDualPairs(t *testing.T) {
	if !IsDualPair(AttrLeft, AttrRight) || !IsDualPair(AttrRight, AttrLeft) {
		t.Error("left/right should be dual")
	}
	if !IsDualPair(AttrTop, AttrBottom) || !IsDualPair(AttrBottom, AttrTop) {
		t.Error("top/bottom should be dual")
	}
	if IsDualPair(AttrLeft, AttrTop) {
		t.Error("left/top should not be dual")
	}
	if _, ok := AttrCenterX.Dual(); ok {
		t.Error("center_x should have no dual")
	}
	if _, ok := AttrWidth.Dual(); ok {
		t.Error("width should have no dual")
	}
}

func TestRectDerived(t *testing.T) {
	r := RectFromInts(10, 20, 110, 70)

	if got := num.Format(r.Width()); got != "100" {
		t.Errorf("Width = %s, want 100", got)
	}
	if got := num.Format(r.Height()); got != "50" {
		t.Errorf("Height = %s, want 50", got)
	}
	if got := num.Format(r.CenterX()); got != "60" {
		t.Errorf("CenterX = %s, want 60", got)
	}
	if got := num.Format(r.CenterY()); got != "45" {
		t.Errorf("CenterY = %s, want 45", got)
	}
}

func TestNewRectInverted(t *testing.T) {
	if _, err := NewRect(num.Int(10), num.Int(0), num.Int(5), num.Int(10)); err == nil {
		t.Error("inverted rect should be rejected")
	}
}

func TestViewTraversal(t *testing.T) {
	root := sampleTree(t)

	all := root.All()
	if len(all) != 4 {
		t.Fatalf("All() returned %d views, want 4", len(all))
	}
	if all[0].Name != "root" {
		t.Errorf("traversal should be pre-order, got %s first", all[0].Name)
	}

	if root.Find("main") == nil {
		t.Error("Find(main) returned nil")
	}
	if root.Find("nope") != nil {
		t.Error("Find(nope) should return nil")
	}
}

func TestViewParentLinks(t *testing.T) {
	root := sampleTree(t)

	if root.Parent() != nil {
		t.Error("root should have nil parent")
	}
	header := root.Find("header")
	if header.Parent() != root {
		t.Error("header's parent should be root")
	}
	if !root.IsParentOf("header") {
		t.Error("root should be parent of header")
	}
	if root.IsParentOf("nope") {
		t.Error("root is not parent of nope")
	}
	sidebar := root.Find("sidebar")
	if !header.IsSiblingOf(sidebar) {
		t.Error("header and sidebar should be siblings")
	}
	if header.IsSiblingOf(header) {
		t.Error("a view is not its own sibling")
	}
}

func TestAnchorValues(t *testing.T) {
	root := sampleTree(t)
	header := root.Find("header")

	tests := []struct {
		attr Attribute
		want string
	}{
		{AttrLeft, "0"},
		{AttrRight, "800"},
		{AttrBottom, "80"},
		{AttrWidth, "800"},
		{AttrHeight, "80"},
		{AttrCenterX, "400"},
		{AttrCenterY, "40"},
	}
	for _, tt := range tests {
		if got := num.Format(header.Anchor(tt.attr).Value()); got != tt.want {
			t.Errorf("header.%s = %s, want %s", tt.attr, got, tt.want)
		}
	}
}

func TestAnchorEdges(t *testing.T) {
	root := sampleTree(t)
	header := root.Find("header")

	// header.bottom carries the horizontal segment [left, right] at y=80.
	e := header.Edge(AttrBottom)
	if num.Format(e.Lo) != "0" || num.Format(e.Hi) != "800" {
		t.Errorf("bottom edge interval = (%s, %s), want (0, 800)", num.Format(e.Lo), num.Format(e.Hi))
	}
	if num.Format(e.Position()) != "80" {
		t.Errorf("bottom edge position = %s, want 80", num.Format(e.Position()))
	}

	// header.right carries the vertical segment [top, bottom] at x=800.
	e = header.Edge(AttrRight)
	if num.Format(e.Lo) != "0" || num.Format(e.Hi) != "80" {
		t.Errorf("right edge interval = (%s, %s), want (0, 80)", num.Format(e.Lo), num.Format(e.Hi))
	}
}

func TestAnchorID(t *testing.T) {
	id := AnchorID{ViewName: "header", Attribute: AttrBottom}
	if id.String() != "header.bottom" {
		t.Errorf("String() = %q", id.String())
	}

	parsed, err := ParseAnchorID("header.bottom")
	if err != nil {
		t.Fatalf("ParseAnchorID error: %v", err)
	}
	if parsed != id {
		t.Errorf("round trip mismatch: %v != %v", parsed, id)
	}

	for _, bad := range []string{"", "header", ".left", "header.", "header.diagonal"} {
		if _, err := ParseAnchorID(bad); err == nil {
			t.Errorf("ParseAnchorID(%q) should fail", bad)
		}
	}
}

func TestIsIsomorphic(t *testing.T) {
	a := sampleTree(t)
	b := B("root", 0, 0, 1200, 800,
		B("header", 0, 0, 1200, 80),
		B("sidebar", 0, 80, 200, 800),
		B("main", 200, 80, 1200, 800),
	).MustBuild()

	if !a.IsIsomorphic(b, true) {
		t.Error("same-shape trees should be isomorphic")
	}

	c := B("root", 0, 0, 800, 600, B("header", 0, 0, 800, 80)).MustBuild()
	if a.IsIsomorphic(c, true) {
		t.Error("different arity should not be isomorphic")
	}

	d := B("root", 0, 0, 800, 600,
		B("top", 0, 0, 800, 80),
		B("sidebar", 0, 80, 200, 600),
		B("main", 200, 80, 800, 600),
	).MustBuild()
	if a.IsIsomorphic(d, true) {
		t.Error("renamed child should break name-sensitive isomorphism")
	}
	if !a.IsIsomorphic(d, false) {
		t.Error("renamed child should still be shape-isomorphic")
	}
}

func TestBuilderDuplicateNames(t *testing.T) {
	_, err := B("root", 0, 0, 100, 100,
		B("a", 0, 0, 50, 50),
		B("a", 50, 0, 100, 50),
	).Build()
	if err == nil {
		t.Error("duplicate names should be rejected")
	}
}
