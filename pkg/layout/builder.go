package layout

import (
	"fmt"

	"github.com/anchorsynth/anchorsynth/pkg/errors"
)

// Builder assembles a view tree programmatically. It exists so that tests
// and consumers can construct trees without going through JSON; Build
// performs the same validation as the loader.
type Builder struct {
	Name     string
	Rect     Rect
	Children []*Builder
}

// B is a convenience constructor for integer-coordinate builders.
func B(name string, left, top, right, bottom int64, children ...*Builder) *Builder {
	return &Builder{
		Name:     name,
		Rect:     RectFromInts(left, top, right, bottom),
		Children: children,
	}
}

// Build materializes the tree, wiring parent pointers and checking that
// names are unique within the tree.
func (b *Builder) Build() (*View, error) {
	seen := make(map[string]bool)
	root, err := b.build(seen)
	if err != nil {
		return nil, err
	}
	root.link(nil)
	return root, nil
}

// MustBuild is Build for tests and literals; it panics on error.
func (b *Builder) MustBuild() *View {
	v, err := b.Build()
	if err != nil {
		panic(err)
	}
	return v
}

func (b *Builder) build(seen map[string]bool) (*View, error) {
	if b.Name == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "view with empty name")
	}
	if seen[b.Name] {
		return nil, errors.New(errors.ErrCodeInvalidInput, "duplicate view name %q", b.Name)
	}
	seen[b.Name] = true

	if b.Rect.Left == nil || b.Rect.Top == nil || b.Rect.Right == nil || b.Rect.Bottom == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "view %q has an incomplete rect", b.Name)
	}
	if _, err := NewRect(b.Rect.Left, b.Rect.Top, b.Rect.Right, b.Rect.Bottom); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "view %q", b.Name)
	}

	v := &View{Name: b.Name, Rect: b.Rect}
	for _, cb := range b.Children {
		c, err := cb.build(seen)
		if err != nil {
			return nil, fmt.Errorf("in %q: %w", b.Name, err)
		}
		v.Children = append(v.Children, c)
	}
	return v, nil
}
