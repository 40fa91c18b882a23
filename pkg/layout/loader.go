package layout

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/anchorsynth/anchorsynth/pkg/errors"
	"github.com/anchorsynth/anchorsynth/pkg/num"
)

// Format selects the JSON shape layout examples arrive in.
type Format string

const (
	// FormatDefault reads {"name": ..., "rect": [l, t, r, b], "children": [...]}.
	FormatDefault Format = "default"
	// FormatBench reads {"name": ..., "left": l, "top": t, "width": w,
	// "height": h, "children": [...]}.
	FormatBench Format = "bench"
)

// Domain selects the numeric domain input coordinates are interpreted in.
// All domains are stored as exact rationals internally; the domain controls
// validation on the way in and coercion on the way out.
type Domain string

const (
	DomainNumber   Domain = "N" // whatever the document contains
	DomainReal     Domain = "R" // real-valued, output coerced to decimal
	DomainRational Domain = "Q" // exact rationals end to end
	DomainInteger  Domain = "Z" // integers only; non-integers are rejected
)

// Valid reports whether d is a known domain.
func (d Domain) Valid() bool {
	switch d {
	case DomainNumber, DomainReal, DomainRational, DomainInteger:
		return true
	}
	return false
}

// Loader reads view trees from JSON documents.
type Loader struct {
	Format Format
	Domain Domain
}

// NewLoader returns a loader for the given format and numeric domain.
func NewLoader(format Format, domain Domain) *Loader {
	if format == "" {
		format = FormatDefault
	}
	if domain == "" {
		domain = DomainNumber
	}
	return &Loader{Format: format, Domain: domain}
}

// rawView mirrors the union of both input shapes. Coordinate fields are
// decoded as json.Number (or string) so no precision is lost before the
// values reach exact rationals.
type rawView struct {
	Name     string          `json:"name"`
	Rect     []json.RawMessage `json:"rect"`
	Left     json.RawMessage `json:"left"`
	Top      json.RawMessage `json:"top"`
	Width    json.RawMessage `json:"width"`
	Height   json.RawMessage `json:"height"`
	Children []rawView       `json:"children"`
}

// Load parses one view tree from JSON.
func (l *Loader) Load(data []byte) (*View, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw rawView
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "malformed view document")
	}
	b, err := l.toBuilder(raw)
	if err != nil {
		return nil, err
	}
	return b.Build()
}

// LoadAll parses a list of example trees and checks that they are mutually
// isomorphic (same names, same hierarchy).
func (l *Loader) LoadAll(docs []json.RawMessage) ([]*View, error) {
	if len(docs) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no examples in input")
	}
	views := make([]*View, len(docs))
	for i, d := range docs {
		v, err := l.Load(d)
		if err != nil {
			return nil, fmt.Errorf("example %d: %w", i, err)
		}
		views[i] = v
	}
	for i := 1; i < len(views); i++ {
		if !views[0].IsIsomorphic(views[i], true) {
			return nil, errors.New(errors.ErrCodeNonIsomorphic,
				"example %d is not isomorphic to example 0", i)
		}
	}
	return views, nil
}

func (l *Loader) toBuilder(raw rawView) (*Builder, error) {
	var left, top, right, bottom num.Rat
	var err error

	switch l.Format {
	case FormatDefault, "":
		if len(raw.Rect) != 4 {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"view %q: rect must have 4 entries, got %d", raw.Name, len(raw.Rect))
		}
		vals := make([]num.Rat, 4)
		for i, rm := range raw.Rect {
			if vals[i], err = l.coord(rm); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "view %q rect[%d]", raw.Name, i)
			}
		}
		left, top, right, bottom = vals[0], vals[1], vals[2], vals[3]

	case FormatBench:
		var width, height num.Rat
		fields := []struct {
			name string
			raw  json.RawMessage
			dst  *num.Rat
		}{
			{"left", raw.Left, &left},
			{"top", raw.Top, &top},
			{"width", raw.Width, &width},
			{"height", raw.Height, &height},
		}
		for _, f := range fields {
			if f.raw == nil {
				return nil, errors.New(errors.ErrCodeInvalidInput, "view %q: missing %s", raw.Name, f.name)
			}
			if *f.dst, err = l.coord(f.raw); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "view %q %s", raw.Name, f.name)
			}
		}
		if width.Sign() < 0 || height.Sign() < 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "view %q: negative dimensions", raw.Name)
		}
		right = num.Add(left, width)
		bottom = num.Add(top, height)

	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown input format %q", l.Format)
	}

	b := &Builder{
		Name: raw.Name,
		Rect: Rect{Left: left, Top: top, Right: right, Bottom: bottom},
	}
	for _, child := range raw.Children {
		cb, err := l.toBuilder(child)
		if err != nil {
			return nil, err
		}
		b.Children = append(b.Children, cb)
	}
	return b, nil
}

// coord decodes one coordinate token: a JSON number or a string holding an
// integer, decimal, or fraction ("3/2").
func (l *Loader) coord(rm json.RawMessage) (num.Rat, error) {
	var tok any
	dec := json.NewDecoder(bytes.NewReader(rm))
	dec.UseNumber()
	if err := dec.Decode(&tok); err != nil {
		return nil, err
	}

	var s string
	switch t := tok.(type) {
	case json.Number:
		s = t.String()
	case string:
		s = t
	default:
		return nil, fmt.Errorf("coordinate must be a number or string, got %T", tok)
	}

	r, err := num.Parse(s)
	if err != nil {
		return nil, err
	}
	if l.Domain == DomainInteger && !num.IsInt(r) {
		return nil, fmt.Errorf("non-integer coordinate %s in integer domain", s)
	}
	return r, nil
}

// MarshalView serializes a view tree back into the default document shape.
// Integer coordinates become JSON numbers; other rationals become strings
// in "p/q" form so that reloading loses nothing.
func MarshalView(v *View) ([]byte, error) {
	return json.Marshal(viewDoc(v))
}

func viewDoc(v *View) map[string]any {
	rect := []any{
		coordToken(v.Rect.Left), coordToken(v.Rect.Top),
		coordToken(v.Rect.Right), coordToken(v.Rect.Bottom),
	}
	doc := map[string]any{"name": v.Name, "rect": rect}
	if len(v.Children) > 0 {
		children := make([]any, len(v.Children))
		for i, c := range v.Children {
			children[i] = viewDoc(c)
		}
		doc["children"] = children
	}
	return doc
}

func coordToken(r num.Rat) any {
	if num.IsInt(r) {
		return json.Number(r.Num().String())
	}
	return num.Format(r)
}
