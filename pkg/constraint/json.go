package constraint

import (
	"encoding/json"

	"github.com/anchorsynth/anchorsynth/pkg/layout"
	"github.com/anchorsynth/anchorsynth/pkg/num"
)

// jsonConstraint is the wire form of a constraint, matching the output
// contract: rationals travel as strings ("3/2"), x is null for constant
// forms.
type jsonConstraint struct {
	Y           string  `json:"y"`
	X           *string `json:"x"`
	A           string  `json:"a"`
	B           string  `json:"b"`
	Op          string  `json:"op"`
	Kind        string  `json:"kind"`
	Priority    [3]int  `json:"priority"`
	SampleCount int     `json:"sample_count"`
}

// MarshalJSON renders the constraint in its wire form.
func (c Constraint) MarshalJSON() ([]byte, error) {
	jc := jsonConstraint{
		Y:           c.YID.String(),
		A:           num.Format(c.A),
		B:           num.Format(c.B),
		Op:          string(c.Op),
		Kind:        string(c.Kind),
		Priority:    c.Priority,
		SampleCount: c.SampleCount,
	}
	if c.XID != nil {
		x := c.XID.String()
		jc.X = &x
	}
	return json.Marshal(jc)
}

// UnmarshalJSON parses the wire form back into a constraint.
func (c *Constraint) UnmarshalJSON(data []byte) error {
	var jc jsonConstraint
	if err := json.Unmarshal(data, &jc); err != nil {
		return err
	}
	parsed, err := fromWire(jc)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseConstraint reads one constraint from its wire form.
func ParseConstraint(data []byte) (Constraint, error) {
	var c Constraint
	if err := json.Unmarshal(data, &c); err != nil {
		return Constraint{}, err
	}
	return c, nil
}

func fromWire(jc jsonConstraint) (Constraint, error) {
	y, err := layout.ParseAnchorID(jc.Y)
	if err != nil {
		return Constraint{}, err
	}
	var x *layout.AnchorID
	if jc.X != nil && *jc.X != "" && *jc.X != "None" {
		id, err := layout.ParseAnchorID(*jc.X)
		if err != nil {
			return Constraint{}, err
		}
		x = &id
	}
	a, err := num.Parse(jc.A)
	if err != nil {
		return Constraint{}, err
	}
	b, err := num.Parse(jc.B)
	if err != nil {
		return Constraint{}, err
	}
	return Constraint{
		Kind:        Kind(jc.Kind),
		YID:         y,
		XID:         x,
		A:           a,
		B:           b,
		Op:          Op(jc.Op),
		Priority:    jc.Priority,
		SampleCount: jc.SampleCount,
	}, nil
}
