package convert

import "github.com/roach88/sqlra/internal/ar"

// Step is one entry of a conversion trace: the SQL construct that was
// translated, the AR operator it introduced and the whole AR tree built so
// far.
type Step struct {
	Label    string `json:"label" yaml:"label"`
	Header   string `json:"header" yaml:"header"`
	Snapshot string `json:"snapshot" yaml:"snapshot"`
}

func (s Step) String() string {
	return s.Label + " -> " + s.Header + ": " + s.Snapshot
}

func (c *converter) record(label, header string, out ar.Rel) {
	if !c.tracing {
		return
	}
	snapshot := ar.Print(out)
	if b, ok := out.(ar.Base); ok {
		snapshot = "(" + b.Name + ")"
	}
	c.steps = append(c.steps, Step{Label: label, Header: header, Snapshot: snapshot})
}
