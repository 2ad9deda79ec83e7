package voronoi

import (
	"fmt"

	"github.com/ffurano/opencamlib/halfedge"
)

// Check verifies the committed diagram: the structural half-edge
// invariants plus the Voronoi-specific ones. One face per generator,
// every edge and vertex classified, vertices of degree two only at
// feature tangencies, all other vertices trivalent. A nil return means
// the diagram is consistent.
func (d *Diagram) Check() error {
	if err := d.graph.Validate(); err != nil {
		return &TopologyViolationError{Detail: "structural invariants", Cause: err}
	}

	if d.graph.NumFaces() != len(d.sites) {
		return &TopologyViolationError{
			Detail: fmt.Sprintf("%d faces for %d generators", d.graph.NumFaces(), len(d.sites)),
		}
	}
	for i, f := range d.siteFaces {
		rec, err := d.graph.Face(f)
		if err != nil {
			return &TopologyViolationError{Detail: fmt.Sprintf("face of generator %d", i), Cause: err}
		}
		if int(rec.Site) != i {
			return &TopologyViolationError{
				Detail: fmt.Sprintf("face %s claims generator %d, registered for %d", f, rec.Site, i),
			}
		}
	}

	for _, e := range d.graph.Edges() {
		rec, err := d.graph.Edge(e)
		if err != nil {
			return &TopologyViolationError{Detail: "edge enumeration", Cause: err}
		}
		if rec.Type == halfedge.EdgeUndefined {
			return &TopologyViolationError{Detail: fmt.Sprintf("edge %s is unclassified", e)}
		}
		twin := d.graph.Twin(e)
		trec, err := d.graph.Edge(twin)
		if err != nil {
			return &TopologyViolationError{Detail: fmt.Sprintf("twin of %s", e), Cause: err}
		}
		if trec.Type != rec.Type {
			return &TopologyViolationError{
				Detail: fmt.Sprintf("edge %s is %s but its twin is %s", e, rec.Type, trec.Type),
			}
		}
		if rec.FFace == trec.FFace {
			return &TopologyViolationError{
				Detail: fmt.Sprintf("edge %s separates face %s from itself", e, rec.FFace),
			}
		}
	}

	for _, v := range d.graph.Vertices() {
		rec, err := d.graph.Vertex(v)
		if err != nil {
			return &TopologyViolationError{Detail: "vertex enumeration", Cause: err}
		}
		if rec.Type == halfedge.VertexUndefined {
			return &TopologyViolationError{Detail: fmt.Sprintf("vertex %s is unclassified", v)}
		}
		out, err := d.graph.Outgoing(v)
		if err != nil {
			return &TopologyViolationError{Detail: fmt.Sprintf("incidence of %s", v), Cause: err}
		}
		switch {
		case len(out) == 3:
		case len(out) == 2 && (rec.Type == halfedge.V2 || rec.Type == halfedge.V4):
			// tangency between two feature regions of the same pair
		default:
			return &TopologyViolationError{
				Detail: fmt.Sprintf("vertex %s of type %s has degree %d", v, rec.Type, len(out)),
			}
		}
	}
	return nil
}
