package halfedge

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/ffurano/opencamlib/vector"
)

// MaxBoundarySteps bounds every face-boundary walk. A cycle longer than
// this is reported as a topology violation instead of looping forever.
const MaxBoundarySteps = 1 << 16

// ErrStaleHandle is wrapped by all dereferences of removed or never
// allocated records.
var ErrStaleHandle = errors.New("stale or invalid handle")

// ErrUnclosedCycle is wrapped when a boundary or incidence walk does not
// return to its starting edge within MaxBoundarySteps.
var ErrUnclosedCycle = errors.New("walk did not close")

type vertexSlot struct {
	rec  HEVertex
	gen  uint32
	live bool
}

type edgeSlot struct {
	rec  HEEdge
	gen  uint32
	live bool
}

type faceSlot struct {
	rec  HEFace
	gen  uint32
	live bool
}

// Graph is the arena holding all vertex, half-edge and face records of
// one diagram. Twin half-edges are allocated as adjacent slot pairs
// (2k, 2k+1), so the twin relation is slot arithmetic rather than a
// stored reference.
//
// Graph performs no validation beyond handle liveness; keeping the
// invariants (twin symmetry, cycle closure, one generator per face) is
// the builder's job. It is not safe for concurrent mutation.
type Graph struct {
	vertices []vertexSlot
	edges    []edgeSlot
	faces    []faceSlot

	freeVertices []int32
	freeEdges    []int32 // even base slot of a freed pair
	freeFaces    []int32

	liveVertices int
	liveEdges    int
	liveFaces    int
}

// NewGraph creates an empty graph with room for roughly n generators
// before the arenas grow.
func NewGraph(n int) *Graph {
	if n < 4 {
		n = 4
	}
	return &Graph{
		vertices: make([]vertexSlot, 0, 2*n),
		edges:    make([]edgeSlot, 0, 6*n),
		faces:    make([]faceSlot, 0, n),
	}
}

func (g *Graph) NumVertices() int { return g.liveVertices }
func (g *Graph) NumEdges() int    { return g.liveEdges }
func (g *Graph) NumFaces() int    { return g.liveFaces }

// Vertex resolves a vertex handle.
func (g *Graph) Vertex(h VertexIndex) (*HEVertex, error) {
	if !h.Valid() || int(h.slot) >= len(g.vertices) {
		return nil, errors.Wrapf(ErrStaleHandle, "vertex %s", h)
	}
	s := &g.vertices[h.slot]
	if !s.live || s.gen != h.gen {
		return nil, errors.Wrapf(ErrStaleHandle, "vertex %s", h)
	}
	return &s.rec, nil
}

// Edge resolves an edge handle.
func (g *Graph) Edge(h EdgeIndex) (*HEEdge, error) {
	if !h.Valid() || int(h.slot) >= len(g.edges) {
		return nil, errors.Wrapf(ErrStaleHandle, "edge %s", h)
	}
	s := &g.edges[h.slot]
	if !s.live || s.gen != h.gen {
		return nil, errors.Wrapf(ErrStaleHandle, "edge %s", h)
	}
	return &s.rec, nil
}

// Face resolves a face handle.
func (g *Graph) Face(h FaceIndex) (*HEFace, error) {
	if !h.Valid() || int(h.slot) >= len(g.faces) {
		return nil, errors.Wrapf(ErrStaleHandle, "face %s", h)
	}
	s := &g.faces[h.slot]
	if !s.live || s.gen != h.gen {
		return nil, errors.Wrapf(ErrStaleHandle, "face %s", h)
	}
	return &s.rec, nil
}

// Twin returns the opposing half-edge of e. Twins share an undirected
// edge and always live in adjacent slots, so this is pure arithmetic.
func (g *Graph) Twin(e EdgeIndex) EdgeIndex {
	if !e.Valid() || int(e.slot) >= len(g.edges) {
		return EmptyEdge
	}
	if own := g.edges[e.slot]; !own.live || own.gen != e.gen {
		return EmptyEdge
	}
	t := e.slot ^ 1
	s := g.edges[t]
	if !s.live {
		return EmptyEdge
	}
	return EdgeIndex{slot: t, gen: s.gen}
}

// CreateVertex allocates a vertex record. O(1).
func (g *Graph) CreateVertex(pos vector.Vector, t VertexType) VertexIndex {
	var slot int32
	if n := len(g.freeVertices); n > 0 {
		slot = g.freeVertices[n-1]
		g.freeVertices = g.freeVertices[:n-1]
	} else {
		g.vertices = append(g.vertices, vertexSlot{})
		slot = int32(len(g.vertices) - 1)
	}
	s := &g.vertices[slot]
	s.rec = HEVertex{Pos: pos, Type: t, ELeaving: EmptyEdge}
	s.live = true
	g.liveVertices++
	return VertexIndex{slot: slot, gen: s.gen}
}

// CreateFace allocates a face record. O(1).
func (g *Graph) CreateFace(ref vector.Vector, site int32) FaceIndex {
	var slot int32
	if n := len(g.freeFaces); n > 0 {
		slot = g.freeFaces[n-1]
		g.freeFaces = g.freeFaces[:n-1]
	} else {
		g.faces = append(g.faces, faceSlot{})
		slot = int32(len(g.faces) - 1)
	}
	s := &g.faces[slot]
	s.rec = HEFace{ReferencePoint: ref, EEdge: EmptyEdge, Site: site}
	s.live = true
	g.liveFaces++
	return FaceIndex{slot: slot, gen: s.gen}
}

// CreateEdgePair allocates twinned half-edges, the first owned by faceA
// and the second by faceB. The caller must link ENext on both sides
// before the graph is consistent again. O(1).
func (g *Graph) CreateEdgePair(faceA, faceB FaceIndex) (EdgeIndex, EdgeIndex) {
	var base int32
	if n := len(g.freeEdges); n > 0 {
		base = g.freeEdges[n-1]
		g.freeEdges = g.freeEdges[:n-1]
	} else {
		g.edges = append(g.edges, edgeSlot{}, edgeSlot{})
		base = int32(len(g.edges) - 2)
	}
	a := &g.edges[base]
	b := &g.edges[base+1]
	a.rec = HEEdge{VOrigin: EmptyVertex, ENext: EmptyEdge, FFace: faceA}
	b.rec = HEEdge{VOrigin: EmptyVertex, ENext: EmptyEdge, FFace: faceB}
	a.live = true
	b.live = true
	g.liveEdges += 2
	return EdgeIndex{slot: base, gen: a.gen}, EdgeIndex{slot: base + 1, gen: b.gen}
}

// SetNext links next as the counterclockwise successor of e around e's
// face.
func (g *Graph) SetNext(e, next EdgeIndex) error {
	rec, err := g.Edge(e)
	if err != nil {
		return err
	}
	if next.Valid() {
		if _, err := g.Edge(next); err != nil {
			return err
		}
	}
	rec.ENext = next
	return nil
}

// SetFace reassigns the owning face of e.
func (g *Graph) SetFace(e EdgeIndex, f FaceIndex) error {
	rec, err := g.Edge(e)
	if err != nil {
		return err
	}
	if _, err := g.Face(f); err != nil {
		return err
	}
	rec.FFace = f
	return nil
}

// SetOrigin sets the origin vertex of e. InfiniteVertex marks an
// unbounded start.
func (g *Graph) SetOrigin(e EdgeIndex, v VertexIndex) error {
	rec, err := g.Edge(e)
	if err != nil {
		return err
	}
	if v.Valid() {
		if _, err := g.Vertex(v); err != nil {
			return err
		}
	}
	rec.VOrigin = v
	return nil
}

// WalkBoundary calls fn for every half-edge on the boundary cycle of f,
// starting at the face's EEdge, until fn returns false or the cycle
// closes. A walk exceeding MaxBoundarySteps reports ErrUnclosedCycle.
func (g *Graph) WalkBoundary(f FaceIndex, fn func(EdgeIndex) bool) error {
	face, err := g.Face(f)
	if err != nil {
		return err
	}
	if !face.EEdge.Valid() {
		return nil
	}
	e := face.EEdge
	for steps := 0; ; steps++ {
		if steps >= MaxBoundarySteps {
			return errors.Wrapf(ErrUnclosedCycle, "boundary of %s", f)
		}
		rec, err := g.Edge(e)
		if err != nil {
			return err
		}
		if !fn(e) {
			return nil
		}
		e = rec.ENext
		if !e.Valid() {
			return errors.Wrapf(ErrUnclosedCycle, "boundary of %s broken after %d steps", f, steps)
		}
		if e == face.EEdge {
			return nil
		}
	}
}

// Boundary collects the boundary cycle of f.
func (g *Graph) Boundary(f FaceIndex) ([]EdgeIndex, error) {
	var out []EdgeIndex
	err := g.WalkBoundary(f, func(e EdgeIndex) bool {
		out = append(out, e)
		return true
	})
	return out, err
}

// WalkOutgoing calls fn for every half-edge leaving v, walking
// next(twin(e)) around the vertex.
func (g *Graph) WalkOutgoing(v VertexIndex, fn func(EdgeIndex) bool) error {
	vert, err := g.Vertex(v)
	if err != nil {
		return err
	}
	if !vert.ELeaving.Valid() {
		return nil
	}
	e := vert.ELeaving
	for steps := 0; ; steps++ {
		if steps >= MaxBoundarySteps {
			return errors.Wrapf(ErrUnclosedCycle, "incidence of %s", v)
		}
		if !fn(e) {
			return nil
		}
		twin := g.Twin(e)
		if !twin.Valid() {
			return errors.Wrapf(ErrUnclosedCycle, "incidence of %s lost twin", v)
		}
		rec, err := g.Edge(twin)
		if err != nil {
			return err
		}
		e = rec.ENext
		if !e.Valid() {
			return errors.Wrapf(ErrUnclosedCycle, "incidence of %s broken", v)
		}
		if e == vert.ELeaving {
			return nil
		}
	}
}

// Outgoing collects the half-edges leaving v.
func (g *Graph) Outgoing(v VertexIndex) ([]EdgeIndex, error) {
	var out []EdgeIndex
	err := g.WalkOutgoing(v, func(e EdgeIndex) bool {
		out = append(out, e)
		return true
	})
	return out, err
}

// RemoveVertex frees the vertex record. The handle goes stale.
func (g *Graph) RemoveVertex(h VertexIndex) error {
	if _, err := g.Vertex(h); err != nil {
		return err
	}
	s := &g.vertices[h.slot]
	s.live = false
	s.gen++
	s.rec = HEVertex{}
	g.freeVertices = append(g.freeVertices, h.slot)
	g.liveVertices--
	return nil
}

// RemoveEdgePair frees e and its twin together. Half-edges only ever die
// in pairs.
func (g *Graph) RemoveEdgePair(e EdgeIndex) error {
	if _, err := g.Edge(e); err != nil {
		return err
	}
	base := e.slot &^ 1
	for _, slot := range []int32{base, base + 1} {
		s := &g.edges[slot]
		if s.live {
			s.live = false
			s.gen++
			s.rec = HEEdge{}
			g.liveEdges--
		}
	}
	g.freeEdges = append(g.freeEdges, base)
	return nil
}

// RemoveFace frees the face record. The handle goes stale.
func (g *Graph) RemoveFace(h FaceIndex) error {
	if _, err := g.Face(h); err != nil {
		return err
	}
	s := &g.faces[h.slot]
	s.live = false
	s.gen++
	s.rec = HEFace{}
	g.freeFaces = append(g.freeFaces, h.slot)
	g.liveFaces--
	return nil
}

// Vertices returns handles of all live vertices.
func (g *Graph) Vertices() []VertexIndex {
	out := make([]VertexIndex, 0, g.liveVertices)
	for i := range g.vertices {
		if g.vertices[i].live {
			out = append(out, VertexIndex{slot: int32(i), gen: g.vertices[i].gen})
		}
	}
	return out
}

// Edges returns handles of all live half-edges.
func (g *Graph) Edges() []EdgeIndex {
	out := make([]EdgeIndex, 0, g.liveEdges)
	for i := range g.edges {
		if g.edges[i].live {
			out = append(out, EdgeIndex{slot: int32(i), gen: g.edges[i].gen})
		}
	}
	return out
}

// Faces returns handles of all live faces.
func (g *Graph) Faces() []FaceIndex {
	out := make([]FaceIndex, 0, g.liveFaces)
	for i := range g.faces {
		if g.faces[i].live {
			out = append(out, FaceIndex{slot: int32(i), gen: g.faces[i].gen})
		}
	}
	return out
}

// Validate checks the structural invariants every committed diagram must
// satisfy: twin symmetry, closed boundary cycles with consistent face
// ownership, and origin/leaving-edge agreement. It returns the first
// failure found.
func (g *Graph) Validate() error {
	for _, e := range g.Edges() {
		rec, err := g.Edge(e)
		if err != nil {
			return err
		}
		twin := g.Twin(e)
		if !twin.Valid() {
			return fmt.Errorf("edge %s has no live twin", e)
		}
		if g.Twin(twin) != e {
			return fmt.Errorf("edge %s twin relation is not symmetric", e)
		}
		if !rec.ENext.Valid() {
			return fmt.Errorf("edge %s has no next edge", e)
		}
		next, err := g.Edge(rec.ENext)
		if err != nil {
			return errors.Wrapf(err, "next of edge %s", e)
		}
		if next.FFace != rec.FFace {
			return fmt.Errorf("edge %s and its next %s disagree on the face", e, rec.ENext)
		}
		if rec.VOrigin.Valid() {
			if _, err := g.Vertex(rec.VOrigin); err != nil {
				return errors.Wrapf(err, "origin of edge %s", e)
			}
		}
	}

	for _, f := range g.Faces() {
		rec, err := g.Face(f)
		if err != nil {
			return err
		}
		if !rec.EEdge.Valid() {
			continue // isolated face of a single-generator diagram
		}
		count := 0
		walkErr := g.WalkBoundary(f, func(e EdgeIndex) bool {
			count++
			edge, err := g.Edge(e)
			if err != nil || edge.FFace != f {
				count = -1
				return false
			}
			return true
		})
		if walkErr != nil {
			return errors.Wrapf(walkErr, "face %s", f)
		}
		if count < 0 {
			return fmt.Errorf("face %s boundary contains a foreign edge", f)
		}
	}

	for _, v := range g.Vertices() {
		rec, err := g.Vertex(v)
		if err != nil {
			return err
		}
		if !rec.ELeaving.Valid() {
			return fmt.Errorf("vertex %s has no leaving edge", v)
		}
		leaving, err := g.Edge(rec.ELeaving)
		if err != nil {
			return errors.Wrapf(err, "leaving edge of vertex %s", v)
		}
		if leaving.VOrigin != v {
			return fmt.Errorf("vertex %s leaving edge %s does not start there", v, rec.ELeaving)
		}
		if err := g.WalkOutgoing(v, func(EdgeIndex) bool { return true }); err != nil {
			return errors.Wrapf(err, "incidence cycle of vertex %s", v)
		}
	}
	return nil
}
