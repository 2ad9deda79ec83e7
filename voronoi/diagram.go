package voronoi

import (
	"github.com/dhconnelly/rtreego"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ffurano/opencamlib/halfedge"
	"github.com/ffurano/opencamlib/vector"
)

// DefaultTolerance is the coordinate tolerance for duplicate rejection
// and split placement.
const DefaultTolerance = 1e-9

// A Diagram is a Voronoi diagram under incremental construction. It owns
// the half-edge graph, the generator table and a spatial index over the
// generator reference points used for seed location.
//
// Mutation is single-writer: Insert must not run concurrently with
// anything else. Read-only traversals may run concurrently with each
// other once no insertion is in flight.
type Diagram struct {
	graph *halfedge.Graph
	geom  Geometry
	log   *zap.Logger
	tol   float64

	sites     []Generator
	siteFaces []halfedge.FaceIndex
	index     *rtreego.Rtree
}

// Option configures a Diagram.
type Option func(*Diagram)

// WithLogger attaches a logger; insertions trace their phases at Debug.
func WithLogger(l *zap.Logger) Option {
	return func(d *Diagram) { d.log = l }
}

// WithTolerance overrides DefaultTolerance.
func WithTolerance(tol float64) Option {
	return func(d *Diagram) { d.tol = tol }
}

// WithGeometry substitutes the geometry collaborator.
func WithGeometry(g Geometry) Option {
	return func(d *Diagram) { d.geom = g }
}

// WithCapacity pre-sizes the arenas for n generators.
func WithCapacity(n int) Option {
	return func(d *Diagram) { d.graph = halfedge.NewGraph(n) }
}

// New creates an empty diagram.
func New(opts ...Option) *Diagram {
	d := &Diagram{
		graph: halfedge.NewGraph(16),
		geom:  StdGeometry{},
		log:   zap.NewNop(),
		tol:   DefaultTolerance,
		index: rtreego.NewTree(2, 8, 32),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Graph exposes the underlying topology for read-only traversal.
func (d *Diagram) Graph() *halfedge.Graph { return d.graph }

// NumSites is the number of committed generators.
func (d *Diagram) NumSites() int { return len(d.sites) }

// Faces returns the handles of all cells, one per generator.
func (d *Diagram) Faces() []halfedge.FaceIndex {
	out := make([]halfedge.FaceIndex, len(d.siteFaces))
	copy(out, d.siteFaces)
	return out
}

// EdgesOf returns the boundary cycle of a face.
func (d *Diagram) EdgesOf(f halfedge.FaceIndex) ([]halfedge.EdgeIndex, error) {
	return d.graph.Boundary(f)
}

// VerticesOf returns the distinct finite vertices on the boundary of a
// face, in cycle order.
func (d *Diagram) VerticesOf(f halfedge.FaceIndex) ([]halfedge.VertexIndex, error) {
	edges, err := d.graph.Boundary(f)
	if err != nil {
		return nil, err
	}
	var out []halfedge.VertexIndex
	for _, e := range edges {
		rec, err := d.graph.Edge(e)
		if err != nil {
			return nil, err
		}
		if rec.VOrigin.Valid() {
			out = append(out, rec.VOrigin)
		}
	}
	return out, nil
}

// GeneratorOf returns the generator owning a face.
func (d *Diagram) GeneratorOf(f halfedge.FaceIndex) (Generator, error) {
	rec, err := d.graph.Face(f)
	if err != nil {
		return Generator{}, err
	}
	if int(rec.Site) >= len(d.sites) {
		return Generator{}, errors.Errorf("face %s has no generator", f)
	}
	return d.sites[rec.Site], nil
}

// PositionOf returns the position of a vertex.
func (d *Diagram) PositionOf(v halfedge.VertexIndex) (vector.Vector, error) {
	rec, err := d.graph.Vertex(v)
	if err != nil {
		return vector.Vector{}, err
	}
	return rec.Pos, nil
}

// spatial index entry, one per face.
type siteEntry struct {
	face halfedge.FaceIndex
	rect rtreego.Rect
}

func (s *siteEntry) Bounds() rtreego.Rect { return s.rect }

func (d *Diagram) indexFace(f halfedge.FaceIndex, ref vector.Vector) {
	rect, err := rtreego.NewRect(rtreego.Point{ref.X, ref.Y}, []float64{1e-12, 1e-12})
	if err != nil {
		return
	}
	d.index.Insert(&siteEntry{face: f, rect: rect})
}

// nearestFace finds the face whose generator reference point is nearest
// to p, then hill-climbs across face adjacency until no neighbouring
// face's generator is closer by the generalized distance.
func (d *Diagram) nearestFace(p vector.Vector) halfedge.FaceIndex {
	if len(d.siteFaces) == 0 {
		return halfedge.EmptyFace
	}
	best := d.siteFaces[0]
	if hit, ok := d.index.NearestNeighbor(rtreego.Point{p.X, p.Y}).(*siteEntry); ok && hit != nil {
		best = hit.face
	}

	bestDist := d.faceDistance(best, p)
	for {
		improved := false
		_ = d.graph.WalkBoundary(best, func(e halfedge.EdgeIndex) bool {
			twin := d.graph.Twin(e)
			if !twin.Valid() {
				return true
			}
			rec, err := d.graph.Edge(twin)
			if err != nil {
				return true
			}
			if dist := d.faceDistance(rec.FFace, p); dist < bestDist {
				best = rec.FFace
				bestDist = dist
				improved = true
				return false
			}
			return true
		})
		if !improved {
			return best
		}
	}
}

func (d *Diagram) faceDistance(f halfedge.FaceIndex, p vector.Vector) float64 {
	rec, err := d.graph.Face(f)
	if err != nil {
		return vector.EPS * 1e30
	}
	return d.geom.Distance(p, d.sites[rec.Site])
}

// siteOf returns the generator of a live face.
func (d *Diagram) siteOf(f halfedge.FaceIndex) (Generator, error) {
	rec, err := d.graph.Face(f)
	if err != nil {
		return Generator{}, err
	}
	return d.sites[rec.Site], nil
}
