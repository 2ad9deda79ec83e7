package voronoi_test

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ffurano/opencamlib/halfedge"
	"github.com/ffurano/opencamlib/vector"
	"github.com/ffurano/opencamlib/voronoi"
)

func TestEmptyDiagram(t *testing.T) {
	d := voronoi.New()
	assert.Equal(t, 0, d.NumSites())
	assert.Empty(t, d.Faces())
	assert.NoError(t, d.Check())
}

func TestSingleGenerator(t *testing.T) {
	d := voronoi.New()
	f, err := d.Insert(voronoi.PointSite(vector.Vector{X: 50, Y: 50}))
	require.NoError(t, err)
	require.True(t, f.Valid())

	assert.Equal(t, 1, d.NumSites())
	assert.Equal(t, 0, d.Graph().NumEdges())
	assert.Equal(t, 0, d.Graph().NumVertices())

	g, err := d.GeneratorOf(f)
	require.NoError(t, err)
	assert.Equal(t, voronoi.GeneratorPoint, g.Kind)
	assert.NoError(t, d.Check())
}

func TestTwoPoints(t *testing.T) {
	d := voronoi.New(voronoi.WithLogger(zaptest.NewLogger(t)))
	fa, err := d.Insert(voronoi.PointSite(vector.Vector{X: 40, Y: 50}))
	require.NoError(t, err)
	fb, err := d.Insert(voronoi.PointSite(vector.Vector{X: 60, Y: 50}))
	require.NoError(t, err)

	assert.Equal(t, 2, d.Graph().NumFaces())
	assert.Equal(t, 2, d.Graph().NumEdges())
	assert.Equal(t, 0, d.Graph().NumVertices())

	// one unbounded straight bisector on the midline
	edges, err := d.EdgesOf(fa)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	rec, err := d.Graph().Edge(edges[0])
	require.NoError(t, err)
	assert.Equal(t, halfedge.E1, rec.Type)
	assert.False(t, rec.Curve.Bounded())
	assert.InDelta(t, 50.0, rec.Curve.Eval(0).X, 1e-9)
	assert.InDelta(t, 50.0, rec.Curve.Eval(7).X, 1e-9)

	edges, err = d.EdgesOf(fb)
	require.NoError(t, err)
	assert.Len(t, edges, 1)
	assert.NoError(t, d.Check())
}

func TestThreePointsMeetAtCircumcenter(t *testing.T) {
	d := voronoi.New()
	for _, p := range []vector.Vector{{X: 40, Y: 40}, {X: 60, Y: 40}, {X: 50, Y: 60}} {
		_, err := d.Insert(voronoi.PointSite(p))
		require.NoError(t, err)
	}

	assert.Equal(t, 3, d.Graph().NumFaces())
	assert.Equal(t, 6, d.Graph().NumEdges())
	require.Equal(t, 1, d.Graph().NumVertices())

	v := d.Graph().Vertices()[0]
	rec, err := d.Graph().Vertex(v)
	require.NoError(t, err)
	assert.Equal(t, halfedge.V1, rec.Type)
	assert.InDelta(t, 50.0, rec.Pos.X, 1e-6)
	assert.InDelta(t, 47.5, rec.Pos.Y, 1e-6)

	// trivalent meeting point
	out, err := d.Graph().Outgoing(v)
	require.NoError(t, err)
	assert.Len(t, out, 3)

	// every face sees the vertex once
	for _, f := range d.Faces() {
		verts, err := d.VerticesOf(f)
		require.NoError(t, err)
		assert.Equal(t, []halfedge.VertexIndex{v}, verts)
	}
	assert.NoError(t, d.Check())
}

func TestPointAndSegment(t *testing.T) {
	d := voronoi.New(voronoi.WithLogger(zaptest.NewLogger(t)))
	_, err := d.Insert(voronoi.PointSite(vector.Vector{X: 50, Y: 70}))
	require.NoError(t, err)
	_, err = d.Insert(voronoi.SegmentSite(vector.Vector{X: 30, Y: 40}, vector.Vector{X: 70, Y: 40}))
	require.NoError(t, err)

	assert.Equal(t, 2, d.Graph().NumFaces())
	assert.Equal(t, 6, d.Graph().NumEdges(), "line, parabola, line")
	require.Equal(t, 2, d.Graph().NumVertices())

	var e2, e3 int
	for _, e := range d.Graph().Edges() {
		rec, err := d.Graph().Edge(e)
		require.NoError(t, err)
		switch rec.Type {
		case halfedge.E2:
			e2++
		case halfedge.E3:
			e3++
		default:
			t.Fatalf("unexpected edge type %s", rec.Type)
		}
	}
	assert.Equal(t, 4, e2)
	assert.Equal(t, 2, e3)

	// tangency points sit on the parabola above the segment endpoints
	var xs []float64
	for _, v := range d.Graph().Vertices() {
		rec, err := d.Graph().Vertex(v)
		require.NoError(t, err)
		assert.Equal(t, halfedge.V2, rec.Type)
		assert.InDelta(t, 3700.0/60.0, rec.Pos.Y, 1e-6)
		xs = append(xs, rec.Pos.X)
	}
	sort.Float64s(xs)
	assert.InDelta(t, 30.0, xs[0], 1e-6)
	assert.InDelta(t, 70.0, xs[1], 1e-6)
	assert.NoError(t, d.Check())
}

func TestSegmentAmongPoints(t *testing.T) {
	d := voronoi.New()
	for _, p := range []vector.Vector{{X: 20, Y: 20}, {X: 80, Y: 20}, {X: 50, Y: 90}} {
		_, err := d.Insert(voronoi.PointSite(p))
		require.NoError(t, err)
	}
	_, err := d.Insert(voronoi.SegmentSite(vector.Vector{X: 40, Y: 50}, vector.Vector{X: 60, Y: 50}))
	require.NoError(t, err)

	assert.Equal(t, 4, d.NumSites())
	assert.Equal(t, 4, d.Graph().NumFaces())
	assert.NoError(t, d.Check())
}

func TestTwoDisjointSegments(t *testing.T) {
	d := voronoi.New()
	_, err := d.Insert(voronoi.SegmentSite(vector.Vector{X: 30, Y: 40}, vector.Vector{X: 70, Y: 40}))
	require.NoError(t, err)
	_, err = d.Insert(voronoi.SegmentSite(vector.Vector{X: 40, Y: 60}, vector.Vector{X: 80, Y: 60}))
	require.NoError(t, err)

	assert.Equal(t, 2, d.Graph().NumFaces())
	assert.Equal(t, 10, d.Graph().NumEdges(), "line, parabola, midline, parabola, line")

	edgeCounts := map[halfedge.EdgeType]int{}
	for _, e := range d.Graph().Edges() {
		rec, err := d.Graph().Edge(e)
		require.NoError(t, err)
		edgeCounts[rec.Type]++
	}
	assert.Equal(t, 4, edgeCounts[halfedge.E1])
	assert.Equal(t, 4, edgeCounts[halfedge.E3])
	assert.Equal(t, 2, edgeCounts[halfedge.E4])

	// four tangency vertices, left to right: segment ends against the
	// other segment's endpoint (V2) or interior (V4)
	type vrec struct {
		x, y float64
		vt   halfedge.VertexType
	}
	var got []vrec
	for _, v := range d.Graph().Vertices() {
		rec, err := d.Graph().Vertex(v)
		require.NoError(t, err)
		out, err := d.Graph().Outgoing(v)
		require.NoError(t, err)
		assert.Len(t, out, 2)
		got = append(got, vrec{rec.Pos.X, rec.Pos.Y, rec.Type})
	}
	sort.Slice(got, func(i, j int) bool { return got[i].x < got[j].x })
	want := []vrec{
		{30, 52.5, halfedge.V2},
		{40, 50, halfedge.V4},
		{70, 50, halfedge.V4},
		{80, 47.5, halfedge.V2},
	}
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i].x, got[i].x, 1e-6)
		assert.InDelta(t, want[i].y, got[i].y, 1e-6)
		assert.Equal(t, want[i].vt, got[i].vt)
	}
	assert.NoError(t, d.Check())
}

func TestAlignedParallelSegmentsRejected(t *testing.T) {
	d := voronoi.New()
	_, err := d.Insert(voronoi.SegmentSite(vector.Vector{X: 30, Y: 40}, vector.Vector{X: 70, Y: 40}))
	require.NoError(t, err)

	// vertically aligned ends: both feature transitions coincide on the
	// bisector, so the tangency vertices cannot be separated
	_, err = d.Insert(voronoi.SegmentSite(vector.Vector{X: 30, Y: 60}, vector.Vector{X: 70, Y: 60}))
	var precision *voronoi.NumericalPrecisionError
	require.ErrorAs(t, err, &precision)

	assert.Equal(t, 1, d.NumSites())
	assert.Equal(t, 1, d.Graph().NumFaces())
	assert.Equal(t, 0, d.Graph().NumEdges())
	assert.NoError(t, d.Check())
}

func TestCrossingSegmentsRejected(t *testing.T) {
	d := voronoi.New()
	_, err := d.Insert(voronoi.SegmentSite(vector.Vector{X: 30, Y: 40}, vector.Vector{X: 70, Y: 40}))
	require.NoError(t, err)

	_, err = d.Insert(voronoi.SegmentSite(vector.Vector{X: 50, Y: 20}, vector.Vector{X: 50, Y: 60}))
	var degenerate *voronoi.DegenerateInputError
	require.ErrorAs(t, err, &degenerate)

	assert.Equal(t, 1, d.NumSites())
	assert.Equal(t, 1, d.Graph().NumFaces())
	assert.NoError(t, d.Check())
}

func TestNestedArcs(t *testing.T) {
	d := voronoi.New()
	_, err := d.Insert(voronoi.ArcSite(vector.Vector{X: 50, Y: 50}, 20, 0, 2*math.Pi))
	require.NoError(t, err)
	_, err = d.Insert(voronoi.ArcSite(vector.Vector{X: 50, Y: 50}, 6, 0, 2*math.Pi))
	require.NoError(t, err)

	assert.Equal(t, 2, d.Graph().NumFaces())
	assert.Equal(t, 2, d.Graph().NumEdges())
	assert.Equal(t, 0, d.Graph().NumVertices())

	rec, err := d.Graph().Edge(d.Graph().Edges()[0])
	require.NoError(t, err)
	assert.Equal(t, halfedge.E9, rec.Type)
	assert.Equal(t, vector.CurveEllipse, rec.Curve.Kind)
	// concentric circles: the bisector is the middle circle
	assert.InDelta(t, 13.0, vector.Dist(rec.Curve.Eval(1), vector.Vector{X: 50, Y: 50}), 1e-6)
	assert.NoError(t, d.Check())
}

func TestThirdSiteOnArcPairRejected(t *testing.T) {
	d := voronoi.New()
	_, err := d.Insert(voronoi.ArcSite(vector.Vector{X: 50, Y: 50}, 20, 0, 2*math.Pi))
	require.NoError(t, err)
	_, err = d.Insert(voronoi.ArcSite(vector.Vector{X: 50, Y: 50}, 6, 0, 2*math.Pi))
	require.NoError(t, err)

	edges, verts := d.Graph().NumEdges(), d.Graph().NumVertices()

	// would need to split the closed arc/arc bisector
	_, err = d.Insert(voronoi.PointSite(vector.Vector{X: 95, Y: 50}))
	require.Error(t, err)
	var violation *voronoi.TopologyViolationError
	assert.False(t, errors.As(err, &violation), "rejection must be recoverable")

	assert.Equal(t, edges, d.Graph().NumEdges())
	assert.Equal(t, verts, d.Graph().NumVertices())
	assert.Equal(t, 2, d.NumSites())
	assert.NoError(t, d.Check())
}

func TestDuplicateGeneratorRejected(t *testing.T) {
	d := voronoi.New()
	_, err := d.Insert(voronoi.PointSite(vector.Vector{X: 40, Y: 50}))
	require.NoError(t, err)
	_, err = d.Insert(voronoi.PointSite(vector.Vector{X: 60, Y: 50}))
	require.NoError(t, err)

	edges, verts, faces := d.Graph().NumEdges(), d.Graph().NumVertices(), d.Graph().NumFaces()

	_, err = d.Insert(voronoi.PointSite(vector.Vector{X: 40, Y: 50}))
	var degenerate *voronoi.DegenerateInputError
	require.ErrorAs(t, err, &degenerate)

	assert.Equal(t, edges, d.Graph().NumEdges())
	assert.Equal(t, verts, d.Graph().NumVertices())
	assert.Equal(t, faces, d.Graph().NumFaces())
	assert.NoError(t, d.Check())
}

func TestDegenerateGeneratorsRejected(t *testing.T) {
	d := voronoi.New()

	_, err := d.Insert(voronoi.SegmentSite(vector.Vector{X: 1, Y: 1}, vector.Vector{X: 1, Y: 1}))
	var degenerate *voronoi.DegenerateInputError
	require.ErrorAs(t, err, &degenerate)

	_, err = d.Insert(voronoi.ArcSite(vector.Vector{}, 0, 0, math.Pi))
	require.ErrorAs(t, err, &degenerate)

	_, err = d.Insert(voronoi.ArcSite(vector.Vector{}, 5, 1, 1))
	require.ErrorAs(t, err, &degenerate)

	assert.Equal(t, 0, d.NumSites())
}

func TestCocircularInsertionRejected(t *testing.T) {
	d := voronoi.New()
	for _, p := range []vector.Vector{{X: 30, Y: 50}, {X: 70, Y: 50}, {X: 50, Y: 30}} {
		_, err := d.Insert(voronoi.PointSite(p))
		require.NoError(t, err)
	}
	edges, verts := d.Graph().NumEdges(), d.Graph().NumVertices()

	// cocircular with the first three: the new cell boundary passes
	// exactly through the existing vertex
	_, err := d.Insert(voronoi.PointSite(vector.Vector{X: 50, Y: 70}))
	var precision *voronoi.NumericalPrecisionError
	require.ErrorAs(t, err, &precision)

	assert.Equal(t, edges, d.Graph().NumEdges())
	assert.Equal(t, verts, d.Graph().NumVertices())
	assert.Equal(t, 3, d.NumSites())
	assert.NoError(t, d.Check())
}

func TestRandomPointCloud(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	d := voronoi.New(voronoi.WithCapacity(32))

	inserted := 0
	for inserted < 20 {
		p := vector.Vector{X: 5 + rng.Float64()*90, Y: 5 + rng.Float64()*90}
		_, err := d.Insert(voronoi.PointSite(p))
		if err != nil {
			// close to degenerate placement; the diagram must be intact
			require.NoError(t, d.Check())
			continue
		}
		inserted++
	}

	assert.Equal(t, 20, d.NumSites())
	assert.Equal(t, 20, d.Graph().NumFaces())
	assert.NoError(t, d.Check())

	// every face is a closed cycle around its generator
	for _, f := range d.Faces() {
		edges, err := d.EdgesOf(f)
		require.NoError(t, err)
		assert.NotEmpty(t, edges)
		for _, e := range edges {
			rec, err := d.Graph().Edge(e)
			require.NoError(t, err)
			assert.Equal(t, halfedge.E1, rec.Type)
			assert.Equal(t, f, rec.FFace)
		}
	}
}

func TestPositionOfStaleVertex(t *testing.T) {
	d := voronoi.New()
	_, err := d.PositionOf(halfedge.EmptyVertex)
	assert.Error(t, err)
}
