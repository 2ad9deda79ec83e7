package voronoi

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ffurano/opencamlib/vector"
)

func TestDistance(t *testing.T) {
	geom := StdGeometry{}

	pt := PointSite(vector.Vector{X: 1, Y: 1})
	assert.InDelta(t, 5.0, geom.Distance(vector.Vector{X: 4, Y: 5}, pt), 1e-12)

	seg := SegmentSite(vector.Vector{X: 0, Y: 0}, vector.Vector{X: 10, Y: 0})
	assert.InDelta(t, 2.0, geom.Distance(vector.Vector{X: 5, Y: 2}, seg), 1e-12)
	assert.InDelta(t, math.Sqrt2, geom.Distance(vector.Vector{X: 11, Y: 1}, seg), 1e-12)

	// full upper half circle, radius 2 around the origin
	arc := ArcSite(vector.Vector{}, 2, 0, math.Pi)
	assert.InDelta(t, 1.0, geom.Distance(vector.Vector{X: 0, Y: 3}, arc), 1e-12)
	assert.InDelta(t, 1.0, geom.Distance(vector.Vector{X: 0, Y: 1}, arc), 1e-12)
	// below the span: nearest is an arc endpoint
	assert.InDelta(t, 2.0, geom.Distance(vector.Vector{X: 2, Y: -2}, arc), 1e-12)
}

func TestNearestClass(t *testing.T) {
	geom := StdGeometry{}
	seg := SegmentSite(vector.Vector{X: 0, Y: 0}, vector.Vector{X: 10, Y: 0})

	assert.Equal(t, ClassSegmentInterior, geom.NearestClass(seg, vector.Vector{X: 5, Y: 3}))
	assert.Equal(t, ClassSegmentEndpoint, geom.NearestClass(seg, vector.Vector{X: -1, Y: 3}))
	assert.Equal(t, ClassSegmentEndpoint, geom.NearestClass(seg, vector.Vector{X: 12, Y: -1}))
	assert.Equal(t, ClassPoint, geom.NearestClass(PointSite(vector.Vector{}), vector.Vector{X: 3, Y: 3}))
	assert.Equal(t, ClassArc, geom.NearestClass(ArcSite(vector.Vector{}, 1, 0, math.Pi), vector.Vector{X: 0, Y: 2}))
}

func TestProject(t *testing.T) {
	geom := StdGeometry{}

	seg := SegmentSite(vector.Vector{X: 0, Y: 0}, vector.Vector{X: 10, Y: 0})
	assert.True(t, vector.Equal(geom.Project(seg, vector.Vector{X: 4, Y: 7}), vector.Vector{X: 4, Y: 0}))
	assert.True(t, vector.Equal(geom.Project(seg, vector.Vector{X: -3, Y: 7}), vector.Vector{X: 0, Y: 0}))

	arc := ArcSite(vector.Vector{}, 2, 0, math.Pi)
	assert.True(t, vector.Equal(geom.Project(arc, vector.Vector{X: 0, Y: 5}), vector.Vector{X: 0, Y: 2}))
}

func TestRelation(t *testing.T) {
	geom := StdGeometry{}
	arc := ArcSite(vector.Vector{}, 4, 0, math.Pi)

	assert.Equal(t, RelationPointInside, geom.Relation(arc, PointSite(vector.Vector{X: 1, Y: 1})))
	assert.Equal(t, RelationPointOutside, geom.Relation(arc, PointSite(vector.Vector{X: 9, Y: 0})))

	inner := ArcSite(vector.Vector{X: 1, Y: 0}, 1, 0, math.Pi)
	assert.Equal(t, RelationNested, geom.Relation(arc, inner))

	far := ArcSite(vector.Vector{X: 20, Y: 0}, 2, 0, math.Pi)
	assert.Equal(t, RelationDisjoint, geom.Relation(arc, far))

	crossing := ArcSite(vector.Vector{X: 5, Y: 0}, 3, 0, math.Pi)
	assert.Equal(t, RelationCrossing, geom.Relation(arc, crossing))

	assert.Equal(t, RelationNone, geom.Relation(PointSite(vector.Vector{}), PointSite(vector.Vector{X: 1})))
}

// assertEquidistant samples the curve and checks every point is the same
// distance from both generators. Samples must stay within the feature
// region the curve was built for.
func assertEquidistant(t *testing.T, c vector.Curve, a, b Generator, samples ...float64) {
	t.Helper()
	if len(samples) == 0 {
		samples = []float64{-1.5, -0.4, 0, 0.8, 2.1}
	}
	geom := StdGeometry{}
	for _, tt := range samples {
		p := c.Eval(tt)
		da := geom.Distance(p, a)
		db := geom.Distance(p, b)
		assert.InDelta(t, da, db, 1e-9, "at t=%v point %s", tt, p)
	}
}

func TestBisectorPointPoint(t *testing.T) {
	geom := StdGeometry{}
	a := PointSite(vector.Vector{X: 0, Y: 0})
	b := PointSite(vector.Vector{X: 4, Y: 0})

	c, err := geom.Bisector(a, b, vector.Vector{X: 2, Y: 0})
	require.NoError(t, err)
	assert.Equal(t, vector.CurveLine, c.Kind)
	assertEquidistant(t, c, a, b)
}

func TestBisectorPointSegment(t *testing.T) {
	geom := StdGeometry{}
	pt := PointSite(vector.Vector{X: 5, Y: 6})
	seg := SegmentSite(vector.Vector{X: 0, Y: 0}, vector.Vector{X: 10, Y: 0})

	// above the interior: parabola
	c, err := geom.Bisector(pt, seg, vector.Vector{X: 5, Y: 3})
	require.NoError(t, err)
	assert.Equal(t, vector.CurveParabola, c.Kind)
	assertEquidistant(t, c, pt, seg, 3, 4, 5, 6, 7)

	// beyond the left endpoint: straight bisector to that endpoint
	c, err = geom.Bisector(pt, seg, vector.Vector{X: -6, Y: 3})
	require.NoError(t, err)
	assert.Equal(t, vector.CurveLine, c.Kind)
}

func TestBisectorSegmentSegment(t *testing.T) {
	geom := StdGeometry{}
	a := SegmentSite(vector.Vector{X: 0, Y: 0}, vector.Vector{X: 10, Y: 0})
	b := SegmentSite(vector.Vector{X: 0, Y: 4}, vector.Vector{X: 10, Y: 4})

	// parallel interiors: midline
	c, err := geom.Bisector(a, b, vector.Vector{X: 5, Y: 2})
	require.NoError(t, err)
	require.Equal(t, vector.CurveLine, c.Kind)
	assertEquidistant(t, c, a, b)
	assert.InDelta(t, 2.0, c.Eval(0).Y, 1e-9)
}

func TestBisectorArcPoint(t *testing.T) {
	geom := StdGeometry{}
	arc := ArcSite(vector.Vector{}, 4, 0, 2*math.Pi)

	inside := PointSite(vector.Vector{X: 1, Y: 0})
	c, err := geom.Bisector(arc, inside, vector.Vector{X: 2, Y: 0})
	require.NoError(t, err)
	assert.Equal(t, vector.CurveEllipse, c.Kind)
	assertEquidistant(t, c, arc, inside)

	outside := PointSite(vector.Vector{X: 8, Y: 0})
	c, err = geom.Bisector(arc, outside, vector.Vector{X: 6, Y: 0})
	require.NoError(t, err)
	assert.Equal(t, vector.CurveHyperbola, c.Kind)
	assertEquidistant(t, c, arc, outside)
}

func TestBisectorArcArcNested(t *testing.T) {
	geom := StdGeometry{}
	outer := ArcSite(vector.Vector{}, 6, 0, 2*math.Pi)
	inner := ArcSite(vector.Vector{X: 1, Y: 0}, 2, 0, 2*math.Pi)

	c, err := geom.Bisector(outer, inner, vector.Vector{X: 4, Y: 0})
	require.NoError(t, err)
	assert.Equal(t, vector.CurveEllipse, c.Kind)
	assertEquidistant(t, c, outer, inner)
}
