package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicAlgebra(t *testing.T) {
	a := Vector{X: 3, Y: 4}
	b := Vector{X: -1, Y: 2}

	assert.Equal(t, Vector{X: 2, Y: 6}, Add(a, b))
	assert.Equal(t, Vector{X: 4, Y: 2}, Sub(a, b))
	assert.Equal(t, Vector{X: 6, Y: 8}, Mult(a, 2))
	assert.InDelta(t, 5.0, Length(a), EPS)
	assert.InDelta(t, 5.0, Dot(a, b), EPS)
	assert.InDelta(t, 10.0, Det2D(a, b), EPS)
	assert.True(t, Equal(MiddlePoint(a, b), Vector{X: 1, Y: 3}))
}

func TestNormalize(t *testing.T) {
	n := Normalize(Vector{X: 0, Y: -7})
	assert.True(t, Equal(n, Vector{X: 0, Y: -1}))

	// zero vector stays put instead of dividing by zero
	assert.Equal(t, Vector{}, Normalize(Vector{}))
}

func TestPerpCCW(t *testing.T) {
	p := PerpCCW(Vector{X: 1, Y: 0})
	assert.True(t, Equal(p, Vector{X: 0, Y: 1}))
	// rotating four times is the identity
	q := PerpCCW(PerpCCW(PerpCCW(p)))
	assert.True(t, Equal(q, Vector{X: 1, Y: 0}))
}

func TestPerpendicularBisector(t *testing.T) {
	e := PerpendicularBisector(Vector{X: 0, Y: 0}, Vector{X: 4, Y: 0})
	assert.True(t, Equal(e.Pos, Vector{X: 2, Y: 0}))
	// direction perpendicular to the connecting segment
	assert.InDelta(t, 0.0, Dot(e.Dir, Vector{X: 4, Y: 0}), EPS)
}

func TestSideOfLine(t *testing.T) {
	a := Vector{X: 0, Y: 0}
	b := Vector{X: 10, Y: 0}
	assert.True(t, IsLeft2D(a, b, Vector{X: 5, Y: 1}))
	assert.True(t, IsRight2D(a, b, Vector{X: 5, Y: -1}))
	assert.InDelta(t, 0.0, SideOfLine(a, b, Vector{X: 7, Y: 0}), EPS)
}

func TestLineIntersection(t *testing.T) {
	ok, p := LineIntersection(
		Edge{Pos: Vector{X: 0, Y: 0}, Dir: Vector{X: 1, Y: 1}},
		Edge{Pos: Vector{X: 4, Y: 0}, Dir: Vector{X: -1, Y: 1}},
	)
	require.True(t, ok)
	assert.True(t, Equal(p, Vector{X: 2, Y: 2}))

	ok, _ = LineIntersection(
		Edge{Pos: Vector{X: 0, Y: 0}, Dir: Vector{X: 1, Y: 0}},
		Edge{Pos: Vector{X: 0, Y: 1}, Dir: Vector{X: 2, Y: 0}},
	)
	assert.False(t, ok, "parallel lines must not intersect")
}

func TestSegmentIntersection(t *testing.T) {
	ok, p := SegmentIntersection(
		Edge{Pos: Vector{X: 0, Y: -1}, Dir: Vector{X: 0, Y: 2}},
		Edge{Pos: Vector{X: -1, Y: 0}, Dir: Vector{X: 2, Y: 0}},
	)
	require.True(t, ok)
	assert.True(t, Equal(p, Vector{X: 0, Y: 0}))

	ok, _ = SegmentIntersection(
		Edge{Pos: Vector{X: 0, Y: 0}, Dir: Vector{X: 1, Y: 0}},
		Edge{Pos: Vector{X: 0, Y: 1}, Dir: Vector{X: 1, Y: 0}},
	)
	assert.False(t, ok)
}

func TestProjectOnSegment(t *testing.T) {
	a := Vector{X: 0, Y: 0}
	b := Vector{X: 10, Y: 0}

	assert.InDelta(t, 0.5, ProjectOnSegment(Vector{X: 5, Y: 3}, a, b), EPS)
	// clamped beyond the endpoints
	assert.InDelta(t, 0.0, ProjectOnSegment(Vector{X: -5, Y: 0}, a, b), EPS)
	assert.InDelta(t, 1.0, ProjectOnSegment(Vector{X: 15, Y: 0}, a, b), EPS)
}

func TestDistToSegment(t *testing.T) {
	a := Vector{X: 0, Y: 0}
	b := Vector{X: 10, Y: 0}

	assert.InDelta(t, 3.0, DistToSegment(Vector{X: 5, Y: 3}, a, b), EPS)
	assert.InDelta(t, 5.0, DistToSegment(Vector{X: 13, Y: 4}, a, b), EPS)
}

func TestAmplify(t *testing.T) {
	e := Amplify(Edge{Pos: Vector{X: 1, Y: 1}, Dir: Vector{X: 1, Y: 0}}, 10)
	assert.True(t, Equal(e.Pos, Vector{X: -4, Y: 1}))
	assert.True(t, Equal(e.Dir, Vector{X: 10, Y: 0}))
}
