// Package vector provides the 2-D point/vector algebra used by the
// half-edge Voronoi diagram: vectors, directed edges and the closed-form
// line helpers the bisector construction is built from.
package vector

import (
	"fmt"
	"math"

	geo "github.com/paulmach/go.geo"
)

// EPS is the tolerance for coordinate comparison.
const EPS = 0.00001

// Because of the context, a Vector is also just a point.
type Vector struct {
	X, Y float64
}

// An Edge is a positioned direction: the line (or segment) from Pos to
// Pos+Dir. Unbounded bisector edges are carried around in this form until
// both endpoints are known.
type Edge struct {
	Pos Vector
	Dir Vector
}

func (v Vector) String() string {
	return fmt.Sprintf("(%.3f, %.3f)", v.X, v.Y)
}

func Equal(v1, v2 Vector) bool {
	return math.Abs(v1.X-v2.X) <= EPS && math.Abs(v1.Y-v2.Y) <= EPS
}

func Add(v1, v2 Vector) Vector {
	return Vector{X: v1.X + v2.X, Y: v1.Y + v2.Y}
}

func Sub(v1, v2 Vector) Vector {
	return Vector{X: v1.X - v2.X, Y: v1.Y - v2.Y}
}

func Mult(v Vector, s float64) Vector {
	return Vector{X: v.X * s, Y: v.Y * s}
}

func Dot(v1, v2 Vector) float64 {
	return v1.X*v2.X + v1.Y*v2.Y
}

// Det2D is the z-component of the cross product of v1 and v2.
func Det2D(v1, v2 Vector) float64 {
	return v1.X*v2.Y - v1.Y*v2.X
}

func Length(v Vector) float64 {
	return math.Hypot(v.X, v.Y)
}

func Dist(v1, v2 Vector) float64 {
	return math.Hypot(v1.X-v2.X, v1.Y-v2.Y)
}

// Normalize returns v scaled to unit length. The zero vector is returned
// unchanged.
func Normalize(v Vector) Vector {
	l := Length(v)
	if l <= EPS {
		return v
	}
	return Vector{X: v.X / l, Y: v.Y / l}
}

// PerpCCW rotates v by +90 degrees.
func PerpCCW(v Vector) Vector {
	return Vector{X: -v.Y, Y: v.X}
}

// MiddlePoint calculates the point halfway between p1 and p2.
func MiddlePoint(p1, p2 Vector) Vector {
	return Vector{X: (p1.X + p2.X) / 2.0, Y: (p1.Y + p2.Y) / 2.0}
}

// Amplify blows the edge up symmetrically around its position so it can
// stand in for the full supporting line.
func Amplify(e Edge, s float64) Edge {
	return Edge{
		Pos: Add(e.Pos, Mult(e.Dir, -s/2.0)),
		Dir: Mult(e.Dir, s),
	}
}

// PerpendicularBisector calculates an edge representation of the
// perpendicular bisector between p1 and p2.
func PerpendicularBisector(p1, p2 Vector) Edge {
	return Edge{
		Pos: MiddlePoint(p1, p2),
		Dir: PerpCCW(Sub(p2, p1)),
	}
}

// SideOfLine is positive if test lies left of the directed line v1->v2,
// negative if right and near zero if collinear.
func SideOfLine(v1, v2, test Vector) float64 {
	return (v2.X-v1.X)*(test.Y-v1.Y) - (v2.Y-v1.Y)*(test.X-v1.X)
}

func IsLeft2D(v1, v2, test Vector) bool {
	return SideOfLine(v1, v2, test) > 0
}

func IsRight2D(v1, v2, test Vector) bool {
	return SideOfLine(v1, v2, test) < 0
}

// LineIntersection calculates the intersection point of the supporting
// lines of e1 and e2. The boolean is false for (near) parallel lines.
func LineIntersection(e1, e2 Edge) (bool, Vector) {
	det := Det2D(e1.Dir, e2.Dir)
	if math.Abs(det) <= EPS {
		return false, Vector{}
	}
	u := Sub(e2.Pos, e1.Pos)
	t := Det2D(u, e2.Dir) / det
	return true, Add(e1.Pos, Mult(e1.Dir, t))
}

// SegmentIntersection reports whether the segments e1 and e2 (from Pos to
// Pos+Dir each) intersect, and where.
func SegmentIntersection(e1, e2 Edge) (bool, Vector) {
	path := geo.NewPath()
	path.Push(geo.NewPoint(e1.Pos.X, e1.Pos.Y))
	path.Push(geo.NewPoint(e1.Pos.X+e1.Dir.X, e1.Pos.Y+e1.Dir.Y))

	line := geo.NewLine(
		geo.NewPoint(e2.Pos.X, e2.Pos.Y),
		geo.NewPoint(e2.Pos.X+e2.Dir.X, e2.Pos.Y+e2.Dir.Y),
	)

	if !path.Intersects(line) {
		return false, Vector{}
	}
	points, _ := path.Intersection(line)
	if len(points) == 0 {
		return false, Vector{}
	}
	return true, Vector{X: points[0][0], Y: points[0][1]}
}

// ProjectOnSegment returns the parameter t in [0,1] of the point on the
// segment a->b closest to p.
func ProjectOnSegment(p, a, b Vector) float64 {
	ab := Sub(b, a)
	l2 := Dot(ab, ab)
	if l2 <= EPS*EPS {
		return 0
	}
	t := Dot(Sub(p, a), ab) / l2
	return math.Max(0, math.Min(1, t))
}

// DistToSegment is the distance from p to the segment a->b.
func DistToSegment(p, a, b Vector) float64 {
	t := ProjectOnSegment(p, a, b)
	return Dist(p, Add(a, Mult(Sub(b, a), t)))
}
