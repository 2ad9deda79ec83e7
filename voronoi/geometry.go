package voronoi

import (
	"math"

	"github.com/ffurano/opencamlib/vector"
)

// Geometry is the collaborator the builder delegates all metric work to:
// the generalized distance function, nearest-feature queries and bisector
// curve construction. The topology code never computes geometry itself.
type Geometry interface {
	// Distance is the generalized distance from p to the generator.
	Distance(p vector.Vector, g Generator) float64

	// NearestClass names the feature of g nearest to p.
	NearestClass(g Generator, p vector.Vector) SiteClass

	// Project returns the point of g nearest to p.
	Project(g Generator, p vector.Vector) vector.Vector

	// Relation resolves the arc rows of the edge table for a pair
	// containing at least one arc. RelationNone for non-arc pairs.
	Relation(a, b Generator) ArcRelation

	// Bisector returns the bisector branch of a and b that passes near
	// at. The probe point selects the feature pair (and conic branch)
	// for generators with composite bisectors.
	Bisector(a, b Generator, at vector.Vector) (vector.Curve, error)
}

// StdGeometry is the closed-form implementation of Geometry for points,
// segments and circular arcs.
type StdGeometry struct{}

func (StdGeometry) Distance(p vector.Vector, g Generator) float64 {
	switch g.Kind {
	case GeneratorPoint:
		return vector.Dist(p, g.Point)
	case GeneratorSegment:
		return vector.DistToSegment(p, g.Start, g.End)
	case GeneratorArc:
		if angleInSpan(math.Atan2(p.Y-g.Center.Y, p.X-g.Center.X), g.Angle0, g.Angle1) {
			return math.Abs(vector.Dist(p, g.Center) - g.Radius)
		}
		return math.Min(vector.Dist(p, g.arcEndpoint(g.Angle0)), vector.Dist(p, g.arcEndpoint(g.Angle1)))
	}
	return math.Inf(1)
}

func (StdGeometry) NearestClass(g Generator, p vector.Vector) SiteClass {
	switch g.Kind {
	case GeneratorPoint:
		return ClassPoint
	case GeneratorSegment:
		ab := vector.Sub(g.End, g.Start)
		t := vector.Dot(vector.Sub(p, g.Start), ab) / vector.Dot(ab, ab)
		if t <= 0 || t >= 1 {
			return ClassSegmentEndpoint
		}
		return ClassSegmentInterior
	case GeneratorArc:
		return ClassArc
	}
	return ClassPoint
}

func (StdGeometry) Project(g Generator, p vector.Vector) vector.Vector {
	switch g.Kind {
	case GeneratorPoint:
		return g.Point
	case GeneratorSegment:
		t := vector.ProjectOnSegment(p, g.Start, g.End)
		return vector.Add(g.Start, vector.Mult(vector.Sub(g.End, g.Start), t))
	case GeneratorArc:
		a := math.Atan2(p.Y-g.Center.Y, p.X-g.Center.X)
		if angleInSpan(a, g.Angle0, g.Angle1) {
			return g.arcEndpoint(a)
		}
		p0, p1 := g.arcEndpoint(g.Angle0), g.arcEndpoint(g.Angle1)
		if vector.Dist(p, p0) <= vector.Dist(p, p1) {
			return p0
		}
		return p1
	}
	return p
}

func (StdGeometry) Relation(a, b Generator) ArcRelation {
	if b.Kind == GeneratorArc && a.Kind != GeneratorArc {
		a, b = b, a
	}
	if a.Kind != GeneratorArc {
		return RelationNone
	}
	switch b.Kind {
	case GeneratorPoint:
		if vector.Dist(b.Point, a.Center) < a.Radius {
			return RelationPointInside
		}
		return RelationPointOutside
	case GeneratorArc:
		d := vector.Dist(a.Center, b.Center)
		if d+b.Radius < a.Radius || d+a.Radius < b.Radius {
			return RelationNested
		}
		if d > a.Radius+b.Radius {
			return RelationDisjoint
		}
		return RelationCrossing
	}
	return RelationNone
}

func (g Generator) arcEndpoint(angle float64) vector.Vector {
	return vector.Add(g.Center, vector.Mult(vector.Vector{X: math.Cos(angle), Y: math.Sin(angle)}, g.Radius))
}

func angleInSpan(a, a0, a1 float64) bool {
	if a1-a0 >= 2*math.Pi {
		return true // full circle
	}
	span := math.Mod(a1-a0, 2*math.Pi)
	if span < 0 {
		span += 2 * math.Pi
	}
	off := math.Mod(a-a0, 2*math.Pi)
	if off < 0 {
		off += 2 * math.Pi
	}
	return off <= span
}

// nearestFeaturePoint resolves a point-like feature of g next to at: the
// generator point itself or the nearer segment endpoint.
func nearestFeaturePoint(g Generator, at vector.Vector) vector.Vector {
	if g.Kind == GeneratorPoint {
		return g.Point
	}
	if vector.Dist(at, g.Start) <= vector.Dist(at, g.End) {
		return g.Start
	}
	return g.End
}

// supportingLine of a segment generator.
func supportingLine(g Generator) vector.Edge {
	return vector.Edge{Pos: g.Start, Dir: vector.Sub(g.End, g.Start)}
}

func (sg StdGeometry) Bisector(a, b Generator, at vector.Vector) (vector.Curve, error) {
	// order: point-like first, arcs last
	if a.Kind == GeneratorArc && b.Kind != GeneratorArc {
		a, b = b, a
	}
	if a.Kind == GeneratorSegment && b.Kind == GeneratorPoint {
		a, b = b, a
	}

	ca := sg.NearestClass(a, at)
	cb := sg.NearestClass(b, at)

	switch {
	case a.Kind == GeneratorPoint && b.Kind == GeneratorPoint:
		e := vector.PerpendicularBisector(a.Point, b.Point)
		return vector.Line(e.Pos, e.Dir), nil

	case a.Kind == GeneratorPoint && b.Kind == GeneratorSegment:
		if cb == ClassSegmentEndpoint {
			e := vector.PerpendicularBisector(a.Point, nearestFeaturePoint(b, at))
			return vector.Line(e.Pos, e.Dir), nil
		}
		return vector.Parabola(a.Point, supportingLine(b)), nil

	case a.Kind == GeneratorSegment && b.Kind == GeneratorSegment:
		switch {
		case ca == ClassSegmentEndpoint && cb == ClassSegmentEndpoint:
			e := vector.PerpendicularBisector(nearestFeaturePoint(a, at), nearestFeaturePoint(b, at))
			return vector.Line(e.Pos, e.Dir), nil
		case ca == ClassSegmentEndpoint:
			return vector.Parabola(nearestFeaturePoint(a, at), supportingLine(b)), nil
		case cb == ClassSegmentEndpoint:
			return vector.Parabola(nearestFeaturePoint(b, at), supportingLine(a)), nil
		}
		return segmentSegmentBisector(a, b, at)

	case b.Kind == GeneratorArc && a.Kind != GeneratorArc:
		return arcBisector(sg, b, a, at)

	case a.Kind == GeneratorArc && b.Kind == GeneratorArc:
		return arcArcBisector(sg, a, b)
	}
	return vector.Curve{}, &UnsupportedGeneratorPairError{Classes: []SiteClass{ca, cb}}
}

// segmentSegmentBisector is the straight bisector of the two supporting
// lines, through their intersection, oriented to pass near at.
func segmentSegmentBisector(a, b Generator, at vector.Vector) (vector.Curve, error) {
	la := supportingLine(a)
	lb := supportingLine(b)
	da := vector.Normalize(la.Dir)
	db := vector.Normalize(lb.Dir)

	ok, cross := vector.LineIntersection(la, lb)
	if !ok {
		// parallel supporting lines: midline
		n := vector.PerpCCW(da)
		off := vector.Dot(vector.Sub(lb.Pos, la.Pos), n) / 2.0
		return vector.Line(vector.Add(la.Pos, vector.Mult(n, off)), da), nil
	}

	// two candidate bisector directions; pick the one whose line is
	// closer to the probe point
	if vector.Dot(da, db) < 0 {
		db = vector.Mult(db, -1)
	}
	sum := vector.Normalize(vector.Add(da, db))
	diff := vector.PerpCCW(sum)
	w := vector.Sub(at, cross)
	if math.Abs(vector.Det2D(sum, w)) <= math.Abs(vector.Det2D(diff, w)) {
		return vector.Line(cross, sum), nil
	}
	return vector.Line(cross, diff), nil
}

// arcBisector handles arc against point or segment.
func arcBisector(sg StdGeometry, arc, other Generator, at vector.Vector) (vector.Curve, error) {
	switch other.Kind {
	case GeneratorPoint:
		if vector.Dist(other.Point, arc.Center) < arc.Radius {
			// ellipse: |x-c| + |x-p| = r
			return vector.Ellipse(arc.Center, other.Point, arc.Radius/2.0), nil
		}
		// hyperbola branch around the point: |x-c| - |x-p| = r
		return vector.Hyperbola(other.Point, arc.Center, arc.Radius/2.0), nil
	case GeneratorSegment:
		if sg.NearestClass(other, at) == ClassSegmentEndpoint {
			// ray from the arc center through the endpoint
			p := nearestFeaturePoint(other, at)
			return vector.Line(p, vector.Sub(p, arc.Center)), nil
		}
		// parabola: focus at the center, directrix shifted off the
		// supporting line by the radius, away from the center
		l := supportingLine(other)
		n := vector.PerpCCW(vector.Normalize(l.Dir))
		if vector.Dot(n, vector.Sub(arc.Center, l.Pos)) > 0 {
			n = vector.Mult(n, -1)
		}
		shifted := vector.Edge{Pos: vector.Add(l.Pos, vector.Mult(n, arc.Radius)), Dir: l.Dir}
		return vector.Parabola(arc.Center, shifted), nil
	}
	return vector.Curve{}, &UnsupportedGeneratorPairError{Classes: []SiteClass{ClassArc, sg.NearestClass(other, at)}}
}

func arcArcBisector(sg StdGeometry, a, b Generator) (vector.Curve, error) {
	switch sg.Relation(a, b) {
	case RelationNested:
		// ra - |x-ca| = |x-cb| - rb inside the outer circle, so the
		// distance sum is ra+rb: an ellipse with the centers as foci
		return vector.Ellipse(a.Center, b.Center, (a.Radius+b.Radius)/2.0), nil
	case RelationCrossing, RelationDisjoint:
		// |x-ca| - |x-cb| = ra - rb, hyperbola branch
		diff := (a.Radius - b.Radius) / 2.0
		if diff < 0 {
			return vector.Hyperbola(a.Center, b.Center, -diff), nil
		}
		return vector.Hyperbola(b.Center, a.Center, diff), nil
	}
	return vector.Curve{}, &UnsupportedGeneratorPairError{Classes: []SiteClass{ClassArc, ClassArc}}
}

var _ Geometry = StdGeometry{}
