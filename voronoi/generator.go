// Package voronoi builds Voronoi diagrams over mixed point, line-segment
// and circular-arc generators, one generator at a time, on top of the
// half-edge topology in package halfedge. The diagram is the geometric
// backbone for offset-curve generation; consumers walk its faces, edges
// and vertices and evaluate the bisector curves attached to the edges.
package voronoi

import (
	"fmt"
	"math"

	"github.com/ffurano/opencamlib/vector"
)

// GeneratorKind tags the closed set of generator variants.
type GeneratorKind uint8

const (
	GeneratorPoint GeneratorKind = iota
	GeneratorSegment
	GeneratorArc
)

func (k GeneratorKind) String() string {
	switch k {
	case GeneratorPoint:
		return "point"
	case GeneratorSegment:
		return "segment"
	case GeneratorArc:
		return "arc"
	}
	return fmt.Sprintf("GeneratorKind(%d)", uint8(k))
}

// A Generator is the geometric object whose cell a face represents:
// a point, a line segment or a circular arc. It is a closed tagged
// variant; every consumer matches all three kinds.
type Generator struct {
	Kind GeneratorKind

	Point vector.Vector // GeneratorPoint

	Start, End vector.Vector // GeneratorSegment

	Center         vector.Vector // GeneratorArc
	Radius         float64
	Angle0, Angle1 float64 // counterclockwise span, radians
}

// PointSite builds a point generator.
func PointSite(p vector.Vector) Generator {
	return Generator{Kind: GeneratorPoint, Point: p}
}

// SegmentSite builds a line-segment generator.
func SegmentSite(start, end vector.Vector) Generator {
	return Generator{Kind: GeneratorSegment, Start: start, End: end}
}

// ArcSite builds a circular-arc generator spanning counterclockwise from
// angle0 to angle1.
func ArcSite(center vector.Vector, radius, angle0, angle1 float64) Generator {
	return Generator{Kind: GeneratorArc, Center: center, Radius: radius, Angle0: angle0, Angle1: angle1}
}

// ReferencePoint is the representative point used for seed location and
// coincidence checks.
func (g Generator) ReferencePoint() vector.Vector {
	switch g.Kind {
	case GeneratorPoint:
		return g.Point
	case GeneratorSegment:
		return vector.MiddlePoint(g.Start, g.End)
	case GeneratorArc:
		mid := (g.Angle0 + g.Angle1) / 2.0
		return vector.Add(g.Center, vector.Mult(vector.Vector{X: math.Cos(mid), Y: math.Sin(mid)}, g.Radius))
	}
	return vector.Vector{}
}

func (g Generator) String() string {
	switch g.Kind {
	case GeneratorPoint:
		return fmt.Sprintf("point%s", g.Point)
	case GeneratorSegment:
		return fmt.Sprintf("segment[%s %s]", g.Start, g.End)
	case GeneratorArc:
		return fmt.Sprintf("arc[c:%s r:%.3f %.3f..%.3f]", g.Center, g.Radius, g.Angle0, g.Angle1)
	}
	return "generator(?)"
}

// validate rejects degenerate generators before they reach the builder.
func (g Generator) validate(tol float64) error {
	switch g.Kind {
	case GeneratorPoint:
		return nil
	case GeneratorSegment:
		if vector.Dist(g.Start, g.End) <= tol {
			return &DegenerateInputError{Reason: fmt.Sprintf("zero-length segment at %s", g.Start)}
		}
		return nil
	case GeneratorArc:
		if g.Radius <= tol {
			return &DegenerateInputError{Reason: fmt.Sprintf("zero-radius arc at %s", g.Center)}
		}
		if math.Abs(g.Angle1-g.Angle0) <= tol {
			return &DegenerateInputError{Reason: fmt.Sprintf("empty arc span at %s", g.Center)}
		}
		return nil
	}
	return &DegenerateInputError{Reason: fmt.Sprintf("unknown generator kind %d", g.Kind)}
}

// segmentEdge is the pos+dir form of a segment generator.
func segmentEdge(g Generator) vector.Edge {
	return vector.Edge{Pos: g.Start, Dir: vector.Sub(g.End, g.Start)}
}

// coincides reports whether two generators are the same site for the
// purpose of duplicate rejection.
func (g Generator) coincides(o Generator, tol float64) bool {
	if g.Kind != o.Kind {
		return false
	}
	switch g.Kind {
	case GeneratorPoint:
		return vector.Dist(g.Point, o.Point) <= tol
	case GeneratorSegment:
		same := vector.Dist(g.Start, o.Start) <= tol && vector.Dist(g.End, o.End) <= tol
		flipped := vector.Dist(g.Start, o.End) <= tol && vector.Dist(g.End, o.Start) <= tol
		return same || flipped
	case GeneratorArc:
		return vector.Dist(g.Center, o.Center) <= tol &&
			math.Abs(g.Radius-o.Radius) <= tol &&
			math.Abs(g.Angle0-o.Angle0) <= tol &&
			math.Abs(g.Angle1-o.Angle1) <= tol
	}
	return false
}

// SiteClass names the feature of a generator that is locally nearest to
// some probe point. The classifier tables are keyed on these classes, not
// on raw generator kinds, because a segment behaves like a point near its
// endpoints.
type SiteClass uint8

const (
	ClassPoint SiteClass = iota
	ClassSegmentEndpoint
	ClassSegmentInterior
	ClassArc
)

func (c SiteClass) String() string {
	switch c {
	case ClassPoint:
		return "point"
	case ClassSegmentEndpoint:
		return "segment-endpoint"
	case ClassSegmentInterior:
		return "segment-interior"
	case ClassArc:
		return "arc"
	}
	return fmt.Sprintf("SiteClass(%d)", uint8(c))
}
