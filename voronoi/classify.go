package voronoi

import (
	"github.com/ffurano/opencamlib/halfedge"
)

// ArcRelation disambiguates the arc rows of the edge table, where the
// curve family depends on the geometric relation of the pair and not only
// on the kinds. The geometry collaborator decides the relation.
type ArcRelation uint8

const (
	RelationNone ArcRelation = iota
	RelationPointInside
	RelationPointOutside
	RelationNested
	RelationCrossing
	RelationDisjoint
)

// ClassifyEdge maps a generator-feature pair to the edge type selecting
// its bisector family:
//
//	E1 point/point              straight line
//	E2 point/segment endpoint   straight line
//	E3 point/segment interior   parabola, directrix on the segment
//	E4 segment/segment          straight line
//	E5 arc/point inside         ellipse
//	E6 arc/point outside        hyperbola
//	E7 arc/segment endpoint     ray
//	E8 arc/segment crossing     parabola
//	E9 arc/arc nested           ellipse
//	E10 arc/arc crossing        hyperbola branch
//
// The table is closed: a pair not listed here is an
// UnsupportedGeneratorPairError, never a silent default. The pair is
// unordered.
func ClassifyEdge(a, b SiteClass, rel ArcRelation) (halfedge.EdgeType, error) {
	if b == ClassArc && a != ClassArc {
		a, b = b, a
	}
	if a == ClassSegmentInterior && b != ClassSegmentInterior && b != ClassArc {
		a, b = b, a
	}
	if a == ClassSegmentEndpoint && b == ClassPoint {
		a, b = b, a
	}

	switch {
	case a == ClassPoint && b == ClassPoint:
		return halfedge.E1, nil
	case a == ClassPoint && b == ClassSegmentEndpoint:
		return halfedge.E2, nil
	case a == ClassPoint && b == ClassSegmentInterior:
		return halfedge.E3, nil
	case a == ClassSegmentInterior && b == ClassSegmentInterior:
		return halfedge.E4, nil
	case a == ClassSegmentEndpoint && b == ClassSegmentEndpoint:
		// two point-like features; straight bisector as for E1
		return halfedge.E1, nil
	case a == ClassSegmentEndpoint && b == ClassSegmentInterior:
		// point-like feature against a line; parabolic as for E3
		return halfedge.E3, nil

	case a == ClassArc && (b == ClassPoint || b == ClassSegmentEndpoint):
		switch rel {
		case RelationPointInside:
			return halfedge.E5, nil
		case RelationPointOutside:
			return halfedge.E6, nil
		}
		if b == ClassSegmentEndpoint {
			return halfedge.E7, nil
		}
	case a == ClassArc && b == ClassSegmentInterior:
		return halfedge.E8, nil
	case a == ClassArc && b == ClassArc:
		switch rel {
		case RelationNested:
			return halfedge.E9, nil
		case RelationCrossing, RelationDisjoint:
			return halfedge.E10, nil
		}
	}
	return halfedge.EdgeUndefined, &UnsupportedGeneratorPairError{Classes: []SiteClass{a, b}}
}

// ClassifyVertex maps the generator-feature triple meeting at a vertex to
// its type:
//
//	V1 three point-like features
//	V2 point-like, segment interior, segment endpoint tangency
//	V3 segment interior and two point-like features
//	V4 two segment interiors and an endpoint tangency
//	V5 point-like feature and two segment interiors
//	V6 three segment interiors
//
// A segment endpoint is a point-like feature; after the two explicit
// tangency rows it counts as a point, which closes the table over every
// point/segment feature triple. The triple is unordered. Arc-containing
// triples are an UnsupportedGeneratorPairError.
func ClassifyVertex(a, b, c SiteClass) (halfedge.VertexType, error) {
	var points, endpoints, interiors, arcs int
	for _, cl := range [3]SiteClass{a, b, c} {
		switch cl {
		case ClassPoint:
			points++
		case ClassSegmentEndpoint:
			endpoints++
		case ClassSegmentInterior:
			interiors++
		case ClassArc:
			arcs++
		}
	}
	if arcs > 0 {
		return halfedge.VertexUndefined, &UnsupportedGeneratorPairError{Classes: []SiteClass{a, b, c}}
	}

	switch {
	case points == 1 && interiors == 1 && endpoints == 1:
		return halfedge.V2, nil
	case interiors == 2 && endpoints == 1:
		return halfedge.V4, nil
	}

	switch pointLike := points + endpoints; {
	case pointLike == 3:
		return halfedge.V1, nil
	case pointLike == 2 && interiors == 1:
		return halfedge.V3, nil
	case pointLike == 1 && interiors == 2:
		return halfedge.V5, nil
	}
	return halfedge.V6, nil
}
