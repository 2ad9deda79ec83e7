// Package halfedge implements an arena-backed doubly-connected edge list
// for planar Voronoi diagrams. All records live in slices and reference
// each other through generation-tagged indices, never through pointers.
// The package is purely structural: it allocates, links and removes
// records but evaluates no geometry and enforces no diagram semantics.
package halfedge

import (
	"fmt"

	"github.com/ffurano/opencamlib/vector"
)

// EdgeType records which generator-pair family produced an edge and
// thereby which bisector curve family it follows.
type EdgeType uint8

const (
	EdgeUndefined EdgeType = iota
	E1                     // point/point, straight line
	E2                     // point/segment endpoint, straight line
	E3                     // point/segment interior, parabolic arc
	E4                     // segment/segment, straight line
	E5                     // arc/point inside, elliptic arc
	E6                     // arc/point outside, hyperbolic arc
	E7                     // arc/segment endpoint, ray
	E8                     // arc/segment crossing, parabolic arc
	E9                     // arc/arc nested, elliptic arc
	E10                    // arc/arc crossing or disjoint, hyperbolic arc
)

func (t EdgeType) String() string {
	if t == EdgeUndefined {
		return "E?"
	}
	return fmt.Sprintf("E%d", uint8(t))
}

// VertexType records which generator triple produced a vertex.
type VertexType uint8

const (
	VertexUndefined VertexType = iota
	V1                         // three points
	V2                         // point, segment, segment endpoint
	V3                         // segment and two points
	V4                         // two segments and an endpoint
	V5                         // point and two segments
	V6                         // three segments
)

func (t VertexType) String() string {
	if t == VertexUndefined {
		return "V?"
	}
	return fmt.Sprintf("V%d", uint8(t))
}

// Handles are generation-tagged arena indices. A handle goes stale as
// soon as its record is removed; dereferencing a stale handle is reported
// as an error instead of silently reading reused storage.

type VertexIndex struct {
	slot int32
	gen  uint32
}

type EdgeIndex struct {
	slot int32
	gen  uint32
}

type FaceIndex struct {
	slot int32
	gen  uint32
}

var (
	EmptyVertex = VertexIndex{slot: -1}
	EmptyEdge   = EdgeIndex{slot: -1}
	EmptyFace   = FaceIndex{slot: -1}

	// InfiniteVertex stands in as the origin of an unbounded half-edge.
	// It owns no record; the edge's curve carries the direction.
	InfiniteVertex = VertexIndex{slot: -2}
)

func (v VertexIndex) Valid() bool { return v.slot >= 0 }
func (e EdgeIndex) Valid() bool   { return e.slot >= 0 }
func (f FaceIndex) Valid() bool   { return f.slot >= 0 }

// Infinite reports whether the handle is the sentinel for a point at
// infinity.
func (v VertexIndex) Infinite() bool { return v == InfiniteVertex }

func (v VertexIndex) String() string {
	switch {
	case v == InfiniteVertex:
		return "v(inf)"
	case !v.Valid():
		return "v(-)"
	}
	return fmt.Sprintf("v%d@%d", v.slot, v.gen)
}

func (e EdgeIndex) String() string {
	if !e.Valid() {
		return "e(-)"
	}
	return fmt.Sprintf("e%d@%d", e.slot, e.gen)
}

func (f FaceIndex) String() string {
	if !f.Valid() {
		return "f(-)"
	}
	return fmt.Sprintf("f%d@%d", f.slot, f.gen)
}

// HEVertex is a diagram vertex.
type HEVertex struct {
	Pos  vector.Vector
	Type VertexType

	// Any one of the edges leaving this vertex, arbitrarily.
	ELeaving EdgeIndex
}

// HEEdge is a directed half-edge. Twins are not stored: they occupy the
// adjacent arena slot and are recovered through Graph.Twin.
type HEEdge struct {
	// Origin vertex. EmptyVertex while unlinked, InfiniteVertex when the
	// edge begins at infinity.
	VOrigin VertexIndex

	// Following ENext traverses the polygon around FFace counterclockwise.
	ENext EdgeIndex
	FFace FaceIndex

	Type EdgeType

	// Bisector geometry of the undirected edge, parametrized along this
	// half-edge's direction. The twin holds the reversed curve.
	Curve vector.Curve
}

// HEFace is a diagram face: one cell of the subdivision.
type HEFace struct {
	// ReferencePoint of the face's generator, for seed location and
	// debug rendering.
	ReferencePoint vector.Vector

	// An arbitrary edge on the boundary cycle of this face.
	EEdge EdgeIndex

	// Site is the caller's identifier for the generator owning this
	// face. The graph never interprets it.
	Site int32
}

func (v HEVertex) String() string {
	return fmt.Sprintf("(%s %s leave:%s)", v.Pos, v.Type, v.ELeaving)
}

func (e HEEdge) String() string {
	return fmt.Sprintf("(o:%s n:%s f:%s %s)", e.VOrigin, e.ENext, e.FFace, e.Type)
}

func (f HEFace) String() string {
	return fmt.Sprintf("(ref:%s edge:%s site:%d)", f.ReferencePoint, f.EEdge, f.Site)
}
