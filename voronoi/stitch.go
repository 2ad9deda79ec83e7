package voronoi

import (
	"github.com/ffurano/opencamlib/halfedge"
)

// applyPlan executes a validated insertion plan. Planning has already
// raised every recoverable error, so any failure here is a builder
// defect and leaves the diagram corrupted.
//
// All records are allocated before any are linked; arena growth moves
// records, so no record pointer is held across an allocation.
func (d *Diagram) applyPlan(s Generator, plan *insertPlan) (halfedge.FaceIndex, error) {
	g := d.graph
	m := len(plan.runs)
	fNew := g.CreateFace(s.ReferencePoint(), int32(len(d.sites)))

	faceEdges := make([][]halfedge.EdgeIndex, m)
	twinEdges := make([][]halfedge.EdgeIndex, m)
	for i, run := range plan.runs {
		faceEdges[i] = make([]halfedge.EdgeIndex, len(run.pieces))
		twinEdges[i] = make([]halfedge.EdgeIndex, len(run.pieces))
		for j := range run.pieces {
			faceEdges[i][j], twinEdges[i][j] = g.CreateEdgePair(run.face, fNew)
		}
	}

	// Junction vertices sit on the crossed edges between consecutive
	// runs; on a closed chain the last run joins back to the first.
	juncVerts := make([]halfedge.VertexIndex, m)
	for i := range juncVerts {
		juncVerts[i] = halfedge.EmptyVertex
	}
	for i, run := range plan.runs {
		if run.exit.infinite() {
			if plan.closed {
				return halfedge.EmptyFace, &TopologyViolationError{Detail: "closed chain with an unbounded exit"}
			}
			continue
		}
		juncVerts[i] = g.CreateVertex(run.exit.pos, run.exit.vtype)
	}

	transVerts := make([][]halfedge.VertexIndex, m)
	for i, run := range plan.runs {
		transVerts[i] = make([]halfedge.VertexIndex, len(run.pieces))
		for j, piece := range run.pieces {
			transVerts[i][j] = halfedge.EmptyVertex
			if piece.endVertex {
				transVerts[i][j] = g.CreateVertex(piece.endPos, piece.endType)
			}
		}
	}

	// Allocation is done; from here records are only linked.

	fail := func(detail string, err error) (halfedge.FaceIndex, error) {
		return halfedge.EmptyFace, &TopologyViolationError{Detail: detail, Cause: err}
	}

	for i, run := range plan.runs {
		k := len(run.pieces)
		if k == 0 {
			return fail("run without pieces", nil)
		}
		prev := (i - 1 + m) % m

		for j := range run.pieces {
			piece := run.pieces[j]
			eF, eN := faceEdges[i][j], twinEdges[i][j]

			rec, err := g.Edge(eF)
			if err != nil {
				return fail("new edge", err)
			}
			rec.Curve = piece.curve
			rec.Type = piece.etype
			switch {
			case j > 0:
				rec.VOrigin = transVerts[i][j-1]
			case !run.entry.infinite():
				rec.VOrigin = juncVerts[prev]
			default:
				rec.VOrigin = halfedge.InfiniteVertex
			}

			trec, err := g.Edge(eN)
			if err != nil {
				return fail("new twin", err)
			}
			trec.Curve = piece.curve.Reversed()
			trec.Type = piece.etype
			switch {
			case piece.endVertex:
				trec.VOrigin = transVerts[i][j]
			case j == k-1 && !run.exit.infinite():
				trec.VOrigin = juncVerts[i]
			case j == k-1:
				trec.VOrigin = halfedge.InfiniteVertex
			default:
				return fail("piece without an end vertex before another piece", nil)
			}

			// forward along the retained face's cycle
			var next halfedge.EdgeIndex
			switch {
			case j < k-1:
				next = faceEdges[i][j+1]
			case !run.exit.infinite():
				next = run.exit.edge
			case run.postEdge.Valid():
				next = run.postEdge
			default:
				next = faceEdges[i][0] // lone unbounded run wraps on itself
			}
			if err := g.SetNext(eF, next); err != nil {
				return fail("linking new edge", err)
			}

			// backward along the new face's cycle
			var tnext halfedge.EdgeIndex
			if j > 0 {
				tnext = twinEdges[i][j-1]
			} else {
				tnext = twinEdges[prev][len(plan.runs[prev].pieces)-1]
			}
			if err := g.SetNext(eN, tnext); err != nil {
				return fail("linking new twin", err)
			}
		}

		// splice the run into the surviving boundary
		switch {
		case !run.entry.infinite():
			if err := g.SetNext(run.entry.edge, faceEdges[i][0]); err != nil {
				return fail("linking entry edge", err)
			}
		case run.preEdge.Valid():
			if err := g.SetNext(run.preEdge, faceEdges[i][0]); err != nil {
				return fail("linking across infinity", err)
			}
		}
	}

	// Trim the crossed edges at the junction vertices and hang the
	// vertices' leaving edges.
	for i, run := range plan.runs {
		if run.exit.infinite() {
			continue
		}
		v := juncVerts[i]
		x := run.exit.edge

		if err := g.SetOrigin(x, v); err != nil {
			return fail("moving exit origin", err)
		}
		xrec, err := g.Edge(x)
		if err != nil {
			return fail("exit edge", err)
		}
		xrec.Curve.T0 = run.exit.t
		twin := g.Twin(x)
		trec, err := g.Edge(twin)
		if err != nil {
			return fail("exit twin", err)
		}
		trec.Curve.T1 = -run.exit.t

		vrec, err := g.Vertex(v)
		if err != nil {
			return fail("junction vertex", err)
		}
		vrec.ELeaving = x
	}
	for i, run := range plan.runs {
		for j := range run.pieces {
			tv := transVerts[i][j]
			if !tv.Valid() {
				continue
			}
			vrec, err := g.Vertex(tv)
			if err != nil {
				return fail("transition vertex", err)
			}
			vrec.ELeaving = faceEdges[i][j+1]
		}
	}

	// Re-anchor every touched face on an edge that survived.
	for i, run := range plan.runs {
		frec, err := g.Face(run.face)
		if err != nil {
			return fail("retained face", err)
		}
		if !run.entry.infinite() {
			frec.EEdge = run.entry.edge
		} else {
			frec.EEdge = faceEdges[i][0]
		}
	}
	nrec, err := g.Face(fNew)
	if err != nil {
		return fail("new face", err)
	}
	nrec.EEdge = twinEdges[0][0]

	for _, e := range plan.deadEdges {
		if _, err := g.Edge(e); err != nil {
			continue // already gone with its twin
		}
		if err := g.RemoveEdgePair(e); err != nil {
			return fail("removing condemned edge", err)
		}
	}
	for _, v := range plan.deadVerts {
		if err := g.RemoveVertex(v); err != nil {
			return fail("removing condemned vertex", err)
		}
	}

	if err := g.Validate(); err != nil {
		return fail("post insertion validation", err)
	}
	return fNew, nil
}
