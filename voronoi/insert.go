package voronoi

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/ffurano/opencamlib/halfedge"
	"github.com/ffurano/opencamlib/vector"
)

// farParam stands in for an infinite curve parameter when a probe point
// on an unbounded edge is needed.
const farParam = 1e6

// bisection iteration count for split placement; gives ~1e-12 parameter
// resolution on diagram-scale coordinates.
const splitIterations = 80

// A crossing is one point where the boundary of the generator being
// inserted meets the existing diagram: either on a crossed edge, split at
// pos, or at infinity (edge == EmptyEdge).
type crossing struct {
	edge  halfedge.EdgeIndex
	t     float64 // split parameter on the crossed half-edge's own curve
	pos   vector.Vector
	vtype halfedge.VertexType
}

func (c crossing) infinite() bool { return !c.edge.Valid() }

// A piecePlan is one new half-edge pair to stitch in: a stretch of the
// bisector between the new generator and one existing face's generator,
// over a single nearest-feature region.
type piecePlan struct {
	curve vector.Curve // oriented along the retained face's cycle
	etype halfedge.EdgeType

	// transition vertex closing this piece, when another piece follows
	endVertex bool
	endPos    vector.Vector
	endType   halfedge.VertexType
}

// A runPlan is the new cell boundary within one retained face: from the
// entry crossing to the exit crossing, subdivided into pieces at
// nearest-feature transitions.
type runPlan struct {
	face  halfedge.FaceIndex
	entry crossing
	exit  crossing

	// surviving neighbours for the links across infinity
	preEdge  halfedge.EdgeIndex // its ENext becomes the first piece, when entry is infinite
	postEdge halfedge.EdgeIndex // the last piece's ENext, when exit is infinite

	pieces []piecePlan
}

// newRunPlan starts a run with every handle explicitly empty. The zero
// value of a handle is not a sentinel, so the fields must never be left
// to default.
func newRunPlan(f halfedge.FaceIndex) runPlan {
	return runPlan{
		face:     f,
		entry:    crossing{edge: halfedge.EmptyEdge},
		exit:     crossing{edge: halfedge.EmptyEdge},
		preEdge:  halfedge.EmptyEdge,
		postEdge: halfedge.EmptyEdge,
	}
}

// insertPlan is the complete, validated mutation script for one
// insertion. Planning is read-only; every recoverable error surfaces
// before the first mutation, which is what makes rollback trivial.
type insertPlan struct {
	runs   []runPlan // in chain order around the new cell
	closed bool

	deadEdges []halfedge.EdgeIndex
	deadVerts []halfedge.VertexIndex
}

// Insert adds one generator to the diagram and returns its face. On a
// DegenerateInputError, UnsupportedGeneratorPairError or
// NumericalPrecisionError the diagram is untouched. A
// TopologyViolationError means an internal defect; the diagram must then
// be treated as corrupted.
func (d *Diagram) Insert(g Generator) (halfedge.FaceIndex, error) {
	if err := g.validate(d.tol); err != nil {
		return halfedge.EmptyFace, err
	}
	for _, site := range d.sites {
		if g.coincides(site, d.tol) {
			return halfedge.EmptyFace, &DegenerateInputError{
				Reason: fmt.Sprintf("generator coincides with existing %s", site),
			}
		}
	}
	// Segment generators must not intersect each other; a generator point
	// shared between two cells has no cell boundary between them.
	if g.Kind == GeneratorSegment {
		for _, site := range d.sites {
			if site.Kind != GeneratorSegment {
				continue
			}
			if hit, at := vector.SegmentIntersection(segmentEdge(g), segmentEdge(site)); hit {
				return halfedge.EmptyFace, &DegenerateInputError{
					Reason: fmt.Sprintf("segment crosses existing %s at %s", site, at),
				}
			}
		}
	}

	d.log.Debug("inserting generator",
		zap.Stringer("generator", g),
		zap.Int("sites", len(d.sites)))

	if len(d.sites) == 0 {
		f := d.graph.CreateFace(g.ReferencePoint(), 0)
		d.commitSite(g, f)
		return f, nil
	}

	plan, err := d.planInsertion(g)
	if err != nil {
		d.log.Debug("insertion rejected", zap.Error(err))
		return halfedge.EmptyFace, err
	}

	face, err := d.applyPlan(g, plan)
	if err != nil {
		return halfedge.EmptyFace, err
	}
	d.commitSite(g, face)

	d.log.Debug("generator committed",
		zap.Stringer("face", face),
		zap.Int("runs", len(plan.runs)),
		zap.Int("removed_edges", len(plan.deadEdges)),
		zap.Int("removed_vertices", len(plan.deadVerts)))
	return face, nil
}

func (d *Diagram) commitSite(g Generator, f halfedge.FaceIndex) {
	d.sites = append(d.sites, g)
	d.siteFaces = append(d.siteFaces, f)
	d.indexFace(f, g.ReferencePoint())
}

// ---------------------------------------------------------------------
// planning
// ---------------------------------------------------------------------

// planner carries the per-insertion working state: the set of faces
// touched by the new generator and the vertices condemned by it. This is
// the only place the incident/nonincident distinction exists; it never
// outlives the call.
type planner struct {
	d *Diagram
	s Generator

	condemned map[halfedge.VertexIndex]bool
	incident  map[halfedge.FaceIndex]bool
}

func (d *Diagram) planInsertion(s Generator) (*insertPlan, error) {
	p := &planner{
		d:         d,
		s:         s,
		condemned: make(map[halfedge.VertexIndex]bool),
		incident:  make(map[halfedge.FaceIndex]bool),
	}

	seed := d.nearestFace(s.ReferencePoint())
	if !seed.Valid() {
		return nil, &DegenerateInputError{Reason: "no seed face"}
	}

	// A diagram without edges has exactly one cell: the new boundary is
	// a single unbounded run through the seed face.
	if d.graph.NumEdges() == 0 {
		run := newRunPlan(seed)
		if err := p.subdivideRun(&run); err != nil {
			return nil, err
		}
		return &insertPlan{runs: []runPlan{run}}, nil
	}

	if err := p.condemnVertices(seed); err != nil {
		return nil, err
	}

	runs, dead, err := p.collectRuns(seed)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, &DegenerateInputError{Reason: "generator has an empty cell"}
	}

	chain, closed, err := p.orderRuns(runs)
	if err != nil {
		return nil, err
	}
	for i := range chain {
		if err := p.subdivideRun(&chain[i]); err != nil {
			return nil, err
		}
	}

	plan := &insertPlan{runs: chain, closed: closed, deadEdges: dead}
	for v := range p.condemned {
		if p.condemned[v] {
			plan.deadVerts = append(plan.deadVerts, v)
		}
	}
	return plan, nil
}

// condemnVertices floods outward from the seed face, condemning every
// vertex that lies closer to the new generator than to its own defining
// generators. A vertex inside the tolerance band is ambiguous and aborts
// the insertion.
func (p *planner) condemnVertices(seed halfedge.FaceIndex) error {
	g := p.d.graph
	visited := make(map[halfedge.FaceIndex]bool)
	queue := []halfedge.FaceIndex{seed}
	visited[seed] = true

	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]

		spread := false
		edges, err := g.Boundary(f)
		if err != nil {
			return &TopologyViolationError{Detail: "face boundary during region growth", Cause: err}
		}
		for _, e := range edges {
			rec, err := g.Edge(e)
			if err != nil {
				return &TopologyViolationError{Detail: "edge during region growth", Cause: err}
			}
			if !rec.VOrigin.Valid() {
				continue
			}
			in, err := p.condemnVertex(rec.VOrigin)
			if err != nil {
				return err
			}
			if in {
				spread = true
			}
		}
		if !spread && f != seed {
			continue
		}
		for _, e := range edges {
			twin := g.Twin(e)
			if !twin.Valid() {
				continue
			}
			trec, err := g.Edge(twin)
			if err != nil {
				return &TopologyViolationError{Detail: "twin during region growth", Cause: err}
			}
			if !visited[trec.FFace] {
				visited[trec.FFace] = true
				queue = append(queue, trec.FFace)
			}
		}
	}
	return nil
}

// condemnVertex decides (and caches) whether one vertex is swallowed by
// the new generator's cell.
func (p *planner) condemnVertex(v halfedge.VertexIndex) (bool, error) {
	if in, ok := p.condemned[v]; ok {
		return in, nil
	}
	g := p.d.graph
	rec, err := g.Vertex(v)
	if err != nil {
		return false, &TopologyViolationError{Detail: "vertex during region growth", Cause: err}
	}

	clearance := math.Inf(1)
	var walkErr error
	err = g.WalkOutgoing(v, func(e halfedge.EdgeIndex) bool {
		erec, eerr := g.Edge(e)
		if eerr != nil {
			walkErr = eerr
			return false
		}
		site, serr := p.d.siteOf(erec.FFace)
		if serr != nil {
			walkErr = serr
			return false
		}
		if dist := p.d.geom.Distance(rec.Pos, site); dist < clearance {
			clearance = dist
		}
		return true
	})
	if err == nil {
		err = walkErr
	}
	if err != nil {
		return false, &TopologyViolationError{Detail: "vertex incidence during region growth", Cause: err}
	}

	dist := p.d.geom.Distance(rec.Pos, p.s)
	if math.Abs(dist-clearance) <= p.d.tol {
		return false, &NumericalPrecisionError{
			Detail: fmt.Sprintf("vertex %s lies on the new cell boundary", rec.Pos),
		}
	}
	in := dist < clearance
	p.condemned[v] = in
	return in, nil
}

// inside reports whether a probe point belongs to the new generator's
// cell rather than to the given site's.
func (p *planner) inside(probe vector.Vector, site Generator) bool {
	return p.d.geom.Distance(probe, p.s) < p.d.geom.Distance(probe, site)
}

// clamped live parameter range of a half-edge curve.
func clampLo(c vector.Curve) float64 {
	if math.IsInf(c.T0, 0) {
		return -farParam
	}
	return c.T0
}

func clampHi(c vector.Curve) float64 {
	if math.IsInf(c.T1, 0) {
		return farParam
	}
	return c.T1
}

// edgeStates resolves whether the origin and end sides of a half-edge lie
// inside the new cell. Finite ends use the condemned set; unbounded ends
// sample the curve far out.
func (p *planner) edgeStates(e halfedge.EdgeIndex, site Generator) (bool, bool, error) {
	g := p.d.graph
	rec, err := g.Edge(e)
	if err != nil {
		return false, false, &TopologyViolationError{Detail: "edge state", Cause: err}
	}

	var originIn bool
	if rec.VOrigin.Valid() {
		originIn, err = p.condemnVertex(rec.VOrigin)
		if err != nil {
			return false, false, err
		}
	} else {
		originIn = p.inside(rec.Curve.Eval(clampLo(rec.Curve)), site)
	}

	twin := g.Twin(e)
	trec, err := g.Edge(twin)
	if err != nil {
		return false, false, &TopologyViolationError{Detail: "twin state", Cause: err}
	}
	var endIn bool
	if trec.VOrigin.Valid() {
		endIn, err = p.condemnVertex(trec.VOrigin)
		if err != nil {
			return false, false, err
		}
	} else {
		endIn = p.inside(rec.Curve.Eval(clampHi(rec.Curve)), site)
	}
	return originIn, endIn, nil
}

// collectRuns floods across faces from the seed and segments every
// incident face's boundary cycle into retained stretches and condemned
// stretches. Each condemned stretch becomes one run of the new cell
// boundary; edges interior to a condemned stretch die.
func (p *planner) collectRuns(seed halfedge.FaceIndex) ([]runPlan, []halfedge.EdgeIndex, error) {
	g := p.d.graph

	var runs []runPlan
	deadSet := make(map[halfedge.EdgeIndex]bool)
	var dead []halfedge.EdgeIndex

	visited := make(map[halfedge.FaceIndex]bool)
	queue := []halfedge.FaceIndex{seed}
	visited[seed] = true

	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]

		faceRuns, faceDead, err := p.segmentFace(f)
		if err != nil {
			return nil, nil, err
		}
		if len(faceRuns) == 0 && len(faceDead) == 0 {
			continue
		}
		p.incident[f] = true
		runs = append(runs, faceRuns...)
		for _, e := range faceDead {
			if !deadSet[e] {
				deadSet[e] = true
				deadSet[g.Twin(e)] = true
				dead = append(dead, e)
			}
		}

		// spread across every edge touched by the new cell
		spreadAcross := func(e halfedge.EdgeIndex) {
			twin := g.Twin(e)
			if trec, err := g.Edge(twin); err == nil && !visited[trec.FFace] {
				visited[trec.FFace] = true
				queue = append(queue, trec.FFace)
			}
		}
		for _, r := range faceRuns {
			if r.entry.edge.Valid() {
				spreadAcross(r.entry.edge)
			}
			if r.exit.edge.Valid() {
				spreadAcross(r.exit.edge)
			}
		}
		for _, e := range faceDead {
			spreadAcross(e)
		}
	}
	return runs, dead, nil
}

// segmentFace walks one face's boundary cycle and extracts the condemned
// stretches. The boundary state (inside/outside the new cell) changes
// either on an edge, at a computed split point, or across infinity
// between two unbounded edge ends.
func (p *planner) segmentFace(f halfedge.FaceIndex) ([]runPlan, []halfedge.EdgeIndex, error) {
	g := p.d.graph
	site, err := p.d.siteOf(f)
	if err != nil {
		return nil, nil, &TopologyViolationError{Detail: "site of face", Cause: err}
	}

	cycle, err := g.Boundary(f)
	if err != nil {
		return nil, nil, &TopologyViolationError{Detail: "face boundary", Cause: err}
	}
	if len(cycle) == 0 {
		return nil, nil, nil
	}

	type edgeState struct {
		e                 halfedge.EdgeIndex
		originIn, endIn   bool
		originInf, endInf bool
	}
	states := make([]edgeState, len(cycle))
	anyIn, anyOut := false, false
	for i, e := range cycle {
		rec, err := g.Edge(e)
		if err != nil {
			return nil, nil, &TopologyViolationError{Detail: "edge in cycle", Cause: err}
		}
		oin, ein, err := p.edgeStates(e, site)
		if err != nil {
			return nil, nil, err
		}
		trec, err := g.Edge(g.Twin(e))
		if err != nil {
			return nil, nil, &TopologyViolationError{Detail: "twin in cycle", Cause: err}
		}
		states[i] = edgeState{
			e:         e,
			originIn:  oin,
			endIn:     ein,
			originInf: !rec.VOrigin.Valid(),
			endInf:    !trec.VOrigin.Valid(),
		}
		anyIn = anyIn || oin || ein
		anyOut = anyOut || !oin || !ein
	}
	if !anyIn {
		return nil, nil, nil
	}
	if !anyOut {
		return nil, nil, &DegenerateInputError{
			Reason: "generator would swallow an existing cell",
		}
	}

	// The scan visits 2n transition slots in cycle order: before each
	// edge the gap to its predecessor, which can only change state
	// across infinity, then the edge itself, which changes state at a
	// split point. Starting at a crossing into the condemned region
	// guarantees a run opens before it closes.
	n := len(cycle)
	var runs []runPlan
	var dead []halfedge.EdgeIndex

	start, startInf := -1, false
	for i, st := range states {
		prev := states[(i+n-1)%n]
		if !prev.endIn && st.originIn && prev.endInf && st.originInf {
			start, startInf = i, true
			break
		}
		if !st.originIn && st.endIn {
			start, startInf = i, false
			break
		}
	}
	if start < 0 {
		return nil, nil, &NumericalPrecisionError{
			Detail: "condemned region with no boundary crossing",
		}
	}

	var cur *runPlan
	crossInfinity := func(prev, st edgeState) error {
		if prev.endIn == st.originIn {
			return nil
		}
		if !prev.endInf || !st.originInf {
			return &NumericalPrecisionError{
				Detail: "boundary state flipped across a finite vertex",
			}
		}
		if st.originIn {
			if cur != nil {
				return &TopologyViolationError{Detail: "entry at infinity inside a condemned stretch"}
			}
			r := newRunPlan(f)
			r.preEdge = prev.e
			cur = &r
		} else {
			if cur == nil {
				return &TopologyViolationError{Detail: "exit at infinity without a matching entry"}
			}
			cur.postEdge = st.e
			runs = append(runs, *cur)
			cur = nil
		}
		return nil
	}

	if startInf {
		if err := crossInfinity(states[(start+n-1)%n], states[start]); err != nil {
			return nil, nil, err
		}
	}
	for k := 0; k < n; k++ {
		i := (start + k) % n
		st := states[i]
		if k > 0 {
			if err := crossInfinity(states[(i+n-1)%n], st); err != nil {
				return nil, nil, err
			}
		}

		switch {
		case st.originIn && st.endIn:
			// fully condemned
			dead = append(dead, st.e)
		case !st.originIn && st.endIn:
			// entry: the far portion of this edge is condemned
			if cur != nil {
				return nil, nil, &TopologyViolationError{Detail: "entry crossing inside a condemned stretch"}
			}
			c, err := p.splitCrossing(st.e, site)
			if err != nil {
				return nil, nil, err
			}
			r := newRunPlan(f)
			r.entry = c
			cur = &r
		case st.originIn && !st.endIn:
			// exit: the near portion of this edge is condemned
			if cur == nil {
				return nil, nil, &TopologyViolationError{
					Detail: "exit crossing without a matching entry",
				}
			}
			c, err := p.splitCrossing(st.e, site)
			if err != nil {
				return nil, nil, err
			}
			cur.exit = c
			runs = append(runs, *cur)
			cur = nil
		}
	}
	if !startInf {
		if err := crossInfinity(states[(start+n-1)%n], states[start]); err != nil {
			return nil, nil, err
		}
	}
	if cur != nil {
		return nil, nil, &TopologyViolationError{Detail: "unterminated condemned stretch"}
	}

	for i := range runs {
		if !runs[i].preEdge.Valid() && !runs[i].entry.edge.Valid() && !runs[i].exit.edge.Valid() && !runs[i].postEdge.Valid() {
			return nil, nil, &TopologyViolationError{Detail: "floating run"}
		}
	}
	return runs, dead, nil
}

// splitCrossing places the split point on a crossed edge: the point
// equidistant from the new generator and the edge's two owning
// generators, found by bisecting the distance difference along the
// edge's curve.
func (p *planner) splitCrossing(e halfedge.EdgeIndex, site Generator) (crossing, error) {
	g := p.d.graph
	rec, err := g.Edge(e)
	if err != nil {
		return crossing{}, &TopologyViolationError{Detail: "crossed edge", Cause: err}
	}
	twin := g.Twin(e)
	trec, err := g.Edge(twin)
	if err != nil {
		return crossing{}, &TopologyViolationError{Detail: "crossed twin", Cause: err}
	}
	other, err := p.d.siteOf(trec.FFace)
	if err != nil {
		return crossing{}, &TopologyViolationError{Detail: "site across crossed edge", Cause: err}
	}

	curve := rec.Curve
	lo, hi := clampLo(curve), clampHi(curve)
	phi := func(t float64) float64 {
		pt := curve.Eval(t)
		return p.d.geom.Distance(pt, p.s) - p.d.geom.Distance(pt, site)
	}
	flo, fhi := phi(lo), phi(hi)
	if flo == 0 || fhi == 0 || (flo < 0) == (fhi < 0) {
		return crossing{}, &NumericalPrecisionError{
			Detail: fmt.Sprintf("no bracketed crossing on edge %s", e),
		}
	}
	for i := 0; i < splitIterations; i++ {
		mid := (lo + hi) / 2.0
		if fm := phi(mid); (fm < 0) == (flo < 0) {
			lo, flo = mid, fm
		} else {
			hi = mid
		}
	}
	t := (lo + hi) / 2.0
	pos := curve.Eval(t)

	// ambiguous if the split lands on an existing vertex
	for _, v := range []halfedge.VertexIndex{rec.VOrigin, trec.VOrigin} {
		if !v.Valid() {
			continue
		}
		vrec, err := g.Vertex(v)
		if err == nil && vector.Dist(vrec.Pos, pos) <= p.d.tol {
			return crossing{}, &NumericalPrecisionError{
				Detail: fmt.Sprintf("split at %s coincides with an existing vertex", pos),
			}
		}
	}

	vtype, err := ClassifyVertex(
		p.d.geom.NearestClass(p.s, pos),
		p.d.geom.NearestClass(site, pos),
		p.d.geom.NearestClass(other, pos),
	)
	if err != nil {
		return crossing{}, err
	}
	return crossing{edge: e, t: t, pos: pos, vtype: vtype}, nil
}

// orderRuns threads the per-face runs into one chain around the new
// cell: the successor of a run is the run entered through the twin of
// its exit edge.
func (p *planner) orderRuns(runs []runPlan) ([]runPlan, bool, error) {
	g := p.d.graph

	byEntry := make(map[halfedge.EdgeIndex]int)
	first := -1
	for i := range runs {
		if runs[i].entry.edge.Valid() {
			byEntry[runs[i].entry.edge] = i
		} else if first < 0 {
			first = i
		} else {
			return nil, false, &TopologyViolationError{Detail: "multiple chain starts"}
		}
	}
	closed := first < 0
	if closed {
		first = 0
	}

	chain := make([]runPlan, 0, len(runs))
	used := make(map[int]bool)
	for i := first; ; {
		if used[i] {
			return nil, false, &TopologyViolationError{Detail: "chain revisits a run"}
		}
		used[i] = true
		chain = append(chain, runs[i])

		exit := runs[i].exit.edge
		if !exit.Valid() {
			break // open chain ends at infinity
		}
		next, ok := byEntry[g.Twin(exit)]
		if !ok {
			return nil, false, &TopologyViolationError{Detail: "chain broken at an exit edge"}
		}
		i = next
		if closed && i == first {
			break
		}
	}
	if len(chain) != len(runs) {
		return nil, false, &TopologyViolationError{
			Detail: fmt.Sprintf("chain consumed %d of %d runs", len(chain), len(runs)),
		}
	}
	return chain, closed, nil
}
