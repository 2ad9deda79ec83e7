package voronoi

import (
	"fmt"
	"math"
	"sort"

	"github.com/ffurano/opencamlib/halfedge"
	"github.com/ffurano/opencamlib/vector"
)

// maxRunPieces caps the feature-region subdivision of one run. A bisector
// between two generators crosses only a handful of feature regions; more
// transitions than this indicate broken sampling.
const maxRunPieces = 16

// featurePair is the nearest-feature classification of a bisector point
// against both generators of a run. A new edge piece spans exactly one
// such pair; the pair changing along the curve marks a transition vertex.
type featurePair struct {
	s, f SiteClass
}

// subdivideRun fills run.pieces: the bisector between the new generator
// and the run's face generator, oriented along the face cycle, split at
// every nearest-feature transition.
func (p *planner) subdivideRun(run *runPlan) error {
	site, err := p.d.siteOf(run.face)
	if err != nil {
		return &TopologyViolationError{Detail: "site of run face", Cause: err}
	}
	rel := p.d.geom.Relation(p.s, site)

	// A probe near the run start selects the first feature pair.
	var probe vector.Vector
	switch {
	case !run.entry.infinite():
		probe = run.entry.pos
	case !run.exit.infinite():
		probe = run.exit.pos
	default:
		ref := p.s.ReferencePoint()
		probe = vector.MiddlePoint(ref, p.d.geom.Project(site, ref))
	}

	curve, err := p.d.geom.Bisector(p.s, site, probe)
	if err != nil {
		return err
	}
	curve, err = p.orientForFace(curve, site, curve.ParamOf(probe))
	if err != nil {
		return err
	}

	// A run starting at infinity must begin with the curve family of the
	// feature region out there, which the midway probe may not be in. A
	// far point of the provisional curve lies deep inside the start
	// region, so it is a valid probe even off the true bisector.
	if run.entry.infinite() {
		searchLo := curve.T0
		if math.IsInf(searchLo, 0) {
			searchLo = -farParam
		}
		far := curve.Eval(searchLo)
		curve, err = p.d.geom.Bisector(p.s, site, far)
		if err != nil {
			return err
		}
		curve, err = p.orientForFace(curve, site, curve.ParamOf(far))
		if err != nil {
			return err
		}
	}

	// Entry-to-exit ordering is authoritative when both crossings exist;
	// on a closed ellipse the interval may wrap.
	lo, hi := curve.T0, curve.T1
	if !run.entry.infinite() {
		lo = curve.ParamOf(run.entry.pos)
	}
	if !run.exit.infinite() {
		hi = curve.ParamOf(run.exit.pos)
	}
	if !run.entry.infinite() && !run.exit.infinite() && hi <= lo {
		if curve.Kind == vector.CurveEllipse {
			hi += 2 * math.Pi
		} else {
			curve = curve.Reversed()
			lo, hi = -hi, -lo
		}
	}

	classPair := func(c vector.Curve, t float64) featurePair {
		pt := c.Eval(t)
		return featurePair{
			s: p.d.geom.NearestClass(p.s, pt),
			f: p.d.geom.NearestClass(site, pt),
		}
	}

	pieceLo := lo    // may be infinite; search bounds never are
	searchFrom := lo // strictly past the previous transition after a hop
	for len(run.pieces) <= maxRunPieces {
		searchLo := math.Max(searchFrom, curve.T0)
		if math.IsInf(searchLo, 0) {
			searchLo = -farParam
		}
		searchHi := math.Min(hi, curve.T1)
		if math.IsInf(searchHi, 0) {
			searchHi = farParam
		}

		tCross, found := findTransition(func(t float64) featurePair {
			return classPair(curve, t)
		}, searchLo, searchHi)

		endT := hi
		if found {
			endT = tCross
		}
		mid := midParam(searchLo, math.Min(endT, searchHi))
		etype, err := ClassifyEdge(classPair(curve, mid).s, classPair(curve, mid).f, rel)
		if err != nil {
			return err
		}

		piece := piecePlan{curve: curve, etype: etype}
		piece.curve.T0 = pieceLo
		piece.curve.T1 = endT

		if !found {
			run.pieces = append(run.pieces, piece)
			break
		}

		pos := curve.Eval(tCross)
		vtype, err := p.transitionVertexType(curve, site, tCross)
		if err != nil {
			return err
		}
		piece.endVertex = true
		piece.endPos = pos
		piece.endType = vtype
		run.pieces = append(run.pieces, piece)

		// Hop onto the next feature region's bisector family, keeping
		// the direction of travel.
		step := 1e-5 * (1 + vector.Length(vector.Sub(pos, p.s.ReferencePoint())))
		ahead := vector.Add(pos, vector.Mult(vector.Normalize(curve.Tangent(tCross)), step))
		next, err := p.d.geom.Bisector(p.s, site, ahead)
		if err != nil {
			return err
		}
		at := next.ParamOf(pos)
		if vector.Dot(next.Tangent(at), curve.Tangent(tCross)) < 0 {
			next = next.Reversed()
			at = -at
		}
		curve = next
		pieceLo = at
		// Sampling at the boundary parameter itself would classify the
		// old feature pair and re-detect the same transition.
		searchFrom = at + 1e-9*(1+math.Abs(at))
		if !run.exit.infinite() {
			hi = curve.ParamOf(run.exit.pos)
			if hi <= pieceLo && curve.Kind == vector.CurveEllipse {
				hi += 2 * math.Pi
			}
		} else {
			hi = curve.T1
		}
	}
	if len(run.pieces) > maxRunPieces {
		return &NumericalPrecisionError{
			Detail: fmt.Sprintf("bisector subdivision exceeded %d pieces", maxRunPieces),
		}
	}
	return nil
}

// orientForFace flips the curve so that the run's face generator lies on
// the left, which is the side the face keeps.
func (p *planner) orientForFace(c vector.Curve, site Generator, tProbe float64) (vector.Curve, error) {
	if math.IsInf(tProbe, 0) {
		tProbe = 0
	}
	pt := c.Eval(tProbe)
	w := vector.Sub(p.d.geom.Project(site, pt), pt)
	det := vector.Det2D(c.Tangent(tProbe), w)
	if math.Abs(det) <= vector.EPS*vector.EPS {
		return c, &NumericalPrecisionError{
			Detail: fmt.Sprintf("cannot orient bisector at %s", pt),
		}
	}
	if det < 0 {
		return c.Reversed(), nil
	}
	return c, nil
}

// transitionVertexType classifies the degree two vertex where the
// nearest feature of one generator changes along the bisector.
func (p *planner) transitionVertexType(c vector.Curve, site Generator, t float64) (halfedge.VertexType, error) {
	delta := 1e-7 * (1 + math.Abs(t))
	before := c.Eval(t - delta)
	after := c.Eval(t + delta)

	sb, sa := p.d.geom.NearestClass(p.s, before), p.d.geom.NearestClass(p.s, after)
	fb, fa := p.d.geom.NearestClass(site, before), p.d.geom.NearestClass(site, after)

	switch {
	case sb != sa && fb != fa:
		return halfedge.VertexUndefined, &NumericalPrecisionError{
			Detail: fmt.Sprintf("coincident feature transitions near %s", c.Eval(t)),
		}
	case sb != sa:
		return tangencyVertexType(fb)
	case fb != fa:
		return tangencyVertexType(sb)
	}
	return halfedge.VertexUndefined, &NumericalPrecisionError{
		Detail: fmt.Sprintf("vanished feature transition near %s", c.Eval(t)),
	}
}

// tangencyVertexType types the degree two vertex where one generator's
// nearest feature flips between endpoint and interior, by the feature
// class of the other generator.
func tangencyVertexType(other SiteClass) (halfedge.VertexType, error) {
	switch other {
	case ClassPoint, ClassSegmentEndpoint:
		return halfedge.V2, nil
	case ClassSegmentInterior:
		return halfedge.V4, nil
	}
	return halfedge.VertexUndefined, &UnsupportedGeneratorPairError{
		Classes: []SiteClass{other, ClassSegmentEndpoint, ClassSegmentInterior},
	}
}

// findTransition locates the first parameter in (lo, hi) where the
// feature pair differs from the pair at lo. Sampling is uniform plus
// geometric from both ends and around zero; curve parameters are
// anchored at the defining geometry, so feature regions sit at small
// parameter magnitudes even when the search interval is huge.
func findTransition(pairAt func(float64) featurePair, lo, hi float64) (float64, bool) {
	span := hi - lo
	if span <= 0 {
		return 0, false
	}

	ts := make([]float64, 0, 360)
	for i := 0; i <= 64; i++ {
		ts = append(ts, lo+span*float64(i)/64.0)
	}
	for h := 1e-6; h < span; h *= 2 {
		ts = append(ts, lo+h, hi-h)
		if lo < h && h < hi {
			ts = append(ts, h)
		}
		if lo < -h && -h < hi {
			ts = append(ts, -h)
		}
	}
	if lo < 0 && 0 < hi {
		ts = append(ts, 0)
	}
	sort.Float64s(ts)

	base := pairAt(ts[0])
	for i := 1; i < len(ts); i++ {
		if pairAt(ts[i]) == base {
			continue
		}
		a, b := ts[i-1], ts[i]
		for k := 0; k < 60 && b-a > 0; k++ {
			mid := (a + b) / 2.0
			if pairAt(mid) == base {
				a = mid
			} else {
				b = mid
			}
		}
		return (a + b) / 2.0, true
	}
	return 0, false
}

// midParam picks a finite representative parameter inside an interval
// whose ends may be unbounded.
func midParam(lo, hi float64) float64 {
	loInf, hiInf := math.IsInf(lo, 0), math.IsInf(hi, 0)
	switch {
	case loInf && hiInf:
		return 0
	case loInf:
		return hi - 1
	case hiInf:
		return lo + 1
	}
	return (lo + hi) / 2.0
}
