package vector

import (
	"fmt"
	"math"
)

// CurveKind enumerates the bisector curve families of a point/segment/arc
// Voronoi diagram. Which family separates a generator pair depends only on
// the pair's kinds.
type CurveKind uint8

const (
	CurveLine CurveKind = iota
	CurveParabola
	CurveEllipse
	CurveHyperbola
)

func (k CurveKind) String() string {
	switch k {
	case CurveLine:
		return "line"
	case CurveParabola:
		return "parabola"
	case CurveEllipse:
		return "ellipse"
	case CurveHyperbola:
		return "hyperbola"
	}
	return fmt.Sprintf("CurveKind(%d)", uint8(k))
}

// A Curve is a parametrized bisector branch.
//
//	line:      Eval(t) = Pos + t*Dir, Dir unit length
//	parabola:  parametrized by the directrix parameter t; the curve point
//	           lies above Directrix.Pos + t*Directrix.Dir, equidistant from
//	           Focus and the directrix line
//	ellipse:   foci F1, F2, semi-major A, signed semi-minor B, angle param
//	hyperbola: branch around F1, semi-axes A and signed B, param t via
//	           cosh/sinh
//
// T0 and T1 bound the live part of the branch; either may be infinite
// while the corresponding diagram edge is unbounded.
type Curve struct {
	Kind CurveKind

	Pos, Dir  Vector // line
	Focus     Vector // parabola
	Directrix Edge   // parabola, Dir unit length

	F1, F2 Vector  // ellipse, hyperbola
	A, B   float64 // conic semi-axes; B carries the orientation sign

	T0, T1 float64
}

// Line builds an unbounded line curve through pos along dir.
func Line(pos, dir Vector) Curve {
	return Curve{
		Kind: CurveLine,
		Pos:  pos,
		Dir:  Normalize(dir),
		T0:   math.Inf(-1),
		T1:   math.Inf(1),
	}
}

// Parabola builds the unbounded parabola with the given focus and
// directrix line.
func Parabola(focus Vector, directrix Edge) Curve {
	directrix.Dir = Normalize(directrix.Dir)
	return Curve{
		Kind:      CurveParabola,
		Focus:     focus,
		Directrix: directrix,
		T0:        math.Inf(-1),
		T1:        math.Inf(1),
	}
}

// Ellipse builds the full ellipse with foci f1, f2 and semi-major axis a.
func Ellipse(f1, f2 Vector, a float64) Curve {
	c := Dist(f1, f2) / 2.0
	return Curve{
		Kind: CurveEllipse,
		F1:   f1,
		F2:   f2,
		A:    a,
		B:    math.Sqrt(math.Max(0, a*a-c*c)),
		T0:   -math.Pi,
		T1:   math.Pi,
	}
}

// Hyperbola builds the branch around f1 of the hyperbola with foci f1, f2
// and distance difference 2a.
func Hyperbola(f1, f2 Vector, a float64) Curve {
	c := Dist(f1, f2) / 2.0
	return Curve{
		Kind: CurveHyperbola,
		F1:   f1,
		F2:   f2,
		A:    a,
		B:    math.Sqrt(math.Max(0, c*c-a*a)),
		T0:   math.Inf(-1),
		T1:   math.Inf(1),
	}
}

// center, major axis unit vector and minor axis unit vector of a conic.
func (c Curve) conicFrame() (Vector, Vector, Vector) {
	center := MiddlePoint(c.F1, c.F2)
	u := Normalize(Sub(c.F2, c.F1))
	if Length(Sub(c.F2, c.F1)) <= EPS {
		u = Vector{X: 1}
	}
	return center, u, PerpCCW(u)
}

// parabola directrix normal pointing towards the focus.
func (c Curve) directrixNormal() Vector {
	n := PerpCCW(c.Directrix.Dir)
	if Dot(n, Sub(c.Focus, c.Directrix.Pos)) < 0 {
		n = Mult(n, -1)
	}
	return n
}

// Eval returns the curve point at parameter t.
func (c Curve) Eval(t float64) Vector {
	switch c.Kind {
	case CurveLine:
		return Add(c.Pos, Mult(c.Dir, t))
	case CurveParabola:
		q := Add(c.Directrix.Pos, Mult(c.Directrix.Dir, t))
		n := c.directrixNormal()
		w := Sub(c.Focus, q)
		nw := Dot(n, w)
		if math.Abs(nw) <= EPS {
			// focus on the directrix, degenerate
			return q
		}
		h := Dot(w, w) / (2 * nw)
		return Add(q, Mult(n, h))
	case CurveEllipse:
		center, u, v := c.conicFrame()
		return Add(center, Add(Mult(u, c.A*math.Cos(t)), Mult(v, c.B*math.Sin(t))))
	case CurveHyperbola:
		center, u, v := c.conicFrame()
		// branch around F1, which sits on the negative major axis
		return Add(center, Add(Mult(u, -c.A*math.Cosh(t)), Mult(v, c.B*math.Sinh(t))))
	}
	return Vector{}
}

// ParamOf projects p onto the curve's parameter axis. The point is assumed
// to lie on or near the curve.
func (c Curve) ParamOf(p Vector) float64 {
	switch c.Kind {
	case CurveLine:
		return Dot(Sub(p, c.Pos), c.Dir)
	case CurveParabola:
		return Dot(Sub(p, c.Directrix.Pos), c.Directrix.Dir)
	case CurveEllipse:
		center, u, v := c.conicFrame()
		w := Sub(p, center)
		return math.Atan2(Dot(w, v)/c.B, Dot(w, u)/c.A)
	case CurveHyperbola:
		center, _, v := c.conicFrame()
		w := Sub(p, center)
		if math.Abs(c.B) <= EPS {
			return 0
		}
		return math.Asinh(Dot(w, v) / c.B)
	}
	return 0
}

// Tangent returns the (non normalized) direction of increasing parameter
// at t.
func (c Curve) Tangent(t float64) Vector {
	switch c.Kind {
	case CurveLine:
		return c.Dir
	case CurveParabola:
		const h = 1e-6
		return Sub(c.Eval(t+h), c.Eval(t-h))
	case CurveEllipse:
		_, u, v := c.conicFrame()
		return Add(Mult(u, -c.A*math.Sin(t)), Mult(v, c.B*math.Cos(t)))
	case CurveHyperbola:
		_, u, v := c.conicFrame()
		return Add(Mult(u, -c.A*math.Sinh(t)), Mult(v, c.B*math.Cosh(t)))
	}
	return Vector{}
}

// Reversed flips the parameter direction of the curve, keeping the point
// set identical. Eval_rev(t) == Eval(-t), with the live range mirrored.
func (c Curve) Reversed() Curve {
	r := c
	switch c.Kind {
	case CurveLine:
		r.Dir = Mult(c.Dir, -1)
	case CurveParabola:
		r.Directrix.Dir = Mult(c.Directrix.Dir, -1)
	case CurveEllipse, CurveHyperbola:
		r.B = -c.B
	}
	r.T0, r.T1 = -c.T1, -c.T0
	return r
}

// Bounded reports whether both parameter bounds are finite.
func (c Curve) Bounded() bool {
	return !math.IsInf(c.T0, 0) && !math.IsInf(c.T1, 0)
}
