package funcs

import "math"

const (
	integrateEps      = 1e-10
	integrateMaxDepth = 40
)

// Integrate computes the integral of fn over [a, b] with adaptive Simpson
// quadrature. Reversed bounds yield the negated integral.
func Integrate(fn func(float64) float64, a, b float64) float64 {
	if a == b {
		return 0
	}
	if a > b {
		return -Integrate(fn, b, a)
	}
	fa, fb := fn(a), fn(b)
	m := (a + b) / 2
	fm := fn(m)
	whole := simpson(a, b, fa, fm, fb)
	return adaptive(fn, a, b, fa, fm, fb, whole, integrateEps, integrateMaxDepth)
}

func simpson(a, b, fa, fm, fb float64) float64 {
	return (b - a) / 6 * (fa + 4*fm + fb)
}

func adaptive(fn func(float64) float64, a, b, fa, fm, fb, whole, eps float64, depth int) float64 {
	m := (a + b) / 2
	lm, rm := (a+m)/2, (m+b)/2
	flm, frm := fn(lm), fn(rm)
	left := simpson(a, m, fa, flm, fm)
	right := simpson(m, b, fm, frm, fb)
	delta := left + right - whole

	if depth <= 0 || math.Abs(delta) <= 15*eps {
		return left + right + delta/15
	}
	return adaptive(fn, a, m, fa, flm, fm, left, eps/2, depth-1) +
		adaptive(fn, m, b, fm, frm, fb, right, eps/2, depth-1)
}
