// Package funcs is the registry of named one-dimensional functions that
// histograms sample from.
//
// Built-in functions and their default parameters:
//
//	gaus         p0*exp(-0.5*((x-p1)/p2)^2)          (1, 0, 1)
//	gausn        normalized gaus                       (1, 0, 1)
//	expo         exp(p0 + p1*x)                        (1, 1)
//	pol0         p0                                    (1)
//	pol1         p0 + p1*x                             (1, 0)
//	breitwigner  p0 * Breit-Wigner(x; p1, p2)          (1, 0, 1)
//	uniform      1
//
// User functions are added with Register.
package funcs
