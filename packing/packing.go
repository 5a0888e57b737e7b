// Package packing implements CRT plaintext packing (spec §4.C): it
// converts between a length-s vector over 𝔽ₚ and the degree-<s
// polynomial over 𝔽ₚ whose evaluations at the s primitive m-th roots
// of unity (m = 2s) equal the vector. This is the component that lets
// a single ciphertext carry s independent plaintext "slots".
//
// Grounded on the `cyclotomic_moduli`/encode/decode functions of
// original_source/src/she.rs, generalised from a fixed s=64 test
// instance to the general power-of-two case, using gnark-crypto's
// fr/fft.Domain to obtain the root of unity (field.MRootOfUnity)
// instead of hand-rolling 2-adicity exponentiation.
package packing

import (
	"fmt"

	"github.com/tuneinsight/spdz-offline/field"
)

// EvaluationPoints returns the s points ω^(2i+1), i ∈ [0,s), at which a
// packed polynomial is evaluated, ω a primitive m-th root of unity with
// m = 2s (spec §4.C).
func EvaluationPoints(s int) ([]field.P, error) {
	if s <= 0 || s&(s-1) != 0 {
		return nil, fmt.Errorf("packing: s=%d is not a power of two", s)
	}
	omega, err := field.MRootOfUnity(2 * s)
	if err != nil {
		return nil, fmt.Errorf("packing: %w", err)
	}
	pts := make([]field.P, s)
	omegaSq := omega.Mul(omega)
	pts[0] = omega // ω^1
	for i := 1; i < s; i++ {
		pts[i] = pts[i-1].Mul(omegaSq) // ω^(2i+1) = ω^(2(i-1)+1) * ω^2
	}
	return pts, nil
}

// Encode lifts a length-s plaintext vector to the degree-<s polynomial
// whose evaluation at EvaluationPoints(s)[i] equals vec[i], via Lagrange
// interpolation.
func Encode(vec []field.P) ([]field.P, error) {
	s := len(vec)
	pts, err := EvaluationPoints(s)
	if err != nil {
		return nil, err
	}
	return lagrangeInterpolate(pts, vec)
}

// Decode evaluates a packed polynomial at EvaluationPoints(len(poly))
// to recover the plaintext vector.
func Decode(poly []field.P) ([]field.P, error) {
	s := len(poly)
	pts, err := EvaluationPoints(s)
	if err != nil {
		return nil, err
	}
	out := make([]field.P, s)
	for i, x := range pts {
		out[i] = horner(poly, x)
	}
	return out, nil
}

func horner(poly []field.P, x field.P) field.P {
	acc := field.PZero()
	for i := len(poly) - 1; i >= 0; i-- {
		acc = acc.Mul(x).Add(poly[i])
	}
	return acc
}

// lagrangeInterpolate returns the coefficients of the unique
// degree-<len(xs) polynomial through (xs[i], ys[i]).
//
// It builds M(X) = Π_k (X - xs[k]) once, then recovers each Lagrange
// basis polynomial L_i(X) = M(X)/(X-xs[i]) by synthetic division,
// scales it by ys[i]/Π_{k!=i}(xs[i]-xs[k]), and accumulates: O(s^2)
// overall, with no dependency on xs being roots of unity (general
// Lagrange interpolation, per spec §4.C).
func lagrangeInterpolate(xs, ys []field.P) ([]field.P, error) {
	s := len(xs)
	if len(ys) != s {
		return nil, fmt.Errorf("packing: length mismatch %d != %d", s, len(ys))
	}
	if s == 0 {
		return nil, nil
	}

	// M(X) = Π (X - xs[k]), coefficients m[0..s].
	m := make([]field.P, s+1)
	m[0] = field.POne()
	deg := 0
	for _, r := range xs {
		// multiply running product by (X - r)
		deg++
		for j := deg; j >= 1; j-- {
			m[j] = m[j-1].Sub(m[j].Mul(r))
		}
		m[0] = m[0].Mul(r).Neg()
	}

	result := make([]field.P, s)

	for i := 0; i < s; i++ {
		r := xs[i]

		// Synthetic division: M(X) = (X - r)*Q(X) + M(r); M(r) == 0
		// since r is a root. q has degree s-1.
		q := make([]field.P, s)
		q[s-1] = m[s]
		for j := s - 1; j >= 1; j-- {
			q[j-1] = m[j].Add(r.Mul(q[j]))
		}

		// denom = Π_{k != i} (xs[i]-xs[k])
		denom := field.POne()
		for k, xk := range xs {
			if k == i {
				continue
			}
			denom = denom.Mul(r.Sub(xk))
		}
		scale := ys[i].Mul(denom.Inverse())

		for j := 0; j < s; j++ {
			result[j] = result[j].Add(q[j].Mul(scale))
		}
	}

	return result, nil
}
