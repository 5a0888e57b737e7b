// Package she implements the BGV-like somewhat-homomorphic encryption
// scheme of spec §4.D: key generation, encryption, decryption, and one
// level of ciphertext multiplication over R_q = 𝔽_q[X]/(X^n+1).
//
// Grounded on lattigo's core/rlwe (Parameters, SecretKey, PublicKey,
// Ciphertext, Encryptor/Decryptor shape) generalised from an RNS,
// NTT-friendly multi-modulus ring down to the single large-modulus
// ring spec §3/§4.B describes, and on original_source/src/she.rs for
// the exact keygen/encrypt/decrypt formulas.
package she

import (
	"fmt"
	"math/big"

	"github.com/ALTree/bigfloat"
	"github.com/tuneinsight/spdz-offline/errs"
	"github.com/tuneinsight/spdz-offline/field"
)

// Parameters is the immutable record of spec §3: packing width s
// (= ring degree n in this core), the plaintext modulus p, the
// ciphertext coefficient modulus q, and the Gaussian noise width.
type Parameters struct {
	S      int
	N      int
	P      *big.Int
	Q      *big.Int
	StdDev float64
}

// NewParameters validates and constructs a Parameters record. s must be
// a power of two no larger than 2^46, and p must be ≡ 1 (mod 2s) so
// that a primitive m=2s-th root of unity exists in 𝔽ₚ (spec §3).
func NewParameters(s int, p, q *big.Int, stdDev float64) (Parameters, error) {
	params := Parameters{S: s, N: s, P: p, Q: q, StdDev: stdDev}
	if err := Validate(params); err != nil {
		return Parameters{}, err
	}
	return params, nil
}

// Validate checks the structural and noise-budget invariants of spec
// §3/§4.D/§7 (ParameterInvalid). It is the "parameter-validation
// routine" spec §4.D requires implementations to expose.
func Validate(params Parameters) error {
	s := params.S
	if s <= 0 || s&(s-1) != 0 {
		return errs.New(errs.KindParameterInvalid, fmt.Sprintf("s=%d is not a power of two", s))
	}
	if s > 1<<46 {
		return errs.New(errs.KindParameterInvalid, fmt.Sprintf("s=%d exceeds 2^46", s))
	}
	if params.N != s {
		return errs.New(errs.KindParameterInvalid, "n must equal s in this core")
	}
	if params.P == nil || params.P.Sign() <= 0 {
		return errs.New(errs.KindParameterInvalid, "p must be a positive modulus")
	}
	if params.Q == nil || params.Q.Sign() <= 0 {
		return errs.New(errs.KindParameterInvalid, "q must be a positive modulus")
	}

	m := big.NewInt(int64(2 * s))
	mod := new(big.Int).Mod(params.P, m)
	if mod.Cmp(big.NewInt(1)) != 0 {
		return errs.New(errs.KindParameterInvalid,
			fmt.Sprintf("p must be ≡ 1 (mod %d) for a primitive m-th root of unity to exist", 2*s))
	}
	// The same condition restated on p-1: (p-1) mod m == 0.
	pMinus1 := new(big.Int).Sub(params.P, big.NewInt(1))
	if new(big.Int).Mod(pMinus1, m).Sign() != 0 {
		return errs.New(errs.KindParameterInvalid, "p-1 is not a multiple of 2s")
	}

	if params.StdDev <= 0 {
		return errs.New(errs.KindParameterInvalid, "std_dev must be positive")
	}

	return validateNoiseBudget(params)
}

// validateNoiseBudget checks a BGV correctness bound for the fixed
// multiplicative depth 1 this core supports: it requires
// sqrt(128 * n * std_dev^2 * p) < q/2 (spec §4.D: "decryption succeeds
// iff the ∞-norm of c0 - c1*s + c2*s^2 lifted to ℤ is < q/2").
//
// q is a 761-bit modulus (§3: bw6-761's base field), far past float64
// precision, so the bound is evaluated with arbitrary-precision floats
// via ALTree/bigfloat instead of math.Sqrt/math.Log — the same
// high-precision float package the teacher's go.mod carries for its own
// bootstrapping-precision analysis.
func validateNoiseBudget(params Parameters) error {
	n := new(big.Float).SetInt64(int64(params.N))
	sigma := big.NewFloat(params.StdDev)

	// Depth-1 fresh-ciphertext-times-fresh-ciphertext noise growth is
	// dominated by a degree-2 term in n*sigma^2; margin of 128x (as
	// ZKPoPK already uses, spec §4.E) covers the Gaussian tail and the
	// p-scaled error terms.
	margin := big.NewFloat(128)
	bound := new(big.Float).Mul(n, sigma)
	bound.Mul(bound, sigma)
	bound.Mul(bound, margin)
	pF := new(big.Float).SetInt(params.P)
	bound.Mul(bound, pF)

	qF := new(big.Float).SetInt(params.Q)
	half := new(big.Float).Quo(qF, big.NewFloat(2))

	sqrtBound := bigfloat.Sqrt(bound)

	if sqrtBound.Cmp(half) >= 0 {
		return errs.New(errs.KindParameterInvalid,
			"q too small for the noise budget at this n, std_dev and p")
	}
	return nil
}
