package she

import (
	"github.com/tuneinsight/spdz-offline/ring"
)

// SecretKey holds a short encoded s ← χ (spec §3).
type SecretKey struct {
	S *ring.Encodedtext
}

// PublicKey holds (a, b = a*s + p*e) (spec §3/§4.D).
type PublicKey struct {
	A *ring.Encodedtext
	B *ring.Encodedtext
}

// KeyGen samples a secret key and its matching public key (spec §4.D
// Keygen): s, e ← χ (Gaussian), a ← R_q uniform, b = a*s + p*e.
func KeyGen(params Parameters, sampler *ring.Sampler) (SecretKey, PublicKey, error) {
	s, err := sampler.Gaussian(params.N)
	if err != nil {
		return SecretKey{}, PublicKey{}, err
	}
	e, err := sampler.Gaussian(params.N)
	if err != nil {
		return SecretKey{}, PublicKey{}, err
	}
	a, err := sampler.Uniform(params.N)
	if err != nil {
		return SecretKey{}, PublicKey{}, err
	}

	as, err := ring.Mul(a, s, params.N)
	if err != nil {
		return SecretKey{}, PublicKey{}, err
	}
	pe := e.ScalarMulInt(params.P)
	b, err := as.Add(pe)
	if err != nil {
		return SecretKey{}, PublicKey{}, err
	}

	return SecretKey{S: s}, PublicKey{A: a, B: b}, nil
}
