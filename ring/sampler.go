package ring

import (
	"fmt"
	"io"
	"math"
	"math/big"

	"github.com/tuneinsight/spdz-offline/field"
)

// Sampler draws random Encodedtexts from a per-party randomness source.
// Grounded on lattigo's ring.GaussianSampler/UniformSampler (both driven
// by a shared sampling.PRNG, ring/sampler_gaussian.go and
// ring/sampler_uniform.go): here simplified to operate coefficientwise
// over a single field.Q modulus instead of an RNS moduli chain, and
// using Box-Muller in place of lattigo's Ziggurat-style rejection
// sampler for the discrete Gaussian.
type Sampler struct {
	rng    io.Reader
	stdDev float64
}

// NewSampler builds a Sampler drawing from rng with the given Gaussian
// standard deviation.
func NewSampler(rng io.Reader, stdDev float64) *Sampler {
	return &Sampler{rng: rng, stdDev: stdDev}
}

// Uniform samples a uniform Encodedtext of length n.
func (s *Sampler) Uniform(n int) (*Encodedtext, error) {
	out := New(n)
	for i := 0; i < n; i++ {
		v, err := field.QRand(s.rng)
		if err != nil {
			return nil, fmt.Errorf("ring.Sampler.Uniform: %w", err)
		}
		out.Coeffs[i] = v
	}
	return out, nil
}

// Gaussian samples a discrete Gaussian Encodedtext of length n, each
// coefficient independently drawn from a rounded Normal(0, stdDev) and
// lifted into 𝔽_q via its canonical representative.
func (s *Sampler) Gaussian(n int) (*Encodedtext, error) {
	out := New(n)
	for i := 0; i < n; i++ {
		v, err := s.gaussianInt64()
		if err != nil {
			return nil, fmt.Errorf("ring.Sampler.Gaussian: %w", err)
		}
		out.Coeffs[i] = field.QFromInt64(v)
	}
	return out, nil
}

// gaussianInt64 draws one rounded sample from Normal(0, stdDev) using a
// Box-Muller transform fed by s.rng, truncated to +/- 10 standard
// deviations (a truncation bound large enough that the probability of
// rejection sampling being needed is negligible for the std_dev values
// this scheme uses).
func (s *Sampler) gaussianInt64() (int64, error) {
	const truncation = 10.0
	for {
		u1, err := s.uniformFloat()
		if err != nil {
			return 0, err
		}
		u2, err := s.uniformFloat()
		if err != nil {
			return 0, err
		}
		if u1 <= 0 {
			u1 = 1e-300
		}
		r := math.Sqrt(-2 * math.Log(u1))
		theta := 2 * math.Pi * u2
		z := r * math.Cos(theta) * s.stdDev
		if math.Abs(z) > truncation*s.stdDev {
			continue
		}
		return int64(math.Round(z)), nil
	}
}

// uniformFloat draws a uniform float64 in [0,1) from s.rng.
func (s *Sampler) uniformFloat() (float64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(s.rng, buf[:]); err != nil {
		return 0, err
	}
	var v uint64
	for i, b := range buf {
		v |= uint64(b) << (8 * uint(i))
	}
	// 53 bits of mantissa precision, matching math/rand's Float64.
	return float64(v>>11) / (1 << 53), nil
}

// GaussianTriple samples the encryption randomness r = (u,v,w) of spec
// §4.D as three independent length-n Gaussian draws, returned as three
// separate Encodedtexts (she.Randomness.Flatten concatenates them into
// the length-3n vector).
func (s *Sampler) GaussianTriple(n int) (u, v, w *Encodedtext, err error) {
	if u, err = s.Gaussian(n); err != nil {
		return nil, nil, nil, err
	}
	if v, err = s.Gaussian(n); err != nil {
		return nil, nil, nil, err
	}
	if w, err = s.Gaussian(n); err != nil {
		return nil, nil, nil, err
	}
	return u, v, w, nil
}

// SmallInt samples a uniform integer Encodedtext with coefficients in
// [-bound, bound], used by the ZKPoPK prover to mask witnesses (spec
// §4.E step 1: "masking plaintext encodings of norm < N·τ·sec").
func (s *Sampler) SmallInt(n int, bound *big.Int) (*Encodedtext, error) {
	out := New(n)
	span := new(big.Int).Lsh(bound, 1) // 2*bound
	span.Add(span, big.NewInt(1))      // 2*bound+1 values in [-bound, bound]
	for i := 0; i < n; i++ {
		v, err := randBigInt(s.rng, span)
		if err != nil {
			return nil, fmt.Errorf("ring.Sampler.SmallInt: %w", err)
		}
		v.Sub(v, bound)
		out.Coeffs[i] = field.QFromBigInt(v)
	}
	return out, nil
}

// randBigInt draws a uniform value in [0, span) from rng via rejection
// sampling on the smallest byte-aligned superset range.
func randBigInt(rng io.Reader, span *big.Int) (*big.Int, error) {
	if span.Sign() <= 0 {
		return big.NewInt(0), nil
	}
	byteLen := (span.BitLen() + 7) / 8
	if byteLen == 0 {
		byteLen = 1
	}
	buf := make([]byte, byteLen)
	for {
		if _, err := io.ReadFull(rng, buf); err != nil {
			return nil, err
		}
		v := new(big.Int).SetBytes(buf)
		if v.Cmp(span) < 0 {
			return v, nil
		}
	}
}
