// Package field binds the two prime fields the SHE scheme is built
// over to concrete gnark-crypto element types, and exposes only the
// operations component A of the scheme needs: the usual ring
// operations, inverse, exponentiation, sampling, and little-endian
// byte serialisation.
package field

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr/fft"
)

// P is an element of 𝔽ₚ, the plaintext field (BLS12-377's scalar field).
type P struct {
	inner fr.Element
}

// PBytes is the length in bytes of the canonical encoding of a P.
const PBytes = fr.Bytes

// PZero returns the additive identity of 𝔽ₚ.
func PZero() P { return P{} }

// POne returns the multiplicative identity of 𝔽ₚ.
func POne() P {
	var e P
	e.inner.SetOne()
	return e
}

// PFromUint64 lifts a uint64 into 𝔽ₚ.
func PFromUint64(v uint64) P {
	var e P
	e.inner.SetUint64(v)
	return e
}

// PFromBigInt reduces a big.Int modulo p, using its canonical
// non-negative representative.
func PFromBigInt(v *big.Int) P {
	var e P
	e.inner.SetBigInt(v)
	return e
}

// PModulus returns p, the order of 𝔽ₚ.
func PModulus() *big.Int {
	return fr.Modulus()
}

// PRand samples a uniform element of 𝔽ₚ using the given randomness
// source. If r is nil, crypto/rand is used directly.
func PRand(r io.Reader) (P, error) {
	var e P
	if r == nil || r == rand.Reader {
		if _, err := e.inner.SetRandom(); err != nil {
			return P{}, fmt.Errorf("field.PRand: %w", err)
		}
		return e, nil
	}
	buf := make([]byte, PBytes*2)
	if _, err := io.ReadFull(r, buf); err != nil {
		return P{}, fmt.Errorf("field.PRand: %w", err)
	}
	var b big.Int
	b.SetBytes(buf)
	b.Mod(&b, PModulus())
	return PFromBigInt(&b), nil
}

// Add returns a+b.
func (a P) Add(b P) P {
	var c P
	c.inner.Add(&a.inner, &b.inner)
	return c
}

// Sub returns a-b.
func (a P) Sub(b P) P {
	var c P
	c.inner.Sub(&a.inner, &b.inner)
	return c
}

// Mul returns a*b.
func (a P) Mul(b P) P {
	var c P
	c.inner.Mul(&a.inner, &b.inner)
	return c
}

// Neg returns -a.
func (a P) Neg() P {
	var c P
	c.inner.Neg(&a.inner)
	return c
}

// Inverse returns a^-1. It panics if a is zero, the same contract
// gnark-crypto's Element.Inverse exposes.
func (a P) Inverse() P {
	var c P
	c.inner.Inverse(&a.inner)
	return c
}

// Pow returns a^k.
func (a P) Pow(k *big.Int) P {
	var c P
	c.inner.Exp(a.inner, k)
	return c
}

// IsZero reports whether a is the additive identity.
func (a P) IsZero() bool { return a.inner.IsZero() }

// Equal reports whether a and b represent the same field element.
func (a P) Equal(b P) bool { return a.inner.Equal(&b.inner) }

// BigInt returns the canonical non-negative representative of a.
func (a P) BigInt() *big.Int {
	var z big.Int
	a.inner.BigInt(&z)
	return &z
}

// String implements fmt.Stringer.
func (a P) String() string { return a.inner.String() }

// Bytes returns the little-endian encoding of a (spec §6: every
// on-wire scalar is little-endian). gnark-crypto's native Bytes() is
// big-endian, so the adapter reverses it.
func (a P) Bytes() []byte {
	be := a.inner.Bytes()
	return reverse(be[:])
}

// SetBytes parses a little-endian encoding produced by Bytes.
func (a *P) SetBytes(b []byte) {
	a.inner.SetBytes(reverse(b))
}

// MRootOfUnity returns a primitive m-th root of unity of 𝔽ₚ, m a power
// of two. This is the evaluation-point generator CRT packing needs
// (spec §4.C): ω such that ω^m = 1 and ω^(m/2) != 1.
func MRootOfUnity(m int) (P, error) {
	if m <= 0 || m&(m-1) != 0 {
		return P{}, fmt.Errorf("field.MRootOfUnity: m=%d is not a power of two", m)
	}
	domain := fft.NewDomain(uint64(m))
	if domain.Cardinality != uint64(m) {
		return P{}, fmt.Errorf("field.MRootOfUnity: no subgroup of order %d in 𝔽ₚ", m)
	}
	return P{inner: domain.Generator}, nil
}

func reverse(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}
