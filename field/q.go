package field

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bw6-761/fp"
)

// Q is an element of 𝔽_q, the ciphertext coefficient field.
//
// The spec names MNT4-753 for q; gnark-crypto (the field library this
// module's corpus actually depends on) does not implement the MNT4/
// MNT6-753 curve family. bw6-761 is gnark-crypto's curve built for the
// same purpose MNT4-753 serves in the arkworks original: a large
// companion field for BLS12-377 2-chain recursion. We bind q to
// bw6-761's base field; see DESIGN.md.
type Q struct {
	inner fp.Element
}

// QBytes is the length in bytes of the canonical encoding of a Q.
const QBytes = fp.Bytes

// QZero returns the additive identity of 𝔽_q.
func QZero() Q { return Q{} }

// QFromUint64 lifts a uint64 into 𝔽_q.
func QFromUint64(v uint64) Q {
	var e Q
	e.inner.SetUint64(v)
	return e
}

// QFromInt64 lifts a signed integer into 𝔽_q (negative values wrap
// around the modulus, matching "canonical non-negative representative"
// from spec §3).
func QFromInt64(v int64) Q {
	b := big.NewInt(v)
	return QFromBigInt(b)
}

// QFromBigInt reduces a big.Int modulo q, using its canonical
// non-negative representative.
func QFromBigInt(v *big.Int) Q {
	var e Q
	e.inner.SetBigInt(v)
	return e
}

// QModulus returns q.
func QModulus() *big.Int {
	return fp.Modulus()
}

// QRand samples a uniform element of 𝔽_q.
func QRand(r io.Reader) (Q, error) {
	var e Q
	if r == nil || r == rand.Reader {
		if _, err := e.inner.SetRandom(); err != nil {
			return Q{}, fmt.Errorf("field.QRand: %w", err)
		}
		return e, nil
	}
	buf := make([]byte, QBytes*2)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Q{}, fmt.Errorf("field.QRand: %w", err)
	}
	var b big.Int
	b.SetBytes(buf)
	b.Mod(&b, QModulus())
	return QFromBigInt(&b), nil
}

// Add returns a+b.
func (a Q) Add(b Q) Q {
	var c Q
	c.inner.Add(&a.inner, &b.inner)
	return c
}

// Sub returns a-b.
func (a Q) Sub(b Q) Q {
	var c Q
	c.inner.Sub(&a.inner, &b.inner)
	return c
}

// Mul returns a*b.
func (a Q) Mul(b Q) Q {
	var c Q
	c.inner.Mul(&a.inner, &b.inner)
	return c
}

// Neg returns -a.
func (a Q) Neg() Q {
	var c Q
	c.inner.Neg(&a.inner)
	return c
}

// Inverse returns a^-1. It panics if a is zero, the same contract
// gnark-crypto's Element.Inverse exposes.
func (a Q) Inverse() Q {
	var c Q
	c.inner.Inverse(&a.inner)
	return c
}

// Pow returns a^k.
func (a Q) Pow(k *big.Int) Q {
	var c Q
	c.inner.Exp(a.inner, k)
	return c
}

// IsZero reports whether a is the additive identity.
func (a Q) IsZero() bool { return a.inner.IsZero() }

// Equal reports whether a and b represent the same field element.
func (a Q) Equal(b Q) bool { return a.inner.Equal(&b.inner) }

// BigInt returns the canonical non-negative representative of a, in [0, q).
func (a Q) BigInt() *big.Int {
	var z big.Int
	a.inner.BigInt(&z)
	return &z
}

// Balanced returns the balanced representative of a in (-q/2, q/2].
func (a Q) Balanced() *big.Int {
	v := a.BigInt()
	half := new(big.Int).Rsh(QModulus(), 1)
	if v.Cmp(half) > 0 {
		v.Sub(v, QModulus())
	}
	return v
}

// String implements fmt.Stringer.
func (a Q) String() string { return a.inner.String() }

// Bytes returns the little-endian encoding of a.
func (a Q) Bytes() []byte {
	be := a.inner.Bytes()
	return reverse(be[:])
}

// SetBytes parses a little-endian encoding produced by Bytes.
func (a *Q) SetBytes(b []byte) {
	a.inner.SetBytes(reverse(b))
}

// LiftP lifts a 𝔽ₚ element into 𝔽_q via the canonical non-negative
// representative, as required by spec §3.
func LiftP(p P) Q {
	return QFromBigInt(p.BigInt())
}
