// Package ring implements R_q = ℤ_q[X]/(Φ_m(X)), the "encoded text"
// ring component B of the scheme is built over (Φ_m = X^n+1 since the
// scheme fixes m = 2n). An Encodedtext is also used, flattened, as the
// carrier for SHE encryption randomness (a length-3n vector (u,v,w))
// and for ZKPoPK witness/proof rows, which are plain 𝔽_q^L vectors and
// never go through the ring multiplication.
//
// Grounded on lattigo's ring.Poly (ring/poly.go): a coefficient-vector
// polynomial type with the same add/copy/serialise shape, generalised
// here from lattigo's RNS uint64 representation to a single
// arbitrary-precision modulus (field.Q) per spec §3.
package ring

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/big"

	"github.com/tuneinsight/spdz-offline/field"
)

// Encodedtext is a coefficient vector over 𝔽_q.
type Encodedtext struct {
	Coeffs []field.Q
}

// New returns the all-zero Encodedtext of length n.
func New(n int) *Encodedtext {
	return &Encodedtext{Coeffs: make([]field.Q, n)}
}

// FromInts builds an Encodedtext from small signed integer coefficients.
func FromInts(vals []int64) *Encodedtext {
	c := make([]field.Q, len(vals))
	for i, v := range vals {
		c[i] = field.QFromInt64(v)
	}
	return &Encodedtext{Coeffs: c}
}

// FromP lifts a length-s vector of 𝔽ₚ elements into R_q componentwise,
// via the canonical non-negative representative (spec §3).
func FromP(p []field.P) *Encodedtext {
	c := make([]field.Q, len(p))
	for i, v := range p {
		c[i] = field.LiftP(v)
	}
	return &Encodedtext{Coeffs: c}
}

// Len returns the number of coefficients.
func (e *Encodedtext) Len() int { return len(e.Coeffs) }

// CopyNew returns a deep copy.
func (e *Encodedtext) CopyNew() *Encodedtext {
	c := make([]field.Q, len(e.Coeffs))
	copy(c, e.Coeffs)
	return &Encodedtext{Coeffs: c}
}

// Equal reports strict coefficientwise equality.
func (e *Encodedtext) Equal(o *Encodedtext) bool {
	if e.Len() != o.Len() {
		return false
	}
	for i := range e.Coeffs {
		if !e.Coeffs[i].Equal(o.Coeffs[i]) {
			return false
		}
	}
	return true
}

func sameLen(a, b *Encodedtext) error {
	if a.Len() != b.Len() {
		return fmt.Errorf("ring: length mismatch %d != %d", a.Len(), b.Len())
	}
	return nil
}

// Add returns e+o, coefficientwise. Requires equal length.
func (e *Encodedtext) Add(o *Encodedtext) (*Encodedtext, error) {
	if err := sameLen(e, o); err != nil {
		return nil, err
	}
	out := New(e.Len())
	for i := range e.Coeffs {
		out.Coeffs[i] = e.Coeffs[i].Add(o.Coeffs[i])
	}
	return out, nil
}

// Sub returns e-o, coefficientwise. Requires equal length.
func (e *Encodedtext) Sub(o *Encodedtext) (*Encodedtext, error) {
	if err := sameLen(e, o); err != nil {
		return nil, err
	}
	out := New(e.Len())
	for i := range e.Coeffs {
		out.Coeffs[i] = e.Coeffs[i].Sub(o.Coeffs[i])
	}
	return out, nil
}

// Neg returns -e.
func (e *Encodedtext) Neg() *Encodedtext {
	out := New(e.Len())
	for i := range e.Coeffs {
		out.Coeffs[i] = e.Coeffs[i].Neg()
	}
	return out
}

// ScalarMul returns c*e for c in 𝔽_q.
func (e *Encodedtext) ScalarMul(c field.Q) *Encodedtext {
	out := New(e.Len())
	for i := range e.Coeffs {
		out.Coeffs[i] = e.Coeffs[i].Mul(c)
	}
	return out
}

// ScalarMulInt returns c*e for an arbitrary integer scalar c (lifted
// into 𝔽_q via its canonical representative). she.KeyGen and
// she.Encrypt use it for the p·e, p·v and p·w terms.
func (e *Encodedtext) ScalarMulInt(c *big.Int) *Encodedtext {
	return e.ScalarMul(field.QFromBigInt(c))
}

// mulRaw returns the raw (unreduced) convolution of a and b, of length
// len(a)+len(b)-1.
func mulRaw(a, b *Encodedtext) *Encodedtext {
	out := New(a.Len() + b.Len() - 1)
	for i, ai := range a.Coeffs {
		if ai.IsZero() {
			continue
		}
		for j, bj := range b.Coeffs {
			out.Coeffs[i+j] = out.Coeffs[i+j].Add(ai.Mul(bj))
		}
	}
	return out
}

// foldNegacyclic reduces a coefficient vector modulo X^n+1 in place,
// using X^n ≡ -1, cascading from the top coefficient down. Works for
// any starting length >= n.
func foldNegacyclic(c []field.Q, n int) []field.Q {
	for i := len(c) - 1; i >= n; i-- {
		c[i-n] = c[i-n].Sub(c[i])
		c[i] = field.QZero()
	}
	return c[:n]
}

// Mul returns the product of e and o in R_n = 𝔽_q[X]/(X^n+1): the
// schoolbook convolution (spec §4.B: "acceptable for n up to a few
// hundred"), reduced modulo the cyclotomic polynomial. Both operands
// must already be ring elements of length <= n.
func Mul(e, o *Encodedtext, n int) (*Encodedtext, error) {
	if e.Len() > n || o.Len() > n {
		return nil, fmt.Errorf("ring.Mul: operand longer than ring degree n=%d", n)
	}
	raw := mulRaw(e, o)
	return &Encodedtext{Coeffs: foldNegacyclic(raw.Coeffs, n)}, nil
}

// MulKeepLong multiplies two length-n ring elements but returns the
// raw, not-yet-folded convolution (length up to 2n-1) instead of
// reducing modulo X^n+1. SHE ciphertext multiplication uses this so
// that each of the three product terms is reduced lazily, once, after
// its products are summed (spec §4.B: "reduction ... applied lazily at
// the end of multiplication").
func MulKeepLong(e, o *Encodedtext) *Encodedtext {
	return mulRaw(e, o)
}

// Fold reduces an arbitrarily long coefficient vector modulo X^n+1.
func (e *Encodedtext) Fold(n int) *Encodedtext {
	c := make([]field.Q, len(e.Coeffs))
	copy(c, e.Coeffs)
	return &Encodedtext{Coeffs: foldNegacyclic(c, n)}
}

// Norm returns the infinity norm: the maximum absolute value among the
// balanced (symmetric around zero) representatives of the coefficients.
func (e *Encodedtext) Norm() *big.Int {
	max := big.NewInt(0)
	for _, c := range e.Coeffs {
		v := c.Balanced()
		v.Abs(v)
		if v.Cmp(max) > 0 {
			max = v
		}
	}
	return max
}

// ModP reduces every coefficient to its balanced representative modulo
// p and returns the result as a 𝔽ₚ vector (spec §4.D Decrypt: "reduce
// ... then mod p"). It starts from each coefficient's balanced (signed)
// lift, not its canonical [0,q) one: the coefficients here are small
// integers centered around zero (the noise-removed plaintext), and
// reducing the canonical representative directly would mix in q's own
// residue mod p instead of recovering the integer's true value mod p.
func (e *Encodedtext) ModP(p *big.Int) []field.P {
	out := make([]field.P, e.Len())
	for i, c := range e.Coeffs {
		v := new(big.Int).Mod(c.Balanced(), p)
		out[i] = field.PFromBigInt(v)
	}
	return out
}

// BinarySize returns the serialised size in bytes: spec §6 encodes an
// Encodedtext as a little-endian u32 length followed by that many
// q-byte coefficients.
func (e *Encodedtext) BinarySize() int {
	return 4 + e.Len()*field.QBytes
}

// WriteTo serialises e per spec §6.
func (e *Encodedtext) WriteTo(w io.Writer) (int64, error) {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(e.Len()))
	n, err := w.Write(lenBuf[:])
	if err != nil {
		return int64(n), fmt.Errorf("ring.Encodedtext.WriteTo: %w", err)
	}
	total := int64(n)
	for _, c := range e.Coeffs {
		b := c.Bytes()
		m, err := w.Write(b)
		total += int64(m)
		if err != nil {
			return total, fmt.Errorf("ring.Encodedtext.WriteTo: %w", err)
		}
	}
	return total, nil
}

// ReadFrom deserialises an Encodedtext written by WriteTo.
func (e *Encodedtext) ReadFrom(r io.Reader) (int64, error) {
	var lenBuf [4]byte
	n, err := io.ReadFull(r, lenBuf[:])
	if err != nil {
		return int64(n), fmt.Errorf("ring.Encodedtext.ReadFrom: length: %w", err)
	}
	total := int64(n)
	l := binary.LittleEndian.Uint32(lenBuf[:])
	coeffs := make([]field.Q, l)
	buf := make([]byte, field.QBytes)
	for i := range coeffs {
		m, err := io.ReadFull(r, buf)
		total += int64(m)
		if err != nil {
			return total, fmt.Errorf("ring.Encodedtext.ReadFrom: coeff %d: %w", i, err)
		}
		coeffs[i].SetBytes(buf)
	}
	e.Coeffs = coeffs
	return total, nil
}
