package she

import (
	"bytes"
	"fmt"
	"io"
	"math/big"

	"github.com/tuneinsight/spdz-offline/errs"
	"github.com/tuneinsight/spdz-offline/field"
	"github.com/tuneinsight/spdz-offline/packing"
	"github.com/tuneinsight/spdz-offline/ring"
)

// Ciphertext is the triple (c0,c1,c2) of spec §3. A fresh ciphertext
// has c2 == the all-zero Encodedtext; multiplication fills it in.
// Components are always kept folded modulo X^n+1 (length n): the
// spec's "length 3n" remark on Encodedtext (§3/§4.B) describes the raw,
// not-yet-folded intermediate ring.MulKeepLong produces internally and
// the flat length-3n encryption-randomness vector, not a stored
// invariant of Ciphertext itself (see DESIGN.md).
type Ciphertext struct {
	C0, C1, C2 *ring.Encodedtext
	fresh      bool
}

// Randomness is the length-3n Gaussian triple (u,v,w) spec §4.D calls
// "r" — the encryption randomness.
type Randomness struct {
	U, V, W *ring.Encodedtext
}

// SampleRandomness draws a fresh encryption randomness triple.
func SampleRandomness(params Parameters, sampler *ring.Sampler) (Randomness, error) {
	u, v, w, err := sampler.GaussianTriple(params.N)
	if err != nil {
		return Randomness{}, err
	}
	return Randomness{U: u, V: v, W: w}, nil
}

// Flatten concatenates (u,v,w) into the single length-3n vector ZKPoPK
// treats randomness as (spec §3: "Encodedtext ... sometimes length 3n").
func (r Randomness) Flatten() *ring.Encodedtext {
	n := r.U.Len()
	coeffs := make([]field.Q, 0, 3*n)
	coeffs = append(coeffs, r.U.Coeffs...)
	coeffs = append(coeffs, r.V.Coeffs...)
	coeffs = append(coeffs, r.W.Coeffs...)
	return &ring.Encodedtext{Coeffs: coeffs}
}

// UnflattenRandomness splits a length-3n vector back into a (u,v,w)
// triple of length-n ring elements.
func UnflattenRandomness(flat *ring.Encodedtext, n int) Randomness {
	return Randomness{
		U: &ring.Encodedtext{Coeffs: append([]field.Q(nil), flat.Coeffs[0:n]...)},
		V: &ring.Encodedtext{Coeffs: append([]field.Q(nil), flat.Coeffs[n:2*n]...)},
		W: &ring.Encodedtext{Coeffs: append([]field.Q(nil), flat.Coeffs[2*n:3*n]...)},
	}
}

// Encrypt implements spec §4.D Encrypt: given x ∈ R_q (obtained from
// plaintext packing, see EncodeToRing) and randomness r=(u,v,w),
// output (c0,c1,c2) = (b*u + p*v + x, a*u + p*w, 0).
func Encrypt(params Parameters, pk PublicKey, x *ring.Encodedtext, r Randomness) (Ciphertext, error) {
	n := params.N

	bu, err := ring.Mul(pk.B, r.U, n)
	if err != nil {
		return Ciphertext{}, err
	}
	pv := r.V.ScalarMulInt(params.P)
	c0, err := bu.Add(pv)
	if err != nil {
		return Ciphertext{}, err
	}
	c0, err = c0.Add(x)
	if err != nil {
		return Ciphertext{}, err
	}

	au, err := ring.Mul(pk.A, r.U, n)
	if err != nil {
		return Ciphertext{}, err
	}
	pw := r.W.ScalarMulInt(params.P)
	c1, err := au.Add(pw)
	if err != nil {
		return Ciphertext{}, err
	}

	return Ciphertext{C0: c0, C1: c1, C2: ring.New(n), fresh: true}, nil
}

// EncodeToRing packs a plaintext vector and lifts it into R_q, the x
// argument Encrypt expects (spec §4.D: "x is an element of R_q obtained
// from plaintext packing").
func EncodeToRing(vec []field.P) (*ring.Encodedtext, error) {
	poly, err := packing.Encode(vec)
	if err != nil {
		return nil, errs.Wrap(errs.KindEncodingFailure, err, "packing.Encode")
	}
	return ring.FromP(poly), nil
}

// Add implements spec §4.D Add: componentwise, requires equal lengths.
func Add(a, b Ciphertext) (Ciphertext, error) {
	c0, err := a.C0.Add(b.C0)
	if err != nil {
		return Ciphertext{}, err
	}
	c1, err := a.C1.Add(b.C1)
	if err != nil {
		return Ciphertext{}, err
	}
	c2, err := a.C2.Add(b.C2)
	if err != nil {
		return Ciphertext{}, err
	}
	return Ciphertext{C0: c0, C1: c1, C2: c2, fresh: a.fresh && b.fresh && a.C2.Norm().Sign() == 0 && b.C2.Norm().Sign() == 0}, nil
}

// AddScalar adds a public, already-ring-encoded constant x to c0.
func AddScalar(c Ciphertext, x *ring.Encodedtext) (Ciphertext, error) {
	c0, err := c.C0.Add(x)
	if err != nil {
		return Ciphertext{}, err
	}
	return Ciphertext{C0: c0, C1: c.C1, C2: c.C2, fresh: c.fresh}, nil
}

// ScalarMul scales every component of c by an integer.
func ScalarMul(c Ciphertext, k *big.Int) Ciphertext {
	return Ciphertext{
		C0:    c.C0.ScalarMulInt(k),
		C1:    c.C1.ScalarMulInt(k),
		C2:    c.C2.ScalarMulInt(k),
		fresh: c.fresh,
	}
}

// Multiply implements spec §4.D Multiply: the tensor product
// (c0c0', c0c1'+c1c0', c1c1'). Multiplying a non-fresh ciphertext (one
// that already carries a nonzero c2, i.e. is itself already a product)
// fails with DepthExceeded — the scheme supports exactly one
// multiplicative level (spec §4.D, §7).
func Multiply(params Parameters, a, b Ciphertext) (Ciphertext, error) {
	if a.C2.Norm().Sign() != 0 || b.C2.Norm().Sign() != 0 {
		return Ciphertext{}, errs.New(errs.KindDepthExceeded,
			"cannot multiply a ciphertext that is already a product")
	}

	n := params.N
	d0 := ring.MulKeepLong(a.C0, b.C0).Fold(n)

	t1 := ring.MulKeepLong(a.C0, b.C1)
	t2 := ring.MulKeepLong(a.C1, b.C0)
	d1raw, err := t1.Add(t2)
	if err != nil {
		return Ciphertext{}, err
	}
	d1 := d1raw.Fold(n)

	d2 := ring.MulKeepLong(a.C1, b.C1).Fold(n)

	return Ciphertext{C0: d0, C1: d1, C2: d2, fresh: false}, nil
}

// DecryptEncoded implements the core of spec §4.D Decrypt up to (but
// not including) the final packing.Decode: m = c0 - c1*s + c2*s^2
// (mod q), each coefficient reduced to its balanced lift, then mod p.
// It also enforces the noise-budget invariant (spec §4.D, §7
// NoiseOverflow): decryption only succeeds if every coefficient of
// c0 - c1*s + c2*s^2, read as a balanced integer, has |.| < q/2.
func DecryptEncoded(params Parameters, sk SecretKey, c Ciphertext) ([]field.P, error) {
	n := params.N

	c1s, err := ring.Mul(c.C1, sk.S, n)
	if err != nil {
		return nil, err
	}
	m, err := c.C0.Sub(c1s)
	if err != nil {
		return nil, err
	}

	if c.C2.Norm().Sign() != 0 {
		s2, err := ring.Mul(sk.S, sk.S, n)
		if err != nil {
			return nil, err
		}
		c2s2, err := ring.Mul(c.C2, s2, n)
		if err != nil {
			return nil, err
		}
		m, err = m.Add(c2s2)
		if err != nil {
			return nil, err
		}
	}

	half := new(big.Int).Rsh(params.Q, 1)
	if m.Norm().Cmp(half) >= 0 {
		return nil, errs.New(errs.KindNoiseOverflow, "decryption noise exceeded q/2")
	}

	return m.ModP(params.P), nil
}

// Decrypt implements spec §4.D Decrypt end to end, including the final
// CRT unpacking back to a plaintext vector.
func Decrypt(params Parameters, sk SecretKey, c Ciphertext) ([]field.P, error) {
	poly, err := DecryptEncoded(params, sk, c)
	if err != nil {
		return nil, err
	}
	vec, err := packing.Decode(poly)
	if err != nil {
		return nil, errs.Wrap(errs.KindEncodingFailure, err, "packing.Decode")
	}
	return vec, nil
}

// WriteTo serialises c as three Encodedtexts (spec §6: "Ciphertext =
// three Encodedtexts").
func (c Ciphertext) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, part := range []*ring.Encodedtext{c.C0, c.C1, c.C2} {
		n, err := part.WriteTo(w)
		total += n
		if err != nil {
			return total, fmt.Errorf("she.Ciphertext.WriteTo: %w", err)
		}
	}
	return total, nil
}

// Bytes serialises c into a freshly allocated byte slice.
func (c Ciphertext) Bytes() []byte {
	var buf bytes.Buffer
	_, _ = c.WriteTo(&buf)
	return buf.Bytes()
}

// ReadFrom deserialises a Ciphertext written by WriteTo, marking it
// fresh iff its C2 component decodes to the all-zero vector.
func (c *Ciphertext) ReadFrom(r io.Reader) (int64, error) {
	var total int64
	c0, c1, c2 := new(ring.Encodedtext), new(ring.Encodedtext), new(ring.Encodedtext)
	for _, part := range []*ring.Encodedtext{c0, c1, c2} {
		n, err := part.ReadFrom(r)
		total += n
		if err != nil {
			return total, fmt.Errorf("she.Ciphertext.ReadFrom: %w", err)
		}
	}
	c.C0, c.C1, c.C2 = c0, c1, c2
	c.fresh = c2.Norm().Sign() == 0
	return total, nil
}

// CiphertextFromBytes deserialises a Ciphertext produced by Bytes.
func CiphertextFromBytes(b []byte) (Ciphertext, error) {
	var c Ciphertext
	if _, err := c.ReadFrom(bytes.NewReader(b)); err != nil {
		return Ciphertext{}, err
	}
	return c, nil
}

// Sub returns a-b componentwise (used by Reshare's c' = Enc(m+f) - e_f,
// spec §4.F).
func Sub(a, b Ciphertext) (Ciphertext, error) {
	c0, err := a.C0.Sub(b.C0)
	if err != nil {
		return Ciphertext{}, err
	}
	c1, err := a.C1.Sub(b.C1)
	if err != nil {
		return Ciphertext{}, err
	}
	c2, err := a.C2.Sub(b.C2)
	if err != nil {
		return Ciphertext{}, err
	}
	return Ciphertext{C0: c0, C1: c1, C2: c2, fresh: a.C2.Norm().Sign() == 0 && b.C2.Norm().Sign() == 0}, nil
}
