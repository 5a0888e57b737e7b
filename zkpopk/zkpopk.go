// Package zkpopk implements the amortised Schnorr-style Zero-Knowledge
// Proof of Plaintext Knowledge of spec §4.E: a prover convinces a
// verifier that it knows the plaintexts and randomness underlying a
// batch of sec ciphertexts, without revealing them, at the cost of
// V = 2*sec-1 extra "masking" ciphertexts.
//
// Grounded on original_source/src/zkpopk.rs for the exact M_e
// construction and norm bounds, using prng.Transcript (package prng)
// in place of the source's fixed-seed PRNG stub for the Fiat-Shamir
// challenge (spec §9 design note).
package zkpopk

import (
	"bytes"
	"fmt"
	"io"
	"math/big"

	"github.com/tuneinsight/spdz-offline/errs"
	"github.com/tuneinsight/spdz-offline/prng"
	"github.com/tuneinsight/spdz-offline/ring"
	"github.com/tuneinsight/spdz-offline/she"
)

// Parameters is the immutable record of spec §4.E/§3: the batch size
// sec, the derived proof width V = 2*sec-1, and the four norm-bound
// constants N, Tau, D, Rho (D is conventionally 3n, the randomness
// vector's flattened length).
type Parameters struct {
	Sec int
	V   int
	N   *big.Int
	Tau *big.Int
	D   *big.Int
	Rho *big.Int
}

// NewParameters builds a Parameters record, deriving V = 2*sec-1.
func NewParameters(sec int, n, tau, d, rho *big.Int) Parameters {
	return Parameters{Sec: sec, V: 2*sec - 1, N: n, Tau: tau, D: d, Rho: rho}
}

// Instance is the public statement: a public key and the sec
// ciphertexts claimed to be well-formed encryptions.
type Instance struct {
	PK she.PublicKey
	C  []she.Ciphertext
}

// Witness is the prover's secret: for each c_i, its plaintext encoding
// x_i (a ring element of length n) and the encryption randomness r_i.
type Witness struct {
	X []*ring.Encodedtext
	R []she.Randomness
}

// Proof is the transcript the verifier checks: V masking commitments
// a_i together with the opened responses z_i, T_i (spec §3).
type Proof struct {
	A []she.Ciphertext
	Z []*ring.Encodedtext
	T []*ring.Encodedtext
}

// WriteTo serialises a Proof per spec §6: V Ciphertexts (a), V
// Encodedtexts (z), V Encodedtexts (T).
func (p Proof) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, a := range p.A {
		n, err := a.WriteTo(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	for _, z := range p.Z {
		n, err := z.WriteTo(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	for _, t := range p.T {
		n, err := t.WriteTo(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Bytes serialises p into a freshly allocated byte slice.
func (p Proof) Bytes() []byte {
	var buf bytes.Buffer
	_, _ = p.WriteTo(&buf)
	return buf.Bytes()
}

// ReadProof deserialises a Proof of the given width V, written by
// WriteTo.
func ReadProof(r io.Reader, v int) (Proof, error) {
	p := Proof{A: make([]she.Ciphertext, v), Z: make([]*ring.Encodedtext, v), T: make([]*ring.Encodedtext, v)}
	for i := 0; i < v; i++ {
		if _, err := p.A[i].ReadFrom(r); err != nil {
			return Proof{}, fmt.Errorf("zkpopk.ReadProof: a[%d]: %w", i, err)
		}
	}
	for i := 0; i < v; i++ {
		p.Z[i] = new(ring.Encodedtext)
		if _, err := p.Z[i].ReadFrom(r); err != nil {
			return Proof{}, fmt.Errorf("zkpopk.ReadProof: z[%d]: %w", i, err)
		}
	}
	for i := 0; i < v; i++ {
		p.T[i] = new(ring.Encodedtext)
		if _, err := p.T[i].ReadFrom(r); err != nil {
			return Proof{}, fmt.Errorf("zkpopk.ReadProof: t[%d]: %w", i, err)
		}
	}
	return p, nil
}

// ProofFromBytes deserialises a Proof of the given width V from b.
func ProofFromBytes(b []byte, v int) (Proof, error) {
	return ReadProof(bytes.NewReader(b), v)
}

func sec2(sec int) *big.Int {
	s := big.NewInt(int64(sec))
	return new(big.Int).Mul(s, s)
}

// zMaskBound is the masking-norm bound N*Tau*Sec the prover samples y_i
// under (spec §4.E step 1).
func zMaskBound(params Parameters) *big.Int {
	b := new(big.Int).Mul(params.N, params.Tau)
	b.Mul(b, big.NewInt(int64(params.Sec)))
	return b
}

// tMaskBound is the masking-norm bound D*Rho*Sec the prover samples
// s_i under (spec §4.E step 1).
func tMaskBound(params Parameters) *big.Int {
	b := new(big.Int).Mul(params.D, params.Rho)
	b.Mul(b, big.NewInt(int64(params.Sec)))
	return b
}

// zVerifyBound is the verifier's acceptance bound 128*N*Tau*Sec^2 on
// max_i ||z_i|| (spec §4.E Verifier).
func zVerifyBound(params Parameters) *big.Int {
	b := new(big.Int).Mul(params.N, params.Tau)
	b.Mul(b, sec2(params.Sec))
	b.Mul(b, big.NewInt(128))
	return b
}

// tVerifyBound is the verifier's acceptance bound 128*D*Rho*Sec^2 on
// max_i ||T_i|| (spec §4.E Verifier).
func tVerifyBound(params Parameters) *big.Int {
	b := new(big.Int).Mul(params.D, params.Rho)
	b.Mul(b, sec2(params.Sec))
	b.Mul(b, big.NewInt(128))
	return b
}

// buildTranscript re-derives the prover/verifier's shared Fiat-Shamir
// transcript from (pk, c_1..c_sec, a_1..a_V) (spec §4.E step 3).
func buildTranscript(pk she.PublicKey, c, a []she.Ciphertext) (*prng.Transcript, error) {
	t, err := prng.NewTranscript("spdz-offline/zkpopk")
	if err != nil {
		return nil, err
	}
	appendEncoded(t, "pk.a", pk.A)
	appendEncoded(t, "pk.b", pk.B)
	for i, ci := range c {
		appendCiphertext(t, "c", i, ci)
	}
	for i, ai := range a {
		appendCiphertext(t, "a", i, ai)
	}
	return t, nil
}

func appendEncoded(t *prng.Transcript, label string, e *ring.Encodedtext) {
	var buf bytes.Buffer
	_, _ = e.WriteTo(&buf)
	t.Append(label, buf.Bytes())
}

func appendCiphertext(t *prng.Transcript, label string, i int, c she.Ciphertext) {
	t.Append(labelIdx(label, i, "full"), c.Bytes())
}

func labelIdx(label string, i int, suffix string) string {
	return fmt.Sprintf("%s.%d.%s", label, i, suffix)
}

// challenge derives e in {0,1}^sec from the transcript.
func challenge(t *prng.Transcript, sec int) ([]bool, error) {
	return t.ChallengeBits(sec)
}

// meEntry returns the k-th entry of row i of M_e: M_e[i][k] = e[i-k] when
// 0 <= i-k < sec, else 0 (spec §4.E step 4, 0-indexed here).
func meEntry(e []bool, i, k int) bool {
	idx := i - k
	if idx < 0 || idx >= len(e) {
		return false
	}
	return e[idx]
}

// Prove implements the spec §4.E Prover. sampler is the party's private
// randomness source (masking values must never be reused or revealed
// outside this proof).
func Prove(params Parameters, sheParams she.Parameters, sampler *ring.Sampler, instance Instance, witness Witness) (Proof, error) {
	n := sheParams.N
	zBound := zMaskBound(params)
	tBound := tMaskBound(params)

	a := make([]she.Ciphertext, params.V)
	y := make([]*ring.Encodedtext, params.V)
	s := make([]she.Randomness, params.V)

	for i := 0; i < params.V; i++ {
		yi, err := sampler.SmallInt(n, zBound)
		if err != nil {
			return Proof{}, err
		}
		flat, err := sampler.SmallInt(3*n, tBound)
		if err != nil {
			return Proof{}, err
		}
		si := she.UnflattenRandomness(flat, n)
		ai, err := she.Encrypt(sheParams, instance.PK, yi, si)
		if err != nil {
			return Proof{}, err
		}
		y[i], s[i], a[i] = yi, si, ai
	}

	t, err := buildTranscript(instance.PK, instance.C, a)
	if err != nil {
		return Proof{}, err
	}
	e, err := challenge(t, params.Sec)
	if err != nil {
		return Proof{}, err
	}

	z := make([]*ring.Encodedtext, params.V)
	T := make([]*ring.Encodedtext, params.V)
	for i := 0; i < params.V; i++ {
		zi := y[i]
		ti := s[i].Flatten()
		for k := 0; k < params.Sec; k++ {
			if !meEntry(e, i, k) {
				continue
			}
			var err error
			zi, err = zi.Add(witness.X[k])
			if err != nil {
				return Proof{}, err
			}
			ti, err = ti.Add(witness.R[k].Flatten())
			if err != nil {
				return Proof{}, err
			}
		}
		z[i], T[i] = zi, ti
	}

	return Proof{A: a, Z: z, T: T}, nil
}

// Verify implements the spec §4.E Verifier.
func Verify(params Parameters, sheParams she.Parameters, instance Instance, proof Proof) error {
	n := sheParams.N
	if len(proof.A) != params.V || len(proof.Z) != params.V || len(proof.T) != params.V {
		return errs.New(errs.KindProofMismatch, "proof has the wrong number of rows")
	}

	t, err := buildTranscript(instance.PK, instance.C, proof.A)
	if err != nil {
		return err
	}
	e, err := challenge(t, params.Sec)
	if err != nil {
		return err
	}

	zBoundV := zVerifyBound(params)
	tBoundV := tVerifyBound(params)

	for i := 0; i < params.V; i++ {
		if proof.Z[i].Norm().Cmp(zBoundV) >= 0 {
			return errs.NormBoundErr("z", i, "max_i ||z_i|| exceeds 128*N*tau*sec^2")
		}
		if proof.T[i].Norm().Cmp(tBoundV) >= 0 {
			return errs.NormBoundErr("T", i, "max_i ||T_i|| exceeds 128*d*rho*sec^2")
		}

		ri := she.UnflattenRandomness(proof.T[i], n)
		lhs, err := she.Encrypt(sheParams, instance.PK, proof.Z[i], ri)
		if err != nil {
			return err
		}

		rhs := proof.A[i]
		for k := 0; k < params.Sec; k++ {
			if !meEntry(e, i, k) {
				continue
			}
			rhs, err = she.Add(rhs, instance.C[k])
			if err != nil {
				return err
			}
		}

		if !lhs.C0.Equal(rhs.C0) || !lhs.C1.Equal(rhs.C1) || !lhs.C2.Equal(rhs.C2) {
			return errs.ProofMismatch(i, "Enc(pk, z_i; T_i) != a_i + sum_k M_e[i][k]*c_k")
		}
	}
	return nil
}
