// Package mpc implements the three SPDZ distribution combinators of
// spec §4.F — Reshare, PAngle, PBracket — against the abstract
// party.Transport. Each function is written from a single party's
// point of view: call it once per party (the preprocessing driver runs
// all n views, one per goroutine, sharing a party.RoundHub).
//
// Grounded on original_source/src/ for the Reshare/PAngle/PBracket
// control flow; no teacher package implements an SPDZ-style offline
// phase, so this is necessarily a from-scratch component, built the way
// the rest of this module is: explicit error returns, a Transport
// capability threaded through every call, no package-level state.
package mpc

import (
	"fmt"

	"github.com/tuneinsight/spdz-offline/errs"
	"github.com/tuneinsight/spdz-offline/field"
	"github.com/tuneinsight/spdz-offline/party"
	"github.com/tuneinsight/spdz-offline/ring"
	"github.com/tuneinsight/spdz-offline/she"
)

// Mode selects whether Reshare also re-encrypts its result (spec §4.F).
type Mode int

const (
	NoNewCiphertext Mode = iota
	NewCiphertext
)

// AngleShare is this party's local view of spec §3's AngleShare: its
// additive share of a value together with its additive share of
// alpha*value (the MAC).
type AngleShare struct {
	PublicModifier field.P
	Share          []field.P // length s
	Mac            []field.P // length s
}

// BracketShare is this party's local view of spec §3's BracketShare:
// its additive share of the value, its own private MAC key, and —
// for every party i (including itself) — the share of beta_i*value it
// holds as a result of that party's Reshare round (spec §4.F).
type BracketShare struct {
	Share  []field.P   // length s
	MyBeta field.P     // this party's own private MAC key, beta_me
	Gamma  [][]field.P // Gamma[i], length s: this party's share of beta_i*value
}

// DecryptOracle stands in for the SPDZ distributed-decryption
// sub-protocol (partial decryption shares combined by a threshold
// scheme). Spec §4.F: "distributed decryption ... is assumed; in
// tests it is emulated by local decryption" — LocalDecryptOracle below
// is that emulation.
type DecryptOracle interface {
	Decrypt(c she.Ciphertext) ([]field.P, error)
}

// LocalDecryptOracle decrypts with a single combined secret key. It is
// the spec's explicitly sanctioned test-mode stand-in for genuine
// threshold decryption; production callers would instead implement
// DecryptOracle against a real distributed-decryption sub-protocol.
type LocalDecryptOracle struct {
	Params she.Parameters
	SK     she.SecretKey
}

func (o LocalDecryptOracle) Decrypt(c she.Ciphertext) ([]field.P, error) {
	return she.Decrypt(o.Params, o.SK, c)
}

func zeroRandomness(n int) she.Randomness {
	return she.Randomness{U: ring.New(n), V: ring.New(n), W: ring.New(n)}
}

func diagonal(v field.P, s int) []field.P {
	out := make([]field.P, s)
	for i := range out {
		out[i] = v
	}
	return out
}

func broadcastCiphertext(t party.Transport, tag string, c she.Ciphertext) ([]she.Ciphertext, error) {
	raw, err := t.Broadcast(tag, c.Bytes())
	if err != nil {
		return nil, err
	}
	out := make([]she.Ciphertext, len(raw))
	for i, b := range raw {
		if b == nil {
			return nil, errs.TransportAborted(i, fmt.Sprintf("missing ciphertext broadcast for tag %q", tag))
		}
		ci, err := she.CiphertextFromBytes(b)
		if err != nil {
			return nil, err
		}
		out[i] = ci
	}
	return out, nil
}

func sumCiphertexts(cs []she.Ciphertext) (she.Ciphertext, error) {
	sum := cs[0]
	var err error
	for _, c := range cs[1:] {
		sum, err = she.Add(sum, c)
		if err != nil {
			return she.Ciphertext{}, err
		}
	}
	return sum, nil
}

// Reshare implements spec §4.F Reshare from this party's point of
// view: given a ciphertext c encrypting a length-s plaintext vector m,
// it returns this party's additive share of m and, if mode is
// NewCiphertext, a fresh re-encryption of m whose randomness is public
// (so every party can compute it identically without further
// communication).
func Reshare(t party.Transport, sheParams she.Parameters, sampler *ring.Sampler, pk she.PublicKey, oracle DecryptOracle, tag string, c she.Ciphertext, mode Mode) ([]field.P, *she.Ciphertext, error) {
	s := sheParams.S

	f := make([]field.P, s)
	for i := range f {
		v, err := field.PRand(nil)
		if err != nil {
			return nil, nil, err
		}
		f[i] = v
	}
	xf, err := she.EncodeToRing(f)
	if err != nil {
		return nil, nil, err
	}
	rf, err := she.SampleRandomness(sheParams, sampler)
	if err != nil {
		return nil, nil, err
	}
	ef, err := she.Encrypt(sheParams, pk, xf, rf)
	if err != nil {
		return nil, nil, err
	}

	allEf, err := broadcastCiphertext(t, tag+".ef", ef)
	if err != nil {
		return nil, nil, err
	}
	sumEf, err := sumCiphertexts(allEf)
	if err != nil {
		return nil, nil, err
	}

	eMf, err := she.Add(c, sumEf)
	if err != nil {
		return nil, nil, err
	}

	mf, err := oracle.Decrypt(eMf)
	if err != nil {
		return nil, nil, err
	}

	share := make([]field.P, s)
	if t.ID() == 0 {
		for i := range share {
			share[i] = mf[i].Sub(f[i])
		}
	} else {
		for i := range share {
			share[i] = f[i].Neg()
		}
	}

	if mode == NoNewCiphertext {
		return share, nil, nil
	}

	xmf, err := she.EncodeToRing(mf)
	if err != nil {
		return nil, nil, err
	}
	cCanonical, err := she.Encrypt(sheParams, pk, xmf, zeroRandomness(sheParams.N))
	if err != nil {
		return nil, nil, err
	}
	cNew, err := she.Sub(cCanonical, sumEf)
	if err != nil {
		return nil, nil, err
	}
	return share, &cNew, nil
}

// PAngle implements spec §4.F PAngle: given this party's existing
// additive share of m, a fresh ciphertext c encrypting m, and the
// published encryption eAlpha of the (shared) global MAC key, it
// computes c' = c * eAlpha (encrypting alpha*m) and reshares it to
// obtain this party's share of the MAC.
func PAngle(t party.Transport, sheParams she.Parameters, sampler *ring.Sampler, pk she.PublicKey, oracle DecryptOracle, tag string, myShare []field.P, c, eAlpha she.Ciphertext) (AngleShare, error) {
	cPrime, err := she.Multiply(sheParams, c, eAlpha)
	if err != nil {
		return AngleShare{}, err
	}
	gamma, _, err := Reshare(t, sheParams, sampler, pk, oracle, tag+".pangle", cPrime, NoNewCiphertext)
	if err != nil {
		return AngleShare{}, err
	}
	return AngleShare{
		PublicModifier: field.PZero(),
		Share:          myShare,
		Mac:            gamma,
	}, nil
}

// PBracket implements spec §4.F PBracket: for every party i (including
// this one), compute e_{beta_i*m} = e_{beta_i}*c and reshare it, so
// that this party accumulates its own private MAC key (for i == me)
// alongside the share of every party's beta_i*m it holds as a result.
func PBracket(t party.Transport, sheParams she.Parameters, sampler *ring.Sampler, pk she.PublicKey, oracle DecryptOracle, tag string, myShare []field.P, c she.Ciphertext) (BracketShare, error) {
	n := t.NumParties()
	me := t.ID()
	s := sheParams.S

	var myBeta field.P
	gamma := make([][]field.P, n)

	for i := 0; i < n; i++ {
		var eBetaI she.Ciphertext
		var myContribution []byte
		if i == me {
			b, err := field.PRand(nil)
			if err != nil {
				return BracketShare{}, err
			}
			myBeta = b
			xBeta, err := she.EncodeToRing(diagonal(b, s))
			if err != nil {
				return BracketShare{}, err
			}
			rBeta, err := she.SampleRandomness(sheParams, sampler)
			if err != nil {
				return BracketShare{}, err
			}
			eBetaI, err = she.Encrypt(sheParams, pk, xBeta, rBeta)
			if err != nil {
				return BracketShare{}, err
			}
			myContribution = eBetaI.Bytes()
		}
		raw, err := t.Broadcast(fmt.Sprintf("%s.ebeta.%d", tag, i), myContribution)
		if err != nil {
			return BracketShare{}, err
		}
		if raw[i] == nil {
			return BracketShare{}, errs.TransportAborted(i, "party did not publish its MAC-key ciphertext")
		}
		eBetaI, err = she.CiphertextFromBytes(raw[i])
		if err != nil {
			return BracketShare{}, err
		}

		eBetaM, err := she.Multiply(sheParams, eBetaI, c)
		if err != nil {
			return BracketShare{}, err
		}
		share, _, err := Reshare(t, sheParams, sampler, pk, oracle, fmt.Sprintf("%s.reshare.%d", tag, i), eBetaM, NoNewCiphertext)
		if err != nil {
			return BracketShare{}, err
		}
		gamma[i] = share
	}

	return BracketShare{Share: myShare, MyBeta: myBeta, Gamma: gamma}, nil
}
