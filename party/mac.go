package party

import (
	"fmt"
	"math/big"

	"github.com/tuneinsight/spdz-offline/errs"
	"github.com/tuneinsight/spdz-offline/field"
	"github.com/tuneinsight/spdz-offline/prng"
)

// OpenWithMacCheck implements the "⟨x⟩ open" protocol of spec §4.H for
// a batch of values opened together: each party broadcasts its value
// shares, every party computes y_j = Σᵢ xᵢⱼ, then broadcasts a random
// linear combination of (γᵢⱼ − αᵢ·yⱼ) and verifies the sum across
// parties is zero. Batching the whole vector under one random
// challenge (rather than one coefficient per value) amortises the
// check the way the SPDZ MAC check is normally run.
//
// alphaShare is this party's share αᵢ of the global MAC key (spec
// §4.G Initialize's ⟨α⟩); macShares[j] is this party's share γᵢⱼ of
// α·yⱼ, where yⱼ is the opened value whose share is valueShares[j].
func OpenWithMacCheck(t Transport, tag string, valueShares, macShares []field.P, alphaShare field.P) ([]field.P, error) {
	if len(valueShares) != len(macShares) {
		return nil, fmt.Errorf("party: value/mac length mismatch %d != %d", len(valueShares), len(macShares))
	}
	L := len(valueShares)

	valueBuf := encodePVec(valueShares)
	all, err := t.Broadcast(tag+".value", valueBuf)
	if err != nil {
		return nil, err
	}

	y := make([]field.P, L)
	for pid, buf := range all {
		if buf == nil {
			return nil, errs.TransportAborted(pid, "missing value share in MAC-check opening")
		}
		vec, err := decodePVec(buf, L)
		if err != nil {
			return nil, err
		}
		for j := range y {
			y[j] = y[j].Add(vec[j])
		}
	}

	coeffs, err := macCheckChallenge(tag, y, L)
	if err != nil {
		return nil, err
	}

	sigma := field.PZero()
	for j := 0; j < L; j++ {
		term := macShares[j].Sub(alphaShare.Mul(y[j]))
		sigma = sigma.Add(coeffs[j].Mul(term))
	}

	sigmaBuf := sigma.Bytes()
	allSigma, err := t.Broadcast(tag+".sigma", sigmaBuf)
	if err != nil {
		return nil, err
	}

	total := field.PZero()
	for pid, buf := range allSigma {
		if buf == nil {
			return nil, errs.TransportAborted(pid, "missing sigma share in MAC-check opening")
		}
		var s field.P
		s.SetBytes(buf)
		total = total.Add(s)
	}
	if !total.IsZero() {
		return nil, errs.New(errs.KindMacCheckFailure, "MAC check sigma did not sum to zero")
	}

	return y, nil
}

// macCheckChallenge derives the L random 𝔽ₚ coefficients the MAC check
// combines γᵢⱼ − αᵢ·yⱼ with, as a hash of the already-public tag and
// opened values y (public once broadcast, so a plain transcript hash is
// a sound way to agree on a common challenge without a further round).
func macCheckChallenge(tag string, y []field.P, l int) ([]field.P, error) {
	tr, err := prng.NewTranscript("spdz-offline/mac-check:" + tag)
	if err != nil {
		return nil, err
	}
	for _, v := range y {
		tr.Append("y", v.Bytes())
	}
	// Draw one contiguous stream of l*2*PBytes bytes and slice it into l
	// chunks: sequential slices of a single PRG stream are independent
	// for this purpose, and simpler than re-deriving a fresh transcript
	// per coefficient.
	stream, err := tr.Output(l * 2 * field.PBytes)
	if err != nil {
		return nil, err
	}
	coeffs := make([]field.P, l)
	for j := 0; j < l; j++ {
		var v big.Int
		v.SetBytes(stream[j*2*field.PBytes : (j+1)*2*field.PBytes])
		coeffs[j] = field.PFromBigInt(&v)
	}
	return coeffs, nil
}

func encodePVec(vs []field.P) []byte {
	out := make([]byte, 0, len(vs)*field.PBytes)
	for _, v := range vs {
		out = append(out, v.Bytes()...)
	}
	return out
}

func decodePVec(buf []byte, l int) ([]field.P, error) {
	if len(buf) != l*field.PBytes {
		return nil, fmt.Errorf("party: expected %d bytes, got %d", l*field.PBytes, len(buf))
	}
	out := make([]field.P, l)
	for i := range out {
		out[i].SetBytes(buf[i*field.PBytes : (i+1)*field.PBytes])
	}
	return out, nil
}
