package packing

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tuneinsight/spdz-offline/field"
)

func vecFromUint64(vs ...uint64) []field.P {
	out := make([]field.P, len(vs))
	for i, v := range vs {
		out[i] = field.PFromUint64(v)
	}
	return out
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	vec := vecFromUint64(3, 9, 27, 81)
	poly, err := Encode(vec)
	require.NoError(t, err)

	back, err := Decode(poly)
	require.NoError(t, err)
	require.Len(t, back, len(vec))
	for i := range vec {
		require.True(t, vec[i].Equal(back[i]), "slot %d", i)
	}
}

func TestEncodeIsLinear(t *testing.T) {
	a := vecFromUint64(1, 2, 3, 4)
	b := vecFromUint64(10, 20, 30, 40)

	polyA, err := Encode(a)
	require.NoError(t, err)
	polyB, err := Encode(b)
	require.NoError(t, err)

	sumPoly := make([]field.P, len(polyA))
	for i := range sumPoly {
		sumPoly[i] = polyA[i].Add(polyB[i])
	}

	back, err := Decode(sumPoly)
	require.NoError(t, err)
	for i := range a {
		require.True(t, a[i].Add(b[i]).Equal(back[i]))
	}
}

// negacyclicMul multiplies two degree-<s polynomials modulo X^s+1
// (the cyclotomic Φ_m reduction packing's evaluation points are rooted
// in, m = 2s): a term landing at degree s+k wraps around as -X^k.
func negacyclicMul(a, b []field.P) []field.P {
	s := len(a)
	out := make([]field.P, s)
	for i := 0; i < s; i++ {
		for j := 0; j < s; j++ {
			prod := a[i].Mul(b[j])
			k := i + j
			if k < s {
				out[k] = out[k].Add(prod)
			} else {
				out[k-s] = out[k-s].Sub(prod)
			}
		}
	}
	return out
}

// TestEncodeIsMultiplicativeModCyclotomic is the literal tiny-parameter
// scenario of spec §8.2 (s=2, P=(1,2), Q=(2,3), expect
// decode(encode(P)*encode(Q) mod X^2+1) = (2,6)): it isolates the
// multiplicative half of the packing homomorphism at the ring level,
// without going through noisy SHE encryption.
func TestEncodeIsMultiplicativeModCyclotomic(t *testing.T) {
	p := vecFromUint64(1, 2)
	q := vecFromUint64(2, 3)

	polyP, err := Encode(p)
	require.NoError(t, err)
	polyQ, err := Encode(q)
	require.NoError(t, err)

	product := negacyclicMul(polyP, polyQ)

	back, err := Decode(product)
	require.NoError(t, err)

	want := vecFromUint64(2, 6)
	for i := range want {
		require.True(t, want[i].Equal(back[i]), "slot %d", i)
	}
}

// TestEncodeIsMultiplicativeModCyclotomicLargerSlotCount checks the
// same property at s=4 with non-trivial values, to rule out the s=2
// case above passing by coincidence (e.g. a sign error in the
// wraparound term that happens to cancel out at this size).
func TestEncodeIsMultiplicativeModCyclotomicLargerSlotCount(t *testing.T) {
	p := vecFromUint64(2, 3, 5, 7)
	q := vecFromUint64(11, 13, 17, 19)

	polyP, err := Encode(p)
	require.NoError(t, err)
	polyQ, err := Encode(q)
	require.NoError(t, err)

	product := negacyclicMul(polyP, polyQ)

	back, err := Decode(product)
	require.NoError(t, err)

	for i := range p {
		require.True(t, p[i].Mul(q[i]).Equal(back[i]), "slot %d", i)
	}
}

func TestEvaluationPointsAreDistinct(t *testing.T) {
	pts, err := EvaluationPoints(8)
	require.NoError(t, err)
	seen := make(map[string]bool)
	for _, p := range pts {
		require.False(t, seen[p.String()], "duplicate evaluation point")
		seen[p.String()] = true
	}
}

func TestEncodeRejectsNonPowerOfTwo(t *testing.T) {
	_, err := Encode(vecFromUint64(1, 2, 3))
	require.Error(t, err)
}
