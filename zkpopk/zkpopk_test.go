package zkpopk

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tuneinsight/spdz-offline/errs"
	"github.com/tuneinsight/spdz-offline/field"
	"github.com/tuneinsight/spdz-offline/ring"
	"github.com/tuneinsight/spdz-offline/she"
)

func testSheParams(t *testing.T) she.Parameters {
	t.Helper()
	p, ok := new(big.Int).SetString("41", 10)
	require.True(t, ok)
	q, ok := new(big.Int).SetString("83380292323641237751", 10)
	require.True(t, ok)
	params, err := she.NewParameters(2, p, q, 3.2)
	require.NoError(t, err)
	return params
}

func vecFromUint64(vs ...uint64) []field.P {
	out := make([]field.P, len(vs))
	for i, v := range vs {
		out[i] = field.PFromUint64(v)
	}
	return out
}

// buildInstance encrypts one plaintext vector and returns the instance
// and witness a prover would use to show knowledge of it.
func buildInstance(t *testing.T, params she.Parameters, pk she.PublicKey, sampler *ring.Sampler, vec []field.P) (Instance, Witness, she.Randomness) {
	t.Helper()
	x, err := she.EncodeToRing(vec)
	require.NoError(t, err)
	r, err := she.SampleRandomness(params, sampler)
	require.NoError(t, err)
	c, err := she.Encrypt(params, pk, x, r)
	require.NoError(t, err)
	return Instance{PK: pk, C: []she.Ciphertext{c}}, Witness{X: []*ring.Encodedtext{x}, R: []she.Randomness{r}}, r
}

func TestProveVerifyCompleteness(t *testing.T) {
	sheParams := testSheParams(t)
	sampler := ring.NewSampler(rand.Reader, sheParams.StdDev)
	_, pk, err := she.KeyGen(sheParams, sampler)
	require.NoError(t, err)

	zk := NewParameters(4, big.NewInt(int64(sheParams.N)), big.NewInt(2), big.NewInt(int64(3*sheParams.N)), big.NewInt(2))

	instance, witness, _ := buildInstance(t, sheParams, pk, sampler, vecFromUint64(3, 9))

	proof, err := Prove(zk, sheParams, sampler, instance, witness)
	require.NoError(t, err)
	require.Len(t, proof.A, zk.V)
	require.Len(t, proof.Z, zk.V)
	require.Len(t, proof.T, zk.V)

	err = Verify(zk, sheParams, instance, proof)
	require.NoError(t, err)
}

func TestVerifyRejectsTamperedCiphertext(t *testing.T) {
	sheParams := testSheParams(t)
	sampler := ring.NewSampler(rand.Reader, sheParams.StdDev)
	_, pk, err := she.KeyGen(sheParams, sampler)
	require.NoError(t, err)

	zk := NewParameters(4, big.NewInt(int64(sheParams.N)), big.NewInt(2), big.NewInt(int64(3*sheParams.N)), big.NewInt(2))

	instance, witness, _ := buildInstance(t, sheParams, pk, sampler, vecFromUint64(3, 9))
	proof, err := Prove(zk, sheParams, sampler, instance, witness)
	require.NoError(t, err)

	// Tamper with the published ciphertext after the proof was built for
	// the original one: the prover's responses no longer satisfy the
	// verification equation for the new instance.
	other := vecFromUint64(4, 10)
	xOther, err := she.EncodeToRing(other)
	require.NoError(t, err)
	rOther, err := she.SampleRandomness(sheParams, sampler)
	require.NoError(t, err)
	cOther, err := she.Encrypt(sheParams, pk, xOther, rOther)
	require.NoError(t, err)

	tamperedInstance := Instance{PK: pk, C: []she.Ciphertext{cOther}}
	err = Verify(zk, sheParams, tamperedInstance, proof)
	require.Error(t, err)
}

func TestVerifyRejectsOutOfBoundResponse(t *testing.T) {
	sheParams := testSheParams(t)
	sampler := ring.NewSampler(rand.Reader, sheParams.StdDev)
	_, pk, err := she.KeyGen(sheParams, sampler)
	require.NoError(t, err)

	zk := NewParameters(4, big.NewInt(int64(sheParams.N)), big.NewInt(2), big.NewInt(int64(3*sheParams.N)), big.NewInt(2))

	instance, witness, _ := buildInstance(t, sheParams, pk, sampler, vecFromUint64(3, 9))
	proof, err := Prove(zk, sheParams, sampler, instance, witness)
	require.NoError(t, err)

	// Blow up one response coefficient far past the verification bound.
	huge := new(big.Int).Lsh(big.NewInt(1), 4096)
	proof.Z[0].Coeffs[0] = field.LiftP(field.PFromBigInt(huge))

	err = Verify(zk, sheParams, instance, proof)
	require.Error(t, err)
	spdzErr, ok := err.(*errs.Error)
	require.True(t, ok)
	require.Equal(t, errs.KindNormBound, spdzErr.Kind)
}

func TestProofBytesRoundTrip(t *testing.T) {
	sheParams := testSheParams(t)
	sampler := ring.NewSampler(rand.Reader, sheParams.StdDev)
	_, pk, err := she.KeyGen(sheParams, sampler)
	require.NoError(t, err)

	zk := NewParameters(4, big.NewInt(int64(sheParams.N)), big.NewInt(2), big.NewInt(int64(3*sheParams.N)), big.NewInt(2))
	instance, witness, _ := buildInstance(t, sheParams, pk, sampler, vecFromUint64(1, 1))
	proof, err := Prove(zk, sheParams, sampler, instance, witness)
	require.NoError(t, err)

	back, err := ProofFromBytes(proof.Bytes(), zk.V)
	require.NoError(t, err)

	err = Verify(zk, sheParams, instance, back)
	require.NoError(t, err)
}
