package mpc

import (
	"crypto/rand"
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tuneinsight/spdz-offline/field"
	"github.com/tuneinsight/spdz-offline/party"
	"github.com/tuneinsight/spdz-offline/ring"
	"github.com/tuneinsight/spdz-offline/she"
)

const nTestParties = 3

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

func sumShareRows(rows [][]field.P) []field.P {
	s := len(rows[0])
	out := make([]field.P, s)
	for _, row := range rows {
		for i, v := range row {
			out[i] = out[i].Add(v)
		}
	}
	return out
}

func TestResharePreservesValueAndRefreshesCiphertext(t *testing.T) {
	sheParams := testSheParams(t)
	keygenSampler := ring.NewSampler(rand.Reader, sheParams.StdDev)
	sk, pk, err := she.KeyGen(sheParams, keygenSampler)
	require.NoError(t, err)
	oracle := LocalDecryptOracle{Params: sheParams, SK: sk}

	m := vecFromUint64(4, 9)
	x, err := she.EncodeToRing(m)
	require.NoError(t, err)
	r, err := she.SampleRandomness(sheParams, keygenSampler)
	require.NoError(t, err)
	c, err := she.Encrypt(sheParams, pk, x, r)
	require.NoError(t, err)

	hub := party.NewRoundHub(nTestParties)
	samplers := make([]*ring.Sampler, nTestParties)
	for i := range samplers {
		samplers[i] = ring.NewSampler(rand.Reader, sheParams.StdDev)
	}

	shares := make([][]field.P, nTestParties)
	fresh := make([]*she.Ciphertext, nTestParties)
	var wg sync.WaitGroup
	wg.Add(nTestParties)
	for i := 0; i < nTestParties; i++ {
		go func(id int) {
			defer wg.Done()
			tr := hub.View(id)
			share, cNew, err := Reshare(tr, sheParams, samplers[id], pk, oracle, "reshare", c, NewCiphertext)
			require.NoError(t, err)
			shares[id] = share
			fresh[id] = cNew
		}(i)
	}
	wg.Wait()

	got := sumShareRows(shares)
	for i := range m {
		require.True(t, m[i].Equal(got[i]), "slot %d", i)
	}

	for i := 1; i < nTestParties; i++ {
		require.True(t, fresh[0].C0.Equal(fresh[i].C0), "fresh ciphertext should be identical across parties")
		require.True(t, fresh[0].C1.Equal(fresh[i].C1))
	}

	decrypted, err := she.Decrypt(sheParams, sk, *fresh[0])
	require.NoError(t, err)
	for i := range m {
		require.True(t, m[i].Equal(decrypted[i]))
	}
}

func TestPAnglePublishesConsistentMac(t *testing.T) {
	sheParams := testSheParams(t)
	keygenSampler := ring.NewSampler(rand.Reader, sheParams.StdDev)
	sk, pk, err := she.KeyGen(sheParams, keygenSampler)
	require.NoError(t, err)
	oracle := LocalDecryptOracle{Params: sheParams, SK: sk}

	alpha := vecFromUint64(6, 6) // diagonal alpha, same in every slot
	xAlpha, err := she.EncodeToRing(alpha)
	require.NoError(t, err)
	rAlpha, err := she.SampleRandomness(sheParams, keygenSampler)
	require.NoError(t, err)
	eAlpha, err := she.Encrypt(sheParams, pk, xAlpha, rAlpha)
	require.NoError(t, err)

	m := vecFromUint64(3, 5)
	xm, err := she.EncodeToRing(m)
	require.NoError(t, err)
	rm, err := she.SampleRandomness(sheParams, keygenSampler)
	require.NoError(t, err)
	c, err := she.Encrypt(sheParams, pk, xm, rm)
	require.NoError(t, err)

	hub := party.NewRoundHub(nTestParties)
	samplers := make([]*ring.Sampler, nTestParties)
	for i := range samplers {
		samplers[i] = ring.NewSampler(rand.Reader, sheParams.StdDev)
	}

	// Split m's shares arbitrarily across parties summing to m (PAngle
	// only republishes the MAC; the value share passed in is opaque to it).
	shareRows := make([][]field.P, nTestParties)
	shareRows[0] = m
	for i := 1; i < nTestParties; i++ {
		shareRows[i] = vecFromUint64(0, 0)
	}

	angles := make([]AngleShare, nTestParties)
	var wg sync.WaitGroup
	wg.Add(nTestParties)
	for i := 0; i < nTestParties; i++ {
		go func(id int) {
			defer wg.Done()
			tr := hub.View(id)
			a, err := PAngle(tr, sheParams, samplers[id], pk, oracle, "angle", shareRows[id], c, eAlpha)
			require.NoError(t, err)
			angles[id] = a
		}(i)
	}
	wg.Wait()

	macRows := make([][]field.P, nTestParties)
	for i, a := range angles {
		macRows[i] = a.Mac
	}
	gotMac := sumShareRows(macRows)
	for i := range m {
		require.True(t, alpha[i].Mul(m[i]).Equal(gotMac[i]), "slot %d", i)
	}
}

func TestPBracketGivesEveryPartyASelfConsistentShare(t *testing.T) {
	sheParams := testSheParams(t)
	keygenSampler := ring.NewSampler(rand.Reader, sheParams.StdDev)
	sk, pk, err := she.KeyGen(sheParams, keygenSampler)
	require.NoError(t, err)
	oracle := LocalDecryptOracle{Params: sheParams, SK: sk}

	m := vecFromUint64(2, 3)
	xm, err := she.EncodeToRing(m)
	require.NoError(t, err)
	rm, err := she.SampleRandomness(sheParams, keygenSampler)
	require.NoError(t, err)
	c, err := she.Encrypt(sheParams, pk, xm, rm)
	require.NoError(t, err)

	hub := party.NewRoundHub(nTestParties)
	samplers := make([]*ring.Sampler, nTestParties)
	for i := range samplers {
		samplers[i] = ring.NewSampler(rand.Reader, sheParams.StdDev)
	}

	brackets := make([]BracketShare, nTestParties)
	var wg sync.WaitGroup
	wg.Add(nTestParties)
	for i := 0; i < nTestParties; i++ {
		go func(id int) {
			defer wg.Done()
			tr := hub.View(id)
			b, err := PBracket(tr, sheParams, samplers[id], pk, oracle, "bracket", m, c)
			require.NoError(t, err)
			brackets[id] = b
		}(i)
	}
	wg.Wait()

	// For every origin party i, the shares of beta_i*m held across all
	// parties should sum to beta_i*m.
	for i := 0; i < nTestParties; i++ {
		rows := make([][]field.P, nTestParties)
		for j := 0; j < nTestParties; j++ {
			rows[j] = brackets[j].Gamma[i]
		}
		got := sumShareRows(rows)
		betaI := brackets[i].MyBeta
		for k := range m {
			require.True(t, betaI.Mul(m[k]).Equal(got[k]), "origin %d slot %d", i, k)
		}
	}
}
