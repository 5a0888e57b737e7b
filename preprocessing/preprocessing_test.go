package preprocessing

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tuneinsight/spdz-offline/field"
	"github.com/tuneinsight/spdz-offline/mpc"
	"github.com/tuneinsight/spdz-offline/party"
	"github.com/tuneinsight/spdz-offline/prng"
	"github.com/tuneinsight/spdz-offline/ring"
	"github.com/tuneinsight/spdz-offline/she"
	"github.com/tuneinsight/spdz-offline/zkpopk"
)

const testNParties = 3

func newTestDriver(t *testing.T) *Driver {
	t.Helper()
	p, ok := new(big.Int).SetString("41", 10)
	require.True(t, ok)
	q, ok := new(big.Int).SetString("83380292323641237751", 10)
	require.True(t, ok)
	sheParams, err := she.NewParameters(2, p, q, 3.2)
	require.NoError(t, err)

	zkParams := zkpopk.NewParameters(1, big.NewInt(int64(sheParams.N)), big.NewInt(2), big.NewInt(int64(3*sheParams.N)), big.NewInt(2))

	samplers := make([]*ring.Sampler, testNParties)
	for i := range samplers {
		partyPRNG, err := prng.NewKeyedPRNG(nil)
		require.NoError(t, err)
		samplers[i] = ring.NewSampler(partyPRNG, sheParams.StdDev)
	}

	d, err := NewDriver(testNParties, sheParams, zkParams, samplers)
	require.NoError(t, err)
	return d
}

// openAngles drives every party's share of one vector of AngleShares
// through the MAC-check opening protocol concurrently and returns the
// (identical, per party) opened vector.
func openAngles(t *testing.T, hub *party.RoundHub, tag string, alphaShares []field.P, angles []mpc.AngleShare) []field.P {
	t.Helper()
	n := len(angles)
	done := make(chan struct{})
	results := make([][]field.P, n)
	errsOut := make([]error, n)
	for i := 0; i < n; i++ {
		go func(id int) {
			defer func() { done <- struct{}{} }()
			tr := hub.View(id)
			out, err := party.OpenWithMacCheck(tr, tag, angles[id].Share, angles[id].Mac, alphaShares[id])
			results[id] = out
			errsOut[id] = err
		}(i)
	}
	for i := 0; i < n; i++ {
		<-done
	}
	for i := 0; i < n; i++ {
		require.NoError(t, errsOut[i])
	}
	return results[0]
}

func TestInitializeProducesConsistentMacKey(t *testing.T) {
	d := newTestDriver(t)
	mac, err := Initialize(d)
	require.NoError(t, err)
	require.Len(t, mac.AlphaShares, testNParties)

	decrypted, err := d.Oracle.Decrypt(mac.EAlpha)
	require.NoError(t, err)

	sum := field.PZero()
	for _, a := range mac.AlphaShares {
		sum = sum.Add(a)
	}
	for _, v := range decrypted {
		require.True(t, sum.Equal(v))
	}
}

func TestPairProducesAnOpenableRandomValue(t *testing.T) {
	d := newTestDriver(t)
	mac, err := Initialize(d)
	require.NoError(t, err)

	pair, err := RunPair(d, mac, "pair")
	require.NoError(t, err)

	opened := openAngles(t, d.Hub, "pair.open", mac.AlphaShares, pair.Angle)

	decrypted, err := d.Oracle.Decrypt(pair.ER)
	require.NoError(t, err)
	for i := range decrypted {
		require.True(t, decrypted[i].Equal(opened[i]), "slot %d", i)
	}
}

func TestTripleSatisfiesCEqualsATimesB(t *testing.T) {
	d := newTestDriver(t)
	mac, err := Initialize(d)
	require.NoError(t, err)

	triple, err := RunTriple(d, mac, "triple")
	require.NoError(t, err)

	a := openAngles(t, d.Hub, "triple.a.open", mac.AlphaShares, triple.A.Angle)
	b := openAngles(t, d.Hub, "triple.b.open", mac.AlphaShares, triple.B.Angle)
	c := openAngles(t, d.Hub, "triple.c.open", mac.AlphaShares, triple.AngleC)

	for i := range a {
		require.True(t, c[i].Equal(a[i].Mul(b[i])), "slot %d", i)
	}
}
