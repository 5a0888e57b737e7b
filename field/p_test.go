package field

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPArithmetic(t *testing.T) {
	a := PFromUint64(7)
	b := PFromUint64(5)

	require.True(t, a.Add(b).Equal(PFromUint64(12)))
	require.True(t, a.Sub(b).Equal(PFromUint64(2)))
	require.True(t, a.Mul(b).Equal(PFromUint64(35)))
	require.True(t, a.Add(a.Neg()).IsZero())
	require.True(t, a.Mul(a.Inverse()).Equal(POne()))
}

func TestPBytesRoundTrip(t *testing.T) {
	a, err := PRand(nil)
	require.NoError(t, err)

	var b P
	b.SetBytes(a.Bytes())
	require.True(t, a.Equal(b))
	require.Len(t, a.Bytes(), PBytes)
}

func TestPFromBigIntReducesModP(t *testing.T) {
	p := PModulus()
	v := new(big.Int).Add(p, big.NewInt(3))
	require.True(t, PFromBigInt(v).Equal(PFromUint64(3)))
}

func TestMRootOfUnity(t *testing.T) {
	omega, err := MRootOfUnity(8)
	require.NoError(t, err)

	one := POne()
	pow := one
	for i := 0; i < 8; i++ {
		pow = pow.Mul(omega)
	}
	require.True(t, pow.Equal(one), "omega^8 should be 1")

	half := one
	for i := 0; i < 4; i++ {
		half = half.Mul(omega)
	}
	require.False(t, half.Equal(one), "omega^4 should not be 1")
}

func TestMRootOfUnityRejectsNonPowerOfTwo(t *testing.T) {
	_, err := MRootOfUnity(6)
	require.Error(t, err)
}
