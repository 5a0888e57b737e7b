package prng

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyedPRNGIsDeterministic(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, 32)
	a, err := NewKeyedPRNG(key)
	require.NoError(t, err)
	b, err := NewKeyedPRNG(key)
	require.NoError(t, err)

	bufA := make([]byte, 64)
	bufB := make([]byte, 64)
	_, err = a.Read(bufA)
	require.NoError(t, err)
	_, err = b.Read(bufB)
	require.NoError(t, err)
	require.Equal(t, bufA, bufB)
}

func TestKeyedPRNGResetRewinds(t *testing.T) {
	p, err := NewKeyedPRNG(bytes.Repeat([]byte{0x7}, 32))
	require.NoError(t, err)

	first := make([]byte, 32)
	_, err = p.Read(first)
	require.NoError(t, err)
	require.EqualValues(t, 32, p.Clock())

	p.Reset()
	require.EqualValues(t, 0, p.Clock())

	second := make([]byte, 32)
	_, err = p.Read(second)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestTranscriptChallengeIsDeterministicGivenSameAppends(t *testing.T) {
	build := func() []bool {
		tr, err := NewTranscript("test-domain")
		require.NoError(t, err)
		tr.Append("a", []byte("hello"))
		tr.Append("b", []byte{1, 2, 3})
		bits, err := tr.ChallengeBits(16)
		require.NoError(t, err)
		return bits
	}
	require.Equal(t, build(), build())
}

func TestTranscriptChallengeIsSensitiveToAppendedData(t *testing.T) {
	tr1, err := NewTranscript("test-domain")
	require.NoError(t, err)
	tr1.Append("a", []byte("hello"))
	bits1, err := tr1.ChallengeBits(32)
	require.NoError(t, err)

	tr2, err := NewTranscript("test-domain")
	require.NoError(t, err)
	tr2.Append("a", []byte("hellp")) // one byte different
	bits2, err := tr2.ChallengeBits(32)
	require.NoError(t, err)

	require.NotEqual(t, bits1, bits2)
}

func TestChallengeBitsDoesNotConsumeTranscript(t *testing.T) {
	tr, err := NewTranscript("test-domain")
	require.NoError(t, err)
	tr.Append("a", []byte("x"))

	first, err := tr.ChallengeBits(8)
	require.NoError(t, err)
	second, err := tr.ChallengeBits(8)
	require.NoError(t, err)
	require.Equal(t, first, second)

	// Appending more after reading a challenge changes subsequent
	// challenges derived from the (now longer) transcript.
	tr.Append("b", []byte("y"))
	third, err := tr.ChallengeBits(8)
	require.NoError(t, err)
	require.NotEqual(t, first, third)
}

func TestOutputLengthMatchesRequest(t *testing.T) {
	tr, err := NewTranscript("test-domain")
	require.NoError(t, err)
	tr.Append("a", []byte("z"))

	out, err := tr.Output(40)
	require.NoError(t, err)
	require.Len(t, out, 40)
}
