// Package prng provides the per-party deterministic randomness source
// used throughout the offline phase: Gaussian/uniform ring sampling and
// the ZKPoPK Fiat-Shamir transcript both draw from it.
//
// It is grounded on lattigo's ring.CRPGenerator (ring/prng.go), which
// drives a keyed blake2b stream to deterministically (but securely)
// generate uniform ring elements; here the same construction is reused
// both for sampling and, keyed by a running transcript digest, for
// deriving Fiat-Shamir challenges.
package prng

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/blake2b"
)

// KeyedPRNG is a deterministic byte stream seeded by a 32-byte key. Two
// instances constructed with the same key produce identical output,
// which is what lets a verifier recompute a prover's challenge.
type KeyedPRNG struct {
	xof   blake2b.XOF
	key   [32]byte
	clock uint64
}

// NewKeyedPRNG creates a PRNG seeded by key. If key is nil, 32 random
// bytes are drawn from crypto/rand instead (used for a party's private
// per-session randomness; never shared).
func NewKeyedPRNG(key []byte) (*KeyedPRNG, error) {
	p := new(KeyedPRNG)
	if key == nil {
		if _, err := io.ReadFull(rand.Reader, p.key[:]); err != nil {
			return nil, fmt.Errorf("prng.NewKeyedPRNG: %w", err)
		}
	} else {
		copy(p.key[:], key)
	}
	xof, err := blake2b.NewXOF(blake2b.OutputLengthUnknown, p.key[:])
	if err != nil {
		return nil, fmt.Errorf("prng.NewKeyedPRNG: %w", err)
	}
	p.xof = xof
	return p, nil
}

// Read fills b with PRNG output. It implements io.Reader so a
// KeyedPRNG can be handed directly to the field/ring samplers.
func (p *KeyedPRNG) Read(b []byte) (int, error) {
	n, err := p.xof.Read(b)
	p.clock += uint64(n)
	return n, err
}

// Clock returns the number of bytes produced so far.
func (p *KeyedPRNG) Clock() uint64 { return p.clock }

// Reset rewinds the stream to its initial state.
func (p *KeyedPRNG) Reset() {
	xof, err := blake2b.NewXOF(blake2b.OutputLengthUnknown, p.key[:])
	if err != nil {
		panic(err)
	}
	p.xof = xof
	p.clock = 0
}

// Transcript accumulates a Fiat-Shamir transcript: callers append the
// serialised protocol messages in a fixed order, then ChallengeBits derives
// pseudorandom bits from a cryptographic hash of everything appended so
// far. This replaces the spec's called-out "known stub" (a fixed-seed
// PRNG that ignores its inputs) with a real collision-resistant hash
// over the transcript.
type Transcript struct {
	h blake2b.XOF
}

// NewTranscript starts a fresh, empty transcript.
func NewTranscript(domain string) (*Transcript, error) {
	xof, err := blake2b.NewXOF(blake2b.OutputLengthUnknown, []byte(domain))
	if err != nil {
		return nil, fmt.Errorf("prng.NewTranscript: %w", err)
	}
	return &Transcript{h: xof}, nil
}

// Append absorbs a labelled byte string into the transcript.
func (t *Transcript) Append(label string, data []byte) {
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(data)))
	_, _ = t.h.Write([]byte(label))
	_, _ = t.h.Write(lenBuf[:])
	_, _ = t.h.Write(data)
}

// Output derives n pseudorandom bytes from the transcript accumulated
// so far, without consuming it (see ChallengeBits). Used to derive
// field-element challenges (e.g. the MAC-check random linear
// combination coefficients) where a bit vector isn't the right shape.
func (t *Transcript) Output(n int) ([]byte, error) {
	clone := t.h.Clone()
	out := make([]byte, n)
	if _, err := clone.Read(out); err != nil {
		return nil, fmt.Errorf("prng.Output: %w", err)
	}
	return out, nil
}

// ChallengeBits derives n pseudorandom bits (one byte each, 0 or 1)
// from the transcript accumulated so far. Calling ChallengeBits does
// not consume the transcript: it reads from a clone of the running hash
// state so further Append calls are unaffected by the amount read,
// which matters because golang.org/x/crypto/blake2b XOFs are
// single-pass writers.
func (t *Transcript) ChallengeBits(n int) ([]bool, error) {
	clone := t.h.Clone()
	out := make([]byte, (n+7)/8)
	if _, err := clone.Read(out); err != nil {
		return nil, fmt.Errorf("prng.ChallengeBits: %w", err)
	}
	bits := make([]bool, n)
	for i := 0; i < n; i++ {
		bits[i] = (out[i/8]>>(uint(i)%8))&1 == 1
	}
	return bits, nil
}
