// Package preprocessing implements the offline-phase drivers of spec
// §4.G: Initialize (joint key + MAC key generation), Pair (random
// additive/angle share), and Triple (Beaver triple production), built
// on top of mpc's Reshare/PAngle/PBracket combinators and zkpopk's
// proof of plaintext knowledge.
//
// Grounded on original_source/src/ for the Initialize/Pair/Triple
// control flow (no teacher package covers an MPC offline phase; this
// is a from-scratch component following the rest of the module's
// idiom: explicit Driver value, no package-level state, every round
// run as n concurrent per-party goroutines synchronised through a
// shared party.RoundHub — spec §5's "n parallel parties executing in
// synchronous rounds").
package preprocessing

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/tuneinsight/spdz-offline/field"
	"github.com/tuneinsight/spdz-offline/mpc"
	"github.com/tuneinsight/spdz-offline/party"
	"github.com/tuneinsight/spdz-offline/ring"
	"github.com/tuneinsight/spdz-offline/she"
	"github.com/tuneinsight/spdz-offline/zkpopk"
)

// Driver holds everything the preprocessing protocol needs that is
// fixed for the lifetime of a session: the party count, the transport
// hub, the shared SHE/ZKPoPK parameters, per-party randomness sources,
// the (emulated) joint public key, and the decryption oracle standing
// in for distributed decryption (spec §4.F).
type Driver struct {
	NParties  int
	Hub       *party.RoundHub
	SheParams she.Parameters
	ZkParams  zkpopk.Parameters
	Samplers  []*ring.Sampler
	PK        she.PublicKey
	Oracle    mpc.DecryptOracle
}

// NewDriver builds a Driver for nParties, generating a combined
// (sk, pk) pair once via she.KeyGen. A genuinely distributed key
// generation protocol (every party contributing to s without ever
// learning it) is out of scope here: spec §4.F already sanctions
// emulating distributed decryption with a single combined key in
// test mode, and the same stand-in is used for key generation (see
// DESIGN.md).
func NewDriver(nParties int, sheParams she.Parameters, zkParams zkpopk.Parameters, samplers []*ring.Sampler) (*Driver, error) {
	if len(samplers) != nParties {
		return nil, fmt.Errorf("preprocessing: need %d samplers, got %d", nParties, len(samplers))
	}
	sk, pk, err := she.KeyGen(sheParams, samplers[0])
	if err != nil {
		return nil, err
	}
	return &Driver{
		NParties:  nParties,
		Hub:       party.NewRoundHub(nParties),
		SheParams: sheParams,
		ZkParams:  zkParams,
		Samplers:  samplers,
		PK:        pk,
		Oracle:    mpc.LocalDecryptOracle{Params: sheParams, SK: sk},
	}, nil
}

// runParties invokes fn once per party id in its own goroutine and
// waits for all to finish, returning the first error encountered (if
// any). Each round of Initialize/Pair/Triple is one or more calls of
// this shape: the hub's Broadcast barrier requires every party to be
// "in flight" simultaneously, or the round deadlocks.
func runParties(n int, fn func(id int) error) error {
	var wg sync.WaitGroup
	errs := make([]error, n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(id int) {
			defer wg.Done()
			errs[id] = fn(id)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func sumShares(shares [][]field.P) []field.P {
	s := len(shares[0])
	out := make([]field.P, s)
	for _, vec := range shares {
		for i, v := range vec {
			out[i] = out[i].Add(v)
		}
	}
	return out
}

// encodeCiphertextAndProof concatenates a ciphertext and a ZKPoPK proof
// into one broadcastable payload: both WriteTo implementations are
// self-length-prefixed, so no extra framing is needed to split them
// back apart, given the verifier already knows the proof's width V.
func encodeCiphertextAndProof(c she.Ciphertext, proof zkpopk.Proof) []byte {
	var buf bytes.Buffer
	_, _ = c.WriteTo(&buf)
	_, _ = proof.WriteTo(&buf)
	return buf.Bytes()
}

func decodeCiphertextAndProof(b []byte, v int) (she.Ciphertext, zkpopk.Proof, error) {
	r := bytes.NewReader(b)
	var c she.Ciphertext
	if _, err := c.ReadFrom(r); err != nil {
		return she.Ciphertext{}, zkpopk.Proof{}, err
	}
	proof, err := zkpopk.ReadProof(r, v)
	if err != nil {
		return she.Ciphertext{}, zkpopk.Proof{}, err
	}
	return c, proof, nil
}

func diagonal(v field.P, s int) []field.P {
	out := make([]field.P, s)
	for i := range out {
		out[i] = v
	}
	return out
}
