package preprocessing

import (
	"fmt"

	"github.com/tuneinsight/spdz-offline/errs"
	"github.com/tuneinsight/spdz-offline/field"
	"github.com/tuneinsight/spdz-offline/ring"
	"github.com/tuneinsight/spdz-offline/she"
	"github.com/tuneinsight/spdz-offline/zkpopk"
)

// MacKey is the output of Initialize (spec §4.G): every party's share
// of the diagonal global MAC key alpha, together with its published
// encryption e_alpha = Sum_i e_{alpha_i}.
type MacKey struct {
	AlphaShares []field.P // AlphaShares[i] = this session's party i's alpha_i
	EAlpha      she.Ciphertext
}

// Initialize runs spec §4.G's Initialize: every party samples its own
// alpha_i, publishes e_{alpha_i} together with a ZKPoPK proof of
// plaintext knowledge, and every party verifies every other party's
// proof before folding the published ciphertexts into e_alpha.
func Initialize(d *Driver) (MacKey, error) {
	n := d.NParties
	s := d.SheParams.S

	alphaShares := make([]field.P, n)
	eAlphaShares := make([]she.Ciphertext, n)

	err := runParties(n, func(id int) error {
		t := d.Hub.View(id)
		sampler := d.Samplers[id]

		alphaI, err := field.PRand(nil)
		if err != nil {
			return err
		}
		xAlpha, err := she.EncodeToRing(diagonal(alphaI, s))
		if err != nil {
			return err
		}
		rAlpha, err := she.SampleRandomness(d.SheParams, sampler)
		if err != nil {
			return err
		}
		eAlphaI, err := she.Encrypt(d.SheParams, d.PK, xAlpha, rAlpha)
		if err != nil {
			return err
		}

		proof, err := zkpopk.Prove(d.ZkParams, d.SheParams, sampler,
			zkpopk.Instance{PK: d.PK, C: []she.Ciphertext{eAlphaI}},
			zkpopk.Witness{X: []*ring.Encodedtext{xAlpha}, R: []she.Randomness{rAlpha}})
		if err != nil {
			return err
		}

		payload := encodeCiphertextAndProof(eAlphaI, proof)
		all, err := t.Broadcast("initialize.alpha", payload)
		if err != nil {
			return err
		}

		for pid, raw := range all {
			if raw == nil {
				return errs.TransportAborted(pid, "missing alpha-share publication")
			}
			ci, proof, err := decodeCiphertextAndProof(raw, d.ZkParams.V)
			if err != nil {
				return fmt.Errorf("preprocessing.Initialize: party %d: %w", pid, err)
			}
			if err := zkpopk.Verify(d.ZkParams, d.SheParams, zkpopk.Instance{PK: d.PK, C: []she.Ciphertext{ci}}, proof); err != nil {
				return fmt.Errorf("preprocessing.Initialize: party %d's alpha-share proof failed: %w", pid, err)
			}
		}

		alphaShares[id] = alphaI
		eAlphaShares[id] = eAlphaI
		return nil
	})
	if err != nil {
		return MacKey{}, err
	}

	eAlpha := eAlphaShares[0]
	for _, e := range eAlphaShares[1:] {
		var err error
		eAlpha, err = she.Add(eAlpha, e)
		if err != nil {
			return MacKey{}, err
		}
	}

	return MacKey{AlphaShares: alphaShares, EAlpha: eAlpha}, nil
}
