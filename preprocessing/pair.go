package preprocessing

import (
	"fmt"

	"github.com/tuneinsight/spdz-offline/errs"
	"github.com/tuneinsight/spdz-offline/field"
	"github.com/tuneinsight/spdz-offline/mpc"
	"github.com/tuneinsight/spdz-offline/ring"
	"github.com/tuneinsight/spdz-offline/she"
	"github.com/tuneinsight/spdz-offline/zkpopk"
)

// Pair is the output of spec §4.G Pair: a fresh uniformly random value
// r, available to every party both as a bracket share [r] (per-party
// MAC keys) and as an angle share <r> (global MAC key), plus the
// public fresh ciphertext encrypting r.
type Pair struct {
	Bracket []mpc.BracketShare // indexed by party id
	Angle   []mpc.AngleShare   // indexed by party id
	ER      she.Ciphertext
}

// RunPair implements spec §4.G Pair: every party contributes a private
// uniform r_i, the parties publish and verify ZKPoPK proofs of
// knowledge of e_{r_i}, fold them into e_r = Enc(Sum r_i), reshare it
// (obtaining a fresh public re-encryption), and apply PBracket and
// PAngle to the result.
func RunPair(d *Driver, mac MacKey, tag string) (Pair, error) {
	n := d.NParties
	s := d.SheParams.S

	eR := make([]she.Ciphertext, n)
	bracket := make([]mpc.BracketShare, n)
	angle := make([]mpc.AngleShare, n)
	freshC := make([]she.Ciphertext, n)

	err := runParties(n, func(id int) error {
		t := d.Hub.View(id)
		sampler := d.Samplers[id]

		rI := make([]field.P, s)
		for i := range rI {
			v, err := field.PRand(nil)
			if err != nil {
				return err
			}
			rI[i] = v
		}
		xR, err := she.EncodeToRing(rI)
		if err != nil {
			return err
		}
		rRand, err := she.SampleRandomness(d.SheParams, sampler)
		if err != nil {
			return err
		}
		eRI, err := she.Encrypt(d.SheParams, d.PK, xR, rRand)
		if err != nil {
			return err
		}

		proof, err := zkpopk.Prove(d.ZkParams, d.SheParams, sampler,
			zkpopk.Instance{PK: d.PK, C: []she.Ciphertext{eRI}},
			zkpopk.Witness{X: []*ring.Encodedtext{xR}, R: []she.Randomness{rRand}})
		if err != nil {
			return err
		}

		payload := encodeCiphertextAndProof(eRI, proof)
		all, err := t.Broadcast(tag+".r", payload)
		if err != nil {
			return err
		}

		sum := eRI
		for pid, raw := range all {
			if pid == id {
				continue
			}
			if raw == nil {
				return errs.TransportAborted(pid, "missing r-share publication")
			}
			ci, pf, err := decodeCiphertextAndProof(raw, d.ZkParams.V)
			if err != nil {
				return fmt.Errorf("preprocessing.RunPair: party %d: %w", pid, err)
			}
			if err := zkpopk.Verify(d.ZkParams, d.SheParams, zkpopk.Instance{PK: d.PK, C: []she.Ciphertext{ci}}, pf); err != nil {
				return fmt.Errorf("preprocessing.RunPair: party %d's r-share proof failed: %w", pid, err)
			}
			sum, err = she.Add(sum, ci)
			if err != nil {
				return err
			}
		}
		eR[id] = sum

		myShare, cNew, err := mpc.Reshare(t, d.SheParams, sampler, d.PK, d.Oracle, tag+".reshare", sum, mpc.NewCiphertext)
		if err != nil {
			return err
		}
		freshC[id] = *cNew

		b, err := mpc.PBracket(t, d.SheParams, sampler, d.PK, d.Oracle, tag+".bracket", myShare, *cNew)
		if err != nil {
			return err
		}
		a, err := mpc.PAngle(t, d.SheParams, sampler, d.PK, d.Oracle, tag+".angle", myShare, *cNew, mac.EAlpha)
		if err != nil {
			return err
		}
		bracket[id], angle[id] = b, a
		return nil
	})
	if err != nil {
		return Pair{}, err
	}

	return Pair{Bracket: bracket, Angle: angle, ER: freshC[0]}, nil
}
