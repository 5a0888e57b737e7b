package preprocessing

import (
	"github.com/tuneinsight/spdz-offline/mpc"
	"github.com/tuneinsight/spdz-offline/she"
)

// Triple is the output of spec §4.G Triple: two Pairs (a, b) and the
// angle share of their product c = a*b, consumed by the online phase
// to perform one secure multiplication per triple.
type Triple struct {
	A, B   Pair
	AngleC []mpc.AngleShare // indexed by party id
	EC     she.Ciphertext
}

// RunTriple implements spec §4.G Triple: sample a, b as in Pair,
// multiply their fresh ciphertexts to get e_c, reshare it to obtain a
// fresh public re-encryption and per-party shares of c, then angle
// every one of a, b, c under the global MAC key. c = a*b holds by
// construction: no separate check is needed here (spec §4.G).
func RunTriple(d *Driver, mac MacKey, tag string) (Triple, error) {
	n := d.NParties

	a, err := RunPair(d, mac, tag+".a")
	if err != nil {
		return Triple{}, err
	}
	b, err := RunPair(d, mac, tag+".b")
	if err != nil {
		return Triple{}, err
	}

	eC, err := she.Multiply(d.SheParams, a.ER, b.ER)
	if err != nil {
		return Triple{}, err
	}

	angleC := make([]mpc.AngleShare, n)
	freshC := make([]she.Ciphertext, n)

	err = runParties(n, func(id int) error {
		t := d.Hub.View(id)
		sampler := d.Samplers[id]

		cShare, cNew, err := mpc.Reshare(t, d.SheParams, sampler, d.PK, d.Oracle, tag+".c.reshare", eC, mpc.NewCiphertext)
		if err != nil {
			return err
		}
		freshC[id] = *cNew

		ac, err := mpc.PAngle(t, d.SheParams, sampler, d.PK, d.Oracle, tag+".c.angle", cShare, *cNew, mac.EAlpha)
		if err != nil {
			return err
		}
		angleC[id] = ac
		return nil
	})
	if err != nil {
		return Triple{}, err
	}

	return Triple{A: a, B: b, AngleC: angleC, EC: freshC[0]}, nil
}
