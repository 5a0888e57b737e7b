package she

import (
	"fmt"
	"math/big"

	"github.com/montanaflynn/stats"
	"github.com/tuneinsight/spdz-offline/field"
	"github.com/tuneinsight/spdz-offline/ring"
)

// NoiseReport summarises the decryption-noise norm of a batch of trial
// ciphertexts, the diagnostic spec §4.D's "implementations MUST expose
// a parameter-validation routine" calls for beyond the pass/fail
// Validate check.
type NoiseReport struct {
	Mean   float64
	Max    float64
	StdDev float64
}

// EstimateNoiseGrowth runs trials independent fresh-encrypt/decrypt
// round trips (and, if multiply is true, one ciphertext multiplication
// per trial) and reports the mean, maximum, and standard deviation of
// the resulting decryption-noise infinity norm, the same
// {Mean,Max,StdDev} shape the teacher's own benchmark reporting uses.
func EstimateNoiseGrowth(params Parameters, sampler *ring.Sampler, trials int, multiply bool) (NoiseReport, error) {
	if trials <= 0 {
		return NoiseReport{}, fmt.Errorf("she.EstimateNoiseGrowth: trials must be positive, got %d", trials)
	}

	sk, pk, err := KeyGen(params, sampler)
	if err != nil {
		return NoiseReport{}, err
	}

	norms := make([]float64, trials)
	for i := 0; i < trials; i++ {
		vec := make([]field.P, params.S)
		for j := range vec {
			v, err := field.PRand(nil)
			if err != nil {
				return NoiseReport{}, err
			}
			vec[j] = v
		}

		c, err := encryptTrial(params, pk, sampler, vec)
		if err != nil {
			return NoiseReport{}, err
		}

		if multiply {
			c, err = Multiply(params, c, c)
			if err != nil {
				return NoiseReport{}, err
			}
		}

		n, err := decryptionNoiseNorm(params, sk, c)
		if err != nil {
			return NoiseReport{}, err
		}
		norms[i], _ = new(big.Float).SetInt(n).Float64()
	}

	mean, err := stats.Mean(norms)
	if err != nil {
		return NoiseReport{}, fmt.Errorf("she.EstimateNoiseGrowth: %w", err)
	}
	max, err := stats.Max(norms)
	if err != nil {
		return NoiseReport{}, fmt.Errorf("she.EstimateNoiseGrowth: %w", err)
	}
	stdDev, err := stats.StandardDeviation(norms)
	if err != nil {
		return NoiseReport{}, fmt.Errorf("she.EstimateNoiseGrowth: %w", err)
	}

	return NoiseReport{Mean: mean, Max: max, StdDev: stdDev}, nil
}

func encryptTrial(params Parameters, pk PublicKey, sampler *ring.Sampler, vec []field.P) (Ciphertext, error) {
	x, err := EncodeToRing(vec)
	if err != nil {
		return Ciphertext{}, err
	}
	r, err := SampleRandomness(params, sampler)
	if err != nil {
		return Ciphertext{}, err
	}
	return Encrypt(params, pk, x, r)
}

// decryptionNoiseNorm computes the infinity norm of c0 - c1*s (+ c2*s^2
// for a product ciphertext) without enforcing the q/2 correctness bound
// DecryptEncoded does, so callers can observe noise growth even when it
// would otherwise be rejected.
func decryptionNoiseNorm(params Parameters, sk SecretKey, c Ciphertext) (*big.Int, error) {
	n := params.N
	c1s, err := ring.Mul(c.C1, sk.S, n)
	if err != nil {
		return nil, err
	}
	m, err := c.C0.Sub(c1s)
	if err != nil {
		return nil, err
	}
	if c.C2.Norm().Sign() != 0 {
		s2, err := ring.Mul(sk.S, sk.S, n)
		if err != nil {
			return nil, err
		}
		c2s2, err := ring.Mul(c.C2, s2, n)
		if err != nil {
			return nil, err
		}
		m, err = m.Add(c2s2)
		if err != nil {
			return nil, err
		}
	}
	return m.Norm(), nil
}
