// Command spdzoffline runs one preprocessing session end to end: it
// generates a joint key and MAC key (Initialize), produces one Beaver
// triple (Triple), opens it with the MAC-check protocol, and reports
// success. Per spec §6, CLI parsing and JSON loading are themselves
// non-goals of the cryptographic core — this command is a thin driver
// over the packages that are, grounded on the teacher's examples/*
// command style (plain stdlib flag/log, panic-free error propagation
// via log.Fatal-style single-line diagnostics on exit).
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/big"
	"os"

	"github.com/tuneinsight/spdz-offline/errs"
	"github.com/tuneinsight/spdz-offline/party"
	"github.com/tuneinsight/spdz-offline/preprocessing"
	"github.com/tuneinsight/spdz-offline/prng"
	"github.com/tuneinsight/spdz-offline/ring"
	"github.com/tuneinsight/spdz-offline/she"
	"github.com/tuneinsight/spdz-offline/zkpopk"
)

// input mirrors spec §6's configuration file: `{ "x": <u128> }`. The
// core reads only its presence, so the driver here reports parse
// failures without ever looking at the value beyond validating the
// field exists.
type input struct {
	X *big.Int `json:"x"`
}

const nParties = 3

func main() {
	os.Exit(run())
}

func run() int {
	if len(os.Args) != 2 {
		log.Println("ParameterInvalid: usage: spdzoffline <input.json>")
		return 1
	}

	raw, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Printf("ParameterInvalid: reading input: %v", err)
		return 1
	}
	var in input
	if err := json.Unmarshal(raw, &in); err != nil {
		log.Printf("EncodingFailure: parsing input: %v", err)
		return 1
	}
	if in.X == nil {
		log.Println("EncodingFailure: input JSON must set \"x\"")
		return 1
	}

	if err := runPreprocessing(); err != nil {
		if e, ok := err.(*errs.Error); ok {
			log.Printf("%s", e.Kind)
		} else {
			log.Printf("error: %v", err)
		}
		return 2
	}

	fmt.Println("preprocessing ok: one MAC-checked triple produced")
	return 0
}

// runPreprocessing runs a minimal end-to-end session: Initialize then
// one Triple, whose a, b and c are then opened with the MAC-check
// protocol and checked for c = a*b (see checkTriple).
func runPreprocessing() error {
	s := 2
	p, _ := new(big.Int).SetString("41", 10)
	q, _ := new(big.Int).SetString("83380292323641237751", 10)

	sheParams, err := she.NewParameters(s, p, q, 3.2)
	if err != nil {
		return err
	}
	zkParams := zkpopk.NewParameters(1, big.NewInt(int64(s)), big.NewInt(2), big.NewInt(int64(3*s)), big.NewInt(2))

	samplers := make([]*ring.Sampler, nParties)
	for i := range samplers {
		partyPRNG, err := prng.NewKeyedPRNG(nil)
		if err != nil {
			return err
		}
		samplers[i] = ring.NewSampler(partyPRNG, sheParams.StdDev)
	}

	driver, err := preprocessing.NewDriver(nParties, sheParams, zkParams, samplers)
	if err != nil {
		return err
	}

	mac, err := preprocessing.Initialize(driver)
	if err != nil {
		return err
	}

	triple, err := preprocessing.RunTriple(driver, mac, "session")
	if err != nil {
		return err
	}

	return checkTriple(driver, mac, triple)
}

// checkTriple opens a, b, c with the MAC-check protocol and verifies
// c = a*b in 𝔽ₚ (spec §8 property 9).
func checkTriple(d *preprocessing.Driver, mac preprocessing.MacKey, t preprocessing.Triple) error {
	n := d.NParties
	hub := d.Hub
	results := make([]error, n)
	done := make(chan struct{})

	for i := 0; i < n; i++ {
		go func(id int) {
			defer func() { done <- struct{}{} }()
			tr := hub.View(id)
			av, err := party.OpenWithMacCheck(tr, "check.a", t.A.Angle[id].Share, t.A.Angle[id].Mac, mac.AlphaShares[id])
			if err != nil {
				results[id] = err
				return
			}
			bv, err := party.OpenWithMacCheck(tr, "check.b", t.B.Angle[id].Share, t.B.Angle[id].Mac, mac.AlphaShares[id])
			if err != nil {
				results[id] = err
				return
			}
			cv, err := party.OpenWithMacCheck(tr, "check.c", t.AngleC[id].Share, t.AngleC[id].Mac, mac.AlphaShares[id])
			if err != nil {
				results[id] = err
				return
			}
			if id == 0 {
				for k := range av {
					got := cv[k].BigInt()
					want := av[k].Mul(bv[k]).BigInt()
					if got.Cmp(want) != 0 {
						results[id] = fmt.Errorf("triple check failed at slot %d", k)
						return
					}
				}
			}
		}(i)
	}
	for i := 0; i < n; i++ {
		<-done
	}
	for _, err := range results {
		if err != nil {
			return err
		}
	}
	return nil
}
