// Package party implements the abstract per-party transport contract of
// spec §4.H (broadcast, reveal-sum-via-broadcast) and the MAC-check
// opening protocol built on top of it. The preprocessing core in
// mpc/preprocessing is written entirely against the Transport interface;
// RoundHub/LocalTransport is the in-process reference implementation
// that lets a single test process stand in for n cooperating parties
// (spec §5: "n parallel parties executing in synchronous rounds;
// within a single party sequential").
//
// No real network library is implicated here — the spec's transport is
// explicitly abstract, and the core only ever needs Broadcast — so this
// is one of the few packages built on the standard library alone (see
// DESIGN.md): it is a synchronisation primitive (sync.Cond-driven round
// barrier), not a domain dependency any example's import list covers.
package party

import (
	"fmt"
	"sync"

	"github.com/tuneinsight/spdz-offline/errs"
)

// Transport is what the preprocessing core needs from the rest of the
// parties: broadcast(tag, value), every party contributing a value
// tagged by tag and receiving every contribution in party-index order.
type Transport interface {
	NumParties() int
	ID() int
	Broadcast(tag string, value []byte) ([][]byte, error)
}

type roundState struct {
	values  [][]byte
	filled  int
	readers int
}

// RoundHub is the shared synchronisation point n LocalTransport views
// rendezvous on; one per preprocessing session.
type RoundHub struct {
	n    int
	mu   sync.Mutex
	cond *sync.Cond

	rounds map[string]*roundState
}

// NewRoundHub creates a hub for n parties.
func NewRoundHub(n int) *RoundHub {
	h := &RoundHub{n: n, rounds: make(map[string]*roundState)}
	h.cond = sync.NewCond(&h.mu)
	return h
}

// View returns the Transport a single party (0 <= id < n) should use.
func (h *RoundHub) View(id int) Transport {
	return &LocalTransport{hub: h, id: id}
}

// LocalTransport is one party's handle onto a RoundHub.
type LocalTransport struct {
	hub *RoundHub
	id  int
}

func (t *LocalTransport) NumParties() int { return t.hub.n }
func (t *LocalTransport) ID() int         { return t.id }

// Broadcast blocks until every party has submitted a value under tag,
// then returns all n contributions ordered by party id. Per spec §5,
// every round is a total barrier: no message crosses rounds, and a
// party that never shows up (modelled here as a caller that never
// calls Broadcast with this tag) blocks forever rather than silently
// proceeding — timeout policy belongs to a transport wrapper, not this
// reference implementation.
func (t *LocalTransport) Broadcast(tag string, value []byte) ([][]byte, error) {
	h := t.hub
	if t.id < 0 || t.id >= h.n {
		return nil, errs.TransportAborted(t.id, fmt.Sprintf("party id %d out of range [0,%d)", t.id, h.n))
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	rs, ok := h.rounds[tag]
	if !ok {
		rs = &roundState{values: make([][]byte, h.n)}
		h.rounds[tag] = rs
	}
	rs.values[t.id] = value
	rs.filled++
	h.cond.Broadcast()

	for rs.filled < h.n {
		h.cond.Wait()
	}

	out := make([][]byte, h.n)
	copy(out, rs.values)

	rs.readers++
	if rs.readers == h.n {
		delete(h.rounds, tag)
	}

	return out, nil
}
