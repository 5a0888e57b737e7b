/*
Package spdzoffline implements the offline (preprocessing) phase of a
SPDZ-style secure multi-party computation protocol: a BGV-like
somewhat-homomorphic encryption scheme, a zero-knowledge proof of
plaintext knowledge, and the Reshare/PAngle/PBracket combinators used to
turn a ciphertext into MAC-authenticated additive shares.

The library features:

  - A pure Go implementation of a single-level (depth-1) BGV scheme over
    a power-of-two cyclotomic ring.
  - CRT-based plaintext packing into s slots of the plaintext field.
  - An amortised sigma-protocol proof of plaintext knowledge (ZKPoPK).
  - The SPDZ preprocessing combinators that produce [r], ⟨r⟩ and Beaver
    triples for the online phase to consume.

spdzoffline targets an abstract n-party transport (see package party)
and is agnostic to how parties are actually connected.
*/
package spdzoffline
