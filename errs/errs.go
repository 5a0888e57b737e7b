// Package errs defines the error kinds of spec §7. Cryptographic
// failures (ProofMismatch, NormBound, MacCheckFailure, NoiseOverflow)
// are never caught internally: callers are expected to let them
// propagate and abort the batch, per the propagation policy in §7.
package errs

import "fmt"

// Kind identifies one of the abstract error kinds from spec §7.
type Kind string

const (
	KindParameterInvalid Kind = "ParameterInvalid"
	KindEncodingFailure  Kind = "EncodingFailure"
	KindNoiseOverflow    Kind = "NoiseOverflow"
	KindDepthExceeded    Kind = "DepthExceeded"
	KindProofMismatch    Kind = "ProofMismatch"
	KindNormBound        Kind = "NormBound"
	KindMacCheckFailure  Kind = "MacCheckFailure"
	KindTransportAborted Kind = "TransportAborted"
	KindUnimplemented    Kind = "Unimplemented"
)

// Error is the single error type every package in this module returns
// for a spec-named failure. Index/Party/NormKind are set only by the
// kinds that carry them (ProofMismatch, NormBound, TransportAborted).
type Error struct {
	Kind     Kind
	Index    int    // ProofMismatch / NormBound row index
	NormKind string // NormBound: "z" or "T"
	Party    int    // TransportAborted party id
	Msg      string
	Err      error // wrapped underlying cause, if any
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindProofMismatch:
		return fmt.Sprintf("%s: row %d: %s", e.Kind, e.Index, e.Msg)
	case KindNormBound:
		return fmt.Sprintf("%s(%s): row %d: %s", e.Kind, e.NormKind, e.Index, e.Msg)
	case KindTransportAborted:
		return fmt.Sprintf("%s: party %d: %s", e.Kind, e.Party, e.Msg)
	default:
		if e.Msg == "" {
			return string(e.Kind)
		}
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind, so callers
// can use errors.Is(err, errs.New(errs.KindNoiseOverflow, "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New creates a plain *Error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap creates an *Error of the given kind wrapping err.
func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// ProofMismatch creates a ProofMismatch{index} error.
func ProofMismatch(index int, msg string) *Error {
	return &Error{Kind: KindProofMismatch, Index: index, Msg: msg}
}

// NormBoundErr creates a NormBound{kind: z|T, index} error.
func NormBoundErr(normKind string, index int, msg string) *Error {
	return &Error{Kind: KindNormBound, NormKind: normKind, Index: index, Msg: msg}
}

// TransportAborted creates a TransportAborted{party} error.
func TransportAborted(party int, msg string) *Error {
	return &Error{Kind: KindTransportAborted, Party: party, Msg: msg}
}
