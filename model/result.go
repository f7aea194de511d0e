package model

import (
	"fmt"
	"strings"
)

// Kind tags the shape of a model's result.
type Kind uint8

const (
	KindNone Kind = iota
	KindSingle
	KindSequence
	KindTuple
)

func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindSequence:
		return "sequence"
	case KindTuple:
		return "tuple"
	default:
		return "none"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "single", "":
		return KindSingle, nil
	case "sequence", "list":
		return KindSequence, nil
	case "tuple":
		return KindTuple, nil
	default:
		return KindNone, fmt.Errorf("unknown result kind %q", s)
	}
}

// Result is what a model returns: one tensor, a sequence of tensors, or a tuple of tensors.
// The zero Result has KindNone.
type Result struct {
	kind  Kind
	elems []Tensor
}

func Single(t Tensor) Result {
	return Result{kind: KindSingle, elems: []Tensor{t}}
}

func Sequence(ts ...Tensor) Result {
	return Result{kind: KindSequence, elems: ts}
}

func Tuple(ts ...Tensor) Result {
	return Result{kind: KindTuple, elems: ts}
}

func (r Result) Kind() Kind { return r.kind }

func (r Result) IsTuple() bool { return r.kind == KindTuple }

// Tensor returns the tensor of a single result.
func (r Result) Tensor() (Tensor, bool) {
	if r.kind != KindSingle {
		return Tensor{}, false
	}
	return r.elems[0], true
}

// Elements returns the tensors of a sequence or tuple result.
func (r Result) Elements() []Tensor {
	if r.kind == KindSingle || r.kind == KindNone {
		return nil
	}
	return r.elems
}

func (r Result) Len() int { return len(r.elems) }

func (r Result) String() string {
	parts := make([]string, len(r.elems))
	for i, t := range r.elems {
		parts[i] = t.String()
	}
	return fmt.Sprintf("%s(%s)", r.kind, strings.Join(parts, ", "))
}
