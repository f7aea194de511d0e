// Package model defines the contracts between the evaluation engine and the
// computation it drives: tensors, tagged results, models and model loaders.
package model

import (
	"errors"
	"fmt"
	"strings"
)

var ErrNoLoader = errors.New("no loader")

// Model is an opaque computation. Forward receives one tensor per registered input,
// in registration order, and must not modify them.
type Model interface {
	Forward(inputs []Tensor) (Result, error)
}

// Func adapts a plain function to the Model interface.
type Func func(inputs []Tensor) (Result, error)

func (f Func) Forward(inputs []Tensor) (Result, error) { return f(inputs) }

// Loader turns a path into a Model.
type Loader interface {
	Load(path string) (Model, error)
}

type LoaderFunc func(path string) (Model, error)

func (f LoaderFunc) Load(path string) (Model, error) { return f(path) }

// Dispatch routes "scheme:rest" paths to the loader registered for scheme and
// everything else to Default.
type Dispatch struct {
	Default Loader
	Schemes map[string]Loader
}

func (d Dispatch) Load(path string) (Model, error) {
	if scheme, rest, ok := strings.Cut(path, ":"); ok {
		if loader, ok := d.Schemes[scheme]; ok {
			return loader.Load(rest)
		}
	}

	if d.Default == nil {
		return nil, fmt.Errorf("%w for %q", ErrNoLoader, path)
	}
	return d.Default.Load(path)
}
