package signet

import (
	"github.com/inconshreveable/log15"

	"github.com/AnatoleLucet/signet/model"
)

type Option func(*Entity)

// WithLogger replaces the entity's logger. The entity adds its own context to it.
func WithLogger(log log15.Logger) Option {
	return func(e *Entity) { e.log = log }
}

// WithLoader sets how LoadModel resolves paths. Defaults to netfile.Loader.
func WithLoader(loader model.Loader) Option {
	return func(e *Entity) { e.loader = loader }
}

// WithStopwatch replaces the wall clock stopwatch timing each evaluation.
func WithStopwatch(sw Stopwatch) Option {
	return func(e *Entity) { e.net.stopwatch = sw }
}

// WithModel starts the entity with an already built model.
func WithModel(m model.Model) Option {
	return func(e *Entity) {
		e.net.model = m
		e.net.modelPath = "<memory>"
	}
}
