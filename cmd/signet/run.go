package main

import (
	"context"
	"io"

	"github.com/inconshreveable/log15"
	"github.com/ugorji/go/codec"

	"github.com/AnatoleLucet/signet"
	"github.com/AnatoleLucet/signet/model"
	"github.com/AnatoleLucet/signet/netfile"
	"github.com/AnatoleLucet/signet/store"
)

// Tick is one line of `signet run` output.
type Tick struct {
	Time       int                  `codec:"time"`
	DurationMs float64              `codec:"duration_ms"`
	Outputs    map[string][]float64 `codec:"outputs"`
}

// NewEntity builds the entity a run file describes. Models named "store:<name>"
// are read from s, anything else is a program file on disk.
func NewEntity(ctx context.Context, rf RunFile, s store.Store, log log15.Logger) (*signet.Entity, error) {
	loader := model.Dispatch{
		Default: netfile.NewLoader(),
		Schemes: map[string]model.Loader{"store": store.NewLoader(ctx, s)},
	}

	e := signet.New(rf.Name, signet.WithLogger(log), signet.WithLoader(loader))
	if err := e.LoadModel(rf.Model); err != nil {
		return nil, err
	}

	for _, cfg := range rf.Inputs {
		in, err := e.AddInput(cfg.Name)
		if err != nil {
			return nil, err
		}
		in.Plug(cfg.Source())
	}
	for _, name := range rf.Outputs {
		if _, err := e.AddOutput(name); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Run evaluates the entity for every time in [rf.From, rf.To] and writes one JSON line per time.
func Run(ctx context.Context, rf RunFile, s store.Store, log log15.Logger, out io.Writer) error {
	e, err := NewEntity(ctx, rf, s, log)
	if err != nil {
		return err
	}

	if rf.Warmup {
		if err := e.Warmup(); err != nil {
			return err
		}
	}

	h := &codec.JsonHandle{}
	h.Canonical = true
	enc := codec.NewEncoder(out, h)

	for time := rf.From; time <= rf.To; time++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		ms, err := e.RunNetwork(time)
		if err != nil {
			return err
		}

		tick := Tick{Time: time, DurationMs: ms, Outputs: make(map[string][]float64, len(rf.Outputs))}
		for _, name := range rf.Outputs {
			v, err := e.GetOutput(name, time)
			if err != nil {
				return err
			}
			tick.Outputs[name] = v
		}

		if err := enc.Encode(tick); err != nil {
			return err
		}
		// one tick per line
		if _, err := out.Write([]byte{'\n'}); err != nil {
			return err
		}
	}

	log.Info("run finished", "entity", rf.Name, "from", rf.From, "to", rf.To)
	return nil
}
