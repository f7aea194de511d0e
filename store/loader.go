package store

import (
	"context"
	"fmt"
	"os"

	"github.com/AnatoleLucet/signet/model"
	"github.com/AnatoleLucet/signet/netfile"
)

// Loader loads stored programs by record name.
type Loader struct {
	ctx   context.Context
	store Store
}

func NewLoader(ctx context.Context, store Store) *Loader {
	return &Loader{ctx: ctx, store: store}
}

func (l *Loader) Load(name string) (model.Model, error) {
	rec, ok, err := l.store.Get(l.ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("model %q: %w", name, os.ErrNotExist)
	}

	p, err := netfile.Decode(rec.Encoding, rec.Payload)
	if err != nil {
		return nil, fmt.Errorf("model %q revision %s: %w", name, rec.Revision, err)
	}
	return p, nil
}

// Import validates the program file at path and stores it under name.
func Import(ctx context.Context, store Store, name, path string) (Record, error) {
	enc, err := netfile.EncodingForPath(path)
	if err != nil {
		return Record{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, err
	}

	if _, err := netfile.Decode(enc, data); err != nil {
		return Record{}, fmt.Errorf("%s: %w", path, err)
	}

	return store.Put(ctx, Record{Name: name, Encoding: enc, Payload: data})
}
