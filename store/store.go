// Package store persists model programs so entities can load them by name.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/AnatoleLucet/signet/netfile"
)

var ErrNotInitialized = errors.New("store is not initialized")

// Record is one stored model. Put assigns a fresh Revision on every write.
type Record struct {
	Name     string
	Revision string
	Encoding netfile.Encoding
	Payload  []byte
	StoredAt time.Time
}

// Store defines the persistence operations for model programs.
type Store interface {
	Init(ctx context.Context) error
	Put(ctx context.Context, rec Record) (Record, error)
	Get(ctx context.Context, name string) (Record, bool, error)
	// List returns every record sorted by name.
	List(ctx context.Context) ([]Record, error)
	Delete(ctx context.Context, name string) (bool, error)
}

func stamp(rec Record, now func() time.Time) (Record, error) {
	if rec.Name == "" {
		return rec, errors.New("record name is required")
	}
	if _, err := netfile.ParseEncoding(string(rec.Encoding)); err != nil {
		return rec, err
	}

	rec.Revision = uuid.NewString()
	rec.StoredAt = now().UTC()
	return rec, nil
}
