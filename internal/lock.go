package internal

import (
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"
)

// Lock is a mutex owned by a goroutine. The owning goroutine may lock it again,
// so a source function evaluated under the lock can call back into its entity.
type Lock struct {
	mu sync.Mutex

	// id of the goroutine holding mu, 0 when free (goroutine ids start at 1)
	owner atomic.Int64
	depth int
}

func (l *Lock) Lock() {
	gid := goid.Get()
	if l.owner.Load() == gid {
		l.depth++
		return
	}

	l.mu.Lock()
	l.owner.Store(gid)
	l.depth = 1
}

func (l *Lock) Unlock() {
	if l.owner.Load() != goid.Get() {
		panic("internal: unlock of a Lock not held by this goroutine")
	}

	l.depth--
	if l.depth == 0 {
		l.owner.Store(0)
		l.mu.Unlock()
	}
}
