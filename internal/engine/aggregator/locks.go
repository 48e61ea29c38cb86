package aggregator

import (
	"sync"

	"go.trai.ch/forge/internal/core/domain"
)

// keyedMutex serializes work per build set id. Entries are dropped once nobody holds or
// waits for them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[domain.BuildSetID]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[domain.BuildSetID]*refMutex)}
}

// Lock acquires the lock of id and returns its release function.
func (k *keyedMutex) Lock(id domain.BuildSetID) func() {
	k.mu.Lock()
	m, ok := k.locks[id]
	if !ok {
		m = &refMutex{}
		k.locks[id] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, id)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
