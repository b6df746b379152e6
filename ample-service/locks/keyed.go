package locks

import "sync"

// Keyed hands out one mutex per key, so that work on different keys proceeds in
// parallel while work on the same key is serialized.
// The zero value is ready to use.
type Keyed[K comparable] struct {
	mu    sync.Mutex
	inner map[K]*sync.Mutex
}

func (k *Keyed[K]) get(key K) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.inner == nil {
		k.inner = make(map[K]*sync.Mutex)
	}
	m, ok := k.inner[key]
	if !ok {
		m = new(sync.Mutex)
		k.inner[key] = m
	}
	return m
}

// Lock blocks until the lock for key is held, and returns the matching unlock func.
func (k *Keyed[K]) Lock(key K) (unlock func()) {
	m := k.get(key)
	m.Lock()
	return m.Unlock
}

// With runs fn while holding the lock for key.
func (k *Keyed[K]) With(key K, fn func() error) error {
	unlock := k.Lock(key)
	defer unlock()
	return fn()
}
